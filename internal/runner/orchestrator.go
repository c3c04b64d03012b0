package runner

import (
	"context"
	"errors"
	"strings"
	"sync"
	"time"

	"github.com/google/uuid"

	"focusctl/internal/client"
	"focusctl/internal/countdown"
	"focusctl/internal/logging"
	"focusctl/internal/types"
)

// staleAfter is how long a cached session read stays trustworthy. Reads past
// this age force a refetch before they are served.
const staleAfter = 30 * time.Second

// ErrOperationInFlight rejects a second session mutation from this client
// before it reaches the network. Snooze, pause, and checkout serialize per
// session; the backend would refuse the race anyway, this just fails faster.
var ErrOperationInFlight = errors.New("another session operation is in flight")

type State string

const (
	StateIdle    State = "idle"
	StateActive  State = "active"
	StateOverdue State = "overdue"
	StatePaused  State = "paused"
)

// View is the composed runner status served to the UI.
type View struct {
	State          State
	Session        *types.WorkSession
	Countdown      countdown.Status
	NextCandidates []types.ScheduleEntry
	FetchedAt      time.Time
}

// SessionAPI is the slice of the backend client the orchestrator needs.
type SessionAPI interface {
	StartSession(ctx context.Context, req client.StartSessionRequest) (*types.WorkSession, error)
	Checkout(ctx context.Context, req client.CheckoutRequest) (*client.CheckoutResponse, error)
	PauseSession(ctx context.Context) (*types.WorkSession, error)
	ResumeSession(ctx context.Context, extendCheckout bool) (*types.WorkSession, error)
	Snooze(ctx context.Context, minutes int) (*types.SnoozeResponse, error)
	CurrentSession(ctx context.Context) (*types.WorkSession, error)
	UnresponsiveSession(ctx context.Context) (*types.WorkSession, error)
	DaySchedule(ctx context.Context, date string) ([]types.ScheduleEntry, error)
}

// SnapshotSink receives local write-throughs of the session view.
type SnapshotSink interface {
	PutActiveSession(session *types.WorkSession) error
	AppendHistory(session *types.WorkSession) error
}

// Orchestrator owns the client-side session state machine. The cached view
// converges from three sources: user mutations (freshest, always overwrite),
// the poller, and push-driven refreshes. Mutation responses win.
type Orchestrator struct {
	api       SessionAPI
	bus       *Bus
	snapshots SnapshotSink
	logger    logging.Logger
	now       func() time.Time

	mu             sync.Mutex
	session        *types.WorkSession
	schedule       []types.ScheduleEntry
	fetchedAt      time.Time
	mutations      uint64
	inFlight       map[string]struct{}
	scheduleCancel context.CancelFunc

	ticker *countdown.Ticker
}

func NewOrchestrator(api SessionAPI, bus *Bus, snapshots SnapshotSink, logger logging.Logger) *Orchestrator {
	if logger == nil {
		logger = logging.Nop()
	}
	if bus == nil {
		bus = NewBus()
	}
	o := &Orchestrator{
		api:       api,
		bus:       bus,
		snapshots: snapshots,
		logger:    logger,
		now:       time.Now,
		inFlight:  map[string]struct{}{},
	}
	o.ticker = countdown.NewTicker(func(time.Time) {
		o.publishView()
	})
	return o
}

func (o *Orchestrator) Bus() *Bus {
	return o.bus
}

func (o *Orchestrator) Close() {
	o.ticker.Stop()
	o.mu.Lock()
	cancel := o.scheduleCancel
	o.scheduleCancel = nil
	o.mu.Unlock()
	if cancel != nil {
		cancel()
	}
}

// StartSession begins a focus session on the task. Conflict means a session
// is already active somewhere; the cache resyncs before the error surfaces.
func (o *Orchestrator) StartSession(ctx context.Context, taskID string, plannedCheckoutAt time.Time, plannedOutcome string) (*types.WorkSession, error) {
	release, err := o.acquire("start")
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := o.api.StartSession(ctx, client.StartSessionRequest{
		TaskID:            strings.TrimSpace(taskID),
		PlannedCheckoutAt: plannedCheckoutAt.UTC().Format(time.RFC3339),
		PlannedOutcome:    plannedOutcome,
	})
	if err != nil {
		o.maybeResync(ctx, err)
		return nil, err
	}
	o.setSession(session)
	return session, nil
}

type CheckoutOptions struct {
	Decision               types.SessionDecision
	CheckoutType           string
	ContinueReason         string
	KPTKeep                string
	KPTProblem             string
	KPTTry                 string
	RemainingEstimateHours *float64
	NextTaskID             string
}

// Checkout ends the session. The response may carry a generated work log and
// a reschedule suggestion; both are returned to the caller untouched.
func (o *Orchestrator) Checkout(ctx context.Context, opts CheckoutOptions) (*client.CheckoutResponse, error) {
	release, err := o.acquire(o.sessionKey())
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := o.api.Checkout(ctx, client.CheckoutRequest{
		Decision:               opts.Decision,
		CheckoutType:           opts.CheckoutType,
		ContinueReason:         opts.ContinueReason,
		KPTKeep:                opts.KPTKeep,
		KPTProblem:             opts.KPTProblem,
		KPTTry:                 opts.KPTTry,
		RemainingEstimateHours: opts.RemainingEstimateHours,
		NextTaskID:             opts.NextTaskID,
		IdempotencyKey:         uuid.NewString(),
	})
	if err != nil {
		o.maybeResync(ctx, err)
		return nil, err
	}
	if o.snapshots != nil && resp.Session != nil {
		if err := o.snapshots.AppendHistory(resp.Session); err != nil {
			o.logger.Warn("history_snapshot_failed", logging.F("err", err))
		}
	}
	o.setSession(nil)
	return resp, nil
}

func (o *Orchestrator) Pause(ctx context.Context) (*types.WorkSession, error) {
	release, err := o.acquire(o.sessionKey())
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := o.api.PauseSession(ctx)
	if err != nil {
		o.maybeResync(ctx, err)
		return nil, err
	}
	o.setSession(session)
	return session, nil
}

// Resume clears the pause. With extendCheckout the backend shifts the planned
// checkout forward by the paused duration, so the user keeps the work time
// they paused with.
func (o *Orchestrator) Resume(ctx context.Context, extendCheckout bool) (*types.WorkSession, error) {
	release, err := o.acquire(o.sessionKey())
	if err != nil {
		return nil, err
	}
	defer release()

	session, err := o.api.ResumeSession(ctx, extendCheckout)
	if err != nil {
		o.maybeResync(ctx, err)
		return nil, err
	}
	o.setSession(session)
	return session, nil
}

// Snooze postpones the checkout reminder. The updated snooze count is only
// observable through a re-read, so success triggers a current-session
// refresh rather than trusting the mutation response alone.
func (o *Orchestrator) Snooze(ctx context.Context, minutes int) (*types.SnoozeResponse, error) {
	release, err := o.acquire(o.sessionKey())
	if err != nil {
		return nil, err
	}
	defer release()

	resp, err := o.api.Snooze(ctx, minutes)
	if err != nil {
		o.maybeResync(ctx, err)
		return nil, err
	}
	if err := o.Refresh(ctx); err != nil {
		o.logger.Warn("post_snooze_refresh_failed", logging.F("err", err))
	}
	return resp, nil
}

// Refresh refetches the current session and overwrites the cache. The
// response only applies if no mutation landed after the fetch began; a
// mutation's success response is fresher than any concurrent poll.
func (o *Orchestrator) Refresh(ctx context.Context) error {
	o.mu.Lock()
	gen := o.mutations
	o.mu.Unlock()

	session, err := o.api.CurrentSession(ctx)
	if err != nil {
		o.logger.Debug("session_refresh_failed", logging.F("err", err))
		return err
	}
	o.setRefetched(session, gen)
	return nil
}

// RefreshSchedule refetches the day's plan. A schedule fetch already in
// flight for a previous session identity is aborted first.
func (o *Orchestrator) RefreshSchedule(ctx context.Context) error {
	o.mu.Lock()
	if o.scheduleCancel != nil {
		o.scheduleCancel()
	}
	fetchCtx, cancel := context.WithCancel(ctx)
	o.scheduleCancel = cancel
	now := o.now()
	o.mu.Unlock()

	entries, err := o.api.DaySchedule(fetchCtx, now.Format("2006-01-02"))
	if err != nil {
		return err
	}
	o.mu.Lock()
	o.schedule = entries
	o.mu.Unlock()
	o.publishView()
	return nil
}

// ProbeUnresponsive asks the backend for a session that was never checked
// out and has gone silent. Any hit is published for the user to recover, not
// silently adopted.
func (o *Orchestrator) ProbeUnresponsive(ctx context.Context) (*types.WorkSession, error) {
	session, err := o.api.UnresponsiveSession(ctx)
	if err != nil {
		return nil, err
	}
	if session != nil {
		o.bus.Publish(Event{Kind: EventSessionRecovered, Session: session})
	}
	return session, nil
}

// View serves the composed runner status. A cache older than staleAfter is
// refetched before serving; a refetch failure falls back to the stale copy.
func (o *Orchestrator) View(ctx context.Context) *View {
	o.mu.Lock()
	stale := o.fetchedAt.IsZero() || o.now().Sub(o.fetchedAt) > staleAfter
	o.mu.Unlock()
	if stale {
		if err := o.Refresh(ctx); err != nil {
			o.logger.Debug("stale_view_refresh_failed", logging.F("err", err))
		}
	}
	return o.CachedView()
}

// CachedView computes the view from cached state only; no network.
func (o *Orchestrator) CachedView() *View {
	o.mu.Lock()
	defer o.mu.Unlock()
	return o.viewLocked()
}

func (o *Orchestrator) viewLocked() *View {
	now := o.now()
	view := &View{
		State:     classify(o.session, now),
		Session:   types.CloneWorkSession(o.session),
		FetchedAt: o.fetchedAt,
	}
	if o.session.Active() {
		view.Countdown = countdown.Compute(o.session.PlannedCheckoutAt, o.session.StartedAt, o.session.PausedAt, now)
	}
	activeTask := ""
	if o.session.Active() {
		activeTask = o.session.TaskID
	}
	view.NextCandidates = NextCandidates(o.schedule, activeTask, now)
	return view
}

// classify maps a session record to the runner state. Paused wins over
// overdue: a frozen countdown cannot be late.
func classify(session *types.WorkSession, now time.Time) State {
	switch {
	case !session.Active():
		return StateIdle
	case session.Paused():
		return StatePaused
	case now.After(session.PlannedCheckoutAt):
		return StateOverdue
	default:
		return StateActive
	}
}

// setSession stores a mutation success response. Bumping the generation
// makes any refetch started before this point drop its response on arrival.
func (o *Orchestrator) setSession(session *types.WorkSession) {
	o.mu.Lock()
	o.mutations++
	taskChanged, cancel := o.storeLocked(session)
	o.mu.Unlock()
	o.afterStore(session, taskChanged, cancel)
}

// setRefetched stores a CurrentSession response captured at generation gen,
// discarding it if a mutation landed in the meantime.
func (o *Orchestrator) setRefetched(session *types.WorkSession, gen uint64) {
	o.mu.Lock()
	if o.mutations != gen {
		o.mu.Unlock()
		o.logger.Debug("stale_refresh_discarded")
		return
	}
	taskChanged, cancel := o.storeLocked(session)
	o.mu.Unlock()
	o.afterStore(session, taskChanged, cancel)
}

func (o *Orchestrator) storeLocked(session *types.WorkSession) (bool, context.CancelFunc) {
	prevTask := ""
	if o.session != nil {
		prevTask = o.session.TaskID
	}
	o.session = session
	o.fetchedAt = o.now()
	taskChanged := session == nil || session.TaskID != prevTask
	cancel := o.scheduleCancel
	if taskChanged {
		o.scheduleCancel = nil
	}
	return taskChanged, cancel
}

func (o *Orchestrator) afterStore(session *types.WorkSession, taskChanged bool, cancel context.CancelFunc) {
	if taskChanged && cancel != nil {
		cancel()
	}
	if o.snapshots != nil {
		snapshot := session
		if !snapshot.Active() {
			snapshot = nil
		}
		if err := o.snapshots.PutActiveSession(snapshot); err != nil {
			o.logger.Warn("session_snapshot_failed", logging.F("err", err))
		}
	}
	if session.Active() && !session.Paused() {
		o.ticker.Start()
	} else {
		o.ticker.Stop()
	}
	o.publishView()
}

func (o *Orchestrator) publishView() {
	o.bus.Publish(Event{Kind: EventViewUpdated, View: o.CachedView()})
}

func (o *Orchestrator) maybeResync(ctx context.Context, err error) {
	if !client.IsResyncable(err) {
		return
	}
	o.logger.Info("session_state_diverged", logging.F("err", err))
	if refreshErr := o.Refresh(ctx); refreshErr != nil {
		o.logger.Warn("resync_failed", logging.F("err", refreshErr))
	}
	o.bus.Publish(Event{Kind: EventSyncError, Err: err})
}

func (o *Orchestrator) sessionKey() string {
	o.mu.Lock()
	defer o.mu.Unlock()
	if o.session != nil && o.session.ID != "" {
		return o.session.ID
	}
	return "session"
}

func (o *Orchestrator) acquire(key string) (func(), error) {
	o.mu.Lock()
	defer o.mu.Unlock()
	if _, busy := o.inFlight[key]; busy {
		return nil, ErrOperationInFlight
	}
	o.inFlight[key] = struct{}{}
	return func() {
		o.mu.Lock()
		delete(o.inFlight, key)
		o.mu.Unlock()
	}, nil
}
