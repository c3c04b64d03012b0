package runner

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"sync"
	"testing"
	"time"

	"focusctl/internal/client"
	"focusctl/internal/types"
)

// fakeClock is a manual clock shared by the orchestrator and the fake
// backend so test time moves deterministically.
type fakeClock struct {
	mu  sync.Mutex
	now time.Time
}

func newFakeClock(start time.Time) *fakeClock {
	return &fakeClock{now: start}
}

func (c *fakeClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.now
}

func (c *fakeClock) Advance(d time.Duration) {
	c.mu.Lock()
	defer c.mu.Unlock()
	c.now = c.now.Add(d)
}

// fakeAPI mimics the backend's session semantics: single active session,
// pause freezes, resume optionally extends, snooze capped.
type fakeAPI struct {
	mu           sync.Mutex
	clock        *fakeClock
	session      *types.WorkSession
	schedule     []types.ScheduleEntry
	unresponsive *types.WorkSession
	suggestion   *types.RescheduleSuggestion
	calls          map[string]int
	pauseStarted   chan struct{}
	blockPause     chan struct{}
	currentStarted chan struct{}
	blockCurrent   chan struct{}
	nextID         int
}

func newFakeAPI(clock *fakeClock) *fakeAPI {
	return &fakeAPI{clock: clock, calls: map[string]int{}}
}

func (f *fakeAPI) count(name string) {
	f.calls[name]++
}

func (f *fakeAPI) callCount(name string) int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.calls[name]
}

func (f *fakeAPI) StartSession(_ context.Context, req client.StartSessionRequest) (*types.WorkSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("start")
	if f.session.Active() {
		return nil, &client.APIError{StatusCode: http.StatusConflict, Message: "a session is already active"}
	}
	target, err := time.Parse(time.RFC3339, req.PlannedCheckoutAt)
	if err != nil {
		return nil, err
	}
	f.nextID++
	f.session = &types.WorkSession{
		ID:                fmt.Sprintf("ws-%d", f.nextID),
		TaskID:            req.TaskID,
		StartedAt:         f.clock.Now(),
		PlannedCheckoutAt: target,
		PlannedOutcome:    req.PlannedOutcome,
	}
	return types.CloneWorkSession(f.session), nil
}

func (f *fakeAPI) Checkout(_ context.Context, req client.CheckoutRequest) (*client.CheckoutResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("checkout")
	if !f.session.Active() {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "no active session"}
	}
	ended := f.clock.Now()
	f.session.EndedAt = &ended
	resp := &client.CheckoutResponse{
		Session:              types.CloneWorkSession(f.session),
		RescheduleSuggestion: f.suggestion,
	}
	f.session = nil
	return resp, nil
}

func (f *fakeAPI) PauseSession(_ context.Context) (*types.WorkSession, error) {
	if f.pauseStarted != nil {
		select {
		case f.pauseStarted <- struct{}{}:
		default:
		}
	}
	if f.blockPause != nil {
		<-f.blockPause
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("pause")
	if !f.session.Active() || f.session.Paused() {
		return nil, &client.APIError{StatusCode: http.StatusConflict, Message: "cannot pause"}
	}
	at := f.clock.Now()
	f.session.PausedAt = &at
	return types.CloneWorkSession(f.session), nil
}

func (f *fakeAPI) ResumeSession(_ context.Context, extendCheckout bool) (*types.WorkSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("resume")
	if !f.session.Paused() {
		return nil, &client.APIError{StatusCode: http.StatusConflict, Message: "not paused"}
	}
	if extendCheckout {
		pausedFor := f.clock.Now().Sub(*f.session.PausedAt)
		f.session.PlannedCheckoutAt = f.session.PlannedCheckoutAt.Add(pausedFor)
	}
	f.session.PausedAt = nil
	return types.CloneWorkSession(f.session), nil
}

func (f *fakeAPI) Snooze(_ context.Context, minutes int) (*types.SnoozeResponse, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("snooze")
	if !f.session.Active() {
		return nil, &client.APIError{StatusCode: http.StatusNotFound, Message: "no active session"}
	}
	if f.session.SnoozeCount >= types.SnoozeLimit {
		return nil, &client.APIError{StatusCode: http.StatusTooManyRequests, Message: "snooze limit reached"}
	}
	f.session.SnoozeCount++
	return &types.SnoozeResponse{
		Session:      types.CloneWorkSession(f.session),
		SnoozedUntil: f.clock.Now().Add(time.Duration(minutes) * time.Minute),
	}, nil
}

func (f *fakeAPI) CurrentSession(_ context.Context) (*types.WorkSession, error) {
	f.mu.Lock()
	f.count("current")
	var session *types.WorkSession
	if f.session.Active() {
		session = types.CloneWorkSession(f.session)
	}
	f.mu.Unlock()

	// The response is captured above; the optional block delays delivery so
	// tests can land a mutation while this response is in flight.
	if f.currentStarted != nil {
		select {
		case f.currentStarted <- struct{}{}:
		default:
		}
	}
	if f.blockCurrent != nil {
		<-f.blockCurrent
	}
	return session, nil
}

func (f *fakeAPI) UnresponsiveSession(_ context.Context) (*types.WorkSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("unresponsive")
	return types.CloneWorkSession(f.unresponsive), nil
}

func (f *fakeAPI) DaySchedule(_ context.Context, _ string) ([]types.ScheduleEntry, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.count("schedule")
	return append([]types.ScheduleEntry{}, f.schedule...), nil
}

func newTestOrchestrator(t *testing.T, clock *fakeClock, api *fakeAPI) *Orchestrator {
	t.Helper()
	o := NewOrchestrator(api, NewBus(), nil, nil)
	o.now = clock.Now
	t.Cleanup(o.Close)
	return o
}

func TestStartThenViewRoundTrip(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	target := clock.Now().Add(time.Hour)
	session, err := o.StartSession(context.Background(), "task-7", target, "draft the proposal")
	if err != nil {
		t.Fatalf("StartSession error: %v", err)
	}
	if session.TaskID != "task-7" {
		t.Fatalf("task id = %s", session.TaskID)
	}

	view := o.CachedView()
	if view.State != StateActive {
		t.Fatalf("state = %s, want active", view.State)
	}
	if view.Session.TaskID != "task-7" || !view.Session.PlannedCheckoutAt.Equal(target) {
		t.Fatalf("view session diverges from start request: %+v", view.Session)
	}
}

func TestPauseResumeCycleScenario(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := newFakeClock(t0)
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", t0.Add(3600*time.Second), ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	clock.Advance(600 * time.Second)
	if _, err := o.Pause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	view := o.CachedView()
	if view.State != StatePaused {
		t.Fatalf("state = %s, want paused", view.State)
	}
	if view.Countdown.Remaining != 3000*time.Second {
		t.Fatalf("remaining at pause = %s, want 3000s", view.Countdown.Remaining)
	}

	// The countdown stays frozen while wall clock moves on.
	clock.Advance(600 * time.Second)
	view = o.CachedView()
	if view.Countdown.Remaining != 3000*time.Second {
		t.Fatalf("remaining while paused = %s, want 3000s", view.Countdown.Remaining)
	}
	if view.Countdown.Overdue {
		t.Fatalf("paused session reported overdue")
	}

	session, err := o.Resume(context.Background(), true)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	wantTarget := t0.Add(4200 * time.Second)
	if !session.PlannedCheckoutAt.Equal(wantTarget) {
		t.Fatalf("extended target = %s, want %s", session.PlannedCheckoutAt, wantTarget)
	}
	view = o.CachedView()
	if view.State != StateActive {
		t.Fatalf("state after resume = %s", view.State)
	}
	if view.Countdown.Remaining != 3000*time.Second {
		t.Fatalf("remaining after resume = %s, want 3000s", view.Countdown.Remaining)
	}
}

func TestResumeWithoutExtensionKeepsTarget(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := newFakeClock(t0)
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	target := t0.Add(time.Hour)
	if _, err := o.StartSession(context.Background(), "task-7", target, ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(10 * time.Minute)
	if _, err := o.Pause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	clock.Advance(10 * time.Minute)
	session, err := o.Resume(context.Background(), false)
	if err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !session.PlannedCheckoutAt.Equal(target) {
		t.Fatalf("target changed without extension: %s", session.PlannedCheckoutAt)
	}
}

func TestOverdueClassification(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := newFakeClock(t0)
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", t0.Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	clock.Advance(2 * time.Hour)
	view := o.CachedView()
	if view.State != StateOverdue {
		t.Fatalf("state = %s, want overdue", view.State)
	}
	if !view.Countdown.Overdue {
		t.Fatalf("countdown not overdue")
	}
}

func TestSnoozeThenCheckoutScenario(t *testing.T) {
	t0 := time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC)
	clock := newFakeClock(t0)
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", t0.Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	for i := 1; i <= types.SnoozeLimit; i++ {
		if _, err := o.Snooze(context.Background(), 5); err != nil {
			t.Fatalf("snooze %d: %v", i, err)
		}
		if got := o.CachedView().Session.SnoozeCount; got != i {
			t.Fatalf("snooze_count after snooze %d = %d", i, got)
		}
	}

	if _, err := o.Snooze(context.Background(), 5); !errors.Is(err, client.ErrLimitExceeded) {
		t.Fatalf("third snooze: want ErrLimitExceeded, got %v", err)
	}
	if got := o.CachedView().Session.SnoozeCount; got != types.SnoozeLimit {
		t.Fatalf("snooze_count after refused snooze = %d, want %d", got, types.SnoozeLimit)
	}

	resp, err := o.Checkout(context.Background(), CheckoutOptions{Decision: types.SessionDecisionComplete})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if resp.Session == nil || resp.Session.EndedAt == nil {
		t.Fatalf("checkout did not end session: %+v", resp.Session)
	}
	if view := o.CachedView(); view.State != StateIdle || view.Session != nil {
		t.Fatalf("view after checkout: %+v", view)
	}
	current, err := api.CurrentSession(context.Background())
	if err != nil || current != nil {
		t.Fatalf("backend still has a session: %+v err=%v", current, err)
	}
}

func TestCheckoutReturnsSuggestion(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	api.suggestion = &types.RescheduleSuggestion{ID: "rs-1", Status: types.ReschedulePending}
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", clock.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	resp, err := o.Checkout(context.Background(), CheckoutOptions{Decision: types.SessionDecisionContinue})
	if err != nil {
		t.Fatalf("checkout: %v", err)
	}
	if resp.RescheduleSuggestion == nil || resp.RescheduleSuggestion.ID != "rs-1" {
		t.Fatalf("suggestion not returned: %+v", resp)
	}
}

func TestStartConflictResyncsCache(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	// Another client already holds the active session.
	api.session = &types.WorkSession{
		ID:                "ws-other",
		TaskID:            "task-other",
		StartedAt:         clock.Now().Add(-10 * time.Minute),
		PlannedCheckoutAt: clock.Now().Add(50 * time.Minute),
	}
	o := newTestOrchestrator(t, clock, api)

	_, err := o.StartSession(context.Background(), "task-7", clock.Now().Add(time.Hour), "")
	if !errors.Is(err, client.ErrConflict) {
		t.Fatalf("want ErrConflict, got %v", err)
	}
	view := o.CachedView()
	if view.Session == nil || view.Session.ID != "ws-other" {
		t.Fatalf("cache did not resync to authoritative session: %+v", view.Session)
	}
}

func TestConcurrentMutationRejectedClientSide(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	api.pauseStarted = make(chan struct{}, 1)
	api.blockPause = make(chan struct{})
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", clock.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	pauseDone := make(chan error, 1)
	go func() {
		_, err := o.Pause(context.Background())
		pauseDone <- err
	}()

	select {
	case <-api.pauseStarted:
	case <-time.After(2 * time.Second):
		t.Fatalf("pause never reached the backend")
	}

	if _, err := o.Snooze(context.Background(), 5); !errors.Is(err, ErrOperationInFlight) {
		t.Fatalf("concurrent snooze: want ErrOperationInFlight, got %v", err)
	}

	close(api.blockPause)
	if err := <-pauseDone; err != nil {
		t.Fatalf("pause: %v", err)
	}
	if api.callCount("snooze") != 0 {
		t.Fatalf("rejected snooze still hit the network")
	}
}

func TestSnoozeTriggersCurrentRefresh(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", clock.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := api.callCount("current")
	if _, err := o.Snooze(context.Background(), 5); err != nil {
		t.Fatalf("snooze: %v", err)
	}
	if api.callCount("current") != before+1 {
		t.Fatalf("snooze did not refresh current session")
	}
}

func TestViewRefetchesWhenStale(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", clock.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	before := api.callCount("current")

	clock.Advance(10 * time.Second)
	o.View(context.Background())
	if api.callCount("current") != before {
		t.Fatalf("fresh view should not refetch")
	}

	clock.Advance(staleAfter + time.Second)
	o.View(context.Background())
	if api.callCount("current") != before+1 {
		t.Fatalf("stale view did not refetch")
	}
}

func TestDelayedRefreshCannotResurrectEndedSession(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	api.currentStarted = make(chan struct{}, 1)
	api.blockCurrent = make(chan struct{})
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", clock.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}

	// A poll captures the still-active session, then stalls in flight.
	refreshDone := make(chan error, 1)
	go func() {
		refreshDone <- o.Refresh(context.Background())
	}()
	select {
	case <-api.currentStarted:
	case <-time.After(2 * time.Second):
		t.Fatalf("refresh never reached the backend")
	}

	if _, err := o.Checkout(context.Background(), CheckoutOptions{Decision: types.SessionDecisionComplete}); err != nil {
		t.Fatalf("checkout: %v", err)
	}

	// The stale poll response lands after the checkout; it must not win.
	close(api.blockCurrent)
	if err := <-refreshDone; err != nil {
		t.Fatalf("refresh: %v", err)
	}
	view := o.CachedView()
	if view.State != StateIdle || view.Session != nil {
		t.Fatalf("stale poll resurrected the ended session: state=%s session=%+v", view.State, view.Session)
	}
	if o.ticker.Running() {
		t.Fatalf("ticker restarted by a stale poll response")
	}
}

func TestTickerSuspendedWhilePaused(t *testing.T) {
	clock := newFakeClock(time.Date(2026, 3, 2, 9, 0, 0, 0, time.UTC))
	api := newFakeAPI(clock)
	o := newTestOrchestrator(t, clock, api)

	if _, err := o.StartSession(context.Background(), "task-7", clock.Now().Add(time.Hour), ""); err != nil {
		t.Fatalf("start: %v", err)
	}
	if !o.ticker.Running() {
		t.Fatalf("ticker should run while active")
	}
	if _, err := o.Pause(context.Background()); err != nil {
		t.Fatalf("pause: %v", err)
	}
	if o.ticker.Running() {
		t.Fatalf("ticker should stop while paused")
	}
	if _, err := o.Resume(context.Background(), false); err != nil {
		t.Fatalf("resume: %v", err)
	}
	if !o.ticker.Running() {
		t.Fatalf("ticker should resume with the session")
	}
}
