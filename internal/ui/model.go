package ui

import (
	"context"
	"fmt"
	"strings"
	"time"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss"

	"focusctl/internal/client"
	"focusctl/internal/gateway"
	"focusctl/internal/reschedule"
	"focusctl/internal/runner"
	"focusctl/internal/types"
)

const (
	uiTickInterval  = time.Second
	minContentWidth = 40
	defaultWidth    = 80
	defaultPlanned  = time.Hour
)

type uiMode int

const (
	uiModeNormal uiMode = iota
	uiModeCheckout
	uiModeResult
)

type (
	tickMsg     time.Time
	busMsg      runner.Event
	viewMsg     *runner.View
	errorMsg    struct{ err error }
	statusMsg   string
	checkoutMsg struct {
		resp *client.CheckoutResponse
		err  error
	}
)

// pollControl is the slice of the poller the model drives from terminal
// focus reporting.
type pollControl interface {
	Suspend()
	Resume(ctx context.Context)
}

// Model is the interactive runner surface: one session, its countdown, the
// next-task candidates, the current reminder, and the pending reschedule.
type Model struct {
	orc         *runner.Orchestrator
	coordinator *reschedule.Coordinator
	slot        *gateway.Slot
	gw          *gateway.Gateway
	poller      pollControl
	version     string

	events      <-chan runner.Event
	unsubscribe func()

	view     *runner.View
	form     *checkoutForm
	mode     uiMode
	lastLog  string
	status   string
	statusOK bool
	width    int
	height   int
}

// Deps wires the composed runtime into the model.
type Deps struct {
	Orchestrator *runner.Orchestrator
	Coordinator  *reschedule.Coordinator
	Slot         *gateway.Slot
	Gateway      *gateway.Gateway
	Poller       *runner.Poller
	Version      string
}

func NewModel(deps Deps) *Model {
	events, unsubscribe := deps.Orchestrator.Bus().Subscribe()
	m := &Model{
		orc:         deps.Orchestrator,
		coordinator: deps.Coordinator,
		slot:        deps.Slot,
		gw:          deps.Gateway,
		version:     deps.Version,
		events:      events,
		unsubscribe: unsubscribe,
		form:        newCheckoutForm(),
		width:       defaultWidth,
	}
	if deps.Poller != nil {
		m.poller = deps.Poller
	}
	return m
}

// Run starts the program and blocks until quit.
func Run(deps Deps) error {
	model := NewModel(deps)
	p := tea.NewProgram(model, tea.WithAltScreen(), tea.WithReportFocus())
	_, err := p.Run()
	model.unsubscribe()
	return err
}

func (m *Model) Init() tea.Cmd {
	return tea.Batch(
		refreshCmd(m.orc, m.coordinator),
		waitForEvent(m.events),
		tickCmd(),
	)
}

func tickCmd() tea.Cmd {
	return tea.Tick(uiTickInterval, func(t time.Time) tea.Msg {
		return tickMsg(t)
	})
}

func waitForEvent(events <-chan runner.Event) tea.Cmd {
	return func() tea.Msg {
		event, ok := <-events
		if !ok {
			return nil
		}
		return busMsg(event)
	}
}

func refreshCmd(orc *runner.Orchestrator, coordinator *reschedule.Coordinator) tea.Cmd {
	return func() tea.Msg {
		ctx := context.Background()
		if err := orc.Refresh(ctx); err != nil {
			return errorMsg{err}
		}
		_ = orc.RefreshSchedule(ctx)
		_ = coordinator.Refresh(ctx)
		return viewMsg(orc.CachedView())
	}
}

func (m *Model) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width = msg.Width
		m.height = msg.Height
		return m, nil

	case tickMsg:
		return m, tickCmd()

	// Polling is only worth its requests while this is the foreground
	// terminal; resume refetches immediately to catch up.
	case tea.BlurMsg:
		if m.poller != nil {
			m.poller.Suspend()
		}
		return m, nil

	case tea.FocusMsg:
		if m.poller != nil {
			poller := m.poller
			return m, func() tea.Msg {
				poller.Resume(context.Background())
				return nil
			}
		}
		return m, nil

	case busMsg:
		event := runner.Event(msg)
		switch event.Kind {
		case runner.EventViewUpdated:
			m.view = event.View
		case runner.EventSessionRecovered:
			m.setStatus("recovered a session left running by a previous client", true)
			m.view = m.orc.CachedView()
		case runner.EventSyncError:
			m.setStatus("state drifted from server, resynced", false)
			m.view = m.orc.CachedView()
		}
		return m, waitForEvent(m.events)

	case viewMsg:
		m.view = msg
		return m, nil

	case errorMsg:
		m.setStatus(msg.err.Error(), false)
		m.view = m.orc.CachedView()
		return m, nil

	case statusMsg:
		m.setStatus(string(msg), true)
		m.view = m.orc.CachedView()
		return m, nil

	case checkoutMsg:
		if msg.err != nil {
			m.setStatus(msg.err.Error(), false)
			return m, nil
		}
		m.view = m.orc.CachedView()
		m.lastLog = ""
		if msg.resp != nil && msg.resp.GeneratedLog != nil {
			m.lastLog = msg.resp.GeneratedLog.Content
		}
		if msg.resp != nil {
			m.coordinator.Offer(msg.resp.RescheduleSuggestion)
		}
		if m.lastLog != "" || m.coordinator.Pending() != nil {
			m.mode = uiModeResult
		} else {
			m.mode = uiModeNormal
		}
		m.setStatus("checked out", true)
		return m, nil

	case tea.KeyPressMsg:
		return m.handleKey(msg)
	}

	if m.mode == uiModeCheckout {
		return m, m.form.Update(msg)
	}
	return m, nil
}

func (m *Model) handleKey(msg tea.KeyPressMsg) (tea.Model, tea.Cmd) {
	key := msg.String()
	if key == "ctrl+c" {
		return m, tea.Quit
	}

	switch m.mode {
	case uiModeCheckout:
		return m.handleCheckoutKey(key, msg)
	case uiModeResult:
		switch key {
		case "esc", "enter", "q":
			m.mode = uiModeNormal
			return m, nil
		case "y":
			return m, m.copyWorkLog()
		case "a":
			return m, m.decideReschedule(true)
		case "x":
			return m, m.decideReschedule(false)
		}
		return m, nil
	}
	return m.handleNormalKey(key)
}

func (m *Model) handleNormalKey(key string) (tea.Model, tea.Cmd) {
	switch key {
	case "q":
		return m, tea.Quit
	case "g":
		m.setStatus("refreshing", true)
		return m, refreshCmd(m.orc, m.coordinator)
	case "c":
		if m.currentState() == runner.StateIdle {
			m.setStatus("no session to check out", false)
			return m, nil
		}
		m.mode = uiModeCheckout
		return m, m.form.Open()
	case "p":
		return m, m.runAction("paused", func(ctx context.Context) error {
			_, err := m.orc.Pause(ctx)
			return err
		})
	case "r":
		return m, m.runAction("resumed with extension", func(ctx context.Context) error {
			_, err := m.orc.Resume(ctx, true)
			return err
		})
	case "R":
		return m, m.runAction("resumed without extension", func(ctx context.Context) error {
			_, err := m.orc.Resume(ctx, false)
			return err
		})
	case "z":
		return m, m.runAction("snoozed", func(ctx context.Context) error {
			_, err := m.orc.Snooze(ctx, types.DefaultSnoozeMinutes)
			return err
		})
	case "d":
		m.slot.Dismiss()
		return m, nil
	case "a":
		return m, m.decideReschedule(true)
	case "x":
		return m, m.decideReschedule(false)
	case "y":
		return m, m.copyWorkLog()
	case "1", "2", "3":
		return m, m.startCandidate(int(key[0] - '1'))
	}
	return m, nil
}

func (m *Model) handleCheckoutKey(key string, msg tea.Msg) (tea.Model, tea.Cmd) {
	switch key {
	case "esc":
		m.form.Close()
		m.mode = uiModeNormal
		return m, nil
	case "tab", "down":
		return m, m.form.next()
	case "shift+tab", "up":
		return m, m.form.prev()
	case "left":
		if m.form.focus == formFieldDecision {
			m.form.cycleDecision(-1)
			return m, nil
		}
	case "right":
		if m.form.focus == formFieldDecision {
			m.form.cycleDecision(1)
			return m, nil
		}
	case "enter":
		if m.form.onLastField() {
			return m, m.submitCheckout()
		}
		return m, m.form.next()
	case "ctrl+s":
		return m, m.submitCheckout()
	}
	return m, m.form.Update(msg)
}

func (m *Model) submitCheckout() tea.Cmd {
	opts, err := m.form.Submit()
	if err != nil {
		m.form.err = err.Error()
		return nil
	}
	m.form.Close()
	m.mode = uiModeNormal
	orc := m.orc
	return func() tea.Msg {
		resp, err := orc.Checkout(context.Background(), opts)
		return checkoutMsg{resp: resp, err: err}
	}
}

func (m *Model) runAction(success string, action func(context.Context) error) tea.Cmd {
	return func() tea.Msg {
		if err := action(context.Background()); err != nil {
			return errorMsg{err}
		}
		return statusMsg(success)
	}
}

func (m *Model) startCandidate(index int) tea.Cmd {
	view := m.view
	if view == nil || index < 0 || index >= len(view.NextCandidates) {
		return nil
	}
	entry := view.NextCandidates[index]
	orc := m.orc
	return func() tea.Msg {
		plannedAt := plannedCheckoutFor(entry, time.Now())
		if _, err := orc.StartSession(context.Background(), entry.TaskID, plannedAt, ""); err != nil {
			return errorMsg{err}
		}
		return statusMsg("started " + entry.TaskID)
	}
}

// plannedCheckoutFor derives the planned checkout from the schedule slot's
// end time, falling back to a fixed block when the slot has none.
func plannedCheckoutFor(entry types.ScheduleEntry, now time.Time) time.Time {
	if end, ok := entry.EndTime(now); ok && end.After(now) {
		return end
	}
	return now.Add(defaultPlanned)
}

func (m *Model) decideReschedule(accept bool) tea.Cmd {
	if m.coordinator.Pending() == nil {
		return nil
	}
	coordinator := m.coordinator
	orc := m.orc
	verb := "rejected"
	if accept {
		verb = "accepted"
	}
	return func() tea.Msg {
		ctx := context.Background()
		var err error
		if accept {
			_, err = coordinator.Accept(ctx, "")
		} else {
			_, err = coordinator.Reject(ctx, "")
		}
		if err != nil {
			return errorMsg{err}
		}
		if accept {
			_ = orc.RefreshSchedule(ctx)
		}
		return statusMsg("reschedule " + verb)
	}
}

func (m *Model) copyWorkLog() tea.Cmd {
	if m.lastLog == "" {
		m.setStatus("no work log to copy", false)
		return nil
	}
	if err := copyTextToClipboard(m.lastLog); err != nil {
		m.setStatus("copy failed: "+err.Error(), false)
		return nil
	}
	m.setStatus("work log copied", true)
	return nil
}

func (m *Model) setStatus(text string, ok bool) {
	m.status = text
	m.statusOK = ok
}

func (m *Model) currentState() runner.State {
	if m.view == nil {
		return runner.StateIdle
	}
	return m.view.State
}

func (m *Model) View() string {
	width := m.width
	if width < minContentWidth {
		width = minContentWidth
	}

	var sections []string
	sections = append(sections, m.headerView(width))
	sections = append(sections, m.sessionView(width))
	if banner := m.bannerView(width); banner != "" {
		sections = append(sections, banner)
	}
	switch m.mode {
	case uiModeCheckout:
		sections = append(sections, m.form.View(width))
	case uiModeResult:
		sections = append(sections, m.resultView(width))
	default:
		sections = append(sections, m.candidatesView(width))
		if pending := m.rescheduleView(width); pending != "" {
			sections = append(sections, pending)
		}
	}
	sections = append(sections, m.statusLine(width))
	return lipgloss.JoinVertical(lipgloss.Left, sections...)
}

func (m *Model) headerView(width int) string {
	state := m.currentState()
	var badge string
	switch state {
	case runner.StateActive:
		badge = stateActiveStyle.Render("ACTIVE")
	case runner.StateOverdue:
		badge = stateOverdueStyle.Render("OVERDUE")
	case runner.StatePaused:
		badge = statePausedStyle.Render("PAUSED")
	default:
		badge = stateIdleStyle.Render("IDLE")
	}
	title := titleStyle.Render("focusctl")
	if m.version != "" {
		title += dimStyle.Render(" " + m.version)
	}
	return truncateToWidth(title+"  "+badge, width)
}

func (m *Model) sessionView(width int) string {
	view := m.view
	if view == nil || view.Session == nil {
		return dimStyle.Render("No session running. Press 1-3 to start a scheduled task.")
	}
	session := view.Session

	remaining := formatRemaining(view.Countdown)
	clock := countdownStyle
	if view.Countdown.Overdue {
		clock = countdownOverdueStyle
	}
	lines := []string{
		"task " + titleStyle.Render(session.TaskID) +
			dimStyle.Render("  until "+formatClock(session.PlannedCheckoutAt)),
		clock.Render(remaining) + "  " + progressBar(view.Countdown.Progress, width/2),
	}
	if session.SnoozeCount > 0 {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("snoozed %d/%d", session.SnoozeCount, types.SnoozeLimit)))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) bannerView(width int) string {
	current := m.slot.Current()
	if current == nil {
		return ""
	}
	style := bannerNormalStyle
	switch current.Level {
	case types.ReminderLevelLight:
		style = bannerLightStyle
	case types.ReminderLevelUrgent:
		style = bannerUrgentStyle
	}
	text := current.Title
	if current.Body != "" {
		if text != "" {
			text += ": "
		}
		text += current.Body
	}
	if text == "" {
		text = "checkout reminder"
	}
	return style.Render(truncateToWidth("● "+text, width))
}

func (m *Model) candidatesView(width int) string {
	view := m.view
	if view == nil || len(view.NextCandidates) == 0 {
		return ""
	}
	lines := []string{sectionStyle.Render("Up next")}
	for i, entry := range view.NextCandidates {
		title := entry.Title
		if title == "" {
			title = entry.TaskID
		}
		line := fmt.Sprintf("%d. %s", i+1, truncateTitle(title, width-12))
		if entry.Start != "" {
			line += dimStyle.Render("  " + entry.Start)
		}
		lines = append(lines, candidateStyle.Render(line))
	}
	return strings.Join(lines, "\n")
}

func (m *Model) rescheduleView(width int) string {
	pending := m.coordinator.Pending()
	if pending == nil {
		return ""
	}
	lines := []string{sectionStyle.Render("Reschedule suggestion")}
	if pending.Summary != "" {
		lines = append(lines, renderMarkdown(pending.Summary, width))
	}
	for _, change := range pending.Changes {
		lines = append(lines, dimStyle.Render(fmt.Sprintf("  %s: %s → %s", change.TaskID, change.OldStart, change.NewStart)))
	}
	lines = append(lines, helpStyle.Render("a accept · x reject"))
	return strings.Join(lines, "\n")
}

func (m *Model) resultView(width int) string {
	var lines []string
	if m.lastLog != "" {
		lines = append(lines, sectionStyle.Render("Work log"))
		lines = append(lines, renderMarkdown(m.lastLog, width))
		lines = append(lines, helpStyle.Render("y copy"))
	}
	if pending := m.rescheduleView(width); pending != "" {
		lines = append(lines, pending)
	}
	lines = append(lines, helpStyle.Render("enter/esc dismiss"))
	return strings.Join(lines, "\n")
}

func (m *Model) statusLine(width int) string {
	left := m.status
	style := statusLineStyle
	if left != "" && !m.statusOK {
		style = errorStyle
	}
	if left == "" {
		left = m.helpText()
		style = helpStyle
	}
	conn := ""
	if m.gw != nil {
		text, down := connIndicator(m.gw.State(), m.gw.Attempts())
		if down {
			conn = errorStyle.Render(text)
		} else {
			conn = dimStyle.Render(text)
		}
	}
	gap := width - lipgloss.Width(left) - lipgloss.Width(conn)
	if gap < 1 {
		return truncateToWidth(style.Render(left), width)
	}
	return style.Render(left) + strings.Repeat(" ", gap) + conn
}

// connIndicator summarizes the push channel for the status line. While the
// channel is down the current reconnect attempt shows, so a struggling
// backend is visible before the budget runs out.
func connIndicator(state gateway.ConnState, attempts int) (string, bool) {
	switch state {
	case gateway.ConnConnected:
		return "push ✓", false
	case gateway.ConnFailed:
		return "push down", true
	default:
		if attempts > 0 {
			return fmt.Sprintf("push retry %d", attempts), false
		}
		return "push …", false
	}
}

func (m *Model) helpText() string {
	switch m.currentState() {
	case runner.StateIdle:
		return "1-3 start · g refresh · q quit"
	case runner.StatePaused:
		return "r resume+extend · R resume · c checkout · q quit"
	default:
		return "c checkout · p pause · z snooze · d dismiss · q quit"
	}
}
