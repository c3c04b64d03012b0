package ui

import (
	"errors"
	"strconv"
	"strings"

	"github.com/charmbracelet/bubbles/v2/textinput"
	tea "github.com/charmbracelet/bubbletea/v2"

	"focusctl/internal/runner"
	"focusctl/internal/types"
)

const (
	formFieldDecision = iota
	formFieldReason
	formFieldKeep
	formFieldProblem
	formFieldTry
	formFieldEstimate
	formFieldNextTask
	formFieldCount
)

var decisionOrder = []types.SessionDecision{
	types.SessionDecisionComplete,
	types.SessionDecisionContinue,
	types.SessionDecisionStop,
}

// checkoutForm collects the checkout decision and reflection notes. The
// decision cycles with the arrow keys; the remaining fields are free text.
type checkoutForm struct {
	active        bool
	focus         int
	decisionIndex int
	reason        textinput.Model
	keep          textinput.Model
	problem       textinput.Model
	try           textinput.Model
	estimate      textinput.Model
	nextTask      textinput.Model
	err           string
}

func newCheckoutForm() *checkoutForm {
	mk := func(placeholder string) textinput.Model {
		ti := textinput.New()
		ti.Placeholder = placeholder
		ti.Prompt = "> "
		return ti
	}
	return &checkoutForm{
		reason:   mk("why continue later (optional)"),
		keep:     mk("what went well (optional)"),
		problem:  mk("what got in the way (optional)"),
		try:      mk("what to try next time (optional)"),
		estimate: mk("remaining hours, e.g. 1.5 (optional)"),
		nextTask: mk("next task id to chain into (optional)"),
	}
}

func (f *checkoutForm) IsOpen() bool {
	return f != nil && f.active
}

func (f *checkoutForm) Open() tea.Cmd {
	f.active = true
	f.focus = formFieldDecision
	f.decisionIndex = 0
	f.err = ""
	for _, ti := range f.inputs() {
		ti.SetValue("")
		ti.Blur()
	}
	return nil
}

func (f *checkoutForm) Close() {
	f.active = false
	for _, ti := range f.inputs() {
		ti.Blur()
	}
}

func (f *checkoutForm) inputs() []*textinput.Model {
	return []*textinput.Model{&f.reason, &f.keep, &f.problem, &f.try, &f.estimate, &f.nextTask}
}

func (f *checkoutForm) focusedInput() *textinput.Model {
	if f.focus == formFieldDecision {
		return nil
	}
	return f.inputs()[f.focus-1]
}

func (f *checkoutForm) Decision() types.SessionDecision {
	return decisionOrder[f.decisionIndex]
}

func (f *checkoutForm) cycleDecision(delta int) {
	if f.focus != formFieldDecision {
		return
	}
	f.decisionIndex = (f.decisionIndex + delta + len(decisionOrder)) % len(decisionOrder)
}

func (f *checkoutForm) next() tea.Cmd {
	return f.setFocus((f.focus + 1) % formFieldCount)
}

func (f *checkoutForm) prev() tea.Cmd {
	return f.setFocus((f.focus - 1 + formFieldCount) % formFieldCount)
}

func (f *checkoutForm) setFocus(focus int) tea.Cmd {
	if current := f.focusedInput(); current != nil {
		current.Blur()
	}
	f.focus = focus
	if next := f.focusedInput(); next != nil {
		return next.Focus()
	}
	return nil
}

func (f *checkoutForm) onLastField() bool {
	return f.focus == formFieldCount-1
}

// Update forwards typing to the focused input.
func (f *checkoutForm) Update(msg tea.Msg) tea.Cmd {
	input := f.focusedInput()
	if input == nil {
		return nil
	}
	updated, cmd := input.Update(msg)
	*input = updated
	return cmd
}

// Submit validates the form into checkout options.
func (f *checkoutForm) Submit() (runner.CheckoutOptions, error) {
	opts := runner.CheckoutOptions{
		Decision:   f.Decision(),
		KPTKeep:    strings.TrimSpace(f.keep.Value()),
		KPTProblem: strings.TrimSpace(f.problem.Value()),
		KPTTry:     strings.TrimSpace(f.try.Value()),
		NextTaskID: strings.TrimSpace(f.nextTask.Value()),
	}
	if opts.Decision == types.SessionDecisionContinue {
		opts.ContinueReason = strings.TrimSpace(f.reason.Value())
	}
	if raw := strings.TrimSpace(f.estimate.Value()); raw != "" {
		hours, err := strconv.ParseFloat(raw, 64)
		if err != nil || hours < 0 {
			return runner.CheckoutOptions{}, errors.New("remaining estimate must be a non-negative number of hours")
		}
		opts.RemainingEstimateHours = &hours
	}
	return opts, nil
}

func (f *checkoutForm) View(width int) string {
	if !f.active {
		return ""
	}
	if width <= 0 {
		width = 60
	}
	label := func(field int, text string) string {
		if f.focus == field {
			return formActiveLabelStyle.Render(text)
		}
		return formLabelStyle.Render(text)
	}

	var b strings.Builder
	b.WriteString(titleStyle.Render("Checkout") + "\n\n")
	decisionLine := string(f.Decision())
	if f.focus == formFieldDecision {
		decisionLine = "< " + decisionLine + " >"
	}
	b.WriteString(label(formFieldDecision, "decision") + "  " + decisionLine + "\n")
	rows := []struct {
		field int
		name  string
		input *textinput.Model
	}{
		{formFieldReason, "reason", &f.reason},
		{formFieldKeep, "keep", &f.keep},
		{formFieldProblem, "problem", &f.problem},
		{formFieldTry, "try", &f.try},
		{formFieldEstimate, "estimate", &f.estimate},
		{formFieldNextTask, "next task", &f.nextTask},
	}
	for _, row := range rows {
		if row.field == formFieldReason && f.Decision() != types.SessionDecisionContinue {
			continue
		}
		b.WriteString(label(row.field, padToWidth(row.name, 9)) + " " + row.input.View() + "\n")
	}
	if f.err != "" {
		b.WriteString(errorStyle.Render(f.err) + "\n")
	}
	b.WriteString(helpStyle.Render("tab/enter next · shift+tab back · ctrl+s submit · esc cancel"))
	return formBorderStyle.Width(width - 2).Render(b.String())
}
