package ui

import "github.com/charmbracelet/lipgloss"

var (
	titleStyle = lipgloss.NewStyle().Bold(true)

	stateIdleStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("245"))
	stateActiveStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("42")).Bold(true)
	stateOverdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)
	statePausedStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("214")).Bold(true)

	countdownStyle        = lipgloss.NewStyle().Bold(true)
	countdownOverdueStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	bannerLightStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("245")).Italic(true)
	bannerNormalStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("39"))
	bannerUrgentStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("196")).Bold(true)

	candidateStyle  = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	sectionStyle    = lipgloss.NewStyle().Foreground(lipgloss.Color("99")).Bold(true)
	helpStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("241"))
	statusLineStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("250"))
	errorStyle      = lipgloss.NewStyle().Foreground(lipgloss.Color("196"))
	dimStyle        = lipgloss.NewStyle().Faint(true)

	formBorderStyle = lipgloss.NewStyle().
			Border(lipgloss.RoundedBorder()).
			Padding(0, 1)
	formLabelStyle       = lipgloss.NewStyle().Foreground(lipgloss.Color("99"))
	formActiveLabelStyle = lipgloss.NewStyle().Foreground(lipgloss.Color("212")).Bold(true)
)
