package ui

import "github.com/charmbracelet/lipgloss"

type uiTheme struct {
	root        lipgloss.Style
	header      lipgloss.Style
	panel       lipgloss.Style
	panelTitle  lipgloss.Style
	footer      lipgloss.Style
	status      lipgloss.Style
	errorStatus lipgloss.Style
	inputPanel  lipgloss.Style
	helpText    lipgloss.Style

	sidebarActive lipgloss.Style
	sidebarItem   lipgloss.Style
	bubbleUser    lipgloss.Style
	bubbleAI      lipgloss.Style
	feedbackOK    lipgloss.Style
	feedbackErr   lipgloss.Style
	fieldLabel    lipgloss.Style
	modalFrame    lipgloss.Style
}

func newTheme() uiTheme {
	teal := lipgloss.Color("#2dd4bf")
	amber := lipgloss.Color("#fbbf24")
	rose := lipgloss.Color("#fb7185")
	bg := lipgloss.Color("#101826")
	panelBg := lipgloss.Color("#182234")
	text := lipgloss.Color("#e7ecf5")
	muted := lipgloss.Color("#8b98b8")

	return uiTheme{
		root: lipgloss.NewStyle().
			Background(bg).
			Foreground(text).
			Padding(0, 1),
		header: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(text).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(teal).
			Padding(0, 1),
		panel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(teal).
			Padding(0, 1),
		panelTitle: lipgloss.NewStyle().
			Foreground(teal).
			Bold(true),
		footer: lipgloss.NewStyle().
			Background(panelBg).
			Foreground(muted).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(0, 1),
		status:      lipgloss.NewStyle().Foreground(teal).Bold(true),
		errorStatus: lipgloss.NewStyle().Foreground(rose).Bold(true),
		inputPanel: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.RoundedBorder()).
			BorderForeground(amber).
			Padding(0, 1),
		helpText: lipgloss.NewStyle().Foreground(muted),

		sidebarActive: lipgloss.NewStyle().
			Background(teal).
			Foreground(lipgloss.Color("#0b1320")).
			Bold(true).
			Padding(0, 1),
		sidebarItem: lipgloss.NewStyle().Foreground(text).Padding(0, 1),
		bubbleUser:  lipgloss.NewStyle().Foreground(amber).Bold(true),
		bubbleAI:    lipgloss.NewStyle().Foreground(teal),
		feedbackOK:  lipgloss.NewStyle().Foreground(teal),
		feedbackErr: lipgloss.NewStyle().Foreground(rose),
		fieldLabel:  lipgloss.NewStyle().Foreground(muted),
		modalFrame: lipgloss.NewStyle().
			Background(panelBg).
			BorderStyle(lipgloss.ThickBorder()).
			BorderForeground(amber).
			Padding(1, 2),
	}
}
