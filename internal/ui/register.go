package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parley/internal/api"
)

type registerModel struct {
	api   *api.Client
	theme uiTheme

	fields []textinput.Model // name, email, password, confirm
	focus  int

	busy    bool
	errText string
}

type registerDoneMsg struct {
	token string
	err   error
}

func newRegisterModel(client *api.Client, theme uiTheme) registerModel {
	mk := func(placeholder string, secret bool) textinput.Model {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholder
		in.CharLimit = 254
		if secret {
			in.EchoMode = textinput.EchoPassword
		}
		return in
	}
	fields := []textinput.Model{
		mk("name", false),
		mk("email", false),
		mk("password", true),
		mk("confirm password", true),
	}
	fields[0].Focus()
	return registerModel{api: client, theme: theme, fields: fields}
}

func (m registerModel) reset() registerModel {
	for i := range m.fields {
		m.fields[i].SetValue("")
		m.fields[i].Blur()
	}
	m.fields[0].Focus()
	m.focus = 0
	m.busy = false
	m.errText = ""
	return m
}

// validate applies the client-side checks before any request goes out.
func (m registerModel) validate() string {
	name := strings.TrimSpace(m.fields[0].Value())
	email := strings.TrimSpace(m.fields[1].Value())
	password := m.fields[2].Value()
	confirm := m.fields[3].Value()
	switch {
	case name == "" || email == "" || password == "":
		return "all fields are required"
	case !strings.Contains(email, "@"):
		return "that doesn't look like an email address"
	case len(password) < 6:
		return "password must be at least 6 characters"
	case password != confirm:
		return "passwords do not match"
	}
	return ""
}

func (m registerModel) submitCmd() tea.Cmd {
	client := m.api
	name := strings.TrimSpace(m.fields[0].Value())
	email := strings.TrimSpace(m.fields[1].Value())
	password := m.fields[2].Value()
	return func() tea.Msg {
		token, err := client.Register(context.Background(), name, email, password)
		return registerDoneMsg{token: token, err: err}
	}
}

func (m registerModel) update(msg tea.Msg) (registerModel, tea.Cmd) {
	switch msg := msg.(type) {
	case registerDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = requestErrorText(msg.err, "registration failed")
			return m, nil
		}
		// land on sign-in rather than auto-entering the session
		return m, navigateCmd(screenLogin, "Account created. Sign in to continue.")
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "down":
			return m.moveFocus(1), nil
		case "shift+tab", "up":
			return m.moveFocus(-1), nil
		case "enter":
			if m.focus < len(m.fields)-1 {
				return m.moveFocus(1), nil
			}
			if problem := m.validate(); problem != "" {
				m.errText = problem
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, m.submitCmd()
		case "esc":
			return m, navigateCmd(screenLogin, "")
		}
	}
	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m registerModel) moveFocus(delta int) registerModel {
	m.fields[m.focus].Blur()
	m.focus = clampInt(m.focus+delta, 0, len(m.fields)-1)
	m.fields[m.focus].Focus()
	return m
}

func (m registerModel) view(width, height int) string {
	labels := []string{"name", "email", "password", "confirm password"}
	var lines []string
	lines = append(lines, m.theme.panelTitle.Render("parley — create account"), "")
	for i, field := range m.fields {
		lines = append(lines, m.theme.fieldLabel.Render(labels[i]), field.View(), "")
	}
	switch {
	case m.busy:
		lines = append(lines, m.theme.helpText.Render("creating account..."))
	case m.errText != "":
		lines = append(lines, m.theme.errorStatus.Render(compactSingleLine(m.errText, 60)))
	default:
		lines = append(lines, m.theme.helpText.Render("enter submit · esc back to sign-in"))
	}
	card := m.theme.modalFrame.Width(46).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(maxInt(48, width), maxInt(16, height), lipgloss.Center, lipgloss.Center, card)
}
