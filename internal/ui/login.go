package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parley/internal/api"
	"parley/internal/session"
)

type loginModel struct {
	api     *api.Client
	session *session.Manager
	theme   uiTheme

	email    textinput.Model
	password textinput.Model
	focus    int

	busy    bool
	errText string
	notice  string
}

type loginDoneMsg struct {
	token string
	err   error
}

func newLoginModel(client *api.Client, sess *session.Manager, theme uiTheme) loginModel {
	email := textinput.New()
	email.Prompt = ""
	email.Placeholder = "email"
	email.CharLimit = 254
	email.Focus()

	password := textinput.New()
	password.Prompt = ""
	password.Placeholder = "password"
	password.EchoMode = textinput.EchoPassword
	password.CharLimit = 128

	return loginModel{
		api:      client,
		session:  sess,
		theme:    theme,
		email:    email,
		password: password,
	}
}

func (m loginModel) reset(notice string) loginModel {
	m.password.SetValue("")
	m.password.Blur()
	m.email.Focus()
	m.focus = 0
	m.busy = false
	m.errText = ""
	m.notice = notice
	return m
}

func (m loginModel) submitCmd() tea.Cmd {
	client := m.api
	email := strings.TrimSpace(m.email.Value())
	password := m.password.Value()
	return func() tea.Msg {
		token, err := client.Login(context.Background(), email, password)
		return loginDoneMsg{token: token, err: err}
	}
}

func (m loginModel) update(msg tea.Msg) (loginModel, tea.Cmd) {
	switch msg := msg.(type) {
	case loginDoneMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = requestErrorText(msg.err, "sign-in failed")
			return m, nil
		}
		// the session broadcast flips the root model to the dashboard
		m.session.Login(msg.token)
		return m, nil
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "tab", "shift+tab", "up", "down":
			m.focus = 1 - m.focus
			if m.focus == 0 {
				m.email.Focus()
				m.password.Blur()
			} else {
				m.password.Focus()
				m.email.Blur()
			}
			return m, nil
		case "enter":
			if strings.TrimSpace(m.email.Value()) == "" || m.password.Value() == "" {
				m.errText = "email and password are required"
				return m, nil
			}
			m.busy = true
			m.errText = ""
			return m, m.submitCmd()
		case "ctrl+r":
			return m, navigateCmd(screenRegister, "")
		}
	}
	var cmd tea.Cmd
	if m.focus == 0 {
		m.email, cmd = m.email.Update(msg)
	} else {
		m.password, cmd = m.password.Update(msg)
	}
	return m, cmd
}

func (m loginModel) view(width, height int) string {
	var lines []string
	lines = append(lines, m.theme.panelTitle.Render("parley — sign in"), "")
	if m.notice != "" {
		lines = append(lines, m.theme.feedbackOK.Render(compactSingleLine(m.notice, 60)), "")
	}
	lines = append(lines,
		m.theme.fieldLabel.Render("email"),
		m.email.View(),
		"",
		m.theme.fieldLabel.Render("password"),
		m.password.View(),
		"",
	)
	switch {
	case m.busy:
		lines = append(lines, m.theme.helpText.Render("signing in..."))
	case m.errText != "":
		lines = append(lines, m.theme.errorStatus.Render(compactSingleLine(m.errText, 60)))
	default:
		lines = append(lines, m.theme.helpText.Render("enter sign in · ctrl+r create account"))
	}
	card := m.theme.modalFrame.Width(46).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(maxInt(48, width), maxInt(12, height), lipgloss.Center, lipgloss.Center, card)
}
