package ui

import (
	"context"
	"strings"

	"github.com/charmbracelet/bubbles/textinput"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"

	"parley/internal/api"
)

type profileModel struct {
	api   *api.Client
	theme uiTheme

	fields []textinput.Model // name, old password, new password
	focus  int

	busy     bool
	feedback string
	ok       bool
}

type profileFetchedMsg struct {
	name string
	err  error
}

type profileSavedMsg struct {
	message string
	err     error
}

func newProfileModel(client *api.Client, theme uiTheme) profileModel {
	mk := func(placeholder string, secret bool) textinput.Model {
		in := textinput.New()
		in.Prompt = ""
		in.Placeholder = placeholder
		in.CharLimit = 128
		if secret {
			in.EchoMode = textinput.EchoPassword
		}
		return in
	}
	fields := []textinput.Model{
		mk("display name", false),
		mk("current password", true),
		mk("new password (leave blank to keep)", true),
	}
	fields[0].Focus()
	return profileModel{api: client, theme: theme, fields: fields}
}

func (m profileModel) reset() profileModel {
	for i := range m.fields {
		m.fields[i].SetValue("")
		m.fields[i].Blur()
	}
	m.fields[0].Focus()
	m.focus = 0
	m.busy = true
	m.feedback = ""
	m.ok = false
	return m
}

func (m profileModel) mountCmd() tea.Cmd {
	client := m.api
	return func() tea.Msg {
		name, err := client.Profile(context.Background())
		return profileFetchedMsg{name: name, err: err}
	}
}

func (m profileModel) saveCmd() tea.Cmd {
	client := m.api
	req := api.UpdateProfileRequest{
		Name:        strings.TrimSpace(m.fields[0].Value()),
		OldPassword: m.fields[1].Value(),
		NewPassword: m.fields[2].Value(),
	}
	return func() tea.Msg {
		message, err := client.UpdateProfile(context.Background(), req)
		return profileSavedMsg{message: message, err: err}
	}
}

func (m profileModel) update(msg tea.Msg) (profileModel, tea.Cmd) {
	switch msg := msg.(type) {
	case profileFetchedMsg:
		m.busy = false
		if msg.err != nil {
			m.ok = false
			m.feedback = requestErrorText(msg.err, "could not load profile")
			return m, nil
		}
		m.fields[0].SetValue(msg.name)
		return m, nil
	case profileSavedMsg:
		m.busy = false
		m.ok = msg.err == nil
		if msg.err != nil {
			m.feedback = requestErrorText(msg.err, "could not update profile")
			return m, nil
		}
		m.feedback = nullCoalesce(msg.message, "profile updated")
		m.fields[1].SetValue("")
		m.fields[2].SetValue("")
		return m, nil
	case tea.KeyMsg:
		if m.busy {
			return m, nil
		}
		switch msg.String() {
		case "esc":
			return m, navigateCmd(screenDashboard, "")
		case "tab", "down":
			return m.moveFocus(1), nil
		case "shift+tab", "up":
			return m.moveFocus(-1), nil
		case "enter":
			if m.focus < len(m.fields)-1 {
				return m.moveFocus(1), nil
			}
			if strings.TrimSpace(m.fields[0].Value()) == "" {
				m.ok = false
				m.feedback = "name cannot be blank"
				return m, nil
			}
			if m.fields[2].Value() != "" && m.fields[1].Value() == "" {
				m.ok = false
				m.feedback = "current password is required to set a new one"
				return m, nil
			}
			m.busy = true
			m.feedback = ""
			return m, m.saveCmd()
		}
	}
	var cmd tea.Cmd
	m.fields[m.focus], cmd = m.fields[m.focus].Update(msg)
	return m, cmd
}

func (m profileModel) moveFocus(delta int) profileModel {
	m.fields[m.focus].Blur()
	m.focus = clampInt(m.focus+delta, 0, len(m.fields)-1)
	m.fields[m.focus].Focus()
	return m
}

func (m profileModel) view(width, height int) string {
	labels := []string{"display name", "current password", "new password"}
	var lines []string
	lines = append(lines, m.theme.panelTitle.Render("profile"), "")
	for i, field := range m.fields {
		lines = append(lines, m.theme.fieldLabel.Render(labels[i]), field.View(), "")
	}
	switch {
	case m.busy:
		lines = append(lines, m.theme.helpText.Render("working..."))
	case m.feedback != "":
		style := m.theme.feedbackErr
		if m.ok {
			style = m.theme.feedbackOK
		}
		lines = append(lines, style.Render(compactSingleLine(m.feedback, 60)))
	default:
		lines = append(lines, m.theme.helpText.Render("enter save · esc back"))
	}
	card := m.theme.modalFrame.Width(50).Render(strings.Join(lines, "\n"))
	return lipgloss.Place(maxInt(52, width), maxInt(14, height), lipgloss.Center, lipgloss.Center, card)
}
