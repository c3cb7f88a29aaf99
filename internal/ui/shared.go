package ui

import (
	"context"
	"strings"

	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/api"
)

// sharedModel lists the conversations other accounts have shared with the
// signed-in user. Read-only: selecting is not supported here, it is a
// directory of what's visible.
type sharedModel struct {
	api   *api.Client
	theme uiTheme

	chats   []api.Chat
	busy    bool
	errText string

	width  int
	height int
}

type sharedLoadedMsg struct {
	chats []api.Chat
	err   error
}

func newSharedModel(client *api.Client, theme uiTheme) sharedModel {
	return sharedModel{api: client, theme: theme}
}

func (m sharedModel) reset() sharedModel {
	m.busy = true
	m.errText = ""
	return m
}

func (m sharedModel) mountCmd() tea.Cmd {
	client := m.api
	return func() tea.Msg {
		chats, err := client.SharedChats(context.Background())
		return sharedLoadedMsg{chats: chats, err: err}
	}
}

func (m sharedModel) update(msg tea.Msg) (sharedModel, tea.Cmd) {
	switch msg := msg.(type) {
	case sharedLoadedMsg:
		m.busy = false
		if msg.err != nil {
			m.errText = requestErrorText(msg.err, "could not load shared conversations")
			return m, nil
		}
		m.chats = msg.chats
		return m, nil
	case tea.KeyMsg:
		switch msg.String() {
		case "esc", "q":
			return m, navigateCmd(screenDashboard, "")
		}
	}
	return m, nil
}

func (m *sharedModel) resize(width, height int) {
	m.width = width
	m.height = height
}

func (m sharedModel) view() string {
	var b strings.Builder
	b.WriteString(m.theme.panelTitle.Render("Shared with you") + "\n\n")
	switch {
	case m.busy:
		b.WriteString(m.theme.helpText.Render("loading..."))
	case m.errText != "":
		b.WriteString(m.theme.errorStatus.Render(compactSingleLine(m.errText, 120)))
	case len(m.chats) == 0:
		b.WriteString(m.theme.helpText.Render("Nothing has been shared with you yet."))
	default:
		for _, c := range m.chats {
			line := truncate(c.Name, 50)
			if c.Owner != "" {
				line += m.theme.helpText.Render("  from " + c.Owner)
			}
			b.WriteString(m.theme.sidebarItem.Render(line) + "\n")
		}
	}
	b.WriteString("\n" + m.theme.helpText.Render("esc back"))
	return m.theme.panel.
		Width(maxInt(40, m.width-4)).
		Height(maxInt(8, m.height-4)).
		Render(b.String())
}
