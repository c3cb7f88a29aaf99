package ui

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/spinner"
	"github.com/charmbracelet/bubbles/textinput"
	"github.com/charmbracelet/bubbles/viewport"
	tea "github.com/charmbracelet/bubbletea"
	"github.com/charmbracelet/lipgloss"
	"github.com/google/uuid"

	"parley/internal/api"
	"parley/internal/session"
)

const chatNameRunes = 30

// dashboardModel is the conversation controller: it owns the conversation
// list, the active selection, the visible message list, the optimistic send
// buffer, and the reveal queue that staggers multi-segment responder output.
type dashboardModel struct {
	api            *api.Client
	session        *session.Manager
	theme          uiTheme
	log            *slog.Logger
	revealInterval time.Duration

	userName     string
	chats        []api.Chat
	activeChatID string
	messages     []api.Message

	// revealQueue holds responder segments not yet shown; a non-empty queue
	// is the one signal that input is disabled. revealGen identifies the
	// drain in flight: bumping it cancels any pending tick.
	revealQueue []string
	revealGen   int

	loadingChats    bool
	loadingMessages bool
	errText         string

	shareOpen     bool
	shareInput    textinput.Model
	shareFeedback string
	shareOK       bool

	confirmDeleteID string

	input    textinput.Model
	timeline viewport.Model
	spinner  spinner.Model

	width  int
	height int
}

type profileLoadedMsg struct {
	name string
	err  error
}

type chatsLoadedMsg struct {
	chats []api.Chat
	err   error
}

type messagesLoadedMsg struct {
	chatID   string
	messages []api.Message
	err      error
}

type sendDoneMsg struct {
	localID  string
	chatID   string
	chat     *api.Chat // set when the send created a new conversation
	segments []string
	err      error
}

type deleteDoneMsg struct {
	chatID string
	err    error
}

type shareDoneMsg struct {
	message string
	err     error
}

type revealTickMsg struct {
	gen int
}

func newDashboardModel(client *api.Client, sess *session.Manager, theme uiTheme, revealInterval time.Duration, log *slog.Logger) dashboardModel {
	input := textinput.New()
	input.Prompt = "❯ "
	input.CharLimit = 4000
	input.Placeholder = "Type a message..."
	input.Focus()

	share := textinput.New()
	share.Prompt = "@ "
	share.Placeholder = "email to share with"
	share.CharLimit = 254

	sp := spinner.New()
	sp.Spinner = spinner.Dot
	sp.Style = lipgloss.NewStyle().Foreground(lipgloss.Color("#2dd4bf"))

	if revealInterval <= 0 {
		revealInterval = time.Second
	}

	return dashboardModel{
		api:            client,
		session:        sess,
		theme:          theme,
		log:            log,
		revealInterval: revealInterval,
		userName:       "user",
		loadingChats:   true,
		input:          input,
		shareInput:     share,
		timeline:       viewport.New(0, 0),
		spinner:        sp,
	}
}

// mountCmd runs once when the dashboard becomes the active screen: one
// profile fetch (failure tolerated silently) and the conversation list.
func (d dashboardModel) mountCmd() tea.Cmd {
	return tea.Batch(d.profileCmd(), d.chatsCmd(), d.spinner.Tick)
}

func (d dashboardModel) profileCmd() tea.Cmd {
	client := d.api
	return func() tea.Msg {
		name, err := client.Profile(context.Background())
		return profileLoadedMsg{name: name, err: err}
	}
}

func (d dashboardModel) chatsCmd() tea.Cmd {
	client := d.api
	return func() tea.Msg {
		chats, err := client.Chats(context.Background())
		return chatsLoadedMsg{chats: chats, err: err}
	}
}

func (d dashboardModel) fetchMessagesCmd(chatID string) tea.Cmd {
	client := d.api
	return func() tea.Msg {
		messages, err := client.Messages(context.Background(), chatID)
		return messagesLoadedMsg{chatID: chatID, messages: messages, err: err}
	}
}

func (d dashboardModel) createChatCmd(text, localID string) tea.Cmd {
	client := d.api
	return func() tea.Msg {
		chat, segments, err := client.CreateChat(context.Background(), firstRunes(text, chatNameRunes), text)
		if err != nil {
			return sendDoneMsg{localID: localID, err: err}
		}
		return sendDoneMsg{localID: localID, chatID: chat.ID, chat: &chat, segments: segments}
	}
}

func (d dashboardModel) sendMessageCmd(chatID, text, localID string) tea.Cmd {
	client := d.api
	return func() tea.Msg {
		segments, err := client.SendMessage(context.Background(), chatID, text)
		return sendDoneMsg{localID: localID, chatID: chatID, segments: segments, err: err}
	}
}

func (d dashboardModel) deleteChatCmd(chatID string) tea.Cmd {
	client := d.api
	return func() tea.Msg {
		return deleteDoneMsg{chatID: chatID, err: client.DeleteChat(context.Background(), chatID)}
	}
}

func (d dashboardModel) shareChatCmd(chatID, email string) tea.Cmd {
	client := d.api
	return func() tea.Msg {
		message, err := client.ShareChat(context.Background(), chatID, email)
		return shareDoneMsg{message: message, err: err}
	}
}

// revealTickCmd schedules the next drain step for the current generation.
// A tick carrying a stale generation is dropped on arrival, which is how
// switching conversations cancels an in-flight drain.
func (d dashboardModel) revealTickCmd() tea.Cmd {
	gen := d.revealGen
	return tea.Tick(d.revealInterval, func(time.Time) tea.Msg {
		return revealTickMsg{gen: gen}
	})
}

// composing reports whether the responder is mid-reveal; input is disabled
// for exactly as long as this holds.
func (d dashboardModel) composing() bool {
	return len(d.revealQueue) > 0
}

// selectChat makes chatID the active conversation. The empty id is the
// compose-new state: the message list clears without a fetch. Any pending
// reveal drain for the previous conversation is discarded.
func (d *dashboardModel) selectChat(chatID string) tea.Cmd {
	d.activeChatID = chatID
	d.revealGen++
	d.revealQueue = nil
	d.shareFeedback = ""
	d.confirmDeleteID = ""
	if chatID == "" {
		d.messages = nil
		d.loadingMessages = false
		d.syncTimeline()
		return nil
	}
	d.loadingMessages = true
	d.syncTimeline()
	return d.fetchMessagesCmd(chatID)
}

// submitMessage applies the optimistic append and dispatches the send.
// Blank input and an active reveal drain are both complete no-ops.
func (d *dashboardModel) submitMessage() tea.Cmd {
	text := strings.TrimSpace(d.input.Value())
	if text == "" || d.composing() {
		return nil
	}
	localID := "local-" + uuid.NewString()
	d.messages = append(d.messages, api.Message{ID: localID, Sender: api.SenderUser, Text: text})
	d.input.SetValue("")
	d.errText = ""
	d.shareFeedback = ""
	d.syncTimeline()
	if d.activeChatID == "" {
		return d.createChatCmd(text, localID)
	}
	return d.sendMessageCmd(d.activeChatID, text, localID)
}

// rollbackMessage removes the optimistic message by its local id.
func (d *dashboardModel) rollbackMessage(localID string) {
	kept := d.messages[:0]
	for _, m := range d.messages {
		if m.ID != localID {
			kept = append(kept, m)
		}
	}
	d.messages = kept
}

func (d *dashboardModel) nextChat(delta int) tea.Cmd {
	if len(d.chats) == 0 {
		return nil
	}
	idx := -1
	for i, c := range d.chats {
		if c.ID == d.activeChatID {
			idx = i
			break
		}
	}
	// from the compose state, any step lands on the first conversation
	if idx == -1 {
		return d.selectChat(d.chats[0].ID)
	}
	next := clampInt(idx+delta, 0, len(d.chats)-1)
	if next == idx {
		return nil
	}
	return d.selectChat(d.chats[next].ID)
}

func (d dashboardModel) update(msg tea.Msg) (dashboardModel, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case profileLoadedMsg:
		// the display name is cosmetic; failure silently keeps the placeholder
		if msg.err == nil && strings.TrimSpace(msg.name) != "" {
			d.userName = msg.name
		}
	case chatsLoadedMsg:
		d.loadingChats = false
		if msg.err != nil {
			d.errText = requestErrorText(msg.err, "could not load conversations")
			d.log.Warn("chat list fetch failed", "err", msg.err)
			break
		}
		d.chats = msg.chats
	case messagesLoadedMsg:
		if msg.chatID != d.activeChatID {
			// resolved after the selection moved on; stale, discard
			break
		}
		d.loadingMessages = false
		if msg.err != nil {
			d.errText = requestErrorText(msg.err, "could not load messages")
			break
		}
		d.messages = msg.messages
		d.syncTimeline()
	case sendDoneMsg:
		if msg.err != nil {
			d.rollbackMessage(msg.localID)
			d.errText = requestErrorText(msg.err, "could not send message")
			d.syncTimeline()
			break
		}
		if msg.chat != nil {
			// a send from the compose state created the conversation; its
			// first responder segments arrive committed, no staggering
			d.chats = append([]api.Chat{*msg.chat}, d.chats...)
			d.activeChatID = msg.chat.ID
			for _, seg := range msg.segments {
				d.messages = append(d.messages, api.Message{ID: "local-" + uuid.NewString(), Sender: api.SenderAI, Text: seg})
			}
			d.syncTimeline()
			break
		}
		if msg.chatID != d.activeChatID {
			// response for a conversation the user already left
			break
		}
		if len(msg.segments) > 0 {
			d.revealQueue = append([]string(nil), msg.segments...)
			cmds = append(cmds, d.revealTickCmd())
		}
	case revealTickMsg:
		if msg.gen != d.revealGen || len(d.revealQueue) == 0 {
			break
		}
		head := d.revealQueue[0]
		d.revealQueue = d.revealQueue[1:]
		d.messages = append(d.messages, api.Message{ID: "local-" + uuid.NewString(), Sender: api.SenderAI, Text: head})
		d.syncTimeline()
		if len(d.revealQueue) > 0 {
			cmds = append(cmds, d.revealTickCmd())
		}
	case deleteDoneMsg:
		if msg.err != nil {
			d.errText = requestErrorText(msg.err, "could not delete conversation")
			break
		}
		kept := d.chats[:0]
		for _, c := range d.chats {
			if c.ID != msg.chatID {
				kept = append(kept, c)
			}
		}
		d.chats = kept
		if msg.chatID == d.activeChatID {
			if len(d.chats) > 0 {
				cmds = append(cmds, d.selectChat(d.chats[0].ID))
			} else {
				cmds = append(cmds, d.selectChat(""))
			}
		}
	case shareDoneMsg:
		d.shareOK = msg.err == nil
		if msg.err != nil {
			d.shareFeedback = requestErrorText(msg.err, "could not share conversation")
		} else {
			d.shareFeedback = nullCoalesce(msg.message, "shared")
		}
	case spinner.TickMsg:
		var cmd tea.Cmd
		d.spinner, cmd = d.spinner.Update(msg)
		cmds = append(cmds, cmd)
	case tea.KeyMsg:
		return d.handleKey(msg)
	}
	return d, tea.Batch(cmds...)
}

func (d dashboardModel) handleKey(msg tea.KeyMsg) (dashboardModel, tea.Cmd) {
	if d.confirmDeleteID != "" {
		switch msg.String() {
		case "y", "Y", "enter":
			chatID := d.confirmDeleteID
			d.confirmDeleteID = ""
			return d, d.deleteChatCmd(chatID)
		case "n", "N", "esc":
			d.confirmDeleteID = ""
		}
		return d, nil
	}

	if d.shareOpen {
		switch msg.String() {
		case "esc":
			d.shareOpen = false
			d.shareInput.Blur()
			d.input.Focus()
			return d, nil
		case "enter":
			target := strings.TrimSpace(d.shareInput.Value())
			if d.activeChatID == "" || target == "" {
				return d, nil
			}
			return d, d.shareChatCmd(d.activeChatID, target)
		}
		var cmd tea.Cmd
		d.shareInput, cmd = d.shareInput.Update(msg)
		return d, cmd
	}

	switch msg.String() {
	case "enter":
		return d, d.submitMessage()
	case "ctrl+n":
		return d, d.selectChat("")
	case "ctrl+j", "alt+down":
		return d, d.nextChat(1)
	case "ctrl+k", "alt+up":
		return d, d.nextChat(-1)
	case "ctrl+d":
		if d.activeChatID != "" {
			d.confirmDeleteID = d.activeChatID
		}
		return d, nil
	case "ctrl+s":
		if d.activeChatID != "" {
			d.shareOpen = true
			d.shareInput.SetValue("")
			d.shareFeedback = ""
			d.shareInput.Focus()
			d.input.Blur()
		}
		return d, nil
	case "ctrl+l":
		d.session.Logout()
		return d, nil
	case "ctrl+p":
		return d, navigateCmd(screenProfile, "")
	case "ctrl+g":
		return d, navigateCmd(screenShared, "")
	case "pgup", "pgdown":
		var cmd tea.Cmd
		d.timeline, cmd = d.timeline.Update(msg)
		return d, cmd
	}

	if d.composing() {
		// the responder is mid-reveal; typed input stays out of the buffer
		return d, nil
	}
	var cmd tea.Cmd
	d.input, cmd = d.input.Update(msg)
	return d, cmd
}

func (d *dashboardModel) resize(width, height int) {
	d.width = width
	d.height = height
	d.timeline.Width = maxInt(20, width-d.sidebarWidth()-10)
	d.timeline.Height = maxInt(4, height-12)
	d.input.Width = maxInt(20, width-10)
	d.syncTimeline()
}

func (d dashboardModel) sidebarWidth() int {
	return clampInt(d.width/4, 20, 36)
}

// syncTimeline rebuilds the viewport content and scrolls to the latest
// message. Called after every message-list mutation.
func (d *dashboardModel) syncTimeline() {
	width := maxInt(20, d.timeline.Width)
	var b strings.Builder
	for _, m := range d.messages {
		label := d.theme.bubbleAI.Render("responder")
		if m.Sender == api.SenderUser {
			label = d.theme.bubbleUser.Render(d.userName)
		}
		body := lipgloss.NewStyle().Width(width).Render(m.Text)
		b.WriteString(label + "\n" + body + "\n\n")
	}
	d.timeline.SetContent(strings.TrimRight(b.String(), "\n"))
	d.timeline.GotoBottom()
}

func (d dashboardModel) chatTitle() string {
	if d.activeChatID == "" {
		return "New conversation"
	}
	for _, c := range d.chats {
		if c.ID == d.activeChatID {
			return c.Name
		}
	}
	return "Conversation"
}

func (d dashboardModel) view() string {
	header := d.theme.header.Width(maxInt(20, d.width-4)).Render(
		d.theme.panelTitle.Render("parley") + "  " +
			fmt.Sprintf("hey, %s", compactSingleLine(strings.SplitN(d.userName, " ", 2)[0], 24)),
	)

	sidebar := d.renderSidebar()
	chatPanel := d.renderChatPanel()
	main := lipgloss.JoinHorizontal(lipgloss.Top, sidebar, chatPanel)

	inputLine := d.input.View()
	if d.composing() {
		inputLine = d.spinner.View() + " " + d.theme.helpText.Render("responder is typing...")
	}
	input := d.theme.inputPanel.Width(maxInt(20, d.width-4)).Render(inputLine)

	footerText := "enter send · ctrl+n new · ctrl+j/k switch · ctrl+d delete · ctrl+s share · ctrl+p profile · ctrl+g shared · ctrl+l sign out"
	if d.confirmDeleteID != "" {
		footerText = "delete " + compactSingleLine(d.chatTitle(), 40) + "? y/n"
	}
	if d.errText != "" {
		footerText = d.theme.errorStatus.Render(compactSingleLine(d.errText, 160))
	}
	footer := d.theme.footer.Width(maxInt(20, d.width-4)).Render(footerText)

	out := lipgloss.JoinVertical(lipgloss.Left, header, main, input, footer)
	if d.shareOpen {
		out = d.renderShareModal()
	}
	return out
}

func (d dashboardModel) renderSidebar() string {
	var b strings.Builder
	b.WriteString(d.theme.panelTitle.Render("Chats") + "\n")
	entry := d.theme.sidebarItem
	if d.activeChatID == "" {
		entry = d.theme.sidebarActive
	}
	b.WriteString(entry.Render("+ new conversation") + "\n")
	if d.loadingChats {
		b.WriteString(d.theme.helpText.Render(d.spinner.View()+" loading...") + "\n")
	}
	for _, c := range d.chats {
		style := d.theme.sidebarItem
		if c.ID == d.activeChatID {
			style = d.theme.sidebarActive
		}
		b.WriteString(style.Render(truncate(c.Name, d.sidebarWidth()-4)) + "\n")
	}
	return d.theme.panel.
		Width(d.sidebarWidth()).
		Height(maxInt(4, d.height-10)).
		Render(strings.TrimRight(b.String(), "\n"))
}

func (d dashboardModel) renderChatPanel() string {
	title := d.theme.panelTitle.Render(compactSingleLine(d.chatTitle(), 60))
	body := d.timeline.View()
	if d.loadingMessages {
		body = d.spinner.View() + " " + d.theme.helpText.Render("loading messages...")
	} else if len(d.messages) == 0 {
		body = d.theme.helpText.Render("Start a new conversation.")
	}
	if d.shareFeedback != "" {
		style := d.theme.feedbackErr
		if d.shareOK {
			style = d.theme.feedbackOK
		}
		body += "\n" + style.Render(compactSingleLine(d.shareFeedback, 120))
	}
	return d.theme.panel.
		Width(maxInt(20, d.width-d.sidebarWidth()-8)).
		Height(maxInt(4, d.height-10)).
		Render(title + "\n" + body)
}

func (d dashboardModel) renderShareModal() string {
	var feedback string
	if d.shareFeedback != "" {
		style := d.theme.feedbackErr
		if d.shareOK {
			style = d.theme.feedbackOK
		}
		feedback = "\n" + style.Render(compactSingleLine(d.shareFeedback, 80))
	}
	modal := d.theme.modalFrame.Render(
		d.theme.panelTitle.Render("Share "+compactSingleLine(d.chatTitle(), 40)) + "\n\n" +
			d.shareInput.View() + feedback + "\n\n" +
			d.theme.helpText.Render("enter share · esc close"),
	)
	return lipgloss.Place(maxInt(40, d.width-2), maxInt(10, d.height-2), lipgloss.Center, lipgloss.Center, modal)
}
