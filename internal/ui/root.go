package ui

import (
	"log/slog"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/api"
	"parley/internal/session"
)

type screenID int

const (
	screenLogin screenID = iota
	screenRegister
	screenDashboard
	screenProfile
	screenShared
)

func (s screenID) protected() bool {
	switch s {
	case screenLogin, screenRegister:
		return false
	}
	return true
}

// Config carries everything the UI needs from the binary's flag layer.
type Config struct {
	Client         *api.Client
	Session        *session.Manager
	RevealInterval time.Duration
	Logger         *slog.Logger
}

type sessionReadyMsg struct{}

type authChangedMsg struct {
	change session.Change
}

// navigateMsg moves the app to another screen; notice is an optional line
// shown on the target (a successful registration, a forced sign-out).
type navigateMsg struct {
	screen screenID
	notice string
}

func navigateCmd(screen screenID, notice string) tea.Cmd {
	return func() tea.Msg {
		return navigateMsg{screen: screen, notice: notice}
	}
}

// App is the root model. It resolves the persisted session on startup,
// gates every protected screen on the session state, and swaps screens in
// response to auth changes so a revoked credential can never leave a
// protected screen on display.
type App struct {
	cfg    Config
	sess   *session.Manager
	theme  uiTheme
	log    *slog.Logger
	screen screenID

	login     loginModel
	register  registerModel
	dashboard dashboardModel
	profile   profileModel
	shared    sharedModel

	width  int
	height int
}

func NewApp(cfg Config) App {
	if cfg.Logger == nil {
		cfg.Logger = slog.Default()
	}
	theme := newTheme()
	return App{
		cfg:       cfg,
		sess:      cfg.Session,
		theme:     theme,
		log:       cfg.Logger,
		screen:    screenLogin,
		login:     newLoginModel(cfg.Client, cfg.Session, theme),
		register:  newRegisterModel(cfg.Client, theme),
		dashboard: newDashboardModel(cfg.Client, cfg.Session, theme, cfg.RevealInterval, cfg.Logger),
		profile:   newProfileModel(cfg.Client, theme),
		shared:    newSharedModel(cfg.Client, theme),
	}
}

func (a App) Init() tea.Cmd {
	return tea.Batch(a.initSessionCmd(), a.watchAuthCmd())
}

// initSessionCmd resolves the persisted credential off the update loop.
// Until sessionReadyMsg lands the view shows a neutral placeholder rather
// than flashing the login screen at a still-valid session.
func (a App) initSessionCmd() tea.Cmd {
	sess := a.sess
	return func() tea.Msg {
		sess.Initialize()
		return sessionReadyMsg{}
	}
}

// watchAuthCmd blocks on the session change feed and re-arms after every
// delivery, the one path by which an interceptor-driven sign-out reaches
// the screens.
func (a App) watchAuthCmd() tea.Cmd {
	ch := a.sess.Changes()
	return func() tea.Msg {
		return authChangedMsg{change: <-ch}
	}
}

// setScreen swaps the active screen, returning the target's mount command.
func (a *App) setScreen(screen screenID, notice string) tea.Cmd {
	if screen.protected() && !a.sess.IsAuthenticated() {
		screen = screenLogin
	}
	a.screen = screen
	a.resizeScreens()
	switch screen {
	case screenLogin:
		a.login = a.login.reset(notice)
		return nil
	case screenRegister:
		a.register = a.register.reset()
		return nil
	case screenDashboard:
		return a.dashboard.mountCmd()
	case screenProfile:
		a.profile = a.profile.reset()
		return a.profile.mountCmd()
	case screenShared:
		a.shared = a.shared.reset()
		return a.shared.mountCmd()
	}
	return nil
}

func (a App) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	var cmds []tea.Cmd
	switch msg := msg.(type) {
	case tea.KeyMsg:
		if msg.String() == "ctrl+c" {
			return a, tea.Quit
		}
	case tea.WindowSizeMsg:
		a.width = msg.Width
		a.height = msg.Height
		a.resizeScreens()
		return a, nil
	case sessionReadyMsg:
		if a.sess.IsAuthenticated() {
			cmds = append(cmds, a.setScreen(screenDashboard, ""))
		} else {
			cmds = append(cmds, a.setScreen(screenLogin, ""))
		}
		return a, tea.Batch(cmds...)
	case authChangedMsg:
		cmds = append(cmds, a.watchAuthCmd())
		if !msg.change.Authenticated && a.screen.protected() {
			a.log.Info("session ended, returning to sign-in")
			cmds = append(cmds, a.setScreen(screenLogin, "Session ended. Sign in again."))
		}
		if msg.change.Authenticated && !a.screen.protected() {
			cmds = append(cmds, a.setScreen(screenDashboard, ""))
		}
		return a, tea.Batch(cmds...)
	case navigateMsg:
		cmds = append(cmds, a.setScreen(msg.screen, msg.notice))
		return a, tea.Batch(cmds...)
	}

	var cmd tea.Cmd
	switch a.screen {
	case screenLogin:
		a.login, cmd = a.login.update(msg)
	case screenRegister:
		a.register, cmd = a.register.update(msg)
	case screenDashboard:
		a.dashboard, cmd = a.dashboard.update(msg)
	case screenProfile:
		a.profile, cmd = a.profile.update(msg)
	case screenShared:
		a.shared, cmd = a.shared.update(msg)
	}
	cmds = append(cmds, cmd)
	return a, tea.Batch(cmds...)
}

func (a *App) resizeScreens() {
	if a.width == 0 {
		return
	}
	a.dashboard.resize(a.width, a.height)
	a.shared.resize(a.width, a.height)
}

func (a App) View() string {
	if a.sess.IsLoading() {
		return a.theme.helpText.Render("\n  checking session...")
	}
	switch a.screen {
	case screenLogin:
		return a.login.view(a.width, a.height)
	case screenRegister:
		return a.register.view(a.width, a.height)
	case screenDashboard:
		return a.dashboard.view()
	case screenProfile:
		return a.profile.view(a.width, a.height)
	case screenShared:
		return a.shared.view()
	}
	return ""
}
