package ui

import (
	"encoding/base64"
	"encoding/json"
	"io"
	"log/slog"
	"strings"
	"testing"
	"time"

	tea "github.com/charmbracelet/bubbletea"

	"parley/internal/api"
	"parley/internal/session"
)

func freshToken(t *testing.T) string {
	t.Helper()
	payload, err := json.Marshal(map[string]any{"sub": "x", "exp": time.Now().Add(time.Hour).Unix()})
	if err != nil {
		t.Fatalf("marshal payload: %v", err)
	}
	return "h." + base64.RawURLEncoding.EncodeToString(payload) + ".s"
}

func newTestApp(t *testing.T, token string) App {
	t.Helper()
	sess := session.NewManager(session.NewMemStore(token), nil)
	return NewApp(Config{
		Client:         api.New("http://localhost:0", sess.Token),
		Session:        sess,
		RevealInterval: time.Second,
		Logger:         slog.New(slog.NewTextHandler(io.Discard, nil)),
	})
}

func TestViewGatedWhileSessionLoads(t *testing.T) {
	a := newTestApp(t, "")
	if view := a.View(); !strings.Contains(view, "checking session") {
		t.Fatalf("pre-init view must be the neutral placeholder, got %q", view)
	}
}

func TestSessionReadyRoutesToLogin(t *testing.T) {
	a := newTestApp(t, "")
	a.sess.Initialize()
	model, _ := a.Update(sessionReadyMsg{})
	a = model.(App)
	if a.screen != screenLogin {
		t.Fatalf("screen = %d, want login for an empty session", a.screen)
	}
}

func TestSessionReadyRoutesToDashboard(t *testing.T) {
	a := newTestApp(t, freshToken(t))
	a.sess.Initialize()
	model, cmd := a.Update(sessionReadyMsg{})
	a = model.(App)
	if a.screen != screenDashboard {
		t.Fatalf("screen = %d, want dashboard for a valid session", a.screen)
	}
	if cmd == nil {
		t.Fatalf("entering the dashboard must mount it")
	}
}

func TestForcedLogoutLeavesProtectedScreen(t *testing.T) {
	a := newTestApp(t, freshToken(t))
	a.sess.Initialize()
	model, _ := a.Update(sessionReadyMsg{})
	a = model.(App)

	// the interceptor path: session torn down outside the update loop
	a.sess.Logout()
	model, cmd := a.Update(authChangedMsg{change: session.Change{Authenticated: false}})
	a = model.(App)
	if a.screen != screenLogin {
		t.Fatalf("screen = %d, want login after a forced sign-out", a.screen)
	}
	if cmd == nil {
		t.Fatalf("the auth watcher must re-arm after every delivery")
	}
	if view := a.View(); !strings.Contains(view, "Session ended") {
		t.Fatalf("the login screen must explain the sign-out, got %q", view)
	}
}

func TestAuthChangeIgnoredOnPublicScreens(t *testing.T) {
	a := newTestApp(t, "")
	a.sess.Initialize()
	model, _ := a.Update(sessionReadyMsg{})
	a = model.(App)

	model, _ = a.Update(authChangedMsg{change: session.Change{Authenticated: false}})
	a = model.(App)
	if a.screen != screenLogin {
		t.Fatalf("an unauthenticated change on login must not navigate")
	}
}

func TestProtectedNavigationRequiresSession(t *testing.T) {
	a := newTestApp(t, "")
	a.sess.Initialize()
	model, _ := a.Update(sessionReadyMsg{})
	a = model.(App)

	model, _ = a.Update(navigateMsg{screen: screenProfile})
	a = model.(App)
	if a.screen != screenLogin {
		t.Fatalf("screen = %d, protected targets must fall back to login", a.screen)
	}
}

func TestLoginBroadcastEntersDashboard(t *testing.T) {
	a := newTestApp(t, "")
	a.sess.Initialize()
	model, _ := a.Update(sessionReadyMsg{})
	a = model.(App)

	a.sess.Login(freshToken(t))
	model, _ = a.Update(authChangedMsg{change: session.Change{Authenticated: true}})
	a = model.(App)
	if a.screen != screenDashboard {
		t.Fatalf("screen = %d, want dashboard after sign-in", a.screen)
	}
}

func TestCtrlCQuits(t *testing.T) {
	a := newTestApp(t, "")
	_, cmd := a.Update(tea.KeyMsg(tea.Key{Type: tea.KeyCtrlC}))
	if cmd == nil {
		t.Fatalf("ctrl+c must quit")
	}
	if msg := cmd(); msg == nil {
		t.Fatalf("quit command must produce a message")
	} else if _, ok := msg.(tea.QuitMsg); !ok {
		t.Fatalf("msg = %T, want tea.QuitMsg", msg)
	}
}
