// Package session owns the authenticated-session lifecycle: the persisted
// bearer credential, its derived validity, and the loading flag consumed by
// the route guard. The Manager is the sole writer of the credential slot;
// every other component reads through it.
package session

import (
	"log/slog"
	"sync"
	"time"
)

// Change is broadcast after every session mutation.
type Change struct {
	Authenticated bool
}

// Manager holds the current session state. Both user-initiated logout and
// the forced-logout interceptor funnel into the same idempotent Logout, so
// the two writer paths converge without extra coordination.
type Manager struct {
	mu            sync.Mutex
	store         CredentialStore
	now           func() time.Time
	log           *slog.Logger
	token         string
	authenticated bool
	loading       bool
	changes       chan Change
}

// NewManager builds a Manager in the loading state. Initialize must run
// once before any route decision is made.
func NewManager(store CredentialStore, log *slog.Logger) *Manager {
	if log == nil {
		log = slog.Default()
	}
	return &Manager{
		store:   store,
		now:     time.Now,
		log:     log,
		loading: true,
		changes: make(chan Change, 1),
	}
}

// Initialize reads the persisted credential and derives authentication
// state: authenticated iff the credential decodes and its expiry is in the
// future. A malformed or expired credential is purged immediately and
// treated as absence. Always ends by clearing the loading flag.
func (m *Manager) Initialize() {
	m.mu.Lock()
	defer m.mu.Unlock()
	defer func() {
		m.loading = false
		m.notifyLocked()
	}()

	token, err := m.store.Load()
	if err != nil {
		m.log.Warn("credential slot unreadable", "err", err)
		m.authenticated = false
		return
	}
	if token == "" {
		m.authenticated = false
		return
	}
	if err := ValidateToken(token, m.now()); err != nil {
		m.log.Info("purging stored credential", "reason", err)
		if err := m.store.Clear(); err != nil {
			m.log.Warn("credential purge failed", "err", err)
		}
		m.authenticated = false
		return
	}
	m.token = token
	m.authenticated = true
}

// Login persists a freshly issued credential and marks the session
// authenticated unconditionally; no decode or expiry check happens here.
func (m *Manager) Login(token string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Save(token); err != nil {
		m.log.Warn("credential persist failed", "err", err)
	}
	m.token = token
	m.authenticated = true
	m.notifyLocked()
}

// Logout purges the credential and marks the session unauthenticated.
// Calling it while already logged out is a no-op.
func (m *Manager) Logout() {
	m.mu.Lock()
	defer m.mu.Unlock()
	if err := m.store.Clear(); err != nil {
		m.log.Warn("credential purge failed", "err", err)
	}
	m.token = ""
	m.authenticated = false
	m.notifyLocked()
}

// Token returns the current credential, or "" when none is held. This is
// the transport adapter's token source.
func (m *Manager) Token() string {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.token
}

// IsAuthenticated reports whether a usable credential is held.
func (m *Manager) IsAuthenticated() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.authenticated
}

// IsLoading reports whether Initialize has completed. While true, nothing
// protected may render.
func (m *Manager) IsLoading() bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.loading
}

// Changes returns the coalescing broadcast channel. A pending unread change
// is replaced rather than queued; consumers always see the latest state.
func (m *Manager) Changes() <-chan Change {
	return m.changes
}

func (m *Manager) notifyLocked() {
	change := Change{Authenticated: m.authenticated}
	for {
		select {
		case m.changes <- change:
			return
		default:
			select {
			case <-m.changes:
			default:
			}
		}
	}
}
