package api

import (
	"net/http"
	"sync/atomic"
)

// Attempt identifies one request attempt as it flows through the observer
// pipeline. The fired flag lets side-effecting observers act at most once
// per attempt no matter how many pipeline stages hand them the response.
type Attempt struct {
	fired atomic.Bool
}

// markFired returns true exactly once per attempt.
func (a *Attempt) markFired() bool {
	return a.fired.CompareAndSwap(false, true)
}

// ResponseObserver sees the status of every completed request attempt.
// Observers are pure side effects: they never substitute a response and the
// original outcome always reaches the caller unchanged.
type ResponseObserver interface {
	ObserveResponse(att *Attempt, status int)
}

// ForcedLogout tears the session down when the server rejects a request's
// authorization. The rejection itself still propagates to the caller; this
// only guarantees the stale credential is gone before the next attempt.
type ForcedLogout struct {
	logout func()
}

// NewForcedLogout wires the interceptor to the session teardown routine.
func NewForcedLogout(logout func()) *ForcedLogout {
	return &ForcedLogout{logout: logout}
}

// ObserveResponse invokes logout at most once per attempt on 401/403.
func (f *ForcedLogout) ObserveResponse(att *Attempt, status int) {
	if status != http.StatusUnauthorized && status != http.StatusForbidden {
		return
	}
	if !att.markFired() {
		return
	}
	f.logout()
}
