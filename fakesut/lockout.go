package fakesut

import (
	"sync"
	"time"
)

// lockoutTracker counts failed logins per client.
type lockoutTracker struct {
	mu       sync.Mutex
	max      int
	duration time.Duration
	clients  map[string]*clientState
}

type clientState struct {
	failures    int
	lockedUntil time.Time
}

func newLockoutTracker(max int, duration time.Duration) *lockoutTracker {
	return &lockoutTracker{
		max:      max,
		duration: duration,
		clients:  map[string]*clientState{},
	}
}

// locked reports whether client is locked out at now. An expired lockout
// is forgotten.
func (t *lockoutTracker) locked(client string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.clients[client]
	if !ok || st.lockedUntil.IsZero() {
		return false
	}
	if now.Before(st.lockedUntil) {
		return true
	}
	delete(t.clients, client)
	return false
}

// fail records a failed login and reports whether it locked the client.
func (t *lockoutTracker) fail(client string, now time.Time) bool {
	t.mu.Lock()
	defer t.mu.Unlock()
	st, ok := t.clients[client]
	if !ok {
		st = &clientState{}
		t.clients[client] = st
	}
	st.failures++
	if st.failures >= t.max {
		st.lockedUntil = now.Add(t.duration)
		return true
	}
	return false
}

func (t *lockoutTracker) reset(client string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.clients, client)
}
