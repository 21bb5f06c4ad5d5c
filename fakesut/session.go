package fakesut

import (
	"context"
	"errors"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/hairizuanbinnoorazman/ui-e2e/logger"
	"golang.org/x/time/rate"
)

var (
	// ErrSessionNotFound is returned when a session is not found.
	ErrSessionNotFound = errors.New("session not found")

	// ErrSessionExpired is returned when a session has expired.
	ErrSessionExpired = errors.New("session expired")
)

// Session is a signed-in browser session with its own rate-limit state.
type Session struct {
	ID        uuid.UUID
	Email     string
	CreatedAt time.Time
	ExpiresAt time.Time

	mu           sync.Mutex
	pageHits     int
	limiter      *rate.Limiter
	newLimiter   func() *rate.Limiter
	blockedUntil time.Time
}

// IsExpired checks if the session has expired at now.
func (s *Session) IsExpired(now time.Time) bool {
	return now.After(s.ExpiresAt)
}

// warmUp counts a protected page request and reports whether the page is
// still warming up.
func (s *Session) warmUp(requests int) bool {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.pageHits < requests {
		s.pageHits++
		return true
	}
	return false
}

// admit spends one token of the session's budget. Exceeding the budget
// blocks the session for cooldown; the budget is full again afterwards.
func (s *Session) admit(now time.Time, cooldown time.Duration) bool {
	s.mu.Lock()
	defer s.mu.Unlock()

	if now.Before(s.blockedUntil) {
		return false
	}
	if !s.blockedUntil.IsZero() {
		s.blockedUntil = time.Time{}
		s.limiter = s.newLimiter()
	}
	if !s.limiter.AllowN(now, 1) {
		s.blockedUntil = now.Add(cooldown)
		return false
	}
	return true
}

// Store is an in-memory session store.
type Store struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

// NewStore creates a new in-memory session store.
func NewStore() *Store {
	return &Store{
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Set stores a session in the store.
func (s *Store) Set(session *Session) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[session.ID] = session
}

// Get retrieves a live session from the store.
func (s *Store) Get(id uuid.UUID, now time.Time) (*Session, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	session, exists := s.sessions[id]
	if !exists {
		return nil, ErrSessionNotFound
	}
	if session.IsExpired(now) {
		return nil, ErrSessionExpired
	}
	return session, nil
}

// Delete removes a session from the store.
func (s *Store) Delete(id uuid.UUID) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, id)
}

// Len returns the number of stored sessions.
func (s *Store) Len() int {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return len(s.sessions)
}

// Cleanup removes sessions expired at now.
func (s *Store) Cleanup(now time.Time) int {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for id, session := range s.sessions {
		if session.IsExpired(now) {
			delete(s.sessions, id)
			removed++
		}
	}
	return removed
}

// Manager creates sessions and expires them in the background.
type Manager struct {
	store      *Store
	duration   time.Duration
	newLimiter func() *rate.Limiter
	now        func() time.Time
	logger     logger.Logger
	stopOnce   sync.Once
	stopCh     chan struct{}
}

// NewManager creates a session manager. Every session gets its own limiter
// from newLimiter.
func NewManager(duration time.Duration, newLimiter func() *rate.Limiter, now func() time.Time, log logger.Logger) *Manager {
	return &Manager{
		store:      NewStore(),
		duration:   duration,
		newLimiter: newLimiter,
		now:        now,
		logger:     log,
		stopCh:     make(chan struct{}),
	}
}

// Create creates a new session for the given user.
func (m *Manager) Create(email string) *Session {
	now := m.now()
	session := &Session{
		ID:         uuid.New(),
		Email:      email,
		CreatedAt:  now,
		ExpiresAt:  now.Add(m.duration),
		limiter:    m.newLimiter(),
		newLimiter: m.newLimiter,
	}
	m.store.Set(session)

	m.logger.Info(context.Background(), "session created", map[string]interface{}{
		"session_id": session.ID.String(),
		"email":      email,
	})
	return session
}

// Get retrieves a live session by ID.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	return m.store.Get(id, m.now())
}

// Delete deletes a session by ID.
func (m *Manager) Delete(id uuid.UUID) {
	m.store.Delete(id)
	m.logger.Info(context.Background(), "session deleted", map[string]interface{}{
		"session_id": id.String(),
	})
}

// StartCleanup periodically removes expired sessions until StopCleanup.
func (m *Manager) StartCleanup(interval time.Duration) {
	ticker := time.NewTicker(interval)
	go func() {
		for {
			select {
			case <-ticker.C:
				removed := m.store.Cleanup(m.now())
				if removed > 0 {
					m.logger.Info(context.Background(), "cleaned up expired sessions", map[string]interface{}{
						"removed_count": removed,
					})
				}
			case <-m.stopCh:
				ticker.Stop()
				return
			}
		}
	}()
}

// StopCleanup stops the cleanup goroutine. It is safe to call twice.
func (m *Manager) StopCleanup() {
	m.stopOnce.Do(func() { close(m.stopCh) })
}
