package session

import (
	"sync"
	"time"

	"github.com/google/uuid"

	"logsearch/internal/domain"
)

// Manager is a uuid-keyed registry of live sessions for the HTTP layer.
// Each session stays single-owner: the manager serializes all access to a
// session through With. Idle sessions are evicted after the TTL.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*entry
	ttl      time.Duration
	now      func() time.Time
}

type entry struct {
	mu       sync.Mutex
	session  *Session
	lastUsed time.Time
}

// NewManager creates a Manager with the given idle TTL.
func NewManager(ttl time.Duration) *Manager {
	if ttl <= 0 {
		ttl = 30 * time.Minute
	}
	return &Manager{
		sessions: make(map[string]*entry),
		ttl:      ttl,
		now:      time.Now,
	}
}

// Put registers a session and returns its ID.
func (m *Manager) Put(s *Session) string {
	id := uuid.NewString()
	m.mu.Lock()
	m.sessions[id] = &entry{session: s, lastUsed: m.now()}
	m.mu.Unlock()
	return id
}

// With runs fn with exclusive access to the identified session.
func (m *Manager) With(id string, fn func(*Session) error) error {
	m.mu.Lock()
	e, ok := m.sessions[id]
	if ok {
		e.lastUsed = m.now()
	}
	m.mu.Unlock()
	if !ok {
		return domain.ErrNotFound("session %q not found", id)
	}

	e.mu.Lock()
	defer e.mu.Unlock()
	return fn(e.session)
}

// Dispose removes a session.
func (m *Manager) Dispose(id string) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// Sweep evicts sessions idle longer than the TTL and returns how many were
// removed. Called periodically by the server.
func (m *Manager) Sweep() int {
	cutoff := m.now().Add(-m.ttl)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, e := range m.sessions {
		if e.lastUsed.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}

// Len returns the number of live sessions.
func (m *Manager) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.sessions)
}
