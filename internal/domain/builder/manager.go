package builder

import (
	"fmt"
	"sort"
	"sync"
	"time"

	"github.com/google/uuid"

	"github.com/emrforms/emrforms/internal/domain/schema"
)

// Manager is a thread-safe in-memory registry of live builder sessions.
// Sessions are transient editor state; they are never persisted.
type Manager struct {
	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
	maxAge   time.Duration
}

// NewManager creates an empty session registry. Sessions older than maxAge
// are dropped by Sweep; zero means no expiry.
func NewManager(maxAge time.Duration) *Manager {
	return &Manager{sessions: make(map[uuid.UUID]*Session), maxAge: maxAge}
}

// Open starts a session over the given schema and registers it.
func (m *Manager) Open(s schema.Schema, templateID *uuid.UUID) *Session {
	sess := NewSession(s)
	sess.TemplateID = templateID
	m.mu.Lock()
	m.sessions[sess.ID] = sess
	m.mu.Unlock()
	return sess
}

// Get returns the session with the given id.
func (m *Manager) Get(id uuid.UUID) (*Session, error) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	sess, ok := m.sessions[id]
	if !ok {
		return nil, fmt.Errorf("session %s not found", id)
	}
	return sess, nil
}

// Close removes a session from the registry.
func (m *Manager) Close(id uuid.UUID) {
	m.mu.Lock()
	delete(m.sessions, id)
	m.mu.Unlock()
}

// List returns the registered sessions ordered by creation time.
func (m *Manager) List() []*Session {
	m.mu.RLock()
	out := make([]*Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, s)
	}
	m.mu.RUnlock()
	sort.Slice(out, func(i, j int) bool { return out[i].CreatedAt.Before(out[j].CreatedAt) })
	return out
}

// Sweep drops sessions older than the configured max age and returns how
// many were removed.
func (m *Manager) Sweep() int {
	if m.maxAge <= 0 {
		return 0
	}
	cutoff := time.Now().Add(-m.maxAge)
	m.mu.Lock()
	defer m.mu.Unlock()
	n := 0
	for id, s := range m.sessions {
		if s.CreatedAt.Before(cutoff) {
			delete(m.sessions, id)
			n++
		}
	}
	return n
}
