// Package session tracks live dashboard viewers (websocket and SSE clients).
package session

import (
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/plc-visualizer/safety-dashboard/internal/models"
	"github.com/rs/zerolog/log"
)

// MaxSessions limits concurrent viewers to bound fan-out work.
const MaxSessions = 256

// SessionKeepAliveWindow is how long a viewer counts as active after its
// last message.
const SessionKeepAliveWindow = 5 * time.Minute

// Manager holds the connected viewers.
type Manager struct {
	sessions map[string]*SessionState
	mu       sync.RWMutex
	max      int
}

// SessionState holds a viewer and the hook that disconnects it.
type SessionState struct {
	Session *models.ViewerSession
	close   func()
}

// NewManager creates a viewer registry with the default limit.
func NewManager() *Manager {
	return NewManagerWithLimit(MaxSessions)
}

// NewManagerWithLimit creates a viewer registry that admits at most max
// concurrent viewers.
func NewManagerWithLimit(max int) *Manager {
	if max <= 0 {
		max = MaxSessions
	}
	return &Manager{
		sessions: make(map[string]*SessionState),
		max:      max,
	}
}

// StartSession registers a viewer. closeFn is called when the session is
// evicted by cleanup; it may be nil. It returns false when the registry is
// full.
func (m *Manager) StartSession(transport models.TransportKind, remoteAddr string, closeFn func()) (*models.ViewerSession, bool) {
	now := time.Now()
	sess := &models.ViewerSession{
		ID:          uuid.New().String(),
		Transport:   transport,
		RemoteAddr:  remoteAddr,
		ConnectedAt: now,
		LastSeen:    now,
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if len(m.sessions) >= m.max {
		return nil, false
	}
	m.sessions[sess.ID] = &SessionState{Session: sess, close: closeFn}

	log.Debug().Str("session", shortID(sess.ID)).Str("transport", string(transport)).Msg("viewer connected")
	return sess, true
}

// EndSession removes a viewer. It does not call the close hook.
func (m *Manager) EndSession(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if _, ok := m.sessions[id]; ok {
		delete(m.sessions, id)
		log.Debug().Str("session", shortID(id)).Msg("viewer disconnected")
	}
}

// TouchSession marks a viewer as active.
func (m *Manager) TouchSession(id string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	state, ok := m.sessions[id]
	if !ok {
		return false
	}
	state.Session.LastSeen = time.Now()
	return true
}

// RecordSent counts a message delivered to a viewer.
func (m *Manager) RecordSent(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if state, ok := m.sessions[id]; ok {
		state.Session.MessagesSent++
	}
}

// GetSession returns a copy of a viewer session.
func (m *Manager) GetSession(id string) (models.ViewerSession, bool) {
	m.mu.RLock()
	defer m.mu.RUnlock()
	state, ok := m.sessions[id]
	if !ok {
		return models.ViewerSession{}, false
	}
	return *state.Session, true
}

// ListSessions returns copies of all viewer sessions.
func (m *Manager) ListSessions() []models.ViewerSession {
	m.mu.RLock()
	defer m.mu.RUnlock()
	out := make([]models.ViewerSession, 0, len(m.sessions))
	for _, state := range m.sessions {
		out = append(out, *state.Session)
	}
	return out
}

// Count returns the number of connected viewers.
func (m *Manager) Count() int {
	m.mu.RLock()
	defer m.mu.RUnlock()
	return len(m.sessions)
}

// CleanupOldSessions evicts viewers idle for longer than maxAge and calls
// their close hooks outside the lock.
func (m *Manager) CleanupOldSessions(maxAge time.Duration) int {
	if maxAge < SessionKeepAliveWindow {
		maxAge = SessionKeepAliveWindow
	}
	cutoff := time.Now().Add(-maxAge)

	var closers []func()
	evicted := 0
	m.mu.Lock()
	for id, state := range m.sessions {
		if state.Session.LastSeen.After(cutoff) {
			continue
		}
		delete(m.sessions, id)
		evicted++
		if state.close != nil {
			closers = append(closers, state.close)
		}
		log.Info().
			Str("session", shortID(id)).
			Dur("idle", time.Since(state.Session.LastSeen).Round(time.Second)).
			Msg("cleaned up idle viewer")
	}
	m.mu.Unlock()

	for _, c := range closers {
		c()
	}
	return evicted
}

// CloseAll removes every viewer and calls their close hooks outside the
// lock. It returns how many viewers were closed.
func (m *Manager) CloseAll() int {
	m.mu.Lock()
	closers := make([]func(), 0, len(m.sessions))
	n := len(m.sessions)
	for id, state := range m.sessions {
		delete(m.sessions, id)
		if state.close != nil {
			closers = append(closers, state.close)
		}
	}
	m.mu.Unlock()

	for _, c := range closers {
		c()
	}
	return n
}

// shortID safely truncates an ID for logging.
func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
