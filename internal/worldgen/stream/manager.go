package stream

import "sync"

// Manager tracks the single open stream per session.
type Manager struct {
	mu     sync.Mutex
	active map[string]*Stream
}

// NewManager creates an empty stream manager.
func NewManager() *Manager {
	return &Manager{active: make(map[string]*Stream)}
}

// Begin registers a new stream for the session. Any previous stream for
// the same session is canceled first so chunks from two calls can never
// interleave.
func (m *Manager) Begin(sessionID string, s *Stream) {
	m.mu.Lock()
	previous := m.active[sessionID]
	m.active[sessionID] = s
	m.mu.Unlock()

	if previous != nil && previous != s {
		previous.Cancel()
	}
}

// Release removes the stream if it is still the session's active one.
func (m *Manager) Release(sessionID string, s *Stream) {
	m.mu.Lock()
	if m.active[sessionID] == s {
		delete(m.active, sessionID)
	}
	m.mu.Unlock()
}

// CancelActive cancels and removes the session's open stream, if any.
// It reports whether a stream was open.
func (m *Manager) CancelActive(sessionID string) bool {
	m.mu.Lock()
	s := m.active[sessionID]
	delete(m.active, sessionID)
	m.mu.Unlock()

	if s == nil {
		return false
	}
	s.Cancel()
	return true
}

// Active reports whether the session has an open stream.
func (m *Manager) Active(sessionID string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.active[sessionID] != nil
}
