package game

import (
	"fmt"
	"sync"
)

// Manager owns every active session for the local peer. Game ids come from a
// counter that wraps modulo 256, so ids run g0..g255 and start over.
type Manager struct {
	mu       sync.Mutex
	sessions map[string]*Session
	next     int
}

func NewManager() *Manager {
	return &Manager{sessions: make(map[string]*Session)}
}

// Invite allocates a fresh session between the inviter and opponent. The
// inviter picks a symbol; X is the default. X always has the first turn.
func (m *Manager) Invite(inviter, opponent, inviterSymbol string) (Session, error) {
	if inviter == opponent || inviter == "" || opponent == "" {
		return Session{}, fmt.Errorf("%w: a game needs two distinct players", ErrInvalidMove)
	}
	playerX, playerO := inviter, opponent
	if inviterSymbol == SymbolO {
		playerX, playerO = opponent, inviter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	id := fmt.Sprintf("g%d", m.next)
	m.next = (m.next + 1) % 256
	s := newSession(id, playerX, playerO)
	m.sessions[id] = s
	return *s, nil
}

// Accept registers a session created by a remote invite under the remote's
// game id. Invitations are auto-accepted; a duplicate id refreshes nothing.
func (m *Manager) Accept(id, inviter, opponent, inviterSymbol string) (Session, error) {
	if inviter == opponent || id == "" {
		return Session{}, fmt.Errorf("%w: bad invite for %q", ErrInvalidMove, id)
	}
	playerX, playerO := inviter, opponent
	if inviterSymbol == SymbolO {
		playerX, playerO = opponent, inviter
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if existing, ok := m.sessions[id]; ok {
		return *existing, nil
	}
	s := newSession(id, playerX, playerO)
	m.sessions[id] = s
	return *s, nil
}

// Move applies a move and returns the updated session snapshot. Completed
// sessions stay in the table until Remove so the caller can read the outcome.
func (m *Manager) Move(id, userID string, position int) (Session, error) {
	m.mu.Lock()
	defer m.mu.Unlock()
	s, ok := m.sessions[id]
	if !ok {
		return Session{}, fmt.Errorf("%w: %s", ErrNotFound, id)
	}
	if err := s.move(userID, position); err != nil {
		return *s, err
	}
	return *s, nil
}

// Get returns a snapshot of one session.
func (m *Manager) Get(id string) (Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	if s, ok := m.sessions[id]; ok {
		return *s, true
	}
	return Session{}, false
}

// Remove purges a session from active memory.
func (m *Manager) Remove(id string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.sessions, id)
}

// Active lists every session still in memory.
func (m *Manager) Active() []Session {
	m.mu.Lock()
	defer m.mu.Unlock()
	out := make([]Session, 0, len(m.sessions))
	for _, s := range m.sessions {
		out = append(out, *s)
	}
	return out
}
