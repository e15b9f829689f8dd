// internal/handlers/session.go
package handlers

import (
	"sync"

	"github.com/skirmish-io/skirmish-server/internal/models"
)

// SessionStore tracks every connected player session plus the per-session
// auto-join attempt counter.
type SessionStore struct {
	mu       sync.Mutex
	byID     map[string]*models.PlayerSession
	attempts map[string]int
}

// NewSessionStore creates an empty store.
func NewSessionStore() *SessionStore {
	return &SessionStore{
		byID:     make(map[string]*models.PlayerSession),
		attempts: make(map[string]int),
	}
}

// Ensure returns the session for id, creating a blank one on first sight.
// A blank session has no name; it is unusable until the client completes
// the data handshake.
func (s *SessionStore) Ensure(id string) *models.PlayerSession {
	s.mu.Lock()
	defer s.mu.Unlock()
	if p, ok := s.byID[id]; ok {
		return p
	}
	p := &models.PlayerSession{
		ID:          id,
		Team:        models.NoTeam,
		DesiredTeam: models.NoTeam,
	}
	s.byID[id] = p
	return p
}

// Get resolves a session by id.
func (s *SessionStore) Get(id string) (*models.PlayerSession, bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	p, ok := s.byID[id]
	return p, ok
}

// Remove drops a session.
func (s *SessionStore) Remove(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.byID, id)
	delete(s.attempts, id)
}

// Count reports the number of live sessions.
func (s *SessionStore) Count() int {
	s.mu.Lock()
	defer s.mu.Unlock()
	return len(s.byID)
}

// Names lists the display names of all sessions that finished the
// handshake.
func (s *SessionStore) Names() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.byID))
	for _, p := range s.byID {
		if p.Name != "" {
			out = append(out, p.Name)
		}
	}
	return out
}

// OutOfLobbyIDs lists the sessions currently browsing outside any lobby.
// Server stat pushes go only to these; in-lobby clients get lobby updates
// instead.
func (s *SessionStore) OutOfLobbyIDs() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	out := make([]string, 0, len(s.byID))
	for id, p := range s.byID {
		if p.Name != "" && p.CurrentLobbyID == "" {
			out = append(out, id)
		}
	}
	return out
}

// BumpAttempts increments and returns the auto-join attempt counter.
func (s *SessionStore) BumpAttempts(id string) int {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.attempts[id]++
	return s.attempts[id]
}

// ResetAttempts clears the auto-join counter after a successful placement.
func (s *SessionStore) ResetAttempts(id string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.attempts, id)
}
