// Package session implements the server-side session store. Each session is
// identified by an opaque uuid and holds the authenticated user id (zero for
// anonymous sessions) plus a one-time flash message. The client never sees
// session contents, only the session id carried inside a signed cookie.
package session

import (
	"sync"

	"github.com/google/uuid"
)

type session struct {
	userID int
	flash  string
}

// Store keeps all live sessions in memory, guarded by a mutex so concurrent
// request handlers may read and mutate them safely.
type Store struct {
	mu       sync.RWMutex
	sessions map[string]*session
}

// NewStore returns an empty session store.
func NewStore() *Store {
	return &Store{
		sessions: map[string]*session{},
	}
}

// Create registers a new anonymous session and returns its id.
func (s *Store) Create() string {
	sessionID := uuid.New().String()

	s.mu.Lock()
	defer s.mu.Unlock()
	s.sessions[sessionID] = &session{}

	return sessionID
}

// Exists reports whether the given session id is known to the store.
func (s *Store) Exists(sessionID string) bool {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, found := s.sessions[sessionID]

	return found
}

// BindUser associates the session with an authenticated user id.
// Binding an unknown session is a no-op.
func (s *Store) BindUser(sessionID string, userID int) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if theSession, found := s.sessions[sessionID]; found {
		theSession.userID = userID
	}
}

// UserID returns the user id bound to the session. The second return value is
// false when the session is missing or still anonymous.
func (s *Store) UserID(sessionID string) (int, bool) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	theSession, found := s.sessions[sessionID]
	if !found || theSession.userID == 0 {
		return 0, false
	}

	return theSession.userID, true
}

// SetFlash stores a one-time message to be shown on the next rendered page.
func (s *Store) SetFlash(sessionID, message string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if theSession, found := s.sessions[sessionID]; found {
		theSession.flash = message
	}
}

// PopFlash returns the pending flash message and clears it, so a flash is
// rendered at most once.
func (s *Store) PopFlash(sessionID string) string {
	s.mu.Lock()
	defer s.mu.Unlock()

	theSession, found := s.sessions[sessionID]
	if !found {
		return ""
	}

	message := theSession.flash
	theSession.flash = ""

	return message
}

// Unbind drops the user binding and returns the session to the anonymous
// state. The session itself stays alive, so a flash message set afterwards
// is still delivered on the next rendered page. Used when a session turns
// out to reference a user that no longer exists.
func (s *Store) Unbind(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()

	if theSession, found := s.sessions[sessionID]; found {
		theSession.userID = 0
	}
}

// Destroy removes the session entirely, flash included. Callers that still
// need to show a message must use Unbind instead.
func (s *Store) Destroy(sessionID string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	delete(s.sessions, sessionID)
}
