package session

import (
	"sync"

	"github.com/AbdelalimB1729/ChatFlow/pkg/transport"
)

// Session is the per-connection state machine. A connection starts
// unauthenticated, transitions to authenticated at most once, and is
// terminal on disconnect. Room membership lives in the room directory, not
// here; the session only pins the identity behind the connection.
type Session struct {
	conn *transport.Connection

	mu       sync.Mutex
	authed   bool
	userID   string
	username string
}

func newSession(conn *transport.Connection) *Session {
	return &Session{conn: conn}
}

func (s *Session) setIdentity(userID, username string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.authed = true
	s.userID = userID
	s.username = username
}

// identity returns the authenticated principal, or ok=false while the
// session is still unauthenticated.
func (s *Session) identity() (userID, username string, ok bool) {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.userID, s.username, s.authed
}
