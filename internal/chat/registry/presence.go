package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/AbdelalimB1729/ChatFlow/pkg/transport"
)

// Presence maps user identity to online state and the active connection
// handle. Identities are established once, on first authentication, and are
// never deleted here.
type Presence struct {
	mu     sync.RWMutex
	users  map[string]*chat.User
	typing *Typing
	logger *slog.Logger
}

func NewPresence(logger *slog.Logger, typing *Typing) *Presence {
	return &Presence{
		users:  make(map[string]*chat.User),
		typing: typing,
		logger: logger.With(slog.String("component", "presence_registry")),
	}
}

// Establish creates the identity if it is not yet known. Idempotent; a
// repeat authentication only refreshes the display name.
func (p *Presence) Establish(userID, username string) {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[userID]
	if !ok {
		now := time.Now()
		p.users[userID] = &chat.User{
			ID:        userID,
			Username:  username,
			LastSeen:  now,
			CreatedAt: now,
		}
		p.logger.Debug("Established new user identity", slog.String("userID", userID))
		return
	}
	user.Username = username
}

// SetOnline marks the user online and records the connection handle. A
// second connection for the same user replaces the previous handle.
func (p *Presence) SetOnline(userID string, conn *transport.Connection) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[userID]
	if !ok {
		return chat.ErrUnknownUser
	}
	user.Online = true
	user.Conn = conn
	user.LastSeen = time.Now()

	p.logger.Debug("User online", slog.String("userID", userID))
	return nil
}

// SetOffline marks the user offline, clears the connection handle and any
// active typing state. Idempotent if the user is already offline or unknown.
func (p *Presence) SetOffline(userID string) {
	p.mu.Lock()
	user, ok := p.users[userID]
	if !ok {
		p.mu.Unlock()
		return
	}
	user.Online = false
	user.Conn = nil
	user.LastSeen = time.Now()
	p.mu.Unlock()

	p.typing.ClearUser(userID)
	p.logger.Debug("User offline", slog.String("userID", userID))
}

// Disconnect marks the user offline only while the given handle is still
// the active one, and reports whether it did. A connection that was replaced
// by a newer one for the same user must not knock the user offline when it
// finally closes.
func (p *Presence) Disconnect(userID string, conn *transport.Connection) bool {
	p.mu.Lock()
	user, ok := p.users[userID]
	if !ok || user.Conn != conn {
		p.mu.Unlock()
		return false
	}
	user.Online = false
	user.Conn = nil
	user.LastSeen = time.Now()
	p.mu.Unlock()

	p.typing.ClearUser(userID)
	p.logger.Debug("User offline", slog.String("userID", userID))
	return true
}

// Touch updates the last-seen timestamp only (heartbeat).
func (p *Presence) Touch(userID string) error {
	p.mu.Lock()
	defer p.mu.Unlock()

	user, ok := p.users[userID]
	if !ok {
		return chat.ErrUnknownUser
	}
	user.LastSeen = time.Now()
	return nil
}

// Exists reports whether the identity has been established.
func (p *Presence) Exists(userID string) bool {
	p.mu.RLock()
	defer p.mu.RUnlock()
	_, ok := p.users[userID]
	return ok
}

// Get returns a snapshot of a single user.
func (p *Presence) Get(userID string) (chat.UserInfo, bool) {
	p.mu.RLock()
	defer p.mu.RUnlock()

	user, ok := p.users[userID]
	if !ok {
		return chat.UserInfo{}, false
	}
	return snapshotUser(user), true
}

// ListOnline returns a snapshot of all currently online users. Callers never
// see the live internal structure.
func (p *Presence) ListOnline() []chat.UserInfo {
	p.mu.RLock()
	defer p.mu.RUnlock()

	online := make([]chat.UserInfo, 0)
	for _, user := range p.users {
		if user.Online {
			online = append(online, snapshotUser(user))
		}
	}
	return online
}

// OnlineConnections returns the connection handles of every online user.
func (p *Presence) OnlineConnections() []*transport.Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := make([]*transport.Connection, 0)
	for _, user := range p.users {
		if user.Online && user.Conn != nil {
			conns = append(conns, user.Conn)
		}
	}
	return conns
}

// ConnectionsFor resolves the given user IDs to the handles of those
// currently online. Offline or unknown users are skipped.
func (p *Presence) ConnectionsFor(userIDs []string) []*transport.Connection {
	p.mu.RLock()
	defer p.mu.RUnlock()

	conns := make([]*transport.Connection, 0, len(userIDs))
	for _, id := range userIDs {
		if user, ok := p.users[id]; ok && user.Online && user.Conn != nil {
			conns = append(conns, user.Conn)
		}
	}
	return conns
}

func snapshotUser(u *chat.User) chat.UserInfo {
	return chat.UserInfo{
		ID:       u.ID,
		Username: u.Username,
		Online:   u.Online,
		LastSeen: u.LastSeen,
	}
}
