package chat

import (
	"time"

	"github.com/AbdelalimB1729/ChatFlow/pkg/transport"
)

type RoomKind string

const (
	RoomPublic  RoomKind = "public"
	RoomPrivate RoomKind = "private"
)

type MessageType string

const (
	MessageText  MessageType = "text"
	MessageImage MessageType = "image"
	MessageFile  MessageType = "file"
)

// canonical representation of a user known to the coordination core.
// Created on first successful authentication, never deleted here.
type User struct {
	ID        string
	Username  string
	Online    bool
	LastSeen  time.Time
	Conn      *transport.Connection // nil while offline
	CreatedAt time.Time
}

// UserInfo is the detached snapshot of a User handed to callers; it never
// aliases registry-internal state.
type UserInfo struct {
	ID       string    `json:"user_id"`
	Username string    `json:"username"`
	Online   bool      `json:"is_online"`
	LastSeen time.Time `json:"last_seen"`
}

// canonical representation of a chat room.
type Room struct {
	ID           string
	Name         string
	Kind         RoomKind
	Members      map[string]struct{} // keyed by user ID
	CreatedAt    time.Time
	LastActivity time.Time
}

type RoomInfo struct {
	ID           string    `json:"room_id"`
	Name         string    `json:"name"`
	Kind         RoomKind  `json:"room_type"`
	MemberCount  int       `json:"member_count"`
	CreatedAt    time.Time `json:"created_at"`
	LastActivity time.Time `json:"last_activity"`
}

// Message is immutable once recorded except for its two receipt sets,
// which only ever grow.
type Message struct {
	ID          string
	SenderID    string
	RoomID      string
	Content     string
	Type        MessageType
	CreatedAt   time.Time
	DeliveredTo map[string]struct{}
	ReadBy      map[string]struct{}
}

type MessageView struct {
	ID          string      `json:"message_id"`
	SenderID    string      `json:"sender_id"`
	RoomID      string      `json:"room_id"`
	Content     string      `json:"content"`
	Type        MessageType `json:"message_type"`
	CreatedAt   time.Time   `json:"timestamp"`
	DeliveredTo []string    `json:"delivered_to"`
	ReadBy      []string    `json:"read_by"`
}

// TypingIndicator is the ephemeral fact "user is typing in room as of T".
// A later indicator for the same user supersedes it; it expires without an
// explicit stop event.
type TypingIndicator struct {
	UserID    string
	RoomID    string
	Timestamp time.Time
}
