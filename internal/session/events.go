package session

import (
	"encoding/json"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
)

// Frame is the wire shape in both directions: an event name plus an opaque
// payload object.
type Frame struct {
	Event   string          `json:"event"`
	Payload json.RawMessage `json:"payload,omitempty"`
}

// Client-originated events.
const (
	EventAuthenticate   = "authenticate"
	EventJoinRoom       = "join_room"
	EventLeaveRoom      = "leave_room"
	EventSendMessage    = "send_message"
	EventMarkRead       = "mark_read"
	EventMarkDelivered  = "mark_delivered"
	EventTypingStart    = "typing_start"
	EventTypingStop     = "typing_stop"
	EventGetMessages    = "get_messages"
	EventGetTypingUsers = "get_typing_users"
	EventGetOnlineUsers = "get_online_users"
	EventListRooms      = "list_rooms"
	EventCreateRoom     = "create_room"
	EventHeartbeat      = "heartbeat"
)

// Responses to the originating connection.
const (
	EventAuthenticated     = "authenticated"
	EventJoinedRoom        = "joined_room"
	EventLeftRoom          = "left_room"
	EventMessageSent       = "message_sent"
	EventRoomMessages      = "room_messages"
	EventTypingUsers       = "typing_users"
	EventOnlineUsers       = "online_users"
	EventAvailableRooms    = "available_rooms"
	EventRoomCreated       = "room_created"
	EventHeartbeatResponse = "heartbeat_response"
	EventError             = "error"
)

// Fan-out events to affected connections.
const (
	EventUserOnline       = "user_online"
	EventUserOffline      = "user_offline"
	EventUserJoinedRoom   = "user_joined_room"
	EventUserLeftRoom     = "user_left_room"
	EventNewMessage       = "new_message"
	EventMessageRead      = "message_read"
	EventMessageDelivered = "message_delivered"
	EventUserTyping       = "user_typing"
)

type errorPayload struct {
	Message string `json:"message"`
}

type authenticatedPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type userPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
}

type roomEventPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	RoomID   string `json:"room_id"`
}

type joinedRoomPayload struct {
	RoomID string `json:"room_id"`
}

type messageSentPayload struct {
	MessageID string    `json:"message_id"`
	Timestamp time.Time `json:"timestamp"`
}

type roomMessagesPayload struct {
	RoomID   string             `json:"room_id"`
	Messages []chat.MessageView `json:"messages"`
	Limit    int                `json:"limit,omitempty"`
	Offset   int                `json:"offset,omitempty"`
}

type receiptPayload struct {
	MessageID string    `json:"message_id"`
	UserID    string    `json:"user_id"`
	Timestamp time.Time `json:"timestamp"`
}

type typingPayload struct {
	UserID   string `json:"user_id"`
	Username string `json:"username"`
	RoomID   string `json:"room_id"`
	IsTyping bool   `json:"is_typing"`
}

type typingUsersPayload struct {
	RoomID string   `json:"room_id"`
	Users  []string `json:"users"`
}

type onlineUsersPayload struct {
	Users []chat.UserInfo `json:"users"`
}

type availableRoomsPayload struct {
	Rooms []chat.RoomInfo `json:"rooms"`
}

type heartbeatPayload struct {
	Timestamp time.Time `json:"timestamp"`
	Status    string    `json:"status"`
}
