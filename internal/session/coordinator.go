package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"sync"

	"github.com/AbdelalimB1729/ChatFlow/internal/auth"
	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/AbdelalimB1729/ChatFlow/internal/chat/registry"
	"github.com/AbdelalimB1729/ChatFlow/internal/ratelimit"
	"github.com/AbdelalimB1729/ChatFlow/pkg/transport"
	"github.com/google/uuid"
)

// Store is the durable collaborator the coordinator writes through to.
// Failures here are logged as warnings, never surfaced as core errors.
type Store interface {
	SaveUser(chat.UserInfo) error
	SaveRoom(chat.RoomInfo) error
	SaveMessage(chat.MessageView) error
	RecentMessages(roomID string, limit, offset int) ([]chat.MessageView, error)
}

type Config struct {
	MaxMessageLength int
	RecentMessages   int
}

type Deps struct {
	Presence    *registry.Presence
	Rooms       *registry.Rooms
	Delivery    *registry.Delivery
	Typing      *registry.Typing
	Limiter     ratelimit.Limiter
	Verifier    auth.Verifier
	Broadcaster Broadcaster
	Store       Store // optional
}

// Coordinator orchestrates the registries: it validates each client event,
// runs the mutation, computes the fan-out set and hands it to the
// broadcaster. Rejections are scoped to the originating connection.
type Coordinator struct {
	logger   *slog.Logger
	presence *registry.Presence
	rooms    *registry.Rooms
	delivery *registry.Delivery
	typing   *registry.Typing
	limiter  ratelimit.Limiter
	verifier auth.Verifier
	bcast    Broadcaster
	store    Store
	cfg      Config

	mu       sync.RWMutex
	sessions map[uuid.UUID]*Session
}

func New(logger *slog.Logger, cfg Config, deps Deps) *Coordinator {
	return &Coordinator{
		logger:   logger.With(slog.String("component", "session_coordinator")),
		presence: deps.Presence,
		rooms:    deps.Rooms,
		delivery: deps.Delivery,
		typing:   deps.Typing,
		limiter:  deps.Limiter,
		verifier: deps.Verifier,
		bcast:    deps.Broadcaster,
		store:    deps.Store,
		cfg:      cfg,
		sessions: make(map[uuid.UUID]*Session),
	}
}

// Attach registers a freshly accepted connection in the unauthenticated
// state and wires its handlers. Must be called before conn.Run.
func (c *Coordinator) Attach(conn *transport.Connection) *Session {
	sess := newSession(conn)

	c.mu.Lock()
	c.sessions[conn.ID()] = sess
	c.mu.Unlock()

	conn.SetOnMessageHandler(c.HandleMessage)
	conn.SetOnCloseHandler(c.handleClose)

	c.logger.Debug("Session attached", slog.String("connID", conn.ID().String()))
	return sess
}

func (c *Coordinator) session(connID uuid.UUID) *Session {
	c.mu.RLock()
	defer c.mu.RUnlock()
	return c.sessions[connID]
}

// HandleMessage is the entry point for every inbound frame.
func (c *Coordinator) HandleMessage(ctx context.Context, connID uuid.UUID, raw []byte) {
	sess := c.session(connID)
	if sess == nil {
		c.logger.Warn("Frame from unknown connection", slog.String("connID", connID.String()))
		return
	}

	var frame Frame
	if err := json.Unmarshal(raw, &frame); err != nil {
		c.logger.Warn("Failed to unmarshal client frame", slog.String("connID", connID.String()), slog.Any("error", err))
		c.bcast.Send(sess.conn, EventError, errorPayload{Message: "malformed frame"})
		return
	}

	if err := c.dispatch(ctx, sess, frame); err != nil {
		// Rate-limit rejections are expected traffic, not incidents.
		if errors.Is(err, chat.ErrRateLimited) {
			c.logger.Debug("Rate limited", slog.String("event", frame.Event), slog.String("connID", connID.String()))
		} else {
			c.logger.Debug("Event rejected", slog.String("event", frame.Event),
				slog.String("connID", connID.String()), slog.Any("error", err))
		}
		c.bcast.Send(sess.conn, EventError, errorPayload{Message: err.Error()})
	}
}

func (c *Coordinator) dispatch(ctx context.Context, sess *Session, frame Frame) error {
	switch frame.Event {
	case EventAuthenticate:
		return c.handleAuthenticate(ctx, sess, frame.Payload)
	case EventJoinRoom:
		return c.handleJoinRoom(ctx, sess, frame.Payload)
	case EventLeaveRoom:
		return c.handleLeaveRoom(ctx, sess, frame.Payload)
	case EventSendMessage:
		return c.handleSendMessage(ctx, sess, frame.Payload)
	case EventMarkRead:
		return c.handleMarkReceipt(ctx, sess, frame.Payload, EventMessageRead)
	case EventMarkDelivered:
		return c.handleMarkReceipt(ctx, sess, frame.Payload, EventMessageDelivered)
	case EventTypingStart:
		return c.handleTypingStart(ctx, sess, frame.Payload)
	case EventTypingStop:
		return c.handleTypingStop(ctx, sess, frame.Payload)
	case EventGetMessages:
		return c.handleGetMessages(ctx, sess, frame.Payload)
	case EventGetTypingUsers:
		return c.handleGetTypingUsers(ctx, sess, frame.Payload)
	case EventGetOnlineUsers:
		return c.handleGetOnlineUsers(ctx, sess)
	case EventListRooms:
		return c.handleListRooms(ctx, sess)
	case EventCreateRoom:
		return c.handleCreateRoom(ctx, sess, frame.Payload)
	case EventHeartbeat:
		return c.handleHeartbeat(ctx, sess)
	default:
		return errors.New("unknown event: " + frame.Event)
	}
}

// handleClose runs the disconnect transition. It is invoked exactly once
// per connection by the transport's close path, so the offline cleanup
// always happens even when the disconnect races an in-flight operation.
func (c *Coordinator) handleClose(connID uuid.UUID, err error) {
	c.mu.Lock()
	sess := c.sessions[connID]
	delete(c.sessions, connID)
	c.mu.Unlock()

	if sess == nil {
		return
	}
	c.logger.Debug("Session detached", slog.String("connID", connID.String()), slog.Any("reason", err))

	userID, username, authed := sess.identity()
	if !authed {
		return
	}

	// A replaced handle (same user reconnected) must not knock the user
	// offline; Disconnect only fires when this is still the active one.
	if c.presence.Disconnect(userID, sess.conn) {
		c.bcast.Broadcast(c.presence.OnlineConnections(), EventUserOffline,
			userPayload{UserID: userID, Username: username})
	}
}

// Shutdown closes every attached connection.
func (c *Coordinator) Shutdown(reason error) {
	c.mu.RLock()
	conns := make([]*transport.Connection, 0, len(c.sessions))
	for _, sess := range c.sessions {
		conns = append(conns, sess.conn)
	}
	c.mu.RUnlock()

	for _, conn := range conns {
		conn.Close(reason)
	}
}

// roomHistory reads a room's recent messages, falling back to the durable
// store when the in-memory tracker has nothing for the room. That is the
// restart case: the room's history survived in sqlite but the tracker is
// empty until new messages arrive.
func (c *Coordinator) roomHistory(roomID string, limit, offset int) []chat.MessageView {
	views := c.delivery.RoomMessages(roomID, limit, offset)
	if len(views) > 0 || c.store == nil {
		return views
	}
	persisted, err := c.store.RecentMessages(roomID, limit, offset)
	if err != nil {
		c.logger.Warn("Failed to read persisted history", slog.String("roomID", roomID), slog.Any("error", err))
		return views
	}
	return persisted
}

// roomConnections resolves a room's membership to live connection handles.
func (c *Coordinator) roomConnections(roomID string) []*transport.Connection {
	memberIDs, err := c.rooms.MemberIDs(roomID)
	if err != nil {
		return nil
	}
	return c.presence.ConnectionsFor(memberIDs)
}
