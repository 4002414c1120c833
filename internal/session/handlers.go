package session

import (
	"context"
	"encoding/json"
	"errors"
	"log/slog"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/AbdelalimB1729/ChatFlow/internal/ratelimit"
	"github.com/tidwall/gjson"
)

func (c *Coordinator) handleAuthenticate(ctx context.Context, sess *Session, payload []byte) error {
	// A session authenticates at most once. Swapping principals mid-session
	// would leave the first identity's presence dangling.
	if _, _, ok := sess.identity(); ok {
		return errors.New("already authenticated")
	}
	token := gjson.GetBytes(payload, "token").String()

	ident, err := c.verifier.Verify(token)
	if err != nil {
		return err
	}
	if err := c.limiter.Admit(ctx, "user:"+ident.UserID, ratelimit.CategoryConnection); err != nil {
		return err
	}

	c.presence.Establish(ident.UserID, ident.Username)
	if err := c.presence.SetOnline(ident.UserID, sess.conn); err != nil {
		return err
	}
	sess.setIdentity(ident.UserID, ident.Username)

	if c.store != nil {
		if info, ok := c.presence.Get(ident.UserID); ok {
			if err := c.store.SaveUser(info); err != nil {
				c.logger.Warn("Failed to persist user", slog.String("userID", ident.UserID), slog.Any("error", err))
			}
		}
	}

	c.bcast.Send(sess.conn, EventAuthenticated, authenticatedPayload{
		UserID:   ident.UserID,
		Username: ident.Username,
	})
	// New sessions get the current world state pushed to them.
	c.bcast.Send(sess.conn, EventOnlineUsers, onlineUsersPayload{Users: c.presence.ListOnline()})
	c.bcast.Send(sess.conn, EventAvailableRooms, availableRoomsPayload{Rooms: c.rooms.List()})

	c.bcast.Broadcast(c.presence.OnlineConnections(), EventUserOnline,
		userPayload{UserID: ident.UserID, Username: ident.Username})
	return nil
}

func (c *Coordinator) handleJoinRoom(ctx context.Context, sess *Session, payload []byte) error {
	cg := &cargo{ctx: ctx, sess: sess, roomID: gjson.GetBytes(payload, "room_id").String()}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}
	if cg.roomID == "" {
		return errors.New("room_id is required")
	}

	if err := c.rooms.Join(cg.userID, cg.roomID); err != nil {
		return err
	}

	c.bcast.Broadcast(c.roomConnections(cg.roomID), EventUserJoinedRoom,
		roomEventPayload{UserID: cg.userID, Username: cg.username, RoomID: cg.roomID})
	c.bcast.Send(sess.conn, EventJoinedRoom, joinedRoomPayload{RoomID: cg.roomID})

	// The joining connection alone receives the recent history.
	c.bcast.Send(sess.conn, EventRoomMessages, roomMessagesPayload{
		RoomID:   cg.roomID,
		Messages: c.roomHistory(cg.roomID, c.cfg.RecentMessages, 0),
	})
	return nil
}

func (c *Coordinator) handleLeaveRoom(ctx context.Context, sess *Session, payload []byte) error {
	cg := &cargo{ctx: ctx, sess: sess, roomID: gjson.GetBytes(payload, "room_id").String()}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}
	if cg.roomID == "" {
		return errors.New("room_id is required")
	}

	if err := c.rooms.Leave(cg.userID, cg.roomID); err != nil {
		return err
	}
	// Typing state may not outlive membership.
	c.typing.Clear(cg.userID, cg.roomID)

	c.bcast.Send(sess.conn, EventLeftRoom, joinedRoomPayload{RoomID: cg.roomID})
	c.bcast.Broadcast(c.roomConnections(cg.roomID), EventUserLeftRoom,
		roomEventPayload{UserID: cg.userID, Username: cg.username, RoomID: cg.roomID})
	return nil
}

func (c *Coordinator) handleSendMessage(ctx context.Context, sess *Session, payload []byte) error {
	var p struct {
		RoomID      string           `json:"room_id"`
		Content     string           `json:"content"`
		MessageType chat.MessageType `json:"message_type"`
	}
	if err := json.Unmarshal(payload, &p); err != nil {
		return chat.ErrInvalidContent
	}
	if p.MessageType == "" {
		p.MessageType = chat.MessageText
	}

	cg := &cargo{ctx: ctx, sess: sess, roomID: p.RoomID, content: p.Content}
	if err := run(cg, c.stepAuthed, c.stepMember, c.stepAdmitMessage, c.stepContent); err != nil {
		return err
	}

	view := c.delivery.Record(cg.userID, cg.roomID, p.Content, p.MessageType)
	if c.store != nil {
		if err := c.store.SaveMessage(view); err != nil {
			c.logger.Warn("Failed to persist message", slog.String("messageID", view.ID), slog.Any("error", err))
		}
	}

	c.bcast.Broadcast(c.roomConnections(cg.roomID), EventNewMessage, view)
	c.bcast.Send(sess.conn, EventMessageSent, messageSentPayload{
		MessageID: view.ID,
		Timestamp: view.CreatedAt,
	})
	return nil
}

// handleMarkReceipt covers mark_read and mark_delivered; the two receipt
// sets are independent and neither implies the other.
func (c *Coordinator) handleMarkReceipt(ctx context.Context, sess *Session, payload []byte, fanoutEvent string) error {
	messageID := gjson.GetBytes(payload, "message_id").String()

	cg := &cargo{ctx: ctx, sess: sess}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}
	if messageID == "" {
		return errors.New("message_id is required")
	}

	msg, ok := c.delivery.Get(messageID)
	if !ok {
		return chat.ErrMessageNotFound
	}
	cg.roomID = msg.RoomID
	if err := c.stepMember(cg); err != nil {
		return err
	}

	var err error
	if fanoutEvent == EventMessageRead {
		_, err = c.delivery.MarkRead(messageID, cg.userID)
	} else {
		_, err = c.delivery.MarkDelivered(messageID, cg.userID)
	}
	if err != nil {
		return err
	}

	c.bcast.Broadcast(c.roomConnections(msg.RoomID), fanoutEvent, receiptPayload{
		MessageID: messageID,
		UserID:    cg.userID,
		Timestamp: time.Now(),
	})
	return nil
}

func (c *Coordinator) handleTypingStart(ctx context.Context, sess *Session, payload []byte) error {
	cg := &cargo{ctx: ctx, sess: sess, roomID: gjson.GetBytes(payload, "room_id").String()}
	if err := run(cg, c.stepAuthed, c.stepMember); err != nil {
		return err
	}

	c.typing.Set(cg.userID, cg.roomID)
	c.bcast.Broadcast(c.roomConnections(cg.roomID), EventUserTyping, typingPayload{
		UserID:   cg.userID,
		Username: cg.username,
		RoomID:   cg.roomID,
		IsTyping: true,
	})
	return nil
}

func (c *Coordinator) handleTypingStop(ctx context.Context, sess *Session, payload []byte) error {
	cg := &cargo{ctx: ctx, sess: sess, roomID: gjson.GetBytes(payload, "room_id").String()}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}

	c.typing.Clear(cg.userID, cg.roomID)
	c.bcast.Broadcast(c.roomConnections(cg.roomID), EventUserTyping, typingPayload{
		UserID:   cg.userID,
		Username: cg.username,
		RoomID:   cg.roomID,
		IsTyping: false,
	})
	return nil
}

func (c *Coordinator) handleGetMessages(ctx context.Context, sess *Session, payload []byte) error {
	cg := &cargo{ctx: ctx, sess: sess, roomID: gjson.GetBytes(payload, "room_id").String()}
	if err := run(cg, c.stepAuthed, c.stepMember); err != nil {
		return err
	}

	limit := int(gjson.GetBytes(payload, "limit").Int())
	offset := int(gjson.GetBytes(payload, "offset").Int())
	if limit <= 0 {
		limit = 50
	}

	c.bcast.Send(sess.conn, EventRoomMessages, roomMessagesPayload{
		RoomID:   cg.roomID,
		Messages: c.roomHistory(cg.roomID, limit, offset),
		Limit:    limit,
		Offset:   offset,
	})
	return nil
}

func (c *Coordinator) handleGetTypingUsers(ctx context.Context, sess *Session, payload []byte) error {
	cg := &cargo{ctx: ctx, sess: sess, roomID: gjson.GetBytes(payload, "room_id").String()}
	if err := run(cg, c.stepAuthed, c.stepMember); err != nil {
		return err
	}

	c.bcast.Send(sess.conn, EventTypingUsers, typingUsersPayload{
		RoomID: cg.roomID,
		Users:  c.typing.Active(cg.roomID),
	})
	return nil
}

func (c *Coordinator) handleGetOnlineUsers(ctx context.Context, sess *Session) error {
	cg := &cargo{ctx: ctx, sess: sess}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}
	c.bcast.Send(sess.conn, EventOnlineUsers, onlineUsersPayload{Users: c.presence.ListOnline()})
	return nil
}

func (c *Coordinator) handleListRooms(ctx context.Context, sess *Session) error {
	cg := &cargo{ctx: ctx, sess: sess}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}
	c.bcast.Send(sess.conn, EventAvailableRooms, availableRoomsPayload{Rooms: c.rooms.List()})
	return nil
}

func (c *Coordinator) handleCreateRoom(ctx context.Context, sess *Session, payload []byte) error {
	cg := &cargo{ctx: ctx, sess: sess}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}

	name := gjson.GetBytes(payload, "name").String()
	kind := chat.RoomKind(gjson.GetBytes(payload, "room_type").String())

	room, err := c.rooms.Create(name, kind, cg.userID)
	if err != nil {
		return err
	}
	if c.store != nil {
		if err := c.store.SaveRoom(room); err != nil {
			c.logger.Warn("Failed to persist room", slog.String("roomID", room.ID), slog.Any("error", err))
		}
	}

	c.bcast.Send(sess.conn, EventRoomCreated, room)

	// The creator already has the direct confirmation; everyone else learns
	// of the room via broadcast.
	conns := c.presence.OnlineConnections()
	others := conns[:0]
	for _, conn := range conns {
		if conn != sess.conn {
			others = append(others, conn)
		}
	}
	c.bcast.Broadcast(others, EventRoomCreated, room)
	return nil
}

func (c *Coordinator) handleHeartbeat(ctx context.Context, sess *Session) error {
	cg := &cargo{ctx: ctx, sess: sess}
	if err := run(cg, c.stepAuthed); err != nil {
		return err
	}
	if err := c.presence.Touch(cg.userID); err != nil {
		return err
	}
	c.bcast.Send(sess.conn, EventHeartbeatResponse, heartbeatPayload{
		Timestamp: time.Now(),
		Status:    "alive",
	})
	return nil
}
