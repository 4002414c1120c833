package session

import (
	"context"
	"strings"
	"unicode/utf8"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/AbdelalimB1729/ChatFlow/internal/ratelimit"
)

// cargo carries one client event through its validation pipeline.
type cargo struct {
	ctx     context.Context
	sess    *Session
	roomID  string
	content string

	// set by stepAuthed for downstream steps and the final mutation
	userID   string
	username string
}

// step is one validation stage. Steps run in order and the first failure
// aborts the event; nothing mutates shared state until every gate passed.
type step func(*cargo) error

func run(cg *cargo, steps ...step) error {
	for _, s := range steps {
		if err := s(cg); err != nil {
			return err
		}
	}
	return nil
}

// stepAuthed rejects events from unauthenticated sessions.
func (c *Coordinator) stepAuthed(cg *cargo) error {
	userID, username, ok := cg.sess.identity()
	if !ok {
		return chat.ErrUnauthenticated
	}
	cg.userID = userID
	cg.username = username
	return nil
}

// stepMember gates room-scoped operations on membership.
func (c *Coordinator) stepMember(cg *cargo) error {
	if !c.rooms.IsMember(cg.userID, cg.roomID) {
		return chat.ErrNotRoomMember
	}
	return nil
}

// stepAdmitMessage applies the per-user message rate gate.
func (c *Coordinator) stepAdmitMessage(cg *cargo) error {
	return c.limiter.Admit(cg.ctx, "user:"+cg.userID, ratelimit.CategoryMessage)
}

// stepContent validates message content: non-empty after trimming, within
// the configured length bound. The bound counts runes, not bytes.
func (c *Coordinator) stepContent(cg *cargo) error {
	if strings.TrimSpace(cg.content) == "" {
		return chat.ErrInvalidContent
	}
	if utf8.RuneCountInString(cg.content) > c.cfg.MaxMessageLength {
		return chat.ErrInvalidContent
	}
	return nil
}
