package registry

import (
	"log/slog"
	"sync"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
)

// Typing tracks who is typing where. A user types in at most one room at a
// time; a newer indicator supersedes the old one. Entries expire after the
// configured window with no explicit stop event: expiry is evaluated lazily
// at read time, there is no background sweep.
type Typing struct {
	mu         sync.Mutex
	indicators map[string]*chat.TypingIndicator // keyed by user ID
	expiry     time.Duration
	now        func() time.Time
	logger     *slog.Logger
}

func NewTyping(logger *slog.Logger, expiry time.Duration) *Typing {
	return &Typing{
		indicators: make(map[string]*chat.TypingIndicator),
		expiry:     expiry,
		now:        time.Now,
		logger:     logger.With(slog.String("component", "typing_tracker")),
	}
}

// Set inserts or refreshes the indicator for the user in the given room.
func (t *Typing) Set(userID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	t.indicators[userID] = &chat.TypingIndicator{
		UserID:    userID,
		RoomID:    roomID,
		Timestamp: t.now(),
	}
}

// Clear removes the indicator if the user is typing in the given room.
// Clearing a non-existent indicator is a no-op.
func (t *Typing) Clear(userID, roomID string) {
	t.mu.Lock()
	defer t.mu.Unlock()

	if ind, ok := t.indicators[userID]; ok && ind.RoomID == roomID {
		delete(t.indicators, userID)
	}
}

// ClearUser drops any indicator for the user, whatever the room. Called on
// disconnect and when the user leaves a room.
func (t *Typing) ClearUser(userID string) {
	t.mu.Lock()
	defer t.mu.Unlock()
	delete(t.indicators, userID)
}

// Active returns the IDs of users typing in the room as of now. Entries
// past the expiry window are dropped during the scan.
func (t *Typing) Active(roomID string) []string {
	t.mu.Lock()
	defer t.mu.Unlock()

	cutoff := t.now().Add(-t.expiry)
	users := make([]string, 0)
	for userID, ind := range t.indicators {
		if ind.Timestamp.Before(cutoff) {
			delete(t.indicators, userID)
			continue
		}
		if ind.RoomID == roomID {
			users = append(users, userID)
		}
	}
	return users
}
