package registry

import (
	"log/slog"
	"sort"
	"sync"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/google/uuid"
)

// Delivery stores message records and their delivered-to / read-by receipt
// sets. Records are immutable except for the receipt sets, which only grow;
// the two sets are independent, marking read never implies delivered.
type Delivery struct {
	mu       sync.RWMutex
	messages map[string]*chat.Message
	byRoom   map[string][]*chat.Message // creation order per room
	rooms    *Rooms
	logger   *slog.Logger
}

func NewDelivery(logger *slog.Logger, rooms *Rooms) *Delivery {
	return &Delivery{
		messages: make(map[string]*chat.Message),
		byRoom:   make(map[string][]*chat.Message),
		rooms:    rooms,
		logger:   logger.With(slog.String("component", "delivery_tracker")),
	}
}

// Record stores a new message with empty receipt sets and stamps the owning
// room's last-activity time.
func (d *Delivery) Record(senderID, roomID, content string, typ chat.MessageType) chat.MessageView {
	d.mu.Lock()
	msg := &chat.Message{
		ID:          uuid.New().String(),
		SenderID:    senderID,
		RoomID:      roomID,
		Content:     content,
		Type:        typ,
		CreatedAt:   time.Now(),
		DeliveredTo: make(map[string]struct{}),
		ReadBy:      make(map[string]struct{}),
	}
	d.messages[msg.ID] = msg
	d.byRoom[roomID] = append(d.byRoom[roomID], msg)
	view := snapshotMessage(msg)
	d.mu.Unlock()

	d.rooms.TouchActivity(roomID)
	return view
}

// MarkDelivered adds the user to the message's delivered-to set and returns
// the owning room ID for fan-out.
func (d *Delivery) MarkDelivered(messageID, userID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	msg, ok := d.messages[messageID]
	if !ok {
		return "", chat.ErrMessageNotFound
	}
	msg.DeliveredTo[userID] = struct{}{}
	return msg.RoomID, nil
}

// MarkRead adds the user to the message's read-by set and returns the
// owning room ID for fan-out.
func (d *Delivery) MarkRead(messageID, userID string) (string, error) {
	d.mu.Lock()
	defer d.mu.Unlock()

	msg, ok := d.messages[messageID]
	if !ok {
		return "", chat.ErrMessageNotFound
	}
	msg.ReadBy[userID] = struct{}{}
	return msg.RoomID, nil
}

// Get returns a snapshot of a single message.
func (d *Delivery) Get(messageID string) (chat.MessageView, bool) {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msg, ok := d.messages[messageID]
	if !ok {
		return chat.MessageView{}, false
	}
	return snapshotMessage(msg), true
}

// maxPageSize caps a single history read. The limit comes straight off the
// wire, so it must never reach an allocation unclamped.
const maxPageSize = 200

// RoomMessages returns the room's messages ordered by creation time
// descending (most recent first), paginated by offset/limit over that
// ordering. This is the contract a newly joined client relies on for its
// "recent messages" view.
func (d *Delivery) RoomMessages(roomID string, limit, offset int) []chat.MessageView {
	d.mu.RLock()
	defer d.mu.RUnlock()

	msgs := d.byRoom[roomID]
	if limit <= 0 {
		limit = 50
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	if offset < 0 {
		offset = 0
	}

	// Messages are appended in creation order, so walking backwards yields
	// descending recency without a sort.
	views := make([]chat.MessageView, 0, limit)
	for i := len(msgs) - 1 - offset; i >= 0 && len(views) < limit; i-- {
		views = append(views, snapshotMessage(msgs[i]))
	}
	return views
}

func snapshotMessage(m *chat.Message) chat.MessageView {
	return chat.MessageView{
		ID:          m.ID,
		SenderID:    m.SenderID,
		RoomID:      m.RoomID,
		Content:     m.Content,
		Type:        m.Type,
		CreatedAt:   m.CreatedAt,
		DeliveredTo: sortedSet(m.DeliveredTo),
		ReadBy:      sortedSet(m.ReadBy),
	}
}

func sortedSet(set map[string]struct{}) []string {
	out := make([]string, 0, len(set))
	for id := range set {
		out = append(out, id)
	}
	sort.Strings(out)
	return out
}
