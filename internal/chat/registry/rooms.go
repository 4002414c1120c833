package registry

import (
	"log/slog"
	"sort"
	"strings"
	"sync"
	"time"
	"unicode/utf8"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/google/uuid"
)

// Rooms maps room identity to membership and metadata. Membership is a set:
// join is idempotent and leaving a room one is not in is a no-op. Rooms with
// zero members are kept around; they are durable entities, not ephemeral
// relays.
type Rooms struct {
	mu         sync.RWMutex
	rooms      map[string]*chat.Room
	presence   *Presence
	maxNameLen int
	logger     *slog.Logger
}

func NewRooms(logger *slog.Logger, presence *Presence, maxNameLen int) *Rooms {
	return &Rooms{
		rooms:      make(map[string]*chat.Room),
		presence:   presence,
		maxNameLen: maxNameLen,
		logger:     logger.With(slog.String("component", "room_directory")),
	}
}

// Create makes a new room with the creator auto-joined. Room names are not
// required to be unique. The name bound counts runes, not bytes.
func (r *Rooms) Create(name string, kind chat.RoomKind, creatorID string) (chat.RoomInfo, error) {
	name = strings.TrimSpace(name)
	if name == "" || utf8.RuneCountInString(name) > r.maxNameLen {
		return chat.RoomInfo{}, chat.ErrInvalidName
	}
	if !r.presence.Exists(creatorID) {
		return chat.RoomInfo{}, chat.ErrUnknownUser
	}
	if kind != chat.RoomPrivate {
		kind = chat.RoomPublic
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	now := time.Now()
	room := &chat.Room{
		ID:           uuid.New().String(),
		Name:         name,
		Kind:         kind,
		Members:      map[string]struct{}{creatorID: {}},
		CreatedAt:    now,
		LastActivity: now,
	}
	r.rooms[room.ID] = room

	r.logger.Debug("Room created", slog.String("roomID", room.ID), slog.String("name", name))
	return snapshotRoom(room), nil
}

// Join idempotently adds the user to the room's membership set.
func (r *Rooms) Join(userID, roomID string) error {
	if !r.presence.Exists(userID) {
		return chat.ErrUnknownUser
	}

	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return chat.ErrRoomNotFound
	}
	room.Members[userID] = struct{}{}

	r.logger.Debug("User joined room", slog.String("userID", userID), slog.String("roomID", roomID))
	return nil
}

// Leave removes the membership if present. Leaving as a non-member is fine;
// leaving a room that never existed is not.
func (r *Rooms) Leave(userID, roomID string) error {
	r.mu.Lock()
	defer r.mu.Unlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return chat.ErrRoomNotFound
	}
	delete(room.Members, userID)

	r.logger.Debug("User left room", slog.String("userID", userID), slog.String("roomID", roomID))
	return nil
}

// IsMember is the authorization gate used by every room-scoped operation.
func (r *Rooms) IsMember(userID, roomID string) bool {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return false
	}
	_, member := room.Members[userID]
	return member
}

// Get returns a snapshot of a single room.
func (r *Rooms) Get(roomID string) (chat.RoomInfo, bool) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return chat.RoomInfo{}, false
	}
	return snapshotRoom(room), true
}

// List returns a snapshot of all rooms with member counts, ordered by
// creation time for stable output.
func (r *Rooms) List() []chat.RoomInfo {
	r.mu.RLock()
	defer r.mu.RUnlock()

	rooms := make([]chat.RoomInfo, 0, len(r.rooms))
	for _, room := range r.rooms {
		rooms = append(rooms, snapshotRoom(room))
	}
	sort.Slice(rooms, func(i, j int) bool {
		return rooms[i].CreatedAt.Before(rooms[j].CreatedAt)
	})
	return rooms
}

// MemberIDs returns the user IDs of the room's members.
func (r *Rooms) MemberIDs(roomID string) ([]string, error) {
	r.mu.RLock()
	defer r.mu.RUnlock()

	room, ok := r.rooms[roomID]
	if !ok {
		return nil, chat.ErrRoomNotFound
	}
	ids := make([]string, 0, len(room.Members))
	for id := range room.Members {
		ids = append(ids, id)
	}
	return ids, nil
}

// TouchActivity stamps the room's last-activity time. Unknown rooms are
// ignored; activity is recorded on every message send.
func (r *Rooms) TouchActivity(roomID string) {
	r.mu.Lock()
	defer r.mu.Unlock()

	if room, ok := r.rooms[roomID]; ok {
		room.LastActivity = time.Now()
	}
}

func snapshotRoom(room *chat.Room) chat.RoomInfo {
	return chat.RoomInfo{
		ID:           room.ID,
		Name:         room.Name,
		Kind:         room.Kind,
		MemberCount:  len(room.Members),
		CreatedAt:    room.CreatedAt,
		LastActivity: room.LastActivity,
	}
}
