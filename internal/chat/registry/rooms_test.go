package registry

import (
	"errors"
	"strings"
	"testing"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
)

func TestRoomCreate(t *testing.T) {
	_, presence, rooms, _ := newTestRegistries()
	presence.Establish("creator", "carol")

	room, err := rooms.Create("general", chat.RoomPublic, "creator")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}
	if room.MemberCount != 1 {
		t.Errorf("Expected creator auto-joined, member count = %d", room.MemberCount)
	}
	if !rooms.IsMember("creator", room.ID) {
		t.Error("Creator is not a member of the created room")
	}
}

func TestRoomCreateValidation(t *testing.T) {
	_, presence, rooms, _ := newTestRegistries()
	presence.Establish("creator", "carol")

	if _, err := rooms.Create("", chat.RoomPublic, "creator"); !errors.Is(err, chat.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for empty name, got %v", err)
	}
	if _, err := rooms.Create("   ", chat.RoomPublic, "creator"); !errors.Is(err, chat.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for blank name, got %v", err)
	}
	long := strings.Repeat("x", 101)
	if _, err := rooms.Create(long, chat.RoomPublic, "creator"); !errors.Is(err, chat.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for oversized name, got %v", err)
	}
	if _, err := rooms.Create("fine", chat.RoomPublic, "nobody"); !errors.Is(err, chat.ErrUnknownUser) {
		t.Errorf("Expected ErrUnknownUser for unknown creator, got %v", err)
	}
}

func TestRoomJoinIdempotent(t *testing.T) {
	_, presence, rooms, _ := newTestRegistries()
	presence.Establish("creator", "carol")
	presence.Establish("joiner", "jim")

	room, err := rooms.Create("general", chat.RoomPublic, "creator")
	if err != nil {
		t.Fatalf("Create failed: %v", err)
	}

	if err := rooms.Join("joiner", room.ID); err != nil {
		t.Fatalf("Join failed: %v", err)
	}
	if err := rooms.Join("joiner", room.ID); err != nil {
		t.Fatalf("Second join failed: %v", err)
	}

	info, _ := rooms.Get(room.ID)
	if info.MemberCount != 2 {
		t.Errorf("Expected member count 2 after double join, got %d", info.MemberCount)
	}
}

func TestRoomJoinErrors(t *testing.T) {
	_, presence, rooms, _ := newTestRegistries()
	presence.Establish("joiner", "jim")

	if err := rooms.Join("joiner", "no-such-room"); !errors.Is(err, chat.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound, got %v", err)
	}

	presence.Establish("creator", "carol")
	room, _ := rooms.Create("general", chat.RoomPublic, "creator")
	if err := rooms.Join("ghost", room.ID); !errors.Is(err, chat.ErrUnknownUser) {
		t.Errorf("Expected ErrUnknownUser, got %v", err)
	}
}

func TestRoomLeave(t *testing.T) {
	_, presence, rooms, _ := newTestRegistries()
	presence.Establish("creator", "carol")
	presence.Establish("joiner", "jim")

	room, _ := rooms.Create("general", chat.RoomPublic, "creator")
	rooms.Join("joiner", room.ID)

	if err := rooms.Leave("joiner", room.ID); err != nil {
		t.Fatalf("Leave failed: %v", err)
	}
	// Leaving again is a no-op.
	if err := rooms.Leave("joiner", room.ID); err != nil {
		t.Fatalf("Repeat leave failed: %v", err)
	}
	if err := rooms.Leave("joiner", "no-such-room"); !errors.Is(err, chat.ErrRoomNotFound) {
		t.Errorf("Expected ErrRoomNotFound for unknown room, got %v", err)
	}

	// Empty rooms survive the last member leaving.
	rooms.Leave("creator", room.ID)
	info, found := rooms.Get(room.ID)
	if !found {
		t.Fatal("Room destroyed after last member left")
	}
	if info.MemberCount != 0 {
		t.Errorf("Expected empty room, member count = %d", info.MemberCount)
	}
}

func TestRoomList(t *testing.T) {
	_, presence, rooms, _ := newTestRegistries()
	presence.Establish("creator", "carol")

	rooms.Create("one", chat.RoomPublic, "creator")
	rooms.Create("two", chat.RoomPrivate, "creator")

	list := rooms.List()
	if len(list) != 2 {
		t.Fatalf("Expected 2 rooms, got %d", len(list))
	}
	if list[0].Name != "one" || list[1].Name != "two" {
		t.Errorf("Rooms not ordered by creation: %v, %v", list[0].Name, list[1].Name)
	}
}

func TestRoomNameBoundCountsRunes(t *testing.T) {
	_, presence, rooms, _ := newTestRegistries()
	presence.Establish("creator", "carol")

	// 100 two-byte runes are within the 100-character bound.
	if _, err := rooms.Create(strings.Repeat("é", 100), chat.RoomPublic, "creator"); err != nil {
		t.Errorf("A 100-rune name must be accepted, got %v", err)
	}
	if _, err := rooms.Create(strings.Repeat("é", 101), chat.RoomPublic, "creator"); !errors.Is(err, chat.ErrInvalidName) {
		t.Errorf("Expected ErrInvalidName for a 101-rune name, got %v", err)
	}
}
