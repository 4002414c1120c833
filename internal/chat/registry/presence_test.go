package registry

import (
	"errors"
	"testing"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
)

func TestPresenceLifecycle(t *testing.T) {
	_, presence, _, _ := newTestRegistries()
	conn := newTransportConn()

	presence.Establish("user-1", "alice")

	if err := presence.SetOnline("user-1", conn); err != nil {
		t.Fatalf("SetOnline failed: %v", err)
	}

	online := presence.ListOnline()
	if len(online) != 1 {
		t.Fatalf("Expected 1 online user, got %d", len(online))
	}
	if online[0].ID != "user-1" || online[0].Username != "alice" {
		t.Errorf("Unexpected online snapshot: %+v", online[0])
	}

	presence.SetOffline("user-1")
	if got := presence.ListOnline(); len(got) != 0 {
		t.Errorf("Expected no online users after SetOffline, got %d", len(got))
	}

	// Identity survives going offline.
	if !presence.Exists("user-1") {
		t.Error("Expected identity to persist after SetOffline")
	}
}

func TestPresenceSetOnlineUnknownUser(t *testing.T) {
	_, presence, _, _ := newTestRegistries()

	if err := presence.SetOnline("ghost", newTransportConn()); !errors.Is(err, chat.ErrUnknownUser) {
		t.Errorf("Expected ErrUnknownUser, got %v", err)
	}
	if err := presence.Touch("ghost"); !errors.Is(err, chat.ErrUnknownUser) {
		t.Errorf("Expected ErrUnknownUser from Touch, got %v", err)
	}
}

func TestPresenceSetOfflineIdempotent(t *testing.T) {
	_, presence, _, _ := newTestRegistries()
	presence.Establish("user-1", "alice")

	presence.SetOffline("user-1")
	presence.SetOffline("user-1")
	presence.SetOffline("never-seen")
}

func TestPresenceOfflineClearsTyping(t *testing.T) {
	typing, presence, rooms, _ := newTestRegistries()
	conn := newTransportConn()

	presence.Establish("user-1", "alice")
	if err := presence.SetOnline("user-1", conn); err != nil {
		t.Fatalf("SetOnline failed: %v", err)
	}
	room, err := rooms.Create("general", chat.RoomPublic, "user-1")
	if err != nil {
		t.Fatalf("Create room failed: %v", err)
	}
	typing.Set("user-1", room.ID)

	presence.SetOffline("user-1")

	if got := typing.Active(room.ID); len(got) != 0 {
		t.Errorf("Expected typing indicator cleared on offline, got %v", got)
	}
}

func TestPresenceDisconnectIgnoresReplacedHandle(t *testing.T) {
	_, presence, _, _ := newTestRegistries()
	oldConn := newTransportConn()
	newConn := newTransportConn()

	presence.Establish("user-1", "alice")
	presence.SetOnline("user-1", oldConn)
	presence.SetOnline("user-1", newConn)

	// The stale handle closing must not take the user offline.
	if presence.Disconnect("user-1", oldConn) {
		t.Error("Disconnect fired for a replaced handle")
	}
	if len(presence.ListOnline()) != 1 {
		t.Error("User knocked offline by replaced handle")
	}

	if !presence.Disconnect("user-1", newConn) {
		t.Error("Disconnect did not fire for the active handle")
	}
	if len(presence.ListOnline()) != 0 {
		t.Error("User still online after active handle disconnected")
	}
}

func TestPresenceConnectionsFor(t *testing.T) {
	_, presence, _, _ := newTestRegistries()
	connA := newTransportConn()

	presence.Establish("a", "alice")
	presence.Establish("b", "bob")
	presence.SetOnline("a", connA)
	// b stays offline

	conns := presence.ConnectionsFor([]string{"a", "b", "missing"})
	if len(conns) != 1 {
		t.Fatalf("Expected 1 connection, got %d", len(conns))
	}
	if conns[0].ID() != connA.ID() {
		t.Error("Resolved wrong connection handle")
	}
}
