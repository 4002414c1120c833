package registry

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/pkg/transport"
)

// --- Test Suite Setup ---

func newTestLogger() *slog.Logger {
	// Discard logger output during tests by setting a high level
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func newTestRegistries() (*Typing, *Presence, *Rooms, *Delivery) {
	logger := newTestLogger()
	typing := NewTyping(logger, 5*time.Second)
	presence := NewPresence(logger, typing)
	rooms := NewRooms(logger, presence, 100)
	delivery := NewDelivery(logger, rooms)
	return typing, presence, rooms, delivery
}

func newTransportConn() *transport.Connection {
	// The underlying websocket conn is never used: the connection is neither
	// run nor closed in these tests.
	var wg sync.WaitGroup
	return transport.NewConnection(context.Background(), &wg, nil, transport.ConnectionConfig{}, newTestLogger())
}
