package transport

import (
	"context"
	"log/slog"
	"os"
	"sync"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

// newClosableConn builds a connection that was never Run; the Add pairs
// with the Done that Close performs.
func newClosableConn(wg *sync.WaitGroup) *Connection {
	conn := NewConnection(context.Background(), wg, nil, ConnectionConfig{ReadTimeout: time.Minute}, newTestLogger())
	wg.Add(1)
	return conn
}

func TestSendDuringCloseDoesNotPanic(t *testing.T) {
	var wg sync.WaitGroup
	conn := newClosableConn(&wg)

	done := make(chan struct{})
	go func() {
		defer close(done)
		for i := 0; i < 1000; i++ {
			conn.Send([]byte("frame"))
		}
	}()

	conn.Close(nil)
	<-done

	// Sending on an already torn-down connection is a silent drop.
	conn.Send([]byte("late frame"))

	select {
	case <-conn.Done():
	default:
		t.Error("Done must be closed after Close")
	}
}

func TestCloseIsIdempotent(t *testing.T) {
	var wg sync.WaitGroup
	conn := newClosableConn(&wg)

	conn.Close(nil)
	conn.Close(nil)
	wg.Wait()
}
