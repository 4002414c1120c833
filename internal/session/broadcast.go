package session

import (
	"encoding/json"
	"log/slog"

	"github.com/AbdelalimB1729/ChatFlow/pkg/transport"
)

// Broadcaster delivers events to connections. The coordinator decides who
// receives what; delivery itself is best-effort and must never block a state
// mutation, so implementations hand frames to each connection's outbound
// queue and move on.
type Broadcaster interface {
	Send(conn *transport.Connection, event string, payload any)
	Broadcast(conns []*transport.Connection, event string, payload any)
}

type fanout struct {
	logger *slog.Logger
}

func NewFanout(logger *slog.Logger) Broadcaster {
	return &fanout{logger: logger.With(slog.String("component", "fanout"))}
}

func (f *fanout) Send(conn *transport.Connection, event string, payload any) {
	if conn == nil {
		return
	}
	msg, err := f.encode(event, payload)
	if err != nil {
		return
	}
	conn.Send(msg)
}

func (f *fanout) Broadcast(conns []*transport.Connection, event string, payload any) {
	if len(conns) == 0 {
		return
	}
	// Marshal once, enqueue everywhere.
	msg, err := f.encode(event, payload)
	if err != nil {
		return
	}
	for _, conn := range conns {
		if conn != nil {
			conn.Send(msg)
		}
	}
	f.logger.Debug("Fan-out dispatched", slog.String("event", event), slog.Int("targets", len(conns)))
}

func (f *fanout) encode(event string, payload any) ([]byte, error) {
	body, err := json.Marshal(payload)
	if err != nil {
		f.logger.Error("Failed to marshal event payload", slog.String("event", event), slog.Any("error", err))
		return nil, err
	}
	return json.Marshal(Frame{Event: event, Payload: body})
}
