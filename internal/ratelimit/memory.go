package ratelimit

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
)

// Memory is the in-process sliding window limiter. One mutex guards all
// windows, so the prune-check-record sequence is atomic: two concurrent
// admissions for the same key can never both take the last slot.
type Memory struct {
	mu      sync.Mutex
	windows map[string][]time.Time
	limits  map[Category]Limit
	now     func() time.Time
	logger  *slog.Logger
}

var _ Limiter = (*Memory)(nil)

func NewMemory(logger *slog.Logger, limits map[Category]Limit) *Memory {
	return &Memory{
		windows: make(map[string][]time.Time),
		limits:  limits,
		now:     time.Now,
		logger:  logger.With(slog.String("component", "ratelimit_memory")),
	}
}

func (m *Memory) Admit(_ context.Context, key string, category Category) error {
	limit, ok := m.limits[category]
	if !ok || limit.Max <= 0 {
		return nil
	}

	m.mu.Lock()
	defer m.mu.Unlock()

	wkey := string(category) + ":" + key
	now := m.now()
	cutoff := now.Add(-limit.Window)

	window := m.windows[wkey]
	kept := window[:0]
	for _, ts := range window {
		if ts.After(cutoff) {
			kept = append(kept, ts)
		}
	}

	if len(kept) >= limit.Max {
		m.windows[wkey] = kept
		return chat.ErrRateLimited
	}

	m.windows[wkey] = append(kept, now)
	return nil
}
