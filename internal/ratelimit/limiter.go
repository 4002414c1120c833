package ratelimit

import (
	"context"
	"time"
)

// Category names a rate-limited action class. Each category carries its own
// limit/window pair.
type Category string

const (
	CategoryMessage    Category = "message"
	CategoryConnection Category = "connection"
)

// Limit allows at most Max actions per rolling Window.
type Limit struct {
	Max    int
	Window time.Duration
}

// Limiter gates action production per principal. Admit prunes entries older
// than the window, checks the count against the limit and, if there is room,
// records the attempt. A rejection returns chat.ErrRateLimited and records
// nothing; the caller must not perform the gated action.
type Limiter interface {
	Admit(ctx context.Context, key string, category Category) error
}
