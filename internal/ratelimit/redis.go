package ratelimit

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/redis/go-redis/v9"
)

// slidingWindowScript runs the prune-check-record sequence atomically on the
// Redis side, keyed by a sorted set of attempt timestamps.
var slidingWindowScript = redis.NewScript(`
	local key = KEYS[1]
	local now = tonumber(ARGV[1])
	local window_start = tonumber(ARGV[2])
	local limit = tonumber(ARGV[3])
	local window_ms = tonumber(ARGV[4])

	redis.call('ZREMRANGEBYSCORE', key, '-inf', window_start)
	local current = redis.call('ZCARD', key)

	if current < limit then
		local counter = redis.call('INCR', key .. ':counter')
		redis.call('ZADD', key, now, now .. ':' .. counter)
		local expire_seconds = math.ceil(window_ms / 1000)
		redis.call('EXPIRE', key, expire_seconds)
		redis.call('EXPIRE', key .. ':counter', expire_seconds)
		return 1
	end
	return 0
`)

// Redis is the shared sliding window limiter for multi-node deployments.
// Redis outages fail open: the gate is a throttle, not a security boundary,
// and losing it must not take messaging down with it.
type Redis struct {
	client *redis.Client
	prefix string
	limits map[Category]Limit
	logger *slog.Logger
}

var _ Limiter = (*Redis)(nil)

func NewRedis(logger *slog.Logger, client *redis.Client, limits map[Category]Limit) *Redis {
	return &Redis{
		client: client,
		prefix: "rl:",
		limits: limits,
		logger: logger.With(slog.String("component", "ratelimit_redis")),
	}
}

func (r *Redis) Admit(ctx context.Context, key string, category Category) error {
	limit, ok := r.limits[category]
	if !ok || limit.Max <= 0 {
		return nil
	}

	redisKey := fmt.Sprintf("%s%s:%s", r.prefix, category, key)
	nowMs := time.Now().UnixMilli()
	windowStartMs := nowMs - limit.Window.Milliseconds()

	res, err := slidingWindowScript.Run(ctx, r.client, []string{redisKey},
		nowMs, windowStartMs, limit.Max, limit.Window.Milliseconds()).Int64()
	if err != nil {
		r.logger.Warn("Rate limit check failed, admitting", slog.Any("error", err))
		return nil
	}
	if res != 1 {
		return chat.ErrRateLimited
	}
	return nil
}
