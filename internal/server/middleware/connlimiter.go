package middleware

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/AbdelalimB1729/ChatFlow/internal/chat"
	"github.com/AbdelalimB1729/ChatFlow/internal/ratelimit"
)

// NewConnectionLimiter throttles websocket upgrade attempts per source IP
// with the shared sliding-window limiter. The per-user connection gate runs
// later, at authenticate time, once an identity exists; this one stops a
// single host from churning anonymous connections.
func NewConnectionLimiter(logger *slog.Logger, limiter ratelimit.Limiter) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			if !ok {
				logger.Error("Connection limiter could not find request metadata in context. Check middleware order.")
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			err := limiter.Admit(r.Context(), "ip:"+reqMeta.IP, ratelimit.CategoryConnection)
			if errors.Is(err, chat.ErrRateLimited) {
				logger.Debug("Connection attempt rate limited", slog.String("ip", reqMeta.IP))
				http.Error(w, "Too Many Requests", http.StatusTooManyRequests)
				return
			}
			if err != nil {
				logger.Error("Connection limiter failed", slog.Any("error", err))
				http.Error(w, "Internal Server Error", http.StatusInternalServerError)
				return
			}

			next.ServeHTTP(w, r)
		})
	}
}
