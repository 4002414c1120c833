package middleware

import (
	"log/slog"
	"net/http"
	"time"
)

// NewUpgradeLogger logs each websocket upgrade attempt and how long the
// handler held it. An accepted upgrade blocks until the connection
// terminates, so the duration doubles as the session length.
func NewUpgradeLogger(logger *slog.Logger) Middleware {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			reqMeta, ok := ReqMetadataFrom(r.Context())
			var ip string
			if ok {
				ip = reqMeta.IP
			}

			logger.Info("Upgrade requested",
				slog.String("path", r.URL.Path),
				slog.String("ip", ip),
			)
			start := time.Now()
			next.ServeHTTP(w, r)
			logger.Info("Connection finished",
				slog.String("ip", ip),
				slog.Duration("duration", time.Since(start)),
			)
		})
	}
}
