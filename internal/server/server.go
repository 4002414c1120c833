package server

import (
	"context"
	"errors"
	"log/slog"
	"net"
	"net/http"
	"sync"
	"time"

	"github.com/AbdelalimB1729/ChatFlow/internal/auth"
	"github.com/AbdelalimB1729/ChatFlow/internal/chat/registry"
	"github.com/AbdelalimB1729/ChatFlow/internal/ratelimit"
	"github.com/AbdelalimB1729/ChatFlow/internal/server/middleware"
	"github.com/AbdelalimB1729/ChatFlow/internal/session"
	"github.com/AbdelalimB1729/ChatFlow/internal/store"
	"github.com/AbdelalimB1729/ChatFlow/pkg/config"
	"github.com/AbdelalimB1729/ChatFlow/pkg/transport"
	"github.com/coder/websocket"
	"github.com/redis/go-redis/v9"
)

type App struct {
	logger      *slog.Logger
	coordinator *session.Coordinator
	db          *store.Store
	wg          sync.WaitGroup
	http        *http.Server
	config      *config.Config

	ctx context.Context
}

func NewApp(logger *slog.Logger, rootCtx context.Context, cfg *config.Config) (*App, error) {
	limits := map[ratelimit.Category]ratelimit.Limit{
		ratelimit.CategoryMessage:    {Max: cfg.RateLimit.MessageLimit, Window: cfg.RateLimit.MessageWindow},
		ratelimit.CategoryConnection: {Max: cfg.RateLimit.ConnectionLimit, Window: cfg.RateLimit.ConnectionWindow},
	}

	var limiter ratelimit.Limiter
	if cfg.RateLimit.Backend == "redis" {
		client := redis.NewClient(&redis.Options{
			Addr:     cfg.Redis.Addr,
			Password: cfg.Redis.Password,
			DB:       cfg.Redis.DB,
		})
		limiter = ratelimit.NewRedis(logger, client, limits)
	} else {
		limiter = ratelimit.NewMemory(logger, limits)
	}

	db, err := store.Open(logger, cfg.Store.Path)
	if err != nil {
		return nil, err
	}

	typing := registry.NewTyping(logger, cfg.Chat.TypingExpiry)
	presence := registry.NewPresence(logger, typing)
	rooms := registry.NewRooms(logger, presence, cfg.Chat.MaxRoomNameLength)
	delivery := registry.NewDelivery(logger, rooms)

	coordinator := session.New(logger,
		session.Config{
			MaxMessageLength: cfg.Chat.MaxMessageLength,
			RecentMessages:   cfg.Chat.RecentMessages,
		},
		session.Deps{
			Presence:    presence,
			Rooms:       rooms,
			Delivery:    delivery,
			Typing:      typing,
			Limiter:     limiter,
			Verifier:    auth.NewJWTVerifier(logger, cfg.Auth.JWTSecret),
			Broadcaster: session.NewFanout(logger),
			Store:       db,
		},
	)

	app := &App{
		logger:      logger,
		coordinator: coordinator,
		db:          db,
		config:      cfg,
		ctx:         rootCtx,
	}

	mux := http.NewServeMux()
	mux.Handle("/ws",
		middleware.Chain(http.HandlerFunc(app.upgradeHandler),
			middleware.RequestMetadataMiddleware(),
			middleware.NewUpgradeLogger(logger),
			middleware.NewConnectionLimiter(logger, limiter),
		),
	)

	app.http = &http.Server{
		Addr:    cfg.Server.Address,
		Handler: mux,
		BaseContext: func(l net.Listener) context.Context {
			return app.ctx
		},
	}

	return app, nil
}

func (a *App) Run() error {
	go func() {
		a.logger.Info("Server starting", slog.String("addr", a.http.Addr))
		if err := a.http.ListenAndServe(); err != http.ErrServerClosed {
			a.logger.Error("HTTP server failed", slog.Any("error", err))
		}
	}()

	<-a.ctx.Done()
	return a.Shutdown()
}

func (a *App) upgradeHandler(w http.ResponseWriter, r *http.Request) {
	wsConn, err := websocket.Accept(w, r, &websocket.AcceptOptions{
		InsecureSkipVerify: true,
	})
	if err != nil {
		a.logger.Error("Failed to accept websocket connection", slog.Any("error", err))
		return
	}

	conn := transport.NewConnection(
		r.Context(),
		&a.wg,
		wsConn,
		transport.ConnectionConfig{ReadTimeout: a.config.Transport.ReadTimeout},
		a.logger,
	)
	a.coordinator.Attach(conn)

	conn.Run()
	<-conn.Done()
}

// Shutdown runs the graceful shutdown sequence.
func (a *App) Shutdown() error {
	a.logger.Info("Shutting down server...")
	shutdownCtx, cancel := context.WithTimeout(context.Background(), 10*time.Second)
	defer cancel()
	if err := a.http.Shutdown(shutdownCtx); err != nil {
		return err
	}

	a.logger.Info("Closing all active connections...")
	a.coordinator.Shutdown(errors.New("graceful shutdown"))

	// wait for all connection goroutines to finish their cleanup.
	a.wg.Wait()

	if err := a.db.Close(); err != nil {
		a.logger.Warn("Failed to close store", slog.Any("error", err))
	}
	a.logger.Info("Server shut down gracefully.")
	return nil
}
