package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"

	"github.com/AbdelalimB1729/ChatFlow/internal/server"
	"github.com/AbdelalimB1729/ChatFlow/pkg/config"
	"github.com/AbdelalimB1729/ChatFlow/pkg/logging"
)

func main() {
	logger := logging.New("info")

	cfg, err := config.Load(logger, "config")
	if err != nil {
		logger.Error("Failed to load configuration", slog.Any("error", err))
		os.Exit(1)
	}

	logger = logging.New(cfg.Server.LogLevel)
	slog.SetDefault(logger)

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt)
	defer stop()

	app, err := server.NewApp(logger, ctx, cfg)
	if err != nil {
		logger.Error("Failed to initialize application", slog.Any("error", err))
		os.Exit(1)
	}
	if err := app.Run(); err != nil {
		logger.Error("Application run failed", slog.Any("error", err))
		os.Exit(1)
	}
	logger.Info("Application shut down successfully.")
}
