package config

import (
	"log/slog"
	"os"
	"testing"
	"time"
)

func newTestLogger() *slog.Logger {
	handler := slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{Level: slog.LevelError + 1})
	return slog.New(handler)
}

func TestLoadDefaults(t *testing.T) {
	// A file name that does not exist exercises the defaults path.
	cfg, err := Load(newTestLogger(), "does-not-exist")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}

	if cfg.Server.Address != ":8080" {
		t.Errorf("Unexpected default address %q", cfg.Server.Address)
	}
	if cfg.Chat.MaxMessageLength != 1000 {
		t.Errorf("Unexpected default max message length %d", cfg.Chat.MaxMessageLength)
	}
	if cfg.Chat.MaxRoomNameLength != 100 {
		t.Errorf("Unexpected default max room name length %d", cfg.Chat.MaxRoomNameLength)
	}
	if cfg.Chat.RecentMessages != 20 {
		t.Errorf("Unexpected default recent messages %d", cfg.Chat.RecentMessages)
	}
	if cfg.Chat.TypingExpiry != 5*time.Second {
		t.Errorf("Unexpected default typing expiry %v", cfg.Chat.TypingExpiry)
	}
	if cfg.RateLimit.Backend != "memory" {
		t.Errorf("Unexpected default rate limit backend %q", cfg.RateLimit.Backend)
	}
	if cfg.RateLimit.MessageLimit != 10 || cfg.RateLimit.MessageWindow != time.Minute {
		t.Errorf("Unexpected default message limit %d/%v", cfg.RateLimit.MessageLimit, cfg.RateLimit.MessageWindow)
	}
	if cfg.RateLimit.ConnectionLimit != 5 || cfg.RateLimit.ConnectionWindow != time.Minute {
		t.Errorf("Unexpected default connection limit %d/%v", cfg.RateLimit.ConnectionLimit, cfg.RateLimit.ConnectionWindow)
	}
	if cfg.Transport.ReadTimeout != time.Minute {
		t.Errorf("Unexpected default read timeout %v", cfg.Transport.ReadTimeout)
	}
}

func TestLoadEnvOverride(t *testing.T) {
	t.Setenv("CHATFLOW_SERVER_ADDRESS", ":9999")
	t.Setenv("CHATFLOW_RATELIMIT_MESSAGELIMIT", "3")

	cfg, err := Load(newTestLogger(), "does-not-exist")
	if err != nil {
		t.Fatalf("Load failed: %v", err)
	}
	if cfg.Server.Address != ":9999" {
		t.Errorf("Env override not applied, got %q", cfg.Server.Address)
	}
	if cfg.RateLimit.MessageLimit != 3 {
		t.Errorf("Env override not applied, got %d", cfg.RateLimit.MessageLimit)
	}
}
