package config

import (
	"log/slog"
	"strings"

	"github.com/spf13/viper"
)

// Load reads configuration from a file and environment variables.
func Load(logger *slog.Logger, fileName string) (*Config, error) {
	v := viper.New()

	// 1. Set default values
	v.SetDefault("server.address", ":8080")
	v.SetDefault("server.logLevel", "info")
	v.SetDefault("auth.jwtSecret", "default-secret-key-change-me")
	v.SetDefault("transport.readTimeout", "60s")
	v.SetDefault("chat.maxMessageLength", 1000)
	v.SetDefault("chat.maxRoomNameLength", 100)
	v.SetDefault("chat.recentMessages", 20)
	v.SetDefault("chat.typingExpiry", "5s")
	v.SetDefault("rateLimit.backend", "memory")
	v.SetDefault("rateLimit.messageLimit", 10)
	v.SetDefault("rateLimit.messageWindow", "60s")
	v.SetDefault("rateLimit.connectionLimit", 5)
	v.SetDefault("rateLimit.connectionWindow", "60s")
	v.SetDefault("store.path", "chatflow.db")
	v.SetDefault("redis.addr", "localhost:6379")
	v.SetDefault("redis.db", 0)

	// 2. Set config file details
	v.SetConfigName(fileName)
	v.SetConfigType("yaml")
	v.AddConfigPath(".") // look for config in the working directory

	// 3. Set up environment variable handling
	v.SetEnvPrefix("CHATFLOW")
	v.SetEnvKeyReplacer(strings.NewReplacer(".", "_"))
	v.AutomaticEnv()

	// 4. Read the configuration file
	if err := v.ReadInConfig(); err != nil {
		if _, ok := err.(viper.ConfigFileNotFoundError); !ok {
			// Config file was found but another error was produced
			return nil, err
		}
		logger.Warn("Config file not found. ignoring error and relying on defaults/env vars")
	}

	// 5. Unmarshal the configuration into our struct
	var cfg Config
	if err := v.Unmarshal(&cfg); err != nil {
		return nil, err
	}

	return &cfg, nil
}
