package config

import "time"

type Config struct {
	Server    ServerConfig
	Transport TransportConfig
	Auth      AuthConfig
	Chat      ChatConfig
	RateLimit RateLimitConfig `mapstructure:"rateLimit"`
	Store     StoreConfig
	Redis     RedisConfig
}

type ServerConfig struct {
	Address  string
	LogLevel string `mapstructure:"logLevel"`
}

type AuthConfig struct {
	JWTSecret string `mapstructure:"jwtSecret"`
}

type TransportConfig struct {
	ReadTimeout time.Duration `mapstructure:"readTimeout"`
}

type ChatConfig struct {
	MaxMessageLength  int           `mapstructure:"maxMessageLength"`
	MaxRoomNameLength int           `mapstructure:"maxRoomNameLength"`
	RecentMessages    int           `mapstructure:"recentMessages"`
	TypingExpiry      time.Duration `mapstructure:"typingExpiry"`
}

type RateLimitConfig struct {
	// Backend selects the limiter implementation: "memory" or "redis".
	Backend          string        `mapstructure:"backend"`
	MessageLimit     int           `mapstructure:"messageLimit"`
	MessageWindow    time.Duration `mapstructure:"messageWindow"`
	ConnectionLimit  int           `mapstructure:"connectionLimit"`
	ConnectionWindow time.Duration `mapstructure:"connectionWindow"`
}

type StoreConfig struct {
	Path string
}

type RedisConfig struct {
	Addr     string
	Password string
	DB       int
}
