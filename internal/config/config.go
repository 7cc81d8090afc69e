package config

import (
	"fmt"
	"log/slog"
	"time"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the server settings, populated from the environment. A .env
// file in the working directory is loaded first when present; command-line
// flags may override individual fields afterwards.
type Config struct {
	// Addr is the listen address of the HTTP server.
	Addr string `env:"WEBSETTINGS_ADDR" envDefault:":7878"`
	// KeyTTL is the redemption window for one-time access keys.
	KeyTTL time.Duration `env:"WEBSETTINGS_KEY_TTL" envDefault:"10m"`
	// PollTimeout bounds how long a device long-poll is held open before the
	// server answers 204 and the device re-polls. It must stay below the HTTP
	// server's write timeout.
	PollTimeout time.Duration `env:"WEBSETTINGS_POLL_TIMEOUT" envDefault:"55s"`
	// LogLevel is one of debug, info, warn, error.
	LogLevel string `env:"WEBSETTINGS_LOG_LEVEL" envDefault:"info"`
	// TLSCert and TLSKey enable TLS when both are set.
	TLSCert string `env:"WEBSETTINGS_TLS_CERT"`
	TLSKey  string `env:"WEBSETTINGS_TLS_KEY"`
}

// Load reads the configuration from the environment.
func Load() (Config, error) {
	// A missing .env file is not an error; the environment alone is fine.
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return Config{}, fmt.Errorf("parsing environment: %w", err)
	}
	if cfg.KeyTTL <= 0 {
		return Config{}, fmt.Errorf("key TTL must be positive, got %s", cfg.KeyTTL)
	}
	if cfg.PollTimeout <= 0 {
		return Config{}, fmt.Errorf("poll timeout must be positive, got %s", cfg.PollTimeout)
	}
	return cfg, nil
}

// SlogLevel translates the configured level name for log/slog.
func (c Config) SlogLevel() slog.Level {
	switch c.LogLevel {
	case "debug":
		return slog.LevelDebug
	case "warn":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	default:
		return slog.LevelInfo
	}
}
