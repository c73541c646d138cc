package config

import (
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/caarlos0/env/v11"
	"github.com/joho/godotenv"
)

// Config holds the application configuration.
type Config struct {
	GeminiAPIKey string `env:"GEMINI_API_KEY"`
	Model        string `env:"NEXUS_MODEL"         envDefault:"gemini-2.5-flash"`
	SaveDB       string `env:"NEXUS_SAVE_DB"       envDefault:".saves/nexus.db"`
	StorageQuota int64  `env:"NEXUS_STORAGE_QUOTA" envDefault:"5242880"`
	ExportDir    string `env:"NEXUS_EXPORT_DIR"    envDefault:"."`
	LogFile      string `env:"NEXUS_LOG_FILE"      envDefault:".saves/nexus.log"`
	LogLevel     string `env:"NEXUS_LOG_LEVEL"     envDefault:"info"`
}

// LoadConfig loads the configuration from environment variables. A .env file
// in the working directory is read first when present; variables already set
// in the environment win.
func LoadConfig() (*Config, error) {
	_ = godotenv.Load()

	var cfg Config
	if err := env.Parse(&cfg); err != nil {
		return nil, fmt.Errorf("parse env: %w", err)
	}
	if cfg.StorageQuota < 0 {
		return nil, fmt.Errorf("NEXUS_STORAGE_QUOTA must not be negative, got %d", cfg.StorageQuota)
	}
	return &cfg, nil
}

// RequireAPIKey fails when no Gemini key is configured.
func (c *Config) RequireAPIKey() error {
	if c.GeminiAPIKey == "" {
		return errors.New("GEMINI_API_KEY environment variable is not set")
	}
	return nil
}

// Level maps LogLevel onto a slog level, defaulting to info.
func (c *Config) Level() slog.Level {
	switch strings.ToLower(c.LogLevel) {
	case "debug":
		return slog.LevelDebug
	case "warn", "warning":
		return slog.LevelWarn
	case "error":
		return slog.LevelError
	}
	return slog.LevelInfo
}
