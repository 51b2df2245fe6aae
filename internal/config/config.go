package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"github.com/joho/godotenv"
)

// Config holds all service settings, populated from environment variables.
type Config struct {
	// DataPath is the delimited case-count file the store loads at startup.
	// The file is treated as immutable for the life of the process.
	DataPath string

	HTTPAddr        string
	LogLevel        string
	LogFormat       string
	ShutdownTimeout time.Duration
}

// Load reads configuration from environment variables, applying defaults
// where unset. A .env file in the working directory is read first if present.
func Load() (*Config, error) {
	// Best effort; absence of a .env file is the normal case in production.
	_ = godotenv.Load()

	shutdownTimeout, err := parseShutdownTimeout()
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		DataPath:        os.Getenv("DATA_PATH"),
		HTTPAddr:        envOrDefault("HTTP_ADDR", ":8080"),
		LogLevel:        envOrDefault("LOG_LEVEL", "info"),
		LogFormat:       envOrDefault("LOG_FORMAT", "json"),
		ShutdownTimeout: shutdownTimeout,
	}

	if cfg.DataPath == "" {
		return nil, errors.New("DATA_PATH is required")
	}

	return cfg, nil
}

func envOrDefault(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func parseShutdownTimeout() (time.Duration, error) {
	raw := envOrDefault("SHUTDOWN_TIMEOUT", "10s")
	d, err := time.ParseDuration(raw)
	if err != nil || d <= 0 {
		return 0, fmt.Errorf("invalid SHUTDOWN_TIMEOUT %q", raw)
	}
	return d, nil
}
