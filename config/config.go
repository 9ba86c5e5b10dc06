// Package config provides configuration management for the application.
package config

import (
	"fmt"
	"os"
	"strconv"

	"github.com/joho/godotenv"
)

// Config holds the application configuration
type Config struct {
	Server  ServerConfig
	Storage StorageConfig
	Logging LoggingConfig
}

// ServerConfig holds HTTP server configuration
type ServerConfig struct {
	Port            string
	MasterKey       string
	MetricsEnabled  bool
	MetricsEndpoint string
}

// StorageConfig selects and configures the catalog backend
type StorageConfig struct {
	// Type is one of: memory, sqlite, postgresql
	Type             string
	SQLitePath       string
	PostgresURL      string
	PostgresMaxConns int
}

// LoggingConfig holds log output configuration
type LoggingConfig struct {
	// Format is one of: json, pretty
	Format string
	Level  string
}

// Load reads configuration from a .env file (if present) and the environment
func Load() (*Config, error) {
	// Optional, won't fail if not found
	_ = godotenv.Load()

	maxConns, err := getEnvInt("POSTGRES_MAX_CONNS", 10)
	if err != nil {
		return nil, err
	}

	cfg := &Config{
		Server: ServerConfig{
			Port:            getEnv("PORT", "8080"),
			MasterKey:       os.Getenv("MASTER_KEY"),
			MetricsEnabled:  getEnvBool("METRICS_ENABLED", true),
			MetricsEndpoint: getEnv("METRICS_ENDPOINT", "/metrics"),
		},
		Storage: StorageConfig{
			Type:             getEnv("STORAGE_TYPE", "sqlite"),
			SQLitePath:       getEnv("SQLITE_PATH", "data/marketrec.db"),
			PostgresURL:      os.Getenv("POSTGRES_URL"),
			PostgresMaxConns: maxConns,
		},
		Logging: LoggingConfig{
			Format: getEnv("LOG_FORMAT", "json"),
			Level:  getEnv("LOG_LEVEL", "info"),
		},
	}

	if cfg.Storage.Type == "postgresql" && cfg.Storage.PostgresURL == "" {
		return nil, fmt.Errorf("POSTGRES_URL is required when STORAGE_TYPE is postgresql")
	}

	return cfg, nil
}

func getEnv(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func getEnvBool(key string, fallback bool) bool {
	v := os.Getenv(key)
	if v == "" {
		return fallback
	}
	parsed, err := strconv.ParseBool(v)
	if err != nil {
		return fallback
	}
	return parsed
}

func getEnvInt(key string, fallback int) (int, error) {
	v := os.Getenv(key)
	if v == "" {
		return fallback, nil
	}
	parsed, err := strconv.Atoi(v)
	if err != nil {
		return 0, fmt.Errorf("invalid value for %s: %q", key, v)
	}
	return parsed, nil
}
