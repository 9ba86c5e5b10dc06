package config

import (
	"testing"
)

func clearEnv(t *testing.T) {
	t.Helper()
	for _, key := range []string{
		"PORT", "MASTER_KEY", "METRICS_ENABLED", "METRICS_ENDPOINT",
		"STORAGE_TYPE", "SQLITE_PATH", "POSTGRES_URL", "POSTGRES_MAX_CONNS",
		"LOG_FORMAT", "LOG_LEVEL",
	} {
		t.Setenv(key, "")
	}
}

func TestLoadDefaults(t *testing.T) {
	clearEnv(t)

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "8080" {
		t.Errorf("expected default port 8080, got %s", cfg.Server.Port)
	}
	if !cfg.Server.MetricsEnabled {
		t.Error("expected metrics enabled by default")
	}
	if cfg.Server.MetricsEndpoint != "/metrics" {
		t.Errorf("expected default metrics endpoint /metrics, got %s", cfg.Server.MetricsEndpoint)
	}
	if cfg.Storage.Type != "sqlite" {
		t.Errorf("expected default storage type sqlite, got %s", cfg.Storage.Type)
	}
	if cfg.Storage.SQLitePath != "data/marketrec.db" {
		t.Errorf("unexpected default sqlite path: %s", cfg.Storage.SQLitePath)
	}
	if cfg.Storage.PostgresMaxConns != 10 {
		t.Errorf("expected default max conns 10, got %d", cfg.Storage.PostgresMaxConns)
	}
	if cfg.Logging.Format != "json" {
		t.Errorf("expected default log format json, got %s", cfg.Logging.Format)
	}
}

func TestLoadFromEnv(t *testing.T) {
	clearEnv(t)
	t.Setenv("PORT", "9090")
	t.Setenv("MASTER_KEY", "secret")
	t.Setenv("METRICS_ENABLED", "false")
	t.Setenv("STORAGE_TYPE", "memory")
	t.Setenv("LOG_FORMAT", "pretty")

	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}

	if cfg.Server.Port != "9090" {
		t.Errorf("expected port 9090, got %s", cfg.Server.Port)
	}
	if cfg.Server.MasterKey != "secret" {
		t.Errorf("expected master key from env, got %s", cfg.Server.MasterKey)
	}
	if cfg.Server.MetricsEnabled {
		t.Error("expected metrics disabled")
	}
	if cfg.Storage.Type != "memory" {
		t.Errorf("expected storage type memory, got %s", cfg.Storage.Type)
	}
	if cfg.Logging.Format != "pretty" {
		t.Errorf("expected log format pretty, got %s", cfg.Logging.Format)
	}
}

func TestLoadPostgresRequiresURL(t *testing.T) {
	clearEnv(t)
	t.Setenv("STORAGE_TYPE", "postgresql")

	if _, err := Load(); err == nil {
		t.Fatal("expected error when POSTGRES_URL is missing")
	}

	t.Setenv("POSTGRES_URL", "postgres://localhost/marketrec")
	cfg, err := Load()
	if err != nil {
		t.Fatalf("Load() failed: %v", err)
	}
	if cfg.Storage.PostgresURL == "" {
		t.Error("expected postgres url from env")
	}
}

func TestLoadRejectsBadMaxConns(t *testing.T) {
	clearEnv(t)
	t.Setenv("POSTGRES_MAX_CONNS", "many")

	if _, err := Load(); err == nil {
		t.Fatal("expected error for non-integer POSTGRES_MAX_CONNS")
	}
}
