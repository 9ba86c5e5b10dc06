// Package main is the entry point for the recommendation service.
package main

import (
	"context"
	"errors"
	"flag"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/lmittmann/tint"
	"github.com/prometheus/client_golang/prometheus"

	"marketrec/config"
	"marketrec/internal/cache"
	"marketrec/internal/catalog"
	"marketrec/internal/observability"
	"marketrec/internal/recs"
	"marketrec/internal/server"
	"marketrec/internal/version"
)

func main() {
	versionFlag := flag.Bool("version", false, "Print version information")
	flag.Parse()

	if *versionFlag {
		fmt.Println(version.Info())
		os.Exit(0)
	}

	// Load configuration
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load config", "error", err)
		os.Exit(1)
	}

	// Setup structured logging
	slog.SetDefault(slog.New(newLogHandler(cfg.Logging)))

	slog.Info("starting marketrec",
		"version", version.Version,
		"commit", version.Commit,
		"build_date", version.Date,
	)

	// Open the catalog backend
	ctx := context.Background()
	store, err := catalog.Open(ctx, catalog.Config{
		Type:             cfg.Storage.Type,
		SQLitePath:       cfg.Storage.SQLitePath,
		PostgresURL:      cfg.Storage.PostgresURL,
		PostgresMaxConns: cfg.Storage.PostgresMaxConns,
	})
	if err != nil {
		slog.Error("failed to open catalog store", "error", err)
		os.Exit(1)
	}
	defer store.Close()
	slog.Info("catalog store ready", "type", cfg.Storage.Type)

	// Build the engine
	opts := []recs.Option{}
	if cfg.Server.MetricsEnabled {
		opts = append(opts, recs.WithMetrics(observability.New(prometheus.DefaultRegisterer)))
		slog.Info("prometheus metrics enabled", "endpoint", cfg.Server.MetricsEndpoint)
	} else {
		slog.Info("prometheus metrics disabled")
	}
	engine := recs.NewEngine(store, cache.New(), opts...)

	// Security check: warn if no master key is configured
	if cfg.Server.MasterKey == "" {
		slog.Warn("MASTER_KEY not set, cache admin endpoints are unauthenticated")
	} else {
		slog.Info("authentication enabled", "mode", "master_key")
	}

	// Create and start server
	srv := server.New(engine, &server.Config{
		MasterKey:       cfg.Server.MasterKey,
		MetricsEnabled:  cfg.Server.MetricsEnabled,
		MetricsEndpoint: cfg.Server.MetricsEndpoint,
	})

	// Handle graceful shutdown
	go func() {
		quit := make(chan os.Signal, 1)
		signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)
		<-quit

		slog.Info("shutting down server...")

		shutdownCtx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(shutdownCtx); err != nil {
			slog.Error("server shutdown error", "error", err)
		}
	}()

	addr := ":" + cfg.Server.Port
	slog.Info("starting server", "address", addr)

	if err := srv.Start(addr); err != nil {
		if errors.Is(err, http.ErrServerClosed) {
			slog.Info("server stopped gracefully")
		} else {
			slog.Error("server failed to start", "error", err)
			os.Exit(1)
		}
	}
}

func newLogHandler(cfg config.LoggingConfig) slog.Handler {
	level := parseLevel(cfg.Level)
	if cfg.Format == "pretty" {
		return tint.NewHandler(os.Stdout, &tint.Options{Level: level})
	}
	return slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{Level: level})
}

func parseLevel(s string) slog.Level {
	switch s {
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
