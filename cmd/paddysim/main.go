// Command paddysim runs the rice-yield simulation backend: a
// clock-driven engine advanced in the background, an HTTP API for the
// polling frontend, and a SQLite archive of completed results.
package main

import (
	"context"
	"log/slog"
	"os"
	"os/signal"
	"path/filepath"
	"strconv"
	"syscall"

	"github.com/talgya/paddysim/internal/api"
	"github.com/talgya/paddysim/internal/archive"
	"github.com/talgya/paddysim/internal/engine"
)

func main() {
	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: logLevel(),
	}))
	slog.SetDefault(logger)

	slog.Info("paddysim — rice yield simulator backend")

	port := envInt("PADDYSIM_PORT", 8000)
	dbPath := envStr("PADDYSIM_DB", "data/paddysim.db")
	adminKey := os.Getenv("PADDYSIM_ADMIN_KEY")

	ctx, stop := signal.NotifyContext(context.Background(), os.Interrupt, syscall.SIGTERM)
	defer stop()

	// ── Engine + clock ────────────────────────────────────────────────
	eng := engine.New(nil)
	go eng.Run(ctx)

	// ── Results archive ───────────────────────────────────────────────
	if dbPath != "off" {
		os.MkdirAll(filepath.Dir(dbPath), 0755)
		db, err := archive.Open(dbPath)
		if err != nil {
			slog.Error("failed to open archive database", "error", err)
			os.Exit(1)
		}
		defer db.Close()
		slog.Info("archive database opened", "path", dbPath)

		recorder := &archive.Recorder{DB: db, Eng: eng}
		go recorder.Run(ctx)
	} else {
		slog.Info("archive disabled")
	}

	// ── HTTP API ──────────────────────────────────────────────────────
	server := &api.Server{Eng: eng, Port: port, AdminKey: adminKey}
	server.Start()

	<-ctx.Done()
	slog.Info("shutting down")
}

func logLevel() slog.Level {
	switch os.Getenv("PADDYSIM_LOG_LEVEL") {
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

func envStr(key, fallback string) string {
	if v := os.Getenv(key); v != "" {
		return v
	}
	return fallback
}

func envInt(key string, fallback int) int {
	if v := os.Getenv(key); v != "" {
		if n, err := strconv.Atoi(v); err == nil {
			return n
		}
		slog.Warn("ignoring non-numeric env value", "key", key, "value", v)
	}
	return fallback
}
