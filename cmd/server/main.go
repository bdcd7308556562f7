// Package main is the entry point for the SnippetVault server.
//
// main stays minimal: load configuration, create the logger, make sure
// the data directory exists, and hand off to internal/server. All the
// real wiring lives in the server package so it can be exercised in
// tests without running the binary.
package main

import (
	"log/slog"
	"os"
	"path/filepath"

	"github.com/sakif/snippetvault/internal/config"
	"github.com/sakif/snippetvault/internal/server"
)

func main() {
	cfg, err := config.Load()
	if err != nil {
		slog.Error("failed to load configuration", slog.String("error", err.Error()))
		os.Exit(1)
	}

	logger := slog.New(slog.NewTextHandler(os.Stdout, &slog.HandlerOptions{
		Level: cfg.LogLevel,
	}))

	// JWT_SECRET has no safe default. Generate one with:
	//   JWT_SECRET=$(openssl rand -hex 32)
	if cfg.JWTSecret == "" {
		logger.Error("JWT_SECRET is required")
		os.Exit(1)
	}

	// Create the data directory if needed (like `mkdir -p`).
	dbDir := filepath.Dir(cfg.DBPath)
	if err := os.MkdirAll(dbDir, 0755); err != nil {
		logger.Error("failed to create database directory",
			slog.String("dir", dbDir),
			slog.String("error", err.Error()),
		)
		os.Exit(1)
	}

	if cfg.RedisAddr == "" {
		logger.Warn("REDIS_ADDR not set — login rate limiting is disabled")
	}
	if !cfg.GitHub.Enabled() {
		logger.Info("GitHub OAuth not configured — /auth/github routes disabled")
	}
	if !cfg.Google.Enabled() {
		logger.Info("Google OAuth not configured — /auth/google routes disabled")
	}

	srv, err := server.New(cfg, logger)
	if err != nil {
		logger.Error("failed to create server", slog.String("error", err.Error()))
		os.Exit(1)
	}

	// Start blocks until the server is shut down (Ctrl+C or SIGTERM).
	if err := srv.Start(); err != nil {
		logger.Error("server error", slog.String("error", err.Error()))
		os.Exit(1)
	}
}
