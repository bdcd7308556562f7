// Package config loads server configuration from the environment.
//
// Everything is env-driven (twelve-factor style). A .env file in the
// working directory is loaded first as a convenience for local
// development — real deployments set the variables directly, and a
// missing .env is not an error.
package config

import (
	"fmt"
	"log/slog"
	"os"
	"strconv"
	"time"

	"github.com/joho/godotenv"
)

// OAuthProvider holds the credentials for one identity provider.
// A provider with an empty ClientID is considered disabled; its routes
// are simply not registered.
type OAuthProvider struct {
	ClientID     string
	ClientSecret string
	CallbackURL  string
}

// Enabled reports whether credentials were supplied for this provider.
func (p OAuthProvider) Enabled() bool {
	return p.ClientID != "" && p.ClientSecret != ""
}

// Config holds all server configuration.
type Config struct {
	Port     int
	DBPath   string
	LogLevel slog.Level

	JWTSecret  string
	SessionTTL time.Duration

	GitHub OAuthProvider
	Google OAuthProvider

	// OAuthAutoLink controls what happens when an OAuth login's email
	// matches an existing local account: true links the provider identity
	// to that account, false rejects the login with a conflict. Linking is
	// convenient but trusts every configured provider's email assertions,
	// so it is an explicit switch rather than silent behavior.
	OAuthAutoLink bool

	// RedisAddr enables the login rate limiter when set ("host:port").
	RedisAddr       string
	LoginRateLimit  int
	LoginRateWindow time.Duration
}

// Load reads configuration from the environment, applying defaults.
func Load() (Config, error) {
	// Best effort: local dev keeps secrets in .env, production doesn't.
	_ = godotenv.Load()

	cfg := Config{
		Port:            8080,
		DBPath:          "data/snippetvault.db",
		LogLevel:        slog.LevelInfo,
		JWTSecret:       os.Getenv("JWT_SECRET"),
		SessionTTL:      24 * time.Hour,
		OAuthAutoLink:   true,
		RedisAddr:       os.Getenv("REDIS_ADDR"),
		LoginRateLimit:  10,
		LoginRateWindow: time.Minute,
	}

	if portStr := os.Getenv("PORT"); portStr != "" {
		port, err := strconv.Atoi(portStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid PORT %q: %w", portStr, err)
		}
		cfg.Port = port
	}

	if dbPath := os.Getenv("DB_PATH"); dbPath != "" {
		cfg.DBPath = dbPath
	}

	if lvl := os.Getenv("LOG_LEVEL"); lvl != "" {
		if err := cfg.LogLevel.UnmarshalText([]byte(lvl)); err != nil {
			return Config{}, fmt.Errorf("config: invalid LOG_LEVEL %q: %w", lvl, err)
		}
	}

	if ttlStr := os.Getenv("SESSION_TTL"); ttlStr != "" {
		ttl, err := time.ParseDuration(ttlStr)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid SESSION_TTL %q: %w", ttlStr, err)
		}
		cfg.SessionTTL = ttl
	}

	if v := os.Getenv("OAUTH_AUTO_LINK"); v != "" {
		autoLink, err := strconv.ParseBool(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid OAUTH_AUTO_LINK %q: %w", v, err)
		}
		cfg.OAuthAutoLink = autoLink
	}

	if v := os.Getenv("LOGIN_RATE_LIMIT"); v != "" {
		limit, err := strconv.Atoi(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid LOGIN_RATE_LIMIT %q: %w", v, err)
		}
		cfg.LoginRateLimit = limit
	}

	if v := os.Getenv("LOGIN_RATE_WINDOW"); v != "" {
		window, err := time.ParseDuration(v)
		if err != nil {
			return Config{}, fmt.Errorf("config: invalid LOGIN_RATE_WINDOW %q: %w", v, err)
		}
		cfg.LoginRateWindow = window
	}

	cfg.GitHub = OAuthProvider{
		ClientID:     os.Getenv("GITHUB_CLIENT_ID"),
		ClientSecret: os.Getenv("GITHUB_CLIENT_SECRET"),
		CallbackURL:  os.Getenv("GITHUB_CALLBACK_URL"),
	}
	if cfg.GitHub.CallbackURL == "" {
		cfg.GitHub.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/github/callback", cfg.Port)
	}

	cfg.Google = OAuthProvider{
		ClientID:     os.Getenv("GOOGLE_CLIENT_ID"),
		ClientSecret: os.Getenv("GOOGLE_CLIENT_SECRET"),
		CallbackURL:  os.Getenv("GOOGLE_CALLBACK_URL"),
	}
	if cfg.Google.CallbackURL == "" {
		cfg.Google.CallbackURL = fmt.Sprintf("http://localhost:%d/auth/google/callback", cfg.Port)
	}

	return cfg, nil
}
