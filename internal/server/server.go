// Package server sets up the HTTP server, router, and all route definitions.
//
// This is the composition root: main.go hands it a Config and a logger,
// and New assembles the whole dependency chain in one place:
//
//	sqlite.DB → services → handlers → routes
//
// Each layer only receives what it needs. Services get repository
// interfaces, not the concrete DB; handlers get services, never the
// repository. Keeping the wiring here (rather than in main.go) means
// tests can stand up a fully wired server without running the binary.
package server

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	chimiddleware "github.com/go-chi/chi/v5/middleware"
	"github.com/redis/go-redis/v9"

	"github.com/sakif/snippetvault/internal/auth"
	"github.com/sakif/snippetvault/internal/config"
	"github.com/sakif/snippetvault/internal/handler"
	"github.com/sakif/snippetvault/internal/middleware"
	"github.com/sakif/snippetvault/internal/ratelimit"
	sqliteRepo "github.com/sakif/snippetvault/internal/repository/sqlite"
	"github.com/sakif/snippetvault/internal/service"
)

// Server owns the router and the resources that must be released on
// shutdown: the database connection and, when configured, the Redis
// client behind the login rate limiter.
type Server struct {
	router *chi.Mux
	config config.Config
	logger *slog.Logger
	db     *sqliteRepo.DB
	redis  *redis.Client
}

// New creates a fully wired Server.
//
// Redis is optional: if REDIS_ADDR is unset the login rate limiter runs
// with a nil client and allows everything. OAuth providers are optional
// the same way — routes for a provider are only registered when its
// credentials are configured.
func New(cfg config.Config, logger *slog.Logger) (*Server, error) {
	db, err := sqliteRepo.New(cfg.DBPath)
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	s := &Server{
		router: chi.NewRouter(),
		config: cfg,
		logger: logger,
		db:     db,
	}

	if cfg.RedisAddr != "" {
		s.redis = redis.NewClient(&redis.Options{Addr: cfg.RedisAddr})
	}

	if err := s.setupRoutes(); err != nil {
		db.Close() // clean up if wiring fails
		return nil, fmt.Errorf("setting up routes: %w", err)
	}

	return s, nil
}

// setupRoutes configures middleware, builds the service and handler
// layers, and maps every route.
//
// MIDDLEWARE ORDER MATTERS — it executes in the order added:
//  1. RequestID — unique ID per request, for tracing
//  2. RealIP — real client IP from proxy headers (the rate limiter keys on it)
//  3. Logger — one structured log line per request
//  4. Recoverer — panics become 500s instead of crashing the process
func (s *Server) setupRoutes() error {
	s.router.Use(chimiddleware.RequestID)
	s.router.Use(chimiddleware.RealIP)
	s.router.Use(middleware.Logger(s.logger))
	s.router.Use(chimiddleware.Recoverer)

	// === AUTH PLUMBING ===
	tokens, err := auth.NewTokenService(s.config.JWTSecret, s.config.SessionTTL)
	if err != nil {
		return fmt.Errorf("creating token service: %w", err)
	}
	passwords := auth.NewPasswordService()

	limiter := &ratelimit.Limiter{
		Client: s.redis,
		Prefix: "login:",
		Limit:  s.config.LoginRateLimit,
		Window: s.config.LoginRateWindow,
	}

	providers := make(map[string]*auth.Provider)
	if s.config.GitHub.Enabled() {
		providers["github"] = auth.NewGitHubProvider(
			s.config.GitHub.ClientID,
			s.config.GitHub.ClientSecret,
			s.config.GitHub.CallbackURL,
		)
	}
	if s.config.Google.Enabled() {
		providers["google"] = auth.NewGoogleProvider(
			s.config.Google.ClientID,
			s.config.Google.ClientSecret,
			s.config.Google.CallbackURL,
		)
	}

	// === SERVICES ===
	// s.db implements all four repository interfaces; each service only
	// sees the interfaces it asks for.
	authService := service.NewAuthService(s.db, tokens, passwords, limiter, s.config.OAuthAutoLink, s.logger)
	workspaceService := service.NewWorkspaceService(s.db, s.db, s.logger)
	collectionService := service.NewCollectionService(s.db, s.db, s.logger)
	snippetService := service.NewSnippetService(s.db, s.db, s.db, s.logger)

	// === HANDLERS ===
	authHandler := handler.NewAuthHandler(authService, tokens, providers, s.logger)
	workspaceHandler := handler.NewWorkspaceHandler(workspaceService, s.logger)
	collectionHandler := handler.NewCollectionHandler(collectionService, s.logger)
	snippetHandler := handler.NewSnippetHandler(snippetService, s.logger)

	// === AUTH ROUTES (public) ===
	s.router.Route("/auth", func(r chi.Router) {
		r.Post("/signup", authHandler.HandleSignup)
		r.Post("/login", authHandler.HandleLogin)
		r.Post("/logout", authHandler.HandleLogout)

		for name := range providers {
			r.Get(fmt.Sprintf("/%s/login", name), authHandler.HandleOAuthLogin)
			r.Get(fmt.Sprintf("/%s/callback", name), authHandler.HandleOAuthCallback)
		}
	})

	// === API ROUTES ===
	// /api/me uses OptionalAuth (anonymous callers get {"user": null});
	// everything else requires a valid session.
	s.router.With(auth.OptionalAuth(tokens)).Get("/api/me", authHandler.HandleMe)

	s.router.Route("/api", func(r chi.Router) {
		r.Use(auth.RequireAuth(tokens))

		r.Route("/workspaces", func(r chi.Router) {
			r.Get("/", workspaceHandler.HandleList)
			r.Post("/", workspaceHandler.HandleCreate)
			r.Get("/{id}", workspaceHandler.HandleGet)
			r.Patch("/{id}", workspaceHandler.HandleRename)
			r.Delete("/{id}", workspaceHandler.HandleDelete)
			r.Post("/{id}/share", workspaceHandler.HandleShare)
			r.Delete("/{id}/share", workspaceHandler.HandleUnshare)
		})

		r.Route("/collections", func(r chi.Router) {
			r.Get("/", collectionHandler.HandleList)
			r.Post("/", collectionHandler.HandleCreate)
			r.Patch("/{id}", collectionHandler.HandleRename)
			r.Delete("/{id}", collectionHandler.HandleDelete)
		})

		r.Route("/snippets", func(r chi.Router) {
			r.Get("/", snippetHandler.HandleList)
			r.Post("/", snippetHandler.HandleCreate)
			r.Get("/{id}", snippetHandler.HandleGet)
			r.Patch("/{id}", snippetHandler.HandleUpdate)
			r.Delete("/{id}", snippetHandler.HandleDelete)
		})
	})

	return nil
}

// Handler exposes the router so tests can drive the server with
// httptest without opening a port.
func (s *Server) Handler() http.Handler {
	return s.router
}

// Start runs the HTTP server until SIGINT/SIGTERM, then shuts down
// gracefully:
//  1. Stop accepting new connections
//  2. Wait up to 30s for in-flight requests
//  3. Close the database (flushes WAL, releases the file lock) and Redis
func (s *Server) Start() error {
	defer func() {
		if err := s.db.Close(); err != nil {
			s.logger.Error("failed to close database", slog.String("error", err.Error()))
		}
		if s.redis != nil {
			if err := s.redis.Close(); err != nil {
				s.logger.Error("failed to close redis client", slog.String("error", err.Error()))
			}
		}
	}()

	srv := &http.Server{
		Addr:         fmt.Sprintf(":%d", s.config.Port),
		Handler:      s.router,
		ReadTimeout:  15 * time.Second,
		WriteTimeout: 15 * time.Second,
		IdleTimeout:  60 * time.Second,
	}

	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	serverErrors := make(chan error, 1)

	go func() {
		s.logger.Info("server starting",
			slog.Int("port", s.config.Port),
			slog.String("url", fmt.Sprintf("http://localhost:%d", s.config.Port)),
			slog.String("database", s.config.DBPath),
		)
		serverErrors <- srv.ListenAndServe()
	}()

	select {
	case err := <-serverErrors:
		if err != http.ErrServerClosed {
			return fmt.Errorf("server error: %w", err)
		}

	case sig := <-quit:
		s.logger.Info("shutdown signal received", slog.String("signal", sig.String()))

		ctx, cancel := context.WithTimeout(context.Background(), 30*time.Second)
		defer cancel()

		if err := srv.Shutdown(ctx); err != nil {
			return fmt.Errorf("graceful shutdown failed: %w", err)
		}
		s.logger.Info("server stopped gracefully")
	}

	return nil
}
