// Package service contains the business logic layer of the application.
//
// THE THREE LAYERS:
//
//	Handler (HTTP)      → parses requests, writes responses
//	Service (business)  → validates, enforces ownership/membership policy
//	Repository (data)   → reads/writes the database
//
// Services accept primitives and return domain errors (apperror), never
// HTTP types or status codes. Handlers translate. Every service takes its
// repositories as interfaces so tests can inject in-memory mocks.
package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/auth"
	"github.com/sakif/snippetvault/internal/model"
	"github.com/sakif/snippetvault/internal/ratelimit"
	"github.com/sakif/snippetvault/internal/repository"
)

const (
	MinPasswordLength = 6
	MaxPasswordLength = 72 // bcrypt input limit
)

// AuthService handles signup, credential login, and OAuth login.
type AuthService struct {
	users     repository.UserRepository
	tokens    *auth.TokenService
	passwords *auth.PasswordService
	limiter   *ratelimit.Limiter
	autoLink  bool
	logger    *slog.Logger
}

// NewAuthService creates an AuthService with all required dependencies.
// limiter may have a nil client, in which case login is never throttled.
func NewAuthService(
	users repository.UserRepository,
	tokens *auth.TokenService,
	passwords *auth.PasswordService,
	limiter *ratelimit.Limiter,
	autoLink bool,
	logger *slog.Logger,
) *AuthService {
	return &AuthService{
		users:     users,
		tokens:    tokens,
		passwords: passwords,
		limiter:   limiter,
		autoLink:  autoLink,
		logger:    logger,
	}
}

// AuthResult bundles the user record with the issued session token so the
// handler can set the cookie and respond in one step.
type AuthResult struct {
	User  *model.User
	Token string
}

// Signup registers a credential account.
//
// The email is normalized (trimmed, lowercased) before the uniqueness
// check — "Bob@Example.com" and "bob@example.com" are the same account.
// A duplicate email surfaces as apperror.ErrConflict from the repository.
func (s *AuthService) Signup(ctx context.Context, name, email, password string) (*model.User, error) {
	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}
	if len(password) < MinPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be at least %d characters", MinPasswordLength))
	}
	if len(password) > MaxPasswordLength {
		return nil, apperror.ValidationFailed("password",
			fmt.Sprintf("password must be %d bytes or fewer", MaxPasswordLength))
	}

	hash, err := s.passwords.Hash(password)
	if err != nil {
		return nil, fmt.Errorf("service/auth: hashing signup password: %w", err)
	}

	user := &model.User{
		Email:        email,
		Name:         strings.TrimSpace(name),
		PasswordHash: hash,
	}

	if err := s.users.CreateUser(ctx, user); err != nil {
		return nil, err
	}

	s.logger.Info("user signed up", slog.String("userID", user.ID))

	return user, nil
}

// Login authenticates a credential account and issues a session token.
//
// clientKey identifies the caller for rate limiting (the handler passes
// the client IP). Unknown email and wrong password return the same
// message so the endpoint can't be used to probe which emails exist.
func (s *AuthService) Login(ctx context.Context, email, password, clientKey string) (*AuthResult, error) {
	allowed, retryIn, err := s.limiter.Allow(ctx, clientKey)
	if err != nil {
		// A broken limiter shouldn't lock everyone out; log and continue.
		s.logger.Warn("login rate limiter unavailable", slog.String("error", err.Error()))
	} else if !allowed {
		return nil, apperror.RateLimited(
			fmt.Sprintf("too many login attempts, retry in %s", retryIn.Round(time.Second)))
	}

	email = normalizeEmail(email)

	user, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.Unauthorized("invalid email or password")
		}
		return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
	}

	// OAuth-only accounts have no hash; treat as a failed credential login
	// rather than revealing how the account was created.
	if user.PasswordHash == "" {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	if err := s.passwords.Verify(user.PasswordHash, password); err != nil {
		return nil, apperror.Unauthorized("invalid email or password")
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	s.logger.Info("user logged in", slog.String("userID", user.ID))

	return &AuthResult{User: user, Token: token}, nil
}

// LoginOAuth handles an OAuth callback profile: find the linked account,
// or link/create one, then issue a session token.
//
// RESOLUTION ORDER:
//  1. A user already linked to (provider, providerAccountID) → log in.
//  2. A user with the same email exists → link the provider identity to
//     it when auto-linking is enabled, otherwise reject with a conflict.
//     Auto-linking trusts the provider's email assertion; the switch
//     exists because that trust has security weight (a provider asserting
//     someone else's email would take over their account).
//  3. No user at all → create one (no password) and link.
func (s *AuthService) LoginOAuth(ctx context.Context, profile *auth.Profile) (*AuthResult, error) {
	if profile == nil {
		return nil, fmt.Errorf("service/auth: OAuth profile must not be nil")
	}

	user, err := s.users.GetUserByOAuth(ctx, profile.Provider, profile.ProviderAccountID)
	if err != nil && !errors.Is(err, apperror.ErrNotFound) {
		return nil, fmt.Errorf("service/auth: looking up %s account: %w", profile.Provider, err)
	}

	if user == nil {
		email := normalizeEmail(profile.Email)

		existing, err := s.users.GetUserByEmail(ctx, email)
		switch {
		case err == nil:
			if !s.autoLink {
				return nil, apperror.Conflict("account",
					"an account with this email already exists; sign in with your password")
			}
			if err := s.users.LinkOAuth(ctx, existing.ID, profile.Provider, profile.ProviderAccountID); err != nil {
				return nil, err
			}
			s.logger.Info("linked oauth identity to existing account",
				slog.String("userID", existing.ID),
				slog.String("provider", profile.Provider),
			)
			user = existing

		case errors.Is(err, apperror.ErrNotFound):
			user = &model.User{
				Email: email,
				Name:  strings.TrimSpace(profile.Name),
			}
			if err := s.users.CreateUser(ctx, user); err != nil {
				return nil, err
			}
			if err := s.users.LinkOAuth(ctx, user.ID, profile.Provider, profile.ProviderAccountID); err != nil {
				return nil, err
			}
			s.logger.Info("user signed up via oauth",
				slog.String("userID", user.ID),
				slog.String("provider", profile.Provider),
			)

		default:
			return nil, fmt.Errorf("service/auth: looking up %s: %w", email, err)
		}
	}

	token, err := s.tokens.Generate(user.ID)
	if err != nil {
		return nil, fmt.Errorf("service/auth: generating token for user %s: %w", user.ID, err)
	}

	return &AuthResult{User: user, Token: token}, nil
}

// GetUserByID returns the user for the given internal ID. Used by the
// /api/me handler after the middleware extracts the ID from the token.
func (s *AuthService) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	if id == "" {
		return nil, fmt.Errorf("service/auth: user ID must not be empty")
	}
	return s.users.GetUserByID(ctx, id)
}

func normalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}
