// Package auth provides password hashing, JWT session tokens, and OAuth
// providers for the snippet vault API.
//
// SESSION FLOW:
//  1. User signs up or logs in (credentials or OAuth)
//  2. Server issues a signed JWT carrying the user's internal ID and
//     stores it in an HttpOnly cookie
//  3. On subsequent API calls, middleware reads the cookie, validates the
//     JWT, and puts the userID in the request context
//
// JWT is stateless: the signature (HMAC-SHA256 over header+payload with
// the server secret) is all the server needs to trust the token — no
// session table, no lookup per request.
package auth

import (
	"errors"
	"fmt"
	"time"

	"github.com/golang-jwt/jwt/v5"
)

const issuer = "snippetvault"

// TokenService handles JWT creation and validation. It holds the HMAC
// secret used for both signing and verifying, plus the session lifetime.
type TokenService struct {
	secret []byte
	ttl    time.Duration
}

// NewTokenService creates a TokenService. The secret should be at least
// 32 bytes of random data in production (JWT_SECRET=$(openssl rand -hex 32)).
// ttl is the session length; zero falls back to 24 hours.
func NewTokenService(secret string, ttl time.Duration) (*TokenService, error) {
	if len(secret) < 16 {
		return nil, errors.New("auth: JWT secret must be at least 16 characters")
	}
	if ttl <= 0 {
		ttl = 24 * time.Hour
	}
	return &TokenService{secret: []byte(secret), ttl: ttl}, nil
}

// TTL returns the configured session lifetime. Handlers use it to set the
// cookie MaxAge to match the token expiry.
func (s *TokenService) TTL() time.Duration {
	return s.ttl
}

// claims embeds jwt.RegisteredClaims; the "sub" claim carries the
// internal user ID — the standard claim for "who this token belongs to".
type claims struct {
	jwt.RegisteredClaims
}

// Generate creates and signs a session token for the given userID using
// the configured TTL.
func (s *TokenService) Generate(userID string) (string, error) {
	return s.GenerateWithDuration(userID, s.ttl)
}

// GenerateWithDuration creates a token with a custom expiry. Used in
// tests to mint already-expired tokens.
func (s *TokenService) GenerateWithDuration(userID string, d time.Duration) (string, error) {
	now := time.Now()

	c := claims{
		RegisteredClaims: jwt.RegisteredClaims{
			Subject:   userID,
			IssuedAt:  jwt.NewNumericDate(now),
			ExpiresAt: jwt.NewNumericDate(now.Add(d)),
			Issuer:    issuer,
		},
	}

	token := jwt.NewWithClaims(jwt.SigningMethodHS256, c)
	signed, err := token.SignedString(s.secret)
	if err != nil {
		return "", fmt.Errorf("auth: signing token: %w", err)
	}

	return signed, nil
}

// Validate parses and verifies a JWT string, returning the userID from
// the "sub" claim.
//
// The library checks signature, expiry, and issuer. WithValidMethods pins
// the algorithm to HS256 — without it, an attacker could attempt an
// algorithm confusion attack (e.g. a token claiming "alg":"none").
func (s *TokenService) Validate(tokenStr string) (string, error) {
	token, err := jwt.ParseWithClaims(
		tokenStr,
		&claims{},
		func(token *jwt.Token) (any, error) {
			if _, ok := token.Method.(*jwt.SigningMethodHMAC); !ok {
				return nil, fmt.Errorf("auth: unexpected signing method: %v", token.Header["alg"])
			}
			return s.secret, nil
		},
		jwt.WithValidMethods([]string{"HS256"}),
		jwt.WithIssuer(issuer),
		jwt.WithExpirationRequired(),
	)
	if err != nil {
		if errors.Is(err, jwt.ErrTokenExpired) {
			return "", fmt.Errorf("auth: token expired")
		}
		return "", fmt.Errorf("auth: invalid token: %w", err)
	}

	c, ok := token.Claims.(*claims)
	if !ok || !token.Valid {
		return "", fmt.Errorf("auth: invalid token claims")
	}

	userID := c.Subject
	if userID == "" {
		return "", fmt.Errorf("auth: token has no subject")
	}

	return userID, nil
}
