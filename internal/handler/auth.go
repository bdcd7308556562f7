package handler

import (
	"errors"
	"log/slog"
	"net/http"

	"github.com/rs/xid"

	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/auth"
	"github.com/sakif/snippetvault/internal/model"
	"github.com/sakif/snippetvault/internal/service"
)

// AuthHandler manages signup, credential login, OAuth login flows, and
// session management.
//
// ROUTES:
//   - POST /auth/signup               → create a credential account
//   - POST /auth/login                → credential login, sets session cookie
//   - GET  /auth/{provider}/login     → redirect to the provider
//   - GET  /auth/{provider}/callback  → complete OAuth, sets session cookie
//   - POST /auth/logout               → clear the session cookie
//   - GET  /api/me                    → current user, or {"user": null}
type AuthHandler struct {
	svc       *service.AuthService
	tokens    *auth.TokenService
	providers map[string]*auth.Provider
	logger    *slog.Logger
}

// NewAuthHandler creates an AuthHandler. providers maps the path name
// ("github", "google") to its configured Provider; unconfigured providers
// simply aren't in the map.
func NewAuthHandler(
	svc *service.AuthService,
	tokens *auth.TokenService,
	providers map[string]*auth.Provider,
	logger *slog.Logger,
) *AuthHandler {
	return &AuthHandler{
		svc:       svc,
		tokens:    tokens,
		providers: providers,
		logger:    logger,
	}
}

type signupRequest struct {
	Name     string `json:"name"`
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required,min=6"`
}

type loginRequest struct {
	Email    string `json:"email"    validate:"required,email"`
	Password string `json:"password" validate:"required"`
}

// HandleSignup registers a new credential account.
//
// HTTP: POST /auth/signup
// Body: {"name": "Ada", "email": "ada@example.com", "password": "secret1"}
// 201 with the user on success, 409 if the email is taken.
func (h *AuthHandler) HandleSignup(w http.ResponseWriter, r *http.Request) {
	var req signupRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	user, err := h.svc.Signup(r.Context(), req.Name, req.Email, req.Password)
	if err != nil {
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusCreated, user)
}

// HandleLogin authenticates a credential account and issues the session
// cookie.
//
// HTTP: POST /auth/login
// 200 with {"user": ...} on success; 401 on bad credentials (the same
// message whether the email exists or not); 429 when rate-limited.
func (h *AuthHandler) HandleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := decodeAndValidate(r, &req); err != nil {
		writeError(w, err)
		return
	}

	// RemoteAddr has been rewritten to the real client IP by the RealIP
	// middleware; it keys the login rate limiter.
	result, err := h.svc.Login(r.Context(), req.Email, req.Password, r.RemoteAddr)
	if err != nil {
		writeError(w, err)
		return
	}

	h.setSessionCookie(w, result.Token)
	writeJSON(w, http.StatusOK, map[string]*model.User{"user": result.User})
}

// HandleOAuthLogin redirects the browser to the provider's authorization
// page.
//
// HTTP: GET /auth/{provider}/login
//
// CSRF PROTECTION VIA STATE:
// A random state value goes into a short-lived cookie before the
// redirect; the callback verifies the provider echoed it back. That
// proves the flow started on this server.
func (h *AuthHandler) HandleOAuthLogin(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[r.PathValue("provider")]
	if !ok {
		writeError(w, apperror.NotFound("provider", r.PathValue("provider")))
		return
	}

	state := xid.New().String()

	http.SetCookie(w, &http.Cookie{
		Name:     "oauth_state",
		Value:    state,
		Path:     "/",
		MaxAge:   600, // 10 minutes — long enough to approve, short enough to limit risk
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	http.Redirect(w, r, provider.AuthURL(state), http.StatusTemporaryRedirect)
}

// HandleOAuthCallback completes an OAuth login.
//
// HTTP: GET /auth/{provider}/callback?code=xxx&state=yyy
//
// FLOW:
//  1. Validate the state parameter against the cookie (CSRF check)
//  2. Exchange the code for a normalized provider profile
//  3. Find, link, or create the local account
//  4. Issue the session cookie and redirect into the app
func (h *AuthHandler) HandleOAuthCallback(w http.ResponseWriter, r *http.Request) {
	provider, ok := h.providers[r.PathValue("provider")]
	if !ok {
		writeError(w, apperror.NotFound("provider", r.PathValue("provider")))
		return
	}

	stateCookie, err := r.Cookie("oauth_state")
	if err != nil || stateCookie.Value == "" {
		h.logger.Warn("oauth callback: missing state cookie",
			slog.String("provider", provider.Name()))
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	if r.URL.Query().Get("state") != stateCookie.Value {
		h.logger.Warn("oauth callback: state mismatch",
			slog.String("provider", provider.Name()))
		writeError(w, apperror.ValidationFailed("state", "invalid OAuth state"))
		return
	}

	// The state cookie is single-use.
	http.SetCookie(w, &http.Cookie{
		Name:   "oauth_state",
		Value:  "",
		Path:   "/",
		MaxAge: -1,
	})

	// The user may have denied authorization on the provider's page.
	if errParam := r.URL.Query().Get("error"); errParam != "" {
		h.logger.Info("oauth callback: user denied authorization",
			slog.String("provider", provider.Name()),
			slog.String("error", errParam),
		)
		http.Redirect(w, r, "/?auth=denied", http.StatusSeeOther)
		return
	}

	code := r.URL.Query().Get("code")
	if code == "" {
		writeError(w, apperror.ValidationFailed("code", "missing OAuth code"))
		return
	}

	profile, err := provider.Exchange(r.Context(), code)
	if err != nil {
		h.logger.Error("oauth callback: exchange failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "authentication failed",
		})
		return
	}

	result, err := h.svc.LoginOAuth(r.Context(), profile)
	if err != nil {
		// Conflict (auto-link disabled) is the caller's problem to show;
		// anything else is ours to hide.
		if errors.Is(err, apperror.ErrConflict) {
			writeError(w, err)
			return
		}
		h.logger.Error("oauth callback: login failed",
			slog.String("provider", provider.Name()),
			slog.String("error", err.Error()),
		)
		writeJSON(w, http.StatusInternalServerError, ErrorResponse{
			Error:   "internal_error",
			Message: "authentication failed",
		})
		return
	}

	h.setSessionCookie(w, result.Token)
	http.Redirect(w, r, "/dashboard", http.StatusSeeOther)
}

// HandleLogout clears the session cookie.
//
// HTTP: POST /auth/logout (POST, not GET — logout changes state, and GET
// would be CSRF-able and prefetchable)
//
// Sessions are stateless JWTs, so "logout" means deleting the cookie; the
// token stays technically valid until expiry but nothing will send it.
func (h *AuthHandler) HandleLogout(w http.ResponseWriter, r *http.Request) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
	})

	writeJSON(w, http.StatusOK, map[string]string{"message": "logged out"})
}

// HandleMe returns the currently authenticated user, or {"user": null}
// for anonymous callers — always 200, never 401. The frontend calls this
// on load to decide whether to show the login screen; an error status
// would be noise.
//
// HTTP: GET /api/me (behind OptionalAuth)
func (h *AuthHandler) HandleMe(w http.ResponseWriter, r *http.Request) {
	userID, ok := auth.UserIDFromContext(r.Context())
	if !ok {
		writeJSON(w, http.StatusOK, map[string]*model.User{"user": nil})
		return
	}

	user, err := h.svc.GetUserByID(r.Context(), userID)
	if err != nil {
		// A valid token for a since-deleted user is still anonymous.
		if errors.Is(err, apperror.ErrNotFound) {
			writeJSON(w, http.StatusOK, map[string]*model.User{"user": nil})
			return
		}
		h.logger.Error("me: lookup failed", slog.String("userID", userID))
		writeError(w, err)
		return
	}

	writeJSON(w, http.StatusOK, map[string]*model.User{"user": user})
}

// setSessionCookie stores the JWT in the HttpOnly session cookie, with
// MaxAge matching the token's expiry.
//
// HttpOnly: JavaScript can't read it (XSS protection).
// SameSite=Lax: sent on top-level navigations but not cross-site POSTs.
// Secure should be enabled in production behind HTTPS.
func (h *AuthHandler) setSessionCookie(w http.ResponseWriter, token string) {
	http.SetCookie(w, &http.Cookie{
		Name:     auth.SessionCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(h.tokens.TTL().Seconds()),
		HttpOnly: true,
		SameSite: http.SameSiteLaxMode,
		// Secure: true, // enable in production (requires HTTPS)
	})
}
