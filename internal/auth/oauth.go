package auth

import (
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"strconv"

	"golang.org/x/oauth2"
	"golang.org/x/oauth2/github"
	"golang.org/x/oauth2/google"
)

// Profile is the provider-independent identity we extract from an OAuth
// login. The (Provider, ProviderAccountID) pair is the stable key; Email
// is what we use to link OAuth identities to local accounts.
type Profile struct {
	Provider          string // "github" or "google"
	ProviderAccountID string // the provider's stable user ID, as a string
	Email             string
	Name              string
}

// Provider wraps golang.org/x/oauth2 for one identity provider's
// Authorization Code flow.
//
// THE FLOW:
//  1. We redirect the user to the provider's authorization endpoint with
//     our ClientID and requested scopes.
//  2. The user approves; the provider redirects back to our callback URL
//     with a short-lived code.
//  3. We exchange the code for an access token (server-to-server, using
//     the ClientSecret — the token never touches the browser).
//  4. We call the provider's user-info API and normalize the result into
//     a Profile.
//
// GitHub and Google differ only in endpoints, scopes, and the shape of
// the user-info response, so one struct with a small parse function per
// provider covers both.
type Provider struct {
	name        string
	config      *oauth2.Config
	userInfoURL string
	parse       func(body []byte) (*Profile, error)
}

// NewGitHubProvider creates a Provider for GitHub OAuth.
//
// Scopes: "read:user" (public profile) and "user:email". GitHub lets
// users hide their email entirely; in that case the profile comes back
// without one and Exchange fails — we need an email to anchor the account.
func NewGitHubProvider(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		name: "github",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"read:user", "user:email"},
			Endpoint:     github.Endpoint,
		},
		userInfoURL: "https://api.github.com/user",
		parse:       parseGitHubUser,
	}
}

// NewGoogleProvider creates a Provider for Google OAuth.
func NewGoogleProvider(clientID, clientSecret, callbackURL string) *Provider {
	return &Provider{
		name: "google",
		config: &oauth2.Config{
			ClientID:     clientID,
			ClientSecret: clientSecret,
			RedirectURL:  callbackURL,
			Scopes:       []string{"openid", "email", "profile"},
			Endpoint:     google.Endpoint,
		},
		userInfoURL: "https://www.googleapis.com/oauth2/v2/userinfo",
		parse:       parseGoogleUser,
	}
}

// Name returns the provider's short name ("github", "google"), used in
// route paths and oauth_accounts rows.
func (p *Provider) Name() string {
	return p.name
}

// AuthURL returns the URL to redirect the user to for authorization.
//
// The state parameter is a random string we store in a cookie before
// redirecting; the callback handler verifies the provider echoes it back.
// That proves the flow started here and not on an attacker's page (CSRF).
func (p *Provider) AuthURL(state string) string {
	return p.config.AuthCodeURL(state, oauth2.AccessTypeOnline)
}

// Exchange completes the OAuth flow: trades the authorization code for a
// normalized user Profile.
func (p *Provider) Exchange(ctx context.Context, code string) (*Profile, error) {
	oauthToken, err := p.config.Exchange(ctx, code)
	if err != nil {
		return nil, fmt.Errorf("auth: exchanging OAuth code with %s: %w", p.name, err)
	}

	// Config.Client returns an *http.Client that attaches the Bearer
	// token to every request.
	client := p.config.Client(ctx, oauthToken)

	resp, err := client.Get(p.userInfoURL)
	if err != nil {
		return nil, fmt.Errorf("auth: calling %s user API: %w", p.name, err)
	}
	defer resp.Body.Close()

	if resp.StatusCode != http.StatusOK {
		return nil, fmt.Errorf("auth: %s user API returned status %d", p.name, resp.StatusCode)
	}

	body, err := io.ReadAll(resp.Body)
	if err != nil {
		return nil, fmt.Errorf("auth: reading %s user response: %w", p.name, err)
	}

	profile, err := p.parse(body)
	if err != nil {
		return nil, err
	}

	if profile.ProviderAccountID == "" {
		return nil, fmt.Errorf("auth: %s returned an invalid user (no ID)", p.name)
	}
	if profile.Email == "" {
		// Accounts are keyed by email for linking; a hidden email means we
		// can't safely create or match one.
		return nil, fmt.Errorf("auth: %s did not supply an email address", p.name)
	}

	return profile, nil
}

func parseGitHubUser(body []byte) (*Profile, error) {
	// GitHub returns a large object; we only unmarshal what we need.
	var gh struct {
		ID    int64  `json:"id"`
		Login string `json:"login"`
		Name  string `json:"name"`
		Email string `json:"email"`
	}
	if err := json.Unmarshal(body, &gh); err != nil {
		return nil, fmt.Errorf("auth: decoding GitHub user response: %w", err)
	}

	name := gh.Name
	if name == "" {
		name = gh.Login
	}

	return &Profile{
		Provider:          "github",
		ProviderAccountID: strconv.FormatInt(gh.ID, 10),
		Email:             gh.Email,
		Name:              name,
	}, nil
}

func parseGoogleUser(body []byte) (*Profile, error) {
	var g struct {
		ID    string `json:"id"`
		Email string `json:"email"`
		Name  string `json:"name"`
	}
	if err := json.Unmarshal(body, &g); err != nil {
		return nil, fmt.Errorf("auth: decoding Google user response: %w", err)
	}

	return &Profile{
		Provider:          "google",
		ProviderAccountID: g.ID,
		Email:             g.Email,
		Name:              g.Name,
	}, nil
}
