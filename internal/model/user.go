// Package model defines the data structures used throughout the application.
// In Go, we use structs to represent our data — similar to classes in other languages,
// but without inheritance. Go favours composition over inheritance.
package model

import "time"

// User represents a registered account.
//
// A user can sign up with email + password (credential account) or arrive
// via an OAuth provider, in which case PasswordHash stays empty. One user
// row may have several linked OAuthAccount rows — signing in with GitHub
// and Google using the same email lands on the same User.
//
// WHY `json:"-"` ON PasswordHash?
// The handlers serialize model.User directly in responses. The dash tag
// tells encoding/json to never emit the field, so the bcrypt hash cannot
// leak through any endpoint, even ones added later.
type User struct {
	ID           string    `json:"id"        db:"id"`
	Email        string    `json:"email"     db:"email"`
	Name         string    `json:"name"      db:"name"` // Optional display name (may be empty)
	PasswordHash string    `json:"-"         db:"password_hash"`
	CreatedAt    time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt" db:"updated_at"`
}

// OAuthAccount links a User to one external identity provider account.
//
// The (Provider, ProviderAccountID) pair is unique: a given GitHub or
// Google account can be linked to exactly one local user.
type OAuthAccount struct {
	ID                string    `json:"id"                db:"id"`
	UserID            string    `json:"userId"            db:"user_id"`
	Provider          string    `json:"provider"          db:"provider"`            // "github" or "google"
	ProviderAccountID string    `json:"providerAccountId" db:"provider_account_id"` // the provider's stable user ID
	CreatedAt         time.Time `json:"createdAt"         db:"created_at"`
}
