package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"strings"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/model"
	"github.com/sakif/snippetvault/internal/repository"
)

// Compile-time check that *DB implements repository.UserRepository.
// `var _ X = (*Y)(nil)` fails the build immediately if a method is missing,
// instead of at the first call site that passes *DB as the interface.
var _ repository.UserRepository = (*DB)(nil)

// CreateUser inserts a new user. Email uniqueness is enforced by the
// schema; a duplicate insert is translated to apperror.ErrConflict so the
// handler can return 409 without sniffing driver error strings upstream.
func (db *DB) CreateUser(ctx context.Context, user *model.User) error {
	user.ID = xid.New().String()
	now := time.Now()
	user.CreatedAt = now
	user.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO users (id, email, name, password_hash, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?)`,
		user.ID,
		user.Email,
		user.Name,
		user.PasswordHash,
		user.CreatedAt,
		user.UpdatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return apperror.Conflict("user", "email already in use")
		}
		return fmt.Errorf("sqlite: creating user: %w", err)
	}

	return nil
}

// GetUserByID retrieves a user by their internal ID.
func (db *DB) GetUserByID(ctx context.Context, id string) (*model.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM users WHERE id = ?`, id), "user", id)
}

// GetUserByEmail retrieves a user by email. Emails are stored lowercase;
// the service normalizes before calling.
func (db *DB) GetUserByEmail(ctx context.Context, email string) (*model.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx,
		`SELECT id, email, name, password_hash, created_at, updated_at
		 FROM users WHERE email = ?`, email), "user", email)
}

// GetUserByOAuth finds the user linked to a (provider, providerAccountID) pair.
func (db *DB) GetUserByOAuth(ctx context.Context, provider, providerAccountID string) (*model.User, error) {
	return scanUser(db.conn.QueryRowContext(ctx,
		`SELECT u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		 FROM users u
		 JOIN oauth_accounts oa ON oa.user_id = u.id
		 WHERE oa.provider = ? AND oa.provider_account_id = ?`,
		provider, providerAccountID), "user", provider+":"+providerAccountID)
}

// LinkOAuth records that a provider account belongs to a local user.
// INSERT OR IGNORE makes re-linking the same pair a no-op, so repeated
// OAuth logins don't accumulate rows or trip the unique constraint.
func (db *DB) LinkOAuth(ctx context.Context, userID, provider, providerAccountID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO oauth_accounts (id, user_id, provider, provider_account_id, created_at)
		 VALUES (?, ?, ?, ?, ?)`,
		xid.New().String(),
		userID,
		provider,
		providerAccountID,
		time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: linking oauth account (%s): %w", provider, err)
	}
	return nil
}

// scanUser reads one user row, translating sql.ErrNoRows to NotFound.
func scanUser(row *sql.Row, resource, key string) (*model.User, error) {
	var u model.User
	err := row.Scan(
		&u.ID,
		&u.Email,
		&u.Name,
		&u.PasswordHash,
		&u.CreatedAt,
		&u.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound(resource, key)
		}
		return nil, fmt.Errorf("sqlite: getting %s %s: %w", resource, key, err)
	}
	return &u, nil
}

// isUniqueViolation reports whether err is a SQLite UNIQUE constraint
// failure. modernc.org/sqlite exposes the extended error message but not
// a typed error, so we match the constant prefix SQLite uses.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
