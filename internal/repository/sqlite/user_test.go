package sqlite

import (
	"context"
	"errors"
	"testing"

	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/model"
)

func TestCreateUser(t *testing.T) {
	db := newTestDB(t)

	user := &model.User{Email: "ada@example.com", Name: "Ada", PasswordHash: "hash"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("CreateUser() error = %v", err)
	}

	if user.ID == "" {
		t.Error("CreateUser() did not set user.ID")
	}
	if user.CreatedAt.IsZero() {
		t.Error("CreateUser() did not set user.CreatedAt")
	}
}

func TestCreateUser_DuplicateEmail(t *testing.T) {
	db := newTestDB(t)
	createTestUser(t, db, "taken@example.com")

	err := db.CreateUser(context.Background(), &model.User{Email: "taken@example.com"})
	if !errors.Is(err, apperror.ErrConflict) {
		t.Errorf("CreateUser() duplicate email error = %v, want ErrConflict", err)
	}
}

func TestGetUserByEmail(t *testing.T) {
	db := newTestDB(t)
	created := createTestUser(t, db, "findme@example.com")

	found, err := db.GetUserByEmail(context.Background(), "findme@example.com")
	if err != nil {
		t.Fatalf("GetUserByEmail() error = %v", err)
	}
	if found.ID != created.ID {
		t.Errorf("ID = %q, want %q", found.ID, created.ID)
	}
}

func TestGetUserByEmail_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByEmail(context.Background(), "nobody@example.com")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByEmail() error = %v, want ErrNotFound", err)
	}
}

func TestGetUserByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// OAUTH LINK TESTS
// =========================================================================

func TestLinkOAuth_AndLookup(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "oauth@example.com")

	if err := db.LinkOAuth(ctx, user.ID, "github", "gh-12345"); err != nil {
		t.Fatalf("LinkOAuth() error = %v", err)
	}

	found, err := db.GetUserByOAuth(ctx, "github", "gh-12345")
	if err != nil {
		t.Fatalf("GetUserByOAuth() error = %v", err)
	}
	if found.ID != user.ID {
		t.Errorf("ID = %q, want %q", found.ID, user.ID)
	}
}

func TestLinkOAuth_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()
	user := createTestUser(t, db, "oauth@example.com")

	// Every repeated OAuth login re-links; it must never error or pile up rows.
	for i := 0; i < 3; i++ {
		if err := db.LinkOAuth(ctx, user.ID, "google", "g-999"); err != nil {
			t.Fatalf("LinkOAuth() call %d error = %v", i+1, err)
		}
	}

	var count int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM oauth_accounts WHERE provider = ? AND provider_account_id = ?`,
		"google", "g-999").Scan(&count); err != nil {
		t.Fatalf("counting oauth_accounts: %v", err)
	}
	if count != 1 {
		t.Errorf("oauth_accounts has %d rows for the pair, want 1", count)
	}
}

func TestGetUserByOAuth_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetUserByOAuth(context.Background(), "github", "unknown")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetUserByOAuth() error = %v, want ErrNotFound", err)
	}
}

// Different providers with the same account ID are distinct identities.
func TestGetUserByOAuth_ProviderScoped(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	ghUser := createTestUser(t, db, "gh@example.com")
	if err := db.LinkOAuth(ctx, ghUser.ID, "github", "acct-1"); err != nil {
		t.Fatalf("LinkOAuth: %v", err)
	}

	if _, err := db.GetUserByOAuth(ctx, "google", "acct-1"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("lookup under wrong provider error = %v, want ErrNotFound", err)
	}
}
