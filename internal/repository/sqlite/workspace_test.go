package sqlite

import (
	"context"
	"errors"
	"fmt"
	"testing"

	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/model"
)

// newTestDB creates a fresh in-memory database for one test. With
// ":memory:" every pool connection would get its own empty database, so
// the pool is pinned to a single connection.
func newTestDB(t *testing.T) *DB {
	t.Helper()
	db, err := New(":memory:")
	if err != nil {
		t.Fatalf("failed to create test db: %v", err)
	}
	db.conn.SetMaxOpenConns(1)
	t.Cleanup(func() { db.Close() })
	return db
}

func createTestUser(t *testing.T, db *DB, email string) *model.User {
	t.Helper()
	user := &model.User{Email: email, Name: "Test User"}
	if err := db.CreateUser(context.Background(), user); err != nil {
		t.Fatalf("failed to create test user: %v", err)
	}
	return user
}

func createTestWorkspace(t *testing.T, db *DB, name, ownerID string) *model.Workspace {
	t.Helper()
	ws := &model.Workspace{Name: name, OwnerID: ownerID}
	if err := db.CreateWorkspace(context.Background(), ws); err != nil {
		t.Fatalf("failed to create test workspace: %v", err)
	}
	return ws
}

// =========================================================================
// CREATE / GET TESTS
// =========================================================================

func TestCreateWorkspace(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")

	ws := &model.Workspace{Name: "My Workspace", OwnerID: owner.ID}
	if err := db.CreateWorkspace(context.Background(), ws); err != nil {
		t.Fatalf("CreateWorkspace() error = %v", err)
	}

	if ws.ID == "" {
		t.Error("CreateWorkspace() did not set ws.ID")
	}
	if ws.CreatedAt.IsZero() {
		t.Error("CreateWorkspace() did not set ws.CreatedAt")
	}
}

func TestGetWorkspaceByID_LoadsOwnerAndMembers(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	friend := createTestUser(t, db, "friend@example.com")
	ws := createTestWorkspace(t, db, "Shared", owner.ID)

	if err := db.AddMember(context.Background(), ws.ID, friend.ID); err != nil {
		t.Fatalf("AddMember() error = %v", err)
	}

	found, err := db.GetWorkspaceByID(context.Background(), ws.ID)
	if err != nil {
		t.Fatalf("GetWorkspaceByID() error = %v", err)
	}

	if found.Owner == nil || found.Owner.ID != owner.ID {
		t.Errorf("Owner not loaded, got %+v", found.Owner)
	}
	if len(found.Members) != 1 || found.Members[0].ID != friend.ID {
		t.Errorf("Members = %+v, want exactly the shared user", found.Members)
	}
}

func TestGetWorkspaceByID_NotFound(t *testing.T) {
	db := newTestDB(t)

	_, err := db.GetWorkspaceByID(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("GetWorkspaceByID() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// LIST TESTS
// =========================================================================

func TestListWorkspacesForUser_OwnedAndShared(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	alice := createTestUser(t, db, "alice@example.com")
	bob := createTestUser(t, db, "bob@example.com")

	owned := createTestWorkspace(t, db, "Alice's Own", alice.ID)
	shared := createTestWorkspace(t, db, "Bob's Shared", bob.ID)
	createTestWorkspace(t, db, "Bob's Private", bob.ID)

	if err := db.AddMember(ctx, shared.ID, alice.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	workspaces, err := db.ListWorkspacesForUser(ctx, alice.ID)
	if err != nil {
		t.Fatalf("ListWorkspacesForUser() error = %v", err)
	}

	if len(workspaces) != 2 {
		t.Fatalf("ListWorkspacesForUser() returned %d workspaces, want 2", len(workspaces))
	}
	ids := map[string]bool{workspaces[0].ID: true, workspaces[1].ID: true}
	if !ids[owned.ID] || !ids[shared.ID] {
		t.Errorf("expected owned %s and shared %s, got %v", owned.ID, shared.ID, ids)
	}
}

func TestListWorkspacesForUser_Empty(t *testing.T) {
	db := newTestDB(t)
	user := createTestUser(t, db, "lonely@example.com")

	workspaces, err := db.ListWorkspacesForUser(context.Background(), user.ID)
	if err != nil {
		t.Fatalf("ListWorkspacesForUser() error = %v", err)
	}
	if len(workspaces) != 0 {
		t.Errorf("got %d workspaces, want 0", len(workspaces))
	}
}

// =========================================================================
// UPDATE / DELETE TESTS
// =========================================================================

func TestUpdateWorkspace(t *testing.T) {
	db := newTestDB(t)
	owner := createTestUser(t, db, "owner@example.com")
	ws := createTestWorkspace(t, db, "before", owner.ID)

	ws.Name = "after"
	if err := db.UpdateWorkspace(context.Background(), ws); err != nil {
		t.Fatalf("UpdateWorkspace() error = %v", err)
	}

	found, err := db.GetWorkspaceByID(context.Background(), ws.ID)
	if err != nil {
		t.Fatalf("GetWorkspaceByID() error = %v", err)
	}
	if found.Name != "after" {
		t.Errorf("Name = %q, want %q", found.Name, "after")
	}
}

func TestUpdateWorkspace_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.UpdateWorkspace(context.Background(), &model.Workspace{ID: "nonexistent", Name: "x"})
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("UpdateWorkspace() error = %v, want ErrNotFound", err)
	}
}

// TestDeleteWorkspace_Cascades builds a full tree (workspace → collection →
// snippet → tags, plus a member) and verifies the delete leaves no
// descendant rows behind.
func TestDeleteWorkspace_Cascades(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	friend := createTestUser(t, db, "friend@example.com")
	ws := createTestWorkspace(t, db, "doomed", owner.ID)

	if err := db.AddMember(ctx, ws.ID, friend.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	c := &model.Collection{Name: "col", WorkspaceID: ws.ID}
	if err := db.CreateCollection(ctx, c); err != nil {
		t.Fatalf("CreateCollection: %v", err)
	}

	s := &model.Snippet{Title: "snip", Code: "x", Language: "go", CollectionID: c.ID}
	if err := db.CreateSnippet(ctx, s, []string{"go", "http"}); err != nil {
		t.Fatalf("CreateSnippet: %v", err)
	}

	if err := db.DeleteWorkspace(ctx, ws.ID); err != nil {
		t.Fatalf("DeleteWorkspace() error = %v", err)
	}

	// Every descendant table must be empty for this workspace.
	counts := map[string]string{
		"workspaces":        `SELECT COUNT(*) FROM workspaces WHERE id = ?`,
		"workspace_members": `SELECT COUNT(*) FROM workspace_members WHERE workspace_id = ?`,
		"collections":       `SELECT COUNT(*) FROM collections WHERE workspace_id = ?`,
	}
	for table, query := range counts {
		var n int
		if err := db.conn.QueryRowContext(ctx, query, ws.ID).Scan(&n); err != nil {
			t.Fatalf("counting %s: %v", table, err)
		}
		if n != 0 {
			t.Errorf("%s still has %d rows after workspace delete", table, n)
		}
	}

	var snippetCount int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippets WHERE collection_id = ?`, c.ID).Scan(&snippetCount); err != nil {
		t.Fatalf("counting snippets: %v", err)
	}
	if snippetCount != 0 {
		t.Errorf("snippets still has %d rows after workspace delete", snippetCount)
	}

	var linkCount int
	if err := db.conn.QueryRowContext(ctx,
		`SELECT COUNT(*) FROM snippet_tags WHERE snippet_id = ?`, s.ID).Scan(&linkCount); err != nil {
		t.Fatalf("counting snippet_tags: %v", err)
	}
	if linkCount != 0 {
		t.Errorf("snippet_tags still has %d rows after workspace delete", linkCount)
	}

	// Tag rows survive — they're global.
	var tagCount int
	if err := db.conn.QueryRowContext(ctx, `SELECT COUNT(*) FROM tags`).Scan(&tagCount); err != nil {
		t.Fatalf("counting tags: %v", err)
	}
	if tagCount != 2 {
		t.Errorf("tags = %d rows, want 2 (tags are shared, not cascade-deleted)", tagCount)
	}
}

func TestDeleteWorkspace_NotFound(t *testing.T) {
	db := newTestDB(t)

	err := db.DeleteWorkspace(context.Background(), "nonexistent")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("DeleteWorkspace() error = %v, want ErrNotFound", err)
	}
}

// =========================================================================
// MEMBERSHIP TESTS
// =========================================================================

func TestIsMember(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	friend := createTestUser(t, db, "friend@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")
	ws := createTestWorkspace(t, db, "club", owner.ID)

	if err := db.AddMember(ctx, ws.ID, friend.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	tests := []struct {
		name   string
		userID string
		want   bool
	}{
		{"owner is a member", owner.ID, true},
		{"shared user is a member", friend.ID, true},
		{"stranger is not a member", stranger.ID, false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			got, err := db.IsMember(ctx, ws.ID, tt.userID)
			if err != nil {
				t.Fatalf("IsMember() error = %v", err)
			}
			if got != tt.want {
				t.Errorf("IsMember() = %v, want %v", got, tt.want)
			}
		})
	}
}

func TestAddMember_Idempotent(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	friend := createTestUser(t, db, "friend@example.com")
	ws := createTestWorkspace(t, db, "club", owner.ID)

	// Share twice; the second call must be a no-op, not an error.
	for i := 0; i < 2; i++ {
		if err := db.AddMember(ctx, ws.ID, friend.ID); err != nil {
			t.Fatalf("AddMember() call %d error = %v", i+1, err)
		}
	}

	found, err := db.GetWorkspaceByID(ctx, ws.ID)
	if err != nil {
		t.Fatalf("GetWorkspaceByID: %v", err)
	}
	if len(found.Members) != 1 {
		t.Errorf("Members has %d entries after double share, want 1", len(found.Members))
	}
}

func TestRemoveMember_NonMemberIsNoOp(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	stranger := createTestUser(t, db, "stranger@example.com")
	ws := createTestWorkspace(t, db, "club", owner.ID)

	if err := db.RemoveMember(ctx, ws.ID, stranger.ID); err != nil {
		t.Errorf("RemoveMember() of non-member error = %v, want nil", err)
	}
}

func TestRemoveMember_RevokesAccess(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	friend := createTestUser(t, db, "friend@example.com")
	ws := createTestWorkspace(t, db, "club", owner.ID)

	if err := db.AddMember(ctx, ws.ID, friend.ID); err != nil {
		t.Fatalf("AddMember: %v", err)
	}
	if err := db.RemoveMember(ctx, ws.ID, friend.ID); err != nil {
		t.Fatalf("RemoveMember: %v", err)
	}

	member, err := db.IsMember(ctx, ws.ID, friend.ID)
	if err != nil {
		t.Fatalf("IsMember: %v", err)
	}
	if member {
		t.Error("IsMember() = true after RemoveMember, want false")
	}
}

// Sanity check that multiple workspaces stay isolated from one another.
func TestWorkspaces_AreIsolated(t *testing.T) {
	db := newTestDB(t)
	ctx := context.Background()

	owner := createTestUser(t, db, "owner@example.com")
	var ids []string
	for i := 0; i < 3; i++ {
		ws := createTestWorkspace(t, db, fmt.Sprintf("ws-%d", i), owner.ID)
		ids = append(ids, ws.ID)
	}

	if err := db.DeleteWorkspace(ctx, ids[1]); err != nil {
		t.Fatalf("DeleteWorkspace: %v", err)
	}

	remaining, err := db.ListWorkspacesForUser(ctx, owner.ID)
	if err != nil {
		t.Fatalf("ListWorkspacesForUser: %v", err)
	}
	if len(remaining) != 2 {
		t.Errorf("got %d workspaces after deleting one of three, want 2", len(remaining))
	}
}
