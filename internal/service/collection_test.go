package service

import (
	"context"
	"errors"
	"strings"
	"testing"

	"github.com/sakif/snippetvault/internal/apperror"
)

func newTestCollectionService(t *testing.T) (*CollectionService, *mockCollectionRepo, *mockWorkspaceRepo) {
	t.Helper()
	collections := newMockCollectionRepo()
	workspaces := newMockWorkspaceRepo()
	svc := NewCollectionService(collections, workspaces, newTestLogger())
	return svc, collections, workspaces
}

func TestCollectionCreate_Success(t *testing.T) {
	svc, _, workspaces := newTestCollectionService(t)
	ws := seedWorkspace(t, workspaces, "owner-1")

	c, err := svc.Create(context.Background(), "owner-1", "Algorithms", ws.ID)
	if err != nil {
		t.Fatalf("Create() error = %v", err)
	}
	if c.ID == "" {
		t.Error("expected collection to have an ID")
	}
	if c.WorkspaceID != ws.ID {
		t.Errorf("WorkspaceID = %q, want %q", c.WorkspaceID, ws.ID)
	}
}

// Any workspace member may create collections, not just the owner.
func TestCollectionCreate_SharedMemberAllowed(t *testing.T) {
	svc, _, workspaces := newTestCollectionService(t)
	ws := seedWorkspace(t, workspaces, "owner-1")
	if err := workspaces.AddMember(context.Background(), ws.ID, "friend"); err != nil {
		t.Fatalf("AddMember: %v", err)
	}

	if _, err := svc.Create(context.Background(), "friend", "Shared Notes", ws.ID); err != nil {
		t.Errorf("Create() by shared member error = %v", err)
	}
}

func TestCollectionCreate_NonMemberSeesNotFound(t *testing.T) {
	svc, _, workspaces := newTestCollectionService(t)
	ws := seedWorkspace(t, workspaces, "owner-1")

	_, err := svc.Create(context.Background(), "stranger", "Sneaky", ws.ID)
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Create() by non-member error = %v, want ErrNotFound", err)
	}
}

func TestCollectionCreate_Validation(t *testing.T) {
	svc, _, workspaces := newTestCollectionService(t)
	ws := seedWorkspace(t, workspaces, "owner-1")

	cases := []struct {
		name        string
		collName    string
		workspaceID string
	}{
		{"empty name", "  ", ws.ID},
		{"name too long", strings.Repeat("a", MaxCollectionNameLength+1), ws.ID},
		{"empty workspace id", "ok", ""},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			_, err := svc.Create(context.Background(), "owner-1", tt.collName, tt.workspaceID)
			if !errors.Is(err, apperror.ErrValidation) {
				t.Errorf("Create() error = %v, want ErrValidation", err)
			}
		})
	}
}

func TestCollectionRename(t *testing.T) {
	svc, _, workspaces := newTestCollectionService(t)
	ws := seedWorkspace(t, workspaces, "owner-1")
	c, err := svc.Create(context.Background(), "owner-1", "before", ws.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	got, err := svc.Rename(context.Background(), c.ID, "owner-1", "after")
	if err != nil {
		t.Fatalf("Rename() error = %v", err)
	}
	if got.Name != "after" {
		t.Errorf("Name = %q, want %q", got.Name, "after")
	}

	// Non-members can't even learn the collection exists.
	if _, err := svc.Rename(context.Background(), c.ID, "stranger", "nope"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Rename() by non-member error = %v, want ErrNotFound", err)
	}
}

func TestCollectionListByWorkspace_NonMemberSeesNotFound(t *testing.T) {
	svc, _, workspaces := newTestCollectionService(t)
	ws := seedWorkspace(t, workspaces, "owner-1")

	_, err := svc.ListByWorkspace(context.Background(), ws.ID, "stranger")
	if !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("ListByWorkspace() by non-member error = %v, want ErrNotFound", err)
	}
}

func TestCollectionDelete(t *testing.T) {
	svc, collections, workspaces := newTestCollectionService(t)
	ws := seedWorkspace(t, workspaces, "owner-1")
	c, err := svc.Create(context.Background(), "owner-1", "doomed", ws.ID)
	if err != nil {
		t.Fatalf("Create: %v", err)
	}

	if err := svc.Delete(context.Background(), c.ID, "stranger"); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("Delete() by non-member error = %v, want ErrNotFound", err)
	}

	if err := svc.Delete(context.Background(), c.ID, "owner-1"); err != nil {
		t.Fatalf("Delete() error = %v", err)
	}
	if _, err := collections.GetCollectionByID(context.Background(), c.ID); !errors.Is(err, apperror.ErrNotFound) {
		t.Errorf("collection still present after delete, error = %v", err)
	}
}
