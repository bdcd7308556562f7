// Package repository defines the storage interfaces the service layer
// programs against. The sqlite subpackage provides the implementation;
// service tests substitute in-memory mocks.
//
// Method names carry the entity (CreateUser, CreateWorkspace, ...) because
// a single sqlite.DB implements all four interfaces — one type owning the
// connection pool is what lets cross-entity cascades run in one transaction.
package repository

import (
	"context"

	"github.com/sakif/snippetvault/internal/model"
)

// UserRepository manages account records and their OAuth links.
type UserRepository interface {
	CreateUser(ctx context.Context, user *model.User) error
	GetUserByID(ctx context.Context, id string) (*model.User, error)
	// GetUserByEmail returns apperror.ErrNotFound if no account uses the email.
	GetUserByEmail(ctx context.Context, email string) (*model.User, error)
	// GetUserByOAuth looks a user up by a linked (provider, providerAccountID) pair.
	GetUserByOAuth(ctx context.Context, provider, providerAccountID string) (*model.User, error)
	// LinkOAuth attaches a provider account to an existing user.
	// Linking the same pair twice is a no-op.
	LinkOAuth(ctx context.Context, userID, provider, providerAccountID string) error
}

// WorkspaceRepository manages workspaces and their membership relation.
type WorkspaceRepository interface {
	CreateWorkspace(ctx context.Context, ws *model.Workspace) error
	// GetWorkspaceByID loads the workspace together with its owner and members.
	GetWorkspaceByID(ctx context.Context, id string) (*model.Workspace, error)
	// ListWorkspacesForUser returns workspaces the user owns plus those shared with them.
	ListWorkspacesForUser(ctx context.Context, userID string) ([]model.Workspace, error)
	UpdateWorkspace(ctx context.Context, ws *model.Workspace) error
	// DeleteWorkspace removes the workspace and every descendant row
	// (collections, snippets, tag links, membership) in a single transaction.
	DeleteWorkspace(ctx context.Context, id string) error
	// IsMember reports whether the user owns the workspace or appears in
	// its shared-with relation.
	IsMember(ctx context.Context, workspaceID, userID string) (bool, error)
	// AddMember is idempotent: sharing with an existing member is a no-op.
	AddMember(ctx context.Context, workspaceID, userID string) error
	// RemoveMember of a non-member is a no-op.
	RemoveMember(ctx context.Context, workspaceID, userID string) error
}

// CollectionRepository manages collections within a workspace.
type CollectionRepository interface {
	CreateCollection(ctx context.Context, c *model.Collection) error
	GetCollectionByID(ctx context.Context, id string) (*model.Collection, error)
	ListCollectionsByWorkspace(ctx context.Context, workspaceID string) ([]model.Collection, error)
	UpdateCollection(ctx context.Context, c *model.Collection) error
	// DeleteCollection removes the collection and its snippets (and their
	// tag links) in a single transaction.
	DeleteCollection(ctx context.Context, id string) error
}

// SnippetRepository manages snippets and their tag associations.
type SnippetRepository interface {
	// CreateSnippet inserts the snippet and connects-or-creates the given
	// tag names atomically. snippet.Tags is populated on return.
	CreateSnippet(ctx context.Context, snippet *model.Snippet, tags []string) error
	// GetSnippetByID loads the snippet with its tags.
	GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error)
	ListSnippetsByCollection(ctx context.Context, collectionID string) ([]model.Snippet, error)
	// UpdateSnippet writes the snippet's scalar fields. When replaceTags is
	// true the tag set is fully replaced by the given names
	// (connect-or-create), all within one transaction. snippet.Tags is
	// populated on return.
	UpdateSnippet(ctx context.Context, snippet *model.Snippet, tags []string, replaceTags bool) error
	DeleteSnippet(ctx context.Context, id string) error
}
