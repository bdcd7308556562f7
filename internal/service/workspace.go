package service

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/model"
	"github.com/sakif/snippetvault/internal/repository"
)

const MaxWorkspaceNameLength = 100

// WorkspaceService handles workspace CRUD and sharing.
//
// AUTHORIZATION POLICY (enforced here, not in handlers):
//   - Reading a workspace requires membership (owner or shared-with).
//     Non-members get NotFound, not Forbidden — a 403 would confirm the
//     workspace exists, which is itself a leak.
//   - Renaming, deleting, sharing, and unsharing are owner-only. A member
//     who is not the owner gets Forbidden for those.
type WorkspaceService struct {
	workspaces repository.WorkspaceRepository
	users      repository.UserRepository
	logger     *slog.Logger
}

// NewWorkspaceService creates a WorkspaceService.
func NewWorkspaceService(
	workspaces repository.WorkspaceRepository,
	users repository.UserRepository,
	logger *slog.Logger,
) *WorkspaceService {
	return &WorkspaceService{
		workspaces: workspaces,
		users:      users,
		logger:     logger,
	}
}

// List returns the workspaces the user owns or has been given access to.
func (s *WorkspaceService) List(ctx context.Context, userID string) ([]model.Workspace, error) {
	workspaces, err := s.workspaces.ListWorkspacesForUser(ctx, userID)
	if err != nil {
		s.logger.Error("failed to list workspaces",
			slog.String("userID", userID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing workspaces: %w", err)
	}
	return workspaces, nil
}

// Get returns one workspace with its owner and member lists, if the
// caller is a member.
func (s *WorkspaceService) Get(ctx context.Context, id, userID string) (*model.Workspace, error) {
	ws, err := s.getForMember(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	return ws, nil
}

// Create validates and saves a new workspace owned by the caller.
func (s *WorkspaceService) Create(ctx context.Context, userID, name string) (*model.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "workspace name is required")
	}
	if len(name) > MaxWorkspaceNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("workspace name must be %d characters or less", MaxWorkspaceNameLength))
	}

	ws := &model.Workspace{
		Name:    name,
		OwnerID: userID,
	}

	if err := s.workspaces.CreateWorkspace(ctx, ws); err != nil {
		s.logger.Error("failed to create workspace",
			slog.String("name", name),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating workspace: %w", err)
	}

	s.logger.Info("workspace created",
		slog.String("id", ws.ID),
		slog.String("ownerID", userID),
	)

	return ws, nil
}

// Rename changes the workspace name. Owner-only.
func (s *WorkspaceService) Rename(ctx context.Context, id, userID, name string) (*model.Workspace, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "workspace name is required")
	}
	if len(name) > MaxWorkspaceNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("workspace name must be %d characters or less", MaxWorkspaceNameLength))
	}

	ws, err := s.getForOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	ws.Name = name
	if err := s.workspaces.UpdateWorkspace(ctx, ws); err != nil {
		s.logger.Error("failed to rename workspace",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("renaming workspace: %w", err)
	}

	s.logger.Info("workspace renamed", slog.String("id", id))

	return ws, nil
}

// Delete removes the workspace and everything in it. Owner-only.
// The repository runs the cascade in one transaction, so a failure can't
// leave orphaned collections or snippets behind.
func (s *WorkspaceService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.getForOwner(ctx, id, userID); err != nil {
		return err
	}

	if err := s.workspaces.DeleteWorkspace(ctx, id); err != nil {
		s.logger.Error("failed to delete workspace",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting workspace: %w", err)
	}

	s.logger.Info("workspace deleted", slog.String("id", id))
	return nil
}

// Share gives the account registered under email access to the workspace.
// Owner-only. There is no invitation flow: an email with no account is a
// NotFound, and the share list is untouched. Sharing is idempotent.
func (s *WorkspaceService) Share(ctx context.Context, id, userID, email string) (*model.Workspace, error) {
	ws, err := s.getForOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	target, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user with email", email)
		}
		return nil, fmt.Errorf("sharing workspace %s: %w", id, err)
	}

	if target.ID == ws.OwnerID {
		return nil, apperror.ValidationFailed("email", "cannot share a workspace with its owner")
	}

	if err := s.workspaces.AddMember(ctx, id, target.ID); err != nil {
		s.logger.Error("failed to share workspace",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("sharing workspace %s: %w", id, err)
	}

	s.logger.Info("workspace shared",
		slog.String("id", id),
		slog.String("withUserID", target.ID),
	)

	// Return the workspace with the updated member list.
	return s.workspaces.GetWorkspaceByID(ctx, id)
}

// Unshare revokes a collaborator's access. Owner-only. Removing someone
// who isn't a collaborator is a no-op.
func (s *WorkspaceService) Unshare(ctx context.Context, id, userID, email string) (*model.Workspace, error) {
	_, err := s.getForOwner(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	email = normalizeEmail(email)
	if email == "" {
		return nil, apperror.ValidationFailed("email", "email is required")
	}

	target, err := s.users.GetUserByEmail(ctx, email)
	if err != nil {
		if errors.Is(err, apperror.ErrNotFound) {
			return nil, apperror.NotFound("user with email", email)
		}
		return nil, fmt.Errorf("unsharing workspace %s: %w", id, err)
	}

	if err := s.workspaces.RemoveMember(ctx, id, target.ID); err != nil {
		s.logger.Error("failed to unshare workspace",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("unsharing workspace %s: %w", id, err)
	}

	s.logger.Info("workspace unshared",
		slog.String("id", id),
		slog.String("fromUserID", target.ID),
	)

	return s.workspaces.GetWorkspaceByID(ctx, id)
}

// getForMember fetches the workspace and hides it from non-members.
func (s *WorkspaceService) getForMember(ctx context.Context, id, userID string) (*model.Workspace, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "workspace ID is required")
	}

	ws, err := s.workspaces.GetWorkspaceByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if !isMemberOf(ws, userID) {
		return nil, apperror.NotFound("workspace", id)
	}

	return ws, nil
}

// getForOwner fetches the workspace for an owner-only operation:
// non-members see NotFound, members who aren't the owner see Forbidden.
func (s *WorkspaceService) getForOwner(ctx context.Context, id, userID string) (*model.Workspace, error) {
	ws, err := s.getForMember(ctx, id, userID)
	if err != nil {
		return nil, err
	}
	if ws.OwnerID != userID {
		return nil, apperror.Forbidden("only the workspace owner may do this")
	}
	return ws, nil
}

// isMemberOf checks a loaded workspace's owner and member list.
func isMemberOf(ws *model.Workspace, userID string) bool {
	if ws.OwnerID == userID {
		return true
	}
	for _, m := range ws.Members {
		if m.ID == userID {
			return true
		}
	}
	return false
}
