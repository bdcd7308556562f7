package service

import (
	"context"
	"fmt"
	"log/slog"
	"strings"

	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/model"
	"github.com/sakif/snippetvault/internal/repository"
)

const MaxCollectionNameLength = 100

// CollectionService handles collection CRUD within a workspace.
//
// Every operation re-verifies workspace membership by walking the
// collection up to its workspace. The collection routes never trust the
// caller just because they presented a valid collection id — ids are
// guessable, membership is not.
type CollectionService struct {
	collections repository.CollectionRepository
	workspaces  repository.WorkspaceRepository
	logger      *slog.Logger
}

// NewCollectionService creates a CollectionService.
func NewCollectionService(
	collections repository.CollectionRepository,
	workspaces repository.WorkspaceRepository,
	logger *slog.Logger,
) *CollectionService {
	return &CollectionService{
		collections: collections,
		workspaces:  workspaces,
		logger:      logger,
	}
}

// ListByWorkspace returns the workspace's collections for a member.
func (s *CollectionService) ListByWorkspace(ctx context.Context, workspaceID, userID string) ([]model.Collection, error) {
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return nil, apperror.ValidationFailed("workspaceId", "workspace ID is required")
	}

	if err := s.requireMembership(ctx, workspaceID, userID, "workspace", workspaceID); err != nil {
		return nil, err
	}

	collections, err := s.collections.ListCollectionsByWorkspace(ctx, workspaceID)
	if err != nil {
		s.logger.Error("failed to list collections",
			slog.String("workspaceID", workspaceID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing collections: %w", err)
	}

	return collections, nil
}

// Create validates and saves a new collection in the workspace.
func (s *CollectionService) Create(ctx context.Context, userID, name, workspaceID string) (*model.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "collection name is required")
	}
	if len(name) > MaxCollectionNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("collection name must be %d characters or less", MaxCollectionNameLength))
	}
	workspaceID = strings.TrimSpace(workspaceID)
	if workspaceID == "" {
		return nil, apperror.ValidationFailed("workspaceId", "workspace ID is required")
	}

	if err := s.requireMembership(ctx, workspaceID, userID, "workspace", workspaceID); err != nil {
		return nil, err
	}

	c := &model.Collection{
		Name:        name,
		WorkspaceID: workspaceID,
	}

	if err := s.collections.CreateCollection(ctx, c); err != nil {
		s.logger.Error("failed to create collection",
			slog.String("workspaceID", workspaceID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating collection: %w", err)
	}

	s.logger.Info("collection created",
		slog.String("id", c.ID),
		slog.String("workspaceID", workspaceID),
	)

	return c, nil
}

// Rename changes a collection's name. Any workspace member may rename.
func (s *CollectionService) Rename(ctx context.Context, id, userID, name string) (*model.Collection, error) {
	name = strings.TrimSpace(name)
	if name == "" {
		return nil, apperror.ValidationFailed("name", "collection name is required")
	}
	if len(name) > MaxCollectionNameLength {
		return nil, apperror.ValidationFailed("name",
			fmt.Sprintf("collection name must be %d characters or less", MaxCollectionNameLength))
	}

	c, err := s.getForMember(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	c.Name = name
	if err := s.collections.UpdateCollection(ctx, c); err != nil {
		s.logger.Error("failed to rename collection",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("renaming collection: %w", err)
	}

	s.logger.Info("collection renamed", slog.String("id", id))

	return c, nil
}

// Delete removes the collection and its snippets (one transaction in the
// repository). Any workspace member may delete.
func (s *CollectionService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.getForMember(ctx, id, userID); err != nil {
		return err
	}

	if err := s.collections.DeleteCollection(ctx, id); err != nil {
		s.logger.Error("failed to delete collection",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting collection: %w", err)
	}

	s.logger.Info("collection deleted", slog.String("id", id))
	return nil
}

// getForMember fetches a collection and verifies the caller belongs to
// its workspace. Non-members get NotFound for the collection itself — the
// membership check must not confirm the id exists.
func (s *CollectionService) getForMember(ctx context.Context, id, userID string) (*model.Collection, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "collection ID is required")
	}

	c, err := s.collections.GetCollectionByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireMembership(ctx, c.WorkspaceID, userID, "collection", id); err != nil {
		return nil, err
	}

	return c, nil
}

// requireMembership hides resource existence from non-members by
// returning NotFound for the named resource rather than Forbidden.
func (s *CollectionService) requireMembership(ctx context.Context, workspaceID, userID, resource, resourceID string) error {
	member, err := s.workspaces.IsMember(ctx, workspaceID, userID)
	if err != nil {
		return fmt.Errorf("checking workspace membership: %w", err)
	}
	if !member {
		return apperror.NotFound(resource, resourceID)
	}
	return nil
}
