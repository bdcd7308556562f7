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

const (
	MaxSnippetTitleLength = 200
	MaxLanguageLength     = 50
	MaxCodeLength         = 100000 // ~100KB of code
	MaxTagsPerSnippet     = 20
	MaxTagNameLength      = 50
)

// SnippetService handles snippet CRUD and tag association.
//
// Membership is re-verified on every operation by resolving the snippet's
// collection to its workspace — same policy as CollectionService, one
// level deeper.
type SnippetService struct {
	snippets    repository.SnippetRepository
	collections repository.CollectionRepository
	workspaces  repository.WorkspaceRepository
	logger      *slog.Logger
}

// NewSnippetService creates a SnippetService.
func NewSnippetService(
	snippets repository.SnippetRepository,
	collections repository.CollectionRepository,
	workspaces repository.WorkspaceRepository,
	logger *slog.Logger,
) *SnippetService {
	return &SnippetService{
		snippets:    snippets,
		collections: collections,
		workspaces:  workspaces,
		logger:      logger,
	}
}

// CreateSnippetInput carries the fields for a new snippet.
type CreateSnippetInput struct {
	Title        string
	Description  string
	Code         string
	Language     string
	CollectionID string
	Tags         []string
}

// UpdateSnippetInput carries a partial update. Nil pointer = "leave this
// field alone"; a non-nil pointer to an empty string clears the field
// (for Description). Tags, when non-nil, fully replace the existing set.
type UpdateSnippetInput struct {
	Title       *string
	Description *string
	Code        *string
	Language    *string
	Tags        *[]string
}

// ListByCollection returns the collection's snippets for a member.
func (s *SnippetService) ListByCollection(ctx context.Context, collectionID, userID string) ([]model.Snippet, error) {
	collectionID = strings.TrimSpace(collectionID)
	if collectionID == "" {
		return nil, apperror.ValidationFailed("collectionId", "collection ID is required")
	}

	if err := s.requireCollectionMembership(ctx, collectionID, userID, "collection", collectionID); err != nil {
		return nil, err
	}

	snippets, err := s.snippets.ListSnippetsByCollection(ctx, collectionID)
	if err != nil {
		s.logger.Error("failed to list snippets",
			slog.String("collectionID", collectionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("listing snippets: %w", err)
	}

	return snippets, nil
}

// Get returns one snippet with its tags, for a member.
func (s *SnippetService) Get(ctx context.Context, id, userID string) (*model.Snippet, error) {
	return s.getForMember(ctx, id, userID)
}

// Create validates and saves a new snippet, connecting-or-creating its tags.
func (s *SnippetService) Create(ctx context.Context, userID string, in CreateSnippetInput) (*model.Snippet, error) {
	title := strings.TrimSpace(in.Title)
	if title == "" {
		return nil, apperror.ValidationFailed("title", "snippet title is required")
	}
	if len(title) > MaxSnippetTitleLength {
		return nil, apperror.ValidationFailed("title",
			fmt.Sprintf("snippet title must be %d characters or less", MaxSnippetTitleLength))
	}
	if in.Code == "" {
		return nil, apperror.ValidationFailed("code", "snippet code is required")
	}
	if len(in.Code) > MaxCodeLength {
		return nil, apperror.ValidationFailed("code",
			fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
	}
	language := strings.TrimSpace(in.Language)
	if language == "" {
		return nil, apperror.ValidationFailed("language", "snippet language is required")
	}
	if len(language) > MaxLanguageLength {
		return nil, apperror.ValidationFailed("language",
			fmt.Sprintf("language must be %d characters or less", MaxLanguageLength))
	}
	collectionID := strings.TrimSpace(in.CollectionID)
	if collectionID == "" {
		return nil, apperror.ValidationFailed("collectionId", "collection ID is required")
	}

	tags, err := normalizeTags(in.Tags)
	if err != nil {
		return nil, err
	}

	if err := s.requireCollectionMembership(ctx, collectionID, userID, "collection", collectionID); err != nil {
		return nil, err
	}

	snippet := &model.Snippet{
		Title:        title,
		Description:  strings.TrimSpace(in.Description),
		Code:         in.Code,
		Language:     language,
		CollectionID: collectionID,
	}

	if err := s.snippets.CreateSnippet(ctx, snippet, tags); err != nil {
		s.logger.Error("failed to create snippet",
			slog.String("collectionID", collectionID),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("creating snippet: %w", err)
	}

	s.logger.Info("snippet created",
		slog.String("id", snippet.ID),
		slog.String("collectionID", collectionID),
	)

	return snippet, nil
}

// Update applies a partial update. Concurrent edits to the same snippet
// are last-write-wins; there is no version check.
func (s *SnippetService) Update(ctx context.Context, id, userID string, in UpdateSnippetInput) (*model.Snippet, error) {
	snippet, err := s.getForMember(ctx, id, userID)
	if err != nil {
		return nil, err
	}

	if in.Title != nil {
		title := strings.TrimSpace(*in.Title)
		if title == "" {
			return nil, apperror.ValidationFailed("title", "snippet title cannot be empty")
		}
		if len(title) > MaxSnippetTitleLength {
			return nil, apperror.ValidationFailed("title",
				fmt.Sprintf("snippet title must be %d characters or less", MaxSnippetTitleLength))
		}
		snippet.Title = title
	}

	if in.Description != nil {
		// Explicit empty string clears the description.
		snippet.Description = strings.TrimSpace(*in.Description)
	}

	if in.Code != nil {
		if *in.Code == "" {
			return nil, apperror.ValidationFailed("code", "snippet code cannot be empty")
		}
		if len(*in.Code) > MaxCodeLength {
			return nil, apperror.ValidationFailed("code",
				fmt.Sprintf("code must be %d characters or less", MaxCodeLength))
		}
		snippet.Code = *in.Code
	}

	if in.Language != nil {
		language := strings.TrimSpace(*in.Language)
		if language == "" {
			return nil, apperror.ValidationFailed("language", "snippet language cannot be empty")
		}
		if len(language) > MaxLanguageLength {
			return nil, apperror.ValidationFailed("language",
				fmt.Sprintf("language must be %d characters or less", MaxLanguageLength))
		}
		snippet.Language = language
	}

	var tags []string
	replaceTags := in.Tags != nil
	if replaceTags {
		tags, err = normalizeTags(*in.Tags)
		if err != nil {
			return nil, err
		}
	}

	if err := s.snippets.UpdateSnippet(ctx, snippet, tags, replaceTags); err != nil {
		s.logger.Error("failed to update snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return nil, fmt.Errorf("updating snippet: %w", err)
	}

	s.logger.Info("snippet updated", slog.String("id", id))

	return snippet, nil
}

// Delete removes a snippet, for a member.
func (s *SnippetService) Delete(ctx context.Context, id, userID string) error {
	if _, err := s.getForMember(ctx, id, userID); err != nil {
		return err
	}

	if err := s.snippets.DeleteSnippet(ctx, id); err != nil {
		s.logger.Error("failed to delete snippet",
			slog.String("id", id),
			slog.String("error", err.Error()),
		)
		return fmt.Errorf("deleting snippet: %w", err)
	}

	s.logger.Info("snippet deleted", slog.String("id", id))
	return nil
}

// getForMember fetches a snippet and verifies the caller belongs to the
// workspace it lives in (snippet → collection → workspace).
func (s *SnippetService) getForMember(ctx context.Context, id, userID string) (*model.Snippet, error) {
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, apperror.ValidationFailed("id", "snippet ID is required")
	}

	snippet, err := s.snippets.GetSnippetByID(ctx, id)
	if err != nil {
		return nil, err
	}

	if err := s.requireCollectionMembership(ctx, snippet.CollectionID, userID, "snippet", id); err != nil {
		return nil, err
	}

	return snippet, nil
}

// requireCollectionMembership resolves a collection to its workspace and
// checks the caller's membership. Non-members get NotFound for the
// resource they asked about, never Forbidden.
func (s *SnippetService) requireCollectionMembership(ctx context.Context, collectionID, userID, resource, resourceID string) error {
	c, err := s.collections.GetCollectionByID(ctx, collectionID)
	if err != nil {
		return err
	}

	member, err := s.workspaces.IsMember(ctx, c.WorkspaceID, userID)
	if err != nil {
		return fmt.Errorf("checking workspace membership: %w", err)
	}
	if !member {
		return apperror.NotFound(resource, resourceID)
	}
	return nil
}

// normalizeTags trims, drops empties, and deduplicates tag names while
// preserving order. Tag names are case-sensitive ("Go" and "go" are
// different tags) — matching the unique index on the raw name.
func normalizeTags(tags []string) ([]string, error) {
	if len(tags) > MaxTagsPerSnippet {
		return nil, apperror.ValidationFailed("tags",
			fmt.Sprintf("a snippet may have at most %d tags", MaxTagsPerSnippet))
	}

	seen := make(map[string]struct{}, len(tags))
	normalized := make([]string, 0, len(tags))
	for _, tag := range tags {
		tag = strings.TrimSpace(tag)
		if tag == "" {
			continue
		}
		if len(tag) > MaxTagNameLength {
			return nil, apperror.ValidationFailed("tags",
				fmt.Sprintf("tag names must be %d characters or less", MaxTagNameLength))
		}
		if _, ok := seen[tag]; ok {
			continue
		}
		seen[tag] = struct{}{}
		normalized = append(normalized, tag)
	}

	return normalized, nil
}
