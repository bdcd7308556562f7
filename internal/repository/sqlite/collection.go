package sqlite

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"github.com/rs/xid"
	"github.com/sakif/snippetvault/internal/apperror"
	"github.com/sakif/snippetvault/internal/model"
	"github.com/sakif/snippetvault/internal/repository"
)

var _ repository.CollectionRepository = (*DB)(nil)

// CreateCollection inserts a new collection into its workspace.
func (db *DB) CreateCollection(ctx context.Context, c *model.Collection) error {
	c.ID = xid.New().String()
	now := time.Now()
	c.CreatedAt = now
	c.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO collections (id, name, workspace_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		c.ID,
		c.Name,
		c.WorkspaceID,
		c.CreatedAt,
		c.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating collection: %w", err)
	}

	return nil
}

// GetCollectionByID retrieves a single collection.
func (db *DB) GetCollectionByID(ctx context.Context, id string) (*model.Collection, error) {
	var c model.Collection

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, workspace_id, created_at, updated_at
		 FROM collections WHERE id = ?`,
		id,
	).Scan(
		&c.ID,
		&c.Name,
		&c.WorkspaceID,
		&c.CreatedAt,
		&c.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("collection", id)
		}
		return nil, fmt.Errorf("sqlite: getting collection %s: %w", id, err)
	}

	return &c, nil
}

// ListCollectionsByWorkspace returns the workspace's collections, oldest first
// (creation order is the natural display order in the sidebar).
func (db *DB) ListCollectionsByWorkspace(ctx context.Context, workspaceID string) ([]model.Collection, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, name, workspace_id, created_at, updated_at
		 FROM collections
		 WHERE workspace_id = ?
		 ORDER BY created_at`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing collections for workspace %s: %w", workspaceID, err)
	}
	defer rows.Close()

	collections := []model.Collection{}
	for rows.Next() {
		var c model.Collection
		if err := rows.Scan(&c.ID, &c.Name, &c.WorkspaceID, &c.CreatedAt, &c.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning collection row: %w", err)
		}
		collections = append(collections, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating collections: %w", err)
	}

	return collections, nil
}

// UpdateCollection writes the collection's mutable fields (name).
func (db *DB) UpdateCollection(ctx context.Context, c *model.Collection) error {
	c.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE collections SET name = ?, updated_at = ? WHERE id = ?`,
		c.Name,
		c.UpdatedAt,
		c.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating collection %s: %w", c.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("collection", c.ID)
	}

	return nil
}

// DeleteCollection removes the collection together with its snippets and
// their tag links, all in one transaction. Same cascade discipline as
// DeleteWorkspace, one level down.
func (db *DB) DeleteCollection(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id IN (
			SELECT id FROM snippets WHERE collection_id = ?
		)`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting collection %s snippet tags: %w", id, err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM snippets WHERE collection_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting collection %s snippets: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM collections WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting collection %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("collection", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing collection %s delete: %w", id, err)
	}

	return nil
}
