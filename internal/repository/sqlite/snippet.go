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

var _ repository.SnippetRepository = (*DB)(nil)

// CreateSnippet inserts a snippet and connects-or-creates its tags in a
// single transaction.
//
// TAG CONNECT-OR-CREATE:
// Tags are globally unique by name. Two requests creating snippets with an
// overlapping new tag name could race: both check "does 'auth' exist?",
// both see no, both insert, one fails. We avoid the race entirely with an
// atomic upsert — `INSERT ... ON CONFLICT(name) DO NOTHING` followed by a
// SELECT of the (now guaranteed to exist) row. The database serializes the
// conflict; no duplicate tag rows can appear.
func (db *DB) CreateSnippet(ctx context.Context, snippet *model.Snippet, tags []string) error {
	snippet.ID = xid.New().String()
	now := time.Now()
	snippet.CreatedAt = now
	snippet.UpdatedAt = now

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snippet create: %w", err)
	}
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`INSERT INTO snippets (id, title, description, code, language, collection_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		snippet.ID,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		snippet.CollectionID,
		snippet.CreatedAt,
		snippet.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating snippet: %w", err)
	}

	resolved, err := upsertTags(ctx, tx, tags)
	if err != nil {
		return err
	}
	if err := linkTags(ctx, tx, snippet.ID, resolved); err != nil {
		return err
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet create: %w", err)
	}

	snippet.Tags = resolved
	return nil
}

// GetSnippetByID retrieves a snippet with its tags loaded.
func (db *DB) GetSnippetByID(ctx context.Context, id string) (*model.Snippet, error) {
	var s model.Snippet

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, title, description, code, language, collection_id, created_at, updated_at
		 FROM snippets WHERE id = ?`,
		id,
	).Scan(
		&s.ID,
		&s.Title,
		&s.Description,
		&s.Code,
		&s.Language,
		&s.CollectionID,
		&s.CreatedAt,
		&s.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("snippet", id)
		}
		return nil, fmt.Errorf("sqlite: getting snippet %s: %w", id, err)
	}

	tags, err := db.listSnippetTags(ctx, s.ID)
	if err != nil {
		return nil, err
	}
	s.Tags = tags

	return &s, nil
}

// ListSnippetsByCollection returns the collection's snippets, newest
// first, each with its tags.
func (db *DB) ListSnippetsByCollection(ctx context.Context, collectionID string) ([]model.Snippet, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT id, title, description, code, language, collection_id, created_at, updated_at
		 FROM snippets
		 WHERE collection_id = ?
		 ORDER BY created_at DESC`,
		collectionID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing snippets for collection %s: %w", collectionID, err)
	}
	defer rows.Close()

	snippets := []model.Snippet{}
	for rows.Next() {
		var s model.Snippet
		if err := rows.Scan(
			&s.ID, &s.Title, &s.Description, &s.Code, &s.Language,
			&s.CollectionID, &s.CreatedAt, &s.UpdatedAt,
		); err != nil {
			return nil, fmt.Errorf("sqlite: scanning snippet row: %w", err)
		}
		snippets = append(snippets, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating snippets: %w", err)
	}

	// Attach tags after the rows are fully consumed — a second query per
	// snippet while iterating would hold two connections from the pool.
	for i := range snippets {
		tags, err := db.listSnippetTags(ctx, snippets[i].ID)
		if err != nil {
			return nil, err
		}
		snippets[i].Tags = tags
	}

	return snippets, nil
}

// UpdateSnippet writes the snippet's scalar fields and, when replaceTags
// is set, swaps the tag set for the given names — one transaction for the
// whole thing, so a failed tag write never leaves a half-updated snippet.
func (db *DB) UpdateSnippet(ctx context.Context, snippet *model.Snippet, tags []string, replaceTags bool) error {
	snippet.UpdatedAt = time.Now()

	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snippet update: %w", err)
	}
	defer tx.Rollback()

	result, err := tx.ExecContext(ctx,
		`UPDATE snippets
		 SET title = ?, description = ?, code = ?, language = ?, updated_at = ?
		 WHERE id = ?`,
		snippet.Title,
		snippet.Description,
		snippet.Code,
		snippet.Language,
		snippet.UpdatedAt,
		snippet.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating snippet %s: %w", snippet.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", snippet.ID)
	}

	if replaceTags {
		// "set: []" semantics — clear the old links, then connect-or-create
		// the new names.
		if _, err := tx.ExecContext(ctx,
			`DELETE FROM snippet_tags WHERE snippet_id = ?`, snippet.ID); err != nil {
			return fmt.Errorf("sqlite: clearing snippet %s tags: %w", snippet.ID, err)
		}

		resolved, err := upsertTags(ctx, tx, tags)
		if err != nil {
			return err
		}
		if err := linkTags(ctx, tx, snippet.ID, resolved); err != nil {
			return err
		}
		snippet.Tags = resolved
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet %s update: %w", snippet.ID, err)
	}

	if !replaceTags {
		tags, err := db.listSnippetTags(ctx, snippet.ID)
		if err != nil {
			return err
		}
		snippet.Tags = tags
	}

	return nil
}

// DeleteSnippet removes a snippet and its tag links. Tag rows themselves
// are kept — tags are shared across snippets and cheap to retain.
func (db *DB) DeleteSnippet(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning snippet delete: %w", err)
	}
	defer tx.Rollback()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s tags: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM snippets WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting snippet %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("snippet", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing snippet %s delete: %w", id, err)
	}

	return nil
}

// upsertTags resolves tag names to tag rows inside the given transaction,
// creating missing ones. Names arrive pre-trimmed and deduplicated from
// the service layer.
func upsertTags(ctx context.Context, tx *sql.Tx, names []string) ([]model.Tag, error) {
	resolved := make([]model.Tag, 0, len(names))

	for _, name := range names {
		// Atomic connect-or-create: the unique index on tags.name decides
		// the winner under concurrency; DO NOTHING means losing is fine.
		_, err := tx.ExecContext(ctx,
			`INSERT INTO tags (id, name) VALUES (?, ?)
			 ON CONFLICT(name) DO NOTHING`,
			xid.New().String(), name,
		)
		if err != nil {
			return nil, fmt.Errorf("sqlite: upserting tag %q: %w", name, err)
		}

		var t model.Tag
		err = tx.QueryRowContext(ctx,
			`SELECT id, name FROM tags WHERE name = ?`, name,
		).Scan(&t.ID, &t.Name)
		if err != nil {
			return nil, fmt.Errorf("sqlite: resolving tag %q: %w", name, err)
		}

		resolved = append(resolved, t)
	}

	return resolved, nil
}

// linkTags connects a snippet to each tag. INSERT OR IGNORE tolerates
// duplicate names slipping through in the same request.
func linkTags(ctx context.Context, tx *sql.Tx, snippetID string, tags []model.Tag) error {
	for _, t := range tags {
		if _, err := tx.ExecContext(ctx,
			`INSERT OR IGNORE INTO snippet_tags (snippet_id, tag_id) VALUES (?, ?)`,
			snippetID, t.ID,
		); err != nil {
			return fmt.Errorf("sqlite: linking snippet %s to tag %s: %w", snippetID, t.Name, err)
		}
	}
	return nil
}

// listSnippetTags loads a snippet's tags in name order.
func (db *DB) listSnippetTags(ctx context.Context, snippetID string) ([]model.Tag, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT t.id, t.name
		 FROM tags t
		 JOIN snippet_tags st ON st.tag_id = t.id
		 WHERE st.snippet_id = ?
		 ORDER BY t.name`,
		snippetID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing tags for snippet %s: %w", snippetID, err)
	}
	defer rows.Close()

	tags := []model.Tag{}
	for rows.Next() {
		var t model.Tag
		if err := rows.Scan(&t.ID, &t.Name); err != nil {
			return nil, fmt.Errorf("sqlite: scanning tag row: %w", err)
		}
		tags = append(tags, t)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating tags: %w", err)
	}

	return tags, nil
}
