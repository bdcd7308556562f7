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

var _ repository.WorkspaceRepository = (*DB)(nil)

// CreateWorkspace inserts a new workspace owned by ws.OwnerID.
func (db *DB) CreateWorkspace(ctx context.Context, ws *model.Workspace) error {
	ws.ID = xid.New().String()
	now := time.Now()
	ws.CreatedAt = now
	ws.UpdatedAt = now

	_, err := db.conn.ExecContext(ctx,
		`INSERT INTO workspaces (id, name, owner_id, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?)`,
		ws.ID,
		ws.Name,
		ws.OwnerID,
		ws.CreatedAt,
		ws.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("sqlite: creating workspace: %w", err)
	}

	return nil
}

// GetWorkspaceByID retrieves a workspace with its owner and members
// loaded. Share responses include both lists, so this does the extra two
// queries here rather than making every caller assemble them.
func (db *DB) GetWorkspaceByID(ctx context.Context, id string) (*model.Workspace, error) {
	var ws model.Workspace

	err := db.conn.QueryRowContext(ctx,
		`SELECT id, name, owner_id, created_at, updated_at
		 FROM workspaces WHERE id = ?`,
		id,
	).Scan(
		&ws.ID,
		&ws.Name,
		&ws.OwnerID,
		&ws.CreatedAt,
		&ws.UpdatedAt,
	)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, apperror.NotFound("workspace", id)
		}
		return nil, fmt.Errorf("sqlite: getting workspace %s: %w", id, err)
	}

	owner, err := db.GetUserByID(ctx, ws.OwnerID)
	if err != nil {
		return nil, fmt.Errorf("sqlite: loading workspace %s owner: %w", id, err)
	}
	ws.Owner = owner

	members, err := db.listMembers(ctx, ws.ID)
	if err != nil {
		return nil, err
	}
	ws.Members = members

	return &ws, nil
}

// ListWorkspacesForUser returns every workspace the user owns plus every
// workspace shared with them, newest first.
//
// The UNION keeps it one round trip. A workspace can't appear in both
// arms because the service rejects sharing a workspace with its own owner.
func (db *DB) ListWorkspacesForUser(ctx context.Context, userID string) ([]model.Workspace, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT w.id, w.name, w.owner_id, w.created_at, w.updated_at
		 FROM workspaces w
		 WHERE w.owner_id = ?
		 UNION
		 SELECT w.id, w.name, w.owner_id, w.created_at, w.updated_at
		 FROM workspaces w
		 JOIN workspace_members m ON m.workspace_id = w.id
		 WHERE m.user_id = ?
		 ORDER BY created_at DESC`,
		userID, userID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing workspaces for user %s: %w", userID, err)
	}
	defer rows.Close()

	workspaces := []model.Workspace{}
	for rows.Next() {
		var ws model.Workspace
		if err := rows.Scan(&ws.ID, &ws.Name, &ws.OwnerID, &ws.CreatedAt, &ws.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning workspace row: %w", err)
		}
		workspaces = append(workspaces, ws)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating workspaces: %w", err)
	}

	return workspaces, nil
}

// UpdateWorkspace writes the workspace's mutable fields (name).
// RowsAffected == 0 means the WHERE matched nothing → not found.
func (db *DB) UpdateWorkspace(ctx context.Context, ws *model.Workspace) error {
	ws.UpdatedAt = time.Now()

	result, err := db.conn.ExecContext(ctx,
		`UPDATE workspaces SET name = ?, updated_at = ? WHERE id = ?`,
		ws.Name,
		ws.UpdatedAt,
		ws.ID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: updating workspace %s: %w", ws.ID, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("workspace", ws.ID)
	}

	return nil
}

// DeleteWorkspace removes the workspace and every descendant row in one
// transaction.
//
// CASCADE ORDER:
// snippet_tags → snippets → collections → workspace_members → workspace.
// Children go first so foreign keys never dangle mid-transaction. Because
// it is one transaction, a failure at any step rolls the whole cascade
// back — there is no state where snippets are gone but the workspace remains.
func (db *DB) DeleteWorkspace(ctx context.Context, id string) error {
	tx, err := db.conn.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("sqlite: beginning delete transaction: %w", err)
	}
	// Rollback after a successful Commit is a harmless no-op.
	defer tx.Rollback()

	_, err = tx.ExecContext(ctx,
		`DELETE FROM snippet_tags WHERE snippet_id IN (
			SELECT s.id FROM snippets s
			JOIN collections c ON c.id = s.collection_id
			WHERE c.workspace_id = ?
		)`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting workspace %s snippet tags: %w", id, err)
	}

	_, err = tx.ExecContext(ctx,
		`DELETE FROM snippets WHERE collection_id IN (
			SELECT id FROM collections WHERE workspace_id = ?
		)`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting workspace %s snippets: %w", id, err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM collections WHERE workspace_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting workspace %s collections: %w", id, err)
	}

	if _, err = tx.ExecContext(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = ?`, id); err != nil {
		return fmt.Errorf("sqlite: deleting workspace %s members: %w", id, err)
	}

	result, err := tx.ExecContext(ctx, `DELETE FROM workspaces WHERE id = ?`, id)
	if err != nil {
		return fmt.Errorf("sqlite: deleting workspace %s: %w", id, err)
	}

	rowsAffected, err := result.RowsAffected()
	if err != nil {
		return fmt.Errorf("sqlite: checking rows affected: %w", err)
	}
	if rowsAffected == 0 {
		return apperror.NotFound("workspace", id)
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("sqlite: committing workspace %s delete: %w", id, err)
	}

	return nil
}

// IsMember reports whether the user owns the workspace or is in its
// shared-with relation. EXISTS keeps it a single indexed lookup.
func (db *DB) IsMember(ctx context.Context, workspaceID, userID string) (bool, error) {
	var exists int
	err := db.conn.QueryRowContext(ctx,
		`SELECT EXISTS (
			SELECT 1 FROM workspaces WHERE id = ? AND owner_id = ?
			UNION
			SELECT 1 FROM workspace_members WHERE workspace_id = ? AND user_id = ?
		)`,
		workspaceID, userID, workspaceID, userID,
	).Scan(&exists)
	if err != nil {
		return false, fmt.Errorf("sqlite: checking membership of %s in %s: %w", userID, workspaceID, err)
	}
	return exists == 1, nil
}

// AddMember adds a user to the workspace's shared-with relation.
// INSERT OR IGNORE makes sharing idempotent.
func (db *DB) AddMember(ctx context.Context, workspaceID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`INSERT OR IGNORE INTO workspace_members (workspace_id, user_id, created_at)
		 VALUES (?, ?, ?)`,
		workspaceID, userID, time.Now(),
	)
	if err != nil {
		return fmt.Errorf("sqlite: adding member %s to workspace %s: %w", userID, workspaceID, err)
	}
	return nil
}

// RemoveMember removes a user from the shared-with relation.
// Removing a non-member affects zero rows — unshare is a no-op then.
func (db *DB) RemoveMember(ctx context.Context, workspaceID, userID string) error {
	_, err := db.conn.ExecContext(ctx,
		`DELETE FROM workspace_members WHERE workspace_id = ? AND user_id = ?`,
		workspaceID, userID,
	)
	if err != nil {
		return fmt.Errorf("sqlite: removing member %s from workspace %s: %w", userID, workspaceID, err)
	}
	return nil
}

// listMembers loads the users the workspace is shared with, in share order.
func (db *DB) listMembers(ctx context.Context, workspaceID string) ([]model.User, error) {
	rows, err := db.conn.QueryContext(ctx,
		`SELECT u.id, u.email, u.name, u.password_hash, u.created_at, u.updated_at
		 FROM users u
		 JOIN workspace_members m ON m.user_id = u.id
		 WHERE m.workspace_id = ?
		 ORDER BY m.created_at`,
		workspaceID,
	)
	if err != nil {
		return nil, fmt.Errorf("sqlite: listing members of workspace %s: %w", workspaceID, err)
	}
	defer rows.Close()

	members := []model.User{}
	for rows.Next() {
		var u model.User
		if err := rows.Scan(&u.ID, &u.Email, &u.Name, &u.PasswordHash, &u.CreatedAt, &u.UpdatedAt); err != nil {
			return nil, fmt.Errorf("sqlite: scanning member row: %w", err)
		}
		members = append(members, u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("sqlite: iterating members: %w", err)
	}

	return members, nil
}
