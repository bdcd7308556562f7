package model

import "time"

// Workspace is the top-level container for collections and snippets.
// It is owned by exactly one user and may be shared with others
// (the Members slice — a many-to-many relation in the database).
//
// Owner and Members are populated only by lookups that ask for them
// (workspace detail, share responses); list queries leave them nil to
// avoid N+1 loading. `omitempty` keeps them out of the JSON when unset.
type Workspace struct {
	ID        string    `json:"id"        db:"id"`
	Name      string    `json:"name"      db:"name"`
	OwnerID   string    `json:"ownerId"   db:"owner_id"`
	CreatedAt time.Time `json:"createdAt" db:"created_at"`
	UpdatedAt time.Time `json:"updatedAt" db:"updated_at"`

	Owner   *User  `json:"owner,omitempty"`
	Members []User `json:"sharedWith,omitempty"`
}

// Collection is a named grouping of snippets inside one workspace.
type Collection struct {
	ID          string    `json:"id"          db:"id"`
	Name        string    `json:"name"        db:"name"`
	WorkspaceID string    `json:"workspaceId" db:"workspace_id"`
	CreatedAt   time.Time `json:"createdAt"   db:"created_at"`
	UpdatedAt   time.Time `json:"updatedAt"   db:"updated_at"`
}
