package model

import "time"

// Snippet represents a saved code snippet inside a collection.
type Snippet struct {
	ID           string    `json:"id"           db:"id"`
	Title        string    `json:"title"        db:"title"`
	Description  string    `json:"description"  db:"description"`
	Code         string    `json:"code"         db:"code"`
	Language     string    `json:"language"     db:"language"`
	CollectionID string    `json:"collectionId" db:"collection_id"`
	CreatedAt    time.Time `json:"createdAt"    db:"created_at"`
	UpdatedAt    time.Time `json:"updatedAt"    db:"updated_at"`

	// Tags are always loaded with the snippet (empty slice, never nil,
	// so the JSON renders as [] rather than null).
	Tags []Tag `json:"tags"`
}

// Tag is a label shared across snippets, globally unique by name.
type Tag struct {
	ID   string `json:"id"   db:"id"`
	Name string `json:"name" db:"name"`
}
