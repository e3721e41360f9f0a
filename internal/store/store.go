// Package store provides durable persistence of resume documents.
package store

import (
	"context"
	"errors"
	"time"

	"github.com/jonathan/resume-studio/internal/types"
)

// ErrNotFound is returned when a document does not exist in the store.
var ErrNotFound = errors.New("document not found")

// Record is a stored resume document with its metadata.
type Record struct {
	ID        string           `json:"id"`
	UserID    string           `json:"user_id"`
	Title     string           `json:"title"`
	Template  string           `json:"template,omitempty"`
	Data      types.ResumeData `json:"data"`
	CreatedAt time.Time        `json:"created_at"`
	UpdatedAt time.Time        `json:"updated_at"`
}

// DocumentStore is the capability the autosave engine writes through. The
// backend is chosen once per session; the engine never branches on which
// implementation it holds.
type DocumentStore interface {
	// Read loads a document by ID. Returns ErrNotFound if absent.
	Read(ctx context.Context, id string) (*Record, error)
	// Write persists the record under its ID, creating or replacing it.
	Write(ctx context.Context, id string, rec Record) error
}

// ResumeStore extends DocumentStore with the management operations the API
// exposes outside the autosave path.
type ResumeStore interface {
	DocumentStore

	// Create inserts a new empty document owned by userID and returns it.
	Create(ctx context.Context, userID, title, template string) (*Record, error)
	// List returns all documents owned by userID, most recently updated first.
	List(ctx context.Context, userID string) ([]Record, error)
	// Delete removes a document. Deleting an absent document is not an error.
	Delete(ctx context.Context, id string) error
	// Duplicate copies an existing document under a new ID and title.
	Duplicate(ctx context.Context, id string) (*Record, error)
}
