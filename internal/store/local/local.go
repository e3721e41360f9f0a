// Package local provides a device-local SQLite-backed document store used
// for guest sessions. It implements the same store interfaces as the remote
// Postgres backend so the autosave engine is agnostic to which one it holds.
package local

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"
	"os"
	"path/filepath"
	"time"

	"github.com/google/uuid"
	_ "modernc.org/sqlite" // SQLite driver

	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/types"
)

// GuestUserID marks records created without an authenticated session.
const GuestUserID = "guest"

const schema = `
CREATE TABLE IF NOT EXISTS resumes (
	id          TEXT PRIMARY KEY,
	user_id     TEXT NOT NULL,
	title       TEXT NOT NULL,
	template    TEXT NOT NULL DEFAULT '',
	data        TEXT NOT NULL,
	created_at  TEXT NOT NULL,
	updated_at  TEXT NOT NULL
);
CREATE INDEX IF NOT EXISTS idx_resumes_user_updated ON resumes (user_id, updated_at DESC);
`

// Store is a SQLite-backed document store under the user's data directory.
type Store struct {
	db   *sql.DB
	path string
}

// NewStore opens (or creates) the local store. If dataDir is empty, defaults
// to ~/.resume-studio/data/resumes.db.
func NewStore(dataDir string) (*Store, error) {
	if dataDir == "" {
		home, err := os.UserHomeDir()
		if err != nil {
			return nil, fmt.Errorf("getting home directory: %w", err)
		}
		dataDir = filepath.Join(home, ".resume-studio", "data")
	}

	if err := os.MkdirAll(dataDir, 0700); err != nil {
		return nil, fmt.Errorf("creating data directory: %w", err)
	}

	dbPath := filepath.Join(dataDir, "resumes.db")

	// WAL mode so a save in flight never blocks a concurrent read
	db, err := sql.Open("sqlite", dbPath+"?_pragma=journal_mode(WAL)&_pragma=busy_timeout(5000)")
	if err != nil {
		return nil, fmt.Errorf("opening database: %w", err)
	}

	if _, err := db.Exec(schema); err != nil {
		db.Close()
		return nil, fmt.Errorf("initializing schema: %w", err)
	}

	return &Store{db: db, path: dbPath}, nil
}

// Close closes the database connection.
func (s *Store) Close() error {
	return s.db.Close()
}

// Path returns the database file path.
func (s *Store) Path() string {
	return s.path
}

// Create inserts a new empty resume. userID is recorded as given; guest
// sessions pass GuestUserID.
func (s *Store) Create(ctx context.Context, userID, title, template string) (*store.Record, error) {
	if userID == "" {
		userID = GuestUserID
	}

	data, err := json.Marshal(types.ResumeData{})
	if err != nil {
		return nil, fmt.Errorf("marshaling empty resume: %w", err)
	}

	now := time.Now().UTC()
	rec := store.Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Template:  template,
		CreatedAt: now,
		UpdatedAt: now,
	}

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, user_id, title, template, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		rec.ID, rec.UserID, rec.Title, rec.Template, string(data),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("creating resume: %w", err)
	}
	return &rec, nil
}

// Read loads a resume by ID. Returns store.ErrNotFound if absent.
func (s *Store) Read(ctx context.Context, id string) (*store.Record, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT id, user_id, title, template, data, created_at, updated_at
		 FROM resumes WHERE id = ?`,
		id,
	)
	rec, err := scanRecord(row)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, store.ErrNotFound
		}
		return nil, fmt.Errorf("reading resume: %w", err)
	}
	return rec, nil
}

// Write persists the record under its ID. A full-disk or quota failure
// surfaces as an ordinary write error; callers treat it the same as a remote
// write failure.
func (s *Store) Write(ctx context.Context, id string, rec store.Record) error {
	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("marshaling resume data: %w", err)
	}

	res, err := s.db.ExecContext(ctx,
		`UPDATE resumes SET title = ?, data = ?, updated_at = ? WHERE id = ?`,
		rec.Title, string(data), rec.UpdatedAt.UTC().Format(time.RFC3339Nano), id,
	)
	if err != nil {
		return fmt.Errorf("saving resume: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("saving resume: %w", err)
	}
	if n == 0 {
		return store.ErrNotFound
	}
	return nil
}

// List returns all resumes owned by userID, most recently updated first.
func (s *Store) List(ctx context.Context, userID string) ([]store.Record, error) {
	if userID == "" {
		userID = GuestUserID
	}

	rows, err := s.db.QueryContext(ctx,
		`SELECT id, user_id, title, template, data, created_at, updated_at
		 FROM resumes WHERE user_id = ?
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("listing resumes: %w", err)
	}
	defer rows.Close()

	var records []store.Record
	for rows.Next() {
		rec, err := scanRecord(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning resume: %w", err)
		}
		records = append(records, *rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating resumes: %w", err)
	}
	return records, nil
}

// Delete removes a resume. Deleting an absent resume is not an error.
func (s *Store) Delete(ctx context.Context, id string) error {
	if _, err := s.db.ExecContext(ctx, `DELETE FROM resumes WHERE id = ?`, id); err != nil {
		return fmt.Errorf("deleting resume: %w", err)
	}
	return nil
}

// Duplicate copies an existing resume under a new ID with a "(Copy)" title.
func (s *Store) Duplicate(ctx context.Context, id string) (*store.Record, error) {
	src, err := s.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	data, err := json.Marshal(src.Data)
	if err != nil {
		return nil, fmt.Errorf("marshaling resume data: %w", err)
	}

	now := time.Now().UTC()
	dup := *src
	dup.ID = uuid.New().String()
	dup.Title = src.Title + " (Copy)"
	dup.CreatedAt = now
	dup.UpdatedAt = now

	_, err = s.db.ExecContext(ctx,
		`INSERT INTO resumes (id, user_id, title, template, data, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?)`,
		dup.ID, dup.UserID, dup.Title, dup.Template, string(data),
		now.Format(time.RFC3339Nano), now.Format(time.RFC3339Nano),
	)
	if err != nil {
		return nil, fmt.Errorf("duplicating resume: %w", err)
	}
	return &dup, nil
}

// scanner abstracts *sql.Row and *sql.Rows for scanRecord.
type scanner interface {
	Scan(dest ...any) error
}

func scanRecord(row scanner) (*store.Record, error) {
	var rec store.Record
	var data, createdAt, updatedAt string
	if err := row.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Template, &data, &createdAt, &updatedAt); err != nil {
		return nil, err
	}
	if err := json.Unmarshal([]byte(data), &rec.Data); err != nil {
		return nil, fmt.Errorf("unmarshaling resume data: %w", err)
	}
	var err error
	if rec.CreatedAt, err = time.Parse(time.RFC3339Nano, createdAt); err != nil {
		return nil, fmt.Errorf("parsing created_at: %w", err)
	}
	if rec.UpdatedAt, err = time.Parse(time.RFC3339Nano, updatedAt); err != nil {
		return nil, fmt.Errorf("parsing updated_at: %w", err)
	}
	return &rec, nil
}
