package store

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/google/uuid"
	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/jonathan/resume-studio/internal/types"
)

// Postgres is the authenticated durable backend. Documents live in a resumes
// table with the document body as a JSONB column.
type Postgres struct {
	pool *pgxpool.Pool
}

// Connect establishes a connection pool to the database.
func Connect(ctx context.Context, databaseURL string) (*Postgres, error) {
	pool, err := pgxpool.New(ctx, databaseURL)
	if err != nil {
		return nil, fmt.Errorf("failed to connect to database: %w", err)
	}

	// Verify connection
	if err := pool.Ping(ctx); err != nil {
		pool.Close()
		return nil, fmt.Errorf("failed to ping database: %w", err)
	}

	return &Postgres{pool: pool}, nil
}

// Close closes the connection pool.
func (s *Postgres) Close() {
	if s.pool != nil {
		s.pool.Close()
	}
}

// Create inserts a new empty resume owned by userID.
func (s *Postgres) Create(ctx context.Context, userID, title, template string) (*Record, error) {
	data, err := json.Marshal(types.ResumeData{})
	if err != nil {
		return nil, fmt.Errorf("failed to marshal empty resume: %w", err)
	}

	var rec Record
	var raw []byte
	err = s.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, template, data)
		 VALUES ($1, $2, $3, $4)
		 RETURNING id, user_id, title, template, data, created_at, updated_at`,
		userID, title, template, data,
	).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Template, &raw, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		return nil, fmt.Errorf("failed to create resume: %w", err)
	}
	if err := json.Unmarshal(raw, &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume data: %w", err)
	}
	return &rec, nil
}

// Read loads a resume by ID. Returns ErrNotFound if absent.
func (s *Postgres) Read(ctx context.Context, id string) (*Record, error) {
	resumeID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid resume ID %q: %w", id, err)
	}

	var rec Record
	var raw []byte
	err = s.pool.QueryRow(ctx,
		`SELECT id, user_id, title, template, data, created_at, updated_at
		 FROM resumes WHERE id = $1`,
		resumeID,
	).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Template, &raw, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to get resume: %w", err)
	}
	if err := json.Unmarshal(raw, &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume data: %w", err)
	}
	return &rec, nil
}

// Write persists the record under its ID. The write carries the full current
// document snapshot; writes to a given ID are issued sequentially by the
// autosave engine.
func (s *Postgres) Write(ctx context.Context, id string, rec Record) error {
	resumeID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid resume ID %q: %w", id, err)
	}

	data, err := json.Marshal(rec.Data)
	if err != nil {
		return fmt.Errorf("failed to marshal resume data: %w", err)
	}

	tag, err := s.pool.Exec(ctx,
		`UPDATE resumes SET title = $1, data = $2, updated_at = $3 WHERE id = $4`,
		rec.Title, data, rec.UpdatedAt, resumeID,
	)
	if err != nil {
		return fmt.Errorf("failed to save resume: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return ErrNotFound
	}
	return nil
}

// List returns all resumes owned by userID, most recently updated first.
func (s *Postgres) List(ctx context.Context, userID string) ([]Record, error) {
	rows, err := s.pool.Query(ctx,
		`SELECT id, user_id, title, template, data, created_at, updated_at
		 FROM resumes WHERE user_id = $1
		 ORDER BY updated_at DESC`,
		userID,
	)
	if err != nil {
		return nil, fmt.Errorf("failed to list resumes: %w", err)
	}
	defer rows.Close()

	var records []Record
	for rows.Next() {
		var rec Record
		var raw []byte
		if err := rows.Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Template, &raw, &rec.CreatedAt, &rec.UpdatedAt); err != nil {
			return nil, fmt.Errorf("failed to scan resume: %w", err)
		}
		if err := json.Unmarshal(raw, &rec.Data); err != nil {
			return nil, fmt.Errorf("failed to unmarshal resume data: %w", err)
		}
		records = append(records, rec)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("failed to iterate resumes: %w", err)
	}
	return records, nil
}

// Delete removes a resume. Deleting an absent resume is not an error.
func (s *Postgres) Delete(ctx context.Context, id string) error {
	resumeID, err := uuid.Parse(id)
	if err != nil {
		return fmt.Errorf("invalid resume ID %q: %w", id, err)
	}

	_, err = s.pool.Exec(ctx, `DELETE FROM resumes WHERE id = $1`, resumeID)
	if err != nil {
		return fmt.Errorf("failed to delete resume: %w", err)
	}
	return nil
}

// Duplicate copies an existing resume under a new ID with a "(Copy)" title.
func (s *Postgres) Duplicate(ctx context.Context, id string) (*Record, error) {
	resumeID, err := uuid.Parse(id)
	if err != nil {
		return nil, fmt.Errorf("invalid resume ID %q: %w", id, err)
	}

	var rec Record
	var raw []byte
	err = s.pool.QueryRow(ctx,
		`INSERT INTO resumes (user_id, title, template, data)
		 SELECT user_id, title || ' (Copy)', template, data FROM resumes WHERE id = $1
		 RETURNING id, user_id, title, template, data, created_at, updated_at`,
		resumeID,
	).Scan(&rec.ID, &rec.UserID, &rec.Title, &rec.Template, &raw, &rec.CreatedAt, &rec.UpdatedAt)
	if err != nil {
		if err == pgx.ErrNoRows {
			return nil, ErrNotFound
		}
		return nil, fmt.Errorf("failed to duplicate resume: %w", err)
	}
	if err := json.Unmarshal(raw, &rec.Data); err != nil {
		return nil, fmt.Errorf("failed to unmarshal resume data: %w", err)
	}
	return &rec, nil
}
