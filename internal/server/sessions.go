package server

import (
	"context"
	"sync"

	"github.com/jonathan/resume-studio/internal/autosave"
	"github.com/jonathan/resume-studio/internal/store"
)

// SessionManager opens one autosave session per resume and keeps it for the
// lifetime of the server. The backend store is fixed at construction; the
// sessions never re-select it.
type SessionManager struct {
	store store.ResumeStore
	cfg   autosave.Config

	mu       sync.Mutex
	sessions map[string]*autosave.Session
	owners   map[string]string
}

// NewSessionManager creates a manager over the given backend.
func NewSessionManager(st store.ResumeStore, cfg autosave.Config) *SessionManager {
	return &SessionManager{
		store:    st,
		cfg:      cfg,
		sessions: make(map[string]*autosave.Session),
		owners:   make(map[string]string),
	}
}

// Get returns the session for a resume, loading the document from the store
// on first access. Returns store.ErrNotFound if the resume does not exist.
func (m *SessionManager) Get(ctx context.Context, id string) (*autosave.Session, error) {
	m.mu.Lock()
	if session, ok := m.sessions[id]; ok {
		m.mu.Unlock()
		return session, nil
	}
	m.mu.Unlock()

	// Load outside the lock; concurrent first access races resolve below.
	rec, err := m.store.Read(ctx, id)
	if err != nil {
		return nil, err
	}

	m.mu.Lock()
	defer m.mu.Unlock()
	if session, ok := m.sessions[id]; ok {
		return session, nil
	}
	session := autosave.NewSession(rec.ID, rec.Title, rec.Data, m.store, m.cfg)
	m.sessions[id] = session
	m.owners[id] = rec.UserID
	return session, nil
}

// GetOwned is Get restricted to sessions owned by userID. A mismatch reports
// store.ErrNotFound so callers do not reveal that the resume exists.
func (m *SessionManager) GetOwned(ctx context.Context, id, userID string) (*autosave.Session, error) {
	session, err := m.Get(ctx, id)
	if err != nil {
		return nil, err
	}
	m.mu.Lock()
	owner := m.owners[id]
	m.mu.Unlock()
	if owner != userID {
		return nil, store.ErrNotFound
	}
	return session, nil
}

// Peek returns the session for a resume if one is already open.
func (m *SessionManager) Peek(id string) (*autosave.Session, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	session, ok := m.sessions[id]
	return session, ok
}

// Drop closes and removes the session for a resume, if open. Used when the
// resume is deleted.
func (m *SessionManager) Drop(ctx context.Context, id string) {
	m.mu.Lock()
	session, ok := m.sessions[id]
	delete(m.sessions, id)
	delete(m.owners, id)
	m.mu.Unlock()
	if ok {
		_ = session.Close(ctx) // the resume is going away; a failed final write is moot
	}
}

// CloseAll flushes and closes every open session. Returns the first error
// encountered; remaining sessions are still closed.
func (m *SessionManager) CloseAll(ctx context.Context) error {
	m.mu.Lock()
	sessions := make([]*autosave.Session, 0, len(m.sessions))
	for _, session := range m.sessions {
		sessions = append(sessions, session)
	}
	m.sessions = make(map[string]*autosave.Session)
	m.owners = make(map[string]string)
	m.mu.Unlock()

	var firstErr error
	for _, session := range sessions {
		if err := session.Close(ctx); err != nil && firstErr == nil {
			firstErr = err
		}
	}
	return firstErr
}
