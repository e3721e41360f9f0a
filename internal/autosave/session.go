// Package autosave owns the live resume document for an editing session and
// reconciles rapid local edits with a durable backend. Edits are coalesced by
// a debounce timer; at most one write is ever in flight, and an edit arriving
// while a write is outstanding is captured and saved by exactly one follow-up
// write.
package autosave

import (
	"context"
	"sync"
	"time"

	"github.com/jonathan/resume-studio/internal/resume"
	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/types"
)

// State is the save status surfaced to the UI.
type State string

// Session states.
const (
	StateIdle   State = "idle"
	StateDirty  State = "dirty"
	StateSaving State = "saving"
	StateSaved  State = "saved"
	StateError  State = "error"
)

// Config holds the session timing knobs. The zero value uses the defaults
// observed in the editor: 800ms quiescence before a save, 2s of "Saved"
// display before relaxing to idle.
type Config struct {
	// Debounce is the contiguous idle period required before a pending
	// write is issued. Each edit restarts it.
	Debounce time.Duration
	// SavedDisplay is how long the Saved state is shown before relaxing to
	// Idle. Display-only; it does not re-arm persistence.
	SavedDisplay time.Duration
}

// DefaultConfig returns the default session timing.
func DefaultConfig() Config {
	return Config{
		Debounce:     800 * time.Millisecond,
		SavedDisplay: 2 * time.Second,
	}
}

func (c Config) withDefaults() Config {
	d := DefaultConfig()
	if c.Debounce <= 0 {
		c.Debounce = d.Debounce
	}
	if c.SavedDisplay <= 0 {
		c.SavedDisplay = d.SavedDisplay
	}
	return c
}

// Status is the session's externally visible save state.
type Status struct {
	State     State  `json:"state"`
	LastError string `json:"last_error,omitempty"`
}

// Session owns the canonical in-memory document for one resume. All document
// access goes through Update and Snapshot; no other component may retain a
// mutable reference. The backend store is injected once at construction and
// never re-selected.
type Session struct {
	id    string
	store store.DocumentStore
	cfg   Config

	mu         sync.Mutex
	cond       *sync.Cond
	doc        types.ResumeData
	title      string
	state      State
	lastError  string
	dirty      bool
	saving     bool
	closed     bool
	debounce   *time.Timer
	savedTimer *time.Timer
}

// NewSession creates a session for the document with the given ID. initial is
// the last persisted document; st is the backend chosen for this session
// (remote for authenticated sessions, device-local for guest sessions).
func NewSession(id, title string, initial types.ResumeData, st store.DocumentStore, cfg Config) *Session {
	s := &Session{
		id:    id,
		store: st,
		cfg:   cfg.withDefaults(),
		doc:   initial,
		title: title,
		state: StateIdle,
	}
	s.cond = sync.NewCond(&s.mu)
	return s
}

// ID returns the document identifier the session persists under.
func (s *Session) ID() string {
	return s.id
}

// Snapshot returns the current document. The returned value must be treated
// as immutable per the updater contract.
func (s *Session) Snapshot() types.ResumeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.doc
}

// Title returns the current document title.
func (s *Session) Title() string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return s.title
}

// Status returns the save state for display.
func (s *Session) Status() Status {
	s.mu.Lock()
	defer s.mu.Unlock()
	return Status{State: s.state, LastError: s.lastError}
}

// Update applies fn to the document and schedules persistence. fn must be
// pure; the previous document value is discarded. Returns the new document.
func (s *Session) Update(fn resume.UpdaterFunc) types.ResumeData {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.doc
	}
	s.doc = fn(s.doc)
	s.markDirtyLocked()
	return s.doc
}

// TryUpdate applies a fallible updater under the session lock, so validation
// and application see the same document. On error the document is unchanged
// and no save is scheduled.
func (s *Session) TryUpdate(fn func(types.ResumeData) (types.ResumeData, error)) (types.ResumeData, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return s.doc, nil
	}
	next, err := fn(s.doc)
	if err != nil {
		return s.doc, err
	}
	s.doc = next
	s.markDirtyLocked()
	return s.doc, nil
}

// SetTitle replaces the document title and schedules persistence, the same
// way a document edit does.
func (s *Session) SetTitle(title string) {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.closed {
		return
	}
	s.title = title
	s.markDirtyLocked()
}

// markDirtyLocked records an edit and (re)arms the debounce timer. While a
// write is in flight the dirty flag alone captures the edit; the follow-up
// save is scheduled when the write settles.
func (s *Session) markDirtyLocked() {
	s.dirty = true
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
	if s.saving {
		return
	}
	s.state = StateDirty
	s.armDebounceLocked()
}

func (s *Session) armDebounceLocked() {
	if s.debounce != nil {
		s.debounce.Stop()
	}
	s.debounce = time.AfterFunc(s.cfg.Debounce, s.save)
}

// save runs on debounce expiry. It takes the snapshot at fire time, issues
// the single in-flight write, and handles the settle transitions.
func (s *Session) save() {
	s.mu.Lock()
	if s.closed || s.saving || !s.dirty {
		s.mu.Unlock()
		return
	}
	s.saveLocked()
	s.mu.Unlock()
}

// saveLocked performs one write cycle. Caller holds the lock; it is released
// for the duration of the backend call and re-acquired before returning.
func (s *Session) saveLocked() {
	s.dirty = false
	s.saving = true
	s.state = StateSaving
	rec := store.Record{
		ID:        s.id,
		Title:     s.title,
		Data:      s.doc,
		UpdatedAt: time.Now().UTC(),
	}
	s.mu.Unlock()

	err := s.store.Write(context.Background(), s.id, rec)

	s.mu.Lock()
	s.saving = false
	if err != nil {
		// Terminal for this attempt: no retry, the next edit re-arms.
		s.state = StateError
		s.lastError = err.Error()
	} else {
		s.state = StateSaved
		s.lastError = ""
		s.savedTimer = time.AfterFunc(s.cfg.SavedDisplay, s.relax)
	}
	if s.dirty && !s.closed {
		// An edit arrived mid-write; schedule exactly one follow-up save.
		s.state = StateDirty
		s.armDebounceLocked()
	}
	s.cond.Broadcast()
}

// relax moves Saved back to Idle after the display interval. Display-only.
func (s *Session) relax() {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.state == StateSaved {
		s.state = StateIdle
	}
	s.savedTimer = nil
}

// Flush forces any pending edit to be persisted before returning. It waits
// for an in-flight write to settle and then writes the latest document if it
// is still dirty. Used on session close and for explicit save requests.
func (s *Session) Flush(ctx context.Context) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	for {
		if err := ctx.Err(); err != nil {
			return err
		}
		switch {
		case s.saving:
			s.cond.Wait()
		case s.dirty:
			s.saveLocked()
		default:
			if s.state == StateError && s.lastError != "" {
				return &FlushError{Message: s.lastError}
			}
			return nil
		}
	}
}

// Close flushes pending edits and shuts the session down. Further updates
// are ignored.
func (s *Session) Close(ctx context.Context) error {
	err := s.Flush(ctx)

	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	if s.debounce != nil {
		s.debounce.Stop()
		s.debounce = nil
	}
	if s.savedTimer != nil {
		s.savedTimer.Stop()
		s.savedTimer = nil
	}
	return err
}

// FlushError reports that the final write of a flush failed.
type FlushError struct {
	Message string
}

func (e *FlushError) Error() string {
	return "flush failed: " + e.Message
}
