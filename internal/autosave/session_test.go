package autosave

import (
	"context"
	"errors"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/resume"
	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/types"
)

// fakeStore records writes and can be made to block or fail.
type fakeStore struct {
	mu     sync.Mutex
	writes []store.Record
	err    error

	entered chan struct{} // signaled when a write starts, if set
	release chan struct{} // writes wait here until closed/fed, if set
}

func (f *fakeStore) Read(_ context.Context, id string) (*store.Record, error) {
	return nil, store.ErrNotFound
}

func (f *fakeStore) Write(_ context.Context, _ string, rec store.Record) error {
	if f.entered != nil {
		f.entered <- struct{}{}
	}
	if f.release != nil {
		<-f.release
	}
	f.mu.Lock()
	defer f.mu.Unlock()
	if f.err != nil {
		return f.err
	}
	f.writes = append(f.writes, rec)
	return nil
}

func (f *fakeStore) writeCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.writes)
}

func (f *fakeStore) lastWrite() store.Record {
	f.mu.Lock()
	defer f.mu.Unlock()
	return f.writes[len(f.writes)-1]
}

func (f *fakeStore) setErr(err error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.err = err
}

// Timings are compressed for tests; the production defaults only change the
// scale, not the transitions.
var testConfig = Config{
	Debounce:     20 * time.Millisecond,
	SavedDisplay: 50 * time.Millisecond,
}

func newTestSession(st store.DocumentStore) *Session {
	return NewSession("doc-1", "My Resume", types.ResumeData{Summary: "initial"}, st, testConfig)
}

func waitFor(t *testing.T, cond func() bool) {
	t.Helper()
	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		if cond() {
			return
		}
		time.Sleep(2 * time.Millisecond)
	}
	t.Fatal("condition not reached in time")
}

func TestSession_NoEditsNoWrites(t *testing.T) {
	st := &fakeStore{}
	s := newTestSession(st)

	time.Sleep(4 * testConfig.Debounce)
	assert.Equal(t, 0, st.writeCount())
	assert.Equal(t, StateIdle, s.Status().State)
}

func TestSession_DebounceCoalescesEdits(t *testing.T) {
	st := &fakeStore{}
	s := newTestSession(st)

	s.Update(resume.SetSummary("one"))
	s.Update(resume.SetSummary("two"))
	s.Update(resume.SetSummary("three"))
	assert.Equal(t, StateDirty, s.Status().State)

	waitFor(t, func() bool { return st.writeCount() > 0 })
	time.Sleep(2 * testConfig.Debounce) // no stragglers

	require.Equal(t, 1, st.writeCount())
	assert.Equal(t, "three", st.lastWrite().Data.Summary)
	assert.Equal(t, "My Resume", st.lastWrite().Title)
}

func TestSession_SavedRelaxesToIdle(t *testing.T) {
	st := &fakeStore{}
	s := newTestSession(st)

	s.Update(resume.SetSummary("edited"))
	waitFor(t, func() bool { return s.Status().State == StateSaved })
	waitFor(t, func() bool { return s.Status().State == StateIdle })
	assert.Equal(t, 1, st.writeCount())
}

func TestSession_EditRestartsDebounce(t *testing.T) {
	st := &fakeStore{}
	s := newTestSession(st)

	// Keep editing at half the debounce interval; no write may happen
	// while the edits keep arriving.
	for i := 0; i < 5; i++ {
		s.Update(resume.SetSummary("tick"))
		time.Sleep(testConfig.Debounce / 2)
	}
	assert.Equal(t, 0, st.writeCount())

	waitFor(t, func() bool { return st.writeCount() == 1 })
}

func TestSession_EditDuringWriteGetsOneFollowUp(t *testing.T) {
	st := &fakeStore{
		entered: make(chan struct{}, 2),
		release: make(chan struct{}),
	}
	s := newTestSession(st)

	s.Update(resume.SetSummary("first"))
	<-st.entered // write for "first" is in flight
	assert.Equal(t, StateSaving, s.Status().State)

	// Edit while the write is outstanding: must not start a second write
	// now, must not be lost either.
	s.Update(resume.SetSummary("second"))
	assert.Equal(t, StateSaving, s.Status().State)

	close(st.release)
	<-st.entered // exactly one follow-up write

	waitFor(t, func() bool { return st.writeCount() == 2 })
	assert.Equal(t, "first", st.writes[0].Data.Summary)
	assert.Equal(t, "second", st.lastWrite().Data.Summary)

	// And nothing after that.
	time.Sleep(4 * testConfig.Debounce)
	assert.Equal(t, 2, st.writeCount())
}

func TestSession_WriteErrorIsTerminalUntilNextEdit(t *testing.T) {
	st := &fakeStore{}
	st.setErr(errors.New("connection refused"))
	s := newTestSession(st)

	s.Update(resume.SetSummary("doomed"))
	waitFor(t, func() bool { return s.Status().State == StateError })
	assert.Contains(t, s.Status().LastError, "connection refused")

	// No retry on its own.
	time.Sleep(4 * testConfig.Debounce)
	assert.Equal(t, StateError, s.Status().State)
	assert.Equal(t, 0, st.writeCount())

	// The next edit re-arms the cycle.
	st.setErr(nil)
	s.Update(resume.SetSummary("recovered"))
	assert.Equal(t, StateDirty, s.Status().State)
	waitFor(t, func() bool { return st.writeCount() == 1 })
	assert.Equal(t, "recovered", st.lastWrite().Data.Summary)
	assert.Equal(t, "", s.Status().LastError)
}

func TestSession_SetTitleSchedulesSave(t *testing.T) {
	st := &fakeStore{}
	s := newTestSession(st)

	s.SetTitle("Renamed")
	assert.Equal(t, StateDirty, s.Status().State)
	waitFor(t, func() bool { return st.writeCount() == 1 })
	assert.Equal(t, "Renamed", st.lastWrite().Title)
	assert.Equal(t, "Renamed", s.Title())
}

func TestSession_TryUpdate(t *testing.T) {
	st := &fakeStore{}
	s := newTestSession(st)

	t.Run("error leaves document and schedule untouched", func(t *testing.T) {
		boom := errors.New("stale")
		doc, err := s.TryUpdate(func(current types.ResumeData) (types.ResumeData, error) {
			return types.ResumeData{}, boom
		})
		require.ErrorIs(t, err, boom)
		assert.Equal(t, "initial", doc.Summary)
		assert.Equal(t, StateIdle, s.Status().State)
		time.Sleep(2 * testConfig.Debounce)
		assert.Equal(t, 0, st.writeCount())
	})

	t.Run("success schedules a save", func(t *testing.T) {
		doc, err := s.TryUpdate(func(current types.ResumeData) (types.ResumeData, error) {
			current.Summary = "patched"
			return current, nil
		})
		require.NoError(t, err)
		assert.Equal(t, "patched", doc.Summary)
		waitFor(t, func() bool { return st.writeCount() == 1 })
	})
}

func TestSession_Flush(t *testing.T) {
	t.Run("writes pending edits immediately", func(t *testing.T) {
		st := &fakeStore{}
		s := newTestSession(st)

		s.Update(resume.SetSummary("pending"))
		require.NoError(t, s.Flush(context.Background()))
		assert.Equal(t, 1, st.writeCount())
		assert.Equal(t, "pending", st.lastWrite().Data.Summary)
	})

	t.Run("no-op when clean", func(t *testing.T) {
		st := &fakeStore{}
		s := newTestSession(st)

		require.NoError(t, s.Flush(context.Background()))
		assert.Equal(t, 0, st.writeCount())
	})

	t.Run("reports a failed final write", func(t *testing.T) {
		st := &fakeStore{}
		st.setErr(errors.New("disk full"))
		s := newTestSession(st)

		s.Update(resume.SetSummary("pending"))
		err := s.Flush(context.Background())
		var flushErr *FlushError
		require.ErrorAs(t, err, &flushErr)
		assert.Contains(t, flushErr.Message, "disk full")
	})
}

func TestSession_CloseIgnoresLaterUpdates(t *testing.T) {
	st := &fakeStore{}
	s := newTestSession(st)

	s.Update(resume.SetSummary("final"))
	require.NoError(t, s.Close(context.Background()))
	assert.Equal(t, 1, st.writeCount())

	s.Update(resume.SetSummary("ghost"))
	time.Sleep(2 * testConfig.Debounce)
	assert.Equal(t, 1, st.writeCount())
	assert.Equal(t, "final", s.Snapshot().Summary)
}
