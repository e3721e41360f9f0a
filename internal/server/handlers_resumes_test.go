package server

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"sync"
	"testing"
	"time"

	"github.com/google/uuid"
	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/autosave"
	"github.com/jonathan/resume-studio/internal/llm"
	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/store/local"
	"github.com/jonathan/resume-studio/internal/tailor"
	"github.com/jonathan/resume-studio/internal/types"
)

// fakeResumeStore is an in-memory ResumeStore for handler tests.
type fakeResumeStore struct {
	mu      sync.Mutex
	records map[string]store.Record
}

func newFakeResumeStore() *fakeResumeStore {
	return &fakeResumeStore{records: make(map[string]store.Record)}
}

func (f *fakeResumeStore) Create(_ context.Context, userID, title, template string) (*store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	now := time.Now().UTC()
	rec := store.Record{
		ID:        uuid.New().String(),
		UserID:    userID,
		Title:     title,
		Template:  template,
		CreatedAt: now,
		UpdatedAt: now,
	}
	f.records[rec.ID] = rec
	return &rec, nil
}

func (f *fakeResumeStore) Read(_ context.Context, id string) (*store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	rec, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	return &rec, nil
}

func (f *fakeResumeStore) Write(_ context.Context, id string, rec store.Record) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	existing, ok := f.records[id]
	if !ok {
		return store.ErrNotFound
	}
	existing.Title = rec.Title
	existing.Data = rec.Data
	existing.UpdatedAt = rec.UpdatedAt
	f.records[id] = existing
	return nil
}

func (f *fakeResumeStore) List(_ context.Context, userID string) ([]store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	var out []store.Record
	for _, rec := range f.records {
		if rec.UserID == userID {
			out = append(out, rec)
		}
	}
	return out, nil
}

func (f *fakeResumeStore) Delete(_ context.Context, id string) error {
	f.mu.Lock()
	defer f.mu.Unlock()
	delete(f.records, id)
	return nil
}

func (f *fakeResumeStore) Duplicate(_ context.Context, id string) (*store.Record, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	src, ok := f.records[id]
	if !ok {
		return nil, store.ErrNotFound
	}
	dup := src
	dup.ID = uuid.New().String()
	dup.Title = src.Title + " (Copy)"
	f.records[dup.ID] = dup
	return &dup, nil
}

// stubLLM returns a fixed response for tailor handler tests.
type stubLLM struct {
	response string
}

func (s *stubLLM) GenerateContent(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return s.response, nil
}

func (s *stubLLM) GenerateJSON(_ context.Context, _ string, _ llm.ModelTier) (string, error) {
	return s.response, nil
}

func (s *stubLLM) GetModel(llm.ModelTier) string { return "stub" }
func (s *stubLLM) Close() error                  { return nil }

// newTestServer builds a guest-mode server over in-memory fakes. No JWT
// service means every request acts as the guest user.
func newTestServer(t *testing.T, llmResponse string) (*Server, *fakeResumeStore) {
	t.Helper()
	st := newFakeResumeStore()
	s := &Server{
		resumes:  st,
		analyzer: tailor.NewAnalyzer(&stubLLM{response: llmResponse}),
		sessions: NewSessionManager(st, autosave.Config{
			Debounce:     time.Second, // handler tests flush explicitly
			SavedDisplay: 20 * time.Millisecond,
		}),
	}
	t.Cleanup(func() { _ = s.sessions.CloseAll(context.Background()) })
	return s, st
}

func seedResume(t *testing.T, st *fakeResumeStore, data types.ResumeData) store.Record {
	t.Helper()
	rec, err := st.Create(context.Background(), local.GuestUserID, "Test Resume", "")
	require.NoError(t, err)
	rec.Data = data
	rec.UpdatedAt = time.Now().UTC()
	require.NoError(t, st.Write(context.Background(), rec.ID, *rec))
	return *rec
}

func jsonRequest(method, target string, body any) *http.Request {
	b, _ := json.Marshal(body)
	req := httptest.NewRequest(method, target, bytes.NewReader(b))
	req.Header.Set("Content-Type", "application/json")
	return req
}

func withID(req *http.Request, id string) *http.Request {
	req.SetPathValue("id", id)
	return req
}

func TestHandleCreateResume(t *testing.T) {
	s, st := newTestServer(t, "")

	w := httptest.NewRecorder()
	s.handleCreateResume(w, jsonRequest(http.MethodPost, "/resumes", map[string]string{"title": "Backend CV"}))

	require.Equal(t, http.StatusCreated, w.Code)
	var rec store.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &rec))
	assert.Equal(t, "Backend CV", rec.Title)
	assert.Equal(t, local.GuestUserID, rec.UserID)
	assert.Contains(t, st.records, rec.ID)

	t.Run("defaults the title", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleCreateResume(w, jsonRequest(http.MethodPost, "/resumes", map[string]string{}))
		require.Equal(t, http.StatusCreated, w.Code)
		assert.Contains(t, w.Body.String(), "Untitled Resume")
	})
}

func TestHandleGetResume(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{Summary: "stored summary"})

	w := httptest.NewRecorder()
	s.handleGetResume(w, withID(jsonRequest(http.MethodGet, "/resumes/"+rec.ID, nil), rec.ID))

	require.Equal(t, http.StatusOK, w.Code)
	assert.Contains(t, w.Body.String(), "stored summary")
	assert.Contains(t, w.Body.String(), `"state":"idle"`)

	t.Run("missing resume", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleGetResume(w, withID(jsonRequest(http.MethodGet, "/resumes/nope", nil), "nope"))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleEditResume(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{Summary: "before"})

	w := httptest.NewRecorder()
	s.handleEditResume(w, withID(jsonRequest(http.MethodPatch, "/resumes/"+rec.ID, EditRequest{
		Op:      "set_summary",
		Summary: strPtr("after"),
	}), rec.ID))

	require.Equal(t, http.StatusOK, w.Code)
	var resp EditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "after", resp.Data.Summary)
	assert.Equal(t, autosave.StateDirty, resp.Status.State)

	// The store still holds the old value until the debounce fires.
	stored, err := st.Read(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "before", stored.Data.Summary)

	t.Run("unknown op", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleEditResume(w, withID(jsonRequest(http.MethodPatch, "/resumes/"+rec.ID, EditRequest{Op: "explode"}), rec.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing argument", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleEditResume(w, withID(jsonRequest(http.MethodPatch, "/resumes/"+rec.ID, EditRequest{Op: "set_summary"}), rec.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleEditResume_MoveProject(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{
		Projects: []types.ProjectItem{
			{ID: "p1", Name: "proxy"},
			{ID: "p2", Name: "cli"},
		},
	})

	w := httptest.NewRecorder()
	s.handleEditResume(w, withID(jsonRequest(http.MethodPatch, "/resumes/"+rec.ID, EditRequest{
		Op:     "move_project",
		ItemID: "p2",
		Delta:  -1,
	}), rec.ID))

	require.Equal(t, http.StatusOK, w.Code)
	var resp EditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	require.Len(t, resp.Data.Projects, 2)
	assert.Equal(t, "p2", resp.Data.Projects[0].ID)
	assert.Equal(t, "p1", resp.Data.Projects[1].ID)

	t.Run("missing item_id", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleEditResume(w, withID(jsonRequest(http.MethodPatch, "/resumes/"+rec.ID, EditRequest{Op: "move_project", Delta: 1}), rec.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleFlushPersistsEdits(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{Summary: "before"})

	w := httptest.NewRecorder()
	s.handleEditResume(w, withID(jsonRequest(http.MethodPatch, "/resumes/"+rec.ID, EditRequest{
		Op:      "set_summary",
		Summary: strPtr("after"),
	}), rec.ID))
	require.Equal(t, http.StatusOK, w.Code)

	w = httptest.NewRecorder()
	s.handleFlush(w, withID(jsonRequest(http.MethodPost, "/resumes/"+rec.ID+"/flush", nil), rec.ID))
	require.Equal(t, http.StatusOK, w.Code)

	stored, err := st.Read(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "after", stored.Data.Summary)
}

func TestHandleSaveStatus(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{})

	w := httptest.NewRecorder()
	s.handleSaveStatus(w, withID(jsonRequest(http.MethodGet, "/resumes/"+rec.ID+"/save-status", nil), rec.ID))

	require.Equal(t, http.StatusOK, w.Code)
	var status autosave.Status
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &status))
	assert.Equal(t, autosave.StateIdle, status.State)
}

func TestHandleDeleteResume(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{})

	w := httptest.NewRecorder()
	s.handleDeleteResume(w, withID(jsonRequest(http.MethodDelete, "/resumes/"+rec.ID, nil), rec.ID))
	require.Equal(t, http.StatusOK, w.Code)

	_, err := st.Read(context.Background(), rec.ID)
	require.ErrorIs(t, err, store.ErrNotFound)

	_, open := s.sessions.Peek(rec.ID)
	assert.False(t, open)
}

func TestHandleDuplicateResume(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{Summary: "copy me"})

	w := httptest.NewRecorder()
	s.handleDuplicateResume(w, withID(jsonRequest(http.MethodPost, "/resumes/"+rec.ID+"/duplicate", nil), rec.ID))

	require.Equal(t, http.StatusCreated, w.Code)
	var dup store.Record
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &dup))
	assert.NotEqual(t, rec.ID, dup.ID)
	assert.Equal(t, "Test Resume (Copy)", dup.Title)
}

func TestHandleReadiness(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, types.ResumeData{
		Contact: &types.ContactInfo{Name: "Jane", Email: "j@example.com", Phone: "555"},
	})

	w := httptest.NewRecorder()
	s.handleReadiness(w, withID(jsonRequest(http.MethodGet, "/resumes/"+rec.ID+"/readiness", nil), rec.ID))

	require.Equal(t, http.StatusOK, w.Code)
	var report struct {
		Total      int `json:"total"`
		Passed     int `json:"passed"`
		Percentage int `json:"percentage"`
	}
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &report))
	assert.Equal(t, 6, report.Total)
	assert.Equal(t, 2, report.Passed) // contact and the length check
}

func TestHTTPStatusMapping(t *testing.T) {
	assert.Equal(t, http.StatusNotFound, HTTPStatus(store.ErrNotFound))
	assert.Equal(t, http.StatusNotFound, HTTPStatus(fmt.Errorf("load: %w", store.ErrNotFound)))
	assert.Equal(t, http.StatusBadGateway, HTTPStatus(&tailor.GeneratorError{Message: "bad"}))
	assert.Equal(t, http.StatusConflict, HTTPStatus(&ErrEmailAlreadyExists{Email: "x"}))
	assert.Equal(t, http.StatusUnauthorized, HTTPStatus(&ErrInvalidCredentials{}))
	assert.Equal(t, http.StatusInternalServerError, HTTPStatus(fmt.Errorf("boom")))
}

func strPtr(s string) *string { return &s }
