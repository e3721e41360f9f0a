package server

import (
	"context"
	"encoding/json"
	"net/http"
	"net/http/httptest"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/jonathan/resume-studio/internal/types"
)

const stubTailorResponse = `{
	"missing_keywords": ["Kubernetes"],
	"summary_suggestion": "Go engineer with container experience.",
	"bullet_suggestions": [
		{
			"section": "experience",
			"itemIndex": 0,
			"bulletIndex": 0,
			"suggestions": ["Option one", "Option two", "Option three"]
		}
	]
}`

func tailorTestDoc() types.ResumeData {
	return types.ResumeData{
		Summary: "Go engineer.",
		Experience: []types.ExperienceItem{
			{ID: "exp-1", Company: "Acme", Role: "Engineer", Bullets: []string{"Built services"}},
		},
	}
}

func TestHandleTailor(t *testing.T) {
	s, st := newTestServer(t, stubTailorResponse)
	rec := seedResume(t, st, tailorTestDoc())

	w := httptest.NewRecorder()
	s.handleTailor(w, jsonRequest(http.MethodPost, "/tailor", types.TailorRequest{
		ResumeID: rec.ID,
		JobText:  "Looking for a Go engineer with Kubernetes.",
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var results types.TailorResults
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &results))
	assert.Equal(t, []string{"Kubernetes"}, results.MissingKeywords)
	require.Len(t, results.BulletSuggestions, 1)
	assert.Len(t, results.BulletSuggestions[0].Options, 3)
}

func TestHandleTailor_Validation(t *testing.T) {
	s, st := newTestServer(t, stubTailorResponse)
	rec := seedResume(t, st, tailorTestDoc())

	t.Run("missing job source", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleTailor(w, jsonRequest(http.MethodPost, "/tailor", types.TailorRequest{ResumeID: rec.ID}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("malformed resume id", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleTailor(w, jsonRequest(http.MethodPost, "/tailor", types.TailorRequest{
			ResumeID: "not-a-uuid",
			JobText:  "job",
		}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("unknown resume", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleTailor(w, jsonRequest(http.MethodPost, "/tailor", types.TailorRequest{
			ResumeID: "3e0c5bdc-30a5-4c7e-9c10-8871a83f2b3a",
			JobText:  "job",
		}))
		assert.Equal(t, http.StatusNotFound, w.Code)
	})
}

func TestHandleTailor_MalformedGeneratorResponse(t *testing.T) {
	s, st := newTestServer(t, `{"unexpected": true}`)
	rec := seedResume(t, st, tailorTestDoc())

	w := httptest.NewRecorder()
	s.handleTailor(w, jsonRequest(http.MethodPost, "/tailor", types.TailorRequest{
		ResumeID: rec.ID,
		JobText:  "job text",
	}))
	assert.Equal(t, http.StatusBadGateway, w.Code)
}

func TestHandleApplySuggestion(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, tailorTestDoc())

	w := httptest.NewRecorder()
	s.handleApplySuggestion(w, withID(jsonRequest(http.MethodPost, "/resumes/"+rec.ID+"/suggestions/apply", types.ApplySuggestionRequest{
		Suggestion: types.BulletSuggestion{
			Section:     types.SectionExperience,
			ItemIndex:   0,
			BulletIndex: 0,
		},
		ChosenText: "Built services processing 2M events/day",
	}), rec.ID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp EditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Built services processing 2M events/day", resp.Data.Experience[0].Bullets[0])
}

func TestHandleApplySuggestion_Summary(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, tailorTestDoc())

	w := httptest.NewRecorder()
	s.handleApplySuggestion(w, withID(jsonRequest(http.MethodPost, "/resumes/"+rec.ID+"/suggestions/apply", types.ApplySuggestionRequest{
		Target:     types.TargetSummary,
		ChosenText: "Backend engineer focused on event pipelines",
	}), rec.ID))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp EditResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Equal(t, "Backend engineer focused on event pipelines", resp.Data.Summary)

	t.Run("unknown target", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleApplySuggestion(w, withID(jsonRequest(http.MethodPost, "/resumes/"+rec.ID+"/suggestions/apply", types.ApplySuggestionRequest{
			Target:     "contact",
			ChosenText: "x",
		}), rec.ID))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}

func TestHandleApplySuggestion_StaleCoordinates(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, tailorTestDoc())

	tests := []struct {
		name       string
		suggestion types.BulletSuggestion
		wantCode   string
	}{
		{
			name:       "stale item index",
			suggestion: types.BulletSuggestion{Section: types.SectionExperience, ItemIndex: 5},
			wantCode:   CodeStaleItemIndex,
		},
		{
			name:       "stale bullet index",
			suggestion: types.BulletSuggestion{Section: types.SectionExperience, ItemIndex: 0, BulletIndex: 9},
			wantCode:   CodeStaleBulletIndex,
		},
		{
			name:       "unknown section",
			suggestion: types.BulletSuggestion{Section: "education"},
			wantCode:   CodeUnknownSection,
		},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			w := httptest.NewRecorder()
			s.handleApplySuggestion(w, withID(jsonRequest(http.MethodPost, "/resumes/"+rec.ID+"/suggestions/apply", types.ApplySuggestionRequest{
				Suggestion: tt.suggestion,
				ChosenText: "replacement",
			}), rec.ID))

			require.Equal(t, http.StatusConflict, w.Code)
			var body map[string]string
			require.NoError(t, json.Unmarshal(w.Body.Bytes(), &body))
			assert.Equal(t, tt.wantCode, body["code"])
		})
	}

	// The document is untouched after the failures.
	session, err := s.sessions.Get(context.Background(), rec.ID)
	require.NoError(t, err)
	assert.Equal(t, "Built services", session.Snapshot().Experience[0].Bullets[0])
}

func TestHandleApplySuggestion_MissingChosenText(t *testing.T) {
	s, st := newTestServer(t, "")
	rec := seedResume(t, st, tailorTestDoc())

	w := httptest.NewRecorder()
	s.handleApplySuggestion(w, withID(jsonRequest(http.MethodPost, "/resumes/"+rec.ID+"/suggestions/apply", types.ApplySuggestionRequest{
		Suggestion: types.BulletSuggestion{Section: types.SectionExperience},
	}), rec.ID))
	assert.Equal(t, http.StatusBadRequest, w.Code)
}

func TestHandleRewriteBullet(t *testing.T) {
	s, _ := newTestServer(t, `["Shipped X", "Led X", "Cut X by 20%"]`)

	w := httptest.NewRecorder()
	s.handleRewriteBullet(w, jsonRequest(http.MethodPost, "/ai/rewrite-bullet", types.RewriteBulletRequest{
		Bullet: "Worked on X",
		Tone:   "impact",
	}))

	require.Equal(t, http.StatusOK, w.Code, w.Body.String())
	var resp types.RewriteBulletResponse
	require.NoError(t, json.Unmarshal(w.Body.Bytes(), &resp))
	assert.Len(t, resp.Suggestions, 3)

	t.Run("invalid tone", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleRewriteBullet(w, jsonRequest(http.MethodPost, "/ai/rewrite-bullet", types.RewriteBulletRequest{
			Bullet: "Worked on X",
			Tone:   "sarcastic",
		}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})

	t.Run("missing bullet", func(t *testing.T) {
		w := httptest.NewRecorder()
		s.handleRewriteBullet(w, jsonRequest(http.MethodPost, "/ai/rewrite-bullet", types.RewriteBulletRequest{}))
		assert.Equal(t, http.StatusBadRequest, w.Code)
	})
}
