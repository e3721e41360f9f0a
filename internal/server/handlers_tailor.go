package server

import (
	"encoding/json"
	"net/http"
	"strings"

	"golang.org/x/sync/errgroup"

	"github.com/jonathan/resume-studio/internal/fetch"
	"github.com/jonathan/resume-studio/internal/resume"
	"github.com/jonathan/resume-studio/internal/types"
)

// handleTailor runs a tailor analysis of the live document against a job
// description. The job text comes inline or is fetched from a posting URL.
// The generator is called once; a malformed response fails the request.
func (s *Server) handleTailor(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req types.TailorRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}
	if req.JobText == "" && req.JobURL == "" {
		s.errorResponse(w, http.StatusBadRequest, "job_text or job_url is required")
		return
	}

	session, err := s.sessions.GetOwned(r.Context(), req.ResumeID, userID)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "resume not found")
		return
	}

	// Fetch the posting and flush pending edits concurrently; the analysis
	// should see the document the user is looking at.
	jobText := req.JobText
	g, ctx := errgroup.WithContext(r.Context())
	if jobText == "" {
		g.Go(func() error {
			text, err := fetch.JobText(ctx, req.JobURL)
			if err != nil {
				return err
			}
			jobText = text
			return nil
		})
	}
	g.Go(func() error {
		return session.Flush(ctx)
	})
	if err := g.Wait(); err != nil {
		s.errorResponse(w, http.StatusBadGateway, "failed to prepare analysis: "+err.Error())
		return
	}
	if strings.TrimSpace(jobText) == "" {
		s.errorResponse(w, http.StatusBadRequest, "job posting contained no text")
		return
	}

	results, err := s.analyzer.Analyze(r.Context(), jobText, session.Snapshot())
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, results)
}

// handleApplySuggestion applies one chosen suggestion to the live document.
// Bullet coordinates are validated against the current document under the
// session lock; stale coordinates return 409 with a stable error code.
// Summary suggestions carry no coordinates and cannot go stale.
func (s *Server) handleApplySuggestion(w http.ResponseWriter, r *http.Request) {
	session, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	var req types.ApplySuggestionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	apply := func(current types.ResumeData) (types.ResumeData, error) {
		return resume.ApplyBulletSuggestion(current, req.Suggestion, req.ChosenText)
	}
	if req.Target == types.TargetSummary {
		apply = func(current types.ResumeData) (types.ResumeData, error) {
			return resume.ApplySummarySuggestion(current, req.ChosenText), nil
		}
	}

	doc, err := session.TryUpdate(apply)
	if err != nil {
		s.patchErrorResponse(w, err)
		return
	}

	s.jsonResponse(w, http.StatusOK, EditResponse{Data: doc, Status: session.Status()})
}

// patchErrorResponse writes a coordinate error with its stable code so the
// UI can tell the user which suggestion went stale.
func (s *Server) patchErrorResponse(w http.ResponseWriter, err error) {
	code := PatchErrorCode(err)
	if code == "" {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}
	s.jsonResponse(w, http.StatusConflict, map[string]string{
		"error": err.Error(),
		"code":  code,
	})
}

// handleRewriteBullet generates alternative phrasings for one bullet.
func (s *Server) handleRewriteBullet(w http.ResponseWriter, r *http.Request) {
	var req types.RewriteBulletRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if err := req.Validate(); err != nil {
		s.errorResponse(w, http.StatusBadRequest, extractValidationErrors(err))
		return
	}

	suggestions, err := s.analyzer.RewriteBullet(r.Context(), req.Bullet, types.RewriteTone(req.Tone), req.TargetRole)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, types.RewriteBulletResponse{Suggestions: suggestions})
}
