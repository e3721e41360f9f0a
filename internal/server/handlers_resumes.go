package server

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/jonathan/resume-studio/internal/autosave"
	"github.com/jonathan/resume-studio/internal/readiness"
	"github.com/jonathan/resume-studio/internal/resume"
	"github.com/jonathan/resume-studio/internal/store"
	"github.com/jonathan/resume-studio/internal/types"
)

// CreateResumeRequest is the body for POST /resumes.
type CreateResumeRequest struct {
	Title    string `json:"title"`
	Template string `json:"template"`
}

// EditRequest is one editing operation for PATCH /resumes/{id}. Op selects
// the operation; the remaining fields carry its arguments.
type EditRequest struct {
	Op string `json:"op"`

	Title     *string               `json:"title,omitempty"`
	Contact   *types.ContactInfo    `json:"contact,omitempty"`
	Summary   *string               `json:"summary,omitempty"`
	Skills    []types.SkillCategory `json:"skills,omitempty"`
	Education []types.EducationItem `json:"education,omitempty"`

	Experience *types.ExperienceItem `json:"experience,omitempty"`
	Project    *types.ProjectItem    `json:"project,omitempty"`

	ItemID      string  `json:"item_id,omitempty"`
	BulletIndex *int    `json:"bullet_index,omitempty"`
	Text        *string `json:"text,omitempty"`
	Delta       int     `json:"delta,omitempty"`
}

// EditResponse returns the document after the edit plus the save status at
// the moment the handler returned. The write itself happens later, on the
// autosave schedule.
type EditResponse struct {
	Data   types.ResumeData `json:"data"`
	Status autosave.Status  `json:"status"`
}

// ownedSession resolves the {id} path value to an open autosave session,
// enforcing ownership. Writes the error response itself on failure.
func (s *Server) ownedSession(w http.ResponseWriter, r *http.Request) (*autosave.Session, bool) {
	userID, err := s.requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return nil, false
	}
	session, err := s.sessions.GetOwned(r.Context(), r.PathValue("id"), userID)
	if err != nil {
		if errors.Is(err, store.ErrNotFound) {
			s.errorResponse(w, http.StatusNotFound, "resume not found")
		} else {
			s.errorResponse(w, http.StatusInternalServerError, "failed to load resume")
		}
		return nil, false
	}
	return session, true
}

// handleCreateResume creates an empty resume owned by the requesting user.
func (s *Server) handleCreateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	var req CreateResumeRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}
	if req.Title == "" {
		req.Title = "Untitled Resume"
	}

	rec, err := s.resumes.Create(r.Context(), userID, req.Title, req.Template)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to create resume")
		return
	}

	s.jsonResponse(w, http.StatusCreated, rec)
}

// handleListResumes lists the requesting user's resumes.
func (s *Server) handleListResumes(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}

	records, err := s.resumes.List(r.Context(), userID)
	if err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "failed to list resumes")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{"resumes": records, "count": len(records)})
}

// handleGetResume returns the live document. When an autosave session is
// open, its in-memory snapshot wins over whatever the store last persisted.
func (s *Server) handleGetResume(w http.ResponseWriter, r *http.Request) {
	session, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]any{
		"id":     session.ID(),
		"title":  session.Title(),
		"data":   session.Snapshot(),
		"status": session.Status(),
	})
}

// handleDeleteResume deletes a resume and discards its session.
func (s *Server) handleDeleteResume(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := r.PathValue("id")

	rec, err := s.resumes.Read(r.Context(), id)
	if err != nil || rec.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "resume not found")
		return
	}

	// Drop before delete so no pending autosave resurrects the row.
	s.sessions.Drop(r.Context(), id)

	if err := s.resumes.Delete(r.Context(), id); err != nil {
		s.errorResponse(w, HTTPStatus(err), "failed to delete resume")
		return
	}

	s.jsonResponse(w, http.StatusOK, map[string]string{"status": "deleted", "id": id})
}

// handleDuplicateResume copies a resume, appending " (Copy)" to the title.
func (s *Server) handleDuplicateResume(w http.ResponseWriter, r *http.Request) {
	userID, err := s.requestUserID(r)
	if err != nil {
		s.errorResponse(w, http.StatusUnauthorized, "authentication required")
		return
	}
	id := r.PathValue("id")

	rec, err := s.resumes.Read(r.Context(), id)
	if err != nil || rec.UserID != userID {
		s.errorResponse(w, http.StatusNotFound, "resume not found")
		return
	}

	// Flush first so the copy starts from the latest edits.
	if session, open := s.sessions.Peek(id); open {
		if err := session.Flush(r.Context()); err != nil {
			s.errorResponse(w, http.StatusInternalServerError, "failed to flush pending edits")
			return
		}
	}

	copied, err := s.resumes.Duplicate(r.Context(), id)
	if err != nil {
		s.errorResponse(w, HTTPStatus(err), "failed to duplicate resume")
		return
	}

	s.jsonResponse(w, http.StatusCreated, copied)
}

// handleEditResume applies one editing operation to the live document. The
// response reflects the new document immediately; persistence follows on the
// debounce schedule.
func (s *Server) handleEditResume(w http.ResponseWriter, r *http.Request) {
	session, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	var req EditRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		s.errorResponse(w, http.StatusBadRequest, "invalid JSON body")
		return
	}

	updater, err := updaterFor(req, session)
	if err != nil {
		s.errorResponse(w, http.StatusBadRequest, err.Error())
		return
	}

	var doc types.ResumeData
	if updater != nil {
		doc = session.Update(updater)
	} else {
		doc = session.Snapshot() // title-only edit
	}

	s.jsonResponse(w, http.StatusOK, EditResponse{Data: doc, Status: session.Status()})
}

// updaterFor maps an EditRequest onto a pure document updater. A nil updater
// with nil error means the operation touched session metadata only.
func updaterFor(req EditRequest, session *autosave.Session) (resume.UpdaterFunc, error) {
	switch req.Op {
	case "set_title":
		if req.Title == nil {
			return nil, &ErrValidation{Field: "title", Message: "title is required"}
		}
		session.SetTitle(*req.Title)
		return nil, nil
	case "set_contact":
		if req.Contact == nil {
			return nil, &ErrValidation{Field: "contact", Message: "contact is required"}
		}
		return resume.SetContact(*req.Contact), nil
	case "set_summary":
		if req.Summary == nil {
			return nil, &ErrValidation{Field: "summary", Message: "summary is required"}
		}
		return resume.SetSummary(*req.Summary), nil
	case "set_skills":
		return resume.SetSkills(req.Skills), nil
	case "set_education":
		return resume.SetEducation(req.Education), nil
	case "add_experience":
		item := types.NewExperienceItem()
		if req.Experience != nil {
			id := item.ID
			item = *req.Experience
			if item.ID == "" {
				item.ID = id
			}
		}
		return resume.AppendExperience(item), nil
	case "update_experience":
		if req.Experience == nil || req.ItemID == "" {
			return nil, &ErrValidation{Field: "experience", Message: "item_id and experience are required"}
		}
		updated := *req.Experience
		return resume.UpdateExperience(req.ItemID, func(item types.ExperienceItem) types.ExperienceItem {
			updated.ID = item.ID
			return updated
		}), nil
	case "remove_experience":
		if req.ItemID == "" {
			return nil, &ErrValidation{Field: "item_id", Message: "item_id is required"}
		}
		return resume.RemoveExperience(req.ItemID), nil
	case "move_experience":
		if req.ItemID == "" {
			return nil, &ErrValidation{Field: "item_id", Message: "item_id is required"}
		}
		return resume.MoveExperience(req.ItemID, req.Delta), nil
	case "set_experience_bullet":
		if req.ItemID == "" || req.BulletIndex == nil || req.Text == nil {
			return nil, &ErrValidation{Field: "bullet", Message: "item_id, bullet_index and text are required"}
		}
		return resume.SetExperienceBullet(req.ItemID, *req.BulletIndex, *req.Text), nil
	case "add_project":
		item := types.NewProjectItem()
		if req.Project != nil {
			id := item.ID
			item = *req.Project
			if item.ID == "" {
				item.ID = id
			}
		}
		return resume.AppendProject(item), nil
	case "update_project":
		if req.Project == nil || req.ItemID == "" {
			return nil, &ErrValidation{Field: "project", Message: "item_id and project are required"}
		}
		updated := *req.Project
		return resume.UpdateProject(req.ItemID, func(item types.ProjectItem) types.ProjectItem {
			updated.ID = item.ID
			return updated
		}), nil
	case "remove_project":
		if req.ItemID == "" {
			return nil, &ErrValidation{Field: "item_id", Message: "item_id is required"}
		}
		return resume.RemoveProject(req.ItemID), nil
	case "move_project":
		if req.ItemID == "" {
			return nil, &ErrValidation{Field: "item_id", Message: "item_id is required"}
		}
		return resume.MoveProject(req.ItemID, req.Delta), nil
	default:
		return nil, &ErrValidation{Field: "op", Message: "unknown operation: " + req.Op}
	}
}

// handleSaveStatus reports the autosave state for the status pill.
func (s *Server) handleSaveStatus(w http.ResponseWriter, r *http.Request) {
	session, ok := s.ownedSession(w, r)
	if !ok {
		return
	}
	s.jsonResponse(w, http.StatusOK, session.Status())
}

// handleFlush forces any pending edits to the backend immediately.
func (s *Server) handleFlush(w http.ResponseWriter, r *http.Request) {
	session, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	if err := session.Flush(r.Context()); err != nil {
		s.errorResponse(w, http.StatusInternalServerError, "flush failed: "+err.Error())
		return
	}

	s.jsonResponse(w, http.StatusOK, session.Status())
}

// handleReadiness evaluates the readiness checklist over the live document.
func (s *Server) handleReadiness(w http.ResponseWriter, r *http.Request) {
	session, ok := s.ownedSession(w, r)
	if !ok {
		return
	}

	report := readiness.Evaluate(session.Snapshot())
	s.jsonResponse(w, http.StatusOK, report)
}
