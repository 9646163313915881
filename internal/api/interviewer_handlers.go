package api

import (
	"encoding/json"
	"errors"
	"io"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/assessment-portal/internal/authoring"
	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/screens"
)

type publishResponse struct {
	IDs []string `json:"ids"`
}

type publishDraftRequest struct {
	Title string `json:"title"`
}

type completeRequest struct {
	Notes string `json:"notes"`
}

// Dashboard

func (s *Server) handleInterviewerDashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewInterviewerDashboard(sess, s.api(sess)).Load(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleDashboardDelete(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewInterviewerDashboard(sess, s.api(sess)).Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Assessments

func (s *Server) assessments(r *http.Request) *screens.InterviewerAssessments {
	sess := SessionFromContext(r.Context())
	return screens.NewInterviewerAssessments(sess, s.api(sess), s.cfg.Public.BaseURL)
}

func (s *Server) handleListMyAssessments(w http.ResponseWriter, r *http.Request) {
	list, err := s.assessments(r).Load(r.Context(), r.URL.Query().Get("q"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handlePublishDraft(w http.ResponseWriter, r *http.Request) {
	var draft authoring.Draft
	if !decodeJSON(w, r, &draft) {
		return
	}

	ids, err := s.assessments(r).Publish(r.Context(), &draft)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, publishResponse{IDs: ids})
}

func (s *Server) handleDeleteAssessment(w http.ResponseWriter, r *http.Request) {
	list, err := s.assessments(r).Delete(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, list)
}

func (s *Server) handleShareURL(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := sess.RequireRole(models.RoleInterviewer, models.RoleAdmin); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"url": s.assessments(r).ShareURL(chi.URLParam(r, "id"))})
}

func (s *Server) handleGetAssessment(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	a, err := screens.NewAssessmentEditor(sess, s.api(sess)).Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleUpdateAssessment(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var update models.UpdateAssessmentRequest
	if !decodeJSON(w, r, &update) {
		return
	}

	a, err := screens.NewAssessmentEditor(sess, s.api(sess)).Save(r.Context(), chi.URLParam(r, "id"), update)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, a)
}

func (s *Server) handleSubmissions(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewSubmissions(sess, s.api(sess)).Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

// Draft library

func (s *Server) handleListDrafts(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := sess.RequireRole(models.RoleInterviewer, models.RoleAdmin); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, s.drafts.List())
}

func (s *Server) handlePublishLibraryDraft(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := sess.RequireRole(models.RoleInterviewer, models.RoleAdmin); err != nil {
		respondErr(w, r, err)
		return
	}

	draft := s.drafts.Get(chi.URLParam(r, "name"))
	if draft == nil {
		respondError(w, http.StatusNotFound, "draft_not_found", "draft not found")
		return
	}

	// The body is optional
	var req publishDraftRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil && !errors.Is(err, io.EOF) {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return
	}
	if req.Title != "" {
		draft.Title = req.Title
	}

	ids, err := s.assessments(r).Publish(r.Context(), draft)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, publishResponse{IDs: ids})
}

// Interviews

func (s *Server) interviews(r *http.Request) *screens.InterviewerInterviews {
	sess := SessionFromContext(r.Context())
	return screens.NewInterviewerInterviews(sess, s.api(sess))
}

func (s *Server) handleInterviewerInterviews(w http.ResponseWriter, r *http.Request) {
	view, err := s.interviews(r).Load(r.Context(), r.URL.Query().Get("status"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCreateSlot(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	var form screens.SlotForm
	if !decodeJSON(w, r, &form) {
		return
	}

	path, err := screens.NewCreateSlot(sess, s.api(sess), s.location).Submit(r.Context(), form)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, navigation{Redirect: path})
}

func (s *Server) handleCompleteInterview(w http.ResponseWriter, r *http.Request) {
	var req completeRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	view, err := s.interviews(r).Complete(r.Context(), chi.URLParam(r, "id"), req.Notes, r.URL.Query().Get("status"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCancelInterview(w http.ResponseWriter, r *http.Request) {
	view, err := s.interviews(r).Cancel(r.Context(), chi.URLParam(r, "id"), r.URL.Query().Get("status"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
