package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"
	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/exam"
)

type startExamRequest struct {
	AssessmentID string `json:"assessment_id"`
}

type answerRequest struct {
	Value string `json:"value"`
}

// examView is a snapshot addressed by its exam id
type examView struct {
	ID string `json:"id"`
	exam.Snapshot
}

// exam resolves the {id} exam of the calling browser session
func (s *Server) exam(r *http.Request) (*exam.Controller, string, error) {
	sess := SessionFromContext(r.Context())
	if err := sess.RequireRole(); err != nil {
		return nil, "", err
	}

	id := chi.URLParam(r, "id")
	c, err := s.exams.Get(id, sess.Key())
	if err != nil {
		return nil, "", err
	}
	return c, id, nil
}

func (s *Server) handleStartExam(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())
	if err := sess.RequireRole(); err != nil {
		respondErr(w, r, err)
		return
	}

	var req startExamRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if req.AssessmentID == "" {
		respondError(w, http.StatusBadRequest, "validation_error", "assessment_id is required")
		return
	}

	c := exam.NewController(s.api(sess), req.AssessmentID)
	if err := c.Load(r.Context()); err != nil {
		c.Close()
		respondErr(w, r, err)
		return
	}

	id := s.exams.Add(sess.Key(), c)
	log.Info().
		Str("exam_id", id).
		Str("assessment_id", req.AssessmentID).
		Str("state", string(c.State())).
		Msg("Exam session opened")

	respondJSON(w, http.StatusCreated, examView{ID: id, Snapshot: c.Snapshot()})
}

func (s *Server) handleGetExam(w http.ResponseWriter, r *http.Request) {
	c, id, err := s.exam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, examView{ID: id, Snapshot: c.Snapshot()})
}

func (s *Server) handleCloseExam(w http.ResponseWriter, r *http.Request) {
	_, id, err := s.exam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	s.exams.Remove(id)
	respondJSON(w, http.StatusOK, map[string]string{"id": id, "status": "closed"})
}

func (s *Server) handleAnswer(w http.ResponseWriter, r *http.Request) {
	c, id, err := s.exam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	var req answerRequest
	if !decodeJSON(w, r, &req) {
		return
	}
	if err := c.SelectAnswer(req.Value); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, examView{ID: id, Snapshot: c.Snapshot()})
}

func (s *Server) handleNext(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, (*exam.Controller).Next)
}

func (s *Server) handlePrevious(w http.ResponseWriter, r *http.Request) {
	s.navigate(w, r, (*exam.Controller).Previous)
}

func (s *Server) navigate(w http.ResponseWriter, r *http.Request, move func(*exam.Controller)) {
	c, id, err := s.exam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	move(c)
	respondJSON(w, http.StatusOK, examView{ID: id, Snapshot: c.Snapshot()})
}

func (s *Server) handleSubmit(w http.ResponseWriter, r *http.Request) {
	c, id, err := s.exam(r)
	if err != nil {
		respondErr(w, r, err)
		return
	}

	if _, err := c.Submit(r.Context(), false); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, examView{ID: id, Snapshot: c.Snapshot()})
}
