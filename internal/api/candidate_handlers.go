package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/assessment-portal/internal/screens"
)

func (s *Server) handleCandidateDashboard(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewCandidateDashboard(sess, s.api(sess)).Load(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCandidateAssessments(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	cards, err := screens.NewCandidateAssessments(sess, s.api(sess)).Load(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, cards)
}

func (s *Server) handleResult(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewResult(sess, s.api(sess)).Load(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCandidateInterviews(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewCandidateInterviews(sess, s.api(sess)).Load(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleBookInterview(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewCandidateInterviews(sess, s.api(sess)).Book(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}

func (s *Server) handleCancelBooking(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	view, err := screens.NewCandidateInterviews(sess, s.api(sess)).Cancel(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, view)
}
