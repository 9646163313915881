package api

import (
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/terra-clan/assessment-portal/internal/screens"
)

type publicStartRequest struct {
	Name  string `json:"name"`
	Email string `json:"email"`
	Phone string `json:"phone"`
}

func (s *Server) publicStart(r *http.Request) *screens.PublicStart {
	sess := SessionFromContext(r.Context())
	return screens.NewPublicStart(sess, s.api(sess))
}

func (s *Server) handlePublicPreview(w http.ResponseWriter, r *http.Request) {
	a, err := s.publicStart(r).Preview(r.Context(), chi.URLParam(r, "id"))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]interface{}{
		"id":             a.ID,
		"title":          a.Title,
		"description":    a.Description,
		"duration":       a.Duration,
		"question_count": len(a.Questions),
	})
}

func (s *Server) handlePublicStart(w http.ResponseWriter, r *http.Request) {
	var req publicStartRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	path, err := s.publicStart(r).Start(r.Context(), chi.URLParam(r, "id"), req.Name, req.Email, req.Phone)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, navigation{Redirect: path})
}
