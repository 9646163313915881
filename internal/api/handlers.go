package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"time"

	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/authoring"
	"github.com/terra-clan/assessment-portal/internal/exam"
	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/screens"
	"github.com/terra-clan/assessment-portal/internal/services"
	"github.com/terra-clan/assessment-portal/internal/session"
	"github.com/terra-clan/assessment-portal/pkg/client"
)

// Response helpers

type apiResponse struct {
	Success bool        `json:"success"`
	Data    interface{} `json:"data,omitempty"`
	Error   *apiError   `json:"error,omitempty"`
}

type apiError struct {
	Code     string   `json:"code"`
	Message  string   `json:"message"`
	Problems []string `json:"problems,omitempty"`
}

// navigation tells the browser where the flow continues
type navigation struct {
	Redirect string `json:"redirect"`
}

func respondJSON(w http.ResponseWriter, status int, data interface{}) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	resp := apiResponse{
		Success: status >= 200 && status < 300,
		Data:    data,
	}

	if err := json.NewEncoder(w).Encode(resp); err != nil {
		log.Error().Err(err).Msg("Failed to encode response")
	}
}

func respondError(w http.ResponseWriter, status int, code, message string) {
	writeError(w, status, &apiError{Code: code, Message: message})
}

func writeError(w http.ResponseWriter, status int, e *apiError) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)

	if err := json.NewEncoder(w).Encode(apiResponse{Success: false, Error: e}); err != nil {
		log.Error().Err(err).Msg("Failed to encode error response")
	}
}

// respondErr maps domain and upstream errors onto HTTP statuses
func respondErr(w http.ResponseWriter, r *http.Request, err error) {
	var (
		draftErr *authoring.ValidationError
		apiErr   *client.Error
	)

	switch {
	case errors.Is(err, session.ErrUnauthenticated):
		respondError(w, http.StatusUnauthorized, "unauthenticated", "login required")
	case errors.Is(err, session.ErrForbidden):
		respondError(w, http.StatusForbidden, "forbidden", err.Error())
	case errors.Is(err, exam.ErrExamNotFound):
		respondError(w, http.StatusNotFound, "exam_not_found", "exam not found")
	case errors.As(err, &draftErr):
		writeError(w, http.StatusBadRequest, &apiError{
			Code:     "validation_error",
			Message:  draftErr.Error(),
			Problems: draftErr.Problems,
		})
	case errors.Is(err, screens.ErrValidation), errors.Is(err, exam.ErrInvalidOption):
		respondError(w, http.StatusBadRequest, "validation_error", err.Error())
	case errors.Is(err, exam.ErrSubmitInFlight):
		respondError(w, http.StatusConflict, "submit_in_flight", err.Error())
	case errors.Is(err, exam.ErrNotInProgress):
		respondError(w, http.StatusConflict, "not_in_progress", err.Error())
	case errors.As(err, &apiErr):
		log.Warn().Int("upstream_status", apiErr.Status).Str("path", r.URL.Path).Msg(apiErr.Message)
		respondError(w, http.StatusBadGateway, "upstream_error", apiErr.Message)
	default:
		log.Error().Err(err).Str("path", r.URL.Path).Msg("Request failed")
		respondError(w, http.StatusInternalServerError, "internal_error", "internal server error")
	}
}

func decodeJSON(w http.ResponseWriter, r *http.Request, v interface{}) bool {
	if err := json.NewDecoder(r.Body).Decode(v); err != nil {
		respondError(w, http.StatusBadRequest, "invalid_request", "invalid JSON body")
		return false
	}
	return true
}

// Health handlers

func (s *Server) handleHealth(w http.ResponseWriter, r *http.Request) {
	respondJSON(w, http.StatusOK, map[string]string{
		"status": "healthy",
		"time":   time.Now().UTC().Format(time.RFC3339),
	})
}

func (s *Server) handleReady(w http.ResponseWriter, r *http.Request) {
	results := s.health.HealthCheckAll(r.Context())

	checks := make(map[string]string, len(results))
	for name, err := range results {
		checks[name] = "ok"
		if err != nil {
			checks[name] = err.Error()
		}
	}

	status, code := "ready", http.StatusOK
	if !services.Healthy(results) {
		status, code = "not_ready", http.StatusServiceUnavailable
	}

	respondJSON(w, code, map[string]interface{}{
		"status":       status,
		"checks":       checks,
		"active_exams": s.exams.Len(),
	})
}

// Session handlers

type meResponse struct {
	Authenticated bool         `json:"authenticated"`
	Role          models.Role  `json:"role,omitempty"`
	User          *models.User `json:"user,omitempty"`
	ExpiresAt     *time.Time   `json:"expires_at,omitempty"`
}

func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	sess := SessionFromContext(r.Context())

	resp := meResponse{
		Authenticated: sess.IsAuthenticated(),
		Role:          sess.Role(),
		User:          sess.User(),
	}
	if exp, ok := sess.Expiry(); ok {
		resp.ExpiresAt = &exp
	}
	respondJSON(w, http.StatusOK, resp)
}
