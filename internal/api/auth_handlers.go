package api

import (
	"net/http"

	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/screens"
)

type loginRequest struct {
	Email    string      `json:"email"`
	Password string      `json:"password"`
	Role     models.Role `json:"role"`
}

type setPasswordRequest struct {
	Password        string `json:"password"`
	ConfirmPassword string `json:"confirm_password"`
}

func (s *Server) auth(r *http.Request) *screens.Auth {
	sess := SessionFromContext(r.Context())
	return screens.NewAuth(sess, s.api(sess))
}

func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	path, err := s.auth(r).Login(r.Context(), req.Email, req.Password, req.Role)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, navigation{Redirect: path})
}

func (s *Server) handleSignup(w http.ResponseWriter, r *http.Request) {
	var req models.SignupRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	path, err := s.auth(r).Signup(r.Context(), req)
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusCreated, navigation{Redirect: path})
}

func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	path, err := s.auth(r).Logout(r.Context())
	if err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, navigation{Redirect: path})
}

func (s *Server) handleSetPassword(w http.ResponseWriter, r *http.Request) {
	var req setPasswordRequest
	if !decodeJSON(w, r, &req) {
		return
	}

	if err := s.auth(r).SetPassword(r.Context(), req.Password, req.ConfirmPassword); err != nil {
		respondErr(w, r, err)
		return
	}
	respondJSON(w, http.StatusOK, map[string]string{"message": "Password set successfully"})
}

func (s *Server) handleGoogleLogin(w http.ResponseWriter, r *http.Request) {
	role := models.Role(r.URL.Query().Get("role"))
	http.Redirect(w, r, s.auth(r).GoogleLoginURL(role), http.StatusFound)
}

func (s *Server) handleGoogleCallback(w http.ResponseWriter, r *http.Request) {
	q := r.URL.Query()
	path, err := s.auth(r).GoogleCallback(r.Context(), q.Get("token"), models.Role(q.Get("role")))
	if err != nil {
		respondErr(w, r, err)
		return
	}
	http.Redirect(w, r, path, http.StatusFound)
}
