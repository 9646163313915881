package screens

import (
	"context"
	"fmt"

	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/models"
	"github.com/terra-clan/assessment-portal/internal/session"
)

// MinPasswordLength is the shortest password SetPassword accepts
const MinPasswordLength = 6

// Auth covers login, signup, password setup, Google sign-in and logout
type Auth struct {
	base
}

// NewAuth creates the auth controller
func NewAuth(sess *session.Session, api API) *Auth {
	return &Auth{base{sess: sess, api: api}}
}

// Login authenticates and returns the landing page for the resulting role
func (a *Auth) Login(ctx context.Context, email, password string, role models.Role) (string, error) {
	if email == "" || password == "" {
		return "", formError("Email and password are required")
	}

	resp, err := a.api.Login(ctx, models.Credentials{Email: email, Password: password, Role: role})
	if err != nil {
		return "", err
	}
	if resp.Token == "" {
		return "", formError("No token received")
	}

	if resp.Role != "" {
		role = resp.Role
	}
	if role == "" {
		role = models.RoleCandidate
	}
	if err := a.sess.Login(ctx, resp.Token, role); err != nil {
		return "", err
	}

	log.Info().Str("role", string(role)).Msg("User logged in")
	return models.DashboardPath(role), nil
}

// Signup registers a user and logs them in
func (a *Auth) Signup(ctx context.Context, req models.SignupRequest) (string, error) {
	if req.Email == "" || req.Password == "" {
		return "", formError("Email and password are required")
	}
	if req.Role == "" {
		req.Role = models.RoleCandidate
	}
	if !req.Role.Valid() {
		return "", formError(fmt.Sprintf("Unknown role %q", req.Role))
	}

	if err := a.api.Signup(ctx, req); err != nil {
		return "", err
	}
	return a.Login(ctx, req.Email, req.Password, req.Role)
}

// SetPassword sets a password for an account created without one
func (a *Auth) SetPassword(ctx context.Context, password, confirm string) error {
	if err := a.sess.RequireRole(); err != nil {
		return err
	}
	if password != confirm {
		return formError("Passwords do not match")
	}
	if len(password) < MinPasswordLength {
		return formError(fmt.Sprintf("Password must be at least %d characters", MinPasswordLength))
	}
	return a.api.SetPassword(ctx, password)
}

// GoogleLoginURL is where the browser starts Google sign-in
func (a *Auth) GoogleLoginURL(role models.Role) string {
	if role == "" {
		role = models.RoleCandidate
	}
	return a.api.GoogleLoginURL(role)
}

// GoogleCallback stores the token handed back by the OAuth redirect
func (a *Auth) GoogleCallback(ctx context.Context, token string, role models.Role) (string, error) {
	if token == "" {
		log.Warn().Msg("Google callback without token")
		return models.PathGoogleAuthFailed, nil
	}
	if role == "" {
		role = models.RoleCandidate
	}
	if err := a.sess.Login(ctx, token, role); err != nil {
		return "", err
	}
	return models.DashboardPath(role), nil
}

// Logout clears the session
func (a *Auth) Logout(ctx context.Context) (string, error) {
	if err := a.sess.Clear(ctx); err != nil {
		return "", err
	}
	return models.PathLogin, nil
}
