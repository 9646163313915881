// Package session holds the caller's auth token and role. A Session is created
// once per client (process or browser), restored from its Store, and passed
// explicitly to every controller that talks to the platform API.
package session

import (
	"context"
	"errors"
	"fmt"
	"sync"
	"time"

	"github.com/golang-jwt/jwt/v4"
	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/models"
)

// Common errors
var (
	ErrUnauthenticated = errors.New("not authenticated")
	ErrForbidden       = errors.New("role not permitted")
	ErrNotFound        = errors.New("session not found")
)

// State is the persisted part of a session
type State struct {
	Token string       `json:"token" yaml:"token"`
	Role  models.Role  `json:"role" yaml:"role"`
	User  *models.User `json:"user,omitempty" yaml:"user,omitempty"`
}

// Store persists session state under a key
type Store interface {
	// Load returns ErrNotFound when nothing is stored under key
	Load(ctx context.Context, key string) (*State, error)
	Save(ctx context.Context, key string, state *State) error
	Delete(ctx context.Context, key string) error
	Ping(ctx context.Context) error
}

// Session is an explicitly injected auth session
type Session struct {
	key   string
	store Store

	mu    sync.RWMutex
	state State
}

// New creates an empty session bound to key in store. Call Restore to load
// previously persisted state.
func New(store Store, key string) *Session {
	return &Session{key: key, store: store}
}

// Key returns the storage key of this session
func (s *Session) Key() string {
	return s.key
}

// Restore loads persisted state. A missing entry leaves the session empty;
// an expired token is discarded and removed from the store.
func (s *Session) Restore(ctx context.Context) error {
	st, err := s.store.Load(ctx, s.key)
	if errors.Is(err, ErrNotFound) {
		s.reset()
		return nil
	}
	if err != nil {
		return fmt.Errorf("failed to restore session: %w", err)
	}

	if exp, ok := tokenExpiry(st.Token); ok && !exp.After(time.Now()) {
		log.Info().Str("session", maskKey(s.key)).Time("expired_at", exp).Msg("discarding expired session token")
		s.reset()
		if err := s.store.Delete(ctx, s.key); err != nil {
			return fmt.Errorf("failed to drop expired session: %w", err)
		}
		return nil
	}

	s.mu.Lock()
	s.state = *st
	s.mu.Unlock()
	return nil
}

// Login stores a token and role
func (s *Session) Login(ctx context.Context, token string, role models.Role) error {
	return s.save(ctx, State{Token: token, Role: role})
}

// LoginUser stores a token together with the user it belongs to
func (s *Session) LoginUser(ctx context.Context, token string, user *models.User) error {
	st := State{Token: token, User: user, Role: models.RoleCandidate}
	if user != nil && user.Role != "" {
		st.Role = user.Role
	}
	return s.save(ctx, st)
}

func (s *Session) save(ctx context.Context, st State) error {
	if st.Token == "" {
		return errors.New("empty token")
	}
	if err := s.store.Save(ctx, s.key, &st); err != nil {
		return fmt.Errorf("failed to persist session: %w", err)
	}

	s.mu.Lock()
	s.state = st
	s.mu.Unlock()
	return nil
}

// Clear forgets the token and role, in memory and in the store
func (s *Session) Clear(ctx context.Context) error {
	s.reset()
	if err := s.store.Delete(ctx, s.key); err != nil && !errors.Is(err, ErrNotFound) {
		return fmt.Errorf("failed to clear session: %w", err)
	}
	return nil
}

func (s *Session) reset() {
	s.mu.Lock()
	s.state = State{}
	s.mu.Unlock()
}

// Token implements client.TokenSource
func (s *Session) Token() string {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Token
}

// Role returns the role of the logged-in user, or ""
func (s *Session) Role() models.Role {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.Role
}

// User returns the user stored with the token, if any
func (s *Session) User() *models.User {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.state.User
}

// IsAuthenticated reports whether a token is present
func (s *Session) IsAuthenticated() bool {
	return s.Token() != ""
}

// Expiry returns the token's exp claim, if it carries one
func (s *Session) Expiry() (time.Time, bool) {
	return tokenExpiry(s.Token())
}

// RequireRole returns ErrUnauthenticated without a token and ErrForbidden
// when the session's role is not among roles. No roles means any role.
func (s *Session) RequireRole(roles ...models.Role) error {
	if !s.IsAuthenticated() {
		return ErrUnauthenticated
	}
	if len(roles) == 0 {
		return nil
	}

	current := s.Role()
	for _, r := range roles {
		if r == current {
			return nil
		}
	}
	return fmt.Errorf("%w: %s", ErrForbidden, current)
}

// tokenExpiry reads exp without verifying the signature; the platform API
// remains the only authority on token validity.
func tokenExpiry(token string) (time.Time, bool) {
	if token == "" {
		return time.Time{}, false
	}

	claims := jwt.MapClaims{}
	if _, _, err := new(jwt.Parser).ParseUnverified(token, claims); err != nil {
		return time.Time{}, false
	}

	switch exp := claims["exp"].(type) {
	case float64:
		return time.Unix(int64(exp), 0), true
	default:
		return time.Time{}, false
	}
}

// maskKey returns first 8 chars of key for safe logging
func maskKey(key string) string {
	if len(key) < 8 {
		return "***"
	}
	return key[:8] + "..."
}
