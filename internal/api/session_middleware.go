package api

import (
	"net/http"

	"github.com/google/uuid"
	"github.com/rs/zerolog/log"

	"github.com/terra-clan/assessment-portal/internal/session"
)

// sessionMiddleware binds each request to a browser session. The session key
// lives in a cookie; a missing or malformed cookie starts a new session.
func (s *Server) sessionMiddleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		key := sessionKey(r, s.cfg.Sessions.CookieName)
		if key == "" {
			key = uuid.New().String()
			http.SetCookie(w, &http.Cookie{
				Name:     s.cfg.Sessions.CookieName,
				Value:    key,
				Path:     "/",
				MaxAge:   int(s.cfg.Sessions.TTL.Seconds()),
				HttpOnly: true,
				SameSite: http.SameSiteLaxMode,
			})
		}

		sess := session.New(s.store, key)
		if err := sess.Restore(r.Context()); err != nil {
			log.Error().Err(err).Msg("Failed to restore session")
			respondError(w, http.StatusServiceUnavailable, "session_unavailable", "session store unavailable")
			return
		}

		next.ServeHTTP(w, r.WithContext(ContextWithSession(r.Context(), sess)))
	})
}

func sessionKey(r *http.Request, cookieName string) string {
	c, err := r.Cookie(cookieName)
	if err != nil {
		return ""
	}
	if _, err := uuid.Parse(c.Value); err != nil {
		return ""
	}
	return c.Value
}
