package api

import (
	"context"

	"github.com/terra-clan/assessment-portal/internal/session"
)

type contextKey string

const sessionContextKey contextKey = "portal_session"

// SessionFromContext extracts the browser session from context
func SessionFromContext(ctx context.Context) *session.Session {
	sess, ok := ctx.Value(sessionContextKey).(*session.Session)
	if !ok {
		return nil
	}
	return sess
}

// ContextWithSession adds the browser session to context
func ContextWithSession(ctx context.Context, sess *session.Session) context.Context {
	return context.WithValue(ctx, sessionContextKey, sess)
}
