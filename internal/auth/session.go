package auth

import (
	"context"
	"time"
)

// Session describes who is making a request. It travels in the request
// context; there is no process-wide login state.
type Session struct {
	Username      string    `json:"username"`
	Authenticated bool      `json:"authenticated"`
	IssuedAt      time.Time `json:"issued_at"`
	ExpiresAt     time.Time `json:"expires_at"`
}

type contextKey string

const sessionKey contextKey = "session"

func WithSession(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, sessionKey, s)
}

// SessionFromContext returns the request's session, or an unauthenticated
// zero Session.
func SessionFromContext(ctx context.Context) Session {
	s, _ := ctx.Value(sessionKey).(Session)
	return s
}
