// Package auth issues and resolves user sessions.
package auth

import (
	"context"
	"time"
)

// Session is the authenticated identity of a request. It is resolved once
// by Middleware and read by handlers with FromContext.
type Session struct {
	UserID    int64
	Username  string
	TokenID   string
	ExpiresAt time.Time
}

type contextKey struct{}

func NewContext(ctx context.Context, s Session) context.Context {
	return context.WithValue(ctx, contextKey{}, s)
}

// FromContext returns the session stored in ctx, if any.
func FromContext(ctx context.Context) (Session, bool) {
	s, ok := ctx.Value(contextKey{}).(Session)
	return s, ok
}
