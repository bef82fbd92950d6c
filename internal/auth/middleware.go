package auth

import (
	"context"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

// SessionCookie carries the session token for browser clients.
const SessionCookie = "sessionid"

// RevocationChecker reports whether a token id was revoked by logout.
type RevocationChecker interface {
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
}

// Authenticator resolves the session of incoming requests.
type Authenticator struct {
	tokens  *Manager
	revoked RevocationChecker
	secure  bool
	logger  *applog.Logger
}

func NewAuthenticator(tokens *Manager, revoked RevocationChecker, secureCookies bool) *Authenticator {
	return &Authenticator{
		tokens:  tokens,
		revoked: revoked,
		secure:  secureCookies,
		logger:  applog.Default(applog.ComponentAuth),
	}
}

func tokenFrom(r *http.Request) (string, error) {
	if h := r.Header.Get("Authorization"); h != "" {
		if raw, ok := strings.CutPrefix(h, "Bearer "); ok && strings.TrimSpace(raw) != "" {
			return strings.TrimSpace(raw), nil
		}
	}
	if c, err := r.Cookie(SessionCookie); err == nil && c.Value != "" {
		return c.Value, nil
	}
	return "", errNoToken
}

// Resolve returns the session of r or core.ErrUnauthorized.
func (a *Authenticator) Resolve(r *http.Request) (Session, error) {
	raw, err := tokenFrom(r)
	if err != nil {
		return Session{}, fmt.Errorf("%w: %v", core.ErrUnauthorized, err)
	}
	s, err := a.tokens.Parse(raw)
	if err != nil {
		return Session{}, err
	}
	revoked, err := a.revoked.IsTokenRevoked(r.Context(), s.TokenID)
	if err != nil {
		return Session{}, fmt.Errorf("check revocation: %w", err)
	}
	if revoked {
		return Session{}, fmt.Errorf("%w: session revoked", core.ErrUnauthorized)
	}
	return s, nil
}

// Middleware stores the session in the request context when one resolves.
// Requests without a valid session pass through unauthenticated.
func (a *Authenticator) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, err := a.Resolve(r)
		if err != nil {
			if !errors.Is(err, core.ErrUnauthorized) {
				applog.FromContext(r.Context()).ErrorContext(r.Context(), "Session lookup failed", applog.FieldError, err)
			}
			next.ServeHTTP(w, r)
			return
		}
		next.ServeHTTP(w, r.WithContext(NewContext(r.Context(), s)))
	})
}

// Require rejects requests without a session using onUnauthorized.
func Require(onUnauthorized func(http.ResponseWriter, *http.Request)) func(http.Handler) http.Handler {
	return func(next http.Handler) http.Handler {
		return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
			if _, ok := FromContext(r.Context()); !ok {
				onUnauthorized(w, r)
				return
			}
			next.ServeHTTP(w, r)
		})
	}
}

// SetCookie stores token in the HttpOnly session cookie.
func (a *Authenticator) SetCookie(w http.ResponseWriter, token string, expires time.Time) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    token,
		Path:     "/",
		Expires:  expires,
		MaxAge:   int(time.Until(expires).Seconds()),
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}

// ClearCookie expires the session cookie.
func (a *Authenticator) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{
		Name:     SessionCookie,
		Value:    "",
		Path:     "/",
		MaxAge:   -1,
		HttpOnly: true,
		Secure:   a.secure,
		SameSite: http.SameSiteLaxMode,
	})
}
