package security

import (
	"crypto/rand"
	"crypto/subtle"
	"encoding/hex"
	"net/http"
	"time"
)

const (
	// CSRFCookie holds the token the client must echo back.
	CSRFCookie = "csrftoken"
	// CSRFHeader carries the echoed token on unsafe requests.
	CSRFHeader = "X-CSRFToken"
)

// CSRF implements the double submit cookie check. Requests are only
// checked when they are unsafe and authenticate with the named session
// cookie; bearer-token clients are not exposed to CSRF.
type CSRF struct {
	sessionCookie string
	secure        bool
	onFailure     func(http.ResponseWriter, *http.Request)
}

// NewCSRF creates the middleware. onFailure may be nil.
func NewCSRF(sessionCookie string, secure bool, onFailure func(http.ResponseWriter, *http.Request)) *CSRF {
	return &CSRF{sessionCookie: sessionCookie, secure: secure, onFailure: onFailure}
}

// NewToken returns a random token suitable for the csrftoken cookie.
func NewToken() (string, error) {
	b := make([]byte, 32)
	if _, err := rand.Read(b); err != nil {
		return "", err
	}
	return hex.EncodeToString(b), nil
}

// SetCookie issues a fresh token cookie and returns the token. The cookie
// is readable by scripts so that the client can copy it into CSRFHeader.
func (c *CSRF) SetCookie(w http.ResponseWriter, ttl time.Duration) (string, error) {
	token, err := NewToken()
	if err != nil {
		return "", err
	}
	http.SetCookie(w, &http.Cookie{
		Name:     CSRFCookie,
		Value:    token,
		Path:     "/",
		MaxAge:   int(ttl.Seconds()),
		Secure:   c.secure,
		SameSite: http.SameSiteLaxMode,
	})
	return token, nil
}

// ClearCookie expires the token cookie.
func (c *CSRF) ClearCookie(w http.ResponseWriter) {
	http.SetCookie(w, &http.Cookie{Name: CSRFCookie, Value: "", Path: "/", MaxAge: -1, Secure: c.secure})
}

func safeMethod(m string) bool {
	return m == http.MethodGet || m == http.MethodHead || m == http.MethodOptions
}

// Check reports whether r passes the double submit check.
func (c *CSRF) Check(r *http.Request) bool {
	if safeMethod(r.Method) {
		return true
	}
	if _, err := r.Cookie(c.sessionCookie); err != nil {
		return true
	}
	cookie, err := r.Cookie(CSRFCookie)
	if err != nil || cookie.Value == "" {
		return false
	}
	header := r.Header.Get(CSRFHeader)
	return header != "" && subtle.ConstantTimeCompare([]byte(cookie.Value), []byte(header)) == 1
}

// Middleware rejects unsafe cookie-authenticated requests without a
// matching token.
func (c *CSRF) Middleware(next http.Handler) http.Handler {
	return http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		if !c.Check(r) {
			if c.onFailure != nil {
				c.onFailure(w, r)
			} else {
				http.Error(w, "CSRF token missing or incorrect", http.StatusForbidden)
			}
			return
		}
		next.ServeHTTP(w, r)
	})
}
