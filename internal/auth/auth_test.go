package auth

import (
	"context"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"github.com/golang-jwt/jwt/v5"

	"fintrack/internal/core"
)

const testSecret = "0123456789abcdef0123456789abcdef"

type revokedSet map[string]bool

func (r revokedSet) IsTokenRevoked(_ context.Context, id string) (bool, error) {
	return r[id], nil
}

func TestPasswordHashing(t *testing.T) {
	hash, err := HashPassword("Abcdef1!")
	if err != nil {
		t.Fatal(err)
	}
	if hash == "Abcdef1!" {
		t.Fatal("hash must not equal the password")
	}
	if err := CheckPassword(hash, "Abcdef1!"); err != nil {
		t.Errorf("matching password rejected: %v", err)
	}
	if err := CheckPassword(hash, "abcdef1!"); !errors.Is(err, core.ErrUnauthorized) {
		t.Errorf("expected ErrUnauthorized, got %v", err)
	}
	if _, err := HashPassword(strings.Repeat("a", 73)); !errors.Is(err, core.ErrPasswordTooLong) {
		t.Errorf("73 byte password: %v", err)
	}
}

func TestManagerIssueAndParse(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	token, issued, err := m.Issue(42, "alice")
	if err != nil {
		t.Fatal(err)
	}
	if issued.TokenID == "" {
		t.Fatal("token id must be set")
	}

	got, err := m.Parse(token)
	if err != nil {
		t.Fatal(err)
	}
	if got.UserID != 42 || got.Username != "alice" || got.TokenID != issued.TokenID || !got.ExpiresAt.Equal(issued.ExpiresAt) {
		t.Errorf("Parse = %+v, issued %+v", got, issued)
	}
}

func TestManagerRejects(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	token, _, _ := m.Issue(1, "alice")

	expired := NewManager(testSecret, time.Hour)
	expired.now = func() time.Time { return time.Now().Add(2 * time.Hour) }

	otherKey := NewManager("ffffffffffffffffffffffffffffffff", time.Hour)

	none := jwt.NewWithClaims(jwt.SigningMethodNone, jwt.MapClaims{"sub": "1", "jti": "x", "iss": issuer, "exp": time.Now().Add(time.Hour).Unix()})
	noneToken, _ := none.SignedString(jwt.UnsafeAllowNoneSignatureType)

	tests := []struct {
		name  string
		m     *Manager
		token string
	}{
		{"expired", expired, token},
		{"wrong key", otherKey, token},
		{"garbage", m, "not.a.token"},
		{"alg none", m, noneToken},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if _, err := tt.m.Parse(tt.token); !errors.Is(err, core.ErrUnauthorized) {
				t.Errorf("expected ErrUnauthorized, got %v", err)
			}
		})
	}
}

func TestAuthenticatorMiddleware(t *testing.T) {
	m := NewManager(testSecret, time.Hour)
	token, session, _ := m.Issue(7, "bob")
	revoked := revokedSet{}
	a := NewAuthenticator(m, revoked, false)

	handler := a.Middleware(Require(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusUnauthorized)
	})(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		s, _ := FromContext(r.Context())
		if s.UserID != 7 {
			t.Errorf("session user = %d", s.UserID)
		}
		w.WriteHeader(http.StatusOK)
	})))

	tests := []struct {
		name    string
		prepare func(*http.Request)
		want    int
	}{
		{"no credentials", func(*http.Request) {}, http.StatusUnauthorized},
		{"cookie", func(r *http.Request) { r.AddCookie(&http.Cookie{Name: SessionCookie, Value: token}) }, http.StatusOK},
		{"bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer "+token) }, http.StatusOK},
		{"bad bearer", func(r *http.Request) { r.Header.Set("Authorization", "Bearer nope") }, http.StatusUnauthorized},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodGet, "/user/me/", nil)
			tt.prepare(req)
			rec := httptest.NewRecorder()
			handler.ServeHTTP(rec, req)
			if rec.Code != tt.want {
				t.Errorf("status = %d, want %d", rec.Code, tt.want)
			}
		})
	}

	t.Run("revoked", func(t *testing.T) {
		revoked[session.TokenID] = true
		req := httptest.NewRequest(http.MethodGet, "/user/me/", nil)
		req.AddCookie(&http.Cookie{Name: SessionCookie, Value: token})
		rec := httptest.NewRecorder()
		handler.ServeHTTP(rec, req)
		if rec.Code != http.StatusUnauthorized {
			t.Errorf("revoked session accepted: %d", rec.Code)
		}
	})
}

func TestSessionCookie(t *testing.T) {
	a := NewAuthenticator(NewManager(testSecret, time.Hour), revokedSet{}, true)
	rec := httptest.NewRecorder()
	a.SetCookie(rec, "tok", time.Now().Add(time.Hour))

	cookies := rec.Result().Cookies()
	if len(cookies) != 1 {
		t.Fatalf("expected one cookie, got %d", len(cookies))
	}
	c := cookies[0]
	if c.Name != SessionCookie || !c.HttpOnly || !c.Secure || c.SameSite != http.SameSiteLaxMode {
		t.Errorf("cookie = %+v", c)
	}
}
