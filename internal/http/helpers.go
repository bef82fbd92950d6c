package http

import (
	"errors"
	"fmt"
	"net/http"
	"strings"

	"fintrack/internal/auth"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/services"
)

// errBadRequest marks malformed requests that never reached a service.
var errBadRequest = errors.New("bad request")

var (
	errInvalidJSON = fmt.Errorf("%w: invalid JSON", errBadRequest)
	errInvalidForm = fmt.Errorf("%w: invalid form data", errBadRequest)
	errInvalidID   = fmt.Errorf("%w: invalid id", errBadRequest)
)

// sanitizeInput removes control characters and trims whitespace.
func sanitizeInput(s string) string {
	s = strings.TrimSpace(s)
	return strings.Map(func(r rune) rune {
		if r < 32 && r != 9 && r != 10 && r != 13 {
			return -1
		}
		return r
	}, s)
}

// session returns the session attached by the auth middleware. Routes
// using it are wrapped in auth.Require, so a missing session is a bug.
func session(r *http.Request) auth.Session {
	s, _ := auth.FromContext(r.Context())
	return s
}

// fail writes the response for err and logs it when it is a server error.
func (s *Server) fail(w http.ResponseWriter, r *http.Request, err error, op string) {
	if statusFor(err) >= http.StatusInternalServerError {
		applog.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			applog.FieldError, err,
			applog.FieldOperation, op,
			applog.FieldUserID, session(r).UserID,
			applog.FieldPath, r.URL.Path)
	}
	FromError(err).Write(w)
}

// parseBody parses the request body or writes the error response.
func (s *Server) parseBody(w http.ResponseWriter, r *http.Request, maxBytes int64) (*RequestBodyParser, bool) {
	p := NewRequestBodyParser(w, r, maxBytes)
	if err := p.Parse(); err != nil {
		p.Close()
		s.fail(w, r, err, "parse")
		return nil, false
	}
	return p, true
}

// parseAmount parses a positive decimal amount field.
func parseAmount(p *RequestBodyParser, key string) (core.Money, error) {
	raw := p.Get(key)
	m, err := core.ParseAmount(raw)
	if err != nil {
		return core.Money{}, fmt.Errorf("%w: %q", core.ErrInvalidAmount, raw)
	}
	return m, nil
}

// parseDate parses a required YYYY-MM-DD field.
func parseDate(p *RequestBodyParser, key string) (core.Date, error) {
	raw := p.Get(key)
	d, err := core.ParseDate(raw)
	if err != nil {
		return core.Date{}, fmt.Errorf("%w: %q", core.ErrInvalidDate, raw)
	}
	return d, nil
}

// upload opens the receipt part of a multipart body. The caller closes it.
func upload(p *RequestBodyParser) (*services.Upload, func(), error) {
	fh, ok := p.File("receipt")
	if !ok {
		return nil, func() {}, nil
	}
	f, err := fh.Open()
	if err != nil {
		return nil, func() {}, fmt.Errorf("open receipt upload: %w", err)
	}
	return &services.Upload{Filename: fh.Filename, Body: f}, func() { _ = f.Close() }, nil
}
