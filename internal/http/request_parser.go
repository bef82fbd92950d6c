// Package http provides HTTP server and handler implementations.
//
// This file implements utilities for parsing and validating HTTP request data.
// Handlers accept JSON, url-encoded and multipart bodies through one parser
// so the browser client may send whichever it prefers.

package http

import (
	"encoding/json"
	"errors"
	"fmt"
	"io"
	"mime"
	"mime/multipart"
	"net/http"
	"net/url"
	"strconv"
	"strings"
	"time"

	"fintrack/internal/core"
)

// multipartMemory is kept in memory before multipart parts spill to disk.
const multipartMemory = 1 << 20

// RequestBodyParser handles different content types for request body parsing.
type RequestBodyParser struct {
	r         *http.Request
	jsonData  map[string]any
	formData  url.Values
	files     map[string][]*multipart.FileHeader
	multipart bool
	parsed    bool
	err       error
}

// NewRequestBodyParser creates a parser for r whose body is capped at
// maxBytes. Reading past the cap fails with *http.MaxBytesError.
func NewRequestBodyParser(w http.ResponseWriter, r *http.Request, maxBytes int64) *RequestBodyParser {
	if maxBytes > 0 && r.Body != nil {
		r.Body = http.MaxBytesReader(w, r.Body, maxBytes)
	}
	return &RequestBodyParser{r: r}
}

// Parse reads the body once as JSON, multipart or url-encoded form.
func (p *RequestBodyParser) Parse() error {
	if p.parsed {
		return p.err
	}
	p.parsed = true
	p.err = p.parse()
	return p.err
}

func (p *RequestBodyParser) parse() error {
	mediaType, _, _ := mime.ParseMediaType(p.r.Header.Get("Content-Type"))
	if mediaType == "multipart/form-data" {
		if err := p.r.ParseMultipartForm(multipartMemory); err != nil {
			var tooLarge *http.MaxBytesError
			if errors.As(err, &tooLarge) {
				return err
			}
			return fmt.Errorf("%w: malformed multipart body", errBadRequest)
		}
		p.multipart = true
		p.formData = p.r.MultipartForm.Value
		p.files = p.r.MultipartForm.File
		return nil
	}

	if p.r.Body == nil {
		p.formData = url.Values{}
		return nil
	}
	body, err := io.ReadAll(p.r.Body)
	if err != nil {
		return err
	}
	trimmed := strings.TrimSpace(string(body))
	if trimmed == "" {
		p.formData = url.Values{}
		return nil
	}

	if mediaType == "application/json" || trimmed[0] == '{' {
		p.jsonData = make(map[string]any)
		if err := json.Unmarshal(body, &p.jsonData); err != nil {
			return errInvalidJSON
		}
		return nil
	}

	p.formData, err = url.ParseQuery(trimmed)
	if err != nil {
		return errInvalidForm
	}
	return nil
}

// Get returns a trimmed string value from the parsed data (JSON or form).
func (p *RequestBodyParser) Get(key string) string {
	if p.jsonData != nil {
		if val, ok := p.jsonData[key]; ok {
			return strings.TrimSpace(sanitizeInput(stringValue(val)))
		}
		return ""
	}
	if p.formData != nil {
		return strings.TrimSpace(sanitizeInput(p.formData.Get(key)))
	}
	return ""
}

// Raw returns a value without trimming. Passwords go through Raw.
func (p *RequestBodyParser) Raw(key string) string {
	if p.jsonData != nil {
		return stringValue(p.jsonData[key])
	}
	if p.formData != nil {
		return p.formData.Get(key)
	}
	return ""
}

// Has reports whether key was sent with a non-null value.
func (p *RequestBodyParser) Has(key string) bool {
	if p.jsonData != nil {
		v, ok := p.jsonData[key]
		return ok && v != nil
	}
	if p.formData != nil {
		_, ok := p.formData[key]
		return ok
	}
	return false
}

// ID parses a positive record id from key.
func (p *RequestBodyParser) ID(key string) (int64, error) {
	return parseID(p.Get(key))
}

// File returns the uploaded file under key, if any.
func (p *RequestBodyParser) File(key string) (*multipart.FileHeader, bool) {
	if fhs := p.files[key]; len(fhs) > 0 && fhs[0].Size > 0 {
		return fhs[0], true
	}
	return nil, false
}

// IsJSON returns true if the parsed content was JSON.
func (p *RequestBodyParser) IsJSON() bool {
	return p.jsonData != nil
}

// IsMultipart returns true if the parsed content was multipart/form-data.
func (p *RequestBodyParser) IsMultipart() bool {
	return p.multipart
}

// Close releases temporary files of a multipart body.
func (p *RequestBodyParser) Close() {
	if p.r.MultipartForm != nil {
		_ = p.r.MultipartForm.RemoveAll()
	}
}

// stringValue converts a decoded JSON value to string.
func stringValue(v any) string {
	switch val := v.(type) {
	case string:
		return val
	case float64:
		return strconv.FormatFloat(val, 'f', -1, 64)
	case json.Number:
		return val.String()
	case bool:
		return strconv.FormatBool(val)
	default:
		return ""
	}
}

// parseID parses a positive int64 record id.
func parseID(s string) (int64, error) {
	id, err := strconv.ParseInt(strings.TrimSpace(s), 10, 64)
	if err != nil || id <= 0 {
		return 0, errInvalidID
	}
	return id, nil
}

// parseYearMonth reads year and month from query parameters. A missing
// year is the current one; a missing month is defaultMonth. Values that
// are present but not numbers are rejected.
func parseYearMonth(q url.Values, now time.Time, defaultMonth int) (year, month int, err error) {
	year, month = now.Year(), defaultMonth
	if v := strings.TrimSpace(q.Get("year")); v != "" {
		if year, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: year %q", core.ErrInvalidDate, v)
		}
	}
	if v := strings.TrimSpace(q.Get("month")); v != "" {
		if month, err = strconv.Atoi(v); err != nil {
			return 0, 0, fmt.Errorf("%w: %q", core.ErrInvalidMonth, v)
		}
	}
	return year, month, nil
}
