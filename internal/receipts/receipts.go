// Package receipts stores expense receipt files on local disk.
package receipts

import (
	"errors"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"strings"

	"github.com/google/uuid"

	"fintrack/internal/core"
)

// ErrTooLarge is returned when an upload exceeds the configured size.
var ErrTooLarge = errors.New("receipt file too large")

// ErrUnsupportedType is returned for extensions outside allowedExt.
var ErrUnsupportedType = errors.New("unsupported receipt file type")

var allowedExt = map[string]bool{
	".jpg": true, ".jpeg": true, ".png": true, ".gif": true, ".webp": true, ".pdf": true,
}

// LocalStorage keeps receipts in a single directory under random names.
type LocalStorage struct {
	dir      string
	maxBytes int64
}

func NewLocalStorage(dir string, maxBytes int64) (*LocalStorage, error) {
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, fmt.Errorf("create receipt directory: %w", err)
	}
	return &LocalStorage{dir: dir, maxBytes: maxBytes}, nil
}

// MaxBytes is the upload size limit.
func (s *LocalStorage) MaxBytes() int64 {
	return s.maxBytes
}

// Save writes r under a new name that keeps the extension of filename and
// returns that name.
func (s *LocalStorage) Save(filename string, r io.Reader) (string, error) {
	ext := strings.ToLower(filepath.Ext(filename))
	if !allowedExt[ext] {
		return "", fmt.Errorf("%w: %q", ErrUnsupportedType, ext)
	}

	name := uuid.NewString() + ext
	path := filepath.Join(s.dir, name)
	f, err := os.OpenFile(path, os.O_WRONLY|os.O_CREATE|os.O_EXCL, 0o644)
	if err != nil {
		return "", fmt.Errorf("create receipt: %w", err)
	}

	n, err := io.Copy(f, io.LimitReader(r, s.maxBytes+1))
	closeErr := f.Close()
	switch {
	case err != nil:
		os.Remove(path)
		return "", fmt.Errorf("write receipt: %w", err)
	case n > s.maxBytes:
		os.Remove(path)
		return "", ErrTooLarge
	case closeErr != nil:
		os.Remove(path)
		return "", fmt.Errorf("close receipt: %w", closeErr)
	}
	return name, nil
}

// resolve rejects names that are not plain file names.
func (s *LocalStorage) resolve(name string) (string, error) {
	if name == "" || name != filepath.Base(name) || strings.HasPrefix(name, ".") {
		return "", fmt.Errorf("receipt %q: %w", name, core.ErrNotFound)
	}
	return filepath.Join(s.dir, name), nil
}

// Open returns the stored file. The caller closes it.
func (s *LocalStorage) Open(name string) (*os.File, error) {
	path, err := s.resolve(name)
	if err != nil {
		return nil, err
	}
	f, err := os.Open(path)
	if errors.Is(err, os.ErrNotExist) {
		return nil, fmt.Errorf("receipt %q: %w", name, core.ErrNotFound)
	}
	return f, err
}

// Delete removes the file. Deleting a missing file is not an error.
func (s *LocalStorage) Delete(name string) error {
	if name == "" {
		return nil
	}
	path, err := s.resolve(name)
	if err != nil {
		return err
	}
	if err := os.Remove(path); err != nil && !errors.Is(err, os.ErrNotExist) {
		return fmt.Errorf("delete receipt: %w", err)
	}
	return nil
}
