package receipts

import (
	"errors"
	"io"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"fintrack/internal/core"
)

func newStorage(t *testing.T, max int64) (*LocalStorage, string) {
	t.Helper()
	dir := filepath.Join(t.TempDir(), "receipts")
	s, err := NewLocalStorage(dir, max)
	if err != nil {
		t.Fatal(err)
	}
	return s, dir
}

func TestSaveOpenDelete(t *testing.T) {
	s, dir := newStorage(t, 1024)

	name, err := s.Save("Scan.PNG", strings.NewReader("png-bytes"))
	if err != nil {
		t.Fatal(err)
	}
	if filepath.Ext(name) != ".png" || strings.Contains(name, "Scan") {
		t.Errorf("unexpected stored name %q", name)
	}

	f, err := s.Open(name)
	if err != nil {
		t.Fatal(err)
	}
	b, _ := io.ReadAll(f)
	f.Close()
	if string(b) != "png-bytes" {
		t.Errorf("content = %q", b)
	}

	if err := s.Delete(name); err != nil {
		t.Fatal(err)
	}
	if _, err := os.Stat(filepath.Join(dir, name)); !errors.Is(err, os.ErrNotExist) {
		t.Error("file should be gone")
	}
	if err := s.Delete(name); err != nil {
		t.Errorf("second delete: %v", err)
	}
	if _, err := s.Open(name); !errors.Is(err, core.ErrNotFound) {
		t.Errorf("expected ErrNotFound, got %v", err)
	}
}

func TestSaveRejects(t *testing.T) {
	s, dir := newStorage(t, 4)

	if _, err := s.Save("notes.exe", strings.NewReader("x")); !errors.Is(err, ErrUnsupportedType) {
		t.Errorf("expected ErrUnsupportedType, got %v", err)
	}
	if _, err := s.Save("big.pdf", strings.NewReader("12345")); !errors.Is(err, ErrTooLarge) {
		t.Errorf("expected ErrTooLarge, got %v", err)
	}
	entries, _ := os.ReadDir(dir)
	if len(entries) != 0 {
		t.Errorf("rejected uploads must not leave files, found %d", len(entries))
	}
	if _, err := s.Save("ok.pdf", strings.NewReader("1234")); err != nil {
		t.Errorf("file at the limit rejected: %v", err)
	}
}

func TestOpenRejectsTraversal(t *testing.T) {
	s, _ := newStorage(t, 1024)
	for _, name := range []string{"../secret.png", "a/b.png", ".hidden", ""} {
		if _, err := s.Open(name); !errors.Is(err, core.ErrNotFound) {
			t.Errorf("Open(%q) = %v, want ErrNotFound", name, err)
		}
	}
}
