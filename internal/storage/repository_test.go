package storage_test

import (
	"context"
	"path/filepath"
	"testing"

	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func newSQLite(t *testing.T) storage.Store {
	t.Helper()
	repo, err := storage.NewSQLiteRepository(filepath.Join(t.TempDir(), "nested", "fintrack.db"))
	if err != nil {
		t.Fatalf("NewSQLiteRepository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func TestSQLiteRepository(t *testing.T) {
	storagetest.Run(t, newSQLite)
}

func TestSQLiteMigrationsAreIdempotent(t *testing.T) {
	path := filepath.Join(t.TempDir(), "fintrack.db")
	first, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatal(err)
	}
	first.Close()

	second, err := storage.NewSQLiteRepository(path)
	if err != nil {
		t.Fatalf("reopening must not fail: %v", err)
	}
	defer second.Close()
	if err := second.Ping(context.Background()); err != nil {
		t.Fatal(err)
	}
}
