package memory

import (
	"testing"

	"fintrack/internal/storage"
	"fintrack/internal/storage/storagetest"
)

func TestMemoryStore(t *testing.T) {
	storagetest.Run(t, func(*testing.T) storage.Store { return New() })
}
