// Package memory keeps ledger entries in process, for local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sync"

	"fintrack/internal/sheets"
)

type Ledger struct {
	mu      sync.Mutex
	entries []sheets.LedgerEntry
	// FailWith, when set, is returned by AppendEntry.
	FailWith error
}

var _ sheets.LedgerWriter = (*Ledger)(nil)

func New() *Ledger {
	return &Ledger{}
}

func (l *Ledger) AppendEntry(_ context.Context, e sheets.LedgerEntry) (string, error) {
	l.mu.Lock()
	defer l.mu.Unlock()
	if l.FailWith != nil {
		return "", l.FailWith
	}
	l.entries = append(l.entries, e)
	return fmt.Sprintf("memory!%d", len(l.entries)), nil
}

// Entries returns a copy of everything appended so far.
func (l *Ledger) Entries() []sheets.LedgerEntry {
	l.mu.Lock()
	defer l.mu.Unlock()
	out := make([]sheets.LedgerEntry, len(l.entries))
	copy(out, l.entries)
	return out
}
