package worker

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	sheetsmem "fintrack/internal/sheets/memory"
	"fintrack/internal/storage/memory"
)

func seed(t *testing.T) (*memory.Store, core.User, core.Expense) {
	t.Helper()
	store := memory.New()
	ctx := context.Background()
	u, err := store.CreateUser(ctx, core.User{Username: "alice", Email: "a@example.com", PasswordHash: "h"}, nil)
	if err != nil {
		t.Fatal(err)
	}
	e, err := store.CreateExpense(ctx, core.Expense{
		UserID: u.ID, Name: "Grocery Store", Category: "Food & Dining",
		Amount: core.Money{Cents: 5642}, Date: core.NewDate(2023, 6, 12),
	})
	if err != nil {
		t.Fatal(err)
	}
	return store, u, e
}

func TestHandleEventCreated(t *testing.T) {
	store, u, e := seed(t)
	ledger := sheetsmem.New()
	w := NewLedgerWorker(store, ledger)

	if err := w.HandleEvent(context.Background(), amqp.NewRecordEvent(amqp.KindExpense, amqp.ActionCreated, e.ID, u.ID)); err != nil {
		t.Fatal(err)
	}

	entries := ledger.Entries()
	if len(entries) != 1 {
		t.Fatalf("expected 1 entry, got %d", len(entries))
	}
	got := entries[0]
	if got.Name != "Grocery Store" || got.Label != "Food & Dining" || got.Amount.Cents != 5642 || !got.HasAmount {
		t.Errorf("entry = %+v", got)
	}
	if !got.Date.SameDay(core.NewDate(2023, 6, 12)) {
		t.Errorf("date = %v", got.Date)
	}
}

func TestHandleEventDeletedWritesIdentifiersOnly(t *testing.T) {
	store, u, e := seed(t)
	ledger := sheetsmem.New()
	w := NewLedgerWorker(store, ledger)

	if err := w.HandleEvent(context.Background(), amqp.NewRecordEvent(amqp.KindExpense, amqp.ActionDeleted, e.ID, u.ID)); err != nil {
		t.Fatal(err)
	}
	got := ledger.Entries()[0]
	if got.Name != "" || got.HasAmount || got.ID != e.ID || got.Action != amqp.ActionDeleted {
		t.Errorf("entry = %+v", got)
	}
}

func TestHandleEventMissingRecord(t *testing.T) {
	store, u, _ := seed(t)
	ledger := sheetsmem.New()
	w := NewLedgerWorker(store, ledger)

	err := w.HandleEvent(context.Background(), amqp.NewRecordEvent(amqp.KindIncome, amqp.ActionUpdated, 999, u.ID))
	if err != nil {
		t.Fatalf("missing record must not be retried: %v", err)
	}
	if got := ledger.Entries()[0]; got.HasAmount || got.ID != 999 {
		t.Errorf("entry = %+v", got)
	}
}

func TestHandleEventLedgerFailure(t *testing.T) {
	store, u, e := seed(t)
	ledger := sheetsmem.New()
	ledger.FailWith = errors.New("quota exceeded")
	w := NewLedgerWorker(store, ledger)

	if err := w.HandleEvent(context.Background(), amqp.NewRecordEvent(amqp.KindExpense, amqp.ActionCreated, e.ID, u.ID)); err == nil {
		t.Fatal("expected ledger failure to surface so the event is requeued")
	}
}

func TestPruneRevokedTokens(t *testing.T) {
	store := memory.New()
	ctx := context.Background()
	now := time.Now()
	_ = store.RevokeToken(ctx, "old", now.Add(-time.Minute))
	_ = store.RevokeToken(ctx, "live", now.Add(time.Minute))

	if err := PruneRevokedTokens(ctx, store, now); err != nil {
		t.Fatal(err)
	}
	if revoked, _ := store.IsTokenRevoked(ctx, "old"); revoked {
		t.Error("expired token should be pruned")
	}
	if revoked, _ := store.IsTokenRevoked(ctx, "live"); !revoked {
		t.Error("live token must stay revoked")
	}
}

func TestEveryStopsOnCancel(t *testing.T) {
	ctx, cancel := context.WithCancel(context.Background())
	calls := make(chan struct{}, 10)
	done := make(chan struct{})
	go func() {
		Every(ctx, time.Millisecond, "test", func(context.Context) error {
			select {
			case calls <- struct{}{}:
			default:
			}
			return nil
		})
		close(done)
	}()

	select {
	case <-calls:
	case <-time.After(time.Second):
		t.Fatal("job never ran")
	}
	cancel()
	select {
	case <-done:
	case <-time.After(time.Second):
		t.Fatal("Every did not return after cancel")
	}
}
