package worker

import (
	"context"
	"errors"
	"fmt"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/sheets"
	"fintrack/internal/storage"
)

// RecordReader is the part of the store the worker reads from.
type RecordReader interface {
	GetExpense(ctx context.Context, userID, id int64) (core.Expense, error)
	GetIncome(ctx context.Context, userID, id int64) (core.Income, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
}

// LedgerWorker turns record events into ledger rows.
type LedgerWorker struct {
	records RecordReader
	ledger  sheets.LedgerWriter
	logger  *applog.Logger
}

func NewLedgerWorker(records RecordReader, ledger sheets.LedgerWriter) *LedgerWorker {
	return &LedgerWorker{
		records: records,
		ledger:  ledger,
		logger:  applog.Default(applog.ComponentWorker),
	}
}

// HandleEvent appends one ledger row for event. A record that vanished
// before the event was processed is written with identifiers only.
func (w *LedgerWorker) HandleEvent(ctx context.Context, event *amqp.RecordEvent) error {
	entry := sheets.LedgerEntry{
		Timestamp: event.Timestamp,
		Action:    event.Action,
		Kind:      event.Kind,
		ID:        event.ID,
		UserID:    event.UserID,
	}
	if entry.Timestamp.IsZero() {
		entry.Timestamp = time.Now().UTC()
	}

	if event.Action != amqp.ActionDeleted {
		err := w.describe(ctx, event, &entry)
		switch {
		case errors.Is(err, core.ErrNotFound):
			w.logger.WarnContext(ctx, "Record no longer exists, writing identifiers only",
				applog.FieldRecordKind, event.Kind, applog.FieldRecordID, event.ID)
		case err != nil:
			return fmt.Errorf("load %s %d: %w", event.Kind, event.ID, err)
		}
	}

	ref, err := w.ledger.AppendEntry(ctx, entry)
	if err != nil {
		return fmt.Errorf("append ledger entry: %w", err)
	}

	w.logger.InfoContext(ctx, "Recorded ledger entry",
		applog.FieldRecordKind, event.Kind,
		applog.FieldRecordID, event.ID,
		applog.FieldUserID, event.UserID,
		"action", event.Action,
		"row", ref)
	return nil
}

func (w *LedgerWorker) describe(ctx context.Context, event *amqp.RecordEvent, entry *sheets.LedgerEntry) error {
	switch event.Kind {
	case amqp.KindExpense:
		e, err := w.records.GetExpense(ctx, event.UserID, event.ID)
		if err != nil {
			return err
		}
		entry.Name, entry.Label, entry.Amount, entry.Date = e.Name, e.Category, e.Amount, e.Date
	case amqp.KindIncome:
		in, err := w.records.GetIncome(ctx, event.UserID, event.ID)
		if err != nil {
			return err
		}
		entry.Name, entry.Label, entry.Amount, entry.Date = in.Name, in.Source, in.Amount, in.Date
	case amqp.KindBudget:
		b, err := w.records.GetBudget(ctx, event.UserID, event.ID)
		if err != nil {
			return err
		}
		entry.Name, entry.Label, entry.Amount = b.Category, b.Category, b.Limit
	default:
		return fmt.Errorf("unknown record kind %q", event.Kind)
	}
	entry.HasAmount = true
	return nil
}

// PruneRevokedTokens deletes revoked session tokens whose expiry has passed.
func PruneRevokedTokens(ctx context.Context, tokens storage.TokenStore, now time.Time) error {
	n, err := tokens.PruneRevokedTokens(ctx, now)
	if err != nil {
		return fmt.Errorf("prune revoked tokens: %w", err)
	}
	if n > 0 {
		applog.Default(applog.ComponentWorker).InfoContext(ctx, "Pruned revoked tokens", "count", n)
	}
	return nil
}

// Every runs fn at interval until ctx is done. Errors are logged.
func Every(ctx context.Context, interval time.Duration, name string, fn func(context.Context) error) {
	logger := applog.Default(applog.ComponentWorker)
	ticker := time.NewTicker(interval)
	defer ticker.Stop()
	for {
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
			if err := fn(ctx); err != nil {
				logger.ErrorContext(ctx, "Periodic job failed", "job", name, applog.FieldError, err)
			}
		}
	}
}
