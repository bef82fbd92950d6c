package services

import (
	"context"
	"fmt"
	"io"
	"os"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// ReceiptStore keeps the files attached to expenses.
type ReceiptStore interface {
	Save(filename string, r io.Reader) (string, error)
	Open(name string) (*os.File, error)
	Delete(name string) error
}

// Upload is a receipt file received with an expense.
type Upload struct {
	Filename string
	Body     io.Reader
}

// ExpenseService serves expenses from a per-user cache in front of the
// store and announces every change.
type ExpenseService struct {
	store    storage.ExpenseStore
	receipts ReceiptStore
	cache    *cache.Loader[[]core.Expense]
	events   emitter
	budgets  Invalidator
	logger   *applog.Logger
	audit    *applog.StructuredLogger
}

func NewExpenseService(store storage.ExpenseStore, receipts ReceiptStore, pub EventPublisher, budgets Invalidator, ttl time.Duration) *ExpenseService {
	logger := applog.Default(applog.ComponentExpense)
	return &ExpenseService{
		store:    store,
		receipts: receipts,
		cache:    cache.NewLoader(cache.NewLRUCache[[]core.Expense](1000, ttl)),
		events:   newEmitter(pub, applog.ComponentExpense),
		budgets:  budgets,
		logger:   logger,
		audit:    applog.NewStructuredLogger(logger),
	}
}

// Cache exposes the list cache for the cleanup manager.
func (s *ExpenseService) Cache() *cache.LRUCache[[]core.Expense] {
	return s.cache.Cache()
}

// All returns every expense of the user, newest first. The slice is shared
// with the cache and must not be modified.
func (s *ExpenseService) All(ctx context.Context, userID int64) ([]core.Expense, error) {
	list, err := s.cache.Get(ctx, userKey(userID), func(ctx context.Context) ([]core.Expense, error) {
		return s.store.ListExpenses(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	return list, nil
}

// List returns the expenses matching c and their summary.
func (s *ExpenseService) List(ctx context.Context, userID int64, c core.Criteria) ([]core.Expense, core.Summary, error) {
	if err := c.Validate(); err != nil {
		return nil, core.Summary{}, err
	}
	all, err := s.All(ctx, userID)
	if err != nil {
		return nil, core.Summary{}, err
	}
	filtered := core.Filter(all, c)
	return filtered, core.Summarize(filtered), nil
}

func (s *ExpenseService) Get(ctx context.Context, userID, id int64) (core.Expense, error) {
	return s.store.GetExpense(ctx, userID, id)
}

func (s *ExpenseService) invalidate(userID int64) {
	s.cache.Invalidate(userKey(userID))
	if s.budgets != nil {
		s.budgets.Invalidate(userID)
	}
}

func (s *ExpenseService) saveReceipt(receipt *Upload) (string, error) {
	if receipt == nil {
		return "", nil
	}
	if s.receipts == nil {
		return "", fmt.Errorf("receipt uploads are not configured")
	}
	return s.receipts.Save(receipt.Filename, receipt.Body)
}

func (s *ExpenseService) dropReceipt(ctx context.Context, name string) {
	if name == "" || s.receipts == nil {
		return
	}
	if err := s.receipts.Delete(name); err != nil {
		s.logger.WarnContext(ctx, "Failed to delete receipt", "receipt", name, applog.FieldError, err)
	}
}

// Create validates and stores e, attaching receipt when given.
func (s *ExpenseService) Create(ctx context.Context, e core.Expense, receipt *Upload) (core.Expense, error) {
	e.ID = 0
	e.Name = strings.TrimSpace(e.Name)
	e.Receipt = ""
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	name, err := s.saveReceipt(receipt)
	if err != nil {
		return core.Expense{}, err
	}
	e.Receipt = name

	created, err := s.store.CreateExpense(ctx, e)
	if err != nil {
		s.dropReceipt(ctx, name)
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}

	s.invalidate(e.UserID)
	s.audit.LogRecordChange(ctx, applog.OpCreate, created.UserID, amqp.KindExpense, created.ID, created.Amount.Cents, created.Category)
	s.events.emit(ctx, amqp.KindExpense, amqp.ActionCreated, created.ID, created.UserID)
	return created, nil
}

// Update replaces the editable fields of an existing expense. A new
// receipt replaces the old file; removeReceipt detaches it.
func (s *ExpenseService) Update(ctx context.Context, e core.Expense, receipt *Upload, removeReceipt bool) (core.Expense, error) {
	current, err := s.store.GetExpense(ctx, e.UserID, e.ID)
	if err != nil {
		return core.Expense{}, err
	}

	e.Name = strings.TrimSpace(e.Name)
	e.Receipt = current.Receipt
	if removeReceipt {
		e.Receipt = ""
	}
	if err := e.Validate(); err != nil {
		return core.Expense{}, err
	}

	name, err := s.saveReceipt(receipt)
	if err != nil {
		return core.Expense{}, err
	}
	if name != "" {
		e.Receipt = name
	}

	updated, err := s.store.UpdateExpense(ctx, e)
	if err != nil {
		s.dropReceipt(ctx, name)
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	if current.Receipt != updated.Receipt {
		s.dropReceipt(ctx, current.Receipt)
	}

	s.invalidate(e.UserID)
	s.audit.LogRecordChange(ctx, applog.OpUpdate, updated.UserID, amqp.KindExpense, updated.ID, updated.Amount.Cents, updated.Category)
	s.events.emit(ctx, amqp.KindExpense, amqp.ActionUpdated, updated.ID, updated.UserID)
	return updated, nil
}

func (s *ExpenseService) Delete(ctx context.Context, userID, id int64) error {
	current, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return err
	}
	if err := s.store.DeleteExpense(ctx, userID, id); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	s.dropReceipt(ctx, current.Receipt)

	s.invalidate(userID)
	s.audit.LogRecordChange(ctx, applog.OpDelete, userID, amqp.KindExpense, id, current.Amount.Cents, current.Category)
	s.events.emit(ctx, amqp.KindExpense, amqp.ActionDeleted, id, userID)
	return nil
}

// Receipt opens the receipt of an expense owned by userID.
func (s *ExpenseService) Receipt(ctx context.Context, userID, id int64) (*os.File, error) {
	e, err := s.store.GetExpense(ctx, userID, id)
	if err != nil {
		return nil, err
	}
	if e.Receipt == "" || s.receipts == nil {
		return nil, fmt.Errorf("expense %d has no receipt: %w", id, core.ErrNotFound)
	}
	return s.receipts.Open(e.Receipt)
}
