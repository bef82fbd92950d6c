package services

import (
	"context"
	"fmt"
	"strings"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// IncomeService mirrors ExpenseService for incomes, which have a free-form
// source instead of a category and no receipts.
type IncomeService struct {
	store  storage.IncomeStore
	cache  *cache.Loader[[]core.Income]
	events emitter
	audit  *applog.StructuredLogger
}

func NewIncomeService(store storage.IncomeStore, pub EventPublisher, ttl time.Duration) *IncomeService {
	return &IncomeService{
		store:  store,
		cache:  cache.NewLoader(cache.NewLRUCache[[]core.Income](1000, ttl)),
		events: newEmitter(pub, applog.ComponentIncome),
		audit:  applog.NewStructuredLogger(applog.Default(applog.ComponentIncome)),
	}
}

func (s *IncomeService) Cache() *cache.LRUCache[[]core.Income] {
	return s.cache.Cache()
}

func (s *IncomeService) All(ctx context.Context, userID int64) ([]core.Income, error) {
	list, err := s.cache.Get(ctx, userKey(userID), func(ctx context.Context) ([]core.Income, error) {
		return s.store.ListIncomes(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	return list, nil
}

func (s *IncomeService) List(ctx context.Context, userID int64, c core.Criteria) ([]core.Income, core.Summary, error) {
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

func (s *IncomeService) Get(ctx context.Context, userID, id int64) (core.Income, error) {
	return s.store.GetIncome(ctx, userID, id)
}

func normalizeIncome(in *core.Income) {
	in.Name = strings.TrimSpace(in.Name)
	in.Source = strings.TrimSpace(in.Source)
}

func (s *IncomeService) Create(ctx context.Context, in core.Income) (core.Income, error) {
	in.ID = 0
	normalizeIncome(&in)
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	created, err := s.store.CreateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}

	s.cache.Invalidate(userKey(in.UserID))
	s.audit.LogRecordChange(ctx, applog.OpCreate, created.UserID, amqp.KindIncome, created.ID, created.Amount.Cents, created.Source)
	s.events.emit(ctx, amqp.KindIncome, amqp.ActionCreated, created.ID, created.UserID)
	return created, nil
}

func (s *IncomeService) Update(ctx context.Context, in core.Income) (core.Income, error) {
	normalizeIncome(&in)
	if err := in.Validate(); err != nil {
		return core.Income{}, err
	}
	updated, err := s.store.UpdateIncome(ctx, in)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", in.ID, err)
	}

	s.cache.Invalidate(userKey(in.UserID))
	s.audit.LogRecordChange(ctx, applog.OpUpdate, updated.UserID, amqp.KindIncome, updated.ID, updated.Amount.Cents, updated.Source)
	s.events.emit(ctx, amqp.KindIncome, amqp.ActionUpdated, updated.ID, updated.UserID)
	return updated, nil
}

func (s *IncomeService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteIncome(ctx, userID, id); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	s.cache.Invalidate(userKey(userID))
	s.audit.LogRecordChange(ctx, applog.OpDelete, userID, amqp.KindIncome, id, 0, "")
	s.events.emit(ctx, amqp.KindIncome, amqp.ActionDeleted, id, userID)
	return nil
}
