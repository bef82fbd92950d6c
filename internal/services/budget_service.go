package services

import (
	"context"
	"fmt"
	"sync"
	"time"

	"fintrack/internal/amqp"
	"fintrack/internal/cache"
	"fintrack/internal/core"
	applog "fintrack/internal/log"
	"fintrack/internal/storage"
)

// BudgetService serves budgets with spent amounts from a per-user cache.
type BudgetService struct {
	store  storage.BudgetStore
	cache  *cache.Loader[[]core.Budget]
	events emitter
	logger *applog.Logger
	audit  *applog.StructuredLogger

	// serialises limit edits so a rollback never overwrites a newer view
	editMu sync.Mutex
}

var _ Invalidator = (*BudgetService)(nil)

func NewBudgetService(store storage.BudgetStore, pub EventPublisher, ttl time.Duration) *BudgetService {
	logger := applog.Default(applog.ComponentBudget)
	return &BudgetService{
		store:  store,
		cache:  cache.NewLoader(cache.NewLRUCache[[]core.Budget](1000, ttl)),
		events: newEmitter(pub, applog.ComponentBudget),
		logger: logger,
		audit:  applog.NewStructuredLogger(logger),
	}
}

func (s *BudgetService) Cache() *cache.LRUCache[[]core.Budget] {
	return s.cache.Cache()
}

// Invalidate drops the cached view, e.g. after an expense changed spent.
func (s *BudgetService) Invalidate(userID int64) {
	s.cache.Invalidate(userKey(userID))
}

// List returns a copy of the user's budgets.
func (s *BudgetService) List(ctx context.Context, userID int64) ([]core.Budget, error) {
	list, err := s.cache.Get(ctx, userKey(userID), func(ctx context.Context) ([]core.Budget, error) {
		return s.store.ListBudgets(ctx, userID)
	})
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	return append([]core.Budget(nil), list...), nil
}

func (s *BudgetService) Create(ctx context.Context, b core.Budget) (core.Budget, error) {
	b.ID = 0
	b.Spent = core.Money{}
	if err := b.Validate(); err != nil {
		return core.Budget{}, err
	}
	created, err := s.store.CreateBudget(ctx, b)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget %q: %w", b.Category, err)
	}

	s.Invalidate(b.UserID)
	s.audit.LogRecordChange(ctx, applog.OpCreate, created.UserID, amqp.KindBudget, created.ID, created.Limit.Cents, created.Category)
	s.events.emit(ctx, amqp.KindBudget, amqp.ActionCreated, created.ID, created.UserID)
	return created, nil
}

func (s *BudgetService) Delete(ctx context.Context, userID, id int64) error {
	if err := s.store.DeleteBudget(ctx, userID, id); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	s.Invalidate(userID)
	s.audit.LogRecordChange(ctx, applog.OpDelete, userID, amqp.KindBudget, id, 0, "")
	s.events.emit(ctx, amqp.KindBudget, amqp.ActionDeleted, id, userID)
	return nil
}

// UpdateLimit changes the limit of one budget in two phases. The new limit
// is first applied to the cached view, then persisted. On success the
// cached entry is replaced by the stored row; on failure the previous view
// is restored and the store error is returned. The category never changes.
// Both writes are skipped once anything else invalidated the view, e.g. an
// expense changing spent; the next read then reloads from the store.
func (s *BudgetService) UpdateLimit(ctx context.Context, userID, id int64, limit core.Money) (core.Budget, error) {
	if limit.Cents <= 0 {
		return core.Budget{}, fmt.Errorf("%w: budget limit must be positive", core.ErrInvalidAmount)
	}

	s.editMu.Lock()
	defer s.editMu.Unlock()

	key := userKey(userID)
	gen := s.cache.Generation(key)
	previous, err := s.List(ctx, userID)
	if err != nil {
		return core.Budget{}, err
	}
	idx := -1
	for i, b := range previous {
		if b.ID == id {
			idx = i
			break
		}
	}
	if idx < 0 {
		return core.Budget{}, fmt.Errorf("budget %d: %w", id, core.ErrNotFound)
	}

	optimistic := append([]core.Budget(nil), previous...)
	optimistic[idx].Limit = limit
	s.cache.SetIf(key, optimistic, gen)

	updated, err := s.store.UpdateBudgetLimit(ctx, userID, id, limit)
	if err != nil {
		s.cache.SetIf(key, previous, gen)
		s.logger.WarnContext(ctx, "Rolled back budget limit",
			applog.FieldOperation, applog.OpRollback,
			applog.FieldUserID, userID,
			applog.FieldRecordID, id,
			applog.FieldError, err)
		return core.Budget{}, fmt.Errorf("update budget %d: %w", id, err)
	}

	committed := append([]core.Budget(nil), optimistic...)
	committed[idx] = updated
	s.cache.SetIf(key, committed, gen)

	s.audit.LogRecordChange(ctx, applog.OpUpdate, userID, amqp.KindBudget, id, updated.Limit.Cents, updated.Category)
	s.events.emit(ctx, amqp.KindBudget, amqp.ActionUpdated, id, userID)
	return updated, nil
}
