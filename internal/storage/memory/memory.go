// Package memory is an in-process implementation of storage.Store used for
// local runs and tests.
package memory

import (
	"context"
	"fmt"
	"sort"
	"strings"
	"sync"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Store keeps everything in maps guarded by a single mutex.
type Store struct {
	mu       sync.RWMutex
	nextID   int64
	users    map[int64]core.User
	expenses map[int64]core.Expense
	incomes  map[int64]core.Income
	budgets  map[int64]core.Budget
	revoked  map[string]time.Time
}

var _ storage.Store = (*Store)(nil)

func New() *Store {
	return &Store{
		users:    make(map[int64]core.User),
		expenses: make(map[int64]core.Expense),
		incomes:  make(map[int64]core.Income),
		budgets:  make(map[int64]core.Budget),
		revoked:  make(map[string]time.Time),
	}
}

func (s *Store) id() int64 {
	s.nextID++
	return s.nextID
}

func (s *Store) Ping(context.Context) error { return nil }
func (s *Store) Close() error               { return nil }

// Users

func (s *Store) CreateUser(_ context.Context, u core.User, budgetCategories []string) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	for _, existing := range s.users {
		if strings.EqualFold(existing.Username, u.Username) || strings.EqualFold(existing.Email, u.Email) {
			return core.User{}, fmt.Errorf("create user: %w", core.ErrConflict)
		}
	}
	u.ID = s.id()
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	s.users[u.ID] = u
	for _, category := range budgetCategories {
		b := core.Budget{ID: s.id(), UserID: u.ID, Category: category}
		s.budgets[b.ID] = b
	}
	return u, nil
}

func (s *Store) GetUserByID(_ context.Context, id int64) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	u, ok := s.users[id]
	if !ok {
		return core.User{}, fmt.Errorf("get user %d: %w", id, core.ErrNotFound)
	}
	return u, nil
}

func (s *Store) GetUserByUsername(_ context.Context, username string) (core.User, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	for _, u := range s.users {
		if strings.EqualFold(u.Username, username) {
			return u, nil
		}
	}
	return core.User{}, fmt.Errorf("get user %q: %w", username, core.ErrNotFound)
}

func (s *Store) UpdateUser(_ context.Context, u core.User) (core.User, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.users[u.ID]
	if !ok {
		return core.User{}, fmt.Errorf("update user %d: %w", u.ID, core.ErrNotFound)
	}
	for id, other := range s.users {
		if id != u.ID && (strings.EqualFold(other.Username, u.Username) || strings.EqualFold(other.Email, u.Email)) {
			return core.User{}, fmt.Errorf("update user %d: %w", u.ID, core.ErrConflict)
		}
	}
	u.CreatedAt = current.CreatedAt
	s.users[u.ID] = u
	return u, nil
}

// Expenses

func newestFirst(di, dj core.Date, idi, idj int64) bool {
	if c := di.Compare(dj); c != 0 {
		return c > 0
	}
	return idi > idj
}

func (s *Store) ListExpenses(_ context.Context, userID int64) ([]core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Expense{}
	for _, e := range s.expenses {
		if e.UserID == userID {
			out = append(out, e)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) GetExpense(_ context.Context, userID, id int64) (core.Expense, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, core.ErrNotFound)
	}
	return e, nil
}

func (s *Store) CreateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	e.ID = s.id()
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) UpdateExpense(_ context.Context, e core.Expense) (core.Expense, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.expenses[e.ID]
	if !ok || current.UserID != e.UserID {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, core.ErrNotFound)
	}
	s.expenses[e.ID] = e
	return e, nil
}

func (s *Store) DeleteExpense(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	e, ok := s.expenses[id]
	if !ok || e.UserID != userID {
		return fmt.Errorf("delete expense %d: %w", id, core.ErrNotFound)
	}
	delete(s.expenses, id)
	return nil
}

// Incomes

func (s *Store) ListIncomes(_ context.Context, userID int64) ([]core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Income{}
	for _, in := range s.incomes {
		if in.UserID == userID {
			out = append(out, in)
		}
	}
	sort.Slice(out, func(i, j int) bool { return newestFirst(out[i].Date, out[j].Date, out[i].ID, out[j].ID) })
	return out, nil
}

func (s *Store) GetIncome(_ context.Context, userID, id int64) (core.Income, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	in, ok := s.incomes[id]
	if !ok || in.UserID != userID {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, core.ErrNotFound)
	}
	return in, nil
}

func (s *Store) CreateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	in.ID = s.id()
	s.incomes[in.ID] = in
	return in, nil
}

func (s *Store) UpdateIncome(_ context.Context, in core.Income) (core.Income, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	current, ok := s.incomes[in.ID]
	if !ok || current.UserID != in.UserID {
		return core.Income{}, fmt.Errorf("update income %d: %w", in.ID, core.ErrNotFound)
	}
	s.incomes[in.ID] = in
	return in, nil
}

func (s *Store) DeleteIncome(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	in, ok := s.incomes[id]
	if !ok || in.UserID != userID {
		return fmt.Errorf("delete income %d: %w", id, core.ErrNotFound)
	}
	delete(s.incomes, id)
	return nil
}

// Budgets

// spent must be called with the lock held.
func (s *Store) spent(userID int64, category string) core.Money {
	var total core.Money
	for _, e := range s.expenses {
		if e.UserID == userID && e.Category == category {
			total.Cents += e.Amount.Cents
		}
	}
	return total
}

func (s *Store) ListBudgets(_ context.Context, userID int64) ([]core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	out := []core.Budget{}
	for _, b := range s.budgets {
		if b.UserID == userID {
			b.Spent = s.spent(userID, b.Category)
			out = append(out, b)
		}
	}
	sort.Slice(out, func(i, j int) bool { return out[i].ID < out[j].ID })
	return out, nil
}

func (s *Store) getBudgetLocked(userID, id int64) (core.Budget, error) {
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, core.ErrNotFound)
	}
	b.Spent = s.spent(userID, b.Category)
	return b, nil
}

func (s *Store) GetBudget(_ context.Context, userID, id int64) (core.Budget, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	return s.getBudgetLocked(userID, id)
}

func (s *Store) CreateBudget(_ context.Context, b core.Budget) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	for _, existing := range s.budgets {
		if existing.UserID == b.UserID && existing.Category == b.Category {
			return core.Budget{}, fmt.Errorf("create budget: %w", core.ErrConflict)
		}
	}
	b.ID = s.id()
	b.Spent = core.Money{}
	s.budgets[b.ID] = b
	return s.getBudgetLocked(b.UserID, b.ID)
}

func (s *Store) UpdateBudgetLimit(_ context.Context, userID, id int64, limit core.Money) (core.Budget, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", id, core.ErrNotFound)
	}
	b.Limit = limit
	s.budgets[id] = b
	return s.getBudgetLocked(userID, id)
}

func (s *Store) DeleteBudget(_ context.Context, userID, id int64) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	b, ok := s.budgets[id]
	if !ok || b.UserID != userID {
		return fmt.Errorf("delete budget %d: %w", id, core.ErrNotFound)
	}
	delete(s.budgets, id)
	return nil
}

// Tokens

func (s *Store) RevokeToken(_ context.Context, tokenID string, expiresAt time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.revoked[tokenID] = expiresAt
	return nil
}

func (s *Store) IsTokenRevoked(_ context.Context, tokenID string) (bool, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()
	_, ok := s.revoked[tokenID]
	return ok, nil
}

func (s *Store) PruneRevokedTokens(_ context.Context, now time.Time) (int64, error) {
	s.mu.Lock()
	defer s.mu.Unlock()
	var n int64
	for id, exp := range s.revoked {
		if exp.Before(now) {
			delete(s.revoked, id)
			n++
		}
	}
	return n, nil
}
