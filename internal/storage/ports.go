package storage

import (
	"context"
	"time"

	"fintrack/internal/core"
)

// Every record operation is scoped to the owning user. Rows belonging to
// another user are reported as core.ErrNotFound.

// UserStore persists accounts.
type UserStore interface {
	// CreateUser stores u and seeds one zero-limit budget per category in
	// the same transaction. Duplicate username or email yields core.ErrConflict.
	CreateUser(ctx context.Context, u core.User, budgetCategories []string) (core.User, error)
	GetUserByID(ctx context.Context, id int64) (core.User, error)
	GetUserByUsername(ctx context.Context, username string) (core.User, error)
	UpdateUser(ctx context.Context, u core.User) (core.User, error)
}

// ExpenseStore persists expenses. Lists are ordered newest date first.
type ExpenseStore interface {
	ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error)
	GetExpense(ctx context.Context, userID, id int64) (core.Expense, error)
	CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error)
	DeleteExpense(ctx context.Context, userID, id int64) error
}

// IncomeStore persists incomes. Lists are ordered newest date first.
type IncomeStore interface {
	ListIncomes(ctx context.Context, userID int64) ([]core.Income, error)
	GetIncome(ctx context.Context, userID, id int64) (core.Income, error)
	CreateIncome(ctx context.Context, in core.Income) (core.Income, error)
	UpdateIncome(ctx context.Context, in core.Income) (core.Income, error)
	DeleteIncome(ctx context.Context, userID, id int64) error
}

// BudgetStore persists budgets. Spent is always computed from expenses.
type BudgetStore interface {
	ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error)
	GetBudget(ctx context.Context, userID, id int64) (core.Budget, error)
	CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error)
	UpdateBudgetLimit(ctx context.Context, userID, id int64, limit core.Money) (core.Budget, error)
	DeleteBudget(ctx context.Context, userID, id int64) error
}

// TokenStore remembers revoked session tokens until they expire.
type TokenStore interface {
	RevokeToken(ctx context.Context, tokenID string, expiresAt time.Time) error
	IsTokenRevoked(ctx context.Context, tokenID string) (bool, error)
	PruneRevokedTokens(ctx context.Context, now time.Time) (int64, error)
}

// Store is the full persistence surface used by the services.
type Store interface {
	UserStore
	ExpenseStore
	IncomeStore
	BudgetStore
	TokenStore
	Ping(ctx context.Context) error
	Close() error
}
