package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

// Spent is the sum of the owner's expenses in the budget category.
const selectBudgetSQL = `
SELECT b.id, b.user_id, b.category, b.limit_cents,
       COALESCE((SELECT SUM(e.amount_cents) FROM expenses e
                 WHERE e.user_id = b.user_id AND e.category = b.category), 0)
FROM budgets b`

const (
	insertBudgetSQL      = `INSERT INTO budgets (user_id, category, limit_cents) VALUES (?, ?, ?)`
	updateBudgetLimitSQL = `UPDATE budgets SET limit_cents = ? WHERE id = ? AND user_id = ?`
	deleteBudgetSQL      = `DELETE FROM budgets WHERE id = ? AND user_id = ?`
)

func scanBudget(s scanner) (core.Budget, error) {
	var b core.Budget
	if err := s.Scan(&b.ID, &b.UserID, &b.Category, &b.Limit.Cents, &b.Spent.Cents); err != nil {
		return core.Budget{}, err
	}
	return b, nil
}

func (r *SQLiteRepository) ListBudgets(ctx context.Context, userID int64) ([]core.Budget, error) {
	rows, err := r.db.QueryContext(ctx, selectBudgetSQL+` WHERE b.user_id = ? ORDER BY b.id`, userID)
	if err != nil {
		return nil, fmt.Errorf("list budgets: %w", err)
	}
	defer rows.Close()

	out := []core.Budget{}
	for rows.Next() {
		b, err := scanBudget(rows)
		if err != nil {
			return nil, fmt.Errorf("scan budget: %w", err)
		}
		out = append(out, b)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate budgets: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetBudget(ctx context.Context, userID, id int64) (core.Budget, error) {
	b, err := scanBudget(r.db.QueryRowContext(ctx, selectBudgetSQL+` WHERE b.id = ? AND b.user_id = ?`, id, userID))
	if err != nil {
		return core.Budget{}, fmt.Errorf("get budget %d: %w", id, translate(err))
	}
	return b, nil
}

func (r *SQLiteRepository) CreateBudget(ctx context.Context, b core.Budget) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx, insertBudgetSQL, b.UserID, b.Category, b.Limit.Cents)
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", translate(err))
	}
	id, err := res.LastInsertId()
	if err != nil {
		return core.Budget{}, fmt.Errorf("create budget: %w", err)
	}
	return r.GetBudget(ctx, b.UserID, id)
}

func (r *SQLiteRepository) UpdateBudgetLimit(ctx context.Context, userID, id int64, limit core.Money) (core.Budget, error) {
	res, err := r.db.ExecContext(ctx, updateBudgetLimitSQL, limit.Cents, id, userID)
	if err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return core.Budget{}, fmt.Errorf("update budget %d: %w", id, err)
	}
	return r.GetBudget(ctx, userID, id)
}

func (r *SQLiteRepository) DeleteBudget(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteBudgetSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete budget %d: %w", id, err)
	}
	return nil
}
