package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

const (
	selectExpenseSQL = `SELECT id, user_id, name, category, amount_cents, date, notes, receipt_path FROM expenses`
	insertExpenseSQL = `INSERT INTO expenses (user_id, name, category, amount_cents, date, notes, receipt_path) VALUES (?, ?, ?, ?, ?, ?, ?)`
	updateExpenseSQL = `UPDATE expenses SET name = ?, category = ?, amount_cents = ?, date = ?, notes = ?, receipt_path = ? WHERE id = ? AND user_id = ?`
	deleteExpenseSQL = `DELETE FROM expenses WHERE id = ? AND user_id = ?`
)

func scanExpense(s scanner) (core.Expense, error) {
	var (
		e    core.Expense
		date string
	)
	if err := s.Scan(&e.ID, &e.UserID, &e.Name, &e.Category, &e.Amount.Cents, &date, &e.Notes, &e.Receipt); err != nil {
		return core.Expense{}, err
	}
	d, err := parseStoredDate(date)
	if err != nil {
		return core.Expense{}, err
	}
	e.Date = d
	return e, nil
}

func (r *SQLiteRepository) ListExpenses(ctx context.Context, userID int64) ([]core.Expense, error) {
	rows, err := r.db.QueryContext(ctx, selectExpenseSQL+` WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list expenses: %w", err)
	}
	defer rows.Close()

	out := []core.Expense{}
	for rows.Next() {
		e, err := scanExpense(rows)
		if err != nil {
			return nil, fmt.Errorf("scan expense: %w", err)
		}
		out = append(out, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate expenses: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetExpense(ctx context.Context, userID, id int64) (core.Expense, error) {
	e, err := scanExpense(r.db.QueryRowContext(ctx, selectExpenseSQL+` WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Expense{}, fmt.Errorf("get expense %d: %w", id, translate(err))
	}
	return e, nil
}

func (r *SQLiteRepository) CreateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, insertExpenseSQL,
		e.UserID, e.Name, e.Category, e.Amount.Cents, e.Date.String(), e.Notes, e.Receipt)
	if err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", translate(err))
	}
	if e.ID, err = res.LastInsertId(); err != nil {
		return core.Expense{}, fmt.Errorf("create expense: %w", err)
	}
	return e, nil
}

func (r *SQLiteRepository) UpdateExpense(ctx context.Context, e core.Expense) (core.Expense, error) {
	res, err := r.db.ExecContext(ctx, updateExpenseSQL,
		e.Name, e.Category, e.Amount.Cents, e.Date.String(), e.Notes, e.Receipt, e.ID, e.UserID)
	if err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, translate(err))
	}
	if err := checkAffected(res); err != nil {
		return core.Expense{}, fmt.Errorf("update expense %d: %w", e.ID, err)
	}
	return e, nil
}

func (r *SQLiteRepository) DeleteExpense(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteExpenseSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete expense %d: %w", id, err)
	}
	return nil
}
