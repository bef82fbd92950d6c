package storage

import (
	"context"
	"fmt"

	"fintrack/internal/core"
)

const (
	selectIncomeSQL = `SELECT id, user_id, name, source, amount_cents, date, notes FROM incomes`
	insertIncomeSQL = `INSERT INTO incomes (user_id, name, source, amount_cents, date, notes) VALUES (?, ?, ?, ?, ?, ?)`
	updateIncomeSQL = `UPDATE incomes SET name = ?, source = ?, amount_cents = ?, date = ?, notes = ? WHERE id = ? AND user_id = ?`
	deleteIncomeSQL = `DELETE FROM incomes WHERE id = ? AND user_id = ?`
)

func scanIncome(s scanner) (core.Income, error) {
	var (
		in   core.Income
		date string
	)
	if err := s.Scan(&in.ID, &in.UserID, &in.Name, &in.Source, &in.Amount.Cents, &date, &in.Notes); err != nil {
		return core.Income{}, err
	}
	d, err := parseStoredDate(date)
	if err != nil {
		return core.Income{}, err
	}
	in.Date = d
	return in, nil
}

func (r *SQLiteRepository) ListIncomes(ctx context.Context, userID int64) ([]core.Income, error) {
	rows, err := r.db.QueryContext(ctx, selectIncomeSQL+` WHERE user_id = ? ORDER BY date DESC, id DESC`, userID)
	if err != nil {
		return nil, fmt.Errorf("list incomes: %w", err)
	}
	defer rows.Close()

	out := []core.Income{}
	for rows.Next() {
		in, err := scanIncome(rows)
		if err != nil {
			return nil, fmt.Errorf("scan income: %w", err)
		}
		out = append(out, in)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate incomes: %w", err)
	}
	return out, nil
}

func (r *SQLiteRepository) GetIncome(ctx context.Context, userID, id int64) (core.Income, error) {
	in, err := scanIncome(r.db.QueryRowContext(ctx, selectIncomeSQL+` WHERE id = ? AND user_id = ?`, id, userID))
	if err != nil {
		return core.Income{}, fmt.Errorf("get income %d: %w", id, translate(err))
	}
	return in, nil
}

func (r *SQLiteRepository) CreateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx, insertIncomeSQL,
		in.UserID, in.Name, in.Source, in.Amount.Cents, in.Date.String(), in.Notes)
	if err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", translate(err))
	}
	if in.ID, err = res.LastInsertId(); err != nil {
		return core.Income{}, fmt.Errorf("create income: %w", err)
	}
	return in, nil
}

func (r *SQLiteRepository) UpdateIncome(ctx context.Context, in core.Income) (core.Income, error) {
	res, err := r.db.ExecContext(ctx, updateIncomeSQL,
		in.Name, in.Source, in.Amount.Cents, in.Date.String(), in.Notes, in.ID, in.UserID)
	if err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", in.ID, translate(err))
	}
	if err := checkAffected(res); err != nil {
		return core.Income{}, fmt.Errorf("update income %d: %w", in.ID, err)
	}
	return in, nil
}

func (r *SQLiteRepository) DeleteIncome(ctx context.Context, userID, id int64) error {
	res, err := r.db.ExecContext(ctx, deleteIncomeSQL, id, userID)
	if err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	if err := checkAffected(res); err != nil {
		return fmt.Errorf("delete income %d: %w", id, err)
	}
	return nil
}
