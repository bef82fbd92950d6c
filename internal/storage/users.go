package storage

import (
	"context"
	"database/sql"
	"fmt"
	"time"

	"fintrack/internal/core"
)

const (
	insertUserSQL = `INSERT INTO users (username, email, password_hash, created_at) VALUES (?, ?, ?, ?)`
	seedBudgetSQL = `INSERT INTO budgets (user_id, category, limit_cents) VALUES (?, ?, 0)`
	selectUserSQL = `SELECT id, username, email, password_hash, created_at FROM users`
	updateUserSQL = `UPDATE users SET username = ?, email = ?, password_hash = ? WHERE id = ?`
)

func scanUser(s scanner) (core.User, error) {
	var (
		u       core.User
		created int64
	)
	if err := s.Scan(&u.ID, &u.Username, &u.Email, &u.PasswordHash, &created); err != nil {
		return core.User{}, err
	}
	u.CreatedAt = time.Unix(created, 0).UTC()
	return u, nil
}

func (r *SQLiteRepository) CreateUser(ctx context.Context, u core.User, budgetCategories []string) (core.User, error) {
	if u.CreatedAt.IsZero() {
		u.CreatedAt = time.Now().UTC()
	}
	err := r.withTx(ctx, func(tx *sql.Tx) error {
		res, err := tx.ExecContext(ctx, insertUserSQL, u.Username, u.Email, u.PasswordHash, u.CreatedAt.Unix())
		if err != nil {
			return translate(err)
		}
		if u.ID, err = res.LastInsertId(); err != nil {
			return err
		}
		for _, category := range budgetCategories {
			if _, err := tx.ExecContext(ctx, seedBudgetSQL, u.ID, category); err != nil {
				return fmt.Errorf("seed budget %q: %w", category, err)
			}
		}
		return nil
	})
	if err != nil {
		return core.User{}, fmt.Errorf("create user: %w", err)
	}
	u.CreatedAt = time.Unix(u.CreatedAt.Unix(), 0).UTC()
	return u, nil
}

func (r *SQLiteRepository) GetUserByID(ctx context.Context, id int64) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserSQL+` WHERE id = ?`, id))
	if err != nil {
		return core.User{}, fmt.Errorf("get user %d: %w", id, translate(err))
	}
	return u, nil
}

func (r *SQLiteRepository) GetUserByUsername(ctx context.Context, username string) (core.User, error) {
	u, err := scanUser(r.db.QueryRowContext(ctx, selectUserSQL+` WHERE username = ?`, username))
	if err != nil {
		return core.User{}, fmt.Errorf("get user %q: %w", username, translate(err))
	}
	return u, nil
}

func (r *SQLiteRepository) UpdateUser(ctx context.Context, u core.User) (core.User, error) {
	res, err := r.db.ExecContext(ctx, updateUserSQL, u.Username, u.Email, u.PasswordHash, u.ID)
	if err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", u.ID, translate(err))
	}
	if err := checkAffected(res); err != nil {
		return core.User{}, fmt.Errorf("update user %d: %w", u.ID, err)
	}
	return r.GetUserByID(ctx, u.ID)
}
