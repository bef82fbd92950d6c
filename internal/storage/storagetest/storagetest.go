// Package storagetest holds behaviour checks shared by every storage.Store
// implementation.
package storagetest

import (
	"context"
	"errors"
	"testing"
	"time"

	"fintrack/internal/core"
	"fintrack/internal/storage"
)

// Run exercises newStore against the storage.Store contract.
func Run(t *testing.T, newStore func(t *testing.T) storage.Store) {
	t.Run("users", func(t *testing.T) { testUsers(t, newStore(t)) })
	t.Run("expenses", func(t *testing.T) { testExpenses(t, newStore(t)) })
	t.Run("incomes", func(t *testing.T) { testIncomes(t, newStore(t)) })
	t.Run("budgets", func(t *testing.T) { testBudgets(t, newStore(t)) })
	t.Run("tokens", func(t *testing.T) { testTokens(t, newStore(t)) })
}

func mustUser(t *testing.T, s storage.Store, name string, categories ...string) core.User {
	t.Helper()
	u, err := s.CreateUser(context.Background(), core.User{
		Username:     name,
		Email:        name + "@example.com",
		PasswordHash: "hash",
	}, categories)
	if err != nil {
		t.Fatalf("create user %s: %v", name, err)
	}
	return u
}

func testUsers(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice", core.Categories...)
	if alice.ID == 0 {
		t.Fatal("expected assigned id")
	}

	if _, err := s.CreateUser(ctx, core.User{Username: "ALICE", Email: "other@example.com", PasswordHash: "x"}, nil); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate username: expected ErrConflict, got %v", err)
	}
	if _, err := s.CreateUser(ctx, core.User{Username: "bob", Email: "alice@example.com", PasswordHash: "x"}, nil); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("duplicate email: expected ErrConflict, got %v", err)
	}

	got, err := s.GetUserByUsername(ctx, "alice")
	if err != nil || got.ID != alice.ID || got.Email != "alice@example.com" {
		t.Fatalf("GetUserByUsername = %+v, %v", got, err)
	}
	if _, err := s.GetUserByID(ctx, alice.ID+1000); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound, got %v", err)
	}

	alice.Email = "alice@new.example"
	alice.PasswordHash = "hash2"
	updated, err := s.UpdateUser(ctx, alice)
	if err != nil || updated.Email != "alice@new.example" || updated.PasswordHash != "hash2" {
		t.Fatalf("UpdateUser = %+v, %v", updated, err)
	}

	budgets, err := s.ListBudgets(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(budgets) != len(core.Categories) {
		t.Fatalf("expected %d seeded budgets, got %d", len(core.Categories), len(budgets))
	}
	for _, b := range budgets {
		if b.Limit.Cents != 0 {
			t.Fatalf("seeded budget %s has limit %d", b.Category, b.Limit.Cents)
		}
	}
}

func testExpenses(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	older, err := s.CreateExpense(ctx, core.Expense{
		UserID: alice.ID, Name: "Gas Station", Category: "Transportation",
		Amount: core.Money{Cents: 4550}, Date: core.NewDate(2023, 6, 7),
	})
	if err != nil {
		t.Fatal(err)
	}
	newer, err := s.CreateExpense(ctx, core.Expense{
		UserID: alice.ID, Name: "Grocery Store", Category: "Food & Dining",
		Amount: core.Money{Cents: 5642}, Date: core.NewDate(2023, 6, 12), Notes: "weekly", Receipt: "abc.png",
	})
	if err != nil {
		t.Fatal(err)
	}

	list, err := s.ListExpenses(ctx, alice.ID)
	if err != nil {
		t.Fatal(err)
	}
	if len(list) != 2 || list[0].ID != newer.ID || list[1].ID != older.ID {
		t.Fatalf("expected newest first, got %+v", list)
	}
	if list[0].Receipt != "abc.png" || list[0].Notes != "weekly" || !list[0].Date.SameDay(core.NewDate(2023, 6, 12)) {
		t.Fatalf("fields not round-tripped: %+v", list[0])
	}

	if other, _ := s.ListExpenses(ctx, bob.ID); len(other) != 0 {
		t.Fatalf("bob must not see alice's expenses: %+v", other)
	}
	if _, err := s.GetExpense(ctx, bob.ID, newer.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound for foreign expense, got %v", err)
	}

	newer.Amount = core.Money{Cents: 6000}
	newer.Receipt = ""
	if _, err := s.UpdateExpense(ctx, newer); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetExpense(ctx, alice.ID, newer.ID)
	if err != nil || got.Amount.Cents != 6000 || got.Receipt != "" {
		t.Fatalf("after update: %+v, %v", got, err)
	}

	foreign := newer
	foreign.UserID = bob.ID
	if _, err := s.UpdateExpense(ctx, foreign); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating foreign expense, got %v", err)
	}
	if err := s.DeleteExpense(ctx, bob.ID, newer.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign expense, got %v", err)
	}
	if err := s.DeleteExpense(ctx, alice.ID, newer.ID); err != nil {
		t.Fatal(err)
	}
	if _, err := s.GetExpense(ctx, alice.ID, newer.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound after delete, got %v", err)
	}
}

func testIncomes(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	salary, err := s.CreateIncome(ctx, core.Income{
		UserID: alice.ID, Name: "Salary", Source: "Employer",
		Amount: core.Money{Cents: 300000}, Date: core.NewDate(2023, 6, 1),
	})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateIncome(ctx, core.Income{
		UserID: alice.ID, Name: "Gift", Source: "Family",
		Amount: core.Money{Cents: 5000}, Date: core.NewDate(2023, 6, 20),
	}); err != nil {
		t.Fatal(err)
	}

	list, err := s.ListIncomes(ctx, alice.ID)
	if err != nil || len(list) != 2 || list[0].Name != "Gift" {
		t.Fatalf("ListIncomes = %+v, %v", list, err)
	}

	salary.Notes = "June"
	if _, err := s.UpdateIncome(ctx, salary); err != nil {
		t.Fatal(err)
	}
	got, err := s.GetIncome(ctx, alice.ID, salary.ID)
	if err != nil || got.Notes != "June" {
		t.Fatalf("GetIncome = %+v, %v", got, err)
	}
	if err := s.DeleteIncome(ctx, bob.ID, salary.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound deleting foreign income, got %v", err)
	}
	if err := s.DeleteIncome(ctx, alice.ID, salary.ID); err != nil {
		t.Fatal(err)
	}
}

func testBudgets(t *testing.T, s storage.Store) {
	ctx := context.Background()
	alice := mustUser(t, s, "alice")
	bob := mustUser(t, s, "bob")

	food, err := s.CreateBudget(ctx, core.Budget{UserID: alice.ID, Category: "Food & Dining", Limit: core.Money{Cents: 40000}})
	if err != nil {
		t.Fatal(err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{UserID: alice.ID, Category: "Food & Dining"}); !errors.Is(err, core.ErrConflict) {
		t.Fatalf("expected ErrConflict for duplicate category, got %v", err)
	}
	if _, err := s.CreateBudget(ctx, core.Budget{UserID: bob.ID, Category: "Food & Dining"}); err != nil {
		t.Fatalf("other users may use the same category: %v", err)
	}

	for _, e := range []core.Expense{
		{UserID: alice.ID, Name: "a", Category: "Food & Dining", Amount: core.Money{Cents: 5642}, Date: core.NewDate(2023, 6, 12)},
		{UserID: alice.ID, Name: "b", Category: "Food & Dining", Amount: core.Money{Cents: 1000}, Date: core.NewDate(2023, 6, 13)},
		{UserID: alice.ID, Name: "c", Category: "Transportation", Amount: core.Money{Cents: 4550}, Date: core.NewDate(2023, 6, 7)},
		{UserID: bob.ID, Name: "d", Category: "Food & Dining", Amount: core.Money{Cents: 999}, Date: core.NewDate(2023, 6, 7)},
	} {
		if _, err := s.CreateExpense(ctx, e); err != nil {
			t.Fatal(err)
		}
	}

	got, err := s.GetBudget(ctx, alice.ID, food.ID)
	if err != nil {
		t.Fatal(err)
	}
	if got.Spent.Cents != 6642 {
		t.Fatalf("spent = %d, want 6642", got.Spent.Cents)
	}

	updated, err := s.UpdateBudgetLimit(ctx, alice.ID, food.ID, core.Money{Cents: 50000})
	if err != nil || updated.Limit.Cents != 50000 || updated.Spent.Cents != 6642 || updated.Category != "Food & Dining" {
		t.Fatalf("UpdateBudgetLimit = %+v, %v", updated, err)
	}
	if _, err := s.UpdateBudgetLimit(ctx, bob.ID, food.ID, core.Money{Cents: 1}); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound updating foreign budget, got %v", err)
	}

	list, err := s.ListBudgets(ctx, alice.ID)
	if err != nil || len(list) != 1 {
		t.Fatalf("ListBudgets = %+v, %v", list, err)
	}

	if err := s.DeleteBudget(ctx, alice.ID, food.ID); err != nil {
		t.Fatal(err)
	}
	if err := s.DeleteBudget(ctx, alice.ID, food.ID); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected ErrNotFound on second delete, got %v", err)
	}
}

func testTokens(t *testing.T, s storage.Store) {
	ctx := context.Background()
	now := time.Now()

	if revoked, err := s.IsTokenRevoked(ctx, "jti-1"); err != nil || revoked {
		t.Fatalf("fresh token reported revoked: %v, %v", revoked, err)
	}
	if err := s.RevokeToken(ctx, "jti-1", now.Add(-time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.RevokeToken(ctx, "jti-2", now.Add(time.Hour)); err != nil {
		t.Fatal(err)
	}
	if err := s.RevokeToken(ctx, "jti-2", now.Add(time.Hour)); err != nil {
		t.Fatalf("revoking twice must be harmless: %v", err)
	}
	if revoked, _ := s.IsTokenRevoked(ctx, "jti-1"); !revoked {
		t.Fatal("jti-1 should be revoked")
	}

	n, err := s.PruneRevokedTokens(ctx, now)
	if err != nil || n != 1 {
		t.Fatalf("PruneRevokedTokens = %d, %v", n, err)
	}
	if revoked, _ := s.IsTokenRevoked(ctx, "jti-2"); !revoked {
		t.Fatal("unexpired token must survive pruning")
	}
}
