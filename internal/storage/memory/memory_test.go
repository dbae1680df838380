package memory

import (
	"context"
	"errors"
	"testing"
	"time"

	"spendwise/internal/core"
)

func TestMemoryStoreExpenses(t *testing.T) {
	ctx := context.Background()
	s := New()
	created := time.Date(2024, 1, 1, 0, 0, 0, 0, time.UTC)

	mustInsert := func(id, user string, date core.Date) {
		t.Helper()
		err := s.InsertExpense(ctx, core.Expense{
			ID: id, UserID: user, Title: "t", Amount: core.Money{Cents: 100},
			Category: core.Food, Date: date, CreatedAt: created,
		})
		if err != nil {
			t.Fatalf("insert %s: %v", id, err)
		}
	}
	mustInsert("a", "u1", core.NewDate(2024, 1, 1))
	mustInsert("b", "u1", core.NewDate(2024, 2, 1))
	mustInsert("c", "u2", core.NewDate(2024, 3, 1))

	list, _ := s.ListExpenses(ctx, "u1")
	if len(list) != 2 || list[0].ID != "b" || list[1].ID != "a" {
		t.Fatalf("unexpected list order: %+v", list)
	}

	if _, err := s.GetExpense(ctx, "u2", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found across users, got %v", err)
	}
	if err := s.DeleteExpense(ctx, "u2", "a"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("expected not found on foreign delete, got %v", err)
	}

	n, err := s.DeleteExpensesForUser(ctx, "u1")
	if err != nil || n != 2 {
		t.Fatalf("expected 2 deleted, got %d (err=%v)", n, err)
	}
	if list, _ := s.ListExpenses(ctx, "u2"); len(list) != 1 {
		t.Fatalf("other user's expenses should survive, got %d", len(list))
	}
}

func TestMemoryStoreUsers(t *testing.T) {
	ctx := context.Background()
	s := New()
	if err := s.CreateUser(ctx, core.User{ID: "u1", Email: "a@b.c"}); err != nil {
		t.Fatalf("create: %v", err)
	}
	if err := s.CreateUser(ctx, core.User{ID: "u2", Email: "A@B.C"}); !errors.Is(err, core.ErrDuplicate) {
		t.Fatalf("expected duplicate, got %v", err)
	}
	_ = s.CreateSession(ctx, core.Session{Token: "t", UserID: "u1"})
	_ = s.SetPreferences(ctx, "u1", map[string]string{"theme": "dark"})

	if err := s.DeleteUser(ctx, "u1"); err != nil {
		t.Fatalf("delete: %v", err)
	}
	if _, err := s.GetSession(ctx, "t"); !errors.Is(err, core.ErrNotFound) {
		t.Fatalf("session should be gone, got %v", err)
	}
	if prefs, _ := s.GetPreferences(ctx, "u1"); len(prefs) != 0 {
		t.Fatalf("preferences should be gone, got %v", prefs)
	}
}
