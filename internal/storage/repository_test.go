package storage

import (
	"context"
	"errors"
	"path/filepath"
	"testing"
	"time"

	"ledgerlens/internal/budget"
	"ledgerlens/internal/core"
	"ledgerlens/internal/insights"
)

func newTestRepo(t *testing.T) *SQLiteRepository {
	t.Helper()
	repo, err := NewSQLiteRepository(filepath.Join(t.TempDir(), "ledger.db"))
	if err != nil {
		t.Fatalf("open repository: %v", err)
	}
	t.Cleanup(func() { repo.Close() })
	return repo
}

func seedTx(day string, cents int64, cat, sub, desc string) core.Transaction {
	t := core.Transaction{
		RawDate: day, AmountCents: cents,
		Category: cat, Subcategory: sub, Description: desc,
	}
	t.Date, t.DateValid = core.ParseDate(day)
	return t
}

func TestReplaceAllAndQuery(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Transaction{
		seedTx("2024-01-05", -5000, "Food", "Groceries", "supermarket"),
		seedTx("2024-01-06", -3000, "Food", "Eating Out", "pizza"),
		seedTx("2024-02-01", 100000, "Income", "", "salary"),
		seedTx("", -100, "Food", "", "undated"),
	}
	if err := repo.ReplaceAll(ctx, seed); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}

	all, err := repo.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 4 {
		t.Fatalf("rows = %d, want 4", len(all))
	}
	if all[3].DateValid {
		t.Error("undated row round-tripped with a valid date")
	}
	if all[0].AmountCents != -5000 || all[0].Category != "Food" {
		t.Errorf("first row = %+v", all[0])
	}

	// Second import replaces, never appends.
	if err := repo.ReplaceAll(ctx, seed[:1]); err != nil {
		t.Fatalf("second ReplaceAll: %v", err)
	}
	all, err = repo.All(ctx)
	if err != nil {
		t.Fatalf("All: %v", err)
	}
	if len(all) != 1 {
		t.Errorf("after replace rows = %d, want 1", len(all))
	}
}

func TestQueryPushdownMatchesEngine(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	seed := []core.Transaction{
		seedTx("2024-01-05", -5000, "Food", "Groceries", "supermarket"),
		seedTx("2024-01-06", -3000, "Food", "Eating Out", "pizza"),
		seedTx("2024-01-07", -2000, "Food", "", "snacks"),
		seedTx("2024-01-08", -4000, "Transport", "Fuel", "gas"),
	}
	if err := repo.ReplaceAll(ctx, seed); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	mapping := core.NewCategoryMapping()
	mapping.Add("Food", "Groceries")
	mapping.Add("Food", "Eating Out")
	mapping.Add("Transport", "Fuel")

	t.Run("refined category", func(t *testing.T) {
		f := core.NewFilterState()
		f.Categories["Food"] = struct{}{}
		f.Subcategories["Groceries"] = struct{}{}
		got, err := repo.Query(ctx, f, mapping)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(got) != 1 || got[0].Subcategory != "Groceries" {
			t.Errorf("rows = %+v", got)
		}
	})

	t.Run("whole category", func(t *testing.T) {
		f := core.NewFilterState()
		f.Categories["Food"] = struct{}{}
		got, err := repo.Query(ctx, f, mapping)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(got) != 3 {
			t.Errorf("rows = %d, want 3", len(got))
		}
	})

	t.Run("text search", func(t *testing.T) {
		f := core.NewFilterState()
		f.Query = "PIZZA"
		got, err := repo.Query(ctx, f, mapping)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(got) != 1 || got[0].Description != "pizza" {
			t.Errorf("rows = %+v", got)
		}
	})

	t.Run("date bounds", func(t *testing.T) {
		f := core.NewFilterState()
		from, to := time.Date(2024, 1, 6, 0, 0, 0, 0, time.UTC), time.Date(2024, 1, 7, 0, 0, 0, 0, time.UTC)
		f.From, f.To = &from, &to
		got, err := repo.Query(ctx, f, mapping)
		if err != nil {
			t.Fatalf("Query: %v", err)
		}
		if len(got) != 2 {
			t.Errorf("rows = %d, want 2", len(got))
		}
	})
}

func TestUpdateTransaction(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceAll(ctx, []core.Transaction{
		seedTx("2024-01-05", -5000, "Food", "", "old"),
	}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	all, _ := repo.All(ctx)

	row := all[0]
	row.Description = "new"
	row.AmountCents = -7500
	if err := repo.Update(ctx, row); err != nil {
		t.Fatalf("Update: %v", err)
	}
	all, _ = repo.All(ctx)
	if all[0].Description != "new" || all[0].AmountCents != -7500 {
		t.Errorf("updated row = %+v", all[0])
	}

	row.ID = 9999
	if err := repo.Update(ctx, row); !errors.Is(err, ErrNotFound) {
		t.Errorf("missing id err = %v, want ErrNotFound", err)
	}
}

func TestObservedMapping(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	if err := repo.ReplaceAll(ctx, []core.Transaction{
		seedTx("2024-01-05", -1, "Food", "Groceries", ""),
		seedTx("2024-01-06", -1, "Food", "Groceries", ""),
		seedTx("2024-01-07", -1, "Food", "", ""),
		seedTx("2024-01-08", -1, "Transport", "Fuel", ""),
	}); err != nil {
		t.Fatalf("ReplaceAll: %v", err)
	}
	m, err := repo.ObservedMapping(ctx)
	if err != nil {
		t.Fatalf("ObservedMapping: %v", err)
	}
	if len(m.Categories()) != 2 {
		t.Errorf("categories = %v", m.Categories())
	}
	if subs := m.Subcategories("Food"); len(subs) != 1 || subs[0] != "Groceries" {
		t.Errorf("Food subs = %v", subs)
	}
}

func TestBudgetCRUD(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	b := budget.Budget{Category: "Food", MonthlyCents: 50000}
	if err := repo.UpsertBudget(ctx, b); err != nil {
		t.Fatalf("UpsertBudget: %v", err)
	}
	b.MonthlyCents = 60000
	if err := repo.UpsertBudget(ctx, b); err != nil {
		t.Fatalf("upsert existing: %v", err)
	}

	got, err := repo.ListBudgets(ctx)
	if err != nil {
		t.Fatalf("ListBudgets: %v", err)
	}
	if len(got) != 1 || got[0].MonthlyCents != 60000 {
		t.Errorf("budgets = %+v", got)
	}

	if err := repo.DeleteBudget(ctx, "Food", ""); err != nil {
		t.Fatalf("DeleteBudget: %v", err)
	}
	if err := repo.DeleteBudget(ctx, "Food", ""); !errors.Is(err, ErrNotFound) {
		t.Errorf("double delete err = %v, want ErrNotFound", err)
	}
}

func TestIgnoredInsights(t *testing.T) {
	repo := newTestRepo(t)
	ctx := context.Background()

	batch := []insights.Ignored{
		{Kind: insights.KindRecurring, Identifier: "netflix.com"},
		{Kind: insights.KindAnomaly, Identifier: "row-42"},
		{Kind: insights.KindRecurring, Identifier: "netflix.com"}, // duplicate
	}
	if err := repo.AddIgnored(ctx, batch); err != nil {
		t.Fatalf("AddIgnored: %v", err)
	}
	if err := repo.AddIgnored(ctx, batch); err != nil {
		t.Fatalf("AddIgnored twice (idempotent): %v", err)
	}

	got, err := repo.ListIgnored(ctx)
	if err != nil {
		t.Fatalf("ListIgnored: %v", err)
	}
	if len(got) != 2 {
		t.Errorf("ignored = %+v", got)
	}

	if err := repo.RemoveIgnored(ctx, batch[1]); err != nil {
		t.Fatalf("RemoveIgnored: %v", err)
	}
	if err := repo.RemoveIgnored(ctx, batch[1]); !errors.Is(err, ErrNotFound) {
		t.Errorf("remove missing err = %v, want ErrNotFound", err)
	}
}
