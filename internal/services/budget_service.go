package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerlens/internal/budget"
	"ledgerlens/internal/core"
	"ledgerlens/internal/store"
)

// BudgetService manages budget targets and computes their status.
type BudgetService struct {
	txStore     store.TransactionStore
	budgetStore store.BudgetStore
	now         func() time.Time
}

func NewBudgetService(txs store.TransactionStore, budgets store.BudgetStore) *BudgetService {
	return &BudgetService{txStore: txs, budgetStore: budgets, now: time.Now}
}

// Report loads budgets and the ledger concurrently and tracks actuals
// against targets for the current month and year.
func (s *BudgetService) Report(ctx context.Context) (budget.Report, error) {
	var (
		budgets []budget.Budget
		txs     []core.Transaction
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		budgets, err = s.budgetStore.ListBudgets(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		txs, err = s.txStore.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return budget.Report{}, fmt.Errorf("load budget data: %w", err)
	}
	return budget.Track(budgets, txs, s.now()), nil
}

// Set parses and stores one budget target. The amount must be a
// non-negative decimal.
func (s *BudgetService) Set(ctx context.Context, category, subcategory, amount string) (budget.Budget, error) {
	if category == "" {
		return budget.Budget{}, fmt.Errorf("budget category is required")
	}
	cents, err := core.ParseAmountCents(amount)
	if err != nil {
		return budget.Budget{}, fmt.Errorf("parse budget amount %q: %w", amount, err)
	}
	if cents < 0 {
		return budget.Budget{}, fmt.Errorf("budget amount must not be negative")
	}

	b := budget.Budget{
		Category:     core.TitleCase(category),
		Subcategory:  core.TitleCase(subcategory),
		MonthlyCents: cents,
	}
	if err := s.budgetStore.UpsertBudget(ctx, b); err != nil {
		return budget.Budget{}, fmt.Errorf("store budget: %w", err)
	}
	return b, nil
}

// Delete removes one budget by key. Missing keys surface store.ErrNotFound.
func (s *BudgetService) Delete(ctx context.Context, category, subcategory string) error {
	return s.budgetStore.DeleteBudget(ctx, core.TitleCase(category), core.TitleCase(subcategory))
}
