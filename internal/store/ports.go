// Package store defines the persistence ports the service layer depends on,
// plus an in-memory implementation used by tests and as a throwaway backend.
package store

import (
	"context"
	"errors"

	"ledgerlens/internal/budget"
	"ledgerlens/internal/core"
	"ledgerlens/internal/insights"
)

// ErrNotFound is returned by every implementation when an update or delete
// targets a missing row.
var ErrNotFound = errors.New("not found")

type (
	// TransactionStore is the ledger port.
	TransactionStore interface {
		All(ctx context.Context) ([]core.Transaction, error)
		Query(ctx context.Context, f core.FilterState, mapping *core.CategoryMapping) ([]core.Transaction, error)
		ReplaceAll(ctx context.Context, txs []core.Transaction) error
		Update(ctx context.Context, t core.Transaction) error
		ObservedMapping(ctx context.Context) (*core.CategoryMapping, error)
	}

	// BudgetStore persists monthly spending targets.
	BudgetStore interface {
		ListBudgets(ctx context.Context) ([]budget.Budget, error)
		UpsertBudget(ctx context.Context, b budget.Budget) error
		DeleteBudget(ctx context.Context, category, subcategory string) error
	}

	// InsightStore persists insight suppressions.
	InsightStore interface {
		ListIgnored(ctx context.Context) ([]insights.Ignored, error)
		AddIgnored(ctx context.Context, batch []insights.Ignored) error
		RemoveIgnored(ctx context.Context, ig insights.Ignored) error
	}

	// Store is the full persistence surface.
	Store interface {
		TransactionStore
		BudgetStore
		InsightStore
	}
)
