// Package services orchestrates storage, analytics and messaging for the
// HTTP layer.
package services

import (
	"context"
	"fmt"
	"time"

	"golang.org/x/sync/errgroup"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/core"
	"ledgerlens/internal/store"
)

// DashboardService answers the read-side dashboard queries.
type DashboardService struct {
	store         store.TransactionStore
	staticMapping *core.CategoryMapping
	now           func() time.Time
}

func NewDashboardService(s store.TransactionStore, staticMapping *core.CategoryMapping) *DashboardService {
	if staticMapping == nil {
		staticMapping = core.NewCategoryMapping()
	}
	return &DashboardService{store: s, staticMapping: staticMapping, now: time.Now}
}

// Overview is the aggregate bundle one dashboard render needs.
type Overview struct {
	Totals       analytics.Totals
	Comparison   *analytics.Comparison
	Trend        []analytics.TrendPoint
	Categories   []analytics.Share
	Subcats      []analytics.Share
	QuickSummary []analytics.PeriodTotals
	Highlights   analytics.Highlights
}

// Mapping merges the static mapping file with the pairs observed in the
// ledger; static categories keep their file order.
func (s *DashboardService) Mapping(ctx context.Context) (*core.CategoryMapping, error) {
	observed, err := s.store.ObservedMapping(ctx)
	if err != nil {
		return nil, fmt.Errorf("observed mapping: %w", err)
	}
	merged := core.NewCategoryMapping()
	merged.Merge(s.staticMapping)
	merged.Merge(observed)
	return merged, nil
}

// Resolve fills From/To from a named range and returns the mapping the
// filter should be evaluated against.
func (s *DashboardService) Resolve(ctx context.Context, f core.FilterState) (core.FilterState, *core.CategoryMapping, error) {
	mapping, err := s.Mapping(ctx)
	if err != nil {
		return f, nil, err
	}
	if f.From == nil && f.To == nil && f.Range != "" && f.Range != core.RangeCustom {
		f.From, f.To = f.Range.DateRange(s.now())
	}
	return f, mapping, nil
}

// Transactions returns the filtered, sorted transaction list. Only rows of
// the view's sign are listed.
func (s *DashboardService) Transactions(ctx context.Context, f core.FilterState, key core.SortKey, order core.SortOrder) ([]core.Transaction, error) {
	f, mapping, err := s.Resolve(ctx, f)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Query(ctx, f, mapping)
	if err != nil {
		return nil, fmt.Errorf("query transactions: %w", err)
	}
	txs = core.FilterView(txs, f.View)
	core.Sort(txs, key, order)
	return txs, nil
}

// Overview computes the dashboard aggregates. The filtered window and the
// full dated history load concurrently; the latter feeds the quick summary
// and the period-over-period baseline.
func (s *DashboardService) Overview(ctx context.Context, f core.FilterState) (Overview, error) {
	f, mapping, err := s.Resolve(ctx, f)
	if err != nil {
		return Overview{}, err
	}

	var filtered, all []core.Transaction
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		filtered, err = s.store.Query(gctx, f, mapping)
		return err
	})
	g.Go(func() error {
		var err error
		all, err = s.store.All(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Overview{}, fmt.Errorf("load overview data: %w", err)
	}

	o := Overview{
		Totals:       analytics.ComputeTotals(filtered),
		Trend:        analytics.MonthlyTrend(filtered),
		Categories:   analytics.CategoryBreakdown(filtered),
		Subcats:      analytics.SubcategoryBreakdown(filtered),
		QuickSummary: analytics.QuickSummary(all, s.now()),
		Highlights:   analytics.SpendingHighlights(filtered),
	}

	if f.From != nil && f.To != nil {
		prevFrom, prevTo := analytics.PreviousWindow(*f.From, *f.To)
		prevFilter := f
		prevFilter.From, prevFilter.To = &prevFrom, &prevTo
		prev, err := s.store.Query(ctx, prevFilter, mapping)
		if err != nil {
			return Overview{}, fmt.Errorf("query previous window: %w", err)
		}
		cmp := analytics.Compare(o.Totals, analytics.ComputeTotals(prev))
		o.Comparison = &cmp
	}
	return o, nil
}

// Rollup builds the period-by-category matrix for the filter's view.
func (s *DashboardService) Rollup(ctx context.Context, f core.FilterState, g analytics.RollupGranularity) (analytics.Rollup, error) {
	f, mapping, err := s.Resolve(ctx, f)
	if err != nil {
		return analytics.Rollup{}, err
	}
	txs, err := s.store.Query(ctx, f, mapping)
	if err != nil {
		return analytics.Rollup{}, fmt.Errorf("query rollup data: %w", err)
	}
	return analytics.BuildRollup(txs, g, f.View), nil
}

// Averages computes monthly averages over the date/search filtered but
// category-unfiltered set, so selections do not shrink the divisor span.
func (s *DashboardService) Averages(ctx context.Context, f core.FilterState) ([]analytics.AverageGroup, error) {
	f, mapping, err := s.Resolve(ctx, f)
	if err != nil {
		return nil, err
	}
	txs, err := s.store.Query(ctx, f.WithoutSelection(), mapping)
	if err != nil {
		return nil, fmt.Errorf("query averages data: %w", err)
	}
	return analytics.GroupAverages(txs, f.View), nil
}
