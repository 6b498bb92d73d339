package services

import (
	"context"
	"fmt"

	"golang.org/x/sync/errgroup"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/core"
	"ledgerlens/internal/insights"
	"ledgerlens/internal/store"
)

// savingsWindowMonths bounds the savings-rate trend to recent history.
const savingsWindowMonths = 24

// InsightService runs the detectors with suppression applied.
type InsightService struct {
	txStore        store.TransactionStore
	insightStore   store.InsightStore
	deviationRatio float64
}

func NewInsightService(txs store.TransactionStore, ins store.InsightStore, deviationRatio float64) *InsightService {
	if deviationRatio <= 0 {
		deviationRatio = insights.DefaultDeviationRatio
	}
	return &InsightService{txStore: txs, insightStore: ins, deviationRatio: deviationRatio}
}

// Report bundles everything the insights page shows.
type Report struct {
	Recurring []insights.Recurring
	Anomalies []insights.Anomaly
	Savings   []analytics.SavingsPoint
}

// Insights loads the ledger and the ignore-list concurrently and runs every
// detector over the full dated history.
func (s *InsightService) Insights(ctx context.Context) (Report, error) {
	var (
		txs     []core.Transaction
		ignored []insights.Ignored
	)
	g, gctx := errgroup.WithContext(ctx)
	g.Go(func() error {
		var err error
		txs, err = s.txStore.All(gctx)
		return err
	})
	g.Go(func() error {
		var err error
		ignored, err = s.insightStore.ListIgnored(gctx)
		return err
	})
	if err := g.Wait(); err != nil {
		return Report{}, fmt.Errorf("load insight data: %w", err)
	}

	return Report{
		Recurring: insights.DetectRecurring(txs, insights.NewIgnoreSet(ignored, insights.KindRecurring)),
		Anomalies: insights.DetectAnomalies(txs, s.deviationRatio, insights.NewIgnoreSet(ignored, insights.KindAnomaly)),
		Savings:   analytics.SavingsRateTrend(txs, savingsWindowMonths),
	}, nil
}

// Ignore suppresses one finding. Repeating the call is a no-op.
func (s *InsightService) Ignore(ctx context.Context, kind insights.Kind, identifier string) error {
	if identifier == "" {
		return fmt.Errorf("empty insight identifier")
	}
	return s.insightStore.AddIgnored(ctx, []insights.Ignored{{Kind: kind, Identifier: identifier}})
}

// IgnoreAll suppresses every currently shown finding of one kind in a single
// storage batch.
func (s *InsightService) IgnoreAll(ctx context.Context, kind insights.Kind) (int, error) {
	report, err := s.Insights(ctx)
	if err != nil {
		return 0, err
	}

	var batch []insights.Ignored
	switch kind {
	case insights.KindRecurring:
		for _, r := range report.Recurring {
			batch = append(batch, insights.Ignored{Kind: kind, Identifier: r.Key})
		}
	case insights.KindAnomaly:
		for _, a := range report.Anomalies {
			if a.Transaction.RowID != "" {
				batch = append(batch, insights.Ignored{Kind: kind, Identifier: a.Transaction.RowID})
			}
		}
	default:
		return 0, fmt.Errorf("unknown insight kind %q", kind)
	}

	if err := s.insightStore.AddIgnored(ctx, batch); err != nil {
		return 0, fmt.Errorf("ignore all %s: %w", kind, err)
	}
	return len(batch), nil
}

// Unignore lifts one suppression; missing entries are reported via
// store.ErrNotFound.
func (s *InsightService) Unignore(ctx context.Context, kind insights.Kind, identifier string) error {
	return s.insightStore.RemoveIgnored(ctx, insights.Ignored{Kind: kind, Identifier: identifier})
}

// Ignored lists the active suppressions.
func (s *InsightService) Ignored(ctx context.Context) ([]insights.Ignored, error) {
	return s.insightStore.ListIgnored(ctx)
}
