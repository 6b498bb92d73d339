package services

import (
	"context"
	"fmt"
	"io"
	"log/slog"

	"ledgerlens/internal/amqp"
	"ledgerlens/internal/core"
	"ledgerlens/internal/csvio"
	"ledgerlens/internal/store"
)

// EventPublisher announces dataset changes. A nil publisher disables
// messaging without changing import behavior.
type EventPublisher interface {
	PublishDatasetEvent(ctx context.Context, event *amqp.DatasetEvent) error
}

// ImportService replaces the ledger from CSV and streams it back out.
type ImportService struct {
	store     store.TransactionStore
	publisher EventPublisher
}

func NewImportService(s store.TransactionStore, publisher EventPublisher) *ImportService {
	return &ImportService{store: s, publisher: publisher}
}

// Import parses r and swaps the whole dataset in one storage transaction.
// The previous ledger survives any parse or storage failure.
func (s *ImportService) Import(ctx context.Context, r io.Reader) (csvio.Report, error) {
	txs, report, err := csvio.Read(r)
	if err != nil {
		return csvio.Report{}, fmt.Errorf("parse csv: %w", err)
	}
	if err := s.store.ReplaceAll(ctx, txs); err != nil {
		return csvio.Report{}, fmt.Errorf("replace ledger: %w", err)
	}

	slog.InfoContext(ctx, "Ledger imported",
		"rows", report.Rows,
		"invalid_dates", report.InvalidDates,
		"invalid_amounts", report.InvalidAmount)

	s.publish(ctx, amqp.NewDatasetEvent(amqp.ReasonImport, report.Rows))
	return report, nil
}

// UpdateTransaction rewrites one row and announces the edit. Missing ids
// surface store.ErrNotFound, which callers report as not-found rather than
// a server failure.
func (s *ImportService) UpdateTransaction(ctx context.Context, t core.Transaction) error {
	if err := s.store.Update(ctx, t); err != nil {
		return fmt.Errorf("update transaction: %w", err)
	}
	s.publish(ctx, amqp.NewDatasetEvent(amqp.ReasonEdit, 1))
	return nil
}

// Export writes the current ledger to w in the interchange format.
func (s *ImportService) Export(ctx context.Context, w io.Writer) error {
	txs, err := s.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := csvio.Write(w, txs); err != nil {
		return fmt.Errorf("write csv: %w", err)
	}
	return nil
}

func (s *ImportService) publish(ctx context.Context, event *amqp.DatasetEvent) {
	if s.publisher == nil {
		slog.DebugContext(ctx, "No event publisher configured, skipping dataset event")
		return
	}
	// Messaging is best-effort; the import already committed.
	if err := s.publisher.PublishDatasetEvent(ctx, event); err != nil {
		slog.ErrorContext(ctx, "Failed to publish dataset event",
			"batch_id", event.BatchID, "error", err)
	}
}
