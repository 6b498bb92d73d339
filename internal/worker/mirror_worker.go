// Package worker mirrors the ledger to an external spreadsheet whenever the
// dataset changes.
package worker

import (
	"context"
	"fmt"
	"log/slog"
	"sync"
	"time"

	"ledgerlens/internal/amqp"
	"ledgerlens/internal/mirror"
	"ledgerlens/internal/store"
)

// MirrorWorker consumes dataset events and pushes a full snapshot to the
// exporter. Mirroring is snapshot-based, so a missed event is repaired by the
// next one or by the periodic fallback tick.
type MirrorWorker struct {
	store    store.TransactionStore
	exporter mirror.Exporter
	interval time.Duration

	mu         sync.Mutex
	lastMirror time.Time
	lastRows   int
}

func NewMirrorWorker(s store.TransactionStore, exporter mirror.Exporter, interval time.Duration) *MirrorWorker {
	if interval <= 0 {
		interval = 30 * time.Second
	}
	return &MirrorWorker{store: s, exporter: exporter, interval: interval}
}

// HandleDatasetEvent mirrors the current ledger in response to one event.
// Returning an error makes the consumer requeue the delivery.
func (w *MirrorWorker) HandleDatasetEvent(ctx context.Context, event *amqp.DatasetEvent) error {
	slog.InfoContext(ctx, "Processing dataset event",
		"batch_id", event.BatchID,
		"reason", event.Reason,
		"rows", event.Rows)
	return w.mirrorOnce(ctx)
}

// StartupCheck mirrors once at boot so downtime never leaves the spreadsheet
// behind the ledger.
func (w *MirrorWorker) StartupCheck(ctx context.Context) error {
	slog.InfoContext(ctx, "Running startup mirror check")
	if err := w.mirrorOnce(ctx); err != nil {
		return fmt.Errorf("startup mirror: %w", err)
	}
	return nil
}

// Run consumes events from the client and ticks the periodic fallback until
// ctx is done. The fallback covers lost events and broker downtime.
func (w *MirrorWorker) Run(ctx context.Context, client *amqp.Client) error {
	ticker := time.NewTicker(w.interval)
	defer ticker.Stop()

	consumeErr := make(chan error, 1)
	if client != nil {
		go func() {
			consumeErr <- client.ConsumeDatasetEvents(ctx, func(event *amqp.DatasetEvent) error {
				return w.HandleDatasetEvent(ctx, event)
			})
		}()
	} else {
		slog.WarnContext(ctx, "No AMQP client configured, relying on periodic mirroring only")
	}

	for {
		select {
		case <-ctx.Done():
			return ctx.Err()
		case err := <-consumeErr:
			return fmt.Errorf("event consumption stopped: %w", err)
		case <-ticker.C:
			if err := w.mirrorOnce(ctx); err != nil {
				slog.ErrorContext(ctx, "Periodic mirror failed", "error", err)
			}
		}
	}
}

// LastMirror reports when the last successful mirror ran and how many rows it
// carried.
func (w *MirrorWorker) LastMirror() (time.Time, int) {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.lastMirror, w.lastRows
}

func (w *MirrorWorker) mirrorOnce(ctx context.Context) error {
	start := time.Now()

	txs, err := w.store.All(ctx)
	if err != nil {
		return fmt.Errorf("load ledger: %w", err)
	}
	if err := w.exporter.Mirror(ctx, txs); err != nil {
		return fmt.Errorf("mirror ledger: %w", err)
	}

	w.mu.Lock()
	w.lastMirror = time.Now()
	w.lastRows = len(txs)
	w.mu.Unlock()

	slog.InfoContext(ctx, "Ledger mirrored",
		"rows", len(txs),
		"duration_ms", time.Since(start).Milliseconds())
	return nil
}
