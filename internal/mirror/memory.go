package mirror

import (
	"context"
	"sync"

	"ledgerlens/internal/core"
)

// MemoryExporter records snapshots in process; tests and the no-spreadsheet
// deployment use it.
type MemoryExporter struct {
	mu        sync.Mutex
	snapshots [][]core.Transaction
}

var _ Exporter = (*MemoryExporter)(nil)

func NewMemoryExporter() *MemoryExporter { return &MemoryExporter{} }

func (m *MemoryExporter) Mirror(_ context.Context, txs []core.Transaction) error {
	m.mu.Lock()
	defer m.mu.Unlock()
	snapshot := append([]core.Transaction(nil), txs...)
	m.snapshots = append(m.snapshots, snapshot)
	return nil
}

// Snapshots returns every snapshot mirrored so far.
func (m *MemoryExporter) Snapshots() [][]core.Transaction {
	m.mu.Lock()
	defer m.mu.Unlock()
	return append([][]core.Transaction(nil), m.snapshots...)
}
