// Package mirror exports the ledger to an external spreadsheet so the
// dataset stays inspectable outside the service.
package mirror

import (
	"context"

	"ledgerlens/internal/core"
)

// Exporter replaces the mirror's contents with the given ledger snapshot.
type Exporter interface {
	Mirror(ctx context.Context, txs []core.Transaction) error
}
