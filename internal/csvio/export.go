package csvio

import (
	"encoding/csv"
	"fmt"
	"io"

	"ledgerlens/internal/core"
)

// Write renders transactions to CSV in the canonical column order, dates
// ascending (undated rows first). The internal id is not exported; amounts
// are formatted so re-importing reproduces the same values.
func Write(w io.Writer, txs []core.Transaction) error {
	sorted := append([]core.Transaction(nil), txs...)
	core.Sort(sorted, core.SortByDate, core.Ascending)

	cw := csv.NewWriter(w)
	if err := cw.Write(columns); err != nil {
		return fmt.Errorf("write header: %w", err)
	}
	for _, t := range sorted {
		record := []string{
			t.RawDate,
			core.FormatCents(t.AmountCents),
			t.Category,
			t.Subcategory,
			t.PaymentMethod,
			t.Description,
			t.RefCheckNo,
			t.PayeePayer,
			t.Status,
			t.ReceiptPicture,
			t.Account,
			t.Tag,
			t.Tax,
			t.Quantity,
			t.SplitTotal,
			t.RowID,
			t.TypeID,
		}
		if err := cw.Write(record); err != nil {
			return fmt.Errorf("write row: %w", err)
		}
	}
	cw.Flush()
	return cw.Error()
}
