// Package csvio reads and writes the ledger's CSV interchange format and the
// category-mapping file.
package csvio

import (
	"encoding/csv"
	"fmt"
	"io"
	"strings"

	"ledgerlens/internal/core"
)

// columns is the canonical header, in order. Import matches columns by name
// so reordered files still load; export always writes this order.
var columns = []string{
	"Date", "Amount", "Category", "Subcategory", "Payment Method",
	"Description", "Ref/Check No", "Payee/Payer", "Status", "Receipt Picture",
	"Account", "Tag", "Tax", "Quantity", "Split Total", "Row Id", "Type Id",
}

// Report summarizes one import pass.
type Report struct {
	Rows          int
	InvalidDates  int
	InvalidAmount int
}

// Read parses a ledger CSV. Unparseable dates keep their raw string with
// DateValid=false; unparseable amounts load as zero. Both are counted in the
// report rather than failing the import.
func Read(r io.Reader) ([]core.Transaction, Report, error) {
	cr := csv.NewReader(r)
	cr.FieldsPerRecord = -1

	header, err := cr.Read()
	if err == io.EOF {
		return nil, Report{}, nil
	}
	if err != nil {
		return nil, Report{}, fmt.Errorf("read header: %w", err)
	}
	idx := map[string]int{}
	for i, name := range header {
		idx[strings.TrimSpace(name)] = i
	}
	if _, ok := idx["Date"]; !ok {
		return nil, Report{}, fmt.Errorf("missing Date column")
	}
	if _, ok := idx["Amount"]; !ok {
		return nil, Report{}, fmt.Errorf("missing Amount column")
	}

	field := func(record []string, name string) string {
		i, ok := idx[name]
		if !ok || i >= len(record) {
			return ""
		}
		return strings.TrimSpace(record[i])
	}

	var (
		txs    []core.Transaction
		report Report
	)
	for line := 2; ; line++ {
		record, err := cr.Read()
		if err == io.EOF {
			break
		}
		if err != nil {
			return nil, Report{}, fmt.Errorf("line %d: %w", line, err)
		}

		t := core.Transaction{
			RawDate:        field(record, "Date"),
			PaymentMethod:  field(record, "Payment Method"),
			Description:    field(record, "Description"),
			RefCheckNo:     field(record, "Ref/Check No"),
			PayeePayer:     field(record, "Payee/Payer"),
			Status:         field(record, "Status"),
			ReceiptPicture: field(record, "Receipt Picture"),
			Account:        field(record, "Account"),
			Tag:            field(record, "Tag"),
			Tax:            field(record, "Tax"),
			Quantity:       field(record, "Quantity"),
			SplitTotal:     field(record, "Split Total"),
			RowID:          field(record, "Row Id"),
			TypeID:         field(record, "Type Id"),
		}

		t.Date, t.DateValid = core.ParseDate(t.RawDate)
		if !t.DateValid {
			report.InvalidDates++
		}

		cents, err := core.ParseAmountCents(field(record, "Amount"))
		if err != nil {
			report.InvalidAmount++
			cents = 0
		}
		t.AmountCents = cents

		t.Category = core.TitleCase(field(record, "Category"))
		if t.Category == "" {
			t.Category = "Uncategorized"
		}
		t.Subcategory = core.TitleCase(field(record, "Subcategory"))

		txs = append(txs, t)
		report.Rows++
	}
	return txs, report, nil
}
