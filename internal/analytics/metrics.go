// Package analytics computes dashboard aggregates over filtered transaction
// sets. Every function is pure: it takes a slice, returns a value, and treats
// empty input as a valid, zero-valued case.
package analytics

import (
	"time"

	"ledgerlens/internal/core"
)

// Totals is the income/expense/net summary of a transaction set. Expenses are
// reported as a positive magnitude.
type Totals struct {
	IncomeCents  int64
	ExpenseCents int64
	NetCents     int64
}

// ComputeTotals sums a transaction set. Zero-amount rows contribute to
// neither side.
func ComputeTotals(txs []core.Transaction) Totals {
	var t Totals
	for _, x := range txs {
		switch {
		case x.AmountCents > 0:
			t.IncomeCents += x.AmountCents
		case x.AmountCents < 0:
			t.ExpenseCents += -x.AmountCents
		}
	}
	t.NetCents = t.IncomeCents - t.ExpenseCents
	return t
}

// Comparison relates a window's totals to the equal-length window immediately
// before it. Change percentages are nil when the previous side is zero, which
// the JSON layer renders as null rather than a fake number.
type Comparison struct {
	Current  Totals
	Previous Totals

	IncomeChangePct  *float64
	ExpenseChangePct *float64
	NetChangeCents   int64
}

// Compare computes period-over-period change between two already-aggregated
// windows.
func Compare(current, previous Totals) Comparison {
	c := Comparison{Current: current, Previous: previous}
	if previous.IncomeCents != 0 {
		pct := (float64(current.IncomeCents) - float64(previous.IncomeCents)) / float64(previous.IncomeCents) * 100
		c.IncomeChangePct = &pct
	}
	if previous.ExpenseCents != 0 {
		pct := (float64(current.ExpenseCents) - float64(previous.ExpenseCents)) / float64(previous.ExpenseCents) * 100
		c.ExpenseChangePct = &pct
	}
	c.NetChangeCents = current.NetCents - previous.NetCents
	return c
}

// PreviousWindow returns the equal-length window that ends the day before
// from. Both bounds must be set by the caller.
func PreviousWindow(from, to time.Time) (time.Time, time.Time) {
	length := to.Sub(from)
	prevTo := from.AddDate(0, 0, -1)
	prevFrom := prevTo.Add(-length)
	return prevFrom, prevTo
}

// PeriodTotals is one row of the quick summary.
type PeriodTotals struct {
	Label        string
	IncomeCents  int64
	ExpenseCents int64
}

// QuickSummary aggregates today, the current ISO week, the current month and
// the year to date in one pass. Undated rows are skipped.
func QuickSummary(txs []core.Transaction, now time.Time) []PeriodTotals {
	day := time.Date(now.Year(), now.Month(), now.Day(), 0, 0, 0, 0, time.UTC)
	weekday := int(day.Weekday())
	if weekday == 0 {
		weekday = 7 // Monday-based week
	}
	weekStart := day.AddDate(0, 0, -(weekday - 1))
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	periods := []struct {
		label string
		from  time.Time
	}{
		{"Today", day},
		{"This Week", weekStart},
		{"This Month", monthStart},
		{"Year to Date", yearStart},
	}

	out := make([]PeriodTotals, len(periods))
	for i, p := range periods {
		out[i].Label = p.label
	}
	for _, x := range txs {
		if !x.DateValid || x.Date.After(day) {
			continue
		}
		for i, p := range periods {
			if x.Date.Before(p.from) {
				continue
			}
			switch {
			case x.AmountCents > 0:
				out[i].IncomeCents += x.AmountCents
			case x.AmountCents < 0:
				out[i].ExpenseCents += -x.AmountCents
			}
		}
	}
	return out
}
