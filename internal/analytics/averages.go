package analytics

import (
	"sort"
	"time"

	"ledgerlens/internal/core"
)

// AverageRow is the monthly average amount of one (category, subcategory)
// group over the active span.
type AverageRow struct {
	Category        string
	Subcategory     string
	TotalCents      int64
	Months          int
	AvgMonthlyCents int64
}

// AverageGroup rolls the rows of one category up, keeping the subcategory
// rows for drill-down.
type AverageGroup struct {
	Category        string
	TotalCents      int64
	AvgMonthlyCents int64
	Rows            []AverageRow
}

// MonthlyAverages computes per-group monthly averages over the view's sign.
// The month divisor spans the earliest to latest dated transaction in txs
// (never less than one month), so sparse groups are averaged over the whole
// span rather than only their own active months. Callers pass the date/search
// filtered but category-unfiltered set for that reason.
func MonthlyAverages(txs []core.Transaction, view core.ViewMode) []AverageRow {
	months := spanMonths(txs)

	type key struct{ cat, sub string }
	sums := map[key]int64{}
	for _, x := range txs {
		if !view.Includes(x) {
			continue
		}
		cat := x.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		sums[key{cat, x.Subcategory}] += x.AbsCents()
	}

	out := make([]AverageRow, 0, len(sums))
	for k, total := range sums {
		out = append(out, AverageRow{
			Category:        k.cat,
			Subcategory:     k.sub,
			TotalCents:      total,
			Months:          months,
			AvgMonthlyCents: total / int64(months),
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgMonthlyCents != out[j].AvgMonthlyCents {
			return out[i].AvgMonthlyCents > out[j].AvgMonthlyCents
		}
		if out[i].Category != out[j].Category {
			return out[i].Category < out[j].Category
		}
		return out[i].Subcategory < out[j].Subcategory
	})
	return out
}

// GroupAverages arranges MonthlyAverages rows per category, groups ordered by
// category average descending.
func GroupAverages(txs []core.Transaction, view core.ViewMode) []AverageGroup {
	rows := MonthlyAverages(txs, view)
	months := spanMonths(txs)

	idx := map[string]int{}
	var groups []AverageGroup
	for _, r := range rows {
		i, ok := idx[r.Category]
		if !ok {
			i = len(groups)
			idx[r.Category] = i
			groups = append(groups, AverageGroup{Category: r.Category})
		}
		groups[i].TotalCents += r.TotalCents
		groups[i].Rows = append(groups[i].Rows, r)
	}
	for i := range groups {
		groups[i].AvgMonthlyCents = groups[i].TotalCents / int64(months)
	}
	sort.Slice(groups, func(i, j int) bool {
		if groups[i].AvgMonthlyCents != groups[j].AvgMonthlyCents {
			return groups[i].AvgMonthlyCents > groups[j].AvgMonthlyCents
		}
		return groups[i].Category < groups[j].Category
	})
	return groups
}

// Highlights is the dashboard's one-line spending summary.
type Highlights struct {
	AvgMonthlySpendCents int64
	TopCategory          string
	TopCategoryAvgCents  int64
	PeakMonth            string
	PeakMonthCents       int64
}

// SpendingHighlights derives the headline numbers: average monthly spend over
// the span, the heaviest category with its monthly average, and the single
// most expensive month.
func SpendingHighlights(txs []core.Transaction) Highlights {
	var h Highlights
	months := spanMonths(txs)

	var totalSpend int64
	for _, x := range txs {
		if x.IsExpense() {
			totalSpend += x.AbsCents()
		}
	}
	h.AvgMonthlySpendCents = totalSpend / int64(months)

	if groups := GroupAverages(txs, core.ViewExpense); len(groups) > 0 {
		h.TopCategory = groups[0].Category
		h.TopCategoryAvgCents = groups[0].AvgMonthlyCents
	}
	for _, p := range MonthlyTrend(txs) {
		if p.ExpenseCents > h.PeakMonthCents {
			h.PeakMonth = p.Label
			h.PeakMonthCents = p.ExpenseCents
		}
	}
	return h
}

// spanMonths is the average divisor: calendar months between the earliest and
// latest dated transaction, inclusive, floored at one.
func spanMonths(txs []core.Transaction) int {
	var earliest, latest time.Time
	seen := false
	for _, x := range txs {
		if !x.DateValid {
			continue
		}
		if !seen {
			earliest, latest, seen = x.Date, x.Date, true
			continue
		}
		if x.Date.Before(earliest) {
			earliest = x.Date
		}
		if x.Date.After(latest) {
			latest = x.Date
		}
	}
	if !seen {
		return 1
	}
	if m := core.MonthsBetween(earliest, latest); m > 1 {
		return m
	}
	return 1
}
