// Package budget compares monthly spending targets against actuals.
package budget

import (
	"sort"
	"time"

	"ledgerlens/internal/core"
)

// Budget is one monthly spending target. An empty Subcategory targets the
// whole category.
type Budget struct {
	Category     string
	Subcategory  string
	MonthlyCents int64
}

// Key is the budget's unique identity: "Category" or "Category|Subcategory".
func (b Budget) Key() string {
	if b.Subcategory == "" {
		return b.Category
	}
	return b.Category + "|" + b.Subcategory
}

// Status is one budget with its actuals for the reference month and year.
type Status struct {
	Budget Budget

	MonthSpentCents int64
	YTDSpentCents   int64
	YearlyCents     int64

	// PercentUsed is nil when the target is zero, so the JSON layer emits
	// null instead of a division artifact.
	PercentUsed *float64
	OverBudget  bool
	OverByCents int64
}

// Overall sums targets and actuals across all budgets. A whole-category
// budget overlapping a subcategory budget of the same category counts the
// shared spending twice; budgets are expected to be disjoint.
type Overall struct {
	MonthlyBudgetCents int64
	MonthSpentCents    int64
	PercentUsed        *float64
	OverBudget         bool
}

// Report is the full budget view.
type Report struct {
	Statuses []Status
	Overall  Overall
}

// Track computes every budget's status against the transactions, using now
// for the current month and year boundaries. Undated rows never count.
func Track(budgets []Budget, txs []core.Transaction, now time.Time) Report {
	monthStart := time.Date(now.Year(), now.Month(), 1, 0, 0, 0, 0, time.UTC)
	yearStart := time.Date(now.Year(), time.January, 1, 0, 0, 0, 0, time.UTC)

	monthSpend := map[string]int64{}
	ytdSpend := map[string]int64{}
	for _, x := range txs {
		if !x.IsExpense() || !x.DateValid || x.Date.Before(yearStart) || x.Date.After(now) {
			continue
		}
		keys := []string{x.Category}
		if x.Subcategory != "" {
			keys = append(keys, x.Category+"|"+x.Subcategory)
		}
		for _, k := range keys {
			ytdSpend[k] += x.AbsCents()
			if !x.Date.Before(monthStart) {
				monthSpend[k] += x.AbsCents()
			}
		}
	}

	var report Report
	for _, b := range budgets {
		s := Status{
			Budget:          b,
			MonthSpentCents: monthSpend[b.Key()],
			YTDSpentCents:   ytdSpend[b.Key()],
			YearlyCents:     b.MonthlyCents * 12,
		}
		if b.MonthlyCents > 0 {
			pct := float64(s.MonthSpentCents) / float64(b.MonthlyCents) * 100
			s.PercentUsed = &pct
		}
		if s.MonthSpentCents > b.MonthlyCents {
			s.OverBudget = true
			s.OverByCents = s.MonthSpentCents - b.MonthlyCents
		}
		report.Statuses = append(report.Statuses, s)

		report.Overall.MonthlyBudgetCents += b.MonthlyCents
		report.Overall.MonthSpentCents += s.MonthSpentCents
	}
	sort.Slice(report.Statuses, func(i, j int) bool {
		return report.Statuses[i].Budget.Key() < report.Statuses[j].Budget.Key()
	})

	if report.Overall.MonthlyBudgetCents > 0 {
		pct := float64(report.Overall.MonthSpentCents) / float64(report.Overall.MonthlyBudgetCents) * 100
		report.Overall.PercentUsed = &pct
	}
	report.Overall.OverBudget = report.Overall.MonthSpentCents > report.Overall.MonthlyBudgetCents
	return report
}
