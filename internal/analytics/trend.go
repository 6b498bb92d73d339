package analytics

import (
	"ledgerlens/internal/core"
)

// TrendPoint is one month on the income/expense trend chart.
type TrendPoint struct {
	Month        core.MonthKey
	Label        string
	IncomeCents  int64
	ExpenseCents int64
}

// MonthlyTrend buckets transactions by calendar month, chronologically.
// Months inside the observed span with no activity are zero-filled so chart
// axes stay continuous. Undated rows are skipped.
func MonthlyTrend(txs []core.Transaction) []TrendPoint {
	type bucket struct{ income, expense int64 }
	byMonth := map[core.MonthKey]*bucket{}
	var first, last core.MonthKey
	seen := false

	for _, x := range txs {
		if !x.DateValid {
			continue
		}
		k := core.MonthOf(x.Date)
		b := byMonth[k]
		if b == nil {
			b = &bucket{}
			byMonth[k] = b
		}
		switch {
		case x.AmountCents > 0:
			b.income += x.AmountCents
		case x.AmountCents < 0:
			b.expense += -x.AmountCents
		}
		if !seen {
			first, last, seen = k, k, true
			continue
		}
		if k.Before(first) {
			first = k
		}
		if last.Before(k) {
			last = k
		}
	}
	if !seen {
		return nil
	}

	var out []TrendPoint
	for k := first; ; k = k.Next() {
		p := TrendPoint{Month: k, Label: k.Label()}
		if b := byMonth[k]; b != nil {
			p.IncomeCents, p.ExpenseCents = b.income, b.expense
		}
		out = append(out, p)
		if k == last {
			break
		}
	}
	return out
}

// SavingsPoint is one month of the savings-rate trend.
type SavingsPoint struct {
	Month       core.MonthKey
	Label       string
	RatePercent float64
}

// SavingsRateTrend derives (income-expense)/income per month from the trend.
// Months with zero income are omitted rather than reported as -Inf. At most
// the trailing window months are returned; window <= 0 means no limit.
func SavingsRateTrend(txs []core.Transaction, window int) []SavingsPoint {
	var out []SavingsPoint
	for _, p := range MonthlyTrend(txs) {
		if p.IncomeCents == 0 {
			continue
		}
		rate := (float64(p.IncomeCents) - float64(p.ExpenseCents)) / float64(p.IncomeCents) * 100
		out = append(out, SavingsPoint{Month: p.Month, Label: p.Label, RatePercent: rate})
	}
	if window > 0 && len(out) > window {
		out = out[len(out)-window:]
	}
	return out
}
