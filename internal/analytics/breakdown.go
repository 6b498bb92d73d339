package analytics

import (
	"sort"

	"ledgerlens/internal/core"
)

// Share is one slice of a breakdown chart.
type Share struct {
	Name  string
	Cents int64
}

// CategoryBreakdown sums absolute expense amounts per category, in
// first-seen order. Income rows are excluded.
func CategoryBreakdown(txs []core.Transaction) []Share {
	idx := map[string]int{}
	var out []Share
	for _, x := range txs {
		if !x.IsExpense() {
			continue
		}
		name := x.Category
		if name == "" {
			name = "Uncategorized"
		}
		i, ok := idx[name]
		if !ok {
			i = len(out)
			idx[name] = i
			out = append(out, Share{Name: name})
		}
		out[i].Cents += x.AbsCents()
	}
	return out
}

// SubcategoryBreakdown sums absolute expense amounts per subcategory, empty
// subcategories pooled under "Other", sorted descending, capped at the ten
// largest.
func SubcategoryBreakdown(txs []core.Transaction) []Share {
	sums := map[string]int64{}
	for _, x := range txs {
		if !x.IsExpense() {
			continue
		}
		name := x.Subcategory
		if name == "" {
			name = "Other"
		}
		sums[name] += x.AbsCents()
	}

	out := make([]Share, 0, len(sums))
	for name, cents := range sums {
		out = append(out, Share{Name: name, Cents: cents})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Cents != out[j].Cents {
			return out[i].Cents > out[j].Cents
		}
		return out[i].Name < out[j].Name
	})
	if len(out) > 10 {
		out = out[:10]
	}
	return out
}
