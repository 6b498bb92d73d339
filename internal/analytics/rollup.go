package analytics

import (
	"sort"
	"strconv"
	"time"

	"ledgerlens/internal/core"
)

// RollupGranularity selects the rollup's column unit.
type RollupGranularity string

const (
	RollupMonthly RollupGranularity = "month"
	RollupYearly  RollupGranularity = "year"
)

// RollupRow is one matrix row: a category (with subcategory subrows) or a
// single subcategory. Cells align with Rollup.Periods and are zero-filled.
type RollupRow struct {
	Name       string
	Cells      []int64
	TotalCents int64
	Subrows    []RollupRow
}

// Rollup is the period-by-category amount matrix for one view. The grand
// total equals both the sum of row totals and the sum of column totals.
type Rollup struct {
	Granularity  RollupGranularity
	Periods      []string
	Rows         []RollupRow
	ColumnTotals []int64
	GrandTotal   int64
}

// BuildRollup builds the amount matrix over every period in the dated span of
// txs. The view picks the sign: rows of the opposite sign and undated rows
// are excluded. Rows and subrows are ordered by total descending.
func BuildRollup(txs []core.Transaction, g RollupGranularity, view core.ViewMode) Rollup {
	labels, periodIdx := rollupPeriods(txs, g, view)
	out := Rollup{Granularity: g, Periods: labels}
	if len(labels) == 0 {
		return out
	}
	out.ColumnTotals = make([]int64, len(labels))

	type rowAgg struct {
		cells []int64
		total int64
		subs  map[string]*rowAgg
	}
	newAgg := func() *rowAgg { return &rowAgg{cells: make([]int64, len(labels))} }
	rows := map[string]*rowAgg{}

	for _, x := range txs {
		if !view.Includes(x) || !x.DateValid {
			continue
		}
		col := periodIdx(x.Date.Year(), x.Date.Month())
		cat := x.Category
		if cat == "" {
			cat = "Uncategorized"
		}
		r := rows[cat]
		if r == nil {
			r = newAgg()
			r.subs = map[string]*rowAgg{}
			rows[cat] = r
		}
		amt := x.AbsCents()
		r.cells[col] += amt
		r.total += amt
		out.ColumnTotals[col] += amt
		out.GrandTotal += amt

		sub := x.Subcategory
		if sub == "" {
			sub = "Other"
		}
		s := r.subs[sub]
		if s == nil {
			s = newAgg()
			r.subs[sub] = s
		}
		s.cells[col] += amt
		s.total += amt
	}

	for name, r := range rows {
		row := RollupRow{Name: name, Cells: r.cells, TotalCents: r.total}
		for subName, s := range r.subs {
			row.Subrows = append(row.Subrows, RollupRow{
				Name: subName, Cells: s.cells, TotalCents: s.total,
			})
		}
		sortRows(row.Subrows)
		out.Rows = append(out.Rows, row)
	}
	sortRows(out.Rows)
	return out
}

func sortRows(rows []RollupRow) {
	sort.Slice(rows, func(i, j int) bool {
		if rows[i].TotalCents != rows[j].TotalCents {
			return rows[i].TotalCents > rows[j].TotalCents
		}
		return rows[i].Name < rows[j].Name
	})
}

// rollupPeriods enumerates every period between the earliest and latest dated
// row of the view's sign, returning column labels and a (year, month) ->
// column lookup.
func rollupPeriods(txs []core.Transaction, g RollupGranularity, view core.ViewMode) ([]string, func(int, time.Month) int) {
	var first, last core.MonthKey
	seen := false
	for _, x := range txs {
		if !view.Includes(x) || !x.DateValid {
			continue
		}
		k := core.MonthOf(x.Date)
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
		return nil, nil
	}

	if g == RollupYearly {
		var labels []string
		base := first.Year
		for y := first.Year; y <= last.Year; y++ {
			labels = append(labels, strconv.Itoa(y))
		}
		return labels, func(year int, _ time.Month) int { return year - base }
	}

	var labels []string
	idx := map[core.MonthKey]int{}
	for k := first; ; k = k.Next() {
		idx[k] = len(labels)
		labels = append(labels, k.Label())
		if k == last {
			break
		}
	}
	return labels, func(year int, month time.Month) int {
		return idx[core.MonthKey{Year: year, Month: month}]
	}
}
