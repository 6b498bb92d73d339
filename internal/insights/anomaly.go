package insights

import (
	"sort"

	"ledgerlens/internal/core"
)

// DefaultDeviationRatio flags expenses at three times their category average.
const DefaultDeviationRatio = 3.0

// minCategorySamples is how many other expenses a category needs before a
// row can be judged against it.
const minCategorySamples = 2

// Anomaly is one unusually large expense relative to its category.
type Anomaly struct {
	Transaction core.Transaction
	AmountCents int64
	CategoryAvg int64
	Deviation   float64
}

// DetectAnomalies flags expenses whose magnitude reaches ratio times the
// average of the other expenses in the same category. The flagged row is left
// out of its own baseline so a single large outlier cannot hide itself by
// inflating the average. Rows whose RowID is suppressed are dropped.
func DetectAnomalies(txs []core.Transaction, ratio float64, ignored IgnoreSet) []Anomaly {
	if ratio <= 0 {
		ratio = DefaultDeviationRatio
	}

	type agg struct {
		sum   int64
		count int
	}
	byCat := map[string]*agg{}
	for _, x := range txs {
		if !x.IsExpense() {
			continue
		}
		a := byCat[x.Category]
		if a == nil {
			a = &agg{}
			byCat[x.Category] = a
		}
		a.sum += x.AbsCents()
		a.count++
	}

	var out []Anomaly
	for _, x := range txs {
		if !x.IsExpense() || ignored.Contains(x.RowID) {
			continue
		}
		a := byCat[x.Category]
		others := a.count - 1
		if others < minCategorySamples {
			continue
		}
		avg := float64(a.sum-x.AbsCents()) / float64(others)
		if avg <= 0 {
			continue
		}
		amt := float64(x.AbsCents())
		if amt >= avg*ratio {
			out = append(out, Anomaly{
				Transaction: x,
				AmountCents: x.AbsCents(),
				CategoryAvg: int64(avg),
				Deviation:   amt / avg,
			})
		}
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].Deviation != out[j].Deviation {
			return out[i].Deviation > out[j].Deviation
		}
		return out[i].Transaction.RowID < out[j].Transaction.RowID
	})
	return out
}
