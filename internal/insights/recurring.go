package insights

import (
	"sort"

	"github.com/agnivade/levenshtein"

	"ledgerlens/internal/core"
)

// Frequency classifies the cadence of a recurring group.
type Frequency string

const (
	Weekly    Frequency = "weekly"
	Biweekly  Frequency = "biweekly"
	Monthly   Frequency = "monthly"
	Quarterly Frequency = "quarterly"
	Yearly    Frequency = "yearly"
)

// cycles are the accepted day gaps per frequency, widest-first match wins the
// tightest tolerance, so order from shortest cycle up.
var cycles = []struct {
	freq      Frequency
	days, tol int
}{
	{Weekly, 7, 2},
	{Biweekly, 14, 3},
	{Monthly, 30, 5},
	{Quarterly, 91, 10},
	{Yearly, 365, 20},
}

// Recurring is one detected recurring payment.
type Recurring struct {
	Key          string
	Description  string
	Category     string
	Subcategory  string
	Frequency    Frequency
	AvgCents     int64
	Count        int
	LastSeen     string
	Transactions []core.Transaction
}

// minRecurringCount is how many occurrences a group needs before it is
// reported.
const minRecurringCount = 3

// DetectRecurring groups dated expenses by normalized description and
// reports the groups whose consecutive gaps all fit one cycle. Keys within
// Levenshtein distance 2 of an earlier key are folded into its group, so
// "netflix.com 123" and "netflix.com 124" count as one subscription.
// Suppressed keys are dropped from the result.
func DetectRecurring(txs []core.Transaction, ignored IgnoreSet) []Recurring {
	groups := map[string][]core.Transaction{}
	var keys []string
	for _, x := range txs {
		if !x.IsExpense() || !x.DateValid {
			continue
		}
		key := RecurringKey(x.Description)
		if key == "" {
			continue
		}
		if canonical, ok := fuzzyMatch(keys, key); ok {
			key = canonical
		} else {
			keys = append(keys, key)
		}
		groups[key] = append(groups[key], x)
	}

	var out []Recurring
	for _, key := range keys {
		if ignored.Contains(key) {
			continue
		}
		members := groups[key]
		if len(members) < minRecurringCount {
			continue
		}
		sort.Slice(members, func(i, j int) bool {
			return members[i].Date.Before(members[j].Date)
		})
		freq, ok := classify(members)
		if !ok {
			continue
		}

		var total int64
		for _, m := range members {
			total += m.AbsCents()
		}
		last := members[len(members)-1]
		out = append(out, Recurring{
			Key:          key,
			Description:  last.Description,
			Category:     last.Category,
			Subcategory:  last.Subcategory,
			Frequency:    freq,
			AvgCents:     total / int64(len(members)),
			Count:        len(members),
			LastSeen:     last.RawDate,
			Transactions: members,
		})
	}
	sort.Slice(out, func(i, j int) bool {
		if out[i].AvgCents != out[j].AvgCents {
			return out[i].AvgCents > out[j].AvgCents
		}
		return out[i].Key < out[j].Key
	})
	return out
}

// fuzzyMatch finds an existing key within edit distance 2 of key.
func fuzzyMatch(keys []string, key string) (string, bool) {
	for _, k := range keys {
		if k == key {
			return k, true
		}
		if levenshtein.ComputeDistance(k, key) <= 2 {
			return k, true
		}
	}
	return "", false
}

// classify checks every consecutive gap of a date-sorted group against each
// cycle; the group qualifies when all gaps fit the same one.
func classify(members []core.Transaction) (Frequency, bool) {
	gaps := make([]int, 0, len(members)-1)
	for i := 1; i < len(members); i++ {
		days := int(members[i].Date.Sub(members[i-1].Date).Hours() / 24)
		gaps = append(gaps, days)
	}
	for _, c := range cycles {
		ok := true
		for _, g := range gaps {
			if g < c.days-c.tol || g > c.days+c.tol {
				ok = false
				break
			}
		}
		if ok {
			return c.freq, true
		}
	}
	return "", false
}
