package insights

import (
	"testing"
	"time"
	"unicode/utf8"

	"ledgerlens/internal/core"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func expense(day time.Time, cents int64, cat, desc, rowID string) core.Transaction {
	return core.Transaction{
		Date: day, DateValid: true, RawDate: day.Format("2006-01-02"),
		AmountCents: -cents, Category: cat, Description: desc, RowID: rowID,
	}
}

func TestRecurringKey(t *testing.T) {
	tests := []struct{ in, want string }{
		{"  Netflix.com  ", "netflix.com"},
		{"NETFLIX", "netflix"},
		{"a very long description that keeps going", "a very long descript"},
		// Accented merchant names truncate on runes, never mid-byte.
		{"Grand Café Zürich Bäckerei am See", "grand café zürich bä"},
		{"", ""},
	}
	for _, tc := range tests {
		got := RecurringKey(tc.in)
		if got != tc.want {
			t.Errorf("RecurringKey(%q) = %q, want %q", tc.in, got, tc.want)
		}
		if !utf8.ValidString(got) {
			t.Errorf("RecurringKey(%q) is not valid UTF-8", tc.in)
		}
	}
}

func TestDetectRecurringMonthly(t *testing.T) {
	txs := []core.Transaction{
		expense(date(2024, 1, 15), 499, "Entertainment", "Netflix.com", "r1"),
		expense(date(2024, 2, 14), 499, "Entertainment", "Netflix.com", "r2"),
		expense(date(2024, 3, 15), 499, "Entertainment", "Netflix.com", "r3"),
		// only twice, below threshold
		expense(date(2024, 1, 3), 1200, "Health", "Gym", "r4"),
		expense(date(2024, 2, 3), 1200, "Health", "Gym", "r5"),
		// irregular gaps, not a cycle
		expense(date(2024, 1, 1), 800, "Food", "Corner shop", "r6"),
		expense(date(2024, 1, 4), 800, "Food", "Corner shop", "r7"),
		expense(date(2024, 3, 20), 800, "Food", "Corner shop", "r8"),
	}
	got := DetectRecurring(txs, nil)
	if len(got) != 1 {
		t.Fatalf("recurring groups = %d, want 1: %+v", len(got), got)
	}
	r := got[0]
	if r.Frequency != Monthly {
		t.Errorf("frequency = %q, want monthly", r.Frequency)
	}
	if r.AvgCents != 499 || r.Count != 3 {
		t.Errorf("avg/count = %d/%d", r.AvgCents, r.Count)
	}
	if r.LastSeen != "2024-03-15" {
		t.Errorf("last seen = %q", r.LastSeen)
	}
}

func TestDetectRecurringFuzzyMerge(t *testing.T) {
	// Keys differ in a trailing digit; edit distance 1 folds them together.
	txs := []core.Transaction{
		expense(date(2024, 1, 10), 999, "Utilities", "acme power 01", "f1"),
		expense(date(2024, 2, 9), 999, "Utilities", "acme power 02", "f2"),
		expense(date(2024, 3, 11), 999, "Utilities", "acme power 03", "f3"),
	}
	got := DetectRecurring(txs, nil)
	if len(got) != 1 || got[0].Count != 3 {
		t.Fatalf("fuzzy merge failed: %+v", got)
	}
}

func TestDetectRecurringIgnored(t *testing.T) {
	txs := []core.Transaction{
		expense(date(2024, 1, 15), 499, "Entertainment", "Netflix.com", "r1"),
		expense(date(2024, 2, 14), 499, "Entertainment", "Netflix.com", "r2"),
		expense(date(2024, 3, 15), 499, "Entertainment", "Netflix.com", "r3"),
	}
	ignored := NewIgnoreSet([]Ignored{
		{Kind: KindRecurring, Identifier: "netflix.com"},
	}, KindRecurring)
	if got := DetectRecurring(txs, ignored); len(got) != 0 {
		t.Errorf("ignored group still reported: %+v", got)
	}
}

func TestDetectRecurringCycles(t *testing.T) {
	tests := []struct {
		name string
		step func(time.Time, int) time.Time
		want Frequency
	}{
		{"weekly", func(t time.Time, i int) time.Time { return t.AddDate(0, 0, 7*i) }, Weekly},
		{"biweekly", func(t time.Time, i int) time.Time { return t.AddDate(0, 0, 14*i) }, Biweekly},
		{"quarterly", func(t time.Time, i int) time.Time { return t.AddDate(0, 0, 91*i) }, Quarterly},
		{"yearly", func(t time.Time, i int) time.Time { return t.AddDate(1*i, 0, 0) }, Yearly},
	}
	start := date(2022, 1, 10)
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			var txs []core.Transaction
			for i := 0; i < 3; i++ {
				txs = append(txs, expense(tc.step(start, i), 100, "C", "subscription svc", ""))
			}
			got := DetectRecurring(txs, nil)
			if len(got) != 1 || got[0].Frequency != tc.want {
				t.Errorf("got %+v, want frequency %q", got, tc.want)
			}
		})
	}
}

func TestDetectAnomalies(t *testing.T) {
	// Food baseline of 1000 per row; the 5000 outlier deviates by exactly 5.0
	// against the average of the other rows.
	txs := []core.Transaction{
		expense(date(2024, 1, 1), 1000, "Food", "groceries", "a1"),
		expense(date(2024, 1, 8), 1000, "Food", "groceries", "a2"),
		expense(date(2024, 1, 15), 1000, "Food", "groceries", "a3"),
		expense(date(2024, 1, 20), 5000, "Food", "feast", "a4"),
	}
	got := DetectAnomalies(txs, 3.0, nil)
	if len(got) != 1 {
		t.Fatalf("anomalies = %d, want 1: %+v", len(got), got)
	}
	a := got[0]
	if a.Transaction.RowID != "a4" {
		t.Errorf("flagged row = %q", a.Transaction.RowID)
	}
	if a.Deviation != 5.0 {
		t.Errorf("deviation = %v, want 5.0", a.Deviation)
	}
	if a.CategoryAvg != 1000 {
		t.Errorf("category avg = %d, want 1000", a.CategoryAvg)
	}
}

func TestDetectAnomaliesNeedsSamples(t *testing.T) {
	txs := []core.Transaction{
		expense(date(2024, 1, 1), 100, "Rare", "x", "s1"),
		expense(date(2024, 1, 2), 90000, "Rare", "y", "s2"),
	}
	if got := DetectAnomalies(txs, 3.0, nil); len(got) != 0 {
		t.Errorf("category with one other sample must not flag: %+v", got)
	}
}

func TestDetectAnomaliesIgnored(t *testing.T) {
	txs := []core.Transaction{
		expense(date(2024, 1, 1), 1000, "Food", "a", "a1"),
		expense(date(2024, 1, 8), 1000, "Food", "b", "a2"),
		expense(date(2024, 1, 15), 1000, "Food", "c", "a3"),
		expense(date(2024, 1, 20), 5000, "Food", "d", "a4"),
	}
	ignored := NewIgnoreSet([]Ignored{{Kind: KindAnomaly, Identifier: "a4"}}, KindAnomaly)
	if got := DetectAnomalies(txs, 3.0, ignored); len(got) != 0 {
		t.Errorf("ignored anomaly still reported: %+v", got)
	}
}
