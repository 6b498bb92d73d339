package core

import (
	"testing"
	"time"
)

func date(y int, m time.Month, d int) time.Time {
	return time.Date(y, m, d, 0, 0, 0, 0, time.UTC)
}

func tx(id int64, day time.Time, cents int64, cat, sub, desc string) Transaction {
	return Transaction{
		ID: id, Date: day, DateValid: true, AmountCents: cents,
		Category: cat, Subcategory: sub, Description: desc,
	}
}

func sampleMapping() *CategoryMapping {
	m := NewCategoryMapping()
	m.Add("Food", "Groceries")
	m.Add("Food", "Eating Out")
	m.Add("Transport", "Fuel")
	return m
}

func TestMatchesDateBounds(t *testing.T) {
	f := NewFilterState()
	from, to := date(2024, 1, 1), date(2024, 1, 31)
	f.From, f.To = &from, &to
	m := sampleMapping()

	inside := tx(1, date(2024, 1, 15), -100, "Food", "", "")
	boundary := tx(2, date(2024, 1, 31), -100, "Food", "", "")
	outside := tx(3, date(2024, 2, 1), -100, "Food", "", "")
	undated := Transaction{ID: 4, AmountCents: -100}

	if !Matches(inside, f, *m) {
		t.Error("inside range should match")
	}
	if !Matches(boundary, f, *m) {
		t.Error("bounds are inclusive")
	}
	if Matches(outside, f, *m) {
		t.Error("outside range should not match")
	}
	if Matches(undated, f, *m) {
		t.Error("undated row must not match a bounded range")
	}
	if !Matches(undated, NewFilterState(), *m) {
		t.Error("undated row matches the unbounded range")
	}
}

func TestFilterView(t *testing.T) {
	txs := []Transaction{
		tx(1, date(2024, 1, 5), -5000, "Food", "", "market"),
		tx(2, date(2024, 1, 15), 300000, "Salary", "", "pay"),
		tx(3, date(2024, 1, 20), 0, "Food", "", "refund wash"),
	}

	expenses := FilterView(txs, ViewExpense)
	if len(expenses) != 1 || expenses[0].ID != 1 {
		t.Errorf("expense view = %+v", expenses)
	}

	income := FilterView(txs, ViewIncome)
	if len(income) != 1 || income[0].ID != 2 {
		t.Errorf("income view = %+v", income)
	}

	// An unset mode behaves as the expense view; zero rows belong to neither.
	if def := FilterView(txs, ""); len(def) != 1 || def[0].ID != 1 {
		t.Errorf("default view = %+v", def)
	}
}

func TestMatchesHierarchicalSelection(t *testing.T) {
	m := sampleMapping()
	groceries := tx(1, date(2024, 1, 5), -5000, "Food", "Groceries", "supermarket")
	eatingOut := tx(2, date(2024, 1, 6), -3000, "Food", "Eating Out", "pizza")
	bareFood := tx(3, date(2024, 1, 7), -2000, "Food", "", "snacks")
	fuel := tx(4, date(2024, 1, 8), -4000, "Transport", "Fuel", "gas")

	t.Run("subcategory narrows its category", func(t *testing.T) {
		f := NewFilterState()
		f.Categories["Food"] = struct{}{}
		f.Subcategories["Groceries"] = struct{}{}
		if !Matches(groceries, f, *m) {
			t.Error("selected subcategory must match")
		}
		if Matches(eatingOut, f, *m) {
			t.Error("sibling subcategory must not match while Food is refined")
		}
		if Matches(bareFood, f, *m) {
			t.Error("unrefined Food row must not match while Food is refined")
		}
	})

	t.Run("whole category when unrefined", func(t *testing.T) {
		f := NewFilterState()
		f.Categories["Food"] = struct{}{}
		for _, x := range []Transaction{groceries, eatingOut, bareFood} {
			if !Matches(x, f, *m) {
				t.Errorf("tx %d should match whole-category selection", x.ID)
			}
		}
		if Matches(fuel, f, *m) {
			t.Error("other categories are excluded in inclusion mode")
		}
	})

	t.Run("selection skips free-text query", func(t *testing.T) {
		f := NewFilterState()
		f.Categories["Food"] = struct{}{}
		f.Query = "no-such-text"
		if !Matches(bareFood, f, *m) {
			t.Error("query must be ignored while a selection is active")
		}
	})

	t.Run("subcategory selection crosses categories", func(t *testing.T) {
		f := NewFilterState()
		f.Subcategories["Fuel"] = struct{}{}
		if !Matches(fuel, f, *m) {
			t.Error("selected subcategory includes regardless of category selection")
		}
		if Matches(groceries, f, *m) {
			t.Error("unselected rows are excluded")
		}
	})
}

func TestMatchesQuery(t *testing.T) {
	m := sampleMapping()
	x := tx(1, date(2024, 1, 5), -5000, "Food", "Groceries", "Weekly SUPERMARKET run")
	x.PayeePayer = "Acme Market"

	tests := []struct {
		name  string
		query string
		want  bool
	}{
		{"description substring", "supermarket", true},
		{"category", "food", true},
		{"subcategory", "grocer", true},
		{"payee", "acme", true},
		{"no match", "rent", false},
		{"blank passes", "   ", true},
	}
	for _, tc := range tests {
		t.Run(tc.name, func(t *testing.T) {
			f := NewFilterState()
			f.Query = tc.query
			if got := Matches(x, f, *m); got != tc.want {
				t.Errorf("query %q: got %v, want %v", tc.query, got, tc.want)
			}
		})
	}
}

func TestFilterIdempotent(t *testing.T) {
	m := sampleMapping()
	txs := []Transaction{
		tx(1, date(2024, 1, 5), -5000, "Food", "Groceries", "a"),
		tx(2, date(2024, 1, 6), -3000, "Food", "Eating Out", "b"),
		tx(3, date(2024, 2, 1), 10000, "Income", "", "salary"),
	}
	f := NewFilterState()
	f.Categories["Food"] = struct{}{}

	once := Filter(txs, f, *m)
	twice := Filter(once, f, *m)
	if len(once) != len(twice) {
		t.Fatalf("filter not idempotent: %d then %d", len(once), len(twice))
	}
	for i := range once {
		if once[i].ID != twice[i].ID {
			t.Fatalf("row %d changed between passes", i)
		}
	}
}

// Every transaction lands in exactly one bucket when its category is refined.
func TestSelectionMutualExclusivity(t *testing.T) {
	m := sampleMapping()
	txs := []Transaction{
		tx(1, date(2024, 1, 5), -5000, "Food", "Groceries", ""),
		tx(2, date(2024, 1, 6), -3000, "Food", "Eating Out", ""),
		tx(3, date(2024, 1, 7), -2000, "Food", "", ""),
	}

	refined := NewFilterState()
	refined.Categories["Food"] = struct{}{}
	refined.Subcategories["Groceries"] = struct{}{}

	rest := NewFilterState()
	rest.Subcategories["Eating Out"] = struct{}{}

	seen := map[int64]int{}
	for _, x := range Filter(txs, refined, *m) {
		seen[x.ID]++
	}
	for _, x := range Filter(txs, rest, *m) {
		seen[x.ID]++
	}
	for id, n := range seen {
		if n > 1 {
			t.Errorf("tx %d matched %d disjoint selections", id, n)
		}
	}
}

func TestTimeRangeDateRange(t *testing.T) {
	now := time.Date(2024, 6, 15, 13, 45, 0, 0, time.UTC)

	from, to := RangeYTD.DateRange(now)
	if !from.Equal(date(2024, 1, 1)) || !to.Equal(date(2024, 12, 31)) {
		t.Errorf("ytd = %v .. %v", from, to)
	}

	from, to = RangeLast30Days.DateRange(now)
	if !from.Equal(date(2024, 5, 16)) || !to.Equal(date(2024, 6, 15)) {
		t.Errorf("last-30-days = %v .. %v", from, to)
	}

	from, to = RangeLast2Years.DateRange(now)
	if !from.Equal(date(2022, 6, 15)) {
		t.Errorf("last-2-years from = %v", from)
	}

	if from, to = RangeAllTime.DateRange(now); from != nil || to != nil {
		t.Error("all-time is unbounded")
	}
}

func TestSortExplicitComparators(t *testing.T) {
	txs := []Transaction{
		tx(1, date(2024, 1, 10), -900, "Zoo", "", "b"),
		tx(2, date(2024, 1, 5), -100, "apple", "", "a"),
		{ID: 3, AmountCents: -50, Category: "Mid", Description: "c"},
	}

	Sort(txs, SortByDate, Ascending)
	if txs[0].ID != 3 {
		t.Errorf("undated row should sort first, got %d", txs[0].ID)
	}
	if txs[1].ID != 2 || txs[2].ID != 1 {
		t.Errorf("dated order wrong: %d, %d", txs[1].ID, txs[2].ID)
	}

	Sort(txs, SortByAmount, Descending)
	if txs[0].AmountCents != -50 || txs[2].AmountCents != -900 {
		t.Errorf("amount desc order wrong: %d .. %d", txs[0].AmountCents, txs[2].AmountCents)
	}

	Sort(txs, SortByCategory, Ascending)
	if txs[0].Category != "apple" {
		t.Errorf("category compare must be case-insensitive, got %q first", txs[0].Category)
	}
}
