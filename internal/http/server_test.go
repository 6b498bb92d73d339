package http

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"io"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"

	"ledgerlens/internal/services"
	"ledgerlens/internal/store/memory"
)

func newTestServer(t *testing.T) (*Server, *httptest.Server) {
	t.Helper()
	s := memory.New()
	srv := NewServer(Config{Addr: ":0"},
		services.NewDashboardService(s, nil),
		services.NewImportService(s, nil),
		services.NewInsightService(s, s, 0),
		services.NewBudgetService(s, s),
		nil)
	ts := httptest.NewServer(srv.Server.Handler)
	t.Cleanup(func() {
		ts.Close()
		_ = srv.Shutdown(context.Background())
	})
	return srv, ts
}

func importCSV(t *testing.T, ts *httptest.Server, csv string) {
	t.Helper()
	resp, err := http.Post(ts.URL+"/api/transactions/import", "text/csv", strings.NewReader(csv))
	if err != nil {
		t.Fatalf("import request: %v", err)
	}
	defer resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		body, _ := io.ReadAll(resp.Body)
		t.Fatalf("import status = %d: %s", resp.StatusCode, body)
	}
}

func getJSON(t *testing.T, ts *httptest.Server, path string, v any) *http.Response {
	t.Helper()
	resp, err := http.Get(ts.URL + path)
	if err != nil {
		t.Fatalf("GET %s: %v", path, err)
	}
	defer resp.Body.Close()
	if resp.StatusCode == http.StatusOK && v != nil {
		if err := json.NewDecoder(resp.Body).Decode(v); err != nil {
			t.Fatalf("decode %s: %v", path, err)
		}
	}
	return resp
}

const sampleCSV = `Date,Amount,Category,Subcategory,Description
2024-03-01,3000,Salary,,payday
2024-03-05,-120.50,Food,Groceries,market
2024-03-08,-40,Transport,,bus pass
2024-02-05,-80,Food,Groceries,market
`

func TestHealthEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	for _, path := range []string{"/healthz", "/readyz"} {
		resp, err := http.Get(ts.URL + path)
		if err != nil {
			t.Fatalf("GET %s: %v", path, err)
		}
		resp.Body.Close()
		if resp.StatusCode != http.StatusOK {
			t.Errorf("GET %s status = %d", path, resp.StatusCode)
		}
	}
}

func TestSecurityHeadersApplied(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Get(ts.URL + "/healthz")
	if err != nil {
		t.Fatalf("GET: %v", err)
	}
	resp.Body.Close()
	if got := resp.Header.Get("X-Content-Type-Options"); got != "nosniff" {
		t.Errorf("X-Content-Type-Options = %q", got)
	}
	if resp.Header.Get("X-Request-Id") == "" {
		t.Error("response missing X-Request-Id")
	}
}

func TestImportAndListTransactions(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var out struct {
		Transactions []transactionDTO `json:"transactions"`
		Count        int              `json:"count"`
	}
	// The default expense view hides the salary row.
	getJSON(t, ts, "/api/transactions?sort=date&order=asc", &out)
	if out.Count != 3 {
		t.Fatalf("count = %d, want 3", out.Count)
	}
	if out.Transactions[0].Description != "market" || out.Transactions[0].Date != "2024-02-05" {
		t.Errorf("first row = %+v, want earliest date first", out.Transactions[0])
	}

	getJSON(t, ts, "/api/transactions?view=income", &out)
	if out.Count != 1 {
		t.Fatalf("income view count = %d, want 1", out.Count)
	}
	if out.Transactions[0].Cents != 300000 {
		t.Errorf("salary cents = %d", out.Transactions[0].Cents)
	}
}

func TestListTransactionsFiltered(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var out struct {
		Count int `json:"count"`
	}
	getJSON(t, ts, "/api/transactions?categories=food", &out)
	if out.Count != 2 {
		t.Errorf("food rows = %d, want 2", out.Count)
	}

	resp := getJSON(t, ts, "/api/transactions?range=fortnight", nil)
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("invalid range status = %d, want 400", resp.StatusCode)
	}
}

func TestOverviewEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var out overviewDTO
	getJSON(t, ts, "/api/overview?from=2024-03-01&to=2024-03-31", &out)
	if out.Totals.IncomeCents != 300000 {
		t.Errorf("income = %d", out.Totals.IncomeCents)
	}
	if out.Totals.ExpenseCents != 16050 {
		t.Errorf("expenses = %d", out.Totals.ExpenseCents)
	}
	if out.Comparison == nil {
		t.Fatal("bounded window has no comparison")
	}
	if out.Comparison.Previous.ExpenseCents != 8000 {
		t.Errorf("previous expenses = %d", out.Comparison.Previous.ExpenseCents)
	}
}

func TestOverviewCacheInvalidatedByImport(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var before overviewDTO
	getJSON(t, ts, "/api/overview", &before)

	// Warm cache, then replace the dataset; the next read must not serve the
	// stale aggregate.
	importCSV(t, ts, "Date,Amount,Category\n2024-03-01,-10,Food\n")

	var after overviewDTO
	getJSON(t, ts, "/api/overview", &after)
	if after.Totals.ExpenseCents != 1000 {
		t.Errorf("expenses after re-import = %d, want 1000", after.Totals.ExpenseCents)
	}
}

func TestRollupEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var out rollupDTO
	getJSON(t, ts, "/api/rollup?granularity=month", &out)
	if len(out.Periods) != 2 {
		t.Fatalf("periods = %v, want Feb and Mar", out.Periods)
	}
	var rowSum int64
	for _, row := range out.Rows {
		rowSum += row.TotalCents
	}
	if rowSum != out.GrandTotal {
		t.Errorf("row totals %d != grand total %d", rowSum, out.GrandTotal)
	}
	var colSum int64
	for _, c := range out.ColumnTotals {
		colSum += c
	}
	if colSum != out.GrandTotal {
		t.Errorf("column totals %d != grand total %d", colSum, out.GrandTotal)
	}

	getJSON(t, ts, "/api/rollup?view=income", &out)
	if out.GrandTotal != 300000 {
		t.Errorf("income rollup grand total = %d, want 300000", out.GrandTotal)
	}
}

func TestAveragesEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var out []averageGroupDTO
	getJSON(t, ts, "/api/averages?categories=food", &out)
	// The category selection must not narrow the averages set.
	found := false
	for _, g := range out {
		if g.Category == "Transport" {
			found = true
		}
	}
	if !found {
		t.Errorf("averages missing unselected category: %+v", out)
	}
}

func TestMappingEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var out mappingDTO
	getJSON(t, ts, "/api/mapping", &out)
	byName := map[string][]string{}
	for _, c := range out.Categories {
		byName[c.Name] = c.Subcategories
	}
	if subs, ok := byName["Food"]; !ok || len(subs) != 1 || subs[0] != "Groceries" {
		t.Errorf("mapping = %v", byName)
	}
}

func TestUpdateTransaction(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	var list struct {
		Transactions []transactionDTO `json:"transactions"`
	}
	getJSON(t, ts, "/api/transactions?q=bus", &list)
	if len(list.Transactions) != 1 {
		t.Fatalf("query match = %+v", list.Transactions)
	}

	row := list.Transactions[0]
	row.Category = "travel"
	body, _ := json.Marshal(row)
	req, _ := http.NewRequest(http.MethodPut, fmt.Sprintf("%s/api/transactions/%d", ts.URL, row.ID), bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("update status = %d", resp.StatusCode)
	}

	getJSON(t, ts, "/api/transactions?categories=travel", &list)
	if len(list.Transactions) != 1 || list.Transactions[0].Category != "Travel" {
		t.Errorf("updated row = %+v", list.Transactions)
	}

	req, _ = http.NewRequest(http.MethodPut, ts.URL+"/api/transactions/99999", bytes.NewReader(body))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT missing: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("missing id status = %d, want 404", resp.StatusCode)
	}
}

func TestExportEndpoint(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	resp, err := http.Get(ts.URL + "/api/transactions/export")
	if err != nil {
		t.Fatalf("GET export: %v", err)
	}
	defer resp.Body.Close()
	if ct := resp.Header.Get("Content-Type"); !strings.HasPrefix(ct, "text/csv") {
		t.Errorf("Content-Type = %q", ct)
	}
	body, _ := io.ReadAll(resp.Body)
	if !strings.Contains(string(body), "payday") {
		t.Errorf("export missing rows:\n%s", body)
	}
}

func TestBudgetEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	importCSV(t, ts, sampleCSV)

	body, _ := json.Marshal(budgetRequest{Category: "food", Subcategory: "groceries", Amount: "100"})
	req, _ := http.NewRequest(http.MethodPut, ts.URL+"/api/budgets", bytes.NewReader(body))
	resp, err := http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("PUT budget: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusOK {
		t.Fatalf("set budget status = %d", resp.StatusCode)
	}

	var report budgetReportDTO
	getJSON(t, ts, "/api/budgets", &report)
	if len(report.Statuses) != 1 {
		t.Fatalf("budgets = %+v", report.Statuses)
	}
	if report.Statuses[0].Category != "Food" || report.Statuses[0].MonthlyCents != 10000 {
		t.Errorf("budget = %+v", report.Statuses[0])
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/budgets?category=Food&subcategory=Groceries", nil)
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE budget: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Errorf("delete status = %d", resp.StatusCode)
	}

	req, _ = http.NewRequest(http.MethodDelete, ts.URL+"/api/budgets?category=Food", nil)
	resp, _ = http.DefaultClient.Do(req)
	resp.Body.Close()
	if resp.StatusCode != http.StatusNotFound {
		t.Errorf("deleting a missing budget status = %d, want 404", resp.StatusCode)
	}
}

func TestInsightEndpoints(t *testing.T) {
	_, ts := newTestServer(t)
	csv := "Date,Amount,Category,Description\n" +
		"2024-01-05,-15.99,Entertainment,Netflix\n" +
		"2024-02-04,-15.99,Entertainment,Netflix\n" +
		"2024-03-06,-15.99,Entertainment,Netflix\n"
	importCSV(t, ts, csv)

	var out insightsDTO
	getJSON(t, ts, "/api/insights", &out)
	if len(out.Recurring) != 1 || out.Recurring[0].Frequency != "monthly" {
		t.Fatalf("recurring = %+v", out.Recurring)
	}

	body, _ := json.Marshal(ignoreRequest{Kind: "recurring", Identifier: out.Recurring[0].Key})
	resp, err := http.Post(ts.URL+"/api/insights/ignore", "application/json", bytes.NewReader(body))
	if err != nil {
		t.Fatalf("POST ignore: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("ignore status = %d", resp.StatusCode)
	}

	getJSON(t, ts, "/api/insights", &out)
	if len(out.Recurring) != 0 {
		t.Errorf("ignored finding still reported: %+v", out.Recurring)
	}

	var ignored struct {
		Ignored []ignoredDTO `json:"ignored"`
	}
	getJSON(t, ts, "/api/insights/ignored", &ignored)
	if len(ignored.Ignored) != 1 {
		t.Fatalf("ignored list = %+v", ignored.Ignored)
	}

	req, _ := http.NewRequest(http.MethodDelete, ts.URL+"/api/insights/ignore", bytes.NewReader(body))
	resp, err = http.DefaultClient.Do(req)
	if err != nil {
		t.Fatalf("DELETE ignore: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusNoContent {
		t.Fatalf("unignore status = %d", resp.StatusCode)
	}

	getJSON(t, ts, "/api/insights", &out)
	if len(out.Recurring) != 1 {
		t.Errorf("unignored finding did not come back")
	}

	resp, _ = http.Post(ts.URL+"/api/insights/ignore", "application/json",
		strings.NewReader(`{"kind":"horoscope","identifier":"x"}`))
	resp.Body.Close()
	if resp.StatusCode != http.StatusBadRequest {
		t.Errorf("unknown kind status = %d, want 400", resp.StatusCode)
	}
}

func TestImportRejectsBadCSV(t *testing.T) {
	_, ts := newTestServer(t)
	resp, err := http.Post(ts.URL+"/api/transactions/import", "text/csv",
		strings.NewReader("Category\nFood\n"))
	if err != nil {
		t.Fatalf("import request: %v", err)
	}
	resp.Body.Close()
	if resp.StatusCode != http.StatusUnprocessableEntity {
		t.Errorf("bad csv status = %d, want 422", resp.StatusCode)
	}
}
