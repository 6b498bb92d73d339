package http

import (
	"encoding/json"
	"errors"
	"net/http"

	"ledgerlens/internal/analytics"
	"ledgerlens/internal/budget"
	"ledgerlens/internal/core"
	"ledgerlens/internal/insights"
	"ledgerlens/internal/log"
	"ledgerlens/internal/services"
	"ledgerlens/internal/store"
)

// respondJSON writes v with the canonical headers. Encoding failures are
// logged; the status line has already gone out by then.
func respondJSON(w http.ResponseWriter, r *http.Request, status int, v any) {
	w.Header().Set("Content-Type", "application/json; charset=utf-8")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(v); err != nil {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Response encoding failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
	}
}

type errorBody struct {
	Error string `json:"error"`
}

// respondError maps store.ErrNotFound to 404 and everything else to the
// given status. Internal errors are logged server-side and reported to the
// client without detail.
func respondError(w http.ResponseWriter, r *http.Request, status int, err error) {
	if errors.Is(err, store.ErrNotFound) {
		respondJSON(w, r, http.StatusNotFound, errorBody{Error: "not found"})
		return
	}
	if status >= 500 {
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Request failed",
			log.FieldPath, r.URL.Path, log.FieldError, err)
		respondJSON(w, r, status, errorBody{Error: "internal error"})
		return
	}
	respondJSON(w, r, status, errorBody{Error: err.Error()})
}

// transactionDTO is the wire shape of one ledger row. Amounts travel as
// cents plus a display string so clients never re-implement the formatting.
type transactionDTO struct {
	ID     int64  `json:"id"`
	Date   string `json:"date"`
	Amount string `json:"amount"`
	Cents  int64  `json:"cents"`

	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`

	PaymentMethod  string `json:"payment_method,omitempty"`
	Description    string `json:"description,omitempty"`
	RefCheckNo     string `json:"ref_check_no,omitempty"`
	PayeePayer     string `json:"payee_payer,omitempty"`
	Status         string `json:"status,omitempty"`
	ReceiptPicture string `json:"receipt_picture,omitempty"`
	Account        string `json:"account,omitempty"`
	Tag            string `json:"tag,omitempty"`
	Tax            string `json:"tax,omitempty"`
	Quantity       string `json:"quantity,omitempty"`
	SplitTotal     string `json:"split_total,omitempty"`
	RowID          string `json:"row_id,omitempty"`
	TypeID         string `json:"type_id,omitempty"`
}

func toTransactionDTO(t core.Transaction) transactionDTO {
	return transactionDTO{
		ID:             t.ID,
		Date:           t.RawDate,
		Amount:         core.FormatCents(t.AmountCents),
		Cents:          t.AmountCents,
		Category:       t.Category,
		Subcategory:    t.Subcategory,
		PaymentMethod:  t.PaymentMethod,
		Description:    t.Description,
		RefCheckNo:     t.RefCheckNo,
		PayeePayer:     t.PayeePayer,
		Status:         t.Status,
		ReceiptPicture: t.ReceiptPicture,
		Account:        t.Account,
		Tag:            t.Tag,
		Tax:            t.Tax,
		Quantity:       t.Quantity,
		SplitTotal:     t.SplitTotal,
		RowID:          t.RowID,
		TypeID:         t.TypeID,
	}
}

func fromTransactionDTO(d transactionDTO) core.Transaction {
	date, ok := core.ParseDate(d.Date)
	return core.Transaction{
		ID:             d.ID,
		RawDate:        d.Date,
		Date:           date,
		DateValid:      ok,
		AmountCents:    d.Cents,
		Category:       core.TitleCase(d.Category),
		Subcategory:    core.TitleCase(d.Subcategory),
		PaymentMethod:  d.PaymentMethod,
		Description:    d.Description,
		RefCheckNo:     d.RefCheckNo,
		PayeePayer:     d.PayeePayer,
		Status:         d.Status,
		ReceiptPicture: d.ReceiptPicture,
		Account:        d.Account,
		Tag:            d.Tag,
		Tax:            d.Tax,
		Quantity:       d.Quantity,
		SplitTotal:     d.SplitTotal,
		RowID:          d.RowID,
		TypeID:         d.TypeID,
	}
}

type totalsDTO struct {
	IncomeCents  int64 `json:"income_cents"`
	ExpenseCents int64 `json:"expense_cents"`
	NetCents     int64 `json:"net_cents"`
}

func toTotalsDTO(t analytics.Totals) totalsDTO {
	return totalsDTO{IncomeCents: t.IncomeCents, ExpenseCents: t.ExpenseCents, NetCents: t.NetCents}
}

type comparisonDTO struct {
	Current  totalsDTO `json:"current"`
	Previous totalsDTO `json:"previous"`

	// Percent changes are null when the previous window is zero.
	IncomeChangePct  *float64 `json:"income_change_pct"`
	ExpenseChangePct *float64 `json:"expense_change_pct"`
	NetChangeCents   int64    `json:"net_change_cents"`
}

type trendPointDTO struct {
	Label        string `json:"label"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
}

type shareDTO struct {
	Name  string `json:"name"`
	Cents int64  `json:"cents"`
}

type periodTotalsDTO struct {
	Label        string `json:"label"`
	IncomeCents  int64  `json:"income_cents"`
	ExpenseCents int64  `json:"expense_cents"`
}

type highlightsDTO struct {
	AvgMonthlySpendCents int64  `json:"avg_monthly_spend_cents"`
	TopCategory          string `json:"top_category,omitempty"`
	TopCategoryAvgCents  int64  `json:"top_category_avg_cents"`
	PeakMonth            string `json:"peak_month,omitempty"`
	PeakMonthCents       int64  `json:"peak_month_cents"`
}

type overviewDTO struct {
	Totals       totalsDTO         `json:"totals"`
	Comparison   *comparisonDTO    `json:"comparison,omitempty"`
	Trend        []trendPointDTO   `json:"trend"`
	Categories   []shareDTO        `json:"categories"`
	Subcats      []shareDTO        `json:"subcategories"`
	QuickSummary []periodTotalsDTO `json:"quick_summary"`
	Highlights   highlightsDTO     `json:"highlights"`
}

func toOverviewDTO(o services.Overview) overviewDTO {
	dto := overviewDTO{
		Totals: toTotalsDTO(o.Totals),
		Highlights: highlightsDTO{
			AvgMonthlySpendCents: o.Highlights.AvgMonthlySpendCents,
			TopCategory:          o.Highlights.TopCategory,
			TopCategoryAvgCents:  o.Highlights.TopCategoryAvgCents,
			PeakMonth:            o.Highlights.PeakMonth,
			PeakMonthCents:       o.Highlights.PeakMonthCents,
		},
		Trend:        make([]trendPointDTO, 0, len(o.Trend)),
		Categories:   make([]shareDTO, 0, len(o.Categories)),
		Subcats:      make([]shareDTO, 0, len(o.Subcats)),
		QuickSummary: make([]periodTotalsDTO, 0, len(o.QuickSummary)),
	}
	if o.Comparison != nil {
		dto.Comparison = &comparisonDTO{
			Current:          toTotalsDTO(o.Comparison.Current),
			Previous:         toTotalsDTO(o.Comparison.Previous),
			IncomeChangePct:  o.Comparison.IncomeChangePct,
			ExpenseChangePct: o.Comparison.ExpenseChangePct,
			NetChangeCents:   o.Comparison.NetChangeCents,
		}
	}
	for _, p := range o.Trend {
		dto.Trend = append(dto.Trend, trendPointDTO{Label: p.Label, IncomeCents: p.IncomeCents, ExpenseCents: p.ExpenseCents})
	}
	for _, c := range o.Categories {
		dto.Categories = append(dto.Categories, shareDTO{Name: c.Name, Cents: c.Cents})
	}
	for _, c := range o.Subcats {
		dto.Subcats = append(dto.Subcats, shareDTO{Name: c.Name, Cents: c.Cents})
	}
	for _, p := range o.QuickSummary {
		dto.QuickSummary = append(dto.QuickSummary, periodTotalsDTO{Label: p.Label, IncomeCents: p.IncomeCents, ExpenseCents: p.ExpenseCents})
	}
	return dto
}

type rollupRowDTO struct {
	Name       string         `json:"name"`
	Cells      []int64        `json:"cells"`
	TotalCents int64          `json:"total_cents"`
	Subrows    []rollupRowDTO `json:"subrows,omitempty"`
}

type rollupDTO struct {
	Granularity  string         `json:"granularity"`
	Periods      []string       `json:"periods"`
	Rows         []rollupRowDTO `json:"rows"`
	ColumnTotals []int64        `json:"column_totals"`
	GrandTotal   int64          `json:"grand_total_cents"`
}

func rollupResponse(rollup analytics.Rollup) rollupDTO {
	dto := rollupDTO{
		Granularity:  string(rollup.Granularity),
		Periods:      rollup.Periods,
		Rows:         make([]rollupRowDTO, 0, len(rollup.Rows)),
		ColumnTotals: rollup.ColumnTotals,
		GrandTotal:   rollup.GrandTotal,
	}
	if dto.Periods == nil {
		dto.Periods = []string{}
	}
	if dto.ColumnTotals == nil {
		dto.ColumnTotals = []int64{}
	}
	for _, row := range rollup.Rows {
		dto.Rows = append(dto.Rows, toRollupRowDTO(row))
	}
	return dto
}

func toRollupRowDTO(row analytics.RollupRow) rollupRowDTO {
	dto := rollupRowDTO{Name: row.Name, Cells: row.Cells, TotalCents: row.TotalCents}
	for _, sub := range row.Subrows {
		dto.Subrows = append(dto.Subrows, toRollupRowDTO(sub))
	}
	return dto
}

type averageRowDTO struct {
	Category        string `json:"category"`
	Subcategory     string `json:"subcategory,omitempty"`
	TotalCents      int64  `json:"total_cents"`
	Months          int    `json:"months"`
	AvgMonthlyCents int64  `json:"avg_monthly_cents"`
}

type averageGroupDTO struct {
	Category        string          `json:"category"`
	TotalCents      int64           `json:"total_cents"`
	AvgMonthlyCents int64           `json:"avg_monthly_cents"`
	Rows            []averageRowDTO `json:"rows"`
}

func averagesResponse(groups []analytics.AverageGroup) []averageGroupDTO {
	out := make([]averageGroupDTO, 0, len(groups))
	for _, g := range groups {
		dto := averageGroupDTO{
			Category:        g.Category,
			TotalCents:      g.TotalCents,
			AvgMonthlyCents: g.AvgMonthlyCents,
			Rows:            make([]averageRowDTO, 0, len(g.Rows)),
		}
		for _, row := range g.Rows {
			dto.Rows = append(dto.Rows, averageRowDTO{
				Category:        row.Category,
				Subcategory:     row.Subcategory,
				TotalCents:      row.TotalCents,
				Months:          row.Months,
				AvgMonthlyCents: row.AvgMonthlyCents,
			})
		}
		out = append(out, dto)
	}
	return out
}

type recurringDTO struct {
	Key         string `json:"key"`
	Description string `json:"description"`
	Category    string `json:"category"`
	Subcategory string `json:"subcategory,omitempty"`
	Frequency   string `json:"frequency"`
	AvgCents    int64  `json:"avg_cents"`
	Count       int    `json:"count"`
	LastSeen    string `json:"last_seen"`
}

type anomalyDTO struct {
	Transaction transactionDTO `json:"transaction"`
	AmountCents int64          `json:"amount_cents"`
	CategoryAvg int64          `json:"category_avg_cents"`
	Deviation   float64        `json:"deviation"`
}

type savingsPointDTO struct {
	Label       string  `json:"label"`
	RatePercent float64 `json:"rate_percent"`
}

type insightsDTO struct {
	Recurring []recurringDTO    `json:"recurring"`
	Anomalies []anomalyDTO      `json:"anomalies"`
	Savings   []savingsPointDTO `json:"savings_trend"`
}

func toInsightsDTO(report services.Report) insightsDTO {
	dto := insightsDTO{
		Recurring: make([]recurringDTO, 0, len(report.Recurring)),
		Anomalies: make([]anomalyDTO, 0, len(report.Anomalies)),
		Savings:   make([]savingsPointDTO, 0, len(report.Savings)),
	}
	for _, rec := range report.Recurring {
		dto.Recurring = append(dto.Recurring, recurringDTO{
			Key:         rec.Key,
			Description: rec.Description,
			Category:    rec.Category,
			Subcategory: rec.Subcategory,
			Frequency:   string(rec.Frequency),
			AvgCents:    rec.AvgCents,
			Count:       rec.Count,
			LastSeen:    rec.LastSeen,
		})
	}
	for _, a := range report.Anomalies {
		dto.Anomalies = append(dto.Anomalies, anomalyDTO{
			Transaction: toTransactionDTO(a.Transaction),
			AmountCents: a.AmountCents,
			CategoryAvg: a.CategoryAvg,
			Deviation:   a.Deviation,
		})
	}
	for _, p := range report.Savings {
		dto.Savings = append(dto.Savings, savingsPointDTO{Label: p.Label, RatePercent: p.RatePercent})
	}
	return dto
}

type ignoredDTO struct {
	Kind       string `json:"kind"`
	Identifier string `json:"identifier"`
}

func toIgnoredDTOs(items []insights.Ignored) []ignoredDTO {
	out := make([]ignoredDTO, 0, len(items))
	for _, ig := range items {
		out = append(out, ignoredDTO{Kind: string(ig.Kind), Identifier: ig.Identifier})
	}
	return out
}

type budgetStatusDTO struct {
	Category     string `json:"category"`
	Subcategory  string `json:"subcategory,omitempty"`
	MonthlyCents int64  `json:"monthly_cents"`
	YearlyCents  int64  `json:"yearly_cents"`

	MonthSpentCents int64 `json:"month_spent_cents"`
	YTDSpentCents   int64 `json:"ytd_spent_cents"`

	PercentUsed *float64 `json:"percent_used"`
	OverBudget  bool     `json:"over_budget"`
	OverByCents int64    `json:"over_by_cents,omitempty"`
}

type budgetReportDTO struct {
	Statuses []budgetStatusDTO `json:"budgets"`
	Overall  struct {
		MonthlyBudgetCents int64    `json:"monthly_budget_cents"`
		MonthSpentCents    int64    `json:"month_spent_cents"`
		PercentUsed        *float64 `json:"percent_used"`
		OverBudget         bool     `json:"over_budget"`
	} `json:"overall"`
}

func toBudgetReportDTO(report budget.Report) budgetReportDTO {
	dto := budgetReportDTO{Statuses: make([]budgetStatusDTO, 0, len(report.Statuses))}
	for _, s := range report.Statuses {
		dto.Statuses = append(dto.Statuses, budgetStatusDTO{
			Category:        s.Budget.Category,
			Subcategory:     s.Budget.Subcategory,
			MonthlyCents:    s.Budget.MonthlyCents,
			YearlyCents:     s.YearlyCents,
			MonthSpentCents: s.MonthSpentCents,
			YTDSpentCents:   s.YTDSpentCents,
			PercentUsed:     s.PercentUsed,
			OverBudget:      s.OverBudget,
			OverByCents:     s.OverByCents,
		})
	}
	dto.Overall.MonthlyBudgetCents = report.Overall.MonthlyBudgetCents
	dto.Overall.MonthSpentCents = report.Overall.MonthSpentCents
	dto.Overall.PercentUsed = report.Overall.PercentUsed
	dto.Overall.OverBudget = report.Overall.OverBudget
	return dto
}

type mappingDTO struct {
	Categories []mappingEntryDTO `json:"categories"`
}

type mappingEntryDTO struct {
	Name          string   `json:"name"`
	Subcategories []string `json:"subcategories"`
}

func toMappingDTO(m *core.CategoryMapping) mappingDTO {
	dto := mappingDTO{Categories: []mappingEntryDTO{}}
	for _, cat := range m.Categories() {
		subs := m.Subcategories(cat)
		if subs == nil {
			subs = []string{}
		}
		dto.Categories = append(dto.Categories, mappingEntryDTO{Name: cat, Subcategories: subs})
	}
	return dto
}
