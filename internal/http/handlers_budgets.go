package http

import (
	"encoding/json"
	"fmt"
	"net/http"
)

// handleBudgetReport serves every budget with current-month actuals.
func (s *Server) handleBudgetReport(w http.ResponseWriter, r *http.Request) {
	report, err := s.budgets.Report(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toBudgetReportDTO(report))
}

type budgetRequest struct {
	Category    string `json:"category"`
	Subcategory string `json:"subcategory"`
	Amount      string `json:"amount"`
}

// handleSetBudget creates or replaces one budget target.
func (s *Server) handleSetBudget(w http.ResponseWriter, r *http.Request) {
	var req budgetRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("decode budget request: %w", err))
		return
	}

	b, err := s.budgets.Set(r.Context(), req.Category, req.Subcategory, req.Amount)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	respondJSON(w, r, http.StatusOK, budgetStatusDTO{
		Category:     b.Category,
		Subcategory:  b.Subcategory,
		MonthlyCents: b.MonthlyCents,
		YearlyCents:  b.MonthlyCents * 12,
	})
}

// handleDeleteBudget removes one budget by category/subcategory parameters.
func (s *Server) handleDeleteBudget(w http.ResponseWriter, r *http.Request) {
	category := r.URL.Query().Get("category")
	if category == "" {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("category parameter is required"))
		return
	}
	subcategory := r.URL.Query().Get("subcategory")

	if err := s.budgets.Delete(r.Context(), category, subcategory); err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	w.WriteHeader(http.StatusNoContent)
}
