package http

import (
	"encoding/json"
	"fmt"
	"io"
	"mime"
	"net/http"
	"strconv"

	"ledgerlens/internal/log"
)

// maxImportBytes caps the accepted CSV upload size.
const maxImportBytes = 32 << 20

// handleListTransactions serves the filtered, sorted transaction list.
func (s *Server) handleListTransactions(w http.ResponseWriter, r *http.Request) {
	f, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	key, order, err := parseSort(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	txs, err := s.dashboards.Transactions(r.Context(), f, key, order)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	out := make([]transactionDTO, 0, len(txs))
	for _, t := range txs {
		out = append(out, toTransactionDTO(t))
	}
	respondJSON(w, r, http.StatusOK, struct {
		Transactions []transactionDTO `json:"transactions"`
		Count        int              `json:"count"`
	}{Transactions: out, Count: len(out)})
}

// handleUpdateTransaction rewrites one row in place.
func (s *Server) handleUpdateTransaction(w http.ResponseWriter, r *http.Request) {
	id, err := strconv.ParseInt(r.PathValue("id"), 10, 64)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("invalid transaction id %q", r.PathValue("id")))
		return
	}

	var dto transactionDTO
	if err := json.NewDecoder(r.Body).Decode(&dto); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("decode transaction: %w", err))
		return
	}
	dto.ID = id

	t := fromTransactionDTO(dto)
	if t.Category == "" {
		t.Category = "Uncategorized"
	}
	if err := s.ledger.UpdateTransaction(r.Context(), t); err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.invalidateAggregates()
	respondJSON(w, r, http.StatusOK, toTransactionDTO(t))
}

// handleImport replaces the entire ledger from an uploaded CSV. The body may
// be either a multipart form with a "file" field or raw CSV.
func (s *Server) handleImport(w http.ResponseWriter, r *http.Request) {
	r.Body = http.MaxBytesReader(w, r.Body, maxImportBytes)

	reader := io.Reader(r.Body)
	if mt, _, err := mime.ParseMediaType(r.Header.Get("Content-Type")); err == nil && mt == "multipart/form-data" {
		if err := r.ParseMultipartForm(maxImportBytes); err != nil {
			respondError(w, r, http.StatusBadRequest, fmt.Errorf("parse upload: %w", err))
			return
		}
		file, _, err := r.FormFile("file")
		if err != nil {
			respondError(w, r, http.StatusBadRequest, fmt.Errorf("missing file field: %w", err))
			return
		}
		defer file.Close()
		reader = file
	}

	report, err := s.ledger.Import(r.Context(), reader)
	if err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err)
		return
	}

	s.invalidateAggregates()
	log.FromContext(r.Context()).InfoContext(r.Context(), "Ledger import completed",
		log.FieldRows, report.Rows)
	respondJSON(w, r, http.StatusOK, struct {
		Rows           int `json:"rows"`
		InvalidDates   int `json:"invalid_dates"`
		InvalidAmounts int `json:"invalid_amounts"`
	}{Rows: report.Rows, InvalidDates: report.InvalidDates, InvalidAmounts: report.InvalidAmount})
}

// handleExport streams the ledger as a CSV download.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="ledger.csv"`)
	if err := s.ledger.Export(r.Context(), w); err != nil {
		// Headers are out already; all we can do is log.
		log.FromContext(r.Context()).ErrorContext(r.Context(), "Ledger export failed",
			log.FieldError, err)
	}
}
