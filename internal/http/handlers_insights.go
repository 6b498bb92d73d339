package http

import (
	"encoding/json"
	"fmt"
	"net/http"

	"ledgerlens/internal/insights"
)

// handleInsights serves the recurring, anomaly and savings-rate findings.
func (s *Server) handleInsights(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r)
	if dto, ok := s.insightsCache.Get(key); ok {
		respondJSON(w, r, http.StatusOK, dto)
		return
	}

	report, err := s.insights.Insights(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	dto := toInsightsDTO(report)
	s.insightsCache.Set(key, dto)
	respondJSON(w, r, http.StatusOK, dto)
}

// handleListIgnored serves the active suppressions.
func (s *Server) handleListIgnored(w http.ResponseWriter, r *http.Request) {
	items, err := s.insights.Ignored(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, r, http.StatusOK, struct {
		Ignored []ignoredDTO `json:"ignored"`
	}{Ignored: toIgnoredDTOs(items)})
}

type ignoreRequest struct {
	Kind       string `json:"kind"`
	Identifier string `json:"identifier"`
}

func parseKind(v string) (insights.Kind, error) {
	switch k := insights.Kind(v); k {
	case insights.KindRecurring, insights.KindAnomaly:
		return k, nil
	default:
		return "", fmt.Errorf("unknown insight kind %q", v)
	}
}

// handleIgnore suppresses one finding.
func (s *Server) handleIgnore(w http.ResponseWriter, r *http.Request) {
	var req ignoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("decode ignore request: %w", err))
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.insights.Ignore(r.Context(), kind, req.Identifier); err != nil {
		respondError(w, r, http.StatusUnprocessableEntity, err)
		return
	}
	s.invalidateAggregates()
	w.WriteHeader(http.StatusNoContent)
}

// handleIgnoreAll suppresses every currently shown finding of one kind.
func (s *Server) handleIgnoreAll(w http.ResponseWriter, r *http.Request) {
	var req ignoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("decode ignore request: %w", err))
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	n, err := s.insights.IgnoreAll(r.Context(), kind)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.invalidateAggregates()
	respondJSON(w, r, http.StatusOK, struct {
		Suppressed int `json:"suppressed"`
	}{Suppressed: n})
}

// handleUnignore lifts one suppression.
func (s *Server) handleUnignore(w http.ResponseWriter, r *http.Request) {
	var req ignoreRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		respondError(w, r, http.StatusBadRequest, fmt.Errorf("decode unignore request: %w", err))
		return
	}
	kind, err := parseKind(req.Kind)
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	if err := s.insights.Unignore(r.Context(), kind, req.Identifier); err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	s.invalidateAggregates()
	w.WriteHeader(http.StatusNoContent)
}
