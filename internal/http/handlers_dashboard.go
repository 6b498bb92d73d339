package http

import (
	"net/http"

	"ledgerlens/internal/log"
)

// handleOverview serves the aggregate dashboard bundle for one filter.
func (s *Server) handleOverview(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r)
	if dto, ok := s.overviewCache.Get(key); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Overview cache hit")
		respondJSON(w, r, http.StatusOK, dto)
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	overview, err := s.dashboards.Overview(r.Context(), f)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	dto := toOverviewDTO(overview)
	s.overviewCache.Set(key, dto)
	respondJSON(w, r, http.StatusOK, dto)
}

// handleRollup serves the period-by-category expense matrix.
func (s *Server) handleRollup(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r)
	if rollup, ok := s.rollupCache.Get(key); ok {
		respondJSON(w, r, http.StatusOK, rollupResponse(rollup))
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}
	granularity, err := parseGranularity(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	rollup, err := s.dashboards.Rollup(r.Context(), f, granularity)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.rollupCache.Set(key, rollup)
	respondJSON(w, r, http.StatusOK, rollupResponse(rollup))
}

// handleAverages serves the monthly-average table. Category selections are
// ignored on purpose so the divisor spans the whole filtered period.
func (s *Server) handleAverages(w http.ResponseWriter, r *http.Request) {
	key := cacheKey(r)
	if groups, ok := s.averagesCache.Get(key); ok {
		respondJSON(w, r, http.StatusOK, averagesResponse(groups))
		return
	}

	f, err := parseFilter(r.URL.Query())
	if err != nil {
		respondError(w, r, http.StatusBadRequest, err)
		return
	}

	groups, err := s.dashboards.Averages(r.Context(), f)
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}

	s.averagesCache.Set(key, groups)
	respondJSON(w, r, http.StatusOK, averagesResponse(groups))
}

// handleMapping serves the merged category hierarchy the filter UI renders.
func (s *Server) handleMapping(w http.ResponseWriter, r *http.Request) {
	mapping, err := s.dashboards.Mapping(r.Context())
	if err != nil {
		respondError(w, r, http.StatusInternalServerError, err)
		return
	}
	respondJSON(w, r, http.StatusOK, toMappingDTO(mapping))
}
