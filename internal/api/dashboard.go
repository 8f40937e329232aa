package api

import (
	"net/http"
)

// handleDashboardStats returns scoped aggregate counters.
func (s *Server) handleDashboardStats(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())

	stats, err := s.dashboard.Stats(r.Context(), scope)
	if err != nil {
		s.logger.Error("dashboard stats failed", "error", err)
		writeInternalError(w, "failed to load dashboard stats")
		return
	}

	writeJSON(w, http.StatusOK, stats)
}

// handleDashboardParishes returns the scoped per-parish user ranking.
func (s *Server) handleDashboardParishes(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	limit := intParam(r.URL.Query().Get("limit"))

	parishes, err := s.dashboard.TopParishes(r.Context(), scope, limit)
	if err != nil {
		s.logger.Error("dashboard parishes failed", "error", err)
		writeInternalError(w, "failed to load parish ranking")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"parishes": parishes,
		"count":    len(parishes),
	})
}
