package api

import (
	"errors"
	"net/http"

	"github.com/JeanClaudeMorales/amarillo/internal/geo"
)

// handleListStates returns the states visible to the caller.
//
// Unrestricted scopes see every state. A state admin sees only their
// own state; a municipal admin sees the state above their municipality.
func (s *Server) handleListStates(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())

	stateID, ok := s.visibleStateID(r, w)
	if !ok {
		return
	}

	var states []geo.State
	switch {
	case scope.Unrestricted():
		all, err := s.geo.ListStates(r.Context())
		if err != nil {
			s.logger.Error("list states failed", "error", err)
			writeInternalError(w, "failed to list states")
			return
		}
		states = all
	case stateID != "":
		state, err := s.geo.GetState(r.Context(), stateID)
		if err != nil {
			s.logger.Error("get anchored state failed", "state_id", stateID, "error", err)
			writeInternalError(w, "failed to list states")
			return
		}
		states = []geo.State{*state}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"states": states,
		"count":  len(states),
	})
}

// handleListMunicipalities returns municipalities inside the caller's scope.
//
// A municipal admin sees only their own municipality; the state_id
// parameter is ignored. A state admin's parameter is overridden by
// their anchor. Unrestricted callers must name a state.
func (s *Server) handleListMunicipalities(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	ctx := r.Context()

	if muniID, ok := scope.MunicipalityAnchor(); ok {
		muni, err := s.geo.GetMunicipality(ctx, muniID)
		if err != nil {
			s.logger.Error("get anchored municipality failed", "municipality_id", muniID, "error", err)
			writeInternalError(w, "failed to list municipalities")
			return
		}
		writeJSON(w, http.StatusOK, map[string]any{
			"municipalities": []geo.Municipality{*muni},
			"count":          1,
		})
		return
	}

	stateID := r.URL.Query().Get("state_id")
	if anchor, ok := scope.StateAnchor(); ok {
		stateID = anchor
	}
	if scope.Empty() {
		writeJSON(w, http.StatusOK, map[string]any{
			"municipalities": []geo.Municipality{},
			"count":          0,
		})
		return
	}
	if stateID == "" {
		writeBadRequest(w, "state_id is required")
		return
	}

	munis, err := s.geo.ListMunicipalitiesByState(ctx, stateID)
	if err != nil {
		s.logger.Error("list municipalities failed", "state_id", stateID, "error", err)
		writeInternalError(w, "failed to list municipalities")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"municipalities": munis,
		"count":          len(munis),
	})
}

// handleListParishes returns parishes with access point rollups for a
// municipality inside the caller's scope.
func (s *Server) handleListParishes(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	ctx := r.Context()

	if scope.Empty() {
		writeJSON(w, http.StatusOK, map[string]any{
			"parishes": []geo.ParishStats{},
			"count":    0,
		})
		return
	}

	muniID := r.URL.Query().Get("municipality_id")
	if anchor, ok := scope.MunicipalityAnchor(); ok {
		// Municipal admins always get their own municipality.
		muniID = anchor
	}
	if muniID == "" {
		writeBadRequest(w, "municipality_id is required")
		return
	}

	// State admins may only reach municipalities inside their state.
	if anchor, ok := scope.StateAnchor(); ok {
		muni, err := s.geo.GetMunicipality(ctx, muniID)
		if err != nil {
			if errors.Is(err, geo.ErrMunicipalityNotFound) {
				writeNotFound(w, "municipality not found")
				return
			}
			s.logger.Error("get municipality failed", "municipality_id", muniID, "error", err)
			writeInternalError(w, "failed to list parishes")
			return
		}
		if muni.StateID != anchor {
			s.writeScopeViolation(w, r, "municipality")
			return
		}
	}

	stats, err := s.geo.ParishStatsByMunicipality(ctx, muniID)
	if err != nil {
		s.logger.Error("parish stats failed", "municipality_id", muniID, "error", err)
		writeInternalError(w, "failed to list parishes")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"parishes": stats,
		"count":    len(stats),
	})
}

// handleGeographyStats returns per-state rollups, narrowed to the
// caller's state for anchored scopes.
func (s *Server) handleGeographyStats(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())

	stateID, ok := s.visibleStateID(r, w)
	if !ok {
		return
	}

	all, err := s.geo.StateStatsAll(r.Context())
	if err != nil {
		s.logger.Error("state stats failed", "error", err)
		writeInternalError(w, "failed to load geography stats")
		return
	}

	stats := all
	if !scope.Unrestricted() {
		stats = []geo.StateStats{}
		for _, st := range all {
			if st.StateID == stateID {
				stats = append(stats, st)
			}
		}
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"states": stats,
		"count":  len(stats),
	})
}

// visibleStateID resolves the single state an anchored scope can see.
// Returns ("", true) for unrestricted and empty scopes. On a lookup
// failure it writes the error response and returns ok=false.
func (s *Server) visibleStateID(r *http.Request, w http.ResponseWriter) (string, bool) {
	scope := scopeFromContext(r.Context())

	if stateID, ok := scope.StateAnchor(); ok {
		return stateID, true
	}
	if muniID, ok := scope.MunicipalityAnchor(); ok {
		muni, err := s.geo.GetMunicipality(r.Context(), muniID)
		if err != nil {
			s.logger.Error("resolve municipality state failed", "municipality_id", muniID, "error", err)
			writeInternalError(w, "failed to resolve scope")
			return "", false
		}
		return muni.StateID, true
	}
	return "", true
}
