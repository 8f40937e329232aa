package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/portal"
)

// createAccessPointRequest is the body for POST /access-points.
type createAccessPointRequest struct {
	Name          string   `json:"name"`
	Code          string   `json:"code"`
	ParishID      *string  `json:"parish_id,omitempty"`
	IPAddress     string   `json:"ip_address,omitempty"`
	MACAddress    string   `json:"mac_address,omitempty"`
	Status        string   `json:"status,omitempty"`
	BandwidthMbps *float64 `json:"bandwidth_mbps,omitempty"`
}

// updateAccessPointRequest is the body for PUT /access-points/{id}.
// Omitted fields keep their current value.
type updateAccessPointRequest struct {
	Name          *string  `json:"name,omitempty"`
	Code          *string  `json:"code,omitempty"`
	ParishID      *string  `json:"parish_id,omitempty"`
	IPAddress     *string  `json:"ip_address,omitempty"`
	MACAddress    *string  `json:"mac_address,omitempty"`
	Status        *string  `json:"status,omitempty"`
	BandwidthMbps *float64 `json:"bandwidth_mbps,omitempty"`
}

// handleListAccessPoints returns the scoped access point listing.
// Optional status and parish_id filters narrow the scoped set.
func (s *Server) handleListAccessPoints(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	q := r.URL.Query()

	status := portal.AccessPointStatus(q.Get("status"))
	if status != "" && !portal.IsValidStatus(status) {
		writeBadRequest(w, "invalid status filter")
		return
	}

	points, err := s.accessPoints.List(r.Context(), scope, status, q.Get("parish_id"))
	if err != nil {
		s.logger.Error("list access points failed", "error", err)
		writeInternalError(w, "failed to list access points")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"access_points": points,
		"count":         len(points),
	})
}

// handleGetAccessPoint returns one access point inside the scope.
func (s *Server) handleGetAccessPoint(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	id := chi.URLParam(r, "id")

	ap, err := s.accessPoints.Get(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, portal.ErrAccessPointNotFound) {
			writeNotFound(w, "access point not found")
			return
		}
		s.logger.Error("get access point failed", "access_point_id", id, "error", err)
		writeInternalError(w, "failed to get access point")
		return
	}

	writeJSON(w, http.StatusOK, ap)
}

// handleCreateAccessPoint registers a new access point inside the scope.
func (s *Server) handleCreateAccessPoint(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())

	var req createAccessPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Name == "" || req.Code == "" {
		writeBadRequest(w, "name and code are required")
		return
	}

	status := portal.AccessPointStatus(req.Status)
	if status != "" && !portal.IsValidStatus(status) {
		writeBadRequest(w, "invalid status: must be active, inactive, or maintenance")
		return
	}

	ap := &portal.AccessPoint{
		Name:          req.Name,
		Code:          req.Code,
		ParishID:      req.ParishID,
		IPAddress:     req.IPAddress,
		MACAddress:    req.MACAddress,
		Status:        status,
		BandwidthMbps: req.BandwidthMbps,
	}

	if err := s.accessPoints.Create(r.Context(), scope, ap); err != nil {
		switch {
		case errors.Is(err, auth.ErrScopeViolation):
			s.writeScopeViolation(w, r, "parish")
		case errors.Is(err, portal.ErrCodeExists):
			writeConflict(w, "access point code already exists")
		default:
			s.logger.Error("create access point failed", "error", err)
			writeInternalError(w, "failed to create access point")
		}
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("access point created", "access_point_id", ap.ID, "code", ap.Code, "created_by", admin.ID)

	writeJSON(w, http.StatusCreated, ap)
}

// handleUpdateAccessPoint modifies an access point. The scoped read
// hides out-of-scope rows before any patch is attempted, and the
// repository re-checks both the current and target parish.
func (s *Server) handleUpdateAccessPoint(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req updateAccessPointRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	ap, err := s.accessPoints.Get(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, portal.ErrAccessPointNotFound) {
			writeNotFound(w, "access point not found")
			return
		}
		s.logger.Error("get access point for update failed", "access_point_id", id, "error", err)
		writeInternalError(w, "failed to update access point")
		return
	}

	if req.Name != nil {
		ap.Name = *req.Name
	}
	if req.Code != nil {
		if *req.Code == "" {
			writeBadRequest(w, "code cannot be empty")
			return
		}
		ap.Code = *req.Code
	}
	if req.ParishID != nil {
		ap.ParishID = req.ParishID
	}
	if req.IPAddress != nil {
		ap.IPAddress = *req.IPAddress
	}
	if req.MACAddress != nil {
		ap.MACAddress = *req.MACAddress
	}
	if req.Status != nil {
		status := portal.AccessPointStatus(*req.Status)
		if !portal.IsValidStatus(status) {
			writeBadRequest(w, "invalid status: must be active, inactive, or maintenance")
			return
		}
		ap.Status = status
	}
	if req.BandwidthMbps != nil {
		ap.BandwidthMbps = req.BandwidthMbps
	}

	if err := s.accessPoints.Update(r.Context(), scope, ap); err != nil {
		switch {
		case errors.Is(err, auth.ErrScopeViolation):
			s.writeScopeViolation(w, r, "access point")
		case errors.Is(err, portal.ErrCodeExists):
			writeConflict(w, "access point code already exists")
		default:
			s.logger.Error("update access point failed", "access_point_id", id, "error", err)
			writeInternalError(w, "failed to update access point")
		}
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("access point updated", "access_point_id", id, "updated_by", admin.ID)

	writeJSON(w, http.StatusOK, ap)
}

// handleDeleteAccessPoint removes an access point inside the scope.
func (s *Server) handleDeleteAccessPoint(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.accessPoints.Delete(r.Context(), scope, id); err != nil {
		switch {
		case errors.Is(err, portal.ErrAccessPointNotFound):
			writeNotFound(w, "access point not found")
		case errors.Is(err, auth.ErrScopeViolation):
			s.writeScopeViolation(w, r, "access point")
		default:
			s.logger.Error("delete access point failed", "access_point_id", id, "error", err)
			writeInternalError(w, "failed to delete access point")
		}
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("access point deleted", "access_point_id", id, "deleted_by", admin.ID)

	w.WriteHeader(http.StatusNoContent)
}
