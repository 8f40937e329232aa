package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
)

// minPasswordLength is the minimum admin password length.
const minPasswordLength = 8

// createAdminRequest is the body for POST /admins.
type createAdminRequest struct {
	Username       string    `json:"username"`
	FullName       string    `json:"full_name"`
	Email          string    `json:"email,omitempty"`
	Password       string    `json:"password"`
	Role           auth.Role `json:"role"`
	StateID        *string   `json:"state_id,omitempty"`
	MunicipalityID *string   `json:"municipality_id,omitempty"`
}

// updateAdminRequest is the body for PUT /admins/{id}. Omitted fields
// keep their current value.
type updateAdminRequest struct {
	FullName       *string    `json:"full_name,omitempty"`
	Email          *string    `json:"email,omitempty"`
	Password       *string    `json:"password,omitempty"`
	Role           *auth.Role `json:"role,omitempty"`
	StateID        *string    `json:"state_id,omitempty"`
	MunicipalityID *string    `json:"municipality_id,omitempty"`
	IsActive       *bool      `json:"is_active,omitempty"`
}

// handleListAdmins returns all administrator accounts.
func (s *Server) handleListAdmins(w http.ResponseWriter, r *http.Request) {
	admins, err := s.admins.List(r.Context())
	if err != nil {
		s.logger.Error("list admins failed", "error", err)
		writeInternalError(w, "failed to list admins")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"admins": admins,
		"count":  len(admins),
	})
}

// handleGetAdmin returns a single administrator account.
func (s *Server) handleGetAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")

	admin, err := s.admins.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrAdminNotFound) {
			writeNotFound(w, "admin not found")
			return
		}
		s.logger.Error("get admin failed", "admin_id", id, "error", err)
		writeInternalError(w, "failed to get admin")
		return
	}

	writeJSON(w, http.StatusOK, admin)
}

// handleCreateAdmin creates an administrator account. The role decides
// the required anchor: state admins need a state, municipal admins a
// municipality, the unrestricted tiers take neither.
func (s *Server) handleCreateAdmin(w http.ResponseWriter, r *http.Request) {
	var req createAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Username == "" || req.Password == "" || req.FullName == "" {
		writeBadRequest(w, "username, password, and full_name are required")
		return
	}
	if !auth.IsValidUsername(req.Username) {
		writeBadRequest(w, "invalid username format")
		return
	}
	if len(req.Password) < minPasswordLength {
		writeBadRequest(w, "password must be at least 8 characters")
		return
	}
	if !auth.IsValidRole(req.Role) {
		writeBadRequest(w, "invalid role: must be superadmin, national, state, or municipal")
		return
	}
	if !validAnchors(req.Role, req.StateID, req.MunicipalityID, w) {
		return
	}

	hash, err := auth.HashPassword(req.Password)
	if err != nil {
		s.logger.Error("hash password failed", "error", err)
		writeInternalError(w, "failed to create admin")
		return
	}

	admin := &auth.Admin{
		Username:       req.Username,
		FullName:       req.FullName,
		Email:          req.Email,
		PasswordHash:   hash,
		Role:           req.Role,
		StateID:        req.StateID,
		MunicipalityID: req.MunicipalityID,
		IsActive:       true,
	}

	if err := s.admins.Create(r.Context(), admin); err != nil {
		if errors.Is(err, auth.ErrUsernameExists) {
			writeConflict(w, "username already exists")
			return
		}
		s.logger.Error("create admin failed", "error", err)
		writeInternalError(w, "failed to create admin")
		return
	}

	caller := adminFromContext(r.Context())
	s.logger.Info("admin created",
		"admin_id", admin.ID, "username", admin.Username, "role", admin.Role, "created_by", caller.ID)

	writeJSON(w, http.StatusCreated, admin)
}

// handleUpdateAdmin modifies an administrator account. Deactivation is
// soft; a superadmin cannot deactivate their own account.
func (s *Server) handleUpdateAdmin(w http.ResponseWriter, r *http.Request) { //nolint:gocognit // field patching plus self-protection guards
	id := chi.URLParam(r, "id")
	caller := adminFromContext(r.Context())

	var req updateAdminRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	admin, err := s.admins.GetByID(r.Context(), id)
	if err != nil {
		if errors.Is(err, auth.ErrAdminNotFound) {
			writeNotFound(w, "admin not found")
			return
		}
		s.logger.Error("get admin for update failed", "admin_id", id, "error", err)
		writeInternalError(w, "failed to update admin")
		return
	}

	if req.IsActive != nil && !*req.IsActive && id == caller.ID {
		writeForbidden(w, "cannot deactivate your own account")
		return
	}
	if req.Role != nil && id == caller.ID && *req.Role != caller.Role {
		writeForbidden(w, "cannot change your own role")
		return
	}
	if req.Role != nil && !auth.IsValidRole(*req.Role) {
		writeBadRequest(w, "invalid role: must be superadmin, national, state, or municipal")
		return
	}

	// Validate and hash the password before any write so a rejected
	// password cannot leave the profile changes half-applied.
	var passwordHash string
	if req.Password != nil {
		if len(*req.Password) < minPasswordLength {
			writeBadRequest(w, "password must be at least 8 characters")
			return
		}
		hash, hashErr := auth.HashPassword(*req.Password)
		if hashErr != nil {
			s.logger.Error("hash password failed", "admin_id", id, "error", hashErr)
			writeInternalError(w, "failed to update admin")
			return
		}
		passwordHash = hash
	}

	if req.FullName != nil {
		admin.FullName = *req.FullName
	}
	if req.Email != nil {
		admin.Email = *req.Email
	}
	if req.Role != nil {
		admin.Role = *req.Role
	}
	if req.StateID != nil {
		admin.StateID = req.StateID
	}
	if req.MunicipalityID != nil {
		admin.MunicipalityID = req.MunicipalityID
	}
	if req.IsActive != nil {
		admin.IsActive = *req.IsActive
	}
	if !validAnchors(admin.Role, admin.StateID, admin.MunicipalityID, w) {
		return
	}

	if err := s.admins.Update(r.Context(), admin); err != nil {
		s.logger.Error("update admin failed", "admin_id", id, "error", err)
		writeInternalError(w, "failed to update admin")
		return
	}

	if passwordHash != "" {
		if err := s.admins.UpdatePassword(r.Context(), id, passwordHash); err != nil {
			s.logger.Error("update password failed", "admin_id", id, "error", err)
			writeInternalError(w, "failed to update password")
			return
		}
	}

	s.logger.Info("admin updated", "admin_id", id, "updated_by", caller.ID)

	writeJSON(w, http.StatusOK, admin)
}

// handleDeleteAdmin removes an administrator account. Superadmin
// accounts are undeletable; deactivate them instead.
func (s *Server) handleDeleteAdmin(w http.ResponseWriter, r *http.Request) {
	id := chi.URLParam(r, "id")
	caller := adminFromContext(r.Context())

	if id == caller.ID {
		writeForbidden(w, "cannot delete your own account")
		return
	}

	if err := s.admins.Delete(r.Context(), id); err != nil {
		switch {
		case errors.Is(err, auth.ErrAdminNotFound):
			writeNotFound(w, "admin not found")
		case errors.Is(err, auth.ErrSuperadminImmutable):
			writeForbidden(w, "superadmin accounts cannot be deleted")
		default:
			s.logger.Error("delete admin failed", "admin_id", id, "error", err)
			writeInternalError(w, "failed to delete admin")
		}
		return
	}

	s.logger.Info("admin deleted", "admin_id", id, "deleted_by", caller.ID)

	w.WriteHeader(http.StatusNoContent)
}

// validAnchors checks that the role carries exactly the anchor it
// requires. Writes the 400 response itself when it does not.
func validAnchors(role auth.Role, stateID, municipalityID *string, w http.ResponseWriter) bool {
	switch role {
	case auth.RoleState:
		if stateID == nil || *stateID == "" {
			writeBadRequest(w, "state admins require a state_id")
			return false
		}
		if municipalityID != nil && *municipalityID != "" {
			writeBadRequest(w, "state admins cannot carry a municipality_id")
			return false
		}
	case auth.RoleMunicipal:
		if municipalityID == nil || *municipalityID == "" {
			writeBadRequest(w, "municipal admins require a municipality_id")
			return false
		}
		if stateID != nil && *stateID != "" {
			writeBadRequest(w, "municipal admins cannot carry a state_id")
			return false
		}
	case auth.RoleSuperadmin, auth.RoleNational:
		if (stateID != nil && *stateID != "") || (municipalityID != nil && *municipalityID != "") {
			writeBadRequest(w, "unrestricted roles cannot carry geographic anchors")
			return false
		}
	}
	return true
}
