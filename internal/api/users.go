package api

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"

	"github.com/go-chi/chi/v5"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/portal"
)

// createUserRequest is the body for POST /users (administrative create,
// as opposed to open portal enrollment).
type createUserRequest struct {
	FullName           string  `json:"full_name"`
	DocumentID         string  `json:"document_id"`
	WhatsApp           string  `json:"whatsapp,omitempty"`
	BirthDate          string  `json:"birth_date,omitempty"`
	Address            string  `json:"address,omitempty"`
	ParishID           *string `json:"parish_id,omitempty"`
	AccessPointID      *string `json:"access_point_id,omitempty"`
	SecurityQuestionID *string `json:"security_question_id,omitempty"`
	SecurityAnswer     string  `json:"security_answer,omitempty"`
	IsActive           *bool   `json:"is_active,omitempty"`
}

// handleListUsers returns the scoped user listing with search and
// pagination. Query parameters can only narrow the scoped set.
func (s *Server) handleListUsers(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	q := r.URL.Query()

	opts := portal.UserListOptions{
		Search:   q.Get("search"),
		ParishID: q.Get("parish_id"),
		Limit:    intParam(q.Get("limit")),
		Offset:   intParam(q.Get("offset")),
	}

	page, err := s.users.List(r.Context(), scope, opts)
	if err != nil {
		s.logger.Error("list users failed", "error", err)
		writeInternalError(w, "failed to list users")
		return
	}

	writeJSON(w, http.StatusOK, page)
}

// handleGetUser returns a single user inside the caller's scope.
// Out-of-scope users are indistinguishable from missing ones.
func (s *Server) handleGetUser(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	id := chi.URLParam(r, "id")

	user, err := s.users.Get(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, portal.ErrUserNotFound) {
			writeNotFound(w, "user not found")
			return
		}
		s.logger.Error("get user failed", "user_id", id, "error", err)
		writeInternalError(w, "failed to get user")
		return
	}

	writeJSON(w, http.StatusOK, user)
}

// handleCreateUser inserts a user on behalf of an administrator. The
// target parish must sit inside the caller's scope.
func (s *Server) handleCreateUser(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())

	var req createUserRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.FullName == "" || req.DocumentID == "" {
		writeBadRequest(w, "full_name and document_id are required")
		return
	}

	user := &portal.PortalUser{
		FullName:           req.FullName,
		DocumentID:         req.DocumentID,
		WhatsApp:           req.WhatsApp,
		BirthDate:          req.BirthDate,
		Address:            req.Address,
		ParishID:           req.ParishID,
		AccessPointID:      req.AccessPointID,
		SecurityQuestionID: req.SecurityQuestionID,
		SecurityAnswer:     req.SecurityAnswer,
		IsActive:           true,
	}
	if req.IsActive != nil {
		user.IsActive = *req.IsActive
	}

	if err := s.users.Create(r.Context(), scope, user); err != nil {
		switch {
		case errors.Is(err, auth.ErrScopeViolation):
			s.writeScopeViolation(w, r, "parish")
		case errors.Is(err, portal.ErrDuplicateDocument):
			writeConflict(w, "document already registered")
		default:
			s.logger.Error("create user failed", "error", err)
			writeInternalError(w, "failed to create user")
		}
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("user created", "user_id", user.ID, "created_by", admin.ID)

	writeJSON(w, http.StatusCreated, user)
}

// intParam parses a positive integer query parameter, returning 0 for
// anything unparseable.
func intParam(v string) int {
	n, err := strconv.Atoi(v)
	if err != nil || n < 0 {
		return 0
	}
	return n
}
