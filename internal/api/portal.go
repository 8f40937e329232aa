package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JeanClaudeMorales/amarillo/internal/portal"
)

// registerRequest is the open enrollment body for POST /portal/register.
// The captive portal identifies the access point by its code, taken
// from the redirect URL the hardware appends.
type registerRequest struct {
	FullName           string `json:"full_name"`
	DocumentID         string `json:"document_id"`
	WhatsApp           string `json:"whatsapp,omitempty"`
	BirthDate          string `json:"birth_date,omitempty"`
	Address            string `json:"address,omitempty"`
	AccessPointCode    string `json:"access_point_code,omitempty"`
	SecurityQuestionID string `json:"security_question_id,omitempty"`
	SecurityAnswer     string `json:"security_answer,omitempty"`
}

// handleRegister enrolls a visitor through the captive portal. Open
// endpoint: visitors are anonymous, no scope applies.
func (s *Server) handleRegister(w http.ResponseWriter, r *http.Request) {
	var req registerRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.FullName == "" || req.DocumentID == "" {
		writeBadRequest(w, "full_name and document_id are required")
		return
	}

	user := &portal.PortalUser{
		FullName:       req.FullName,
		DocumentID:     req.DocumentID,
		WhatsApp:       req.WhatsApp,
		BirthDate:      req.BirthDate,
		Address:        req.Address,
		SecurityAnswer: req.SecurityAnswer,
	}
	if req.SecurityQuestionID != "" {
		user.SecurityQuestionID = &req.SecurityQuestionID
	}

	if req.AccessPointCode != "" {
		ap, err := s.accessPoints.GetByCode(r.Context(), req.AccessPointCode)
		if err != nil {
			if errors.Is(err, portal.ErrAccessPointNotFound) {
				writeBadRequest(w, "unknown access point code")
				return
			}
			s.logger.Error("resolve access point code failed", "code", req.AccessPointCode, "error", err)
			writeInternalError(w, "registration failed")
			return
		}
		user.AccessPointID = &ap.ID
	}

	if err := s.users.Register(r.Context(), user); err != nil {
		switch {
		case errors.Is(err, portal.ErrDuplicateDocument):
			// A returning visitor, not an error worth more than a touch.
			if err := s.users.TouchLastSeen(r.Context(), req.DocumentID); err != nil {
				s.logger.Warn("touch last seen failed", "error", err)
			}
			writeConflict(w, "document already registered")
		case errors.Is(err, portal.ErrAccessPointNotFound):
			writeBadRequest(w, "unknown access point")
		default:
			s.logger.Error("portal registration failed", "error", err)
			writeInternalError(w, "registration failed")
		}
		return
	}

	s.logger.Info("portal user registered", "user_id", user.ID, "access_point", req.AccessPointCode)

	writeJSON(w, http.StatusCreated, user)
}

// handleGetPortalConfig returns the portal configuration. Open: the
// captive portal page reads it before any login exists.
func (s *Server) handleGetPortalConfig(w http.ResponseWriter, r *http.Request) {
	entries, err := s.portalConfig.GetAll(r.Context())
	if err != nil {
		s.logger.Error("get portal config failed", "error", err)
		writeInternalError(w, "failed to load portal config")
		return
	}

	values := make(map[string]string, len(entries))
	for _, e := range entries {
		values[e.Key] = e.Value
	}

	writeJSON(w, http.StatusOK, map[string]any{"config": values})
}

// handleSetPortalConfig replaces the given portal configuration keys.
func (s *Server) handleSetPortalConfig(w http.ResponseWriter, r *http.Request) {
	var req map[string]string
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}
	if len(req) == 0 {
		writeBadRequest(w, "no config values provided")
		return
	}

	if err := s.portalConfig.SetAll(r.Context(), req); err != nil {
		s.logger.Error("set portal config failed", "error", err)
		writeInternalError(w, "failed to update portal config")
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("portal config updated", "keys", len(req), "admin_id", admin.ID)

	s.handleGetPortalConfig(w, r)
}

// handleRandomQuestion returns one random active question for the
// portal enrollment form. Open endpoint.
func (s *Server) handleRandomQuestion(w http.ResponseWriter, r *http.Request) {
	q, err := s.questions.Random(r.Context())
	if err != nil {
		if errors.Is(err, portal.ErrNoQuestions) {
			writeNotFound(w, "no questions available")
			return
		}
		s.logger.Error("random question failed", "error", err)
		writeInternalError(w, "failed to load question")
		return
	}

	writeJSON(w, http.StatusOK, q)
}
