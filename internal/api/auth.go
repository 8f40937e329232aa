package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
)

// loginRequest is the request body for POST /auth/login.
type loginRequest struct {
	Username string `json:"username"`
	Password string `json:"password"`
}

// loginResponse is the response body for POST /auth/login.
type loginResponse struct {
	Token     string      `json:"token"`
	TokenType string      `json:"token_type"`
	ExpiresIn int         `json:"expires_in"`
	Admin     *auth.Admin `json:"admin"`
}

// handleLogin authenticates an admin and issues an opaque session token.
//
// Every failure path returns the same 401: unknown username, wrong
// password, and deactivated account are indistinguishable to the
// caller. No session row is created on failure.
func (s *Server) handleLogin(w http.ResponseWriter, r *http.Request) {
	var req loginRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	if req.Username == "" || req.Password == "" {
		writeBadRequest(w, "username and password are required")
		return
	}

	admin, err := s.admins.GetByUsername(r.Context(), req.Username)
	if err != nil {
		if errors.Is(err, auth.ErrAdminNotFound) {
			writeUnauthorized(w)
			return
		}
		s.logger.Error("login lookup failed", "error", err)
		writeInternalError(w, "login failed")
		return
	}

	if !admin.IsActive {
		writeUnauthorized(w)
		return
	}

	ok, err := auth.VerifyPassword(req.Password, admin.PasswordHash)
	if err != nil {
		s.logger.Error("password verification failed", "admin_id", admin.ID, "error", err)
		writeInternalError(w, "login failed")
		return
	}
	if !ok {
		writeUnauthorized(w)
		return
	}

	token, err := s.sessions.Issue(r.Context(), admin.ID)
	if err != nil {
		s.logger.Error("session issue failed", "admin_id", admin.ID, "error", err)
		writeInternalError(w, "login failed")
		return
	}

	sessions, err := s.sessions.CountForAdmin(r.Context(), admin.ID)
	if err != nil {
		s.logger.Warn("session count failed", "admin_id", admin.ID, "error", err)
	}
	s.logger.Info("admin logged in",
		"admin_id", admin.ID, "username", admin.Username, "role", admin.Role,
		"active_sessions", sessions)

	writeJSON(w, http.StatusOK, loginResponse{
		Token:     token,
		TokenType: "Bearer",
		ExpiresIn: int(s.sessions.TTL().Seconds()),
		Admin:     admin,
	})
}

// handleLogout revokes the presented session token. Revocation is
// idempotent and permanent; the token can never validate again.
func (s *Server) handleLogout(w http.ResponseWriter, r *http.Request) {
	token := bearerToken(r)

	if err := s.sessions.Revoke(r.Context(), token); err != nil {
		s.logger.Error("session revoke failed", "error", err)
		writeInternalError(w, "logout failed")
		return
	}

	admin := adminFromContext(r.Context())
	if admin != nil {
		s.logger.Info("admin logged out", "admin_id", admin.ID)
	}

	writeJSON(w, http.StatusOK, map[string]string{"status": "logged_out"})
}

// handleMe returns the authenticated admin's own record.
func (s *Server) handleMe(w http.ResponseWriter, r *http.Request) {
	admin := adminFromContext(r.Context())
	if admin == nil {
		writeUnauthorized(w)
		return
	}
	writeJSON(w, http.StatusOK, admin)
}
