package api

import (
	"encoding/json"
	"errors"
	"net/http"

	"github.com/go-chi/chi/v5"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/portal"
)

// questionRequest is the body for creating or replacing a question.
type questionRequest struct {
	Text          string   `json:"text"`
	Kind          string   `json:"kind"`
	Options       []string `json:"options,omitempty"`
	CorrectAnswer string   `json:"correct_answer,omitempty"`
	StateID       *string  `json:"state_id,omitempty"`
	IsActive      *bool    `json:"is_active,omitempty"`
}

// handleListQuestions returns the questions visible to the caller:
// national questions plus the caller's own state for anchored scopes.
func (s *Server) handleListQuestions(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())

	questions, err := s.questions.List(r.Context(), scope)
	if err != nil {
		s.logger.Error("list questions failed", "error", err)
		writeInternalError(w, "failed to list questions")
		return
	}

	writeJSON(w, http.StatusOK, map[string]any{
		"questions": questions,
		"count":     len(questions),
	})
}

// handleGetQuestion returns one visible question.
func (s *Server) handleGetQuestion(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	id := chi.URLParam(r, "id")

	q, err := s.questions.Get(r.Context(), scope, id)
	if err != nil {
		if errors.Is(err, portal.ErrQuestionNotFound) {
			writeNotFound(w, "question not found")
			return
		}
		s.logger.Error("get question failed", "question_id", id, "error", err)
		writeInternalError(w, "failed to get question")
		return
	}

	writeJSON(w, http.StatusOK, q)
}

// handleCreateQuestion creates a question. National questions require
// an unrestricted scope; state admins may only write into their state.
func (s *Server) handleCreateQuestion(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	q, ok := questionFromRequest(w, &req)
	if !ok {
		return
	}

	if err := s.questions.Create(r.Context(), scope, q); err != nil {
		if errors.Is(err, auth.ErrScopeViolation) {
			s.writeScopeViolation(w, r, "question")
			return
		}
		s.logger.Error("create question failed", "error", err)
		writeInternalError(w, "failed to create question")
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("question created", "question_id", q.ID, "created_by", admin.ID)

	writeJSON(w, http.StatusCreated, q)
}

// handleUpdateQuestion replaces a question's content.
func (s *Server) handleUpdateQuestion(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	id := chi.URLParam(r, "id")

	var req questionRequest
	if err := json.NewDecoder(r.Body).Decode(&req); err != nil {
		writeBadRequest(w, "invalid JSON body")
		return
	}

	q, ok := questionFromRequest(w, &req)
	if !ok {
		return
	}
	q.ID = id

	if err := s.questions.Update(r.Context(), scope, q); err != nil {
		switch {
		case errors.Is(err, portal.ErrQuestionNotFound):
			writeNotFound(w, "question not found")
		case errors.Is(err, auth.ErrScopeViolation):
			s.writeScopeViolation(w, r, "question")
		default:
			s.logger.Error("update question failed", "question_id", id, "error", err)
			writeInternalError(w, "failed to update question")
		}
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("question updated", "question_id", id, "updated_by", admin.ID)

	writeJSON(w, http.StatusOK, q)
}

// handleDeleteQuestion removes a question inside the caller's write scope.
func (s *Server) handleDeleteQuestion(w http.ResponseWriter, r *http.Request) {
	scope := scopeFromContext(r.Context())
	id := chi.URLParam(r, "id")

	if err := s.questions.Delete(r.Context(), scope, id); err != nil {
		switch {
		case errors.Is(err, portal.ErrQuestionNotFound):
			writeNotFound(w, "question not found")
		case errors.Is(err, auth.ErrScopeViolation):
			s.writeScopeViolation(w, r, "question")
		default:
			s.logger.Error("delete question failed", "question_id", id, "error", err)
			writeInternalError(w, "failed to delete question")
		}
		return
	}

	admin := adminFromContext(r.Context())
	s.logger.Info("question deleted", "question_id", id, "deleted_by", admin.ID)

	w.WriteHeader(http.StatusNoContent)
}

// questionFromRequest validates the request body and builds a question.
// Writes the 400 response itself when validation fails.
func questionFromRequest(w http.ResponseWriter, req *questionRequest) (*portal.Question, bool) {
	if req.Text == "" {
		writeBadRequest(w, "text is required")
		return nil, false
	}

	kind := portal.QuestionKind(req.Kind)
	if !portal.IsValidKind(kind) {
		writeBadRequest(w, "invalid kind: must be open, math, or multiple_choice")
		return nil, false
	}
	if kind == portal.KindMultipleChoice && len(req.Options) == 0 {
		writeBadRequest(w, "multiple_choice questions require options")
		return nil, false
	}

	q := &portal.Question{
		Text:          req.Text,
		Kind:          kind,
		Options:       req.Options,
		CorrectAnswer: req.CorrectAnswer,
		StateID:       req.StateID,
		IsActive:      true,
	}
	if req.IsActive != nil {
		q.IsActive = *req.IsActive
	}
	return q, true
}
