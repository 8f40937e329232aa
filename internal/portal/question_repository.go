package portal

import (
	"context"
	"database/sql"
	"encoding/json"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
)

// QuestionRepository persists survey questions. Questions are
// state-scoped content: a NULL state_id marks a national question
// visible to everyone; state questions are visible when the caller's
// scope covers that state.
type QuestionRepository struct {
	db *sql.DB
}

// NewQuestionRepository creates a question repository.
func NewQuestionRepository(db *sql.DB) *QuestionRepository {
	return &QuestionRepository{db: db}
}

const questionColumns = `id, text, kind, options, correct_answer, state_id,
	is_active, created_at`

// stateClause renders the scope as a question visibility predicate.
// Questions anchor to states directly, not to parishes, so the parish
// predicate does not apply here.
func stateClause(scope auth.ScopeFilter) (string, []any) {
	if scope.Unrestricted() {
		return "1=1", nil
	}
	if anchor, ok := scope.StateAnchor(); ok {
		return "(state_id IS NULL OR state_id = ?)", []any{anchor}
	}
	if anchor, ok := scope.MunicipalityAnchor(); ok {
		return "(state_id IS NULL OR state_id IN (SELECT state_id FROM municipalities WHERE id = ?))", []any{anchor}
	}
	// Empty scope still sees national questions; they are public on
	// the portal anyway.
	return "state_id IS NULL", nil
}

// List returns the questions visible to the scope.
func (r *QuestionRepository) List(ctx context.Context, scope auth.ScopeFilter) ([]Question, error) {
	clause, args := stateClause(scope)
	query := "SELECT " + questionColumns + " FROM questions WHERE " + clause +
		" ORDER BY created_at ASC"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing questions: %w", err)
	}
	defer rows.Close()

	questions := []Question{}
	for rows.Next() {
		q, err := scanQuestion(rows)
		if err != nil {
			return nil, err
		}
		questions = append(questions, *q)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating questions: %w", err)
	}
	return questions, nil
}

// Get returns one question if it is visible to the scope.
func (r *QuestionRepository) Get(ctx context.Context, scope auth.ScopeFilter, id string) (*Question, error) {
	clause, args := stateClause(scope)
	query := "SELECT " + questionColumns + " FROM questions WHERE id = ? AND " + clause
	return scanQuestion(r.db.QueryRowContext(ctx, query, append([]any{id}, args...)...))
}

// Random returns one active question, used during portal enrollment.
func (r *QuestionRepository) Random(ctx context.Context) (*Question, error) {
	query := "SELECT " + questionColumns + ` FROM questions
		WHERE is_active = 1 ORDER BY RANDOM() LIMIT 1`

	q, err := scanQuestion(r.db.QueryRowContext(ctx, query))
	if err != nil {
		if errors.Is(err, ErrQuestionNotFound) {
			return nil, ErrNoQuestions
		}
		return nil, err
	}
	return q, nil
}

// Create inserts a question. A state question requires the scope to
// cover that state; a national question requires an unrestricted scope.
func (r *QuestionRepository) Create(ctx context.Context, scope auth.ScopeFilter, q *Question) error {
	if err := checkQuestionStateInScope(scope, q.StateID); err != nil {
		return err
	}
	if !IsValidKind(q.Kind) {
		return fmt.Errorf("invalid question kind %q", q.Kind)
	}

	if q.ID == "" {
		q.ID = "qu-" + uuid.NewString()[:8]
	}
	q.CreatedAt = time.Now().UTC()

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO questions (id, text, kind, options, correct_answer, state_id,
			is_active, created_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?)`,
		q.ID, q.Text, string(q.Kind), marshalOptions(q.Options),
		nullString(q.CorrectAnswer), nullStringPtr(q.StateID),
		boolToInt(q.IsActive), q.CreatedAt.Format(time.RFC3339),
	)
	if err != nil {
		return fmt.Errorf("creating question: %w", err)
	}
	return nil
}

// Update modifies a question. Both the stored state anchor and the new
// one must be inside the scope.
func (r *QuestionRepository) Update(ctx context.Context, scope auth.ScopeFilter, q *Question) error {
	existing, err := r.getUnscoped(ctx, q.ID)
	if err != nil {
		return err
	}
	if err := checkQuestionStateInScope(scope, existing.StateID); err != nil {
		return err
	}
	if err := checkQuestionStateInScope(scope, q.StateID); err != nil {
		return err
	}
	if !IsValidKind(q.Kind) {
		return fmt.Errorf("invalid question kind %q", q.Kind)
	}

	_, err = r.db.ExecContext(ctx,
		`UPDATE questions SET text = ?, kind = ?, options = ?, correct_answer = ?,
			state_id = ?, is_active = ?
		 WHERE id = ?`,
		q.Text, string(q.Kind), marshalOptions(q.Options),
		nullString(q.CorrectAnswer), nullStringPtr(q.StateID),
		boolToInt(q.IsActive), q.ID,
	)
	if err != nil {
		return fmt.Errorf("updating question: %w", err)
	}
	return nil
}

// Delete removes a question inside the scope.
func (r *QuestionRepository) Delete(ctx context.Context, scope auth.ScopeFilter, id string) error {
	existing, err := r.getUnscoped(ctx, id)
	if err != nil {
		return err
	}
	if err := checkQuestionStateInScope(scope, existing.StateID); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM questions WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting question: %w", err)
	}
	return nil
}

// checkQuestionStateInScope applies the write-side re-check for
// state-anchored content.
func checkQuestionStateInScope(scope auth.ScopeFilter, stateID *string) error {
	if scope.Unrestricted() {
		return nil
	}
	if stateID == nil || *stateID == "" {
		// National content is writable only by unrestricted roles.
		return auth.ErrScopeViolation
	}
	if anchor, ok := scope.StateAnchor(); ok && anchor == *stateID {
		return nil
	}
	// Municipal and empty scopes manage no question content.
	return auth.ErrScopeViolation
}

func (r *QuestionRepository) getUnscoped(ctx context.Context, id string) (*Question, error) {
	query := "SELECT " + questionColumns + " FROM questions WHERE id = ?"
	return scanQuestion(r.db.QueryRowContext(ctx, query, id))
}

// scanQuestion scans a question from a Row or Rows.
func scanQuestion(s scanner) (*Question, error) {
	var q Question
	var kind string
	var options, correctAnswer, stateID sql.NullString
	var isActive int
	var createdAt string

	err := s.Scan(&q.ID, &q.Text, &kind, &options, &correctAnswer, &stateID,
		&isActive, &createdAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrQuestionNotFound
		}
		return nil, fmt.Errorf("scanning question: %w", err)
	}

	q.Kind = QuestionKind(kind)
	if options.Valid && options.String != "" {
		if err := json.Unmarshal([]byte(options.String), &q.Options); err != nil {
			q.Options = nil
		}
	}
	if correctAnswer.Valid {
		q.CorrectAnswer = correctAnswer.String
	}
	if stateID.Valid {
		q.StateID = &stateID.String
	}
	q.IsActive = isActive != 0
	q.CreatedAt = parseTime(createdAt)
	return &q, nil
}

// marshalOptions serialises the options list, NULL when empty.
func marshalOptions(options []string) sql.NullString {
	if len(options) == 0 {
		return sql.NullString{}
	}
	b, err := json.Marshal(options)
	if err != nil {
		return sql.NullString{}
	}
	return sql.NullString{String: string(b), Valid: true}
}
