package portal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/geo"
)

// Pagination limits for user listings.
const (
	defaultPageSize = 50
	maxPageSize     = 200
)

// PortalUserRepository persists portal registrations under scope control.
type PortalUserRepository struct {
	db  *sql.DB
	geo geo.Repository
}

// NewPortalUserRepository creates a scoped portal user repository.
func NewPortalUserRepository(db *sql.DB, geoRepo geo.Repository) *PortalUserRepository {
	return &PortalUserRepository{db: db, geo: geoRepo}
}

const portalUserColumns = `id, full_name, document_id, whatsapp, birth_date,
	address, parish_id, access_point_id, security_question_id, security_answer,
	connected_at, last_seen, is_active`

// List returns one page of users inside the scope. Search and parish
// filters AND with the scope predicate; a parish filter outside the
// scope simply matches nothing.
func (r *PortalUserRepository) List(ctx context.Context, scope auth.ScopeFilter, opts UserListOptions) (*UserPage, error) {
	clause, scopeArgs := scope.Predicate("parish_id")

	where := " WHERE " + clause
	args := scopeArgs
	if opts.Search != "" {
		where += " AND (full_name LIKE ? OR document_id LIKE ?)"
		pattern := "%" + opts.Search + "%"
		args = append(args, pattern, pattern)
	}
	if opts.ParishID != "" {
		where += " AND parish_id = ?"
		args = append(args, opts.ParishID)
	}

	var total int
	if err := r.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM portal_users"+where, args...,
	).Scan(&total); err != nil {
		return nil, fmt.Errorf("counting portal users: %w", err)
	}

	limit := opts.Limit
	if limit <= 0 {
		limit = defaultPageSize
	}
	if limit > maxPageSize {
		limit = maxPageSize
	}
	offset := opts.Offset
	if offset < 0 {
		offset = 0
	}

	query := "SELECT " + portalUserColumns + " FROM portal_users" + where +
		" ORDER BY connected_at DESC LIMIT ? OFFSET ?"
	rows, err := r.db.QueryContext(ctx, query, append(args, limit, offset)...)
	if err != nil {
		return nil, fmt.Errorf("listing portal users: %w", err)
	}
	defer rows.Close()

	users := []PortalUser{}
	for rows.Next() {
		u, err := scanPortalUser(rows)
		if err != nil {
			return nil, err
		}
		users = append(users, *u)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating portal users: %w", err)
	}

	return &UserPage{Users: users, Total: total, Limit: limit, Offset: offset}, nil
}

// Get returns one user if they are inside the scope.
func (r *PortalUserRepository) Get(ctx context.Context, scope auth.ScopeFilter, id string) (*PortalUser, error) {
	clause, args := scope.Predicate("parish_id")
	query := "SELECT " + portalUserColumns + " FROM portal_users WHERE id = ? AND " + clause
	return scanPortalUser(r.db.QueryRowContext(ctx, query, append([]any{id}, args...)...))
}

// Register handles open enrollment from the captive portal. No scope
// applies: the visitor is not authenticated. When the registration
// carries an access point, the user inherits that point's parish and
// the point's connected counter is bumped, atomically with the insert.
func (r *PortalUserRepository) Register(ctx context.Context, user *PortalUser) error {
	if user.ID == "" {
		user.ID = "pu-" + uuid.NewString()[:8]
	}
	now := time.Now().UTC()
	user.ConnectedAt = now
	user.IsActive = true

	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting enrollment transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	if user.AccessPointID != nil && *user.AccessPointID != "" {
		var parishID sql.NullString
		err := tx.QueryRowContext(ctx,
			"SELECT parish_id FROM access_points WHERE id = ?", *user.AccessPointID,
		).Scan(&parishID)
		if err != nil {
			if errors.Is(err, sql.ErrNoRows) {
				return ErrAccessPointNotFound
			}
			return fmt.Errorf("resolving access point: %w", err)
		}
		if user.ParishID == nil && parishID.Valid {
			user.ParishID = &parishID.String
		}
	}

	_, err = tx.ExecContext(ctx,
		`INSERT INTO portal_users (id, full_name, document_id, whatsapp, birth_date,
			address, parish_id, access_point_id, security_question_id,
			security_answer, connected_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, 1)`,
		user.ID, user.FullName, user.DocumentID, nullString(user.WhatsApp),
		nullString(user.BirthDate), nullString(user.Address),
		nullStringPtr(user.ParishID), nullStringPtr(user.AccessPointID),
		nullStringPtr(user.SecurityQuestionID), nullString(user.SecurityAnswer),
		now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDocument
		}
		return fmt.Errorf("inserting portal user: %w", err)
	}

	if user.AccessPointID != nil && *user.AccessPointID != "" {
		if _, err := tx.ExecContext(ctx,
			`UPDATE access_points SET connected_users = connected_users + 1,
				updated_at = ? WHERE id = ?`,
			now.Format(time.RFC3339), *user.AccessPointID,
		); err != nil {
			return fmt.Errorf("incrementing access point counter: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing enrollment: %w", err)
	}
	return nil
}

// Create inserts a user on behalf of an administrator. The target
// parish must be inside the caller's scope.
func (r *PortalUserRepository) Create(ctx context.Context, scope auth.ScopeFilter, user *PortalUser) error {
	if err := r.checkParishInScope(ctx, scope, user.ParishID); err != nil {
		return err
	}

	if user.ID == "" {
		user.ID = "pu-" + uuid.NewString()[:8]
	}
	now := time.Now().UTC()
	user.ConnectedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO portal_users (id, full_name, document_id, whatsapp, birth_date,
			address, parish_id, access_point_id, security_question_id,
			security_answer, connected_at, is_active)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		user.ID, user.FullName, user.DocumentID, nullString(user.WhatsApp),
		nullString(user.BirthDate), nullString(user.Address),
		nullStringPtr(user.ParishID), nullStringPtr(user.AccessPointID),
		nullStringPtr(user.SecurityQuestionID), nullString(user.SecurityAnswer),
		now.Format(time.RFC3339), boolToInt(user.IsActive),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrDuplicateDocument
		}
		return fmt.Errorf("creating portal user: %w", err)
	}
	return nil
}

// TouchLastSeen stamps the last_seen of the user holding a document id.
// Called by the portal itself when a registered visitor reconnects, so
// it is keyed by the document rather than the row id and is unscoped.
func (r *PortalUserRepository) TouchLastSeen(ctx context.Context, documentID string) error {
	result, err := r.db.ExecContext(ctx,
		"UPDATE portal_users SET last_seen = ? WHERE document_id = ?",
		time.Now().UTC().Format(time.RFC3339), documentID,
	)
	if err != nil {
		return fmt.Errorf("updating last seen: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrUserNotFound
	}
	return nil
}

// checkParishInScope mirrors the access point write-side re-check.
func (r *PortalUserRepository) checkParishInScope(ctx context.Context, scope auth.ScopeFilter, parishID *string) error {
	var ancestry *geo.Ancestry
	if parishID != nil && *parishID != "" {
		a, err := r.geo.ParishAncestry(ctx, *parishID)
		if err != nil {
			if errors.Is(err, geo.ErrParishNotFound) {
				return fmt.Errorf("parish %s: %w", *parishID, err)
			}
			return err
		}
		ancestry = a
	}
	if !scope.AllowsParish(ancestry) {
		return auth.ErrScopeViolation
	}
	return nil
}

// scanPortalUser scans a portal user from a Row or Rows.
func scanPortalUser(s scanner) (*PortalUser, error) {
	var u PortalUser
	var whatsapp, birthDate, address sql.NullString
	var parishID, accessPointID, questionID, answer sql.NullString
	var lastSeen sql.NullString
	var connectedAt string
	var isActive int

	err := s.Scan(&u.ID, &u.FullName, &u.DocumentID, &whatsapp, &birthDate,
		&address, &parishID, &accessPointID, &questionID, &answer,
		&connectedAt, &lastSeen, &isActive)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrUserNotFound
		}
		return nil, fmt.Errorf("scanning portal user: %w", err)
	}

	if whatsapp.Valid {
		u.WhatsApp = whatsapp.String
	}
	if birthDate.Valid {
		u.BirthDate = birthDate.String
	}
	if address.Valid {
		u.Address = address.String
	}
	if parishID.Valid {
		u.ParishID = &parishID.String
	}
	if accessPointID.Valid {
		u.AccessPointID = &accessPointID.String
	}
	if questionID.Valid {
		u.SecurityQuestionID = &questionID.String
	}
	if answer.Valid {
		u.SecurityAnswer = answer.String
	}
	if lastSeen.Valid {
		t := parseTime(lastSeen.String)
		u.LastSeen = &t
	}
	u.ConnectedAt = parseTime(connectedAt)
	u.IsActive = isActive != 0
	return &u, nil
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}
