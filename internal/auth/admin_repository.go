package auth

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"
)

// AdminRepository defines the interface for administrator persistence.
type AdminRepository interface {
	Create(ctx context.Context, admin *Admin) error
	GetByID(ctx context.Context, id string) (*Admin, error)
	GetByUsername(ctx context.Context, username string) (*Admin, error)
	List(ctx context.Context) ([]Admin, error)
	Update(ctx context.Context, admin *Admin) error
	UpdatePassword(ctx context.Context, id, passwordHash string) error
	Delete(ctx context.Context, id string) error
	Count(ctx context.Context) (int, error)
}

// SQLiteAdminRepository implements AdminRepository using SQLite.
type SQLiteAdminRepository struct {
	db *sql.DB
}

// NewAdminRepository creates a new SQLite-backed admin repository.
func NewAdminRepository(db *sql.DB) *SQLiteAdminRepository {
	return &SQLiteAdminRepository{db: db}
}

const adminColumns = `id, username, password_hash, full_name, email, role,
	state_id, municipality_id, is_active, created_at, updated_at`

// Create inserts a new admin account. The ID is generated if empty.
func (r *SQLiteAdminRepository) Create(ctx context.Context, admin *Admin) error {
	if admin.ID == "" {
		admin.ID = "adm-" + uuid.NewString()[:8]
	}

	now := time.Now().UTC().Format(time.RFC3339)
	admin.CreatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled
	admin.UpdatedAt = admin.CreatedAt

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO admins (id, username, password_hash, full_name, email, role,
			state_id, municipality_id, is_active, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		admin.ID, admin.Username, admin.PasswordHash, admin.FullName,
		nullString(admin.Email), string(admin.Role),
		nullStringPtr(admin.StateID), nullStringPtr(admin.MunicipalityID),
		boolToInt(admin.IsActive), now, now,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrUsernameExists
		}
		return fmt.Errorf("creating admin: %w", err)
	}

	return nil
}

// GetByID retrieves an admin by their unique ID.
func (r *SQLiteAdminRepository) GetByID(ctx context.Context, id string) (*Admin, error) {
	return r.getAdmin(ctx, "SELECT "+adminColumns+" FROM admins WHERE id = ?", id)
}

// GetByUsername retrieves an admin by their username.
func (r *SQLiteAdminRepository) GetByUsername(ctx context.Context, username string) (*Admin, error) {
	return r.getAdmin(ctx, "SELECT "+adminColumns+" FROM admins WHERE username = ?", username)
}

// List returns all admins ordered by creation date.
func (r *SQLiteAdminRepository) List(ctx context.Context) ([]Admin, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT "+adminColumns+" FROM admins ORDER BY created_at ASC")
	if err != nil {
		return nil, fmt.Errorf("listing admins: %w", err)
	}
	defer rows.Close()

	var admins []Admin
	for rows.Next() {
		a, err := scanAdmin(rows)
		if err != nil {
			return nil, err
		}
		admins = append(admins, *a)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating admins: %w", err)
	}

	if admins == nil {
		admins = []Admin{}
	}
	return admins, nil
}

// Update modifies an admin's mutable fields (full_name, email, role,
// anchors, is_active). Username and password are changed separately.
func (r *SQLiteAdminRepository) Update(ctx context.Context, admin *Admin) error {
	now := time.Now().UTC().Format(time.RFC3339)
	admin.UpdatedAt, _ = time.Parse(time.RFC3339, now) //nolint:errcheck // format is controlled

	result, err := r.db.ExecContext(ctx,
		`UPDATE admins SET full_name = ?, email = ?, role = ?,
			state_id = ?, municipality_id = ?, is_active = ?, updated_at = ?
		 WHERE id = ?`,
		admin.FullName, nullString(admin.Email), string(admin.Role),
		nullStringPtr(admin.StateID), nullStringPtr(admin.MunicipalityID),
		boolToInt(admin.IsActive), now, admin.ID,
	)
	if err != nil {
		return fmt.Errorf("updating admin: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// UpdatePassword changes an admin's password hash.
func (r *SQLiteAdminRepository) UpdatePassword(ctx context.Context, id, passwordHash string) error {
	now := time.Now().UTC().Format(time.RFC3339)

	result, err := r.db.ExecContext(ctx,
		`UPDATE admins SET password_hash = ?, updated_at = ? WHERE id = ?`,
		passwordHash, now, id,
	)
	if err != nil {
		return fmt.Errorf("updating password: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		return ErrAdminNotFound
	}
	return nil
}

// Delete removes an admin account by ID. Superadmin accounts are
// excluded at the SQL level and report ErrSuperadminImmutable.
func (r *SQLiteAdminRepository) Delete(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		"DELETE FROM admins WHERE id = ? AND role != ?", id, string(RoleSuperadmin))
	if err != nil {
		return fmt.Errorf("deleting admin: %w", err)
	}

	rows, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if rows == 0 {
		if _, err := r.GetByID(ctx, id); err == nil {
			return ErrSuperadminImmutable
		}
		return ErrAdminNotFound
	}
	return nil
}

// Count returns the total number of admin accounts.
func (r *SQLiteAdminRepository) Count(ctx context.Context) (int, error) {
	var count int
	if err := r.db.QueryRowContext(ctx, "SELECT COUNT(*) FROM admins").Scan(&count); err != nil {
		return 0, fmt.Errorf("counting admins: %w", err)
	}
	return count, nil
}

// getAdmin executes a query and scans a single admin result.
func (r *SQLiteAdminRepository) getAdmin(ctx context.Context, query string, args ...any) (*Admin, error) {
	row := r.db.QueryRowContext(ctx, query, args...)
	return scanAdmin(row)
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// scanAdmin scans an admin from any scanner (Row or Rows).
func scanAdmin(s scanner) (*Admin, error) {
	var a Admin
	var email, stateID, municipalityID sql.NullString
	var role string
	var isActive int
	var createdAt, updatedAt string

	err := s.Scan(&a.ID, &a.Username, &a.PasswordHash, &a.FullName, &email,
		&role, &stateID, &municipalityID, &isActive, &createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAdminNotFound
		}
		return nil, fmt.Errorf("scanning admin: %w", err)
	}

	a.Role = Role(role)
	a.IsActive = isActive != 0
	if email.Valid {
		a.Email = email.String
	}
	if stateID.Valid {
		a.StateID = &stateID.String
	}
	if municipalityID.Valid {
		a.MunicipalityID = &municipalityID.String
	}

	a.CreatedAt, _ = time.Parse(time.RFC3339, createdAt) //nolint:errcheck // format is controlled
	a.UpdatedAt, _ = time.Parse(time.RFC3339, updatedAt) //nolint:errcheck // format is controlled

	return &a, nil
}

// Helper functions.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func boolToInt(b bool) int {
	if b {
		return 1
	}
	return 0
}

// isUniqueViolation checks if a SQLite error is a UNIQUE constraint violation.
func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}
