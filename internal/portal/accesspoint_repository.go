package portal

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"

	"github.com/google/uuid"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
	"github.com/JeanClaudeMorales/amarillo/internal/geo"
)

// AccessPointRepository persists access points under scope control.
type AccessPointRepository struct {
	db  *sql.DB
	geo geo.Repository
}

// NewAccessPointRepository creates a scoped access point repository.
func NewAccessPointRepository(db *sql.DB, geoRepo geo.Repository) *AccessPointRepository {
	return &AccessPointRepository{db: db, geo: geoRepo}
}

const accessPointColumns = `id, name, code, parish_id, ip_address, mac_address,
	status, signal_dbm, connected_users, bandwidth_mbps, last_seen_at,
	created_at, updated_at`

// List returns the access points inside the scope, optionally filtered
// by status and parish. Caller filters AND with the scope predicate.
func (r *AccessPointRepository) List(ctx context.Context, scope auth.ScopeFilter, status AccessPointStatus, parishID string) ([]AccessPoint, error) {
	clause, args := scope.Predicate("parish_id")
	query := "SELECT " + accessPointColumns + " FROM access_points WHERE " + clause

	if status != "" {
		query += " AND status = ?"
		args = append(args, string(status))
	}
	if parishID != "" {
		query += " AND parish_id = ?"
		args = append(args, parishID)
	}
	query += " ORDER BY name"

	rows, err := r.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("listing access points: %w", err)
	}
	defer rows.Close()

	aps := []AccessPoint{}
	for rows.Next() {
		ap, err := scanAccessPoint(rows)
		if err != nil {
			return nil, err
		}
		aps = append(aps, *ap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating access points: %w", err)
	}
	return aps, nil
}

// Get returns one access point if it is inside the scope. Out-of-scope
// rows are indistinguishable from missing ones.
func (r *AccessPointRepository) Get(ctx context.Context, scope auth.ScopeFilter, id string) (*AccessPoint, error) {
	clause, args := scope.Predicate("parish_id")
	query := "SELECT " + accessPointColumns + " FROM access_points WHERE id = ? AND " + clause

	row := r.db.QueryRowContext(ctx, query, append([]any{id}, args...)...)
	ap, err := scanAccessPoint(row)
	if err != nil {
		return nil, err
	}
	return ap, nil
}

// GetByCode returns one access point by its hardware code, without
// scope filtering. Used by open enrollment and the telemetry ingestor.
func (r *AccessPointRepository) GetByCode(ctx context.Context, code string) (*AccessPoint, error) {
	query := "SELECT " + accessPointColumns + " FROM access_points WHERE code = ?"
	return scanAccessPoint(r.db.QueryRowContext(ctx, query, code))
}

// Create inserts a new access point. The target parish must be inside
// the caller's scope; a nil parish requires an unrestricted scope.
func (r *AccessPointRepository) Create(ctx context.Context, scope auth.ScopeFilter, ap *AccessPoint) error {
	if err := r.checkParishInScope(ctx, scope, ap.ParishID); err != nil {
		return err
	}

	if ap.ID == "" {
		ap.ID = "ap-" + uuid.NewString()[:8]
	}
	if ap.Status == "" {
		ap.Status = StatusInactive
	}

	now := time.Now().UTC()
	ap.CreatedAt = now
	ap.UpdatedAt = now

	_, err := r.db.ExecContext(ctx,
		`INSERT INTO access_points (id, name, code, parish_id, ip_address, mac_address,
			status, signal_dbm, connected_users, bandwidth_mbps, created_at, updated_at)
		 VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		ap.ID, ap.Name, ap.Code, nullStringPtr(ap.ParishID),
		nullString(ap.IPAddress), nullString(ap.MACAddress),
		string(ap.Status), nullIntPtr(ap.SignalDBM), ap.ConnectedUsers,
		nullFloatPtr(ap.BandwidthMbps),
		now.Format(time.RFC3339), now.Format(time.RFC3339),
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("creating access point: %w", err)
	}
	return nil
}

// Update modifies an access point. Both the current row and the new
// parish must lie inside the scope; the current-row check fires before
// anything is written.
func (r *AccessPointRepository) Update(ctx context.Context, scope auth.ScopeFilter, ap *AccessPoint) error {
	existing, err := r.getUnscoped(ctx, ap.ID)
	if err != nil {
		return err
	}
	if err := r.checkParishInScope(ctx, scope, existing.ParishID); err != nil {
		return err
	}
	if err := r.checkParishInScope(ctx, scope, ap.ParishID); err != nil {
		return err
	}

	if !IsValidStatus(ap.Status) {
		return fmt.Errorf("invalid status %q", ap.Status)
	}

	now := time.Now().UTC()
	ap.UpdatedAt = now

	_, err = r.db.ExecContext(ctx,
		`UPDATE access_points SET name = ?, code = ?, parish_id = ?, ip_address = ?,
			mac_address = ?, status = ?, bandwidth_mbps = ?, updated_at = ?
		 WHERE id = ?`,
		ap.Name, ap.Code, nullStringPtr(ap.ParishID), nullString(ap.IPAddress),
		nullString(ap.MACAddress), string(ap.Status), nullFloatPtr(ap.BandwidthMbps),
		now.Format(time.RFC3339), ap.ID,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return ErrCodeExists
		}
		return fmt.Errorf("updating access point: %w", err)
	}
	return nil
}

// Delete removes an access point inside the scope.
func (r *AccessPointRepository) Delete(ctx context.Context, scope auth.ScopeFilter, id string) error {
	existing, err := r.getUnscoped(ctx, id)
	if err != nil {
		return err
	}
	if err := r.checkParishInScope(ctx, scope, existing.ParishID); err != nil {
		return err
	}

	if _, err := r.db.ExecContext(ctx, "DELETE FROM access_points WHERE id = ?", id); err != nil {
		return fmt.Errorf("deleting access point: %w", err)
	}
	return nil
}

// RecordHeartbeat applies a telemetry heartbeat by hardware code.
// Unscoped: heartbeats come from the devices themselves.
func (r *AccessPointRepository) RecordHeartbeat(ctx context.Context, code string, status AccessPointStatus, signalDBM *int, connectedUsers int) error {
	if !IsValidStatus(status) {
		return fmt.Errorf("invalid status %q", status)
	}

	now := time.Now().UTC().Format(time.RFC3339)
	result, err := r.db.ExecContext(ctx,
		`UPDATE access_points SET status = ?, signal_dbm = ?, connected_users = ?,
			last_seen_at = ?, updated_at = ?
		 WHERE code = ?`,
		string(status), nullIntPtr(signalDBM), connectedUsers, now, now, code,
	)
	if err != nil {
		return fmt.Errorf("recording heartbeat: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrAccessPointNotFound
	}
	return nil
}

// IncrementConnected bumps the connected user counter after an enrollment.
func (r *AccessPointRepository) IncrementConnected(ctx context.Context, id string) error {
	result, err := r.db.ExecContext(ctx,
		`UPDATE access_points SET connected_users = connected_users + 1,
			updated_at = ? WHERE id = ?`,
		time.Now().UTC().Format(time.RFC3339), id,
	)
	if err != nil {
		return fmt.Errorf("incrementing connected users: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	if n == 0 {
		return ErrAccessPointNotFound
	}
	return nil
}

// getUnscoped fetches a row regardless of scope, for write-side re-checks.
func (r *AccessPointRepository) getUnscoped(ctx context.Context, id string) (*AccessPoint, error) {
	query := "SELECT " + accessPointColumns + " FROM access_points WHERE id = ?"
	return scanAccessPoint(r.db.QueryRowContext(ctx, query, id))
}

// checkParishInScope re-derives a parish's ancestry and checks it
// against the filter. Returns ErrScopeViolation when outside.
func (r *AccessPointRepository) checkParishInScope(ctx context.Context, scope auth.ScopeFilter, parishID *string) error {
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

// scanAccessPoint scans an access point from a Row or Rows.
func scanAccessPoint(s scanner) (*AccessPoint, error) {
	var ap AccessPoint
	var parishID, ipAddress, macAddress, lastSeenAt sql.NullString
	var signalDBM sql.NullInt64
	var bandwidth sql.NullFloat64
	var status, createdAt, updatedAt string

	err := s.Scan(&ap.ID, &ap.Name, &ap.Code, &parishID, &ipAddress, &macAddress,
		&status, &signalDBM, &ap.ConnectedUsers, &bandwidth, &lastSeenAt,
		&createdAt, &updatedAt)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, ErrAccessPointNotFound
		}
		return nil, fmt.Errorf("scanning access point: %w", err)
	}

	ap.Status = AccessPointStatus(status)
	if parishID.Valid {
		ap.ParishID = &parishID.String
	}
	if ipAddress.Valid {
		ap.IPAddress = ipAddress.String
	}
	if macAddress.Valid {
		ap.MACAddress = macAddress.String
	}
	if signalDBM.Valid {
		v := int(signalDBM.Int64)
		ap.SignalDBM = &v
	}
	if bandwidth.Valid {
		ap.BandwidthMbps = &bandwidth.Float64
	}
	if lastSeenAt.Valid {
		t := parseTime(lastSeenAt.String)
		ap.LastSeenAt = &t
	}
	ap.CreatedAt = parseTime(createdAt)
	ap.UpdatedAt = parseTime(updatedAt)
	return &ap, nil
}

// scanner is an interface for sql.Row and sql.Rows Scan methods.
type scanner interface {
	Scan(dest ...any) error
}

// Helper functions shared by the portal repositories.

func nullString(s string) sql.NullString {
	if s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: s, Valid: true}
}

func nullStringPtr(s *string) sql.NullString {
	if s == nil || *s == "" {
		return sql.NullString{}
	}
	return sql.NullString{String: *s, Valid: true}
}

func nullIntPtr(i *int) sql.NullInt64 {
	if i == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: int64(*i), Valid: true}
}

func nullFloatPtr(f *float64) sql.NullFloat64 {
	if f == nil {
		return sql.NullFloat64{}
	}
	return sql.NullFloat64{Float64: *f, Valid: true}
}

func isUniqueViolation(err error) bool {
	return err != nil && strings.Contains(err.Error(), "UNIQUE constraint failed")
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
