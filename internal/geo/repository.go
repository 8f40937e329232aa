package geo

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// Repository defines the interface for geography lookups.
type Repository interface {
	ListStates(ctx context.Context) ([]State, error)
	GetState(ctx context.Context, id string) (*State, error)
	ListMunicipalitiesByState(ctx context.Context, stateID string) ([]Municipality, error)
	GetMunicipality(ctx context.Context, id string) (*Municipality, error)
	ListParishesByMunicipality(ctx context.Context, municipalityID string) ([]Parish, error)
	GetParish(ctx context.Context, id string) (*Parish, error)

	// ParishAncestry resolves the municipality and state above a parish.
	ParishAncestry(ctx context.Context, parishID string) (*Ancestry, error)

	ParishStatsByMunicipality(ctx context.Context, municipalityID string) ([]ParishStats, error)
	StateStatsAll(ctx context.Context) ([]StateStats, error)
}

// SQLiteRepository implements Repository using SQLite.
type SQLiteRepository struct {
	db *sql.DB
}

// NewSQLiteRepository creates a new SQLite-backed geography repository.
func NewSQLiteRepository(db *sql.DB) *SQLiteRepository {
	return &SQLiteRepository{db: db}
}

// ListStates returns all states ordered by name.
func (r *SQLiteRepository) ListStates(ctx context.Context) ([]State, error) {
	const query = `SELECT id, name, iso_code, created_at FROM states ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying states: %w", err)
	}
	defer rows.Close()

	var states []State
	for rows.Next() {
		var s State
		var createdAt string
		if err := rows.Scan(&s.ID, &s.Name, &s.ISOCode, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning state row: %w", err)
		}
		s.CreatedAt = parseTime(createdAt)
		states = append(states, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state rows: %w", err)
	}
	return states, nil
}

// GetState returns a single state by ID.
func (r *SQLiteRepository) GetState(ctx context.Context, id string) (*State, error) {
	const query = `SELECT id, name, iso_code, created_at FROM states WHERE id = ?`

	var s State
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&s.ID, &s.Name, &s.ISOCode, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrStateNotFound
		}
		return nil, fmt.Errorf("scanning state: %w", err)
	}
	s.CreatedAt = parseTime(createdAt)
	return &s, nil
}

// ListMunicipalitiesByState returns municipalities for a state ordered by name.
func (r *SQLiteRepository) ListMunicipalitiesByState(ctx context.Context, stateID string) ([]Municipality, error) {
	const query = `SELECT id, state_id, name, created_at
		FROM municipalities WHERE state_id = ? ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, stateID)
	if err != nil {
		return nil, fmt.Errorf("querying municipalities: %w", err)
	}
	defer rows.Close()

	var municipalities []Municipality
	for rows.Next() {
		var m Municipality
		var createdAt string
		if err := rows.Scan(&m.ID, &m.StateID, &m.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning municipality row: %w", err)
		}
		m.CreatedAt = parseTime(createdAt)
		municipalities = append(municipalities, m)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating municipality rows: %w", err)
	}
	return municipalities, nil
}

// GetMunicipality returns a single municipality by ID.
func (r *SQLiteRepository) GetMunicipality(ctx context.Context, id string) (*Municipality, error) {
	const query = `SELECT id, state_id, name, created_at FROM municipalities WHERE id = ?`

	var m Municipality
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&m.ID, &m.StateID, &m.Name, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrMunicipalityNotFound
		}
		return nil, fmt.Errorf("scanning municipality: %w", err)
	}
	m.CreatedAt = parseTime(createdAt)
	return &m, nil
}

// ListParishesByMunicipality returns parishes for a municipality ordered by name.
func (r *SQLiteRepository) ListParishesByMunicipality(ctx context.Context, municipalityID string) ([]Parish, error) {
	const query = `SELECT id, municipality_id, name, created_at
		FROM parishes WHERE municipality_id = ? ORDER BY name`

	rows, err := r.db.QueryContext(ctx, query, municipalityID)
	if err != nil {
		return nil, fmt.Errorf("querying parishes: %w", err)
	}
	defer rows.Close()

	var parishes []Parish
	for rows.Next() {
		var p Parish
		var createdAt string
		if err := rows.Scan(&p.ID, &p.MunicipalityID, &p.Name, &createdAt); err != nil {
			return nil, fmt.Errorf("scanning parish row: %w", err)
		}
		p.CreatedAt = parseTime(createdAt)
		parishes = append(parishes, p)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parish rows: %w", err)
	}
	return parishes, nil
}

// GetParish returns a single parish by ID.
func (r *SQLiteRepository) GetParish(ctx context.Context, id string) (*Parish, error) {
	const query = `SELECT id, municipality_id, name, created_at FROM parishes WHERE id = ?`

	var p Parish
	var createdAt string
	err := r.db.QueryRowContext(ctx, query, id).Scan(&p.ID, &p.MunicipalityID, &p.Name, &createdAt)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrParishNotFound
		}
		return nil, fmt.Errorf("scanning parish: %w", err)
	}
	p.CreatedAt = parseTime(createdAt)
	return &p, nil
}

// ParishAncestry resolves the municipality and state above a parish
// with a single two-level join.
func (r *SQLiteRepository) ParishAncestry(ctx context.Context, parishID string) (*Ancestry, error) {
	const query = `SELECT p.id, p.municipality_id, m.state_id
		FROM parishes p
		JOIN municipalities m ON p.municipality_id = m.id
		WHERE p.id = ?`

	var a Ancestry
	err := r.db.QueryRowContext(ctx, query, parishID).Scan(&a.ParishID, &a.MunicipalityID, &a.StateID)
	if err != nil {
		if err == sql.ErrNoRows {
			return nil, ErrParishNotFound
		}
		return nil, fmt.Errorf("resolving parish ancestry: %w", err)
	}
	return &a, nil
}

// ParishStatsByMunicipality returns access point and portal user rollups
// for every parish of a municipality.
func (r *SQLiteRepository) ParishStatsByMunicipality(ctx context.Context, municipalityID string) ([]ParishStats, error) {
	const query = `SELECT p.id, p.name,
		COUNT(ap.id),
		COUNT(CASE WHEN ap.status = 'active' THEN 1 END),
		COALESCE(SUM(ap.connected_users), 0),
		(SELECT COUNT(*) FROM portal_users pu WHERE pu.parish_id = p.id)
		FROM parishes p
		LEFT JOIN access_points ap ON ap.parish_id = p.id
		WHERE p.municipality_id = ?
		GROUP BY p.id, p.name
		ORDER BY p.name`

	rows, err := r.db.QueryContext(ctx, query, municipalityID)
	if err != nil {
		return nil, fmt.Errorf("querying parish stats: %w", err)
	}
	defer rows.Close()

	var stats []ParishStats
	for rows.Next() {
		var s ParishStats
		if err := rows.Scan(&s.ParishID, &s.ParishName,
			&s.AccessPoints, &s.ActivePoints, &s.ConnectedUsers, &s.PortalUsers); err != nil {
			return nil, fmt.Errorf("scanning parish stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parish stats rows: %w", err)
	}
	return stats, nil
}

// StateStatsAll returns per-state rollups across the whole hierarchy.
func (r *SQLiteRepository) StateStatsAll(ctx context.Context) ([]StateStats, error) {
	const query = `SELECT s.id, s.name,
		(SELECT COUNT(*) FROM municipalities m WHERE m.state_id = s.id),
		(SELECT COUNT(*) FROM parishes p
			JOIN municipalities m ON p.municipality_id = m.id
			WHERE m.state_id = s.id),
		(SELECT COUNT(*) FROM access_points ap
			JOIN parishes p ON ap.parish_id = p.id
			JOIN municipalities m ON p.municipality_id = m.id
			WHERE m.state_id = s.id),
		(SELECT COALESCE(SUM(ap.connected_users), 0) FROM access_points ap
			JOIN parishes p ON ap.parish_id = p.id
			JOIN municipalities m ON p.municipality_id = m.id
			WHERE m.state_id = s.id)
		FROM states s
		ORDER BY s.name`

	rows, err := r.db.QueryContext(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying state stats: %w", err)
	}
	defer rows.Close()

	var stats []StateStats
	for rows.Next() {
		var s StateStats
		if err := rows.Scan(&s.StateID, &s.StateName,
			&s.Municipalities, &s.Parishes, &s.AccessPoints, &s.ConnectedUsers); err != nil {
			return nil, fmt.Errorf("scanning state stats row: %w", err)
		}
		stats = append(stats, s)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating state stats rows: %w", err)
	}
	return stats, nil
}

// parseTime parses an ISO 8601 timestamp from SQLite.
func parseTime(s string) time.Time {
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}
	}
	return t
}
