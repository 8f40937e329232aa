package portal

import (
	"context"
	"database/sql"
	"fmt"

	"github.com/JeanClaudeMorales/amarillo/internal/auth"
)

// defaultTopParishes caps the parish ranking size.
const defaultTopParishes = 10

// DashboardRepository computes scoped aggregates for the dashboard.
type DashboardRepository struct {
	db *sql.DB
}

// NewDashboardRepository creates a dashboard repository.
func NewDashboardRepository(db *sql.DB) *DashboardRepository {
	return &DashboardRepository{db: db}
}

// Stats returns the aggregate counters over the scoped set only.
// A restricted admin's totals count their subtree, nothing more.
func (r *DashboardRepository) Stats(ctx context.Context, scope auth.ScopeFilter) (*DashboardStats, error) {
	stats := &DashboardStats{}

	userClause, userArgs := scope.Predicate("parish_id")
	err := r.db.QueryRowContext(ctx,
		`SELECT COUNT(*), COALESCE(SUM(is_active), 0)
		 FROM portal_users WHERE `+userClause, userArgs...,
	).Scan(&stats.TotalUsers, &stats.ActiveUsers)
	if err != nil {
		return nil, fmt.Errorf("aggregating portal users: %w", err)
	}

	apClause, apArgs := scope.Predicate("parish_id")
	err = r.db.QueryRowContext(ctx,
		`SELECT COUNT(*),
			COUNT(CASE WHEN status = 'active' THEN 1 END),
			COALESCE(SUM(connected_users), 0)
		 FROM access_points WHERE `+apClause, apArgs...,
	).Scan(&stats.TotalAccessPoints, &stats.ActiveAccessPoints, &stats.ConnectedUsers)
	if err != nil {
		return nil, fmt.Errorf("aggregating access points: %w", err)
	}

	return stats, nil
}

// TopParishes ranks parishes inside the scope by registered users.
func (r *DashboardRepository) TopParishes(ctx context.Context, scope auth.ScopeFilter, limit int) ([]ParishUserCount, error) {
	if limit <= 0 {
		limit = defaultTopParishes
	}

	clause, args := scope.Predicate("pu.parish_id")
	query := `SELECT p.id, p.name, COUNT(pu.id) AS users
		FROM portal_users pu
		JOIN parishes p ON pu.parish_id = p.id
		WHERE ` + clause + `
		GROUP BY p.id, p.name
		ORDER BY users DESC, p.name
		LIMIT ?`

	rows, err := r.db.QueryContext(ctx, query, append(args, limit)...)
	if err != nil {
		return nil, fmt.Errorf("ranking parishes: %w", err)
	}
	defer rows.Close()

	counts := []ParishUserCount{}
	for rows.Next() {
		var c ParishUserCount
		if err := rows.Scan(&c.ParishID, &c.ParishName, &c.Users); err != nil {
			return nil, fmt.Errorf("scanning parish count: %w", err)
		}
		counts = append(counts, c)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating parish counts: %w", err)
	}
	return counts, nil
}
