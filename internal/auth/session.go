package auth

import (
	"context"
	"crypto/rand"
	"database/sql"
	"encoding/hex"
	"errors"
	"fmt"
	"time"

	"github.com/google/uuid"
)

// tokenBytes is the entropy of a session token (256 bits).
const tokenBytes = 32

// DefaultSessionTTL is the absolute session lifetime when none is configured.
const DefaultSessionTTL = 8 * time.Hour

// SessionManager issues, validates, and revokes bearer sessions.
//
// Tokens are opaque random values stored server-side; there is nothing
// to decode client-side and revocation is immediate. Expiry is absolute
// from issue time.
type SessionManager struct {
	db  *sql.DB
	ttl time.Duration
}

// NewSessionManager creates a session manager with the given lifetime.
// A zero or negative ttl falls back to DefaultSessionTTL.
func NewSessionManager(db *sql.DB, ttl time.Duration) *SessionManager {
	if ttl <= 0 {
		ttl = DefaultSessionTTL
	}
	return &SessionManager{db: db, ttl: ttl}
}

// TTL returns the configured session lifetime.
func (m *SessionManager) TTL() time.Duration {
	return m.ttl
}

// Issue creates a new session for an admin and returns the bearer token.
// Each login gets its own row; existing sessions are untouched, so an
// admin may be logged in from several devices at once.
func (m *SessionManager) Issue(ctx context.Context, adminID string) (string, error) {
	raw := make([]byte, tokenBytes)
	if _, err := rand.Read(raw); err != nil {
		return "", fmt.Errorf("generating session token: %w", err)
	}
	token := hex.EncodeToString(raw)

	now := time.Now().UTC()
	_, err := m.db.ExecContext(ctx,
		`INSERT INTO sessions (id, admin_id, token, created_at, expires_at)
		 VALUES (?, ?, ?, ?, ?)`,
		"ses-"+uuid.NewString()[:8], adminID, token,
		now.Format(time.RFC3339),
		now.Add(m.ttl).Format(time.RFC3339),
	)
	if err != nil {
		return "", fmt.Errorf("storing session: %w", err)
	}

	return token, nil
}

// Validate resolves a bearer token to its admin account.
//
// A single join enforces every condition at once: the token must exist,
// the session must not be expired, and the account must be active. All
// failures return ErrSessionInvalid; callers never learn which check
// tripped. Validation does not extend the expiry.
func (m *SessionManager) Validate(ctx context.Context, token string) (*Admin, error) {
	if token == "" {
		return nil, ErrSessionInvalid
	}

	now := time.Now().UTC().Format(time.RFC3339)
	row := m.db.QueryRowContext(ctx,
		`SELECT a.id, a.username, a.password_hash, a.full_name, a.email, a.role,
			a.state_id, a.municipality_id, a.is_active, a.created_at, a.updated_at
		 FROM sessions s
		 JOIN admins a ON s.admin_id = a.id
		 WHERE s.token = ? AND s.expires_at > ? AND a.is_active = 1`,
		token, now,
	)

	admin, err := scanAdmin(row)
	if err != nil {
		if errors.Is(err, ErrAdminNotFound) {
			return nil, ErrSessionInvalid
		}
		return nil, fmt.Errorf("validating session: %w", err)
	}
	return admin, nil
}

// Revoke deletes the session for a token. Revoking a token that does
// not exist (or already expired away) is not an error.
func (m *SessionManager) Revoke(ctx context.Context, token string) error {
	if _, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE token = ?", token); err != nil {
		return fmt.Errorf("revoking session: %w", err)
	}
	return nil
}

// DeleteExpired removes expired session rows and returns the count.
// Expired sessions are already unusable through Validate; this is
// storage hygiene, run periodically by the server.
func (m *SessionManager) DeleteExpired(ctx context.Context) (int64, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	result, err := m.db.ExecContext(ctx, "DELETE FROM sessions WHERE expires_at <= ?", now)
	if err != nil {
		return 0, fmt.Errorf("deleting expired sessions: %w", err)
	}
	n, _ := result.RowsAffected() //nolint:errcheck // always succeeds on SQLite
	return n, nil
}

// CountForAdmin returns the number of live sessions an admin holds.
func (m *SessionManager) CountForAdmin(ctx context.Context, adminID string) (int, error) {
	now := time.Now().UTC().Format(time.RFC3339)
	var count int
	err := m.db.QueryRowContext(ctx,
		"SELECT COUNT(*) FROM sessions WHERE admin_id = ? AND expires_at > ?",
		adminID, now,
	).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("counting sessions: %w", err)
	}
	return count, nil
}
