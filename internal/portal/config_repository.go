package portal

import (
	"context"
	"database/sql"
	"fmt"
	"time"
)

// ConfigRepository persists portal configuration keys. Configuration
// is global (not geographic), so no scope filter applies; route-level
// auth decides who may write.
type ConfigRepository struct {
	db *sql.DB
}

// NewConfigRepository creates a config repository.
func NewConfigRepository(db *sql.DB) *ConfigRepository {
	return &ConfigRepository{db: db}
}

// GetAll returns every configuration entry ordered by key.
func (r *ConfigRepository) GetAll(ctx context.Context) ([]ConfigEntry, error) {
	rows, err := r.db.QueryContext(ctx,
		"SELECT key, value, updated_at FROM portal_config ORDER BY key")
	if err != nil {
		return nil, fmt.Errorf("listing portal config: %w", err)
	}
	defer rows.Close()

	entries := []ConfigEntry{}
	for rows.Next() {
		var e ConfigEntry
		var updatedAt string
		if err := rows.Scan(&e.Key, &e.Value, &updatedAt); err != nil {
			return nil, fmt.Errorf("scanning config row: %w", err)
		}
		e.UpdatedAt = parseTime(updatedAt)
		entries = append(entries, e)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterating config rows: %w", err)
	}
	return entries, nil
}

// Get returns one configuration value.
func (r *ConfigRepository) Get(ctx context.Context, key string) (string, error) {
	var value string
	err := r.db.QueryRowContext(ctx,
		"SELECT value FROM portal_config WHERE key = ?", key,
	).Scan(&value)
	if err != nil {
		if err == sql.ErrNoRows {
			return "", fmt.Errorf("config key %q not found", key)
		}
		return "", fmt.Errorf("reading config key %q: %w", key, err)
	}
	return value, nil
}

// Set upserts one configuration key.
func (r *ConfigRepository) Set(ctx context.Context, key, value string) error {
	now := time.Now().UTC().Format(time.RFC3339)
	_, err := r.db.ExecContext(ctx,
		`INSERT INTO portal_config (key, value, updated_at) VALUES (?, ?, ?)
		 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
		key, value, now,
	)
	if err != nil {
		return fmt.Errorf("setting config key %q: %w", key, err)
	}
	return nil
}

// SetAll upserts a batch of keys in one transaction.
func (r *ConfigRepository) SetAll(ctx context.Context, values map[string]string) error {
	tx, err := r.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("starting config transaction: %w", err)
	}
	defer tx.Rollback() //nolint:errcheck // Rollback is no-op after commit

	now := time.Now().UTC().Format(time.RFC3339)
	for key, value := range values {
		if _, err := tx.ExecContext(ctx,
			`INSERT INTO portal_config (key, value, updated_at) VALUES (?, ?, ?)
			 ON CONFLICT(key) DO UPDATE SET value = excluded.value, updated_at = excluded.updated_at`,
			key, value, now,
		); err != nil {
			return fmt.Errorf("setting config key %q: %w", key, err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("committing config update: %w", err)
	}
	return nil
}
