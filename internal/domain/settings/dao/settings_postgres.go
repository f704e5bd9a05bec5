package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5/pgxpool"
)

// SettingsRepository defines the interface for settings data access
type SettingsRepository interface {
	// GetAll retrieves every settings row as a key -> value map
	GetAll(ctx context.Context) (map[string]string, error)

	// Upsert writes the given keys, overwriting existing values
	Upsert(ctx context.Context, values map[string]string) error
}

// SettingsPostgres implements SettingsRepository for PostgreSQL
type SettingsPostgres struct {
	pool *pgxpool.Pool
}

// NewSettingsPostgres creates a new PostgreSQL settings repository
func NewSettingsPostgres(pool *pgxpool.Pool) *SettingsPostgres {
	return &SettingsPostgres{pool: pool}
}

// GetAll retrieves every settings row
func (r *SettingsPostgres) GetAll(ctx context.Context) (map[string]string, error) {
	rows, err := r.pool.Query(ctx, "SELECT key, value FROM settings")
	if err != nil {
		return nil, fmt.Errorf("querying settings: %w", err)
	}
	defer rows.Close()

	values := make(map[string]string)
	for rows.Next() {
		var k, v string
		if err := rows.Scan(&k, &v); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		values[k] = v
	}

	return values, nil
}

// Upsert writes the given keys in one transaction
func (r *SettingsPostgres) Upsert(ctx context.Context, values map[string]string) error {
	if len(values) == 0 {
		return nil
	}

	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO settings (key, value, updated_at)
		VALUES ($1, $2, $3)
		ON CONFLICT (key) DO UPDATE
		SET value = EXCLUDED.value, updated_at = EXCLUDED.updated_at
	`

	now := time.Now()
	for k, v := range values {
		if _, err := tx.Exec(ctx, query, k, v, now); err != nil {
			return fmt.Errorf("upserting setting %q: %w", k, err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing settings: %w", err)
	}

	return nil
}
