package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooodis/content-engine/internal/domain/post/entity"
)

// CategoryPostgres implements CategoryRepository for PostgreSQL
type CategoryPostgres struct {
	pool *pgxpool.Pool
}

// NewCategoryPostgres creates a new PostgreSQL category repository
func NewCategoryPostgres(pool *pgxpool.Pool) *CategoryPostgres {
	return &CategoryPostgres{pool: pool}
}

// List retrieves all categories ordered by name
func (r *CategoryPostgres) List(ctx context.Context) ([]entity.Category, error) {
	rows, err := r.pool.Query(ctx,
		"SELECT id, name, post_count, created_at FROM categories ORDER BY name ASC")
	if err != nil {
		return nil, fmt.Errorf("querying categories: %w", err)
	}
	defer rows.Close()

	var categories []entity.Category
	for rows.Next() {
		var c entity.Category
		if err := rows.Scan(&c.ID, &c.Name, &c.PostCount, &c.CreatedAt); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		categories = append(categories, c)
	}

	return categories, nil
}
