package dao

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooodis/content-engine/internal/domain/post/entity"
)

// PostPostgres implements PostRepository for PostgreSQL
type PostPostgres struct {
	pool *pgxpool.Pool
}

// NewPostPostgres creates a new PostgreSQL blog post repository
func NewPostPostgres(pool *pgxpool.Pool) *PostPostgres {
	return &PostPostgres{pool: pool}
}

const postColumns = `id, title, slug, content, excerpt, image_url, author, category,
       subcategory, tags, status, views, rating_sum, rating_count,
       published_date, created_at, updated_at`

// CreatePublished inserts a post and bumps the category counter in one
// transaction. Uncategorized posts do not count.
func (r *PostPostgres) CreatePublished(ctx context.Context, post *entity.BlogPost) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertPost(ctx, tx, post); err != nil {
		return err
	}

	if err := bumpCategoryCount(ctx, tx, post.Category); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing post insert: %w", err)
	}

	return nil
}

// GetByID retrieves a post by ID
func (r *PostPostgres) GetByID(ctx context.Context, id string) (*entity.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE id = $1`

	post, err := scanPost(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}

	return post, nil
}

// GetBySlug retrieves the newest post carrying the slug
func (r *PostPostgres) GetBySlug(ctx context.Context, slug string) (*entity.BlogPost, error) {
	query := `
		SELECT ` + postColumns + `
		FROM blog_posts
		WHERE slug = $1
		ORDER BY published_date DESC
		LIMIT 1
	`

	post, err := scanPost(r.pool.QueryRow(ctx, query, slug))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning post: %w", err)
	}

	return post, nil
}

// List retrieves posts, newest first
func (r *PostPostgres) List(ctx context.Context, filter PostFilter, opts ListOptions) ([]entity.BlogPost, error) {
	query := `SELECT ` + postColumns + ` FROM blog_posts WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, filter.Category)
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}

	query += " ORDER BY published_date DESC"

	if opts.Limit > 0 {
		query += fmt.Sprintf(" LIMIT $%d", argNum)
		args = append(args, opts.Limit)
		argNum++
	}
	if opts.Offset > 0 {
		query += fmt.Sprintf(" OFFSET $%d", argNum)
		args = append(args, opts.Offset)
	}

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying posts: %w", err)
	}
	defer rows.Close()

	var posts []entity.BlogPost
	for rows.Next() {
		post, err := scanPost(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		posts = append(posts, *post)
	}

	return posts, nil
}

// Count returns the total count of posts matching the filter
func (r *PostPostgres) Count(ctx context.Context, filter PostFilter) (int64, error) {
	query := "SELECT COUNT(*) FROM blog_posts WHERE 1=1"
	args := []interface{}{}
	argNum := 1

	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, filter.Category)
		argNum++
	}
	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
	}

	var count int64
	if err := r.pool.QueryRow(ctx, query, args...).Scan(&count); err != nil {
		return 0, fmt.Errorf("counting posts: %w", err)
	}

	return count, nil
}

// IncrementViews bumps the view counter
func (r *PostPostgres) IncrementViews(ctx context.Context, id string) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE blog_posts SET views = views + 1 WHERE id = $1", id)
	if err != nil {
		return fmt.Errorf("incrementing views: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotFound
	}
	return nil
}

// AddRating accumulates a rating into the running sum and count
func (r *PostPostgres) AddRating(ctx context.Context, id string, rating int) error {
	tag, err := r.pool.Exec(ctx,
		"UPDATE blog_posts SET rating_sum = rating_sum + $2, rating_count = rating_count + 1 WHERE id = $1",
		id, rating)
	if err != nil {
		return fmt.Errorf("adding rating: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return entity.ErrPostNotFound
	}
	return nil
}

// RecentImageURLs returns image URLs used by the most recent posts
func (r *PostPostgres) RecentImageURLs(ctx context.Context, limit int) ([]string, error) {
	if limit <= 0 {
		limit = 20
	}

	rows, err := r.pool.Query(ctx, `
		SELECT image_url
		FROM blog_posts
		WHERE image_url IS NOT NULL AND image_url <> ''
		ORDER BY published_date DESC
		LIMIT $1
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("querying recent image urls: %w", err)
	}
	defer rows.Close()

	var urls []string
	for rows.Next() {
		var u string
		if err := rows.Scan(&u); err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		urls = append(urls, u)
	}

	return urls, nil
}

func insertPost(ctx context.Context, tx pgx.Tx, post *entity.BlogPost) error {
	query := `
		INSERT INTO blog_posts (` + postColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17)
	`

	_, err := tx.Exec(ctx, query,
		post.ID,
		post.Title,
		post.Slug,
		post.Content,
		nullableStr(post.Excerpt),
		nullableStr(post.ImageURL),
		post.Author,
		post.Category,
		nullableStr(post.Subcategory),
		post.Tags,
		post.Status,
		post.Views,
		post.RatingSum,
		post.RatingCount,
		post.PublishedDate,
		post.CreatedAt,
		post.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting post: %w", err)
	}

	return nil
}

// bumpCategoryCount increments the category's post_count, skipping
// Uncategorized. The category row is created on first use.
func bumpCategoryCount(ctx context.Context, tx pgx.Tx, category string) error {
	if category == "" || category == entity.UncategorizedCategory {
		return nil
	}

	query := `
		INSERT INTO categories (name, post_count, created_at)
		VALUES ($1, 1, now())
		ON CONFLICT (name) DO UPDATE
		SET post_count = categories.post_count + 1
	`

	if _, err := tx.Exec(ctx, query, category); err != nil {
		return fmt.Errorf("bumping category count: %w", err)
	}

	return nil
}

func scanPost(row pgx.Row) (*entity.BlogPost, error) {
	var post entity.BlogPost
	var excerpt, imageURL, subcategory *string

	err := row.Scan(
		&post.ID,
		&post.Title,
		&post.Slug,
		&post.Content,
		&excerpt,
		&imageURL,
		&post.Author,
		&post.Category,
		&subcategory,
		&post.Tags,
		&post.Status,
		&post.Views,
		&post.RatingSum,
		&post.RatingCount,
		&post.PublishedDate,
		&post.CreatedAt,
		&post.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if excerpt != nil {
		post.Excerpt = *excerpt
	}
	if imageURL != nil {
		post.ImageURL = *imageURL
	}
	if subcategory != nil {
		post.Subcategory = *subcategory
	}

	return &post, nil
}

func nullableStr(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
