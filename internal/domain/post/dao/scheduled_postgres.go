package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooodis/content-engine/internal/domain/post/entity"
)

// ScheduledPostPostgres implements ScheduledPostRepository for PostgreSQL
type ScheduledPostPostgres struct {
	pool *pgxpool.Pool
}

// NewScheduledPostPostgres creates a new PostgreSQL scheduled post repository
func NewScheduledPostPostgres(pool *pgxpool.Pool) *ScheduledPostPostgres {
	return &ScheduledPostPostgres{pool: pool}
}

const scheduledColumns = `id, title, content, excerpt, image_url, author, category,
       subcategory, tags, scheduled_for, status, retry_count, max_retries,
       error_message, last_attempt, published_post_id, created_at, updated_at`

// Create inserts a new scheduled post in pending state
func (r *ScheduledPostPostgres) Create(ctx context.Context, sp *entity.ScheduledPost) error {
	query := `
		INSERT INTO scheduled_posts (` + scheduledColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.pool.Exec(ctx, query,
		sp.ID,
		sp.Title,
		sp.Content,
		nullableStr(sp.Excerpt),
		nullableStr(sp.ImageURL),
		sp.Author,
		sp.Category,
		nullableStr(sp.Subcategory),
		sp.Tags,
		sp.ScheduledFor,
		sp.Status,
		sp.RetryCount,
		sp.MaxRetries,
		nullableStr(sp.ErrorMessage),
		sp.LastAttempt,
		nullableStr(sp.PublishedPostID),
		sp.CreatedAt,
		sp.UpdatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting scheduled post: %w", err)
	}

	return nil
}

// GetByID retrieves a scheduled post by ID
func (r *ScheduledPostPostgres) GetByID(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	query := `SELECT ` + scheduledColumns + ` FROM scheduled_posts WHERE id = $1`

	sp, err := scanScheduled(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning scheduled post: %w", err)
	}

	return sp, nil
}

// MarkPublishing persists the pending -> publishing transition
func (r *ScheduledPostPostgres) MarkPublishing(ctx context.Context, id string) error {
	query := `
		UPDATE scheduled_posts
		SET status = 'publishing', last_attempt = $2, updated_at = $2
		WHERE id = $1
	`

	if _, err := r.pool.Exec(ctx, query, id, time.Now()); err != nil {
		return fmt.Errorf("marking scheduled post publishing: %w", err)
	}

	return nil
}

// CompletePublish inserts the blog post, marks the scheduled post published,
// appends the history event and bumps the category counter in one transaction
func (r *ScheduledPostPostgres) CompletePublish(ctx context.Context, sp *entity.ScheduledPost, post *entity.BlogPost, event *entity.HistoryEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	if err := insertPost(ctx, tx, post); err != nil {
		return err
	}

	query := `
		UPDATE scheduled_posts
		SET status = 'published', published_post_id = $2, updated_at = $3
		WHERE id = $1
	`
	if _, err := tx.Exec(ctx, query, sp.ID, post.ID, time.Now()); err != nil {
		return fmt.Errorf("marking scheduled post published: %w", err)
	}

	if err := insertHistory(ctx, tx, event); err != nil {
		return err
	}

	if err := bumpCategoryCount(ctx, tx, post.Category); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing publish: %w", err)
	}

	return nil
}

// RecordFailure persists the retry bookkeeping and appends the failure event
// in one transaction
func (r *ScheduledPostPostgres) RecordFailure(ctx context.Context, sp *entity.ScheduledPost, event *entity.HistoryEvent) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		UPDATE scheduled_posts
		SET status = $2, retry_count = $3, error_message = $4, last_attempt = $5, updated_at = $5
		WHERE id = $1
	`
	_, err = tx.Exec(ctx, query, sp.ID, sp.Status, sp.RetryCount, nullableStr(sp.ErrorMessage), time.Now())
	if err != nil {
		return fmt.Errorf("recording scheduled post failure: %w", err)
	}

	if err := insertHistory(ctx, tx, event); err != nil {
		return err
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing failure record: %w", err)
	}

	return nil
}

// History retrieves a scheduled post's events, oldest first
func (r *ScheduledPostPostgres) History(ctx context.Context, scheduledPostID string) ([]entity.HistoryEvent, error) {
	query := `
		SELECT id, scheduled_post_id, type, blog_post_id, published_at, source,
		       error, retry_count, created_at
		FROM scheduled_post_history
		WHERE scheduled_post_id = $1
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query, scheduledPostID)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled post history: %w", err)
	}
	defer rows.Close()

	var events []entity.HistoryEvent
	for rows.Next() {
		var ev entity.HistoryEvent
		var blogPostID, source, errMsg *string
		var publishedAt *time.Time
		var retryCount *int

		err := rows.Scan(
			&ev.ID,
			&ev.ScheduledPostID,
			&ev.Type,
			&blogPostID,
			&publishedAt,
			&source,
			&errMsg,
			&retryCount,
			&ev.CreatedAt,
		)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}

		if blogPostID != nil {
			ev.BlogPostID = *blogPostID
		}
		if source != nil {
			ev.Source = *source
		}
		if errMsg != nil {
			ev.Error = *errMsg
		}
		if retryCount != nil {
			ev.RetryCount = *retryCount
		}
		ev.PublishedAt = publishedAt

		events = append(events, ev)
	}

	return events, nil
}

func insertHistory(ctx context.Context, tx pgx.Tx, event *entity.HistoryEvent) error {
	query := `
		INSERT INTO scheduled_post_history (id, scheduled_post_id, type, blog_post_id,
		                                    published_at, source, error, retry_count, created_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := tx.Exec(ctx, query,
		event.ID,
		event.ScheduledPostID,
		event.Type,
		nullableStr(event.BlogPostID),
		event.PublishedAt,
		nullableStr(event.Source),
		nullableStr(event.Error),
		event.RetryCount,
		event.CreatedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting history event: %w", err)
	}

	return nil
}

func scanScheduled(row pgx.Row) (*entity.ScheduledPost, error) {
	var sp entity.ScheduledPost
	var excerpt, imageURL, subcategory, errMsg, postID *string
	var scheduledFor, lastAttempt *time.Time

	err := row.Scan(
		&sp.ID,
		&sp.Title,
		&sp.Content,
		&excerpt,
		&imageURL,
		&sp.Author,
		&sp.Category,
		&subcategory,
		&sp.Tags,
		&scheduledFor,
		&sp.Status,
		&sp.RetryCount,
		&sp.MaxRetries,
		&errMsg,
		&lastAttempt,
		&postID,
		&sp.CreatedAt,
		&sp.UpdatedAt,
	)
	if err != nil {
		return nil, err
	}

	if excerpt != nil {
		sp.Excerpt = *excerpt
	}
	if imageURL != nil {
		sp.ImageURL = *imageURL
	}
	if subcategory != nil {
		sp.Subcategory = *subcategory
	}
	if errMsg != nil {
		sp.ErrorMessage = *errMsg
	}
	if postID != nil {
		sp.PublishedPostID = *postID
	}
	sp.ScheduledFor = scheduledFor
	sp.LastAttempt = lastAttempt

	return &sp, nil
}
