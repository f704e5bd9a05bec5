package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooodis/content-engine/internal/domain/automation/entity"
)

// LogPostgres implements LogRepository for PostgreSQL
type LogPostgres struct {
	pool *pgxpool.Pool
}

// NewLogPostgres creates a new PostgreSQL generation log repository
func NewLogPostgres(pool *pgxpool.Pool) *LogPostgres {
	return &LogPostgres{pool: pool}
}

const logColumns = `id, automation_path_id, path_name, status, content_type, category,
       topic, language, started_at, completed_at, generated_title, generated_content,
       generated_excerpt, tokens_used, generation_time_ms, published_post_id,
       published_at, model_used, prompt_used, error_message`

// Open inserts a pending log and touches the path's last_run in one transaction
func (r *LogPostgres) Open(ctx context.Context, log *entity.GenerationLog) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	query := `
		INSERT INTO ai_generation_logs (id, automation_path_id, path_name, status,
		                                content_type, category, topic, language, started_at)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`
	_, err = tx.Exec(ctx, query,
		log.ID,
		log.AutomationPathID,
		log.PathName,
		log.Status,
		log.ContentType,
		log.Category,
		nullable(log.Topic),
		nullable(log.Language),
		log.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("inserting generation log: %w", err)
	}

	_, err = tx.Exec(ctx,
		"UPDATE automation_paths SET last_run = $2 WHERE id = $1",
		log.AutomationPathID, log.StartedAt,
	)
	if err != nil {
		return fmt.Errorf("touching path last_run: %w", err)
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing log open: %w", err)
	}

	return nil
}

// GetByID retrieves a generation log by ID
func (r *LogPostgres) GetByID(ctx context.Context, id string) (*entity.GenerationLog, error) {
	query := `SELECT ` + logColumns + ` FROM ai_generation_logs WHERE id = $1`

	log, err := scanLog(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning generation log: %w", err)
	}

	return log, nil
}

// Close applies the sparse patch and accumulates daily usage in one
// transaction. The status guard in the UPDATE makes the close a one-shot
// transition: a second close hits zero rows and is rejected.
func (r *LogPostgres) Close(ctx context.Context, id string, result entity.CloseResult) error {
	tx, err := r.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("beginning transaction: %w", err)
	}
	defer tx.Rollback(ctx)

	now := time.Now()

	query := `
		UPDATE ai_generation_logs
		SET status = $2,
		    completed_at = $3,
		    generated_title = COALESCE($4::text, generated_title),
		    generated_content = COALESCE($5::text, generated_content),
		    generated_excerpt = COALESCE($6::text, generated_excerpt),
		    tokens_used = COALESCE($7::int, tokens_used),
		    generation_time_ms = COALESCE($8::bigint, generation_time_ms),
		    published_post_id = COALESCE($9::text, published_post_id),
		    published_at = CASE WHEN $9::text IS NOT NULL THEN $3 ELSE published_at END,
		    model_used = COALESCE($10::text, model_used),
		    prompt_used = COALESCE($11::text, prompt_used),
		    error_message = COALESCE($12::text, error_message)
		WHERE id = $1 AND status = 'pending'
	`

	tag, err := tx.Exec(ctx, query,
		id,
		result.Status,
		now,
		result.GeneratedTitle,
		result.GeneratedContent,
		result.GeneratedExcerpt,
		result.TokensUsed,
		result.GenerationTimeMS,
		result.PublishedPostID,
		result.ModelUsed,
		result.PromptUsed,
		result.ErrorMessage,
	)
	if err != nil {
		return fmt.Errorf("closing generation log: %w", err)
	}

	if tag.RowsAffected() == 0 {
		var status entity.LogStatus
		err := tx.QueryRow(ctx, "SELECT status FROM ai_generation_logs WHERE id = $1", id).Scan(&status)
		if err == pgx.ErrNoRows {
			return entity.ErrLogNotFound
		}
		if err != nil {
			return fmt.Errorf("checking log status: %w", err)
		}
		return entity.ErrLogAlreadyClosed
	}

	if result.TokensUsed != nil {
		if err := upsertDailyUsage(ctx, tx, now, *result.TokensUsed, result.Status == entity.LogStatusCompleted); err != nil {
			return err
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("committing log close: %w", err)
	}

	return nil
}

// ListByPath retrieves logs for a path, newest first
func (r *LogPostgres) ListByPath(ctx context.Context, pathID string, limit int) ([]entity.GenerationLog, error) {
	if limit <= 0 {
		limit = 50
	}

	query := `
		SELECT ` + logColumns + `
		FROM ai_generation_logs
		WHERE automation_path_id = $1
		ORDER BY started_at DESC
		LIMIT $2
	`

	rows, err := r.pool.Query(ctx, query, pathID, limit)
	if err != nil {
		return nil, fmt.Errorf("querying generation logs: %w", err)
	}
	defer rows.Close()

	var logs []entity.GenerationLog
	for rows.Next() {
		log, err := scanLog(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		logs = append(logs, *log)
	}

	return logs, nil
}

// GetDailyUsage retrieves the usage counter for an ISO date
func (r *LogPostgres) GetDailyUsage(ctx context.Context, date string) (*entity.DailyUsage, error) {
	query := `
		SELECT usage_date, total_tokens, requests_count, successful_requests, failed_requests
		FROM ai_api_usage
		WHERE usage_date = $1
	`

	var u entity.DailyUsage
	err := r.pool.QueryRow(ctx, query, date).Scan(
		&u.Date,
		&u.TotalTokens,
		&u.RequestsCount,
		&u.SuccessfulRequests,
		&u.FailedRequests,
	)
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning daily usage: %w", err)
	}

	return &u, nil
}

// upsertDailyUsage accumulates (not overwrites) the counters for today
func upsertDailyUsage(ctx context.Context, tx pgx.Tx, now time.Time, tokens int, success bool) error {
	succ, fail := 0, 1
	if success {
		succ, fail = 1, 0
	}

	query := `
		INSERT INTO ai_api_usage (usage_date, total_tokens, requests_count, successful_requests, failed_requests)
		VALUES ($1, $2, 1, $3, $4)
		ON CONFLICT (usage_date) DO UPDATE
		SET total_tokens = ai_api_usage.total_tokens + EXCLUDED.total_tokens,
		    requests_count = ai_api_usage.requests_count + 1,
		    successful_requests = ai_api_usage.successful_requests + EXCLUDED.successful_requests,
		    failed_requests = ai_api_usage.failed_requests + EXCLUDED.failed_requests
	`

	if _, err := tx.Exec(ctx, query, now.Format("2006-01-02"), tokens, succ, fail); err != nil {
		return fmt.Errorf("upserting daily usage: %w", err)
	}

	return nil
}

func scanLog(row pgx.Row) (*entity.GenerationLog, error) {
	var log entity.GenerationLog
	var topic, language, title, content, excerpt, postID, model, prompt, errMsg *string
	var tokens *int
	var genMS *int64
	var completedAt, publishedAt *time.Time

	err := row.Scan(
		&log.ID,
		&log.AutomationPathID,
		&log.PathName,
		&log.Status,
		&log.ContentType,
		&log.Category,
		&topic,
		&language,
		&log.StartedAt,
		&completedAt,
		&title,
		&content,
		&excerpt,
		&tokens,
		&genMS,
		&postID,
		&publishedAt,
		&model,
		&prompt,
		&errMsg,
	)
	if err != nil {
		return nil, err
	}

	if topic != nil {
		log.Topic = *topic
	}
	if language != nil {
		log.Language = *language
	}
	if title != nil {
		log.GeneratedTitle = *title
	}
	if content != nil {
		log.GeneratedContent = *content
	}
	if excerpt != nil {
		log.GeneratedExcerpt = *excerpt
	}
	if tokens != nil {
		log.TokensUsed = *tokens
	}
	if genMS != nil {
		log.GenerationTimeMS = *genMS
	}
	if postID != nil {
		log.PublishedPostID = *postID
	}
	if model != nil {
		log.ModelUsed = *model
	}
	if prompt != nil {
		log.PromptUsed = *prompt
	}
	if errMsg != nil {
		log.ErrorMessage = *errMsg
	}
	log.CompletedAt = completedAt
	log.PublishedAt = publishedAt

	return &log, nil
}
