package dao

import (
	"context"
	"fmt"
	"time"

	"github.com/jackc/pgx/v5"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooodis/content-engine/internal/domain/automation/entity"
)

// PathPostgres implements PathRepository for PostgreSQL
type PathPostgres struct {
	pool *pgxpool.Pool
}

// NewPathPostgres creates a new PostgreSQL automation path repository
func NewPathPostgres(pool *pgxpool.Pool) *PathPostgres {
	return &PathPostgres{pool: pool}
}

const pathColumns = `id, name, content_type, assistant_id, category, subcategory, topics,
       mode, schedule_type, schedule_time, schedule_day, prompt_template,
       include_images, media_folder, languages, status, created_at, last_run`

// Create inserts a new automation path
func (r *PathPostgres) Create(ctx context.Context, path *entity.AutomationPath) error {
	query := `
		INSERT INTO automation_paths (` + pathColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15, $16, $17, $18)
	`

	_, err := r.pool.Exec(ctx, query,
		path.ID,
		path.Name,
		path.ContentType,
		nullable(path.AssistantID),
		path.Category,
		nullable(path.Subcategory),
		path.Topics,
		path.Mode,
		path.ScheduleType,
		path.ScheduleTime,
		path.ScheduleDay,
		nullable(path.PromptTemplate),
		path.IncludeImages,
		nullable(path.MediaFolder),
		path.Languages,
		path.Status,
		path.CreatedAt,
		path.LastRun,
	)
	if err != nil {
		return fmt.Errorf("inserting automation path: %w", err)
	}

	return nil
}

// GetByID retrieves an automation path by ID
func (r *PathPostgres) GetByID(ctx context.Context, id string) (*entity.AutomationPath, error) {
	query := `SELECT ` + pathColumns + ` FROM automation_paths WHERE id = $1`

	path, err := scanPath(r.pool.QueryRow(ctx, query, id))
	if err == pgx.ErrNoRows {
		return nil, nil
	}
	if err != nil {
		return nil, fmt.Errorf("scanning automation path: %w", err)
	}

	return path, nil
}

// Update persists the full current state of a path
func (r *PathPostgres) Update(ctx context.Context, path *entity.AutomationPath) error {
	query := `
		UPDATE automation_paths
		SET name = $2, content_type = $3, assistant_id = $4, category = $5,
		    subcategory = $6, topics = $7, mode = $8, schedule_type = $9,
		    schedule_time = $10, schedule_day = $11, prompt_template = $12,
		    include_images = $13, media_folder = $14, languages = $15, status = $16
		WHERE id = $1
	`

	_, err := r.pool.Exec(ctx, query,
		path.ID,
		path.Name,
		path.ContentType,
		nullable(path.AssistantID),
		path.Category,
		nullable(path.Subcategory),
		path.Topics,
		path.Mode,
		path.ScheduleType,
		path.ScheduleTime,
		path.ScheduleDay,
		nullable(path.PromptTemplate),
		path.IncludeImages,
		nullable(path.MediaFolder),
		path.Languages,
		path.Status,
	)
	if err != nil {
		return fmt.Errorf("updating automation path: %w", err)
	}

	return nil
}

// List retrieves automation paths in definition order with optional filtering
func (r *PathPostgres) List(ctx context.Context, filter PathFilter) ([]entity.AutomationPath, error) {
	query := `SELECT ` + pathColumns + ` FROM automation_paths WHERE 1=1`
	args := []interface{}{}
	argNum := 1

	if filter.Status != nil {
		query += fmt.Sprintf(" AND status = $%d", argNum)
		args = append(args, *filter.Status)
		argNum++
	}
	if filter.Category != "" {
		query += fmt.Sprintf(" AND category = $%d", argNum)
		args = append(args, filter.Category)
		argNum++
	}
	if filter.ContentType != "" {
		query += fmt.Sprintf(" AND content_type = $%d", argNum)
		args = append(args, filter.ContentType)
	}

	query += " ORDER BY created_at ASC"

	rows, err := r.pool.Query(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("querying automation paths: %w", err)
	}
	defer rows.Close()

	return collectPaths(rows)
}

// ListActiveScheduled retrieves active schedule-mode paths in definition order
func (r *PathPostgres) ListActiveScheduled(ctx context.Context) ([]entity.AutomationPath, error) {
	query := `
		SELECT ` + pathColumns + `
		FROM automation_paths
		WHERE status = 'active' AND mode = 'schedule'
		ORDER BY created_at ASC
	`

	rows, err := r.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("querying scheduled paths: %w", err)
	}
	defer rows.Close()

	return collectPaths(rows)
}

// GetStats aggregates generation outcomes per path from ai_generation_logs
func (r *PathPostgres) GetStats(ctx context.Context, pathIDs []string) (map[string]entity.PathStats, error) {
	if len(pathIDs) == 0 {
		return map[string]entity.PathStats{}, nil
	}

	query := `
		SELECT automation_path_id,
		       COUNT(*),
		       COUNT(*) FILTER (WHERE status = 'completed'),
		       COUNT(*) FILTER (WHERE status = 'failed'),
		       COALESCE(SUM(tokens_used), 0)
		FROM ai_generation_logs
		WHERE automation_path_id = ANY($1)
		GROUP BY automation_path_id
	`

	rows, err := r.pool.Query(ctx, query, pathIDs)
	if err != nil {
		return nil, fmt.Errorf("querying path stats: %w", err)
	}
	defer rows.Close()

	stats := make(map[string]entity.PathStats, len(pathIDs))
	for rows.Next() {
		var pathID string
		var s entity.PathStats
		if err := rows.Scan(&pathID, &s.TotalGenerations, &s.Successful, &s.Failed, &s.TotalTokens); err != nil {
			return nil, fmt.Errorf("scanning path stats: %w", err)
		}
		if s.TotalGenerations > 0 {
			s.SuccessRate = float64(s.Successful) / float64(s.TotalGenerations)
		}
		stats[pathID] = s
	}

	return stats, nil
}

func collectPaths(rows pgx.Rows) ([]entity.AutomationPath, error) {
	var paths []entity.AutomationPath
	for rows.Next() {
		path, err := scanPath(rows)
		if err != nil {
			return nil, fmt.Errorf("scanning row: %w", err)
		}
		paths = append(paths, *path)
	}
	return paths, nil
}

func scanPath(row pgx.Row) (*entity.AutomationPath, error) {
	var path entity.AutomationPath
	var assistantID, subcategory, promptTemplate, mediaFolder *string
	var lastRun *time.Time

	err := row.Scan(
		&path.ID,
		&path.Name,
		&path.ContentType,
		&assistantID,
		&path.Category,
		&subcategory,
		&path.Topics,
		&path.Mode,
		&path.ScheduleType,
		&path.ScheduleTime,
		&path.ScheduleDay,
		&promptTemplate,
		&path.IncludeImages,
		&mediaFolder,
		&path.Languages,
		&path.Status,
		&path.CreatedAt,
		&lastRun,
	)
	if err != nil {
		return nil, err
	}

	if assistantID != nil {
		path.AssistantID = *assistantID
	}
	if subcategory != nil {
		path.Subcategory = *subcategory
	}
	if promptTemplate != nil {
		path.PromptTemplate = *promptTemplate
	}
	if mediaFolder != nil {
		path.MediaFolder = *mediaFolder
	}
	path.LastRun = lastRun

	return &path, nil
}

func nullable(s string) *string {
	if s == "" {
		return nil
	}
	return &s
}
