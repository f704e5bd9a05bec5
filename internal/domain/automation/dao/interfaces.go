package dao

import (
	"context"

	"github.com/fooodis/content-engine/internal/domain/automation/entity"
)

// PathFilter contains filters for listing automation paths
type PathFilter struct {
	Status      *entity.PathStatus
	Category    string
	ContentType string
}

// PathRepository defines the interface for automation path data access
type PathRepository interface {
	// Create inserts a new automation path
	Create(ctx context.Context, path *entity.AutomationPath) error

	// GetByID retrieves a path by its ID, nil when absent
	GetByID(ctx context.Context, id string) (*entity.AutomationPath, error)

	// Update persists the full current state of a path
	Update(ctx context.Context, path *entity.AutomationPath) error

	// List retrieves paths in definition order with optional filtering
	List(ctx context.Context, filter PathFilter) ([]entity.AutomationPath, error)

	// ListActiveScheduled retrieves active schedule-mode paths, the set the
	// trigger scans every invocation
	ListActiveScheduled(ctx context.Context) ([]entity.AutomationPath, error)

	// GetStats aggregates generation outcomes per path from the log table
	GetStats(ctx context.Context, pathIDs []string) (map[string]entity.PathStats, error)
}

// LogRepository defines the interface for generation log data access
type LogRepository interface {
	// Open inserts a pending log and touches the path's last_run in one
	// transaction
	Open(ctx context.Context, log *entity.GenerationLog) error

	// GetByID retrieves a log by its ID, nil when absent
	GetByID(ctx context.Context, id string) (*entity.GenerationLog, error)

	// Close applies the sparse patch and accumulates daily usage in one
	// transaction. Only pending logs close; a terminal log returns
	// entity.ErrLogAlreadyClosed.
	Close(ctx context.Context, id string, result entity.CloseResult) error

	// ListByPath retrieves logs for a path, newest first
	ListByPath(ctx context.Context, pathID string, limit int) ([]entity.GenerationLog, error)

	// GetDailyUsage retrieves the usage counter for an ISO date, nil when absent
	GetDailyUsage(ctx context.Context, date string) (*entity.DailyUsage, error)
}
