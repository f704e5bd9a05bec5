package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fooodis/content-engine/internal/domain/automation/dao"
	"github.com/fooodis/content-engine/internal/domain/automation/entity"
)

// Service handles business logic for automation paths and generation logs
type Service struct {
	paths dao.PathRepository
	logs  dao.LogRepository
}

// New creates a new automation service
func New(paths dao.PathRepository, logs dao.LogRepository) *Service {
	return &Service{
		paths: paths,
		logs:  logs,
	}
}

// CreateInput represents input for creating an automation path
type CreateInput struct {
	Name           string
	ContentType    string
	AssistantID    string
	Category       string
	Subcategory    string
	Topics         []string
	Mode           entity.PathMode
	ScheduleType   entity.ScheduleType
	ScheduleTime   string
	ScheduleDay    int
	PromptTemplate string
	IncludeImages  bool
	MediaFolder    string
	Languages      []string
}

// CreatePath creates a new automation path with registry defaults applied
func (s *Service) CreatePath(ctx context.Context, in CreateInput) (*entity.AutomationPath, error) {
	path := &entity.AutomationPath{
		ID:             uuid.New().String(),
		Name:           in.Name,
		ContentType:    in.ContentType,
		AssistantID:    in.AssistantID,
		Category:       in.Category,
		Subcategory:    in.Subcategory,
		Topics:         in.Topics,
		Mode:           in.Mode,
		ScheduleType:   in.ScheduleType,
		ScheduleTime:   in.ScheduleTime,
		ScheduleDay:    in.ScheduleDay,
		PromptTemplate: in.PromptTemplate,
		IncludeImages:  in.IncludeImages,
		MediaFolder:    in.MediaFolder,
		Languages:      in.Languages,
		Status:         entity.PathStatusActive,
		CreatedAt:      time.Now(),
	}

	if path.Mode == "" {
		path.Mode = entity.PathModeSchedule
	}
	if path.ScheduleType == "" {
		path.ScheduleType = entity.ScheduleTypeDaily
	}
	if path.ScheduleTime == "" {
		path.ScheduleTime = "09:00"
	}
	if len(path.Languages) == 0 {
		path.Languages = []string{"en"}
	}
	if path.Topics == nil {
		path.Topics = []string{}
	}

	if err := path.Validate(); err != nil {
		return nil, err
	}

	if err := s.paths.Create(ctx, path); err != nil {
		return nil, err
	}

	return path, nil
}

// GetPath retrieves an automation path by ID
func (s *Service) GetPath(ctx context.Context, id string) (*entity.AutomationPath, error) {
	path, err := s.paths.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if path == nil {
		return nil, entity.ErrPathNotFound
	}
	return path, nil
}

// UpdateInput represents a partial field patch for an automation path
type UpdateInput struct {
	ID             string
	Name           *string
	ContentType    *string
	AssistantID    *string
	Category       *string
	Subcategory    *string
	Topics         []string
	Mode           *entity.PathMode
	ScheduleType   *entity.ScheduleType
	ScheduleTime   *string
	ScheduleDay    *int
	PromptTemplate *string
	IncludeImages  *bool
	MediaFolder    *string
	Languages      []string
	Status         *entity.PathStatus
}

// UpdatePath applies a sparse patch to an automation path
func (s *Service) UpdatePath(ctx context.Context, in UpdateInput) (*entity.AutomationPath, error) {
	path, err := s.GetPath(ctx, in.ID)
	if err != nil {
		return nil, err
	}

	if in.Name != nil {
		path.Name = *in.Name
	}
	if in.ContentType != nil {
		path.ContentType = *in.ContentType
	}
	if in.AssistantID != nil {
		path.AssistantID = *in.AssistantID
	}
	if in.Category != nil {
		path.Category = *in.Category
	}
	if in.Subcategory != nil {
		path.Subcategory = *in.Subcategory
	}
	if in.Topics != nil {
		path.Topics = in.Topics
	}
	if in.Mode != nil {
		path.Mode = *in.Mode
	}
	if in.ScheduleType != nil {
		path.ScheduleType = *in.ScheduleType
	}
	if in.ScheduleTime != nil {
		path.ScheduleTime = *in.ScheduleTime
	}
	if in.ScheduleDay != nil {
		path.ScheduleDay = *in.ScheduleDay
	}
	if in.PromptTemplate != nil {
		path.PromptTemplate = *in.PromptTemplate
	}
	if in.IncludeImages != nil {
		path.IncludeImages = *in.IncludeImages
	}
	if in.MediaFolder != nil {
		path.MediaFolder = *in.MediaFolder
	}
	if in.Languages != nil {
		path.Languages = in.Languages
	}
	if in.Status != nil {
		switch *in.Status {
		case entity.PathStatusActive, entity.PathStatusInactive, entity.PathStatusPaused:
			path.Status = *in.Status
		default:
			return nil, entity.ErrInvalidPathStatus
		}
	}

	if err := path.Validate(); err != nil {
		return nil, err
	}

	if err := s.paths.Update(ctx, path); err != nil {
		return nil, err
	}

	return path, nil
}

// PathWithStats pairs a path with its generation aggregates
type PathWithStats struct {
	entity.AutomationPath
	Stats *entity.PathStats `json:"stats,omitempty"`
}

// ListPaths retrieves paths with optional filtering and aggregate stats
func (s *Service) ListPaths(ctx context.Context, filter dao.PathFilter, includeStats bool) ([]PathWithStats, error) {
	paths, err := s.paths.List(ctx, filter)
	if err != nil {
		return nil, err
	}

	out := make([]PathWithStats, len(paths))
	for i := range paths {
		out[i] = PathWithStats{AutomationPath: paths[i]}
	}

	if includeStats && len(paths) > 0 {
		ids := make([]string, len(paths))
		for i := range paths {
			ids[i] = paths[i].ID
		}

		stats, err := s.paths.GetStats(ctx, ids)
		if err != nil {
			return nil, err
		}
		for i := range out {
			if st, ok := stats[out[i].ID]; ok {
				out[i].Stats = &st
			} else {
				out[i].Stats = &entity.PathStats{}
			}
		}
	}

	return out, nil
}

// ListActiveScheduled retrieves the paths the scheduler scans every invocation
func (s *Service) ListActiveScheduled(ctx context.Context) ([]entity.AutomationPath, error) {
	return s.paths.ListActiveScheduled(ctx)
}

// StartRun opens a pending generation log for the path, snapshotting its
// identity, and touches last_run. Returns the log the caller must later close.
func (s *Service) StartRun(ctx context.Context, path *entity.AutomationPath) (*entity.GenerationLog, error) {
	log := &entity.GenerationLog{
		ID:               uuid.New().String(),
		AutomationPathID: path.ID,
		PathName:         path.Name,
		Status:           entity.LogStatusPending,
		ContentType:      path.ContentType,
		Category:         path.Category,
		Topic:            path.FirstTopic(),
		Language:         path.FirstLanguage(),
		StartedAt:        time.Now(),
	}

	if err := s.logs.Open(ctx, log); err != nil {
		return nil, err
	}

	return log, nil
}

// CloseRun closes a pending log with the given result. Closing a terminal log
// returns entity.ErrLogAlreadyClosed; the daily usage counter accumulates
// inside the same transaction.
func (s *Service) CloseRun(ctx context.Context, logID string, result entity.CloseResult) error {
	if err := result.Validate(); err != nil {
		return err
	}
	return s.logs.Close(ctx, logID, result)
}

// GetLog retrieves a generation log by ID
func (s *Service) GetLog(ctx context.Context, id string) (*entity.GenerationLog, error) {
	log, err := s.logs.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if log == nil {
		return nil, entity.ErrLogNotFound
	}
	return log, nil
}

// ListPathLogs retrieves a path's generation logs, newest first
func (s *Service) ListPathLogs(ctx context.Context, pathID string, limit int) ([]entity.GenerationLog, error) {
	if _, err := s.GetPath(ctx, pathID); err != nil {
		return nil, err
	}
	return s.logs.ListByPath(ctx, pathID, limit)
}

// GetDailyUsage retrieves the usage counter for an ISO date
func (s *Service) GetDailyUsage(ctx context.Context, date string) (*entity.DailyUsage, error) {
	return s.logs.GetDailyUsage(ctx, date)
}
