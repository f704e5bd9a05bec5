package policy

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/fooodis/content-engine/internal/domain/automation/dao"
	"github.com/fooodis/content-engine/internal/domain/automation/entity"
	"github.com/fooodis/content-engine/internal/domain/automation/service"
)

// GenerationSettings carries the completion API parameters resolved from the
// settings store at trigger time
type GenerationSettings struct {
	APIKey            string
	Model             string
	Temperature       float64
	MaxTokens         int
	AutomationEnabled bool
}

// SettingsProvider resolves generation settings. Interface is defined here
// (consumer) not in the settings package (provider).
type SettingsProvider interface {
	GenerationSettings(ctx context.Context) (GenerationSettings, error)
}

// GenerateInput represents input for one content generation call
type GenerateInput struct {
	APIKey      string
	Model       string
	Temperature float64
	MaxTokens   int
	Prompt      string
	Language    string
}

// GenerateOutput represents a parsed content draft from the completion API
type GenerateOutput struct {
	Title      string
	Content    string
	Excerpt    string
	TokensUsed int
	Model      string
	Duration   time.Duration
}

// Generator invokes the external completion API and parses a draft out of the
// response
type Generator interface {
	Generate(ctx context.Context, in GenerateInput) (*GenerateOutput, error)
}

// PublishInput represents a generated draft ready to be committed as a post
type PublishInput struct {
	Title       string
	Content     string
	Excerpt     string
	ImageURL    string
	Category    string
	Subcategory string
	Tags        []string
}

// PublishOutput identifies the committed post
type PublishOutput struct {
	PostID string
	Slug   string
}

// Publisher commits generated drafts as published posts
type Publisher interface {
	PublishGenerated(ctx context.Context, in PublishInput) (*PublishOutput, error)
}

// MediaPicker selects an image for a generated post from a media folder,
// avoiding URLs in the exclusion list
type MediaPicker interface {
	PickImage(ctx context.Context, folder string, exclude []string) (string, error)
}

// RecentImageLister exposes image URLs already attached to recent posts
type RecentImageLister interface {
	RecentImageURLs(ctx context.Context, limit int) ([]string, error)
}

// Policy orchestrates the automation pipeline
type Policy struct {
	svc       *service.Service
	settings  SettingsProvider
	generator Generator
	publisher Publisher
	media     MediaPicker
	recent    RecentImageLister
	logger    *slog.Logger
}

// New creates a new automation policy
func New(svc *service.Service, settings SettingsProvider, generator Generator, publisher Publisher, media MediaPicker, recent RecentImageLister, logger *slog.Logger) *Policy {
	return &Policy{
		svc:       svc,
		settings:  settings,
		generator: generator,
		publisher: publisher,
		media:     media,
		recent:    recent,
		logger:    logger,
	}
}

// CreatePath creates a new automation path
func (p *Policy) CreatePath(ctx context.Context, in service.CreateInput) (*entity.AutomationPath, error) {
	if in.Name == "" {
		return nil, entity.ErrEmptyPathName
	}
	return p.svc.CreatePath(ctx, in)
}

// GetPath retrieves an automation path
func (p *Policy) GetPath(ctx context.Context, id string) (*entity.AutomationPath, error) {
	return p.svc.GetPath(ctx, id)
}

// UpdatePath applies a sparse patch to an automation path
func (p *Policy) UpdatePath(ctx context.Context, in service.UpdateInput) (*entity.AutomationPath, error) {
	return p.svc.UpdatePath(ctx, in)
}

// ListPaths retrieves paths with optional filtering and stats
func (p *Policy) ListPaths(ctx context.Context, filter dao.PathFilter, includeStats bool) ([]service.PathWithStats, error) {
	return p.svc.ListPaths(ctx, filter, includeStats)
}

// RunNowOutput identifies a manually started run
type RunNowOutput struct {
	LogID     string                 `json:"log_id"`
	Path      *entity.AutomationPath `json:"path"`
	StartedAt time.Time              `json:"started_at"`
}

// RunPathNow manually triggers a path, bypassing the schedule check. It opens
// a pending log and returns it to the caller, who performs the generation and
// closes the log through CloseRunLog.
func (p *Policy) RunPathNow(ctx context.Context, id string) (*RunNowOutput, error) {
	path, err := p.svc.GetPath(ctx, id)
	if err != nil {
		return nil, err
	}

	log, err := p.svc.StartRun(ctx, path)
	if err != nil {
		return nil, err
	}

	path.LastRun = &log.StartedAt

	return &RunNowOutput{
		LogID:     log.ID,
		Path:      path,
		StartedAt: log.StartedAt,
	}, nil
}

// CloseRunLog closes a pending log with the caller's result
func (p *Policy) CloseRunLog(ctx context.Context, logID string, result entity.CloseResult) (*entity.GenerationLog, error) {
	if err := p.svc.CloseRun(ctx, logID, result); err != nil {
		return nil, err
	}
	return p.svc.GetLog(ctx, logID)
}

// GetLog retrieves a generation log
func (p *Policy) GetLog(ctx context.Context, id string) (*entity.GenerationLog, error) {
	return p.svc.GetLog(ctx, id)
}

// ListPathLogs retrieves a path's generation logs, newest first
func (p *Policy) ListPathLogs(ctx context.Context, pathID string, limit int) ([]entity.GenerationLog, error) {
	return p.svc.ListPathLogs(ctx, pathID, limit)
}

// GetDailyUsage retrieves the usage counter for an ISO date
func (p *Policy) GetDailyUsage(ctx context.Context, date string) (*entity.DailyUsage, error) {
	return p.svc.GetDailyUsage(ctx, date)
}

// ProcessDueAutomationPaths is the scheduled trigger body. It scans active
// schedule-mode paths, fires the due ones sequentially in definition order,
// and contains every per-path failure: a failed generation closes that path's
// log and the loop moves on.
//
// A path that already ran on the current date is skipped even inside its due
// window, so a trigger cadence finer than the window cannot double-fire it.
func (p *Policy) ProcessDueAutomationPaths(ctx context.Context) error {
	settings, err := p.settings.GenerationSettings(ctx)
	if err != nil {
		return fmt.Errorf("resolving generation settings: %w", err)
	}
	if !settings.AutomationEnabled {
		p.logger.Debug("automation disabled, skipping trigger")
		return nil
	}
	if settings.APIKey == "" {
		return entity.ErrMissingAPIKey
	}

	paths, err := p.svc.ListActiveScheduled(ctx)
	if err != nil {
		return fmt.Errorf("listing scheduled paths: %w", err)
	}

	now := time.Now()
	for i := range paths {
		path := &paths[i]

		if !path.DueAt(now) || path.RanOn(now) {
			continue
		}

		if err := p.runPath(ctx, path, settings); err != nil {
			p.logger.Error("automation run failed",
				"path_id", path.ID,
				"path_name", path.Name,
				"error", err,
			)
			continue
		}

		p.logger.Info("automation run completed",
			"path_id", path.ID,
			"path_name", path.Name,
		)
	}

	return nil
}

// runPath executes one generation + publish cycle for a due path
func (p *Policy) runPath(ctx context.Context, path *entity.AutomationPath, settings GenerationSettings) error {
	log, err := p.svc.StartRun(ctx, path)
	if err != nil {
		return fmt.Errorf("opening generation log: %w", err)
	}

	prompt := buildPrompt(path)

	out, err := p.generator.Generate(ctx, GenerateInput{
		APIKey:      settings.APIKey,
		Model:       settings.Model,
		Temperature: settings.Temperature,
		MaxTokens:   settings.MaxTokens,
		Prompt:      prompt,
		Language:    path.FirstLanguage(),
	})
	if err != nil {
		p.closeFailed(ctx, log.ID, prompt, settings.Model, err)
		return fmt.Errorf("%w: %v", entity.ErrGenerationFailed, err)
	}

	imageURL := ""
	if path.IncludeImages && p.media != nil {
		imageURL = p.pickImage(ctx, path)
	}

	published, err := p.publisher.PublishGenerated(ctx, PublishInput{
		Title:       out.Title,
		Content:     out.Content,
		Excerpt:     out.Excerpt,
		ImageURL:    imageURL,
		Category:    path.Category,
		Subcategory: path.Subcategory,
		Tags:        path.Topics,
	})
	if err != nil {
		p.closeFailed(ctx, log.ID, prompt, out.Model, err)
		return fmt.Errorf("publishing generated post: %w", err)
	}

	genMS := out.Duration.Milliseconds()
	if err := p.svc.CloseRun(ctx, log.ID, entity.CloseResult{
		Status:           entity.LogStatusCompleted,
		GeneratedTitle:   &out.Title,
		GeneratedContent: &out.Content,
		GeneratedExcerpt: &out.Excerpt,
		TokensUsed:       &out.TokensUsed,
		GenerationTimeMS: &genMS,
		PublishedPostID:  &published.PostID,
		ModelUsed:        &out.Model,
		PromptUsed:       &prompt,
	}); err != nil {
		return fmt.Errorf("closing generation log: %w", err)
	}

	return nil
}

// pickImage selects an image from the path's media folder, skipping images
// already attached to recent posts. Image selection is best effort: a post
// without an image is better than no post.
func (p *Policy) pickImage(ctx context.Context, path *entity.AutomationPath) string {
	var exclude []string
	if p.recent != nil {
		urls, err := p.recent.RecentImageURLs(ctx, 20)
		if err != nil {
			p.logger.Warn("listing recent images failed", "error", err)
		} else {
			exclude = urls
		}
	}

	url, err := p.media.PickImage(ctx, path.MediaFolder, exclude)
	if err != nil {
		p.logger.Warn("image selection failed",
			"path_id", path.ID,
			"media_folder", path.MediaFolder,
			"error", err,
		)
		return ""
	}

	return url
}

func (p *Policy) closeFailed(ctx context.Context, logID, prompt, model string, cause error) {
	msg := cause.Error()
	result := entity.CloseResult{
		Status:       entity.LogStatusFailed,
		ErrorMessage: &msg,
		PromptUsed:   &prompt,
	}
	if model != "" {
		result.ModelUsed = &model
	}

	if err := p.svc.CloseRun(ctx, logID, result); err != nil {
		p.logger.Error("closing failed log", "log_id", logID, "error", err)
	}
}

// buildPrompt derives the generation prompt from the path's template, or from
// its topics and content type when no template is configured
func buildPrompt(path *entity.AutomationPath) string {
	if path.PromptTemplate != "" {
		return path.PromptTemplate
	}

	contentType := path.ContentType
	if contentType == "" {
		contentType = "blog post"
	}

	var b strings.Builder
	fmt.Fprintf(&b, "Write a %s for a restaurant marketing website", contentType)
	if path.Category != "" {
		fmt.Fprintf(&b, " in the %q category", path.Category)
	}
	if len(path.Topics) > 0 {
		fmt.Fprintf(&b, " about: %s", strings.Join(path.Topics, ", "))
	}
	b.WriteString(".")

	return b.String()
}
