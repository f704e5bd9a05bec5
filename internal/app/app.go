package app

import (
	"context"
	"fmt"
	"log/slog"
	"net/http"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/go-chi/chi/v5"
	"github.com/go-chi/chi/v5/middleware"
	"github.com/jackc/pgx/v5/pgxpool"

	"github.com/fooodis/content-engine/internal/cache"
	"github.com/fooodis/content-engine/internal/config"
	httpcontroller "github.com/fooodis/content-engine/internal/controller/http"
	"github.com/fooodis/content-engine/internal/database"
	autodao "github.com/fooodis/content-engine/internal/domain/automation/dao"
	autopolicy "github.com/fooodis/content-engine/internal/domain/automation/policy"
	"github.com/fooodis/content-engine/internal/domain/automation/scheduler"
	autoservice "github.com/fooodis/content-engine/internal/domain/automation/service"
	postdao "github.com/fooodis/content-engine/internal/domain/post/dao"
	postpolicy "github.com/fooodis/content-engine/internal/domain/post/policy"
	postservice "github.com/fooodis/content-engine/internal/domain/post/service"
	settingsdao "github.com/fooodis/content-engine/internal/domain/settings/dao"
	settingsservice "github.com/fooodis/content-engine/internal/domain/settings/service"
	"github.com/fooodis/content-engine/internal/httpx/upstream/openai"
	"github.com/fooodis/content-engine/internal/storage"
)

// App is the main application container
type App struct {
	cfg        config.Config
	httpServer *http.Server
	router     *chi.Mux
	logger     *slog.Logger

	pool  *pgxpool.Pool
	redis *cache.Cache
	media *storage.MediaLibrary

	// Domain policies (interfaces for HTTP handlers)
	automationPolicy *autopolicy.Policy
	postPolicy       *postpolicy.Policy
	postService      *postservice.Service
	settingsService  *settingsservice.Service

	// Trigger for due automation paths
	scheduler *scheduler.Scheduler
}

// NewApp creates and initializes the application
func NewApp(ctx context.Context, cfg config.Config) (*App, error) {
	// Initialize logger
	logger := slog.New(slog.NewJSONHandler(os.Stdout, &slog.HandlerOptions{
		Level: slog.LevelInfo,
	}))

	// Initialize router with middleware
	r := chi.NewRouter()
	r.Use(middleware.RequestID)
	r.Use(middleware.RealIP)
	r.Use(middleware.Recoverer)
	r.Use(middleware.Logger)
	r.Use(middleware.Timeout(30 * time.Second))

	app := &App{
		cfg:    cfg,
		router: r,
		logger: logger,
	}

	// Initialize infrastructure
	if err := app.initInfrastructure(ctx); err != nil {
		return nil, fmt.Errorf("initializing infrastructure: %w", err)
	}

	// Initialize domain layers
	app.initDomains()

	// Register routes
	app.registerRoutes()

	// Initialize HTTP server
	app.httpServer = &http.Server{
		Addr:         cfg.Server.Address(),
		Handler:      app.router,
		ReadTimeout:  cfg.Server.ReadTimeout,
		WriteTimeout: cfg.Server.WriteTimeout,
		IdleTimeout:  cfg.Server.IdleTimeout,
	}

	// Initialize the automation trigger
	if cfg.Scheduler.Enabled {
		app.scheduler = scheduler.New(app.automationPolicy, cfg.Scheduler.Interval, logger)
	}

	return app, nil
}

// initInfrastructure initializes infrastructure components (DB, Redis, S3)
func (a *App) initInfrastructure(ctx context.Context) error {
	pool, err := database.NewPostgresPool(ctx, a.cfg.Database)
	if err != nil {
		return fmt.Errorf("connecting to postgres: %w", err)
	}
	a.pool = pool

	// Redis is optional: without it the settings store just skips its cache
	if a.cfg.Redis.Addr != "" {
		redisCache, err := cache.New(ctx, a.cfg.Redis.Addr, a.cfg.Redis.Password, a.cfg.Redis.DB)
		if err != nil {
			return fmt.Errorf("connecting to redis: %w", err)
		}
		a.redis = redisCache
	}

	media, err := storage.NewMediaLibrary(storage.MediaConfig{
		Endpoint:        a.cfg.S3.Endpoint,
		AccessKeyID:     a.cfg.S3.AccessKeyID,
		SecretAccessKey: a.cfg.S3.SecretAccessKey,
		Bucket:          a.cfg.S3.Bucket,
		Region:          a.cfg.S3.Region,
		PublicURL:       a.cfg.S3.PublicURL,
	})
	if err != nil {
		return fmt.Errorf("initializing media library: %w", err)
	}
	a.media = media

	return nil
}

// initDomains initializes domain layers (DAO, Service, Policy)
func (a *App) initDomains() {
	// Settings
	settingsRepo := settingsdao.NewSettingsPostgres(a.pool)
	a.settingsService = settingsservice.New(settingsRepo, a.redis, a.cfg.Redis.TTL)

	// Posts and the scheduled post state machine
	postsRepo := postdao.NewPostPostgres(a.pool)
	scheduledRepo := postdao.NewScheduledPostPostgres(a.pool)
	categoriesRepo := postdao.NewCategoryPostgres(a.pool)

	a.postService = postservice.New(postsRepo, scheduledRepo, categoriesRepo)
	a.postPolicy = postpolicy.New(a.postService, scheduledRepo)

	// Content generator
	openaiClient := openai.New(
		openai.WithBaseURL(a.cfg.OpenAI.BaseURL),
		openai.WithHTTPClient(&http.Client{Timeout: a.cfg.OpenAI.Timeout}),
	)
	generator := openai.NewGenerator(openaiClient)

	// Automation
	pathsRepo := autodao.NewPathPostgres(a.pool)
	logsRepo := autodao.NewLogPostgres(a.pool)
	autoService := autoservice.New(pathsRepo, logsRepo)

	a.automationPolicy = autopolicy.New(
		autoService,
		&settingsProviderAdapter{a.settingsService},
		&generatorAdapter{generator},
		&publisherAdapter{a.postService},
		a.media,
		a.postService,
		a.logger,
	)
}

// registerRoutes registers all HTTP routes
func (a *App) registerRoutes() {
	// Health check
	a.router.Get("/healthz", a.healthHandler)
	a.router.Get("/readyz", a.readyHandler)

	// API v1
	a.router.Route("/api/v1", func(r chi.Router) {
		automationHandler := httpcontroller.NewAutomationHandler(a.automationPolicy)
		automationHandler.RegisterRoutes(r)

		scheduledHandler := httpcontroller.NewScheduledPostHandler(a.postPolicy)
		scheduledHandler.RegisterRoutes(r)

		postHandler := httpcontroller.NewPostHandler(a.postPolicy)
		postHandler.RegisterRoutes(r)

		settingsHandler := httpcontroller.NewSettingsHandler(a.settingsService)
		settingsHandler.RegisterRoutes(r)

		mediaHandler := httpcontroller.NewMediaHandler(&mediaLibraryAdapter{a.media})
		mediaHandler.RegisterRoutes(r)
	})
}

// healthHandler handles health check requests
func (a *App) healthHandler(w http.ResponseWriter, r *http.Request) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ok"}`))
}

// readyHandler handles readiness check requests
func (a *App) readyHandler(w http.ResponseWriter, r *http.Request) {
	if err := a.pool.Ping(r.Context()); err != nil {
		w.Header().Set("Content-Type", "application/json")
		w.WriteHeader(http.StatusServiceUnavailable)
		w.Write([]byte(`{"status":"database unavailable"}`))
		return
	}

	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(http.StatusOK)
	w.Write([]byte(`{"status":"ready"}`))
}

// Run starts the application and blocks until shutdown signal
func (a *App) Run(ctx context.Context) error {
	// Start the automation trigger if enabled
	if a.scheduler != nil {
		a.scheduler.Start(ctx)
	}

	// Channel to receive errors from server
	errCh := make(chan error, 1)

	// Start HTTP server in goroutine
	go func() {
		a.logger.Info("starting HTTP server", "addr", a.cfg.Server.Address())
		if err := a.httpServer.ListenAndServe(); err != nil && err != http.ErrServerClosed {
			errCh <- err
		}
	}()

	// Wait for shutdown signal
	quit := make(chan os.Signal, 1)
	signal.Notify(quit, syscall.SIGINT, syscall.SIGTERM)

	select {
	case err := <-errCh:
		return fmt.Errorf("server error: %w", err)
	case sig := <-quit:
		a.logger.Info("received shutdown signal", "signal", sig.String())
	case <-ctx.Done():
		a.logger.Info("context cancelled")
	}

	// Graceful shutdown
	return a.Shutdown(context.Background())
}

// Shutdown gracefully shuts down the application
func (a *App) Shutdown(ctx context.Context) error {
	a.logger.Info("shutting down...")

	// Stop the trigger first so no run is cut off mid-generation
	if a.scheduler != nil {
		a.scheduler.Stop()
	}

	// Shutdown HTTP server with timeout
	shutdownCtx, cancel := context.WithTimeout(ctx, 10*time.Second)
	defer cancel()

	if err := a.httpServer.Shutdown(shutdownCtx); err != nil {
		return fmt.Errorf("shutting down HTTP server: %w", err)
	}

	if a.redis != nil {
		if err := a.redis.Close(); err != nil {
			a.logger.Warn("closing redis", "error", err)
		}
	}
	a.pool.Close()

	a.logger.Info("shutdown complete")
	return nil
}

// settingsProviderAdapter adapts the settings service to policy.SettingsProvider
type settingsProviderAdapter struct {
	svc *settingsservice.Service
}

func (a *settingsProviderAdapter) GenerationSettings(ctx context.Context) (autopolicy.GenerationSettings, error) {
	s, err := a.svc.Get(ctx)
	if err != nil {
		return autopolicy.GenerationSettings{}, err
	}
	return autopolicy.GenerationSettings{
		APIKey:            s.OpenAIAPIKey,
		Model:             s.Model,
		Temperature:       s.Temperature,
		MaxTokens:         s.MaxTokens,
		AutomationEnabled: s.AutomationEnabled,
	}, nil
}

// generatorAdapter adapts openai.Generator to policy.Generator
type generatorAdapter struct {
	generator *openai.Generator
}

func (a *generatorAdapter) Generate(ctx context.Context, in autopolicy.GenerateInput) (*autopolicy.GenerateOutput, error) {
	out, err := a.generator.Generate(ctx, openai.GenerateInput{
		APIKey:      in.APIKey,
		Model:       in.Model,
		Temperature: in.Temperature,
		MaxTokens:   in.MaxTokens,
		Prompt:      in.Prompt,
		Language:    in.Language,
	})
	if err != nil {
		return nil, err
	}
	return &autopolicy.GenerateOutput{
		Title:      out.Title,
		Content:    out.Content,
		Excerpt:    out.Excerpt,
		TokensUsed: out.TokensUsed,
		Model:      out.Model,
		Duration:   out.Duration,
	}, nil
}

// publisherAdapter adapts the post service to policy.Publisher
type publisherAdapter struct {
	svc *postservice.Service
}

func (a *publisherAdapter) PublishGenerated(ctx context.Context, in autopolicy.PublishInput) (*autopolicy.PublishOutput, error) {
	post, err := a.svc.PublishGenerated(ctx, postservice.PublishGeneratedInput{
		Title:       in.Title,
		Content:     in.Content,
		Excerpt:     in.Excerpt,
		ImageURL:    in.ImageURL,
		Category:    in.Category,
		Subcategory: in.Subcategory,
		Tags:        in.Tags,
	})
	if err != nil {
		return nil, err
	}
	return &autopolicy.PublishOutput{
		PostID: post.ID,
		Slug:   post.Slug,
	}, nil
}

// mediaLibraryAdapter adapts storage.MediaLibrary to the media controller
type mediaLibraryAdapter struct {
	media *storage.MediaLibrary
}

func (a *mediaLibraryAdapter) Upload(ctx context.Context, in httpcontroller.MediaUploadInput) (*httpcontroller.MediaUploadOutput, error) {
	out, err := a.media.Upload(ctx, storage.UploadInput{
		Reader:      in.Reader,
		ContentType: in.ContentType,
		Size:        in.Size,
		Filename:    in.Filename,
		Folder:      in.Folder,
	})
	if err != nil {
		return nil, err
	}
	return &httpcontroller.MediaUploadOutput{
		URL:  out.URL,
		Key:  out.Key,
		Size: out.Size,
	}, nil
}

func (a *mediaLibraryAdapter) ListImages(ctx context.Context, folder string) ([]string, error) {
	return a.media.ListImages(ctx, folder)
}
