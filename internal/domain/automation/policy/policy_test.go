package policy

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/fooodis/content-engine/internal/domain/automation/dao"
	"github.com/fooodis/content-engine/internal/domain/automation/entity"
	"github.com/fooodis/content-engine/internal/domain/automation/service"
)

// fakePathRepo is an in-memory PathRepository
type fakePathRepo struct {
	paths []*entity.AutomationPath
}

func (f *fakePathRepo) Create(_ context.Context, p *entity.AutomationPath) error {
	f.paths = append(f.paths, p)
	return nil
}

func (f *fakePathRepo) GetByID(_ context.Context, id string) (*entity.AutomationPath, error) {
	for _, p := range f.paths {
		if p.ID == id {
			cp := *p
			return &cp, nil
		}
	}
	return nil, nil
}

func (f *fakePathRepo) Update(_ context.Context, path *entity.AutomationPath) error {
	for i, p := range f.paths {
		if p.ID == path.ID {
			f.paths[i] = path
			return nil
		}
	}
	return entity.ErrPathNotFound
}

func (f *fakePathRepo) List(context.Context, dao.PathFilter) ([]entity.AutomationPath, error) {
	out := make([]entity.AutomationPath, len(f.paths))
	for i, p := range f.paths {
		out[i] = *p
	}
	return out, nil
}

func (f *fakePathRepo) ListActiveScheduled(context.Context) ([]entity.AutomationPath, error) {
	var out []entity.AutomationPath
	for _, p := range f.paths {
		if p.Status == entity.PathStatusActive && p.Mode == entity.PathModeSchedule {
			out = append(out, *p)
		}
	}
	return out, nil
}

func (f *fakePathRepo) GetStats(context.Context, []string) (map[string]entity.PathStats, error) {
	return map[string]entity.PathStats{}, nil
}

// fakeLogRepo is an in-memory LogRepository with the one-shot close guard
type fakeLogRepo struct {
	logs map[string]*entity.GenerationLog
	repo *fakePathRepo
}

func newFakeLogRepo(repo *fakePathRepo) *fakeLogRepo {
	return &fakeLogRepo{logs: map[string]*entity.GenerationLog{}, repo: repo}
}

func (f *fakeLogRepo) Open(_ context.Context, log *entity.GenerationLog) error {
	f.logs[log.ID] = log
	for _, p := range f.repo.paths {
		if p.ID == log.AutomationPathID {
			started := log.StartedAt
			p.LastRun = &started
		}
	}
	return nil
}

func (f *fakeLogRepo) GetByID(_ context.Context, id string) (*entity.GenerationLog, error) {
	log, ok := f.logs[id]
	if !ok {
		return nil, nil
	}
	cp := *log
	return &cp, nil
}

func (f *fakeLogRepo) Close(_ context.Context, id string, result entity.CloseResult) error {
	log, ok := f.logs[id]
	if !ok {
		return entity.ErrLogNotFound
	}
	if log.IsTerminal() {
		return entity.ErrLogAlreadyClosed
	}

	log.Status = result.Status
	now := time.Now()
	log.CompletedAt = &now
	if result.GeneratedTitle != nil {
		log.GeneratedTitle = *result.GeneratedTitle
	}
	if result.GeneratedContent != nil {
		log.GeneratedContent = *result.GeneratedContent
	}
	if result.TokensUsed != nil {
		log.TokensUsed = *result.TokensUsed
	}
	if result.PublishedPostID != nil {
		log.PublishedPostID = *result.PublishedPostID
	}
	if result.ErrorMessage != nil {
		log.ErrorMessage = *result.ErrorMessage
	}
	return nil
}

func (f *fakeLogRepo) ListByPath(_ context.Context, pathID string, _ int) ([]entity.GenerationLog, error) {
	var out []entity.GenerationLog
	for _, l := range f.logs {
		if l.AutomationPathID == pathID {
			out = append(out, *l)
		}
	}
	return out, nil
}

func (f *fakeLogRepo) GetDailyUsage(context.Context, string) (*entity.DailyUsage, error) {
	return nil, nil
}

// Pipeline fakes

type fakeSettings struct {
	settings GenerationSettings
	err      error
}

func (f fakeSettings) GenerationSettings(context.Context) (GenerationSettings, error) {
	return f.settings, f.err
}

type fakeGenerator struct {
	out   *GenerateOutput
	err   error
	calls int
}

func (f *fakeGenerator) Generate(context.Context, GenerateInput) (*GenerateOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakePublisher struct {
	out   *PublishOutput
	err   error
	calls int
}

func (f *fakePublisher) PublishGenerated(context.Context, PublishInput) (*PublishOutput, error) {
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	return f.out, nil
}

type fakeMedia struct {
	url string
}

func (f fakeMedia) PickImage(context.Context, string, []string) (string, error) {
	return f.url, nil
}

type fakeRecent struct{}

func (fakeRecent) RecentImageURLs(context.Context, int) ([]string, error) { return nil, nil }

func enabledSettings() GenerationSettings {
	return GenerationSettings{
		APIKey:            "sk-test",
		Model:             "gpt-4o-mini",
		Temperature:       0.7,
		MaxTokens:         2000,
		AutomationEnabled: true,
	}
}

// duePath is active, scheduled daily, and due right now
func duePath(id string) *entity.AutomationPath {
	now := time.Now()
	return &entity.AutomationPath{
		ID:           id,
		Name:         "path " + id,
		Mode:         entity.PathModeSchedule,
		ScheduleType: entity.ScheduleTypeDaily,
		ScheduleTime: now.Format("15:04"),
		Status:       entity.PathStatusActive,
		Topics:       []string{"menus"},
		Languages:    []string{"en"},
	}
}

func testLogger() *slog.Logger {
	return slog.New(slog.NewTextHandler(io.Discard, nil))
}

func TestProcessDueAutomationPaths(t *testing.T) {
	ctx := context.Background()

	t.Run("due path generates and publishes", func(t *testing.T) {
		paths := &fakePathRepo{paths: []*entity.AutomationPath{duePath("p1")}}
		logs := newFakeLogRepo(paths)
		svc := service.New(paths, logs)

		gen := &fakeGenerator{out: &GenerateOutput{
			Title:      "Fresh Autumn Menu",
			Content:    "Body",
			Excerpt:    "Short",
			TokensUsed: 321,
			Model:      "gpt-4o-mini",
			Duration:   1200 * time.Millisecond,
		}}
		pub := &fakePublisher{out: &PublishOutput{PostID: "post-1", Slug: "fresh-autumn-menu"}}

		p := New(svc, fakeSettings{settings: enabledSettings()}, gen, pub, fakeMedia{url: "http://cdn/img.jpg"}, fakeRecent{}, testLogger())

		if err := p.ProcessDueAutomationPaths(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if gen.calls != 1 {
			t.Errorf("expected one generation, got %d", gen.calls)
		}
		if pub.calls != 1 {
			t.Errorf("expected one publish, got %d", pub.calls)
		}

		if len(logs.logs) != 1 {
			t.Fatalf("expected one log, got %d", len(logs.logs))
		}
		for _, log := range logs.logs {
			if log.Status != entity.LogStatusCompleted {
				t.Errorf("expected completed log, got %s", log.Status)
			}
			if log.PublishedPostID != "post-1" {
				t.Errorf("expected published post id, got %q", log.PublishedPostID)
			}
			if log.TokensUsed != 321 {
				t.Errorf("expected tokens recorded, got %d", log.TokensUsed)
			}
		}
	})

	t.Run("path that already ran today is skipped", func(t *testing.T) {
		path := duePath("p1")
		now := time.Now()
		path.LastRun = &now

		paths := &fakePathRepo{paths: []*entity.AutomationPath{path}}
		logs := newFakeLogRepo(paths)
		svc := service.New(paths, logs)

		gen := &fakeGenerator{out: &GenerateOutput{Title: "t", Content: "c"}}
		pub := &fakePublisher{out: &PublishOutput{PostID: "post-1"}}
		p := New(svc, fakeSettings{settings: enabledSettings()}, gen, pub, nil, nil, testLogger())

		if err := p.ProcessDueAutomationPaths(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gen.calls != 0 {
			t.Errorf("expected no generation for deduped path, got %d", gen.calls)
		}
	})

	t.Run("generation failure closes the log and spares other paths", func(t *testing.T) {
		failing := duePath("p1")
		healthy := duePath("p2")
		paths := &fakePathRepo{paths: []*entity.AutomationPath{failing, healthy}}
		logs := newFakeLogRepo(paths)
		svc := service.New(paths, logs)

		gen := &sequenceGenerator{
			results: []generateResult{
				{err: errors.New("model overloaded")},
				{out: &GenerateOutput{Title: "ok", Content: "body", Model: "gpt-4o-mini"}},
			},
		}
		pub := &fakePublisher{out: &PublishOutput{PostID: "post-2"}}
		p := New(svc, fakeSettings{settings: enabledSettings()}, gen, pub, nil, nil, testLogger())

		if err := p.ProcessDueAutomationPaths(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}

		if pub.calls != 1 {
			t.Errorf("expected the healthy path to publish, got %d calls", pub.calls)
		}

		var failed, completed int
		for _, log := range logs.logs {
			switch log.Status {
			case entity.LogStatusFailed:
				failed++
				if log.ErrorMessage == "" {
					t.Error("expected error message on failed log")
				}
			case entity.LogStatusCompleted:
				completed++
			}
		}
		if failed != 1 || completed != 1 {
			t.Errorf("expected 1 failed and 1 completed log, got %d/%d", failed, completed)
		}
	})

	t.Run("disabled automation is a no-op", func(t *testing.T) {
		paths := &fakePathRepo{paths: []*entity.AutomationPath{duePath("p1")}}
		logs := newFakeLogRepo(paths)
		svc := service.New(paths, logs)

		settings := enabledSettings()
		settings.AutomationEnabled = false
		gen := &fakeGenerator{}
		p := New(svc, fakeSettings{settings: settings}, gen, &fakePublisher{}, nil, nil, testLogger())

		if err := p.ProcessDueAutomationPaths(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gen.calls != 0 {
			t.Errorf("expected no generation when automation disabled, got %d", gen.calls)
		}
	})

	t.Run("missing api key aborts the trigger", func(t *testing.T) {
		paths := &fakePathRepo{paths: []*entity.AutomationPath{duePath("p1")}}
		logs := newFakeLogRepo(paths)
		svc := service.New(paths, logs)

		settings := enabledSettings()
		settings.APIKey = ""
		p := New(svc, fakeSettings{settings: settings}, &fakeGenerator{}, &fakePublisher{}, nil, nil, testLogger())

		if err := p.ProcessDueAutomationPaths(ctx); !errors.Is(err, entity.ErrMissingAPIKey) {
			t.Errorf("expected ErrMissingAPIKey, got %v", err)
		}
	})

	t.Run("path outside its window does not fire", func(t *testing.T) {
		path := duePath("p1")
		path.ScheduleTime = time.Now().Add(2 * time.Hour).Format("15:04")

		paths := &fakePathRepo{paths: []*entity.AutomationPath{path}}
		logs := newFakeLogRepo(paths)
		svc := service.New(paths, logs)

		gen := &fakeGenerator{}
		p := New(svc, fakeSettings{settings: enabledSettings()}, gen, &fakePublisher{}, nil, nil, testLogger())

		if err := p.ProcessDueAutomationPaths(ctx); err != nil {
			t.Fatalf("unexpected error: %v", err)
		}
		if gen.calls != 0 {
			t.Errorf("expected no generation outside the window, got %d", gen.calls)
		}
	})
}

type generateResult struct {
	out *GenerateOutput
	err error
}

// sequenceGenerator returns canned results in order
type sequenceGenerator struct {
	results []generateResult
	calls   int
}

func (s *sequenceGenerator) Generate(context.Context, GenerateInput) (*GenerateOutput, error) {
	if s.calls >= len(s.results) {
		return nil, errors.New("unexpected call")
	}
	r := s.results[s.calls]
	s.calls++
	return r.out, r.err
}

func TestRunPathNow(t *testing.T) {
	ctx := context.Background()

	path := duePath("p1")
	path.Mode = entity.PathModeManual
	path.ScheduleTime = ""

	paths := &fakePathRepo{paths: []*entity.AutomationPath{path}}
	logs := newFakeLogRepo(paths)
	svc := service.New(paths, logs)
	p := New(svc, fakeSettings{settings: enabledSettings()}, &fakeGenerator{}, &fakePublisher{}, nil, nil, testLogger())

	out, err := p.RunPathNow(ctx, "p1")
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if out.LogID == "" {
		t.Fatal("expected log id")
	}

	log, err := p.GetLog(ctx, out.LogID)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if log.Status != entity.LogStatusPending {
		t.Errorf("expected pending log, got %s", log.Status)
	}
	if log.PathName != path.Name {
		t.Errorf("expected path name snapshot %q, got %q", path.Name, log.PathName)
	}

	// Close it and verify the one-shot guard
	title := "Manual"
	content := "Body"
	if _, err := p.CloseRunLog(ctx, out.LogID, entity.CloseResult{
		Status:           entity.LogStatusCompleted,
		GeneratedTitle:   &title,
		GeneratedContent: &content,
	}); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}

	_, err = p.CloseRunLog(ctx, out.LogID, entity.CloseResult{
		Status:           entity.LogStatusCompleted,
		GeneratedContent: &content,
	})
	if !errors.Is(err, entity.ErrLogAlreadyClosed) {
		t.Errorf("expected ErrLogAlreadyClosed, got %v", err)
	}
}

func TestRunNowUnknownPath(t *testing.T) {
	paths := &fakePathRepo{}
	svc := service.New(paths, newFakeLogRepo(paths))
	p := New(svc, fakeSettings{settings: enabledSettings()}, &fakeGenerator{}, &fakePublisher{}, nil, nil, testLogger())

	_, err := p.RunPathNow(context.Background(), "missing")
	if !errors.Is(err, entity.ErrPathNotFound) {
		t.Errorf("expected ErrPathNotFound, got %v", err)
	}
}
