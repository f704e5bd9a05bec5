package service

import (
	"context"
	"encoding/json"
	"strconv"
	"time"

	"github.com/fooodis/content-engine/internal/cache"
	"github.com/fooodis/content-engine/internal/domain/settings/dao"
	"github.com/fooodis/content-engine/internal/domain/settings/entity"
)

// cacheKey is the fixed key the settings mirror lives under
const cacheKey = "fooodis:settings"

// Settings keys in the relational store
const (
	keyAPIKey            = "openai_api_key"
	keyModel             = "openai_model"
	keyTemperature       = "openai_temperature"
	keyMaxTokens         = "openai_max_tokens"
	keyAutomationEnabled = "automation_enabled"
)

// Service reads settings through the cache and writes them through to the
// relational store
type Service struct {
	repo     dao.SettingsRepository
	cache    *cache.Cache
	cacheTTL time.Duration
}

// New creates a new settings service. cache may be nil, in which case every
// read goes to the store.
func New(repo dao.SettingsRepository, c *cache.Cache, cacheTTL time.Duration) *Service {
	if cacheTTL <= 0 {
		cacheTTL = time.Hour
	}
	return &Service{
		repo:     repo,
		cache:    c,
		cacheTTL: cacheTTL,
	}
}

// Get retrieves the current settings, serving from the cache when fresh
func (s *Service) Get(ctx context.Context) (entity.Settings, error) {
	if s.cache != nil {
		if raw, err := s.cache.Get(ctx, cacheKey); err == nil {
			var settings entity.Settings
			if err := json.Unmarshal(raw, &settings); err == nil {
				return settings, nil
			}
			// Corrupt cache entry: fall through to the store
		}
	}

	values, err := s.repo.GetAll(ctx)
	if err != nil {
		return entity.Settings{}, err
	}

	settings := fromRows(values)

	if s.cache != nil {
		if raw, err := json.Marshal(settings); err == nil {
			_ = s.cache.Set(ctx, cacheKey, raw, s.cacheTTL)
		}
	}

	return settings, nil
}

// Update applies a sparse patch and invalidates the cache mirror
func (s *Service) Update(ctx context.Context, patch entity.Patch) (entity.Settings, error) {
	if err := patch.Validate(); err != nil {
		return entity.Settings{}, err
	}

	values := make(map[string]string)
	if patch.OpenAIAPIKey != nil {
		values[keyAPIKey] = *patch.OpenAIAPIKey
	}
	if patch.Model != nil {
		values[keyModel] = *patch.Model
	}
	if patch.Temperature != nil {
		values[keyTemperature] = strconv.FormatFloat(*patch.Temperature, 'f', -1, 64)
	}
	if patch.MaxTokens != nil {
		values[keyMaxTokens] = strconv.Itoa(*patch.MaxTokens)
	}
	if patch.AutomationEnabled != nil {
		values[keyAutomationEnabled] = strconv.FormatBool(*patch.AutomationEnabled)
	}

	if err := s.repo.Upsert(ctx, values); err != nil {
		return entity.Settings{}, err
	}

	if s.cache != nil {
		_ = s.cache.Delete(ctx, cacheKey)
	}

	return s.Get(ctx)
}

// fromRows maps raw settings rows onto the typed struct, applying defaults
func fromRows(values map[string]string) entity.Settings {
	settings := entity.Settings{
		OpenAIAPIKey:      values[keyAPIKey],
		Model:             values[keyModel],
		Temperature:       entity.DefaultTemperature,
		MaxTokens:         entity.DefaultMaxTokens,
		AutomationEnabled: true,
	}

	if settings.Model == "" {
		settings.Model = entity.DefaultModel
	}
	if v, ok := values[keyTemperature]; ok {
		if f, err := strconv.ParseFloat(v, 64); err == nil {
			settings.Temperature = f
		}
	}
	if v, ok := values[keyMaxTokens]; ok {
		if n, err := strconv.Atoi(v); err == nil && n > 0 {
			settings.MaxTokens = n
		}
	}
	if v, ok := values[keyAutomationEnabled]; ok {
		if b, err := strconv.ParseBool(v); err == nil {
			settings.AutomationEnabled = b
		}
	}

	return settings
}
