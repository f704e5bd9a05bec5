package entity

import "errors"

// Settings holds the platform configuration persisted in the settings table
// and mirrored into the cache
type Settings struct {
	OpenAIAPIKey      string  `json:"openai_api_key"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	AutomationEnabled bool    `json:"automation_enabled"`
}

// Defaults applied when a key has never been written
const (
	DefaultModel       = "gpt-4o-mini"
	DefaultTemperature = 0.7
	DefaultMaxTokens   = 2000
)

// Masked returns a copy safe to expose over the API: the key is reduced to a
// presence flag
func (s Settings) Masked() MaskedSettings {
	return MaskedSettings{
		HasAPIKey:         s.OpenAIAPIKey != "",
		Model:             s.Model,
		Temperature:       s.Temperature,
		MaxTokens:         s.MaxTokens,
		AutomationEnabled: s.AutomationEnabled,
	}
}

// MaskedSettings is the API-facing projection of Settings
type MaskedSettings struct {
	HasAPIKey         bool    `json:"has_api_key"`
	Model             string  `json:"model"`
	Temperature       float64 `json:"temperature"`
	MaxTokens         int     `json:"max_tokens"`
	AutomationEnabled bool    `json:"automation_enabled"`
}

// Patch is a sparse update to Settings
type Patch struct {
	OpenAIAPIKey      *string  `json:"openai_api_key,omitempty"`
	Model             *string  `json:"model,omitempty"`
	Temperature       *float64 `json:"temperature,omitempty"`
	MaxTokens         *int     `json:"max_tokens,omitempty"`
	AutomationEnabled *bool    `json:"automation_enabled,omitempty"`
}

// Validate checks the patch's invariants
func (p Patch) Validate() error {
	if p.Temperature != nil && (*p.Temperature < 0 || *p.Temperature > 2) {
		return ErrInvalidTemperature
	}
	if p.MaxTokens != nil && *p.MaxTokens <= 0 {
		return ErrInvalidMaxTokens
	}
	return nil
}

// Domain errors for settings
var (
	ErrInvalidTemperature = errors.New("temperature must be between 0 and 2")
	ErrInvalidMaxTokens   = errors.New("max_tokens must be positive")
)
