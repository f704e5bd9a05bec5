package http

import (
	autopolicy "github.com/fooodis/content-engine/internal/domain/automation/policy"
	postpolicy "github.com/fooodis/content-engine/internal/domain/post/policy"
	settingsservice "github.com/fooodis/content-engine/internal/domain/settings/service"
)

// The concrete domain types wired in app must satisfy the handler interfaces
var (
	_ AutomationPolicy    = (*autopolicy.Policy)(nil)
	_ ScheduledPostPolicy = (*postpolicy.Policy)(nil)
	_ PostPolicy          = (*postpolicy.Policy)(nil)
	_ SettingsService     = (*settingsservice.Service)(nil)
)
