package entity

import (
	"time"
)

// LogStatus represents the state of a generation attempt
type LogStatus string

const (
	LogStatusPending   LogStatus = "pending"
	LogStatusCompleted LogStatus = "completed"
	LogStatusFailed    LogStatus = "failed"
)

// GenerationLog is the audit record of one attempt to run an automation path.
// A log is created pending and closed exactly once into a terminal status.
type GenerationLog struct {
	ID               string     `json:"id"`
	AutomationPathID string     `json:"automation_path_id"`
	PathName         string     `json:"path_name"` // snapshot, path may be renamed later
	Status           LogStatus  `json:"status"`
	ContentType      string     `json:"content_type"`
	Category         string     `json:"category"`
	Topic            string     `json:"topic,omitempty"`
	Language         string     `json:"language,omitempty"`
	StartedAt        time.Time  `json:"started_at"`
	CompletedAt      *time.Time `json:"completed_at,omitempty"`
	GeneratedTitle   string     `json:"generated_title,omitempty"`
	GeneratedContent string     `json:"generated_content,omitempty"`
	GeneratedExcerpt string     `json:"generated_excerpt,omitempty"`
	TokensUsed       int        `json:"tokens_used,omitempty"`
	GenerationTimeMS int64      `json:"generation_time_ms,omitempty"`
	PublishedPostID  string     `json:"published_post_id,omitempty"`
	PublishedAt      *time.Time `json:"published_at,omitempty"`
	ModelUsed        string     `json:"model_used,omitempty"`
	PromptUsed       string     `json:"prompt_used,omitempty"`
	ErrorMessage     string     `json:"error_message,omitempty"`
}

// IsTerminal reports whether the log has been closed
func (l *GenerationLog) IsTerminal() bool {
	return l.Status == LogStatusCompleted || l.Status == LogStatusFailed
}

// CloseResult is the sparse patch applied when closing a log. Nil fields are
// left untouched.
type CloseResult struct {
	Status           LogStatus
	GeneratedTitle   *string
	GeneratedContent *string
	GeneratedExcerpt *string
	TokensUsed       *int
	GenerationTimeMS *int64
	PublishedPostID  *string
	ModelUsed        *string
	PromptUsed       *string
	ErrorMessage     *string
}

// Validate checks the close transition's invariants: completed needs content
// or a published post behind it, failed needs an error message.
func (r *CloseResult) Validate() error {
	switch r.Status {
	case LogStatusCompleted:
		if r.PublishedPostID == nil && r.GeneratedContent == nil {
			return ErrCloseWithoutContent
		}
	case LogStatusFailed:
		if r.ErrorMessage == nil || *r.ErrorMessage == "" {
			return ErrCloseWithoutError
		}
	default:
		return ErrInvalidLogStatus
	}
	return nil
}

// DailyUsage is the per-day aggregate of token consumption, keyed by ISO date
type DailyUsage struct {
	Date               string `json:"date"` // "2006-01-02"
	TotalTokens        int64  `json:"total_tokens"`
	RequestsCount      int64  `json:"requests_count"`
	SuccessfulRequests int64  `json:"successful_requests"`
	FailedRequests     int64  `json:"failed_requests"`
}
