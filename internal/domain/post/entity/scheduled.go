package entity

import (
	"time"
)

// ScheduledPostStatus represents the retry-bounded publish state machine
type ScheduledPostStatus string

const (
	ScheduledPostStatusPending    ScheduledPostStatus = "pending"
	ScheduledPostStatusPublishing ScheduledPostStatus = "publishing"
	ScheduledPostStatusPublished  ScheduledPostStatus = "published"
	ScheduledPostStatusFailed     ScheduledPostStatus = "failed"
)

// DefaultMaxRetries bounds publish attempts for a scheduled post
const DefaultMaxRetries = 3

// ScheduledPost is a separately-authored draft awaiting publication, distinct
// from automation output. Publishing it drives pending -> publishing ->
// {published, failed} with a count-bounded retry budget.
type ScheduledPost struct {
	ID              string              `json:"id"`
	Title           string              `json:"title"`
	Content         string              `json:"content"`
	Excerpt         string              `json:"excerpt,omitempty"`
	ImageURL        string              `json:"image_url,omitempty"`
	Author          string              `json:"author"`
	Category        string              `json:"category"`
	Subcategory     string              `json:"subcategory,omitempty"`
	Tags            []string            `json:"tags"`
	ScheduledFor    *time.Time          `json:"scheduled_for,omitempty"`
	Status          ScheduledPostStatus `json:"status"`
	RetryCount      int                 `json:"retry_count"`
	MaxRetries      int                 `json:"max_retries"`
	ErrorMessage    string              `json:"error_message,omitempty"`
	LastAttempt     *time.Time          `json:"last_attempt,omitempty"`
	PublishedPostID string              `json:"published_post_id,omitempty"`
	CreatedAt       time.Time           `json:"created_at"`
	UpdatedAt       time.Time           `json:"updated_at"`
}

// RetriesExhausted reports whether the retry budget is spent
func (s *ScheduledPost) RetriesExhausted() bool {
	max := s.MaxRetries
	if max <= 0 {
		max = DefaultMaxRetries
	}
	return s.RetryCount >= max
}

// HistoryEventType classifies scheduled post history events
type HistoryEventType string

const (
	HistoryEventPublished HistoryEventType = "published"
	HistoryEventFailed    HistoryEventType = "failed"
)

// HistoryEvent is an append-only record of a scheduled post transition
type HistoryEvent struct {
	ID              string           `json:"id"`
	ScheduledPostID string           `json:"scheduled_post_id"`
	Type            HistoryEventType `json:"type"`
	BlogPostID      string           `json:"blog_post_id,omitempty"`
	PublishedAt     *time.Time       `json:"published_at,omitempty"`
	Source          string           `json:"source,omitempty"`
	Error           string           `json:"error,omitempty"`
	RetryCount      int              `json:"retry_count,omitempty"`
	CreatedAt       time.Time        `json:"created_at"`
}
