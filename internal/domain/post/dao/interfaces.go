package dao

import (
	"context"

	"github.com/fooodis/content-engine/internal/domain/post/entity"
)

// PostFilter contains filters for listing blog posts
type PostFilter struct {
	Category string
	Status   *entity.PostStatus
}

// ListOptions contains pagination options
type ListOptions struct {
	Limit  int
	Offset int
}

// PostRepository defines the interface for blog post data access
type PostRepository interface {
	// CreatePublished inserts a post and bumps the category counter (unless
	// Uncategorized) in one transaction
	CreatePublished(ctx context.Context, post *entity.BlogPost) error

	// GetByID retrieves a post by ID, nil when absent
	GetByID(ctx context.Context, id string) (*entity.BlogPost, error)

	// GetBySlug retrieves the newest post carrying the slug, nil when absent.
	// Slug uniqueness is not enforced.
	GetBySlug(ctx context.Context, slug string) (*entity.BlogPost, error)

	// List retrieves posts, newest first
	List(ctx context.Context, filter PostFilter, opts ListOptions) ([]entity.BlogPost, error)

	// Count returns the total count of posts matching the filter
	Count(ctx context.Context, filter PostFilter) (int64, error)

	// IncrementViews bumps the view counter
	IncrementViews(ctx context.Context, id string) error

	// AddRating accumulates a rating into the running sum and count
	AddRating(ctx context.Context, id string, rating int) error

	// RecentImageURLs returns image URLs used by the most recent posts,
	// consulted to avoid attaching the same image twice in a row
	RecentImageURLs(ctx context.Context, limit int) ([]string, error)
}

// ScheduledPostRepository defines the interface for the scheduled post state machine
type ScheduledPostRepository interface {
	// GetByID retrieves a scheduled post by ID, nil when absent
	GetByID(ctx context.Context, id string) (*entity.ScheduledPost, error)

	// Create inserts a new scheduled post in pending state
	Create(ctx context.Context, sp *entity.ScheduledPost) error

	// MarkPublishing persists the pending -> publishing transition before the
	// publish write so a crash leaves a visible stuck state
	MarkPublishing(ctx context.Context, id string) error

	// CompletePublish inserts the blog post, marks the scheduled post
	// published, appends the history event and bumps the category counter in
	// one transaction
	CompletePublish(ctx context.Context, sp *entity.ScheduledPost, post *entity.BlogPost, event *entity.HistoryEvent) error

	// RecordFailure persists the retry bookkeeping and appends the failure
	// history event in one transaction
	RecordFailure(ctx context.Context, sp *entity.ScheduledPost, event *entity.HistoryEvent) error

	// History retrieves a scheduled post's events, oldest first
	History(ctx context.Context, scheduledPostID string) ([]entity.HistoryEvent, error)
}

// CategoryRepository defines the interface for category data access
type CategoryRepository interface {
	// List retrieves all categories ordered by name
	List(ctx context.Context) ([]entity.Category, error)
}
