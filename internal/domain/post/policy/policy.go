package policy

import (
	"context"
	"fmt"
	"time"

	"github.com/google/uuid"

	"github.com/fooodis/content-engine/internal/domain/post/dao"
	"github.com/fooodis/content-engine/internal/domain/post/entity"
	"github.com/fooodis/content-engine/internal/domain/post/service"
)

// Policy orchestrates post use-cases, including the scheduled post publish
// state machine
type Policy struct {
	svc       *service.Service
	scheduled dao.ScheduledPostRepository
}

// New creates a new post policy
func New(svc *service.Service, scheduled dao.ScheduledPostRepository) *Policy {
	return &Policy{
		svc:       svc,
		scheduled: scheduled,
	}
}

// PublishScheduledOutput represents the outcome of publishing a scheduled post
type PublishScheduledOutput struct {
	ScheduledPostID string `json:"scheduled_post_id"`
	BlogPostID      string `json:"blog_post_id"`
	Title           string `json:"title"`
}

// PublishScheduledPost drives pending -> publishing -> {published, failed}.
//
// The publishing marker is persisted before the publish write, so a crash
// mid-publish leaves a visible stuck state instead of silently retrying. An
// already-published post short-circuits with its existing blog post id. On
// failure the retry counter advances; the post returns to pending until the
// budget is spent, then lands in failed. The retry trigger itself is external.
func (p *Policy) PublishScheduledPost(ctx context.Context, id, source string) (*PublishScheduledOutput, error) {
	sp, err := p.svc.GetScheduledPost(ctx, id)
	if err != nil {
		return nil, err
	}

	if sp.Status == entity.ScheduledPostStatusPublished {
		return &PublishScheduledOutput{
			ScheduledPostID: sp.ID,
			BlogPostID:      sp.PublishedPostID,
			Title:           sp.Title,
		}, entity.ErrAlreadyPublished
	}

	if err := p.scheduled.MarkPublishing(ctx, sp.ID); err != nil {
		return nil, err
	}

	now := time.Now()
	post := &entity.BlogPost{
		ID:            uuid.New().String(),
		Title:         sp.Title,
		Slug:          entity.Slugify(sp.Title),
		Content:       sp.Content,
		Excerpt:       sp.Excerpt,
		ImageURL:      sp.ImageURL,
		Author:        sp.Author,
		Category:      sp.Category,
		Subcategory:   sp.Subcategory,
		Tags:          sp.Tags,
		Status:        entity.PostStatusPublished,
		PublishedDate: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	event := &entity.HistoryEvent{
		ID:              uuid.New().String(),
		ScheduledPostID: sp.ID,
		Type:            entity.HistoryEventPublished,
		BlogPostID:      post.ID,
		PublishedAt:     &now,
		Source:          source,
		CreatedAt:       now,
	}

	if err := p.scheduled.CompletePublish(ctx, sp, post, event); err != nil {
		return nil, p.recordFailure(ctx, sp, err)
	}

	return &PublishScheduledOutput{
		ScheduledPostID: sp.ID,
		BlogPostID:      post.ID,
		Title:           sp.Title,
	}, nil
}

// recordFailure advances the retry counter and persists the failure. The
// returned error carries the terminal-or-pending outcome as its sentinel with
// the publish cause attached.
func (p *Policy) recordFailure(ctx context.Context, sp *entity.ScheduledPost, cause error) error {
	sp.RetryCount++
	sp.ErrorMessage = cause.Error()

	if sp.RetriesExhausted() {
		sp.Status = entity.ScheduledPostStatusFailed
	} else {
		sp.Status = entity.ScheduledPostStatusPending
	}

	now := time.Now()
	event := &entity.HistoryEvent{
		ID:              uuid.New().String(),
		ScheduledPostID: sp.ID,
		Type:            entity.HistoryEventFailed,
		Error:           cause.Error(),
		RetryCount:      sp.RetryCount,
		CreatedAt:       now,
	}

	// Best effort: the publish error matters more than the bookkeeping one
	_ = p.scheduled.RecordFailure(ctx, sp, event)

	if sp.Status == entity.ScheduledPostStatusFailed {
		return fmt.Errorf("%w: %v", entity.ErrRetriesExhausted, cause)
	}
	return fmt.Errorf("%w: %v", entity.ErrPublishFailed, cause)
}

// GetScheduledPost exposes the scheduled post for observability of the state
// machine
func (p *Policy) GetScheduledPost(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	return p.svc.GetScheduledPost(ctx, id)
}

// GetScheduledPostHistory exposes the event trail
func (p *Policy) GetScheduledPostHistory(ctx context.Context, id string) ([]entity.HistoryEvent, error) {
	return p.svc.GetScheduledPostHistory(ctx, id)
}

// ListPosts retrieves published posts
func (p *Policy) ListPosts(ctx context.Context, in service.ListInput) (*service.ListOutput, error) {
	return p.svc.ListPosts(ctx, in)
}

// GetPostBySlug retrieves the newest post carrying the slug
func (p *Policy) GetPostBySlug(ctx context.Context, slug string) (*entity.BlogPost, error) {
	return p.svc.GetPostBySlug(ctx, slug)
}

// RecordView bumps the post's view counter
func (p *Policy) RecordView(ctx context.Context, id string) error {
	return p.svc.RecordView(ctx, id)
}

// RatePost accumulates a 1-5 rating
func (p *Policy) RatePost(ctx context.Context, id string, rating int) (*entity.BlogPost, error) {
	return p.svc.RatePost(ctx, id, rating)
}

// ListCategories retrieves all categories with their post counters
func (p *Policy) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return p.svc.ListCategories(ctx)
}
