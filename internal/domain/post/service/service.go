package service

import (
	"context"
	"time"

	"github.com/google/uuid"

	"github.com/fooodis/content-engine/internal/domain/post/dao"
	"github.com/fooodis/content-engine/internal/domain/post/entity"
)

// Service handles business logic for blog posts
type Service struct {
	posts      dao.PostRepository
	scheduled  dao.ScheduledPostRepository
	categories dao.CategoryRepository
}

// New creates a new post service
func New(posts dao.PostRepository, scheduled dao.ScheduledPostRepository, categories dao.CategoryRepository) *Service {
	return &Service{
		posts:      posts,
		scheduled:  scheduled,
		categories: categories,
	}
}

// PublishGeneratedInput represents generated content ready to become a post
type PublishGeneratedInput struct {
	Title       string
	Content     string
	Excerpt     string
	ImageURL    string
	Category    string
	Subcategory string
	Tags        []string
}

// PublishGenerated converts automation output into a published post. The post
// insert and the category counter bump commit together.
func (s *Service) PublishGenerated(ctx context.Context, in PublishGeneratedInput) (*entity.BlogPost, error) {
	if in.Title == "" {
		return nil, entity.ErrEmptyTitle
	}
	if in.Content == "" {
		return nil, entity.ErrEmptyContent
	}

	category := in.Category
	if category == "" {
		category = entity.UncategorizedCategory
	}

	now := time.Now()
	post := &entity.BlogPost{
		ID:            uuid.New().String(),
		Title:         in.Title,
		Slug:          entity.Slugify(in.Title),
		Content:       in.Content,
		Excerpt:       in.Excerpt,
		ImageURL:      in.ImageURL,
		Author:        entity.AutomationAuthor,
		Category:      category,
		Subcategory:   in.Subcategory,
		Tags:          in.Tags,
		Status:        entity.PostStatusPublished,
		PublishedDate: now,
		CreatedAt:     now,
		UpdatedAt:     now,
	}

	if err := s.posts.CreatePublished(ctx, post); err != nil {
		return nil, err
	}

	return post, nil
}

// GetPost retrieves a post by ID
func (s *Service) GetPost(ctx context.Context, id string) (*entity.BlogPost, error) {
	post, err := s.posts.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, entity.ErrPostNotFound
	}
	return post, nil
}

// GetPostBySlug retrieves the newest post carrying the slug
func (s *Service) GetPostBySlug(ctx context.Context, slug string) (*entity.BlogPost, error) {
	post, err := s.posts.GetBySlug(ctx, slug)
	if err != nil {
		return nil, err
	}
	if post == nil {
		return nil, entity.ErrPostNotFound
	}
	return post, nil
}

// ListInput represents input for listing posts
type ListInput struct {
	Category string
	Limit    int
	Offset   int
}

// ListOutput represents output from listing posts
type ListOutput struct {
	Posts []entity.BlogPost
	Total int64
}

// ListPosts retrieves published posts, newest first
func (s *Service) ListPosts(ctx context.Context, in ListInput) (*ListOutput, error) {
	status := entity.PostStatusPublished
	filter := dao.PostFilter{Category: in.Category, Status: &status}

	opts := dao.ListOptions{Limit: in.Limit, Offset: in.Offset}
	if opts.Limit == 0 {
		opts.Limit = 20
	}

	posts, err := s.posts.List(ctx, filter, opts)
	if err != nil {
		return nil, err
	}

	total, err := s.posts.Count(ctx, filter)
	if err != nil {
		return nil, err
	}

	return &ListOutput{Posts: posts, Total: total}, nil
}

// RecordView bumps the post's view counter
func (s *Service) RecordView(ctx context.Context, id string) error {
	return s.posts.IncrementViews(ctx, id)
}

// RatePost accumulates a 1-5 rating into the post's running average
func (s *Service) RatePost(ctx context.Context, id string, rating int) (*entity.BlogPost, error) {
	if rating < 1 || rating > 5 {
		return nil, entity.ErrInvalidRating
	}

	if err := s.posts.AddRating(ctx, id, rating); err != nil {
		return nil, err
	}

	return s.GetPost(ctx, id)
}

// GetScheduledPost retrieves a scheduled post by ID
func (s *Service) GetScheduledPost(ctx context.Context, id string) (*entity.ScheduledPost, error) {
	sp, err := s.scheduled.GetByID(ctx, id)
	if err != nil {
		return nil, err
	}
	if sp == nil {
		return nil, entity.ErrScheduledPostNotFound
	}
	return sp, nil
}

// GetScheduledPostHistory retrieves the event trail of a scheduled post
func (s *Service) GetScheduledPostHistory(ctx context.Context, id string) ([]entity.HistoryEvent, error) {
	if _, err := s.GetScheduledPost(ctx, id); err != nil {
		return nil, err
	}
	return s.scheduled.History(ctx, id)
}

// ListCategories retrieves all categories with their post counters
func (s *Service) ListCategories(ctx context.Context) ([]entity.Category, error) {
	return s.categories.List(ctx)
}

// RecentImageURLs exposes the image URLs of the most recent posts, used by
// the generation pipeline to avoid reattaching the same image
func (s *Service) RecentImageURLs(ctx context.Context, limit int) ([]string, error) {
	return s.posts.RecentImageURLs(ctx, limit)
}
