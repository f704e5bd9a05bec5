package entity

import (
	"strings"
	"time"
)

// PostStatus represents the publication state of a blog post
type PostStatus string

const (
	PostStatusPublished PostStatus = "published"
	PostStatusDraft     PostStatus = "draft"
)

// AutomationAuthor is the author identity stamped on AI-generated posts
const AutomationAuthor = "Fooodis AI"

// UncategorizedCategory is excluded from category post counters
const UncategorizedCategory = "Uncategorized"

// BlogPost is a published article
type BlogPost struct {
	ID            string     `json:"id"`
	Title         string     `json:"title"`
	Slug          string     `json:"slug"`
	Content       string     `json:"content"`
	Excerpt       string     `json:"excerpt,omitempty"`
	ImageURL      string     `json:"image_url,omitempty"`
	Author        string     `json:"author"`
	Category      string     `json:"category"`
	Subcategory   string     `json:"subcategory,omitempty"`
	Tags          []string   `json:"tags"`
	Status        PostStatus `json:"status"`
	Views         int64      `json:"views"`
	RatingSum     int64      `json:"rating_sum"`
	RatingCount   int64      `json:"rating_count"`
	PublishedDate time.Time  `json:"published_date"`
	CreatedAt     time.Time  `json:"created_at"`
	UpdatedAt     time.Time  `json:"updated_at"`
}

// AverageRating returns the running average of submitted ratings
func (p *BlogPost) AverageRating() float64 {
	if p.RatingCount == 0 {
		return 0
	}
	return float64(p.RatingSum) / float64(p.RatingCount)
}

// Category groups posts and tracks how many published posts it holds
type Category struct {
	ID        string    `json:"id"`
	Name      string    `json:"name"`
	PostCount int64     `json:"post_count"`
	CreatedAt time.Time `json:"created_at"`
}

// Slugify projects a title onto its URL slug: lowercase, runs of
// non-alphanumerics collapsed to single hyphens, leading/trailing hyphens
// stripped. Uniqueness is not enforced.
func Slugify(title string) string {
	var b strings.Builder
	b.Grow(len(title))

	prevHyphen := false
	for _, r := range strings.ToLower(title) {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			b.WriteRune(r)
			prevHyphen = false
		default:
			if !prevHyphen && b.Len() > 0 {
				b.WriteByte('-')
				prevHyphen = true
			}
		}
	}

	return strings.TrimRight(b.String(), "-")
}
