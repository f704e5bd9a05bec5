package entity

import "errors"

// Domain errors for posts and scheduled posts
var (
	// Validation errors
	ErrEmptyTitle    = errors.New("title is required")
	ErrEmptyContent  = errors.New("content is required")
	ErrInvalidRating = errors.New("rating must be between 1 and 5")

	// Business logic errors
	ErrPostNotFound          = errors.New("post not found")
	ErrScheduledPostNotFound = errors.New("scheduled post not found")
	ErrAlreadyPublished      = errors.New("scheduled post is already published")
	ErrPublishFailed         = errors.New("publishing failed")
	ErrRetriesExhausted      = errors.New("scheduled post exceeded its retry budget")
)
