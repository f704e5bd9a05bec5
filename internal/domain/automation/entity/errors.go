package entity

import "errors"

// Domain errors for automation paths and generation logs
var (
	// Validation errors
	ErrEmptyPathName       = errors.New("path name is required")
	ErrInvalidMode         = errors.New("mode must be schedule or manual")
	ErrInvalidScheduleType = errors.New("schedule type must be daily, weekly or monthly")
	ErrInvalidScheduleTime = errors.New("schedule time must be HH:MM 24-hour")
	ErrInvalidScheduleDay  = errors.New("schedule day out of range for schedule type")
	ErrInvalidPathStatus   = errors.New("invalid path status")
	ErrInvalidLogStatus    = errors.New("log status must be completed or failed")
	ErrCloseWithoutContent = errors.New("completed log requires generated content or a published post")
	ErrCloseWithoutError   = errors.New("failed log requires an error message")

	// Business logic errors
	ErrPathNotFound     = errors.New("automation path not found")
	ErrLogNotFound      = errors.New("generation log not found")
	ErrLogAlreadyClosed = errors.New("generation log is already closed")

	// Generation errors
	ErrGenerationFailed = errors.New("content generation failed")
	ErrMissingAPIKey    = errors.New("completion API key is not configured")
)
