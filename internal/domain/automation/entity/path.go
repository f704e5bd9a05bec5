package entity

import (
	"fmt"
	"strconv"
	"strings"
	"time"
)

// PathMode determines how an automation path is triggered
type PathMode string

const (
	PathModeSchedule PathMode = "schedule"
	PathModeManual   PathMode = "manual"
)

// ScheduleType represents the recurrence of a scheduled path
type ScheduleType string

const (
	ScheduleTypeDaily   ScheduleType = "daily"
	ScheduleTypeWeekly  ScheduleType = "weekly"
	ScheduleTypeMonthly ScheduleType = "monthly"
)

// PathStatus represents the current status of an automation path
type PathStatus string

const (
	PathStatusActive   PathStatus = "active"
	PathStatusInactive PathStatus = "inactive"
	PathStatusPaused   PathStatus = "paused"
)

// dueWindowMinutes is the tolerance applied around schedule_time. A path is
// due when the current minute is strictly within this window of the
// configured minute, in the configured hour.
const dueWindowMinutes = 30

// AutomationPath is a saved rule describing what content to generate, on what
// schedule, and where to publish it.
type AutomationPath struct {
	ID             string       `json:"id"`
	Name           string       `json:"name"`
	ContentType    string       `json:"content_type"`
	AssistantID    string       `json:"assistant_id,omitempty"` // opaque reference, not validated
	Category       string       `json:"category"`
	Subcategory    string       `json:"subcategory,omitempty"`
	Topics         []string     `json:"topics"`
	Mode           PathMode     `json:"mode"`
	ScheduleType   ScheduleType `json:"schedule_type"`
	ScheduleTime   string       `json:"schedule_time"` // "HH:MM", 24-hour
	ScheduleDay    int          `json:"schedule_day"`  // weekday 0-6 for weekly, day-of-month 1-31 for monthly
	PromptTemplate string       `json:"prompt_template,omitempty"`
	IncludeImages  bool         `json:"include_images"`
	MediaFolder    string       `json:"media_folder,omitempty"`
	Languages      []string     `json:"languages"`
	Status         PathStatus   `json:"status"`
	CreatedAt      time.Time    `json:"created_at"`
	LastRun        *time.Time   `json:"last_run,omitempty"`
}

// PathStats holds per-path generation aggregates joined from the log table
type PathStats struct {
	TotalGenerations int64   `json:"total_generations"`
	Successful       int64   `json:"successful"`
	Failed           int64   `json:"failed"`
	TotalTokens      int64   `json:"total_tokens"`
	SuccessRate      float64 `json:"success_rate"`
}

// Validate checks the path's invariants
func (p *AutomationPath) Validate() error {
	if p.Name == "" {
		return ErrEmptyPathName
	}
	if p.Mode != PathModeSchedule && p.Mode != PathModeManual {
		return ErrInvalidMode
	}
	if p.Mode == PathModeSchedule {
		if _, _, err := parseScheduleTime(p.ScheduleTime); err != nil {
			return err
		}
		switch p.ScheduleType {
		case ScheduleTypeDaily:
		case ScheduleTypeWeekly:
			if p.ScheduleDay < 0 || p.ScheduleDay > 6 {
				return ErrInvalidScheduleDay
			}
		case ScheduleTypeMonthly:
			if p.ScheduleDay < 1 || p.ScheduleDay > 31 {
				return ErrInvalidScheduleDay
			}
		default:
			return ErrInvalidScheduleType
		}
	}
	return nil
}

// DueAt reports whether the path's schedule window covers the given time.
// The window is the configured hour with a strict <30 minute tolerance around
// the configured minute. Manual paths are never due.
func (p *AutomationPath) DueAt(now time.Time) bool {
	if p.Mode != PathModeSchedule {
		return false
	}

	schedHour, schedMinute, err := parseScheduleTime(p.ScheduleTime)
	if err != nil {
		return false
	}

	switch p.ScheduleType {
	case ScheduleTypeWeekly:
		if int(now.Weekday()) != p.ScheduleDay {
			return false
		}
	case ScheduleTypeMonthly:
		if now.Day() != p.ScheduleDay {
			return false
		}
	case ScheduleTypeDaily:
	default:
		return false
	}

	if now.Hour() != schedHour {
		return false
	}

	delta := now.Minute() - schedMinute
	if delta < 0 {
		delta = -delta
	}
	return delta < dueWindowMinutes
}

// RanOn reports whether the path already ran on the calendar date of t.
// Used to guarantee at-most-once firing per scheduled date even when the
// trigger cadence is finer than the due window.
func (p *AutomationPath) RanOn(t time.Time) bool {
	if p.LastRun == nil {
		return false
	}
	ly, lm, ld := p.LastRun.In(t.Location()).Date()
	ty, tm, td := t.Date()
	return ly == ty && lm == tm && ld == td
}

// FirstTopic returns the first configured topic, or empty
func (p *AutomationPath) FirstTopic() string {
	if len(p.Topics) == 0 {
		return ""
	}
	return p.Topics[0]
}

// FirstLanguage returns the first configured language, defaulting to "en"
func (p *AutomationPath) FirstLanguage() string {
	if len(p.Languages) == 0 {
		return "en"
	}
	return p.Languages[0]
}

func parseScheduleTime(s string) (hour, minute int, err error) {
	parts := strings.SplitN(s, ":", 2)
	if len(parts) != 2 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduleTime, s)
	}
	hour, err = strconv.Atoi(parts[0])
	if err != nil || hour < 0 || hour > 23 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduleTime, s)
	}
	minute, err = strconv.Atoi(parts[1])
	if err != nil || minute < 0 || minute > 59 {
		return 0, 0, fmt.Errorf("%w: %q", ErrInvalidScheduleTime, s)
	}
	return hour, minute, nil
}
