package entity

import (
	"testing"
	"time"
)

func dailyPath(scheduleTime string) *AutomationPath {
	return &AutomationPath{
		ID:           "path-1",
		Name:         "Daily blog",
		Mode:         PathModeSchedule,
		ScheduleType: ScheduleTypeDaily,
		ScheduleTime: scheduleTime,
		Status:       PathStatusActive,
	}
}

func at(t *testing.T, value string) time.Time {
	t.Helper()
	ts, err := time.Parse("2006-01-02 15:04", value)
	if err != nil {
		t.Fatalf("parsing time %q: %v", value, err)
	}
	return ts
}

func TestDueAtDaily(t *testing.T) {
	tests := []struct {
		name         string
		scheduleTime string
		now          string
		want         bool
	}{
		{"exact minute", "14:10", "2026-03-04 14:10", true},
		{"five before", "14:10", "2026-03-04 14:05", true},
		{"twenty five after", "14:10", "2026-03-04 14:35", true},
		{"twenty nine after", "14:10", "2026-03-04 14:39", true},
		{"thirty after is outside", "14:10", "2026-03-04 14:40", false},
		{"wrong hour same minute", "14:10", "2026-03-04 15:10", false},
		{"hour before", "14:10", "2026-03-04 13:55", false},
		{"midnight schedule", "00:00", "2026-03-04 00:29", true},
		{"midnight schedule next hour", "00:00", "2026-03-04 01:00", false},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			p := dailyPath(tt.scheduleTime)
			if got := p.DueAt(at(t, tt.now)); got != tt.want {
				t.Errorf("DueAt(%s) with schedule %s = %v, want %v", tt.now, tt.scheduleTime, got, tt.want)
			}
		})
	}
}

func TestDueAtWeekly(t *testing.T) {
	p := dailyPath("09:00")
	p.ScheduleType = ScheduleTypeWeekly
	p.ScheduleDay = int(time.Monday)

	// 2026-03-02 is a Monday
	if !p.DueAt(at(t, "2026-03-02 09:15")) {
		t.Error("expected due on Monday 09:15")
	}
	if p.DueAt(at(t, "2026-03-03 09:15")) {
		t.Error("expected not due on Tuesday 09:15")
	}
	if p.DueAt(at(t, "2026-03-02 10:00")) {
		t.Error("expected not due on Monday 10:00")
	}
}

func TestDueAtMonthly(t *testing.T) {
	p := dailyPath("08:00")
	p.ScheduleType = ScheduleTypeMonthly
	p.ScheduleDay = 15

	if !p.DueAt(at(t, "2026-03-15 08:20")) {
		t.Error("expected due on the 15th at 08:20")
	}
	if p.DueAt(at(t, "2026-03-16 08:20")) {
		t.Error("expected not due on the 16th")
	}
}

func TestDueAtManualNeverDue(t *testing.T) {
	p := dailyPath("09:00")
	p.Mode = PathModeManual

	if p.DueAt(at(t, "2026-03-04 09:00")) {
		t.Error("manual path must never be due")
	}
}

func TestDueAtMalformedTime(t *testing.T) {
	for _, bad := range []string{"", "9", "24:00", "12:60", "ab:cd"} {
		p := dailyPath(bad)
		if p.DueAt(at(t, "2026-03-04 09:00")) {
			t.Errorf("path with schedule_time %q must not be due", bad)
		}
	}
}

func TestRanOn(t *testing.T) {
	p := dailyPath("14:10")

	if p.RanOn(at(t, "2026-03-04 14:10")) {
		t.Error("path without last_run must not report a run")
	}

	last := at(t, "2026-03-04 14:12")
	p.LastRun = &last

	if !p.RanOn(at(t, "2026-03-04 14:35")) {
		t.Error("expected run recorded for the same date")
	}
	if p.RanOn(at(t, "2026-03-05 14:10")) {
		t.Error("run on a previous date must not block the next day")
	}
}

func TestValidate(t *testing.T) {
	t.Run("valid daily", func(t *testing.T) {
		if err := dailyPath("09:00").Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("empty name", func(t *testing.T) {
		p := dailyPath("09:00")
		p.Name = ""
		if err := p.Validate(); err != ErrEmptyPathName {
			t.Errorf("expected ErrEmptyPathName, got %v", err)
		}
	})

	t.Run("weekly day out of range", func(t *testing.T) {
		p := dailyPath("09:00")
		p.ScheduleType = ScheduleTypeWeekly
		p.ScheduleDay = 7
		if err := p.Validate(); err != ErrInvalidScheduleDay {
			t.Errorf("expected ErrInvalidScheduleDay, got %v", err)
		}
	})

	t.Run("monthly day zero", func(t *testing.T) {
		p := dailyPath("09:00")
		p.ScheduleType = ScheduleTypeMonthly
		p.ScheduleDay = 0
		if err := p.Validate(); err != ErrInvalidScheduleDay {
			t.Errorf("expected ErrInvalidScheduleDay, got %v", err)
		}
	})

	t.Run("manual mode skips schedule checks", func(t *testing.T) {
		p := dailyPath("")
		p.Mode = PathModeManual
		if err := p.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})
}

func TestCloseResultValidate(t *testing.T) {
	content := "generated body"
	msg := "boom"

	t.Run("completed needs content or post", func(t *testing.T) {
		r := CloseResult{Status: LogStatusCompleted}
		if err := r.Validate(); err != ErrCloseWithoutContent {
			t.Errorf("expected ErrCloseWithoutContent, got %v", err)
		}

		r.GeneratedContent = &content
		if err := r.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("failed needs error message", func(t *testing.T) {
		r := CloseResult{Status: LogStatusFailed}
		if err := r.Validate(); err != ErrCloseWithoutError {
			t.Errorf("expected ErrCloseWithoutError, got %v", err)
		}

		r.ErrorMessage = &msg
		if err := r.Validate(); err != nil {
			t.Errorf("unexpected error: %v", err)
		}
	})

	t.Run("pending is not a close status", func(t *testing.T) {
		r := CloseResult{Status: LogStatusPending, GeneratedContent: &content}
		if err := r.Validate(); err != ErrInvalidLogStatus {
			t.Errorf("expected ErrInvalidLogStatus, got %v", err)
		}
	})
}
