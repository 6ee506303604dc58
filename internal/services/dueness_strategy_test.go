package services

import (
	"testing"
	"time"

	"budgetfriendly/internal/core"
)

func date(y, m, d int) time.Time {
	return time.Date(y, time.Month(m), d, 10, 0, 0, 0, time.UTC)
}

func TestDailyChecker(t *testing.T) {
	checker := DailyChecker{}
	cases := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"never executed", time.Time{}, date(2026, 8, 25), true},
		{"executed yesterday", date(2026, 8, 24), date(2026, 8, 25), true},
		{"executed today", date(2026, 8, 25), date(2026, 8, 25), false},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := checker.IsDue(tc.last, tc.now, core.Date{}); got != tc.want {
				t.Errorf("IsDue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestWeeklyChecker(t *testing.T) {
	checker := WeeklyChecker{}
	cases := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"never executed", time.Time{}, date(2026, 8, 25), true},
		{"six days ago", date(2026, 8, 19), date(2026, 8, 25), false},
		{"seven days ago", date(2026, 8, 18), date(2026, 8, 25), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := checker.IsDue(tc.last, tc.now, core.Date{}); got != tc.want {
				t.Errorf("IsDue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestMonthlyChecker(t *testing.T) {
	checker := MonthlyChecker{}
	start := core.NewDate(2026, 1, 15)
	cases := []struct {
		name  string
		last  time.Time
		now   time.Time
		start core.Date
		want  bool
	}{
		{"never executed", time.Time{}, date(2026, 8, 25), start, true},
		{"already ran this month", date(2026, 8, 15), date(2026, 8, 25), start, false},
		{"new month before target day", date(2026, 7, 15), date(2026, 8, 10), start, false},
		{"new month on target day", date(2026, 7, 15), date(2026, 8, 15), start, true},
		{"target day clamped to short month", date(2026, 1, 31), date(2026, 2, 28), core.NewDate(2026, 1, 31), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := checker.IsDue(tc.last, tc.now, tc.start); got != tc.want {
				t.Errorf("IsDue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestYearlyChecker(t *testing.T) {
	checker := YearlyChecker{}
	start := core.NewDate(2020, 3, 10)
	cases := []struct {
		name string
		last time.Time
		now  time.Time
		want bool
	}{
		{"never executed", time.Time{}, date(2026, 8, 25), true},
		{"already ran this year", date(2026, 3, 10), date(2026, 8, 25), false},
		{"new year before target month", date(2025, 3, 10), date(2026, 2, 1), false},
		{"new year on target day", date(2025, 3, 10), date(2026, 3, 10), true},
		{"new year past target month", date(2025, 3, 10), date(2026, 5, 1), true},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			if got := checker.IsDue(tc.last, tc.now, start); got != tc.want {
				t.Errorf("IsDue() = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestGetDuenessChecker(t *testing.T) {
	for _, freq := range []core.RepetitionTypes{core.Daily, core.Weekly, core.Monthly, core.Yearly} {
		if _, err := GetDuenessChecker(freq); err != nil {
			t.Errorf("GetDuenessChecker(%s) unexpected error: %v", freq, err)
		}
	}
	if _, err := GetDuenessChecker("fortnightly"); err == nil {
		t.Error("expected error for unknown frequency")
	}
}
