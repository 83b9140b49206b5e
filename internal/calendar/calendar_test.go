package calendar

import (
	"testing"
	"time"
)

func mustLoc(t *testing.T, name string) *time.Location {
	t.Helper()
	loc, err := time.LoadLocation(name)
	if err != nil {
		t.Skipf("tzdata for %s unavailable: %v", name, err)
	}
	return loc
}

// TestForLocaleFirstWeekday verifies the locale → first weekday mapping.
// A wrong first day shifts every day in a week summary.
func TestForLocaleFirstWeekday(t *testing.T) {
	tests := []struct {
		locale string
		want   time.Weekday
	}{
		{"en-US", time.Sunday},
		{"en", time.Sunday},
		{"de-DE", time.Monday},
		{"en-GB", time.Monday},
		{"fr", time.Monday},
		{"ar-EG", time.Saturday},
		{"ja-JP", time.Sunday},
		{"dv-MV", time.Friday},
		{"dv", time.Friday},
	}
	for _, tt := range tests {
		cal, err := ForLocale(tt.locale, time.UTC)
		if err != nil {
			t.Fatalf("ForLocale(%q): %v", tt.locale, err)
		}
		if cal.FirstWeekday != tt.want {
			t.Errorf("ForLocale(%q).FirstWeekday = %v, want %v", tt.locale, cal.FirstWeekday, tt.want)
		}
	}
}

// TestForLocaleInvalid verifies malformed tags are rejected.
func TestForLocaleInvalid(t *testing.T) {
	if _, err := ForLocale("not a locale!", time.UTC); err == nil {
		t.Error("expected error for malformed locale")
	}
}

// TestWeekMondayStart verifies week resolution for a Monday-first calendar,
// including a reference date on the last day of the week.
func TestWeekMondayStart(t *testing.T) {
	cal := Calendar{FirstWeekday: time.Monday, Location: time.UTC}

	// Sunday 2026-03-08 belongs to the week of Monday 2026-03-02.
	w := cal.Week(time.Date(2026, 3, 8, 23, 59, 0, 0, time.UTC))
	wantStart := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	if !w.Start.Equal(wantStart) {
		t.Errorf("start = %v, want %v", w.Start, wantStart)
	}
	if !w.End.Equal(wantStart.AddDate(0, 0, 7)) {
		t.Errorf("end = %v, want %v", w.End, wantStart.AddDate(0, 0, 7))
	}
}

// TestWeekSundayStart verifies the same date lands in a different week
// when the locale starts weeks on Sunday.
func TestWeekSundayStart(t *testing.T) {
	cal := Calendar{FirstWeekday: time.Sunday, Location: time.UTC}
	w := cal.Week(time.Date(2026, 3, 8, 10, 0, 0, 0, time.UTC))
	if want := time.Date(2026, 3, 8, 0, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("start = %v, want %v", w.Start, want)
	}
}

// TestWeekFridayStart verifies a Friday-first week runs Friday through
// Thursday.
func TestWeekFridayStart(t *testing.T) {
	cal := Calendar{FirstWeekday: FirstWeekday("MV"), Location: time.UTC}

	// Thursday 2026-03-12 is the last day of the week of Friday 2026-03-06.
	w := cal.Week(time.Date(2026, 3, 12, 18, 0, 0, 0, time.UTC))
	if want := time.Date(2026, 3, 6, 0, 0, 0, 0, time.UTC); !w.Start.Equal(want) {
		t.Errorf("start = %v, want %v", w.Start, want)
	}
	if w.Start.Weekday() != time.Friday {
		t.Errorf("start weekday = %v, want Friday", w.Start.Weekday())
	}
}

// TestDaysAcrossDST verifies each day of a DST week starts at local midnight
// rather than drifting by the one-hour shift.
func TestDaysAcrossDST(t *testing.T) {
	berlin := mustLoc(t, "Europe/Berlin")
	cal := Calendar{FirstWeekday: time.Monday, Location: berlin}

	// Clocks go forward on Sunday 2026-03-29.
	w := cal.Week(time.Date(2026, 3, 26, 12, 0, 0, 0, berlin))
	days := cal.Days(w)
	if len(days) != 7 {
		t.Fatalf("days = %d, want 7", len(days))
	}
	for i, d := range days {
		if d.Hour() != 0 || d.Minute() != 0 {
			t.Errorf("day %d = %v, want local midnight", i, d)
		}
	}
	sunday := cal.Day(days[6])
	if got := sunday.End.Sub(sunday.Start); got != 23*time.Hour {
		t.Errorf("DST sunday length = %v, want 23h", got)
	}
}

// TestWeeksBetween verifies the week distance used by the history lock window.
func TestWeeksBetween(t *testing.T) {
	cal := Calendar{FirstWeekday: time.Monday, Location: time.UTC}
	now := time.Date(2026, 3, 11, 9, 0, 0, 0, time.UTC) // Wednesday
	tests := []struct {
		date time.Time
		want int
	}{
		{time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), 0},
		{time.Date(2026, 3, 8, 23, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC), 1},
		{time.Date(2026, 2, 28, 0, 0, 0, 0, time.UTC), 2},
		{time.Date(2026, 3, 16, 0, 0, 0, 0, time.UTC), -1},
	}
	for _, tt := range tests {
		if got := cal.WeeksBetween(tt.date, now); got != tt.want {
			t.Errorf("WeeksBetween(%v, now) = %d, want %d", tt.date, got, tt.want)
		}
	}
}

// TestIntervalContains verifies half-open semantics.
func TestIntervalContains(t *testing.T) {
	start := time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
	i := Interval{Start: start, End: start.Add(24 * time.Hour)}
	if !i.Contains(start) {
		t.Error("interval should contain its start")
	}
	if i.Contains(i.End) {
		t.Error("interval should not contain its end")
	}
}
