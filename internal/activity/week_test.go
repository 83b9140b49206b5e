package activity

import (
	"context"
	"errors"
	"math"
	"math/rand"
	"testing"
	"time"

	"github.com/claude/workpulse/internal/models"
)

func newWeek(src MetricSource, sessions SessionStore, access AccessPolicy, opts ...Option) *WeekAggregator {
	days := NewDayAggregator(src, testCal, testLog, opts...)
	return NewWeekAggregator(days, sessions, access, testLog)
}

func metric(t *testing.T, w *models.WeekSummary, kind models.MetricKind) models.MetricWeek {
	t.Helper()
	m, ok := w.Metric(kind)
	if !ok {
		t.Fatalf("metric %s missing from summary", kind)
	}
	return m
}

// TestAggregateWeekScenario walks the reference week: one Monday session
// 08:00–17:00 with 6000 of 9000 steps at work, 2000 steps on every other day.
func TestAggregateWeekScenario(t *testing.T) {
	src := newFakeSource()
	src.set(models.Steps, at(0, 8, 0), at(0, 17, 0), 6000)
	src.set(models.Steps, at(0, 0, 0), at(1, 0, 0), 9000)
	src.perDay[models.Steps] = func(int) float64 { return 2000 }
	store := &fakeSessions{sessions: []models.WorkSession{session(at(0, 8, 0), ptr(at(0, 17, 0)), 18)}}

	got, err := newWeek(src, store, openAccess).AggregateWeek(context.Background(), at(3, 12, 0))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.Locked {
		t.Fatal("week should not be locked")
	}
	if !got.WeekStart.Equal(monday) || !got.WeekEnd.Equal(at(7, 0, 0)) {
		t.Errorf("week = [%v, %v), want [%v, %v)", got.WeekStart, got.WeekEnd, monday, at(7, 0, 0))
	}

	steps := metric(t, got, models.Steps)
	if len(steps.History) != 7 {
		t.Fatalf("history = %d days, want 7", len(steps.History))
	}
	if h := steps.History[0]; h.Work != 6000 || h.Personal != 3000 || h.Label != "Mon" {
		t.Errorf("monday = %+v, want work 6000 personal 3000 label Mon", h)
	}
	for i, h := range steps.History[1:] {
		if h.Work != 0 || h.Personal != 2000 {
			t.Errorf("day %d = %+v, want work 0 personal 2000", i+1, h)
		}
	}
	if want := 6000.0 / 7; steps.WorkAverage != want {
		t.Errorf("work average = %f, want %f", steps.WorkAverage, want)
	}
	if want := 15000.0 / 7; steps.PersonalAverage != want {
		t.Errorf("personal average = %f, want %f", steps.PersonalAverage, want)
	}
	if math.Round(steps.WorkAverage) != 857 || math.Round(steps.PersonalAverage) != 2143 {
		t.Errorf("rounded averages = %.0f / %.0f, want 857 / 2143", steps.WorkAverage, steps.PersonalAverage)
	}
	if got.WorkedHours != 9 {
		t.Errorf("worked hours = %f, want 9", got.WorkedHours)
	}
	if got.EstimatedPay != 162 {
		t.Errorf("estimated pay = %f, want 162", got.EstimatedPay)
	}
}

// TestAggregateWeekAverageIdentity verifies that for every additive kind the
// weekly average is exactly the history sum divided by seven.
func TestAggregateWeekAverageIdentity(t *testing.T) {
	src := newFakeSource()
	src.perDay[models.Steps] = func(d int) float64 { return float64(1000 + 137*d) }
	src.perDay[models.Calories] = func(d int) float64 { return float64(300 + 11*d) }
	src.perDay[models.Distance] = func(d int) float64 { return 1.3 * float64(d) }
	src.perDay[models.Flights] = func(d int) float64 { return float64(d % 3) }
	src.set(models.Steps, at(1, 9, 0), at(1, 17, 0), 777)
	src.set(models.Calories, at(4, 7, 30), at(4, 16, 0), 123.5)
	store := &fakeSessions{sessions: []models.WorkSession{
		session(at(4, 7, 30), ptr(at(4, 16, 0)), 0),
		session(at(1, 9, 0), ptr(at(1, 17, 0)), 0),
	}}

	got, err := newWeek(src, store, openAccess).AggregateWeek(context.Background(), monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	for _, m := range got.Metrics {
		if !models.PolicyFor(m.Kind).Additive() {
			continue
		}
		var work, personal float64
		for _, h := range m.History {
			work += h.Work
			personal += h.Personal
		}
		if m.WorkAverage != work/7 {
			t.Errorf("%s work average = %v, want %v", m.Kind, m.WorkAverage, work/7)
		}
		if m.PersonalAverage != personal/7 {
			t.Errorf("%s personal average = %v, want %v", m.Kind, m.PersonalAverage, personal/7)
		}
	}
}

// TestAggregateWeekHeartRateExcludesZeroDays verifies days without a
// heart-rate signal don't pull the weekly average toward zero.
func TestAggregateWeekHeartRateExcludesZeroDays(t *testing.T) {
	daily := []float64{0, 80, 0, 90, 0, 0, 0}
	src := newFakeSource()
	src.perDay[models.HeartRate] = func(d int) float64 { return daily[d] }
	src.set(models.HeartRate, at(1, 9, 0), at(1, 17, 0), 80)
	src.set(models.HeartRate, at(3, 9, 0), at(3, 17, 0), 90)
	store := &fakeSessions{sessions: []models.WorkSession{
		session(at(3, 9, 0), ptr(at(3, 17, 0)), 0),
		session(at(1, 9, 0), ptr(at(1, 17, 0)), 0),
	}}

	got, err := newWeek(src, store, openAccess).AggregateWeek(context.Background(), monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	hr := metric(t, got, models.HeartRate)
	if hr.WorkAverage != 85 {
		t.Errorf("work average = %f, want 85", hr.WorkAverage)
	}
	if hr.PersonalAverage != 85 {
		t.Errorf("personal average = %f, want 85", hr.PersonalAverage)
	}
}

// TestMeanPositiveEmpty verifies an all-zero week averages to 0 rather than NaN.
func TestMeanPositiveEmpty(t *testing.T) {
	if got := meanPositive(make([]float64, 7)); got != 0 {
		t.Errorf("meanPositive(zeros) = %f, want 0", got)
	}
}

// TestAggregateWeekHistoryOrdering verifies history is chronological even
// when later days finish first.
func TestAggregateWeekHistoryOrdering(t *testing.T) {
	src := newFakeSource()
	src.perDay[models.Steps] = func(d int) float64 { return float64(d + 1) }
	// Monday waits longest, Sunday returns first.
	src.delay = func(start time.Time) time.Duration {
		d := int(start.Sub(monday).Hours() / 24)
		return time.Duration(7-d) * 5 * time.Millisecond
	}

	got, err := newWeek(src, &fakeSessions{}, openAccess).AggregateWeek(context.Background(), monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	steps := metric(t, got, models.Steps)
	for i, h := range steps.History {
		if !h.Date.Equal(at(i, 0, 0)) {
			t.Errorf("history[%d].Date = %v, want %v", i, h.Date, at(i, 0, 0))
		}
		if h.Personal != float64(i+1) {
			t.Errorf("history[%d].Personal = %f, want %d", i, h.Personal, i+1)
		}
	}
}

// TestFoldWeekSortsShuffledResults verifies folding is independent of the
// order day results arrive in.
func TestFoldWeekSortsShuffledResults(t *testing.T) {
	week := testCal.Week(monday)
	results := make([]*DayResult, 7)
	for i := range results {
		results[i] = &DayResult{
			Date:   at(i, 0, 0),
			Splits: map[models.MetricKind]models.Split{models.Steps: {Personal: float64(i)}},
		}
	}
	rand.New(rand.NewSource(7)).Shuffle(len(results), func(i, j int) {
		results[i], results[j] = results[j], results[i]
	})

	got := FoldWeek(week, results, []models.MetricKind{models.Steps})
	for i, h := range got.Metrics[0].History {
		if h.Personal != float64(i) {
			t.Errorf("history[%d] = %+v, want personal %d", i, h, i)
		}
	}
}

// TestAggregateWeekLockedShortCircuit verifies a denied week issues no
// source queries, reads no sessions, and returns the locked summary.
func TestAggregateWeekLockedShortCircuit(t *testing.T) {
	src := newFakeSource()
	store := &fakeSessions{sessions: []models.WorkSession{session(at(0, 8, 0), ptr(at(0, 17, 0)), 0)}}

	got, err := newWeek(src, store, fakeAccess{history: false, detailed: true}).AggregateWeek(context.Background(), monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !got.Locked {
		t.Error("summary should be locked")
	}
	if len(got.Metrics) != 0 {
		t.Errorf("locked summary carries %d metrics", len(got.Metrics))
	}
	if n := src.callCount(); n != 0 {
		t.Errorf("source queries = %d, want 0", n)
	}
	if store.calls != 0 {
		t.Errorf("session reads = %d, want 0", store.calls)
	}
}

// TestAggregateWeekDetailedMetricsLocked verifies gated kinds are never
// queried without the detailed-metrics entitlement.
func TestAggregateWeekDetailedMetricsLocked(t *testing.T) {
	src := newFakeSource()
	store := &fakeSessions{sessions: []models.WorkSession{session(at(2, 8, 0), ptr(at(2, 12, 0)), 0)}}

	got, err := newWeek(src, store, fakeAccess{history: true, detailed: false}).AggregateWeek(context.Background(), monday)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	seen := src.kindsQueried()
	for _, k := range []models.MetricKind{models.Distance, models.HeartRate, models.Flights} {
		if seen[k] != 0 {
			t.Errorf("%s queried %d times, want 0", k, seen[k])
		}
		if _, ok := got.Metric(k); ok {
			t.Errorf("%s present in summary", k)
		}
	}
	// 7 whole-day queries each, plus the one work window.
	if seen[models.Steps] != 8 || seen[models.Calories] != 8 {
		t.Errorf("steps/calories queries = %d/%d, want 8/8", seen[models.Steps], seen[models.Calories])
	}
	if len(got.LockedMetrics) != 3 {
		t.Errorf("locked metrics = %v, want 3 kinds", got.LockedMetrics)
	}
}

// TestAggregateWeekWorkedHours verifies hours and pay come from sessions
// alone: ongoing sessions run to now, inverted sessions count zero, and
// sessions outside the week are ignored.
func TestAggregateWeekWorkedHours(t *testing.T) {
	now := at(2, 13, 0)
	store := &fakeSessions{sessions: []models.WorkSession{
		session(at(2, 10, 0), nil, 30),                 // ongoing, 3h
		session(at(1, 17, 0), ptr(at(1, 9, 0)), 50),    // inverted, 0h
		session(at(0, 8, 0), ptr(at(0, 17, 0)), 20),    // 9h
		session(at(-3, 8, 0), ptr(at(-3, 16, 0)), 100), // previous week
	}}

	got, err := newWeek(newFakeSource(), store, openAccess, fixedNow(now)).AggregateWeek(context.Background(), now)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if got.WorkedHours != 12 {
		t.Errorf("worked hours = %f, want 12", got.WorkedHours)
	}
	if got.EstimatedPay != 270 {
		t.Errorf("estimated pay = %f, want 270", got.EstimatedPay)
	}
	if got.SessionCount != 3 {
		t.Errorf("session count = %d, want 3", got.SessionCount)
	}
}

// TestWeekHoursSpansMidnight verifies worked hours keep the part of a
// session after midnight even though metric attribution drops it.
func TestWeekHoursSpansMidnight(t *testing.T) {
	sessions := []models.WorkSession{session(at(0, 22, 0), ptr(at(1, 2, 0)), 10)}
	h := WeekHours(sessions, testCal.Week(monday), at(3, 0, 0))
	if h.Hours != 4 || h.Pay != 40 {
		t.Errorf("hours = %+v, want 4h / 40", h)
	}
}

// TestAggregateWeekSessionStoreError verifies a store failure is returned
// wrapped instead of producing a zero-filled week.
func TestAggregateWeekSessionStoreError(t *testing.T) {
	boom := errors.New("db down")
	_, err := newWeek(newFakeSource(), &fakeSessions{err: boom}, openAccess).AggregateWeek(context.Background(), monday)
	if !errors.Is(err, boom) {
		t.Errorf("err = %v, want wrapped %v", err, boom)
	}
}
