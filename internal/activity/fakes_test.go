package activity

import (
	"context"
	"fmt"
	"io"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/workpulse/internal/calendar"
	"github.com/claude/workpulse/internal/models"
)

var (
	testLog = slog.New(slog.NewTextHandler(io.Discard, nil))
	testCal = calendar.Calendar{FirstWeekday: time.Monday, Location: time.UTC}

	// Monday of the week used throughout the tests.
	monday = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)
)

func at(day, hour, minute int) time.Time {
	return monday.AddDate(0, 0, day).Add(time.Duration(hour)*time.Hour + time.Duration(minute)*time.Minute)
}

func ptr[T any](v T) *T { return &v }

func rangeKey(kind models.MetricKind, start, end time.Time) string {
	return fmt.Sprintf("%s|%d|%d", kind, start.UnixNano(), end.UnixNano())
}

type queryCall struct {
	Kind       models.MetricKind
	Start, End time.Time
}

// fakeSource answers from an exact-range table, then from perDay for
// whole-day ranges, then 0.
type fakeSource struct {
	mu     sync.Mutex
	values map[string]float64
	perDay map[models.MetricKind]func(day int) float64
	errs   map[string]error
	calls  []queryCall

	// hold blocks queries whose start matches until release is closed.
	hold    func(start time.Time) bool
	release chan struct{}
	held    chan struct{}
	// delay is applied to every query, honouring cancellation.
	delay func(start time.Time) time.Duration
}

func newFakeSource() *fakeSource {
	return &fakeSource{
		values: make(map[string]float64),
		perDay: make(map[models.MetricKind]func(int) float64),
		errs:   make(map[string]error),
	}
}

func (f *fakeSource) set(kind models.MetricKind, start, end time.Time, v float64) {
	f.values[rangeKey(kind, start, end)] = v
}

func (f *fakeSource) fail(kind models.MetricKind, start, end time.Time, err error) {
	f.errs[rangeKey(kind, start, end)] = err
}

func (f *fakeSource) Query(ctx context.Context, kind models.MetricKind, start, end time.Time) (float64, error) {
	f.mu.Lock()
	f.calls = append(f.calls, queryCall{Kind: kind, Start: start, End: end})
	key := rangeKey(kind, start, end)
	v, ok := f.values[key]
	err := f.errs[key]
	if !ok {
		if fn := f.perDay[kind]; fn != nil && end.Sub(start) >= 23*time.Hour {
			v = fn(int(start.Sub(monday).Hours() / 24))
		}
	}
	hold := f.hold != nil && f.hold(start)
	var delay time.Duration
	if f.delay != nil {
		delay = f.delay(start)
	}
	f.mu.Unlock()

	if hold {
		select {
		case f.held <- struct{}{}:
		default:
		}
		<-f.release
	}
	if delay > 0 {
		select {
		case <-time.After(delay):
		case <-ctx.Done():
			return 0, ctx.Err()
		}
	}
	if err != nil {
		return 0, err
	}
	return v, nil
}

func (f *fakeSource) callCount() int {
	f.mu.Lock()
	defer f.mu.Unlock()
	return len(f.calls)
}

func (f *fakeSource) kindsQueried() map[models.MetricKind]int {
	f.mu.Lock()
	defer f.mu.Unlock()
	seen := make(map[models.MetricKind]int)
	for _, c := range f.calls {
		seen[c.Kind]++
	}
	return seen
}

func (f *fakeSource) queried(kind models.MetricKind, start, end time.Time) bool {
	f.mu.Lock()
	defer f.mu.Unlock()
	for _, c := range f.calls {
		if c.Kind == kind && c.Start.Equal(start) && c.End.Equal(end) {
			return true
		}
	}
	return false
}

type fakeSessions struct {
	mu       sync.Mutex
	sessions []models.WorkSession
	err      error
	calls    int
}

func (f *fakeSessions) ListSessions(context.Context) ([]models.WorkSession, error) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.calls++
	if f.err != nil {
		return nil, f.err
	}
	out := make([]models.WorkSession, len(f.sessions))
	copy(out, f.sessions)
	return out, nil
}

func (f *fakeSessions) replace(sessions []models.WorkSession) {
	f.mu.Lock()
	defer f.mu.Unlock()
	f.sessions = sessions
}

type fakeAccess struct {
	history  bool
	detailed bool
}

func (f fakeAccess) CanViewHistory(context.Context, time.Time) bool { return f.history }
func (f fakeAccess) CanViewDetailedMetrics(context.Context) bool    { return f.detailed }

var openAccess = fakeAccess{history: true, detailed: true}

func session(start time.Time, end *time.Time, rate float64) models.WorkSession {
	return models.WorkSession{Start: start, End: end, HourlyRate: rate}
}

func fixedNow(t time.Time) Option {
	return WithNow(func() time.Time { return t })
}
