package activity

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/workpulse/internal/calendar"
	"github.com/claude/workpulse/internal/models"
	"golang.org/x/sync/errgroup"
)

// DayResult is one calendar day's work/personal split per metric kind.
type DayResult struct {
	Date    time.Time                          `json:"date"`
	Session *models.WorkSession                `json:"session,omitempty"`
	Work    calendar.Interval                  `json:"work_window"`
	Splits  map[models.MetricKind]models.Split `json:"splits"`
}

// DayAggregator computes the work/personal split of a single day.
type DayAggregator struct {
	source MetricSource
	cal    calendar.Calendar
	now    func() time.Time
	log    *slog.Logger
}

// Option configures an aggregator.
type Option func(*DayAggregator)

// WithNow overrides the clock used to close ongoing sessions.
func WithNow(now func() time.Time) Option {
	return func(a *DayAggregator) { a.now = now }
}

// NewDayAggregator creates a DayAggregator reading from source.
func NewDayAggregator(source MetricSource, cal calendar.Calendar, log *slog.Logger, opts ...Option) *DayAggregator {
	a := &DayAggregator{source: source, cal: cal, now: time.Now, log: log}
	for _, opt := range opts {
		opt(a)
	}
	return a
}

// Calendar returns the calendar used for day bounds.
func (a *DayAggregator) Calendar() calendar.Calendar { return a.cal }

// Now returns the aggregator's current time.
func (a *DayAggregator) Now() time.Time { return a.now() }

// SessionOn returns the first session whose start falls inside day, or
// nil. Later sessions on the same day are ignored.
func SessionOn(sessions []models.WorkSession, day calendar.Interval) *models.WorkSession {
	for i := range sessions {
		if day.Contains(sessions[i].Start) {
			s := sessions[i]
			return &s
		}
	}
	return nil
}

// WorkWindow is the part of session attributed to day: from the session
// start to its end (now, if ongoing), cut at the day's end. A session
// saved with its end before its start yields an empty window.
func WorkWindow(session models.WorkSession, day calendar.Interval, now time.Time) calendar.Interval {
	end := session.EffectiveEnd(now)
	if end.After(day.End) {
		end = day.End
	}
	if end.Before(session.Start) {
		end = session.Start
	}
	return calendar.Interval{Start: session.Start, End: end}
}

type daySlot struct {
	work  float64
	whole float64
}

// AggregateDay splits each of kinds for the day containing date. With no
// session every value is personal. All source queries for the day run
// concurrently and are joined before the result is built.
func (a *DayAggregator) AggregateDay(ctx context.Context, date time.Time, session *models.WorkSession, kinds []models.MetricKind) (*DayResult, error) {
	day := a.cal.Day(date)
	result := &DayResult{
		Date:    day.Start,
		Session: session,
		Splits:  make(map[models.MetricKind]models.Split, len(kinds)),
	}
	if session != nil {
		result.Work = WorkWindow(*session, day, a.now())
	}

	slots := make([]daySlot, len(kinds))
	g, gctx := errgroup.WithContext(ctx)
	for i, kind := range kinds {
		if session != nil {
			g.Go(func() error {
				v, err := a.query(gctx, kind, result.Work)
				slots[i].work = v
				return err
			})
		}
		g.Go(func() error {
			v, err := a.query(gctx, kind, day)
			slots[i].whole = v
			return err
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	for i, kind := range kinds {
		result.Splits[kind] = split(models.PolicyFor(kind), session != nil, slots[i])
	}
	return result, nil
}

func split(p models.MetricPolicy, hasSession bool, s daySlot) models.Split {
	switch {
	case !hasSession:
		return models.Split{Personal: s.whole}
	case p.Additive():
		return models.Split{Work: s.work, Personal: max(0, s.whole-s.work)}
	default:
		// Rates don't subtract: personal is the whole-day average.
		return models.Split{Work: s.work, Personal: s.whole}
	}
}

// query runs one source query. Empty ranges read as 0 without touching
// the source; source failures are logged and read as 0 so siblings
// still join. Only cancellation is returned.
func (a *DayAggregator) query(ctx context.Context, kind models.MetricKind, r calendar.Interval) (float64, error) {
	if r.Empty() {
		return 0, nil
	}
	v, err := a.source.Query(ctx, kind, r.Start, r.End)
	if err != nil {
		if ctxErr := ctx.Err(); ctxErr != nil {
			return 0, ctxErr
		}
		a.log.Warn("metric query failed", "kind", kind, "start", r.Start, "end", r.End, "error", err)
		return 0, nil
	}
	return v, nil
}
