package activity

import (
	"context"
	"errors"
	"fmt"
	"log/slog"
	"math"
	"time"

	"github.com/claude/workpulse/internal/calendar"
	"github.com/claude/workpulse/internal/models"
)

// Errors returned by AuthorizeRange.
var (
	ErrMetricLocked  = errors.New("metric kind requires the detailed-metrics unlock")
	ErrHistoryLocked = errors.New("range lies before the viewable history")
)

// Service bundles the aggregators for the HTTP and MCP front ends.
type Service struct {
	days      *DayAggregator
	week      *WeekAggregator
	sessions  SessionStore
	access    AccessPolicy
	refresher *Refresher
	log       *slog.Logger
}

// NewService wires a DayAggregator, WeekAggregator and Refresher over
// the given collaborators.
func NewService(source MetricSource, sessions SessionStore, access AccessPolicy, cal calendar.Calendar, log *slog.Logger, opts ...Option) *Service {
	days := NewDayAggregator(source, cal, log, opts...)
	week := NewWeekAggregator(days, sessions, access, log)
	return &Service{
		days:      days,
		week:      week,
		sessions:  sessions,
		access:    access,
		refresher: NewRefresher(week, log),
		log:       log,
	}
}

// Refresher returns the service's shared result holder.
func (s *Service) Refresher() *Refresher { return s.refresher }

// Calendar returns the calendar used for day and week bounds.
func (s *Service) Calendar() calendar.Calendar { return s.days.Calendar() }

// WeekSummary computes the week containing ref without touching the
// refresher's committed state.
func (s *Service) WeekSummary(ctx context.Context, ref time.Time) (*models.WeekSummary, error) {
	return s.week.AggregateWeek(ctx, ref)
}

// Today splits the current day.
func (s *Service) Today(ctx context.Context) (*models.DaySnapshot, error) {
	now := s.days.Now()
	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	kinds, _ := AllowedKinds(ctx, s.access)
	session := SessionOn(sessions, s.days.Calendar().Day(now))

	day, err := s.days.AggregateDay(ctx, now, session, kinds)
	if err != nil {
		return nil, err
	}

	snap := &models.DaySnapshot{
		Date:    day.Date,
		Splits:  day.Splits,
		Session: session,
	}
	if session != nil {
		snap.WorkedHours = session.Duration(now).Hours()
	}
	return snap, nil
}

// Widget reduces today's snapshot to the plain values shown by the
// companion widget.
func (s *Service) Widget(ctx context.Context) (*models.WidgetSnapshot, error) {
	today, err := s.Today(ctx)
	if err != nil {
		return nil, err
	}
	return &models.WidgetSnapshot{
		Steps:       int(math.Round(today.Splits[models.Steps].Total())),
		Calories:    int(math.Round(today.Splits[models.Calories].Total())),
		WorkedHours: models.FormatHours(time.Duration(today.WorkedHours * float64(time.Hour))),
		UpdatedAt:   s.days.Now(),
	}, nil
}

// ListSessions returns sessions starting in [start, end), newest first.
// A zero end means no upper bound.
func (s *Service) ListSessions(ctx context.Context, start, end time.Time) ([]models.WorkSession, error) {
	sessions, err := s.sessions.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	if end.IsZero() {
		end = time.Date(9999, 1, 1, 0, 0, 0, 0, time.UTC)
	}
	return SessionsIn(sessions, calendar.Interval{Start: start, End: end}), nil
}

// AllowedKinds applies the detailed-metrics gate for ctx's caller.
func (s *Service) AllowedKinds(ctx context.Context) (allowed, locked []models.MetricKind) {
	return AllowedKinds(ctx, s.access)
}

// AuthorizeRange applies the access policy to a raw sample read of kind
// over [start, end). A start before the viewable history is moved up to
// the oldest viewable week; a range that ends before it is refused.
func (s *Service) AuthorizeRange(ctx context.Context, kind models.MetricKind, start, end time.Time) (time.Time, error) {
	if models.PolicyFor(kind).Detailed && !s.access.CanViewDetailedMetrics(ctx) {
		return start, ErrMetricLocked
	}
	if s.access.CanViewHistory(ctx, start) {
		return start, nil
	}

	// Walk back from the current week while the previous week is viewable.
	cal := s.days.Calendar()
	oldest := cal.Week(s.days.Now()).Start
	for {
		prev := cal.Week(oldest.Add(-time.Nanosecond)).Start
		if !prev.After(start) || !s.access.CanViewHistory(ctx, prev) {
			break
		}
		oldest = prev
	}
	if !end.After(oldest) {
		return oldest, ErrHistoryLocked
	}
	return oldest, nil
}
