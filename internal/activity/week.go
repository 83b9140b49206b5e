package activity

import (
	"context"
	"fmt"
	"log/slog"
	"slices"
	"time"

	"github.com/claude/workpulse/internal/calendar"
	"github.com/claude/workpulse/internal/models"
	"golang.org/x/sync/errgroup"
)

const daysPerWeek = 7

// WeekAggregator drives a DayAggregator across the seven days of a week
// and folds the days into a WeekSummary.
type WeekAggregator struct {
	days     *DayAggregator
	sessions SessionStore
	access   AccessPolicy
	log      *slog.Logger
}

// NewWeekAggregator creates a WeekAggregator. Calendar and clock come
// from days.
func NewWeekAggregator(days *DayAggregator, sessions SessionStore, access AccessPolicy, log *slog.Logger) *WeekAggregator {
	return &WeekAggregator{days: days, sessions: sessions, access: access, log: log}
}

// AllowedKinds returns the kinds the caller may compute and the kinds
// held back by the detailed-metrics entitlement.
func AllowedKinds(ctx context.Context, access AccessPolicy) (allowed, locked []models.MetricKind) {
	detailed := access.CanViewDetailedMetrics(ctx)
	for _, k := range models.AllMetricKinds {
		if models.PolicyFor(k).Detailed && !detailed {
			locked = append(locked, k)
			continue
		}
		allowed = append(allowed, k)
	}
	return allowed, locked
}

// AggregateWeek computes the summary of the week containing ref. When
// the access policy denies the week a locked summary is returned without
// reading sessions or querying the metric source.
func (w *WeekAggregator) AggregateWeek(ctx context.Context, ref time.Time) (*models.WeekSummary, error) {
	cal := w.days.Calendar()
	week := cal.Week(ref)
	now := w.days.Now()

	if !w.access.CanViewHistory(ctx, ref) {
		w.log.Info("week locked", "week_start", week.Start.Format(time.DateOnly))
		return &models.WeekSummary{
			WeekStart:   week.Start,
			WeekEnd:     week.End,
			Locked:      true,
			GeneratedAt: now,
		}, nil
	}

	sessions, err := w.sessions.ListSessions(ctx)
	if err != nil {
		return nil, fmt.Errorf("listing sessions: %w", err)
	}
	kinds, locked := AllowedKinds(ctx, w.access)

	days := cal.Days(week)
	results := make([]*DayResult, len(days))
	g, gctx := errgroup.WithContext(ctx)
	for i, d := range days {
		session := SessionOn(sessions, cal.Day(d))
		g.Go(func() error {
			r, err := w.days.AggregateDay(gctx, d, session, kinds)
			if err != nil {
				return fmt.Errorf("aggregating %s: %w", d.Format(time.DateOnly), err)
			}
			results[i] = r
			return nil
		})
	}
	if err := g.Wait(); err != nil {
		return nil, err
	}

	summary := FoldWeek(week, results, kinds)
	summary.LockedMetrics = locked
	summary.GeneratedAt = now

	hours := WeekHours(sessions, week, now)
	summary.WorkedHours = hours.Hours
	summary.EstimatedPay = hours.Pay
	summary.SessionCount = hours.Sessions

	w.log.Debug("week aggregated",
		"week_start", week.Start.Format(time.DateOnly),
		"kinds", len(kinds),
		"sessions", hours.Sessions,
	)
	return summary, nil
}

// FoldWeek builds a summary from joined day results. Results are sorted
// by date first, so completion order never leaks into the history.
func FoldWeek(week calendar.Interval, results []*DayResult, kinds []models.MetricKind) *models.WeekSummary {
	results = slices.Clone(results)
	slices.SortFunc(results, func(a, b *DayResult) int {
		return a.Date.Compare(b.Date)
	})

	summary := &models.WeekSummary{WeekStart: week.Start, WeekEnd: week.End}
	for _, kind := range kinds {
		p := models.PolicyFor(kind)
		mw := models.MetricWeek{
			Kind:    kind,
			Unit:    p.Unit,
			Combine: p.Combine,
			History: make([]models.DailyMetricRecord, 0, len(results)),
		}
		work := make([]float64, 0, len(results))
		personal := make([]float64, 0, len(results))
		for _, r := range results {
			s := r.Splits[kind]
			mw.History = append(mw.History, models.DailyMetricRecord{
				Date:     r.Date,
				Label:    models.DayLabel(r.Date),
				Work:     s.Work,
				Personal: s.Personal,
			})
			work = append(work, s.Work)
			personal = append(personal, s.Personal)
		}

		if p.Additive() {
			mw.WorkTotal = sum(work)
			mw.PersonalTotal = sum(personal)
			mw.WorkAverage = mw.WorkTotal / daysPerWeek
			mw.PersonalAverage = mw.PersonalTotal / daysPerWeek
		} else {
			mw.WorkAverage = meanPositive(work)
			mw.PersonalAverage = meanPositive(personal)
			mw.WorkTotal = mw.WorkAverage
			mw.PersonalTotal = mw.PersonalAverage
		}
		summary.Metrics = append(summary.Metrics, mw)
	}
	return summary
}

func sum(vs []float64) float64 {
	var total float64
	for _, v := range vs {
		total += v
	}
	return total
}

// meanPositive averages only the values above zero, so days without any
// signal don't drag a rate toward zero. No such values yields 0.
func meanPositive(vs []float64) float64 {
	var total float64
	var n int
	for _, v := range vs {
		if v > 0 {
			total += v
			n++
		}
	}
	if n == 0 {
		return 0
	}
	return total / float64(n)
}
