package activity

import (
	"context"
	"errors"
	"log/slog"
	"sync"
	"time"

	"github.com/claude/workpulse/internal/models"
)

// ErrSuperseded is returned by Refresh when a newer pass started before
// this one finished. Its result was discarded.
var ErrSuperseded = errors.New("aggregation pass superseded")

// Refresher holds the latest committed WeekSummary. Every pass takes a
// new generation and cancels the one before it; a pass commits only if
// its generation is still current when it joins.
type Refresher struct {
	week *WeekAggregator
	log  *slog.Logger

	mu        sync.Mutex
	gen       uint64
	cancel    context.CancelFunc
	ref       time.Time
	current   *models.WeekSummary
	committed uint64
}

// NewRefresher creates a Refresher driving week.
func NewRefresher(week *WeekAggregator, log *slog.Logger) *Refresher {
	return &Refresher{week: week, log: log}
}

// Refresh runs a pass for the week containing ref and commits it unless
// a newer pass has started meanwhile.
func (r *Refresher) Refresh(ctx context.Context, ref time.Time) (*models.WeekSummary, error) {
	r.mu.Lock()
	r.gen++
	gen := r.gen
	if r.cancel != nil {
		r.cancel()
	}
	passCtx, cancel := context.WithCancel(ctx)
	r.cancel = cancel
	r.ref = ref
	r.mu.Unlock()
	defer cancel()

	summary, err := r.week.AggregateWeek(passCtx, ref)

	r.mu.Lock()
	defer r.mu.Unlock()
	if gen != r.gen {
		r.log.Debug("discarding stale pass", "generation", gen, "latest", r.gen)
		return nil, ErrSuperseded
	}
	r.cancel = nil
	if err != nil {
		return nil, err
	}
	r.current = summary
	r.committed = gen
	return summary, nil
}

// Current returns the last committed summary and its generation. The
// summary is nil before the first successful pass.
func (r *Refresher) Current() (*models.WeekSummary, uint64) {
	r.mu.Lock()
	defer r.mu.Unlock()
	return r.current, r.committed
}

// Invalidate starts a background pass for the most recently requested
// week (or the current week if none). Called after session edits so the
// next read reflects them.
func (r *Refresher) Invalidate(ctx context.Context) {
	r.mu.Lock()
	ref := r.ref
	r.mu.Unlock()
	if ref.IsZero() {
		ref = r.week.days.Now()
	}

	go func() {
		_, err := r.Refresh(ctx, ref)
		switch {
		case err == nil, errors.Is(err, ErrSuperseded), errors.Is(err, context.Canceled):
		default:
			r.log.Warn("background refresh failed", "error", err)
		}
	}()
}
