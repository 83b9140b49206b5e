// Package access decides which weeks and metric kinds a caller may see.
package access

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/workpulse/internal/calendar"
)

// DefaultLookbackWeeks is how many weeks before the current one stay
// viewable without the entitlement.
const DefaultLookbackWeeks = 1

// Entitlement reports whether the full feature set is unlocked.
type Entitlement interface {
	Unlocked(ctx context.Context) (bool, error)
}

// Static is an entitlement fixed by configuration.
type Static bool

// Unlocked implements Entitlement.
func (s Static) Unlocked(context.Context) (bool, error) { return bool(s), nil }

// EntitlementStore reads persisted entitlements. *storage.DB satisfies it.
type EntitlementStore interface {
	IsUnlocked(ctx context.Context, name string) (bool, error)
}

// Stored is an entitlement read from the database on every check.
type Stored struct {
	DB   EntitlementStore
	Name string
}

// Unlocked implements Entitlement.
func (s Stored) Unlocked(ctx context.Context) (bool, error) {
	return s.DB.IsUnlocked(ctx, s.Name)
}

// Either is unlocked when any of its entitlements is.
type Either []Entitlement

// Unlocked implements Entitlement. The first error is returned only if
// no entitlement reports unlocked.
func (e Either) Unlocked(ctx context.Context) (bool, error) {
	var firstErr error
	for _, ent := range e {
		ok, err := ent.Unlocked(ctx)
		if err != nil {
			if firstErr == nil {
				firstErr = err
			}
			continue
		}
		if ok {
			return true, nil
		}
	}
	return false, firstErr
}

// Policy gates history and detailed metrics on an entitlement. Without
// it only the current week and the lookback window are viewable.
type Policy struct {
	ent      Entitlement
	cal      calendar.Calendar
	lookback int
	now      func() time.Time
	log      *slog.Logger
}

// Option configures a Policy.
type Option func(*Policy)

// WithLookback sets how many prior weeks are free to view.
func WithLookback(weeks int) Option {
	return func(p *Policy) { p.lookback = weeks }
}

// WithNow overrides the clock that defines the current week.
func WithNow(now func() time.Time) Option {
	return func(p *Policy) { p.now = now }
}

// NewPolicy creates a Policy. cal must be the calendar the aggregators
// use so "current week" means the same thing everywhere.
func NewPolicy(ent Entitlement, cal calendar.Calendar, log *slog.Logger, opts ...Option) *Policy {
	p := &Policy{ent: ent, cal: cal, lookback: DefaultLookbackWeeks, now: time.Now, log: log}
	for _, opt := range opts {
		opt(p)
	}
	return p
}

// CanViewHistory reports whether the week containing date may be shown.
// Weeks after the current one are always viewable; they hold no data.
func (p *Policy) CanViewHistory(ctx context.Context, date time.Time) bool {
	if p.unlocked(ctx) {
		return true
	}
	return p.cal.WeeksBetween(date, p.now()) <= p.lookback
}

// CanViewDetailedMetrics reports whether distance, flights and heart rate
// may be computed.
func (p *Policy) CanViewDetailedMetrics(ctx context.Context) bool {
	return p.unlocked(ctx)
}

// unlocked treats a failed lookup as locked.
func (p *Policy) unlocked(ctx context.Context) bool {
	ok, err := p.ent.Unlocked(ctx)
	if err != nil {
		p.log.Warn("entitlement lookup failed", "error", err)
		return false
	}
	return ok
}
