// Package activity splits health samples into work and personal time
// around user-declared work sessions, one day or one week at a time.
package activity

import (
	"context"
	"time"

	"github.com/claude/workpulse/internal/models"
)

// MetricSource folds the samples of one metric kind inside [start, end)
// into a single value: a sum for additive kinds, a mean for heart rate.
//
// Missing data, missing authorization, and an empty range all read as 0,
// so a zero result cannot be told apart from "no access". A returned
// error is isolated by the aggregators: that one query counts as 0.
type MetricSource interface {
	Query(ctx context.Context, kind models.MetricKind, start, end time.Time) (float64, error)
}

// SessionStore lists work sessions, newest first. Date filtering is done
// by the caller.
type SessionStore interface {
	ListSessions(ctx context.Context) ([]models.WorkSession, error)
}

// AccessPolicy decides which weeks and which metric kinds may be
// computed at all.
type AccessPolicy interface {
	CanViewHistory(ctx context.Context, date time.Time) bool
	CanViewDetailedMetrics(ctx context.Context) bool
}
