// Package health reads metric kinds out of the stored sample table.
package health

import (
	"context"
	"time"

	"github.com/claude/workpulse/internal/models"
)

// Aggregator folds the stored samples of one source metric over a range.
// *storage.DB satisfies it.
type Aggregator interface {
	AggregateMetric(ctx context.Context, metricName string, c models.Combine, start, end time.Time) (float64, error)
}

// Source answers metric-kind queries from stored samples.
type Source struct {
	db Aggregator
}

// NewSource creates a Source over db.
func NewSource(db Aggregator) *Source {
	return &Source{db: db}
}

// Query returns the kind's value over [start, end) in its display unit.
// An empty range returns 0 without reading storage.
func (s *Source) Query(ctx context.Context, kind models.MetricKind, start, end time.Time) (float64, error) {
	if !start.Before(end) {
		return 0, nil
	}
	p := models.PolicyFor(kind)
	v, err := s.db.AggregateMetric(ctx, p.SourceMetric, p.Combine, start, end)
	if err != nil {
		return 0, err
	}
	return p.Convert(v), nil
}
