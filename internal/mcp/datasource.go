package mcp

import (
	"context"
	"time"

	"github.com/claude/workpulse/internal/activity"
	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
)

// DataSource abstracts the data layer for MCP tools. Local (in-process)
// and HTTPClient (remote via REST API) both satisfy it.
type DataSource interface {
	WeekSummary(ctx context.Context, ref time.Time) (*models.WeekSummary, error)
	Today(ctx context.Context) (*models.DaySnapshot, error)
	ListSessions(ctx context.Context, start, end time.Time) ([]models.WorkSession, error)
	GetTimeSeries(ctx context.Context, kind models.MetricKind, start, end time.Time, bucketSize string) ([]storage.TimeSeriesPoint, error)
}

// TimeSeriesStore reads bucketed samples. *storage.DB satisfies it.
type TimeSeriesStore interface {
	GetTimeSeries(ctx context.Context, metricName string, start, end time.Time, bucketSize string) ([]storage.TimeSeriesPoint, error)
}

// Local serves tools straight from the aggregation service and database.
type Local struct {
	*activity.Service
	DB TimeSeriesStore
}

// Compile-time check: Local satisfies DataSource.
var _ DataSource = Local{}

// GetTimeSeries reads the kind's backing metric, subject to the same
// access policy as the week view.
func (l Local) GetTimeSeries(ctx context.Context, kind models.MetricKind, start, end time.Time, bucketSize string) ([]storage.TimeSeriesPoint, error) {
	start, err := l.AuthorizeRange(ctx, kind, start, end)
	if err != nil {
		return nil, err
	}
	return l.DB.GetTimeSeries(ctx, models.PolicyFor(kind).SourceMetric, start, end, bucketSize)
}
