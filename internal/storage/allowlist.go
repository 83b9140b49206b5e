package storage

import (
	"context"
	"errors"
	"fmt"

	"github.com/claude/workpulse/internal/models"
	"github.com/jackc/pgx/v5"
)

// AllowedMetric is one source metric the ingest path accepts. Kind is
// empty for rows that feed no week aggregate.
type AllowedMetric struct {
	MetricName string            `json:"metric_name"`
	Category   string            `json:"category"`
	Enabled    bool              `json:"enabled"`
	Kind       models.MetricKind `json:"kind,omitempty"`
	Detailed   bool              `json:"detailed"`
}

// withKind fills in the aggregate kind backed by m's source metric.
func (m AllowedMetric) withKind() AllowedMetric {
	if kind, ok := models.KindForSourceMetric(m.MetricName); ok {
		m.Kind = kind
		m.Detailed = models.PolicyFor(kind).Detailed
	}
	return m
}

// IsMetricAllowed reports whether samples named metricName are stored.
// Unknown names are rejected.
func (db *DB) IsMetricAllowed(ctx context.Context, metricName string) (bool, error) {
	var enabled bool
	err := db.Pool.QueryRow(ctx,
		`SELECT enabled FROM metric_allowlist WHERE metric_name = $1`,
		metricName).Scan(&enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return false, nil
	}
	if err != nil {
		return false, fmt.Errorf("checking metric allowlist: %w", err)
	}
	return enabled, nil
}

// GetAllowedMetrics lists the allowlist grouped by category.
func (db *DB) GetAllowedMetrics(ctx context.Context) ([]AllowedMetric, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT metric_name, category, enabled FROM metric_allowlist ORDER BY category, metric_name`)
	if err != nil {
		return nil, fmt.Errorf("querying allowlist: %w", err)
	}
	metrics, err := pgx.CollectRows(rows, func(row pgx.CollectableRow) (AllowedMetric, error) {
		var m AllowedMetric
		err := row.Scan(&m.MetricName, &m.Category, &m.Enabled)
		return m.withKind(), err
	})
	if err != nil {
		return nil, fmt.Errorf("scanning allowlist: %w", err)
	}
	return metrics, nil
}

// SetMetricEnabled switches ingestion of one listed metric on or off.
// Samples already stored are kept.
func (db *DB) SetMetricEnabled(ctx context.Context, metricName string, enabled bool) (*AllowedMetric, error) {
	m := AllowedMetric{MetricName: metricName}
	err := db.Pool.QueryRow(ctx,
		`UPDATE metric_allowlist SET enabled = $2 WHERE metric_name = $1
		 RETURNING category, enabled`,
		metricName, enabled).Scan(&m.Category, &m.Enabled)
	if errors.Is(err, pgx.ErrNoRows) {
		return nil, ErrNotFound
	}
	if err != nil {
		return nil, fmt.Errorf("updating metric allowlist: %w", err)
	}
	m = m.withKind()
	return &m, nil
}
