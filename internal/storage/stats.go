package storage

import (
	"context"
	"fmt"
	"time"
)

// DataStats summarises what is stored.
type DataStats struct {
	TotalMetricRows int64        `json:"total_metric_rows"`
	TotalSessions   int64        `json:"total_sessions"`
	OpenSessions    int64        `json:"open_sessions"`
	EarliestData    *time.Time   `json:"earliest_data"`
	LatestData      *time.Time   `json:"latest_data"`
	MetricsByName   []MetricStat `json:"metrics_by_name"`
}

// MetricStat holds the sample count and range for one metric.
type MetricStat struct {
	Name     string     `json:"name"`
	Count    int64      `json:"count"`
	Earliest *time.Time `json:"earliest"`
	Latest   *time.Time `json:"latest"`
}

// GetDataStats returns aggregate statistics over samples and sessions.
func (db *DB) GetDataStats(ctx context.Context) (*DataStats, error) {
	stats := &DataStats{}

	err := db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), MIN(time), MAX(time) FROM health_metrics`,
	).Scan(&stats.TotalMetricRows, &stats.EarliestData, &stats.LatestData)
	if err != nil {
		return nil, fmt.Errorf("counting metrics: %w", err)
	}

	err = db.Pool.QueryRow(ctx,
		`SELECT COUNT(*), COUNT(*) FILTER (WHERE end_time IS NULL) FROM work_sessions`,
	).Scan(&stats.TotalSessions, &stats.OpenSessions)
	if err != nil {
		return nil, fmt.Errorf("counting sessions: %w", err)
	}

	rows, err := db.Pool.Query(ctx,
		`SELECT metric_name, COUNT(*), MIN(time), MAX(time)
		 FROM health_metrics
		 GROUP BY metric_name
		 ORDER BY COUNT(*) DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying metrics by name: %w", err)
	}
	defer rows.Close()

	for rows.Next() {
		var s MetricStat
		if err := rows.Scan(&s.Name, &s.Count, &s.Earliest, &s.Latest); err != nil {
			return nil, fmt.Errorf("scanning metric stat: %w", err)
		}
		stats.MetricsByName = append(stats.MetricsByName, s)
	}
	if err := rows.Err(); err != nil {
		return nil, err
	}

	return stats, nil
}
