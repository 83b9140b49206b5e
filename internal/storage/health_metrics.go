package storage

import (
	"context"
	"fmt"
	"strings"
	"time"

	"github.com/claude/workpulse/internal/models"
	"github.com/jackc/pgx/v5"
)

const healthMetricColumns = 8

// maxBindParams is the Postgres wire protocol's limit on parameters per
// statement.
const maxBindParams = 65535

// maxInsertRows is the largest multi-row insert that fits in one statement.
const maxInsertRows = maxBindParams / healthMetricColumns

// InsertHealthMetrics batch-inserts health metric rows, splitting large
// batches across statements. Returns the number actually inserted
// (skipped duplicates via ON CONFLICT DO NOTHING).
func (db *DB) InsertHealthMetrics(ctx context.Context, rows []models.HealthMetricRow) (int64, error) {
	var inserted int64
	for _, chunk := range chunkRows(len(rows), maxInsertRows) {
		n, err := db.insertHealthMetricChunk(ctx, rows[chunk[0]:chunk[1]])
		if err != nil {
			return inserted, err
		}
		inserted += n
	}
	return inserted, nil
}

func (db *DB) insertHealthMetricChunk(ctx context.Context, rows []models.HealthMetricRow) (int64, error) {
	args := make([]any, 0, len(rows)*healthMetricColumns)
	for _, r := range rows {
		args = append(args, r.Time, r.MetricName, r.Source, r.Units,
			r.Qty, r.MinVal, r.AvgVal, r.MaxVal)
	}
	query := `INSERT INTO health_metrics (time, metric_name, source, units, qty, min_val, avg_val, max_val)
VALUES ` + valuePlaceholders(len(rows), healthMetricColumns) + " ON CONFLICT DO NOTHING"

	tag, err := db.Pool.Exec(ctx, query, args...)
	if err != nil {
		return 0, fmt.Errorf("inserting health metrics: %w", err)
	}
	return tag.RowsAffected(), nil
}

// chunkRows splits n rows into [start, end) index pairs of at most size rows.
func chunkRows(n, size int) [][2]int {
	var chunks [][2]int
	for start := 0; start < n; start += size {
		chunks = append(chunks, [2]int{start, min(start+size, n)})
	}
	return chunks
}

// valuePlaceholders renders "($1,$2),($3,$4)" style groups for a
// multi-row insert.
func valuePlaceholders(rows, cols int) string {
	var b strings.Builder
	for i := range rows {
		if i > 0 {
			b.WriteByte(',')
		}
		b.WriteByte('(')
		for j := range cols {
			if j > 0 {
				b.WriteByte(',')
			}
			fmt.Fprintf(&b, "$%d", i*cols+j+1)
		}
		b.WriteByte(')')
	}
	return b.String()
}

// QueryHealthMetrics retrieves health metrics by name and time range.
func (db *DB) QueryHealthMetrics(ctx context.Context, metricName string, start, end time.Time) ([]models.HealthMetricRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT time, metric_name, source, units, qty, min_val, avg_val, max_val
		 FROM health_metrics
		 WHERE metric_name = $1 AND time >= $2 AND time < $3
		 ORDER BY time ASC`,
		metricName, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying health metrics: %w", err)
	}
	defer rows.Close()

	return scanHealthMetricRows(rows)
}

// GetLatestMetrics returns the most recent data point for each metric.
func (db *DB) GetLatestMetrics(ctx context.Context) ([]models.HealthMetricRow, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT DISTINCT ON (metric_name) time, metric_name, source, units, qty, min_val, avg_val, max_val
		 FROM health_metrics
		 ORDER BY metric_name, time DESC`)
	if err != nil {
		return nil, fmt.Errorf("querying latest metrics: %w", err)
	}
	defer rows.Close()

	return scanHealthMetricRows(rows)
}

// aggregateQuery returns the fold for a combine mode over [$2, $3).
// Averages read the per-sample mean when the sample was exported as
// Min/Avg/Max and fall back to qty otherwise.
func aggregateQuery(c models.Combine) string {
	expr := "SUM(qty)"
	if c == models.CombineAverage {
		expr = "AVG(COALESCE(avg_val, qty))"
	}
	return `SELECT COALESCE(` + expr + `, 0)
		 FROM health_metrics
		 WHERE metric_name = $1 AND time >= $2 AND time < $3`
}

// AggregateMetric folds every sample of metricName in [start, end) into
// one value. No samples yields 0.
func (db *DB) AggregateMetric(ctx context.Context, metricName string, c models.Combine, start, end time.Time) (float64, error) {
	var v float64
	if err := db.Pool.QueryRow(ctx, aggregateQuery(c), metricName, start, end).Scan(&v); err != nil {
		return 0, fmt.Errorf("aggregating %s: %w", metricName, err)
	}
	return v, nil
}

// Buckets maps API aggregation names to time_bucket intervals.
var Buckets = map[string]string{
	"hourly":  "1 hour",
	"daily":   "1 day",
	"weekly":  "1 week",
	"monthly": "1 month",
}

// GetTimeSeries returns aggregated time-series data using time_bucket.
// bucketSize should be a PostgreSQL interval like '1 day', '1 hour'.
func (db *DB) GetTimeSeries(ctx context.Context, metricName string, start, end time.Time, bucketSize string) ([]TimeSeriesPoint, error) {
	rows, err := db.Pool.Query(ctx,
		`SELECT time_bucket($1::interval, time) AS bucket,
		        SUM(qty) AS sum_val,
		        AVG(COALESCE(qty, avg_val)) AS avg_val,
		        MIN(COALESCE(qty, min_val)) AS min_val,
		        MAX(COALESCE(qty, max_val)) AS max_val,
		        COUNT(*) AS count
		 FROM health_metrics
		 WHERE metric_name = $2 AND time >= $3 AND time < $4
		 GROUP BY bucket
		 ORDER BY bucket ASC`,
		bucketSize, metricName, start, end)
	if err != nil {
		return nil, fmt.Errorf("querying time series: %w", err)
	}
	defer rows.Close()

	var result []TimeSeriesPoint
	for rows.Next() {
		var p TimeSeriesPoint
		if err := rows.Scan(&p.Time, &p.Sum, &p.Avg, &p.Min, &p.Max, &p.Count); err != nil {
			return nil, fmt.Errorf("scanning time series: %w", err)
		}
		result = append(result, p)
	}
	return result, rows.Err()
}

// TimeSeriesPoint is an aggregated data point.
type TimeSeriesPoint struct {
	Time  time.Time `json:"time"`
	Sum   *float64  `json:"sum"`
	Avg   *float64  `json:"avg"`
	Min   *float64  `json:"min"`
	Max   *float64  `json:"max"`
	Count int64     `json:"count"`
}

func scanHealthMetricRows(rows pgx.Rows) ([]models.HealthMetricRow, error) {
	var result []models.HealthMetricRow
	for rows.Next() {
		var r models.HealthMetricRow
		if err := rows.Scan(&r.Time, &r.MetricName, &r.Source, &r.Units,
			&r.Qty, &r.MinVal, &r.AvgVal, &r.MaxVal); err != nil {
			return nil, fmt.Errorf("scanning health metric row: %w", err)
		}
		result = append(result, r)
	}
	return result, rows.Err()
}
