package hae

import (
	"context"
	"encoding/json"
	"fmt"
	"log/slog"
	"time"

	"github.com/claude/workpulse/internal/ingest"
	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
)

// Store is the subset of storage.DB the provider writes through.
type Store interface {
	IsMetricAllowed(ctx context.Context, metricName string) (bool, error)
	InsertHealthMetrics(ctx context.Context, rows []models.HealthMetricRow) (int64, error)
	InsertIngestLog(ctx context.Context, l storage.IngestLog) (int64, error)
}

// Provider processes Health Auto Export REST API payloads.
type Provider struct {
	db  Store
	log *slog.Logger
}

// NewProvider creates a new HAE ingest provider.
func NewProvider(db Store, log *slog.Logger) *Provider {
	return &Provider{db: db, log: log}
}

// Ingest stores the allowlisted metric samples of payload. Workouts are
// counted and dropped.
func (p *Provider) Ingest(ctx context.Context, payload *models.HAEPayload) (*ingest.Result, error) {
	began := time.Now()
	result := &ingest.Result{WorkoutsIgnored: len(payload.Data.Workouts)}

	err := p.processMetrics(ctx, payload.Data.Metrics, result)
	p.recordLog(ctx, result, began, err)
	if err != nil {
		return result, fmt.Errorf("processing metrics: %w", err)
	}

	if len(result.RejectedNames) > 0 {
		result.Message = fmt.Sprintf(
			"Some metrics were rejected because they are not in the allowlist: %v. "+
				"Accepted metrics are stored. Check GET /api/v1/allowlist for the full list.",
			result.RejectedNames)
	}
	return result, nil
}

func (p *Provider) processMetrics(ctx context.Context, metrics []models.HAEMetric, result *ingest.Result) error {
	var healthRows []models.HealthMetricRow
	rejectedSet := map[string]bool{}

	for _, m := range metrics {
		allowed, err := p.db.IsMetricAllowed(ctx, m.Name)
		if err != nil {
			return fmt.Errorf("checking allowlist for %s: %w", m.Name, err)
		}
		if !allowed {
			if !rejectedSet[m.Name] {
				result.RejectedNames = append(result.RejectedNames, m.Name)
				rejectedSet[m.Name] = true
			}
			result.MetricsRejected += len(m.Data)
			continue
		}

		for _, raw := range m.Data {
			result.MetricsReceived++

			row, err := convertMetricDataPoint(m.Name, m.Units, raw)
			if err != nil {
				p.log.Warn("skipping data point", "metric", m.Name, "error", err)
				continue
			}
			healthRows = append(healthRows, *row)
		}
	}

	if len(healthRows) > 0 {
		inserted, err := p.db.InsertHealthMetrics(ctx, healthRows)
		if err != nil {
			return fmt.Errorf("inserting health metrics: %w", err)
		}
		result.MetricsInserted = inserted
		result.MetricsSkipped = int64(len(healthRows)) - inserted
	}
	return nil
}

func (p *Provider) recordLog(ctx context.Context, result *ingest.Result, began time.Time, ingestErr error) {
	ms := int(time.Since(began).Milliseconds())
	l := storage.IngestLog{
		Source:          "hae",
		Status:          "success",
		MetricsReceived: result.MetricsReceived,
		MetricsInserted: result.MetricsInserted,
		DurationMs:      &ms,
	}
	if ingestErr != nil {
		msg := ingestErr.Error()
		l.Status = "error"
		l.ErrorMessage = &msg
	}
	if _, err := p.db.InsertIngestLog(ctx, l); err != nil {
		p.log.Warn("failed to write ingest log", "error", err)
	}
}

// convertMetricDataPoint detects the shape of a metric data point and converts it to a HealthMetricRow.
func convertMetricDataPoint(name, units string, raw json.RawMessage) (*models.HealthMetricRow, error) {
	row := &models.HealthMetricRow{
		MetricName: name,
		Units:      units,
	}

	switch DetectPointShape(name, raw) {
	case ShapeMinAvgMax:
		var dp models.HAEHeartRateDataPoint
		if err := json.Unmarshal(raw, &dp); err != nil {
			return nil, fmt.Errorf("parsing min/avg/max: %w", err)
		}
		row.Time = dp.Date.Time
		row.Source = dp.Source
		row.MinVal = &dp.Min
		row.AvgVal = &dp.Avg
		row.MaxVal = &dp.Max

	default:
		var dp models.HAEMetricDataPoint
		if err := json.Unmarshal(raw, &dp); err != nil {
			return nil, fmt.Errorf("parsing qty: %w", err)
		}
		qty, u := NormalizeQty(name, units, dp.Qty)
		row.Time = dp.Date.Time
		row.Source = dp.Source
		row.Units = u
		row.Qty = &qty
	}

	if row.Time.IsZero() {
		return nil, fmt.Errorf("data point has no date")
	}
	return row, nil
}
