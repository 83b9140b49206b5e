package models

import "time"

// HealthMetricRow is a raw sample as stored in the health_metrics table.
// Quantity metrics fill Qty; heart rate fills Min/Avg/Max.
type HealthMetricRow struct {
	Time       time.Time `json:"time"`
	MetricName string    `json:"metric_name"`
	Source     string    `json:"source"`
	Units      string    `json:"units"`
	Qty        *float64  `json:"qty,omitempty"`
	MinVal     *float64  `json:"min,omitempty"`
	AvgVal     *float64  `json:"avg,omitempty"`
	MaxVal     *float64  `json:"max,omitempty"`
}
