package models

import (
	"fmt"
	"time"
)

// Split is one metric's work/personal partition for a period.
type Split struct {
	Work     float64 `json:"work"`
	Personal float64 `json:"personal"`
}

// Total is Work plus Personal.
func (s Split) Total() float64 {
	return s.Work + s.Personal
}

// DailyMetricRecord is one day's split for one metric.
type DailyMetricRecord struct {
	Date     time.Time `json:"date"`
	Label    string    `json:"label"`
	Work     float64   `json:"work"`
	Personal float64   `json:"personal"`
}

// DayLabel returns the short weekday label shown on charts.
func DayLabel(t time.Time) string {
	return t.Weekday().String()[:3]
}

// MetricWeek holds one metric's week: its history and folded values.
// Totals are only meaningful for additive kinds; for heart rate they
// mirror the averages.
type MetricWeek struct {
	Kind            MetricKind          `json:"kind"`
	Unit            string              `json:"unit"`
	Combine         Combine             `json:"combine"`
	History         []DailyMetricRecord `json:"history"`
	WorkTotal       float64             `json:"work_total"`
	PersonalTotal   float64             `json:"personal_total"`
	WorkAverage     float64             `json:"work_average"`
	PersonalAverage float64             `json:"personal_average"`
}

// WeekSummary is the result of one aggregation pass over a week. When
// Locked is set the caller may not view this week and no metric data is
// present.
type WeekSummary struct {
	WeekStart     time.Time    `json:"week_start"`
	WeekEnd       time.Time    `json:"week_end"`
	Locked        bool         `json:"locked"`
	Metrics       []MetricWeek `json:"metrics,omitempty"`
	LockedMetrics []MetricKind `json:"locked_metrics,omitempty"`
	WorkedHours   float64      `json:"worked_hours"`
	EstimatedPay  float64      `json:"estimated_pay"`
	SessionCount  int          `json:"session_count"`
	GeneratedAt   time.Time    `json:"generated_at"`
}

// Metric returns the week for kind, if it was computed.
func (w *WeekSummary) Metric(kind MetricKind) (MetricWeek, bool) {
	for _, m := range w.Metrics {
		if m.Kind == kind {
			return m, true
		}
	}
	return MetricWeek{}, false
}

// DaySnapshot is a single day's split, used for the "today" view.
type DaySnapshot struct {
	Date        time.Time            `json:"date"`
	Splits      map[MetricKind]Split `json:"splits"`
	WorkedHours float64              `json:"worked_hours"`
	Session     *WorkSession         `json:"session,omitempty"`
}

// WidgetSnapshot is the plain-value summary handed to the companion
// widget surface.
type WidgetSnapshot struct {
	Steps       int       `json:"steps" cbor:"steps"`
	WorkedHours string    `json:"worked_hours" cbor:"worked_hours"`
	Calories    int       `json:"calories" cbor:"calories"`
	UpdatedAt   time.Time `json:"updated_at" cbor:"updated_at"`
}

// FormatHours renders a duration as "7h 30m".
func FormatHours(d time.Duration) string {
	if d < 0 {
		d = 0
	}
	d = d.Round(time.Minute)
	h := int(d / time.Hour)
	m := int((d % time.Hour) / time.Minute)
	return fmt.Sprintf("%dh %02dm", h, m)
}
