package activity

import "github.com/claude/workpulse/internal/models"

// MetricDelta is the change in one kind's weekly averages from A to B.
type MetricDelta struct {
	Kind          models.MetricKind `json:"kind"`
	Unit          string            `json:"unit"`
	WorkA         float64           `json:"work_a"`
	WorkB         float64           `json:"work_b"`
	WorkDelta     float64           `json:"work_delta"`
	PersonalA     float64           `json:"personal_a"`
	PersonalB     float64           `json:"personal_b"`
	PersonalDelta float64           `json:"personal_delta"`
}

// WeekComparison sets two weeks side by side.
type WeekComparison struct {
	A          *models.WeekSummary `json:"a"`
	B          *models.WeekSummary `json:"b"`
	Metrics    []MetricDelta       `json:"metrics,omitempty"`
	HoursDelta float64             `json:"hours_delta"`
	PayDelta   float64             `json:"pay_delta"`
	// Locked is set when either week is locked; no deltas are computed.
	Locked bool `json:"locked"`
}

// CompareWeeks computes B minus A for every kind present in both weeks.
func CompareWeeks(a, b *models.WeekSummary) *WeekComparison {
	c := &WeekComparison{A: a, B: b}
	if a.Locked || b.Locked {
		c.Locked = true
		return c
	}
	for _, ma := range a.Metrics {
		mb, ok := b.Metric(ma.Kind)
		if !ok {
			continue
		}
		c.Metrics = append(c.Metrics, MetricDelta{
			Kind:          ma.Kind,
			Unit:          ma.Unit,
			WorkA:         ma.WorkAverage,
			WorkB:         mb.WorkAverage,
			WorkDelta:     mb.WorkAverage - ma.WorkAverage,
			PersonalA:     ma.PersonalAverage,
			PersonalB:     mb.PersonalAverage,
			PersonalDelta: mb.PersonalAverage - ma.PersonalAverage,
		})
	}
	c.HoursDelta = b.WorkedHours - a.WorkedHours
	c.PayDelta = b.EstimatedPay - a.EstimatedPay
	return c
}
