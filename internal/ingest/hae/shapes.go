package hae

import "encoding/json"

// MetricShape describes the data point structure for a metric.
type MetricShape int

const (
	ShapeQty       MetricShape = iota // Standard: {"qty": N}
	ShapeMinAvgMax                    // Heart rate: {"Min": N, "Avg": N, "Max": N}
)

// DetectMetricShape returns the expected data point shape for a metric name.
func DetectMetricShape(name string) MetricShape {
	if name == "heart_rate" {
		return ShapeMinAvgMax
	}
	return ShapeQty
}

// DetectPointShape refines the name-based guess by probing the point.
// Some exports send heart rate as plain qty samples.
func DetectPointShape(name string, raw json.RawMessage) MetricShape {
	shape := DetectMetricShape(name)
	if shape != ShapeMinAvgMax {
		return shape
	}
	var fields map[string]json.RawMessage
	if err := json.Unmarshal(raw, &fields); err != nil {
		return shape
	}
	if _, ok := fields["Avg"]; !ok {
		if _, ok := fields["qty"]; ok {
			return ShapeQty
		}
	}
	return shape
}

// distanceToMeters holds the factor to metres for each distance unit the
// exporter may use.
var distanceToMeters = map[string]float64{
	"m":  1,
	"km": 1000,
	"mi": 1609.344,
	"ft": 0.3048,
	"yd": 0.9144,
}

// NormalizeQty converts a quantity to the unit stored for its metric.
// Distances are kept in metres; everything else passes through. The
// returned units are what the row should record.
func NormalizeQty(name, units string, qty float64) (float64, string) {
	if name != "walking_running_distance" {
		return qty, units
	}
	if f, ok := distanceToMeters[units]; ok {
		return qty * f, "m"
	}
	return qty, units
}
