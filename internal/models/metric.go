package models

import "fmt"

// MetricKind identifies one of the tracked health signals.
type MetricKind string

const (
	Steps     MetricKind = "steps"
	Calories  MetricKind = "calories"
	Distance  MetricKind = "distance"
	HeartRate MetricKind = "heart_rate"
	Flights   MetricKind = "flights"
)

// AllMetricKinds lists every kind in display order.
var AllMetricKinds = []MetricKind{Steps, Calories, Distance, HeartRate, Flights}

// Combine describes how samples inside a time range fold into one value.
type Combine int

const (
	CombineSum     Combine = iota // cumulative total over the range
	CombineAverage                // discrete mean of samples, not time-weighted
)

func (c Combine) String() string {
	if c == CombineAverage {
		return "average"
	}
	return "sum"
}

// MarshalText lets Combine appear as "sum"/"average" in JSON.
func (c Combine) MarshalText() ([]byte, error) {
	return []byte(c.String()), nil
}

// UnmarshalText accepts the names produced by MarshalText.
func (c *Combine) UnmarshalText(b []byte) error {
	switch string(b) {
	case "sum":
		*c = CombineSum
	case "average":
		*c = CombineAverage
	default:
		return fmt.Errorf("unknown combine %q", b)
	}
	return nil
}

// MetricPolicy is the fixed per-kind behaviour consulted once per query.
type MetricPolicy struct {
	Kind MetricKind `json:"kind"`
	// SourceMetric is the health_metrics.metric_name the kind is read from.
	SourceMetric string  `json:"source_metric"`
	Combine      Combine `json:"combine"`
	Unit         string  `json:"unit"`
	SourceUnit   string  `json:"source_unit"`
	// Detailed kinds are gated behind the detailed-metrics entitlement.
	Detailed bool `json:"detailed"`

	convert func(float64) float64
}

// Convert maps a raw source value into the kind's display unit.
func (p MetricPolicy) Convert(v float64) float64 {
	if p.convert == nil {
		return v
	}
	return p.convert(v)
}

// Additive reports whether work and personal values can be subtracted.
func (p MetricPolicy) Additive() bool {
	return p.Combine == CombineSum
}

func metersToKilometers(v float64) float64 { return v / 1000 }

var policies = map[MetricKind]MetricPolicy{
	Steps: {
		Kind: Steps, SourceMetric: "step_count",
		Combine: CombineSum, Unit: "count", SourceUnit: "count",
	},
	Calories: {
		Kind: Calories, SourceMetric: "active_energy",
		Combine: CombineSum, Unit: "kcal", SourceUnit: "kcal",
	},
	Distance: {
		Kind: Distance, SourceMetric: "walking_running_distance",
		Combine: CombineSum, Unit: "km", SourceUnit: "m",
		Detailed: true, convert: metersToKilometers,
	},
	HeartRate: {
		Kind: HeartRate, SourceMetric: "heart_rate",
		Combine: CombineAverage, Unit: "bpm", SourceUnit: "bpm",
		Detailed: true,
	},
	Flights: {
		Kind: Flights, SourceMetric: "flights_climbed",
		Combine: CombineSum, Unit: "count", SourceUnit: "count",
		Detailed: true,
	},
}

// PolicyFor returns the policy for a kind. Unknown kinds panic since the
// set is closed and every caller iterates AllMetricKinds.
func PolicyFor(kind MetricKind) MetricPolicy {
	p, ok := policies[kind]
	if !ok {
		panic(fmt.Sprintf("models: unknown metric kind %q", kind))
	}
	return p
}

// Policies returns the policy table in display order.
func Policies() []MetricPolicy {
	out := make([]MetricPolicy, 0, len(AllMetricKinds))
	for _, k := range AllMetricKinds {
		out = append(out, policies[k])
	}
	return out
}

// ParseMetricKind validates a kind name coming from an API caller.
func ParseMetricKind(s string) (MetricKind, error) {
	k := MetricKind(s)
	if _, ok := policies[k]; !ok {
		return "", fmt.Errorf("unknown metric kind %q", s)
	}
	return k, nil
}

// SourceMetricNames lists the health_metrics names backing every kind.
func SourceMetricNames() []string {
	out := make([]string, 0, len(AllMetricKinds))
	for _, k := range AllMetricKinds {
		out = append(out, policies[k].SourceMetric)
	}
	return out
}

// KindForSourceMetric maps a stored metric name back to its kind.
func KindForSourceMetric(name string) (MetricKind, bool) {
	for _, k := range AllMetricKinds {
		if policies[k].SourceMetric == name {
			return k, true
		}
	}
	return "", false
}
