// Package ingest defines the outcome shared by the sample ingest providers.
package ingest

// Result holds the outcome of an ingest operation.
type Result struct {
	MetricsReceived int      `json:"metrics_received"`
	MetricsInserted int64    `json:"metrics_inserted"`
	MetricsSkipped  int64    `json:"metrics_skipped"`
	MetricsRejected int      `json:"metrics_rejected"`
	RejectedNames   []string `json:"rejected_names,omitempty"`

	WorkoutsIgnored int `json:"workouts_ignored,omitempty"`

	Message string `json:"message,omitempty"`
}
