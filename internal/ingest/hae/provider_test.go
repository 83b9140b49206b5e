package hae

import (
	"context"
	"encoding/json"
	"errors"
	"io"
	"log/slog"
	"testing"

	"github.com/claude/workpulse/internal/models"
	"github.com/claude/workpulse/internal/storage"
)

type fakeStore struct {
	allowed   map[string]bool
	rows      []models.HealthMetricRow
	insertErr error
	logs      []storage.IngestLog
}

func (f *fakeStore) IsMetricAllowed(_ context.Context, name string) (bool, error) {
	return f.allowed[name], nil
}

func (f *fakeStore) InsertHealthMetrics(_ context.Context, rows []models.HealthMetricRow) (int64, error) {
	if f.insertErr != nil {
		return 0, f.insertErr
	}
	f.rows = append(f.rows, rows...)
	return int64(len(rows)), nil
}

func (f *fakeStore) InsertIngestLog(_ context.Context, l storage.IngestLog) (int64, error) {
	f.logs = append(f.logs, l)
	return int64(len(f.logs)), nil
}

var discard = slog.New(slog.NewTextHandler(io.Discard, nil))

const samplePayload = `{
  "data": {
    "metrics": [
      {"name": "step_count", "units": "count", "data": [
        {"date": "2024-02-06 09:00:00 +0100", "qty": 1200},
        {"date": "2024-02-06 10:00:00 +0100", "qty": 800}
      ]},
      {"name": "walking_running_distance", "units": "km", "data": [
        {"date": "2024-02-06 09:00:00 +0100", "qty": 0.9}
      ]},
      {"name": "body_mass", "units": "kg", "data": [
        {"date": "2024-02-06 07:00:00 +0100", "qty": 80}
      ]}
    ],
    "workouts": [{"id": "x"}]
  }
}`

// TestIngestStoresAllowedMetrics verifies allowlisted samples are stored,
// others are rejected by name, and workouts are only counted.
func TestIngestStoresAllowedMetrics(t *testing.T) {
	var payload models.HAEPayload
	if err := json.Unmarshal([]byte(samplePayload), &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	store := &fakeStore{allowed: map[string]bool{"step_count": true, "walking_running_distance": true}}

	result, err := NewProvider(store, discard).Ingest(context.Background(), &payload)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if result.MetricsReceived != 3 || result.MetricsInserted != 3 {
		t.Errorf("received/inserted = %d/%d, want 3/3", result.MetricsReceived, result.MetricsInserted)
	}
	if result.MetricsRejected != 1 || len(result.RejectedNames) != 1 || result.RejectedNames[0] != "body_mass" {
		t.Errorf("rejected = %d %v, want body_mass", result.MetricsRejected, result.RejectedNames)
	}
	if result.WorkoutsIgnored != 1 {
		t.Errorf("workouts ignored = %d, want 1", result.WorkoutsIgnored)
	}
	if result.Message == "" {
		t.Error("expected rejection message")
	}
	dist := store.rows[2]
	if dist.Qty == nil || *dist.Qty != 900 || dist.Units != "m" {
		t.Errorf("distance row = %v %s, want 900 m", dist.Qty, dist.Units)
	}
	if len(store.logs) != 1 || store.logs[0].Status != "success" {
		t.Errorf("ingest logs = %+v, want one success", store.logs)
	}
}

// TestIngestInsertFailure verifies a storage failure is returned and
// recorded as an error log.
func TestIngestInsertFailure(t *testing.T) {
	var payload models.HAEPayload
	if err := json.Unmarshal([]byte(samplePayload), &payload); err != nil {
		t.Fatalf("decoding payload: %v", err)
	}
	boom := errors.New("disk full")
	store := &fakeStore{allowed: map[string]bool{"step_count": true}, insertErr: boom}

	_, err := NewProvider(store, discard).Ingest(context.Background(), &payload)
	if !errors.Is(err, boom) {
		t.Fatalf("err = %v, want %v", err, boom)
	}
	if len(store.logs) != 1 || store.logs[0].Status != "error" || store.logs[0].ErrorMessage == nil {
		t.Errorf("ingest logs = %+v, want one error entry", store.logs)
	}
}
