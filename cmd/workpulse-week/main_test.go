package main

import (
	"bytes"
	"strings"
	"testing"
	"time"

	"github.com/claude/workpulse/internal/models"
)

var testWeek = time.Date(2026, 3, 2, 0, 0, 0, 0, time.UTC)

// TestPrintSummary verifies the table shows totals for additive kinds,
// only averages for heart rate, and the hours and pay footer.
func TestPrintSummary(t *testing.T) {
	s := &models.WeekSummary{
		WeekStart: testWeek,
		WeekEnd:   testWeek.AddDate(0, 0, 7),
		Metrics: []models.MetricWeek{
			{Kind: models.Steps, Unit: "count", WorkTotal: 6000, PersonalTotal: 11000, WorkAverage: 857.1, PersonalAverage: 1571.4},
			{Kind: models.HeartRate, Unit: "bpm", Combine: models.CombineAverage, WorkAverage: 85, PersonalAverage: 72},
		},
		LockedMetrics: []models.MetricKind{models.Flights},
		WorkedHours:   9,
		EstimatedPay:  162,
		SessionCount:  1,
	}

	var buf bytes.Buffer
	printSummary(&buf, s)
	out := buf.String()

	for _, want := range []string{
		"Week 2026-03-02 to 2026-03-08",
		"6000.0",
		"heart_rate",
		"flights: locked",
		"9h 00m",
		"162.00",
	} {
		if !strings.Contains(out, want) {
			t.Errorf("output missing %q:\n%s", want, out)
		}
	}
}

// TestPrintSummaryLocked verifies a locked week prints no metric table.
func TestPrintSummaryLocked(t *testing.T) {
	var buf bytes.Buffer
	printSummary(&buf, &models.WeekSummary{WeekStart: testWeek, WeekEnd: testWeek.AddDate(0, 0, 7), Locked: true})

	out := buf.String()
	if !strings.Contains(out, "locked") {
		t.Errorf("output = %q, want locked notice", out)
	}
	if strings.Contains(out, "METRIC") {
		t.Errorf("locked output contains table header:\n%s", out)
	}
}
