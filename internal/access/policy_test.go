package access

import (
	"context"
	"errors"
	"io"
	"log/slog"
	"testing"
	"time"

	"github.com/claude/workpulse/internal/calendar"
)

var (
	testLog = slog.New(slog.NewTextHandler(io.Discard, nil))
	testCal = calendar.Calendar{FirstWeekday: time.Monday, Location: time.UTC}
	// Wednesday.
	now = time.Date(2026, 3, 11, 15, 0, 0, 0, time.UTC)
)

type failing struct{}

func (failing) Unlocked(context.Context) (bool, error) { return false, errors.New("db down") }

type fakeStore map[string]bool

func (f fakeStore) IsUnlocked(_ context.Context, name string) (bool, error) { return f[name], nil }

func newPolicy(ent Entitlement, opts ...Option) *Policy {
	opts = append(opts, WithNow(func() time.Time { return now }))
	return NewPolicy(ent, testCal, testLog, opts...)
}

// TestCanViewHistoryLockedWindow verifies that without the entitlement
// only the current week and the configured lookback are viewable.
func TestCanViewHistoryLockedWindow(t *testing.T) {
	p := newPolicy(Static(false))
	tests := []struct {
		name string
		date time.Time
		want bool
	}{
		{"current week monday", time.Date(2026, 3, 9, 0, 0, 0, 0, time.UTC), true},
		{"current week sunday", time.Date(2026, 3, 15, 23, 0, 0, 0, time.UTC), true},
		{"previous week", time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC), true},
		{"two weeks back", time.Date(2026, 2, 27, 12, 0, 0, 0, time.UTC), false},
		{"next week", time.Date(2026, 3, 17, 12, 0, 0, 0, time.UTC), true},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			if got := p.CanViewHistory(context.Background(), tt.date); got != tt.want {
				t.Errorf("CanViewHistory(%v) = %v, want %v", tt.date, got, tt.want)
			}
		})
	}
}

// TestCanViewHistoryLookbackOption verifies a wider lookback opens older
// weeks and zero restricts to the current week.
func TestCanViewHistoryLookbackOption(t *testing.T) {
	threeBack := time.Date(2026, 2, 18, 12, 0, 0, 0, time.UTC)
	if !newPolicy(Static(false), WithLookback(3)).CanViewHistory(context.Background(), threeBack) {
		t.Error("three weeks back should be viewable with lookback 3")
	}
	lastWeek := time.Date(2026, 3, 4, 12, 0, 0, 0, time.UTC)
	if newPolicy(Static(false), WithLookback(0)).CanViewHistory(context.Background(), lastWeek) {
		t.Error("previous week should be locked with lookback 0")
	}
}

// TestEntitledSeesEverything verifies the entitlement opens all history
// and detailed metrics.
func TestEntitledSeesEverything(t *testing.T) {
	p := newPolicy(Stored{DB: fakeStore{"pro": true}, Name: "pro"})
	if !p.CanViewHistory(context.Background(), time.Date(2020, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("entitled caller should see old weeks")
	}
	if !p.CanViewDetailedMetrics(context.Background()) {
		t.Error("entitled caller should see detailed metrics")
	}
}

// TestLookupFailureLocks verifies an entitlement error is treated as
// not entitled.
func TestLookupFailureLocks(t *testing.T) {
	p := newPolicy(failing{})
	if p.CanViewDetailedMetrics(context.Background()) {
		t.Error("detailed metrics should be locked when lookup fails")
	}
	if p.CanViewHistory(context.Background(), time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)) {
		t.Error("old weeks should be locked when lookup fails")
	}
}

// TestEither verifies any unlocked entitlement wins over errors.
func TestEither(t *testing.T) {
	ok, err := Either{failing{}, Static(true)}.Unlocked(context.Background())
	if !ok || err != nil {
		t.Errorf("Either = %v, %v; want true, nil", ok, err)
	}
	ok, err = Either{Static(false), failing{}}.Unlocked(context.Background())
	if ok || err == nil {
		t.Errorf("Either = %v, %v; want false with error", ok, err)
	}
}
