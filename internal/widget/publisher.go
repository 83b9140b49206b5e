package widget

import (
	"context"
	"log/slog"
	"time"

	"github.com/claude/workpulse/internal/models"
)

// SnapshotSource produces the current widget values.
type SnapshotSource interface {
	Widget(ctx context.Context) (*models.WidgetSnapshot, error)
}

// Publisher keeps the store's snapshot fresh.
type Publisher struct {
	source   SnapshotSource
	store    *Store
	interval time.Duration
	log      *slog.Logger
}

// NewPublisher creates a Publisher writing every interval.
func NewPublisher(source SnapshotSource, store *Store, interval time.Duration, log *slog.Logger) *Publisher {
	return &Publisher{source: source, store: store, interval: interval, log: log}
}

// Publish computes and stores one snapshot.
func (p *Publisher) Publish(ctx context.Context) error {
	snap, err := p.source.Widget(ctx)
	if err != nil {
		return err
	}
	changed, err := p.store.SaveSnapshot(snap)
	if err != nil {
		return err
	}
	if changed {
		p.log.Debug("widget snapshot updated", "steps", snap.Steps, "hours", snap.WorkedHours)
	}
	return nil
}

// Run publishes immediately and then on every tick until ctx is done.
// Failures are logged and retried on the next tick.
func (p *Publisher) Run(ctx context.Context) {
	ticker := time.NewTicker(p.interval)
	defer ticker.Stop()

	for {
		if err := p.Publish(ctx); err != nil && ctx.Err() == nil {
			p.log.Warn("widget publish failed", "error", err)
		}
		select {
		case <-ctx.Done():
			return
		case <-ticker.C:
		}
	}
}
