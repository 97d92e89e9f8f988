package application

import (
	"context"
	"fmt"
	"log/slog"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

type SnapshotTaker interface {
	Snapshot(ctx context.Context) (domain.Snapshot, error)
}

// SnapshotTicker drives the auto-refresh loop outside the aggregation core.
type SnapshotTicker struct {
	service SnapshotTaker
}

func NewSnapshotTicker(service SnapshotTaker) *SnapshotTicker {
	return &SnapshotTicker{service: service}
}

// Run emits one snapshot immediately and then one per interval until ctx is
// done or emit fails. With refresh off it emits exactly once.
func (t *SnapshotTicker) Run(ctx context.Context, interval domain.RefreshInterval, emit func(domain.Snapshot) error) error {
	if err := t.tick(ctx, emit); err != nil {
		return err
	}
	if !interval.Enabled() {
		return nil
	}

	ticker := time.NewTicker(interval.Every)
	defer ticker.Stop()

	slog.InfoContext(ctx, "Snapshot ticker started", "interval", interval.Name)

	for {
		select {
		case <-ticker.C:
			if err := t.tick(ctx, emit); err != nil {
				return err
			}
		case <-ctx.Done():
			slog.InfoContext(ctx, "Snapshot ticker stopped due to context cancellation")
			return nil
		}
	}
}

func (t *SnapshotTicker) tick(ctx context.Context, emit func(domain.Snapshot) error) error {
	snapshot, err := t.service.Snapshot(ctx)
	if err != nil {
		if ctx.Err() != nil {
			return nil
		}
		return fmt.Errorf("failed to take snapshot: %w", err)
	}
	if err := emit(snapshot); err != nil {
		return fmt.Errorf("failed to emit snapshot: %w", err)
	}
	return nil
}
