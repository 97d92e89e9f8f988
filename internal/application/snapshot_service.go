package application

import (
	"context"
	"log/slog"
	"sync"
	"time"

	"github.com/jmanzanog/market-snapshot/internal/domain"
)

const DefaultSourceTimeout = 15 * time.Second

// SnapshotService fans out to every configured source and merges the results
// into one Snapshot. A failing source degrades to placeholders; it never
// fails the snapshot.
type SnapshotService struct {
	sources []Source
	timeout time.Duration
}

// NewSnapshotService keeps sources in the given order, which is the group
// order of every snapshot.
func NewSnapshotService(timeout time.Duration, sources ...Source) *SnapshotService {
	if timeout <= 0 {
		timeout = DefaultSourceTimeout
	}
	return &SnapshotService{
		sources: sources,
		timeout: timeout,
	}
}

// Snapshot fetches all sources concurrently, each under its own timeout.
// The only error is the caller's own context ending.
func (s *SnapshotService) Snapshot(ctx context.Context) (domain.Snapshot, error) {
	groups := make([]domain.SnapshotGroup, len(s.sources))
	var wg sync.WaitGroup

	for i, src := range s.sources {
		wg.Add(1)
		go func(i int, src Source) {
			defer wg.Done()
			groups[i] = s.fetchGroup(ctx, src)
		}(i, src)
	}

	wg.Wait()

	if err := ctx.Err(); err != nil {
		return domain.Snapshot{}, err
	}

	snapshot := domain.NewSnapshot(groups)
	if failed := snapshot.FailedGroups(); len(failed) > 0 {
		slog.WarnContext(ctx, "Snapshot taken with failed groups", "id", snapshot.ID, "failed", failed, "placeholders", snapshot.Placeholders())
		return snapshot, nil
	}
	slog.InfoContext(ctx, "Snapshot taken", "id", snapshot.ID, "groups", len(groups), "placeholders", snapshot.Placeholders())
	return snapshot, nil
}

func (s *SnapshotService) fetchGroup(ctx context.Context, src Source) domain.SnapshotGroup {
	fetchCtx, cancel := context.WithTimeout(ctx, s.timeout)
	defer cancel()

	items, err := src.Fetch(fetchCtx)
	if err != nil {
		slog.ErrorContext(ctx, "Source failed, using placeholders", "source", src.Name(), "error", err)
	}
	return mergeGroup(src.Name(), src.Labels(), items, err)
}

// mergeGroup applies the failure rules: a source error turns every label
// into a placeholder, an item error turns that label into a placeholder,
// and labels the source did not return are left out. Records follow labels.
func mergeGroup(name string, labels []string, items []domain.ItemResult, sourceErr error) domain.SnapshotGroup {
	group := domain.SnapshotGroup{
		Name:    name,
		Records: make([]domain.QuoteRecord, 0, len(labels)),
	}

	if sourceErr != nil {
		group.Error = sourceErr.Error()
		for _, label := range labels {
			group.Records = append(group.Records, domain.PlaceholderRecord(label))
		}
		return group
	}

	byLabel := make(map[string]domain.ItemResult, len(items))
	for _, item := range items {
		if _, dup := byLabel[item.Label]; dup {
			continue
		}
		byLabel[item.Label] = item
	}

	for _, label := range labels {
		item, ok := byLabel[label]
		if !ok {
			continue
		}
		if item.Err != nil {
			group.Records = append(group.Records, domain.PlaceholderRecord(label))
			continue
		}
		record := item.Record
		record.Label = label
		group.Records = append(group.Records, record)
	}

	return group
}
