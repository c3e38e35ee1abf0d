package memory

import (
	"context"
	"sort"
	"sync"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// SnapshotStore is an in-memory implementation of storage.SnapshotStore.
type SnapshotStore struct {
	mu     sync.RWMutex
	series map[string][]*domain.Snapshot  // item_id -> snapshots sorted by observed_at ASC
	keys   map[string]map[string]struct{} // item_id -> set of run_id
}

// NewSnapshotStore creates a new in-memory snapshot store.
func NewSnapshotStore() *SnapshotStore {
	return &SnapshotStore{
		series: make(map[string][]*domain.Snapshot),
		keys:   make(map[string]map[string]struct{}),
	}
}

// Record appends a snapshot. Returns ErrDuplicateRun if (item_id, run_id) exists.
func (s *SnapshotStore) Record(_ context.Context, snap *domain.Snapshot) error {
	if err := storage.ValidateSnapshot(snap); err != nil {
		return err
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	runs, ok := s.keys[snap.ItemID]
	if !ok {
		runs = make(map[string]struct{})
		s.keys[snap.ItemID] = runs
	}
	if _, exists := runs[snap.RunID]; exists {
		return storage.ErrDuplicateRun
	}
	runs[snap.RunID] = struct{}{}

	series := append(s.series[snap.ItemID], copySnapshot(snap))
	// Keep ascending order; appends are usually already in order.
	sort.SliceStable(series, func(i, j int) bool {
		return series[i].ObservedAt < series[j].ObservedAt
	})
	s.series[snap.ItemID] = series
	return nil
}

// Range retrieves snapshots for an item within [from, to] (inclusive), ordered by observed_at ASC.
func (s *SnapshotStore) Range(_ context.Context, itemID string, from, to int64) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Snapshot
	for _, snap := range s.series[itemID] {
		if snap.ObservedAt >= from && snap.ObservedAt <= to {
			result = append(result, copySnapshot(snap))
		}
	}
	return result, nil
}

// History retrieves all snapshots for an item, ordered by observed_at ASC.
func (s *SnapshotStore) History(_ context.Context, itemID string) ([]*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[itemID]
	result := make([]*domain.Snapshot, 0, len(series))
	for _, snap := range series {
		result = append(result, copySnapshot(snap))
	}
	return result, nil
}

// Latest retrieves the most recent snapshot at or before atOrBefore. Returns ErrNotFound if none.
func (s *SnapshotStore) Latest(_ context.Context, itemID string, atOrBefore int64) (*domain.Snapshot, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	series := s.series[itemID]
	for i := len(series) - 1; i >= 0; i-- {
		if series[i].ObservedAt <= atOrBefore {
			return copySnapshot(series[i]), nil
		}
	}
	return nil, storage.ErrNotFound
}

// CountByRun returns the number of snapshots recorded by a run.
func (s *SnapshotStore) CountByRun(_ context.Context, runID string) (int, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	count := 0
	for _, runs := range s.keys {
		if _, ok := runs[runID]; ok {
			count++
		}
	}
	return count, nil
}

// DeleteOlderThan removes snapshots observed strictly before cutoff.
func (s *SnapshotStore) DeleteOlderThan(_ context.Context, cutoff int64) (int, error) {
	s.mu.Lock()
	defer s.mu.Unlock()

	removed := 0
	for itemID, series := range s.series {
		kept := series[:0]
		for _, snap := range series {
			if snap.ObservedAt < cutoff {
				delete(s.keys[itemID], snap.RunID)
				removed++
				continue
			}
			kept = append(kept, snap)
		}
		if len(kept) == 0 {
			delete(s.series, itemID)
			delete(s.keys, itemID)
			continue
		}
		s.series[itemID] = kept
	}
	return removed, nil
}

func copySnapshot(snap *domain.Snapshot) *domain.Snapshot {
	c := *snap
	if snap.MetricValue != nil {
		v := *snap.MetricValue
		c.MetricValue = &v
	}
	return &c
}

// Verify interface compliance at compile time.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)
