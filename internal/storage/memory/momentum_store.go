package memory

import (
	"context"
	"sort"
	"sync"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

type momentumKey struct {
	asOfDate string
	window   domain.Window
}

// MomentumStore is an in-memory implementation of storage.MomentumStore.
// Each (as_of_date, window) set is an immutable slice swapped under the lock,
// so readers never see a partially replaced set.
type MomentumStore struct {
	mu   sync.RWMutex
	sets map[momentumKey][]*domain.MomentumRecord
}

// NewMomentumStore creates a new in-memory momentum store.
func NewMomentumStore() *MomentumStore {
	return &MomentumStore{
		sets: make(map[momentumKey][]*domain.MomentumRecord),
	}
}

// Replace atomically swaps the full record set for (as_of_date, window).
func (s *MomentumStore) Replace(_ context.Context, asOfDate string, window domain.Window, records []*domain.MomentumRecord) error {
	if asOfDate == "" || !window.IsValid() {
		return storage.ErrInvalidInput
	}

	// Build the new set before taking the lock.
	set := make([]*domain.MomentumRecord, 0, len(records))
	seen := make(map[string]struct{}, len(records))
	for _, r := range records {
		if r == nil || r.ItemID == "" {
			return storage.ErrInvalidInput
		}
		if _, dup := seen[r.ItemID]; dup {
			return storage.ErrDuplicateKey
		}
		seen[r.ItemID] = struct{}{}

		c := *r
		c.AsOfDate = asOfDate
		c.Window = window
		set = append(set, &c)
	}
	sortByRank(set)

	key := momentumKey{asOfDate, window}

	s.mu.Lock()
	defer s.mu.Unlock()

	if len(set) == 0 {
		delete(s.sets, key)
		return nil
	}
	s.sets[key] = set
	return nil
}

// Get retrieves the record set for (as_of_date, window), ordered by rank ASC.
func (s *MomentumStore) Get(_ context.Context, asOfDate string, window domain.Window) ([]*domain.MomentumRecord, error) {
	s.mu.RLock()
	set := s.sets[momentumKey{asOfDate, window}]
	s.mu.RUnlock()

	result := make([]*domain.MomentumRecord, 0, len(set))
	for _, r := range set {
		c := *r
		result = append(result, &c)
	}
	return result, nil
}

// LatestDate returns the most recent as_of_date at or before onOrBefore with records for the window.
func (s *MomentumStore) LatestDate(_ context.Context, window domain.Window, onOrBefore string) (string, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	best := ""
	for key := range s.sets {
		if key.window != window || key.asOfDate > onOrBefore {
			continue
		}
		if key.asOfDate > best {
			best = key.asOfDate
		}
	}
	if best == "" {
		return "", storage.ErrNotFound
	}
	return best, nil
}

func sortByRank(records []*domain.MomentumRecord) {
	sort.SliceStable(records, func(i, j int) bool {
		return records[i].Rank < records[j].Rank
	})
}

// Verify interface compliance at compile time.
var _ storage.MomentumStore = (*MomentumStore)(nil)
