package memory

import (
	"context"
	"sort"
	"sync"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// RunStore is an in-memory implementation of storage.RunStore.
type RunStore struct {
	mu   sync.RWMutex
	data map[string]*domain.Run // keyed by run_id
}

// NewRunStore creates a new in-memory run store.
func NewRunStore() *RunStore {
	return &RunStore{
		data: make(map[string]*domain.Run),
	}
}

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(_ context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	if _, exists := s.data[r.RunID]; exists {
		return storage.ErrDuplicateKey
	}
	s.data[r.RunID] = copyRun(r)
	return nil
}

// Complete sets the terminal status and summary of a run.
func (s *RunStore) Complete(_ context.Context, runID string, status domain.RunStatus, completedAt int64, summary *domain.RunSummary) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	r, exists := s.data[runID]
	if !exists {
		return storage.ErrNotFound
	}
	r.Status = status
	r.CompletedAt = &completedAt
	if summary != nil {
		sum := *summary
		r.Summary = &sum
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(_ context.Context, runID string) (*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	r, exists := s.data[runID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyRun(r), nil
}

// List retrieves the most recent runs, ordered by started_at DESC.
func (s *RunStore) List(_ context.Context, limit int) ([]*domain.Run, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Run, 0, len(s.data))
	for _, r := range s.data {
		result = append(result, copyRun(r))
	}
	sort.Slice(result, func(i, j int) bool {
		return result[i].StartedAt > result[j].StartedAt
	})
	if limit > 0 && len(result) > limit {
		result = result[:limit]
	}
	return result, nil
}

func copyRun(r *domain.Run) *domain.Run {
	c := *r
	if r.CompletedAt != nil {
		v := *r.CompletedAt
		c.CompletedAt = &v
	}
	if r.Summary != nil {
		sum := *r.Summary
		sum.PlatformsFailed = append([]string(nil), r.Summary.PlatformsFailed...)
		c.Summary = &sum
	}
	return &c
}

// Verify interface compliance at compile time.
var _ storage.RunStore = (*RunStore)(nil)
