package memory

import (
	"context"
	"sort"
	"sync"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

type externalKey struct {
	platform   domain.Platform
	externalID string
}

// ItemStore is an in-memory implementation of storage.ItemStore.
type ItemStore struct {
	mu    sync.RWMutex
	data  map[string]*domain.Item // keyed by item_id
	byExt map[externalKey]string // (platform, external_id) -> item_id
}

// NewItemStore creates a new in-memory item store.
func NewItemStore() *ItemStore {
	return &ItemStore{
		data:  make(map[string]*domain.Item),
		byExt: make(map[externalKey]string),
	}
}

// Insert adds a new item. Returns ErrDuplicateKey if item_id or (platform, external_id) exists.
func (s *ItemStore) Insert(_ context.Context, item *domain.Item) error {
	if item == nil || item.ItemID == "" || item.ExternalID == "" {
		return storage.ErrInvalidInput
	}

	s.mu.Lock()
	defer s.mu.Unlock()

	key := externalKey{item.Platform, item.ExternalID}
	if _, exists := s.data[item.ItemID]; exists {
		return storage.ErrDuplicateKey
	}
	if _, exists := s.byExt[key]; exists {
		return storage.ErrDuplicateKey
	}

	s.data[item.ItemID] = copyItem(item)
	s.byExt[key] = item.ItemID
	return nil
}

// GetByID retrieves an item by its ID. Returns ErrNotFound if not exists.
func (s *ItemStore) GetByID(_ context.Context, itemID string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	item, exists := s.data[itemID]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyItem(item), nil
}

// GetByExternalID retrieves an item by (platform, external_id). Returns ErrNotFound if not exists.
func (s *ItemStore) GetByExternalID(_ context.Context, platform domain.Platform, externalID string) (*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	id, exists := s.byExt[externalKey{platform, externalID}]
	if !exists {
		return nil, storage.ErrNotFound
	}
	return copyItem(s.data[id]), nil
}

// ListByPlatform retrieves all items of a platform, ordered by created_at ASC.
func (s *ItemStore) ListByPlatform(_ context.Context, platform domain.Platform) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Item
	for _, item := range s.data {
		if item.Platform == platform {
			result = append(result, copyItem(item))
		}
	}
	sortItems(result)
	return result, nil
}

// ListByPlatformSince retrieves items of a platform created at or after since.
func (s *ItemStore) ListByPlatformSince(_ context.Context, platform domain.Platform, since int64) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	var result []*domain.Item
	for _, item := range s.data {
		if item.Platform == platform && item.CreatedAt >= since {
			result = append(result, copyItem(item))
		}
	}
	sortItems(result)
	return result, nil
}

// List retrieves all items, ordered by created_at ASC.
func (s *ItemStore) List(_ context.Context) ([]*domain.Item, error) {
	s.mu.RLock()
	defer s.mu.RUnlock()

	result := make([]*domain.Item, 0, len(s.data))
	for _, item := range s.data {
		result = append(result, copyItem(item))
	}
	sortItems(result)
	return result, nil
}

// UpdateReleaseDate replaces the release metadata string. Returns ErrNotFound if not exists.
func (s *ItemStore) UpdateReleaseDate(_ context.Context, itemID, releaseDateRaw string) error {
	s.mu.Lock()
	defer s.mu.Unlock()

	item, exists := s.data[itemID]
	if !exists {
		return storage.ErrNotFound
	}
	item.ReleaseDateRaw = releaseDateRaw
	return nil
}

func copyItem(item *domain.Item) *domain.Item {
	c := *item
	if item.DuplicateOf != nil {
		ref := *item.DuplicateOf
		c.DuplicateOf = &ref
	}
	return &c
}

// sortItems orders by created_at ASC, item_id ASC for ties.
func sortItems(items []*domain.Item) {
	sort.Slice(items, func(i, j int) bool {
		if items[i].CreatedAt != items[j].CreatedAt {
			return items[i].CreatedAt < items[j].CreatedAt
		}
		return items[i].ItemID < items[j].ItemID
	})
}

// Verify interface compliance at compile time.
var _ storage.ItemStore = (*ItemStore)(nil)
