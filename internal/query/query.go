// Package query serves stored momentum sets and item histories to reporting
// collaborators.
package query

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// ErrNoMomentum is returned when no set exists for the window on or before the requested date.
var ErrNoMomentum = errors.New("no momentum computed")

// MomentumResult is a served momentum set.
type MomentumResult struct {
	Window        domain.Window
	RequestedDate string // empty when the caller asked for the latest set
	ServedDate    string // date of the returned set
	Fallback      bool   // ServedDate differs from RequestedDate
	Records       []*domain.MomentumRecord
}

// HistoryResult is an item with its full snapshot history.
type HistoryResult struct {
	Item      *domain.Item
	Snapshots []*domain.Snapshot
}

// Service answers momentum and history queries.
type Service struct {
	items     storage.ItemStore
	snapshots storage.SnapshotStore
	momentum  storage.MomentumStore
	now       func() time.Time
}

// NewService creates a query service over the stores.
func NewService(stores storage.Stores) *Service {
	return &Service{
		items:     stores.Items,
		snapshots: stores.Snapshots,
		momentum:  stores.Momentum,
		now:       time.Now,
	}
}

// Momentum returns the set for (window, asOfDate). When none was computed for
// that exact date, the most recent prior set is served instead. A nil
// asOfDate serves the latest set up to today (UTC).
func (s *Service) Momentum(ctx context.Context, window domain.Window, asOfDate *string) (*MomentumResult, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWindow, window)
	}

	result := &MomentumResult{Window: window}
	onOrBefore := domain.AsOfDate(s.now().UnixMilli())
	if asOfDate != nil {
		if _, err := time.Parse(domain.AsOfDateLayout, *asOfDate); err != nil {
			return nil, fmt.Errorf("%w: as_of_date %q", storage.ErrInvalidInput, *asOfDate)
		}
		onOrBefore = *asOfDate
		result.RequestedDate = *asOfDate
	}

	served, err := s.momentum.LatestDate(ctx, window, onOrBefore)
	if errors.Is(err, storage.ErrNotFound) {
		return nil, fmt.Errorf("%w: window %s on or before %s", ErrNoMomentum, window, onOrBefore)
	}
	if err != nil {
		return nil, fmt.Errorf("latest momentum date: %w", err)
	}

	records, err := s.momentum.Get(ctx, served, window)
	if err != nil {
		return nil, fmt.Errorf("get momentum %s/%s: %w", served, window, err)
	}

	result.ServedDate = served
	result.Fallback = result.RequestedDate != "" && served != result.RequestedDate
	result.Records = records
	return result, nil
}

// History returns an item and every snapshot recorded for it, oldest first.
func (s *Service) History(ctx context.Context, itemID string) (*HistoryResult, error) {
	item, err := s.items.GetByID(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("get item %s: %w", itemID, err)
	}
	series, err := s.snapshots.History(ctx, itemID)
	if err != nil {
		return nil, fmt.Errorf("history %s: %w", itemID, err)
	}
	return &HistoryResult{Item: item, Snapshots: series}, nil
}

// HistoryByExternalID resolves (platform, external_id) and returns its history.
func (s *Service) HistoryByExternalID(ctx context.Context, platform domain.Platform, externalID string) (*HistoryResult, error) {
	item, err := s.items.GetByExternalID(ctx, platform, externalID)
	if err != nil {
		return nil, fmt.Errorf("get item %s/%s: %w", platform, externalID, err)
	}
	return s.History(ctx, item.ItemID)
}
