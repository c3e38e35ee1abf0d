package storage

import (
	"context"

	"wishlist-momentum-lab/internal/domain"
)

// ItemStore provides access to items storage.
type ItemStore interface {
	// Insert adds a new item. Returns ErrDuplicateKey if item_id or (platform, external_id) exists.
	Insert(ctx context.Context, item *domain.Item) error

	// GetByID retrieves an item by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, itemID string) (*domain.Item, error)

	// GetByExternalID retrieves an item by (platform, external_id). Returns ErrNotFound if not exists.
	GetByExternalID(ctx context.Context, platform domain.Platform, externalID string) (*domain.Item, error)

	// ListByPlatform retrieves all items of a platform, ordered by created_at ASC.
	ListByPlatform(ctx context.Context, platform domain.Platform) ([]*domain.Item, error)

	// ListByPlatformSince retrieves items of a platform with created_at >= since,
	// ordered by created_at ASC.
	ListByPlatformSince(ctx context.Context, platform domain.Platform, since int64) ([]*domain.Item, error)

	// List retrieves all items, ordered by created_at ASC.
	List(ctx context.Context) ([]*domain.Item, error)

	// UpdateReleaseDate replaces the release metadata string. Returns ErrNotFound if not exists.
	UpdateReleaseDate(ctx context.Context, itemID, releaseDateRaw string) error
}

// SnapshotStore provides access to the append-only snapshots time series.
type SnapshotStore interface {
	// Record appends a snapshot. Returns ErrDuplicateRun if (item_id, run_id) exists.
	// A nil metric value is stored as unknown, never as zero.
	Record(ctx context.Context, s *domain.Snapshot) error

	// Range retrieves snapshots for an item within [from, to] (inclusive), ordered by observed_at ASC.
	Range(ctx context.Context, itemID string, from, to int64) ([]*domain.Snapshot, error)

	// History retrieves all snapshots for an item, ordered by observed_at ASC.
	History(ctx context.Context, itemID string) ([]*domain.Snapshot, error)

	// Latest retrieves the most recent snapshot at or before atOrBefore. Returns ErrNotFound if none.
	Latest(ctx context.Context, itemID string, atOrBefore int64) (*domain.Snapshot, error)

	// CountByRun returns the number of snapshots recorded by a run.
	CountByRun(ctx context.Context, runID string) (int, error)

	// DeleteOlderThan removes snapshots observed strictly before cutoff and returns how many were removed.
	DeleteOlderThan(ctx context.Context, cutoff int64) (int, error)
}

// MomentumStore provides access to momentum_records storage.
type MomentumStore interface {
	// Replace atomically swaps the full record set for (as_of_date, window).
	// Readers observe either the old set or the new set, never a mix.
	// An empty records slice removes the existing set.
	Replace(ctx context.Context, asOfDate string, window domain.Window, records []*domain.MomentumRecord) error

	// Get retrieves the record set for (as_of_date, window), ordered by rank ASC.
	Get(ctx context.Context, asOfDate string, window domain.Window) ([]*domain.MomentumRecord, error)

	// LatestDate returns the most recent as_of_date at or before onOrBefore that has records
	// for the window. Returns ErrNotFound if none.
	LatestDate(ctx context.Context, window domain.Window, onOrBefore string) (string, error)
}

// RunStore provides access to runs storage.
type RunStore interface {
	// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
	Insert(ctx context.Context, r *domain.Run) error

	// Complete sets the terminal status and summary of a run. Returns ErrNotFound if not exists.
	Complete(ctx context.Context, runID string, status domain.RunStatus, completedAt int64, summary *domain.RunSummary) error

	// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
	GetByID(ctx context.Context, runID string) (*domain.Run, error)

	// List retrieves the most recent runs, ordered by started_at DESC.
	List(ctx context.Context, limit int) ([]*domain.Run, error)
}

// Stores bundles the stores a pipeline needs.
type Stores struct {
	Items     ItemStore
	Snapshots SnapshotStore
	Momentum  MomentumStore
	Runs      RunStore
}
