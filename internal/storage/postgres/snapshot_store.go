package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using PostgreSQL.
type SnapshotStore struct {
	pool *Pool
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(pool *Pool) *SnapshotStore {
	return &SnapshotStore{pool: pool}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Record appends a snapshot. Returns ErrDuplicateRun if (item_id, run_id) exists.
func (s *SnapshotStore) Record(ctx context.Context, snap *domain.Snapshot) error {
	if err := storage.ValidateSnapshot(snap); err != nil {
		return err
	}
	query := `
		INSERT INTO snapshots (item_id, run_id, metric_value, observed_at)
		VALUES ($1, $2, $3, $4)
	`

	_, err := s.pool.Exec(ctx, query, snap.ItemID, snap.RunID, snap.MetricValue, snap.ObservedAt)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateRun
		}
		return fmt.Errorf("insert snapshot: %w", err)
	}
	return nil
}

// Range retrieves snapshots for an item within [from, to] (inclusive), ordered by observed_at ASC.
func (s *SnapshotStore) Range(ctx context.Context, itemID string, from, to int64) ([]*domain.Snapshot, error) {
	query := `
		SELECT item_id, run_id, metric_value, observed_at
		FROM snapshots
		WHERE item_id = $1 AND observed_at >= $2 AND observed_at <= $3
		ORDER BY observed_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, itemID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// History retrieves all snapshots for an item, ordered by observed_at ASC.
func (s *SnapshotStore) History(ctx context.Context, itemID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT item_id, run_id, metric_value, observed_at
		FROM snapshots
		WHERE item_id = $1
		ORDER BY observed_at ASC, run_id ASC
	`

	rows, err := s.pool.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot history: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Latest retrieves the most recent snapshot at or before atOrBefore. Returns ErrNotFound if none.
func (s *SnapshotStore) Latest(ctx context.Context, itemID string, atOrBefore int64) (*domain.Snapshot, error) {
	query := `
		SELECT item_id, run_id, metric_value, observed_at
		FROM snapshots
		WHERE item_id = $1 AND observed_at <= $2
		ORDER BY observed_at DESC, run_id DESC
		LIMIT 1
	`

	var snap domain.Snapshot
	err := s.pool.QueryRow(ctx, query, itemID, atOrBefore).Scan(
		&snap.ItemID, &snap.RunID, &snap.MetricValue, &snap.ObservedAt,
	)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return &snap, nil
}

// CountByRun returns the number of snapshots recorded by a run.
func (s *SnapshotStore) CountByRun(ctx context.Context, runID string) (int, error) {
	var count int
	if err := s.pool.QueryRow(ctx, `SELECT COUNT(*) FROM snapshots WHERE run_id = $1`, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots by run: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes snapshots observed strictly before cutoff.
func (s *SnapshotStore) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	tag, err := s.pool.Exec(ctx, `DELETE FROM snapshots WHERE observed_at < $1`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	return int(tag.RowsAffected()), nil
}

// scanSnapshots scans multiple rows into a slice of Snapshot.
func scanSnapshots(rows pgx.Rows) ([]*domain.Snapshot, error) {
	var snaps []*domain.Snapshot

	for rows.Next() {
		var snap domain.Snapshot
		if err := rows.Scan(&snap.ItemID, &snap.RunID, &snap.MetricValue, &snap.ObservedAt); err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snaps = append(snaps, &snap)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}

	return snaps, nil
}
