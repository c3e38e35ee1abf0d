package clickhouse

import (
	"context"
	"database/sql"
	"errors"
	"fmt"

	"github.com/ClickHouse/clickhouse-go/v2"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using ClickHouse.
type SnapshotStore struct {
	conn *Conn
}

// NewSnapshotStore creates a new SnapshotStore.
func NewSnapshotStore(conn *Conn) *SnapshotStore {
	return &SnapshotStore{conn: conn}
}

// Compile-time interface check.
var _ storage.SnapshotStore = (*SnapshotStore)(nil)

const snapshotColumns = `item_id, run_id, metric_value, observed_at`

// Record appends a snapshot. Returns ErrDuplicateRun if (item_id, run_id) exists.
// MergeTree does not enforce keys, so the check is explicit; a concurrent
// duplicate that slips past it collapses on merge and is hidden by FINAL.
func (s *SnapshotStore) Record(ctx context.Context, snap *domain.Snapshot) error {
	if err := storage.ValidateSnapshot(snap); err != nil {
		return err
	}
	exists, err := s.exists(ctx, snap.ItemID, snap.RunID)
	if err != nil {
		return fmt.Errorf("check exists: %w", err)
	}
	if exists {
		return storage.ErrDuplicateRun
	}

	batch, err := s.conn.PrepareBatch(ctx, `INSERT INTO snapshots (`+snapshotColumns+`)`)
	if err != nil {
		return fmt.Errorf("prepare batch: %w", err)
	}
	if err := batch.Append(snap.ItemID, snap.RunID, snap.MetricValue, snap.ObservedAt); err != nil {
		return fmt.Errorf("append to batch: %w", err)
	}
	if err := batch.Send(); err != nil {
		return fmt.Errorf("send batch: %w", err)
	}
	return nil
}

// Range retrieves snapshots for an item within [from, to] (inclusive), ordered by observed_at ASC.
func (s *SnapshotStore) Range(ctx context.Context, itemID string, from, to int64) ([]*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots FINAL
		WHERE item_id = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query, itemID, from, to)
	if err != nil {
		return nil, fmt.Errorf("query by time range: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// History retrieves all snapshots for an item, ordered by observed_at ASC.
func (s *SnapshotStore) History(ctx context.Context, itemID string) ([]*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots FINAL
		WHERE item_id = ?
		ORDER BY observed_at ASC, run_id ASC
	`

	rows, err := s.conn.Query(ctx, query, itemID)
	if err != nil {
		return nil, fmt.Errorf("query history: %w", err)
	}
	defer rows.Close()

	return scanSnapshots(rows)
}

// Latest retrieves the most recent snapshot at or before atOrBefore. Returns ErrNotFound if none.
func (s *SnapshotStore) Latest(ctx context.Context, itemID string, atOrBefore int64) (*domain.Snapshot, error) {
	query := `
		SELECT ` + snapshotColumns + `
		FROM snapshots FINAL
		WHERE item_id = ? AND observed_at <= ?
		ORDER BY observed_at DESC, run_id DESC
		LIMIT 1
	`

	var snap domain.Snapshot
	err := s.conn.QueryRow(ctx, query, itemID, atOrBefore).Scan(
		&snap.ItemID, &snap.RunID, &snap.MetricValue, &snap.ObservedAt,
	)
	if err != nil {
		if errors.Is(err, sql.ErrNoRows) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("query latest: %w", err)
	}
	return &snap, nil
}

// CountByRun returns the number of snapshots recorded by a run.
func (s *SnapshotStore) CountByRun(ctx context.Context, runID string) (int, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM snapshots FINAL WHERE run_id = ?`, runID).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count by run: %w", err)
	}
	return int(count), nil
}

// DeleteOlderThan removes snapshots observed strictly before cutoff.
// The mutation runs synchronously so the returned count is settled.
func (s *SnapshotStore) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	var count uint64
	err := s.conn.QueryRow(ctx, `SELECT count(*) FROM snapshots FINAL WHERE observed_at < ?`, cutoff).Scan(&count)
	if err != nil {
		return 0, fmt.Errorf("count old snapshots: %w", err)
	}
	if count == 0 {
		return 0, nil
	}

	ctx = clickhouse.Context(ctx, clickhouse.WithSettings(clickhouse.Settings{
		"mutations_sync": 1,
	}))
	if err := s.conn.Exec(ctx, `ALTER TABLE snapshots DELETE WHERE observed_at < ?`, cutoff); err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	return int(count), nil
}

// exists checks if a snapshot with the given key exists.
func (s *SnapshotStore) exists(ctx context.Context, itemID, runID string) (bool, error) {
	var count uint64
	err := s.conn.QueryRow(ctx,
		`SELECT count(*) FROM snapshots WHERE item_id = ? AND run_id = ?`,
		itemID, runID,
	).Scan(&count)
	if err != nil {
		return false, err
	}
	return count > 0, nil
}

// chRows is the subset of driver.Rows the scanners need.
type chRows interface {
	Next() bool
	Scan(dest ...interface{}) error
	Err() error
}

func scanSnapshots(rows chRows) ([]*domain.Snapshot, error) {
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
