package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// SnapshotStore implements storage.SnapshotStore using SQLite.
type SnapshotStore struct {
	db *sql.DB
}

var _ storage.SnapshotStore = (*SnapshotStore)(nil)

// Record appends a snapshot. Returns ErrDuplicateRun if (item_id, run_id) exists.
func (s *SnapshotStore) Record(ctx context.Context, snap *domain.Snapshot) error {
	if err := storage.ValidateSnapshot(snap); err != nil {
		return err
	}
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO snapshots (item_id, run_id, metric_value, observed_at) VALUES (?, ?, ?, ?)`,
		snap.ItemID, snap.RunID, nullableInt64(snap.MetricValue), snap.ObservedAt,
	)
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
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, run_id, metric_value, observed_at
		FROM snapshots
		WHERE item_id = ? AND observed_at >= ? AND observed_at <= ?
		ORDER BY observed_at ASC, run_id ASC
	`, itemID, from, to)
	if err != nil {
		return nil, fmt.Errorf("get snapshots by range: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// History retrieves all snapshots for an item, ordered by observed_at ASC.
func (s *SnapshotStore) History(ctx context.Context, itemID string) ([]*domain.Snapshot, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT item_id, run_id, metric_value, observed_at
		FROM snapshots
		WHERE item_id = ?
		ORDER BY observed_at ASC, run_id ASC
	`, itemID)
	if err != nil {
		return nil, fmt.Errorf("get snapshot history: %w", err)
	}
	defer rows.Close()
	return scanSnapshots(rows)
}

// Latest retrieves the most recent snapshot at or before atOrBefore. Returns ErrNotFound if none.
func (s *SnapshotStore) Latest(ctx context.Context, itemID string, atOrBefore int64) (*domain.Snapshot, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT item_id, run_id, metric_value, observed_at
		FROM snapshots
		WHERE item_id = ? AND observed_at <= ?
		ORDER BY observed_at DESC, run_id DESC
		LIMIT 1
	`, itemID, atOrBefore)

	snap, err := scanSnapshot(row)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get latest snapshot: %w", err)
	}
	return snap, nil
}

// CountByRun returns the number of snapshots recorded by a run.
func (s *SnapshotStore) CountByRun(ctx context.Context, runID string) (int, error) {
	var count int
	if err := s.db.QueryRowContext(ctx, `SELECT COUNT(*) FROM snapshots WHERE run_id = ?`, runID).Scan(&count); err != nil {
		return 0, fmt.Errorf("count snapshots by run: %w", err)
	}
	return count, nil
}

// DeleteOlderThan removes snapshots observed strictly before cutoff.
func (s *SnapshotStore) DeleteOlderThan(ctx context.Context, cutoff int64) (int, error) {
	res, err := s.db.ExecContext(ctx, `DELETE FROM snapshots WHERE observed_at < ?`, cutoff)
	if err != nil {
		return 0, fmt.Errorf("delete old snapshots: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return 0, fmt.Errorf("rows affected: %w", err)
	}
	return int(n), nil
}

func scanSnapshot(row scanner) (*domain.Snapshot, error) {
	var snap domain.Snapshot
	var value sql.NullInt64
	if err := row.Scan(&snap.ItemID, &snap.RunID, &value, &snap.ObservedAt); err != nil {
		return nil, err
	}
	if value.Valid {
		v := value.Int64
		snap.MetricValue = &v
	}
	return &snap, nil
}

func scanSnapshots(rows *sql.Rows) ([]*domain.Snapshot, error) {
	var snaps []*domain.Snapshot
	for rows.Next() {
		snap, err := scanSnapshot(rows)
		if err != nil {
			return nil, fmt.Errorf("scan snapshot row: %w", err)
		}
		snaps = append(snaps, snap)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate snapshot rows: %w", err)
	}
	return snaps, nil
}

func nullableInt64(v *int64) sql.NullInt64 {
	if v == nil {
		return sql.NullInt64{}
	}
	return sql.NullInt64{Int64: *v, Valid: true}
}
