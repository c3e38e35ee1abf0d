package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// MomentumStore implements storage.MomentumStore using SQLite.
type MomentumStore struct {
	db *sql.DB
}

var _ storage.MomentumStore = (*MomentumStore)(nil)

// Replace deletes and re-inserts the set for (as_of_date, window) in one transaction.
func (s *MomentumStore) Replace(ctx context.Context, asOfDate string, window domain.Window, records []*domain.MomentumRecord) error {
	if asOfDate == "" || !window.IsValid() {
		return storage.ErrInvalidInput
	}
	for _, r := range records {
		if r == nil || r.ItemID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer func() {
		_ = tx.Rollback()
	}()

	if _, err := tx.ExecContext(ctx,
		`DELETE FROM momentum_records WHERE as_of_date = ? AND window_kind = ?`,
		asOfDate, string(window),
	); err != nil {
		return fmt.Errorf("delete momentum set: %w", err)
	}

	stmt, err := tx.PrepareContext(ctx, `
		INSERT INTO momentum_records (
			as_of_date, window_kind, item_id, platform, external_id, display_name,
			baseline_value, baseline_time, latest_value, latest_time,
			delta, delta_per_day, delta_rate, percentile, rank
		) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)
	`)
	if err != nil {
		return fmt.Errorf("prepare momentum insert: %w", err)
	}
	defer stmt.Close()

	for _, r := range records {
		_, err := stmt.ExecContext(ctx,
			asOfDate, string(window), r.ItemID, string(r.Platform), r.ExternalID, r.DisplayName,
			r.BaselineValue, r.BaselineTime, r.LatestValue, r.LatestTime,
			r.Delta, r.DeltaPerDay, r.DeltaRate, r.Percentile, r.Rank,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert momentum record: %w", err)
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves the record set for (as_of_date, window), ordered by rank ASC.
func (s *MomentumStore) Get(ctx context.Context, asOfDate string, window domain.Window) ([]*domain.MomentumRecord, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT as_of_date, window_kind, item_id, platform, external_id, display_name,
			baseline_value, baseline_time, latest_value, latest_time,
			delta, delta_per_day, delta_rate, percentile, rank
		FROM momentum_records
		WHERE as_of_date = ? AND window_kind = ?
		ORDER BY rank ASC
	`, asOfDate, string(window))
	if err != nil {
		return nil, fmt.Errorf("get momentum set: %w", err)
	}
	defer rows.Close()

	records := make([]*domain.MomentumRecord, 0)
	for rows.Next() {
		var r domain.MomentumRecord
		var w, platform string
		if err := rows.Scan(
			&r.AsOfDate, &w, &r.ItemID, &platform, &r.ExternalID, &r.DisplayName,
			&r.BaselineValue, &r.BaselineTime, &r.LatestValue, &r.LatestTime,
			&r.Delta, &r.DeltaPerDay, &r.DeltaRate, &r.Percentile, &r.Rank,
		); err != nil {
			return nil, fmt.Errorf("scan momentum row: %w", err)
		}
		r.Window = domain.Window(w)
		r.Platform = domain.Platform(platform)
		records = append(records, &r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate momentum rows: %w", err)
	}
	return records, nil
}

// LatestDate returns the most recent as_of_date at or before onOrBefore with records for the window.
func (s *MomentumStore) LatestDate(ctx context.Context, window domain.Window, onOrBefore string) (string, error) {
	var date sql.NullString
	err := s.db.QueryRowContext(ctx,
		`SELECT MAX(as_of_date) FROM momentum_records WHERE window_kind = ? AND as_of_date <= ?`,
		string(window), onOrBefore,
	).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("latest momentum date: %w", err)
	}
	if !date.Valid {
		return "", storage.ErrNotFound
	}
	return date.String, nil
}
