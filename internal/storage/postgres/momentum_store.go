package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// MomentumStore implements storage.MomentumStore using PostgreSQL.
type MomentumStore struct {
	pool *Pool
}

// NewMomentumStore creates a new MomentumStore.
func NewMomentumStore(pool *Pool) *MomentumStore {
	return &MomentumStore{pool: pool}
}

// Compile-time interface check.
var _ storage.MomentumStore = (*MomentumStore)(nil)

// Replace deletes and re-inserts the set for (as_of_date, window) in one
// transaction, so readers see the old set until commit and the new one after.
func (s *MomentumStore) Replace(ctx context.Context, asOfDate string, window domain.Window, records []*domain.MomentumRecord) error {
	if asOfDate == "" || !window.IsValid() {
		return storage.ErrInvalidInput
	}
	for _, r := range records {
		if r == nil || r.ItemID == "" {
			return storage.ErrInvalidInput
		}
	}

	tx, err := s.pool.Begin(ctx)
	if err != nil {
		return fmt.Errorf("begin tx: %w", err)
	}
	defer tx.Rollback(ctx)

	if _, err := tx.Exec(ctx,
		`DELETE FROM momentum_records WHERE as_of_date = $1 AND window_kind = $2`,
		asOfDate, string(window),
	); err != nil {
		return fmt.Errorf("delete momentum set: %w", err)
	}

	query := `
		INSERT INTO momentum_records (
			as_of_date, window_kind, item_id, platform, external_id, display_name,
			baseline_value, baseline_time, latest_value, latest_time,
			delta, delta_per_day, delta_rate, percentile, rank
		) VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9, $10, $11, $12, $13, $14, $15)
	`

	for _, r := range records {
		_, err := tx.Exec(ctx, query,
			asOfDate,
			string(window),
			r.ItemID,
			string(r.Platform),
			r.ExternalID,
			r.DisplayName,
			r.BaselineValue,
			r.BaselineTime,
			r.LatestValue,
			r.LatestTime,
			r.Delta,
			r.DeltaPerDay,
			r.DeltaRate,
			r.Percentile,
			r.Rank,
		)
		if err != nil {
			if isUniqueViolation(err) {
				return storage.ErrDuplicateKey
			}
			return fmt.Errorf("insert momentum record: %w", err)
		}
	}

	if err := tx.Commit(ctx); err != nil {
		return fmt.Errorf("commit tx: %w", err)
	}
	return nil
}

// Get retrieves the record set for (as_of_date, window), ordered by rank ASC.
func (s *MomentumStore) Get(ctx context.Context, asOfDate string, window domain.Window) ([]*domain.MomentumRecord, error) {
	query := `
		SELECT as_of_date, window_kind, item_id, platform, external_id, display_name,
			baseline_value, baseline_time, latest_value, latest_time,
			delta, delta_per_day, delta_rate, percentile, rank
		FROM momentum_records
		WHERE as_of_date = $1 AND window_kind = $2
		ORDER BY rank ASC
	`

	rows, err := s.pool.Query(ctx, query, asOfDate, string(window))
	if err != nil {
		return nil, fmt.Errorf("get momentum set: %w", err)
	}
	defer rows.Close()

	return scanMomentumRecords(rows)
}

// LatestDate returns the most recent as_of_date at or before onOrBefore with records for the window.
func (s *MomentumStore) LatestDate(ctx context.Context, window domain.Window, onOrBefore string) (string, error) {
	var date *string
	err := s.pool.QueryRow(ctx,
		`SELECT MAX(as_of_date) FROM momentum_records WHERE window_kind = $1 AND as_of_date <= $2`,
		string(window), onOrBefore,
	).Scan(&date)
	if err != nil {
		return "", fmt.Errorf("latest momentum date: %w", err)
	}
	if date == nil {
		return "", storage.ErrNotFound
	}
	return *date, nil
}

func scanMomentumRecords(rows pgx.Rows) ([]*domain.MomentumRecord, error) {
	records := make([]*domain.MomentumRecord, 0)

	for rows.Next() {
		var r domain.MomentumRecord
		var window, platform string
		err := rows.Scan(
			&r.AsOfDate,
			&window,
			&r.ItemID,
			&platform,
			&r.ExternalID,
			&r.DisplayName,
			&r.BaselineValue,
			&r.BaselineTime,
			&r.LatestValue,
			&r.LatestTime,
			&r.Delta,
			&r.DeltaPerDay,
			&r.DeltaRate,
			&r.Percentile,
			&r.Rank,
		)
		if err != nil {
			return nil, fmt.Errorf("scan momentum row: %w", err)
		}
		r.Window = domain.Window(window)
		r.Platform = domain.Platform(platform)
		records = append(records, &r)
	}

	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate momentum rows: %w", err)
	}
	return records, nil
}
