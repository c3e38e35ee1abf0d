package sqlite

import (
	"context"
	"database/sql"
	"encoding/json"
	"fmt"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// RunStore implements storage.RunStore using SQLite.
type RunStore struct {
	db *sql.DB
}

var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	summary, err := summaryJSON(r.Summary)
	if err != nil {
		return err
	}

	_, err = s.db.ExecContext(ctx, `
		INSERT INTO runs (run_id, as_of_date, as_of_ms, started_at, completed_at, status, summary_json)
		VALUES (?, ?, ?, ?, ?, ?, ?)
	`, r.RunID, r.AsOfDate, r.AsOf, r.StartedAt, nullableInt64(r.CompletedAt), string(r.Status), summary)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert run: %w", err)
	}
	return nil
}

// Complete sets the terminal status and summary of a run. Returns ErrNotFound if not exists.
func (s *RunStore) Complete(ctx context.Context, runID string, status domain.RunStatus, completedAt int64, summary *domain.RunSummary) error {
	data, err := summaryJSON(summary)
	if err != nil {
		return err
	}

	res, err := s.db.ExecContext(ctx, `
		UPDATE runs
		SET status = ?, completed_at = ?, summary_json = COALESCE(?, summary_json)
		WHERE run_id = ?
	`, string(status), completedAt, data, runID)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	n, err := res.RowsAffected()
	if err != nil {
		return fmt.Errorf("rows affected: %w", err)
	}
	if n == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	row := s.db.QueryRowContext(ctx, `
		SELECT run_id, as_of_date, as_of_ms, started_at, completed_at, status, summary_json
		FROM runs WHERE run_id = ?
	`, runID)
	r, err := scanRun(row)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get run by id: %w", err)
	}
	return r, nil
}

// List retrieves the most recent runs, ordered by started_at DESC.
func (s *RunStore) List(ctx context.Context, limit int) ([]*domain.Run, error) {
	rows, err := s.db.QueryContext(ctx, `
		SELECT run_id, as_of_date, as_of_ms, started_at, completed_at, status, summary_json
		FROM runs
		ORDER BY started_at DESC, run_id ASC
		LIMIT ?
	`, limit)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*domain.Run
	for rows.Next() {
		r, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run row: %w", err)
		}
		runs = append(runs, r)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate run rows: %w", err)
	}
	return runs, nil
}

func scanRun(row scanner) (*domain.Run, error) {
	var r domain.Run
	var status string
	var completedAt sql.NullInt64
	var summary sql.NullString

	if err := row.Scan(&r.RunID, &r.AsOfDate, &r.AsOf, &r.StartedAt, &completedAt, &status, &summary); err != nil {
		return nil, err
	}
	r.Status = domain.RunStatus(status)
	if completedAt.Valid {
		v := completedAt.Int64
		r.CompletedAt = &v
	}
	if summary.Valid && summary.String != "" {
		var sum domain.RunSummary
		if err := json.Unmarshal([]byte(summary.String), &sum); err != nil {
			return nil, fmt.Errorf("decode run summary: %w", err)
		}
		r.Summary = &sum
	}
	return &r, nil
}

func summaryJSON(sum *domain.RunSummary) (sql.NullString, error) {
	if sum == nil {
		return sql.NullString{}, nil
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return sql.NullString{}, fmt.Errorf("encode run summary: %w", err)
	}
	return sql.NullString{String: string(data), Valid: true}, nil
}
