package postgres

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// RunStore implements storage.RunStore using PostgreSQL.
type RunStore struct {
	pool *Pool
}

// NewRunStore creates a new RunStore.
func NewRunStore(pool *Pool) *RunStore {
	return &RunStore{pool: pool}
}

// Compile-time interface check.
var _ storage.RunStore = (*RunStore)(nil)

// Insert adds a new run. Returns ErrDuplicateKey if run_id exists.
func (s *RunStore) Insert(ctx context.Context, r *domain.Run) error {
	if r == nil || r.RunID == "" {
		return storage.ErrInvalidInput
	}
	summary, err := marshalSummary(r.Summary)
	if err != nil {
		return err
	}

	_, err = s.pool.Exec(ctx, `
		INSERT INTO runs (run_id, as_of_date, as_of_ms, started_at, completed_at, status, summary)
		VALUES ($1, $2, $3, $4, $5, $6, $7)
	`, r.RunID, r.AsOfDate, r.AsOf, r.StartedAt, r.CompletedAt, string(r.Status), summary)
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
	data, err := marshalSummary(summary)
	if err != nil {
		return err
	}

	tag, err := s.pool.Exec(ctx, `
		UPDATE runs
		SET status = $2, completed_at = $3, summary = COALESCE($4, summary)
		WHERE run_id = $1
	`, runID, string(status), completedAt, data)
	if err != nil {
		return fmt.Errorf("complete run: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// GetByID retrieves a run by its ID. Returns ErrNotFound if not exists.
func (s *RunStore) GetByID(ctx context.Context, runID string) (*domain.Run, error) {
	row := s.pool.QueryRow(ctx, `
		SELECT run_id, as_of_date, as_of_ms, started_at, completed_at, status, summary
		FROM runs WHERE run_id = $1
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
	rows, err := s.pool.Query(ctx, `
		SELECT run_id, as_of_date, as_of_ms, started_at, completed_at, status, summary
		FROM runs
		ORDER BY started_at DESC, run_id ASC
		LIMIT $1
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

func scanRun(row pgx.Row) (*domain.Run, error) {
	var r domain.Run
	var status string
	var summary []byte

	if err := row.Scan(&r.RunID, &r.AsOfDate, &r.AsOf, &r.StartedAt, &r.CompletedAt, &status, &summary); err != nil {
		return nil, err
	}
	r.Status = domain.RunStatus(status)

	if len(summary) > 0 {
		var sum domain.RunSummary
		if err := json.Unmarshal(summary, &sum); err != nil {
			return nil, fmt.Errorf("decode run summary: %w", err)
		}
		r.Summary = &sum
	}
	return &r, nil
}

// marshalSummary returns nil for a nil summary so the column stays NULL.
func marshalSummary(sum *domain.RunSummary) ([]byte, error) {
	if sum == nil {
		return nil, nil
	}
	data, err := json.Marshal(sum)
	if err != nil {
		return nil, fmt.Errorf("encode run summary: %w", err)
	}
	return data, nil
}
