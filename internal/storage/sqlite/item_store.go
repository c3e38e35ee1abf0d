package sqlite

import (
	"context"
	"database/sql"
	"fmt"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// ItemStore implements storage.ItemStore using SQLite.
type ItemStore struct {
	db *sql.DB
}

var _ storage.ItemStore = (*ItemStore)(nil)

const itemColumns = `item_id, platform, external_id, display_name, publisher, release_date_raw,
	potential_duplicate, duplicate_of, created_at`

// Insert adds a new item. Returns ErrDuplicateKey if item_id or (platform, external_id) exists.
func (s *ItemStore) Insert(ctx context.Context, item *domain.Item) error {
	_, err := s.db.ExecContext(ctx,
		`INSERT INTO items (`+itemColumns+`) VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		item.ItemID,
		string(item.Platform),
		item.ExternalID,
		item.DisplayName,
		item.Publisher,
		item.ReleaseDateRaw,
		item.PotentialDuplicate,
		nullableString(item.DuplicateOf),
		item.CreatedAt,
	)
	if err != nil {
		if isUniqueViolation(err) {
			return storage.ErrDuplicateKey
		}
		return fmt.Errorf("insert item: %w", err)
	}
	return nil
}

// GetByID retrieves an item by its ID. Returns ErrNotFound if not exists.
func (s *ItemStore) GetByID(ctx context.Context, itemID string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx, `SELECT `+itemColumns+` FROM items WHERE item_id = ?`, itemID)
	item, err := scanItem(row)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get item by id: %w", err)
	}
	return item, nil
}

// GetByExternalID retrieves an item by (platform, external_id). Returns ErrNotFound if not exists.
func (s *ItemStore) GetByExternalID(ctx context.Context, platform domain.Platform, externalID string) (*domain.Item, error) {
	row := s.db.QueryRowContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE platform = ? AND external_id = ?`,
		string(platform), externalID,
	)
	item, err := scanItem(row)
	if err != nil {
		if isNotFound(err) {
			return nil, storage.ErrNotFound
		}
		return nil, fmt.Errorf("get item by external id: %w", err)
	}
	return item, nil
}

// ListByPlatform retrieves all items of a platform, ordered by created_at ASC.
func (s *ItemStore) ListByPlatform(ctx context.Context, platform domain.Platform) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE platform = ? ORDER BY created_at ASC, item_id ASC`,
		string(platform),
	)
	if err != nil {
		return nil, fmt.Errorf("list items by platform: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// ListByPlatformSince retrieves items of a platform created at or after since.
func (s *ItemStore) ListByPlatformSince(ctx context.Context, platform domain.Platform, since int64) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+itemColumns+` FROM items WHERE platform = ? AND created_at >= ? ORDER BY created_at ASC, item_id ASC`,
		string(platform), since,
	)
	if err != nil {
		return nil, fmt.Errorf("list items by platform since: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// List retrieves all items, ordered by created_at ASC.
func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	rows, err := s.db.QueryContext(ctx, `SELECT `+itemColumns+` FROM items ORDER BY created_at ASC, item_id ASC`)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()
	return scanItems(rows)
}

// UpdateReleaseDate replaces the release metadata string. Returns ErrNotFound if not exists.
func (s *ItemStore) UpdateReleaseDate(ctx context.Context, itemID, releaseDateRaw string) error {
	res, err := s.db.ExecContext(ctx, `UPDATE items SET release_date_raw = ? WHERE item_id = ?`, releaseDateRaw, itemID)
	if err != nil {
		return fmt.Errorf("update release date: %w", err)
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

type scanner interface {
	Scan(dest ...any) error
}

func scanItem(row scanner) (*domain.Item, error) {
	var item domain.Item
	var platform string
	var duplicateOf sql.NullString

	err := row.Scan(
		&item.ItemID,
		&platform,
		&item.ExternalID,
		&item.DisplayName,
		&item.Publisher,
		&item.ReleaseDateRaw,
		&item.PotentialDuplicate,
		&duplicateOf,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Platform = domain.Platform(platform)
	if duplicateOf.Valid {
		v := duplicateOf.String
		item.DuplicateOf = &v
	}
	return &item, nil
}

func scanItems(rows *sql.Rows) ([]*domain.Item, error) {
	var items []*domain.Item
	for rows.Next() {
		item, err := scanItem(rows)
		if err != nil {
			return nil, fmt.Errorf("scan item row: %w", err)
		}
		items = append(items, item)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate item rows: %w", err)
	}
	return items, nil
}

func nullableString(v *string) sql.NullString {
	if v == nil {
		return sql.NullString{}
	}
	return sql.NullString{String: *v, Valid: true}
}
