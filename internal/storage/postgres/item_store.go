package postgres

import (
	"context"
	"fmt"

	"github.com/jackc/pgx/v5"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// ItemStore implements storage.ItemStore using PostgreSQL.
type ItemStore struct {
	pool *Pool
}

// NewItemStore creates a new ItemStore.
func NewItemStore(pool *Pool) *ItemStore {
	return &ItemStore{pool: pool}
}

// Compile-time interface check.
var _ storage.ItemStore = (*ItemStore)(nil)

const itemColumns = `item_id, platform, external_id, display_name, publisher, release_date_raw,
	potential_duplicate, duplicate_of, created_at`

// Insert adds a new item. Returns ErrDuplicateKey if item_id or (platform, external_id) exists.
func (s *ItemStore) Insert(ctx context.Context, item *domain.Item) error {
	query := `
		INSERT INTO items (` + itemColumns + `)
		VALUES ($1, $2, $3, $4, $5, $6, $7, $8, $9)
	`

	_, err := s.pool.Exec(ctx, query,
		item.ItemID,
		string(item.Platform),
		item.ExternalID,
		item.DisplayName,
		item.Publisher,
		item.ReleaseDateRaw,
		item.PotentialDuplicate,
		item.DuplicateOf,
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
	query := `SELECT ` + itemColumns + ` FROM items WHERE item_id = $1`

	item, err := scanItem(s.pool.QueryRow(ctx, query, itemID))
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
	query := `SELECT ` + itemColumns + ` FROM items WHERE platform = $1 AND external_id = $2`

	item, err := scanItem(s.pool.QueryRow(ctx, query, string(platform), externalID))
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
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE platform = $1
		ORDER BY created_at ASC, item_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(platform))
	if err != nil {
		return nil, fmt.Errorf("list items by platform: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// ListByPlatformSince retrieves items of a platform created at or after since.
func (s *ItemStore) ListByPlatformSince(ctx context.Context, platform domain.Platform, since int64) ([]*domain.Item, error) {
	query := `
		SELECT ` + itemColumns + `
		FROM items
		WHERE platform = $1 AND created_at >= $2
		ORDER BY created_at ASC, item_id ASC
	`

	rows, err := s.pool.Query(ctx, query, string(platform), since)
	if err != nil {
		return nil, fmt.Errorf("list items by platform since: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// List retrieves all items, ordered by created_at ASC.
func (s *ItemStore) List(ctx context.Context) ([]*domain.Item, error) {
	query := `SELECT ` + itemColumns + ` FROM items ORDER BY created_at ASC, item_id ASC`

	rows, err := s.pool.Query(ctx, query)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}
	defer rows.Close()

	return scanItems(rows)
}

// UpdateReleaseDate replaces the release metadata string. Returns ErrNotFound if not exists.
func (s *ItemStore) UpdateReleaseDate(ctx context.Context, itemID, releaseDateRaw string) error {
	tag, err := s.pool.Exec(ctx,
		`UPDATE items SET release_date_raw = $2 WHERE item_id = $1`,
		itemID, releaseDateRaw,
	)
	if err != nil {
		return fmt.Errorf("update release date: %w", err)
	}
	if tag.RowsAffected() == 0 {
		return storage.ErrNotFound
	}
	return nil
}

// scanItem scans a single row into an Item.
func scanItem(row pgx.Row) (*domain.Item, error) {
	var item domain.Item
	var platform string

	err := row.Scan(
		&item.ItemID,
		&platform,
		&item.ExternalID,
		&item.DisplayName,
		&item.Publisher,
		&item.ReleaseDateRaw,
		&item.PotentialDuplicate,
		&item.DuplicateOf,
		&item.CreatedAt,
	)
	if err != nil {
		return nil, err
	}

	item.Platform = domain.Platform(platform)
	return &item, nil
}

// scanItems scans multiple rows into a slice of Item.
func scanItems(rows pgx.Rows) ([]*domain.Item, error) {
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
