// Package app wires configuration into stores, publishers and the pipeline
// orchestrator for the command-line tools and the server.
package app

import (
	"context"
	"errors"
	"fmt"

	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/config"
	"wishlist-momentum-lab/internal/storage"
	chstore "wishlist-momentum-lab/internal/storage/clickhouse"
	"wishlist-momentum-lab/internal/storage/memory"
	pgstore "wishlist-momentum-lab/internal/storage/postgres"
	"wishlist-momentum-lab/internal/storage/sqlite"
)

// Backend is an opened storage backend. Schemas are migrated on open.
type Backend struct {
	Stores storage.Stores
	Kind   string

	pings   []func(ctx context.Context) error
	closers []func() error
}

// OpenBackend opens the configured backend. When a ClickHouse DSN is set the
// snapshot time series lives there and everything else stays relational.
func OpenBackend(ctx context.Context, cfg config.Storage, logger *zap.Logger) (*Backend, error) {
	if logger == nil {
		logger = zap.NewNop()
	}
	b := &Backend{Kind: cfg.Backend}

	switch cfg.Backend {
	case "memory":
		b.Stores = memory.NewStores()

	case "sqlite":
		db, err := sqlite.Open(ctx, cfg.SQLitePath)
		if err != nil {
			return nil, fmt.Errorf("open sqlite: %w", err)
		}
		b.Stores = db.Stores()
		b.pings = append(b.pings, db.Ping)
		b.closers = append(b.closers, db.Close)

	case "postgres":
		pool, err := pgstore.NewPool(ctx, cfg.PostgresDSN)
		if err != nil {
			return nil, err
		}
		if err := pgstore.Migrate(ctx, pool); err != nil {
			pool.Close()
			return nil, fmt.Errorf("migrate postgres: %w", err)
		}
		b.Stores = pgstore.NewStores(pool)
		b.pings = append(b.pings, pool.Ping)
		b.closers = append(b.closers, func() error { pool.Close(); return nil })

	default:
		return nil, fmt.Errorf("unknown storage backend %q", cfg.Backend)
	}

	if cfg.ClickHouseDSN != "" {
		conn, err := chstore.Open(ctx, cfg.ClickHouseDSN)
		if err != nil {
			_ = b.Close()
			return nil, fmt.Errorf("open clickhouse: %w", err)
		}
		b.Stores.Snapshots = chstore.NewSnapshotStore(conn)
		b.pings = append(b.pings, conn.Ping)
		b.closers = append(b.closers, conn.Close)
		logger.Info("snapshot time series on clickhouse")
	}

	logger.Info("storage backend ready", zap.String("backend", cfg.Backend))
	return b, nil
}

// Ping checks every underlying connection.
func (b *Backend) Ping(ctx context.Context) error {
	for _, ping := range b.pings {
		if err := ping(ctx); err != nil {
			return err
		}
	}
	return nil
}

// Close releases every underlying connection in reverse order of opening.
func (b *Backend) Close() error {
	var errs []error
	for i := len(b.closers) - 1; i >= 0; i-- {
		if err := b.closers[i](); err != nil {
			errs = append(errs, err)
		}
	}
	b.closers = nil
	return errors.Join(errs...)
}
