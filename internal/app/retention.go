package app

import (
	"context"
	"fmt"
	"time"

	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// PruneSnapshots deletes snapshots observed before now-maxAge.
func PruneSnapshots(ctx context.Context, snapshots storage.SnapshotStore, maxAge time.Duration, now time.Time, logger *zap.Logger) (int, error) {
	if maxAge <= 0 {
		return 0, fmt.Errorf("%w: retention max age must be positive", storage.ErrInvalidInput)
	}
	if logger == nil {
		logger = zap.NewNop()
	}

	cutoff := now.Add(-maxAge).UnixMilli()
	deleted, err := snapshots.DeleteOlderThan(ctx, cutoff)
	if err != nil {
		return 0, fmt.Errorf("prune snapshots: %w", err)
	}

	logger.Info("snapshots pruned",
		zap.Int("deleted", deleted),
		zap.String("cutoff_date", domain.AsOfDate(cutoff)),
		zap.Duration("max_age", maxAge))
	return deleted, nil
}

// ParseAsOf reads a run time from the command line: empty for now, a
// YYYY-MM-DD date for midnight UTC of that day, or an RFC 3339 timestamp.
func ParseAsOf(s string, now time.Time) (time.Time, error) {
	if s == "" {
		return now.UTC(), nil
	}
	if t, err := time.Parse(domain.AsOfDateLayout, s); err == nil {
		return t, nil
	}
	t, err := time.Parse(time.RFC3339, s)
	if err != nil {
		return time.Time{}, fmt.Errorf("as-of %q is neither YYYY-MM-DD nor RFC 3339", s)
	}
	return t.UTC(), nil
}
