package storage

import (
	"fmt"

	"wishlist-momentum-lab/internal/domain"
)

// ValidateSnapshot checks a snapshot before it is recorded. A nil metric is
// the unknown marker; a reported value must be non-negative.
func ValidateSnapshot(s *domain.Snapshot) error {
	if s == nil || s.ItemID == "" || s.RunID == "" {
		return ErrInvalidInput
	}
	if s.MetricValue != nil && *s.MetricValue < 0 {
		return fmt.Errorf("%w: negative metric value %d for item %s", ErrInvalidInput, *s.MetricValue, s.ItemID)
	}
	return nil
}
