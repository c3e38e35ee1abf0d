package momentum

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/growth"
	"wishlist-momentum-lab/internal/storage"
)

// Ranker turns growth reports into persisted momentum record sets.
type Ranker struct {
	store  storage.MomentumStore
	cutoff float64
	logger *zap.Logger
}

// NewRanker creates a ranker writing to store.
func NewRanker(store storage.MomentumStore, cutoff float64, logger *zap.Logger) *Ranker {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Ranker{store: store, cutoff: cutoff, logger: logger}
}

// Build ranks a report into records for asOfDate without persisting them.
func (r *Ranker) Build(report *growth.Report, asOfDate string) []*domain.MomentumRecord {
	ranked := Rank(report.Results, r.cutoff)

	records := make([]*domain.MomentumRecord, 0, len(ranked))
	for _, rk := range ranked {
		rec := &domain.MomentumRecord{
			AsOfDate:      asOfDate,
			Window:        report.Window,
			ItemID:        rk.ItemID,
			BaselineValue: rk.BaselineValue,
			BaselineTime:  rk.BaselineTime,
			LatestValue:   rk.LatestValue,
			LatestTime:    rk.LatestTime,
			Delta:         rk.Delta,
			DeltaPerDay:   rk.DeltaPerDay,
			DeltaRate:     rk.DeltaRate,
			Percentile:    rk.Percentile,
			Rank:          rk.Rank,
		}
		if item, ok := report.Items[rk.ItemID]; ok {
			rec.Platform = item.Platform
			rec.ExternalID = item.ExternalID
			rec.DisplayName = item.DisplayName
		}
		records = append(records, rec)
	}
	return records
}

// Publish ranks a report and atomically replaces the stored set for
// (asOfDate, window). An empty ranking clears the set.
func (r *Ranker) Publish(ctx context.Context, report *growth.Report, asOfDate string) ([]*domain.MomentumRecord, error) {
	records := r.Build(report, asOfDate)

	if err := r.store.Replace(ctx, asOfDate, report.Window, records); err != nil {
		return nil, fmt.Errorf("replace momentum %s/%s: %w", asOfDate, report.Window, err)
	}

	r.logger.Info("momentum published",
		zap.String("as_of_date", asOfDate),
		zap.String("window", report.Window.String()),
		zap.Int("candidates", len(report.Results)),
		zap.Int("records", len(records)),
	)
	return records, nil
}

// Cutoff returns the percentile cutoff the ranker keeps at or above.
func (r *Ranker) Cutoff() float64 { return r.cutoff }
