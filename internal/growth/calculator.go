package growth

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/storage"
)

// Eligibility decides whether an item takes part in a computation.
type Eligibility func(item *domain.Item) bool

// Report is the outcome of one window computation.
type Report struct {
	Window  domain.Window
	AsOf    int64
	Results []*domain.GrowthResult
	Items   map[string]*domain.Item // item_id -> item, for every result
	Omitted map[Reason]int
}

// Calculator computes windowed growth for all known items.
type Calculator struct {
	items     storage.ItemStore
	snapshots storage.SnapshotStore
	params    Params
	logger    *zap.Logger
}

// NewCalculator creates a calculator. A nil logger disables logging.
func NewCalculator(items storage.ItemStore, snapshots storage.SnapshotStore, params Params, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{
		items:     items,
		snapshots: snapshots,
		params:    params,
		logger:    logger,
	}
}

// Compute returns growth results for every eligible item with enough history
// inside the window ending at asOf (ms). A nil eligibility keeps every item.
func (c *Calculator) Compute(ctx context.Context, asOf int64, window domain.Window, eligible Eligibility) (*Report, error) {
	if !window.IsValid() {
		return nil, fmt.Errorf("%w: %q", domain.ErrUnknownWindow, window)
	}

	items, err := c.items.List(ctx)
	if err != nil {
		return nil, fmt.Errorf("list items: %w", err)
	}

	report := &Report{
		Window:  window,
		AsOf:    asOf,
		Items:   make(map[string]*domain.Item),
		Omitted: make(map[Reason]int),
	}
	from := asOf - window.DurationMs()

	for _, item := range items {
		if err := ctx.Err(); err != nil {
			return nil, err
		}
		if eligible != nil && !eligible(item) {
			report.Omitted[ReasonIneligible]++
			continue
		}

		series, err := c.snapshots.Range(ctx, item.ItemID, from, asOf)
		if err != nil {
			return nil, fmt.Errorf("range snapshots for %s: %w", item.ItemID, err)
		}

		result, reason := ComputeWindow(item.ItemID, series, asOf, window, c.params)
		if result == nil {
			report.Omitted[reason]++
			continue
		}
		report.Results = append(report.Results, result)
		report.Items[item.ItemID] = item
	}

	c.logger.Debug("growth computed",
		zap.String("window", window.String()),
		zap.Int("items", len(items)),
		zap.Int("results", len(report.Results)),
		zap.Any("omitted", report.Omitted),
	)
	return report, nil
}
