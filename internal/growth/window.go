package growth

import (
	"time"

	"wishlist-momentum-lab/internal/domain"
)

// Defaults for Params.
const (
	DefaultMinMagnitude = int64(100)
	DefaultMinElapsed   = time.Minute
)

// Reason explains why an item produced no growth result.
type Reason string

const (
	ReasonNone                Reason = ""
	ReasonIneligible          Reason = "ineligible"
	ReasonInsufficientHistory Reason = "insufficient_history"
	ReasonNoBaseline          Reason = "no_baseline"
	ReasonUnknownValue        Reason = "unknown_value"
	ReasonBelowFloor          Reason = "below_floor"
	ReasonZeroBaseline        Reason = "zero_baseline" // baseline <= 0, no rate defined
)

// Params tunes the window computation.
type Params struct {
	MinMagnitude int64         // latest value must be at least this
	MinElapsed   time.Duration // lower bound on elapsed time between baseline and latest
}

// DefaultParams returns the standard parameters.
func DefaultParams() Params {
	return Params{
		MinMagnitude: DefaultMinMagnitude,
		MinElapsed:   DefaultMinElapsed,
	}
}

// ComputeWindow derives the growth of one item over window ending at asOf.
//
// series must be ordered by observed_at ASC; snapshots outside
// [asOf-window, asOf] are ignored. The latest snapshot at or before asOf and
// the earliest snapshot at or after asOf-window must be distinct and both known.
// Negative deltas are kept.
func ComputeWindow(itemID string, series []*domain.Snapshot, asOf int64, window domain.Window, p Params) (*domain.GrowthResult, Reason) {
	from := asOf - window.DurationMs()

	var baseline, latest *domain.Snapshot
	for _, s := range series {
		if s.ObservedAt < from || s.ObservedAt > asOf {
			continue
		}
		if baseline == nil {
			baseline = s
		}
		latest = s
	}

	switch {
	case baseline == nil:
		return nil, ReasonNoBaseline
	case baseline == latest:
		return nil, ReasonInsufficientHistory
	case !baseline.Known() || !latest.Known():
		return nil, ReasonUnknownValue
	}

	baseVal := *baseline.MetricValue
	lastVal := *latest.MetricValue
	if lastVal < p.MinMagnitude {
		return nil, ReasonBelowFloor
	}
	if baseVal <= 0 {
		return nil, ReasonZeroBaseline
	}

	elapsedMs := latest.ObservedAt - baseline.ObservedAt
	if floor := p.MinElapsed.Milliseconds(); elapsedMs < floor {
		elapsedMs = floor
	}
	if elapsedMs <= 0 {
		elapsedMs = 1
	}
	elapsedDays := float64(elapsedMs) / float64(domain.MillisPerDay)

	delta := lastVal - baseVal
	return &domain.GrowthResult{
		ItemID:        itemID,
		Window:        window,
		BaselineValue: baseVal,
		BaselineTime:  baseline.ObservedAt,
		LatestValue:   lastVal,
		LatestTime:    latest.ObservedAt,
		Delta:         delta,
		DeltaPerDay:   float64(delta) / elapsedDays,
		DeltaRate:     float64(delta) / float64(baseVal),
	}, ReasonNone
}
