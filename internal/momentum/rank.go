package momentum

import (
	"sort"

	"wishlist-momentum-lab/internal/domain"
)

// DefaultCutoff keeps the top quartile.
const DefaultCutoff = 75.0

// Ranked is a growth result with its percentile and rank.
type Ranked struct {
	*domain.GrowthResult
	Percentile float64
	Rank       int
}

// Percentiles maps each result to 100 * (results with delta_per_day <= its own) / n.
// Tied values share a percentile. The maximum value always maps to 100.
func Percentiles(results []*domain.GrowthResult) map[string]float64 {
	n := len(results)
	out := make(map[string]float64, n)
	if n == 0 {
		return out
	}

	values := make([]float64, n)
	for i, r := range results {
		values[i] = r.DeltaPerDay
	}
	sort.Float64s(values)

	for _, r := range results {
		// Number of values <= r.DeltaPerDay.
		le := sort.Search(n, func(i int) bool { return values[i] > r.DeltaPerDay })
		out[r.ItemID] = 100 * float64(le) / float64(n)
	}
	return out
}

// Rank keeps results at or above the cutoff percentile and orders them by
// delta_per_day desc, then latest value desc, then item_id asc. Ranks start at 1.
func Rank(results []*domain.GrowthResult, cutoff float64) []*Ranked {
	pct := Percentiles(results)

	kept := make([]*Ranked, 0, len(results))
	for _, r := range results {
		if p := pct[r.ItemID]; p >= cutoff {
			kept = append(kept, &Ranked{GrowthResult: r, Percentile: p})
		}
	}

	sort.Slice(kept, func(i, j int) bool {
		a, b := kept[i], kept[j]
		if a.DeltaPerDay != b.DeltaPerDay {
			return a.DeltaPerDay > b.DeltaPerDay
		}
		if a.LatestValue != b.LatestValue {
			return a.LatestValue > b.LatestValue
		}
		return a.ItemID < b.ItemID
	})

	for i, r := range kept {
		r.Rank = i + 1
	}
	return kept
}
