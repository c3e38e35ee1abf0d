package domain

// GrowthResult is the windowed change of one item's metric.
// Computed per run, not persisted on its own.
type GrowthResult struct {
	ItemID        string
	Window        Window
	BaselineValue int64
	BaselineTime  int64 // ms
	LatestValue   int64
	LatestTime    int64 // ms
	Delta         int64   // latest - baseline, may be negative
	DeltaPerDay   float64 // delta / elapsed days
	DeltaRate     float64 // delta / baseline
}

// ElapsedDays returns the actual time between baseline and latest in days.
func (g *GrowthResult) ElapsedDays() float64 {
	return float64(g.LatestTime-g.BaselineTime) / float64(MillisPerDay)
}

// MillisPerDay is the number of milliseconds in a day.
const MillisPerDay = int64(24 * 60 * 60 * 1000)
