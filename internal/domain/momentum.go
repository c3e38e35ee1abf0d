package domain

import "time"

// AsOfDateLayout is the layout of MomentumRecord.AsOfDate.
const AsOfDateLayout = "2006-01-02"

// MomentumRecord is one ranked growth result.
// Corresponds to the momentum_records table; keyed by (as_of_date, window, item_id).
type MomentumRecord struct {
	AsOfDate    string // YYYY-MM-DD
	Window      Window
	ItemID      string
	Platform    Platform
	ExternalID  string
	DisplayName string

	BaselineValue int64
	BaselineTime  int64 // ms
	LatestValue   int64
	LatestTime    int64 // ms
	Delta         int64
	DeltaPerDay   float64
	DeltaRate     float64

	Percentile float64 // 0..100
	Rank       int     // 1-based
}

// AsOfDate formats a millisecond timestamp as a UTC as-of date.
func AsOfDate(ms int64) string {
	return time.UnixMilli(ms).UTC().Format(AsOfDateLayout)
}

// EndOfDay returns the last millisecond of the given as-of date in UTC.
func EndOfDay(asOfDate string) (int64, error) {
	d, err := time.Parse(AsOfDateLayout, asOfDate)
	if err != nil {
		return 0, err
	}
	return d.Add(24*time.Hour).UnixMilli() - 1, nil
}
