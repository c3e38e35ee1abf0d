// Package view holds the JSON shapes of domain records shared by the query
// API and the publishers.
package view

import "wishlist-momentum-lab/internal/domain"

// Momentum is the JSON form of one momentum record.
type Momentum struct {
	AsOfDate      string  `json:"as_of_date"`
	Window        string  `json:"window"`
	Rank          int     `json:"rank"`
	ItemID        string  `json:"item_id"`
	Platform      string  `json:"platform"`
	ExternalID    string  `json:"external_id"`
	DisplayName   string  `json:"display_name"`
	BaselineValue int64   `json:"baseline_value"`
	BaselineTime  int64   `json:"baseline_time_ms"`
	LatestValue   int64   `json:"latest_value"`
	LatestTime    int64   `json:"latest_time_ms"`
	Delta         int64   `json:"delta"`
	DeltaPerDay   float64 `json:"delta_per_day"`
	DeltaRate     float64 `json:"delta_rate"`
	Percentile    float64 `json:"percentile"`
}

// Item is the JSON form of one item.
type Item struct {
	ItemID             string  `json:"item_id"`
	Platform           string  `json:"platform"`
	ExternalID         string  `json:"external_id"`
	DisplayName        string  `json:"display_name"`
	Publisher          string  `json:"publisher,omitempty"`
	ReleaseDateRaw     string  `json:"release_date_raw,omitempty"`
	PotentialDuplicate bool    `json:"potential_duplicate"`
	DuplicateOf        *string `json:"duplicate_of,omitempty"`
	CreatedAt          int64   `json:"created_at_ms"`
}

// Snapshot is the JSON form of one snapshot. A null metric_value is unknown.
type Snapshot struct {
	RunID       string `json:"run_id"`
	MetricValue *int64 `json:"metric_value"`
	ObservedAt  int64  `json:"observed_at_ms"`
}

// FromMomentum converts a record.
func FromMomentum(r *domain.MomentumRecord) Momentum {
	return Momentum{
		AsOfDate:      r.AsOfDate,
		Window:        r.Window.String(),
		Rank:          r.Rank,
		ItemID:        r.ItemID,
		Platform:      r.Platform.String(),
		ExternalID:    r.ExternalID,
		DisplayName:   r.DisplayName,
		BaselineValue: r.BaselineValue,
		BaselineTime:  r.BaselineTime,
		LatestValue:   r.LatestValue,
		LatestTime:    r.LatestTime,
		Delta:         r.Delta,
		DeltaPerDay:   r.DeltaPerDay,
		DeltaRate:     r.DeltaRate,
		Percentile:    r.Percentile,
	}
}

// FromMomentumList converts records, preserving order. Never returns nil.
func FromMomentumList(records []*domain.MomentumRecord) []Momentum {
	out := make([]Momentum, 0, len(records))
	for _, r := range records {
		out = append(out, FromMomentum(r))
	}
	return out
}

// FromItem converts an item.
func FromItem(it *domain.Item) Item {
	return Item{
		ItemID:             it.ItemID,
		Platform:           it.Platform.String(),
		ExternalID:         it.ExternalID,
		DisplayName:        it.DisplayName,
		Publisher:          it.Publisher,
		ReleaseDateRaw:     it.ReleaseDateRaw,
		PotentialDuplicate: it.PotentialDuplicate,
		DuplicateOf:        it.DuplicateOf,
		CreatedAt:          it.CreatedAt,
	}
}

// FromSnapshots converts a series, preserving order. Never returns nil.
func FromSnapshots(series []*domain.Snapshot) []Snapshot {
	out := make([]Snapshot, 0, len(series))
	for _, s := range series {
		out = append(out, Snapshot{RunID: s.RunID, MetricValue: s.MetricValue, ObservedAt: s.ObservedAt})
	}
	return out
}
