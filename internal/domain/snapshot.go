package domain

// Snapshot is one observation of an item's metric in one run.
// Corresponds to the snapshots table; keyed by (item_id, run_id).
type Snapshot struct {
	ItemID      string // item identifier
	RunID       string // run that recorded it
	MetricValue *int64 // nil is the unknown marker, never zero
	ObservedAt  int64  // Unix timestamp in milliseconds, assigned by the pipeline
}

// Known reports whether the metric value was observed.
func (s *Snapshot) Known() bool {
	return s != nil && s.MetricValue != nil
}
