package domain

// RunStatus is the lifecycle state of a pipeline run.
type RunStatus string

const (
	RunStatusRunning   RunStatus = "RUNNING"
	RunStatusCompleted RunStatus = "COMPLETED"
	RunStatusFailed    RunStatus = "FAILED"
)

// Run records one pipeline invocation.
// Corresponds to the runs table.
type Run struct {
	RunID       string
	AsOfDate    string // YYYY-MM-DD
	AsOf        int64  // ms, the instant growth windows end at
	StartedAt   int64  // ms
	CompletedAt *int64 // ms, nil while running
	Status      RunStatus
	Summary     *RunSummary // nil while running
}

// RunSummary holds the counts reported at the end of a run.
type RunSummary struct {
	ItemsProcessed      int      `json:"items_processed"`
	NewItems            int      `json:"new_items"`
	PotentialDuplicates int      `json:"potential_duplicates"`
	ItemsFailed         int      `json:"items_failed"`
	DuplicateRuns       int      `json:"duplicate_runs"`
	PlatformsFailed     []string `json:"platforms_failed,omitempty"`
	WindowsRanked       int      `json:"windows_ranked"`
	RecordsRanked       int      `json:"records_ranked"`
}
