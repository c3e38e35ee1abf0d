package reporting

import (
	"time"

	"wishlist-momentum-lab/internal/domain"
)

// Report is a momentum report over one or more windows.
type Report struct {
	GeneratedAt   time.Time
	RequestedDate string // empty for the latest available sets

	// Sections in the order the windows were requested.
	Sections []Section

	// Most recent pipeline run, nil if none recorded.
	LatestRun *domain.Run
}

// Section is the served momentum set of one window.
type Section struct {
	Window     domain.Window
	ServedDate string // empty when no set exists on or before the requested date
	Fallback   bool   // ServedDate is earlier than the requested date
	Total      int    // size of the full set before truncation
	Records    []*domain.MomentumRecord
}

// Empty reports whether the section has nothing to show.
func (s Section) Empty() bool {
	return len(s.Records) == 0
}

// RecordCount returns the number of records across all sections.
func (r *Report) RecordCount() int {
	n := 0
	for _, s := range r.Sections {
		n += len(s.Records)
	}
	return n
}
