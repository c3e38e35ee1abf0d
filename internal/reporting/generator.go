package reporting

import (
	"context"
	"errors"
	"fmt"
	"time"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/query"
	"wishlist-momentum-lab/internal/storage"
)

// Generator produces reports from stored momentum sets.
type Generator struct {
	query *query.Service
	runs  storage.RunStore
	now   func() time.Time // Injectable clock for deterministic output
}

// NewGenerator creates a new report generator. runs may be nil.
func NewGenerator(q *query.Service, runs storage.RunStore) *Generator {
	return &Generator{
		query: q,
		runs:  runs,
		now:   func() time.Time { return time.Now().UTC() },
	}
}

// WithClock sets a custom clock function for deterministic output.
func (g *Generator) WithClock(now func() time.Time) *Generator {
	g.now = now
	return g
}

// Options selects what a report covers.
type Options struct {
	AsOfDate string          // YYYY-MM-DD, empty for the latest sets
	Windows  []domain.Window // at least one
	Top      int             // records per window, 0 for all
}

// Generate builds a report. A window with no set on or before the date yields
// an empty section rather than an error.
func (g *Generator) Generate(ctx context.Context, opts Options) (*Report, error) {
	if len(opts.Windows) == 0 {
		return nil, fmt.Errorf("%w: no windows", storage.ErrInvalidInput)
	}
	if opts.Top < 0 {
		return nil, fmt.Errorf("%w: top must be >= 0", storage.ErrInvalidInput)
	}

	var date *string
	if opts.AsOfDate != "" {
		date = &opts.AsOfDate
	}

	report := &Report{
		GeneratedAt:   g.now(),
		RequestedDate: opts.AsOfDate,
		Sections:      make([]Section, 0, len(opts.Windows)),
	}

	for _, w := range opts.Windows {
		res, err := g.query.Momentum(ctx, w, date)
		if errors.Is(err, query.ErrNoMomentum) {
			report.Sections = append(report.Sections, Section{Window: w})
			continue
		}
		if err != nil {
			return nil, err
		}

		records := res.Records
		if opts.Top > 0 && len(records) > opts.Top {
			records = records[:opts.Top]
		}
		report.Sections = append(report.Sections, Section{
			Window:     w,
			ServedDate: res.ServedDate,
			Fallback:   res.Fallback,
			Total:      len(res.Records),
			Records:    records,
		})
	}

	if g.runs != nil {
		runs, err := g.runs.List(ctx, 1)
		if err != nil {
			return nil, fmt.Errorf("latest run: %w", err)
		}
		if len(runs) > 0 {
			report.LatestRun = runs[0]
		}
	}

	return report, nil
}
