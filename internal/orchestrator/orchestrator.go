// Package orchestrator sequences one pipeline run.
// Flow: collect + resolve + record per platform → growth + ranking per window → publish
package orchestrator

import (
	"context"
	"errors"
	"fmt"
	"sort"
	"time"

	"github.com/alitto/pond/v2"
	"go.uber.org/zap"
	"golang.org/x/sync/errgroup"

	"wishlist-momentum-lab/internal/collector"
	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/growth"
	"wishlist-momentum-lab/internal/identity"
	"wishlist-momentum-lab/internal/idhash"
	"wishlist-momentum-lab/internal/momentum"
	"wishlist-momentum-lab/internal/observability"
	"wishlist-momentum-lab/internal/publish"
	"wishlist-momentum-lab/internal/release"
	"wishlist-momentum-lab/internal/storage"
)

// ErrInvalidRun is returned for configuration errors detected before any write.
var ErrInvalidRun = errors.New("invalid run configuration")

// DefaultRunLabel distinguishes scheduled runs of the same day.
const DefaultRunLabel = "daily"

// CollectionError is a failure of one platform: an unreachable collector,
// unparseable data or an exceeded platform timeout.
type CollectionError struct {
	Platform domain.Platform
	Err      error
}

func (e *CollectionError) Error() string {
	return fmt.Sprintf("collect %s: %v", e.Platform, e.Err)
}

func (e *CollectionError) Unwrap() error { return e.Err }

// Orchestrator coordinates ingestion and ranking for all configured platforms.
type Orchestrator struct {
	stores     storage.Stores
	collectors []collector.Collector
	registry   *identity.Registry
	calculator *growth.Calculator
	ranker     *momentum.Ranker
	publisher  publish.Publisher

	windows         []domain.Window
	workers         int
	platformTimeout time.Duration
	unreleasedOnly  bool

	metrics *observability.Metrics
	logger  *zap.Logger
	now     func() time.Time
}

// Options for creating Orchestrator.
type Options struct {
	// Required
	Stores     storage.Stores
	Collectors []collector.Collector
	Registry   *identity.Registry
	Calculator *growth.Calculator
	Ranker     *momentum.Ranker
	Windows    []domain.Window

	// Optional
	Publisher       publish.Publisher // nil disables fan-out
	Workers         int               // per-platform pool size, default one per collector
	PlatformTimeout time.Duration     // 0 disables the per-platform deadline
	UnreleasedOnly  bool              // rank only items without a past release date
	Metrics         *observability.Metrics
	Logger          *zap.Logger
	Now             func() time.Time
}

// New creates a new Orchestrator.
func New(opts Options) *Orchestrator {
	logger := opts.Logger
	if logger == nil {
		logger = zap.NewNop()
	}
	now := opts.Now
	if now == nil {
		now = time.Now
	}
	workers := opts.Workers
	if workers <= 0 {
		workers = len(opts.Collectors)
	}
	return &Orchestrator{
		stores:          opts.Stores,
		collectors:      opts.Collectors,
		registry:        opts.Registry,
		calculator:      opts.Calculator,
		ranker:          opts.Ranker,
		publisher:       opts.Publisher,
		windows:         opts.Windows,
		workers:         workers,
		platformTimeout: opts.PlatformTimeout,
		unreleasedOnly:  opts.UnreleasedOnly,
		metrics:         opts.Metrics,
		logger:          logger,
		now:             now,
	}
}

// RunRequest parameterizes one run.
type RunRequest struct {
	// AsOf is the run time. Every snapshot of the run is stamped with it.
	// Zero means now.
	AsOf time.Time
	// RunID overrides the id derived from the as-of date and Label.
	RunID string
	// Label distinguishes several runs of one day. Empty means DefaultRunLabel.
	Label string
	// DryRun computes rankings without replacing stored sets or publishing.
	DryRun bool
}

// WindowSummary describes the ranking of one window.
type WindowSummary struct {
	Window     domain.Window
	Candidates int
	Records    int
	Omitted    map[growth.Reason]int
	Err        error
}

// Summary is the outcome of one run.
type Summary struct {
	domain.RunSummary
	RunID            string
	AsOfDate         string
	DryRun           bool
	Windows          []WindowSummary
	CollectionErrors []*CollectionError
	Duration         time.Duration
}

// platformResult holds the counters of one platform task.
type platformResult struct {
	platform      domain.Platform
	processed     int
	newItems      int
	duplicates    int
	failed        int
	duplicateRuns int
	err           *CollectionError
}

// Validate checks the run configuration.
func (o *Orchestrator) Validate() error {
	if len(o.collectors) == 0 {
		return fmt.Errorf("%w: no collectors configured", ErrInvalidRun)
	}
	if len(o.windows) == 0 {
		return fmt.Errorf("%w: no windows configured", ErrInvalidRun)
	}
	for _, w := range o.windows {
		if !w.IsValid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidRun, domain.ErrUnknownWindow, w)
		}
	}
	if c := o.ranker.Cutoff(); c < 0 || c > 100 {
		return fmt.Errorf("%w: percentile cutoff %v outside [0,100]", ErrInvalidRun, c)
	}
	seen := make(map[domain.Platform]bool, len(o.collectors))
	for _, c := range o.collectors {
		if !c.Platform().IsValid() {
			return fmt.Errorf("%w: %w: %q", ErrInvalidRun, domain.ErrUnknownPlatform, c.Platform())
		}
		if seen[c.Platform()] {
			return fmt.Errorf("%w: platform %s configured twice", ErrInvalidRun, c.Platform())
		}
		seen[c.Platform()] = true
	}
	return nil
}

// Run executes one pipeline run.
// Phases:
//  1. Validate configuration (no writes on failure)
//  2. Record the run
//  3. Ingest every platform concurrently, each under its own timeout
//  4. Compute growth and rank every window
//  5. Complete the run record
//
// Per-platform and per-item failures are counted in the summary and never
// abort the run. The returned error is non-nil only for configuration errors,
// a failure to record the run, or cancellation of ctx.
func (o *Orchestrator) Run(ctx context.Context, req RunRequest) (*Summary, error) {
	if err := o.Validate(); err != nil {
		return nil, err
	}

	started := o.now()
	asOf := req.AsOf
	if asOf.IsZero() {
		asOf = started
	}
	asOfMs := asOf.UnixMilli()
	asOfDate := domain.AsOfDate(asOfMs)

	label := req.Label
	if label == "" {
		label = DefaultRunLabel
	}
	runID := req.RunID
	if runID == "" {
		runID = idhash.ComputeRunID(asOfDate, label)
	}

	// Phase 2: run record. A rerun keeps the instant of the first attempt so
	// its snapshots and windows line up with what is already stored.
	rerun := false
	err := o.stores.Runs.Insert(ctx, &domain.Run{
		RunID:     runID,
		AsOfDate:  asOfDate,
		AsOf:      asOfMs,
		StartedAt: started.UnixMilli(),
		Status:    domain.RunStatusRunning,
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateKey):
		prev, getErr := o.stores.Runs.GetByID(ctx, runID)
		if getErr != nil {
			return nil, fmt.Errorf("load existing run: %w", getErr)
		}
		if prev.AsOf != 0 {
			asOfMs = prev.AsOf
			asOf = time.UnixMilli(asOfMs).UTC()
			asOfDate = prev.AsOfDate
		}
		rerun = true
	case err != nil:
		return nil, fmt.Errorf("record run: %w", err)
	}

	summary := &Summary{RunID: runID, AsOfDate: asOfDate, DryRun: req.DryRun}
	logger := o.logger.With(zap.String("run_id", runID), zap.String("as_of_date", asOfDate))
	if rerun {
		logger.Info("rerunning existing run, recorded snapshots are kept",
			zap.Time("as_of", asOf))
	}

	logger.Info("run started",
		zap.Int("platforms", len(o.collectors)),
		zap.Int("windows", len(o.windows)),
		zap.Bool("dry_run", req.DryRun))

	// Phase 3: ingestion
	results := o.ingest(ctx, runID, asOfMs, logger)
	for _, r := range results {
		summary.ItemsProcessed += r.processed
		summary.NewItems += r.newItems
		summary.PotentialDuplicates += r.duplicates
		summary.ItemsFailed += r.failed
		summary.DuplicateRuns += r.duplicateRuns
		if r.err != nil {
			summary.CollectionErrors = append(summary.CollectionErrors, r.err)
			summary.PlatformsFailed = append(summary.PlatformsFailed, r.platform.String())
		}
	}

	// Phase 4: ranking, only after every platform finished or failed
	if ctx.Err() == nil {
		summary.Windows = o.rankAll(ctx, runID, asOf, asOfDate, req.DryRun, logger)
		for _, ws := range summary.Windows {
			if ws.Err == nil {
				summary.WindowsRanked++
				summary.RecordsRanked += ws.Records
			}
		}
	}

	// Phase 5: completion
	status := domain.RunStatusCompleted
	runErr := ctx.Err()
	if runErr != nil {
		status = domain.RunStatusFailed
	}

	finished := o.now()
	summary.Duration = finished.Sub(started)

	completeCtx := context.WithoutCancel(ctx)
	runSummary := summary.RunSummary
	if err := o.stores.Runs.Complete(completeCtx, runID, status, finished.UnixMilli(), &runSummary); err != nil {
		logger.Error("failed to complete run record", zap.Error(err))
	}

	o.metrics.RecordPipelineRun(metricStatus(summary, runErr), summary.Duration.Seconds(), finished.Unix())

	fields := []zap.Field{
		zap.String("status", string(status)),
		zap.Int("items_processed", summary.ItemsProcessed),
		zap.Int("new_items", summary.NewItems),
		zap.Int("potential_duplicates", summary.PotentialDuplicates),
		zap.Int("items_failed", summary.ItemsFailed),
		zap.Int("duplicate_runs", summary.DuplicateRuns),
		zap.Strings("platforms_failed", summary.PlatformsFailed),
		zap.Int("windows_ranked", summary.WindowsRanked),
		zap.Int("records_ranked", summary.RecordsRanked),
		zap.Duration("duration", summary.Duration),
	}
	if runErr != nil {
		logger.Warn("run aborted", append(fields, zap.Error(runErr))...)
		return summary, runErr
	}
	logger.Info("run completed", fields...)
	return summary, nil
}

// ingest runs one task per platform on a bounded pool and returns the
// results in platform order.
func (o *Orchestrator) ingest(ctx context.Context, runID string, observedAt int64, logger *zap.Logger) []platformResult {
	results := make([]platformResult, len(o.collectors))
	for i, c := range o.collectors {
		results[i].platform = c.Platform()
	}

	pool := pond.NewPool(o.workers, pond.WithQueueSize(len(o.collectors)))
	defer pool.StopAndWait()

	group := pool.NewGroupContext(ctx)
	groupCtx := group.Context()

	for i, c := range o.collectors {
		i, c := i, c
		group.Submit(func() {
			if err := groupCtx.Err(); err != nil {
				results[i].err = &CollectionError{Platform: c.Platform(), Err: err}
				return
			}
			o.ingestPlatform(groupCtx, c, runID, observedAt, logger, &results[i])
		})
	}

	if err := group.Wait(); err != nil && !errors.Is(err, context.Canceled) && !errors.Is(err, pond.ErrGroupStopped) {
		logger.Warn("ingestion group finished with error", zap.Error(err))
	}
	return results
}

// ingestPlatform collects one platform and records every observation.
// A deadline hit mid-ingestion fails the platform; snapshots already
// recorded are kept.
func (o *Orchestrator) ingestPlatform(ctx context.Context, c collector.Collector, runID string, observedAt int64, logger *zap.Logger, res *platformResult) {
	platform := c.Platform()
	logger = logger.With(zap.String("platform", platform.String()))

	if o.platformTimeout > 0 {
		var cancel context.CancelFunc
		ctx, cancel = context.WithTimeout(ctx, o.platformTimeout)
		defer cancel()
	}

	fail := func(err error) {
		res.err = &CollectionError{Platform: platform, Err: err}
		logger.Error("platform failed", zap.Error(err),
			zap.Int("items_processed", res.processed))
	}

	collectStart := time.Now()
	observations, err := c.Collect(ctx)
	o.metrics.RecordCollect(platform.String(), time.Since(collectStart).Seconds(), err != nil)
	if err != nil {
		fail(err)
		return
	}
	logger.Info("platform collected", zap.Int("observations", len(observations)))

	for _, obs := range observations {
		if err := ctx.Err(); err != nil {
			fail(err)
			return
		}
		if obs.Platform == "" {
			obs.Platform = platform
		}
		if obs.Platform != platform {
			res.failed++
			o.metrics.RecordItemFailure(platform.String())
			logger.Warn("observation for another platform skipped",
				zap.String("external_id", obs.ExternalID),
				zap.String("observation_platform", obs.Platform.String()))
			continue
		}

		outcome, err := o.ingestObservation(ctx, obs, runID, observedAt)
		if err != nil {
			if ctx.Err() != nil {
				fail(ctx.Err())
				return
			}
			res.failed++
			o.metrics.RecordItemFailure(platform.String())
			logger.Warn("observation failed",
				zap.String("external_id", obs.ExternalID),
				zap.Error(err))
			continue
		}

		res.processed++
		if outcome.duplicateRun {
			res.duplicateRuns++
			o.metrics.RecordDuplicateRun(platform.String())
		}
		if outcome.resolution.IsNew {
			res.newItems++
			if outcome.resolution.PotentialDuplicate {
				res.duplicates++
			}
		}
		o.metrics.RecordObservation(platform.String(),
			outcome.resolution.IsNew, outcome.resolution.IsNew && outcome.resolution.PotentialDuplicate)
	}

	logger.Info("platform ingested",
		zap.Int("items_processed", res.processed),
		zap.Int("new_items", res.newItems),
		zap.Int("potential_duplicates", res.duplicates),
		zap.Int("items_failed", res.failed),
		zap.Int("duplicate_runs", res.duplicateRuns))
}

type observationOutcome struct {
	resolution   *identity.Resolution
	duplicateRun bool
}

// ingestObservation resolves one observation and records its snapshot.
// A snapshot already recorded by this run is a no-op.
func (o *Orchestrator) ingestObservation(ctx context.Context, obs domain.Observation, runID string, observedAt int64) (*observationOutcome, error) {
	res, err := o.registry.Resolve(ctx, obs)
	if err != nil {
		return nil, fmt.Errorf("resolve: %w", err)
	}

	err = o.stores.Snapshots.Record(ctx, &domain.Snapshot{
		ItemID:      res.Item.ItemID,
		RunID:       runID,
		MetricValue: obs.MetricValue(),
		ObservedAt:  observedAt,
	})
	switch {
	case errors.Is(err, storage.ErrDuplicateRun):
		return &observationOutcome{resolution: res, duplicateRun: true}, nil
	case err != nil:
		return nil, fmt.Errorf("record snapshot: %w", err)
	}
	return &observationOutcome{resolution: res}, nil
}

// rankAll computes every window concurrently. Windows write disjoint
// momentum sets, so one failing window does not affect the others.
func (o *Orchestrator) rankAll(ctx context.Context, runID string, asOf time.Time, asOfDate string, dryRun bool, logger *zap.Logger) []WindowSummary {
	var eligible growth.Eligibility = release.All
	if o.unreleasedOnly {
		eligible = release.Predicate(asOf)
	}

	out := make([]WindowSummary, len(o.windows))
	var g errgroup.Group
	for i, w := range o.windows {
		i, w := i, w
		g.Go(func() error {
			out[i] = o.rankWindow(ctx, runID, asOf.UnixMilli(), asOfDate, w, eligible, dryRun, logger)
			return nil
		})
	}
	_ = g.Wait()
	return out
}

func (o *Orchestrator) rankWindow(ctx context.Context, runID string, asOfMs int64, asOfDate string, w domain.Window, eligible growth.Eligibility, dryRun bool, logger *zap.Logger) WindowSummary {
	ws := WindowSummary{Window: w}
	logger = logger.With(zap.String("window", w.String()))

	report, err := o.calculator.Compute(ctx, asOfMs, w, eligible)
	if err != nil {
		ws.Err = fmt.Errorf("compute %s: %w", w, err)
		logger.Error("growth computation failed", zap.Error(err))
		return ws
	}
	ws.Candidates = len(report.Results)
	ws.Omitted = report.Omitted

	var records []*domain.MomentumRecord
	if dryRun {
		records = o.ranker.Build(report, asOfDate)
		logDryRun(logger, records)
	} else {
		records, err = o.ranker.Publish(ctx, report, asOfDate)
		if err != nil {
			ws.Err = err
			logger.Error("momentum replace failed", zap.Error(err))
			return ws
		}
	}
	ws.Records = len(records)
	o.metrics.RecordRanking(w.String(), ws.Candidates, ws.Records)

	if !dryRun && o.publisher != nil {
		batch := &publish.Batch{RunID: runID, AsOfDate: asOfDate, Window: w, Records: records}
		if err := o.publisher.Publish(ctx, batch); err != nil {
			o.metrics.RecordPublishError(o.publisher.Name())
			logger.Warn("momentum fan-out failed", zap.Error(err))
		}
	}
	return ws
}

func logDryRun(logger *zap.Logger, records []*domain.MomentumRecord) {
	top := records
	if len(top) > 10 {
		top = top[:10]
	}
	for _, r := range top {
		logger.Info("dry run record",
			zap.Int("rank", r.Rank),
			zap.String("item_id", r.ItemID),
			zap.String("display_name", r.DisplayName),
			zap.Float64("delta_per_day", r.DeltaPerDay),
			zap.Float64("percentile", r.Percentile))
	}
	logger.Info("dry run ranking computed", zap.Int("records", len(records)))
}

func metricStatus(s *Summary, runErr error) string {
	if runErr != nil {
		return "error"
	}
	if len(s.PlatformsFailed) > 0 || s.ItemsFailed > 0 || s.WindowsRanked < len(s.Windows) {
		return "partial"
	}
	return "success"
}

// FailedPlatforms returns the failed platforms in name order.
func (s *Summary) FailedPlatforms() []domain.Platform {
	out := make([]domain.Platform, 0, len(s.CollectionErrors))
	for _, e := range s.CollectionErrors {
		out = append(out, e.Platform)
	}
	sort.Slice(out, func(i, j int) bool { return out[i] < out[j] })
	return out
}
