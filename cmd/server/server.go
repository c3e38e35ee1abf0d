package main

import (
	"context"
	"encoding/json"
	"errors"
	"net/http"
	"sync"
	"time"

	"github.com/prometheus/client_golang/prometheus"
	"github.com/robfig/cron/v3"
	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/api"
	"wishlist-momentum-lab/internal/app"
	"wishlist-momentum-lab/internal/config"
	"wishlist-momentum-lab/internal/observability"
	"wishlist-momentum-lab/internal/orchestrator"
	"wishlist-momentum-lab/internal/publish"
	"wishlist-momentum-lab/internal/query"
)

const shutdownTimeout = 30 * time.Second

// Server holds all components of the scheduled service.
type Server struct {
	cfg       *config.Config
	backend   *app.Backend
	publisher publish.Publisher
	orch      *orchestrator.Orchestrator
	metrics   *observability.Metrics
	logger    *zap.Logger

	cron *cron.Cron
	http *http.Server

	// State
	mu              sync.Mutex
	started         time.Time
	pipelineRunning bool
	lastRun         time.Time
	lastRunID       string
	lastRunErr      string
	pipelineRuns    int
}

// NewServer opens storage and assembles the pipeline, scheduler and router.
func NewServer(ctx context.Context, cfg *config.Config, logger *zap.Logger) (*Server, error) {
	backend, err := app.OpenBackend(ctx, cfg.Storage, logger.Named("storage"))
	if err != nil {
		return nil, err
	}

	publisher, err := app.NewPublisher(ctx, cfg.Publish, logger.Named("publish"))
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	metrics := observability.NewMetrics("", prometheus.DefaultRegisterer)
	orch, err := app.NewOrchestrator(cfg, backend.Stores, publisher, metrics, logger)
	if err != nil {
		_ = backend.Close()
		return nil, err
	}

	s := &Server{
		cfg:       cfg,
		backend:   backend,
		publisher: publisher,
		orch:      orch,
		metrics:   metrics,
		logger:    logger,
		started:   time.Now(),
	}
	s.http = &http.Server{
		Addr:              cfg.Server.Addr,
		Handler:           s.routes(),
		ReadHeaderTimeout: 10 * time.Second,
	}
	if err := s.setupScheduler(ctx); err != nil {
		_ = s.Close()
		return nil, err
	}
	return s, nil
}

func (s *Server) routes() http.Handler {
	ctrl := api.NewController(query.NewService(s.backend.Stores), s.backend.Stores.Runs, s.backend.Ping, s.logger.Named("api"))
	r := ctrl.NewRouter()
	r.Handle("/metrics", observability.Handler()).Methods(http.MethodGet)
	r.HandleFunc("/api/status", s.handleStatus).Methods(http.MethodGet)
	return r
}

// setupScheduler registers the pipeline on the configured cron spec.
// An empty spec leaves the server query-only.
func (s *Server) setupScheduler(ctx context.Context) error {
	// Seconds field, optional
	s.cron = cron.New(cron.WithSeconds(), cron.WithChain(cron.Recover(cron.DefaultLogger)))

	spec := s.cfg.Server.Schedule
	if spec == "" {
		s.logger.Info("no schedule configured, pipeline runs only on demand")
		return nil
	}

	_, err := s.cron.AddFunc(spec, func() {
		s.runPipeline(ctx)
	})
	if err != nil {
		return err
	}
	s.logger.Info("pipeline scheduled", zap.String("spec", spec))
	return nil
}

// Serve starts the scheduler and HTTP server and blocks until ctx is done.
func (s *Server) Serve(ctx context.Context) error {
	s.cron.Start()

	errCh := make(chan error, 1)
	go func() {
		s.logger.Info("starting HTTP server", zap.String("addr", s.http.Addr))
		if err := s.http.ListenAndServe(); err != nil && !errors.Is(err, http.ErrServerClosed) {
			errCh <- err
		}
		close(errCh)
	}()

	var serveErr error
	select {
	case <-ctx.Done():
		s.logger.Info("received shutdown signal")
	case serveErr = <-errCh:
	}

	shutdownCtx, cancel := context.WithTimeout(context.Background(), shutdownTimeout)
	defer cancel()

	// Wait for a running pipeline to finish.
	stopCtx := s.cron.Stop()
	select {
	case <-stopCtx.Done():
	case <-shutdownCtx.Done():
		s.logger.Warn("scheduled run did not stop before shutdown timeout")
	}

	if err := s.http.Shutdown(shutdownCtx); err != nil {
		s.logger.Warn("HTTP shutdown", zap.Error(err))
	}
	return serveErr
}

// Close releases the publisher and storage.
func (s *Server) Close() error {
	var errs []error
	if s.publisher != nil {
		errs = append(errs, s.publisher.Close())
	}
	errs = append(errs, s.backend.Close())
	return errors.Join(errs...)
}

// runPipeline executes one run unless another is still in progress.
func (s *Server) runPipeline(ctx context.Context) {
	s.mu.Lock()
	if s.pipelineRunning {
		s.mu.Unlock()
		s.logger.Warn("pipeline already running, skipping")
		return
	}
	s.pipelineRunning = true
	s.mu.Unlock()

	summary, err := s.orch.Run(ctx, orchestrator.RunRequest{Label: s.cfg.Pipeline.RunLabel})

	s.mu.Lock()
	s.pipelineRunning = false
	s.lastRun = time.Now()
	s.pipelineRuns++
	s.lastRunErr = ""
	if err != nil {
		s.lastRunErr = err.Error()
	}
	if summary != nil {
		s.lastRunID = summary.RunID
	}
	s.mu.Unlock()

	if err != nil {
		s.logger.Error("pipeline run failed", zap.Error(err))
		return
	}

	if maxAge := s.cfg.RetentionMaxAge(); maxAge > 0 {
		if _, err := app.PruneSnapshots(ctx, s.backend.Stores.Snapshots, maxAge, time.Now().UTC(), s.logger); err != nil {
			s.logger.Error("snapshot retention failed", zap.Error(err))
		}
	}
}

// StatusResponse is the JSON response for /api/status.
type StatusResponse struct {
	Status          string    `json:"status"`
	Uptime          string    `json:"uptime"`
	Backend         string    `json:"backend"`
	Schedule        string    `json:"schedule,omitempty"`
	NextRun         time.Time `json:"next_run,omitempty"`
	LastRun         time.Time `json:"last_run,omitempty"`
	LastRunID       string    `json:"last_run_id,omitempty"`
	LastRunError    string    `json:"last_run_error,omitempty"`
	PipelineRuns    int       `json:"pipeline_runs"`
	PipelineRunning bool      `json:"pipeline_running"`
}

func (s *Server) handleStatus(w http.ResponseWriter, _ *http.Request) {
	s.mu.Lock()
	resp := StatusResponse{
		Status:          "running",
		Uptime:          time.Since(s.started).Round(time.Second).String(),
		Backend:         s.backend.Kind,
		Schedule:        s.cfg.Server.Schedule,
		LastRun:         s.lastRun,
		LastRunID:       s.lastRunID,
		LastRunError:    s.lastRunErr,
		PipelineRuns:    s.pipelineRuns,
		PipelineRunning: s.pipelineRunning,
	}
	s.mu.Unlock()

	if entries := s.cron.Entries(); len(entries) > 0 {
		resp.NextRun = entries[0].Next
	}

	w.Header().Set("Content-Type", "application/json")
	_ = json.NewEncoder(w).Encode(resp)
}
