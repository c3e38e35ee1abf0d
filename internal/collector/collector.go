// Package collector defines the boundary to per-platform sources and a few
// sources that do not need network access.
package collector

import (
	"context"
	"fmt"

	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/retry"
)

// Collector yields the current observations of one platform.
type Collector interface {
	Platform() domain.Platform
	Collect(ctx context.Context) ([]domain.Observation, error)
}

// Static returns a fixed set of observations.
type Static struct {
	platform     domain.Platform
	observations []domain.Observation
}

// NewStatic creates a collector that always yields observations.
func NewStatic(platform domain.Platform, observations []domain.Observation) *Static {
	return &Static{platform: platform, observations: observations}
}

// Platform returns the platform this collector serves.
func (s *Static) Platform() domain.Platform { return s.platform }

// Collect returns a copy of the configured observations.
func (s *Static) Collect(ctx context.Context) ([]domain.Observation, error) {
	if err := ctx.Err(); err != nil {
		return nil, err
	}
	out := make([]domain.Observation, len(s.observations))
	copy(out, s.observations)
	return out, nil
}

// Func adapts a function to Collector.
type Func struct {
	P  domain.Platform
	Fn func(ctx context.Context) ([]domain.Observation, error)
}

// Platform returns the platform this collector serves.
func (f Func) Platform() domain.Platform { return f.P }

// Collect calls Fn.
func (f Func) Collect(ctx context.Context) ([]domain.Observation, error) { return f.Fn(ctx) }

// Retrying retries a collector with exponential backoff.
type Retrying struct {
	inner  Collector
	cfg    retry.Config
	logger *zap.Logger
}

// WithRetry wraps c so transient failures are retried.
func WithRetry(c Collector, cfg retry.Config, logger *zap.Logger) *Retrying {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Retrying{inner: c, cfg: cfg, logger: logger}
}

// Platform returns the platform of the wrapped collector.
func (r *Retrying) Platform() domain.Platform { return r.inner.Platform() }

// Collect calls the wrapped collector until it succeeds or retries run out.
func (r *Retrying) Collect(ctx context.Context) ([]domain.Observation, error) {
	var out []domain.Observation
	op := fmt.Sprintf("collect %s", r.inner.Platform())
	err := retry.WithBackoff(ctx, r.cfg, r.logger, op, func() error {
		obs, err := r.inner.Collect(ctx)
		if err != nil {
			return err
		}
		out = obs
		return nil
	})
	return out, err
}

// Build creates the collector for a configured kind.
func Build(platform domain.Platform, kind, path string, logger *zap.Logger) (Collector, error) {
	switch kind {
	case "", "csv":
		return NewCSV(platform, path, logger), nil
	case "static":
		return NewStatic(platform, nil), nil
	}
	return nil, fmt.Errorf("unknown collector kind %q for %s", kind, platform)
}
