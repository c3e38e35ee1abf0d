package config

import (
	"errors"
	"fmt"
	"strings"

	"github.com/robfig/cron/v3"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/identity"
)

// ErrInvalid is wrapped by every validation failure.
var ErrInvalid = errors.New("invalid configuration")

// Validate ensures the configuration is usable. Any error is fatal: the
// pipeline must not start writing with a configuration that fails here.
func (c *Config) Validate() error {
	for _, check := range []func() error{
		c.validateStorage,
		c.validateIdentity,
		c.validateGrowth,
		c.validateMomentum,
		c.validatePipeline,
		c.validateCollectors,
		c.validateServer,
	} {
		if err := check(); err != nil {
			return fmt.Errorf("%w: %w", ErrInvalid, err)
		}
	}
	return nil
}

func (c *Config) validateStorage() error {
	switch c.Storage.Backend {
	case "memory":
	case "sqlite":
		if strings.TrimSpace(c.Storage.SQLitePath) == "" {
			return errors.New("storage.sqlite_path must be set for the sqlite backend")
		}
	case "postgres":
		if strings.TrimSpace(c.Storage.PostgresDSN) == "" {
			return errors.New("storage.postgres_dsn must be set for the postgres backend")
		}
	default:
		return fmt.Errorf("storage.backend %q is not one of memory, sqlite, postgres", c.Storage.Backend)
	}
	return nil
}

func (c *Config) validateIdentity() error {
	if c.Identity.Threshold <= 0 || c.Identity.Threshold > 1 {
		return errors.New("identity.threshold must be in (0, 1]")
	}
	if c.Identity.Epsilon < 0 || c.Identity.Epsilon >= 1 {
		return errors.New("identity.epsilon must be in [0, 1)")
	}
	if _, ok := identity.ScorerByName(c.Identity.Scorer); !ok {
		return fmt.Errorf("identity.scorer %q is unknown", c.Identity.Scorer)
	}
	return nil
}

func (c *Config) validateGrowth() error {
	if len(c.Growth.Windows) == 0 {
		return errors.New("growth.windows must list at least one window")
	}
	seen := make(map[string]bool, len(c.Growth.Windows))
	for _, w := range c.Growth.Windows {
		if _, err := domain.ParseWindow(w); err != nil {
			return fmt.Errorf("growth.windows: %w", err)
		}
		if seen[w] {
			return fmt.Errorf("growth.windows lists %q twice", w)
		}
		seen[w] = true
	}
	if c.Growth.MinMagnitude < 0 {
		return errors.New("growth.min_magnitude must not be negative")
	}
	if c.Growth.MinElapsedSeconds <= 0 {
		return errors.New("growth.min_elapsed_seconds must be positive")
	}
	return nil
}

func (c *Config) validateMomentum() error {
	if c.Momentum.PercentileCutoff < 0 || c.Momentum.PercentileCutoff > 100 {
		return fmt.Errorf("momentum.percentile_cutoff %.2f must be in [0, 100]", c.Momentum.PercentileCutoff)
	}
	return nil
}

func (c *Config) validatePipeline() error {
	if len(c.Pipeline.Platforms) == 0 {
		return errors.New("pipeline.platforms must list at least one platform")
	}
	for _, p := range c.Pipeline.Platforms {
		if _, err := domain.ParsePlatform(p); err != nil {
			return fmt.Errorf("pipeline.platforms: %w", err)
		}
	}
	if c.Pipeline.Workers < 1 {
		return errors.New("pipeline.workers must be at least 1")
	}
	if c.Pipeline.PlatformTimeoutSeconds < 1 {
		return errors.New("pipeline.platform_timeout_seconds must be at least 1")
	}
	if c.Pipeline.RetryAttempts < 1 {
		return errors.New("pipeline.retry_attempts must be at least 1")
	}
	if c.Pipeline.RetryInitialDelayMs < 0 {
		return errors.New("pipeline.retry_initial_delay_ms must not be negative")
	}
	if strings.TrimSpace(c.Pipeline.RunLabel) == "" {
		return errors.New("pipeline.run_label must be set")
	}
	return nil
}

func (c *Config) validateCollectors() error {
	for name, col := range c.Collectors {
		if _, err := domain.ParsePlatform(name); err != nil {
			return fmt.Errorf("collectors: %w", err)
		}
		switch col.Kind {
		case "", "csv":
			if strings.TrimSpace(col.Path) == "" {
				return fmt.Errorf("collectors.%s.path must be set", name)
			}
		case "static":
		default:
			return fmt.Errorf("collectors.%s.kind %q is not one of csv, static", name, col.Kind)
		}
	}
	return nil
}

func (c *Config) validateServer() error {
	if strings.TrimSpace(c.Server.Schedule) == "" {
		return nil
	}
	parser := cron.NewParser(cron.Second | cron.Minute | cron.Hour | cron.Dom | cron.Month | cron.Dow | cron.Descriptor)
	if _, err := parser.Parse(c.Server.Schedule); err != nil {
		return fmt.Errorf("server.schedule: %w", err)
	}
	return nil
}
