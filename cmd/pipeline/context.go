package main

import (
	"context"
	"strings"
	"sync"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/app"
	"wishlist-momentum-lab/internal/config"
	"wishlist-momentum-lab/internal/logging"
)

type commandContext struct {
	configFlag *string

	configOnce sync.Once
	config     *config.Config
	logger     *zap.Logger
	configErr  error

	backend *app.Backend
}

func newCommandContext(configFlag *string) *commandContext {
	return &commandContext{configFlag: configFlag}
}

func (c *commandContext) ensureConfig() (*config.Config, error) {
	c.configOnce.Do(func() {
		var path string
		if c.configFlag != nil {
			path = strings.TrimSpace(*c.configFlag)
		}
		cfg, err := config.Load(path)
		if err != nil {
			c.configErr = err
			return
		}
		logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Encoding)
		if err != nil {
			c.configErr = err
			return
		}
		c.config = cfg
		c.logger = logger
	})
	return c.config, c.configErr
}

// openBackend opens the configured stores once per invocation.
func (c *commandContext) openBackend(ctx context.Context) (*app.Backend, error) {
	if c.backend != nil {
		return c.backend, nil
	}
	cfg, err := c.ensureConfig()
	if err != nil {
		return nil, err
	}
	backend, err := app.OpenBackend(ctx, cfg.Storage, c.logger)
	if err != nil {
		return nil, err
	}
	c.backend = backend
	return backend, nil
}

func (c *commandContext) close() {
	if c.backend != nil {
		if err := c.backend.Close(); err != nil && c.logger != nil {
			c.logger.Warn("close storage backend", zap.Error(err))
		}
		c.backend = nil
	}
	if c.logger != nil {
		_ = c.logger.Sync()
	}
}

func shouldSkipConfig(cmd *cobra.Command) bool {
	for c := cmd; c != nil; c = c.Parent() {
		if c.Annotations != nil && c.Annotations["skipConfigLoad"] == "true" {
			return true
		}
	}
	return false
}
