// Command server runs the pipeline on a cron schedule and serves the query API.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"strings"
	"syscall"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/config"
	"wishlist-momentum-lab/internal/logging"
)

func main() {
	cmd := newRootCommand()
	if err := cmd.Execute(); err != nil {
		if !errors.Is(err, context.Canceled) {
			fmt.Fprintln(os.Stderr, err)
		}
		os.Exit(1)
	}
}

func newRootCommand() *cobra.Command {
	var configFlag string
	var addrFlag string
	var runNow bool

	cmd := &cobra.Command{
		Use:           "server",
		Short:         "Scheduled momentum pipeline with query API",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := config.Load(strings.TrimSpace(configFlag))
			if err != nil {
				return err
			}
			if addrFlag != "" {
				cfg.Server.Addr = addrFlag
			}

			logger, err := logging.New(cfg.Logging.Level, cfg.Logging.Encoding)
			if err != nil {
				return err
			}
			defer func() { _ = logger.Sync() }()

			ctx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			srv, err := NewServer(ctx, cfg, logger)
			if err != nil {
				return err
			}
			defer srv.Close()

			if runNow {
				go srv.runPipeline(ctx)
			}

			err = srv.Serve(ctx)
			if err != nil && !errors.Is(err, context.Canceled) {
				logger.Error("server stopped", zap.Error(err))
				return err
			}
			logger.Info("shutdown complete")
			return nil
		},
	}

	cmd.Flags().StringVarP(&configFlag, "config", "c", "", "Configuration file path")
	cmd.Flags().StringVar(&addrFlag, "addr", "", "HTTP listen address (default from config)")
	cmd.Flags().BoolVar(&runNow, "run-now", false, "Run the pipeline once at startup")
	return cmd
}
