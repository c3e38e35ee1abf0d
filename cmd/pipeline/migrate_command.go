package main

import (
	"fmt"

	"github.com/spf13/cobra"
)

func newMigrateCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "migrate",
		Short: "Create or upgrade the storage schema",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			// Opening a backend applies its migrations.
			backend, err := ctx.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			if err := backend.Ping(cmd.Context()); err != nil {
				return fmt.Errorf("ping storage: %w", err)
			}

			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Schema up to date on %s\n", cfg.Storage.Backend)
			if cfg.Storage.ClickHouseDSN != "" {
				fmt.Fprintln(out, "Snapshot schema up to date on clickhouse")
			}
			return nil
		},
	}
}
