package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"wishlist-momentum-lab/internal/app"
)

func newCleanupCommand(ctx *commandContext) *cobra.Command {
	var maxAge time.Duration

	cmd := &cobra.Command{
		Use:   "cleanup",
		Short: "Delete snapshots older than the retention age",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			age := maxAge
			if age == 0 {
				age = cfg.RetentionMaxAge()
			}
			if age <= 0 {
				return fmt.Errorf("retention is disabled; set retention.max_age_days or pass --max-age")
			}

			backend, err := ctx.openBackend(cmd.Context())
			if err != nil {
				return err
			}
			defer ctx.close()

			deleted, err := app.PruneSnapshots(cmd.Context(), backend.Stores.Snapshots, age, time.Now().UTC(), ctx.logger)
			if err != nil {
				return err
			}
			fmt.Fprintf(cmd.OutOrStdout(), "Deleted %d snapshots older than %s\n", deleted, age)
			return nil
		},
	}

	cmd.Flags().DurationVar(&maxAge, "max-age", 0, "Retention age such as 2160h (default from config)")
	return cmd
}
