package main

import (
	"fmt"
	"strconv"
	"time"

	"github.com/spf13/cobra"
)

func newRunsCommand(ctx *commandContext) *cobra.Command {
	var limit int

	cmd := &cobra.Command{
		Use:   "runs",
		Short: "List recent pipeline runs",
		RunE: func(cmd *cobra.Command, args []string) error {
			if limit <= 0 {
				return fmt.Errorf("--limit must be positive")
			}
			_, backend, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			runs, err := backend.Stores.Runs.List(cmd.Context(), limit)
			if err != nil {
				return err
			}

			rows := make([][]string, 0, len(runs))
			for _, r := range runs {
				items, failed := "", ""
				if r.Summary != nil {
					items = strconv.Itoa(r.Summary.ItemsProcessed)
					failed = strconv.Itoa(len(r.Summary.PlatformsFailed))
				}
				took := ""
				if r.CompletedAt != nil {
					took = (time.Duration(*r.CompletedAt-r.StartedAt) * time.Millisecond).Round(time.Millisecond).String()
				}
				rows = append(rows, []string{r.RunID, r.AsOfDate, string(r.Status), items, failed, took})
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable(
				[]string{"Run", "As Of", "Status", "Items", "Failed Platforms", "Took"},
				rows,
				[]columnAlignment{alignLeft, alignLeft, alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}

	cmd.Flags().IntVarP(&limit, "limit", "n", 20, "Number of runs to list")
	return cmd
}
