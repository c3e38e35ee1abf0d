package main

import (
	"fmt"
	"strconv"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/query"
)

func newHistoryCommand(ctx *commandContext) *cobra.Command {
	var platform string
	var externalID string

	cmd := &cobra.Command{
		Use:   "history [item-id]",
		Short: "Show the snapshot history of one item",
		Args:  cobra.MaximumNArgs(1),
		RunE: func(cmd *cobra.Command, args []string) error {
			if len(args) == 0 && (platform == "" || externalID == "") {
				return fmt.Errorf("pass an item id or both --platform and --external-id")
			}

			_, backend, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			svc := query.NewService(backend.Stores)
			var res *query.HistoryResult
			if len(args) == 1 {
				res, err = svc.History(cmd.Context(), strings.TrimSpace(args[0]))
			} else {
				p, perr := domain.ParsePlatform(platform)
				if perr != nil {
					return perr
				}
				res, err = svc.HistoryByExternalID(cmd.Context(), p, externalID)
			}
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			item := res.Item
			fmt.Fprintf(out, "%s (%s %s)\n", item.DisplayName, item.Platform, item.ExternalID)
			fmt.Fprintf(out, "Item ID: %s\n", item.ItemID)
			if item.PotentialDuplicate && item.DuplicateOf != nil {
				fmt.Fprintf(out, "Potential duplicate of %s\n", *item.DuplicateOf)
			}

			rows := make([][]string, 0, len(res.Snapshots))
			for _, s := range res.Snapshots {
				value := "unknown"
				if s.MetricValue != nil {
					value = strconv.FormatInt(*s.MetricValue, 10)
				}
				rows = append(rows, []string{
					time.UnixMilli(s.ObservedAt).UTC().Format(time.RFC3339),
					value,
					s.RunID,
				})
			}
			fmt.Fprintln(out, renderTable([]string{"Observed", "Followers", "Run"}, rows,
				[]columnAlignment{alignLeft, alignRight, alignLeft}))
			return nil
		},
	}

	cmd.Flags().StringVar(&platform, "platform", "", "Platform of the item (steam, itch, epic)")
	cmd.Flags().StringVar(&externalID, "external-id", "", "Platform-native id of the item")
	return cmd
}
