package main

import (
	"fmt"
	"io"
	"os"
	"strconv"
	"strings"

	"github.com/spf13/cobra"

	"wishlist-momentum-lab/internal/domain"
	"wishlist-momentum-lab/internal/query"
	"wishlist-momentum-lab/internal/reporting"
)

func newMomentumCommand(ctx *commandContext) *cobra.Command {
	var asOf string
	var windows []string
	var top int
	var format string
	var output string

	cmd := &cobra.Command{
		Use:   "momentum",
		Short: "Show the ranked momentum sets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, backend, err := ctx.open(cmd.Context())
			if err != nil {
				return err
			}
			defer backend.Close()

			kinds := cfg.WindowKinds()
			if len(windows) > 0 {
				kinds = kinds[:0]
				for _, w := range windows {
					kind, err := domain.ParseWindow(strings.TrimSpace(w))
					if err != nil {
						return err
					}
					kinds = append(kinds, kind)
				}
			}

			gen := reporting.NewGenerator(query.NewService(backend.Stores), backend.Stores.Runs)
			report, err := gen.Generate(cmd.Context(), reporting.Options{
				AsOfDate: strings.TrimSpace(asOf),
				Windows:  kinds,
				Top:      top,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if output != "" {
				f, err := os.Create(output)
				if err != nil {
					return fmt.Errorf("create output: %w", err)
				}
				defer f.Close()
				out = f
			}

			switch format {
			case "table":
				writeMomentumTables(out, report)
				return nil
			case "csv":
				return reporting.RenderCSV(out, report)
			case "markdown", "md":
				_, err := io.WriteString(out, reporting.RenderMarkdown(report))
				return err
			}
			return fmt.Errorf("unknown format %q (table, csv, markdown)", format)
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "As-of date YYYY-MM-DD (default latest)")
	cmd.Flags().StringSliceVarP(&windows, "window", "w", nil, "Windows to show (default from config)")
	cmd.Flags().IntVar(&top, "top", 20, "Records per window, 0 for all")
	cmd.Flags().StringVarP(&format, "format", "f", "table", "Output format: table, csv, markdown")
	cmd.Flags().StringVarP(&output, "output", "o", "", "Write to file instead of stdout")
	return cmd
}

func writeMomentumTables(out io.Writer, r *reporting.Report) {
	headers := []string{"Rank", "Platform", "Item", "Baseline", "Latest", "Delta", "Per Day", "Rate", "Pctl"}
	aligns := []columnAlignment{alignRight, alignLeft, alignLeft, alignRight, alignRight, alignRight, alignRight, alignRight, alignRight}

	for i, s := range r.Sections {
		if i > 0 {
			fmt.Fprintln(out)
		}
		if s.Empty() {
			fmt.Fprintf(out, "Window %s: no momentum computed\n", s.Window)
			continue
		}

		title := fmt.Sprintf("Window %s as of %s", s.Window, s.ServedDate)
		if s.Fallback {
			title += fmt.Sprintf(" (requested %s)", r.RequestedDate)
		}
		fmt.Fprintln(out, title)

		rows := make([][]string, 0, len(s.Records))
		for _, m := range s.Records {
			rows = append(rows, []string{
				strconv.Itoa(m.Rank),
				m.Platform.String(),
				m.DisplayName,
				strconv.FormatInt(m.BaselineValue, 10),
				strconv.FormatInt(m.LatestValue, 10),
				strconv.FormatInt(m.Delta, 10),
				strconv.FormatFloat(m.DeltaPerDay, 'f', 1, 64),
				strconv.FormatFloat(m.DeltaRate*100, 'f', 1, 64) + "%",
				strconv.FormatFloat(m.Percentile, 'f', 0, 64),
			})
		}
		fmt.Fprintln(out, renderTable(headers, rows, aligns))
		if s.Total > len(s.Records) {
			fmt.Fprintf(out, "Showing %d of %d\n", len(s.Records), s.Total)
		}
	}
}
