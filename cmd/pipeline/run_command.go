package main

import (
	"encoding/json"
	"fmt"
	"io"
	"os/signal"
	"strings"
	"syscall"
	"time"

	"github.com/spf13/cobra"
	"go.uber.org/zap"

	"wishlist-momentum-lab/internal/app"
	"wishlist-momentum-lab/internal/orchestrator"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var asOf string
	var label string
	var dryRun bool
	var jsonOut bool

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Collect every platform, record snapshots and rank momentum",
		RunE: func(cmd *cobra.Command, args []string) error {
			runCtx, stop := signal.NotifyContext(cmd.Context(), syscall.SIGINT, syscall.SIGTERM)
			defer stop()

			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			when, err := app.ParseAsOf(strings.TrimSpace(asOf), time.Now())
			if err != nil {
				return err
			}

			backend, err := ctx.openBackend(runCtx)
			if err != nil {
				return err
			}
			defer ctx.close()

			publisher, err := app.NewPublisher(runCtx, cfg.Publish, ctx.logger.Named("publish"))
			if err != nil {
				return err
			}
			if publisher != nil {
				defer func() {
					if err := publisher.Close(); err != nil {
						ctx.logger.Warn("close publisher", zap.Error(err))
					}
				}()
			}

			// One-shot runs have no scrape endpoint, so metrics stay off.
			orch, err := app.NewOrchestrator(cfg, backend.Stores, publisher, nil, ctx.logger)
			if err != nil {
				return err
			}

			if label == "" {
				label = cfg.Pipeline.RunLabel
			}
			summary, err := orch.Run(runCtx, orchestrator.RunRequest{
				AsOf:   when,
				Label:  label,
				DryRun: dryRun,
			})
			if err != nil {
				return err
			}

			out := cmd.OutOrStdout()
			if jsonOut {
				return writeSummaryJSON(out, summary)
			}
			printSummary(out, summary)
			return nil
		},
	}

	cmd.Flags().StringVar(&asOf, "as-of", "", "Run time as YYYY-MM-DD or RFC 3339 (default now)")
	cmd.Flags().StringVar(&label, "label", "", "Run label distinguishing several runs of one day")
	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Compute and log rankings without storing or publishing them")
	cmd.Flags().BoolVar(&jsonOut, "json", false, "Print the run summary as JSON")
	return cmd
}

func printSummary(out io.Writer, s *orchestrator.Summary) {
	mode := ""
	if s.DryRun {
		mode = " (dry run)"
	}
	fmt.Fprintf(out, "Run %s for %s%s finished in %s\n", s.RunID, s.AsOfDate, mode, s.Duration.Round(time.Millisecond))
	fmt.Fprintf(out, "  Items processed:      %d\n", s.ItemsProcessed)
	fmt.Fprintf(out, "  New items:            %d\n", s.NewItems)
	fmt.Fprintf(out, "  Potential duplicates: %d\n", s.PotentialDuplicates)
	fmt.Fprintf(out, "  Items failed:         %d\n", s.ItemsFailed)
	if s.DuplicateRuns > 0 {
		fmt.Fprintf(out, "  Already recorded:     %d\n", s.DuplicateRuns)
	}
	for _, w := range s.Windows {
		if w.Err != nil {
			fmt.Fprintf(out, "  Window %-4s failed: %v\n", w.Window, w.Err)
			continue
		}
		fmt.Fprintf(out, "  Window %-4s %d candidates, %d ranked\n", w.Window, w.Candidates, w.Records)
	}
	for _, ce := range s.CollectionErrors {
		fmt.Fprintf(out, "  Platform %s failed: %v\n", ce.Platform, ce.Err)
	}
}

type summaryJSON struct {
	RunID            string            `json:"run_id"`
	AsOfDate         string            `json:"as_of_date"`
	DryRun           bool              `json:"dry_run"`
	DurationMs       int64             `json:"duration_ms"`
	Summary          any               `json:"summary"`
	Windows          []windowJSON      `json:"windows"`
	CollectionErrors map[string]string `json:"collection_errors,omitempty"`
}

type windowJSON struct {
	Window     string `json:"window"`
	Candidates int    `json:"candidates"`
	Records    int    `json:"records"`
	Error      string `json:"error,omitempty"`
}

func writeSummaryJSON(out io.Writer, s *orchestrator.Summary) error {
	payload := summaryJSON{
		RunID:      s.RunID,
		AsOfDate:   s.AsOfDate,
		DryRun:     s.DryRun,
		DurationMs: s.Duration.Milliseconds(),
		Summary:    s.RunSummary,
		Windows:    make([]windowJSON, 0, len(s.Windows)),
	}
	for _, w := range s.Windows {
		wj := windowJSON{Window: w.Window.String(), Candidates: w.Candidates, Records: w.Records}
		if w.Err != nil {
			wj.Error = w.Err.Error()
		}
		payload.Windows = append(payload.Windows, wj)
	}
	if len(s.CollectionErrors) > 0 {
		payload.CollectionErrors = make(map[string]string, len(s.CollectionErrors))
		for _, ce := range s.CollectionErrors {
			payload.CollectionErrors[ce.Platform.String()] = ce.Err.Error()
		}
	}

	enc := json.NewEncoder(out)
	enc.SetIndent("", "  ")
	return enc.Encode(payload)
}
