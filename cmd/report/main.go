// Command report prints stored momentum sets, item histories and runs.
package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"strings"

	"github.com/spf13/cobra"

	"wishlist-momentum-lab/internal/app"
	"wishlist-momentum-lab/internal/config"
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

type commandContext struct {
	configFlag string
	config     *config.Config
}

// open loads the configuration and opens storage. Logs are discarded so
// they never mix with report output.
func (c *commandContext) open(ctx context.Context) (*config.Config, *app.Backend, error) {
	if c.config == nil {
		cfg, err := config.Load(strings.TrimSpace(c.configFlag))
		if err != nil {
			return nil, nil, err
		}
		c.config = cfg
	}
	backend, err := app.OpenBackend(ctx, c.config.Storage, nil)
	if err != nil {
		return nil, nil, err
	}
	return c.config, backend, nil
}

func newRootCommand() *cobra.Command {
	ctx := &commandContext{}

	rootCmd := &cobra.Command{
		Use:           "report",
		Short:         "Momentum reports",
		SilenceUsage:  true,
		SilenceErrors: true,
		RunE: func(cmd *cobra.Command, args []string) error {
			return cmd.Help()
		},
	}

	rootCmd.PersistentFlags().StringVarP(&ctx.configFlag, "config", "c", "", "Configuration file path")

	rootCmd.AddCommand(newMomentumCommand(ctx))
	rootCmd.AddCommand(newHistoryCommand(ctx))
	rootCmd.AddCommand(newRunsCommand(ctx))

	return rootCmd
}
