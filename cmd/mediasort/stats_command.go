package main

import (
	"fmt"
	"os"

	"github.com/spf13/cobra"

	"mediasort/internal/catalog"
	"mediasort/internal/report"
)

func newStatsCommand(ctx *commandContext) *cobra.Command {
	var showHealth bool

	cmd := &cobra.Command{
		Use:   "stats",
		Short: "Show aggregate results from the catalog database",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if _, err := os.Stat(cfg.Paths.DatabasePath); os.IsNotExist(err) {
				return fmt.Errorf("no catalog database at %s; run `mediasort run` first", cfg.Paths.DatabasePath)
			}

			store, err := catalog.Open(cfg)
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			stats, err := store.Aggregate(cmd.Context())
			if err != nil {
				return fmt.Errorf("aggregate catalog: %w", err)
			}
			report.RenderStats(cmd.OutOrStdout(), stats)

			if showHealth {
				health, err := store.CheckHealth(cmd.Context())
				if err != nil {
					return fmt.Errorf("check catalog health: %w", err)
				}
				out := cmd.OutOrStdout()
				fmt.Fprintln(out)
				fmt.Fprintf(out, "Database: %s\n", health.DBPath)
				fmt.Fprintf(out, "Readable: %v  Integrity: %v  Records: %d\n",
					health.DatabaseReadable, health.IntegrityCheck, health.TotalRecords)
				if health.Error != "" {
					fmt.Fprintf(out, "Error: %s\n", health.Error)
				}
			}
			return nil
		},
	}

	cmd.Flags().BoolVar(&showHealth, "health", false, "Include database health checks")
	return cmd
}
