package main

import (
	"fmt"
	"os"
	"os/signal"
	"syscall"
	"time"

	"github.com/spf13/cobra"

	"mediasort/internal/catalog"
	"mediasort/internal/config"
	"mediasort/internal/ingest"
	"mediasort/internal/logging"
	"mediasort/internal/report"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var dryRun bool
	var modeFlag string
	var sourceDir string
	var destDir string

	cmd := &cobra.Command{
		Use:         "run",
		Short:       "Scan the source tree and organize media into the destination",
		Annotations: map[string]string{"skipConfigLoad": "true"},
		RunE: func(cmd *cobra.Command, args []string) error {
			mode, err := ingest.ParseMode(modeFlag)
			if err != nil {
				return err
			}

			ctx.setOverrides(config.Overrides{SourceDir: sourceDir, DestinationDir: destDir})
			if dryRun {
				ctx.skipDirectoryCreation()
			}
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			logger, err := logging.NewFromConfig(cfg)
			if err != nil {
				return fmt.Errorf("initialize logging: %w", err)
			}

			var store *catalog.Store
			if dryRun {
				store, err = catalog.OpenEphemeral(cfg.WorkerCount())
			} else {
				store, err = catalog.Open(cfg)
			}
			if err != nil {
				return fmt.Errorf("open catalog: %w", err)
			}
			defer store.Close()

			runner, err := ingest.New(cfg, store, logger, mode)
			if err != nil {
				return err
			}

			runCtx, stop := signal.NotifyContext(cmd.Context(), os.Interrupt, syscall.SIGTERM)
			defer stop()

			start := time.Now()
			stats, runErr := runner.Run(runCtx)

			fmt.Fprintln(cmd.OutOrStdout())
			report.Render(cmd.OutOrStdout(), stats, time.Since(start), string(mode), dryRun)
			return runErr
		},
	}

	cmd.Flags().BoolVar(&dryRun, "dry-run", false, "Plan the run without copying files or saving the catalog")
	cmd.Flags().StringVar(&modeFlag, "mode", string(ingest.ModeFresh), "Run mode: fresh or merge")
	cmd.Flags().StringVar(&sourceDir, "source", "", "Override the configured source directory")
	cmd.Flags().StringVar(&destDir, "dest", "", "Override the configured destination directory")
	return cmd
}
