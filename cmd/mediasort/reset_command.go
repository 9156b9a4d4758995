package main

import (
	"bufio"
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"mediasort/internal/placement"
)

func newResetCommand(ctx *commandContext) *cobra.Command {
	var force bool

	cmd := &cobra.Command{
		Use:   "reset",
		Short: "Delete the catalog database, logs, and organized destination buckets",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}

			targets := []string{
				cfg.Paths.DatabasePath,
				cfg.Paths.DatabasePath + "-wal",
				cfg.Paths.DatabasePath + "-shm",
				cfg.Paths.DatabasePath + ".lock",
				filepath.Join(cfg.Paths.LogDir, "mediasort.log"),
			}
			for _, bucket := range placement.Buckets() {
				targets = append(targets, filepath.Join(cfg.Paths.DestinationDir, bucket))
			}

			if !force {
				out := cmd.OutOrStdout()
				fmt.Fprintln(out, "This will permanently delete:")
				for _, target := range targets {
					fmt.Fprintf(out, "  %s\n", target)
				}
				fmt.Fprint(out, "Continue? [y/N] ")
				reader := bufio.NewReader(cmd.InOrStdin())
				answer, _ := reader.ReadString('\n')
				answer = strings.ToLower(strings.TrimSpace(answer))
				if answer != "y" && answer != "yes" {
					fmt.Fprintln(out, "Aborted.")
					return nil
				}
			}

			var failed []string
			for _, target := range targets {
				if err := os.RemoveAll(target); err != nil {
					failed = append(failed, fmt.Sprintf("%s: %v", target, err))
				}
			}
			if len(failed) > 0 {
				return fmt.Errorf("reset incomplete:\n  %s", strings.Join(failed, "\n  "))
			}
			fmt.Fprintln(cmd.OutOrStdout(), "Environment reset.")
			return nil
		},
	}

	cmd.Flags().BoolVar(&force, "force", false, "Skip the confirmation prompt")
	return cmd
}
