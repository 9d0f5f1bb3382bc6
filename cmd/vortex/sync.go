package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/vortex/internal/config"
	"github.com/hyperengineering/vortex/internal/types"
)

var syncJSONOutput bool

var syncCmd = &cobra.Command{
	Use:   "sync",
	Short: "Run one sync from the spreadsheet into the database",
	Long:  "Reads the Time and Planning tabs once, upserts them, and exits non-zero on failure.",
	Args:  cobra.NoArgs,
	RunE:  runSync,
}

func init() {
	syncCmd.Flags().BoolVar(&syncJSONOutput, "json", false, "Output in JSON format")
}

func runSync(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.LoadJobConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.Log)

	d, err := openDeps(ctx, cfg)
	if err != nil {
		return err
	}
	defer d.store.Close()

	result, err := d.syncer.Run(ctx, types.TriggerCLI)
	if err != nil {
		if syncJSONOutput {
			printJSON(cmd.OutOrStdout(), types.SyncErrorResponse{Error: err.Error()})
		}
		return fmt.Errorf("sync failed: %w", err)
	}

	if syncJSONOutput {
		return printJSON(cmd.OutOrStdout(), result)
	}
	fmt.Fprintln(cmd.OutOrStdout(), result.Message)
	fmt.Fprintf(cmd.OutOrStdout(), "time entries:     %d\n", result.TimeEntriesCount)
	fmt.Fprintf(cmd.OutOrStdout(), "planning entries: %d\n", result.PlanningEntriesCount)
	if result.RunID != "" {
		fmt.Fprintf(cmd.OutOrStdout(), "run id:           %s\n", result.RunID)
	}
	return nil
}
