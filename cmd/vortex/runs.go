package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/vortex/internal/config"
	"github.com/hyperengineering/vortex/internal/store"
	"github.com/hyperengineering/vortex/internal/types"
)

var (
	runsLimit      int
	runsJSONOutput bool
)

var runsCmd = &cobra.Command{
	Use:   "runs",
	Short: "List recent sync runs",
	Args:  cobra.NoArgs,
	RunE:  runRuns,
}

func init() {
	runsCmd.Flags().IntVar(&runsLimit, "limit", 20, "Maximum number of runs to list")
	runsCmd.Flags().BoolVar(&runsJSONOutput, "json", false, "Output in JSON format")
}

func runRuns(cmd *cobra.Command, args []string) error {
	ctx := cmd.Context()

	cfg, err := config.LoadJobConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.Log)

	st, err := store.Open(ctx, cfg.Database)
	if err != nil {
		return fmt.Errorf("open store: %w", err)
	}
	defer st.Close()

	runs, err := st.ListSyncRuns(ctx, runsLimit)
	if err != nil {
		return fmt.Errorf("list sync runs: %w", err)
	}

	if runsJSONOutput {
		if runs == nil {
			runs = []types.SyncRun{}
		}
		return printJSON(cmd.OutOrStdout(), types.SyncRunsResponse{Runs: runs})
	}

	if len(runs) == 0 {
		fmt.Fprintln(cmd.OutOrStdout(), "No sync runs found.")
		return nil
	}

	w := newTabWriter(cmd.OutOrStdout())
	fmt.Fprintln(w, "ID\tTRIGGER\tSTATUS\tTIME\tPLANNING\tSTARTED\tDURATION\tERROR")
	for _, r := range runs {
		errMsg := "-"
		if r.Error != nil {
			errMsg = *r.Error
		}
		fmt.Fprintf(w, "%s\t%s\t%s\t%d\t%d\t%s\t%s\t%s\n",
			r.ID,
			r.Trigger,
			r.Status,
			r.TimeEntriesCount,
			r.PlanningEntriesCount,
			r.StartedAt.Format("2006-01-02 15:04:05"),
			r.FinishedAt.Sub(r.StartedAt).Round(time.Millisecond),
			errMsg,
		)
	}
	return w.Flush()
}
