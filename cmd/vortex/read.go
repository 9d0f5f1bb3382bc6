package main

import (
	"fmt"
	"os/signal"
	"syscall"

	"github.com/spf13/cobra"

	"github.com/hyperengineering/vortex/internal/config"
	"github.com/hyperengineering/vortex/internal/types"
)

var readCmd = &cobra.Command{
	Use:   "read <spreadsheet-id> [range]",
	Short: "Print a range of a spreadsheet as JSON",
	Long:  "Reads a range (default Sheet1!A1:B10) and prints the raw rows. Nothing is written.",
	Args:  cobra.RangeArgs(1, 2),
	RunE:  runRead,
}

const defaultReadRange = "Sheet1!A1:B10"

func runRead(cmd *cobra.Command, args []string) error {
	ctx, cancel := signal.NotifyContext(cmd.Context(), syscall.SIGTERM, syscall.SIGINT)
	defer cancel()

	cfg, err := config.LoadJobConfig()
	if err != nil {
		return err
	}
	setupLogger(cfg.Log)

	rng := defaultReadRange
	if len(args) == 2 {
		rng = args[1]
	}

	rows, err := newReader(ctx, cfg.Google).ReadRange(ctx, args[0], rng)
	if err != nil {
		return fmt.Errorf("read %s: %w", rng, err)
	}

	data := make([][]any, 0, len(rows))
	for _, row := range rows {
		data = append(data, row)
	}
	return printJSON(cmd.OutOrStdout(), types.SheetReadResponse{Data: data})
}
