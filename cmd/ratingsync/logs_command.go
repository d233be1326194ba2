package main

import (
	"fmt"
	"time"

	"github.com/spf13/cobra"

	"ratingsync/internal/logging"
	"ratingsync/internal/logs"
)

func newLogsCommand(ctx *commandContext) *cobra.Command {
	var (
		lines  int
		follow bool
		filter logs.Filter
	)

	cmd := &cobra.Command{
		Use:   "logs",
		Short: "Show recent log output",
		RunE: func(cmd *cobra.Command, args []string) error {
			path := logging.FilePath(ctx.config)
			if path == "" {
				return fmt.Errorf("file logging is disabled (paths.log_dir is empty)")
			}
			out := cmd.OutOrStdout()
			recent, offset, err := logs.ReadLast(path, lines, filter)
			if err != nil {
				return err
			}
			for _, line := range recent {
				fmt.Fprintln(out, line)
			}
			if !follow {
				return nil
			}
			return logs.Follow(cmd.Context(), path, offset, 250*time.Millisecond, filter, func(line string) {
				fmt.Fprintln(out, line)
			})
		},
	}
	cmd.Flags().IntVarP(&lines, "lines", "n", 50, "Number of lines to show")
	cmd.Flags().BoolVarP(&follow, "follow", "f", false, "Keep printing new lines")
	cmd.Flags().StringVar(&filter.RunID, "run", "", "Only lines from this run id")
	cmd.Flags().StringVar(&filter.ItemID, "item", "", "Only lines about this item id")
	return cmd
}
