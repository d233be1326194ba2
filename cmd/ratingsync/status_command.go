package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratingsync/internal/preflight"
)

func newStatusCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "status",
		Short: "Run readiness checks",
		RunE: func(cmd *cobra.Command, args []string) error {
			results := preflight.RunAll(cmd.Context(), ctx.config)
			if ctx.jsonOutput() {
				type check struct {
					Name   string `json:"name"`
					Passed bool   `json:"passed"`
					Detail string `json:"detail"`
				}
				out := make([]check, 0, len(results))
				for _, r := range results {
					out = append(out, check(r))
				}
				return writeJSON(cmd, out)
			}
			out := cmd.OutOrStdout()
			fmt.Fprintf(out, "Config: %s\n", orDash(ctx.configPath))
			rows := make([][]string, 0, len(results))
			for _, r := range results {
				rows = append(rows, []string{statusLabel(out, r.Passed), r.Name, r.Detail})
			}
			fmt.Fprintln(out, renderTable([]string{"Status", "Check", "Detail"}, rows, nil))
			return nil
		},
	}
}
