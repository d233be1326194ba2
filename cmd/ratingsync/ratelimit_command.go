package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratingsync/internal/api"
)

func newRateLimitCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "ratelimit",
		Short: "Show the provider quota and cooldown state",
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := api.NewLookupService(ctx.responseCache(), ctx.rateTracker(), ctx.config.CacheTTL())
			status, err := svc.RateLimit(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, status)
			}
			rows := [][]string{
				{"In cooldown", yesNo(status.InCooldown)},
				{"Cooldown until", orDash(status.CooldownUntil)},
				{"Last limit", formatOptionalInt(status.LastLimit)},
				{"Last remaining", formatOptionalInt(status.LastRemaining)},
				{"Last reset", orDash(status.LastResetAt)},
				{"Updated", orDash(status.UpdatedAt)},
			}
			fmt.Fprintln(cmd.OutOrStdout(), renderTable([]string{"Field", "Value"}, rows, nil))
			return nil
		},
	}
}
