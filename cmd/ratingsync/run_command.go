package main

import (
	"context"
	"fmt"
	"log/slog"
	"strings"
	"time"

	"github.com/spf13/cobra"

	"ratingsync/internal/batch"
	"ratingsync/internal/logging"
	"ratingsync/internal/notifications"
	"ratingsync/internal/preflight"
	"ratingsync/internal/services"
)

func newRunCommand(ctx *commandContext) *cobra.Command {
	var (
		kindFlag      string
		missing       bool
		limit         int
		skipPreflight bool
	)

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Update ratings for every library item",
		RunE: func(cmd *cobra.Command, args []string) error {
			kind, err := parseKindFlag(kindFlag)
			if err != nil {
				return err
			}
			cfg := ctx.config
			out := cmd.OutOrStdout()

			if !skipPreflight {
				if failed := preflight.Failed(preflight.RunAll(cmd.Context(), cfg)); len(failed) > 0 {
					details := make([]string, 0, len(failed))
					for _, r := range failed {
						details = append(details, fmt.Sprintf("%s: %s", r.Name, r.Detail))
					}
					return services.Wrap(services.ErrConfiguration, "cli", "preflight",
						strings.Join(details, "; "), nil)
				}
			}

			updater, store, err := ctx.updater()
			if err != nil {
				return err
			}
			runner, err := batch.NewRunner(store, updater, cfg.Paths.LockPath, ctx.log())
			if err != nil {
				return err
			}

			opts := batch.Options{Kind: kind, MissingOnly: missing, Limit: limit}
			if !ctx.jsonOutput() {
				opts.Progress = func(p batch.Progress) {
					fmt.Fprintf(out, "[%d/%d] %s: %s\n", p.Index, p.Total, p.Result.Item.Label(), p.Result.Outcome)
				}
			}
			summary, runErr := runner.Run(cmd.Context(), opts)
			if runErr != nil && !services.IsCancellation(runErr) {
				publishRunError(ctx, runErr)
				return runErr
			}
			if runErr == nil {
				publishRunSummary(ctx, summary)
			}

			if ctx.jsonOutput() {
				if err := writeJSON(cmd, summary); err != nil {
					return err
				}
				return runErr
			}
			fmt.Fprintf(out, "Processed %d of %d: %d updated, %d skipped, %d failed, %d rate limited\n",
				summary.Processed, summary.Total, summary.Updated, summary.Skipped, summary.Failed, summary.RateLimited)
			switch summary.Stopped {
			case batch.StopRateLimited:
				fmt.Fprintln(out, "Stopped early: provider quota exhausted")
			case batch.StopCancelled:
				fmt.Fprintln(out, "Stopped early: interrupted")
			}
			return runErr
		},
	}
	cmd.Flags().StringVar(&kindFlag, "kind", "", "Only process movie or show items")
	cmd.Flags().BoolVar(&missing, "missing", false, "Only process items missing a target rating")
	cmd.Flags().IntVar(&limit, "limit", 0, "Process at most this many items")
	cmd.Flags().BoolVar(&skipPreflight, "skip-preflight", false, "Skip readiness checks")
	return cmd
}

// Notifications are sent on a fresh context so an interrupted run can still
// report; they never change the command result.
func publishRunSummary(ctx *commandContext, summary batch.Summary) {
	notifier := notifications.NewService(ctx.config)
	logger := ctx.log()
	sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()

	if summary.Stopped == batch.StopRateLimited {
		payload := notifications.Payload{"remaining": summary.Total - summary.Processed}
		if until := ctx.rateTracker().State().CooldownUntil; until != nil {
			payload["cooldownUntil"] = until.UTC().Format(time.RFC3339)
		}
		logPublishError(logger, notifier.Publish(sendCtx, notifications.EventRateLimited, payload))
	}
	logPublishError(logger, notifier.Publish(sendCtx, notifications.EventBatchCompleted, notifications.Payload{
		"processed": summary.Processed,
		"updated":   summary.Updated,
		"failed":    summary.Failed,
		"duration":  summary.FinishedAt.Sub(summary.StartedAt),
	}))
}

func publishRunError(ctx *commandContext, err error) {
	notifier := notifications.NewService(ctx.config)
	sendCtx, cancel := context.WithTimeout(context.Background(), 15*time.Second)
	defer cancel()
	logPublishError(ctx.log(), notifier.Publish(sendCtx, notifications.EventError, notifications.Payload{
		"context": "run",
		"error":   err.Error(),
	}))
}

func logPublishError(logger *slog.Logger, err error) {
	if err == nil {
		return
	}
	logger.Warn("notification failed",
		logging.Error(err),
		logging.String(logging.FieldEventType, "notification_failed"),
		logging.String(logging.FieldErrorHint, "check notifications.ntfy_topic"),
	)
}
