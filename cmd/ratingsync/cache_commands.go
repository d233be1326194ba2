package main

import (
	"fmt"

	"github.com/spf13/cobra"

	"ratingsync/internal/api"
)

func newCacheCommand(ctx *commandContext) *cobra.Command {
	cacheCmd := &cobra.Command{
		Use:   "cache",
		Short: "Inspect the provider response cache",
	}
	cacheCmd.AddCommand(newCacheShowCommand(ctx))
	cacheCmd.AddCommand(newCacheListCommand(ctx))
	return cacheCmd
}

func newCacheShowCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "show <type> <tmdb-id>",
		Short: "Show cached ratings for a title without calling the provider",
		Args:  cobra.ExactArgs(2),
		RunE: func(cmd *cobra.Command, args []string) error {
			svc := api.NewLookupService(ctx.responseCache(), ctx.rateTracker(), ctx.config.CacheTTL())
			lookup, err := svc.Lookup(cmd.Context(), args[0], args[1])
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				return writeJSON(cmd, lookup)
			}
			out := cmd.OutOrStdout()
			if !lookup.Found {
				fmt.Fprintf(out, "No cached ratings for %s %s\n", lookup.ContentType, lookup.TMDBID)
				return nil
			}
			state := "fresh"
			if lookup.Stale {
				state = "stale"
			}
			fmt.Fprintf(out, "%s %s cached at %s (%s)\n", lookup.ContentType, lookup.TMDBID, lookup.CachedAt, state)
			if lookup.IMDBID != "" {
				fmt.Fprintf(out, "IMDb: %s\n", lookup.IMDBID)
			}
			rows := make([][]string, 0, len(lookup.Ratings))
			for _, r := range lookup.Ratings {
				rows = append(rows, []string{
					r.Source,
					formatOptionalFloat(r.Value),
					formatOptionalFloat(r.Score),
					formatOptionalInt64(r.Votes),
				})
			}
			fmt.Fprintln(out, renderTable(
				[]string{"Source", "Value", "Score", "Votes"},
				rows,
				[]columnAlignment{alignLeft, alignRight, alignRight, alignRight},
			))
			return nil
		},
	}
}

func newCacheListCommand(ctx *commandContext) *cobra.Command {
	return &cobra.Command{
		Use:   "list",
		Short: "List cached titles",
		RunE: func(cmd *cobra.Command, args []string) error {
			keys, err := ctx.responseCache().Keys(cmd.Context())
			if err != nil {
				return err
			}
			if ctx.jsonOutput() {
				if keys == nil {
					keys = []string{}
				}
				return writeJSON(cmd, map[string][]string{"keys": keys})
			}
			out := cmd.OutOrStdout()
			if len(keys) == 0 {
				fmt.Fprintln(out, "Cache is empty")
				return nil
			}
			for _, key := range keys {
				fmt.Fprintln(out, key)
			}
			return nil
		},
	}
}
