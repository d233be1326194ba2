package main

import (
	"fmt"
	"net"
	"strings"

	"github.com/spf13/cobra"

	"ratingsync/internal/api"
)

func newServeCommand(ctx *commandContext) *cobra.Command {
	var bind string

	cmd := &cobra.Command{
		Use:   "serve",
		Short: "Serve the read-only lookup API",
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg := ctx.config
			addr := strings.TrimSpace(bind)
			if addr == "" {
				addr = cfg.API.Bind
			}
			tracker := ctx.rateTracker()
			if err := tracker.EnsureLoaded(cmd.Context()); err != nil {
				return err
			}
			svc := api.NewLookupService(ctx.responseCache(), tracker, cfg.CacheTTL())
			handler := api.NewRouter(svc, api.RouterOptions{
				CORSAllowedOrigins: cfg.API.CORSAllowedOrigins,
				RateLimitPerMinute: cfg.API.RateLimitPerMinute,
				Logger:             ctx.log(),
			})
			server := api.NewServer(addr, handler, ctx.log())
			out := cmd.OutOrStdout()
			return server.Serve(cmd.Context(), func(a net.Addr) {
				fmt.Fprintf(out, "Listening on http://%s\n", a)
			})
		},
	}
	cmd.Flags().StringVar(&bind, "bind", "", "Listen address (defaults to api.bind)")
	return cmd
}
