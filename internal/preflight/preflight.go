package preflight

import (
	"context"

	"ratingsync/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every preflight check for the given config.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}
	return []Result{
		CheckAPIKey(cfg.Provider.APIKey),
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Cache directory", cfg.Paths.CacheDir),
		CheckFreeSpace("Data directory space", cfg.Paths.DataDir, MinFreeBytes),
		CheckProvider(ctx, cfg.Provider.BaseURL),
	}
}

// Failed returns the results that did not pass.
func Failed(results []Result) []Result {
	var out []Result
	for _, r := range results {
		if !r.Passed {
			out = append(out, r)
		}
	}
	return out
}
