package preflight

import (
	"context"

	"listingcast/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes all applicable preflight checks for the given config.
// Checks are only run when the corresponding feature is enabled.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Output directory", cfg.Paths.OutputDir),
		CheckDirectoryAccess("State directory", cfg.Paths.StateDir),
		CheckQueueFromConfig(cfg),
	}

	if cfg.Listing.Collector == "scrape" {
		results = append(results, CheckEndpoint(ctx, "Listing lookup", cfg.Listing.LookupURL))
	}

	if cfg.Publish.Backend != "mock" {
		results = append(results, CheckPublishFromConfig(cfg))
	}

	return results
}

// Failed returns the checks that did not pass.
func Failed(results []Result) []Result {
	var failed []Result
	for _, r := range results {
		if !r.Passed {
			failed = append(failed, r)
		}
	}
	return failed
}
