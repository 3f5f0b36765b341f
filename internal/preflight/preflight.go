package preflight

import (
	"context"
	"path/filepath"

	"sieve/internal/config"
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

	var results []Result

	results = append(results, CheckDirectoryAccess("Content database directory", filepath.Dir(cfg.Paths.ContentDB)))
	results = append(results, CheckContentDB(cfg.Paths.ContentDB))

	if cfg.Paths.LogDir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Paths.LogDir))
	}

	// The lock directory usually matches the database directory.
	lockDir := filepath.Dir(cfg.Paths.LockPath)
	if lockDir != filepath.Dir(cfg.Paths.ContentDB) {
		results = append(results, CheckDirectoryAccess("Lock directory", lockDir))
	}
	results = append(results, CheckApplyLock(ctx, cfg.Paths.LockPath))

	return results
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
