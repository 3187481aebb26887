package preflight

import (
	"context"
	"strings"

	"folio/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check that applies to cfg.
func RunAll(ctx context.Context, cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	results := []Result{
		CheckDirectoryAccess("Data directory", cfg.Paths.DataDir),
		CheckDirectoryAccess("Log directory", cfg.Paths.LogDir),
		CheckDirectoryAccess("Cover directory", cfg.Paths.CoverDir),
	}

	// Bundled comics are only ever read.
	if strings.TrimSpace(cfg.Paths.BundledDir) != "" {
		results = append(results, CheckReadableDirectory("Bundled directory", cfg.Paths.BundledDir))
	}

	results = append(results,
		CheckAccessSecret(cfg.Access.SecretPath),
		CheckLibrary(cfg),
		CheckViewerAPI(ctx, cfg),
	)
	return results
}

// Failed reports whether any result did not pass.
func Failed(results []Result) bool {
	for _, r := range results {
		if !r.Passed {
			return true
		}
	}
	return false
}
