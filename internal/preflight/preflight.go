package preflight

import (
	"minepost/internal/config"
)

// Result reports the outcome of a single preflight check.
type Result struct {
	Name   string
	Passed bool
	Detail string
}

// RunAll executes every check applicable to cfg. Checks for unset paths are
// skipped.
func RunAll(cfg *config.Config) []Result {
	if cfg == nil {
		return nil
	}

	var results []Result
	if cfg.Input.Path != "" {
		results = append(results, CheckInputFile("Input file", cfg.Input.Path))
	}
	results = append(results, CheckDirectoryAccess("Output directory", cfg.Output.Dir))
	if cfg.Input.Path != "" {
		results = append(results, CheckFreeSpaceFor("Output free space", cfg.Output.Dir, cfg.Input.Path))
	}
	if cfg.Logging.Dir != "" {
		results = append(results, CheckDirectoryAccess("Log directory", cfg.Logging.Dir))
	}
	return results
}
