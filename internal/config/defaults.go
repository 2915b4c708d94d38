package config

const (
	defaultConfigPath      = "~/.config/minepost/config.toml"
	defaultOutputDir       = "~/.local/share/minepost/out"
	defaultOutputFilename  = "postprocessed.tsv.gz"
	defaultMaxOverlap      = 0.2
	defaultOverlapMethod   = "fraction"
	defaultStrategy        = "greedy"
	defaultWorkers         = 1
	defaultSigmaMultiplier = 3.0
	defaultOutlierLimit    = 50
	defaultHistoryPath     = "~/.local/share/minepost/history.db"
	defaultLogDir          = "~/.local/share/minepost/logs"
	defaultLogFormat       = "console"
	defaultLogLevel        = "info"
	defaultLogRetention    = 30
)

// Default returns a Config populated with repository defaults.
func Default() Config {
	return Config{
		Output: Output{
			Dir:      defaultOutputDir,
			Filename: defaultOutputFilename,
		},
		Dedup: Dedup{
			MaxOverlap:    defaultMaxOverlap,
			OverlapMethod: defaultOverlapMethod,
			Strategy:      defaultStrategy,
			Workers:       defaultWorkers,
		},
		Report: Report{
			SigmaMultiplier: defaultSigmaMultiplier,
			OutlierLimit:    defaultOutlierLimit,
		},
		History: History{
			Enabled: true,
			Path:    defaultHistoryPath,
		},
		Logging: Logging{
			Format:        defaultLogFormat,
			Level:         defaultLogLevel,
			Dir:           defaultLogDir,
			RetentionDays: defaultLogRetention,
		},
	}
}
