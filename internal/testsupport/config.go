package testsupport

import (
	"path/filepath"
	"testing"

	"minepost/internal/config"
)

// ConfigOption allows callers to customize the generated test configuration.
type ConfigOption func(*configBuilder)

type configBuilder struct {
	t       testing.TB
	baseDir string
	cfg     *config.Config
}

// NewConfig produces a config seeded with unique temp directories per test.
// It defaults common fields and applies any provided options.
func NewConfig(t testing.TB, opts ...ConfigOption) *config.Config {
	t.Helper()

	base := t.TempDir()
	cfgVal := config.Default()
	cfgVal.Input.Path = filepath.Join(base, "input", "mining.tsv")
	cfgVal.Output.Dir = filepath.Join(base, "out")
	cfgVal.Output.Filename = "postprocessed.tsv"
	cfgVal.History.Path = filepath.Join(base, "history", "history.db")
	cfgVal.Logging.Dir = filepath.Join(base, "logs")

	builder := &configBuilder{
		t:       t,
		baseDir: base,
		cfg:     &cfgVal,
	}

	for _, opt := range opts {
		opt(builder)
	}

	return builder.cfg
}

// WithInput writes lines to a mining file inside the temp tree and points the
// config at it. The file name decides the compression.
func WithInput(name string, lines ...string) ConfigOption {
	return func(b *configBuilder) {
		path := filepath.Join(b.baseDir, "input", name)
		WriteMining(b.t, path, lines...)
		b.cfg.Input.Path = path
	}
}

// WithThresholds sets the filter thresholds.
func WithThresholds(minAudioLength, minScore float64) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Filter.MinAudioLength = minAudioLength
		b.cfg.Filter.MinScore = minScore
	}
}

// WithDedup overrides the deduplication settings.
func WithDedup(maxOverlap float64, method, strategy string, workers int) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Dedup.MaxOverlap = maxOverlap
		b.cfg.Dedup.OverlapMethod = method
		b.cfg.Dedup.Strategy = strategy
		b.cfg.Dedup.Workers = workers
	}
}

// WithOutputFilename changes the output file name, and with it the compression.
func WithOutputFilename(name string) ConfigOption {
	return func(b *configBuilder) {
		b.cfg.Output.Filename = name
	}
}

// WithoutHistory disables run history recording.
func WithoutHistory() ConfigOption {
	return func(b *configBuilder) {
		b.cfg.History.Enabled = false
	}
}

// BaseDir returns the root temp directory backing the generated config.
func BaseDir(cfg *config.Config) string {
	return filepath.Dir(cfg.Output.Dir)
}
