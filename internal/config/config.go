package config

import (
	_ "embed"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"strings"

	"github.com/pelletier/go-toml/v2"

	"minepost/internal/minerr"
)

//go:embed sample_config.toml
var sampleConfig string

// Input describes the mining result to post-process.
type Input struct {
	Path string `toml:"path"`
	// SamplingFactor converts audio offsets from samples to milliseconds
	// (16 for 16 kHz audio). Zero means offsets are already milliseconds.
	SamplingFactor float64 `toml:"sampling_factor" validate:"gte=0"`
}

// Output describes where kept records are written.
type Output struct {
	Dir      string `toml:"dir"`
	Filename string `toml:"filename" validate:"required"`
}

// Filter contains the per-record thresholds. Both are strict lower bounds.
type Filter struct {
	MinAudioLength float64 `toml:"min_audio_length" validate:"gte=0"`
	MinScore       float64 `toml:"min_score"`
}

// Dedup contains overlap resolution settings.
type Dedup struct {
	MaxOverlap    float64 `toml:"max_overlap" validate:"gte=0,lte=1"`
	OverlapMethod string  `toml:"overlap_method" validate:"oneof=fraction fraction_first iou"`
	Strategy      string  `toml:"strategy" validate:"oneof=greedy weighted"`
	Workers       int     `toml:"workers" validate:"gte=1,lte=256"`
}

// Report contains outlier detection settings.
type Report struct {
	SigmaMultiplier float64 `toml:"sigma_multiplier" validate:"gt=0"`
	OutlierLimit    int     `toml:"outlier_limit" validate:"gte=0"`
}

// History contains configuration for the run history database.
type History struct {
	Enabled bool   `toml:"enabled"`
	Path    string `toml:"path"`
}

// Logging contains configuration for log output.
type Logging struct {
	Format        string `toml:"format" validate:"oneof=console json"`
	Level         string `toml:"level" validate:"oneof=debug info warn error"`
	Dir           string `toml:"dir"`
	RetentionDays int    `toml:"retention_days" validate:"gte=0"`
}

// Config encapsulates all configuration values for minepost.
//
// Configuration sections by subsystem:
//   - Input: mining result path and sampling factor
//   - Output: destination directory and filename
//   - Filter: minimum audio length and score
//   - Dedup: overlap threshold, method, strategy, and worker count
//   - Report: outlier sigma multiplier and listing limit
//   - History: SQLite run history
//   - Logging: log format, level, directory, and retention
type Config struct {
	Input   Input   `toml:"input"`
	Output  Output  `toml:"output"`
	Filter  Filter  `toml:"filter"`
	Dedup   Dedup   `toml:"dedup"`
	Report  Report  `toml:"report"`
	History History `toml:"history"`
	Logging Logging `toml:"logging"`
}

// DefaultConfigPath returns the absolute path to the default configuration file location.
func DefaultConfigPath() (string, error) {
	return expandPath(defaultConfigPath)
}

// Load locates, parses, and validates a configuration file. The returned config has all
// path fields expanded and normalized.
func Load(path string) (*Config, string, bool, error) {
	cfg := Default()

	resolvedPath, exists, err := resolveConfigPath(path)
	if err != nil {
		return nil, "", false, err
	}

	if exists {
		file, err := os.Open(resolvedPath)
		if err != nil {
			return nil, "", false, fmt.Errorf("open config: %w", err)
		}
		defer file.Close()

		decoder := toml.NewDecoder(file)
		decoder.DisallowUnknownFields()
		if err := decoder.Decode(&cfg); err != nil {
			return nil, "", false, fmt.Errorf("%w: parse config %s: %w", minerr.ErrConfiguration, resolvedPath, err)
		}
	}

	if err := cfg.normalize(); err != nil {
		return nil, "", false, err
	}

	if err := cfg.Validate(); err != nil {
		return nil, "", false, fmt.Errorf("%w: %w", minerr.ErrConfiguration, err)
	}

	return &cfg, resolvedPath, exists, nil
}

func resolveConfigPath(path string) (string, bool, error) {
	if path != "" {
		expanded, err := expandPath(path)
		if err != nil {
			return "", false, err
		}
		_, err = os.Stat(expanded)
		if err != nil {
			if errors.Is(err, fs.ErrNotExist) {
				return expanded, false, nil
			}
			return "", false, fmt.Errorf("stat config: %w", err)
		}
		return expanded, true, nil
	}

	defaultPath, err := expandPath(defaultConfigPath)
	if err != nil {
		return "", false, err
	}

	projectPath, err := filepath.Abs("minepost.toml")
	if err != nil {
		return "", false, err
	}

	if info, err := os.Stat(defaultPath); err == nil && !info.IsDir() {
		return defaultPath, true, nil
	}
	if info, err := os.Stat(projectPath); err == nil && !info.IsDir() {
		return projectPath, true, nil
	}

	return defaultPath, false, nil
}

// EnsureDirectories creates the output, log, and history directories.
func (c *Config) EnsureDirectories() error {
	dirs := []string{c.Output.Dir, c.Logging.Dir}
	if c.History.Enabled && strings.TrimSpace(c.History.Path) != "" {
		dirs = append(dirs, filepath.Dir(c.History.Path))
	}
	for _, dir := range dirs {
		if strings.TrimSpace(dir) == "" {
			continue
		}
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create directory %q: %w", dir, err)
		}
	}
	return nil
}

// OutputPath returns the full path of the post-processed file.
func (c *Config) OutputPath() string {
	return filepath.Join(c.Output.Dir, c.Output.Filename)
}

// LogPath returns the path of the run log file, or "" when file logging is off.
func (c *Config) LogPath() string {
	if strings.TrimSpace(c.Logging.Dir) == "" {
		return ""
	}
	return filepath.Join(c.Logging.Dir, "minepost.log")
}

func expandPath(pathValue string) (string, error) {
	if pathValue == "" {
		return pathValue, nil
	}
	if strings.HasPrefix(pathValue, "~") {
		home, err := os.UserHomeDir()
		if err != nil {
			return "", fmt.Errorf("resolve home directory: %w", err)
		}
		if pathValue == "~" {
			pathValue = home
		} else if len(pathValue) > 1 && (pathValue[1] == '/' || pathValue[1] == '\\') {
			pathValue = filepath.Join(home, pathValue[2:])
		}
	}
	cleaned := filepath.Clean(pathValue)
	absolute, err := filepath.Abs(cleaned)
	if err != nil {
		return "", fmt.Errorf("resolve absolute path for %q: %w", cleaned, err)
	}
	return absolute, nil
}

// ExpandPath exposes the repository path expansion rules for other packages.
func ExpandPath(pathValue string) (string, error) {
	return expandPath(pathValue)
}

// CreateSample writes a sample configuration file to the specified location.
func CreateSample(path string) error {
	if dir := filepath.Dir(path); dir != "" {
		if err := os.MkdirAll(dir, 0o755); err != nil {
			return fmt.Errorf("create config directory: %w", err)
		}
	}

	if err := os.WriteFile(path, []byte(sampleConfig), 0o644); err != nil {
		return fmt.Errorf("write sample config: %w", err)
	}
	return nil
}
