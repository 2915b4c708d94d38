package config

import (
	"fmt"
	"os"
	"strings"
)

func (c *Config) normalize() error {
	if err := c.normalizeInput(); err != nil {
		return err
	}
	if err := c.normalizeOutput(); err != nil {
		return err
	}
	c.normalizeDedup()
	c.normalizeReport()
	if err := c.normalizeHistory(); err != nil {
		return err
	}
	return c.normalizeLogging()
}

func (c *Config) normalizeInput() error {
	if strings.TrimSpace(c.Input.Path) == "" {
		if value, ok := os.LookupEnv("MINEPOST_INPUT"); ok {
			c.Input.Path = strings.TrimSpace(value)
		}
	}
	var err error
	if c.Input.Path, err = expandPath(strings.TrimSpace(c.Input.Path)); err != nil {
		return fmt.Errorf("input.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeOutput() error {
	if strings.TrimSpace(c.Output.Dir) == "" {
		c.Output.Dir = defaultOutputDir
	}
	var err error
	if c.Output.Dir, err = expandPath(c.Output.Dir); err != nil {
		return fmt.Errorf("output.dir: %w", err)
	}
	c.Output.Filename = strings.TrimSpace(c.Output.Filename)
	return nil
}

func (c *Config) normalizeDedup() {
	c.Dedup.OverlapMethod = strings.ToLower(strings.TrimSpace(c.Dedup.OverlapMethod))
	if c.Dedup.OverlapMethod == "" {
		c.Dedup.OverlapMethod = defaultOverlapMethod
	}
	c.Dedup.Strategy = strings.ToLower(strings.TrimSpace(c.Dedup.Strategy))
	if c.Dedup.Strategy == "" {
		c.Dedup.Strategy = defaultStrategy
	}
	if c.Dedup.Workers == 0 {
		c.Dedup.Workers = defaultWorkers
	}
}

func (c *Config) normalizeReport() {
	if c.Report.SigmaMultiplier == 0 {
		c.Report.SigmaMultiplier = defaultSigmaMultiplier
	}
}

func (c *Config) normalizeHistory() error {
	if strings.TrimSpace(c.History.Path) == "" {
		c.History.Path = defaultHistoryPath
	}
	var err error
	if c.History.Path, err = expandPath(c.History.Path); err != nil {
		return fmt.Errorf("history.path: %w", err)
	}
	return nil
}

func (c *Config) normalizeLogging() error {
	c.Logging.Format = strings.ToLower(strings.TrimSpace(c.Logging.Format))
	switch c.Logging.Format {
	case "", "console":
		c.Logging.Format = "console"
	case "json":
	default:
		c.Logging.Format = "console"
	}
	if value, ok := os.LookupEnv("MINEPOST_LOG_LEVEL"); ok && strings.TrimSpace(value) != "" {
		c.Logging.Level = value
	}
	c.Logging.Level = strings.ToLower(strings.TrimSpace(c.Logging.Level))
	if c.Logging.Level == "" {
		c.Logging.Level = defaultLogLevel
	}
	if c.Logging.RetentionDays < 0 {
		c.Logging.RetentionDays = 0
	}
	var err error
	if c.Logging.Dir, err = expandPath(strings.TrimSpace(c.Logging.Dir)); err != nil {
		return fmt.Errorf("logging.dir: %w", err)
	}
	return nil
}
