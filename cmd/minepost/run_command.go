package main

import (
	"fmt"
	"io"
	"path/filepath"
	"strings"

	"github.com/spf13/cobra"

	"minepost/internal/config"
	"minepost/internal/logging"
	"minepost/internal/minerr"
	"minepost/internal/pipeline"
	"minepost/internal/report"
)

type runFlags struct {
	input          string
	output         string
	samplingFactor float64
	minScore       float64
	minAudioLength float64
	maxOverlap     float64
	overlapMethod  string
	strategy       string
	workers        int
	noHistory      bool
	jsonOutput     bool
}

func newRunCommand(ctx *commandContext) *cobra.Command {
	var flags runFlags

	cmd := &cobra.Command{
		Use:   "run",
		Short: "Filter and deduplicate a mining result",
		Long: `Filter and deduplicate a mining result.

Records whose audio span is not longer than filter.min_audio_length or whose
score is not above filter.min_score are dropped. Remaining records are grouped
by source audio file and overlapping spans are resolved so that no two
neighbouring kept spans overlap by more than dedup.max_overlap.`,
		Args: cobra.NoArgs,
		RunE: func(cmd *cobra.Command, args []string) error {
			cfg, err := ctx.ensureConfig()
			if err != nil {
				return err
			}
			if err := applyRunFlags(cmd, cfg, flags); err != nil {
				return err
			}
			if err := cfg.Validate(); err != nil {
				return fmt.Errorf("%w: %w", minerr.ErrConfiguration, err)
			}

			logger, err := ctx.ensureLogger()
			if err != nil {
				return err
			}

			opts := []pipeline.Option{pipeline.WithProgress(cmd.ErrOrStderr())}
			if !flags.noHistory {
				store, err := ctx.openHistory()
				if err != nil {
					logging.WarnWithContext(logger, "run history unavailable", "history_open_failed",
						logging.Error(err),
						logging.String(logging.FieldErrorHint, "check history.path or pass --no-history"),
						logging.String(logging.FieldImpact, "this run will not be recorded"),
					)
				} else if store != nil {
					defer store.Close()
					opts = append(opts, pipeline.WithHistory(store))
				}
			}

			result, err := pipeline.New(cfg, logger, opts...).Run(cmd.Context())
			if err != nil {
				return err
			}

			if flags.jsonOutput {
				return writeJSON(cmd, result)
			}
			out := cmd.OutOrStdout()
			renderRunResult(out, result, cfg.Report.OutlierLimit, shouldColorize(out))
			return nil
		},
	}

	cmd.Flags().StringVarP(&flags.input, "input", "i", "", "Mining result to process (overrides input.path)")
	cmd.Flags().StringVarP(&flags.output, "output", "o", "", "Output file (overrides output.dir and output.filename)")
	cmd.Flags().Float64Var(&flags.samplingFactor, "sampling-factor", 0, "Divide audio offsets by this factor (16 for 16 kHz samples)")
	cmd.Flags().Float64Var(&flags.minScore, "min-score", 0, "Keep records scoring strictly above this value")
	cmd.Flags().Float64Var(&flags.minAudioLength, "min-audio-length", 0, "Keep records whose audio is strictly longer than this (ms)")
	cmd.Flags().Float64Var(&flags.maxOverlap, "max-overlap", 0, "Largest admissible overlap between neighbouring kept spans (0-1)")
	cmd.Flags().StringVar(&flags.overlapMethod, "overlap-method", "", "Overlap measure: fraction, fraction_first, or iou")
	cmd.Flags().StringVar(&flags.strategy, "strategy", "", "Selection strategy: greedy or weighted")
	cmd.Flags().IntVarP(&flags.workers, "workers", "w", 0, "Number of source files deduplicated concurrently")
	cmd.Flags().BoolVar(&flags.noHistory, "no-history", false, "Do not record this run in the history database")
	cmd.Flags().BoolVar(&flags.jsonOutput, "json", false, "Output as JSON")
	return cmd
}

// applyRunFlags copies explicitly set flags over the loaded configuration.
func applyRunFlags(cmd *cobra.Command, cfg *config.Config, flags runFlags) error {
	changed := cmd.Flags().Changed
	if changed("input") {
		path, err := config.ExpandPath(strings.TrimSpace(flags.input))
		if err != nil {
			return fmt.Errorf("resolve --input: %w", err)
		}
		cfg.Input.Path = path
	}
	if changed("output") {
		path, err := config.ExpandPath(strings.TrimSpace(flags.output))
		if err != nil {
			return fmt.Errorf("resolve --output: %w", err)
		}
		cfg.Output.Dir, cfg.Output.Filename = filepath.Dir(path), filepath.Base(path)
	}
	if changed("sampling-factor") {
		cfg.Input.SamplingFactor = flags.samplingFactor
	}
	if changed("min-score") {
		cfg.Filter.MinScore = flags.minScore
	}
	if changed("min-audio-length") {
		cfg.Filter.MinAudioLength = flags.minAudioLength
	}
	if changed("max-overlap") {
		cfg.Dedup.MaxOverlap = flags.maxOverlap
	}
	if changed("overlap-method") {
		cfg.Dedup.OverlapMethod = strings.ToLower(strings.TrimSpace(flags.overlapMethod))
	}
	if changed("strategy") {
		cfg.Dedup.Strategy = strings.ToLower(strings.TrimSpace(flags.strategy))
	}
	if changed("workers") {
		cfg.Dedup.Workers = flags.workers
	}
	return nil
}

func renderRunResult(out io.Writer, result *pipeline.Result, outlierLimit int, colorize bool) {
	summary := result.Summary
	writeLines(out, renderSectionHeader("Run "+shortID(result.RunID), colorize)...)
	writeLines(out,
		renderField("Input", result.InputPath),
		renderField("Output", fmt.Sprintf("%s (%s)", result.OutputPath, formatBytes(result.OutputBytes))),
		renderField("Audio column", result.AudioRole),
		renderField("Lines", fmt.Sprintf("%s read, %s passing filters, %s kept",
			formatCount(result.TotalLines), formatCount(result.PassingLines), formatCount(result.KeptLines))),
		renderField("Kept audio", formatHours(result.KeptAudioHours)),
		renderField("Files", formatCount(summary.Files)),
		renderField("Retention", fmt.Sprintf("mean %s, stddev %s, threshold %s",
			formatRatio(summary.Mean), formatRatio(summary.StdDev), formatRatio(summary.Threshold))),
		renderField("Elapsed", formatDuration(result.Duration())),
	)

	if len(summary.Outliers) == 0 {
		writeLines(out, renderStatusLine("Outliers", statusOK, "none", colorize))
		return
	}
	writeLines(out, renderStatusLine("Outliers", statusWarn,
		fmt.Sprintf("%d files below %s", len(summary.Outliers), formatRatio(summary.Threshold)), colorize))
	fmt.Fprintln(out, renderOutlierTable(summary.Outliers, outlierLimit))
}

func renderOutlierTable(outliers []report.FileRatio, limit int) string {
	listed := outliers
	if limit >= 0 && len(listed) > limit {
		listed = listed[:limit]
	}
	rows := make([][]string, 0, len(listed))
	for _, fr := range listed {
		rows = append(rows, []string{fr.Path, formatCount(fr.KeptLines), formatCount(fr.StartingLines), formatRatio(fr.Ratio)})
	}
	spec := tableSpec{
		headers: []string{"Path", "Kept", "Starting", "Ratio"},
		rows:    rows,
		aligns:  []columnAlignment{alignLeft, alignRight, alignRight, alignRight},
	}
	if hidden := len(outliers) - len(listed); hidden > 0 {
		spec.footer = []string{fmt.Sprintf("... %d more", hidden)}
	}
	return spec.render()
}

func shortID(id string) string {
	if len(id) <= 8 {
		return id
	}
	return id[:8]
}
