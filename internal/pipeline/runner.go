package pipeline

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"
	"strings"
	"time"

	"github.com/dustin/go-humanize"
	"github.com/gofrs/flock"
	"github.com/google/uuid"

	"minepost/internal/config"
	"minepost/internal/dedup"
	"minepost/internal/filter"
	"minepost/internal/history"
	"minepost/internal/logging"
	"minepost/internal/minerr"
	"minepost/internal/mining"
	"minepost/internal/preflight"
	"minepost/internal/report"
	"minepost/internal/segment"
)

// Runner executes post-processing runs for one configuration.
type Runner struct {
	cfg      *config.Config
	logger   *slog.Logger
	history  *history.Store
	progress io.Writer
	now      func() time.Time
	newID    func() string
}

// Option customizes a Runner.
type Option func(*Runner)

// WithHistory records every run in store.
func WithHistory(store *history.Store) Option {
	return func(r *Runner) {
		r.history = store
	}
}

// WithProgress renders a progress bar on w when it is a terminal.
func WithProgress(w io.Writer) Option {
	return func(r *Runner) {
		r.progress = w
	}
}

// WithClock overrides the time source.
func WithClock(now func() time.Time) Option {
	return func(r *Runner) {
		if now != nil {
			r.now = now
		}
	}
}

// New constructs a Runner. cfg must already be validated.
func New(cfg *config.Config, logger *slog.Logger, opts ...Option) *Runner {
	r := &Runner{
		cfg:    cfg,
		logger: logging.NewComponentLogger(logger, "pipeline"),
		now:    time.Now,
		newID:  uuid.NewString,
	}
	for _, opt := range opts {
		opt(r)
	}
	return r
}

// Run executes a full filter, deduplicate, and write pass.
func (r *Runner) Run(ctx context.Context) (*Result, error) {
	if ctx == nil {
		ctx = context.Background()
	}
	runID := r.newID()
	ctx = logging.WithRunID(ctx, runID)
	logger := logging.WithContext(ctx, r.logger)

	result := &Result{
		RunID:      runID,
		InputPath:  r.cfg.Input.Path,
		OutputPath: r.cfg.OutputPath(),
		StartedAt:  r.now(),
	}

	err := r.run(ctx, logger, result)
	result.FinishedAt = r.now()
	r.recordHistory(ctx, logger, result, err)
	if err != nil {
		logging.ErrorWithContext(logger, "run failed", "run_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, minerr.Hint(err)),
		)
		return nil, err
	}
	return result, nil
}

func (r *Runner) run(ctx context.Context, logger *slog.Logger, result *Result) error {
	opts, err := r.dedupOptions()
	if err != nil {
		return err
	}
	if strings.TrimSpace(r.cfg.Input.Path) == "" {
		return minerr.Wrap(minerr.ErrConfiguration, "run", "input", "input.path is not set", nil)
	}
	if check := preflight.CheckInputFile("input", r.cfg.Input.Path); !check.Passed {
		return minerr.Wrap(minerr.ErrIO, "preflight", "input", check.Detail, nil)
	}
	if err := os.MkdirAll(r.cfg.Output.Dir, 0o755); err != nil {
		return minerr.Wrap(minerr.ErrIO, "preflight", "output dir", r.cfg.Output.Dir, err)
	}
	if check := preflight.CheckDirectoryAccess("output", r.cfg.Output.Dir); !check.Passed {
		return minerr.Wrap(minerr.ErrIO, "preflight", "output dir", check.Detail, nil)
	}
	if check := preflight.CheckFreeSpaceFor("output space", r.cfg.Output.Dir, r.cfg.Input.Path); !check.Passed {
		logging.WarnWithContext(logger, "output filesystem may run out of space", "free_space_low",
			logging.String("detail", check.Detail),
			logging.String(logging.FieldErrorHint, "free space on the output filesystem or choose another output.dir"),
			logging.String(logging.FieldImpact, "the run may fail while writing and leave no output"),
		)
	}

	unlock, err := lockOutput(result.OutputPath)
	if err != nil {
		return err
	}
	defer unlock()

	logger.Info("run started",
		logging.String("input", result.InputPath),
		logging.String("output", result.OutputPath),
		logging.Float64("min_score", r.cfg.Filter.MinScore),
		logging.Float64("min_audio_length", r.cfg.Filter.MinAudioLength),
		logging.Float64("max_overlap", opts.MaxOverlap),
		logging.String("overlap_method", string(opts.Method)),
		logging.String("strategy", string(opts.Strategy)),
		logging.Int("workers", r.cfg.Dedup.Workers),
		logging.String(logging.FieldEventType, "run_started"),
	)

	reader, err := mining.Open(r.cfg.Input.Path, r.cfg.Input.SamplingFactor)
	if err != nil {
		return err
	}
	loaded, err := filter.Load(ctx, reader, filter.Thresholds{
		MinAudioLength: r.cfg.Filter.MinAudioLength,
		MinScore:       r.cfg.Filter.MinScore,
	}, logger)
	if closeErr := reader.Close(); err == nil && closeErr != nil {
		err = minerr.Wrap(minerr.ErrIO, "read", "close", r.cfg.Input.Path, closeErr)
	}
	if err != nil {
		return err
	}
	result.role = loaded.Role
	result.AudioRole = loaded.Role.String()
	result.TotalLines = loaded.TotalLines
	result.PassingLines = loaded.PassingLines

	writer, err := mining.Create(result.OutputPath)
	if err != nil {
		return err
	}
	committed := false
	defer func() {
		if !committed {
			_ = writer.Abort()
		}
	}()

	stats, keptAudio, err := r.deduplicate(ctx, logger, loaded, opts, writer)
	if err != nil {
		return err
	}
	if err := writer.Commit(); err != nil {
		return err
	}
	committed = true

	result.KeptLines = writer.Count()
	result.KeptAudioHours = report.Hours(keptAudio)
	if info, statErr := os.Stat(result.OutputPath); statErr == nil {
		result.OutputBytes = info.Size()
	}
	result.Summary = report.Summarize(stats, r.cfg.Report.SigmaMultiplier)

	r.logSummary(logger, result)
	return nil
}

func (r *Runner) dedupOptions() (dedup.Options, error) {
	method, err := segment.ParseOverlapMethod(r.cfg.Dedup.OverlapMethod)
	if err != nil {
		return dedup.Options{}, minerr.Wrap(minerr.ErrConfiguration, "run", "overlap method", "", err)
	}
	strategy, err := dedup.ParseStrategy(r.cfg.Dedup.Strategy)
	if err != nil {
		return dedup.Options{}, minerr.Wrap(minerr.ErrConfiguration, "run", "strategy", "", err)
	}
	return dedup.Options{
		MaxOverlap: r.cfg.Dedup.MaxOverlap,
		Method:     method,
		Strategy:   strategy,
	}, nil
}

// lockOutput takes an exclusive lock next to the output so two runs never
// race on the same rename target.
func lockOutput(outputPath string) (func(), error) {
	lockPath := outputPath + ".lock"
	lock := flock.New(lockPath)
	ok, err := lock.TryLock()
	if err != nil {
		return nil, minerr.Wrap(minerr.ErrIO, "run", "lock", lockPath, err)
	}
	if !ok {
		return nil, minerr.Wrap(minerr.ErrLocked, "run", "lock", lockPath, nil)
	}
	return func() {
		_ = lock.Unlock()
		_ = os.Remove(lockPath)
	}, nil
}

func (r *Runner) logSummary(logger *slog.Logger, result *Result) {
	summary := result.Summary
	logger.Info("retention ratio",
		logging.Float64("mean", summary.Mean),
		logging.Float64("stddev", summary.StdDev),
		logging.Float64("threshold", summary.Threshold),
		logging.Int("files", summary.Files),
		logging.String(logging.FieldEventType, "retention_summary"),
	)

	if n := len(summary.Outliers); n > 0 {
		limit := r.cfg.Report.OutlierLimit
		listed := summary.Outliers
		if limit >= 0 && len(listed) > limit {
			listed = listed[:limit]
		}
		paths := make([]string, 0, len(listed))
		for _, fr := range listed {
			paths = append(paths, fmt.Sprintf("%s (%d/%d)", fr.Path, fr.KeptLines, fr.StartingLines))
		}
		logging.WarnWithContext(logger, "files with abnormally low retention ratio", "retention_outliers",
			logging.Int("outliers", n),
			logging.Float64("sigma", summary.Sigma),
			logging.String("paths", strings.Join(paths, ", ")),
			logging.String(logging.FieldErrorHint, "inspect these files for repeated or misaligned segments"),
			logging.String(logging.FieldImpact, "their kept pairs may be low quality"),
		)
	}

	logger.Info("kept audio",
		logging.Float64("hours", result.KeptAudioHours),
		logging.String(logging.FieldEventType, "kept_audio"),
	)
	logger.Info(fmt.Sprintf("saved %d lines, starting with %d", result.KeptLines, result.PassingLines),
		logging.Int("kept_lines", result.KeptLines),
		logging.Int("starting_lines", result.PassingLines),
		logging.String("output", result.OutputPath),
		logging.String("size", humanize.Bytes(uint64(max(result.OutputBytes, 0)))),
		logging.Duration("elapsed", r.now().Sub(result.StartedAt)),
		logging.String(logging.FieldEventType, "run_complete"),
	)
}

func (r *Runner) recordHistory(ctx context.Context, logger *slog.Logger, result *Result, runErr error) {
	if r.history == nil {
		return
	}
	run := &history.Run{
		ID:               result.RunID,
		Status:           history.StatusCompleted,
		InputPath:        result.InputPath,
		OutputPath:       result.OutputPath,
		StartedAt:        result.StartedAt,
		FinishedAt:       result.FinishedAt,
		MinScore:         r.cfg.Filter.MinScore,
		MinAudioLength:   r.cfg.Filter.MinAudioLength,
		MaxOverlap:       r.cfg.Dedup.MaxOverlap,
		OverlapMethod:    r.cfg.Dedup.OverlapMethod,
		Strategy:         r.cfg.Dedup.Strategy,
		AudioRole:        result.AudioRole,
		TotalLines:       result.TotalLines,
		PassingLines:     result.PassingLines,
		KeptLines:        result.KeptLines,
		Files:            result.Summary.Files,
		MeanRatio:        result.Summary.Mean,
		StdDevRatio:      result.Summary.StdDev,
		OutlierThreshold: result.Summary.Threshold,
		KeptAudioHours:   result.KeptAudioHours,
		OutputBytes:      result.OutputBytes,
	}
	var files []history.File
	if runErr != nil {
		run.Status = history.StatusFailed
		run.ErrorMessage = runErr.Error()
		run.OutputPath = ""
	} else {
		files = historyFiles(result.Summary)
	}

	// A cancelled run is still recorded.
	recordCtx := context.WithoutCancel(ctx)
	if err := r.history.RecordRun(recordCtx, run, files); err != nil {
		logging.WarnWithContext(logger, "run history not recorded", "history_record_failed",
			logging.Error(err),
			logging.String(logging.FieldErrorHint, "check history.path permissions or disable history"),
			logging.String(logging.FieldImpact, "this run will not appear in 'minepost history list'"),
		)
	}
}

func historyFiles(summary report.Summary) []history.File {
	outliers := make(map[string]struct{}, len(summary.Outliers))
	for _, fr := range summary.Outliers {
		outliers[fr.Path] = struct{}{}
	}
	files := make([]history.File, 0, len(summary.Ratios))
	for i, fr := range summary.Ratios {
		_, outlier := outliers[fr.Path]
		files = append(files, history.File{
			Position:      i,
			Path:          fr.Path,
			StartingLines: fr.StartingLines,
			KeptLines:     fr.KeptLines,
			Ratio:         fr.Ratio,
			Outlier:       outlier,
		})
	}
	return files
}

// Classify maps a run error to a short label for CLI output.
func Classify(err error) string {
	switch {
	case err == nil:
		return "ok"
	case errors.Is(err, context.Canceled), errors.Is(err, context.DeadlineExceeded):
		return "cancelled"
	case errors.Is(err, minerr.ErrLocked):
		return "locked"
	case errors.Is(err, minerr.ErrConfiguration):
		return "configuration"
	case errors.Is(err, minerr.ErrEmptyInput):
		return "empty input"
	case errors.Is(err, minerr.ErrNoAudio), errors.Is(err, minerr.ErrRoleMismatch), errors.Is(err, minerr.ErrDecode):
		return "invalid input"
	default:
		return "io"
	}
}
