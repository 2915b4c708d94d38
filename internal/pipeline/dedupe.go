package pipeline

import (
	"context"
	"io"
	"log/slog"
	"os"
	"time"

	"github.com/mattn/go-isatty"
	"github.com/schollz/progressbar/v3"
	"golang.org/x/sync/errgroup"

	"minepost/internal/dedup"
	"minepost/internal/filter"
	"minepost/internal/logging"
	"minepost/internal/minerr"
	"minepost/internal/report"
	"minepost/internal/segment"
)

const (
	progressLogInterval = 1000
	// batchPerWorker bounds how many deduplicated groups wait for the writer.
	batchPerWorker = 8
)

type recordSink interface {
	Write(rec segment.Record) error
}

// deduplicate resolves overlaps group by group and streams the kept records
// to sink in group order. It returns the per-file stats and the kept audio in
// milliseconds.
func (r *Runner) deduplicate(
	ctx context.Context,
	logger *slog.Logger,
	loaded *filter.Result,
	opts dedup.Options,
	sink recordSink,
) ([]dedup.RetentionStat, float64, error) {
	workers := max(r.cfg.Dedup.Workers, 1)
	groups := loaded.Groups
	stats := make([]dedup.RetentionStat, 0, len(groups))
	bar := newProgressBar(r.progress, len(groups))
	defer finishProgressBar(bar)

	var keptAudio float64
	batchSize := workers * batchPerWorker
	results := make([]dedup.Result, batchSize)
	done := 0
	for start := 0; start < len(groups); start += batchSize {
		if err := ctx.Err(); err != nil {
			return nil, 0, err
		}
		end := min(start+batchSize, len(groups))
		batch := groups[start:end]
		if err := dedupBatch(ctx, batch, loaded.Role, opts, workers, results); err != nil {
			return nil, 0, err
		}

		for i, group := range batch {
			res := results[i]
			for _, rec := range res.Kept {
				if err := sink.Write(rec); err != nil {
					return nil, 0, minerr.Wrap(minerr.ErrIO, "write", "record", group.Path, err)
				}
			}
			keptAudio += report.AudioDuration(res.Kept, loaded.Role)
			stats = append(stats, res.Stat)
			results[i] = dedup.Result{}
			// The group is no longer needed once written.
			group.Records = nil

			done++
			if bar != nil {
				_ = bar.Add(1)
			}
			if done%progressLogInterval == 0 {
				logger.Info("deduplication progress",
					logging.Int("files_done", done),
					logging.Int("files_total", len(groups)),
					logging.String(logging.FieldEventType, "group_progress"),
				)
			}
		}
	}
	return stats, keptAudio, nil
}

func dedupBatch(
	ctx context.Context,
	batch []*filter.Group,
	role segment.Role,
	opts dedup.Options,
	workers int,
	results []dedup.Result,
) error {
	if workers <= 1 || len(batch) == 1 {
		for i, group := range batch {
			results[i] = dedup.Group(group.Path, group.Records, role, opts)
		}
		return nil
	}

	g, gctx := errgroup.WithContext(ctx)
	g.SetLimit(workers)
	for i, group := range batch {
		g.Go(func() error {
			if err := gctx.Err(); err != nil {
				return err
			}
			results[i] = dedup.Group(group.Path, group.Records, role, opts)
			return nil
		})
	}
	return g.Wait()
}

func newProgressBar(w io.Writer, total int) *progressbar.ProgressBar {
	if w == nil || total == 0 || !isTerminal(w) {
		return nil
	}
	return progressbar.NewOptions(total,
		progressbar.OptionSetWriter(w),
		progressbar.OptionSetDescription("deduplicating"),
		progressbar.OptionSetItsString("files"),
		progressbar.OptionShowCount(),
		progressbar.OptionShowIts(),
		progressbar.OptionThrottle(100*time.Millisecond),
		progressbar.OptionClearOnFinish(),
	)
}

func finishProgressBar(bar *progressbar.ProgressBar) {
	if bar != nil {
		_ = bar.Finish()
	}
}

func isTerminal(w io.Writer) bool {
	f, ok := w.(*os.File)
	if !ok {
		return false
	}
	return isatty.IsTerminal(f.Fd()) || isatty.IsCygwinTerminal(f.Fd())
}
