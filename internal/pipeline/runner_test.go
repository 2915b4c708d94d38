package pipeline_test

import (
	"context"
	"errors"
	"fmt"
	"os"
	"path/filepath"
	"slices"
	"testing"
	"time"

	"github.com/gofrs/flock"

	"minepost/internal/config"
	"minepost/internal/logging"
	"minepost/internal/minerr"
	"minepost/internal/pipeline"
	"minepost/internal/testsupport"
)

func line(score, text, path string, start, end int) string {
	return fmt.Sprintf("%s\t%s\t%s %d %d", score, text, path, start, end)
}

func runPipeline(t *testing.T, cfg *config.Config, opts ...pipeline.Option) (*pipeline.Result, error) {
	t.Helper()
	return pipeline.New(cfg, logging.NewNop(), opts...).Run(context.Background())
}

func TestRunKeepsHigherScoringOverlap(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithInput("mining.tsv",
			line("0.5", "long sentence", "/audio/a.wav", 0, 20),
			line("0.9", "short sentence", "/audio/a.wav", 5, 10),
			line("0.8", "other sentence", "/audio/a.wav", 12, 18),
		),
		testsupport.WithoutHistory(),
	)

	result, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	want := []string{
		line("0.9", "short sentence", "/audio/a.wav", 5, 10),
		line("0.8", "other sentence", "/audio/a.wav", 12, 18),
	}
	if got := testsupport.ReadLines(t, cfg.OutputPath()); !slices.Equal(got, want) {
		t.Fatalf("unexpected output:\n got %q\nwant %q", got, want)
	}
	if result.KeptLines != 2 || result.PassingLines != 3 || result.TotalLines != 3 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if result.AudioRole != "second" {
		t.Fatalf("expected second item to be audio, got %q", result.AudioRole)
	}
	if result.Summary.Files != 1 || result.Summary.Ratios[0].Ratio != 2.0/3.0 {
		t.Fatalf("unexpected summary: %+v", result.Summary)
	}
	wantHours := 11.0 / 3_600_000
	if diff := result.KeptAudioHours - wantHours; diff > 1e-12 || diff < -1e-12 {
		t.Fatalf("kept audio hours = %v, want %v", result.KeptAudioHours, wantHours)
	}
	if _, err := os.Stat(cfg.OutputPath() + ".lock"); !os.IsNotExist(err) {
		t.Fatalf("expected lock file to be removed, stat err=%v", err)
	}
}

func TestRunFiltersAndKeepsGroupOrder(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithInput("mining.tsv",
			line("1.2", "b one", "/audio/b.wav", 100, 300),
			line("1.0", "too weak", "/audio/a.wav", 0, 500),
			line("1.3", "too short", "/audio/a.wav", 0, 50),
			line("1.5", "a one", "/audio/a.wav", 0, 500),
			line("1.1", "b two", "/audio/b.wav", 0, 200),
		),
		testsupport.WithThresholds(100, 1.05),
		testsupport.WithoutHistory(),
	)

	result, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	// b.wav: [0,200) and [100,300) overlap 0.5 > 0.2, so only the 1.2 record survives.
	want := []string{
		line("1.2", "b one", "/audio/b.wav", 100, 300),
		line("1.5", "a one", "/audio/a.wav", 0, 500),
	}
	if got := testsupport.ReadLines(t, cfg.OutputPath()); !slices.Equal(got, want) {
		t.Fatalf("unexpected output:\n got %q\nwant %q", got, want)
	}
	if result.PassingLines != 3 || result.TotalLines != 5 {
		t.Fatalf("unexpected counters: %+v", result)
	}
	if paths := []string{result.Summary.Ratios[0].Path, result.Summary.Ratios[1].Path}; !slices.Equal(paths, []string{"/audio/b.wav", "/audio/a.wav"}) {
		t.Fatalf("expected first-seen group order, got %v", paths)
	}
}

func TestRunWorkersProduceIdenticalOutput(t *testing.T) {
	var lines []string
	for file := 0; file < 40; file++ {
		path := fmt.Sprintf("/audio/%02d.wav", file)
		for seg := 0; seg < 25; seg++ {
			start := (seg * 37) % 400
			score := fmt.Sprintf("1.%02d", (seg*13+file)%100)
			lines = append(lines, line(score, fmt.Sprintf("text f%d s%d", file, seg), path, start, start+60))
		}
	}

	outputs := make(map[int][]string)
	for _, workers := range []int{1, 4} {
		cfg := testsupport.NewConfig(t,
			testsupport.WithInput("mining.tsv.zst", lines...),
			testsupport.WithDedup(0.2, "fraction", "greedy", workers),
			testsupport.WithOutputFilename("out.tsv.gz"),
			testsupport.WithoutHistory(),
		)
		if _, err := runPipeline(t, cfg); err != nil {
			t.Fatalf("Run with %d workers failed: %v", workers, err)
		}
		outputs[workers] = testsupport.ReadLines(t, cfg.OutputPath())
	}
	if len(outputs[1]) == 0 {
		t.Fatal("expected some kept lines")
	}
	if !slices.Equal(outputs[1], outputs[4]) {
		t.Fatal("worker count changed the output")
	}
}

func TestRunWeightedStrategy(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithInput("mining.tsv",
			line("1", "left", "/audio/a.wav", 0, 10),
			line("1.5", "middle", "/audio/a.wav", 8, 12),
			line("1", "right", "/audio/a.wav", 10, 20),
		),
		testsupport.WithDedup(0.2, "fraction", "weighted", 1),
		testsupport.WithoutHistory(),
	)
	result, err := runPipeline(t, cfg)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if result.KeptLines != 2 {
		t.Fatalf("expected flanking spans to win, kept %d", result.KeptLines)
	}
}

func TestRunEmptyInputLeavesNoOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithInput("mining.tsv", "", "   "))
	store := testsupport.MustOpenHistory(t, cfg)

	_, err := runPipeline(t, cfg, pipeline.WithHistory(store))
	if !errors.Is(err, minerr.ErrEmptyInput) {
		t.Fatalf("expected ErrEmptyInput, got %v", err)
	}
	if _, statErr := os.Stat(cfg.OutputPath()); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err=%v", statErr)
	}

	runs, err := store.ListRuns(context.Background(), 0)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 1 || runs[0].Status != "failed" || runs[0].ErrorMessage == "" {
		t.Fatalf("expected failed run in history, got %+v", runs)
	}
}

func TestRunRoleMismatchAborts(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithInput("mining.tsv",
			line("1", "text", "/audio/a.wav", 0, 10),
			"1\t/audio/b.wav 0 10\ttext only",
		),
		testsupport.WithoutHistory(),
	)
	_, err := runPipeline(t, cfg)
	if !errors.Is(err, minerr.ErrRoleMismatch) {
		t.Fatalf("expected ErrRoleMismatch, got %v", err)
	}
	if got := pipeline.Classify(err); got != "invalid input" {
		t.Fatalf("unexpected classification %q", got)
	}
	if _, statErr := os.Stat(cfg.OutputPath()); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err=%v", statErr)
	}
}

func TestRunRejectsLockedOutput(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithInput("mining.tsv", line("1", "text", "/audio/a.wav", 0, 10)),
		testsupport.WithoutHistory(),
	)
	if err := os.MkdirAll(cfg.Output.Dir, 0o755); err != nil {
		t.Fatal(err)
	}
	lock := flock.New(cfg.OutputPath() + ".lock")
	ok, err := lock.TryLock()
	if err != nil || !ok {
		t.Fatalf("pre-lock failed: %v %v", ok, err)
	}
	defer lock.Unlock()

	_, err = runPipeline(t, cfg)
	if !errors.Is(err, minerr.ErrLocked) {
		t.Fatalf("expected ErrLocked, got %v", err)
	}
}

func TestRunCancelledContext(t *testing.T) {
	cfg := testsupport.NewConfig(t,
		testsupport.WithInput("mining.tsv", line("1", "text", "/audio/a.wav", 0, 10)),
		testsupport.WithoutHistory(),
	)
	ctx, cancel := context.WithCancel(context.Background())
	cancel()

	_, err := pipeline.New(cfg, logging.NewNop()).Run(ctx)
	if !errors.Is(err, context.Canceled) {
		t.Fatalf("expected context.Canceled, got %v", err)
	}
	if _, statErr := os.Stat(cfg.OutputPath()); !os.IsNotExist(statErr) {
		t.Fatalf("expected no output file, stat err=%v", statErr)
	}
}

func TestRunMissingInput(t *testing.T) {
	cfg := testsupport.NewConfig(t, testsupport.WithoutHistory())
	cfg.Input.Path = filepath.Join(t.TempDir(), "missing.tsv")
	if _, err := runPipeline(t, cfg); !errors.Is(err, minerr.ErrIO) {
		t.Fatalf("expected ErrIO, got %v", err)
	}
}

func TestRunRecordsHistory(t *testing.T) {
	var lines []string
	for file := 0; file < 10; file++ {
		path := fmt.Sprintf("/audio/%d.wav", file)
		lines = append(lines,
			line("1.1", "first", path, 0, 100),
			line("1.2", "second", path, 200, 300),
		)
	}
	// One file whose segments all collapse into one.
	for seg := 0; seg < 4; seg++ {
		lines = append(lines, line("1.1", "repeat", "/audio/dup.wav", seg, 100+seg))
	}
	cfg := testsupport.NewConfig(t, testsupport.WithInput("mining.tsv.gz", lines...))
	cfg.Report.SigmaMultiplier = 2
	store := testsupport.MustOpenHistory(t, cfg)
	clock := time.Date(2026, 5, 1, 8, 0, 0, 0, time.UTC)

	result, err := runPipeline(t, cfg,
		pipeline.WithHistory(store),
		pipeline.WithClock(func() time.Time { return clock }),
	)
	if err != nil {
		t.Fatalf("Run failed: %v", err)
	}
	if len(result.Summary.Outliers) != 1 || result.Summary.Outliers[0].Path != "/audio/dup.wav" {
		t.Fatalf("expected dup.wav outlier, got %+v", result.Summary.Outliers)
	}

	run, err := store.GetRun(context.Background(), result.RunID)
	if err != nil || run == nil {
		t.Fatalf("expected run in history: %v", err)
	}
	if run.Status != "completed" || run.KeptLines != 21 || run.Files != 11 || run.OutputBytes <= 0 {
		t.Fatalf("unexpected stored run: %+v", run)
	}
	files, err := store.Files(context.Background(), result.RunID, true)
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}
	if len(files) != 1 || files[0].Path != "/audio/dup.wav" || files[0].Position != 10 {
		t.Fatalf("unexpected outlier rows: %+v", files)
	}
}
