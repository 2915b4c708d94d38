package history_test

import (
	"context"
	"path/filepath"
	"testing"
	"time"

	"minepost/internal/history"
	"minepost/internal/testsupport"
)

func sampleRun(id string, started time.Time) *history.Run {
	return &history.Run{
		ID:             id,
		Status:         history.StatusCompleted,
		InputPath:      "/data/mining.tsv.gz",
		OutputPath:     "/data/out/postprocessed.tsv.gz",
		StartedAt:      started,
		FinishedAt:     started.Add(90 * time.Second),
		MinScore:       1.06,
		MinAudioLength: 1000,
		MaxOverlap:     0.2,
		OverlapMethod:  "fraction",
		Strategy:       "greedy",
		AudioRole:      "second",
		TotalLines:     10,
		PassingLines:   8,
		KeptLines:      5,
		Files:          2,
		MeanRatio:      0.625,
		KeptAudioHours: 0.01,
		OutputBytes:    2048,
	}
}

func TestRecordAndGetRun(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	started := time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC)
	run := sampleRun("0f8fad5b-d9cb-469f-a165-70867728950e", started)
	files := []history.File{
		{Path: "/audio/a.wav", StartingLines: 4, KeptLines: 1, Ratio: 0.25, Outlier: true},
		{Path: "/audio/b.wav", StartingLines: 4, KeptLines: 4, Ratio: 1},
	}
	if err := store.RecordRun(ctx, run, files); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}

	got, err := store.GetRun(ctx, run.ID)
	if err != nil {
		t.Fatalf("GetRun failed: %v", err)
	}
	if got == nil {
		t.Fatal("expected run to be found")
	}
	if got.KeptLines != 5 || got.PassingLines != 8 || got.AudioRole != "second" {
		t.Fatalf("unexpected run: %+v", got)
	}
	if !got.StartedAt.Equal(started) {
		t.Fatalf("started_at round trip: got %v want %v", got.StartedAt, started)
	}
	if got.Duration() != 90*time.Second {
		t.Fatalf("unexpected duration %v", got.Duration())
	}

	stored, err := store.Files(ctx, run.ID, false)
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}
	if len(stored) != 2 || stored[0].Path != "/audio/a.wav" || stored[1].Position != 1 {
		t.Fatalf("unexpected files: %+v", stored)
	}
	outliers, err := store.Files(ctx, run.ID, true)
	if err != nil {
		t.Fatalf("Files outliers failed: %v", err)
	}
	if len(outliers) != 1 || !outliers[0].Outlier {
		t.Fatalf("expected one outlier, got %+v", outliers)
	}
}

func TestGetRunByPrefix(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	now := time.Now()

	for _, id := range []string{"abc11111", "abc22222", "def33333"} {
		if err := store.RecordRun(ctx, sampleRun(id, now), nil); err != nil {
			t.Fatalf("RecordRun %s failed: %v", id, err)
		}
	}

	run, err := store.GetRun(ctx, "def")
	if err != nil {
		t.Fatalf("GetRun prefix failed: %v", err)
	}
	if run == nil || run.ID != "def33333" {
		t.Fatalf("expected def33333, got %+v", run)
	}
	if _, err := store.GetRun(ctx, "abc"); err == nil {
		t.Fatal("expected ambiguous prefix error")
	}
	missing, err := store.GetRun(ctx, "zzz")
	if err != nil {
		t.Fatalf("GetRun missing failed: %v", err)
	}
	if missing != nil {
		t.Fatalf("expected nil for missing run, got %+v", missing)
	}
}

func TestListRunsNewestFirst(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()
	base := time.Date(2026, 1, 1, 0, 0, 0, 0, time.UTC)

	ids := []string{"run-a", "run-b", "run-c"}
	for i, id := range ids {
		if err := store.RecordRun(ctx, sampleRun(id, base.Add(time.Duration(i)*time.Hour)), nil); err != nil {
			t.Fatalf("RecordRun failed: %v", err)
		}
	}

	runs, err := store.ListRuns(ctx, 2)
	if err != nil {
		t.Fatalf("ListRuns failed: %v", err)
	}
	if len(runs) != 2 || runs[0].ID != "run-c" || runs[1].ID != "run-b" {
		t.Fatalf("unexpected order: %v", runIDs(runs))
	}

	all, err := store.ListRuns(ctx, 0)
	if err != nil {
		t.Fatalf("ListRuns all failed: %v", err)
	}
	if len(all) != 3 {
		t.Fatalf("expected 3 runs, got %d", len(all))
	}
}

func TestRemoveCascadesFiles(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	run := sampleRun("run-x", time.Now())
	if err := store.RecordRun(ctx, run, []history.File{{Path: "/a.wav", StartingLines: 1, KeptLines: 1, Ratio: 1}}); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	removed, err := store.Remove(ctx, run.ID)
	if err != nil || !removed {
		t.Fatalf("Remove = %v, %v", removed, err)
	}
	files, err := store.Files(ctx, run.ID, false)
	if err != nil {
		t.Fatalf("Files failed: %v", err)
	}
	if len(files) != 0 {
		t.Fatalf("expected file rows to cascade, got %+v", files)
	}
}

func TestRecordRunRejectsDuplicateID(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store := testsupport.MustOpenHistory(t, cfg)
	ctx := context.Background()

	run := sampleRun("dup", time.Now())
	if err := store.RecordRun(ctx, run, nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if err := store.RecordRun(ctx, run, nil); err == nil {
		t.Fatal("expected duplicate id to fail")
	}
	if err := store.RecordRun(ctx, &history.Run{}, nil); err == nil {
		t.Fatal("expected missing id to fail")
	}
}

func TestReopenKeepsSchema(t *testing.T) {
	cfg := testsupport.NewConfig(t)
	store, err := history.Open(cfg)
	if err != nil {
		t.Fatalf("Open failed: %v", err)
	}
	if err := store.RecordRun(context.Background(), sampleRun("keep", time.Now()), nil); err != nil {
		t.Fatalf("RecordRun failed: %v", err)
	}
	if store.Path() != filepath.Clean(cfg.History.Path) {
		t.Fatalf("unexpected path %q", store.Path())
	}
	if err := store.Close(); err != nil {
		t.Fatalf("Close failed: %v", err)
	}

	reopened := testsupport.MustOpenHistory(t, cfg)
	run, err := reopened.GetRun(context.Background(), "keep")
	if err != nil || run == nil {
		t.Fatalf("expected run after reopen, got %v, %v", run, err)
	}
}

func runIDs(runs []*history.Run) []string {
	ids := make([]string, 0, len(runs))
	for _, run := range runs {
		ids = append(ids, run.ID)
	}
	return ids
}
