package main

import (
	"fmt"
	"io"
	"strings"
	"testing"

	"minepost/internal/preflight"
	"minepost/internal/report"
)

func TestRenderStatusLineNoColor(t *testing.T) {
	got := renderStatusLine("Outliers", statusWarn, "3 files", false)
	want := fmt.Sprintf("%s%-*s %s", statusIndent, statusLabelWidth, "Outliers:", "[WARN] 3 files")
	if got != want {
		t.Fatalf("renderStatusLine mismatch\n got: %q\nwant: %q", got, want)
	}
}

func TestRenderStatusLineWithColor(t *testing.T) {
	got := renderStatusLine("Outliers", statusOK, "none", true)
	if !strings.HasPrefix(got, ansiGreen) {
		t.Fatalf("expected green prefix, got %q", got)
	}
	if !strings.HasSuffix(got, ansiReset) {
		t.Fatalf("expected reset suffix, got %q", got)
	}
}

func TestPreflightLines(t *testing.T) {
	results := []preflight.Result{
		{Name: "Input file", Passed: true, Detail: "/data/in.tsv (1.0 kB)"},
		{Name: "Output directory", Passed: false, Detail: "/out (error: does not exist)"},
	}
	lines := preflightLines(results, false)
	if len(lines) != 3 {
		t.Fatalf("expected 3 lines, got %d", len(lines))
	}
	if !strings.Contains(lines[0], "[OK] /data/in.tsv") {
		t.Fatalf("unexpected first line %q", lines[0])
	}
	if !strings.Contains(lines[1], "[ERROR] /out") {
		t.Fatalf("unexpected second line %q", lines[1])
	}
	if !strings.Contains(lines[2], "1 of 2 checks failed") {
		t.Fatalf("unexpected summary %q", lines[2])
	}
}

func TestRenderOutlierTableTruncates(t *testing.T) {
	outliers := []report.FileRatio{
		{Path: "/a.wav", StartingLines: 1000, KeptLines: 10, Ratio: 0.01},
		{Path: "/b.wav", StartingLines: 10, KeptLines: 1, Ratio: 0.1},
		{Path: "/c.wav", StartingLines: 10, KeptLines: 2, Ratio: 0.2},
	}
	table := renderOutlierTable(outliers, 2)
	if !strings.Contains(table, "1,000") {
		t.Fatalf("expected thousands separator in %s", table)
	}
	if strings.Contains(table, "/c.wav") || !strings.Contains(table, "... 1 more") {
		t.Fatalf("expected truncation marker in %s", table)
	}
}

func TestFormatCount(t *testing.T) {
	if got := formatCount(1234567); got != "1,234,567" {
		t.Fatalf("formatCount = %q", got)
	}
}

func TestShouldColorizeNonFile(t *testing.T) {
	if shouldColorize(io.Discard) {
		t.Fatalf("expected non-file writer to disable color")
	}
}
