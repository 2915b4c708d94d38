package dedup

import (
	"fmt"
	"slices"
	"strings"

	"minepost/internal/segment"
)

// Strategy selects the selection algorithm.
type Strategy string

const (
	StrategyGreedy   Strategy = "greedy"
	StrategyWeighted Strategy = "weighted"
)

// ParseStrategy resolves a configured strategy name. Empty means greedy.
func ParseStrategy(value string) (Strategy, error) {
	switch s := Strategy(strings.ToLower(strings.TrimSpace(value))); s {
	case "":
		return StrategyGreedy, nil
	case StrategyGreedy, StrategyWeighted:
		return s, nil
	default:
		return "", fmt.Errorf("unknown dedup strategy %q", value)
	}
}

// Options configures a deduplication pass.
type Options struct {
	// MaxOverlap is the largest admissible overlap between adjacent kept spans.
	// The weighted strategy ignores it.
	MaxOverlap float64
	Method     segment.OverlapMethod
	Strategy   Strategy
}

// RetentionStat records how many records of one file survived.
type RetentionStat struct {
	Path          string
	StartingLines int
	KeptLines     int
}

// Ratio returns KeptLines / StartingLines, or 0 for an empty group.
func (s RetentionStat) Ratio() float64 {
	if s.StartingLines <= 0 {
		return 0
	}
	return float64(s.KeptLines) / float64(s.StartingLines)
}

// Result is the deduplicated content of one group.
type Result struct {
	Kept []segment.Record
	Stat RetentionStat
}

// Group deduplicates the records of one source file. records is not modified.
func Group(path string, records []segment.Record, role segment.Role, opts Options) Result {
	var kept []segment.Record
	switch opts.Strategy {
	case StrategyWeighted:
		kept = Weighted(records, role)
	default:
		kept = Greedy(records, role, opts.MaxOverlap, opts.Method)
	}
	return Result{
		Kept: kept,
		Stat: RetentionStat{Path: path, StartingLines: len(records), KeptLines: len(kept)},
	}
}

// SortByStart returns a copy of records ordered by audio start. Equal starts
// keep their input order.
func SortByStart(records []segment.Record, role segment.Role) []segment.Record {
	sorted := slices.Clone(records)
	slices.SortStableFunc(sorted, func(a, b segment.Record) int {
		sa, sb := a.Audio(role).Start, b.Audio(role).Start
		switch {
		case sa < sb:
			return -1
		case sa > sb:
			return 1
		default:
			return 0
		}
	})
	return sorted
}

// Greedy keeps a subset of records in start order. Each candidate is compared
// with the last kept record only; on an overlap above maxOverlap the
// higher-scoring of the two keeps the slot and ties favour the incumbent.
func Greedy(records []segment.Record, role segment.Role, maxOverlap float64, method segment.OverlapMethod) []segment.Record {
	sorted := SortByStart(records, role)
	kept := make([]segment.Record, 0, len(sorted))
	for _, rec := range sorted {
		if len(kept) == 0 {
			kept = append(kept, rec)
			continue
		}
		last := len(kept) - 1
		if segment.Overlap(kept[last].Audio(role), rec.Audio(role), method) > maxOverlap {
			if kept[last].Score < rec.Score {
				kept[last] = rec
			}
			continue
		}
		kept = append(kept, rec)
	}
	return kept
}
