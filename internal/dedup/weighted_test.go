package dedup_test

import (
	"math/rand"
	"testing"

	"minepost/internal/dedup"
	"minepost/internal/segment"
)

func bruteForceBest(records []segment.Record) float64 {
	best := 0.0
	n := len(records)
	for mask := 0; mask < 1<<n; mask++ {
		total := 0.0
		ok := true
		for i := 0; i < n && ok; i++ {
			if mask&(1<<i) == 0 {
				continue
			}
			total += records[i].Score
			for j := i + 1; j < n; j++ {
				if mask&(1<<j) != 0 && segment.Intersection(records[i].Audio(segment.RoleSecond), records[j].Audio(segment.RoleSecond)) > 0 {
					ok = false
					break
				}
			}
		}
		if ok && total > best {
			best = total
		}
	}
	return best
}

func TestWeightedMatchesBruteForce(t *testing.T) {
	rng := rand.New(rand.NewSource(99))
	for iter := 0; iter < 400; iter++ {
		input := make([]segment.Record, 1+rng.Intn(10))
		for i := range input {
			input[i] = rec(float64(rng.Intn(60)), float64(1+rng.Intn(20)), float64(1+rng.Intn(9)))
		}
		kept := dedup.Weighted(input, segment.RoleSecond)

		total := 0.0
		for i, r := range kept {
			total += r.Score
			if i > 0 {
				prev := kept[i-1].Audio(segment.RoleSecond)
				if prev.Start > r.Audio(segment.RoleSecond).Start {
					t.Fatalf("weighted output not in start order")
				}
			}
			for j := i + 1; j < len(kept); j++ {
				if segment.Intersection(r.Audio(segment.RoleSecond), kept[j].Audio(segment.RoleSecond)) > 0 {
					t.Fatalf("weighted output contains overlapping spans")
				}
			}
		}
		if want := bruteForceBest(input); total != want {
			t.Fatalf("weighted total %v, brute force %v", total, want)
		}
	}
}

func TestWeightedTouchingSpansAreCompatible(t *testing.T) {
	kept := dedup.Weighted([]segment.Record{rec(0, 10, 1), rec(10, 10, 1)}, segment.RoleSecond)
	if len(kept) != 2 {
		t.Fatalf("expected both touching spans, got %d", len(kept))
	}
}

func TestWeightedEmpty(t *testing.T) {
	res := dedup.Group("a.wav", nil, segment.RoleSecond, dedup.Options{Strategy: dedup.StrategyWeighted})
	if len(res.Kept) != 0 || res.Stat.StartingLines != 0 {
		t.Fatalf("unexpected result %+v", res)
	}
}
