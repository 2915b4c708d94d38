package dedup

import (
	"slices"
	"sort"

	"minepost/internal/segment"
)

// Weighted selects the pairwise disjoint subset of records with the largest
// total score. Spans that only touch at an endpoint are compatible. The result
// is in start order; on equal totals the subset without the later-ending span
// wins, which keeps the output deterministic.
func Weighted(records []segment.Record, role segment.Role) []segment.Record {
	sorted := SortByStart(records, role)
	n := len(sorted)
	if n == 0 {
		return []segment.Record{}
	}

	// byEnd holds indexes into sorted ordered by span end, ties by start order.
	byEnd := make([]int, n)
	for i := range byEnd {
		byEnd[i] = i
	}
	slices.SortStableFunc(byEnd, func(a, b int) int {
		ea, eb := sorted[a].Audio(role).End(), sorted[b].Audio(role).End()
		switch {
		case ea < eb:
			return -1
		case ea > eb:
			return 1
		default:
			return 0
		}
	})
	ends := make([]float64, n)
	for k, idx := range byEnd {
		ends[k] = sorted[idx].Audio(role).End()
	}

	// pred[k] is the count of spans (in end order) finishing at or before the
	// start of span k; best[k] is the optimum over the first k spans.
	pred := make([]int, n)
	best := make([]float64, n+1)
	take := make([]bool, n)
	for k, idx := range byEnd {
		start := sorted[idx].Audio(role).Start
		pred[k] = sort.Search(k, func(j int) bool { return ends[j] > start })
		with := sorted[idx].Score + best[pred[k]]
		if with > best[k] {
			best[k+1] = with
			take[k] = true
		} else {
			best[k+1] = best[k]
		}
	}

	chosen := make([]int, 0, n)
	for k := n - 1; k >= 0; {
		if take[k] {
			chosen = append(chosen, byEnd[k])
			k = pred[k] - 1
			continue
		}
		k--
	}
	slices.Sort(chosen)

	kept := make([]segment.Record, 0, len(chosen))
	for _, idx := range chosen {
		kept = append(kept, sorted[idx])
	}
	return kept
}
