// Package dedup removes near-duplicate audio spans within one source file.
//
// The default greedy strategy walks the spans in start order and only ever
// compares a candidate with the most recently kept span. When the two overlap
// beyond the configured threshold the higher score wins the slot. Because the
// input is sorted by start, a span that overlaps an earlier kept span but not
// the latest one is contained in that earlier span, so one comparison is
// enough:
//
//	|-AAAAAAAAAAAAA--|
//	|---BBB----------|
//	|----------CCCCCC|
//
// The walk never reconsiders a discarded span. With the ordering below, C
// evicts A, and B, already replaced by A, is lost although B and C are
// compatible:
//
//	time order        score order
//	|-AAAAAAAAAAAA---|  |---------CCCCCCC|
//	|---BBB----------|  |-AAAAAAAAAAAA---|
//	|---------CCCCCCC|  |---BBB----------|
//
// The weighted strategy solves weighted interval scheduling exactly over
// pairwise disjoint spans instead.
package dedup
