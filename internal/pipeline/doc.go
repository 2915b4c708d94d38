// Package pipeline runs one post-processing pass over a mining result.
//
// A run acquires an exclusive lock on the output path, checks the input and
// output locations, streams the input through the threshold filter, then
// deduplicates each source file in first-seen order and writes the kept
// records to a temporary file that is renamed into place only when the whole
// pass succeeds. Retention statistics, outliers, and the kept audio duration
// are logged at the end and recorded in the run history when a store is
// attached.
//
// Deduplication can fan out over a bounded worker pool; output order never
// depends on the worker count.
package pipeline
