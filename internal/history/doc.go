// Package history persists completed post-processing runs in SQLite.
//
// Each run stores the thresholds it was executed with, its line counters, the
// retention summary, and one row per source file so outliers can be inspected
// long after the log has rotated. The store uses WAL mode and retries
// SQLITE_BUSY so concurrent CLI invocations can read while a run records.
package history
