// Package report summarizes retention statistics after deduplication.
//
// Summaries are computed from the final per-file stats only and never feed
// back into filtering; they exist to point an investigator at files whose
// retention is abnormally low compared with the rest of the run.
package report
