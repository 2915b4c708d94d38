package filter

import "minepost/internal/segment"

// Thresholds holds the minimum score and audio length a record must exceed.
type Thresholds struct {
	// MinAudioLength is compared against the audio span length in milliseconds.
	MinAudioLength float64
	MinScore       float64
}

// Passes reports whether rec clears both thresholds. Both comparisons are
// strict: a record exactly at a threshold is rejected.
func (t Thresholds) Passes(rec segment.Record, role segment.Role) bool {
	return rec.Score > t.MinScore && rec.Audio(role).Length > t.MinAudioLength
}
