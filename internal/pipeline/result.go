package pipeline

import (
	"time"

	"minepost/internal/report"
	"minepost/internal/segment"
)

// Result describes a completed run.
type Result struct {
	RunID          string         `json:"run_id"`
	InputPath      string         `json:"input_path"`
	OutputPath     string         `json:"output_path"`
	AudioRole      string         `json:"audio_role"`
	TotalLines     int            `json:"total_lines"`
	PassingLines   int            `json:"passing_lines"`
	KeptLines      int            `json:"kept_lines"`
	KeptAudioHours float64        `json:"kept_audio_hours"`
	OutputBytes    int64          `json:"output_bytes"`
	StartedAt      time.Time      `json:"started_at"`
	FinishedAt     time.Time      `json:"finished_at"`
	Summary        report.Summary `json:"summary"`

	role segment.Role
}

// Role returns the audio role detected from the first record.
func (r *Result) Role() segment.Role {
	return r.role
}

// Duration returns the wall time of the run.
func (r *Result) Duration() time.Duration {
	return r.FinishedAt.Sub(r.StartedAt)
}
