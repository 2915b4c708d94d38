package history

import (
	"fmt"
	"time"
)

// Status represents the terminal state of a recorded run.
type Status string

const (
	StatusCompleted Status = "completed"
	StatusFailed    Status = "failed"
)

// Run is one post-processing invocation.
type Run struct {
	ID               string    `json:"id"`
	Status           Status    `json:"status"`
	InputPath        string    `json:"input_path"`
	OutputPath       string    `json:"output_path,omitempty"`
	StartedAt        time.Time `json:"started_at"`
	FinishedAt       time.Time `json:"finished_at"`
	MinScore         float64   `json:"min_score"`
	MinAudioLength   float64   `json:"min_audio_length"`
	MaxOverlap       float64   `json:"max_overlap"`
	OverlapMethod    string    `json:"overlap_method"`
	Strategy         string    `json:"strategy"`
	AudioRole        string    `json:"audio_role,omitempty"`
	TotalLines       int       `json:"total_lines"`
	PassingLines     int       `json:"passing_lines"`
	KeptLines        int       `json:"kept_lines"`
	Files            int       `json:"files"`
	MeanRatio        float64   `json:"mean_ratio"`
	StdDevRatio      float64   `json:"stddev_ratio"`
	OutlierThreshold float64   `json:"outlier_threshold"`
	KeptAudioHours   float64   `json:"kept_audio_hours"`
	OutputBytes      int64     `json:"output_bytes"`
	ErrorMessage     string    `json:"error_message,omitempty"`
}

// Duration returns how long the run took.
func (r *Run) Duration() time.Duration {
	if r == nil || r.FinishedAt.Before(r.StartedAt) {
		return 0
	}
	return r.FinishedAt.Sub(r.StartedAt)
}

// ShortID returns the first eight characters of the run identifier.
func (r *Run) ShortID() string {
	if r == nil {
		return ""
	}
	if len(r.ID) <= 8 {
		return r.ID
	}
	return r.ID[:8]
}

// File is the retention outcome of one source audio file within a run.
type File struct {
	Position      int     `json:"position"`
	Path          string  `json:"path"`
	StartingLines int     `json:"starting_lines"`
	KeptLines     int     `json:"kept_lines"`
	Ratio         float64 `json:"ratio"`
	Outlier       bool    `json:"outlier"`
}

func (f File) String() string {
	return fmt.Sprintf("%s %d/%d", f.Path, f.KeptLines, f.StartingLines)
}
