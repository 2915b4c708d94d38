package report

import (
	"math"

	"minepost/internal/dedup"
	"minepost/internal/segment"
)

// DefaultSigma is the stddev multiplier used when none is configured.
const DefaultSigma = 3.0

// FileRatio is the retention of one source file.
type FileRatio struct {
	Path          string  `json:"path"`
	StartingLines int     `json:"starting_lines"`
	KeptLines     int     `json:"kept_lines"`
	Ratio         float64 `json:"ratio"`
}

// Summary aggregates retention across every file of a run.
type Summary struct {
	Files         int         `json:"files"`
	StartingLines int         `json:"starting_lines"`
	KeptLines     int         `json:"kept_lines"`
	Mean          float64     `json:"mean"`
	StdDev        float64     `json:"stddev"`
	Sigma         float64     `json:"sigma"`
	Threshold     float64     `json:"threshold"`
	Ratios        []FileRatio `json:"ratios"`
	Outliers      []FileRatio `json:"outliers"`
}

// Summarize computes the mean and population standard deviation of the
// retention ratio and flags files below mean - sigma*stddev. Files keep the
// order of stats. Stats with no starting lines are skipped.
func Summarize(stats []dedup.RetentionStat, sigma float64) Summary {
	summary := Summary{Sigma: sigma, Ratios: []FileRatio{}, Outliers: []FileRatio{}}
	for _, st := range stats {
		if st.StartingLines <= 0 {
			continue
		}
		summary.Ratios = append(summary.Ratios, FileRatio{
			Path:          st.Path,
			StartingLines: st.StartingLines,
			KeptLines:     st.KeptLines,
			Ratio:         st.Ratio(),
		})
		summary.StartingLines += st.StartingLines
		summary.KeptLines += st.KeptLines
	}
	summary.Files = len(summary.Ratios)
	if summary.Files == 0 {
		return summary
	}

	ratios := make([]float64, len(summary.Ratios))
	for i, fr := range summary.Ratios {
		ratios[i] = fr.Ratio
	}
	summary.Mean, summary.StdDev = MeanStdDev(ratios)
	summary.Threshold = summary.Mean - sigma*summary.StdDev

	if summary.StdDev == 0 {
		return summary
	}
	for _, fr := range summary.Ratios {
		if fr.Ratio < summary.Threshold {
			summary.Outliers = append(summary.Outliers, fr)
		}
	}
	return summary
}

// MeanStdDev returns the mean and population standard deviation of values.
func MeanStdDev(values []float64) (mean, stddev float64) {
	if len(values) == 0 {
		return 0, 0
	}
	var sum float64
	for _, v := range values {
		sum += v
	}
	mean = sum / float64(len(values))

	var sq float64
	for _, v := range values {
		d := v - mean
		sq += d * d
	}
	return mean, math.Sqrt(sq / float64(len(values)))
}

// AudioDuration sums the audio length of records in milliseconds.
func AudioDuration(records []segment.Record, role segment.Role) float64 {
	var total float64
	for _, rec := range records {
		total += rec.Audio(role).Length
	}
	return total
}

// Hours converts milliseconds to hours.
func Hours(ms float64) float64 {
	return ms / (1000 * 3600)
}
