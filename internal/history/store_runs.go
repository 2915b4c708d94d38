package history

import (
	"context"
	"database/sql"
	"errors"
	"fmt"
	"strings"
	"time"
)

// timeLayout is fixed width so started_at sorts lexically.
const timeLayout = "2006-01-02T15:04:05.000000000Z07:00"

const runColumns = "id, status, input_path, output_path, started_at, finished_at, min_score, min_audio_length, max_overlap, overlap_method, strategy, audio_role, total_lines, passing_lines, kept_lines, files, mean_ratio, stddev_ratio, outlier_threshold, kept_audio_hours, output_bytes, error_message"

// RecordRun stores a run and its per-file retention rows in one transaction.
func (s *Store) RecordRun(ctx context.Context, run *Run, files []File) error {
	if run == nil {
		return errors.New("run is nil")
	}
	if strings.TrimSpace(run.ID) == "" {
		return errors.New("run id is required")
	}
	ctx = ensureContext(ctx)
	return retryOnBusy(ctx, func() error {
		return s.recordRunTx(ctx, run, files)
	})
}

func (s *Store) recordRunTx(ctx context.Context, run *Run, files []File) error {
	tx, err := s.db.BeginTx(ctx, nil)
	if err != nil {
		return fmt.Errorf("begin record tx: %w", err)
	}
	defer func() { _ = tx.Rollback() }()

	if _, err := tx.ExecContext(ctx,
		`INSERT INTO runs (`+runColumns+`)
         VALUES (?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?, ?)`,
		run.ID,
		string(run.Status),
		run.InputPath,
		nullableString(run.OutputPath),
		formatTime(run.StartedAt),
		formatTime(run.FinishedAt),
		run.MinScore,
		run.MinAudioLength,
		run.MaxOverlap,
		run.OverlapMethod,
		run.Strategy,
		nullableString(run.AudioRole),
		run.TotalLines,
		run.PassingLines,
		run.KeptLines,
		run.Files,
		run.MeanRatio,
		run.StdDevRatio,
		run.OutlierThreshold,
		run.KeptAudioHours,
		run.OutputBytes,
		nullableString(run.ErrorMessage),
	); err != nil {
		return fmt.Errorf("insert run: %w", err)
	}

	if len(files) > 0 {
		stmt, err := tx.PrepareContext(ctx,
			`INSERT INTO run_files (run_id, position, path, starting_lines, kept_lines, ratio, outlier)
             VALUES (?, ?, ?, ?, ?, ?, ?)`)
		if err != nil {
			return fmt.Errorf("prepare run_files insert: %w", err)
		}
		defer stmt.Close()
		for i, file := range files {
			if _, err := stmt.ExecContext(ctx,
				run.ID, i, file.Path, file.StartingLines, file.KeptLines, file.Ratio, boolToInt(file.Outlier),
			); err != nil {
				return fmt.Errorf("insert run file %q: %w", file.Path, err)
			}
		}
	}

	if err := tx.Commit(); err != nil {
		return fmt.Errorf("commit run: %w", err)
	}
	return nil
}

// GetRun fetches a run by its identifier or unique identifier prefix. It
// returns nil when no run matches.
func (s *Store) GetRun(ctx context.Context, id string) (*Run, error) {
	ctx = ensureContext(ctx)
	id = strings.TrimSpace(id)
	if id == "" {
		return nil, errors.New("run id is required")
	}
	rows, err := s.db.QueryContext(ctx,
		`SELECT `+runColumns+` FROM runs WHERE id = ? OR id LIKE ? ORDER BY id LIMIT 2`,
		id, stripLikeWildcards(id)+"%")
	if err != nil {
		return nil, fmt.Errorf("get run: %w", err)
	}
	defer rows.Close()

	var matches []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		if run.ID == id {
			return run, nil
		}
		matches = append(matches, run)
	}
	if err := rows.Err(); err != nil {
		return nil, fmt.Errorf("iterate runs: %w", err)
	}
	switch len(matches) {
	case 0:
		return nil, nil
	case 1:
		return matches[0], nil
	default:
		return nil, fmt.Errorf("run id prefix %q is ambiguous", id)
	}
}

// ListRuns returns the most recent runs, newest first. A limit <= 0 returns all runs.
func (s *Store) ListRuns(ctx context.Context, limit int) ([]*Run, error) {
	ctx = ensureContext(ctx)
	query := `SELECT ` + runColumns + ` FROM runs ORDER BY started_at DESC, id`
	args := []any{}
	if limit > 0 {
		query += ` LIMIT ?`
		args = append(args, limit)
	}
	rows, err := s.db.QueryContext(ctx, query, args...)
	if err != nil {
		return nil, fmt.Errorf("list runs: %w", err)
	}
	defer rows.Close()

	var runs []*Run
	for rows.Next() {
		run, err := scanRun(rows)
		if err != nil {
			return nil, fmt.Errorf("scan run: %w", err)
		}
		runs = append(runs, run)
	}
	return runs, rows.Err()
}

// Files returns the per-file rows of a run in observation order.
func (s *Store) Files(ctx context.Context, runID string, outliersOnly bool) ([]File, error) {
	ctx = ensureContext(ctx)
	query := `SELECT position, path, starting_lines, kept_lines, ratio, outlier FROM run_files WHERE run_id = ?`
	if outliersOnly {
		query += ` AND outlier = 1`
	}
	query += ` ORDER BY position`
	rows, err := s.db.QueryContext(ctx, query, runID)
	if err != nil {
		return nil, fmt.Errorf("list run files: %w", err)
	}
	defer rows.Close()

	var files []File
	for rows.Next() {
		var (
			file    File
			outlier int
		)
		if err := rows.Scan(&file.Position, &file.Path, &file.StartingLines, &file.KeptLines, &file.Ratio, &outlier); err != nil {
			return nil, fmt.Errorf("scan run file: %w", err)
		}
		file.Outlier = outlier != 0
		files = append(files, file)
	}
	return files, rows.Err()
}

// Remove deletes a run and its file rows.
func (s *Store) Remove(ctx context.Context, runID string) (bool, error) {
	ctx = ensureContext(ctx)
	var res sql.Result
	err := retryOnBusy(ctx, func() error {
		var execErr error
		res, execErr = s.db.ExecContext(ctx, `DELETE FROM runs WHERE id = ?`, runID)
		return execErr
	})
	if err != nil {
		return false, fmt.Errorf("remove run: %w", err)
	}
	affected, err := res.RowsAffected()
	if err != nil {
		return false, err
	}
	return affected > 0, nil
}

func scanRun(scanner interface{ Scan(dest ...any) error }) (*Run, error) {
	var (
		run          Run
		status       string
		outputPath   sql.NullString
		startedRaw   string
		finishedRaw  string
		audioRole    sql.NullString
		errorMessage sql.NullString
	)
	if err := scanner.Scan(
		&run.ID,
		&status,
		&run.InputPath,
		&outputPath,
		&startedRaw,
		&finishedRaw,
		&run.MinScore,
		&run.MinAudioLength,
		&run.MaxOverlap,
		&run.OverlapMethod,
		&run.Strategy,
		&audioRole,
		&run.TotalLines,
		&run.PassingLines,
		&run.KeptLines,
		&run.Files,
		&run.MeanRatio,
		&run.StdDevRatio,
		&run.OutlierThreshold,
		&run.KeptAudioHours,
		&run.OutputBytes,
		&errorMessage,
	); err != nil {
		return nil, err
	}
	run.Status = Status(status)
	run.OutputPath = outputPath.String
	run.AudioRole = audioRole.String
	run.ErrorMessage = errorMessage.String
	if started, err := parseTimeString(startedRaw); err == nil {
		run.StartedAt = started
	}
	if finished, err := parseTimeString(finishedRaw); err == nil {
		run.FinishedAt = finished
	}
	return &run, nil
}

func nullableString(value string) any {
	if strings.TrimSpace(value) == "" {
		return nil
	}
	return value
}

func boolToInt(value bool) int {
	if value {
		return 1
	}
	return 0
}

func formatTime(value time.Time) string {
	if value.IsZero() {
		value = time.Now()
	}
	return value.UTC().Format(timeLayout)
}

func parseTimeString(value string) (time.Time, error) {
	return time.Parse(timeLayout, value)
}

func stripLikeWildcards(value string) string {
	return strings.NewReplacer("%", "", "_", "").Replace(value)
}
