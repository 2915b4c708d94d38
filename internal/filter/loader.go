package filter

import (
	"context"
	"errors"
	"fmt"
	"io"
	"log/slog"

	"minepost/internal/logging"
	"minepost/internal/minerr"
	"minepost/internal/mining"
	"minepost/internal/segment"
)

const cancelCheckInterval = 4096

// Source yields decoded mining entries and io.EOF once drained.
type Source interface {
	Next() (mining.Entry, error)
}

// Group holds the passing records of one source audio file in load order.
type Group struct {
	Path    string
	Records []segment.Record
}

// Result is the outcome of a load pass.
type Result struct {
	// Groups are ordered by the first time each path was observed.
	Groups       []*Group
	Role         segment.Role
	TotalLines   int
	PassingLines int
}

// Load drains src, filtering and grouping records by the path of their audio
// item.
func Load(ctx context.Context, src Source, thresholds Thresholds, logger *slog.Logger) (*Result, error) {
	logger = logging.NewComponentLogger(logger, "loader")

	result := &Result{}
	index := make(map[string]*Group)
	for {
		if result.TotalLines%cancelCheckInterval == 0 {
			if err := ctx.Err(); err != nil {
				return nil, err
			}
		}

		entry, err := src.Next()
		if errors.Is(err, io.EOF) {
			break
		}
		if err != nil {
			return nil, err
		}

		if result.TotalLines == 0 {
			role, ok := entry.Record.AudioRole()
			if !ok {
				return nil, noAudioError(entry)
			}
			result.Role = role
			logger.Debug("audio role detected",
				logging.String("role", role.String()),
				logging.String(logging.FieldEventType, "audio_role_detected"),
			)
		}
		result.TotalLines++

		if !entry.Record.Item(result.Role).IsAudio() {
			if _, ok := entry.Record.AudioRole(); !ok {
				return nil, noAudioError(entry)
			}
			return nil, &mining.LineError{
				Line: entry.Line,
				Raw:  entry.Raw,
				Err: minerr.Wrap(minerr.ErrRoleMismatch, "load", "role",
					fmt.Sprintf("expected %s item to be audio", result.Role), nil),
			}
		}

		if !thresholds.Passes(entry.Record, result.Role) {
			continue
		}
		result.PassingLines++

		path := entry.Record.Audio(result.Role).Path
		group, ok := index[path]
		if !ok {
			group = &Group{Path: path}
			index[path] = group
			result.Groups = append(result.Groups, group)
		}
		group.Records = append(group.Records, entry.Record)
	}

	if result.TotalLines == 0 {
		return nil, minerr.Wrap(minerr.ErrEmptyInput, "load", "", "", nil)
	}

	logger.Info("passing filters (audio length & score)",
		logging.Int("passing_lines", result.PassingLines),
		logging.Int("total_lines", result.TotalLines),
		logging.Int("files", len(result.Groups)),
		logging.String(logging.FieldEventType, "load_complete"),
	)
	return result, nil
}

func noAudioError(entry mining.Entry) error {
	return &mining.LineError{
		Line: entry.Line,
		Raw:  entry.Raw,
		Err: minerr.Wrap(minerr.ErrNoAudio, "load", "role",
			"at least one item needs to be an audio sample", nil),
	}
}
