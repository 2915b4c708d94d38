// Package minerr defines the error markers shared across minepost stages.
package minerr

import (
	"errors"
	"fmt"
	"strings"
)

var (
	ErrEmptyInput    = errors.New("no records to process")
	ErrNoAudio       = errors.New("record has no audio item")
	ErrRoleMismatch  = errors.New("audio role changed within stream")
	ErrDecode        = errors.New("decode error")
	ErrConfiguration = errors.New("configuration error")
	ErrIO            = errors.New("io error")
	ErrLocked        = errors.New("output locked by another run")
)

// Wrap builds an error message that includes stage context while tagging it
// with the provided marker so callers can classify it with errors.Is.
func Wrap(marker error, stage, operation, message string, err error) error {
	detail := buildDetail(stage, operation, message)
	if marker == nil {
		marker = ErrIO
	}
	if err != nil {
		return fmt.Errorf("%w: %s: %w", marker, detail, err)
	}
	return fmt.Errorf("%w: %s", marker, detail)
}

// Hint returns a short operator-facing suggestion for a classified error.
func Hint(err error) string {
	switch {
	case errors.Is(err, ErrEmptyInput):
		return "check that the mining result path points at a non-empty file"
	case errors.Is(err, ErrNoAudio), errors.Is(err, ErrRoleMismatch):
		return "every line needs an audio item in the same column as the first line"
	case errors.Is(err, ErrDecode):
		return "inspect the reported line for a malformed score or offset"
	case errors.Is(err, ErrConfiguration):
		return "run 'minepost config validate'"
	case errors.Is(err, ErrLocked):
		return "wait for the other run to finish or choose another output filename"
	default:
		return "check logs for details"
	}
}

func buildDetail(stage, operation, message string) string {
	parts := make([]string, 0, 3)
	if stage = strings.TrimSpace(stage); stage != "" {
		parts = append(parts, stage)
	}
	if operation = strings.TrimSpace(operation); operation != "" {
		parts = append(parts, operation)
	}
	if message = strings.TrimSpace(message); message != "" {
		parts = append(parts, message)
	}
	if len(parts) == 0 {
		return "failure"
	}
	return strings.Join(parts, ": ")
}
