package mining

import (
	"fmt"
	"strconv"
	"strings"

	"minepost/internal/minerr"
	"minepost/internal/segment"
)

const fieldSeparator = "\t"

// ParseLine decodes one mining result line. samplingFactor rescales audio
// offsets from samples to milliseconds; values <= 0 leave offsets unchanged.
func ParseLine(line string, samplingFactor float64) (segment.Record, error) {
	line = strings.TrimRight(line, "\r\n")
	fields := strings.Split(line, fieldSeparator)
	if len(fields) != 3 {
		return segment.Record{}, minerr.Wrap(minerr.ErrDecode, "decode", "split",
			fmt.Sprintf("expected 3 tab-separated fields, got %d", len(fields)), nil)
	}

	score, err := strconv.ParseFloat(strings.TrimSpace(fields[0]), 64)
	if err != nil {
		return segment.Record{}, minerr.Wrap(minerr.ErrDecode, "decode", "score", "", err)
	}
	first, err := ParseItem(fields[1], samplingFactor)
	if err != nil {
		return segment.Record{}, err
	}
	second, err := ParseItem(fields[2], samplingFactor)
	if err != nil {
		return segment.Record{}, err
	}
	return segment.Record{First: first, Second: second, Score: score}, nil
}

// ParseItem decodes a single item. An item is audio when its last two
// separator-delimited tokens are integers; otherwise it is text.
func ParseItem(raw string, samplingFactor float64) (segment.Item, error) {
	path, start, end, ok := splitAudio(strings.TrimSpace(raw))
	if !ok {
		return segment.Item{Kind: segment.KindText, Text: segment.TextSpan{Text: raw}, Raw: raw}, nil
	}
	if start < 0 || end < start {
		return segment.Item{}, minerr.Wrap(minerr.ErrDecode, "decode", "audio offsets",
			fmt.Sprintf("invalid span [%d, %d) in %q", start, end, raw), nil)
	}

	factor := 1.0
	if samplingFactor > 0 {
		factor = samplingFactor
	}
	return segment.Item{
		Kind: segment.KindAudio,
		Audio: segment.AudioSpan{
			Path:   path,
			Start:  float64(start) / factor,
			Length: float64(end-start) / factor,
		},
		Raw: raw,
	}, nil
}

// splitAudio accepts "path|start|end" and "path start end". Paths may contain
// the separator; only the last two tokens are offsets.
func splitAudio(value string) (path string, start, end int64, ok bool) {
	if parts := strings.Split(value, "|"); len(parts) >= 3 {
		n := len(parts)
		if path, start, end, ok = parseAudioTokens(strings.Join(parts[:n-2], "|"), parts[n-2], parts[n-1]); ok {
			return path, start, end, true
		}
	}
	last := strings.LastIndexByte(value, ' ')
	if last <= 0 {
		return "", 0, 0, false
	}
	prev := strings.LastIndexByte(value[:last], ' ')
	if prev <= 0 {
		return "", 0, 0, false
	}
	return parseAudioTokens(value[:prev], value[prev+1:last], value[last+1:])
}

func parseAudioTokens(path, startToken, endToken string) (string, int64, int64, bool) {
	path = strings.TrimSpace(path)
	if path == "" {
		return "", 0, 0, false
	}
	start, err := strconv.ParseInt(strings.TrimSpace(startToken), 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	end, err := strconv.ParseInt(strings.TrimSpace(endToken), 10, 64)
	if err != nil {
		return "", 0, 0, false
	}
	return path, start, end, true
}

// FormatRecord encodes a record as a mining result line without the trailing
// newline. Items are written in their original raw form.
func FormatRecord(rec segment.Record) string {
	var b strings.Builder
	b.Grow(len(rec.First.Raw) + len(rec.Second.Raw) + 24)
	b.WriteString(strconv.FormatFloat(rec.Score, 'g', -1, 64))
	b.WriteString(fieldSeparator)
	b.WriteString(rec.First.Raw)
	b.WriteString(fieldSeparator)
	b.WriteString(rec.Second.Raw)
	return b.String()
}
