package mining_test

import (
	"errors"
	"testing"

	"minepost/internal/minerr"
	"minepost/internal/mining"
	"minepost/internal/segment"
)

func TestParseLineAudioText(t *testing.T) {
	rec, err := mining.ParseLine("1.25\t/data/ep1.wav 1600 48000\tbonjour tout le monde\n", 16)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if rec.Score != 1.25 {
		t.Fatalf("score = %v", rec.Score)
	}
	if !rec.First.IsAudio() || rec.Second.IsAudio() {
		t.Fatalf("unexpected kinds: %v / %v", rec.First.Kind, rec.Second.Kind)
	}
	want := segment.AudioSpan{Path: "/data/ep1.wav", Start: 100, Length: 2900}
	if rec.First.Audio != want {
		t.Fatalf("audio = %+v, want %+v", rec.First.Audio, want)
	}
	if rec.Second.Text.Text != "bonjour tout le monde" {
		t.Fatalf("text = %q", rec.Second.Text.Text)
	}
}

func TestParseItemFormats(t *testing.T) {
	cases := []struct {
		name  string
		raw   string
		audio bool
		span  segment.AudioSpan
	}{
		{"space separated", "a.wav 10 30", true, segment.AudioSpan{Path: "a.wav", Start: 10, Length: 20}},
		{"pipe separated", "dir/a b.wav|10|30", true, segment.AudioSpan{Path: "dir/a b.wav", Start: 10, Length: 20}},
		{"path with spaces", "my file.wav 0 5", true, segment.AudioSpan{Path: "my file.wav", Start: 0, Length: 5}},
		{"plain text", "hello there", false, segment.AudioSpan{}},
		{"text with one number", "chapter 12", false, segment.AudioSpan{}},
		{"text with float offsets", "x.wav 1.5 2.5", false, segment.AudioSpan{}},
		{"zero length audio", "a.wav 7 7", true, segment.AudioSpan{Path: "a.wav", Start: 7, Length: 0}},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			item, err := mining.ParseItem(tc.raw, 0)
			if err != nil {
				t.Fatalf("ParseItem: %v", err)
			}
			if item.IsAudio() != tc.audio {
				t.Fatalf("IsAudio = %v, want %v", item.IsAudio(), tc.audio)
			}
			if tc.audio && item.Audio != tc.span {
				t.Fatalf("span = %+v, want %+v", item.Audio, tc.span)
			}
			if item.Raw != tc.raw {
				t.Fatalf("raw = %q, want %q", item.Raw, tc.raw)
			}
		})
	}
}

func TestParseLineErrors(t *testing.T) {
	cases := map[string]string{
		"too few fields":   "1.0\ta.wav 0 10",
		"too many fields":  "1.0\ta.wav 0 10\tb\tc",
		"bad score":        "high\ta.wav 0 10\ttext",
		"negative start":   "1.0\ta.wav -5 10\ttext",
		"end before start": "1.0\ta.wav 50 10\ttext",
	}
	for name, line := range cases {
		t.Run(name, func(t *testing.T) {
			_, err := mining.ParseLine(line, 0)
			if !errors.Is(err, minerr.ErrDecode) {
				t.Fatalf("expected decode error, got %v", err)
			}
		})
	}
}

func TestFormatRecordKeepsRawItems(t *testing.T) {
	line := "1.0836\tsome text\tclip.wav|16000|64000"
	rec, err := mining.ParseLine(line, 16)
	if err != nil {
		t.Fatalf("ParseLine: %v", err)
	}
	if got := mining.FormatRecord(rec); got != line {
		t.Fatalf("FormatRecord = %q, want %q", got, line)
	}
}
