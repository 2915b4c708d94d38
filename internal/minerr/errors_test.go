package minerr_test

import (
	"errors"
	"strings"
	"testing"

	"minepost/internal/minerr"
)

func TestWrapIncludesContext(t *testing.T) {
	base := errors.New("boom")
	err := minerr.Wrap(minerr.ErrDecode, "load", "parse", "line 12", base)
	if !errors.Is(err, minerr.ErrDecode) {
		t.Fatalf("expected marker to be retained, got %v", err)
	}
	if !errors.Is(err, base) {
		t.Fatalf("expected wrapped error to contain base error, got %v", err)
	}
	msg := err.Error()
	for _, fragment := range []string{"load", "parse", "line 12", "boom"} {
		if !strings.Contains(msg, fragment) {
			t.Fatalf("expected %q in error string %q", fragment, msg)
		}
	}
}

func TestWrapDefaultsMarker(t *testing.T) {
	err := minerr.Wrap(nil, "", "", "", nil)
	if !errors.Is(err, minerr.ErrIO) {
		t.Fatalf("expected io marker, got %v", err)
	}
	if !strings.Contains(err.Error(), "failure") {
		t.Fatalf("expected placeholder detail, got %q", err.Error())
	}
}

func TestHint(t *testing.T) {
	empty := minerr.Wrap(minerr.ErrEmptyInput, "load", "", "", nil)
	if hint := minerr.Hint(empty); !strings.Contains(hint, "non-empty") {
		t.Fatalf("unexpected hint %q", hint)
	}
	if hint := minerr.Hint(errors.New("other")); hint != "check logs for details" {
		t.Fatalf("unexpected default hint %q", hint)
	}
}
