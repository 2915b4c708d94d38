package segment_test

import (
	"math"
	"math/rand"
	"testing"

	"minepost/internal/segment"
)

func span(start, length float64) segment.AudioSpan {
	return segment.AudioSpan{Path: "a.wav", Start: start, Length: length}
}

func TestOverlapMethods(t *testing.T) {
	cases := []struct {
		name   string
		a, b   segment.AudioSpan
		method segment.OverlapMethod
		want   float64
	}{
		{"fraction nested", span(0, 20), span(5, 5), segment.MethodFraction, 1},
		{"fraction partial", span(0, 10), span(5, 10), segment.MethodFraction, 0.5},
		{"fraction shorter reference", span(0, 20), span(15, 10), segment.MethodFraction, 0.5},
		{"fraction_first reference is a", span(0, 20), span(5, 5), segment.MethodFractionFirst, 0.25},
		{"fraction_first reversed", span(5, 5), span(0, 20), segment.MethodFractionFirst, 1},
		{"iou partial", span(0, 10), span(5, 10), segment.MethodIoU, 5.0 / 15.0},
		{"touching spans", span(0, 10), span(10, 5), segment.MethodFraction, 0},
		{"disjoint spans", span(0, 10), span(30, 5), segment.MethodIoU, 0},
		{"zero length", span(5, 0), span(0, 10), segment.MethodFraction, 0},
		{"unknown method falls back", span(0, 10), span(5, 10), segment.OverlapMethod("bogus"), 0.5},
	}
	for _, tc := range cases {
		t.Run(tc.name, func(t *testing.T) {
			got := segment.Overlap(tc.a, tc.b, tc.method)
			if math.Abs(got-tc.want) > 1e-12 {
				t.Fatalf("Overlap = %v, want %v", got, tc.want)
			}
		})
	}
}

func TestOverlapIdenticalSpanIsOne(t *testing.T) {
	s := span(120, 3400)
	for _, method := range segment.Methods() {
		if got := segment.Overlap(s, s, method); got != 1 {
			t.Fatalf("%s: overlap of identical span = %v, want 1", method, got)
		}
	}
}

func TestOverlapBoundsAndSymmetry(t *testing.T) {
	rng := rand.New(rand.NewSource(7))
	for i := 0; i < 5000; i++ {
		a := span(float64(rng.Intn(1000)), float64(rng.Intn(300)))
		b := span(float64(rng.Intn(1000)), float64(rng.Intn(300)))
		for _, method := range segment.Methods() {
			got := segment.Overlap(a, b, method)
			if got < 0 || got > 1 {
				t.Fatalf("%s: overlap(%v, %v) = %v out of [0,1]", method, a, b, got)
			}
			if segment.Intersection(a, b) == 0 && got != 0 {
				t.Fatalf("%s: disjoint spans %v %v overlap %v", method, a, b, got)
			}
		}
		for _, method := range []segment.OverlapMethod{segment.MethodFraction, segment.MethodIoU} {
			if segment.Overlap(a, b, method) != segment.Overlap(b, a, method) {
				t.Fatalf("%s: not symmetric for %v %v", method, a, b)
			}
		}
	}
}

func TestParseOverlapMethod(t *testing.T) {
	if m, err := segment.ParseOverlapMethod(""); err != nil || m != segment.MethodFraction {
		t.Fatalf("empty method: got %q, %v", m, err)
	}
	if m, err := segment.ParseOverlapMethod(" IoU "); err != nil || m != segment.MethodIoU {
		t.Fatalf("iou: got %q, %v", m, err)
	}
	if _, err := segment.ParseOverlapMethod("jaccard"); err == nil {
		t.Fatal("expected error for unknown method")
	}
}
