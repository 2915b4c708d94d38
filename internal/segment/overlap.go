package segment

import (
	"fmt"
	"math"
	"strings"
)

// OverlapMethod selects the reference length an intersection is divided by.
type OverlapMethod string

const (
	// MethodFraction divides by the shorter span. Symmetric.
	MethodFraction OverlapMethod = "fraction"
	// MethodFractionFirst divides by the first span's length. Not symmetric:
	// Overlap(a, b) measures how much of a is covered by b.
	MethodFractionFirst OverlapMethod = "fraction_first"
	// MethodIoU divides by the union of both spans. Symmetric.
	MethodIoU OverlapMethod = "iou"
)

// Methods lists every supported overlap method.
func Methods() []OverlapMethod {
	return []OverlapMethod{MethodFraction, MethodFractionFirst, MethodIoU}
}

// ParseOverlapMethod resolves a configured method name.
func ParseOverlapMethod(value string) (OverlapMethod, error) {
	normalized := OverlapMethod(strings.ToLower(strings.TrimSpace(value)))
	if normalized == "" {
		return MethodFraction, nil
	}
	for _, m := range Methods() {
		if m == normalized {
			return m, nil
		}
	}
	return "", fmt.Errorf("unknown overlap method %q", value)
}

// Intersection returns the length shared by [a.Start, a.End()) and
// [b.Start, b.End()). Disjoint or touching spans share 0.
func Intersection(a, b AudioSpan) float64 {
	lo := math.Max(a.Start, b.Start)
	hi := math.Min(a.End(), b.End())
	if hi <= lo {
		return 0
	}
	return hi - lo
}

// Overlap returns the normalized overlap of a and b in [0,1]. Spans with a
// non-positive length never overlap. Unknown methods are treated as
// MethodFraction.
func Overlap(a, b AudioSpan, method OverlapMethod) float64 {
	if a.Length <= 0 || b.Length <= 0 {
		return 0
	}
	inter := Intersection(a, b)
	if inter == 0 {
		return 0
	}

	var ref float64
	switch method {
	case MethodFractionFirst:
		ref = a.Length
	case MethodIoU:
		ref = a.Length + b.Length - inter
	default:
		ref = math.Min(a.Length, b.Length)
	}
	if ref <= 0 {
		return 0
	}
	return clampUnit(inter / ref)
}

func clampUnit(v float64) float64 {
	switch {
	case v < 0:
		return 0
	case v > 1:
		return 1
	default:
		return v
	}
}
