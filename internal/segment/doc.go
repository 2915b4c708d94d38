// Package segment models the items that make up a mining candidate: audio
// spans with a temporal extent, text spans without one, and the scored pair
// that binds two of them together.
//
// It also owns the overlap calculator used by deduplication. Overlap values
// are normalized into [0,1] and every method is a pure function of its two
// spans, so callers can evaluate them repeatedly and in any order.
package segment
