// Package filter applies the score and duration thresholds to a stream of
// mining entries and groups the survivors by source audio file.
//
// Loading is a single pass: rejected entries are dropped as soon as they are
// decoded so only passing records are held in memory. The audio role is fixed
// by the first entry and checked on every later one.
package filter
