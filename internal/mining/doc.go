// Package mining reads and writes mining result files.
//
// A mining result line is three tab-separated fields: the alignment score and
// the two aligned items. Audio items are written as "path start end" (or with
// "|" separators); anything else is a text item. Files ending in .gz or .zst
// are transparently (de)compressed.
//
// Writers stage output in a temporary file next to the destination and rename
// it into place on Commit so an interrupted run never leaves a truncated file.
package mining
