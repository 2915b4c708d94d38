package mining

import (
	"bufio"
	"errors"
	"fmt"
	"io"
	"os"
	"strings"

	"minepost/internal/minerr"
	"minepost/internal/segment"
)

const maxLineBytes = 16 * 1024 * 1024

// Entry is one decoded line together with its position in the file.
type Entry struct {
	Line   int
	Raw    string
	Record segment.Record
}

// LineError reports a decode failure at a specific line.
type LineError struct {
	Line int
	Raw  string
	Err  error
}

func (e *LineError) Error() string {
	raw := e.Raw
	if len(raw) > 200 {
		raw = raw[:200] + "..."
	}
	return fmt.Sprintf("line %d: %v (input: %q)", e.Line, e.Err, raw)
}

func (e *LineError) Unwrap() error { return e.Err }

// Reader streams entries from a mining result file.
type Reader struct {
	path           string
	scanner        *bufio.Scanner
	closers        []io.Closer
	samplingFactor float64
	line           int
}

// Open opens path for reading, decompressing it when the extension asks for it.
func Open(path string, samplingFactor float64) (*Reader, error) {
	file, err := os.Open(path)
	if err != nil {
		return nil, minerr.Wrap(minerr.ErrIO, "read", "open", path, err)
	}
	stream, err := newDecompressor(bufio.NewReaderSize(file, 1<<20), CompressionFor(path))
	if err != nil {
		_ = file.Close()
		return nil, minerr.Wrap(minerr.ErrIO, "read", "decompress", path, err)
	}
	r := NewReader(stream, samplingFactor)
	r.path = path
	r.closers = []io.Closer{stream, file}
	return r, nil
}

// NewReader wraps an uncompressed stream. The caller keeps ownership of src.
func NewReader(src io.Reader, samplingFactor float64) *Reader {
	scanner := bufio.NewScanner(src)
	scanner.Buffer(make([]byte, 0, 64*1024), maxLineBytes)
	return &Reader{scanner: scanner, samplingFactor: samplingFactor}
}

// Next returns the next non-blank entry, or io.EOF once the stream is drained.
func (r *Reader) Next() (Entry, error) {
	for r.scanner.Scan() {
		r.line++
		raw := r.scanner.Text()
		if strings.TrimSpace(raw) == "" {
			continue
		}
		rec, err := ParseLine(raw, r.samplingFactor)
		if err != nil {
			return Entry{}, &LineError{Line: r.line, Raw: raw, Err: err}
		}
		return Entry{Line: r.line, Raw: raw, Record: rec}, nil
	}
	if err := r.scanner.Err(); err != nil {
		return Entry{}, minerr.Wrap(minerr.ErrIO, "read", "scan", r.path, err)
	}
	return Entry{}, io.EOF
}

// Lines returns the number of physical lines consumed so far.
func (r *Reader) Lines() int {
	return r.line
}

// Close releases the decompressor and the underlying file.
func (r *Reader) Close() error {
	var errs []error
	for _, c := range r.closers {
		if err := c.Close(); err != nil {
			errs = append(errs, err)
		}
	}
	r.closers = nil
	return errors.Join(errs...)
}
