package mining

import (
	"bufio"
	"errors"
	"os"
	"path/filepath"

	"minepost/internal/minerr"
	"minepost/internal/segment"
)

// Writer serializes records into a staged file that replaces the destination
// on Commit.
type Writer struct {
	path       string
	file       *os.File
	compressor interface{ Close() error }
	buf        *bufio.Writer
	count      int
	done       bool
}

// Create stages a new output file for path, creating parent directories.
func Create(path string) (*Writer, error) {
	dir := filepath.Dir(path)
	if err := os.MkdirAll(dir, 0o755); err != nil {
		return nil, minerr.Wrap(minerr.ErrIO, "write", "mkdir", dir, err)
	}
	file, err := os.CreateTemp(dir, "."+filepath.Base(path)+".tmp-*")
	if err != nil {
		return nil, minerr.Wrap(minerr.ErrIO, "write", "create", path, err)
	}
	compressor, err := newCompressor(file, CompressionFor(path))
	if err != nil {
		_ = file.Close()
		_ = os.Remove(file.Name())
		return nil, minerr.Wrap(minerr.ErrIO, "write", "compress", path, err)
	}
	return &Writer{
		path:       path,
		file:       file,
		compressor: compressor,
		buf:        bufio.NewWriterSize(compressor, 1<<20),
	}, nil
}

// Write appends one record line.
func (w *Writer) Write(rec segment.Record) error {
	if _, err := w.buf.WriteString(FormatRecord(rec)); err != nil {
		return minerr.Wrap(minerr.ErrIO, "write", "record", w.path, err)
	}
	if err := w.buf.WriteByte('\n'); err != nil {
		return minerr.Wrap(minerr.ErrIO, "write", "record", w.path, err)
	}
	w.count++
	return nil
}

// Count returns the number of records written.
func (w *Writer) Count() int {
	return w.count
}

// Path returns the final destination.
func (w *Writer) Path() string {
	return w.path
}

// Commit flushes the staged file and atomically moves it to the destination.
func (w *Writer) Commit() error {
	if w.done {
		return nil
	}
	w.done = true
	tmp := w.file.Name()
	err := errors.Join(w.buf.Flush(), w.compressor.Close(), w.file.Sync(), w.file.Close())
	if err != nil {
		_ = os.Remove(tmp)
		return minerr.Wrap(minerr.ErrIO, "write", "flush", w.path, err)
	}
	if err := os.Chmod(tmp, 0o644); err != nil {
		_ = os.Remove(tmp)
		return minerr.Wrap(minerr.ErrIO, "write", "chmod", w.path, err)
	}
	if err := os.Rename(tmp, w.path); err != nil {
		_ = os.Remove(tmp)
		return minerr.Wrap(minerr.ErrIO, "write", "rename", w.path, err)
	}
	return nil
}

// Abort discards the staged file. It is a no-op after Commit.
func (w *Writer) Abort() error {
	if w.done {
		return nil
	}
	w.done = true
	_ = w.compressor.Close()
	_ = w.file.Close()
	return os.Remove(w.file.Name())
}
