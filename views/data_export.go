package views

import (
	"bufio"
	"encoding/csv"
	"errors"
	"fmt"
	"os"
	"sync"
	"time"

	"go.uber.org/multierr"

	"motion-logger/utils"
)

// ErrFileExists is returned by CreateSessionWriter when overwrite is off.
var ErrFileExists = errors.New("session file already exists")

// SessionSink receives the lines of one session file.
type SessionSink interface {
	WriteStart(t time.Time) error
	WriteRow(row []string) error
	WriteEnd(t time.Time) error
	Flush() error
	Close() error
}

// SessionWriter is a concurrency-safe, buffered writer for one session file.
//
// A bufio.Writer absorbs the write syscalls; the recording controller flushes
// it periodically and on stop, so the per-row path is a memory copy.
type SessionWriter struct {
	mu   sync.Mutex
	file *os.File
	buf  *bufio.Writer
	csv  *csv.Writer
	rows uint64
}

// CreateSessionWriter creates path, truncating an existing file only when
// overwrite is set.
func CreateSessionWriter(path string, bufSizeBytes int, overwrite bool) (*SessionWriter, error) {
	flags := os.O_CREATE | os.O_WRONLY | os.O_TRUNC
	if !overwrite {
		flags = os.O_CREATE | os.O_WRONLY | os.O_EXCL
	}
	f, err := os.OpenFile(path, flags, 0644)
	if err != nil {
		if errors.Is(err, os.ErrExist) {
			return nil, fmt.Errorf("create %s: %w", path, ErrFileExists)
		}
		return nil, fmt.Errorf("create %s: %w", path, err)
	}

	if bufSizeBytes <= 0 {
		bufSizeBytes = 64 * 1024
	}

	bw := bufio.NewWriterSize(f, bufSizeBytes)
	return &SessionWriter{
		file: f,
		buf:  bw,
		csv:  csv.NewWriter(bw),
	}, nil
}

// WriteStart writes the start timestamp and the column header.
func (w *SessionWriter) WriteStart(t time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.csv.Write([]string{StartTimeKey, utils.FormatUTC(t)}); err != nil {
		return fmt.Errorf("write start line: %w", err)
	}
	if err := w.csv.Write(SampleColumns); err != nil {
		return fmt.Errorf("write column header: %w", err)
	}
	return nil
}

// WriteRow appends a single sample row. Thread-safe.
func (w *SessionWriter) WriteRow(row []string) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.csv.Write(row); err != nil {
		return fmt.Errorf("write row: %w", err)
	}
	w.rows++
	return nil
}

// WriteEnd writes the end timestamp line.
func (w *SessionWriter) WriteEnd(t time.Time) error {
	w.mu.Lock()
	defer w.mu.Unlock()
	if err := w.csv.Write([]string{EndTimeKey, utils.FormatUTC(t)}); err != nil {
		return fmt.Errorf("write end line: %w", err)
	}
	return nil
}

// Flush pushes the buffered data to the OS.
func (w *SessionWriter) Flush() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.flushLocked()
}

func (w *SessionWriter) flushLocked() error {
	w.csv.Flush()
	return multierr.Append(w.csv.Error(), w.buf.Flush())
}

// Close flushes remaining data and closes the file.
func (w *SessionWriter) Close() error {
	w.mu.Lock()
	defer w.mu.Unlock()
	return multierr.Append(w.flushLocked(), w.file.Close())
}

// Rows returns the number of sample rows written (excludes header lines).
func (w *SessionWriter) Rows() uint64 {
	w.mu.Lock()
	defer w.mu.Unlock()
	return w.rows
}
