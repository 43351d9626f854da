package controller

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"

	"motion-logger/models"
	"motion-logger/utils"
	"motion-logger/views"
)

// manualClock only moves when told to.
type manualClock struct {
	mu sync.Mutex
	t  time.Time
}

func newManualClock() *manualClock {
	return &manualClock{t: time.Date(2026, 10, 14, 12, 0, 0, 0, time.UTC)}
}

func (c *manualClock) Now() time.Time {
	c.mu.Lock()
	defer c.mu.Unlock()
	return c.t
}

func (c *manualClock) Advance(d time.Duration) {
	c.mu.Lock()
	c.t = c.t.Add(d)
	c.mu.Unlock()
}

var errDiskFull = errors.New("disk full")

// flakySink keeps lines in memory and fails row writes on demand.
type flakySink struct {
	mu       sync.Mutex
	lines    []string
	failRows bool
	closed   bool
	closeErr error
}

func (s *flakySink) WriteStart(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, views.StartTimeKey+","+utils.FormatUTC(t), strings.Join(models.Sample{}.CSVHeader(), ","))
	return nil
}

func (s *flakySink) WriteRow(row []string) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	if s.failRows {
		return errDiskFull
	}
	s.lines = append(s.lines, strings.Join(row, ","))
	return nil
}

func (s *flakySink) WriteEnd(t time.Time) error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.lines = append(s.lines, views.EndTimeKey+","+utils.FormatUTC(t))
	return nil
}

func (s *flakySink) Flush() error { return nil }

func (s *flakySink) Close() error {
	s.mu.Lock()
	defer s.mu.Unlock()
	s.closed = true
	return s.closeErr
}

func (s *flakySink) Lines() []string {
	s.mu.Lock()
	defer s.mu.Unlock()
	return append([]string(nil), s.lines...)
}

func testStorage(t *testing.T) *utils.StorageConfig {
	t.Helper()
	cfg := utils.DefaultStorageConfig()
	cfg.Storage.BaseDir = t.TempDir()
	cfg.Storage.CSV.FlushIntervalMs = 5
	return cfg
}

func readLines(t *testing.T, path string) []string {
	t.Helper()
	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	return strings.Split(strings.TrimSuffix(string(data), "\n"), "\n")
}

func dirEntries(t *testing.T, dir string) []string {
	t.Helper()
	ents, err := os.ReadDir(dir)
	test.That(t, err, test.ShouldBeNil)
	var out []string
	for _, e := range ents {
		out = append(out, filepath.Join(dir, e.Name()))
	}
	return out
}
