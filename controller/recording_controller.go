package controller

import (
	"errors"
	"fmt"
	"path/filepath"
	"sync"
	"sync/atomic"
	"time"

	"github.com/google/uuid"
	"go.uber.org/multierr"

	"motion-logger/models"
	"motion-logger/utils"
	"motion-logger/views"
)

// ErrAlreadyRecording is returned by Start while a session is open.
var ErrAlreadyRecording = errors.New("a session is already being recorded")

// SinkOpener creates the output for a session file.
type SinkOpener func(path string) (views.SessionSink, error)

// RecorderOption customises a RecordingController.
type RecorderOption func(*RecordingController)

// WithClock replaces the system clock.
func WithClock(c utils.Clock) RecorderOption {
	return func(rc *RecordingController) { rc.clock = c }
}

// WithSinkOpener replaces the file-backed session writer.
func WithSinkOpener(o SinkOpener) RecorderOption {
	return func(rc *RecordingController) { rc.open = o }
}

// RecordingController is the session recorder. It owns the measuring flag,
// the session's monotonic start reference and the open output.
//
// Readings arrive from several sensor goroutines; the row is stamped and
// written under one lock so rows are in non-decreasing time order and Stop
// never closes the output under an in-flight write.
type RecordingController struct {
	storageCfg *utils.StorageConfig
	clock      utils.Clock
	open       SinkOpener

	measuring atomic.Bool

	mu          sync.Mutex
	sink        views.SessionSink
	info        models.SessionInfo
	rows        uint64
	writeErrors uint64

	stopFlush chan struct{}
	flushWG   sync.WaitGroup
}

// NewRecordingController writes sessions under storageCfg's base dir.
func NewRecordingController(storageCfg *utils.StorageConfig, opts ...RecorderOption) *RecordingController {
	rc := &RecordingController{
		storageCfg: storageCfg,
		clock:      utils.SystemClock,
	}
	rc.open = func(path string) (views.SessionSink, error) {
		return views.CreateSessionWriter(path,
			storageCfg.Storage.CSV.BufferSizeKB*1024, storageCfg.Storage.Overwrite)
	}
	for _, o := range opts {
		o(rc)
	}
	return rc
}

// PathFor maps a session name to its file.
func (rc *RecordingController) PathFor(name string) string {
	return filepath.Join(rc.storageCfg.Storage.BaseDir, name+views.FileExt)
}

// Start opens <base_dir>/<name>.csv, writes the header lines and begins
// measuring. On error nothing is left open and the recorder stays idle.
func (rc *RecordingController) Start(name string) (models.SessionInfo, error) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.sink != nil {
		return models.SessionInfo{}, ErrAlreadyRecording
	}

	path := rc.PathFor(name)
	sink, err := rc.open(path)
	if err != nil {
		return models.SessionInfo{}, fmt.Errorf("open session: %w", err)
	}

	now := rc.clock.Now()
	if err := sink.WriteStart(now); err != nil {
		return models.SessionInfo{}, multierr.Append(
			fmt.Errorf("start session: %w", err), sink.Close())
	}

	rc.sink = sink
	rc.info = models.SessionInfo{
		ID:    uuid.NewString(),
		Name:  name,
		Path:  path,
		Start: now,
	}
	rc.rows, rc.writeErrors = 0, 0
	rc.startFlusher()
	rc.measuring.Store(true)

	utils.L().Info("recording started  session=%s path=%s", rc.info.ID, path)
	return rc.info, nil
}

func (rc *RecordingController) startFlusher() {
	ms := rc.storageCfg.Storage.CSV.FlushIntervalMs
	if ms <= 0 {
		ms = 100
	}
	stop := make(chan struct{})
	rc.stopFlush = stop

	rc.flushWG.Add(1)
	go func() {
		defer rc.flushWG.Done()
		ticker := time.NewTicker(time.Duration(ms) * time.Millisecond)
		defer ticker.Stop()
		for {
			select {
			case <-stop:
				return
			case <-ticker.C:
				rc.mu.Lock()
				if rc.sink != nil {
					if err := rc.sink.Flush(); err != nil {
						utils.L().Error("flush session: %v", err)
					}
				}
				rc.mu.Unlock()
			}
		}
	}()
}

// Record stamps r with the time since session start and appends it.
// It reports false when no session is open. A failed write is logged and
// counted; the sample is still returned so the display stays live.
func (rc *RecordingController) Record(r models.Reading) (models.Sample, bool) {
	if !rc.measuring.Load() {
		return models.Sample{}, false
	}

	rc.mu.Lock()
	defer rc.mu.Unlock()
	if rc.sink == nil {
		return models.Sample{}, false
	}

	rel := rc.clock.Now().Sub(rc.info.Start).Seconds()
	s := models.NewSample(rel, r)
	if err := rc.sink.WriteRow(s.CSVRow()); err != nil {
		rc.writeErrors++
		if rc.writeErrors%1000 == 1 {
			utils.L().Error("write sample (failures=%d): %v", rc.writeErrors, err)
		}
		return s, true
	}
	rc.rows++
	return s, true
}

// Stop writes the end line and releases the output. It reports false, and
// touches nothing, when no session is open.
func (rc *RecordingController) Stop() (models.SessionSummary, bool) {
	if !rc.measuring.CompareAndSwap(true, false) {
		return models.SessionSummary{}, false
	}

	// Start sets measuring under mu, so the flusher is registered by now.
	rc.mu.Lock()
	stop := rc.stopFlush
	rc.stopFlush = nil
	rc.mu.Unlock()
	if stop != nil {
		close(stop)
	}
	rc.flushWG.Wait()

	rc.mu.Lock()
	defer rc.mu.Unlock()

	end := rc.clock.Now()
	err := multierr.Append(rc.sink.WriteEnd(end), rc.sink.Close())
	if err != nil {
		utils.L().Error("close session %s: %v", rc.info.Path, err)
	}
	rc.sink = nil

	sum := models.SessionSummary{
		ID:          rc.info.ID,
		Name:        rc.info.Name,
		Path:        rc.info.Path,
		Start:       rc.info.Start,
		End:         end,
		Duration:    end.Sub(rc.info.Start).Truncate(time.Second),
		Rows:        rc.rows,
		WriteErrors: rc.writeErrors,
	}
	utils.L().Info("recording stopped  session=%s rows=%d write_errors=%d duration=%ds",
		sum.ID, sum.Rows, sum.WriteErrors, sum.DurationSeconds())
	return sum, true
}

// Measuring reports whether a session is open.
func (rc *RecordingController) Measuring() bool {
	return rc.measuring.Load()
}

// Session returns the open session, if any.
func (rc *RecordingController) Session() (models.SessionInfo, bool) {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.info, rc.sink != nil
}

// RowsWritten returns the rows persisted in the current or last session.
func (rc *RecordingController) RowsWritten() uint64 {
	rc.mu.Lock()
	defer rc.mu.Unlock()
	return rc.rows
}
