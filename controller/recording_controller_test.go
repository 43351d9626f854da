package controller

import (
	"errors"
	"os"
	"strconv"
	"strings"
	"sync"
	"testing"
	"time"

	"go.viam.com/test"

	"motion-logger/models"
	"motion-logger/utils"
	"motion-logger/views"
)

func magReading(x, y, z float32) models.Reading {
	return models.Reading{Kind: models.KindMagnetometer, Values: []float32{x, y, z}}
}

func TestRecorderFileLayout(t *testing.T) {
	cfg := testStorage(t)
	clk := newManualClock()
	rc := NewRecordingController(cfg, WithClock(clk))

	info, err := rc.Start("walk")
	test.That(t, err, test.ShouldBeNil)
	test.That(t, info.Path, test.ShouldEqual, rc.PathFor("walk"))
	test.That(t, info.ID, test.ShouldNotBeEmpty)
	test.That(t, rc.Measuring(), test.ShouldBeTrue)

	clk.Advance(12 * time.Second)
	s, ok := rc.Record(magReading(1, 2, 3))
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, s.RelativeTime, test.ShouldEqual, 12.0)

	clk.Advance(500 * time.Millisecond)
	sum, ok := rc.Stop()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sum.Rows, test.ShouldEqual, uint64(1))
	test.That(t, sum.DurationSeconds(), test.ShouldEqual, int64(12))
	test.That(t, rc.Measuring(), test.ShouldBeFalse)

	lines := readLines(t, info.Path)
	test.That(t, lines, test.ShouldResemble, []string{
		"StartTimeUTC,2026-10-14T12:00:00.000Z",
		"time_since_start(s),sensor,x,y,z",
		"12.00000000,mag,1.0,2.0,3.0",
		"EndTimeUTC,2026-10-14T12:00:12.500Z",
	})
}

func TestRecorderEndNotBeforeStart(t *testing.T) {
	rc := NewRecordingController(testStorage(t))
	info, err := rc.Start("quick")
	test.That(t, err, test.ShouldBeNil)
	rc.Record(magReading(1, 1, 1))
	_, ok := rc.Stop()
	test.That(t, ok, test.ShouldBeTrue)

	f, err := views.ReadSessionFile(info.Path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Complete(), test.ShouldBeTrue)
	test.That(t, f.End.Before(f.Start), test.ShouldBeFalse)
}

func TestRecorderRowsNonDecreasingUnderConcurrency(t *testing.T) {
	rc := NewRecordingController(testStorage(t))
	info, err := rc.Start("busy")
	test.That(t, err, test.ShouldBeNil)

	var wg sync.WaitGroup
	for _, k := range models.KnownKinds() {
		wg.Add(1)
		go func(k models.SensorKind) {
			defer wg.Done()
			for i := 0; i < 200; i++ {
				rc.Record(models.Reading{Kind: k, Values: []float32{float32(i)}})
			}
		}(k)
	}
	wg.Wait()
	sum, _ := rc.Stop()
	test.That(t, sum.Rows, test.ShouldEqual, uint64(800))

	lines := readLines(t, info.Path)
	test.That(t, lines, test.ShouldHaveLength, 800+3)
	prev := -1.0
	for _, l := range lines[2 : len(lines)-1] {
		v, err := strconv.ParseFloat(strings.SplitN(l, ",", 2)[0], 64)
		test.That(t, err, test.ShouldBeNil)
		test.That(t, v, test.ShouldBeGreaterThanOrEqualTo, prev)
		prev = v
	}
}

func TestRecorderStopWhenIdle(t *testing.T) {
	cfg := testStorage(t)
	rc := NewRecordingController(cfg)
	_, ok := rc.Stop()
	test.That(t, ok, test.ShouldBeFalse)
	test.That(t, dirEntries(t, cfg.Storage.BaseDir), test.ShouldBeEmpty)

	info, err := rc.Start("once")
	test.That(t, err, test.ShouldBeNil)
	_, ok = rc.Stop()
	test.That(t, ok, test.ShouldBeTrue)
	before, _ := os.ReadFile(info.Path)

	_, ok = rc.Stop()
	test.That(t, ok, test.ShouldBeFalse)
	after, _ := os.ReadFile(info.Path)
	test.That(t, after, test.ShouldResemble, before)
}

func TestRecorderIgnoresReadingsWhenIdle(t *testing.T) {
	rc := NewRecordingController(testStorage(t))
	_, ok := rc.Record(magReading(1, 2, 3))
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRecorderSwallowsWriteErrors(t *testing.T) {
	sink := &flakySink{failRows: true, closeErr: errDiskFull}
	rc := NewRecordingController(testStorage(t),
		WithSinkOpener(func(string) (views.SessionSink, error) { return sink, nil }))

	_, err := rc.Start("flaky")
	test.That(t, err, test.ShouldBeNil)
	for i := 0; i < 3; i++ {
		_, ok := rc.Record(magReading(1, 2, 3))
		test.That(t, ok, test.ShouldBeTrue)
	}
	test.That(t, rc.Measuring(), test.ShouldBeTrue)

	sink.mu.Lock()
	sink.failRows = false
	sink.mu.Unlock()
	rc.Record(magReading(4, 5, 6))

	sum, ok := rc.Stop()
	test.That(t, ok, test.ShouldBeTrue)
	test.That(t, sum.WriteErrors, test.ShouldEqual, uint64(3))
	test.That(t, sum.Rows, test.ShouldEqual, uint64(1))
	test.That(t, sink.closed, test.ShouldBeTrue)

	lines := sink.Lines()
	test.That(t, lines[len(lines)-1], test.ShouldStartWith, views.EndTimeKey+",")
}

func TestRecorderOpenFailure(t *testing.T) {
	cfg := testStorage(t)
	cfg.Storage.BaseDir = cfg.Storage.BaseDir + "/missing/dir"
	rc := NewRecordingController(cfg)

	_, err := rc.Start("nowhere")
	test.That(t, err, test.ShouldNotBeNil)
	test.That(t, rc.Measuring(), test.ShouldBeFalse)
	_, ok := rc.Record(magReading(1, 1, 1))
	test.That(t, ok, test.ShouldBeFalse)
}

func TestRecorderRejectsSecondStart(t *testing.T) {
	rc := NewRecordingController(testStorage(t))
	first, err := rc.Start("one")
	test.That(t, err, test.ShouldBeNil)
	rc.Record(magReading(1, 2, 3))

	_, err = rc.Start("two")
	test.That(t, errors.Is(err, ErrAlreadyRecording), test.ShouldBeTrue)
	_, err = os.Stat(rc.PathFor("two"))
	test.That(t, errors.Is(err, os.ErrNotExist), test.ShouldBeTrue)

	sum, _ := rc.Stop()
	test.That(t, sum.Path, test.ShouldEqual, first.Path)
	test.That(t, sum.Rows, test.ShouldEqual, uint64(1))
}

func TestRecorderOverwriteOff(t *testing.T) {
	cfg := testStorage(t)
	cfg.Storage.Overwrite = false
	rc := NewRecordingController(cfg)
	test.That(t, os.WriteFile(rc.PathFor("taken"), []byte("old"), 0644), test.ShouldBeNil)

	_, err := rc.Start("taken")
	test.That(t, errors.Is(err, views.ErrFileExists), test.ShouldBeTrue)
}

func TestRecorderUnknownKindRow(t *testing.T) {
	sink := &flakySink{}
	rc := NewRecordingController(testStorage(t), WithClock(newManualClock()),
		WithSinkOpener(func(string) (views.SessionSink, error) { return sink, nil }))
	_, err := rc.Start("light")
	test.That(t, err, test.ShouldBeNil)
	rc.Record(models.Reading{Kind: models.SensorKind(99), Values: []float32{300}})
	rc.Stop()

	test.That(t, sink.Lines()[2], test.ShouldEqual, "0.00000000,unknown,300.0,0.0,0.0")
}

func TestRecorderPeriodicFlush(t *testing.T) {
	cfg := testStorage(t)
	rc := NewRecordingController(cfg)
	info, err := rc.Start("flush")
	test.That(t, err, test.ShouldBeNil)
	rc.Record(magReading(1, 2, 3))

	deadline := time.Now().Add(2 * time.Second)
	for time.Now().Before(deadline) {
		data, _ := os.ReadFile(info.Path)
		if strings.Count(string(data), "\n") >= 3 {
			break
		}
		time.Sleep(5 * time.Millisecond)
	}
	data, _ := os.ReadFile(info.Path)
	test.That(t, strings.Count(string(data), "\n"), test.ShouldEqual, 3)
	rc.Stop()
}

var _ utils.Clock = (*manualClock)(nil)

func TestRecorderConcurrentStartStop(t *testing.T) {
	cfg := testStorage(t)
	cfg.Storage.CSV.FlushIntervalMs = 1
	rc := NewRecordingController(cfg, WithSinkOpener(func(string) (views.SessionSink, error) {
		return &flakySink{}, nil
	}))

	for i := 0; i < 500; i++ {
		var wg sync.WaitGroup
		wg.Add(2)
		go func() {
			defer wg.Done()
			rc.Start("race")
		}()
		go func() {
			defer wg.Done()
			rc.Stop()
		}()
		wg.Wait()
		rc.Stop()
		test.That(t, rc.Measuring(), test.ShouldBeFalse)
	}

	_, err := rc.Start("after")
	test.That(t, err, test.ShouldBeNil)
	_, ok := rc.Stop()
	test.That(t, ok, test.ShouldBeTrue)
}
