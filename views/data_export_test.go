package views

import (
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"
	"time"

	"go.viam.com/test"

	"motion-logger/models"
)

func TestSessionWriterLayout(t *testing.T) {
	path := filepath.Join(t.TempDir(), "walk"+FileExt)
	w, err := CreateSessionWriter(path, 0, true)
	test.That(t, err, test.ShouldBeNil)

	start := time.Date(2026, 10, 14, 8, 30, 0, 123000000, time.UTC)
	test.That(t, w.WriteStart(start), test.ShouldBeNil)
	s := models.NewSample(12.0, models.Reading{Kind: models.KindMagnetometer, Values: []float32{1, 2, 3}})
	test.That(t, w.WriteRow(s.CSVRow()), test.ShouldBeNil)
	test.That(t, w.WriteEnd(start.Add(3*time.Second)), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)
	test.That(t, w.Rows(), test.ShouldEqual, uint64(1))

	data, err := os.ReadFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, string(data), test.ShouldEqual, strings.Join([]string{
		"StartTimeUTC,2026-10-14T08:30:00.123Z",
		"time_since_start(s),sensor,x,y,z",
		"12.00000000,mag,1.0,2.0,3.0",
		"EndTimeUTC,2026-10-14T08:30:03.123Z",
		"",
	}, "\n"))
}

func TestSessionWriterNoOverwrite(t *testing.T) {
	path := filepath.Join(t.TempDir(), "dup"+FileExt)
	test.That(t, os.WriteFile(path, []byte("keep"), 0644), test.ShouldBeNil)

	_, err := CreateSessionWriter(path, 0, false)
	test.That(t, errors.Is(err, ErrFileExists), test.ShouldBeTrue)

	data, _ := os.ReadFile(path)
	test.That(t, string(data), test.ShouldEqual, "keep")

	w, err := CreateSessionWriter(path, 0, true)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)
	data, _ = os.ReadFile(path)
	test.That(t, data, test.ShouldBeEmpty)
}

func TestCreateSessionWriterMissingDir(t *testing.T) {
	_, err := CreateSessionWriter(filepath.Join(t.TempDir(), "nope", "x.csv"), 0, true)
	test.That(t, err, test.ShouldNotBeNil)
}

func TestReadSessionRoundTrip(t *testing.T) {
	path := filepath.Join(t.TempDir(), "rt"+FileExt)
	w, err := CreateSessionWriter(path, 0, true)
	test.That(t, err, test.ShouldBeNil)
	start := time.Date(2026, 1, 2, 3, 4, 5, 0, time.UTC)
	test.That(t, w.WriteStart(start), test.ShouldBeNil)
	in := []models.Sample{
		{RelativeTime: 0.001, Kind: models.KindAccelerometer, X: 0.1, Y: 9.8, Z: -0.2},
		{RelativeTime: 0.002, Kind: models.KindPressure, X: 1013.25},
		{RelativeTime: 0.003, Kind: models.KindUnknown, X: 1},
	}
	for _, s := range in {
		test.That(t, w.WriteRow(s.CSVRow()), test.ShouldBeNil)
	}
	test.That(t, w.WriteEnd(start.Add(time.Second)), test.ShouldBeNil)
	test.That(t, w.Close(), test.ShouldBeNil)

	f, err := ReadSessionFile(path)
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Start.Equal(start), test.ShouldBeTrue)
	test.That(t, f.Complete(), test.ShouldBeTrue)
	test.That(t, f.Samples, test.ShouldResemble, in)
	test.That(t, f.Span(), test.ShouldAlmostEqual, 0.003)
	test.That(t, f.CountByKind()[models.KindPressure], test.ShouldEqual, 1)
}

func TestReadSessionTruncated(t *testing.T) {
	f, err := ReadSession(strings.NewReader(
		"StartTimeUTC,2026-01-02T03:04:05.000Z\ntime_since_start(s),sensor,x,y,z\n0.5,gyro,1.0,2.0,3.0\n"))
	test.That(t, err, test.ShouldBeNil)
	test.That(t, f.Complete(), test.ShouldBeFalse)
	test.That(t, f.Samples, test.ShouldHaveLength, 1)
}

func TestReadSessionMalformed(t *testing.T) {
	for _, in := range []string{
		"",
		"hello,world\n",
		"StartTimeUTC,yesterday\n",
		"StartTimeUTC,2026-01-02T03:04:05.000Z\nnot,a,header\n",
		"StartTimeUTC,2026-01-02T03:04:05.000Z\ntime_since_start(s),sensor,x,y,z\nabc,mag,1,2,3\n",
		"StartTimeUTC,2026-01-02T03:04:05.000Z\ntime_since_start(s),sensor,x,y,z\n0.1,mag,1,2\n",
	} {
		_, err := ReadSession(strings.NewReader(in))
		test.That(t, errors.Is(err, ErrMalformedSession), test.ShouldBeTrue)
	}
}
