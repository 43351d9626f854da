package ingest

import (
	"context"
	"testing"
	"time"

	"go.viam.com/test"

	"motion-logger/models"
	"motion-logger/utils"
	"motion-logger/views"
)

func drain(ch <-chan models.Reading) []models.Reading {
	var out []models.Reading
	for r := range ch {
		out = append(out, r)
	}
	return out
}

func TestSimReaderProducesAndCloses(t *testing.T) {
	for _, kind := range append(models.KnownKinds(), models.KindUnknown) {
		r := NewSimReader(kind, utils.SensorConfig{ChannelBuffer: 1024}, time.Millisecond, 7)
		ctx, cancel := context.WithCancel(context.Background())
		r.Start(ctx)
		time.Sleep(30 * time.Millisecond)
		cancel()

		got := drain(r.Out())
		test.That(t, len(got), test.ShouldBeGreaterThan, 0)
		test.That(t, got[0].Kind, test.ShouldEqual, kind)
		test.That(t, r.Kind(), test.ShouldEqual, kind)

		want := 3
		if kind == models.KindPressure || kind == models.KindUnknown {
			want = 1
		}
		test.That(t, got[0].Values, test.ShouldHaveLength, want)

		produced, _ := r.Stats()
		test.That(t, produced, test.ShouldEqual, uint64(len(got)))
	}
}

func TestSimReaderDropsWhenFull(t *testing.T) {
	r := NewSimReader(models.KindGyroscope, utils.SensorConfig{ChannelBuffer: 1}, time.Millisecond, 1)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	time.Sleep(40 * time.Millisecond)
	cancel()
	drain(r.Out())

	produced, dropped := r.Stats()
	test.That(t, produced, test.ShouldBeGreaterThanOrEqualTo, uint64(1))
	test.That(t, dropped, test.ShouldBeGreaterThan, uint64(0))
}

func replayFile() *views.SessionFile {
	return &views.SessionFile{Samples: []models.Sample{
		{RelativeTime: 0.001, Kind: models.KindMagnetometer, X: 1, Y: 2, Z: 3},
		{RelativeTime: 0.002, Kind: models.KindAccelerometer, X: 9},
		{RelativeTime: 0.004, Kind: models.KindMagnetometer, X: 4, Y: 5, Z: 6},
	}}
}

func TestReplayReaderEmitsOwnKindInOrder(t *testing.T) {
	r := NewReplayReader(models.KindMagnetometer, utils.SensorConfig{}, replayFile(), 1, false)
	test.That(t, r.Len(), test.ShouldEqual, 2)

	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)

	first := <-r.Out()
	second := <-r.Out()
	cancel()
	rest := drain(r.Out())

	test.That(t, first.Values, test.ShouldResemble, []float32{1, 2, 3})
	test.That(t, second.Values, test.ShouldResemble, []float32{4, 5, 6})
	test.That(t, rest, test.ShouldBeEmpty)
}

func TestReplayReaderLoops(t *testing.T) {
	r := NewReplayReader(models.KindAccelerometer, utils.SensorConfig{ChannelBuffer: 16}, replayFile(), 1, true)
	ctx, cancel := context.WithCancel(context.Background())
	r.Start(ctx)
	for i := 0; i < 3; i++ {
		rd := <-r.Out()
		test.That(t, rd.Values[0], test.ShouldEqual, float32(9))
	}
	cancel()
	drain(r.Out())
}

func TestReplayFactorySkipsAbsentSensors(t *testing.T) {
	cfg := utils.DefaultSensorsConfig()
	f := ReplayFactory(cfg, replayFile())
	test.That(t, f(models.KindPressure, utils.SensorConfig{}, 0), test.ShouldBeNil)
	test.That(t, f(models.KindMagnetometer, utils.SensorConfig{}, 0), test.ShouldNotBeNil)
}
