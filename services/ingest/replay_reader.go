package ingest

import (
	"context"
	"time"

	"motion-logger/models"
	"motion-logger/utils"
	"motion-logger/views"
)

// ReplayReader re-emits the samples of one sensor from a recorded session,
// spaced by their recorded relative times.
type ReplayReader struct {
	pump
	samples []models.Sample
	speed   float64
	loop    bool
	span    float64
}

// NewReplayReader filters file down to kind. speed scales playback (2 = twice as fast).
func NewReplayReader(kind models.SensorKind, cfg utils.SensorConfig, file *views.SessionFile, speed float64, loop bool) *ReplayReader {
	if speed <= 0 {
		speed = 1
	}
	var own []models.Sample
	for _, s := range file.Samples {
		if s.Kind == kind {
			own = append(own, s)
		}
	}
	return &ReplayReader{
		pump:    newPump(kind, cfg.ChannelBuffer),
		samples: own,
		speed:   speed,
		loop:    loop,
		span:    file.Span(),
	}
}

// ReplayFactory exposes only the sensors that appear in the recording.
func ReplayFactory(cfg *utils.SensorsConfig, file *views.SessionFile) Factory {
	return func(kind models.SensorKind, sc utils.SensorConfig, _ time.Duration) Reader {
		r := NewReplayReader(kind, sc, file, cfg.Replay.Speed, cfg.Replay.Loop)
		if len(r.samples) == 0 {
			return nil
		}
		return r
	}
}

// Len is the number of samples one pass emits.
func (r *ReplayReader) Len() int { return len(r.samples) }

// Start launches the playback goroutine.
func (r *ReplayReader) Start(ctx context.Context) {
	go r.run(ctx)
	utils.L().Info("%-5s replay started  (samples=%d, speed=%.2f, loop=%v)",
		r.kind, len(r.samples), r.speed, r.loop)
}

func (r *ReplayReader) run(ctx context.Context) {
	defer close(r.out)

	origin := time.Now()
	var offset float64
	timer := time.NewTimer(0)
	defer timer.Stop()
	<-timer.C

	for {
		for _, s := range r.samples {
			due := origin.Add(time.Duration((offset + s.RelativeTime) / r.speed * float64(time.Second)))
			timer.Reset(time.Until(due))
			select {
			case <-ctx.Done():
				r.logStopped()
				return
			case <-timer.C:
			}
			r.emit(models.Reading{
				Kind:        r.kind,
				TimestampNs: utils.NowNano(),
				Values:      []float32{s.X, s.Y, s.Z},
			})
		}
		if !r.loop || r.span <= 0 {
			break
		}
		offset += r.span
	}
	// one pass done; hold the channel open until unsubscribed
	<-ctx.Done()
	r.logStopped()
}

func (r *ReplayReader) logStopped() {
	p, d := r.Stats()
	utils.L().Info("%-5s replay stopped  (produced=%d, dropped=%d)", r.kind, p, d)
}
