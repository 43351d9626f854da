package ingest

import (
	"context"
	"math"
	"math/rand"
	"time"

	"motion-logger/models"
	"motion-logger/utils"
)

// SimReader synthesises plausible readings for one sensor kind.
type SimReader struct {
	pump
	interval time.Duration
	rng      *rand.Rand
}

// NewSimReader creates a simulated sensor sampling every interval.
func NewSimReader(kind models.SensorKind, cfg utils.SensorConfig, interval time.Duration, seed int64) *SimReader {
	if interval <= 0 {
		interval = 5 * time.Millisecond
	}
	if seed == 0 {
		seed = time.Now().UnixNano()
	}
	return &SimReader{
		pump:     newPump(kind, cfg.ChannelBuffer),
		interval: interval,
		rng:      rand.New(rand.NewSource(seed + int64(kind))),
	}
}

// SimFactory makes every configured sensor available as a simulation.
func SimFactory(cfg *utils.SensorsConfig) Factory {
	return func(kind models.SensorKind, sc utils.SensorConfig, interval time.Duration) Reader {
		return NewSimReader(kind, sc, interval, cfg.Simulation.Seed)
	}
}

// Start launches the sampling goroutine.
func (r *SimReader) Start(ctx context.Context) {
	go r.run(ctx)
	utils.L().Info("%-5s reader started (interval=%s, buffer=%d, simulate=true)",
		r.kind, r.interval, cap(r.out))
}

func (r *SimReader) run(ctx context.Context) {
	defer close(r.out)

	ticker := time.NewTicker(r.interval)
	defer ticker.Stop()

	var step float64
	for {
		select {
		case <-ctx.Done():
			p, d := r.Stats()
			utils.L().Info("%-5s reader stopped (produced=%d, dropped=%d)", r.kind, p, d)
			return
		case <-ticker.C:
			r.emit(r.read(step))
			step += r.interval.Seconds()
		}
	}
}

func (r *SimReader) noise(scale float64) float32 {
	return float32(r.rng.NormFloat64() * scale)
}

func (r *SimReader) read(t float64) models.Reading {
	rd := models.Reading{Kind: r.kind, TimestampNs: utils.NowNano()}

	switch r.kind {
	case models.KindAccelerometer: // m/s², device lying roughly flat
		rd.Values = []float32{
			float32(0.2*math.Sin(t)) + r.noise(0.02),
			float32(0.1*math.Cos(t)) + r.noise(0.02),
			9.81 + r.noise(0.05),
		}
	case models.KindGyroscope: // rad/s
		rd.Values = []float32{
			float32(0.01*math.Sin(2*t)) + r.noise(0.002),
			float32(0.01*math.Cos(2*t)) + r.noise(0.002),
			r.noise(0.001),
		}
	case models.KindMagnetometer: // µT, slow yaw rotation through the earth field
		yaw := 0.2 * t
		rd.Values = []float32{
			float32(30*math.Cos(yaw)) + r.noise(0.3),
			float32(30*math.Sin(yaw)) + r.noise(0.3),
			-40 + r.noise(0.3),
		}
	case models.KindPressure: // hPa, single axis
		rd.Values = []float32{1013.25 + float32(0.05*math.Sin(t/10)) + r.noise(0.01)}
	default:
		rd.Values = []float32{r.noise(1)}
	}
	return rd
}
