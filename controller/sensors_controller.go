package controller

import (
	"context"
	"sync"

	"motion-logger/models"
	"motion-logger/services/ingest"
	"motion-logger/utils"
)

// Listener receives every delivered reading. It is called from one
// goroutine per sensor and must not block for long.
type Listener func(models.Reading)

// SensorsController owns the subscription to the sensor readers: one reader
// plus one delivery goroutine per available sensor.
type SensorsController struct {
	cfg     *utils.SensorsConfig
	factory ingest.Factory

	mu      sync.Mutex
	readers []ingest.Reader
	cancel  context.CancelFunc
	wg      sync.WaitGroup
}

// NewSensorsController binds a reader factory to the sensor config.
func NewSensorsController(cfg *utils.SensorsConfig, factory ingest.Factory) *SensorsController {
	return &SensorsController{cfg: cfg, factory: factory}
}

// Available performs the capability lookup without subscribing.
func (sc *SensorsController) Available() []models.SensorKind {
	var out []models.SensorKind
	for _, kind := range models.KnownKinds() {
		if r := sc.lookup(kind); r != nil {
			out = append(out, kind)
		}
	}
	return out
}

func (sc *SensorsController) lookup(kind models.SensorKind) ingest.Reader {
	s, ok := sc.cfg.Sensor(kind.String())
	if !ok || !s.Available {
		return nil
	}
	return sc.factory(kind, s, sc.cfg.Interval(s))
}

// Start registers every available sensor and delivers its readings to l.
// Missing sensors are skipped. Calling Start while subscribed is a no-op.
func (sc *SensorsController) Start(ctx context.Context, l Listener) []models.SensorKind {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.cancel != nil {
		return sc.kindsLocked()
	}

	ctx, sc.cancel = context.WithCancel(ctx)
	for _, kind := range models.KnownKinds() {
		r := sc.lookup(kind)
		if r == nil {
			utils.L().Debug("sensor %s not available, skipping", kind)
			continue
		}
		sc.readers = append(sc.readers, r)
		r.Start(ctx)

		sc.wg.Add(1)
		go func(r ingest.Reader) {
			defer sc.wg.Done()
			for rd := range r.Out() {
				l(rd)
			}
		}(r)
	}
	utils.L().Info("sensors controller: %d sensor(s) registered", len(sc.readers))
	return sc.kindsLocked()
}

func (sc *SensorsController) kindsLocked() []models.SensorKind {
	out := make([]models.SensorKind, 0, len(sc.readers))
	for _, r := range sc.readers {
		out = append(out, r.Kind())
	}
	return out
}

// Stop unregisters every reader and waits until no delivery is in flight.
// Safe to call when not subscribed.
func (sc *SensorsController) Stop() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	if sc.cancel == nil {
		return
	}
	sc.cancel()
	sc.cancel = nil
	// listeners never take sc.mu, so waiting under it cannot deadlock
	sc.wg.Wait()

	sc.logStatsLocked()
	sc.readers = nil
}

// Running reports whether readers are registered.
func (sc *SensorsController) Running() bool {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	return sc.cancel != nil
}

// LogStats prints current produce/drop counters for each active sensor.
func (sc *SensorsController) LogStats() {
	sc.mu.Lock()
	defer sc.mu.Unlock()
	sc.logStatsLocked()
}

func (sc *SensorsController) logStatsLocked() {
	for _, r := range sc.readers {
		p, d := r.Stats()
		utils.L().Info("  %-5s produced=%d  dropped=%d", r.Kind(), p, d)
	}
}
