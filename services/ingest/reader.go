package ingest

import (
	"context"
	"sync/atomic"
	"time"

	"motion-logger/models"
	"motion-logger/utils"
)

// Reader is one subscribed sensor. Start launches a goroutine that pushes
// readings onto Out until ctx is cancelled, then closes Out.
type Reader interface {
	Kind() models.SensorKind
	Start(ctx context.Context)
	Out() <-chan models.Reading
	Stats() (produced, dropped uint64)
}

// Factory builds a reader for kind, or returns nil when the device has no
// such sensor.
type Factory func(kind models.SensorKind, cfg utils.SensorConfig, interval time.Duration) Reader

// pump is the buffered, non-blocking output shared by all readers.
type pump struct {
	kind     models.SensorKind
	out      chan models.Reading
	produced uint64
	dropped  uint64
}

func newPump(kind models.SensorKind, buf int) pump {
	if buf <= 0 {
		buf = 256
	}
	return pump{kind: kind, out: make(chan models.Reading, buf)}
}

func (p *pump) Kind() models.SensorKind { return p.kind }
func (p *pump) Out() <-chan models.Reading { return p.out }

// Stats returns (produced, dropped) counts atomically.
func (p *pump) Stats() (uint64, uint64) {
	return atomic.LoadUint64(&p.produced), atomic.LoadUint64(&p.dropped)
}

// emit never blocks: if the consumer is behind, the reading is dropped so
// the sampling loop keeps its cadence.
func (p *pump) emit(r models.Reading) {
	select {
	case p.out <- r:
		atomic.AddUint64(&p.produced, 1)
	default:
		if atomic.AddUint64(&p.dropped, 1)%1000 == 1 {
			utils.L().Warn("%s: dropping readings (consumer too slow, dropped=%d)",
				p.kind, atomic.LoadUint64(&p.dropped))
		}
	}
}
