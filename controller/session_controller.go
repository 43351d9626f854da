package controller

import (
	"context"
	"errors"
	"strings"
	"sync"
	"sync/atomic"

	"motion-logger/models"
	"motion-logger/utils"
	"motion-logger/views"
)

// ErrEmptyFilename rejects a start without a usable session name.
var ErrEmptyFilename = errors.New("please enter a file name")

// SessionCatalog indexes recorded sessions. Failures are logged only.
type SessionCatalog interface {
	Begin(info models.SessionInfo) error
	Finish(sum models.SessionSummary) error
}

// SessionController is the glue behind the start/stop controls: it drives
// the subscription, the recorder and the magnetometer plot, and keeps the
// latest sample for display.
type SessionController struct {
	sensors  *SensorsController
	recorder *RecordingController
	plot     *views.MagPlot
	gate     PermissionGate
	catalog  SessionCatalog
	chart    utils.ChartConfig
	baseDir  string

	latest    atomic.Pointer[models.Sample]
	delivered atomic.Uint64

	// lifecycle serialises StartSession and StopSession.
	lifecycle sync.Mutex

	mu   sync.Mutex
	last *models.SessionSummary
}

// SessionDeps groups the collaborators of a SessionController.
type SessionDeps struct {
	Sensors  *SensorsController
	Recorder *RecordingController
	Plot     *views.MagPlot
	Gate     PermissionGate // nil grants everything
	Catalog  SessionCatalog // optional
	Storage  *utils.StorageConfig
}

func NewSessionController(d SessionDeps) *SessionController {
	gate := d.Gate
	if gate == nil {
		gate = AllowAll{}
	}
	return &SessionController{
		sensors:  d.Sensors,
		recorder: d.Recorder,
		plot:     d.Plot,
		gate:     gate,
		catalog:  d.Catalog,
		chart:    d.Storage.Chart,
		baseDir:  d.Storage.Storage.BaseDir,
	}
}

// StartSession validates name and the output location, then resets the
// plot, opens the session and subscribes to the sensors.
//
// The returned error is meant for the user: empty name, denied permission,
// or a session already open. Failure to open the file is only logged and
// reported as started == false with a nil error.
func (c *SessionController) StartSession(ctx context.Context, name string) (bool, error) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	name = strings.TrimSpace(name)
	if name == "" {
		return false, ErrEmptyFilename
	}
	if c.recorder.Measuring() {
		return false, ErrAlreadyRecording
	}
	if err := c.gate.Check(c.baseDir); err != nil {
		return false, err
	}

	c.plot.Reset()
	c.latest.Store(nil)

	info, err := c.recorder.Start(name)
	if errors.Is(err, ErrAlreadyRecording) {
		return false, err
	}
	if err != nil {
		utils.L().Error("start session %q: %v", name, err)
		return false, nil
	}

	if c.catalog != nil {
		if err := c.catalog.Begin(info); err != nil {
			utils.L().Warn("catalog begin %s: %v", info.ID, err)
		}
	}

	c.sensors.Start(ctx, c.OnReading)
	return true, nil
}

// StopSession unsubscribes and closes the session. Both steps run
// unconditionally; ok is false when nothing was being recorded.
func (c *SessionController) StopSession() (models.SessionSummary, bool) {
	c.lifecycle.Lock()
	defer c.lifecycle.Unlock()

	c.sensors.Stop()
	sum, ok := c.recorder.Stop()
	if !ok {
		return sum, false
	}

	if c.chart.ExportPNG {
		c.exportChart(sum)
	}
	if c.catalog != nil {
		if err := c.catalog.Finish(sum); err != nil {
			utils.L().Warn("catalog finish %s: %v", sum.ID, err)
		}
	}

	c.mu.Lock()
	c.last = &sum
	c.mu.Unlock()
	return sum, true
}

func (c *SessionController) exportChart(sum models.SessionSummary) {
	path := ChartPath(sum.Path)
	err := c.plot.ExportPNGFile(path, c.chart.Width, c.chart.Height)
	switch {
	case errors.Is(err, views.ErrNotEnoughPoints):
		utils.L().Debug("chart export skipped: %v", err)
	case err != nil:
		utils.L().Error("chart export: %v", err)
	default:
		utils.L().Info("chart saved to %s", path)
	}
}

// ChartPath is where the magnetometer chart of a session file is written.
func ChartPath(sessionPath string) string {
	return strings.TrimSuffix(sessionPath, views.FileExt) + "_mag.png"
}

// OnReading is the sensor listener: persist, plot magnetometer samples and
// remember the latest one for display. Readings outside a session are dropped.
func (c *SessionController) OnReading(r models.Reading) {
	s, ok := c.recorder.Record(r)
	if !ok {
		return
	}
	c.plot.Append(s)
	c.latest.Store(&s)
	c.delivered.Add(1)
}

// Latest returns the most recently delivered sample of the session.
func (c *SessionController) Latest() (models.Sample, bool) {
	p := c.latest.Load()
	if p == nil {
		return models.Sample{}, false
	}
	return *p, true
}

// Delivered counts samples handled since the process started.
func (c *SessionController) Delivered() uint64 { return c.delivered.Load() }

// Recording reports the state machine position.
func (c *SessionController) Recording() bool { return c.recorder.Measuring() }

// Session returns the open session, if any.
func (c *SessionController) Session() (models.SessionInfo, bool) { return c.recorder.Session() }

// LastSummary returns the most recently stopped session.
func (c *SessionController) LastSummary() (models.SessionSummary, bool) {
	c.mu.Lock()
	defer c.mu.Unlock()
	if c.last == nil {
		return models.SessionSummary{}, false
	}
	return *c.last, true
}

// Plot exposes the magnetometer plot for rendering.
func (c *SessionController) Plot() *views.MagPlot { return c.plot }

// Sensors exposes the subscription for capability display.
func (c *SessionController) Sensors() *SensorsController { return c.sensors }

// Rows returns the rows written in the current or last session.
func (c *SessionController) Rows() uint64 { return c.recorder.RowsWritten() }
