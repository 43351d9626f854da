package main

import (
	"context"
	"errors"
	"fmt"
	"os"
	"os/signal"
	"path/filepath"
	"runtime"
	"sort"
	"syscall"
	"time"

	tea "github.com/charmbracelet/bubbletea"
	"github.com/urfave/cli/v2"
	"go.uber.org/multierr"

	"motion-logger/controller"
	"motion-logger/models"
	"motion-logger/services/catalog"
	"motion-logger/services/ingest"
	"motion-logger/ui"
	"motion-logger/utils"
	"motion-logger/views"
)

const (
	flagSensors  = "sensors"
	flagStorage  = "storage"
	flagLog      = "log"
	flagLogLevel = "log-level"
	flagName     = "name"
	flagDuration = "duration"
	flagLimit    = "limit"
)

func main() {
	cliApp := &cli.App{
		Name:  "motion-logger",
		Usage: "record accelerometer, gyroscope, magnetometer and pressure samples to CSV",
		Flags: []cli.Flag{
			&cli.StringFlag{Name: flagSensors, Value: "config/sensors.yaml", Usage: "path to sensors.yaml"},
			&cli.StringFlag{Name: flagStorage, Value: "config/storage.yaml", Usage: "path to storage.yaml"},
			&cli.StringFlag{Name: flagLog, Usage: "optional log file path"},
			&cli.StringFlag{Name: flagLogLevel, Value: "info", Usage: "debug | info | warn | error"},
		},
		DefaultCommand: "run",
		Commands: []*cli.Command{
			{
				Name:   "run",
				Usage:  "interactive recorder with live magnetometer chart",
				Flags:  []cli.Flag{&cli.StringFlag{Name: flagName, Usage: "pre-filled session file name"}},
				Action: runInteractive,
			},
			{
				Name:  "record",
				Usage: "record one session without the terminal UI",
				Flags: []cli.Flag{
					&cli.StringFlag{Name: flagName, Required: true, Usage: "session file name (without .csv)"},
					&cli.DurationFlag{Name: flagDuration, Usage: "stop after this long; 0 waits for Ctrl+C"},
				},
				Action: runHeadless,
			},
			{
				Name:   "sessions",
				Usage:  "list recorded sessions from the catalog",
				Flags:  []cli.Flag{&cli.IntFlag{Name: flagLimit, Value: 20, Usage: "maximum sessions to show; 0 = all"}},
				Action: listSessions,
			},
			{
				Name:      "inspect",
				Usage:     "summarise a session CSV file",
				ArgsUsage: "<file.csv>",
				Action:    inspectSession,
			},
		},
	}

	if err := cliApp.Run(os.Args); err != nil {
		fmt.Fprintln(os.Stderr, "error:", err)
		os.Exit(1)
	}
}

// ── Config & wiring ─────────────────────────────────────────────────────

func initLogger(c *cli.Context, console bool) *utils.Logger {
	return utils.InitLogger(utils.LogOptions{
		Level:   utils.ParseLogLevel(c.String(flagLogLevel)),
		File:    c.String(flagLog),
		Console: console,
	})
}

func loadConfigs(c *cli.Context) (*utils.SensorsConfig, *utils.StorageConfig, error) {
	sensorsCfg, err := utils.LoadSensorsConfig(c.String(flagSensors))
	if errors.Is(err, os.ErrNotExist) && !c.IsSet(flagSensors) {
		utils.L().Warn("%s not found, using built-in sensor defaults", c.String(flagSensors))
		sensorsCfg, err = utils.DefaultSensorsConfig(), nil
	}
	if err != nil {
		return nil, nil, err
	}

	storageCfg, err := utils.LoadStorageConfig(c.String(flagStorage))
	if errors.Is(err, os.ErrNotExist) && !c.IsSet(flagStorage) {
		utils.L().Warn("%s not found, using built-in storage defaults", c.String(flagStorage))
		storageCfg, err = utils.DefaultStorageConfig(), nil
	}
	if err != nil {
		return nil, nil, err
	}

	// Resolve relative base_dir to absolute.
	if !filepath.IsAbs(storageCfg.Storage.BaseDir) {
		if abs, err := filepath.Abs(storageCfg.Storage.BaseDir); err == nil {
			storageCfg.Storage.BaseDir = abs
		}
	}
	return sensorsCfg, storageCfg, nil
}

type app struct {
	ctrl    *controller.SessionController
	sensors *controller.SensorsController
	store   *catalog.Store
}

func (a *app) Close() error {
	a.ctrl.StopSession()
	if a.store != nil {
		return a.store.Close()
	}
	return nil
}

func buildApp(sensorsCfg *utils.SensorsConfig, storageCfg *utils.StorageConfig) (*app, error) {
	var factory ingest.Factory
	switch sensorsCfg.Driver {
	case "replay":
		file, err := views.ReadSessionFile(sensorsCfg.Replay.Path)
		if err != nil {
			return nil, fmt.Errorf("load replay source: %w", err)
		}
		factory = ingest.ReplayFactory(sensorsCfg, file)
	default:
		factory = ingest.SimFactory(sensorsCfg)
	}

	a := &app{sensors: controller.NewSensorsController(sensorsCfg, factory)}

	var cat controller.SessionCatalog
	if path := storageCfg.Storage.Catalog; path != "" {
		store, err := catalog.Open(path)
		if err != nil {
			// the catalog is an index only; recording works without it
			utils.L().Error("open catalog: %v", err)
		} else {
			a.store = store
			cat = store
		}
	}

	a.ctrl = controller.NewSessionController(controller.SessionDeps{
		Sensors:  a.sensors,
		Recorder: controller.NewRecordingController(storageCfg),
		Plot:     views.NewMagPlot(storageCfg.Chart.WindowSeconds),
		Gate:     controller.DirGate{Create: true},
		Catalog:  cat,
		Storage:  storageCfg,
	})
	return a, nil
}

func signalContext() (context.Context, context.CancelFunc) {
	return signal.NotifyContext(context.Background(), syscall.SIGINT, syscall.SIGTERM)
}

// ── Commands ────────────────────────────────────────────────────────────

func runInteractive(c *cli.Context) (err error) {
	logger := initLogger(c, false)
	defer logger.Close()

	sensorsCfg, storageCfg, err := loadConfigs(c)
	if err != nil {
		return err
	}
	a, err := buildApp(sensorsCfg, storageCfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()

	ctx, cancel := signalContext()
	defer cancel()

	p := tea.NewProgram(ui.New(ctx, a.ctrl, c.String(flagName)), tea.WithAltScreen(), tea.WithContext(ctx))
	if _, err := p.Run(); err != nil && !errors.Is(err, tea.ErrProgramKilled) {
		return fmt.Errorf("terminal ui: %w", err)
	}
	return nil
}

func runHeadless(c *cli.Context) (err error) {
	logger := initLogger(c, true)
	defer logger.Close()

	utils.L().Info("motion-logger  GOMAXPROCS=%d  PID=%d", runtime.GOMAXPROCS(0), os.Getpid())

	sensorsCfg, storageCfg, err := loadConfigs(c)
	if err != nil {
		return err
	}
	a, err := buildApp(sensorsCfg, storageCfg)
	if err != nil {
		return err
	}
	defer func() { err = multierr.Append(err, a.Close()) }()

	ctx, cancel := signalContext()
	defer cancel()
	if d := c.Duration(flagDuration); d > 0 {
		var timerCancel context.CancelFunc
		ctx, timerCancel = context.WithTimeout(ctx, d)
		defer timerCancel()
		utils.L().Info("recording will auto-stop after %s", d)
	}

	started, err := a.ctrl.StartSession(ctx, c.String(flagName))
	if err != nil {
		return err
	}
	if !started {
		return errors.New("session could not be started, see log")
	}
	utils.L().Info("recording, press Ctrl+C to stop")

	statsTicker := time.NewTicker(5 * time.Second)
	defer statsTicker.Stop()

loop:
	for {
		select {
		case <-ctx.Done():
			break loop
		case <-statsTicker.C:
			a.sensors.LogStats()
			utils.L().Info("  rows written: %d", a.ctrl.Rows())
		}
	}

	sum, ok := a.ctrl.StopSession()
	if ok {
		fmt.Printf("✓ %s  rows=%d  duration=%ds\n", sum.Path, sum.Rows, sum.DurationSeconds())
	}
	return nil
}

func listSessions(c *cli.Context) error {
	logger := initLogger(c, true)
	defer logger.Close()

	_, storageCfg, err := loadConfigs(c)
	if err != nil {
		return err
	}
	if storageCfg.Storage.Catalog == "" {
		return errors.New("no catalog configured (storage.catalog)")
	}
	store, err := catalog.Open(storageCfg.Storage.Catalog)
	if err != nil {
		return err
	}
	defer store.Close()

	entries, err := store.List(c.Int(flagLimit))
	if err != nil {
		return err
	}
	for _, e := range entries {
		end := "-"
		if e.EndedAt != nil {
			end = utils.FormatUTC(*e.EndedAt)
		}
		fmt.Printf("%-36s  %-8s  %s  %s  %5ds  rows=%-8d  %s\n",
			e.ID, e.Status, utils.FormatUTC(e.StartedAt), end,
			int64(e.Duration/time.Second), e.Rows, e.Path)
	}
	return nil
}

func inspectSession(c *cli.Context) error {
	if c.NArg() != 1 {
		return cli.Exit("inspect needs exactly one file", 2)
	}
	f, err := views.ReadSessionFile(c.Args().First())
	if err != nil {
		return err
	}

	fmt.Printf("start:    %s\n", utils.FormatUTC(f.Start))
	if f.Complete() {
		fmt.Printf("end:      %s (%ds)\n", utils.FormatUTC(f.End), int64(f.End.Sub(f.Start)/time.Second))
	} else {
		fmt.Println("end:      - (session not closed)")
	}
	fmt.Printf("span:     %.3fs\n", f.Span())
	fmt.Printf("rows:     %d\n", len(f.Samples))

	counts := f.CountByKind()
	kinds := make([]models.SensorKind, 0, len(counts))
	for k := range counts {
		kinds = append(kinds, k)
	}
	sort.Slice(kinds, func(i, j int) bool { return kinds[i] < kinds[j] })
	for _, k := range kinds {
		fmt.Printf("  %-7s %d\n", k, counts[k])
	}
	return nil
}
