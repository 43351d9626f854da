package utils

import (
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v3"
)

// ─── Sensor-level configs ───────────────────────────────────────────────

// Rate classes, loosely following the mobile sensor delay buckets.
const (
	RateFastest = "fastest"
	RateGame    = "game"
	RateUI      = "ui"
	RateNormal  = "normal"
)

// SensorConfig describes one subscribable sensor.
type SensorConfig struct {
	// Available mirrors the platform capability lookup. A sensor that is not
	// available is skipped without error.
	Available     bool   `yaml:"available"`
	Rate          string `yaml:"rate"`    // fastest | game | ui | normal
	RateHz        int    `yaml:"rate_hz"` // overrides Rate when > 0
	ChannelBuffer int    `yaml:"channel_buffer"`
}

type SimulationConfig struct {
	FastestIntervalMs int   `yaml:"fastest_interval_ms"`
	Seed              int64 `yaml:"seed"` // 0 = time based
}

type ReplayConfig struct {
	Path  string  `yaml:"path"`
	Loop  bool    `yaml:"loop"`
	Speed float64 `yaml:"speed"` // 1.0 = recorded pace
}

// SensorsConfig is the top-level structure for sensors.yaml.
type SensorsConfig struct {
	Driver  string `yaml:"driver"` // sim | replay
	Sensors struct {
		Accelerometer SensorConfig `yaml:"accelerometer"`
		Gyroscope     SensorConfig `yaml:"gyroscope"`
		Magnetometer  SensorConfig `yaml:"magnetometer"`
		Pressure      SensorConfig `yaml:"pressure"`
	} `yaml:"sensors"`
	Simulation SimulationConfig `yaml:"simulation"`
	Replay     ReplayConfig     `yaml:"replay"`
}

// Sensor returns the config block for a sensor by its short name
// (acc, gyro, mag, press). Unknown names report false.
func (c SensorsConfig) Sensor(name string) (SensorConfig, bool) {
	switch name {
	case "acc":
		return c.Sensors.Accelerometer, true
	case "gyro":
		return c.Sensors.Gyroscope, true
	case "mag":
		return c.Sensors.Magnetometer, true
	case "press":
		return c.Sensors.Pressure, true
	}
	return SensorConfig{}, false
}

// Interval resolves a sensor's sampling period.
func (c SensorsConfig) Interval(s SensorConfig) time.Duration {
	if s.RateHz > 0 {
		return time.Second / time.Duration(s.RateHz)
	}
	switch s.Rate {
	case RateGame:
		return 20 * time.Millisecond
	case RateUI:
		return 66 * time.Millisecond
	case RateNormal:
		return 200 * time.Millisecond
	}
	ms := c.Simulation.FastestIntervalMs
	if ms <= 0 {
		ms = 5
	}
	return time.Duration(ms) * time.Millisecond
}

// ─── Storage configs ────────────────────────────────────────────────────

type CSVStorageConfig struct {
	FlushIntervalMs int `yaml:"flush_interval_ms"`
	BufferSizeKB    int `yaml:"buffer_size_kb"`
}

type ChartConfig struct {
	WindowSeconds float64 `yaml:"window_seconds"`
	ExportPNG     bool    `yaml:"export_png"`
	Width         int     `yaml:"width"`
	Height        int     `yaml:"height"`
}

type StorageConfig struct {
	Storage struct {
		BaseDir   string           `yaml:"base_dir"`
		Overwrite bool             `yaml:"overwrite"`
		CSV       CSVStorageConfig `yaml:"csv"`
		Catalog   string           `yaml:"catalog"` // sqlite path; empty disables
	} `yaml:"storage"`
	Chart ChartConfig `yaml:"chart"`
}

// ─── Defaults ───────────────────────────────────────────────────────────

// DefaultSensorsConfig returns all four sensors available, motion sensors
// at the fastest rate and pressure at the normal rate, simulated.
func DefaultSensorsConfig() *SensorsConfig {
	cfg := &SensorsConfig{Driver: "sim"}
	motion := SensorConfig{Available: true, Rate: RateFastest}
	cfg.Sensors.Accelerometer = motion
	cfg.Sensors.Gyroscope = motion
	cfg.Sensors.Magnetometer = motion
	cfg.Sensors.Pressure = SensorConfig{Available: true, Rate: RateNormal}
	cfg.applyDefaults()
	return cfg
}

func (c *SensorsConfig) applyDefaults() {
	if c.Driver == "" {
		c.Driver = "sim"
	}
	if c.Simulation.FastestIntervalMs <= 0 {
		c.Simulation.FastestIntervalMs = 5
	}
	if c.Replay.Speed <= 0 {
		c.Replay.Speed = 1
	}
}

// DefaultStorageConfig writes into ./data and overwrites same-named files.
func DefaultStorageConfig() *StorageConfig {
	cfg := &StorageConfig{}
	cfg.Storage.BaseDir = "data"
	cfg.Storage.Overwrite = true
	cfg.applyDefaults()
	return cfg
}

func (c *StorageConfig) applyDefaults() {
	if c.Storage.BaseDir == "" {
		c.Storage.BaseDir = "data"
	}
	if c.Storage.CSV.FlushIntervalMs <= 0 {
		c.Storage.CSV.FlushIntervalMs = 100
	}
	if c.Storage.CSV.BufferSizeKB <= 0 {
		c.Storage.CSV.BufferSizeKB = 64
	}
	if c.Chart.WindowSeconds <= 0 {
		c.Chart.WindowSeconds = 30
	}
	if c.Chart.Width <= 0 {
		c.Chart.Width = 1024
	}
	if c.Chart.Height <= 0 {
		c.Chart.Height = 400
	}
}

// ─── Loaders ────────────────────────────────────────────────────────────

// LoadSensorsConfig reads and parses sensors.yaml.
func LoadSensorsConfig(path string) (*SensorsConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read sensors config: %w", err)
	}
	var cfg SensorsConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse sensors config: %w", err)
	}
	switch cfg.Driver {
	case "", "sim", "replay":
	default:
		return nil, fmt.Errorf("parse sensors config: unknown driver %q", cfg.Driver)
	}
	cfg.applyDefaults()
	return &cfg, nil
}

// LoadStorageConfig reads and parses storage.yaml.
func LoadStorageConfig(path string) (*StorageConfig, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read storage config: %w", err)
	}
	var cfg StorageConfig
	if err := yaml.Unmarshal(data, &cfg); err != nil {
		return nil, fmt.Errorf("parse storage config: %w", err)
	}
	cfg.applyDefaults()
	return &cfg, nil
}
