// Package config loads and validates the tankd YAML configuration file.
// Control parameters live in the file; runtime knobs (broker, addresses,
// paths) are flags on the binary.
package config

import (
	"errors"
	"fmt"
	"os"
	"time"

	"gopkg.in/yaml.v2"

	"github.com/sweeney/tankd/internal/control"
)

// ErrInvalid wraps every validation failure. Validation failures are fatal at
// startup: a controller must never run on a broken parameter set.
var ErrInvalid = errors.New("invalid config")

// Config mirrors the YAML file. Loaded once at startup, never mutated.
type Config struct {
	Control  Control  `yaml:"control"`
	Sensor   Sensor   `yaml:"sensor"`
	Tank     Tank     `yaml:"tank"`
	Leak     Leak     `yaml:"leak"`
	Hardware Hardware `yaml:"hardware"`
}

// Control holds the hysteresis controller parameters.
type Control struct {
	OnThresholdPercent  float64 `yaml:"on_threshold_percent"`
	OffThresholdPercent float64 `yaml:"off_threshold_percent"`
	HardOffPercent      float64 `yaml:"hard_off_percent"`
	MinRunSeconds       int     `yaml:"min_run_seconds"`
	MinOffSeconds       int     `yaml:"min_off_seconds"`
	SoftStartSeconds    int     `yaml:"soft_start_seconds"`
	SensorFaultLimit    int     `yaml:"sensor_fault_limit"`
}

// Sensor holds the smoothing filter parameters.
type Sensor struct {
	SmoothingWindow int `yaml:"smoothing_window"`
}

// Tank holds the optional physical tank description.
type Tank struct {
	CapacityLiters float64 `yaml:"capacity_liters"` // 0 = unknown, percent-only ledger
}

// Leak holds leak scanner and drift monitor parameters.
type Leak struct {
	NoiseMarginMinPercent float64 `yaml:"noise_margin_min_percent"`
	NoiseMarginSigma      float64 `yaml:"noise_margin_sigma"`
	DriftFactor           float64 `yaml:"drift_factor"`
	DriftMinDays          int     `yaml:"drift_min_days"`
	Nightly               Nightly `yaml:"nightly"`
}

// Nightly configures the scheduled scan.
type Nightly struct {
	Enabled         bool   `yaml:"enabled"`
	Schedule        string `yaml:"schedule"` // cron expression
	DurationMinutes int    `yaml:"duration_minutes"`
}

// Hardware holds GPIO wiring.
type Hardware struct {
	SensorPin       int  `yaml:"sensor_pin"`
	PumpPin         int  `yaml:"pump_pin"`
	RelayActiveHigh bool `yaml:"relay_active_high"`
	SensorInverted  bool `yaml:"sensor_inverted"`
}

// Load reads and validates the config file. Unknown keys are rejected.
func Load(path string) (*Config, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("read config: %w", err)
	}
	return Parse(data)
}

// Parse decodes and validates raw YAML config.
func Parse(data []byte) (*Config, error) {
	cfg := Default()
	if err := yaml.UnmarshalStrict(data, cfg); err != nil {
		return nil, fmt.Errorf("parse config: %w", err)
	}
	if err := cfg.Validate(); err != nil {
		return nil, err
	}
	return cfg, nil
}

// Default returns the built-in defaults, valid on their own.
func Default() *Config {
	return &Config{
		Control: Control{
			OnThresholdPercent:  30,
			OffThresholdPercent: 85,
			HardOffPercent:      95,
			MinRunSeconds:       60,
			MinOffSeconds:       60,
			SensorFaultLimit:    5,
		},
		Sensor: Sensor{SmoothingWindow: 5},
		Leak: Leak{
			NoiseMarginMinPercent: 1.0,
			NoiseMarginSigma:      3.0,
			DriftFactor:           2.0,
			DriftMinDays:          3,
			Nightly: Nightly{
				Enabled:         true,
				Schedule:        "0 2 * * *",
				DurationMinutes: 45,
			},
		},
		Hardware: Hardware{
			SensorPin: 17,
			PumpPin:   27,
		},
	}
}

// Validate enforces the controller invariants.
func (c *Config) Validate() error {
	ct := c.Control
	if ct.OnThresholdPercent >= ct.OffThresholdPercent {
		return fmt.Errorf("%w: on_threshold_percent (%.1f) must be below off_threshold_percent (%.1f)",
			ErrInvalid, ct.OnThresholdPercent, ct.OffThresholdPercent)
	}
	if ct.HardOffPercent < ct.OffThresholdPercent {
		return fmt.Errorf("%w: hard_off_percent (%.1f) must be at or above off_threshold_percent (%.1f)",
			ErrInvalid, ct.HardOffPercent, ct.OffThresholdPercent)
	}
	if ct.OnThresholdPercent < 0 || ct.HardOffPercent > 100 {
		return fmt.Errorf("%w: thresholds must lie within [0,100]", ErrInvalid)
	}
	if ct.MinRunSeconds < 0 || ct.MinOffSeconds < 0 || ct.SoftStartSeconds < 0 {
		return fmt.Errorf("%w: timers must not be negative", ErrInvalid)
	}
	if ct.SensorFaultLimit < 1 {
		return fmt.Errorf("%w: sensor_fault_limit must be at least 1", ErrInvalid)
	}
	if c.Sensor.SmoothingWindow < 1 {
		return fmt.Errorf("%w: smoothing_window must be at least 1", ErrInvalid)
	}
	if c.Tank.CapacityLiters < 0 {
		return fmt.Errorf("%w: capacity_liters must not be negative", ErrInvalid)
	}
	if c.Leak.NoiseMarginMinPercent < 0 || c.Leak.NoiseMarginSigma < 0 {
		return fmt.Errorf("%w: noise margin parameters must not be negative", ErrInvalid)
	}
	if c.Leak.Nightly.Enabled && c.Leak.Nightly.DurationMinutes < 1 {
		return fmt.Errorf("%w: nightly duration_minutes must be at least 1", ErrInvalid)
	}
	return nil
}

// ControllerConfig maps the file values onto the control package's config.
func (c *Config) ControllerConfig() control.Config {
	return control.Config{
		OnThreshold:  c.Control.OnThresholdPercent,
		OffThreshold: c.Control.OffThresholdPercent,
		HardOff:      c.Control.HardOffPercent,
		MinRun:       time.Duration(c.Control.MinRunSeconds) * time.Second,
		MinOff:       time.Duration(c.Control.MinOffSeconds) * time.Second,
		SoftStart:    time.Duration(c.Control.SoftStartSeconds) * time.Second,
	}
}
