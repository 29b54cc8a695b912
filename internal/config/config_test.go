package config

import (
	"errors"
	"testing"
	"time"
)

func TestParseValidConfig(t *testing.T) {
	data := []byte(`
control:
  on_threshold_percent: 20
  off_threshold_percent: 60
  hard_off_percent: 90
  min_run_seconds: 30
  min_off_seconds: 30
  sensor_fault_limit: 3
sensor:
  smoothing_window: 7
tank:
  capacity_liters: 1500
leak:
  noise_margin_min_percent: 0.5
  noise_margin_sigma: 2.5
  drift_factor: 2.0
  drift_min_days: 3
  nightly:
    enabled: true
    schedule: "0 3 * * *"
    duration_minutes: 30
hardware:
  sensor_pin: 17
  pump_pin: 27
  relay_active_high: true
`)

	cfg, err := Parse(data)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if cfg.Control.OnThresholdPercent != 20 {
		t.Errorf("unexpected on threshold: %v", cfg.Control.OnThresholdPercent)
	}
	if cfg.Sensor.SmoothingWindow != 7 {
		t.Errorf("unexpected smoothing window: %v", cfg.Sensor.SmoothingWindow)
	}
	if cfg.Tank.CapacityLiters != 1500 {
		t.Errorf("unexpected capacity: %v", cfg.Tank.CapacityLiters)
	}
	if !cfg.Hardware.RelayActiveHigh {
		t.Error("expected relay_active_high true")
	}

	cc := cfg.ControllerConfig()
	if cc.MinRun != 30*time.Second {
		t.Errorf("unexpected MinRun: %v", cc.MinRun)
	}
	if cc.HardOff != 90 {
		t.Errorf("unexpected HardOff: %v", cc.HardOff)
	}
}

func TestDefaultsAreValid(t *testing.T) {
	if err := Default().Validate(); err != nil {
		t.Errorf("defaults must validate: %v", err)
	}
}

func TestParseRejectsUnknownKeys(t *testing.T) {
	data := []byte(`
control:
  on_treshold_percent: 20
`)
	if _, err := Parse(data); err == nil {
		t.Error("expected error on misspelled key")
	}
}

func TestValidateRejectsBadThresholds(t *testing.T) {
	tests := []struct {
		name   string
		mutate func(*Config)
	}{
		{"on >= off", func(c *Config) { c.Control.OnThresholdPercent = 85 }},
		{"hard off below off", func(c *Config) { c.Control.HardOffPercent = 50 }},
		{"negative on threshold", func(c *Config) { c.Control.OnThresholdPercent = -5 }},
		{"hard off above 100", func(c *Config) { c.Control.HardOffPercent = 120 }},
		{"negative min run", func(c *Config) { c.Control.MinRunSeconds = -1 }},
		{"zero fault limit", func(c *Config) { c.Control.SensorFaultLimit = 0 }},
		{"zero smoothing window", func(c *Config) { c.Sensor.SmoothingWindow = 0 }},
		{"negative capacity", func(c *Config) { c.Tank.CapacityLiters = -1 }},
		{"nightly without duration", func(c *Config) { c.Leak.Nightly.DurationMinutes = 0 }},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			cfg := Default()
			tt.mutate(cfg)
			err := cfg.Validate()
			if err == nil {
				t.Fatal("expected validation error")
			}
			if !errors.Is(err, ErrInvalid) {
				t.Errorf("expected ErrInvalid, got %v", err)
			}
		})
	}
}

func TestLoadMissingFile(t *testing.T) {
	if _, err := Load("/nonexistent/tankd.yaml"); err == nil {
		t.Error("expected error for missing file")
	}
}
