// Package status provides a thread-safe status tracker for the tank daemon.
// It is the read-only reporting boundary: HTTP handlers and MQTT heartbeats
// read immutable snapshots, never live control-loop state.
package status

import (
	"sync"
	"time"

	"github.com/sweeney/tankd/internal/consumption"
	"github.com/sweeney/tankd/internal/control"
	"github.com/sweeney/tankd/internal/leak"
)

// Config contains daemon configuration for display.
type Config struct {
	TickMs          int64
	SmoothingWindow int
	OnThreshold     float64
	OffThreshold    float64
	HardOff         float64
	CapacityLiters  float64
	Broker          string
	HTTPAddr        string
}

// Snapshot is a point-in-time view of daemon state.
// It is a value type — safe to use after the lock is released.
type Snapshot struct {
	Pump      control.State
	PumpSince time.Time
	Faulted   bool

	Level control.Sample

	ScanMode     leak.Mode
	ScanDeadline time.Time
	LastScan     *leak.Result

	Today  consumption.Day
	Ledger []consumption.Day

	DaysRemaining float64
	PredictionOK  bool

	Counts       control.EventCounts
	SensorFaults int

	StartTime     time.Time
	Now           time.Time
	MQTTConnected bool
	Config        Config
}

// Uptime returns the duration since the daemon started.
func (s Snapshot) Uptime() time.Duration {
	return s.Now.Sub(s.StartTime)
}

// Tracker holds mutable daemon state behind an RWMutex.
type Tracker struct {
	mu   sync.RWMutex
	snap Snapshot
}

// NewTracker creates a Tracker with the given start time and config.
func NewTracker(startTime time.Time, cfg Config) *Tracker {
	return &Tracker{
		snap: Snapshot{
			Pump:      control.StateOff,
			ScanMode:  leak.ModeNormal,
			StartTime: startTime,
			Config:    cfg,
		},
	}
}

// UpdateControl sets pump state, latest sample, and counters.
// Called from the control loop on every tick.
func (t *Tracker) UpdateControl(pump control.State, since time.Time, faulted bool, sample control.Sample, counts control.EventCounts, sensorFaults int) {
	t.mu.Lock()
	t.snap.Pump = pump
	t.snap.PumpSince = since
	t.snap.Faulted = faulted
	t.snap.Level = sample
	t.snap.Counts = counts
	t.snap.SensorFaults = sensorFaults
	t.mu.Unlock()
}

// UpdateScan sets the scanner mode and deadline.
func (t *Tracker) UpdateScan(mode leak.Mode, deadline time.Time) {
	t.mu.Lock()
	t.snap.ScanMode = mode
	t.snap.ScanDeadline = deadline
	t.mu.Unlock()
}

// SetLastScan records the most recent scan result.
func (t *Tracker) SetLastScan(res leak.Result) {
	t.mu.Lock()
	t.snap.LastScan = &res
	t.mu.Unlock()
}

// UpdateLedger sets the in-progress day, the rolling history, and the
// prediction. The history slice is copied.
func (t *Tracker) UpdateLedger(today consumption.Day, history []consumption.Day, daysRemaining float64, predictionOK bool) {
	t.mu.Lock()
	t.snap.Today = today
	t.snap.Ledger = append([]consumption.Day(nil), history...)
	t.snap.DaysRemaining = daysRemaining
	t.snap.PredictionOK = predictionOK
	t.mu.Unlock()
}

// SetMQTTConnected sets the MQTT connection status.
func (t *Tracker) SetMQTTConnected(connected bool) {
	t.mu.Lock()
	t.snap.MQTTConnected = connected
	t.mu.Unlock()
}

// Snapshot returns a point-in-time copy of the daemon state.
// The Now field is set to the current time at the moment of the call.
func (t *Tracker) Snapshot() Snapshot {
	t.mu.RLock()
	s := t.snap
	s.Ledger = append([]consumption.Day(nil), t.snap.Ledger...)
	if t.snap.LastScan != nil {
		scan := *t.snap.LastScan
		s.LastScan = &scan
	}
	t.mu.RUnlock()
	s.Now = time.Now()
	return s
}
