// Package control contains pure pump-control logic for the tank daemon.
// This package has NO external dependencies (no GPIO, MQTT, OS, or time.Sleep).
// Time is always injectable via time.Time parameters.
package control

import "time"

// State represents the logical state of the pump.
type State string

const (
	StateOn  State = "ON"
	StateOff State = "OFF"
)

// EventType represents a pump state transition event.
type EventType string

const (
	EventPumpOn      EventType = "PUMP_ON"
	EventPumpOff     EventType = "PUMP_OFF"
	EventHardOff     EventType = "PUMP_HARD_OFF"
	EventFailsafeOff EventType = "PUMP_FAILSAFE_OFF"
)

// Event represents a pump transition to be published.
type Event struct {
	Timestamp time.Time
	Type      EventType
	Level     float64 // smoothed level at the time of the transition
	State     State   // state after the transition
}

// Sample is one smoothed level reading produced per successful sensor read.
type Sample struct {
	Timestamp time.Time
	Raw       float64
	Smoothed  float64
}

// Config holds the immutable controller parameters.
// Validity (thresholds ordered, window >= 1) is checked by the config package
// before a Controller is ever constructed.
type Config struct {
	OnThreshold  float64 // percent; pump may start at or below this level
	OffThreshold float64 // percent; pump may stop at or above this level
	HardOff      float64 // percent; overfill cutoff, bypasses MinRun
	MinRun       time.Duration
	MinOff       time.Duration
	SoftStart    time.Duration // delay between start decision and energizing
}

// EventCounts tracks the number of each transition type since startup.
type EventCounts struct {
	PumpOn   int
	PumpOff  int
	HardOff  int
	Failsafe int
}

// Decision is the outcome of one controller tick. Running is the actuator
// state to assert this tick regardless of whether a transition occurred.
type Decision struct {
	Running bool
	Events  []Event
}
