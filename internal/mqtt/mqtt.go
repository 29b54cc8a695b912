// Package mqtt provides MQTT publishing with abstraction for testing.
package mqtt

import (
	"encoding/json"
	"time"

	"github.com/sweeney/tankd/internal/control"
	"github.com/sweeney/tankd/internal/leak"
)

// Topics published by the daemon.
const (
	TopicPump   = "home/tank/pump/events"
	TopicLevel  = "home/tank/level"
	TopicLeak   = "home/tank/leak"
	TopicSystem = "home/tank/system"
)

// Publisher publishes tank daemon messages.
type Publisher interface {
	// PublishPump sends a pump transition event to the broker.
	// Returns error if publishing fails (should not crash the process).
	PublishPump(event control.Event) error

	// PublishLevel sends a level telemetry sample to the broker.
	PublishLevel(sample control.Sample, pumpOn bool) error

	// PublishScan sends a leak scan result to the broker.
	PublishScan(res leak.Result) error

	// PublishSystem sends a system lifecycle event to the broker.
	PublishSystem(event SystemEvent) error

	// Close disconnects from the broker.
	Close() error
}

// ConnectionStatus reports whether the MQTT connection is active.
type ConnectionStatus interface {
	IsConnected() bool
}

// SystemEvent represents a system lifecycle event (e.g., startup, shutdown, heartbeat).
type SystemEvent struct {
	Timestamp  time.Time
	Event      string // e.g., "STARTUP", "SHUTDOWN", "HEARTBEAT"
	Reason     string // e.g., "SIGTERM", "SIGINT" (shutdown only)
	RawPayload []byte // Pre-formatted JSON payload; if set, FormatSystemPayload returns it directly
	Retained   bool   // Whether the message should be retained by the broker
}

// PumpPayload is the MQTT message payload for pump events.
type PumpPayload struct {
	Pump PumpPayloadInner `json:"pump"`
}

// PumpPayloadInner contains the pump event details.
type PumpPayloadInner struct {
	Timestamp string  `json:"timestamp"`
	Event     string  `json:"event"`
	State     string  `json:"state"`
	Level     float64 `json:"level_percent"`
}

// FormatPumpPayload creates the JSON payload for a pump event.
func FormatPumpPayload(event control.Event) ([]byte, error) {
	payload := PumpPayload{
		Pump: PumpPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     string(event.Type),
			State:     string(event.State),
			Level:     event.Level,
		},
	}
	return json.Marshal(payload)
}

// LevelPayload is the MQTT message payload for level telemetry.
type LevelPayload struct {
	Level LevelPayloadInner `json:"level"`
}

// LevelPayloadInner contains the telemetry details.
type LevelPayloadInner struct {
	Timestamp string  `json:"timestamp"`
	Raw       float64 `json:"raw_percent"`
	Smoothed  float64 `json:"smoothed_percent"`
	PumpOn    bool    `json:"pump_on"`
}

// FormatLevelPayload creates the JSON payload for a telemetry sample.
func FormatLevelPayload(sample control.Sample, pumpOn bool) ([]byte, error) {
	payload := LevelPayload{
		Level: LevelPayloadInner{
			Timestamp: sample.Timestamp.UTC().Format(time.RFC3339),
			Raw:       sample.Raw,
			Smoothed:  sample.Smoothed,
			PumpOn:    pumpOn,
		},
	}
	return json.Marshal(payload)
}

// ScanPayload is the MQTT message payload for leak scan results.
type ScanPayload struct {
	Scan ScanPayloadInner `json:"leak_scan"`
}

// ScanPayloadInner contains the scan result details.
type ScanPayloadInner struct {
	Start           string  `json:"start"`
	DurationSeconds int64   `json:"duration_seconds"`
	LevelBefore     float64 `json:"level_before"`
	LevelAfter      float64 `json:"level_after"`
	Classification  string  `json:"classification"`
	Reason          string  `json:"reason,omitempty"`
	Manual          bool    `json:"manual,omitempty"`
}

// ScanRetained reports whether a scan result should occupy the retained slot
// on the leak topic. Only isolation-window outcomes do; drift advisories are
// synthesized between scans and must not shadow the last real scan result.
func ScanRetained(res leak.Result) bool {
	return res.Classification != leak.DownstreamUsageOrLeak
}

// FormatScanPayload creates the JSON payload for a scan result.
func FormatScanPayload(res leak.Result) ([]byte, error) {
	payload := ScanPayload{
		Scan: ScanPayloadInner{
			Start:           res.Start.UTC().Format(time.RFC3339),
			DurationSeconds: int64(res.Duration.Seconds()),
			LevelBefore:     res.LevelBefore,
			LevelAfter:      res.LevelAfter,
			Classification:  string(res.Classification),
			Reason:          res.Reason,
			Manual:          res.Manual,
		},
	}
	return json.Marshal(payload)
}

// SystemPayload represents the MQTT message payload for system events.
// Used for simple events that don't carry a full status snapshot.
type SystemPayload struct {
	System SystemPayloadInner `json:"system"`
}

// SystemPayloadInner contains the system event details.
type SystemPayloadInner struct {
	Timestamp string `json:"timestamp"`
	Event     string `json:"event"`
	Reason    string `json:"reason,omitempty"`
}

// FormatSystemPayload creates the JSON payload for a system event.
// If event.RawPayload is set, it is returned directly (used for full status snapshots).
func FormatSystemPayload(event SystemEvent) ([]byte, error) {
	if event.RawPayload != nil {
		return event.RawPayload, nil
	}

	payload := SystemPayload{
		System: SystemPayloadInner{
			Timestamp: event.Timestamp.UTC().Format(time.RFC3339),
			Event:     event.Event,
			Reason:    event.Reason,
		},
	}
	return json.Marshal(payload)
}
