package status

import (
	"encoding/json"
	"time"

	"github.com/sweeney/tankd/internal/consumption"
)

// StatusJSON is the top-level JSON envelope for status output.
type StatusJSON struct {
	Status StatusInner `json:"status"`
}

// StatusInner contains the status details.
type StatusInner struct {
	Event          string     `json:"event,omitempty"`
	Reason         string     `json:"reason,omitempty"`
	Pump           string     `json:"pump"`
	PumpSince      string     `json:"pump_since,omitempty"`
	Faulted        bool       `json:"sensor_faulted"`
	LevelPercent   float64    `json:"level_percent"`
	LevelRaw       float64    `json:"level_raw_percent"`
	LevelTimestamp string     `json:"level_timestamp,omitempty"`
	ScanMode       string     `json:"scan_mode"`
	ScanDeadline   string     `json:"scan_deadline,omitempty"`
	LastScan       *ScanJSON  `json:"last_scan,omitempty"`
	Today          DayJSON    `json:"today"`
	Ledger         []DayJSON  `json:"ledger"`
	DaysRemaining  *float64   `json:"days_remaining,omitempty"`
	PredictionNote string     `json:"prediction_note,omitempty"`
	UptimeSeconds  int64      `json:"uptime_seconds"`
	StartTime      string     `json:"start_time"`
	Timestamp      string     `json:"timestamp"`
	MQTT           MQTTStatus `json:"mqtt"`
	Counts         CountsJSON `json:"event_counts"`
	Config         ConfigJSON `json:"config"`
}

// MQTTStatus reports MQTT connection state.
type MQTTStatus struct {
	Connected bool   `json:"connected"`
	Broker    string `json:"broker"`
}

// ScanJSON is the JSON representation of a leak scan result.
type ScanJSON struct {
	Start           string  `json:"start"`
	DurationSeconds int64   `json:"duration_seconds"`
	LevelBefore     float64 `json:"level_before"`
	LevelAfter      float64 `json:"level_after"`
	Classification  string  `json:"classification"`
	Reason          string  `json:"reason,omitempty"`
	Manual          bool    `json:"manual,omitempty"`
}

// DayJSON is the JSON representation of one ledger day.
type DayJSON struct {
	Date    string  `json:"date"`
	Percent float64 `json:"percent"`
	Liters  float64 `json:"liters,omitempty"`
}

// CountsJSON is the JSON representation of event counts.
type CountsJSON struct {
	PumpOn       int `json:"pump_on"`
	PumpOff      int `json:"pump_off"`
	HardOff      int `json:"hard_off"`
	Failsafe     int `json:"failsafe"`
	SensorFaults int `json:"sensor_faults"`
}

// ConfigJSON is the JSON representation of daemon config.
type ConfigJSON struct {
	TickMs          int64   `json:"tick_ms"`
	SmoothingWindow int     `json:"smoothing_window"`
	OnThreshold     float64 `json:"on_threshold_percent"`
	OffThreshold    float64 `json:"off_threshold_percent"`
	HardOff         float64 `json:"hard_off_percent"`
	CapacityLiters  float64 `json:"capacity_liters,omitempty"`
	Broker          string  `json:"broker"`
	HTTPAddr        string  `json:"http_addr"`
}

func buildInner(snap Snapshot) StatusInner {
	pump := string(snap.Pump)
	if pump == "" {
		pump = "UNKNOWN"
	}

	inner := StatusInner{
		Pump:          pump,
		Faulted:       snap.Faulted,
		LevelPercent:  snap.Level.Smoothed,
		LevelRaw:      snap.Level.Raw,
		ScanMode:      string(snap.ScanMode),
		Today:         dayJSON(snap.Today),
		Ledger:        make([]DayJSON, 0, len(snap.Ledger)),
		UptimeSeconds: int64(snap.Uptime().Truncate(time.Second).Seconds()),
		StartTime:     snap.StartTime.UTC().Format(time.RFC3339),
		Timestamp:     snap.Now.UTC().Format(time.RFC3339),
		MQTT:          MQTTStatus{Connected: snap.MQTTConnected, Broker: snap.Config.Broker},
		Counts: CountsJSON{
			PumpOn:       snap.Counts.PumpOn,
			PumpOff:      snap.Counts.PumpOff,
			HardOff:      snap.Counts.HardOff,
			Failsafe:     snap.Counts.Failsafe,
			SensorFaults: snap.SensorFaults,
		},
		Config: ConfigJSON{
			TickMs:          snap.Config.TickMs,
			SmoothingWindow: snap.Config.SmoothingWindow,
			OnThreshold:     snap.Config.OnThreshold,
			OffThreshold:    snap.Config.OffThreshold,
			HardOff:         snap.Config.HardOff,
			CapacityLiters:  snap.Config.CapacityLiters,
			Broker:          snap.Config.Broker,
			HTTPAddr:        snap.Config.HTTPAddr,
		},
	}

	if !snap.PumpSince.IsZero() {
		inner.PumpSince = snap.PumpSince.UTC().Format(time.RFC3339)
	}
	if !snap.Level.Timestamp.IsZero() {
		inner.LevelTimestamp = snap.Level.Timestamp.UTC().Format(time.RFC3339)
	}
	if !snap.ScanDeadline.IsZero() {
		inner.ScanDeadline = snap.ScanDeadline.UTC().Format(time.RFC3339)
	}
	if snap.LastScan != nil {
		inner.LastScan = &ScanJSON{
			Start:           snap.LastScan.Start.UTC().Format(time.RFC3339),
			DurationSeconds: int64(snap.LastScan.Duration.Seconds()),
			LevelBefore:     snap.LastScan.LevelBefore,
			LevelAfter:      snap.LastScan.LevelAfter,
			Classification:  string(snap.LastScan.Classification),
			Reason:          snap.LastScan.Reason,
			Manual:          snap.LastScan.Manual,
		}
	}
	for _, d := range snap.Ledger {
		inner.Ledger = append(inner.Ledger, dayJSON(d))
	}
	if snap.PredictionOK {
		v := snap.DaysRemaining
		inner.DaysRemaining = &v
	} else {
		inner.PredictionNote = "insufficient data"
	}

	return inner
}

func dayJSON(d consumption.Day) DayJSON {
	return DayJSON{Date: d.Date, Percent: d.Percent, Liters: d.Liters}
}

// FormatJSON returns the JSON status for the web endpoint (no event/reason).
func FormatJSON(snap Snapshot) []byte {
	inner := buildInner(snap)
	data, _ := json.MarshalIndent(StatusJSON{Status: inner}, "", "  ")
	return data
}

// FormatStatusEvent returns the JSON status for an MQTT system event.
func FormatStatusEvent(snap Snapshot, event, reason string) []byte {
	inner := buildInner(snap)
	inner.Event = event
	inner.Reason = reason
	data, _ := json.Marshal(StatusJSON{Status: inner})
	return data
}
