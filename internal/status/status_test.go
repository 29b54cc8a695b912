package status

import (
	"encoding/json"
	"strings"
	"testing"
	"time"

	"github.com/sweeney/tankd/internal/consumption"
	"github.com/sweeney/tankd/internal/control"
	"github.com/sweeney/tankd/internal/leak"
)

func newTestTracker() *Tracker {
	return NewTracker(time.Date(2026, 3, 1, 12, 0, 0, 0, time.UTC), Config{
		TickMs:          1000,
		SmoothingWindow: 5,
		OnThreshold:     20,
		OffThreshold:    60,
		HardOff:         95,
		Broker:          "tcp://192.168.1.200:1883",
		HTTPAddr:        ":8080",
	})
}

func TestTrackerSnapshotIsCopy(t *testing.T) {
	tr := newTestTracker()

	history := []consumption.Day{{Date: "2026-02-28", Percent: 5}}
	tr.UpdateLedger(consumption.Day{Date: "2026-03-01", Percent: 1}, history, 10, true)

	snap := tr.Snapshot()

	// Mutating the snapshot's slice must not affect the tracker.
	snap.Ledger[0].Percent = 999
	again := tr.Snapshot()
	if again.Ledger[0].Percent != 5 {
		t.Errorf("snapshot leaked a live slice: got %v", again.Ledger[0].Percent)
	}
}

func TestTrackerScanResultCopy(t *testing.T) {
	tr := newTestTracker()
	tr.SetLastScan(leak.Result{Classification: leak.NoLeak, LevelBefore: 80})

	snap := tr.Snapshot()
	snap.LastScan.LevelBefore = 999

	again := tr.Snapshot()
	if again.LastScan.LevelBefore != 80 {
		t.Errorf("snapshot leaked the scan result pointer: got %v", again.LastScan.LevelBefore)
	}
}

func TestTrackerUpdateControl(t *testing.T) {
	tr := newTestTracker()
	since := time.Date(2026, 3, 1, 13, 0, 0, 0, time.UTC)
	sample := control.Sample{Timestamp: since, Raw: 41, Smoothed: 40.5}

	tr.UpdateControl(control.StateOn, since, false, sample, control.EventCounts{PumpOn: 1}, 2)

	snap := tr.Snapshot()
	if snap.Pump != control.StateOn {
		t.Errorf("expected pump ON, got %s", snap.Pump)
	}
	if snap.Level.Smoothed != 40.5 {
		t.Errorf("unexpected level: %v", snap.Level.Smoothed)
	}
	if snap.Counts.PumpOn != 1 || snap.SensorFaults != 2 {
		t.Errorf("unexpected counters: %+v faults=%d", snap.Counts, snap.SensorFaults)
	}
}

func TestFormatJSONPredictionStates(t *testing.T) {
	tr := newTestTracker()
	tr.UpdateLedger(consumption.Day{Date: "2026-03-01"}, nil, 0, false)

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.DaysRemaining != nil {
		t.Error("expected no days_remaining without history")
	}
	if parsed.Status.PredictionNote != "insufficient data" {
		t.Errorf("expected insufficient data note, got %q", parsed.Status.PredictionNote)
	}

	tr.UpdateLedger(consumption.Day{Date: "2026-03-01"}, []consumption.Day{{Date: "2026-02-28", Percent: 5}}, 10, true)
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.DaysRemaining == nil || *parsed.Status.DaysRemaining != 10 {
		t.Errorf("expected days_remaining 10, got %v", parsed.Status.DaysRemaining)
	}
}

func TestFormatJSONUnknownPump(t *testing.T) {
	tr := NewTracker(time.Now(), Config{})

	var parsed StatusJSON
	if err := json.Unmarshal(FormatJSON(tr.Snapshot()), &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Pump != "OFF" {
		t.Errorf("expected initial pump OFF, got %s", parsed.Status.Pump)
	}
	if parsed.Status.ScanMode != "NORMAL" {
		t.Errorf("expected scan mode NORMAL, got %s", parsed.Status.ScanMode)
	}
}

func TestFormatStatusEvent(t *testing.T) {
	tr := newTestTracker()
	payload := FormatStatusEvent(tr.Snapshot(), "SHUTDOWN", "SIGTERM")

	var parsed StatusJSON
	if err := json.Unmarshal(payload, &parsed); err != nil {
		t.Fatalf("invalid JSON: %v", err)
	}
	if parsed.Status.Event != "SHUTDOWN" || parsed.Status.Reason != "SIGTERM" {
		t.Errorf("unexpected event fields: %+v", parsed.Status)
	}
	if strings.Contains(string(payload), "\n") {
		t.Error("event payload should be compact JSON")
	}
}
