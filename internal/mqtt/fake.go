package mqtt

import (
	"github.com/sweeney/tankd/internal/control"
	"github.com/sweeney/tankd/internal/leak"
)

// FakePublisher records published messages for test assertions.
type FakePublisher struct {
	// PumpEvents contains all pump events that were published.
	PumpEvents []control.Event

	// Levels contains all telemetry samples that were published.
	Levels []control.Sample

	// Scans contains all scan results that were published.
	Scans []leak.Result

	// SystemEvents contains all system events that were published.
	SystemEvents []SystemEvent

	// Payloads contains the JSON payloads of every publish, in order.
	Payloads [][]byte

	// PublishError, if set, will be returned by every publish method.
	PublishError error

	// Closed tracks if Close was called.
	Closed bool

	// Connected controls the return value of IsConnected.
	Connected bool
}

// NewFakePublisher creates a FakePublisher for testing.
func NewFakePublisher() *FakePublisher {
	return &FakePublisher{}
}

// PublishPump records the pump event.
func (f *FakePublisher) PublishPump(event control.Event) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.PumpEvents = append(f.PumpEvents, event)

	payload, err := FormatPumpPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishLevel records the telemetry sample.
func (f *FakePublisher) PublishLevel(sample control.Sample, pumpOn bool) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Levels = append(f.Levels, sample)

	payload, err := FormatLevelPayload(sample, pumpOn)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishScan records the scan result.
func (f *FakePublisher) PublishScan(res leak.Result) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.Scans = append(f.Scans, res)

	payload, err := FormatScanPayload(res)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// PublishSystem records the system event.
func (f *FakePublisher) PublishSystem(event SystemEvent) error {
	if f.PublishError != nil {
		return f.PublishError
	}
	f.SystemEvents = append(f.SystemEvents, event)

	payload, err := FormatSystemPayload(event)
	if err != nil {
		return err
	}
	f.Payloads = append(f.Payloads, payload)
	return nil
}

// Close marks the publisher as closed.
func (f *FakePublisher) Close() error {
	f.Closed = true
	return nil
}

// IsConnected reports whether the fake publisher is "connected".
func (f *FakePublisher) IsConnected() bool {
	return f.Connected
}

// Reset clears recorded messages.
func (f *FakePublisher) Reset() {
	f.PumpEvents = nil
	f.Levels = nil
	f.Scans = nil
	f.SystemEvents = nil
	f.Payloads = nil
	f.PublishError = nil
	f.Closed = false
	f.Connected = false
}
