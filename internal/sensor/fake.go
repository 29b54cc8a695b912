package sensor

import "errors"

// Sample is one scripted reading. Fault true yields an ErrFault read.
type Sample struct {
	Level float64
	Fault bool
}

// FakeSource is a test double that returns scripted level readings.
type FakeSource struct {
	// Samples contains scripted readings. Each Read consumes the next
	// sample; when exhausted, the last sample repeats.
	Samples []Sample

	index  int
	Closed bool
}

// NewFakeSource creates a FakeSource with the given samples.
func NewFakeSource(samples []Sample) *FakeSource {
	return &FakeSource{Samples: samples}
}

// Read returns the next scripted sample.
func (f *FakeSource) Read() (float64, error) {
	if len(f.Samples) == 0 {
		return 0, errors.New("no samples configured")
	}

	s := f.Samples[f.index]
	if f.index < len(f.Samples)-1 {
		f.index++
	}

	if s.Fault {
		return 0, ErrFault
	}
	return s.Level, nil
}

// Close marks the source as closed.
func (f *FakeSource) Close() error {
	f.Closed = true
	return nil
}

// Reset rewinds to the beginning of the script.
func (f *FakeSource) Reset() {
	f.index = 0
	f.Closed = false
}
