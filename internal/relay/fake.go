package relay

// FakePump records every Set call for test assertions. The idempotent
// per-tick re-assertion is observable through Sets.
type FakePump struct {
	// Sets contains the argument of every Set call in order.
	Sets []bool

	// State is the most recent commanded state.
	State bool

	// SetError, if set, will be returned by Set.
	SetError error

	Closed bool
}

// NewFakePump creates a FakePump.
func NewFakePump() *FakePump {
	return &FakePump{}
}

// Set records the commanded state.
func (f *FakePump) Set(on bool) error {
	if f.SetError != nil {
		return f.SetError
	}
	f.Sets = append(f.Sets, on)
	f.State = on
	return nil
}

// Close marks the pump as closed.
func (f *FakePump) Close() error {
	f.Closed = true
	return nil
}

// Transitions returns how many Set calls changed the state.
func (f *FakePump) Transitions() int {
	n := 0
	for i := 1; i < len(f.Sets); i++ {
		if f.Sets[i] != f.Sets[i-1] {
			n++
		}
	}
	return n
}

// Reset clears recorded calls.
func (f *FakePump) Reset() {
	f.Sets = nil
	f.State = false
	f.SetError = nil
	f.Closed = false
}
