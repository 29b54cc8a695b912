// Package relay drives the pump relay output with hardware abstraction.
package relay

// Pump switches the pump relay. Set is idempotent and is re-asserted every
// control tick; the relay board's own debouncing handles hardware safety.
type Pump interface {
	Set(on bool) error
	Close() error
}
