// Package sensor provides tank level input with hardware abstraction.
// The real implementation uses the Linux GPIO character device.
// The fake implementation allows testing without hardware.
package sensor

import "errors"

// ErrFault is a transient sensor failure: the tick is skipped and the
// previous smoothed value reused upstream.
var ErrFault = errors.New("sensor fault")

// Source reads the tank level.
type Source interface {
	// Read returns the level as a percentage in [0,100], already
	// normalized by the adapter.
	Read() (float64, error)

	// Close releases sensor resources.
	Close() error
}
