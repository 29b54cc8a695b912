//go:build linux

package sensor

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealSource reads a float-switch level sensor on a GPIO line: the switch
// closes when the water reaches its mounting height, mapping to 100% above
// and 0% below. A smoothing window upstream turns the step into a usable
// signal near the switch point.
type RealSource struct {
	chip     *gpiocdev.Chip
	line     *gpiocdev.Line
	inverted bool
}

// NewRealSource opens the level sensor input on the given BCM pin.
func NewRealSource(pin int, inverted bool) (*RealSource, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	line, err := chip.RequestLine(pin, gpiocdev.AsInput, gpiocdev.WithPullUp)
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request sensor pin %d: %w", pin, err)
	}

	return &RealSource{chip: chip, line: line, inverted: inverted}, nil
}

// Read returns 100 when the switch is closed, 0 when open.
func (r *RealSource) Read() (float64, error) {
	v, err := r.line.Value()
	if err != nil {
		return 0, fmt.Errorf("%w: read sensor pin: %v", ErrFault, err)
	}

	active := v == 1
	if r.inverted {
		active = !active
	}
	if active {
		return 100, nil
	}
	return 0, nil
}

// Close releases GPIO resources.
func (r *RealSource) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close sensor pin: %w", err))
		}
	}
	if r.chip != nil {
		if err := r.chip.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close chip: %w", err))
		}
	}
	if len(errs) > 0 {
		return fmt.Errorf("close errors: %v", errs)
	}
	return nil
}
