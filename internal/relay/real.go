//go:build linux

package relay

import (
	"fmt"

	"github.com/warthog618/go-gpiocdev"
)

// RealPump drives the pump relay through a GPIO output line. Most relay
// boards are active-low; activeHigh flips the polarity for the rest.
type RealPump struct {
	chip       *gpiocdev.Chip
	line       *gpiocdev.Line
	activeHigh bool
}

// NewRealPump opens the relay output on the given BCM pin, de-energized.
func NewRealPump(pin int, activeHigh bool) (*RealPump, error) {
	chip, err := gpiocdev.NewChip("gpiochip0")
	if err != nil {
		return nil, fmt.Errorf("open gpio chip: %w", err)
	}

	p := &RealPump{chip: chip, activeHigh: activeHigh}
	line, err := chip.RequestLine(pin, gpiocdev.AsOutput(p.value(false)))
	if err != nil {
		chip.Close()
		return nil, fmt.Errorf("request pump pin %d: %w", pin, err)
	}
	p.line = line
	return p, nil
}

// Set drives the relay. Safe to call with the current state.
func (r *RealPump) Set(on bool) error {
	if err := r.line.SetValue(r.value(on)); err != nil {
		return fmt.Errorf("set pump pin: %w", err)
	}
	return nil
}

// Close de-energizes the relay and releases GPIO resources. The pump must
// never be left running past a daemon shutdown.
func (r *RealPump) Close() error {
	var errs []error
	if r.line != nil {
		if err := r.line.SetValue(r.value(false)); err != nil {
			errs = append(errs, fmt.Errorf("de-energize pump pin: %w", err))
		}
		if err := r.line.Close(); err != nil {
			errs = append(errs, fmt.Errorf("close pump pin: %w", err))
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

func (r *RealPump) value(on bool) int {
	if on == r.activeHigh {
		return 1
	}
	return 0
}
