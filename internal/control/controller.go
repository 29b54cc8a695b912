package control

import "time"

// Controller is the hysteresis pump state machine. It owns the single
// PumpState instance; transitions happen only inside Tick.
type Controller struct {
	cfg   Config
	state State
	since time.Time

	// pendingStart is non-nil while a soft-start delay is running.
	pendingStart *time.Time

	faulted bool
	counts  EventCounts
}

// NewController creates a controller in the Off state. Time-in-state starts
// satisfied so a freshly booted controller can prime a low tank immediately
// instead of waiting out MinOff.
func NewController(cfg Config, start time.Time) *Controller {
	return &Controller{
		cfg:   cfg,
		state: StateOff,
		since: start.Add(-cfg.MinOff),
	}
}

// Tick evaluates the transition rules once for the given smoothed level.
// levelOK is false when the sensor has failed outright (no smoothed value was
// ever produced, or the consecutive fault limit was exceeded); the controller
// then fails safe to Off rather than holding its prior state.
//
// The returned Decision.Running must be asserted on the actuator every tick,
// even when no transition occurred, to tolerate actuator-side resets.
func (c *Controller) Tick(level float64, levelOK bool, now time.Time) Decision {
	var events []Event

	if !levelOK {
		if c.state == StateOn || c.pendingStart != nil {
			c.pendingStart = nil
			c.transition(StateOff, now)
			events = append(events, c.event(EventFailsafeOff, level, now))
			c.counts.Failsafe++
		}
		c.faulted = true
		return Decision{Running: false, Events: events}
	}
	c.faulted = false

	// Overfill cutoff. This is the one exception to the minimum-duration
	// invariant: it bypasses MinRun.
	if level >= c.cfg.HardOff {
		c.pendingStart = nil
		if c.state == StateOn {
			c.transition(StateOff, now)
			events = append(events, c.event(EventHardOff, level, now))
			c.counts.HardOff++
		}
		return Decision{Running: false, Events: events}
	}

	// A pending soft start waits out its delay before energizing. No other
	// rule is evaluated while it is pending.
	if c.pendingStart != nil {
		if !now.Before(*c.pendingStart) {
			c.pendingStart = nil
			c.transition(StateOn, now)
			events = append(events, c.event(EventPumpOn, level, now))
			c.counts.PumpOn++
		}
		return Decision{Running: c.state == StateOn, Events: events}
	}

	switch c.state {
	case StateOff:
		if level <= c.cfg.OnThreshold && now.Sub(c.since) >= c.cfg.MinOff {
			if c.cfg.SoftStart > 0 {
				at := now.Add(c.cfg.SoftStart)
				c.pendingStart = &at
			} else {
				c.transition(StateOn, now)
				events = append(events, c.event(EventPumpOn, level, now))
				c.counts.PumpOn++
			}
		}
	case StateOn:
		if level >= c.cfg.OffThreshold && now.Sub(c.since) >= c.cfg.MinRun {
			c.transition(StateOff, now)
			events = append(events, c.event(EventPumpOff, level, now))
			c.counts.PumpOff++
		}
	}

	return Decision{Running: c.state == StateOn, Events: events}
}

func (c *Controller) transition(to State, now time.Time) {
	c.state = to
	c.since = now
}

func (c *Controller) event(t EventType, level float64, now time.Time) Event {
	return Event{
		Timestamp: now,
		Type:      t,
		Level:     level,
		State:     c.state,
	}
}

// Running reports whether the pump is currently commanded on.
func (c *Controller) Running() bool {
	return c.state == StateOn
}

// State returns the current pump state.
func (c *Controller) State() State {
	return c.state
}

// Since returns the time of the last state transition.
func (c *Controller) Since() time.Time {
	return c.since
}

// Faulted reports whether the controller is in the sensor-failure fail-safe.
func (c *Controller) Faulted() bool {
	return c.faulted
}

// Counts returns a copy of the transition counters.
func (c *Controller) Counts() EventCounts {
	return c.counts
}
