// Package consumption integrates level deltas into a per-day usage ledger and
// predicts days of water remaining.
package consumption

import "time"

const dateLayout = "2006-01-02"

// Day is one calendar day's accumulated consumption. Percent is always kept;
// Liters is derived and zero when no tank capacity is configured.
type Day struct {
	Date    string  `json:"date"`
	Percent float64 `json:"percent"`
	Liters  float64 `json:"liters,omitempty"`
}

// Tracker accumulates off-pump level drops into the current day and keeps a
// rolling 7-entry history of finalized days. Owned by the control loop.
type Tracker struct {
	capacity float64 // liters at 100%; 0 = not configured

	current Day
	history []Day // oldest first, at most historyDays entries

	prev   float64
	primed bool
}

const historyDays = 7

// NewTracker creates a Tracker. capacityLiters of 0 keeps the ledger in
// percent units only.
func NewTracker(capacityLiters float64) *Tracker {
	return &Tracker{capacity: capacityLiters}
}

// Restore reloads persisted state, typically at startup. Finalized days are
// taken oldest first; only the trailing 7 are kept. A current entry dated
// today resumes accumulation.
func (t *Tracker) Restore(history []Day, current Day) {
	if len(history) > historyDays {
		history = history[len(history)-historyDays:]
	}
	t.history = append([]Day(nil), history...)
	t.current = current
}

// Observe records one tick's smoothed level. A falling level while the pump
// is off and no isolation scan is running is attributed to consumption for
// the current calendar day. A rising level while off is sensor noise and
// never subtracts from the ledger.
//
// Returns the finalized previous day when the tick crosses a day boundary,
// nil otherwise.
func (t *Tracker) Observe(now time.Time, level float64, pumpOn bool, scanning bool) *Day {
	day := now.Format(dateLayout)

	var finalized *Day
	if t.current.Date == "" {
		t.current.Date = day
	} else if t.current.Date != day {
		finalized = t.rollover(day)
	}

	if t.primed && !pumpOn && !scanning {
		delta := t.prev - level
		if delta > 0 {
			t.current.Percent += delta
			t.current.Liters = t.liters(t.current.Percent)
		}
	}

	t.prev = level
	t.primed = true
	return finalized
}

func (t *Tracker) rollover(day string) *Day {
	done := t.current
	t.history = append(t.history, done)
	if len(t.history) > historyDays {
		t.history = t.history[1:]
	}
	t.current = Day{Date: day}
	return &done
}

// Today returns a copy of the in-progress day entry.
func (t *Tracker) Today() Day {
	return t.current
}

// History returns a copy of the finalized-day window, oldest first.
func (t *Tracker) History() []Day {
	return append([]Day(nil), t.history...)
}

// WeeklyTotal returns the summed consumption over the rolling window plus the
// current day, in percent.
func (t *Tracker) WeeklyTotal() float64 {
	total := t.current.Percent
	for _, d := range t.history {
		total += d.Percent
	}
	return total
}

// Liters converts a percent figure using the configured capacity, 0 when no
// capacity is configured.
func (t *Tracker) Liters(percent float64) float64 {
	return t.liters(percent)
}

// HasCapacity reports whether a tank capacity is configured.
func (t *Tracker) HasCapacity() bool {
	return t.capacity > 0
}

func (t *Tracker) liters(percent float64) float64 {
	if t.capacity <= 0 {
		return 0
	}
	return percent / 100 * t.capacity
}
