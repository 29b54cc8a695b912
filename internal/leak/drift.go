package leak

// DriftMonitor flags persistent anomalous off-pump drift. A single scan
// cannot separate downstream usage from a downstream leak; this compares the
// most recent full day's off-pump consumption against the trailing history.
type DriftMonitor struct {
	factor  float64 // most recent day must exceed factor * trailing average
	minDays int     // days of trailing history required before flagging
}

// NewDriftMonitor creates a DriftMonitor. A factor <= 1 or minDays < 1 would
// flag ordinary variation, so both are raised to sane floors.
func NewDriftMonitor(factor float64, minDays int) *DriftMonitor {
	if factor <= 1 {
		factor = 2
	}
	if minDays < 1 {
		minDays = 3
	}
	return &DriftMonitor{factor: factor, minDays: minDays}
}

// Check inspects per-day off-pump consumption values, oldest first, with the
// most recent full day last. It reports whether that day is anomalous and the
// ratio against the trailing average.
func (m *DriftMonitor) Check(daily []float64) (bool, float64) {
	if len(daily) < m.minDays+1 {
		return false, 0
	}

	trailing := daily[:len(daily)-1]
	latest := daily[len(daily)-1]

	avg := 0.0
	for _, v := range trailing {
		avg += v
	}
	avg /= float64(len(trailing))

	if avg <= 0 {
		// No baseline to compare against.
		return false, 0
	}

	ratio := latest / avg
	return ratio > m.factor, ratio
}
