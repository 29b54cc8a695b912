package leak

import "testing"

func TestDriftRequiresHistory(t *testing.T) {
	m := NewDriftMonitor(2.0, 3)

	flagged, _ := m.Check([]float64{5, 5, 20})
	if flagged {
		t.Error("must not flag with fewer trailing days than minimum")
	}
}

func TestDriftFlagsAnomalousDay(t *testing.T) {
	m := NewDriftMonitor(2.0, 3)

	flagged, ratio := m.Check([]float64{5, 4, 6, 15})
	if !flagged {
		t.Fatal("expected anomalous day flagged")
	}
	if ratio != 3.0 {
		t.Errorf("expected ratio 3.0, got %v", ratio)
	}
}

func TestDriftIgnoresNormalVariation(t *testing.T) {
	m := NewDriftMonitor(2.0, 3)

	flagged, _ := m.Check([]float64{5, 4, 6, 8})
	if flagged {
		t.Error("ordinary day-to-day variation must not be flagged")
	}
}

func TestDriftZeroBaseline(t *testing.T) {
	m := NewDriftMonitor(2.0, 3)

	flagged, _ := m.Check([]float64{0, 0, 0, 5})
	if flagged {
		t.Error("no baseline: must not flag")
	}
}

func TestDriftFloorsBadParameters(t *testing.T) {
	m := NewDriftMonitor(0.5, 0)

	// factor floored to 2, minDays to 3: ratio 1.5 must not flag.
	flagged, _ := m.Check([]float64{4, 4, 4, 6})
	if flagged {
		t.Error("floored factor should not flag a 1.5x day")
	}
}
