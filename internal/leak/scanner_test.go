package leak

import (
	"testing"
	"time"
)

func scanStart() time.Time {
	return time.Date(2026, 3, 2, 2, 0, 0, 0, time.UTC)
}

func TestScanNoLeakWhenLevelHolds(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	if err := s.Start(start, 10*time.Minute, 80, false, false); err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if !s.Scanning() {
		t.Fatal("expected scanning mode")
	}

	// Level wobbles inside the margin for the whole window.
	for i := 1; i <= 9; i++ {
		now := start.Add(time.Duration(i) * time.Minute)
		if res := s.Tick(now, 79.8, true, false, false, 0.1); res != nil {
			t.Fatalf("minute %d: scan ended early: %+v", i, res)
		}
	}

	res := s.Tick(start.Add(10*time.Minute), 79.9, true, false, false, 0.1)
	if res == nil {
		t.Fatal("expected result at window end")
	}
	if res.Classification != NoLeak {
		t.Errorf("expected NO_LEAK, got %s (%s)", res.Classification, res.Reason)
	}
	if res.LevelBefore != 80 || res.LevelAfter != 79.9 {
		t.Errorf("unexpected levels: before=%v after=%v", res.LevelBefore, res.LevelAfter)
	}
	if s.Scanning() {
		t.Error("expected scanner idle after completion")
	}
}

func TestScanTankLeakLikelyOnDrop(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	s.Start(start, 10*time.Minute, 80, false, false)
	s.Tick(start.Add(5*time.Minute), 78, true, false, false, 0.1)

	res := s.Tick(start.Add(10*time.Minute), 76, true, false, false, 0.1)
	if res == nil {
		t.Fatal("expected result at window end")
	}
	if res.Classification != TankLeakLikely {
		t.Errorf("expected TANK_LEAK_LIKELY, got %s (%s)", res.Classification, res.Reason)
	}
}

func TestScanMarginDerivedFromNoise(t *testing.T) {
	// A 2% drop with a noisy sensor (stddev 1%, sigma 3 -> margin 3%) must
	// not be classified as a leak.
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	s.Start(start, 10*time.Minute, 80, false, false)
	res := s.Tick(start.Add(10*time.Minute), 78, true, false, false, 1.0)
	if res == nil {
		t.Fatal("expected result")
	}
	if res.Classification != NoLeak {
		t.Errorf("expected NO_LEAK within noise margin, got %s", res.Classification)
	}

	// Same drop with a quiet sensor falls back to the 1% floor and is a leak.
	s.Start(start, 10*time.Minute, 80, false, false)
	res = s.Tick(start.Add(10*time.Minute), 78, true, false, false, 0.0)
	if res == nil {
		t.Fatal("expected result")
	}
	if res.Classification != TankLeakLikely {
		t.Errorf("expected TANK_LEAK_LIKELY with quiet sensor, got %s", res.Classification)
	}
}

func TestScanAbortsWhenPumpActivates(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	s.Start(start, 10*time.Minute, 30, false, false)

	res := s.Tick(start.Add(2*time.Minute), 25, true, true, false, 0.1)
	if res == nil {
		t.Fatal("expected abort result")
	}
	if res.Classification != Inconclusive {
		t.Errorf("pump-on abort must be INCONCLUSIVE, got %s", res.Classification)
	}
	if s.Scanning() {
		t.Error("expected scanner idle after abort")
	}
}

func TestScanAbortsOnHardOff(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	s.Start(start, 10*time.Minute, 90, false, false)

	res := s.Tick(start.Add(time.Minute), 96, true, false, true, 0.1)
	if res == nil {
		t.Fatal("expected abort result")
	}
	if res.Classification != Inconclusive {
		t.Errorf("hard-off abort must be INCONCLUSIVE, got %s", res.Classification)
	}
}

func TestScanInconclusiveWithoutSensorData(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	s.Start(start, 5*time.Minute, 80, false, false)

	// Sensor silent for the entire window.
	for i := 1; i <= 4; i++ {
		s.Tick(start.Add(time.Duration(i)*time.Minute), 0, false, false, false, 0.1)
	}
	res := s.Tick(start.Add(5*time.Minute), 0, false, false, false, 0.1)
	if res == nil {
		t.Fatal("expected result at window end")
	}
	if res.Classification != Inconclusive {
		t.Errorf("absence of data must be INCONCLUSIVE, not %s", res.Classification)
	}
}

func TestScanCancel(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	if res := s.Cancel(start); res != nil {
		t.Errorf("cancel with no scan running should return nil, got %+v", res)
	}

	s.Start(start, 10*time.Minute, 80, false, true)
	res := s.Cancel(start.Add(time.Minute))
	if res == nil {
		t.Fatal("expected cancel result")
	}
	if res.Classification != Inconclusive {
		t.Errorf("expected INCONCLUSIVE, got %s", res.Classification)
	}
	if !res.Manual {
		t.Error("expected manual flag preserved")
	}
}

func TestScanRejectsConcurrentStart(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	start := scanStart()

	s.Start(start, 10*time.Minute, 80, false, false)
	if err := s.Start(start.Add(time.Minute), 5*time.Minute, 80, false, true); err != ErrScanActive {
		t.Errorf("expected ErrScanActive, got %v", err)
	}
}

func TestScanRejectsStartWhilePumpRunning(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	if err := s.Start(scanStart(), 10*time.Minute, 30, true, false); err != ErrPumpRunning {
		t.Errorf("expected ErrPumpRunning, got %v", err)
	}
	if s.Scanning() {
		t.Error("rejected start must not enter scanning mode")
	}
}

func TestScanTickWhileIdle(t *testing.T) {
	s := NewScanner(1.0, 3.0)
	if res := s.Tick(scanStart(), 50, true, false, false, 0.1); res != nil {
		t.Errorf("idle tick should return nil, got %+v", res)
	}
}
