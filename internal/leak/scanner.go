// Package leak classifies tank level drift as leakage or downstream usage
// without a flow meter. A scan isolates consumption for a window (outlets
// assumed closed) and compares level drift against the sensor noise margin.
package leak

import (
	"errors"
	"fmt"
	"time"
)

// Classification is the outcome of a leak scan or drift comparison.
type Classification string

const (
	NoLeak                Classification = "NO_LEAK"
	TankLeakLikely        Classification = "TANK_LEAK_LIKELY"
	DownstreamUsageOrLeak Classification = "DOWNSTREAM_USAGE_OR_LEAK"
	Inconclusive          Classification = "INCONCLUSIVE"
)

// Mode is the scanner's tagged operating mode, checked once per tick.
type Mode string

const (
	ModeNormal   Mode = "NORMAL"
	ModeScanning Mode = "SCANNING"
)

// Result records a completed scan. Created at scan completion, never mutated.
type Result struct {
	Start          time.Time
	Duration       time.Duration
	LevelBefore    float64
	LevelAfter     float64
	Classification Classification
	Reason         string
	Manual         bool
}

var (
	// ErrScanActive is returned when a scan is requested while one is running.
	ErrScanActive = errors.New("leak scan already in progress")
	// ErrPumpRunning is returned when a scan is requested while the pump is on.
	ErrPumpRunning = errors.New("cannot start leak scan while pump is running")
)

// Scanner runs isolation-window scans. It is owned by the control loop and is
// not safe for concurrent use.
type Scanner struct {
	minMargin float64 // noise margin floor, percent
	sigma     float64 // std-dev multiple for the derived margin

	mode       Mode
	start      time.Time
	end        time.Time
	duration   time.Duration
	startLevel float64
	lastLevel  float64
	samples    int
	manual     bool
}

// NewScanner creates a Scanner. The classification margin is
// max(minMargin, sigma * observed sample stddev) at scan end.
func NewScanner(minMargin, sigma float64) *Scanner {
	return &Scanner{
		minMargin: minMargin,
		sigma:     sigma,
		mode:      ModeNormal,
	}
}

// Start begins a scan of the given duration. The pump must be off: a scan
// started under an active pump could never hold isolation.
func (s *Scanner) Start(now time.Time, duration time.Duration, level float64, pumpOn bool, manual bool) error {
	if s.mode == ModeScanning {
		return ErrScanActive
	}
	if pumpOn {
		return ErrPumpRunning
	}
	s.mode = ModeScanning
	s.start = now
	s.duration = duration
	s.end = now.Add(duration)
	s.startLevel = level
	s.lastLevel = level
	s.samples = 0
	s.manual = manual
	return nil
}

// Cancel aborts a running scan on operator request, yielding Inconclusive.
// Returns nil when no scan is running.
func (s *Scanner) Cancel(now time.Time) *Result {
	if s.mode != ModeScanning {
		return nil
	}
	return s.abort(now, "canceled by operator")
}

// Tick advances the scan. It returns a non-nil Result exactly when the scan
// completes or aborts. noise is the filter's observed sample stddev.
//
// Isolation is voided by any pump activity and by the hard-off override; an
// aborted scan is always Inconclusive, never NoLeak, since absence of a clean
// window is not evidence of no leak.
func (s *Scanner) Tick(now time.Time, level float64, levelOK bool, pumpOn bool, hardOff bool, noise float64) *Result {
	if s.mode != ModeScanning {
		return nil
	}

	if pumpOn {
		return s.abort(now, "pump activated during scan")
	}
	if hardOff {
		return s.abort(now, "hard-off safety override during scan")
	}

	if levelOK {
		s.lastLevel = level
		s.samples++
	}

	if now.Before(s.end) {
		return nil
	}

	res := &Result{
		Start:       s.start,
		Duration:    s.duration,
		LevelBefore: s.startLevel,
		LevelAfter:  s.lastLevel,
		Manual:      s.manual,
	}

	if s.samples == 0 {
		res.Classification = Inconclusive
		res.Reason = "no sensor readings during scan window"
	} else {
		margin := s.margin(noise)
		drop := s.startLevel - s.lastLevel
		if drop > margin {
			res.Classification = TankLeakLikely
			res.Reason = fmt.Sprintf("level fell %.2f%% with outlets isolated (margin %.2f%%)", drop, margin)
		} else {
			res.Classification = NoLeak
			res.Reason = fmt.Sprintf("level held within %.2f%% margin", margin)
		}
	}

	s.reset()
	return res
}

// Scanning reports whether an isolation window is active.
func (s *Scanner) Scanning() bool {
	return s.mode == ModeScanning
}

// Mode returns the current operating mode.
func (s *Scanner) Mode() Mode {
	return s.mode
}

// Deadline returns the end of the active scan window, zero when idle.
func (s *Scanner) Deadline() time.Time {
	if s.mode != ModeScanning {
		return time.Time{}
	}
	return s.end
}

func (s *Scanner) margin(noise float64) float64 {
	m := s.sigma * noise
	if m < s.minMargin {
		m = s.minMargin
	}
	return m
}

func (s *Scanner) abort(now time.Time, reason string) *Result {
	res := &Result{
		Start:          s.start,
		Duration:       s.duration,
		LevelBefore:    s.startLevel,
		LevelAfter:     s.lastLevel,
		Classification: Inconclusive,
		Reason:         reason,
		Manual:         s.manual,
	}
	s.reset()
	return res
}

func (s *Scanner) reset() {
	s.mode = ModeNormal
	s.start = time.Time{}
	s.end = time.Time{}
	s.duration = 0
	s.startLevel = 0
	s.lastLevel = 0
	s.samples = 0
	s.manual = false
}
