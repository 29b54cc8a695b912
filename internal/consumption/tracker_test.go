package consumption

import (
	"errors"
	"testing"
	"time"
)

func day1() time.Time {
	return time.Date(2026, 3, 2, 8, 0, 0, 0, time.UTC)
}

func TestTrackerAccumulatesOffPumpDrops(t *testing.T) {
	tr := NewTracker(0)
	now := day1()

	tr.Observe(now, 50, false, false)
	tr.Observe(now.Add(time.Second), 49.5, false, false)
	tr.Observe(now.Add(2*time.Second), 49.0, false, false)

	if got := tr.Today().Percent; got != 1.0 {
		t.Errorf("expected 1.0%% consumed, got %v", got)
	}
}

func TestTrackerClampsNegativeDeltas(t *testing.T) {
	tr := NewTracker(0)
	now := day1()

	tr.Observe(now, 40, false, false)
	// Sensor noise: level rises while pump is off. Must attribute zero,
	// never subtract.
	tr.Observe(now.Add(time.Second), 41, false, false)

	if got := tr.Today().Percent; got != 0 {
		t.Errorf("expected 0 consumption on rising level, got %v", got)
	}

	tr.Observe(now.Add(2*time.Second), 40.5, false, false)
	if got := tr.Today().Percent; got != 0.5 {
		t.Errorf("expected 0.5 after subsequent drop, got %v", got)
	}
}

func TestTrackerIgnoresPumpOnTicks(t *testing.T) {
	tr := NewTracker(0)
	now := day1()

	tr.Observe(now, 50, false, false)
	tr.Observe(now.Add(time.Second), 48, true, false)
	tr.Observe(now.Add(2*time.Second), 55, true, false)

	if got := tr.Today().Percent; got != 0 {
		t.Errorf("pump-on ticks must not accrue consumption, got %v", got)
	}
}

func TestTrackerIgnoresScanTicks(t *testing.T) {
	tr := NewTracker(0)
	now := day1()

	tr.Observe(now, 50, false, false)
	// During an isolation window downstream draw is assumed absent, so a
	// drop there is not consumption.
	tr.Observe(now.Add(time.Second), 48, false, true)

	if got := tr.Today().Percent; got != 0 {
		t.Errorf("scan ticks must not accrue consumption, got %v", got)
	}
}

func TestTrackerDayRollover(t *testing.T) {
	tr := NewTracker(0)
	now := day1()

	tr.Observe(now, 50, false, false)
	tr.Observe(now.Add(time.Second), 47, false, false)

	next := now.Add(24 * time.Hour)
	finalized := tr.Observe(next, 46, false, false)
	if finalized == nil {
		t.Fatal("expected finalized day at rollover")
	}
	if finalized.Date != "2026-03-02" {
		t.Errorf("unexpected finalized date %s", finalized.Date)
	}
	if finalized.Percent != 3 {
		t.Errorf("expected 3%% finalized, got %v", finalized.Percent)
	}

	// The rollover tick's delta lands in the new day.
	if got := tr.Today().Percent; got != 1 {
		t.Errorf("expected 1%% in new day, got %v", got)
	}
	if len(tr.History()) != 1 {
		t.Errorf("expected 1 history entry, got %d", len(tr.History()))
	}
}

func TestTrackerHistoryFIFO(t *testing.T) {
	tr := NewTracker(0)
	now := day1()

	for i := 0; i < 9; i++ {
		tr.Observe(now.Add(time.Duration(i)*24*time.Hour), 90, false, false)
	}

	h := tr.History()
	if len(h) != 7 {
		t.Fatalf("expected history capped at 7, got %d", len(h))
	}
	if h[0].Date != "2026-03-03" {
		t.Errorf("expected oldest entries evicted, oldest is %s", h[0].Date)
	}
}

func TestTrackerLiters(t *testing.T) {
	tr := NewTracker(1000)
	now := day1()

	tr.Observe(now, 50, false, false)
	tr.Observe(now.Add(time.Second), 49, false, false)

	today := tr.Today()
	if today.Liters != 10 {
		t.Errorf("expected 10 liters for 1%% of 1000L, got %v", today.Liters)
	}

	if !tr.HasCapacity() {
		t.Error("expected HasCapacity true")
	}
	if NewTracker(0).HasCapacity() {
		t.Error("expected HasCapacity false without capacity")
	}
}

func TestTrackerRestore(t *testing.T) {
	tr := NewTracker(0)
	hist := []Day{
		{Date: "2026-02-23", Percent: 4},
		{Date: "2026-02-24", Percent: 5},
	}
	tr.Restore(hist, Day{Date: "2026-03-02", Percent: 1.5})

	if len(tr.History()) != 2 {
		t.Fatalf("expected 2 restored days, got %d", len(tr.History()))
	}
	if tr.Today().Percent != 1.5 {
		t.Errorf("expected resumed current day, got %v", tr.Today().Percent)
	}

	// Accumulation continues on the restored entry.
	now := day1()
	tr.Observe(now, 50, false, false)
	tr.Observe(now.Add(time.Second), 49.5, false, false)
	if tr.Today().Percent != 2.0 {
		t.Errorf("expected 2.0 after restore + 0.5 drop, got %v", tr.Today().Percent)
	}
}

func TestWeeklyTotal(t *testing.T) {
	tr := NewTracker(0)
	tr.Restore([]Day{{Date: "2026-02-24", Percent: 4}, {Date: "2026-02-25", Percent: 6}}, Day{Date: "2026-03-02", Percent: 1})

	if got := tr.WeeklyTotal(); got != 11 {
		t.Errorf("expected weekly total 11, got %v", got)
	}
}

func TestDaysRemainingSingleDay(t *testing.T) {
	history := []Day{{Date: "2026-03-01", Percent: 5}}

	days, err := DaysRemaining(50, history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 10 {
		t.Errorf("expected 10 days remaining, got %v", days)
	}
}

func TestDaysRemainingAveragesWindow(t *testing.T) {
	history := []Day{
		{Percent: 2},
		{Percent: 4},
		{Percent: 6},
	}
	days, err := DaysRemaining(40, history)
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	if days != 10 {
		t.Errorf("expected 40/4=10 days, got %v", days)
	}
}

func TestDaysRemainingInsufficientData(t *testing.T) {
	if _, err := DaysRemaining(50, nil); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData with no history, got %v", err)
	}

	zero := []Day{{Percent: 0}, {Percent: 0}}
	if _, err := DaysRemaining(50, zero); !errors.Is(err, ErrInsufficientData) {
		t.Errorf("expected ErrInsufficientData with zero average, got %v", err)
	}
}
