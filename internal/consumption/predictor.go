package consumption

import "errors"

// ErrInsufficientData is returned when no prediction can be made: fewer than
// one finalized day of history, or zero average consumption.
var ErrInsufficientData = errors.New("insufficient consumption history")

// DaysRemaining predicts days until depletion from the current level and the
// rolling history of finalized days. Units cancel, so the prediction works
// the same whether the ledger is in percent or liters.
func DaysRemaining(level float64, history []Day) (float64, error) {
	if len(history) == 0 {
		return 0, ErrInsufficientData
	}

	n := len(history)
	if n > historyDays {
		n = historyDays
	}
	avg := 0.0
	for _, d := range history[len(history)-n:] {
		avg += d.Percent
	}
	avg /= float64(n)

	if avg <= 0 {
		return 0, ErrInsufficientData
	}
	return level / avg, nil
}
