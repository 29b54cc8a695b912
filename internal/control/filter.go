package control

import "math"

// Filter smooths raw level readings with a fixed-window moving average.
// A sensor dropout repeats the previous smoothed value instead of injecting
// a zero, so a dead sensor is never mistaken for an empty tank.
type Filter struct {
	window []float64
	size   int
	head   int
	count  int

	last   float64
	primed bool

	consecutiveFaults int
	totalFaults       int
}

// NewFilter creates a Filter holding the last size raw readings.
// A size below 1 is treated as 1.
func NewFilter(size int) *Filter {
	if size < 1 {
		size = 1
	}
	return &Filter{
		window: make([]float64, size),
		size:   size,
	}
}

// Push adds a raw reading and returns the mean of currently held readings,
// clamped to [0,100]. Resets the consecutive fault run.
func (f *Filter) Push(raw float64) float64 {
	raw = clamp(raw)

	f.window[f.head] = raw
	f.head = (f.head + 1) % f.size
	if f.count < f.size {
		f.count++
	}

	sum := 0.0
	for i := 0; i < f.count; i++ {
		sum += f.window[i]
	}
	f.last = clamp(sum / float64(f.count))
	f.primed = true
	f.consecutiveFaults = 0
	return f.last
}

// Skip records a missing or garbled reading. It returns the previous smoothed
// value and whether the filter has ever produced one.
func (f *Filter) Skip() (float64, bool) {
	f.consecutiveFaults++
	f.totalFaults++
	return f.last, f.primed
}

// Last returns the most recent smoothed value and whether one exists.
func (f *Filter) Last() (float64, bool) {
	return f.last, f.primed
}

// ConsecutiveFaults returns the length of the current run of skipped ticks.
func (f *Filter) ConsecutiveFaults() int {
	return f.consecutiveFaults
}

// TotalFaults returns the number of skipped ticks since startup.
func (f *Filter) TotalFaults() int {
	return f.totalFaults
}

// StdDev returns the sample standard deviation of the held raw readings.
// Returns 0 while fewer than two readings are held. The leak scanner derives
// its noise margin from this rather than a fixed constant.
func (f *Filter) StdDev() float64 {
	if f.count < 2 {
		return 0
	}
	mean := 0.0
	for i := 0; i < f.count; i++ {
		mean += f.window[i]
	}
	mean /= float64(f.count)

	ss := 0.0
	for i := 0; i < f.count; i++ {
		d := f.window[i] - mean
		ss += d * d
	}
	return math.Sqrt(ss / float64(f.count-1))
}

func clamp(v float64) float64 {
	if v < 0 {
		return 0
	}
	if v > 100 {
		return 100
	}
	return v
}
