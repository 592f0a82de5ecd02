package dust

import (
	"time"

	"github.com/chewxy/math32"
)

// Result is the outcome of one completed sampling window.
type Result struct {
	LowPulse      time.Duration // Total low time observed in the window
	Ratio         float32       // Low-pulse occupancy, 0..100
	Concentration float32       // Particles per 0.01 cf
}

// Estimator accumulates low-pulse occupancy of a particulate sensor over
// a fixed sampling window.
type Estimator struct {
	Window time.Duration

	lowPulse    time.Duration
	windowStart time.Time
}

// New creates an Estimator whose first window starts at now.
func New(window time.Duration, now time.Time) *Estimator {
	return &Estimator{Window: window, windowStart: now}
}

// Accumulate adds one measured low pulse.
func (e *Estimator) Accumulate(lowPulse time.Duration) {
	if lowPulse > 0 {
		e.lowPulse += lowPulse
	}
}

// Update closes the window once more than Window has passed since it
// started. It returns false while the window is still open.
func (e *Estimator) Update(now time.Time) (Result, bool) {
	if now.Sub(e.windowStart) <= e.Window {
		return Result{}, false
	}

	ratio := Ratio(e.lowPulse, e.Window)
	r := Result{
		LowPulse:      e.lowPulse,
		Ratio:         ratio,
		Concentration: Concentration(ratio),
	}

	e.lowPulse = 0
	e.windowStart = now
	return r, true
}

// LowPulse returns the occupancy accumulated in the current window.
func (e *Estimator) LowPulse() time.Duration {
	return e.lowPulse
}

// Ratio returns low-pulse occupancy as a percentage of window.
func Ratio(lowPulse, window time.Duration) float32 {
	ms := float32(window.Milliseconds())
	if ms == 0 {
		return 0
	}
	return float32(lowPulse.Microseconds()) / (ms * 10)
}

// Concentration converts an occupancy ratio to particle concentration
// using the sensor datasheet curve. The ratio is a percentage, not 0..1.
func Concentration(ratio float32) float32 {
	return 1.1*math32.Pow(ratio, 3) - 3.8*math32.Pow(ratio, 2) + 520*ratio + 0.62
}
