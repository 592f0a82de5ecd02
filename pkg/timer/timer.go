// Package timer provides the elapsed-interval timer every periodic task owns.
package timer

import "time"

// Timer reports whether Interval has passed since the last Reset.
// It is a plain value; the owning task is the only one that resets it.
type Timer struct {
	Interval time.Duration
	last     time.Time
}

// New returns a timer that first elapses Interval after now.
func New(interval time.Duration, now time.Time) Timer {
	return Timer{Interval: interval, last: now}
}

// Elapsed reports whether now-last >= Interval. It never resets the timer,
// so repeated checks keep returning true until Reset is called.
func (t *Timer) Elapsed(now time.Time) bool {
	return now.Sub(t.last) >= t.Interval
}

// Reset restarts the interval at now.
func (t *Timer) Reset(now time.Time) {
	t.last = now
}

// Remaining returns how long until the timer elapses, or 0 if it already has.
func (t *Timer) Remaining(now time.Time) time.Duration {
	left := t.Interval - now.Sub(t.last)
	if left < 0 {
		return 0
	}
	return left
}

// LastFired returns the time of the last Reset.
func (t *Timer) LastFired() time.Time {
	return t.last
}
