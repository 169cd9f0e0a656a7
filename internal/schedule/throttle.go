package schedule

import "time"

// Throttle is a leading-edge sampler: it admits at most one event per
// interval. Timestamps come from the caller so that event time, not wall
// time, drives the decision.
type Throttle struct {
	interval time.Duration
	last     time.Time
}

// NewThrottle creates a sampler with the given minimum spacing. A
// non-positive interval falls back to FrameInterval.
func NewThrottle(interval time.Duration) *Throttle {
	if interval <= 0 {
		interval = FrameInterval
	}
	return &Throttle{interval: interval}
}

// Allow reports whether an event at now may run, and records it if so.
func (t *Throttle) Allow(now time.Time) bool {
	if !t.last.IsZero() && now.Sub(t.last) < t.interval && !now.Before(t.last) {
		return false
	}
	t.last = now
	return true
}

// Remaining is how long after now the next event would be admitted.
func (t *Throttle) Remaining(now time.Time) time.Duration {
	if t.last.IsZero() {
		return 0
	}
	return max(0, t.interval-now.Sub(t.last))
}

// Reset forgets the last admitted event.
func (t *Throttle) Reset() {
	t.last = time.Time{}
}
