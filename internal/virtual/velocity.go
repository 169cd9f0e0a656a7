package virtual

import (
	"fmt"
	"math"
	"time"
)

// VelocityWindow is how far back scroll samples are kept.
const VelocityWindow = 200 * time.Millisecond

// Direction is the direction of the last scroll movement.
type Direction int

const (
	DirectionNone Direction = iota
	// DirectionUp is towards the start of the list (smaller offsets).
	DirectionUp
	// DirectionDown is towards the end of the list (larger offsets).
	DirectionDown
)

func (d Direction) String() string {
	switch d {
	case DirectionUp:
		return "up"
	case DirectionDown:
		return "down"
	default:
		return "none"
	}
}

// MarshalText implements encoding.TextMarshaler.
func (d Direction) MarshalText() ([]byte, error) {
	return []byte(d.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (d *Direction) UnmarshalText(b []byte) error {
	switch string(b) {
	case "up":
		*d = DirectionUp
	case "down":
		*d = DirectionDown
	case "none", "":
		*d = DirectionNone
	default:
		return fmt.Errorf("unknown scroll direction %q", b)
	}
	return nil
}

// ScrollSample is a single observed scroll position.
type ScrollSample struct {
	Time     time.Time
	Position float64
}

// ScrollState is the direction and speed derived from recent samples.
// Velocity is in pixels per millisecond.
type ScrollState struct {
	Direction Direction
	Velocity  float64
}

// Tracker keeps the scroll samples of the trailing VelocityWindow and
// derives a ScrollState from them.
type Tracker struct {
	samples []ScrollSample
	prev    ScrollSample
	hasPrev bool
	state   ScrollState
}

// NewTracker creates a tracker with no history.
func NewTracker() *Tracker {
	return &Tracker{
		samples: make([]ScrollSample, 0, 16),
	}
}

// State returns the last derived scroll state.
func (t *Tracker) State() ScrollState {
	return t.state
}

// Samples returns a copy of the samples currently in the window.
func (t *Tracker) Samples() []ScrollSample {
	out := make([]ScrollSample, len(t.samples))
	copy(out, t.samples)
	return out
}

// Record adds a sample taken at now and returns the updated state.
func (t *Tracker) Record(position float64, now time.Time) ScrollState {
	if math.IsNaN(position) || math.IsInf(position, 0) {
		return t.state
	}

	t.samples = append(t.samples, ScrollSample{Time: now, Position: position})
	cutoff := now.Add(-VelocityWindow)
	// Samples are appended in arrival order, so the stale ones are a prefix.
	drop := 0
	for drop < len(t.samples) && t.samples[drop].Time.Before(cutoff) {
		drop++
	}
	if drop > 0 {
		t.samples = append(t.samples[:0], t.samples[drop:]...)
	}

	if len(t.samples) >= 2 {
		oldest, newest := t.samples[0], t.samples[len(t.samples)-1]
		if elapsed := millis(newest.Time.Sub(oldest.Time)); elapsed > 0 {
			t.state.Velocity = math.Abs(newest.Position-oldest.Position) / elapsed
		}
	} else if t.hasPrev {
		if elapsed := millis(now.Sub(t.prev.Time)); elapsed > 0 {
			t.state.Velocity = math.Abs(position-t.prev.Position) / elapsed
		}
	}

	if t.hasPrev {
		switch {
		case t.prev.Position < position:
			t.state.Direction = DirectionDown
		case t.prev.Position > position:
			t.state.Direction = DirectionUp
		}
	}

	t.prev = ScrollSample{Time: now, Position: position}
	t.hasPrev = true
	return t.state
}

// Reset clears all history.
func (t *Tracker) Reset() {
	t.samples = t.samples[:0]
	t.prev = ScrollSample{}
	t.hasPrev = false
	t.state = ScrollState{}
}

func millis(d time.Duration) float64 {
	return float64(d) / float64(time.Millisecond)
}
