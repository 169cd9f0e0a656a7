// Package schedule provides the timer plumbing the windowing engine uses to
// bound how often it recomputes: a keyed debouncer with cancellation, a
// frame-rate sampler, and a manual scheduler for synchronous hosts and tests.
package schedule

import (
	"sync"
	"time"

	"github.com/yumosx/lazyscroll/internal/csync"
)

// FrameInterval is the minimum spacing between authoritative recomputes.
const FrameInterval = 16 * time.Millisecond

// Scheduler runs deferred work. Every key holds at most one pending
// invocation: scheduling a key again replaces the previous one.
type Scheduler interface {
	Schedule(key string, delay time.Duration, fn func())
	Cancel(key string)
	CancelPending()
}

// Debouncer is a Scheduler backed by time.AfterFunc.
type Debouncer struct {
	timers *csync.Map[string, *time.Timer]
	closed bool
	mu     sync.Mutex
}

var _ Scheduler = (*Debouncer)(nil)

// NewDebouncer creates a timer-backed scheduler.
func NewDebouncer() *Debouncer {
	return &Debouncer{
		timers: csync.NewMap[string, *time.Timer](),
	}
}

// Schedule runs fn after delay unless the key is rescheduled or canceled
// first.
func (d *Debouncer) Schedule(key string, delay time.Duration, fn func()) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if d.closed {
		return
	}

	// Cancel existing timer if any
	if timer, exists := d.timers.Get(key); exists {
		timer.Stop()
	}

	var timer *time.Timer
	timer = time.AfterFunc(delay, func() {
		d.mu.Lock()
		// Only the latest timer for a key may run.
		if current, ok := d.timers.Get(key); !ok || current != timer {
			d.mu.Unlock()
			return
		}
		d.timers.Del(key)
		d.mu.Unlock()
		fn()
	})
	d.timers.Set(key, timer)
}

// Cancel stops the pending invocation for key, if any.
func (d *Debouncer) Cancel(key string) {
	d.mu.Lock()
	defer d.mu.Unlock()
	if timer, ok := d.timers.Take(key); ok {
		timer.Stop()
	}
}

// CancelPending stops every pending invocation. The debouncer can still be
// used afterwards.
func (d *Debouncer) CancelPending() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.stopAll()
}

// Close cancels pending work and rejects any further scheduling.
func (d *Debouncer) Close() {
	d.mu.Lock()
	defer d.mu.Unlock()
	d.closed = true
	d.stopAll()
}

func (d *Debouncer) stopAll() {
	for _, timer := range d.timers.Reset() {
		timer.Stop()
	}
}

// Pending reports how many keys have an invocation waiting.
func (d *Debouncer) Pending() int {
	return d.timers.Len()
}
