package schedule

import (
	"slices"
	"sync"
	"time"
)

// Manual is a Scheduler that never fires on its own. Work runs when the
// host calls Flush or Advance, which suits hosts that already own an event
// loop, trace replays and tests that need deterministic ordering.
type Manual struct {
	pending map[string]manualTask
	seq     int
	now     time.Time
	mu      sync.Mutex
}

type manualTask struct {
	seq   int
	delay time.Duration
	due   time.Time
	fn    func()
}

var _ Scheduler = (*Manual)(nil)

// NewManual creates an empty manual scheduler.
func NewManual() *Manual {
	return &Manual{pending: make(map[string]manualTask)}
}

func (m *Manual) Schedule(key string, delay time.Duration, fn func()) {
	m.mu.Lock()
	defer m.mu.Unlock()
	m.seq++
	m.pending[key] = manualTask{seq: m.seq, delay: delay, due: m.now.Add(delay), fn: fn}
}

func (m *Manual) Cancel(key string) {
	m.mu.Lock()
	defer m.mu.Unlock()
	delete(m.pending, key)
}

func (m *Manual) CancelPending() {
	m.mu.Lock()
	defer m.mu.Unlock()
	clear(m.pending)
}

// Pending reports whether key has an invocation waiting.
func (m *Manual) Pending(key string) bool {
	m.mu.Lock()
	defer m.mu.Unlock()
	_, ok := m.pending[key]
	return ok
}

// Delay returns the delay key was last scheduled with.
func (m *Manual) Delay(key string) (time.Duration, bool) {
	m.mu.Lock()
	defer m.mu.Unlock()
	task, ok := m.pending[key]
	return task.delay, ok
}

// Len returns the number of pending invocations.
func (m *Manual) Len() int {
	m.mu.Lock()
	defer m.mu.Unlock()
	return len(m.pending)
}

// Flush runs every pending invocation in scheduling order and returns how
// many ran. Work scheduled while flushing waits for the next Flush.
func (m *Manual) Flush() int {
	m.mu.Lock()
	tasks := make([]manualTask, 0, len(m.pending))
	for _, task := range m.pending {
		tasks = append(tasks, task)
	}
	clear(m.pending)
	m.mu.Unlock()

	slices.SortFunc(tasks, func(a, b manualTask) int {
		return a.seq - b.seq
	})
	for _, task := range tasks {
		task.fn()
	}
	return len(tasks)
}

// Now returns the scheduler's notion of the current time.
func (m *Manual) Now() time.Time {
	m.mu.Lock()
	defer m.mu.Unlock()
	return m.now
}

// Advance moves the clock to now and runs, in due order, every invocation
// that became due. It returns how many ran. The clock never moves backwards.
func (m *Manual) Advance(now time.Time) int {
	m.mu.Lock()
	if now.After(m.now) {
		m.now = now
	}
	var due []manualTask
	for key, task := range m.pending {
		if !task.due.After(m.now) {
			due = append(due, task)
			delete(m.pending, key)
		}
	}
	m.mu.Unlock()

	slices.SortFunc(due, func(a, b manualTask) int {
		if c := a.due.Compare(b.due); c != 0 {
			return c
		}
		return a.seq - b.seq
	})
	for _, task := range due {
		task.fn()
	}
	return len(due)
}
