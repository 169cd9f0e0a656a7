package virtual

import (
	"log/slog"
	"sync"
	"time"

	"github.com/google/uuid"
	"github.com/yumosx/lazyscroll/internal/schedule"
)

const (
	keyFrame    = "frame"
	keyGeometry = "geometry"
)

// Config holds the windowing knobs.
type Config struct {
	// Buffer is the base number of items kept beyond each visible edge.
	Buffer int
	// ScrollDebounce delays secondary recalculation such as geometry
	// rebuild checks.
	ScrollDebounce time.Duration
	// FixedViewportSize is reported as the total height while sentinel
	// expansion is in use and the exact total is unknown.
	FixedViewportSize float64
	// ExtraBufferBelow is added to the buffer after the visible range.
	ExtraBufferBelow     int
	UseSentinelExpansion bool
	DynamicBuffering     bool
}

// DefaultConfig returns the default windowing configuration.
func DefaultConfig() Config {
	return Config{
		Buffer:            5,
		ScrollDebounce:    50 * time.Millisecond,
		FixedViewportSize: 10_000_000,
		ExtraBufferBelow:  10,
		DynamicBuffering:  true,
	}
}

// Output is what the rendering layer consumes after every update.
type Output struct {
	StartIndex      int       `json:"start_index"`
	EndIndex        int       `json:"end_index"`
	PaddingTop      float64   `json:"padding_top"`
	TotalHeight     float64   `json:"total_height"`
	VisibleIndices  []int     `json:"visible_indices"`
	ScrollDirection Direction `json:"scroll_direction"`
	ScrollVelocity  float64   `json:"scroll_velocity"`
	Empty           bool      `json:"empty,omitempty"`
}

// ViewportFunc reports the current scroll position and client size along the
// scroll axis.
type ViewportFunc func() (position, size float64)

// Option configures an Engine.
type Option func(*Engine)

// WithScheduler replaces the timer-backed scheduler.
func WithScheduler(s schedule.Scheduler) Option {
	return func(e *Engine) {
		e.scheduler = s
	}
}

// WithLogger sets the logger. The session id is added to it.
func WithLogger(l *slog.Logger) Option {
	return func(e *Engine) {
		e.logger = l
	}
}

// WithViewportFunc sets the accessor used when a notification carries no
// viewport geometry.
func WithViewportFunc(fn ViewportFunc) Option {
	return func(e *Engine) {
		e.viewportFn = fn
	}
}

// WithEstimatedHeight sets the height assumed for unmeasured items.
func WithEstimatedHeight(h float64) Option {
	return func(e *Engine) {
		e.heights = NewHeights(h)
	}
}

// WithItemCount sets the initial number of items.
func WithItemCount(n int) Option {
	return func(e *Engine) {
		e.itemCount = max(0, n)
	}
}

// WithOnChange registers a callback invoked, outside the engine lock, with
// every new window state.
func WithOnChange(fn func(Output)) Option {
	return func(e *Engine) {
		e.onChange = fn
	}
}

// Engine is a windowing session. It owns the offset cache, the scroll
// history and the current window, and is driven by host events.
type Engine struct {
	id     string
	cfg    Config
	logger *slog.Logger

	scheduler schedule.Scheduler
	throttle  *schedule.Throttle

	geometry  *Geometry
	heights   *Heights
	tracker   *Tracker
	sentinels *Sentinels

	window    Window
	itemCount int
	scroll    float64
	viewport  float64

	// heightsDirty is set by significant measurements and cleared by the
	// debounced geometry check.
	heightsDirty bool
	closed       bool

	viewportFn ViewportFunc
	onChange   func(Output)

	mu sync.Mutex
}

var _ Notifier = (*Engine)(nil)

// New creates an engine session.
func New(cfg Config, opts ...Option) *Engine {
	e := &Engine{
		id:        uuid.NewString(),
		cfg:       cfg,
		throttle:  schedule.NewThrottle(schedule.FrameInterval),
		geometry:  NewGeometry(),
		tracker:   NewTracker(),
		sentinels: NewSentinels(),
		window:    Window{Empty: true},
	}
	for _, opt := range opts {
		opt(e)
	}
	if e.cfg.ScrollDebounce <= 0 {
		e.cfg.ScrollDebounce = DefaultConfig().ScrollDebounce
	}
	if e.heights == nil {
		e.heights = NewHeights(1)
	}
	if e.scheduler == nil {
		e.scheduler = schedule.NewDebouncer()
	}
	if e.logger == nil {
		e.logger = slog.Default()
	}
	e.logger = e.logger.With("session", e.id)
	e.logger.Debug("Windowing session started",
		"items", e.itemCount,
		"buffer", e.cfg.Buffer,
		"sentinels", e.cfg.UseSentinelExpansion,
	)
	return e
}

// ID returns the session id.
func (e *Engine) ID() string {
	return e.id
}

// Config returns the engine configuration.
func (e *Engine) Config() Config {
	return e.cfg
}

// Heights returns the measured height store.
func (e *Engine) Heights() *Heights {
	return e.heights
}

// Geometry returns the item geometry for index, building the offset table
// if needed.
func (e *Engine) Geometry(index int) (ItemGeometry, bool) {
	e.mu.Lock()
	defer e.mu.Unlock()
	e.geometry.Offsets(e.itemCount, e.heights.Lookup, e.heights.Estimate())
	return e.geometry.Item(index)
}

// ItemCount returns the current number of items.
func (e *Engine) ItemCount() int {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.itemCount
}

// State returns the latest window state.
func (e *Engine) State() Output {
	e.mu.Lock()
	defer e.mu.Unlock()
	return e.output()
}

// OnScroll records a scroll sample and recomputes the window, at most once
// per frame. Samples inside a frame schedule a trailing recompute so the last
// position always wins.
func (e *Engine) OnScroll(position float64, now time.Time) Output {
	e.mu.Lock()
	if e.closed {
		defer e.mu.Unlock()
		return e.output()
	}
	e.tracker.Record(position, now)
	e.scroll = max(0, position)

	if !e.throttle.Allow(now) {
		e.scheduler.Schedule(keyFrame, e.throttle.Remaining(now), e.flushFrame)
		defer e.mu.Unlock()
		return e.output()
	}
	e.scheduler.Cancel(keyFrame)
	out, changed := e.recompute()
	e.mu.Unlock()
	e.emit(out, changed)
	return out
}

// OnResize records a new viewport size and recomputes immediately.
func (e *Engine) OnResize(size float64, _ time.Time) Output {
	e.mu.Lock()
	if e.closed {
		defer e.mu.Unlock()
		return e.output()
	}
	e.viewport = max(0, size)
	out, changed := e.recompute()
	e.mu.Unlock()
	e.emit(out, changed)
	return out
}

// Sync pulls the viewport from the ViewportFunc, if any, and recomputes.
func (e *Engine) Sync() Output {
	e.mu.Lock()
	if e.closed {
		defer e.mu.Unlock()
		return e.output()
	}
	e.pullViewport()
	out, changed := e.recompute()
	e.mu.Unlock()
	e.emit(out, changed)
	return out
}

// SetItemCount changes the number of items. The offset table is rebuilt on
// the next recompute, which happens right away.
func (e *Engine) SetItemCount(n int) Output {
	e.mu.Lock()
	if e.closed {
		defer e.mu.Unlock()
		return e.output()
	}
	n = max(0, n)
	if n == e.itemCount {
		defer e.mu.Unlock()
		return e.output()
	}
	e.logger.Debug("Item count changed", "from", e.itemCount, "to", n)
	e.itemCount = n
	out, changed := e.recompute()
	e.mu.Unlock()
	e.emit(out, changed)
	return out
}

// SetMeasuredHeight records a measurement. Significant changes schedule a
// debounced geometry rebuild; small ones are absorbed until the next
// rebuild.
func (e *Engine) SetMeasuredHeight(index int, height float64) {
	if e.heights.Set(index, height) {
		e.markHeightsDirty()
	}
}

// SetEstimatedHeight changes the height assumed for unmeasured items. The
// offset table is rebuilt after the debounce.
func (e *Engine) SetEstimatedHeight(h float64) {
	if e.heights.SetEstimate(h) {
		e.markHeightsDirty()
	}
}

// ClearMeasuredHeight forgets a measurement.
func (e *Engine) ClearMeasuredHeight(index int) {
	if e.heights.Del(index) {
		e.markHeightsDirty()
	}
}

func (e *Engine) markHeightsDirty() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.heightsDirty = true
	e.scheduler.Schedule(keyGeometry, e.cfg.ScrollDebounce, e.flushGeometry)
}

// OnMutation reports that content changed in a way the engine cannot see,
// for example a batch of measurements. It schedules the debounced geometry
// check.
func (e *Engine) OnMutation() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.scheduler.Schedule(keyGeometry, e.cfg.ScrollDebounce, e.flushGeometry)
}

// RegisterBoundaryMarker registers, or with a nil marker unregisters, the
// sentinel placed at index. Index has to be the current start or end index.
func (e *Engine) RegisterBoundaryMarker(index int, marker Marker) Boundary {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return BoundaryNone
	}
	return e.sentinels.Register(index, marker, e.window)
}

// OnBoundaryIntersect expands the window past the boundary whose marker sits
// at index. Stale markers and disabled sentinel expansion are ignored.
func (e *Engine) OnBoundaryIntersect(index int) Output {
	e.mu.Lock()
	if e.closed || !e.cfg.UseSentinelExpansion {
		defer e.mu.Unlock()
		return e.output()
	}
	boundary := e.sentinels.Match(index)
	if boundary == BoundaryNone {
		e.logger.Debug("Ignoring stale boundary marker", "index", index)
		defer e.mu.Unlock()
		return e.output()
	}
	before := e.window.Len()
	if boundary != BoundaryBottom {
		e.window = Expand(index, true, e.window, e.cfg.Buffer, e.itemCount)
	}
	if boundary != BoundaryTop {
		e.window = Expand(index, false, e.window, e.cfg.Buffer, e.itemCount)
	}
	changed := e.window.Len() != before
	out := e.output()
	e.mu.Unlock()
	e.emit(out, changed)
	return out
}

// Notify dispatches a change notification to the matching handler.
// Payloads of the wrong type fall back to pulling the state from the host.
func (e *Engine) Notify(kind ChangeKind, payload any) {
	switch kind {
	case ChangeIntersection:
		if p, ok := payload.(Intersection); ok {
			e.OnBoundaryIntersect(p.Index)
		}
	case ChangeResize:
		if p, ok := payload.(Resize); ok {
			now := p.Time
			if now.IsZero() {
				now = time.Now()
			}
			e.OnResize(p.Size, now)
			return
		}
		e.Sync()
	case ChangeMutation:
		switch p := payload.(type) {
		case HeightChange:
			if p.Removed {
				e.ClearMeasuredHeight(p.Index)
			} else {
				e.SetMeasuredHeight(p.Index, p.Height)
			}
		case CountChange:
			e.SetItemCount(p.Count)
		default:
			e.OnMutation()
		}
	default:
		e.logger.Debug("Ignoring unknown change notification", "kind", kind)
	}
}

// Close ends the session: pending scheduled work is canceled and further
// events are ignored.
func (e *Engine) Close() {
	e.mu.Lock()
	defer e.mu.Unlock()
	if e.closed {
		return
	}
	e.closed = true
	if d, ok := e.scheduler.(*schedule.Debouncer); ok {
		d.Close()
	} else {
		e.scheduler.CancelPending()
	}
	e.logger.Debug("Windowing session closed")
}

func (e *Engine) flushFrame() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	out, changed := e.recompute()
	e.mu.Unlock()
	e.emit(out, changed)
}

func (e *Engine) flushGeometry() {
	e.mu.Lock()
	if e.closed {
		e.mu.Unlock()
		return
	}
	if e.heightsDirty {
		e.heightsDirty = false
		e.geometry.Invalidate()
		e.logger.Debug("Rebuilding item geometry",
			"items", e.itemCount,
			"measured", e.heights.Len(),
		)
	}
	e.pullViewport()
	out, changed := e.recompute()
	e.mu.Unlock()
	e.emit(out, changed)
}

func (e *Engine) pullViewport() {
	if e.viewportFn == nil {
		return
	}
	pos, size := e.viewportFn()
	e.scroll = max(0, pos)
	e.viewport = max(0, size)
}

// recompute must be called with the lock held.
func (e *Engine) recompute() (Output, bool) {
	e.geometry.Offsets(e.itemCount, e.heights.Lookup, e.heights.Estimate())

	if e.itemCount == 0 {
		changed := !e.window.Empty
		e.window = Window{Empty: true}
		e.sentinels.Reset(e.window)
		return e.output(), changed
	}

	var next Window
	if e.viewport <= 0 && !e.window.Empty {
		// Nothing to measure against: keep the previous window, trimmed to
		// the current items.
		next = e.window.fit(e.itemCount, e.geometry)
	} else {
		next = ComputeWindow(WindowInput{
			ScrollPosition:   e.scroll,
			ViewportSize:     e.viewport,
			Geometry:         e.geometry,
			ItemCount:        e.itemCount,
			BaseBuffer:       e.cfg.Buffer,
			ExtraBufferBelow: e.cfg.ExtraBufferBelow,
			State:            e.tracker.State(),
			Dynamic:          e.cfg.DynamicBuffering,
		})
	}
	changed := next.Empty != e.window.Empty ||
		next.StartIndex != e.window.StartIndex ||
		next.EndIndex != e.window.EndIndex ||
		next.PaddingTop != e.window.PaddingTop ||
		len(next.extra) != len(e.window.extra)
	e.window = next
	e.sentinels.Reset(e.window)
	return e.output(), changed
}

func (e *Engine) output() Output {
	state := e.tracker.State()
	out := Output{
		ScrollDirection: state.Direction,
		ScrollVelocity:  state.Velocity,
		TotalHeight:     e.geometry.TotalSize(),
		Empty:           e.window.Empty,
	}
	if e.cfg.UseSentinelExpansion && e.cfg.FixedViewportSize > 0 {
		out.TotalHeight = e.cfg.FixedViewportSize
	}
	if e.window.Empty {
		out.VisibleIndices = []int{}
		return out
	}
	out.StartIndex = e.window.StartIndex
	out.EndIndex = e.window.EndIndex
	out.PaddingTop = e.window.PaddingTop
	out.VisibleIndices = e.window.Indices()
	return out
}

func (e *Engine) emit(out Output, changed bool) {
	if changed && e.onChange != nil {
		e.onChange(out)
	}
}
