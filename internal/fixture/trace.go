package fixture

import (
	"encoding/json"
	"fmt"
	"io"
	"log/slog"
	"slices"
	"time"

	"github.com/yumosx/lazyscroll/internal/autoscroll"
	"github.com/yumosx/lazyscroll/internal/schedule"
	"github.com/yumosx/lazyscroll/internal/virtual"
)

// EventType names a recorded host event.
type EventType string

const (
	EventScroll    EventType = "scroll"
	EventResize    EventType = "resize"
	EventMeasure   EventType = "measure"
	EventCount     EventType = "count"
	EventRegister  EventType = "register"
	EventIntersect EventType = "intersect"
	EventActivate  EventType = "activate"

	// EventSettle is only produced by Replay, after the last event, once
	// pending trailing work has run.
	EventSettle EventType = "settle"
)

// Event is a single host event. T is milliseconds since the start of the
// trace. Which of the remaining fields matter depends on Type.
type Event struct {
	T        int64              `json:"t"`
	Type     EventType          `json:"type"`
	Position float64            `json:"position,omitempty"`
	Size     float64            `json:"size,omitempty"`
	Index    int                `json:"index,omitempty"`
	Height   float64            `json:"height,omitempty"`
	Count    int                `json:"count,omitempty"`
	Target   *autoscroll.Target `json:"target,omitempty"`
}

// Trace is a recorded list session.
type Trace struct {
	ItemCount       int                 `json:"itemCount"`
	EstimatedHeight float64             `json:"estimatedHeight"`
	Orientation     autoscroll.Mode     `json:"orientation"`
	ItemWidth       *float64            `json:"itemWidth,omitempty"`
	Viewport        autoscroll.Viewport `json:"viewport"`
	Heights         map[int]float64     `json:"heights,omitempty"`
	Events          []Event             `json:"events"`
}

// Record is one line of replay output.
type Record struct {
	T          int64          `json:"t"`
	Event      EventType      `json:"event"`
	State      virtual.Output `json:"state"`
	Correction *float64       `json:"correction,omitempty"`
}

// LoadTrace decodes a trace.
func LoadTrace(r io.Reader) (Trace, error) {
	var tr Trace
	if err := json.NewDecoder(r).Decode(&tr); err != nil {
		return Trace{}, fmt.Errorf("failed to decode trace: %w", err)
	}
	if tr.ItemCount < 0 {
		return Trace{}, fmt.Errorf("invalid item count %d", tr.ItemCount)
	}
	if tr.EstimatedHeight <= 0 {
		tr.EstimatedHeight = 1
	}
	for i, ev := range tr.Events {
		if ev.T < 0 {
			return Trace{}, fmt.Errorf("event %d: negative time %d", i, ev.T)
		}
	}
	return tr, nil
}

// ReplayOption configures Replay.
type ReplayOption func(*replayer)

// WithLogger sets the logger handed to the engine.
func WithLogger(l *slog.Logger) ReplayOption {
	return func(r *replayer) {
		r.logger = l
	}
}

// Replay drives a fresh engine through the events of tr and writes one JSON
// record per event to w. Time is simulated: scheduled trailing work runs as
// the trace clock passes its due time, so the output is deterministic.
func Replay(tr Trace, cfg virtual.Config, w io.Writer, opts ...ReplayOption) error {
	r := newReplayer(tr, cfg, opts...)
	defer r.engine.Close()

	enc := json.NewEncoder(w)
	events := slices.Clone(tr.Events)
	slices.SortStableFunc(events, func(a, b Event) int {
		return int(a.T - b.T)
	})

	var last int64
	for i, ev := range events {
		rec, err := r.apply(ev)
		if err != nil {
			return fmt.Errorf("event %d: %w", i, err)
		}
		if err := enc.Encode(rec); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
		last = ev.T
	}

	if r.sched.Flush() > 0 {
		if err := enc.Encode(Record{T: last, Event: EventSettle, State: r.engine.State()}); err != nil {
			return fmt.Errorf("failed to write record: %w", err)
		}
	}
	return nil
}

type replayer struct {
	mode      autoscroll.Mode
	itemWidth *float64
	vp        autoscroll.Viewport

	start  time.Time
	sched  *schedule.Manual
	engine *virtual.Engine
	logger *slog.Logger
}

func newReplayer(tr Trace, cfg virtual.Config, opts ...ReplayOption) *replayer {
	r := &replayer{
		mode:      tr.Orientation,
		itemWidth: tr.ItemWidth,
		vp:        tr.Viewport,
		start:     time.Unix(0, 0).UTC(),
		sched:     schedule.NewManual(),
		logger:    slog.Default(),
	}
	for _, opt := range opts {
		opt(r)
	}
	r.sched.Advance(r.start)

	r.engine = virtual.New(cfg,
		virtual.WithScheduler(r.sched),
		virtual.WithLogger(r.logger.With("component", "replay")),
		virtual.WithEstimatedHeight(tr.EstimatedHeight),
		virtual.WithItemCount(tr.ItemCount),
		virtual.WithViewportFunc(r.axis),
	)
	for index, h := range tr.Heights {
		r.engine.Heights().Set(index, h)
	}
	r.engine.Sync()
	return r
}

// axis reports the scroll position and client size along the list's axis.
func (r *replayer) axis() (float64, float64) {
	if r.mode == autoscroll.Horizontal {
		return r.vp.ScrollLeft, r.vp.ClientWidth
	}
	return r.vp.ScrollTop, r.vp.ClientHeight
}

func (r *replayer) setPosition(pos float64) {
	if r.mode == autoscroll.Horizontal {
		r.vp.ScrollLeft = pos
		return
	}
	r.vp.ScrollTop = pos
}

func (r *replayer) setSize(size float64) {
	if r.mode == autoscroll.Horizontal {
		r.vp.ClientWidth = size
		return
	}
	r.vp.ClientHeight = size
}

func (r *replayer) apply(ev Event) (Record, error) {
	now := r.start.Add(time.Duration(ev.T) * time.Millisecond)
	r.sched.Advance(now)

	rec := Record{T: ev.T, Event: ev.Type}
	switch ev.Type {
	case EventScroll:
		r.setPosition(ev.Position)
		r.engine.OnScroll(ev.Position, now)
	case EventResize:
		r.setSize(ev.Size)
		r.engine.OnResize(ev.Size, now)
	case EventMeasure:
		if ev.Height <= 0 {
			r.engine.ClearMeasuredHeight(ev.Index)
		} else {
			r.engine.SetMeasuredHeight(ev.Index, ev.Height)
		}
	case EventCount:
		r.engine.SetItemCount(ev.Count)
	case EventRegister:
		r.engine.RegisterBoundaryMarker(ev.Index, ev.Index)
	case EventIntersect:
		r.engine.OnBoundaryIntersect(ev.Index)
	case EventActivate:
		target, ok := r.target(ev)
		if !ok {
			break
		}
		if offset, ok := autoscroll.Correct(r.mode, r.itemWidth, r.vp, target); ok {
			rec.Correction = autoscroll.Px(offset)
			r.setPosition(offset)
			r.engine.OnScroll(offset, now)
		}
	default:
		return Record{}, fmt.Errorf("unknown event type %q", ev.Type)
	}
	rec.State = r.engine.State()
	return rec, nil
}

// target returns the activated item's geometry, either as recorded in the
// event or as laid out by the engine.
func (r *replayer) target(ev Event) (autoscroll.Target, bool) {
	if ev.Target != nil {
		return *ev.Target, true
	}
	g, ok := r.engine.Geometry(ev.Index)
	if !ok {
		return autoscroll.Target{}, false
	}
	if r.mode == autoscroll.Horizontal {
		return autoscroll.Target{PointOffset: autoscroll.Px(g.Offset), PointWidth: autoscroll.Px(g.Height)}, true
	}
	return autoscroll.Target{ContentOffset: autoscroll.Px(g.Offset), ContentHeight: autoscroll.Px(g.Height)}, true
}
