package virtual

import (
	"maps"
	"slices"
)

// Window is the range of items that should be materialized.
type Window struct {
	// StartIndex and EndIndex are inclusive. Both are zero when Empty.
	StartIndex int
	EndIndex   int
	// FirstVisible and LastVisible bound the strictly visible items.
	FirstVisible int
	LastVisible  int
	// PaddingTop is the offset of StartIndex, used to translate the
	// rendered block past the un-rendered leading space.
	PaddingTop float64
	Empty      bool

	// extra holds indices added by sentinel expansion outside
	// [StartIndex, EndIndex].
	extra map[int]struct{}
}

// Contains reports whether index is materialized.
func (w Window) Contains(index int) bool {
	if w.Empty {
		return false
	}
	if index >= w.StartIndex && index <= w.EndIndex {
		return true
	}
	_, ok := w.extra[index]
	return ok
}

// Len is the number of materialized indices.
func (w Window) Len() int {
	if w.Empty {
		return 0
	}
	return w.EndIndex - w.StartIndex + 1 + len(w.extra)
}

// Indices returns the materialized indices in ascending order.
func (w Window) Indices() []int {
	if w.Empty {
		return nil
	}
	out := make([]int, 0, w.Len())
	for i := w.StartIndex; i <= w.EndIndex; i++ {
		out = append(out, i)
	}
	if len(w.extra) > 0 {
		out = append(out, slices.Collect(maps.Keys(w.extra))...)
		slices.Sort(out)
	}
	return out
}

// Bounds returns the smallest and largest materialized index.
func (w Window) Bounds() (lo, hi int) {
	if w.Empty {
		return 0, -1
	}
	lo, hi = w.StartIndex, w.EndIndex
	for i := range w.extra {
		lo = min(lo, i)
		hi = max(hi, i)
	}
	return lo, hi
}

// fit trims w to the first count items. PaddingTop follows the new start.
func (w Window) fit(count int, g *Geometry) Window {
	if w.Empty || count <= 0 {
		return Window{Empty: true}
	}
	out := w.clone()
	out.StartIndex = min(w.StartIndex, count-1)
	out.EndIndex = min(w.EndIndex, count-1)
	out.FirstVisible = min(w.FirstVisible, count-1)
	out.LastVisible = min(w.LastVisible, count-1)
	out.PaddingTop = g.Offset(out.StartIndex)
	for i := range out.extra {
		if i >= count {
			delete(out.extra, i)
		}
	}
	return out
}

func (w Window) clone() Window {
	if w.extra != nil {
		w.extra = maps.Clone(w.extra)
	}
	return w
}

// WindowInput is everything ComputeWindow needs.
type WindowInput struct {
	ScrollPosition   float64
	ViewportSize     float64
	Geometry         *Geometry
	ItemCount        int
	BaseBuffer       int
	ExtraBufferBelow int
	State            ScrollState
	// Dynamic enables velocity-scaled buffers.
	Dynamic bool
}

// ComputeWindow finds the visible items for the given scroll position and
// widens the range by the buffer policy. Look-ahead below the viewport is
// always larger than above it.
func ComputeWindow(in WindowInput) Window {
	count := in.ItemCount
	g := in.Geometry
	if g != nil {
		count = min(count, g.Len())
	}
	if count <= 0 || g == nil {
		return Window{Empty: true}
	}

	scroll := max(0, in.ScrollPosition)
	bottom := scroll + max(0, in.ViewportSize)

	first := count - 1
	for i := range count {
		if g.Offset(i)+g.Height(i) >= scroll {
			first = i
			break
		}
	}

	last := first
	for i := first + 1; i < count; i++ {
		if g.Offset(i) >= bottom {
			break
		}
		last = i
	}

	upBuffer := max(0, AdjustedBuffer(in.BaseBuffer, in.State.Velocity, in.Dynamic && in.State.Direction == DirectionUp))
	downBuffer := max(0, AdjustedBuffer(in.BaseBuffer+in.ExtraBufferBelow, in.State.Velocity, in.Dynamic && in.State.Direction == DirectionDown))

	start := max(0, first-upBuffer)
	end := min(count-1, last+downBuffer)

	return Window{
		StartIndex:   start,
		EndIndex:     end,
		FirstVisible: first,
		LastVisible:  last,
		PaddingTop:   g.Offset(start),
	}
}
