package virtual

// Boundary identifies which edge of the window a marker sits on.
type Boundary int

const (
	BoundaryNone Boundary = iota
	BoundaryTop
	BoundaryBottom
	// BoundaryBoth is a single-item window whose index carries both markers.
	BoundaryBoth
)

func (b Boundary) String() string {
	switch b {
	case BoundaryTop:
		return "top"
	case BoundaryBottom:
		return "bottom"
	case BoundaryBoth:
		return "both"
	default:
		return "none"
	}
}

// Expand grows the window by buffer items past the boundary that became
// visible. It never removes indices; shrinking is left to the next
// scroll-driven recompute. A boundaryIndex that is no longer the matching
// window edge is a stale marker and leaves the window untouched.
func Expand(boundaryIndex int, isTop bool, w Window, buffer, itemCount int) Window {
	if w.Empty || buffer <= 0 || itemCount <= 0 {
		return w
	}
	if (isTop && boundaryIndex != w.StartIndex) || (!isTop && boundaryIndex != w.EndIndex) {
		return w
	}
	out := w.clone()
	if out.extra == nil {
		out.extra = make(map[int]struct{})
	}

	// Anchored on the edges, so repeated intersections are idempotent.
	if isTop {
		for i := max(0, w.StartIndex-buffer); i < w.StartIndex; i++ {
			out.add(i)
		}
	} else {
		for i := w.EndIndex + 1; i <= min(itemCount-1, w.EndIndex+buffer); i++ {
			out.add(i)
		}
	}
	return out
}

func (w *Window) add(index int) {
	if index >= w.StartIndex && index <= w.EndIndex {
		return
	}
	w.extra[index] = struct{}{}
}

// Marker is an opaque host handle for a boundary marker, such as the
// element an intersection observer watches.
type Marker any

// Sentinels tracks the two boundary markers of the current window.
type Sentinels struct {
	top, bottom             int
	topMarker, bottomMarker Marker
}

// NewSentinels returns a tracker with no registered markers.
func NewSentinels() *Sentinels {
	return &Sentinels{top: -1, bottom: -1}
}

// Register records the marker for index. The index has to be one of the
// current window edges passed to Reset. In a single-item window the first
// marker takes the top slot and the next one the bottom slot. A nil marker
// unregisters every slot at index.
func (s *Sentinels) Register(index int, marker Marker, w Window) Boundary {
	if w.Empty || (index != w.StartIndex && index != w.EndIndex) {
		return BoundaryNone
	}
	if marker == nil {
		if s.top == index {
			s.top, s.topMarker = -1, nil
		}
		if s.bottom == index {
			s.bottom, s.bottomMarker = -1, nil
		}
		return BoundaryNone
	}
	if index == w.StartIndex && (index != w.EndIndex || s.top != index) {
		s.top, s.topMarker = index, marker
		return BoundaryTop
	}
	s.bottom, s.bottomMarker = index, marker
	return BoundaryBottom
}

// Reset drops markers that no longer sit on the window edges. Hosts must
// register new markers after the window moved.
func (s *Sentinels) Reset(w Window) {
	if w.Empty || s.top != w.StartIndex {
		s.top, s.topMarker = -1, nil
	}
	if w.Empty || s.bottom != w.EndIndex {
		s.bottom, s.bottomMarker = -1, nil
	}
}

// Match resolves an intersecting marker index to its boundary. Stale or
// unknown indices resolve to BoundaryNone.
func (s *Sentinels) Match(index int) Boundary {
	switch {
	case index >= 0 && index == s.top && index == s.bottom:
		return BoundaryBoth
	case index >= 0 && index == s.top:
		return BoundaryTop
	case index >= 0 && index == s.bottom:
		return BoundaryBottom
	}
	return BoundaryNone
}

// Markers returns the registered marker indices, -1 when missing.
func (s *Sentinels) Markers() (top, bottom int) {
	return s.top, s.bottom
}
