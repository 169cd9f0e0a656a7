package virtual

import "time"

// ChangeKind names one of the independent change notification sources a
// host wires to the engine.
type ChangeKind int

const (
	// ChangeIntersection is a boundary marker entering the viewport.
	ChangeIntersection ChangeKind = iota + 1
	// ChangeResize is a change of the viewport size.
	ChangeResize
	// ChangeMutation is a change of the content: item count or measured
	// heights.
	ChangeMutation
)

func (k ChangeKind) String() string {
	switch k {
	case ChangeIntersection:
		return "intersection"
	case ChangeResize:
		return "resize"
	case ChangeMutation:
		return "mutation"
	default:
		return "unknown"
	}
}

// Intersection is the payload of ChangeIntersection.
type Intersection struct {
	Index int
}

// Resize is the payload of ChangeResize. A zero Time means "now".
type Resize struct {
	Size float64
	Time time.Time
}

// HeightChange is a ChangeMutation payload carrying a new measurement.
// Removed drops the measurement instead.
type HeightChange struct {
	Index   int
	Height  float64
	Removed bool
}

// CountChange is a ChangeMutation payload carrying a new item count.
type CountChange struct {
	Count int
}

// Notifier is the port hosts push change notifications into.
type Notifier interface {
	Notify(kind ChangeKind, payload any)
}
