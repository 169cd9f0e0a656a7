// Package autoscroll computes the scroll offset that brings an activated
// item into view.
//
// Every measurement is optional: hosts may ask before layout has settled, in
// which case the answer is simply "no change".
package autoscroll

import (
	"fmt"
	"math"
	"strings"
)

// Mode is the orientation of the list being corrected.
type Mode int

const (
	Vertical Mode = iota
	Horizontal
	// VerticalAlternating lays items out on alternating sides of a vertical
	// axis. It is corrected like Vertical.
	VerticalAlternating
)

func (m Mode) String() string {
	switch m {
	case Horizontal:
		return "horizontal"
	case VerticalAlternating:
		return "vertical-alternating"
	default:
		return "vertical"
	}
}

// ParseMode parses the textual form of a Mode.
func ParseMode(s string) (Mode, error) {
	switch strings.ToLower(strings.TrimSpace(s)) {
	case "", "vertical":
		return Vertical, nil
	case "horizontal":
		return Horizontal, nil
	case "vertical-alternating", "vertical_alternating", "alternating":
		return VerticalAlternating, nil
	}
	return Vertical, fmt.Errorf("unknown orientation %q", s)
}

// MarshalText implements encoding.TextMarshaler.
func (m Mode) MarshalText() ([]byte, error) {
	return []byte(m.String()), nil
}

// UnmarshalText implements encoding.TextUnmarshaler.
func (m *Mode) UnmarshalText(b []byte) error {
	parsed, err := ParseMode(string(b))
	if err != nil {
		return err
	}
	*m = parsed
	return nil
}

// Viewport is the scroll container geometry at the time of the request.
type Viewport struct {
	ScrollTop    float64 `json:"scroll_top"`
	ScrollLeft   float64 `json:"scroll_left"`
	ClientWidth  float64 `json:"client_width"`
	ClientHeight float64 `json:"client_height"`
}

// Target is the geometry of the activated item. Horizontal lists use the
// point fields, vertical ones the content fields. Nil means not measured.
type Target struct {
	PointOffset   *float64 `json:"point_offset,omitempty"`
	PointWidth    *float64 `json:"point_width,omitempty"`
	ContentOffset *float64 `json:"content_offset,omitempty"`
	ContentHeight *float64 `json:"content_height,omitempty"`
}

// Px returns a pointer to v, for filling optional measurements.
func Px(v float64) *float64 {
	return &v
}

// Correct returns the scroll offset that brings target into view, and false
// when no correction is needed or a required measurement is missing.
func Correct(mode Mode, itemWidth *float64, vp Viewport, target Target) (float64, bool) {
	switch mode {
	case Horizontal:
		return correctHorizontal(itemWidth, vp, target)
	case Vertical, VerticalAlternating:
		return correctVertical(vp, target)
	}
	return 0, false
}

// Delta is Correct expressed as a change relative to the current scroll
// position on the mode's axis.
func Delta(mode Mode, itemWidth *float64, vp Viewport, target Target) (float64, bool) {
	offset, ok := Correct(mode, itemWidth, vp, target)
	if !ok {
		return 0, false
	}
	if mode == Horizontal {
		return offset - vp.ScrollLeft, true
	}
	return offset - vp.ScrollTop, true
}

func correctHorizontal(itemWidth *float64, vp Viewport, target Target) (float64, bool) {
	if !valid(itemWidth) || !valid(target.PointWidth) || !valid(target.PointOffset) {
		return 0, false
	}
	width := *itemWidth
	offset, pointWidth := *target.PointOffset, *target.PointWidth

	containerRight := vp.ScrollLeft + vp.ClientWidth
	targetRight := offset + pointWidth

	fully := offset >= vp.ScrollLeft && targetRight <= containerRight
	partially := (offset < vp.ScrollLeft && targetRight > vp.ScrollLeft) ||
		(targetRight > containerRight && offset < containerRight)

	leftGap := offset - vp.ScrollLeft
	rightGap := containerRight - offset

	switch {
	case !fully && !partially:
		return offset - width, true
	case leftGap >= 0 && leftGap <= width:
		// Hugging the left edge: leave one item of breathing room.
		return offset - width, true
	case rightGap >= 0 && rightGap <= width:
		return offset - width, true
	}
	return 0, false
}

func correctVertical(vp Viewport, target Target) (float64, bool) {
	if !valid(target.ContentOffset) || !valid(target.ContentHeight) {
		return 0, false
	}
	offset, height := *target.ContentOffset, *target.ContentHeight

	containerBottom := vp.ScrollTop + vp.ClientHeight
	targetBottom := offset + height

	fully := offset >= vp.ScrollTop && targetBottom <= containerBottom
	if fully {
		return 0, false
	}

	candidate := offset - height
	if candidate+height < containerBottom {
		return candidate + math.Round(height/2), true
	}
	return candidate, true
}

func valid(v *float64) bool {
	return v != nil && !math.IsNaN(*v) && !math.IsInf(*v, 0)
}
