package virtual

import "math"

// maxBufferFactor caps how far a fast fling can inflate the buffer.
const maxBufferFactor = 10

// AdjustedBuffer scales base by how fast the viewport is moving. The factor
// grows with the square of the velocity so slow drags keep roughly the base
// buffer while flings pre-render up to ten times as many items.
func AdjustedBuffer(base int, velocity float64, enabled bool) int {
	if !enabled {
		return base
	}
	if base <= 0 {
		return 0
	}
	if math.IsNaN(velocity) {
		velocity = 0
	}
	v := math.Abs(velocity) * 20
	factor := math.Min(maxBufferFactor, 1+v*v)
	return int(math.Round(float64(base) * factor))
}
