package virtual

import (
	"math"
	"testing"

	"github.com/stretchr/testify/assert"
)

func nan() float64 { return math.NaN() }

func TestAdjustedBuffer(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		base     int
		velocity float64
		enabled  bool
		want     int
	}{
		{"disabled ignores velocity", 5, 3, false, 5},
		{"at rest", 5, 0, true, 5},
		{"slow drag", 5, 0.01, true, 5},
		{"moderate", 5, 0.1, true, 25},
		{"capped fling", 5, 2, true, 50},
		{"negative velocity uses magnitude", 5, -0.1, true, 25},
		{"zero base", 0, 2, true, 0},
		{"nan velocity", 4, nan(), true, 4},
		{"infinite velocity", 3, math.Inf(1), true, 30},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			assert.Equal(t, tt.want, AdjustedBuffer(tt.base, tt.velocity, tt.enabled))
		})
	}
}

func TestAdjustedBuffer_Monotonic(t *testing.T) {
	t.Parallel()

	for _, base := range []int{1, 5, 15} {
		prev := AdjustedBuffer(base, 0, true)
		for v := 0.0; v <= 1; v += 0.005 {
			got := AdjustedBuffer(base, v, true)
			assert.GreaterOrEqual(t, got, prev, "base %d velocity %f", base, v)
			assert.Equal(t, base, AdjustedBuffer(base, v, false))
			prev = got
		}
		assert.Equal(t, base*10, prev)
	}
}
