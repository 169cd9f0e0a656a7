package virtual

import (
	"math"
	"sync/atomic"

	"github.com/yumosx/lazyscroll/internal/csync"
)

// significantChange is the fraction of the estimated height a measurement
// has to move before the offset table is rebuilt.
const significantChange = 0.1

// HeightLookup returns the measured height of an item, or false when the
// item has not been measured yet.
type HeightLookup func(index int) (float64, bool)

// ItemGeometry is the position of a single item along the scroll axis.
type ItemGeometry struct {
	Index  int
	Offset float64
	Height float64
}

// ComputeOffsets builds the running-offset table for count items in a single
// forward pass. Items without a measurement use estimate.
func ComputeOffsets(count int, lookup HeightLookup, estimate float64) []float64 {
	offsets, _ := computeTable(count, lookup, estimate)
	return offsets
}

func computeTable(count int, lookup HeightLookup, estimate float64) (offsets, heights []float64) {
	if count <= 0 {
		return []float64{}, []float64{}
	}
	estimate = sanitizeEstimate(estimate)

	offsets = make([]float64, count)
	heights = make([]float64, count)
	var running float64
	for i := range count {
		h := estimate
		if lookup != nil {
			if measured, ok := lookup(i); ok && measured > 0 && !math.IsInf(measured, 0) {
				h = measured
			}
		}
		offsets[i] = running
		heights[i] = h
		running += h
	}
	return offsets, heights
}

func sanitizeEstimate(estimate float64) float64 {
	if estimate <= 0 || math.IsNaN(estimate) || math.IsInf(estimate, 0) {
		return 1
	}
	return estimate
}

// Geometry caches the offset table between windowing calls. The cache is
// reused while the item count matches and no invalidation happened since it
// was built.
type Geometry struct {
	offsets    []float64
	heights    []float64
	total      float64
	generation uint64
	builtGen   uint64
	built      bool
}

// NewGeometry returns an empty geometry model.
func NewGeometry() *Geometry {
	return &Geometry{}
}

// Invalidate forces the next Offsets call to rebuild the table.
func (g *Geometry) Invalidate() {
	g.generation++
}

// Generation returns the invalidation counter.
func (g *Geometry) Generation() uint64 {
	return g.generation
}

// Stale reports whether Offsets would rebuild for count items.
func (g *Geometry) Stale(count int) bool {
	return !g.built || g.builtGen != g.generation || len(g.offsets) != max(0, count)
}

// Offsets returns the offset table for count items, rebuilding it when
// stale. The returned slice is shared with the cache; callers must not
// modify it.
func (g *Geometry) Offsets(count int, lookup HeightLookup, estimate float64) []float64 {
	if !g.Stale(count) {
		return g.offsets
	}
	g.offsets, g.heights = computeTable(count, lookup, estimate)
	g.total = 0
	if n := len(g.offsets); n > 0 {
		g.total = g.offsets[n-1] + g.heights[n-1]
	}
	g.builtGen = g.generation
	g.built = true
	return g.offsets
}

// Len is the number of items in the cached table.
func (g *Geometry) Len() int {
	return len(g.offsets)
}

// Offset returns the cumulative offset of item i, or 0 when out of range.
func (g *Geometry) Offset(i int) float64 {
	if i < 0 || i >= len(g.offsets) {
		return 0
	}
	return g.offsets[i]
}

// Height returns the height used for item i, or 0 when out of range.
func (g *Geometry) Height(i int) float64 {
	if i < 0 || i >= len(g.heights) {
		return 0
	}
	return g.heights[i]
}

// Item returns the geometry of item i.
func (g *Geometry) Item(i int) (ItemGeometry, bool) {
	if i < 0 || i >= len(g.offsets) {
		return ItemGeometry{}, false
	}
	return ItemGeometry{Index: i, Offset: g.offsets[i], Height: g.heights[i]}, true
}

// TotalSize is the sum of all item heights in the cached table.
func (g *Geometry) TotalSize() float64 {
	return g.total
}

// Heights is the sparse set of measured item heights. Hosts may update it
// from any goroutine while the engine reads it.
type Heights struct {
	measured *csync.Map[int, float64]
	estimate atomic.Uint64 // float64 bits
}

// NewHeights creates an empty store that treats unmeasured items as
// estimate pixels tall.
func NewHeights(estimate float64) *Heights {
	h := &Heights{measured: csync.NewMap[int, float64]()}
	h.estimate.Store(math.Float64bits(sanitizeEstimate(estimate)))
	return h
}

// Estimate returns the height assumed for unmeasured items.
func (h *Heights) Estimate() float64 {
	return math.Float64frombits(h.estimate.Load())
}

// SetEstimate replaces the height assumed for unmeasured items and reports
// whether it changed.
func (h *Heights) SetEstimate(estimate float64) bool {
	next := math.Float64bits(sanitizeEstimate(estimate))
	return h.estimate.Swap(next) != next
}

// Set records a measurement for item index and reports whether it differs
// from the previously known height by more than 10% of the estimate.
// Non-positive measurements are ignored.
func (h *Heights) Set(index int, height float64) bool {
	if index < 0 || height <= 0 || math.IsNaN(height) || math.IsInf(height, 0) {
		return false
	}
	estimate := h.Estimate()
	prev, ok := h.measured.Swap(index, height)
	if !ok {
		prev = estimate
	}
	return math.Abs(height-prev) > estimate*significantChange
}

// Del forgets the measurement for index and reports whether that moves the
// item back to a significantly different (estimated) height.
func (h *Heights) Del(index int) bool {
	prev, ok := h.measured.Take(index)
	if !ok {
		return false
	}
	estimate := h.Estimate()
	return math.Abs(prev-estimate) > estimate*significantChange
}

// Lookup implements HeightLookup.
func (h *Heights) Lookup(index int) (float64, bool) {
	return h.measured.Get(index)
}

// Len is the number of measured items.
func (h *Heights) Len() int {
	return h.measured.Len()
}

// Reset drops all measurements.
func (h *Heights) Reset() {
	h.measured.Reset()
}
