package virtual

import (
	"io"
	"log/slog"
	"sync"
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"github.com/yumosx/lazyscroll/internal/schedule"
)

func newTestEngine(t *testing.T, cfg Config, opts ...Option) (*Engine, *schedule.Manual) {
	t.Helper()
	sched := schedule.NewManual()
	opts = append([]Option{
		WithScheduler(sched),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	}, opts...)
	e := New(cfg, opts...)
	t.Cleanup(e.Close)
	return e, sched
}

func TestEngine_InitialState(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, DefaultConfig(), WithItemCount(100), WithEstimatedHeight(10))
	out := e.State()
	assert.True(t, out.Empty, "no viewport yet")
	assert.Empty(t, out.VisibleIndices)
	assert.NotEmpty(t, e.ID())

	out = e.OnResize(100, at(0))
	require.False(t, out.Empty)
	assert.Equal(t, 0, out.StartIndex)
	assert.Equal(t, 9+15, out.EndIndex)
	assert.Equal(t, 0.0, out.PaddingTop)
	assert.Equal(t, 1000.0, out.TotalHeight)
	assert.Len(t, out.VisibleIndices, 25)
	assert.Equal(t, DirectionNone, out.ScrollDirection)
}

func TestEngine_ScrollIsThrottled(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.DynamicBuffering = false
	e, sched := newTestEngine(t, cfg, WithItemCount(1000), WithEstimatedHeight(10))
	e.OnResize(100, at(0))

	out := e.OnScroll(505, at(0))
	assert.Equal(t, 45, out.StartIndex)
	assert.Equal(t, DirectionNone, out.ScrollDirection)

	// Inside the frame: state is not recomputed, a trailing run is queued.
	out = e.OnScroll(1005, at(5))
	assert.Equal(t, 45, out.StartIndex)
	assert.Equal(t, DirectionDown, out.ScrollDirection)
	delay, ok := sched.Delay(keyFrame)
	require.True(t, ok)
	assert.Equal(t, 11*time.Millisecond, delay)

	e.OnScroll(1205, at(10))
	assert.Equal(t, 1, sched.Len(), "one pending frame per call-site")

	sched.Flush()
	out = e.State()
	assert.Equal(t, 115, out.StartIndex)
	assert.Equal(t, 1150.0, out.PaddingTop)

	// The next frame runs synchronously and drops the queued trailing run.
	e.OnScroll(1305, at(30))
	e.OnScroll(1405, at(50))
	assert.False(t, sched.Pending(keyFrame))
	assert.Equal(t, 135, e.State().StartIndex)
}

func TestEngine_DynamicBuffering(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, DefaultConfig(), WithItemCount(10_000), WithEstimatedHeight(10))
	e.OnResize(100, at(0))
	e.OnScroll(10_005, at(0))
	out := e.OnScroll(12_005, at(100))

	assert.Equal(t, DirectionDown, out.ScrollDirection)
	assert.InDelta(t, 20.0, out.ScrollVelocity, 1e-9)
	assert.Equal(t, 1195, out.StartIndex, "trailing edge keeps the base buffer")
	assert.Equal(t, 1210+150, out.EndIndex, "leading edge is inflated to the cap")
}

func TestEngine_MeasuredHeights(t *testing.T) {
	t.Parallel()

	e, sched := newTestEngine(t, DefaultConfig(), WithItemCount(50), WithEstimatedHeight(10))
	e.OnResize(30, at(0))
	require.Equal(t, 500.0, e.State().TotalHeight)

	// Small corrections are absorbed.
	e.SetMeasuredHeight(0, 10.5)
	assert.False(t, sched.Pending(keyGeometry))

	e.SetMeasuredHeight(0, 100)
	e.Notify(ChangeMutation, HeightChange{Index: 1, Height: 50})
	assert.True(t, sched.Pending(keyGeometry))
	assert.Equal(t, 500.0, e.State().TotalHeight, "rebuild is debounced")

	delay, _ := sched.Delay(keyGeometry)
	assert.Equal(t, 50*time.Millisecond, delay)

	sched.Flush()
	out := e.State()
	assert.Equal(t, 630.0, out.TotalHeight)

	item, ok := e.Geometry(2)
	require.True(t, ok)
	assert.Equal(t, 150.0, item.Offset)

	e.Notify(ChangeMutation, HeightChange{Index: 1, Removed: true})
	sched.Flush()
	assert.Equal(t, 590.0, e.State().TotalHeight)
}

func TestEngine_ItemCount(t *testing.T) {
	t.Parallel()

	var mu sync.Mutex
	var changes []Output
	e, _ := newTestEngine(t, DefaultConfig(),
		WithItemCount(3),
		WithEstimatedHeight(10),
		WithOnChange(func(o Output) {
			mu.Lock()
			defer mu.Unlock()
			changes = append(changes, o)
		}),
	)
	e.OnResize(100, at(0))
	assert.Equal(t, 2, e.State().EndIndex)

	e.Notify(ChangeMutation, CountChange{Count: 40})
	assert.Equal(t, 40, e.ItemCount())
	assert.Equal(t, 24, e.State().EndIndex)

	out := e.SetItemCount(0)
	assert.True(t, out.Empty)
	assert.Equal(t, 0.0, out.PaddingTop)
	assert.Empty(t, out.VisibleIndices)

	e.SetItemCount(-5)
	assert.Equal(t, 0, e.ItemCount())

	mu.Lock()
	defer mu.Unlock()
	require.Len(t, changes, 3)
	assert.True(t, changes[2].Empty)
}

func TestEngine_ZeroViewportStaysInBounds(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.UseSentinelExpansion = true
	e, _ := newTestEngine(t, cfg, WithItemCount(100), WithEstimatedHeight(10))
	e.OnResize(100, at(0))
	out := e.OnScroll(505, at(0))
	require.Equal(t, 45, out.StartIndex)
	require.Equal(t, 75, out.EndIndex)

	require.Equal(t, BoundaryBottom, e.RegisterBoundaryMarker(75, "bottom"))
	out = e.OnBoundaryIntersect(75)
	require.Equal(t, 80, out.VisibleIndices[len(out.VisibleIndices)-1])

	// The viewport collapses, then the list shrinks under it.
	out = e.OnResize(0, at(10))
	assert.Equal(t, 75, out.EndIndex, "previous window is kept")
	assert.Len(t, out.VisibleIndices, 36)

	out = e.SetItemCount(78)
	assert.Equal(t, 45, out.StartIndex)
	assert.Equal(t, 75, out.EndIndex)
	assert.Equal(t, 450.0, out.PaddingTop)
	assert.Len(t, out.VisibleIndices, 33)
	assert.Equal(t, 77, out.VisibleIndices[len(out.VisibleIndices)-1])

	out = e.SetItemCount(3)
	assert.False(t, out.Empty)
	assert.Equal(t, 2, out.StartIndex)
	assert.Equal(t, 2, out.EndIndex)
	assert.Equal(t, 20.0, out.PaddingTop)
	assert.Equal(t, []int{2}, out.VisibleIndices)
	_, bottom := e.sentinels.Markers()
	assert.Equal(t, -1, bottom, "marker left the window")

	// Without any previous window the range is anchored on the scroll
	// position.
	fresh, _ := newTestEngine(t, DefaultConfig(), WithItemCount(10), WithEstimatedHeight(10))
	out = fresh.SetItemCount(20)
	assert.False(t, out.Empty)
	assert.Equal(t, 0, out.StartIndex)
	assert.Equal(t, 15, out.EndIndex)
}

func TestEngine_Sentinels(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.UseSentinelExpansion = true
	e, _ := newTestEngine(t, cfg, WithItemCount(200), WithEstimatedHeight(10))
	e.OnResize(100, at(0))
	out := e.OnScroll(1000, at(0))
	assert.Equal(t, 10_000_000.0, out.TotalHeight)
	require.Equal(t, 94, out.StartIndex)
	require.Equal(t, 124, out.EndIndex)

	assert.Equal(t, BoundaryTop, e.RegisterBoundaryMarker(94, "top"))
	assert.Equal(t, BoundaryBottom, e.RegisterBoundaryMarker(124, "bottom"))

	before := out.VisibleIndices
	e.Notify(ChangeIntersection, Intersection{Index: 124})
	out = e.State()
	assert.Subset(t, out.VisibleIndices, before)
	assert.Len(t, out.VisibleIndices, len(before)+5)
	assert.Contains(t, out.VisibleIndices, 129)

	e.OnBoundaryIntersect(94)
	assert.Len(t, e.State().VisibleIndices, len(before)+10)

	// Stale markers are ignored.
	e.OnBoundaryIntersect(50)
	assert.Len(t, e.State().VisibleIndices, len(before)+10)

	// The next scroll recompute is authoritative and drops the markers.
	out = e.OnScroll(1000, at(40))
	assert.Len(t, out.VisibleIndices, len(before))
	assert.Len(t, e.OnBoundaryIntersect(124).VisibleIndices, len(before)+5, "unmoved edges keep their markers")
}

func TestEngine_SingleItemWindowGrowsBothWays(t *testing.T) {
	t.Parallel()

	cfg := DefaultConfig()
	cfg.UseSentinelExpansion = true
	cfg.Buffer = 2
	e, _ := newTestEngine(t, cfg, WithItemCount(20), WithEstimatedHeight(10))
	e.window = Window{StartIndex: 5, EndIndex: 5, FirstVisible: 5, LastVisible: 5, PaddingTop: 50}

	require.Equal(t, BoundaryTop, e.RegisterBoundaryMarker(5, "top"))
	require.Equal(t, BoundaryBottom, e.RegisterBoundaryMarker(5, "bottom"))

	out := e.OnBoundaryIntersect(5)
	assert.Equal(t, []int{3, 4, 5, 6, 7}, out.VisibleIndices)
	assert.Equal(t, 5, out.StartIndex)
	assert.Equal(t, 5, out.EndIndex)
}

func TestEngine_SentinelsDisabled(t *testing.T) {
	t.Parallel()

	e, _ := newTestEngine(t, DefaultConfig(), WithItemCount(200), WithEstimatedHeight(10))
	e.OnResize(100, at(0))
	out := e.State()
	e.RegisterBoundaryMarker(out.EndIndex, "bottom")
	assert.Equal(t, out.VisibleIndices, e.OnBoundaryIntersect(out.EndIndex).VisibleIndices)
	assert.Equal(t, 2000.0, out.TotalHeight)
}

func TestEngine_ViewportFunc(t *testing.T) {
	t.Parallel()

	pos, size := 205.0, 50.0
	e, sched := newTestEngine(t, DefaultConfig(),
		WithItemCount(100),
		WithEstimatedHeight(10),
		WithViewportFunc(func() (float64, float64) { return pos, size }),
	)

	out := e.Sync()
	assert.Equal(t, 15, out.StartIndex)

	pos = 405
	e.Notify(ChangeResize, nil)
	assert.Equal(t, 35, e.State().StartIndex)

	pos = 605
	e.Notify(ChangeMutation, nil)
	assert.Equal(t, 35, e.State().StartIndex)
	sched.Flush()
	assert.Equal(t, 55, e.State().StartIndex)

	e.Notify(ChangeResize, Resize{Size: 200})
	assert.Equal(t, 95, e.State().EndIndex)
	e.Notify(ChangeKind(99), nil)
}

func TestEngine_Close(t *testing.T) {
	t.Parallel()

	e, sched := newTestEngine(t, DefaultConfig(), WithItemCount(100), WithEstimatedHeight(10))
	e.OnResize(100, at(0))
	e.OnScroll(10, at(0))
	e.OnScroll(300, at(4))
	e.SetMeasuredHeight(3, 90)
	require.Equal(t, 2, sched.Len())

	before := e.State()
	e.Close()
	assert.Equal(t, 0, sched.Len())

	e.OnScroll(900, at(100))
	e.OnResize(10, at(100))
	e.SetItemCount(5)
	e.SetMeasuredHeight(4, 200)
	e.OnMutation()
	assert.Equal(t, 0, sched.Len())
	assert.Equal(t, before, e.State())
	e.Close()
}

func TestEngine_DebouncerTeardown(t *testing.T) {
	t.Parallel()

	e := New(DefaultConfig(),
		WithItemCount(100),
		WithEstimatedHeight(10),
		WithLogger(slog.New(slog.NewTextHandler(io.Discard, nil))),
	)
	e.OnResize(100, time.Now())
	e.SetMeasuredHeight(0, 500)
	e.Close()

	time.Sleep(80 * time.Millisecond)
	assert.Equal(t, 1000.0, e.State().TotalHeight, "canceled rebuild must not run")
}
