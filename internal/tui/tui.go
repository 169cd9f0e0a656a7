// Package tui is an interactive terminal host for the windowing engine: a
// list of numbered items of varying height that only renders the window the
// engine reports.
package tui

import (
	"fmt"
	"log/slog"
	"math"
	"strings"
	"time"

	"github.com/charmbracelet/bubbles/v2/help"
	"github.com/charmbracelet/bubbles/v2/key"
	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/lipgloss/v2"
	"github.com/charmbracelet/x/ansi"
	"github.com/yumosx/lazyscroll/internal/autoscroll"
	"github.com/yumosx/lazyscroll/internal/fixture"
	"github.com/yumosx/lazyscroll/internal/schedule"
	"github.com/yumosx/lazyscroll/internal/virtual"
)

type frameMsg time.Time

// HeightsMsg delivers a new version of the measured heights fixture.
type HeightsMsg fixture.HeightsFile

// Options configure the list model.
type Options struct {
	Config          virtual.Config
	ItemCount       int
	EstimatedHeight float64
	Mode            autoscroll.Mode
	Heights         fixture.HeightsFile
	Logger          *slog.Logger

	// Now replaces the wall clock.
	Now func() time.Time
}

// listModel is the demo's only model. Item heights are in terminal rows.
type listModel struct {
	width, height int
	keyMap        KeyMap
	help          help.Model
	styles        Styles

	engine  *virtual.Engine
	sched   *schedule.Manual
	mode    autoscroll.Mode
	heights fixture.HeightsFile
	now     func() time.Time

	scroll float64
	active int
	state  virtual.Output
}

// New creates the list model.
func New(opts Options) tea.Model {
	m := &listModel{
		keyMap:  DefaultKeyMap(),
		help:    help.New(),
		styles:  DefaultStyles(),
		sched:   schedule.NewManual(),
		mode:    opts.Mode,
		heights: opts.Heights,
		now:     opts.Now,
	}
	m.help.Styles = m.styles.Help
	if m.now == nil {
		m.now = time.Now
	}
	if m.mode == autoscroll.Horizontal {
		slog.Warn("Horizontal lists are not rendered by the terminal demo, using vertical")
		m.mode = autoscroll.Vertical
	}
	logger := opts.Logger
	if logger == nil {
		logger = slog.Default()
	}

	m.sched.Advance(m.now())
	m.engine = virtual.New(opts.Config,
		virtual.WithScheduler(m.sched),
		virtual.WithLogger(logger),
		virtual.WithEstimatedHeight(opts.EstimatedHeight),
		virtual.WithItemCount(opts.ItemCount),
		virtual.WithViewportFunc(func() (float64, float64) {
			return m.scroll, float64(m.viewportRows())
		}),
	)
	for index, h := range opts.Heights.Heights {
		m.engine.Heights().Set(index, h)
	}
	m.state = m.engine.State()
	return m
}

func (m *listModel) Init() tea.Cmd {
	return m.frame()
}

func (m *listModel) frame() tea.Cmd {
	return tea.Tick(schedule.FrameInterval, func(t time.Time) tea.Msg {
		return frameMsg(t)
	})
}

func (m *listModel) Update(msg tea.Msg) (tea.Model, tea.Cmd) {
	switch msg := msg.(type) {
	case tea.WindowSizeMsg:
		m.width, m.height = msg.Width, msg.Height
		m.resize()
	case frameMsg:
		// Trailing recomputes and geometry rebuilds land here.
		m.sched.Advance(time.Time(msg))
		m.state = m.engine.State()
		m.observeBoundaries()
		return m, m.frame()
	case HeightsMsg:
		m.applyHeights(fixture.HeightsFile(msg))
	case tea.KeyPressMsg:
		return m, m.handleKeyPressMsg(msg)
	}
	return m, nil
}

func (m *listModel) handleKeyPressMsg(msg tea.KeyPressMsg) tea.Cmd {
	rows := float64(m.viewportRows())
	switch {
	case key.Matches(msg, m.keyMap.Quit):
		m.engine.Close()
		return tea.Quit
	case key.Matches(msg, m.keyMap.Help):
		m.help.ShowAll = !m.help.ShowAll
		m.resize()
	case key.Matches(msg, m.keyMap.Down):
		m.scrollTo(m.scroll + 1)
	case key.Matches(msg, m.keyMap.Up):
		m.scrollTo(m.scroll - 1)
	case key.Matches(msg, m.keyMap.PageDown):
		m.scrollTo(m.scroll + rows)
	case key.Matches(msg, m.keyMap.PageUp):
		m.scrollTo(m.scroll - rows)
	case key.Matches(msg, m.keyMap.Next):
		m.activate(m.active + 1)
	case key.Matches(msg, m.keyMap.Prev):
		m.activate(m.active - 1)
	case key.Matches(msg, m.keyMap.Home):
		m.active = 0
		m.scrollTo(0)
	case key.Matches(msg, m.keyMap.End):
		m.active = max(0, m.engine.ItemCount()-1)
		m.scrollTo(m.contentHeight())
	}
	return nil
}

// advance runs scheduled work that became due and returns the current time.
func (m *listModel) advance() time.Time {
	now := m.now()
	m.sched.Advance(now)
	return now
}

func (m *listModel) resize() {
	now := m.advance()
	m.state = m.engine.OnResize(float64(m.viewportRows()), now)
	m.scrollTo(m.scroll)
}

// scrollTo moves the viewport, clamped to the content.
func (m *listModel) scrollTo(pos float64) {
	maxScroll := max(0, m.contentHeight()-float64(m.viewportRows()))
	pos = min(max(0, pos), maxScroll)
	now := m.advance()
	if pos == m.scroll && !m.state.Empty {
		return
	}
	m.scroll = pos
	m.state = m.engine.OnScroll(pos, now)
	m.observeBoundaries()
}

// activate makes index the active item and corrects the scroll position so
// that it is in view.
func (m *listModel) activate(index int) {
	count := m.engine.ItemCount()
	if count == 0 {
		return
	}
	m.active = min(max(0, index), count-1)
	g, ok := m.engine.Geometry(m.active)
	if !ok {
		return
	}
	vp := autoscroll.Viewport{
		ScrollTop:    m.scroll,
		ClientWidth:  float64(m.width),
		ClientHeight: float64(m.viewportRows()),
	}
	target := autoscroll.Target{
		ContentOffset: autoscroll.Px(g.Offset),
		ContentHeight: autoscroll.Px(g.Height),
	}
	if offset, ok := autoscroll.Correct(m.mode, nil, vp, target); ok {
		slog.Debug("Correcting scroll for active item", "index", m.active, "from", m.scroll, "to", offset)
		m.scrollTo(offset)
	}
}

// observeBoundaries stands in for an intersection observer: markers sit on
// the window edges and report once their item is within one viewport of the
// visible rows.
func (m *listModel) observeBoundaries() {
	if !m.engine.Config().UseSentinelExpansion || m.state.Empty {
		return
	}
	start, end := m.state.StartIndex, m.state.EndIndex
	m.engine.RegisterBoundaryMarker(start, "top")
	m.engine.RegisterBoundaryMarker(end, "bottom")

	rows := float64(m.viewportRows())
	if g, ok := m.engine.Geometry(end); ok && g.Offset < m.scroll+2*rows {
		m.state = m.engine.OnBoundaryIntersect(end)
	}
	if g, ok := m.engine.Geometry(start); ok && g.Offset+g.Height > m.scroll-rows {
		m.state = m.engine.OnBoundaryIntersect(start)
	}
}

func (m *listModel) applyHeights(hf fixture.HeightsFile) {
	changed, removed := fixture.Diff(m.heights, hf)
	m.advance()
	for index, h := range changed {
		m.engine.SetMeasuredHeight(index, h)
	}
	for _, index := range removed {
		m.engine.ClearMeasuredHeight(index)
	}
	if hf.Estimated > 0 {
		m.engine.SetEstimatedHeight(hf.Estimated)
	}
	m.heights = hf
	slog.Debug("Applied heights fixture",
		"changed", len(changed),
		"removed", len(removed),
		"estimated", m.engine.Heights().Estimate(),
	)
}

func (m *listModel) contentHeight() float64 {
	count := m.engine.ItemCount()
	if count == 0 {
		return 0
	}
	g, _ := m.engine.Geometry(count - 1)
	return g.Offset + g.Height
}

// viewportRows is the height left for items after the status and help
// lines.
func (m *listModel) viewportRows() int {
	helpRows := 1
	if m.help.ShowAll {
		helpRows = lipgloss.Height(m.help.View(m.keyMap))
	}
	return max(0, m.height-1-helpRows)
}

func (m *listModel) View() tea.View {
	rows := m.viewportRows()
	parts := []string{}
	if rows > 0 {
		parts = append(parts, strings.Join(m.renderItems(rows), "\n"))
	}
	parts = append(parts, m.statusView(), m.help.View(m.keyMap))
	return tea.NewView(lipgloss.JoinVertical(lipgloss.Left, parts...))
}

// renderItems lays out the items of the current window on rows lines.
func (m *listModel) renderItems(rows int) []string {
	screen := make([]string, rows)
	if m.state.Empty {
		return screen
	}
	for _, index := range m.state.VisibleIndices {
		g, ok := m.engine.Geometry(index)
		if !ok {
			continue
		}
		top := int(math.Round(g.Offset - m.scroll))
		n := max(1, int(math.Round(g.Height)))
		for r := range n {
			y := top + r
			if y < 0 {
				continue
			}
			if y >= rows {
				break
			}
			screen[y] = m.renderItemRow(index, r, n)
		}
	}
	return screen
}

func (m *listModel) renderItemRow(index, row, rows int) string {
	var text string
	switch {
	case row == 0:
		text = fmt.Sprintf("%6d  item %d", index, index)
	case row == rows-1:
		text = "        ╰─"
	default:
		text = "        │"
	}
	text = ansi.Truncate(text, max(0, m.width), "…")

	style := m.styles.Item
	if index%2 == 1 {
		style = m.styles.ItemAlt
	}
	if index == m.active {
		style = m.styles.Active
	}
	if m.mode == autoscroll.VerticalAlternating && index%2 == 1 {
		text = lipgloss.PlaceHorizontal(m.width, lipgloss.Right, text)
	}
	return style.Render(text)
}

func (m *listModel) statusView() string {
	label := m.styles.StatusKey.Render("lazyscroll")
	var info string
	if m.state.Empty {
		info = " no items"
	} else {
		info = fmt.Sprintf(" %d-%d of %d  %s %.2f px/ms  active %d  top %.0f/%.0f",
			m.state.StartIndex,
			m.state.EndIndex,
			m.engine.ItemCount(),
			m.state.ScrollDirection,
			m.state.ScrollVelocity,
			m.active,
			m.scroll,
			m.contentHeight(),
		)
	}
	info = ansi.Truncate(info, max(0, m.width-lipgloss.Width(label)), "…")
	return label + m.styles.Status.Width(max(0, m.width-lipgloss.Width(label))).Render(info)
}
