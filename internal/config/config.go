package config

import (
	"errors"
	"fmt"
	"path/filepath"
	"time"

	"github.com/yumosx/lazyscroll/internal/autoscroll"
	"github.com/yumosx/lazyscroll/internal/virtual"
)

const (
	appName              = "lazyscroll"
	defaultDataDirectory = ".lazyscroll"

	defaultBuffer              = 5
	defaultScrollDebounceMs    = 50
	defaultFixedViewportSize   = 10_000_000
	defaultExtraBufferBelow    = 10
	defaultItemCount           = 10_000
	defaultEstimatedItemHeight = 3
)

type Options struct {
	Debug bool `json:"debug,omitempty" jsonschema:"description=Enable debug logging"`
	// Relative to the cwd
	DataDirectory string `json:"data_directory,omitempty" jsonschema:"description=Directory for logs and panic reports,default=.lazyscroll"`
}

// WindowOptions tunes the windowing engine.
// Buffers are pointers so that an explicit zero is kept.
type WindowOptions struct {
	Buffer            *int    `json:"buffer,omitempty" jsonschema:"description=Items kept materialized beyond each visible edge,minimum=0,default=5"`
	ScrollDebounceMs  int     `json:"scroll_debounce_ms,omitempty" jsonschema:"description=Debounce for secondary recalculation in milliseconds,minimum=0,default=50"`
	FixedViewportSize float64 `json:"fixed_viewport_size,omitempty" jsonschema:"description=Total height reported while the exact total is unknown,default=10000000"`
	ExtraBufferBelow  *int    `json:"extra_buffer_below,omitempty" jsonschema:"description=Additional look-ahead after the visible range,minimum=0,default=10"`

	UseSentinelExpansion bool `json:"use_sentinel_expansion,omitempty" jsonschema:"description=Grow the window from boundary marker intersections"`
	DynamicBuffering *bool `json:"dynamic_buffering,omitempty" jsonschema:"description=Scale buffers with scroll velocity,default=true"`
}

// ListOptions describes the list the demo host renders.
type ListOptions struct {
	ItemCount           *int    `json:"item_count,omitempty" jsonschema:"description=Number of items,minimum=0,default=10000"`
	EstimatedItemHeight float64 `json:"estimated_item_height,omitempty" jsonschema:"description=Height assumed for unmeasured items,default=3"`
	Orientation         string  `json:"orientation,omitempty" jsonschema:"enum=vertical,enum=horizontal,enum=vertical-alternating,default=vertical"`
	ItemWidth           float64 `json:"item_width,omitempty" jsonschema:"description=Item width (required for horizontal lists)"`
	// HeightsFile is a JSON fixture with measured heights; it is watched for
	// changes.
	HeightsFile string `json:"heights_file,omitempty" jsonschema:"description=Path to a measured heights fixture"`
}

type Config struct {
	Options *Options       `json:"options,omitempty" jsonschema:"description=General application options"`
	Window  *WindowOptions `json:"window,omitempty" jsonschema:"description=Windowing engine options"`
	List    *ListOptions   `json:"list,omitempty" jsonschema:"description=Demo list options"`

	workingDir string
}

func (c *Config) WorkingDir() string {
	return c.workingDir
}

func (c *Config) setDefaults(workingDir string) {
	c.workingDir = workingDir
	if c.Options == nil {
		c.Options = &Options{}
	}
	if c.Options.DataDirectory == "" {
		c.Options.DataDirectory = filepath.Join(workingDir, defaultDataDirectory)
	}
	if c.Window == nil {
		c.Window = &WindowOptions{}
	}
	if c.Window.Buffer == nil {
		c.Window.Buffer = intPtr(defaultBuffer)
	}
	if c.Window.ScrollDebounceMs == 0 {
		c.Window.ScrollDebounceMs = defaultScrollDebounceMs
	}
	if c.Window.FixedViewportSize == 0 {
		c.Window.FixedViewportSize = defaultFixedViewportSize
	}
	if c.Window.ExtraBufferBelow == nil {
		c.Window.ExtraBufferBelow = intPtr(defaultExtraBufferBelow)
	}
	if c.Window.DynamicBuffering == nil {
		c.Window.DynamicBuffering = boolPtr(true)
	}
	if c.List == nil {
		c.List = &ListOptions{}
	}
	if c.List.ItemCount == nil {
		c.List.ItemCount = intPtr(defaultItemCount)
	}
	if c.List.EstimatedItemHeight == 0 {
		c.List.EstimatedItemHeight = defaultEstimatedItemHeight
	}
	if c.List.Orientation == "" {
		c.List.Orientation = autoscroll.Vertical.String()
	}
	if c.List.HeightsFile != "" && !filepath.IsAbs(c.List.HeightsFile) {
		c.List.HeightsFile = filepath.Join(workingDir, c.List.HeightsFile)
	}
}

// Validate reports every invalid option at once.
func (c *Config) Validate() error {
	var errs []error
	if c.Window != nil {
		if v := c.Window.Buffer; v != nil && *v < 0 {
			errs = append(errs, fmt.Errorf("window.buffer must not be negative, got %d", *v))
		}
		if c.Window.ScrollDebounceMs < 0 {
			errs = append(errs, fmt.Errorf("window.scroll_debounce_ms must not be negative, got %d", c.Window.ScrollDebounceMs))
		}
		if v := c.Window.ExtraBufferBelow; v != nil && *v < 0 {
			errs = append(errs, fmt.Errorf("window.extra_buffer_below must not be negative, got %d", *v))
		}
		if c.Window.FixedViewportSize < 0 {
			errs = append(errs, fmt.Errorf("window.fixed_viewport_size must not be negative, got %v", c.Window.FixedViewportSize))
		}
	}
	if c.List != nil {
		if v := c.List.ItemCount; v != nil && *v < 0 {
			errs = append(errs, fmt.Errorf("list.item_count must not be negative, got %d", *v))
		}
		if c.List.EstimatedItemHeight < 0 {
			errs = append(errs, fmt.Errorf("list.estimated_item_height must be positive, got %v", c.List.EstimatedItemHeight))
		}
		mode, err := autoscroll.ParseMode(c.List.Orientation)
		if err != nil {
			errs = append(errs, fmt.Errorf("list.orientation: %w", err))
		} else if mode == autoscroll.Horizontal && c.List.ItemWidth <= 0 {
			errs = append(errs, errors.New("list.item_width is required for horizontal lists"))
		}
	}
	return errors.Join(errs...)
}

// Mode returns the parsed list orientation, vertical when unset or invalid.
func (l *ListOptions) Mode() autoscroll.Mode {
	mode, _ := autoscroll.ParseMode(l.Orientation)
	return mode
}

// Items returns the configured item count, the default when unset.
func (l *ListOptions) Items() int {
	if l == nil || l.ItemCount == nil {
		return defaultItemCount
	}
	return *l.ItemCount
}

// EngineConfig converts the window options to the engine configuration.
func (w *WindowOptions) EngineConfig() virtual.Config {
	cfg := virtual.DefaultConfig()
	if w == nil {
		return cfg
	}
	if w.Buffer != nil {
		cfg.Buffer = *w.Buffer
	}
	if w.ScrollDebounceMs > 0 {
		cfg.ScrollDebounce = time.Duration(w.ScrollDebounceMs) * time.Millisecond
	}
	if w.FixedViewportSize > 0 {
		cfg.FixedViewportSize = w.FixedViewportSize
	}
	if w.ExtraBufferBelow != nil {
		cfg.ExtraBufferBelow = *w.ExtraBufferBelow
	}
	cfg.UseSentinelExpansion = w.UseSentinelExpansion
	if w.DynamicBuffering != nil {
		cfg.DynamicBuffering = *w.DynamicBuffering
	}
	return cfg
}

func intPtr(i int) *int    { return &i }
func boolPtr(b bool) *bool { return &b }
