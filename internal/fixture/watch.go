package fixture

import (
	"bytes"
	"context"
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"sync"
	"time"

	"github.com/fsnotify/fsnotify"
	"github.com/yumosx/lazyscroll/internal/schedule"
	"github.com/zeebo/xxh3"
)

const reloadDebounce = 100 * time.Millisecond

// Watcher reloads a heights fixture whenever it changes on disk.
type Watcher struct {
	path     string
	onChange func(HeightsFile)

	debounce *schedule.Debouncer

	mu       sync.Mutex
	lastHash uint64
}

// NewWatcher creates a watcher for path. onChange is called from the
// watcher's goroutine with every new version of the file.
func NewWatcher(path string, onChange func(HeightsFile)) *Watcher {
	return &Watcher{
		path:     filepath.Clean(path),
		onChange: onChange,
		debounce: schedule.NewDebouncer(),
	}
}

// Watch blocks until ctx is done. The parent directory is watched so that
// editors replacing the file by rename are picked up.
func (w *Watcher) Watch(ctx context.Context) error {
	watcher, err := fsnotify.NewWatcher()
	if err != nil {
		return fmt.Errorf("failed to create watcher: %w", err)
	}
	defer watcher.Close()
	defer w.debounce.Close()

	if err := watcher.Add(filepath.Dir(w.path)); err != nil {
		return fmt.Errorf("failed to watch %s: %w", w.path, err)
	}

	// Seed the hash so an untouched file is not reported twice.
	if data, err := os.ReadFile(w.path); err == nil {
		w.lastHash = xxh3.Hash(data)
	}

	for {
		select {
		case <-ctx.Done():
			return nil
		case event, ok := <-watcher.Events:
			if !ok {
				return nil
			}
			if filepath.Clean(event.Name) != w.path {
				continue
			}
			if event.Op&(fsnotify.Write|fsnotify.Create|fsnotify.Rename) == 0 {
				continue
			}
			w.debounce.Schedule("reload", reloadDebounce, w.reload)
		case err, ok := <-watcher.Errors:
			if !ok {
				return nil
			}
			slog.Error("Error watching heights file", "path", w.path, "error", err)
		}
	}
}

func (w *Watcher) reload() {
	w.mu.Lock()
	defer w.mu.Unlock()

	data, err := os.ReadFile(w.path)
	if err != nil {
		slog.Debug("Heights file not readable", "path", w.path, "error", err)
		return
	}
	hash := xxh3.Hash(data)
	if hash == w.lastHash {
		return
	}

	hf, err := ReadHeights(bytes.NewReader(data))
	if err != nil {
		slog.Error("Ignoring invalid heights file", "path", w.path, "error", err)
		return
	}
	w.lastHash = hash
	slog.Debug("Heights file reloaded", "path", w.path, "measured", len(hf.Heights))
	w.onChange(hf)
}

// Watch watches path until ctx is done, calling onChange with each new
// version of the fixture.
func Watch(ctx context.Context, path string, onChange func(HeightsFile)) error {
	return NewWatcher(path, onChange).Watch(ctx)
}
