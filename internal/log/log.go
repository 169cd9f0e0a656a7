package log

import (
	"fmt"
	"log/slog"
	"os"
	"path/filepath"
	"runtime/debug"
	"sync"
	"sync/atomic"
	"time"

	"gopkg.in/natefinch/lumberjack.v2"
)

const (
	maxLogSizeMB  = 10
	maxLogAgeDays = 30
)

var (
	setupOnce sync.Once
	ready     atomic.Bool

	reportDir = "."
)

// Setup points the default slog logger at a rotated JSON log file. Later
// calls are ignored.
func Setup(logFile string, debug bool) {
	setupOnce.Do(func() {
		level := slog.LevelInfo
		if debug {
			level = slog.LevelDebug
		}
		w := &lumberjack.Logger{
			Filename: logFile,
			MaxSize:  maxLogSizeMB,
			MaxAge:   maxLogAgeDays,
		}
		slog.SetDefault(slog.New(slog.NewJSONHandler(w, &slog.HandlerOptions{
			Level:     level,
			AddSource: true,
		})))
		reportDir = filepath.Dir(logFile)
		ready.Store(true)
	})
}

func Initialized() bool {
	return ready.Load()
}

// RecoverPanic must be deferred. The panic value and stack go to a report
// next to the log file, and to the log itself once it is set up. cleanup runs
// afterwards.
func RecoverPanic(name string, cleanup func()) {
	r := recover()
	if r == nil {
		return
	}
	path, err := writePanicReport(name, r, debug.Stack(), time.Now())
	if ready.Load() {
		slog.Error("Recovered from panic", "component", name, "panic", fmt.Sprint(r), "report", path, "error", err)
	}
	if cleanup != nil {
		cleanup()
	}
}

func writePanicReport(name string, r any, stack []byte, now time.Time) (string, error) {
	path := filepath.Join(reportDir, fmt.Sprintf("lazyscroll-panic-%s-%s.log", name, now.Format("20060102-150405")))
	f, err := os.Create(path)
	if err != nil {
		return "", err
	}
	defer f.Close()
	_, err = fmt.Fprintf(f, "Panic in %s: %v\nTime: %s\n\n%s\n", name, r, now.Format(time.RFC3339), stack)
	return path, err
}
