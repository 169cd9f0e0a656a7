package cmd

import (
	"errors"
	"fmt"
	"io"
	"log/slog"
	"os"

	charmlog "github.com/charmbracelet/log/v2"
	"github.com/charmbracelet/x/term"
	"github.com/spf13/cobra"
	"github.com/yumosx/lazyscroll/internal/fixture"
)

var simulateCmd = &cobra.Command{
	Use:   "simulate [trace.json]",
	Short: "Replay a scroll trace through the windowing engine",
	Long: `Replay a recorded list session and print the window state after every event,
one JSON object per line. Activation events also report the corrected scroll offset.
The trace can be provided as a file or piped from stdin.`,
	Example: `
# Replay a trace file
lazyscroll simulate trace.json

# Pipe a trace from stdin, with sentinel expansion enabled
cat trace.json | lazyscroll simulate --sentinels
  `,
	Args: cobra.MaximumNArgs(1),
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupConfig(cmd)
		if err != nil {
			return err
		}

		r, err := traceInput(args, os.Stdin)
		if err != nil {
			return err
		}
		defer r.Close()

		tr, err := fixture.LoadTrace(r)
		if err != nil {
			return err
		}
		var opts []fixture.ReplayOption
		if cfg.Options.Debug {
			// Engine decisions go to stderr next to the replay output.
			logger := charmlog.NewWithOptions(cmd.ErrOrStderr(), charmlog.Options{
				Level:  charmlog.DebugLevel,
				Prefix: "simulate",
			})
			opts = append(opts, fixture.WithLogger(slog.New(logger)))
		}
		return fixture.Replay(tr, cfg.Window.EngineConfig(), cmd.OutOrStdout(), opts...)
	},
}

// traceInput opens the trace named in args, or stdin when it is not a
// terminal.
func traceInput(args []string, stdin *os.File) (io.ReadCloser, error) {
	if len(args) > 0 && args[0] != "-" {
		fd, err := os.Open(args[0])
		if err != nil {
			return nil, fmt.Errorf("failed to open trace: %w", err)
		}
		return fd, nil
	}
	if term.IsTerminal(stdin.Fd()) {
		return nil, errors.New("no trace provided: pass a file or pipe one on stdin")
	}
	return io.NopCloser(stdin), nil
}
