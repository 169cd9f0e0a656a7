package cmd

import (
	"context"
	"fmt"
	"log/slog"
	"os"

	tea "github.com/charmbracelet/bubbletea/v2"
	"github.com/charmbracelet/fang"
	"github.com/spf13/cobra"
	"github.com/yumosx/lazyscroll/internal/config"
	"github.com/yumosx/lazyscroll/internal/fixture"
	"github.com/yumosx/lazyscroll/internal/tui"
	"github.com/yumosx/lazyscroll/internal/version"
)

func init() {
	rootCmd.PersistentFlags().StringP("cwd", "c", "", "Current working directory")
	rootCmd.PersistentFlags().BoolP("debug", "d", false, "Debug")
	rootCmd.PersistentFlags().Bool("sentinels", false, "Grow the window from boundary marker intersections")

	rootCmd.Flags().BoolP("help", "h", false, "Help")
	rootCmd.Flags().IntP("items", "n", 0, "Number of items, overrides the configuration")
	rootCmd.Flags().String("heights", "", "Measured heights fixture, reloaded when it changes")

	rootCmd.AddCommand(simulateCmd)
}

var rootCmd = &cobra.Command{
	Use:   "lazyscroll",
	Short: "Windowed rendering of very long lists",
	Long: `lazyscroll renders a very long list of variable-height items in the terminal,
materializing only the items in and around the viewport. Moving the active item
corrects the scroll position so that it stays in view.`,
	Example: `
# Browse ten thousand items
lazyscroll

# Browse a smaller list with debug logging
lazyscroll -d -n 500

# Use measured heights, reloaded whenever the file changes
lazyscroll --heights heights.json

# Replay a recorded scroll trace
lazyscroll simulate trace.json
  `,
	RunE: func(cmd *cobra.Command, args []string) error {
		cfg, err := setupConfig(cmd)
		if err != nil {
			return err
		}

		opts, err := listOptions(cfg)
		if err != nil {
			return err
		}

		program := tea.NewProgram(
			tui.New(opts),
			tea.WithAltScreen(),
			tea.WithContext(cmd.Context()),
		)

		if path := cfg.List.HeightsFile; path != "" {
			go watchHeights(cmd.Context(), path, program)
		}

		if _, err := program.Run(); err != nil {
			slog.Error("TUI run error", "error", err)
			return fmt.Errorf("TUI error: %v", err)
		}
		return nil
	},
}

func Execute(ctx context.Context) {
	if err := fang.Execute(
		ctx,
		rootCmd,
		fang.WithVersion(version.Version),
	); err != nil {
		os.Exit(1)
	}
}

// setupConfig loads the configuration and applies command line overrides.
func setupConfig(cmd *cobra.Command) (*config.Config, error) {
	debug, _ := cmd.Flags().GetBool("debug")

	cwd, err := ResolveCwd(cmd)
	if err != nil {
		return nil, err
	}

	cfg, err := config.Init(cwd, debug)
	if err != nil {
		return nil, err
	}

	if cmd.Flags().Changed("items") {
		items, _ := cmd.Flags().GetInt("items")
		if items < 0 {
			return nil, fmt.Errorf("invalid item count %d", items)
		}
		cfg.List.ItemCount = &items
	}
	if cmd.Flags().Changed("heights") {
		cfg.List.HeightsFile, _ = cmd.Flags().GetString("heights")
	}
	if cmd.Flags().Changed("sentinels") {
		cfg.Window.UseSentinelExpansion, _ = cmd.Flags().GetBool("sentinels")
	}
	return cfg, nil
}

func listOptions(cfg *config.Config) (tui.Options, error) {
	opts := tui.Options{
		Config:          cfg.Window.EngineConfig(),
		ItemCount:       cfg.List.Items(),
		EstimatedHeight: cfg.List.EstimatedItemHeight,
		Mode:            cfg.List.Mode(),
	}
	if path := cfg.List.HeightsFile; path != "" {
		hf, err := fixture.LoadHeights(path)
		if err != nil {
			return tui.Options{}, err
		}
		if hf.Estimated > 0 {
			opts.EstimatedHeight = hf.Estimated
		}
		opts.Heights = hf
	}
	return opts, nil
}

func watchHeights(ctx context.Context, path string, program *tea.Program) {
	err := fixture.Watch(ctx, path, func(hf fixture.HeightsFile) {
		program.Send(tui.HeightsMsg(hf))
	})
	if err != nil {
		slog.Error("Failed to watch heights file", "path", path, "error", err)
	}
}

func ResolveCwd(cmd *cobra.Command) (string, error) {
	cwd, _ := cmd.Flags().GetString("cwd")
	if cwd != "" {
		err := os.Chdir(cwd)
		if err != nil {
			return "", fmt.Errorf("failed to change directory: %v", err)
		}
		return cwd, nil
	}
	cwd, err := os.Getwd()
	if err != nil {
		return "", fmt.Errorf("failed to get current working directory: %v", err)
	}
	return cwd, nil
}
