package config

import (
	"encoding/json"
	"fmt"
	"io"
	"os"
	"path/filepath"
	"runtime"

	"github.com/yumosx/lazyscroll/internal/env"
	"github.com/yumosx/lazyscroll/internal/fsext"
	"github.com/yumosx/lazyscroll/internal/log"
)

// LoadReader config via io.Reader.
func LoadReader(fd io.Reader) (*Config, error) {
	data, err := io.ReadAll(fd)
	if err != nil {
		return nil, err
	}

	var config Config
	err = json.Unmarshal(data, &config)
	if err != nil {
		return nil, err
	}
	return &config, err
}

// Load loads the configuration from the default paths. Later paths override
// earlier ones.
func Load(workingDir string, debug bool) (*Config, error) {
	return load(workingDir, debug, env.New())
}

func load(workingDir string, debug bool, e env.Env) (*Config, error) {
	// uses default config paths
	configPaths := []string{
		globalConfig(e),
		filepath.Join(workingDir, fmt.Sprintf("%s.json", appName)),
		filepath.Join(workingDir, fmt.Sprintf(".%s.json", appName)),
	}
	cfg, err := loadFromConfigPaths(configPaths)
	if err != nil {
		return nil, fmt.Errorf("failed to load config from paths %v: %w", configPaths, err)
	}

	if err := cfg.expandPaths(workingDir, e); err != nil {
		return nil, err
	}
	cfg.setDefaults(workingDir)

	if debug || env.Bool(e, "LAZYSCROLL_DEBUG") {
		cfg.Options.Debug = true
	}

	// Setup logs
	log.Setup(
		filepath.Join(cfg.Options.DataDirectory, "logs", fmt.Sprintf("%s.log", appName)),
		cfg.Options.Debug,
	)

	if err := cfg.Validate(); err != nil {
		return nil, fmt.Errorf("invalid configuration: %w", err)
	}
	return cfg, nil
}

func loadFromConfigPaths(configPaths []string) (*Config, error) {
	var configs []io.Reader

	for _, path := range configPaths {
		fd, err := os.Open(path)
		if err != nil {
			if os.IsNotExist(err) {
				continue
			}
			return nil, fmt.Errorf("failed to open config file %s: %w", path, err)
		}
		defer fd.Close()

		configs = append(configs, fd)
	}

	return Merge(configs)
}

func globalConfig(e env.Env) string {
	xdgConfigHome := e.Get("XDG_CONFIG_HOME")
	if xdgConfigHome != "" {
		return filepath.Join(xdgConfigHome, appName, fmt.Sprintf("%s.json", appName))
	}

	// return the path to the main config directory
	// for windows, it should be in `%LOCALAPPDATA%/lazyscroll/`
	// for linux and macOS, it should be in `$HOME/.config/lazyscroll/`
	if runtime.GOOS == "windows" {
		localAppData := e.Get("LOCALAPPDATA")
		if localAppData == "" {
			localAppData = filepath.Join(e.Get("USERPROFILE"), "AppData", "Local")
		}
		return filepath.Join(localAppData, appName, fmt.Sprintf("%s.json", appName))
	}

	return filepath.Join(e.Get("HOME"), ".config", appName, fmt.Sprintf("%s.json", appName))
}

// expandPaths resolves shell symbols and environment variables in the path
// options. Relative results are taken relative to workingDir.
func (c *Config) expandPaths(workingDir string, e env.Env) error {
	if c.Options != nil && c.Options.DataDirectory != "" {
		dir, err := fsext.ExpandPath(c.Options.DataDirectory, workingDir, e)
		if err != nil {
			return fmt.Errorf("invalid data directory: %w", err)
		}
		c.Options.DataDirectory = dir
	}
	if c.List != nil && c.List.HeightsFile != "" {
		path, err := fsext.ExpandPath(c.List.HeightsFile, workingDir, e)
		if err != nil {
			return fmt.Errorf("invalid heights file: %w", err)
		}
		c.List.HeightsFile = path
	}
	return nil
}
