package config

import (
	"fmt"
	"sync/atomic"
)

var instance atomic.Pointer[Config]

// Init loads the configuration once for the process and makes it available
// through Get.
func Init(workingDir string, debug bool) (*Config, error) {
	cfg, err := Load(workingDir, debug)
	if err != nil {
		return nil, err
	}
	instance.Store(cfg)
	return cfg, nil
}

// Get returns the loaded configuration. It panics when Init was not called.
func Get() *Config {
	cfg := instance.Load()
	if cfg == nil {
		panic(fmt.Sprintf("%s config not loaded", appName))
	}
	return cfg
}
