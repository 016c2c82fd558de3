package config

import (
	"fmt"
	"sync"
)

var (
	// globalConfig holds the current configuration snapshot. Snapshots are
	// never mutated after publication; reloads swap the pointer.
	globalConfig *Config

	// globalPath is the file the snapshot was loaded from, empty when the
	// configuration came from the environment only.
	globalPath string

	// configMutex protects globalConfig and globalPath.
	configMutex sync.RWMutex

	// initOnce ensures configuration is initialized only once.
	initOnce sync.Once
)

// Initialize loads configuration and stores it as the global snapshot. An
// empty path loads defaults plus environment overrides. Subsequent calls
// are ignored.
func Initialize(path string) error {
	var initErr error

	initOnce.Do(func() {
		cfg, err := load(path)
		if err != nil {
			initErr = err
			return
		}

		configMutex.Lock()
		globalConfig = cfg
		globalPath = path
		configMutex.Unlock()
	})

	return initErr
}

func load(path string) (*Config, error) {
	if path == "" {
		return LoadFromEnv()
	}
	return LoadConfigWithEnvOverrides(path)
}

// GetConfig returns the current configuration snapshot, or nil if
// Initialize has not succeeded. Callers must treat it as read-only.
func GetConfig() *Config {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalConfig
}

// Path returns the file the current configuration was loaded from.
func Path() string {
	configMutex.RLock()
	defer configMutex.RUnlock()
	return globalPath
}

// SetConfig replaces the global snapshot. Intended for tests.
func SetConfig(cfg *Config) {
	configMutex.Lock()
	defer configMutex.Unlock()
	globalConfig = cfg
}

// ReloadConfig reloads configuration from path and publishes it. On error
// the current snapshot is kept.
func ReloadConfig(path string) (*Config, error) {
	cfg, err := load(path)
	if err != nil {
		return nil, fmt.Errorf("failed to reload configuration: %w", err)
	}

	configMutex.Lock()
	globalConfig = cfg
	globalPath = path
	configMutex.Unlock()

	return cfg, nil
}

// MustGetConfig returns the current snapshot and panics if configuration
// has not been initialized.
func MustGetConfig() *Config {
	cfg := GetConfig()
	if cfg == nil {
		panic("configuration not initialized: call Initialize first")
	}
	return cfg
}
