package codebase

import (
	"fmt"
	"os"
	"path/filepath"
	"time"

	"gopkg.in/yaml.v3"
)

// ConfigFile is looked up in the codebase root.
const ConfigFile = ".pyscope.yaml"

type Config struct {
	// CacheDir enables the filesystem parse cache when non-empty.
	CacheDir string `yaml:"cache_dir"`
	// Ignore lists directory names excluded from scans and watching.
	Ignore []string `yaml:"ignore"`
	// DebounceMS is how long the watcher coalesces change events per file.
	DebounceMS int `yaml:"debounce_ms"`
}

func DefaultConfig() *Config {
	return &Config{
		Ignore:     []string{"__pycache__", "venv", ".venv", "node_modules"},
		DebounceMS: 200,
	}
}

// LoadConfig reads rootDir's config file, falling back to defaults when it
// does not exist.
func LoadConfig(rootDir string) (*Config, error) {
	cfg := DefaultConfig()
	data, err := os.ReadFile(filepath.Join(rootDir, ConfigFile))
	if err != nil {
		if os.IsNotExist(err) {
			return cfg, nil
		}
		return nil, err
	}
	if err := yaml.Unmarshal(data, cfg); err != nil {
		return nil, fmt.Errorf("parse %s: %w", ConfigFile, err)
	}
	return cfg, nil
}

func (c *Config) Debounce() time.Duration {
	return time.Duration(c.DebounceMS) * time.Millisecond
}
