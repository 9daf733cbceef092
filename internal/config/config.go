// Package config resolves the tool's runtime settings.
//
// The registry layout is fixed by convention (index.json at the registry
// root, archives at the paths the index declares, content written to a
// sibling output tree); the config file and FORMDOCS_* environment variables
// only relocate those roots and tune the ancillary features.
package config

import (
	"bytes"
	"errors"
	"fmt"
	"io/fs"
	"os"
	"path/filepath"
	"time"

	"github.com/joho/godotenv"
	"gopkg.in/yaml.v3"
)

// DefaultPath is the config file consulted when none is given.
const DefaultPath = "formdocs.yaml"

// Config is the resolved tool configuration.
type Config struct {
	Registry RegistryConfig `yaml:"registry"`
	Output   OutputConfig   `yaml:"output"`
	History  HistoryConfig  `yaml:"history"`
	Watch    WatchConfig    `yaml:"watch"`
	Metrics  MetricsConfig  `yaml:"metrics"`
}

type RegistryConfig struct {
	// Root is the registry checkout directory.
	Root string `yaml:"root"`
	// Index is the manifest filename relative to Root.
	Index string `yaml:"index"`
}

type OutputConfig struct {
	// Dir is the content root the build writes to.
	Dir string `yaml:"dir"`
}

type HistoryConfig struct {
	// Path is the SQLite database recording build runs. Empty disables history.
	Path string `yaml:"path"`
}

type WatchConfig struct {
	// Debounce batches rapid filesystem events into one rebuild.
	Debounce Duration `yaml:"debounce"`
	// Interval schedules periodic full rebuilds. Zero disables them.
	Interval Duration `yaml:"interval"`
}

type MetricsConfig struct {
	// Addr serves Prometheus metrics in watch mode when non-empty,
	// e.g. ":9130".
	Addr string `yaml:"addr"`
}

// Default returns the conventional registry layout.
func Default() *Config {
	return &Config{
		Registry: RegistryConfig{Root: ".", Index: "index.json"},
		Output:   OutputConfig{Dir: "content/packages"},
		History:  HistoryConfig{Path: ".formdocs/history.db"},
		Watch:    WatchConfig{Debounce: Duration(2 * time.Second)},
	}
}

// Load reads the config file, layering .env and FORMDOCS_* overrides on top
// of the defaults. A missing file at the default path is fine; an explicitly
// configured file that cannot be read is an error.
func Load(path string) (*Config, error) {
	// .env values never override an already-set process environment.
	_ = godotenv.Load()

	cfg := Default()
	data, err := os.ReadFile(path)
	switch {
	case err == nil:
		dec := yaml.NewDecoder(bytes.NewReader(data))
		dec.KnownFields(true)
		if err := dec.Decode(cfg); err != nil {
			return nil, fmt.Errorf("parse config %s: %w", path, err)
		}
	case errors.Is(err, fs.ErrNotExist) && path == DefaultPath:
		// Conventional layout, no config file needed.
	default:
		return nil, fmt.Errorf("read config %s: %w", path, err)
	}

	applyEnvOverrides(cfg)
	return cfg, nil
}

func applyEnvOverrides(cfg *Config) {
	if v := os.Getenv("FORMDOCS_REGISTRY_ROOT"); v != "" {
		cfg.Registry.Root = v
	}
	if v := os.Getenv("FORMDOCS_REGISTRY_INDEX"); v != "" {
		cfg.Registry.Index = v
	}
	if v := os.Getenv("FORMDOCS_OUTPUT_DIR"); v != "" {
		cfg.Output.Dir = v
	}
	if v := os.Getenv("FORMDOCS_HISTORY_PATH"); v != "" {
		cfg.History.Path = v
	}
	if v := os.Getenv("FORMDOCS_METRICS_ADDR"); v != "" {
		cfg.Metrics.Addr = v
	}
}

// IndexPath returns the absolute-or-relative path of the registry manifest.
func (c *Config) IndexPath() string {
	return filepath.Join(c.Registry.Root, c.Registry.Index)
}

// ArchivePath resolves a version record's archive path against the registry
// root.
func (c *Config) ArchivePath(rel string) string {
	return filepath.Join(c.Registry.Root, filepath.FromSlash(rel))
}

// Init writes a default config file. Refuses to overwrite unless force is set.
func Init(path string, force bool) error {
	if !force {
		if _, err := os.Stat(path); err == nil {
			return fmt.Errorf("config file %s already exists (use --force to overwrite)", path)
		}
	}
	data, err := yaml.Marshal(Default())
	if err != nil {
		return fmt.Errorf("marshal default config: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("write config %s: %w", path, err)
	}
	return nil
}
