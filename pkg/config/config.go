// Package config loads readmark's YAML configuration.
package config

import (
	"errors"
	"fmt"
	"os"
	"path/filepath"

	"gopkg.in/yaml.v3"

	"github.com/Dicklesworthstone/readmark/pkg/progress"
	"github.com/Dicklesworthstone/readmark/pkg/reader"
	"github.com/Dicklesworthstone/readmark/pkg/storage"
)

// Config is the on-disk configuration. Empty fields take their defaults.
type Config struct {
	// StorageKey is the key the progress record is stored under.
	StorageKey string `yaml:"storage_key,omitempty"`
	// Storage selects the backend: "file" or "sqlite".
	Storage string `yaml:"storage,omitempty"`
	// DataDir holds persisted progress.
	DataDir string `yaml:"data_dir,omitempty"`
	// IDMode is "last-segment" or "html-suffix".
	IDMode string `yaml:"id_mode,omitempty"`
	// LandingMarker makes a page a landing page when its id contains it.
	LandingMarker string `yaml:"landing_marker,omitempty"`
	// ScrollStep is the j/k distance in lines.
	ScrollStep int `yaml:"scroll_step,omitempty"`
	// MarkReadOnOpen marks pages read as soon as they are opened.
	MarkReadOnOpen bool `yaml:"mark_read_on_open,omitempty"`
	// Watch reloads pages when the book directory changes.
	Watch *bool `yaml:"watch,omitempty"`
	// Theme is "auto", "dark" or "light".
	Theme string `yaml:"theme,omitempty"`
}

// DefaultScrollStep is the terminal j/k step, in lines.
const DefaultScrollStep = 3

// Default returns the configuration used when no file exists.
func Default() Config {
	return Config{
		StorageKey:    progress.DefaultStorageKey,
		Storage:       string(storage.BackendFile),
		DataDir:       DefaultDataDir(),
		IDMode:        string(progress.DefaultIDMode),
		LandingMarker: "index",
		ScrollStep:    DefaultScrollStep,
		Theme:         "auto",
	}
}

// DefaultPath is $XDG_CONFIG_HOME/readmark/config.yaml.
func DefaultPath() string {
	dir, err := os.UserConfigDir()
	if err != nil {
		dir = "."
	}
	return filepath.Join(dir, "readmark", "config.yaml")
}

// DefaultDataDir is $XDG_DATA_HOME/readmark, falling back to
// ~/.local/share/readmark.
func DefaultDataDir() string {
	if dir := os.Getenv("XDG_DATA_HOME"); dir != "" {
		return filepath.Join(dir, "readmark")
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return ".readmark"
	}
	return filepath.Join(home, ".local", "share", "readmark")
}

// Load reads path. A missing file yields the defaults; a malformed one is an
// error.
func Load(path string) (Config, error) {
	cfg := Default()
	data, err := os.ReadFile(path)
	if err != nil {
		if errors.Is(err, os.ErrNotExist) {
			return cfg, nil
		}
		return cfg, fmt.Errorf("reading config: %w", err)
	}

	var file Config
	if err := yaml.Unmarshal(data, &file); err != nil {
		return cfg, fmt.Errorf("parsing config %s: %w", path, err)
	}
	cfg.merge(file)
	if err := cfg.Validate(); err != nil {
		return cfg, fmt.Errorf("invalid config %s: %w", path, err)
	}
	return cfg, nil
}

func (c *Config) merge(o Config) {
	if o.StorageKey != "" {
		c.StorageKey = o.StorageKey
	}
	if o.Storage != "" {
		c.Storage = o.Storage
	}
	if o.DataDir != "" {
		c.DataDir = expandHome(o.DataDir)
	}
	if o.IDMode != "" {
		c.IDMode = o.IDMode
	}
	if o.LandingMarker != "" {
		c.LandingMarker = o.LandingMarker
	}
	if o.ScrollStep > 0 {
		c.ScrollStep = o.ScrollStep
	}
	if o.MarkReadOnOpen {
		c.MarkReadOnOpen = true
	}
	if o.Watch != nil {
		c.Watch = o.Watch
	}
	if o.Theme != "" {
		c.Theme = o.Theme
	}
}

// Validate checks the enumerated fields.
func (c Config) Validate() error {
	if _, err := storage.ParseBackend(c.Storage); err != nil {
		return err
	}
	if _, err := progress.ParseIDMode(c.IDMode); err != nil {
		return err
	}
	switch c.Theme {
	case "", "auto", "dark", "light":
	default:
		return fmt.Errorf("unknown theme %q", c.Theme)
	}
	return nil
}

// WatchEnabled reports whether live reload is on; it defaults to true.
func (c Config) WatchEnabled() bool {
	return c.Watch == nil || *c.Watch
}

// Backend returns the parsed storage backend.
func (c Config) Backend() storage.Backend {
	b, err := storage.ParseBackend(c.Storage)
	if err != nil {
		return storage.BackendFile
	}
	return b
}

// ReaderOptions converts the configuration into tracker options.
func (c Config) ReaderOptions() reader.Options {
	mode, err := progress.ParseIDMode(c.IDMode)
	if err != nil {
		mode = progress.DefaultIDMode
	}
	return reader.Options{
		StorageKey:     c.StorageKey,
		IDMode:         mode,
		LandingMarker:  c.LandingMarker,
		ScrollStep:     c.ScrollStep,
		MarkReadOnOpen: c.MarkReadOnOpen,
	}
}

// Save writes the configuration to path, creating its directory.
func (c Config) Save(path string) error {
	data, err := yaml.Marshal(c)
	if err != nil {
		return fmt.Errorf("encoding config: %w", err)
	}
	if err := os.MkdirAll(filepath.Dir(path), 0o755); err != nil {
		return fmt.Errorf("creating config dir: %w", err)
	}
	if err := os.WriteFile(path, data, 0o644); err != nil {
		return fmt.Errorf("writing config: %w", err)
	}
	return nil
}

func expandHome(p string) string {
	if len(p) < 2 || p[:2] != "~/" {
		return p
	}
	home, err := os.UserHomeDir()
	if err != nil {
		return p
	}
	return filepath.Join(home, p[2:])
}
