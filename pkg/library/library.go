// Package library manages a list of books read with readmark, configured
// in a YAML file, and loads them in parallel.
package library

import (
	"fmt"
	"os"
	"path/filepath"
	"strings"

	"gopkg.in/yaml.v3"
)

// BookConfig is one entry of the library file.
type BookConfig struct {
	// Name identifies the book; it defaults to the directory name.
	Name string `yaml:"name,omitempty"`
	// Path is the book's HTML output directory, relative to the library
	// file unless absolute.
	Path string `yaml:"path"`
	// Enabled defaults to true.
	Enabled *bool `yaml:"enabled,omitempty"`
	// StorageKey overrides the progress key for this book.
	StorageKey string `yaml:"storage_key,omitempty"`
}

// IsEnabled reports whether the book should be loaded.
func (b BookConfig) IsEnabled() bool {
	return b.Enabled == nil || *b.Enabled
}

// GetName returns the configured name or the directory name.
func (b BookConfig) GetName() string {
	if b.Name != "" {
		return b.Name
	}
	return filepath.Base(filepath.Clean(b.Path))
}

// Library is the parsed library file.
type Library struct {
	Books []BookConfig `yaml:"books"`
}

// LoadLibrary reads and validates a library file.
func LoadLibrary(path string) (*Library, error) {
	data, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("reading library: %w", err)
	}
	var lib Library
	if err := yaml.Unmarshal(data, &lib); err != nil {
		return nil, fmt.Errorf("parsing library %s: %w", path, err)
	}
	if err := lib.Validate(); err != nil {
		return nil, fmt.Errorf("invalid library %s: %w", path, err)
	}
	return &lib, nil
}

// Validate checks that every book has a path and names are unique.
func (l *Library) Validate() error {
	seen := make(map[string]bool)
	for i, b := range l.Books {
		if strings.TrimSpace(b.Path) == "" {
			return fmt.Errorf("book %d has no path", i+1)
		}
		name := b.GetName()
		if seen[name] {
			return fmt.Errorf("duplicate book name %q", name)
		}
		seen[name] = true
	}
	return nil
}

// Enabled returns the enabled books in file order.
func (l *Library) Enabled() []BookConfig {
	var enabled []BookConfig
	for _, b := range l.Books {
		if b.IsEnabled() {
			enabled = append(enabled, b)
		}
	}
	return enabled
}

// ResolvePath returns b's directory, resolved against root.
func ResolvePath(b BookConfig, root string) string {
	if filepath.IsAbs(b.Path) {
		return b.Path
	}
	return filepath.Join(root, b.Path)
}
