package catalog

import (
	_ "embed"
	"fmt"
	"os"

	"github.com/BurntSushi/toml"
)

//go:embed default_catalog.toml
var defaultCatalog string

type catalogFile struct {
	Services []Service `toml:"services"`
	Staff    []Staff   `toml:"staff"`
	Products []Product `toml:"products"`
}

// Parse decodes a TOML catalog document into a Registry.
func Parse(doc string) (*Registry, error) {
	var file catalogFile
	meta, err := toml.Decode(doc, &file)
	if err != nil {
		return nil, fmt.Errorf("catalog: decode: %w", err)
	}
	if undecoded := meta.Undecoded(); len(undecoded) > 0 {
		return nil, fmt.Errorf("catalog: unknown keys %v", undecoded)
	}
	return NewRegistry(file.Services, file.Staff, file.Products)
}

// LoadFile reads a TOML catalog from disk.
func LoadFile(path string) (*Registry, error) {
	raw, err := os.ReadFile(path)
	if err != nil {
		return nil, fmt.Errorf("catalog: read %s: %w", path, err)
	}
	return Parse(string(raw))
}

// Default returns the salon's built-in catalog.
func Default() *Registry {
	reg, err := Parse(defaultCatalog)
	if err != nil {
		panic(err)
	}
	return reg
}

// Load returns the catalog at path, or the built-in one when path is empty.
func Load(path string) (*Registry, error) {
	if path == "" {
		return Default(), nil
	}
	return LoadFile(path)
}
