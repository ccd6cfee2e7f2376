package catalog

import (
	"bytes"
	_ "embed"
	"fmt"
	"io"
	"os"
	"sync"

	"gopkg.in/yaml.v3"
)

//go:embed catalog.yaml
var embeddedCatalog []byte

var (
	defaultOnce    sync.Once
	defaultCatalog *Catalog
	defaultErr     error
)

// Load decodes a YAML catalogue and validates it.
func Load(r io.Reader) (*Catalog, error) {
	var f File
	dec := yaml.NewDecoder(r)
	dec.KnownFields(true)
	if err := dec.Decode(&f); err != nil {
		return nil, fmt.Errorf("failed to decode catalog: %w", err)
	}
	return New(f)
}

// LoadFile reads a catalogue from disk.
func LoadFile(path string) (*Catalog, error) {
	fh, err := os.Open(path)
	if err != nil {
		return nil, fmt.Errorf("failed to open catalog: %w", err)
	}
	defer fh.Close()
	return Load(fh)
}

// Default returns the catalogue shipped with the binary. It is parsed once.
func Default() (*Catalog, error) {
	defaultOnce.Do(func() {
		defaultCatalog, defaultErr = Load(bytes.NewReader(embeddedCatalog))
	})
	return defaultCatalog, defaultErr
}

// MustDefault is Default for tests and program start-up.
func MustDefault() *Catalog {
	c, err := Default()
	if err != nil {
		panic(err)
	}
	return c
}
