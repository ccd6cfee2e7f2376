// Package catalog holds the static paper catalogue: sizes, their customization
// options and the legacy paper types kept for old cart data.
//
// A Catalog is built once (usually from the embedded YAML) and is read-only
// afterwards, so it is safe to share between goroutines.
package catalog

import (
	"errors"
	"fmt"
	"sort"
)

const (
	// FallbackSizeID is used when the configured default size is missing.
	FallbackSizeID = "8.5x11"
	// FallbackPaperTypeID is used when the configured default paper type is missing.
	FallbackPaperTypeID = "standard"
	// DefaultPriceTolerance bounds legacy price comparisons.
	DefaultPriceTolerance = 0.001

	defaultDisplayOrder = 999
)

var (
	// ErrNoDefaultSize is returned when neither the configured nor the fallback size exists.
	ErrNoDefaultSize = errors.New("catalog: no default paper size")
	// ErrNoDefaultPaperType is returned when neither the configured nor the fallback type exists.
	ErrNoDefaultPaperType = errors.New("catalog: no default paper type")
	// ErrInvalidCatalog wraps structural problems found while loading.
	ErrInvalidCatalog = errors.New("catalog: invalid")
)

// Catalog is the immutable, validated catalogue.
type Catalog struct {
	sizes         map[string]Size
	sizeOrder     []string
	defaultSizeID string

	options map[Category]map[string]Option

	paperTypes     map[string]PaperType
	paperTypeOrder []string
	defaultTypeID  string
	legacyPrices   []LegacyPrice
	tolerance      float64
	albums         map[string][]string
}

// New validates a catalogue file and indexes it.
func New(f File) (*Catalog, error) {
	c := &Catalog{
		sizes:      make(map[string]Size, len(f.Sizes)),
		options:    make(map[Category]map[string]Option, len(f.Options)),
		paperTypes: make(map[string]PaperType, len(f.PaperTypes)),
		albums:     make(map[string][]string, len(f.AlbumCompatibility)),
		tolerance:  f.LegacyPriceTolerance,
	}
	if c.tolerance <= 0 {
		c.tolerance = DefaultPriceTolerance
	}

	for category, opts := range f.Options {
		byID := make(map[string]Option, len(opts))
		for _, opt := range opts {
			if opt.ID == "" {
				return nil, fmt.Errorf("%w: %s option without id", ErrInvalidCatalog, category)
			}
			if _, dup := byID[opt.ID]; dup {
				return nil, fmt.Errorf("%w: duplicate %s option %q", ErrInvalidCatalog, category, opt.ID)
			}
			byID[opt.ID] = opt
		}
		c.options[category] = byID
	}

	for _, size := range f.Sizes {
		if size.ID == "" {
			return nil, fmt.Errorf("%w: paper size without id", ErrInvalidCatalog)
		}
		if _, dup := c.sizes[size.ID]; dup {
			return nil, fmt.Errorf("%w: duplicate paper size %q", ErrInvalidCatalog, size.ID)
		}
		if err := c.checkSize(size); err != nil {
			return nil, err
		}
		c.sizes[size.ID] = size
		c.sizeOrder = append(c.sizeOrder, size.ID)
	}
	sort.SliceStable(c.sizeOrder, func(i, j int) bool {
		return c.sizes[c.sizeOrder[i]].DisplayOrder < c.sizes[c.sizeOrder[j]].DisplayOrder
	})

	switch {
	case c.hasSize(f.Defaults.PaperSize):
		c.defaultSizeID = f.Defaults.PaperSize
	case c.hasSize(FallbackSizeID):
		c.defaultSizeID = FallbackSizeID
	default:
		return nil, ErrNoDefaultSize
	}

	if err := c.indexPaperTypes(f); err != nil {
		return nil, err
	}
	return c, nil
}

func (c *Catalog) checkSize(size Size) error {
	for category, ids := range size.AvailableOptions {
		for _, id := range ids {
			if _, ok := c.options[category][id]; !ok {
				return fmt.Errorf("%w: size %q lists unknown %s option %q", ErrInvalidCatalog, size.ID, category, id)
			}
		}
	}
	for category, id := range size.DefaultOptions {
		if !contains(size.AvailableOptions[category], id) {
			return fmt.Errorf("%w: size %q default %s %q is not offered", ErrInvalidCatalog, size.ID, category, id)
		}
	}
	return nil
}

func (c *Catalog) hasSize(id string) bool {
	_, ok := c.sizes[id]
	return ok
}

// Size looks up a paper size by id, active or not.
func (c *Catalog) Size(id string) (Size, bool) {
	size, ok := c.sizes[id]
	return size, ok
}

// Sizes returns active sizes in display order.
func (c *Catalog) Sizes() []Size {
	out := make([]Size, 0, len(c.sizeOrder))
	for _, id := range c.sizeOrder {
		if size := c.sizes[id]; size.IsActive {
			out = append(out, size)
		}
	}
	return out
}

// AllSizes returns every size, inactive ones included, in display order.
func (c *Catalog) AllSizes() []Size {
	out := make([]Size, 0, len(c.sizeOrder))
	for _, id := range c.sizeOrder {
		out = append(out, c.sizes[id])
	}
	return out
}

// DefaultSize returns the configured default size. New guarantees it exists.
func (c *Catalog) DefaultSize() Size {
	return c.sizes[c.defaultSizeID]
}

// Option looks up an option by category and id.
func (c *Catalog) Option(category Category, id string) (Option, bool) {
	opt, ok := c.options[category][id]
	return opt, ok
}

// AvailableOptions returns the options a size offers for a category, ordered
// by display order.
func (c *Catalog) AvailableOptions(size Size, category Category) []Option {
	ids := size.AvailableOptions[category]
	out := make([]Option, 0, len(ids))
	for _, id := range ids {
		if opt, ok := c.options[category][id]; ok {
			out = append(out, opt)
		}
	}
	sort.SliceStable(out, func(i, j int) bool {
		return out[i].DisplayOrder < out[j].DisplayOrder
	})
	return out
}

// AllAvailableOptions returns AvailableOptions for every category.
func (c *Catalog) AllAvailableOptions(size Size) map[Category][]Option {
	out := make(map[Category][]Option, len(Categories))
	for _, category := range Categories {
		out[category] = c.AvailableOptions(size, category)
	}
	return out
}

// IsOptionAvailable reports whether the size offers the option in that category.
func (c *Catalog) IsOptionAvailable(size Size, category Category, id string) bool {
	return contains(size.AvailableOptions[category], id)
}

func contains(ids []string, id string) bool {
	for _, candidate := range ids {
		if candidate == id {
			return true
		}
	}
	return false
}
