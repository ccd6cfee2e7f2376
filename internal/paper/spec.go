package paper

import (
	"fmt"

	"github.com/albumpages/paper-shipping/internal/catalog"
)

// Spec is what the shipping side needs from a paper product, whichever
// catalogue generation it comes from.
type Spec interface {
	// Key identifies the product for grouping: a SKU or a legacy type id.
	Key() string
	Name() string
	PricePerPage() float64
	WeightPerPage() float64
	ThicknessPerPage() float64
	Width() float64
	Height() float64
}

var (
	_ Spec = (*Configuration)(nil)
	_ Spec = Legacy{}
)

// Legacy adapts a flat PaperType to Spec. Its per-page values are used as
// stored, without the per-page rounding configurations get.
type Legacy struct {
	Type catalog.PaperType
}

// LegacyByID wraps a registered paper type. Unlike cart normalization it does
// not fall back to the default.
func LegacyByID(cat *catalog.Catalog, id string) (Legacy, error) {
	pt, ok := cat.PaperType(id)
	if !ok {
		return Legacy{}, &ConfigurationError{
			Message: fmt.Sprintf("paper type '%s' not found", id),
			Err:     ErrPaperTypeNotFound,
		}
	}
	return Legacy{Type: pt}, nil
}

func (l Legacy) Key() string               { return l.Type.ID }
func (l Legacy) Name() string              { return l.Type.Name }
func (l Legacy) PricePerPage() float64     { return l.Type.PricePerPage }
func (l Legacy) WeightPerPage() float64    { return l.Type.WeightPerPageOz }
func (l Legacy) ThicknessPerPage() float64 { return l.Type.ThicknessInches }
func (l Legacy) Width() float64            { return l.Type.Width }
func (l Legacy) Height() float64           { return l.Type.Height }

// Choice is the paper selection stored on a cart order group.
type Choice struct {
	PaperSize    string
	PaperOptions catalog.Selection
	// PaperType holds the raw legacy value: a type id, a price, or nil.
	PaperType any
}

// Resolver maps cart choices onto specs using one catalogue.
type Resolver struct {
	Catalog *catalog.Catalog
}

// NewResolver returns a resolver over cat.
func NewResolver(cat *catalog.Catalog) *Resolver {
	return &Resolver{Catalog: cat}
}

// Resolve prefers an explicit size, then a legacy type, then the default size.
// Only an unknown size fails; legacy values always normalize to some type.
func (r *Resolver) Resolve(choice Choice) (Spec, error) {
	switch {
	case choice.PaperSize != "":
		return NewConfiguration(r.Catalog, choice.PaperSize, choice.PaperOptions)
	case choice.PaperType != nil:
		id := r.Catalog.NormalizePaperTypeID(choice.PaperType)
		pt, _ := r.Catalog.PaperType(id)
		return Legacy{Type: pt}, nil
	default:
		return NewConfiguration(r.Catalog, r.Catalog.DefaultSize().ID, nil)
	}
}
