// Package paper turns catalogue entries into priced, weighed paper specs.
//
// A Configuration is one size plus one option per category. Legacy carts
// name a flat PaperType instead; both satisfy Spec so the shipping
// calculator does not need to care which one it got.
package paper

import (
	"errors"
	"fmt"
	"sort"
	"strings"

	"github.com/shopspring/decimal"

	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/measure"
)

var (
	// ErrSizeNotFound is wrapped by ConfigurationError for unknown size ids.
	ErrSizeNotFound = errors.New("paper size not found")
	// ErrPaperTypeNotFound is wrapped by ConfigurationError for unknown legacy ids.
	ErrPaperTypeNotFound = errors.New("paper type not found")
)

// ConfigurationError reports a paper selection that cannot be built at all.
type ConfigurationError struct {
	Message string
	Err     error
}

func (e *ConfigurationError) Error() string {
	return e.Message
}

func (e *ConfigurationError) Unwrap() error {
	return e.Err
}

// Configuration represents a paper size with a resolved option per category
type Configuration struct {
	catalog *catalog.Catalog
	size    catalog.Size
	options catalog.Selection
}

// NewConfiguration resolves sizeID and merges options over the size defaults.
// Supplied keys win, including keys for categories the catalogue does not know;
// Validate reports those.
func NewConfiguration(cat *catalog.Catalog, sizeID string, options catalog.Selection) (*Configuration, error) {
	size, ok := cat.Size(sizeID)
	if !ok {
		return nil, &ConfigurationError{
			Message: fmt.Sprintf("paper size '%s' not found", sizeID),
			Err:     ErrSizeNotFound,
		}
	}

	resolved := size.DefaultOptions.Clone()
	for category, id := range options {
		resolved[category] = id
	}
	return &Configuration{catalog: cat, size: size, options: resolved}, nil
}

// Request is the shape callers send to describe a configuration. Both the
// short and the cart-style key names are accepted.
type Request struct {
	Size         string            `json:"size"`
	PaperSize    string            `json:"paper_size"`
	Options      catalog.Selection `json:"options"`
	PaperOptions catalog.Selection `json:"paper_options"`
}

// FromRequest builds a configuration from request data.
func FromRequest(cat *catalog.Catalog, req Request) (*Configuration, error) {
	sizeID := req.Size
	if sizeID == "" {
		sizeID = req.PaperSize
	}
	options := req.Options
	if options == nil {
		options = req.PaperOptions
	}
	return NewConfiguration(cat, sizeID, options)
}

// FromSpecifications rebuilds the configuration a Specifications value describes.
func FromSpecifications(cat *catalog.Catalog, specs Specifications) (*Configuration, error) {
	return NewConfiguration(cat, specs.PaperSize, specs.Options)
}

// Size returns the underlying catalogue size.
func (c *Configuration) Size() catalog.Size {
	return c.size
}

// Options returns a copy of the resolved selection.
func (c *Configuration) Options() catalog.Selection {
	return c.options.Clone()
}

// Option returns the selected catalogue option for a category.
func (c *Configuration) Option(category catalog.Category) (catalog.Option, bool) {
	id, ok := c.options[category]
	if !ok {
		return catalog.Option{}, false
	}
	return c.catalog.Option(category, id)
}

// PricePerPage is the base price plus every selected option's modifier.
func (c *Configuration) PricePerPage() float64 {
	price := decimal.NewFromFloat(c.size.BasePrice)
	for _, category := range catalog.Categories {
		if opt, ok := c.Option(category); ok {
			price = price.Add(decimal.NewFromFloat(opt.PriceModifier))
		}
	}
	return measure.RoundDecimal(price, measure.MoneyPlaces)
}

// WeightPerPage is the base weight scaled by the paper weight option, plus any
// flat ounce modifiers.
func (c *Configuration) WeightPerPage() float64 {
	factor := 1.0
	if opt, ok := c.Option(catalog.CategoryPaperWeight); ok {
		factor = opt.WeightFactor()
	}
	weight := decimal.NewFromFloat(c.size.BaseWeightOz).Mul(decimal.NewFromFloat(factor))
	for _, category := range catalog.Categories {
		if opt, ok := c.Option(category); ok && opt.WeightModifierOz != 0 {
			weight = weight.Add(decimal.NewFromFloat(opt.WeightModifierOz))
		}
	}
	return measure.RoundDecimal(weight, measure.PerPageWeightPlaces)
}

// ThicknessPerPage is the base thickness scaled by the paper weight option.
func (c *Configuration) ThicknessPerPage() float64 {
	factor := 1.0
	if opt, ok := c.Option(catalog.CategoryPaperWeight); ok {
		factor = opt.ThicknessFactor()
	}
	thickness := decimal.NewFromFloat(c.size.BaseThicknessInches).Mul(decimal.NewFromFloat(factor))
	return measure.RoundDecimal(thickness, measure.PerPageThicknessPlaces)
}

// Width is the sheet width in inches.
func (c *Configuration) Width() float64 { return c.size.Width }

// Height is the sheet height in inches.
func (c *Configuration) Height() float64 { return c.size.Height }

// Key groups shipments by SKU.
func (c *Configuration) Key() string { return c.SKU() }

// Name is the display name.
func (c *Configuration) Name() string { return c.DisplayName() }

func (c *Configuration) TotalPrice(pages int) float64 {
	return measure.RoundDecimal(measure.Scale(c.PricePerPage(), pages), measure.MoneyPlaces)
}

func (c *Configuration) TotalWeight(pages int) measure.Weight {
	return measure.WeightFromOz(measure.Scale(c.WeightPerPage(), pages))
}

func (c *Configuration) TotalThickness(pages int) float64 {
	return measure.RoundDecimal(measure.Scale(c.ThicknessPerPage(), pages), measure.ThicknessPlaces)
}

// SKU derives the stock code, e.g. 85X11-67LB-CRE-3H-SQ. It depends only on
// the size and the resolved selection.
func (c *Configuration) SKU() string {
	parts := []string{c.size.SKUPrefix}

	if id := c.options[catalog.CategoryPaperWeight]; id != "" {
		parts = append(parts, strings.ToUpper(id))
	}
	if id := c.options[catalog.CategoryColor]; id != "" {
		parts = append(parts, strings.ToUpper(firstN(id, 3)))
	}
	if id := c.options[catalog.CategoryPunches]; id != "" {
		parts = append(parts, punchCode(id))
	}
	if id := c.options[catalog.CategoryCorners]; id != "" {
		parts = append(parts, strings.ToUpper(firstN(id, 2)))
	}
	if id := c.options[catalog.CategoryProtection]; id != "" && id != "none" {
		parts = append(parts, strings.ToUpper(firstN(id, 3)))
	}
	return strings.Join(parts, "-")
}

func punchCode(id string) string {
	code := strings.ToUpper(strings.ReplaceAll(id, "-hole", "H"))
	return strings.ReplaceAll(code, "NONE", "0H")
}

// DisplayName is the size name followed by the chosen option names. Corners
// and protection are only listed when they differ from square and none.
func (c *Configuration) DisplayName() string {
	var names []string
	for _, category := range []catalog.Category{catalog.CategoryPaperWeight, catalog.CategoryColor, catalog.CategoryPunches} {
		if opt, ok := c.Option(category); ok {
			names = append(names, opt.Name)
		}
	}
	if c.options[catalog.CategoryCorners] != "square" {
		if opt, ok := c.Option(catalog.CategoryCorners); ok {
			names = append(names, opt.Name)
		}
	}
	if c.options[catalog.CategoryProtection] != "none" {
		if opt, ok := c.Option(catalog.CategoryProtection); ok {
			names = append(names, opt.Name)
		}
	}

	if len(names) == 0 {
		return c.size.Name
	}
	return c.size.Name + " - " + strings.Join(names, ", ")
}

// Validation is the result of Validate.
type Validation struct {
	Valid  bool     `json:"valid"`
	Errors []string `json:"errors"`
}

// Validate reports every selected option the size does not offer, plus the
// hingeless mount rule. It never fails; callers decide what to do with it.
func (c *Configuration) Validate() Validation {
	errs := []string{}

	for _, category := range catalog.Categories {
		id, ok := c.options[category]
		if ok && !c.catalog.IsOptionAvailable(c.size, category, id) {
			errs = append(errs, unavailable(id, category))
		}
	}

	var extra []string
	for category := range c.options {
		if !category.Known() {
			extra = append(extra, string(category))
		}
	}
	sort.Strings(extra)
	for _, category := range extra {
		errs = append(errs, unavailable(c.options[catalog.Category(category)], catalog.Category(category)))
	}

	if c.options[catalog.CategoryProtection] == "hingeless" && c.options[catalog.CategoryPunches] == "none" {
		errs = append(errs, "Hingeless mounts require hole punches")
	}

	return Validation{Valid: len(errs) == 0, Errors: errs}
}

func unavailable(id string, category catalog.Category) string {
	return fmt.Sprintf("Option '%s' is not available for %s on this paper size", id, category)
}

func firstN(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
