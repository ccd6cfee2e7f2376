package catalog

import (
	"fmt"
	"math"
	"sort"
	"strconv"
	"strings"

	"github.com/albumpages/paper-shipping/internal/measure"
)

// legacyPriceTable is the fixed price to type mapping used by carts that
// stored the per-page price instead of a type id.
var legacyPriceTable = []LegacyPrice{
	{Price: 0.20, TypeID: "economy"},
	{Price: 0.25, TypeID: "standard"},
	{Price: 0.30, TypeID: "premium"},
	{Price: 0.35, TypeID: "deluxe"},
}

func (c *Catalog) indexPaperTypes(f File) error {
	for _, pt := range f.PaperTypes {
		if pt.ID == "" {
			return fmt.Errorf("%w: paper type without id", ErrInvalidCatalog)
		}
		if isNumeric(pt.ID) {
			return fmt.Errorf("%w: paper type id %q must not be numeric", ErrInvalidCatalog, pt.ID)
		}
		if _, dup := c.paperTypes[pt.ID]; dup {
			return fmt.Errorf("%w: duplicate paper type %q", ErrInvalidCatalog, pt.ID)
		}
		c.paperTypes[pt.ID] = pt
		c.paperTypeOrder = append(c.paperTypeOrder, pt.ID)
	}
	sort.SliceStable(c.paperTypeOrder, func(i, j int) bool {
		return c.paperTypes[c.paperTypeOrder[i]].DisplayOrder < c.paperTypes[c.paperTypeOrder[j]].DisplayOrder
	})

	switch {
	case c.hasPaperType(f.Defaults.PaperType):
		c.defaultTypeID = f.Defaults.PaperType
	case c.hasPaperType(FallbackPaperTypeID):
		c.defaultTypeID = FallbackPaperTypeID
	default:
		return ErrNoDefaultPaperType
	}

	if len(f.LegacyPrices) == 0 {
		// built-in table, limited to the types this catalogue defines
		for _, lp := range legacyPriceTable {
			if c.hasPaperType(lp.TypeID) {
				c.legacyPrices = append(c.legacyPrices, lp)
			}
		}
	}
	for _, lp := range f.LegacyPrices {
		if !c.hasPaperType(lp.TypeID) {
			return fmt.Errorf("%w: legacy price %.2f maps to unknown type %q", ErrInvalidCatalog, lp.Price, lp.TypeID)
		}
		c.legacyPrices = append(c.legacyPrices, lp)
	}

	for album, ids := range f.AlbumCompatibility {
		for _, id := range ids {
			if !c.hasPaperType(id) {
				return fmt.Errorf("%w: album %q lists unknown type %q", ErrInvalidCatalog, album, id)
			}
		}
		c.albums[album] = ids
	}
	return nil
}

func (c *Catalog) hasPaperType(id string) bool {
	_, ok := c.paperTypes[id]
	return ok
}

// PaperType looks up a legacy paper type by id.
func (c *Catalog) PaperType(id string) (PaperType, bool) {
	pt, ok := c.paperTypes[id]
	return pt, ok
}

// PaperTypes returns active paper types in display order.
func (c *Catalog) PaperTypes() []PaperType {
	out := make([]PaperType, 0, len(c.paperTypeOrder))
	for _, id := range c.paperTypeOrder {
		if pt := c.paperTypes[id]; pt.IsActive {
			out = append(out, pt)
		}
	}
	return out
}

// AllPaperTypes returns every paper type in display order.
func (c *Catalog) AllPaperTypes() []PaperType {
	out := make([]PaperType, 0, len(c.paperTypeOrder))
	for _, id := range c.paperTypeOrder {
		out = append(out, c.paperTypes[id])
	}
	return out
}

// DefaultPaperType returns the configured default type.
func (c *Catalog) DefaultPaperType() PaperType {
	return c.paperTypes[c.defaultTypeID]
}

// PriceTolerance is the epsilon used for legacy price comparisons.
func (c *Catalog) PriceTolerance() float64 {
	return c.tolerance
}

// PaperTypeByPrice finds the first type, in display order, whose per-page
// price is within the tolerance of price.
func (c *Catalog) PaperTypeByPrice(price float64) (PaperType, bool) {
	for _, id := range c.paperTypeOrder {
		pt := c.paperTypes[id]
		if math.Abs(pt.PricePerPage-price) < c.tolerance {
			return pt, true
		}
	}
	return PaperType{}, false
}

// PaperTypesForAlbum returns the active types compatible with an album.
func (c *Catalog) PaperTypesForAlbum(album string) []PaperType {
	ids := c.albums[album]
	out := make([]PaperType, 0, len(ids))
	for _, id := range ids {
		if pt, ok := c.paperTypes[id]; ok && pt.IsActive {
			out = append(out, pt)
		}
	}
	return out
}

// NormalizePaperTypeID turns whatever an old cart stored for its paper type
// into a registered type id. Type ids pass through, numeric prices go through
// the legacy price table and then a price search, and everything else lands
// on the default type.
func (c *Catalog) NormalizePaperTypeID(value any) string {
	switch v := value.(type) {
	case nil:
		return c.defaultTypeID
	case string:
		s := strings.TrimSpace(v)
		if price, err := strconv.ParseFloat(s, 64); err == nil {
			return c.typeForPrice(price)
		}
		if c.hasPaperType(s) {
			return s
		}
		return c.defaultTypeID
	case float64:
		return c.typeForPrice(v)
	case float32:
		return c.typeForPrice(float64(v))
	case int:
		return c.typeForPrice(float64(v))
	case int64:
		return c.typeForPrice(float64(v))
	case interface{ Float64() (float64, error) }:
		// json.Number and friends
		if price, err := v.Float64(); err == nil {
			return c.typeForPrice(price)
		}
		return c.defaultTypeID
	default:
		return c.defaultTypeID
	}
}

func (c *Catalog) typeForPrice(price float64) string {
	if math.IsNaN(price) || math.IsInf(price, 0) {
		return c.defaultTypeID
	}
	for _, lp := range c.legacyPrices {
		if math.Abs(lp.Price-price) < c.tolerance {
			return lp.TypeID
		}
	}
	if pt, ok := c.PaperTypeByPrice(price); ok {
		return pt.ID
	}
	return c.defaultTypeID
}

// CalculatePrice returns the price for a page count, rounded to cents.
func (p PaperType) CalculatePrice(pages int) float64 {
	return measure.RoundDecimal(measure.Scale(p.PricePerPage, pages), measure.MoneyPlaces)
}

// CalculateWeight returns the ounce weight for a page count.
func (p PaperType) CalculateWeight(pages int) float64 {
	return measure.RoundDecimal(measure.Scale(p.WeightPerPageOz, pages), measure.WeightPlaces)
}

// CalculateThickness returns the stack thickness in inches for a page count.
func (p PaperType) CalculateThickness(pages int) float64 {
	return measure.RoundDecimal(measure.Scale(p.ThicknessInches, pages), measure.ThicknessPlaces)
}

// DimensionsString renders the sheet size, e.g. 8.5" × 11".
func (p PaperType) DimensionsString() string {
	return fmt.Sprintf("%s\" × %s\"", formatInches(p.Width), formatInches(p.Height))
}

// SKUFor builds the legacy SKU for a country and year:
// prefix, first three letters of the country, year.
func (p PaperType) SKUFor(country string, year int) string {
	code := strings.ToUpper(firstRunes(strings.ReplaceAll(country, " ", ""), 3))
	return fmt.Sprintf("%s-%s-%d", p.SKUPrefix, code, year)
}

// TypeSpecifications is the grouped summary shown for a legacy type.
type TypeSpecifications struct {
	Physical map[string]string `json:"physical"`
	Features map[string]string `json:"features"`
	Pricing  map[string]string `json:"pricing"`
}

// Specifications groups the type's attributes for display.
func (p PaperType) Specifications() TypeSpecifications {
	return TypeSpecifications{
		Physical: map[string]string{
			"Paper Weight":    fmt.Sprintf("%dlb", p.PaperWeightLbs),
			"Dimensions":      p.DimensionsString(),
			"Thickness":       fmt.Sprintf("%s\"", strconv.FormatFloat(p.ThicknessInches, 'f', -1, 64)),
			"Weight per Page": fmt.Sprintf("%s oz", strconv.FormatFloat(p.WeightPerPageOz, 'f', -1, 64)),
		},
		Features: map[string]string{
			"Color":   titleWord(p.Color),
			"Finish":  titleWord(p.Finish),
			"Punches": p.Punches,
			"Opacity": fmt.Sprintf("%d%%", p.Opacity),
		},
		Pricing: map[string]string{
			"Price per Page": fmt.Sprintf("$%.2f", p.PricePerPage),
		},
	}
}

func formatInches(v float64) string {
	return strconv.FormatFloat(v, 'f', -1, 64)
}

func titleWord(s string) string {
	if s == "" {
		return s
	}
	r := []rune(s)
	return strings.ToUpper(string(r[0])) + string(r[1:])
}

func isNumeric(s string) bool {
	_, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	return err == nil
}
