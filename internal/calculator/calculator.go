package calculator

import (
	"math"

	"github.com/shopspring/decimal"
	"go.uber.org/zap"

	"github.com/albumpages/paper-shipping/internal/cart"
	"github.com/albumpages/paper-shipping/internal/measure"
	"github.com/albumpages/paper-shipping/internal/paper"
)

// Package types and the carrier mailpiece shapes they map to.
const (
	PackageEnvelope = "envelope"
	PackageBox      = "box"

	ShapeFlatRateEnvelope = "FlatRateEnvelope"
	ShapePackage          = "Package"
)

// Packaging holds container weights and sizes
type Packaging struct {
	EnvelopeWeightOz     float64 `json:"envelopeWeightOz"`
	PaddingWeightOz      float64 `json:"paddingWeightOz"`
	MaxEnvelopeThickness float64 `json:"maxEnvelopeThickness"` // inches
	BoxWeightOz          float64 `json:"boxWeightOz"`
	BoxLength            float64 `json:"boxLength"`
	BoxWidth             float64 `json:"boxWidth"`
	BoxMinHeight         float64 `json:"boxMinHeight"`
}

// DefaultPackaging returns the padded mailer and 12x9x3 box used by the shop.
func DefaultPackaging() Packaging {
	return Packaging{
		EnvelopeWeightOz:     1.0,
		PaddingWeightOz:      0.5,
		MaxEnvelopeThickness: 0.75,
		BoxWeightOz:          4.0,
		BoxLength:            12,
		BoxWidth:             9,
		BoxMinHeight:         3,
	}
}

// Dimensions represents the chosen package in inches
type Dimensions struct {
	Length      float64 `json:"length"`
	Width       float64 `json:"width"`
	Height      float64 `json:"height"`
	PackageType string  `json:"package_type"`
	Shape       string  `json:"shape"`
}

// GroupBreakdown is the subtotal for one SKU or legacy paper type
type GroupBreakdown struct {
	SKU          string  `json:"sku"`
	Name         string  `json:"name"`
	Pages        int     `json:"pages"`
	WeightOz     float64 `json:"weight_oz"`
	PricePerPage float64 `json:"price_per_page"`
}

// Breakdown holds the complete shipment estimate
type Breakdown struct {
	TotalWeightOz  float64          `json:"total_weight_oz"`
	TotalWeightLbs float64          `json:"total_weight_lbs"`
	Dimensions     Dimensions       `json:"dimensions"`
	Groups         []GroupBreakdown `json:"groups"`
	PackageType    string           `json:"package_type"`
}

// Calculator turns carts into shipment weights and package sizes.
type Calculator struct {
	resolver  *paper.Resolver
	packaging Packaging
	logger    *zap.Logger
}

// New creates a calculator. A nil logger discards output.
func New(resolver *paper.Resolver, packaging Packaging, logger *zap.Logger) *Calculator {
	if logger == nil {
		logger = zap.NewNop()
	}
	return &Calculator{resolver: resolver, packaging: packaging, logger: logger}
}

// Packaging returns the container settings in use.
func (c *Calculator) Packaging() Packaging {
	return c.packaging
}

type groupTotal struct {
	sku          string
	name         string
	pages        int
	weight       decimal.Decimal
	pricePerPage float64
}

type totals struct {
	weight    decimal.Decimal
	thickness decimal.Decimal
	maxLength float64
	maxWidth  float64
	groups    []*groupTotal
}

func (c *Calculator) accumulate(crt *cart.Cart) totals {
	t := totals{weight: decimal.Zero, thickness: decimal.Zero}
	if crt == nil {
		return t
	}

	byKey := make(map[string]*groupTotal)
	for _, line := range crt.Lines {
		if !line.Shippable() {
			continue
		}
		qty := line.Qty()

		for _, group := range line.OrderGroups {
			spec, err := c.resolver.Resolve(group.Choice())
			if err != nil {
				c.logger.Warn("skipping order group with unknown paper",
					zap.String("line_id", line.ID),
					zap.String("paper_size", group.PaperSize),
					zap.Error(err),
				)
				continue
			}

			count := group.TotalPages * qty
			weight := measure.Scale(spec.WeightPerPage(), count)
			t.weight = t.weight.Add(weight)
			t.thickness = t.thickness.Add(measure.Scale(spec.ThicknessPerPage(), count))

			// shipping length follows the sheet height
			t.maxLength = math.Max(t.maxLength, spec.Height())
			t.maxWidth = math.Max(t.maxWidth, spec.Width())

			key := spec.Key()
			g, ok := byKey[key]
			if !ok {
				g = &groupTotal{sku: key, name: spec.Name(), weight: decimal.Zero, pricePerPage: spec.PricePerPage()}
				byKey[key] = g
				t.groups = append(t.groups, g)
			}
			g.pages += count
			g.weight = g.weight.Add(weight)
		}
	}
	return t
}

// ChoosePackage picks an envelope when the stack fits, otherwise a box.
func ChoosePackage(p Packaging, thickness decimal.Decimal, maxLength, maxWidth float64) Dimensions {
	height := math.Ceil(thickness.InexactFloat64())
	if thickness.LessThanOrEqual(decimal.NewFromFloat(p.MaxEnvelopeThickness)) {
		return Dimensions{
			Length:      math.Ceil(maxLength) + 1,
			Width:       math.Ceil(maxWidth) + 1,
			Height:      math.Max(1, height),
			PackageType: PackageEnvelope,
			Shape:       ShapeFlatRateEnvelope,
		}
	}
	return Dimensions{
		Length:      p.BoxLength,
		Width:       p.BoxWidth,
		Height:      math.Max(p.BoxMinHeight, height),
		PackageType: PackageBox,
		Shape:       ShapePackage,
	}
}

// Tare returns the container weight for a package type.
func (p Packaging) Tare(packageType string) decimal.Decimal {
	if packageType == PackageBox {
		return decimal.NewFromFloat(p.BoxWeightOz)
	}
	return decimal.NewFromFloat(p.EnvelopeWeightOz).Add(decimal.NewFromFloat(p.PaddingWeightOz))
}

func (c *Calculator) shipment(t totals) (measure.Weight, Dimensions) {
	dims := ChoosePackage(c.packaging, t.thickness, t.maxLength, t.maxWidth)
	return measure.WeightFromOz(t.weight.Add(c.packaging.Tare(dims.PackageType))), dims
}

// Weight returns the shipment weight including packaging.
func (c *Calculator) Weight(crt *cart.Cart) measure.Weight {
	weight, _ := c.shipment(c.accumulate(crt))
	return weight
}

// Dimensions returns the package the cart ships in.
func (c *Calculator) Dimensions(crt *cart.Cart) Dimensions {
	t := c.accumulate(crt)
	return ChoosePackage(c.packaging, t.thickness, t.maxLength, t.maxWidth)
}

// Breakdown returns weight, package and per-product subtotals in the order
// products first appear in the cart.
func (c *Calculator) Breakdown(crt *cart.Cart) Breakdown {
	t := c.accumulate(crt)
	weight, dims := c.shipment(t)

	groups := make([]GroupBreakdown, 0, len(t.groups))
	for _, g := range t.groups {
		groups = append(groups, GroupBreakdown{
			SKU:          g.sku,
			Name:         g.name,
			Pages:        g.pages,
			WeightOz:     measure.RoundDecimal(g.weight, measure.WeightPlaces),
			PricePerPage: g.pricePerPage,
		})
	}

	return Breakdown{
		TotalWeightOz:  weight.Oz,
		TotalWeightLbs: weight.Lbs,
		Dimensions:     dims,
		Groups:         groups,
		PackageType:    dims.PackageType,
	}
}
