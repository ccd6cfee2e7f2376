package paper

import (
	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/measure"
)

// Dimensions is a sheet size in inches.
type Dimensions struct {
	Width  float64 `json:"width"`
	Height float64 `json:"height"`
}

// OptionDetail is one selected option as shown to customers.
type OptionDetail struct {
	ID            string  `json:"id"`
	Name          string  `json:"name"`
	PriceModifier float64 `json:"price_modifier"`
}

// Specifications is the full summary of a configuration. The page-scaled
// totals are only present when a page count was supplied.
type Specifications struct {
	PaperSize        string                            `json:"paper_size"`
	SizeName         string                            `json:"size_name"`
	Dimensions       Dimensions                        `json:"dimensions"`
	Options          catalog.Selection                 `json:"options"`
	OptionDetails    map[catalog.Category]OptionDetail `json:"option_details"`
	SKU              string                            `json:"sku"`
	DisplayName      string                            `json:"display_name"`
	PricePerPage     float64                           `json:"price_per_page"`
	WeightPerPage    float64                           `json:"weight_per_page_oz"`
	ThicknessPerPage float64                           `json:"thickness_per_page_inches"`
	Pages            *int                              `json:"pages,omitempty"`
	TotalPrice       *float64                          `json:"total_price,omitempty"`
	TotalWeight      *measure.Weight                   `json:"total_weight,omitempty"`
	TotalThickness   *float64                          `json:"total_thickness_inches,omitempty"`
}

// Specifications summarises the configuration, scaled to pages when non-nil.
func (c *Configuration) Specifications(pages *int) Specifications {
	details := make(map[catalog.Category]OptionDetail, len(c.options))
	for category := range c.options {
		if opt, ok := c.Option(category); ok {
			details[category] = OptionDetail{ID: opt.ID, Name: opt.Name, PriceModifier: opt.PriceModifier}
		}
	}

	specs := Specifications{
		PaperSize:        c.size.ID,
		SizeName:         c.size.Name,
		Dimensions:       Dimensions{Width: c.size.Width, Height: c.size.Height},
		Options:          c.Options(),
		OptionDetails:    details,
		SKU:              c.SKU(),
		DisplayName:      c.DisplayName(),
		PricePerPage:     c.PricePerPage(),
		WeightPerPage:    c.WeightPerPage(),
		ThicknessPerPage: c.ThicknessPerPage(),
	}

	if pages != nil {
		n := *pages
		price := c.TotalPrice(n)
		weight := c.TotalWeight(n)
		thickness := c.TotalThickness(n)
		specs.Pages = &n
		specs.TotalPrice = &price
		specs.TotalWeight = &weight
		specs.TotalThickness = &thickness
	}
	return specs
}
