package catalog

import (
	"fmt"
	"reflect"
	"strings"

	"gopkg.in/yaml.v3"
)

// Category names one customization dimension of a paper size.
type Category string

const (
	CategoryPaperWeight Category = "paper_weight"
	CategoryColor       Category = "color"
	CategoryPunches     Category = "punches"
	CategoryCorners     Category = "corners"
	CategoryProtection  Category = "protection"
)

// Categories lists every option category in canonical order.
var Categories = []Category{
	CategoryPaperWeight,
	CategoryColor,
	CategoryPunches,
	CategoryCorners,
	CategoryProtection,
}

// Known returns true for the five catalog categories.
func (c Category) Known() bool {
	for _, known := range Categories {
		if c == known {
			return true
		}
	}
	return false
}

// Selection maps each category to the chosen option id.
type Selection map[Category]string

// Clone returns an independent copy of the selection.
func (s Selection) Clone() Selection {
	out := make(Selection, len(s))
	for k, v := range s {
		out[k] = v
	}
	return out
}

// Size represents a base sheet format with its option catalogue
type Size struct {
	ID                  string                `yaml:"id" json:"id"`
	Name                string                `yaml:"name" json:"name"`
	Description         string                `yaml:"description" json:"description"`
	SKUPrefix           string                `yaml:"sku_prefix" json:"sku_prefix"`
	Width               float64               `yaml:"width" json:"width"`   // inches
	Height              float64               `yaml:"height" json:"height"` // inches
	BaseWeightOz        float64               `yaml:"base_weight_oz" json:"base_weight_oz"`
	BaseThicknessInches float64               `yaml:"base_thickness_inches" json:"base_thickness_inches"`
	BasePrice           float64               `yaml:"base_price" json:"base_price"`
	AvailableOptions    map[Category][]string `yaml:"available_options" json:"available_options"`
	DefaultOptions      Selection             `yaml:"default_options" json:"default_options"`
	DisplayOrder        int                   `yaml:"display_order" json:"display_order"`
	IsActive            bool                  `yaml:"is_active" json:"is_active"`
	IsDefault           bool                  `yaml:"is_default" json:"is_default"`
	Badge               string                `yaml:"badge" json:"badge,omitempty"`
	RecommendedFor      string                `yaml:"recommended_for" json:"recommended_for,omitempty"`
}

// UnmarshalYAML applies the catalogue defaults for keys the file leaves out.
func (s *Size) UnmarshalYAML(node *yaml.Node) error {
	type plain Size
	if err := rejectUnknownKeys(node, plain{}); err != nil {
		return err
	}
	raw := plain{DisplayOrder: defaultDisplayOrder, IsActive: true}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*s = Size(raw)
	if s.SKUPrefix == "" {
		s.SKUPrefix = strings.ToUpper(s.ID)
	}
	return nil
}

// Available returns the option ids offered for a category, in catalogue order.
func (s Size) Available(category Category) []string {
	return s.AvailableOptions[category]
}

// Option represents a customization with its price and physical modifiers
type Option struct {
	ID                  string  `yaml:"id" json:"id"`
	Name                string  `yaml:"name" json:"name"`
	Description         string  `yaml:"description" json:"description"`
	PriceModifier       float64 `yaml:"price_modifier" json:"price_modifier"`
	WeightMultiplier    float64 `yaml:"weight_multiplier" json:"weight_multiplier,omitempty"`
	WeightModifierOz    float64 `yaml:"weight_modifier_oz" json:"weight_modifier_oz,omitempty"`
	ThicknessMultiplier float64 `yaml:"thickness_multiplier" json:"thickness_multiplier,omitempty"`
	DisplayOrder        int     `yaml:"display_order" json:"display_order"`

	// Descriptive fields, set only by the categories they apply to.
	Hex          string  `yaml:"hex" json:"hex,omitempty"`
	HoleCount    int     `yaml:"hole_count" json:"hole_count,omitempty"`
	HoleShape    string  `yaml:"hole_shape" json:"hole_shape,omitempty"`
	HoleDiameter float64 `yaml:"hole_diameter" json:"hole_diameter,omitempty"`
	HoleWidth    float64 `yaml:"hole_width" json:"hole_width,omitempty"`
	HoleHeight   float64 `yaml:"hole_height" json:"hole_height,omitempty"`
	Spacing      float64 `yaml:"spacing" json:"spacing,omitempty"`
	Radius       float64 `yaml:"radius" json:"radius,omitempty"`
}

// UnmarshalYAML applies the catalogue defaults for keys the file leaves out.
func (o *Option) UnmarshalYAML(node *yaml.Node) error {
	type plain Option
	if err := rejectUnknownKeys(node, plain{}); err != nil {
		return err
	}
	raw := plain{DisplayOrder: defaultDisplayOrder, WeightMultiplier: 1, ThicknessMultiplier: 1}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	if raw.WeightMultiplier <= 0 || raw.ThicknessMultiplier <= 0 {
		return fmt.Errorf("%w: option %q: multipliers must be positive", ErrInvalidCatalog, raw.ID)
	}
	*o = Option(raw)
	return nil
}

// WeightFactor returns the weight multiplier, 1 when unset.
func (o Option) WeightFactor() float64 {
	if o.WeightMultiplier == 0 {
		return 1
	}
	return o.WeightMultiplier
}

// ThicknessFactor returns the thickness multiplier, 1 when unset.
func (o Option) ThicknessFactor() float64 {
	if o.ThicknessMultiplier == 0 {
		return 1
	}
	return o.ThicknessMultiplier
}

// PaperType is a legacy flat catalogue entry bundling weight, price and
// dimensions under a single id. Carts created before configurable sizes
// existed reference these.
type PaperType struct {
	ID              string  `yaml:"id" json:"id"`
	Name            string  `yaml:"name" json:"name"`
	Description     string  `yaml:"description" json:"description"`
	PricePerPage    float64 `yaml:"price_per_page" json:"price_per_page"`
	WeightPerPageOz float64 `yaml:"weight_per_page_oz" json:"weight_per_page_oz"`
	ThicknessInches float64 `yaml:"thickness_inches" json:"thickness_inches"`
	PaperWeightLbs  int     `yaml:"paper_weight_lbs" json:"paper_weight_lbs"`
	Width           float64 `yaml:"width" json:"width"`
	Height          float64 `yaml:"height" json:"height"`
	Punches         string  `yaml:"punches" json:"punches"`
	Color           string  `yaml:"color" json:"color"`
	Finish          string  `yaml:"finish" json:"finish"`
	Opacity         int     `yaml:"opacity" json:"opacity"`
	SKUPrefix       string  `yaml:"sku_prefix" json:"sku_prefix"`
	Badge           string  `yaml:"badge" json:"badge,omitempty"`
	RecommendedFor  string  `yaml:"recommended_for" json:"recommended_for,omitempty"`
	IsDefault       bool    `yaml:"is_default" json:"is_default"`
	IsActive        bool    `yaml:"is_active" json:"is_active"`
	DisplayOrder    int     `yaml:"display_order" json:"display_order"`
}

// UnmarshalYAML applies the legacy defaults for keys the file leaves out.
func (p *PaperType) UnmarshalYAML(node *yaml.Node) error {
	type plain PaperType
	if err := rejectUnknownKeys(node, plain{}); err != nil {
		return err
	}
	raw := plain{
		PaperWeightLbs: 24,
		Width:          8.5,
		Height:         11.0,
		Punches:        "3-hole",
		Color:          "white",
		Finish:         "matte",
		Opacity:        90,
		IsActive:       true,
		DisplayOrder:   defaultDisplayOrder,
	}
	if err := node.Decode(&raw); err != nil {
		return err
	}
	*p = PaperType(raw)
	if p.SKUPrefix == "" {
		p.SKUPrefix = strings.ToUpper(firstRunes(p.ID, 3))
	}
	return nil
}

// LegacyPrice maps a per-page price stored by old carts to a paper type id.
type LegacyPrice struct {
	Price  float64 `yaml:"price" json:"price"`
	TypeID string  `yaml:"type" json:"type"`
}

// Defaults names the configured default entries.
type Defaults struct {
	PaperSize string `yaml:"paper_size"`
	PaperType string `yaml:"paper_type"`
}

// File is the on-disk catalogue layout.
type File struct {
	Defaults             Defaults              `yaml:"defaults"`
	LegacyPriceTolerance float64               `yaml:"legacy_price_tolerance"`
	LegacyPrices         []LegacyPrice         `yaml:"legacy_prices"`
	Sizes                []Size                `yaml:"sizes"`
	Options              map[Category][]Option `yaml:"options"`
	PaperTypes           []PaperType           `yaml:"paper_types"`
	AlbumCompatibility   map[string][]string   `yaml:"album_compatibility"`
}

// rejectUnknownKeys fails on mapping keys that match no yaml tag of target.
// Custom unmarshalers decode through a fresh decoder, which does not inherit
// KnownFields from Load.
func rejectUnknownKeys(node *yaml.Node, target any) error {
	if node.Kind != yaml.MappingNode {
		return nil
	}
	t := reflect.TypeOf(target)
	known := make(map[string]bool, t.NumField())
	for i := 0; i < t.NumField(); i++ {
		name, _, _ := strings.Cut(t.Field(i).Tag.Get("yaml"), ",")
		if name == "" {
			name = strings.ToLower(t.Field(i).Name)
		}
		known[name] = true
	}
	for i := 0; i+1 < len(node.Content); i += 2 {
		key := node.Content[i]
		if !known[key.Value] {
			return fmt.Errorf("%w: line %d: field %s not found in type %s", ErrInvalidCatalog, key.Line, key.Value, t.Name())
		}
	}
	return nil
}

func firstRunes(s string, n int) string {
	r := []rune(s)
	if len(r) > n {
		r = r[:n]
	}
	return string(r)
}
