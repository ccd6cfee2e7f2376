package paper

import (
	"errors"
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumpages/paper-shipping/internal/catalog"
	"github.com/albumpages/paper-shipping/internal/measure"
)

func TestDefaultLetterScenario(t *testing.T) {
	cat := catalog.MustDefault()

	cfg, err := NewConfiguration(cat, "8.5x11", nil)
	require.NoError(t, err)

	assert.Equal(t, 0.20, cfg.PricePerPage())
	assert.Equal(t, 0.32352, cfg.WeightPerPage())
	assert.Equal(t, 0.009, cfg.ThicknessPerPage())

	assert.Equal(t, 10.00, cfg.TotalPrice(50))
	assert.Equal(t, measure.Weight{Oz: 16.18, Lbs: 1.01}, cfg.TotalWeight(50))
	assert.Equal(t, 0.45, cfg.TotalThickness(50))

	assert.Equal(t, "85X11-67LB-CRE-3H-SQ", cfg.SKU())
	assert.Equal(t, `8.5" × 11" - 67lb Cardstock, Cream, 3-Hole Punch`, cfg.DisplayName())
}

func TestOptionModifiers(t *testing.T) {
	cat := catalog.MustDefault()

	cfg, err := NewConfiguration(cat, "8.5x11", catalog.Selection{
		catalog.CategoryCorners:    "rounded",
		catalog.CategoryProtection: "hingeless",
	})
	require.NoError(t, err)

	assert.Equal(t, 0.73, cfg.PricePerPage())
	assert.Equal(t, 0.37352, cfg.WeightPerPage())
	assert.Equal(t, "85X11-67LB-CRE-3H-RO-HIN", cfg.SKU())
	assert.Equal(t, `8.5" × 11" - 67lb Cardstock, Cream, 3-Hole Punch, Rounded Corners, Hingeless Mounts`, cfg.DisplayName())
}

func TestHeavierPaperScalesWeightAndThickness(t *testing.T) {
	cat := catalog.MustDefault()

	cfg, err := NewConfiguration(cat, "minkus", nil)
	require.NoError(t, err)

	assert.Equal(t, 0.35, cfg.PricePerPage())
	assert.Equal(t, 0.33695, cfg.WeightPerPage())
	assert.Equal(t, 0.00748, cfg.ThicknessPerPage())
	assert.Equal(t, "MNK-80LB-WHI-2H-SQ", cfg.SKU())
}

func TestPunchCodes(t *testing.T) {
	cat := catalog.MustDefault()

	tests := []struct {
		punch string
		sku   string
		price float64
	}{
		{"none", "SPC-80LB-COU-0H-SQ", 0.40},
		{"2-hole-rect", "SPC-80LB-COU-2H-RECT-SQ", 0.45},
		{"3-hole", "SPC-80LB-COU-3H-SQ", 0.42},
	}
	for _, tt := range tests {
		t.Run(tt.punch, func(t *testing.T) {
			cfg, err := NewConfiguration(cat, "specialized", catalog.Selection{catalog.CategoryPunches: tt.punch})
			require.NoError(t, err)
			assert.Equal(t, tt.sku, cfg.SKU())
			assert.Equal(t, tt.price, cfg.PricePerPage())
		})
	}
}

func TestPunchCodeFromID(t *testing.T) {
	tests := map[string]string{
		"none":          "0H",
		"3-hole":        "3H",
		"2-hole-rect":   "2H-RECT",
		"2-hole-2-hole": "2H-2H",
		"none-rect":     "0H-RECT",
		"5-Hole":        "5-HOLE",
		"slot":          "SLOT",
	}
	for id, want := range tests {
		assert.Equal(t, want, punchCode(id), id)
	}
}

func TestUnknownSize(t *testing.T) {
	_, err := NewConfiguration(catalog.MustDefault(), "a5", nil)
	require.Error(t, err)

	var cfgErr *ConfigurationError
	require.True(t, errors.As(err, &cfgErr))
	assert.Equal(t, "paper size 'a5' not found", cfgErr.Error())
	assert.ErrorIs(t, err, ErrSizeNotFound)
}

func TestSKUDependsOnlyOnResolvedSelection(t *testing.T) {
	cat := catalog.MustDefault()

	implicit, err := NewConfiguration(cat, "8.5x11", nil)
	require.NoError(t, err)
	partial, err := NewConfiguration(cat, "8.5x11", catalog.Selection{catalog.CategoryColor: "cream"})
	require.NoError(t, err)
	explicit, err := NewConfiguration(cat, "8.5x11", catalog.Selection{
		catalog.CategoryPaperWeight: "67lb",
		catalog.CategoryColor:       "cream",
		catalog.CategoryPunches:     "3-hole",
		catalog.CategoryCorners:     "square",
		catalog.CategoryProtection:  "none",
	})
	require.NoError(t, err)

	assert.Equal(t, implicit.SKU(), partial.SKU())
	assert.Equal(t, implicit.SKU(), explicit.SKU())

	other, err := NewConfiguration(cat, "8.5x11", catalog.Selection{catalog.CategoryColor: "white"})
	require.NoError(t, err)
	assert.NotEqual(t, implicit.SKU(), other.SKU())
}

func TestSuppliedOptionsDoNotLeakIntoCatalog(t *testing.T) {
	cat := catalog.MustDefault()

	_, err := NewConfiguration(cat, "8.5x11", catalog.Selection{catalog.CategoryColor: "white"})
	require.NoError(t, err)

	size, _ := cat.Size("8.5x11")
	assert.Equal(t, "cream", size.DefaultOptions[catalog.CategoryColor])
}

func TestValidate(t *testing.T) {
	cat := catalog.MustDefault()

	t.Run("defaults are valid", func(t *testing.T) {
		for _, size := range cat.Sizes() {
			cfg, err := NewConfiguration(cat, size.ID, nil)
			require.NoError(t, err)
			v := cfg.Validate()
			assert.True(t, v.Valid, size.ID)
			assert.Empty(t, v.Errors)
		}
	})

	t.Run("reports every problem", func(t *testing.T) {
		cfg, err := NewConfiguration(cat, "8.5x11", catalog.Selection{
			catalog.CategoryPunches: "2-hole",
			catalog.CategoryColor:   "pink",
			"foil":                  "gold",
		})
		require.NoError(t, err)

		v := cfg.Validate()
		assert.False(t, v.Valid)
		assert.Equal(t, []string{
			"Option 'pink' is not available for color on this paper size",
			"Option '2-hole' is not available for punches on this paper size",
			"Option 'gold' is not available for foil on this paper size",
		}, v.Errors)
	})

	t.Run("hingeless needs holes", func(t *testing.T) {
		cfg, err := NewConfiguration(cat, "8.5x11", catalog.Selection{
			catalog.CategoryPunches:    "none",
			catalog.CategoryProtection: "hingeless",
		})
		require.NoError(t, err)

		v := cfg.Validate()
		assert.False(t, v.Valid)
		assert.Equal(t, []string{"Hingeless mounts require hole punches"}, v.Errors)
	})
}

func TestPricesNeverNegative(t *testing.T) {
	cat := catalog.MustDefault()

	for _, size := range cat.AllSizes() {
		for _, sel := range combinations(cat, size) {
			cfg, err := NewConfiguration(cat, size.ID, sel)
			require.NoError(t, err)
			assert.GreaterOrEqual(t, cfg.PricePerPage(), 0.0, cfg.SKU())
			assert.Greater(t, cfg.WeightPerPage(), 0.0, cfg.SKU())
			assert.Greater(t, cfg.ThicknessPerPage(), 0.0, cfg.SKU())
		}
	}
}

func combinations(cat *catalog.Catalog, size catalog.Size) []catalog.Selection {
	out := []catalog.Selection{{}}
	for _, category := range catalog.Categories {
		var next []catalog.Selection
		for _, sel := range out {
			for _, opt := range cat.AvailableOptions(size, category) {
				s := sel.Clone()
				s[category] = opt.ID
				next = append(next, s)
			}
		}
		out = next
	}
	return out
}

func TestSpecificationsRoundTrip(t *testing.T) {
	cat := catalog.MustDefault()

	for _, size := range cat.Sizes() {
		for _, sel := range combinations(cat, size) {
			cfg, err := NewConfiguration(cat, size.ID, sel)
			require.NoError(t, err)

			again, err := FromSpecifications(cat, cfg.Specifications(nil))
			require.NoError(t, err)
			assert.Equal(t, cfg.SKU(), again.SKU())
		}
	}
}

func TestSpecificationsWithPages(t *testing.T) {
	cat := catalog.MustDefault()
	cfg, err := NewConfiguration(cat, "8.5x11", nil)
	require.NoError(t, err)

	bare := cfg.Specifications(nil)
	assert.Nil(t, bare.Pages)
	assert.Nil(t, bare.TotalPrice)

	pages := 50
	specs := cfg.Specifications(&pages)
	require.NotNil(t, specs.TotalPrice)
	assert.Equal(t, 50, *specs.Pages)
	assert.Equal(t, 10.00, *specs.TotalPrice)
	assert.Equal(t, 16.18, specs.TotalWeight.Oz)
	assert.Equal(t, 0.45, *specs.TotalThickness)
	assert.Equal(t, "Cream", specs.OptionDetails[catalog.CategoryColor].Name)
	assert.Equal(t, Dimensions{Width: 8.5, Height: 11}, specs.Dimensions)
}

func TestFromRequest(t *testing.T) {
	cat := catalog.MustDefault()

	short, err := FromRequest(cat, Request{Size: "minkus", Options: catalog.Selection{catalog.CategoryPaperWeight: "70lb"}})
	require.NoError(t, err)
	cartStyle, err := FromRequest(cat, Request{PaperSize: "minkus", PaperOptions: catalog.Selection{catalog.CategoryPaperWeight: "70lb"}})
	require.NoError(t, err)

	assert.Equal(t, "MNK-70LB-WHI-2H-SQ", short.SKU())
	assert.Equal(t, short.SKU(), cartStyle.SKU())

	_, err = FromRequest(cat, Request{})
	assert.ErrorIs(t, err, ErrSizeNotFound)
}
