package paper

import (
	"testing"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"github.com/albumpages/paper-shipping/internal/catalog"
)

func TestResolve(t *testing.T) {
	r := NewResolver(catalog.MustDefault())

	t.Run("configuration", func(t *testing.T) {
		spec, err := r.Resolve(Choice{
			PaperSize:    "specialized",
			PaperOptions: catalog.Selection{catalog.CategoryPunches: "none"},
			PaperType:    "premium",
		})
		require.NoError(t, err)
		require.IsType(t, &Configuration{}, spec)
		assert.Equal(t, "SPC-80LB-COU-0H-SQ", spec.Key())
		assert.Equal(t, 12.0, spec.Height())
		assert.Equal(t, 10.5, spec.Width())
	})

	t.Run("unknown size", func(t *testing.T) {
		_, err := r.Resolve(Choice{PaperSize: "tabloid"})
		assert.ErrorIs(t, err, ErrSizeNotFound)
	})

	t.Run("legacy price", func(t *testing.T) {
		spec, err := r.Resolve(Choice{PaperType: 0.30})
		require.NoError(t, err)
		require.IsType(t, Legacy{}, spec)
		assert.Equal(t, "premium", spec.Key())
		assert.Equal(t, 0.30, spec.PricePerPage())
	})

	t.Run("legacy garbage", func(t *testing.T) {
		spec, err := r.Resolve(Choice{PaperType: "???"})
		require.NoError(t, err)
		assert.Equal(t, "standard", spec.Key())
	})

	t.Run("nothing selected", func(t *testing.T) {
		spec, err := r.Resolve(Choice{})
		require.NoError(t, err)
		assert.Equal(t, "85X11-67LB-CRE-3H-SQ", spec.Key())
	})
}

func TestLegacyByID(t *testing.T) {
	cat := catalog.MustDefault()

	l, err := LegacyByID(cat, "deluxe")
	require.NoError(t, err)
	assert.Equal(t, "Deluxe", l.Name())
	assert.Equal(t, 0.26, l.WeightPerPage())
	assert.Equal(t, 0.006, l.ThicknessPerPage())
	assert.Equal(t, 8.5, l.Width())
	assert.Equal(t, 11.0, l.Height())

	_, err = LegacyByID(cat, "0.35")
	assert.ErrorIs(t, err, ErrPaperTypeNotFound)
}
