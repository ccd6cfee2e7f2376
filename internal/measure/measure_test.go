package measure

import (
	"testing"

	"github.com/shopspring/decimal"
	"github.com/stretchr/testify/assert"
)

func TestRound(t *testing.T) {
	tests := []struct {
		val    float64
		places int32
		want   float64
	}{
		{1.005, 2, 1.01},
		{2.675, 2, 2.68},
		{-1.005, 2, -1.01},
		{0.123456, 5, 0.12346},
		{0.7499, 3, 0.75},
		{10, 2, 10},
	}
	for _, tt := range tests {
		assert.Equal(t, tt.want, Round(tt.val, tt.places), "Round(%v, %d)", tt.val, tt.places)
	}
}

func TestMoney(t *testing.T) {
	assert.Equal(t, 10.4, Money(0.2*52))
	assert.Equal(t, 0.3, Money(0.1+0.2))
}

func TestWeightFromOz(t *testing.T) {
	w := WeightFromOz(decimal.RequireFromString("17.6775"))
	assert.Equal(t, 17.68, w.Oz)
	assert.Equal(t, 1.1, w.Lbs)

	w = WeightFromOz(decimal.NewFromInt(32))
	assert.Equal(t, Weight{Oz: 32, Lbs: 2}, w)
}

func TestScale(t *testing.T) {
	assert.True(t, Scale(0.1, 3).Equal(decimal.RequireFromString("0.3")))
	assert.True(t, Scale(0.015, 50).Equal(decimal.RequireFromString("0.75")))
}
