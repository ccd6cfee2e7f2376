// Package measure holds the rounding and unit rules shared by pricing and shipping.
package measure

import (
	"github.com/shopspring/decimal"
)

// Rounding precision used across the store.
const (
	MoneyPlaces            = 2
	PerPageWeightPlaces    = 5
	PerPageThicknessPlaces = 5
	WeightPlaces           = 2
	ThicknessPlaces        = 3

	OuncesPerPound = 16
)

// Weight is a weight in ounces with its pound equivalent.
type Weight struct {
	Oz  float64 `json:"weight_oz"`
	Lbs float64 `json:"weight_lbs"`
}

// Round rounds half away from zero using the shortest decimal form of val,
// so 1.005 rounds to 1.01 rather than falling victim to its binary expansion.
func Round(val float64, places int32) float64 {
	return decimal.NewFromFloat(val).Round(places).InexactFloat64()
}

// RoundDecimal is Round for values already held as decimals.
func RoundDecimal(val decimal.Decimal, places int32) float64 {
	return val.Round(places).InexactFloat64()
}

// Money rounds a currency amount to cents.
func Money(val float64) float64 {
	return Round(val, MoneyPlaces)
}

// WeightFromOz builds an aggregate Weight from an unrounded ounce total.
func WeightFromOz(oz decimal.Decimal) Weight {
	return Weight{
		Oz:  RoundDecimal(oz, WeightPlaces),
		Lbs: RoundDecimal(oz.Div(decimal.NewFromInt(OuncesPerPound)), WeightPlaces),
	}
}

// Scale multiplies a per-unit value by a count without binary drift.
func Scale(perUnit float64, count int) decimal.Decimal {
	return decimal.NewFromFloat(perUnit).Mul(decimal.NewFromInt(int64(count)))
}
