// Package nutrition implements the pure rollup arithmetic of the audit
// engine: scaling a food's per-100g composition by an observed quantity and
// summing ingredient contributions into dish totals. All math runs on exact
// decimals so that recomputing from the same inputs always reproduces the
// same stored values.
package nutrition

import (
	"errors"

	"github.com/shopspring/decimal"
)

var (
	// ErrQuantityNotPositive rejects zero and negative ingredient quantities.
	ErrQuantityNotPositive = errors.New("nutrition: quantity must be greater than zero")
	// ErrQuantityTooPrecise rejects quantities with more than three fractional digits.
	ErrQuantityTooPrecise = errors.New("nutrition: quantity precision exceeds three fractional digits")
)

// Precision fixes the fractional digits used when rounding computed fields at
// one storage scale. Ingredient contributions and dish totals are stored at
// different scales, so each carries its own profile.
type Precision struct {
	Energy int32
	Mass   int32
}

var (
	// ContributionPrecision rounds ingredient-level contributions.
	ContributionPrecision = Precision{Energy: 3, Mass: 5}
	// TotalsPrecision rounds dish-level totals.
	TotalsPrecision = Precision{Energy: 2, Mass: 3}
)

// Places returns the fractional digits this profile keeps for a field kind.
func (p Precision) Places(kind Kind) int32 {
	if kind == KindEnergy {
		return p.Energy
	}
	return p.Mass
}

// ValidateQuantity checks the grams observed for an ingredient: it must be
// strictly positive and carry at most three fractional digits.
func ValidateQuantity(quantity decimal.Decimal) error {
	if quantity.Sign() <= 0 {
		return ErrQuantityNotPositive
	}
	if !quantity.Equal(quantity.Round(3)) {
		return ErrQuantityTooPrecise
	}
	return nil
}

// Contribution scales per-100g facts by quantity/100 field-wise and rounds the
// result at contribution precision. Absent source fields contribute zero; the
// carbohydrate fallback is resolved exactly once, inside the field metadata.
func Contribution(quantity decimal.Decimal, facts Facts) (Vector, error) {
	if err := ValidateQuantity(quantity); err != nil {
		return Vector{}, err
	}

	factor := quantity.Shift(-2)
	var out Vector
	for _, field := range Fields {
		source := field.PerHundred(&facts)
		value := decimal.Zero
		if source.Valid {
			value = source.Decimal
		}
		*field.Value(&out) = value.Mul(factor).Round(ContributionPrecision.Places(field.Kind))
	}
	return out, nil
}

// SumContributions adds already-resolved contributions field-wise and rounds
// the result at totals precision. An empty input yields the all-zero vector,
// which is the stored state of a dish with no ingredients.
func SumContributions(contributions []Vector) Vector {
	var totals Vector
	for i := range contributions {
		for _, field := range Fields {
			slot := field.Value(&totals)
			*slot = slot.Add(*field.Value(&contributions[i]))
		}
	}
	for _, field := range Fields {
		slot := field.Value(&totals)
		*slot = slot.Round(TotalsPrecision.Places(field.Kind))
	}
	return totals
}
