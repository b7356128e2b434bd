package nutrition

import (
	"testing"

	"github.com/shopspring/decimal"
)

func dec(t *testing.T, value string) decimal.Decimal {
	t.Helper()
	d, err := decimal.NewFromString(value)
	if err != nil {
		t.Fatalf("invalid decimal literal %q: %v", value, err)
	}
	return d
}

func nullDec(t *testing.T, value string) decimal.NullDecimal {
	t.Helper()
	return decimal.NullDecimal{Decimal: dec(t, value), Valid: true}
}

func TestValidateQuantity(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		quantity string
		wantErr  error
	}{
		{"positive integer", "150", nil},
		{"three fractional digits", "12.525", nil},
		{"trailing zeros beyond three places", "12.5000", nil},
		{"zero", "0", ErrQuantityNotPositive},
		{"negative", "-5", ErrQuantityNotPositive},
		{"four fractional digits", "0.0001", ErrQuantityTooPrecise},
	}

	for _, tt := range tests {
		tt := tt
		t.Run(tt.name, func(t *testing.T) {
			t.Parallel()
			err := ValidateQuantity(dec(t, tt.quantity))
			if tt.wantErr == nil && err != nil {
				t.Fatalf("ValidateQuantity(%s) = %v, want nil", tt.quantity, err)
			}
			if tt.wantErr != nil && err != tt.wantErr {
				t.Fatalf("ValidateQuantity(%s) = %v, want %v", tt.quantity, err, tt.wantErr)
			}
		})
	}
}

func TestContributionScalesPerHundredGrams(t *testing.T) {
	t.Parallel()

	facts := Facts{
		EnergyKcal: nullDec(t, "130"),
		ProteinG:   nullDec(t, "2.7"),
		SodiumMg:   nullDec(t, "1.2"),
	}

	got, err := Contribution(dec(t, "150"), facts)
	if err != nil {
		t.Fatalf("Contribution returned error: %v", err)
	}

	if got.EnergyKcal.String() != "195" {
		t.Fatalf("energy = %s, want 195", got.EnergyKcal)
	}
	if !got.ProteinG.Equal(dec(t, "4.05")) {
		t.Fatalf("protein = %s, want 4.05", got.ProteinG)
	}
	if !got.SodiumMg.Equal(dec(t, "1.8")) {
		t.Fatalf("sodium = %s, want 1.8", got.SodiumMg)
	}
}

func TestContributionCarbohydrateFallback(t *testing.T) {
	t.Parallel()

	// Available carbohydrates absent: total carbohydrates drive the value.
	facts := Facts{TotalCarbsG: nullDec(t, "20")}
	got, err := Contribution(dec(t, "50"), facts)
	if err != nil {
		t.Fatalf("Contribution returned error: %v", err)
	}
	if !got.CarbsG.Equal(dec(t, "10")) {
		t.Fatalf("carbs = %s, want 10", got.CarbsG)
	}

	// Available carbohydrates present: it wins even when total differs.
	facts.AvailableCarbsG = nullDec(t, "16")
	got, err = Contribution(dec(t, "50"), facts)
	if err != nil {
		t.Fatalf("Contribution returned error: %v", err)
	}
	if !got.CarbsG.Equal(dec(t, "8")) {
		t.Fatalf("carbs = %s, want 8", got.CarbsG)
	}
}

func TestContributionAbsentFieldsContributeZero(t *testing.T) {
	t.Parallel()

	facts := Facts{EnergyKcal: nullDec(t, "90")}
	got, err := Contribution(dec(t, "325"), facts)
	if err != nil {
		t.Fatalf("Contribution returned error: %v", err)
	}

	if !got.SodiumMg.IsZero() {
		t.Fatalf("sodium = %s, want 0", got.SodiumMg)
	}
	if !got.FiberG.IsZero() {
		t.Fatalf("fiber = %s, want 0", got.FiberG)
	}
	if !got.CarbsG.IsZero() {
		t.Fatalf("carbs = %s, want 0", got.CarbsG)
	}
}

func TestContributionRoundsAtIngredientPrecision(t *testing.T) {
	t.Parallel()

	facts := Facts{
		EnergyKcal: nullDec(t, "123.4567"),
		ProteinG:   nullDec(t, "1.234567"),
	}
	got, err := Contribution(dec(t, "33.333"), facts)
	if err != nil {
		t.Fatalf("Contribution returned error: %v", err)
	}

	if got.EnergyKcal.Exponent() < -ContributionPrecision.Energy {
		t.Fatalf("energy %s carries more than %d fractional digits", got.EnergyKcal, ContributionPrecision.Energy)
	}
	if got.ProteinG.Exponent() < -ContributionPrecision.Mass {
		t.Fatalf("protein %s carries more than %d fractional digits", got.ProteinG, ContributionPrecision.Mass)
	}
}

func TestContributionIsIdempotent(t *testing.T) {
	t.Parallel()

	facts := Facts{
		EnergyKcal:      nullDec(t, "356.1"),
		ProteinG:        nullDec(t, "12.345"),
		TotalFatG:       nullDec(t, "0.9"),
		AvailableCarbsG: nullDec(t, "74.2"),
		SodiumMg:        nullDec(t, "3"),
	}
	quantity := dec(t, "87.5")

	first, err := Contribution(quantity, facts)
	if err != nil {
		t.Fatalf("first Contribution returned error: %v", err)
	}
	second, err := Contribution(quantity, facts)
	if err != nil {
		t.Fatalf("second Contribution returned error: %v", err)
	}

	for _, field := range Fields {
		a := field.Value(&first).String()
		b := field.Value(&second).String()
		if a != b {
			t.Fatalf("field %s differs between recomputations: %s vs %s", field.Name, a, b)
		}
	}
}

func TestSumContributions(t *testing.T) {
	t.Parallel()

	rice := Facts{EnergyKcal: nullDec(t, "130")}
	beans := Facts{EnergyKcal: nullDec(t, "90")}

	riceShare, err := Contribution(dec(t, "150"), rice)
	if err != nil {
		t.Fatalf("rice contribution: %v", err)
	}
	beansShare, err := Contribution(dec(t, "80"), beans)
	if err != nil {
		t.Fatalf("beans contribution: %v", err)
	}

	totals := SumContributions([]Vector{riceShare, beansShare})
	if totals.EnergyKcal.StringFixed(2) != "267.00" {
		t.Fatalf("dish energy = %s, want 267.00", totals.EnergyKcal.StringFixed(2))
	}
}

func TestSumContributionsEmptyYieldsZeroVector(t *testing.T) {
	t.Parallel()

	totals := SumContributions(nil)
	for _, field := range Fields {
		if !field.Value(&totals).IsZero() {
			t.Fatalf("field %s = %s, want 0", field.Name, field.Value(&totals))
		}
	}
}

func TestSumContributionsRoundsAtTotalsPrecision(t *testing.T) {
	t.Parallel()

	var a, b Vector
	a.ProteinG = dec(t, "1.23456")
	b.ProteinG = dec(t, "2.34567")
	a.EnergyKcal = dec(t, "10.123")
	b.EnergyKcal = dec(t, "20.456")

	totals := SumContributions([]Vector{a, b})
	if totals.ProteinG.Exponent() < -TotalsPrecision.Mass {
		t.Fatalf("protein total %s carries more than %d fractional digits", totals.ProteinG, TotalsPrecision.Mass)
	}
	if totals.EnergyKcal.Exponent() < -TotalsPrecision.Energy {
		t.Fatalf("energy total %s carries more than %d fractional digits", totals.EnergyKcal, TotalsPrecision.Energy)
	}
	if !totals.ProteinG.Equal(dec(t, "3.58")) {
		t.Fatalf("protein total = %s, want 3.58", totals.ProteinG)
	}
}
