package nutrition

import (
	"github.com/shopspring/decimal"
)

// Facts holds the per-100g composition of a catalog food. Every field is
// nullable: an absent value means the laboratory table does not record it,
// which is not the same as measuring zero.
type Facts struct {
	EnergyKcal      decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"energy_kcal"`
	WaterG          decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"water_g"`
	ProteinG        decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"protein_g"`
	TotalFatG       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"total_fat_g"`
	TotalCarbsG     decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"total_carbs_g"`
	AvailableCarbsG decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"available_carbs_g"`
	FiberG          decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"fiber_g"`
	AshG            decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"ash_g"`
	SodiumMg        decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"sodium_mg"`
	PotassiumMg     decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"potassium_mg"`
	CalciumMg       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"calcium_mg"`
	PhosphorusMg    decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"phosphorus_mg"`
	IronMg          decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"iron_mg"`
	ZincMg          decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"zinc_mg"`
	ThiaminMg       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"thiamin_mg"`
	RiboflavinMg    decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"riboflavin_mg"`
	NiacinMg        decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"niacin_mg"`
	VitaminCMg      decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"vitamin_c_mg"`
	SaturatedFatG   decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"saturated_fat_g"`
	MonounsatFatG   decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"monounsaturated_fat_g"`
	PolyunsatFatG   decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"polyunsaturated_fat_g"`
	CholesterolMg   decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"cholesterol_mg"`
	MyristicG       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"myristic_g"`
	PalmiticG       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"palmitic_g"`
	StearicG        decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"stearic_g"`
	OleicG          decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"oleic_g"`
	LinoleicG       decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"linoleic_g"`
	LinolenicG      decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"linolenic_g"`
	EPAG            decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"epa_g"`
	DHAG            decimal.NullDecimal `gorm:"type:numeric(12,3)" json:"dha_g"`
}

// Vector is a computed nutrient record: an ingredient's scaled contribution
// or a dish's summed totals. Unlike Facts, every field is concrete, since
// absence exists only in source data. The two carbohydrate columns of Facts
// collapse into the single resolved CarbsG.
type Vector struct {
	EnergyKcal    decimal.Decimal `gorm:"type:numeric(14,3)" json:"energy_kcal"`
	WaterG        decimal.Decimal `gorm:"type:numeric(16,5)" json:"water_g"`
	ProteinG      decimal.Decimal `gorm:"type:numeric(16,5)" json:"protein_g"`
	TotalFatG     decimal.Decimal `gorm:"type:numeric(16,5)" json:"total_fat_g"`
	CarbsG        decimal.Decimal `gorm:"type:numeric(16,5)" json:"carbs_g"`
	FiberG        decimal.Decimal `gorm:"type:numeric(16,5)" json:"fiber_g"`
	AshG          decimal.Decimal `gorm:"type:numeric(16,5)" json:"ash_g"`
	SodiumMg      decimal.Decimal `gorm:"type:numeric(16,5)" json:"sodium_mg"`
	PotassiumMg   decimal.Decimal `gorm:"type:numeric(16,5)" json:"potassium_mg"`
	CalciumMg     decimal.Decimal `gorm:"type:numeric(16,5)" json:"calcium_mg"`
	PhosphorusMg  decimal.Decimal `gorm:"type:numeric(16,5)" json:"phosphorus_mg"`
	IronMg        decimal.Decimal `gorm:"type:numeric(16,5)" json:"iron_mg"`
	ZincMg        decimal.Decimal `gorm:"type:numeric(16,5)" json:"zinc_mg"`
	ThiaminMg     decimal.Decimal `gorm:"type:numeric(16,5)" json:"thiamin_mg"`
	RiboflavinMg  decimal.Decimal `gorm:"type:numeric(16,5)" json:"riboflavin_mg"`
	NiacinMg      decimal.Decimal `gorm:"type:numeric(16,5)" json:"niacin_mg"`
	VitaminCMg    decimal.Decimal `gorm:"type:numeric(16,5)" json:"vitamin_c_mg"`
	SaturatedFatG decimal.Decimal `gorm:"type:numeric(16,5)" json:"saturated_fat_g"`
	MonounsatFatG decimal.Decimal `gorm:"type:numeric(16,5)" json:"monounsaturated_fat_g"`
	PolyunsatFatG decimal.Decimal `gorm:"type:numeric(16,5)" json:"polyunsaturated_fat_g"`
	CholesterolMg decimal.Decimal `gorm:"type:numeric(16,5)" json:"cholesterol_mg"`
	MyristicG     decimal.Decimal `gorm:"type:numeric(16,5)" json:"myristic_g"`
	PalmiticG     decimal.Decimal `gorm:"type:numeric(16,5)" json:"palmitic_g"`
	StearicG      decimal.Decimal `gorm:"type:numeric(16,5)" json:"stearic_g"`
	OleicG        decimal.Decimal `gorm:"type:numeric(16,5)" json:"oleic_g"`
	LinoleicG     decimal.Decimal `gorm:"type:numeric(16,5)" json:"linoleic_g"`
	LinolenicG    decimal.Decimal `gorm:"type:numeric(16,5)" json:"linolenic_g"`
	EPAG          decimal.Decimal `gorm:"type:numeric(16,5)" json:"epa_g"`
	DHAG          decimal.Decimal `gorm:"type:numeric(16,5)" json:"dha_g"`
}

// Kind classifies a field for rounding purposes. Energy is stored at coarser
// precision than mass and mineral quantities.
type Kind int

const (
	KindEnergy Kind = iota
	KindMass
)

// Field ties one nutrient to its Facts source and Vector slot so that field-wise
// operations (scaling, summing, averaging) can loop instead of being spelled
// out thirty times.
type Field struct {
	Name   string
	Kind   Kind
	source func(*Facts) decimal.NullDecimal
	value  func(*Vector) *decimal.Decimal
}

// Value returns the addressable slot for this field inside v.
func (f Field) Value(v *Vector) *decimal.Decimal {
	return f.value(v)
}

// PerHundred returns the per-100g source value of this field, applying the
// carbohydrate fallback where relevant.
func (f Field) PerHundred(facts *Facts) decimal.NullDecimal {
	return f.source(facts)
}

// Fields enumerates every computed nutrient in storage order.
var Fields = []Field{
	{Name: "energy_kcal", Kind: KindEnergy,
		source: func(f *Facts) decimal.NullDecimal { return f.EnergyKcal },
		value:  func(v *Vector) *decimal.Decimal { return &v.EnergyKcal }},
	{Name: "water_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.WaterG },
		value:  func(v *Vector) *decimal.Decimal { return &v.WaterG }},
	{Name: "protein_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.ProteinG },
		value:  func(v *Vector) *decimal.Decimal { return &v.ProteinG }},
	{Name: "total_fat_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.TotalFatG },
		value:  func(v *Vector) *decimal.Decimal { return &v.TotalFatG }},
	{Name: "carbs_g", Kind: KindMass,
		source: resolveCarbs,
		value:  func(v *Vector) *decimal.Decimal { return &v.CarbsG }},
	{Name: "fiber_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.FiberG },
		value:  func(v *Vector) *decimal.Decimal { return &v.FiberG }},
	{Name: "ash_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.AshG },
		value:  func(v *Vector) *decimal.Decimal { return &v.AshG }},
	{Name: "sodium_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.SodiumMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.SodiumMg }},
	{Name: "potassium_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.PotassiumMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.PotassiumMg }},
	{Name: "calcium_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.CalciumMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.CalciumMg }},
	{Name: "phosphorus_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.PhosphorusMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.PhosphorusMg }},
	{Name: "iron_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.IronMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.IronMg }},
	{Name: "zinc_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.ZincMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.ZincMg }},
	{Name: "thiamin_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.ThiaminMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.ThiaminMg }},
	{Name: "riboflavin_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.RiboflavinMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.RiboflavinMg }},
	{Name: "niacin_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.NiacinMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.NiacinMg }},
	{Name: "vitamin_c_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.VitaminCMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.VitaminCMg }},
	{Name: "saturated_fat_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.SaturatedFatG },
		value:  func(v *Vector) *decimal.Decimal { return &v.SaturatedFatG }},
	{Name: "monounsaturated_fat_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.MonounsatFatG },
		value:  func(v *Vector) *decimal.Decimal { return &v.MonounsatFatG }},
	{Name: "polyunsaturated_fat_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.PolyunsatFatG },
		value:  func(v *Vector) *decimal.Decimal { return &v.PolyunsatFatG }},
	{Name: "cholesterol_mg", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.CholesterolMg },
		value:  func(v *Vector) *decimal.Decimal { return &v.CholesterolMg }},
	{Name: "myristic_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.MyristicG },
		value:  func(v *Vector) *decimal.Decimal { return &v.MyristicG }},
	{Name: "palmitic_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.PalmiticG },
		value:  func(v *Vector) *decimal.Decimal { return &v.PalmiticG }},
	{Name: "stearic_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.StearicG },
		value:  func(v *Vector) *decimal.Decimal { return &v.StearicG }},
	{Name: "oleic_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.OleicG },
		value:  func(v *Vector) *decimal.Decimal { return &v.OleicG }},
	{Name: "linoleic_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.LinoleicG },
		value:  func(v *Vector) *decimal.Decimal { return &v.LinoleicG }},
	{Name: "linolenic_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.LinolenicG },
		value:  func(v *Vector) *decimal.Decimal { return &v.LinolenicG }},
	{Name: "epa_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.EPAG },
		value:  func(v *Vector) *decimal.Decimal { return &v.EPAG }},
	{Name: "dha_g", Kind: KindMass,
		source: func(f *Facts) decimal.NullDecimal { return f.DHAG },
		value:  func(v *Vector) *decimal.Decimal { return &v.DHAG }},
}

// resolveCarbs prefers available carbohydrates and falls back to total
// carbohydrates when the table does not record the available figure. The
// fallback happens here, once per ingredient; summed totals never re-resolve.
func resolveCarbs(f *Facts) decimal.NullDecimal {
	if f.AvailableCarbsG.Valid {
		return f.AvailableCarbsG
	}
	return f.TotalCarbsG
}
