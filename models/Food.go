package models

import (
	"gorm.io/gorm"

	"nutriaudit/internal/nutrition"
)

// FoodCategory groups catalog foods (cereals, fish, dairy, ...).
type FoodCategory struct {
	gorm.Model
	Code string `gorm:"uniqueIndex;not null" json:"code"`
	Name string `gorm:"not null" json:"name"`
}

// FoodItem is one entry of the reference composition catalog, keyed by its
// Argenfood table code and expressed per 100 g. The audit core reads it and
// never writes it; rows are seeded by cmd/import_foods.
type FoodItem struct {
	gorm.Model
	ArgenfoodCode  int           `gorm:"uniqueIndex;not null" json:"argenfood_code"`
	Name           string        `gorm:"not null;index" json:"name"`
	FoodCategoryID uint          `gorm:"not null;index" json:"food_category_id"`
	Category       *FoodCategory `gorm:"foreignKey:FoodCategoryID" json:"category,omitempty"`

	Facts nutrition.Facts `gorm:"embedded" json:"facts"`
}
