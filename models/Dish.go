package models

import (
	"gorm.io/gorm"

	"nutriaudit/internal/nutrition"
)

// Dish types distinguishing the courses observed on a tray.
const (
	DishTypeMain     = "main"
	DishTypeSide     = "side"
	DishTypeDessert  = "dessert"
	DishTypeBeverage = "beverage"
	DishTypeOther    = "other"
)

// DishTypes lists every valid dish type.
var DishTypes = []string{
	DishTypeMain,
	DishTypeSide,
	DishTypeDessert,
	DishTypeBeverage,
	DishTypeOther,
}

// Dish is one observed preparation within a visit. Totals is derived state:
// it always equals the sum of the current ingredients' contributions, and the
// rollup coordinator keeps it that way after every ingredient mutation. A
// dish with no ingredients stores all-zero totals, never nulls.
type Dish struct {
	gorm.Model
	VisitID  uint   `gorm:"not null;index" json:"visit_id"`
	Visit    *Visit `gorm:"foreignKey:VisitID" json:"visit,omitempty"`
	Name     string `gorm:"not null" json:"name"`
	DishType string `gorm:"type:varchar(32)" json:"dish_type"`
	Servings *int   `json:"servings"`
	Notes    string `gorm:"type:text" json:"notes"`

	Totals nutrition.Vector `gorm:"embedded;embeddedPrefix:total_" json:"totals"`

	Ingredients []Ingredient `gorm:"foreignKey:DishID" json:"ingredients,omitempty"`
}

// ValidDishType reports whether dishType is one of the recognised values.
// The empty string is allowed: the course is not always identifiable.
func ValidDishType(dishType string) bool {
	if dishType == "" {
		return true
	}
	for _, d := range DishTypes {
		if d == dishType {
			return true
		}
	}
	return false
}
