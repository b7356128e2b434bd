package models

import (
	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	"nutriaudit/internal/nutrition"
)

// Ingredient ties an observed quantity of a catalog food to a dish.
// Contribution is derived state: quantity/100 times the food's per-100g
// facts, resolved and rounded by the rollup calculator when the row is
// written. It is never edited directly.
type Ingredient struct {
	gorm.Model
	DishID     uint      `gorm:"not null;index" json:"dish_id"`
	Dish       *Dish     `gorm:"foreignKey:DishID" json:"dish,omitempty"`
	FoodItemID uint      `gorm:"not null;index" json:"food_item_id"`
	FoodItem   *FoodItem `gorm:"foreignKey:FoodItemID" json:"food_item,omitempty"`

	Quantity decimal.Decimal `gorm:"type:numeric(10,3);not null" json:"quantity"`
	Unit     string          `gorm:"type:varchar(20);not null;default:g" json:"unit"`
	Position *int            `json:"position"`

	Contribution nutrition.Vector `gorm:"embedded" json:"contribution"`
}
