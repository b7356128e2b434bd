package models

import (
	"time"

	"gorm.io/gorm"
)

// Meal types observed during an audit visit.
const (
	MealTypeBreakfast = "breakfast"
	MealTypeLunch     = "lunch"
	MealTypeSnack     = "snack"
	MealTypeDinner    = "dinner"
	MealTypeTakeHome  = "take_home"
)

// MealTypes lists every valid meal type.
var MealTypes = []string{
	MealTypeBreakfast,
	MealTypeLunch,
	MealTypeSnack,
	MealTypeDinner,
	MealTypeTakeHome,
}

// Visit records one audit at an institution on a given date for one meal
// service. The dishes observed during the visit hang off it.
type Visit struct {
	gorm.Model
	InstitutionID uint         `gorm:"not null;index:idx_visits_institution_date" json:"institution_id"`
	Institution   *Institution `gorm:"foreignKey:InstitutionID" json:"institution,omitempty"`
	Date          time.Time    `gorm:"column:visit_date;type:date;not null;index:idx_visits_institution_date" json:"date"`
	MealType      string       `gorm:"type:varchar(20);not null" json:"meal_type"`
	Observations  string       `gorm:"type:text" json:"observations"`

	Dishes []Dish `gorm:"foreignKey:VisitID" json:"dishes,omitempty"`
}

// ValidMealType reports whether mealType is one of the recognised values.
func ValidMealType(mealType string) bool {
	for _, m := range MealTypes {
		if m == mealType {
			return true
		}
	}
	return false
}
