// Package rollup keeps dish totals consistent with their ingredients. Every
// ingredient mutation flows through the Coordinator as a Change descriptor;
// the coordinator recomputes the affected contribution, re-derives the owning
// dish's totals from all current ingredients, persists both as one unit and
// invalidates the dashboard cache before returning.
package rollup

import (
	"context"
	"errors"
	"fmt"

	"gorm.io/gorm"

	applog "nutriaudit/internal/log"
	"nutriaudit/internal/nutrition"
	"nutriaudit/models"
)

var (
	// ErrDishNotFound is returned when a change names a dish that does not exist.
	ErrDishNotFound = errors.New("rollup: dish not found")
	// ErrIngredientNotFound is returned when an update or delete names a
	// missing ingredient, or one that belongs to a different dish.
	ErrIngredientNotFound = errors.New("rollup: ingredient not found")
	// ErrFoodNotFound is returned when the referenced catalog food does not
	// exist. A missing catalog entry is an error, never a zero contribution.
	ErrFoodNotFound = errors.New("rollup: food item not found")
)

// ConsistencyError reports that a valid mutation could not be carried through
// to consistent dish totals. The whole change was rolled back; callers should
// retry the entire mutation, not half of it.
type ConsistencyError struct {
	DishID uint
	Err    error
}

func (e *ConsistencyError) Error() string {
	return fmt.Sprintf("rollup: dish %d could not be restored to consistent totals: %v", e.DishID, e.Err)
}

func (e *ConsistencyError) Unwrap() error {
	return e.Err
}

// Op identifies the kind of ingredient mutation being applied.
type Op int

const (
	OpCreate Op = iota
	OpUpdate
	OpDelete
)

// Change describes one ingredient mutation and the dish it affects.
// Ingredient carries the row to write for creates and updates; deletes only
// need IngredientID.
type Change struct {
	Op           Op
	DishID       uint
	Ingredient   *models.Ingredient
	IngredientID uint
}

// Coordinator drives a dish through its stale window and back. Between the
// ingredient write and the totals write the dish is stale; both writes share
// one transaction, so no other request ever observes that state. Per-dish
// write serialization is the database's job (row locks), not ours.
type Coordinator struct {
	db         *gorm.DB
	invalidate func(context.Context)
}

// New builds a Coordinator. invalidate runs after every committed change and
// may be nil when no cache is wired (tests).
func New(db *gorm.DB, invalidate func(context.Context)) *Coordinator {
	return &Coordinator{db: db, invalidate: invalidate}
}

// Apply validates and executes one ingredient mutation as a single unit:
// ingredient write, dish totals recompute and dish write either all commit or
// none do. It returns the dish with consistent totals.
func (c *Coordinator) Apply(ctx context.Context, change Change) (*models.Dish, error) {
	var dish models.Dish

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dish, change.DishID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDishNotFound
			}
			return err
		}

		switch change.Op {
		case OpCreate, OpUpdate:
			if err := c.writeIngredient(tx, &dish, change); err != nil {
				return err
			}
		case OpDelete:
			if err := c.deleteIngredient(tx, &dish, change.IngredientID); err != nil {
				return err
			}
		default:
			return fmt.Errorf("rollup: unknown op %d", change.Op)
		}

		return c.recomputeTotals(tx, &dish)
	})
	if err != nil {
		return nil, err
	}

	c.invalidateDashboard(ctx)
	return &dish, nil
}

// RecalculateDish refreshes every ingredient contribution of a dish from the
// catalog before re-deriving the totals. Catalog values change rarely and
// manually; this is the explicit trigger for that case.
func (c *Coordinator) RecalculateDish(ctx context.Context, dishID uint) (*models.Dish, error) {
	var dish models.Dish

	err := c.db.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		if err := tx.First(&dish, dishID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				return ErrDishNotFound
			}
			return err
		}

		var ingredients []models.Ingredient
		if err := tx.Preload("FoodItem").
			Where("dish_id = ?", dish.ID).
			Order("position asc, id asc").
			Find(&ingredients).Error; err != nil {
			return &ConsistencyError{DishID: dish.ID, Err: err}
		}

		for i := range ingredients {
			if ingredients[i].FoodItem == nil {
				return ErrFoodNotFound
			}
			contribution, err := nutrition.Contribution(ingredients[i].Quantity, ingredients[i].FoodItem.Facts)
			if err != nil {
				return err
			}
			ingredients[i].Contribution = contribution
			ingredients[i].FoodItem = nil
			if err := tx.Save(&ingredients[i]).Error; err != nil {
				return &ConsistencyError{DishID: dish.ID, Err: err}
			}
		}

		return c.recomputeTotals(tx, &dish)
	})
	if err != nil {
		return nil, err
	}

	c.invalidateDashboard(ctx)
	return &dish, nil
}

func (c *Coordinator) writeIngredient(tx *gorm.DB, dish *models.Dish, change Change) error {
	ingredient := change.Ingredient
	if ingredient == nil {
		return fmt.Errorf("rollup: change for dish %d carries no ingredient", dish.ID)
	}

	if err := nutrition.ValidateQuantity(ingredient.Quantity); err != nil {
		return err
	}

	var food models.FoodItem
	if err := tx.First(&food, ingredient.FoodItemID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrFoodNotFound
		}
		return err
	}

	contribution, err := nutrition.Contribution(ingredient.Quantity, food.Facts)
	if err != nil {
		return err
	}
	ingredient.Contribution = contribution
	ingredient.DishID = dish.ID

	if change.Op == OpCreate {
		if err := tx.Create(ingredient).Error; err != nil {
			return &ConsistencyError{DishID: dish.ID, Err: err}
		}
		return nil
	}

	var existing models.Ingredient
	if err := tx.Where("id = ? AND dish_id = ?", change.IngredientID, dish.ID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIngredientNotFound
		}
		return err
	}
	ingredient.ID = existing.ID
	ingredient.CreatedAt = existing.CreatedAt
	if err := tx.Save(ingredient).Error; err != nil {
		return &ConsistencyError{DishID: dish.ID, Err: err}
	}
	return nil
}

func (c *Coordinator) deleteIngredient(tx *gorm.DB, dish *models.Dish, ingredientID uint) error {
	var existing models.Ingredient
	if err := tx.Where("id = ? AND dish_id = ?", ingredientID, dish.ID).First(&existing).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			return ErrIngredientNotFound
		}
		return err
	}
	if err := tx.Delete(&existing).Error; err != nil {
		return &ConsistencyError{DishID: dish.ID, Err: err}
	}
	return nil
}

// recomputeTotals re-derives the dish totals from all current ingredient
// rows, never from a cached partial sum.
func (c *Coordinator) recomputeTotals(tx *gorm.DB, dish *models.Dish) error {
	var ingredients []models.Ingredient
	if err := tx.Where("dish_id = ?", dish.ID).
		Order("position asc, id asc").
		Find(&ingredients).Error; err != nil {
		return &ConsistencyError{DishID: dish.ID, Err: err}
	}

	contributions := make([]nutrition.Vector, len(ingredients))
	for i := range ingredients {
		contributions[i] = ingredients[i].Contribution
	}
	dish.Totals = nutrition.SumContributions(contributions)

	if err := tx.Save(dish).Error; err != nil {
		return &ConsistencyError{DishID: dish.ID, Err: err}
	}
	return nil
}

func (c *Coordinator) invalidateDashboard(ctx context.Context) {
	if c.invalidate == nil {
		return
	}
	applog.Debug(ctx, "invalidating dashboard cache after ingredient change")
	c.invalidate(ctx)
}
