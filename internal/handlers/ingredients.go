package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strings"

	"github.com/shopspring/decimal"
	"gorm.io/gorm"

	applog "nutriaudit/internal/log"
	"nutriaudit/internal/nutrition"
	"nutriaudit/internal/rollup"
	"nutriaudit/models"
)

type ingredientRequest struct {
	DishID     uint            `json:"dish_id"`
	FoodItemID uint            `json:"food_item_id"`
	Quantity   decimal.Decimal `json:"quantity"`
	Unit       string          `json:"unit"`
	Position   *int            `json:"position"`
}

// ingredientResponse pairs the affected ingredient with the dish it belongs
// to, whose totals were just recomputed.
type ingredientResponse struct {
	Ingredient *models.Ingredient `json:"ingredient,omitempty"`
	Dish       *models.Dish       `json:"dish"`
}

// IngredientResource routes ingredient mutations through the rollup
// coordinator so dish totals never drift from their ingredients.
func IngredientResource(w http.ResponseWriter, r *http.Request) {
	if database == nil || coordinator == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	segments := resourcePath(r, "/api/ingredients")
	if segments == nil {
		switch r.Method {
		case http.MethodGet:
			listIngredients(w, r)
		case http.MethodPost:
			createIngredient(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	ingredientID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid ingredient identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showIngredient(w, r, ingredientID)
	case http.MethodPut:
		updateIngredient(w, r, ingredientID)
	case http.MethodDelete:
		deleteIngredient(w, r, ingredientID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listIngredients(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()

	raw := r.URL.Query().Get("dish_id")
	dishID, ok := parseID(raw)
	if !ok {
		writeJSONError(w, http.StatusBadRequest, "dish_id query parameter is required")
		return
	}

	var ingredients []models.Ingredient
	if err := database.WithContext(ctx).
		Preload("FoodItem").
		Where("dish_id = ?", dishID).
		Order("position asc, id asc").
		Find(&ingredients).Error; err != nil {
		applog.Error(ctx, "failed to list ingredients", "error", err, "dish", dishID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredients")
		return
	}
	writeJSON(w, http.StatusOK, ingredients)
}

func createIngredient(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.DishID == 0 {
		writeJSONError(w, http.StatusBadRequest, "dish_id is required")
		return
	}
	if payload.FoodItemID == 0 {
		writeJSONError(w, http.StatusBadRequest, "food_item_id is required")
		return
	}

	ingredient := &models.Ingredient{
		FoodItemID: payload.FoodItemID,
		Quantity:   payload.Quantity,
		Unit:       unitOrDefault(payload.Unit),
		Position:   payload.Position,
	}

	dish, err := coordinator.Apply(ctx, rollup.Change{
		Op:         rollup.OpCreate,
		DishID:     payload.DishID,
		Ingredient: ingredient,
	})
	if err != nil {
		respondRollupError(w, r, err)
		return
	}

	writeJSON(w, http.StatusCreated, ingredientResponse{Ingredient: ingredient, Dish: dish})
}

func showIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).Preload("FoodItem").First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return
	}
	writeJSON(w, http.StatusOK, ingredient)
}

func updateIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	ctx := r.Context()

	existing, ok := loadIngredient(w, r, ingredientID)
	if !ok {
		return
	}

	var payload ingredientRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid ingredient payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if payload.FoodItemID == 0 {
		payload.FoodItemID = existing.FoodItemID
	}

	ingredient := &models.Ingredient{
		FoodItemID: payload.FoodItemID,
		Quantity:   payload.Quantity,
		Unit:       unitOrDefault(payload.Unit),
		Position:   payload.Position,
	}

	dish, err := coordinator.Apply(ctx, rollup.Change{
		Op:           rollup.OpUpdate,
		DishID:       existing.DishID,
		IngredientID: ingredientID,
		Ingredient:   ingredient,
	})
	if err != nil {
		respondRollupError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingredientResponse{Ingredient: ingredient, Dish: dish})
}

func deleteIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) {
	existing, ok := loadIngredient(w, r, ingredientID)
	if !ok {
		return
	}

	dish, err := coordinator.Apply(r.Context(), rollup.Change{
		Op:           rollup.OpDelete,
		DishID:       existing.DishID,
		IngredientID: ingredientID,
	})
	if err != nil {
		respondRollupError(w, r, err)
		return
	}

	writeJSON(w, http.StatusOK, ingredientResponse{Dish: dish})
}

func loadIngredient(w http.ResponseWriter, r *http.Request, ingredientID uint) (*models.Ingredient, bool) {
	ctx := r.Context()
	var ingredient models.Ingredient
	if err := database.WithContext(ctx).First(&ingredient, ingredientID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return nil, false
		}
		applog.Error(ctx, "failed to load ingredient", "error", err, "id", ingredientID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load ingredient")
		return nil, false
	}
	return &ingredient, true
}

func unitOrDefault(unit string) string {
	trimmed := strings.TrimSpace(unit)
	if trimmed == "" {
		return "g"
	}
	return trimmed
}

func respondRollupError(w http.ResponseWriter, r *http.Request, err error) {
	ctx := r.Context()

	switch {
	case errors.Is(err, rollup.ErrDishNotFound),
		errors.Is(err, rollup.ErrIngredientNotFound),
		errors.Is(err, rollup.ErrFoodNotFound):
		applog.Debug(ctx, "ingredient mutation target missing", "error", err)
		http.NotFound(w, r)
	case errors.Is(err, nutrition.ErrQuantityNotPositive),
		errors.Is(err, nutrition.ErrQuantityTooPrecise):
		writeJSONError(w, http.StatusBadRequest, "quantity must be positive with at most three decimal places")
	default:
		var consistency *rollup.ConsistencyError
		if errors.As(err, &consistency) {
			applog.Error(ctx, "ingredient mutation rolled back", "error", err, "dish", consistency.DishID)
		} else {
			applog.Error(ctx, "ingredient mutation failed", "error", err)
		}
		writeJSONError(w, http.StatusInternalServerError, "unable to apply ingredient change")
	}
}
