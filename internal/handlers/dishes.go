package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "nutriaudit/internal/log"
	"nutriaudit/internal/rollup"
	"nutriaudit/models"
)

type dishRequest struct {
	VisitID  uint   `json:"visit_id"`
	Name     string `json:"name"`
	DishType string `json:"dish_type"`
	Servings *int   `json:"servings"`
	Notes    string `json:"notes"`
}

func (p dishRequest) validate() error {
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if !models.ValidDishType(p.DishType) {
		return fmt.Errorf("dish_type must be empty or one of %s", strings.Join(models.DishTypes, ", "))
	}
	if p.Servings != nil && *p.Servings <= 0 {
		return errors.New("servings must be a positive integer")
	}
	return nil
}

// DishResource handles REST-style interactions for observed dish records. The
// derived totals are read-only here: only ingredient mutations and the
// explicit recalculate action may change them.
func DishResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	segments := resourcePath(r, "/api/dishes")
	if segments == nil {
		switch r.Method {
		case http.MethodGet:
			listDishes(w, r)
		case http.MethodPost:
			createDish(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	dishID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid dish identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	if len(segments) > 1 && segments[1] == "recalculate" {
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		recalculateDish(w, r, dishID)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showDish(w, r, dishID)
	case http.MethodPut:
		updateDish(w, r, dishID)
	case http.MethodDelete:
		deleteDish(w, r, dishID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listDishes(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Order("id asc")

	if raw := r.URL.Query().Get("visit_id"); raw != "" {
		visitID, ok := parseID(raw)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "visit_id must be a positive integer")
			return
		}
		query = query.Where("visit_id = ?", visitID)
	}

	var dishes []models.Dish
	if err := query.Find(&dishes).Error; err != nil {
		applog.Error(ctx, "failed to list dishes", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dishes")
		return
	}
	writeJSON(w, http.StatusOK, dishes)
}

func createDish(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload dishRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid dish payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := payload.validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}
	if payload.VisitID == 0 {
		writeJSONError(w, http.StatusBadRequest, "visit_id is required")
		return
	}

	var visit models.Visit
	if err := database.WithContext(ctx).First(&visit, payload.VisitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "visit does not exist")
			return
		}
		applog.Error(ctx, "failed to load visit for dish", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create dish")
		return
	}

	// A new dish has no ingredients, so its totals start at the zero vector.
	dish := models.Dish{
		VisitID:  visit.ID,
		Name:     strings.TrimSpace(payload.Name),
		DishType: payload.DishType,
		Servings: payload.Servings,
		Notes:    strings.TrimSpace(payload.Notes),
	}
	if err := database.WithContext(ctx).Create(&dish).Error; err != nil {
		applog.Error(ctx, "failed to create dish", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create dish")
		return
	}

	invalidateDashboard(ctx)
	writeJSON(w, http.StatusCreated, dish)
}

func showDish(w http.ResponseWriter, r *http.Request, dishID uint) {
	ctx := r.Context()
	var dish models.Dish
	if err := database.WithContext(ctx).
		Preload("Ingredients", func(db *gorm.DB) *gorm.DB {
			return db.Order("position asc, id asc")
		}).
		Preload("Ingredients.FoodItem").
		First(&dish, dishID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load dish", "error", err, "id", dishID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dish")
		return
	}
	writeJSON(w, http.StatusOK, dish)
}

func updateDish(w http.ResponseWriter, r *http.Request, dishID uint) {
	ctx := r.Context()
	var dish models.Dish
	if err := database.WithContext(ctx).First(&dish, dishID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load dish for update", "error", err, "id", dishID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dish")
		return
	}

	var payload dishRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid dish payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := payload.validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{
		"name":      strings.TrimSpace(payload.Name),
		"dish_type": payload.DishType,
		"servings":  payload.Servings,
		"notes":     strings.TrimSpace(payload.Notes),
	}
	if err := database.WithContext(ctx).Model(&dish).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update dish", "error", err, "id", dishID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update dish")
		return
	}

	if err := database.WithContext(ctx).First(&dish, dishID).Error; err != nil {
		applog.Error(ctx, "failed to reload updated dish", "error", err, "id", dishID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load dish")
		return
	}

	invalidateDashboard(ctx)
	writeJSON(w, http.StatusOK, dish)
}

// deleteDish removes a dish and its ingredients in one transaction. Totals
// need no recompute on this path: the dish they describe is gone.
func deleteDish(w http.ResponseWriter, r *http.Request, dishID uint) {
	ctx := r.Context()

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var dish models.Dish
		if err := tx.First(&dish, dishID).Error; err != nil {
			return err
		}
		if err := tx.Where("dish_id = ?", dishID).Delete(&models.Ingredient{}).Error; err != nil {
			return err
		}
		return tx.Delete(&dish).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to delete dish", "error", err, "id", dishID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete dish")
		return
	}

	invalidateDashboard(ctx)
	w.WriteHeader(http.StatusNoContent)
}

func recalculateDish(w http.ResponseWriter, r *http.Request, dishID uint) {
	ctx := r.Context()
	if coordinator == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	dish, err := coordinator.RecalculateDish(ctx, dishID)
	if err != nil {
		if errors.Is(err, rollup.ErrDishNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to recalculate dish totals", "error", err, "id", dishID)
		writeJSONError(w, http.StatusInternalServerError, "unable to recalculate dish totals")
		return
	}
	writeJSON(w, http.StatusOK, dish)
}
