package handlers

import (
	"errors"
	"net/http"
	"strconv"
	"strings"

	"gorm.io/gorm"

	applog "nutriaudit/internal/log"
	"nutriaudit/models"
)

const (
	defaultFoodPageSize = 50
	maxFoodPageSize     = 200
)

// FoodResource serves the read-only nutrient catalog. Catalog rows are
// maintained by the import tool, never through the API.
func FoodResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	segments := resourcePath(r, "/api/foods")
	if segments == nil {
		listFoods(w, r)
		return
	}

	foodID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid food identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}
	showFood(w, r, foodID)
}

func listFoods(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Preload("Category").Order("name asc")

	if search := strings.TrimSpace(r.URL.Query().Get("q")); search != "" {
		query = query.Where("name LIKE ?", "%"+search+"%")
	}
	if raw := r.URL.Query().Get("category_id"); raw != "" {
		categoryID, ok := parseID(raw)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "category_id must be a positive integer")
			return
		}
		query = query.Where("food_category_id = ?", categoryID)
	}

	limit := defaultFoodPageSize
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed <= 0 {
			writeJSONError(w, http.StatusBadRequest, "limit must be a positive integer")
			return
		}
		limit = parsed
	}
	if limit > maxFoodPageSize {
		limit = maxFoodPageSize
	}
	if raw := r.URL.Query().Get("offset"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil || parsed < 0 {
			writeJSONError(w, http.StatusBadRequest, "offset must be a non-negative integer")
			return
		}
		query = query.Offset(parsed)
	}

	var foods []models.FoodItem
	if err := query.Limit(limit).Find(&foods).Error; err != nil {
		applog.Error(ctx, "failed to list foods", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load foods")
		return
	}
	writeJSON(w, http.StatusOK, foods)
}

func showFood(w http.ResponseWriter, r *http.Request, foodID uint) {
	ctx := r.Context()
	var food models.FoodItem
	if err := database.WithContext(ctx).Preload("Category").First(&food, foodID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load food", "error", err, "id", foodID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load food")
		return
	}
	writeJSON(w, http.StatusOK, food)
}

// FoodCategoryResource lists the catalog's category taxonomy.
func FoodCategoryResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}

	ctx := r.Context()
	var categories []models.FoodCategory
	if err := database.WithContext(ctx).Order("name asc").Find(&categories).Error; err != nil {
		applog.Error(ctx, "failed to list food categories", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load food categories")
		return
	}
	writeJSON(w, http.StatusOK, categories)
}
