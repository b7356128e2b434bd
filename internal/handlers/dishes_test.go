package handlers

import (
	"bytes"
	"context"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutriaudit/models"
)

func TestDishCreateStartsWithZeroTotals(t *testing.T) {
	db := withTestEnvironment(t)
	fx := seedAuditData(t, db)

	body := fmt.Sprintf(`{"visit_id":%d,"name":"Polenta con queso","dish_type":"main"}`, fx.visit.ID)
	req := httptest.NewRequest(http.MethodPost, "/api/dishes", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	DishResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var dish models.Dish
	if err := json.Unmarshal(w.Body.Bytes(), &dish); err != nil {
		t.Fatalf("failed to decode dish: %v", err)
	}
	if !dish.Totals.EnergyKcal.IsZero() {
		t.Fatalf("new dish energy = %s, want 0", dish.Totals.EnergyKcal)
	}
}

func TestDishCreateValidation(t *testing.T) {
	db := withTestEnvironment(t)
	fx := seedAuditData(t, db)

	cases := []struct {
		name string
		body string
	}{
		{"missing name", fmt.Sprintf(`{"visit_id":%d,"dish_type":"main"}`, fx.visit.ID)},
		{"unknown dish type", fmt.Sprintf(`{"visit_id":%d,"name":"Sopa","dish_type":"starter"}`, fx.visit.ID)},
		{"unknown visit", `{"visit_id":9999,"name":"Sopa"}`},
		{"zero servings", fmt.Sprintf(`{"visit_id":%d,"name":"Sopa","servings":0}`, fx.visit.ID)},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/dishes", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			DishResource(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestDishRecalculateEndpoint(t *testing.T) {
	db := withTestEnvironment(t)
	fx := seedAuditData(t, db)

	w := postIngredient(t, fmt.Sprintf(`{"dish_id":%d,"food_item_id":%d,"quantity":"150"}`, fx.dish.ID, fx.rice.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	// the catalog entry changes after the ingredient was recorded
	if err := db.Model(&models.FoodItem{}).
		Where("id = ?", fx.rice.ID).
		Update("energy_kcal", "140").Error; err != nil {
		t.Fatalf("failed to update catalog: %v", err)
	}

	req := httptest.NewRequest(http.MethodPost, fmt.Sprintf("/api/dishes/%d/recalculate", fx.dish.ID), nil)
	w = httptest.NewRecorder()
	DishResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	var dish models.Dish
	if err := json.Unmarshal(w.Body.Bytes(), &dish); err != nil {
		t.Fatalf("failed to decode dish: %v", err)
	}
	if got := dish.Totals.EnergyKcal.StringFixed(2); got != "210.00" {
		t.Fatalf("energy after recalculate = %s, want 210.00", got)
	}

	req = httptest.NewRequest(http.MethodGet, fmt.Sprintf("/api/dishes/%d/recalculate", fx.dish.ID), nil)
	w = httptest.NewRecorder()
	DishResource(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("GET recalculate: expected status 405, got %d", w.Code)
	}
}

func TestDishUpdateInvalidatesDashboard(t *testing.T) {
	db := withTestEnvironment(t)
	fx := seedAuditData(t, db)
	ctx := context.Background()

	before, err := reporter.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("failed to warm dashboard: %v", err)
	}

	body := `{"name":"Arroz con porotos negros","dish_type":"main"}`
	req := httptest.NewRequest(http.MethodPut, fmt.Sprintf("/api/dishes/%d", fx.dish.ID), bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	DishResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}

	after, err := reporter.DashboardSummary(ctx)
	if err != nil {
		t.Fatalf("failed to rebuild dashboard: %v", err)
	}
	if after == before {
		t.Fatal("expected fresh dashboard summary after dish update")
	}
}

func TestDishDeleteRemovesIngredients(t *testing.T) {
	db := withTestEnvironment(t)
	fx := seedAuditData(t, db)

	w := postIngredient(t, fmt.Sprintf(`{"dish_id":%d,"food_item_id":%d,"quantity":"150"}`, fx.dish.ID, fx.rice.ID))
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/dishes/%d", fx.dish.ID), nil)
	w = httptest.NewRecorder()
	DishResource(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}

	var count int64
	if err := db.Model(&models.Ingredient{}).Where("dish_id = ?", fx.dish.ID).Count(&count).Error; err != nil {
		t.Fatalf("failed to count ingredients: %v", err)
	}
	if count != 0 {
		t.Fatalf("ingredient count after dish delete = %d, want 0", count)
	}
}
