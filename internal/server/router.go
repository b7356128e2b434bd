package server

import (
	"context"
	"net/http"

	"nutriaudit/internal/handlers"
	applog "nutriaudit/internal/log"
)

// newRouter registers the API surface. Everything except the health probe and
// the login endpoint requires an authenticated session.
func newRouter() http.Handler {
	mux := http.NewServeMux()
	applog.Debug(context.Background(), "registering http routes")

	mux.HandleFunc("/healthz", handlers.Health)
	mux.HandleFunc("/api/login", handlers.Login)
	mux.HandleFunc("/api/logout", handlers.Logout)

	protect := func(handler http.HandlerFunc) http.Handler {
		return handlers.RequireAuthentication(handler)
	}

	mux.Handle("/api/institutions", protect(handlers.InstitutionResource))
	mux.Handle("/api/institutions/", protect(handlers.InstitutionResource))
	mux.Handle("/api/visits", protect(handlers.VisitResource))
	mux.Handle("/api/visits/", protect(handlers.VisitResource))
	mux.Handle("/api/dishes", protect(handlers.DishResource))
	mux.Handle("/api/dishes/", protect(handlers.DishResource))
	mux.Handle("/api/ingredients", protect(handlers.IngredientResource))
	mux.Handle("/api/ingredients/", protect(handlers.IngredientResource))
	mux.Handle("/api/foods", protect(handlers.FoodResource))
	mux.Handle("/api/foods/", protect(handlers.FoodResource))
	mux.Handle("/api/food-categories", protect(handlers.FoodCategoryResource))
	mux.Handle("/api/reports/", protect(handlers.Reports))

	applog.Debug(context.Background(), "http routes registered")
	return mux
}
