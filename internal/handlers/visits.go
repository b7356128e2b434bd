package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"
	"time"

	"gorm.io/gorm"

	applog "nutriaudit/internal/log"
	"nutriaudit/models"
)

const dateLayout = "2006-01-02"

type visitRequest struct {
	InstitutionID uint   `json:"institution_id"`
	Date          string `json:"date"`
	MealType      string `json:"meal_type"`
	Observations  string `json:"observations"`
}

func (p visitRequest) parse() (time.Time, error) {
	if p.InstitutionID == 0 {
		return time.Time{}, errors.New("institution_id is required")
	}
	if !models.ValidMealType(p.MealType) {
		return time.Time{}, fmt.Errorf("meal_type must be one of %s", strings.Join(models.MealTypes, ", "))
	}
	date, err := time.Parse(dateLayout, p.Date)
	if err != nil {
		return time.Time{}, errors.New("date must be formatted as YYYY-MM-DD")
	}
	return date, nil
}

// VisitResource handles REST-style interactions for audit visit records.
func VisitResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	segments := resourcePath(r, "/api/visits")
	if segments == nil {
		switch r.Method {
		case http.MethodGet:
			listVisits(w, r)
		case http.MethodPost:
			createVisit(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	visitID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid visit identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showVisit(w, r, visitID)
	case http.MethodPut:
		updateVisit(w, r, visitID)
	case http.MethodDelete:
		deleteVisit(w, r, visitID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listVisits(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Order("visit_date desc, id asc")

	if raw := r.URL.Query().Get("institution_id"); raw != "" {
		institutionID, ok := parseID(raw)
		if !ok {
			writeJSONError(w, http.StatusBadRequest, "institution_id must be a positive integer")
			return
		}
		query = query.Where("institution_id = ?", institutionID)
	}
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "start_date must be formatted as YYYY-MM-DD")
			return
		}
		query = query.Where("visit_date >= ?", start)
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "end_date must be formatted as YYYY-MM-DD")
			return
		}
		query = query.Where("visit_date <= ?", end)
	}

	var visits []models.Visit
	if err := query.Find(&visits).Error; err != nil {
		applog.Error(ctx, "failed to list visits", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load visits")
		return
	}
	writeJSON(w, http.StatusOK, visits)
}

func createVisit(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload visitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid visit payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := payload.parse()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	var institution models.Institution
	if err := database.WithContext(ctx).First(&institution, payload.InstitutionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			writeJSONError(w, http.StatusBadRequest, "institution does not exist")
			return
		}
		applog.Error(ctx, "failed to load institution for visit", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create visit")
		return
	}

	visit := models.Visit{
		InstitutionID: institution.ID,
		Date:          date,
		MealType:      payload.MealType,
		Observations:  strings.TrimSpace(payload.Observations),
	}
	if err := database.WithContext(ctx).Create(&visit).Error; err != nil {
		applog.Error(ctx, "failed to create visit", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to create visit")
		return
	}

	invalidateDashboard(ctx)
	writeJSON(w, http.StatusCreated, visit)
}

func showVisit(w http.ResponseWriter, r *http.Request, visitID uint) {
	ctx := r.Context()
	var visit models.Visit
	if err := database.WithContext(ctx).Preload("Dishes").First(&visit, visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load visit", "error", err, "id", visitID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load visit")
		return
	}
	writeJSON(w, http.StatusOK, visit)
}

func updateVisit(w http.ResponseWriter, r *http.Request, visitID uint) {
	ctx := r.Context()
	var visit models.Visit
	if err := database.WithContext(ctx).First(&visit, visitID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load visit for update", "error", err, "id", visitID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load visit")
		return
	}

	var payload visitRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid visit payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	date, err := payload.parse()
	if err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	if payload.InstitutionID != visit.InstitutionID {
		var institution models.Institution
		if err := database.WithContext(ctx).First(&institution, payload.InstitutionID).Error; err != nil {
			if errors.Is(err, gorm.ErrRecordNotFound) {
				writeJSONError(w, http.StatusBadRequest, "institution does not exist")
				return
			}
			applog.Error(ctx, "failed to load institution for visit", "error", err)
			writeJSONError(w, http.StatusInternalServerError, "unable to update visit")
			return
		}
	}

	updates := map[string]any{
		"institution_id": payload.InstitutionID,
		"visit_date":     date,
		"meal_type":      payload.MealType,
		"observations":   strings.TrimSpace(payload.Observations),
	}
	if err := database.WithContext(ctx).Model(&visit).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update visit", "error", err, "id", visitID)
		writeJSONError(w, http.StatusInternalServerError, "unable to update visit")
		return
	}

	if err := database.WithContext(ctx).First(&visit, visitID).Error; err != nil {
		applog.Error(ctx, "failed to reload updated visit", "error", err, "id", visitID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load visit")
		return
	}

	invalidateDashboard(ctx)
	writeJSON(w, http.StatusOK, visit)
}

// deleteVisit removes the visit together with its dishes and their
// ingredients. A dish has no meaning outside its visit, so the removal is one
// transaction.
func deleteVisit(w http.ResponseWriter, r *http.Request, visitID uint) {
	ctx := r.Context()

	err := database.WithContext(ctx).Transaction(func(tx *gorm.DB) error {
		var visit models.Visit
		if err := tx.First(&visit, visitID).Error; err != nil {
			return err
		}

		var dishIDs []uint
		if err := tx.Model(&models.Dish{}).
			Where("visit_id = ?", visitID).
			Pluck("id", &dishIDs).Error; err != nil {
			return err
		}

		if len(dishIDs) > 0 {
			if err := tx.Where("dish_id IN ?", dishIDs).Delete(&models.Ingredient{}).Error; err != nil {
				return err
			}
			if err := tx.Where("id IN ?", dishIDs).Delete(&models.Dish{}).Error; err != nil {
				return err
			}
		}

		return tx.Delete(&visit).Error
	})
	if err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to delete visit", "error", err, "id", visitID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete visit")
		return
	}

	invalidateDashboard(ctx)
	w.WriteHeader(http.StatusNoContent)
}
