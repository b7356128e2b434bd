package handlers

import (
	"encoding/json"
	"errors"
	"fmt"
	"net/http"
	"strings"

	"gorm.io/gorm"

	applog "nutriaudit/internal/log"
	"nutriaudit/models"
)

type institutionRequest struct {
	Code         string `json:"code"`
	Name         string `json:"name"`
	Kind         string `json:"kind"`
	Address      string `json:"address"`
	Neighborhood string `json:"neighborhood"`
	District     string `json:"district"`
	Active       *bool  `json:"active"`
}

func (p institutionRequest) validate() error {
	if strings.TrimSpace(p.Code) == "" {
		return errors.New("code is required")
	}
	if strings.TrimSpace(p.Name) == "" {
		return errors.New("name is required")
	}
	if !models.ValidInstitutionKind(p.Kind) {
		return fmt.Errorf("kind must be one of %s", strings.Join(models.InstitutionKinds, ", "))
	}
	return nil
}

// InstitutionResource handles REST-style interactions for institution records.
func InstitutionResource(w http.ResponseWriter, r *http.Request) {
	if database == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	segments := resourcePath(r, "/api/institutions")
	if segments == nil {
		switch r.Method {
		case http.MethodGet:
			listInstitutions(w, r)
		case http.MethodPost:
			createInstitution(w, r)
		default:
			w.WriteHeader(http.StatusMethodNotAllowed)
		}
		return
	}

	institutionID, ok := parseID(segments[0])
	if !ok {
		applog.Debug(r.Context(), "invalid institution identifier", "identifier", segments[0])
		http.NotFound(w, r)
		return
	}

	switch r.Method {
	case http.MethodGet:
		showInstitution(w, r, institutionID)
	case http.MethodPut:
		updateInstitution(w, r, institutionID)
	case http.MethodDelete:
		deleteInstitution(w, r, institutionID)
	default:
		w.WriteHeader(http.StatusMethodNotAllowed)
	}
}

func listInstitutions(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	query := database.WithContext(ctx).Order("name asc")

	switch strings.ToLower(r.URL.Query().Get("active")) {
	case "true", "1":
		query = query.Where("active = ?", true)
	case "false", "0":
		query = query.Where("active = ?", false)
	}
	if kind := r.URL.Query().Get("kind"); kind != "" {
		query = query.Where("kind = ?", kind)
	}

	var institutions []models.Institution
	if err := query.Find(&institutions).Error; err != nil {
		applog.Error(ctx, "failed to list institutions", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to load institutions")
		return
	}
	writeJSON(w, http.StatusOK, institutions)
}

func createInstitution(w http.ResponseWriter, r *http.Request) {
	ctx := r.Context()
	var payload institutionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid institution payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := payload.validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	institution := models.Institution{
		Code:         strings.TrimSpace(payload.Code),
		Name:         strings.TrimSpace(payload.Name),
		Kind:         payload.Kind,
		Address:      strings.TrimSpace(payload.Address),
		Neighborhood: strings.TrimSpace(payload.Neighborhood),
		District:     strings.TrimSpace(payload.District),
		Active:       true,
	}
	if payload.Active != nil {
		institution.Active = *payload.Active
	}

	if err := database.WithContext(ctx).Create(&institution).Error; err != nil {
		applog.Error(ctx, "failed to create institution", "error", err)
		writeJSONError(w, http.StatusConflict, "unable to create institution")
		return
	}

	invalidateDashboard(ctx)
	writeJSON(w, http.StatusCreated, institution)
}

func showInstitution(w http.ResponseWriter, r *http.Request, institutionID uint) {
	ctx := r.Context()
	var institution models.Institution
	if err := database.WithContext(ctx).First(&institution, institutionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load institution", "error", err, "id", institutionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load institution")
		return
	}
	writeJSON(w, http.StatusOK, institution)
}

func updateInstitution(w http.ResponseWriter, r *http.Request, institutionID uint) {
	ctx := r.Context()
	var institution models.Institution
	if err := database.WithContext(ctx).First(&institution, institutionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load institution for update", "error", err, "id", institutionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load institution")
		return
	}

	var payload institutionRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(ctx, "invalid institution payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}
	if err := payload.validate(); err != nil {
		writeJSONError(w, http.StatusBadRequest, err.Error())
		return
	}

	updates := map[string]any{
		"code":         strings.TrimSpace(payload.Code),
		"name":         strings.TrimSpace(payload.Name),
		"kind":         payload.Kind,
		"address":      strings.TrimSpace(payload.Address),
		"neighborhood": strings.TrimSpace(payload.Neighborhood),
		"district":     strings.TrimSpace(payload.District),
	}
	if payload.Active != nil {
		updates["active"] = *payload.Active
	}

	if err := database.WithContext(ctx).Model(&institution).Updates(updates).Error; err != nil {
		applog.Error(ctx, "failed to update institution", "error", err, "id", institutionID)
		writeJSONError(w, http.StatusConflict, "institution code already in use")
		return
	}

	if err := database.WithContext(ctx).First(&institution, institutionID).Error; err != nil {
		applog.Error(ctx, "failed to reload updated institution", "error", err, "id", institutionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load institution")
		return
	}

	invalidateDashboard(ctx)
	writeJSON(w, http.StatusOK, institution)
}

// deleteInstitution refuses to delete an institution while visits still
// reference it. History is removed visit by visit, never by cascade.
func deleteInstitution(w http.ResponseWriter, r *http.Request, institutionID uint) {
	ctx := r.Context()
	var institution models.Institution
	if err := database.WithContext(ctx).First(&institution, institutionID).Error; err != nil {
		if errors.Is(err, gorm.ErrRecordNotFound) {
			http.NotFound(w, r)
			return
		}
		applog.Error(ctx, "failed to load institution for delete", "error", err, "id", institutionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to load institution")
		return
	}

	var visitCount int64
	if err := database.WithContext(ctx).Model(&models.Visit{}).
		Where("institution_id = ?", institutionID).
		Count(&visitCount).Error; err != nil {
		applog.Error(ctx, "failed to count institution visits", "error", err, "id", institutionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete institution")
		return
	}
	if visitCount > 0 {
		writeJSONError(w, http.StatusConflict, "institution has recorded visits and cannot be deleted")
		return
	}

	if err := database.WithContext(ctx).Delete(&institution).Error; err != nil {
		applog.Error(ctx, "failed to delete institution", "error", err, "id", institutionID)
		writeJSONError(w, http.StatusInternalServerError, "unable to delete institution")
		return
	}

	invalidateDashboard(ctx)
	w.WriteHeader(http.StatusNoContent)
}
