package handlers

import (
	"bytes"
	"encoding/json"
	"fmt"
	"net/http"
	"net/http/httptest"
	"testing"

	"nutriaudit/models"
)

func TestInstitutionCreateAndList(t *testing.T) {
	withTestEnvironment(t)

	body := `{"code":"CDI-003","name":"CDI Los Alamos","kind":"childcare","district":"Comuna 1"}`
	req := httptest.NewRequest(http.MethodPost, "/api/institutions", bytes.NewBufferString(body))
	w := httptest.NewRecorder()
	InstitutionResource(w, req)
	if w.Code != http.StatusCreated {
		t.Fatalf("expected status 201, got %d: %s", w.Code, w.Body.String())
	}

	var created models.Institution
	if err := json.Unmarshal(w.Body.Bytes(), &created); err != nil {
		t.Fatalf("failed to decode created institution: %v", err)
	}
	if !created.Active {
		t.Fatal("expected new institution to default to active")
	}

	req = httptest.NewRequest(http.MethodGet, "/api/institutions?kind=childcare", nil)
	w = httptest.NewRecorder()
	InstitutionResource(w, req)
	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d", w.Code)
	}
	var listed []models.Institution
	if err := json.Unmarshal(w.Body.Bytes(), &listed); err != nil {
		t.Fatalf("failed to decode institutions: %v", err)
	}
	if len(listed) != 1 || listed[0].Code != "CDI-003" {
		t.Fatalf("listed institutions = %+v, want the created one", listed)
	}
}

func TestInstitutionCreateValidation(t *testing.T) {
	withTestEnvironment(t)

	cases := []struct {
		name string
		body string
	}{
		{"missing code", `{"name":"Escuela 14","kind":"school"}`},
		{"missing name", `{"code":"ESC-014","kind":"school"}`},
		{"unknown kind", `{"code":"ESC-014","name":"Escuela 14","kind":"hospital"}`},
		{"malformed body", `{`},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/institutions", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			InstitutionResource(w, req)
			if w.Code != http.StatusBadRequest {
				t.Fatalf("expected status 400, got %d: %s", w.Code, w.Body.String())
			}
		})
	}
}

func TestInstitutionDeleteBlockedByVisits(t *testing.T) {
	db := withTestEnvironment(t)
	fx := seedAuditData(t, db)

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/institutions/%d", fx.institution.ID), nil)
	w := httptest.NewRecorder()
	InstitutionResource(w, req)
	if w.Code != http.StatusConflict {
		t.Fatalf("expected status 409 while visits exist, got %d", w.Code)
	}

	var count int64
	if err := db.Model(&models.Institution{}).Count(&count).Error; err != nil {
		t.Fatalf("failed to count institutions: %v", err)
	}
	if count != 1 {
		t.Fatalf("institution count = %d, want 1", count)
	}
}

func TestInstitutionDeleteWithoutVisits(t *testing.T) {
	db := withTestEnvironment(t)

	institution := models.Institution{Code: "GER-001", Name: "Hogar Norte", Kind: models.InstitutionKindGeriatric, Active: true}
	if err := db.Create(&institution).Error; err != nil {
		t.Fatalf("failed to create institution: %v", err)
	}

	req := httptest.NewRequest(http.MethodDelete, fmt.Sprintf("/api/institutions/%d", institution.ID), nil)
	w := httptest.NewRecorder()
	InstitutionResource(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d: %s", w.Code, w.Body.String())
	}
}

func TestInstitutionShowUnknown(t *testing.T) {
	withTestEnvironment(t)

	req := httptest.NewRequest(http.MethodGet, "/api/institutions/9999", nil)
	w := httptest.NewRecorder()
	InstitutionResource(w, req)
	if w.Code != http.StatusNotFound {
		t.Fatalf("expected status 404, got %d", w.Code)
	}
}
