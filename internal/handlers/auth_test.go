package handlers

import (
	"bytes"
	"net/http"
	"net/http/httptest"
	"testing"

	"golang.org/x/crypto/bcrypt"

	"nutriaudit/models"
)

func seedUser(t *testing.T, password string) models.User {
	t.Helper()

	hash, err := bcrypt.GenerateFromPassword([]byte(password), bcrypt.MinCost)
	if err != nil {
		t.Fatalf("failed to hash password: %v", err)
	}
	user := models.User{Email: "marina@nutriaudit.app", Name: "Marina", PasswordHash: string(hash)}
	if err := database.Create(&user).Error; err != nil {
		t.Fatalf("failed to create user: %v", err)
	}
	return user
}

func TestLoginSuccess(t *testing.T) {
	withTestEnvironment(t)
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)
	seedUser(t, "auditoria")

	handler := sm.LoadAndSave(http.HandlerFunc(Login))
	req := httptest.NewRequest(http.MethodPost, "/api/login",
		bytes.NewBufferString(`{"email":"Marina@nutriaudit.app","password":"auditoria"}`))
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)

	if w.Code != http.StatusOK {
		t.Fatalf("expected status 200, got %d: %s", w.Code, w.Body.String())
	}
	if len(w.Result().Cookies()) == 0 {
		t.Fatal("expected session cookie on successful login")
	}
}

func TestLoginRejectsBadCredentials(t *testing.T) {
	withTestEnvironment(t)
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)
	seedUser(t, "auditoria")

	handler := sm.LoadAndSave(http.HandlerFunc(Login))

	cases := []struct {
		name string
		body string
		want int
	}{
		{"wrong password", `{"email":"marina@nutriaudit.app","password":"wrong"}`, http.StatusUnauthorized},
		{"unknown email", `{"email":"nobody@nutriaudit.app","password":"auditoria"}`, http.StatusUnauthorized},
		{"malformed body", `{`, http.StatusBadRequest},
	}

	for _, tt := range cases {
		t.Run(tt.name, func(t *testing.T) {
			req := httptest.NewRequest(http.MethodPost, "/api/login", bytes.NewBufferString(tt.body))
			w := httptest.NewRecorder()
			handler.ServeHTTP(w, req)
			if w.Code != tt.want {
				t.Fatalf("status = %d, want %d: %s", w.Code, tt.want, w.Body.String())
			}
		})
	}
}

func TestLoginRequiresPost(t *testing.T) {
	withTestEnvironment(t)
	_, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	req := httptest.NewRequest(http.MethodGet, "/api/login", nil)
	w := httptest.NewRecorder()
	Login(w, req)
	if w.Code != http.StatusMethodNotAllowed {
		t.Fatalf("expected status 405, got %d", w.Code)
	}
}

func TestRequireAuthenticationBlocksAnonymous(t *testing.T) {
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	protected := RequireAuthentication(http.HandlerFunc(func(w http.ResponseWriter, r *http.Request) {
		w.WriteHeader(http.StatusOK)
	}))
	handler := sm.LoadAndSave(protected)

	req := httptest.NewRequest(http.MethodGet, "/api/visits", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusUnauthorized {
		t.Fatalf("expected status 401, got %d", w.Code)
	}
}

func TestLogoutDestroysSession(t *testing.T) {
	withTestEnvironment(t)
	sm, cleanup := withTestSessionManager(t)
	t.Cleanup(cleanup)

	handler := sm.LoadAndSave(http.HandlerFunc(Logout))
	req := httptest.NewRequest(http.MethodPost, "/api/logout", nil)
	w := httptest.NewRecorder()
	handler.ServeHTTP(w, req)
	if w.Code != http.StatusNoContent {
		t.Fatalf("expected status 204, got %d", w.Code)
	}
}
