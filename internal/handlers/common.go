// Package handlers exposes the JSON API of the audit service. Handlers share
// their dependencies through package-level variables installed by Configure,
// mirroring how the HTTP server wires them at startup.
package handlers

import (
	"context"
	"encoding/json"
	"net/http"
	"strconv"
	"strings"

	"github.com/alexedwards/scs/v2"
	"gorm.io/gorm"

	applog "nutriaudit/internal/log"
	"nutriaudit/internal/reports"
	"nutriaudit/internal/rollup"
)

var (
	sessionManager *scs.SessionManager
	database       *gorm.DB
	coordinator    *rollup.Coordinator
	reporter       *reports.Service
)

// Configure installs the shared dependencies used by the HTTP handlers.
func Configure(sm *scs.SessionManager, db *gorm.DB, c *rollup.Coordinator, r *reports.Service) {
	sessionManager = sm
	database = db
	coordinator = c
	reporter = r
}

func writeJSON(w http.ResponseWriter, status int, payload any) {
	w.Header().Set("Content-Type", "application/json")
	w.WriteHeader(status)
	if err := json.NewEncoder(w).Encode(payload); err != nil {
		applog.Error(context.Background(), "failed to encode json response", "error", err)
	}
}

func writeJSONError(w http.ResponseWriter, status int, message string) {
	writeJSON(w, status, map[string]string{"error": message})
}

// resourcePath strips prefix from the request path and returns the remaining
// segments, so "/api/dishes/12/recalculate" under "/api/dishes" yields
// ["12", "recalculate"] and the collection root yields nil.
func resourcePath(r *http.Request, prefix string) []string {
	path := strings.TrimPrefix(r.URL.Path, prefix)
	path = strings.Trim(path, "/")
	if path == "" {
		return nil
	}
	return strings.Split(path, "/")
}

func parseID(value string) (uint, bool) {
	parsed, err := strconv.ParseUint(value, 10, 64)
	if err != nil || parsed == 0 {
		return 0, false
	}
	return uint(parsed), true
}

// invalidateDashboard drops the cached dashboard after any mutation that
// changes what it reports.
func invalidateDashboard(ctx context.Context) {
	if reporter == nil {
		return
	}
	reporter.InvalidateDashboard(ctx)
}
