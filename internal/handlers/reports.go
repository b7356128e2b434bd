package handlers

import (
	"encoding/json"
	"errors"
	"net/http"
	"strconv"
	"time"

	applog "nutriaudit/internal/log"
	"nutriaudit/internal/reports"
)

type comparisonRequest struct {
	InstitutionIDs []uint `json:"institution_ids"`
	StartDate      string `json:"start_date"`
	EndDate        string `json:"end_date"`
}

// Reports dispatches the aggregate report endpoints.
func Reports(w http.ResponseWriter, r *http.Request) {
	if reporter == nil {
		writeJSONError(w, http.StatusServiceUnavailable, "service unavailable")
		return
	}

	segments := resourcePath(r, "/api/reports")
	if segments == nil {
		http.NotFound(w, r)
		return
	}

	switch segments[0] {
	case "dashboard":
		requireGet(w, r, dashboardReport)
	case "visits-by-period":
		requireGet(w, r, visitsByPeriodReport)
	case "ranking":
		requireGet(w, r, rankingReport)
	case "institutions":
		if len(segments) < 2 {
			http.NotFound(w, r)
			return
		}
		institutionID, ok := parseID(segments[1])
		if !ok {
			http.NotFound(w, r)
			return
		}
		requireGet(w, r, func(w http.ResponseWriter, r *http.Request) {
			institutionReport(w, r, institutionID)
		})
	case "comparison":
		if r.Method != http.MethodPost {
			w.WriteHeader(http.StatusMethodNotAllowed)
			return
		}
		comparisonReport(w, r)
	default:
		http.NotFound(w, r)
	}
}

func requireGet(w http.ResponseWriter, r *http.Request, handler http.HandlerFunc) {
	if r.Method != http.MethodGet {
		w.WriteHeader(http.StatusMethodNotAllowed)
		return
	}
	handler(w, r)
}

func dashboardReport(w http.ResponseWriter, r *http.Request) {
	summary, err := reporter.DashboardSummary(r.Context())
	if err != nil {
		applog.Error(r.Context(), "failed to build dashboard summary", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to build dashboard summary")
		return
	}
	writeJSON(w, http.StatusOK, summary)
}

func visitsByPeriodReport(w http.ResponseWriter, r *http.Request) {
	filter, ok := queryFilter(w, r)
	if !ok {
		return
	}

	series, err := reporter.VisitsByPeriod(r.Context(), filter)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, series)
}

func institutionReport(w http.ResponseWriter, r *http.Request, institutionID uint) {
	filter, ok := queryFilter(w, r)
	if !ok {
		return
	}

	report, err := reporter.InstitutionReport(r.Context(), institutionID, filter)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, report)
}

func rankingReport(w http.ResponseWriter, r *http.Request) {
	filter, ok := queryFilter(w, r)
	if !ok {
		return
	}
	if raw := r.URL.Query().Get("limit"); raw != "" {
		parsed, err := strconv.Atoi(raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "limit must be an integer")
			return
		}
		filter.Limit = &parsed
	}

	rows, err := reporter.Ranking(r.Context(), filter)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

func comparisonReport(w http.ResponseWriter, r *http.Request) {
	var payload comparisonRequest
	if err := json.NewDecoder(r.Body).Decode(&payload); err != nil {
		applog.Debug(r.Context(), "invalid comparison payload", "error", err)
		writeJSONError(w, http.StatusBadRequest, "invalid request payload")
		return
	}

	filter := reports.Filter{InstitutionIDs: payload.InstitutionIDs}
	if payload.StartDate != "" {
		start, err := time.Parse(dateLayout, payload.StartDate)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "start_date must be formatted as YYYY-MM-DD")
			return
		}
		filter.StartDate = &start
	}
	if payload.EndDate != "" {
		end, err := time.Parse(dateLayout, payload.EndDate)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "end_date must be formatted as YYYY-MM-DD")
			return
		}
		filter.EndDate = &end
	}

	rows, err := reporter.Comparison(r.Context(), filter)
	if err != nil {
		respondReportError(w, r, err)
		return
	}
	writeJSON(w, http.StatusOK, rows)
}

// queryFilter parses the shared start_date and end_date query parameters.
func queryFilter(w http.ResponseWriter, r *http.Request) (reports.Filter, bool) {
	var filter reports.Filter
	if raw := r.URL.Query().Get("start_date"); raw != "" {
		start, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "start_date must be formatted as YYYY-MM-DD")
			return filter, false
		}
		filter.StartDate = &start
	}
	if raw := r.URL.Query().Get("end_date"); raw != "" {
		end, err := time.Parse(dateLayout, raw)
		if err != nil {
			writeJSONError(w, http.StatusBadRequest, "end_date must be formatted as YYYY-MM-DD")
			return filter, false
		}
		filter.EndDate = &end
	}
	return filter, true
}

func respondReportError(w http.ResponseWriter, r *http.Request, err error) {
	switch {
	case errors.Is(err, reports.ErrInstitutionNotFound):
		http.NotFound(w, r)
	case errors.Is(err, reports.ErrInvalidDateRange), errors.Is(err, reports.ErrInvalidLimit):
		writeJSONError(w, http.StatusBadRequest, err.Error())
	default:
		applog.Error(r.Context(), "failed to build report", "error", err)
		writeJSONError(w, http.StatusInternalServerError, "unable to build report")
	}
}
