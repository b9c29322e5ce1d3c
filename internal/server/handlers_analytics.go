package server

import (
	"errors"
	"net/http"
	"strconv"
	"time"

	"crm-insights/internal/analytics"
	"crm-insights/internal/metrics"
	"crm-insights/internal/table"
)

// requireData fetches the current snapshot or writes the no-data error.
func (s *Server) requireData(w http.ResponseWriter) (*table.Table, bool) {
	tbl, _ := s.snapshot()
	if tbl == nil {
		writeError(w, http.StatusNotFound, "no_data", "no data uploaded yet")
		return nil, false
	}
	return tbl, true
}

// writeAnalytics maps engine outcomes to HTTP: column-resolution failures
// are the caller's data problem (422), anything else is served as-is —
// empty results are valid payloads, not errors.
func writeAnalytics(w http.ResponseWriter, operation string, payload interface{}, err error) {
	if err != nil {
		var notFound *analytics.ColumnNotFoundError
		if errors.As(err, &notFound) {
			metrics.AnalyticsRuns.WithLabelValues(operation, "column_not_found").Inc()
			writeJSON(w, http.StatusUnprocessableEntity, map[string]interface{}{
				"error":      "column_not_found",
				"message":    notFound.Error(),
				"candidates": notFound.Candidates,
				"available":  notFound.Available,
			})
			return
		}
		metrics.AnalyticsRuns.WithLabelValues(operation, "error").Inc()
		writeError(w, http.StatusInternalServerError, "analytics_failed", err.Error())
		return
	}
	metrics.AnalyticsRuns.WithLabelValues(operation, "ok").Inc()
	writeJSON(w, http.StatusOK, payload)
}

func queryFloat(r *http.Request, name string, fallback float64) float64 {
	raw := r.URL.Query().Get(name)
	if raw == "" {
		return fallback
	}
	value, err := strconv.ParseFloat(raw, 64)
	if err != nil || value <= 0 {
		return fallback
	}
	return value
}

func (s *Server) handleLifetime(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.requireData(w)
	if !ok {
		return
	}
	result, err := analytics.CustomerLifetime(tbl, "", "")
	writeAnalytics(w, "lifetime", result, err)
}

func (s *Server) handleLTV(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.requireData(w)
	if !ok {
		return
	}
	result, err := analytics.LifetimeValue(tbl, "", "")
	writeAnalytics(w, "ltv", result, err)
}

func (s *Server) handleGaps(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.requireData(w)
	if !ok {
		return
	}
	threshold := queryFloat(r, "threshold", analytics.DefaultGapThreshold)
	gaps, err := analytics.DetectGaps(tbl, "", "", threshold)
	if gaps == nil {
		gaps = []analytics.Gap{}
	}
	writeAnalytics(w, "gaps", gaps, err)
}

func (s *Server) handleEnrollment(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.requireData(w)
	if !ok {
		return
	}
	ranking, err := analytics.EnrollmentByMonth(tbl, "")
	writeAnalytics(w, "enrollment", ranking, err)
}

// handleCancellations supports interactive sensitivity analysis: gap_months
// and as_of come from the query string and never touch the stored table.
func (s *Server) handleCancellations(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.requireData(w)
	if !ok {
		return
	}
	gapMonths := queryFloat(r, "gap_months", analytics.DefaultCancellationMonths)
	now := time.Now().UTC()
	if raw := r.URL.Query().Get("as_of"); raw != "" {
		parsed, err := table.ParseDate(raw)
		if err != nil {
			writeError(w, http.StatusBadRequest, "bad_request", "invalid as_of date")
			return
		}
		now = parsed
	}
	ranking, err := analytics.CancellationByMonth(tbl, "", gapMonths, now)
	writeAnalytics(w, "cancellations", ranking, err)
}

func (s *Server) handleMonthlyRevenue(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.requireData(w)
	if !ok {
		return
	}
	months, err := analytics.MonthlyRevenue(tbl, "", "")
	if months == nil {
		months = []analytics.MonthRevenue{}
	}
	writeAnalytics(w, "revenue_monthly", months, err)
}

func (s *Server) handleYearlyRevenue(w http.ResponseWriter, r *http.Request) {
	tbl, ok := s.requireData(w)
	if !ok {
		return
	}
	years, err := analytics.YearlyRevenue(tbl, "", "")
	if years == nil {
		years = []analytics.YearRevenue{}
	}
	writeAnalytics(w, "revenue_yearly", years, err)
}
