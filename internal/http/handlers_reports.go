package http

import (
	"bytes"
	"net/http"
	"time"

	"fintrack/internal/core"
	applog "fintrack/internal/log"
)

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request) {
	d, err := s.svc.Reports.Dashboard(r.Context(), session(r).UserID)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(map[string]any{"dashboard": d}).Write(w)
}

func (s *Server) handleMonthlyReport(w http.ResponseWriter, r *http.Request) {
	year, _, err := parseYearMonth(r.URL.Query(), time.Now(), 0)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	months, err := s.svc.Reports.Monthly(r.Context(), session(r).UserID, year)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(map[string]any{
		"year":   year,
		"months": months,
	}).Write(w)
}

// handleCategoryReport breaks down one month, or the whole year when no
// month is given.
func (s *Server) handleCategoryReport(w http.ResponseWriter, r *http.Request) {
	year, month, err := parseYearMonth(r.URL.Query(), time.Now(), 0)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	report, err := s.svc.Reports.Categories(r.Context(), session(r).UserID, year, month)
	if err != nil {
		s.fail(w, r, err, applog.OpRead)
		return
	}
	NewJSONResponse().Body(map[string]any{"report": report}).Write(w)
}

// handleExportCSV renders into a buffer first so that a failure still gets
// a JSON error instead of a truncated file.
func (s *Server) handleExportCSV(w http.ResponseWriter, r *http.Request) {
	userID := session(r).UserID
	var buf bytes.Buffer
	if err := s.svc.Reports.ExportCSV(r.Context(), userID, core.ParseCriteria(r.URL.Query()), &buf); err != nil {
		s.fail(w, r, err, applog.OpExport)
		return
	}

	applog.FromContext(r.Context()).InfoContext(r.Context(), "Exported expenses",
		applog.FieldUserID, userID, applog.FieldOperation, applog.OpExport, "bytes", buf.Len())
	w.Header().Set("Content-Type", "text/csv; charset=utf-8")
	w.Header().Set("Content-Disposition", `attachment; filename="expenses.csv"`)
	w.WriteHeader(http.StatusOK)
	_, _ = buf.WriteTo(w)
}
