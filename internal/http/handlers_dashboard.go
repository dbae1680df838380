package http

import (
	"fmt"
	"net/http"

	"spendwise/internal/core"
	"spendwise/internal/format"
	"spendwise/internal/log"
	"spendwise/internal/report"
)

// dashboardKey identifies one rendering of a user's dashboard. The
// expense version changes on every mutation and the day changes the
// current-month figures, so either invalidates the entry.
func (s *Server) dashboardKey(userID, currency string) string {
	return fmt.Sprintf("%s:%d:%s:%s", userID, s.deps.Expenses.Version(userID), currency,
		format.FormatDate(s.now(), format.ISO))
}

func (s *Server) handleDashboard(w http.ResponseWriter, r *http.Request, u core.User) {
	v := s.viewerFor(r, u.ID)
	key := s.dashboardKey(u.ID, v.currency)

	if cached, ok := s.dashboards.Get(key); ok {
		log.FromContext(r.Context()).DebugContext(r.Context(), "Dashboard cache hit", "cache_key", key)
		writeJSON(w, r, http.StatusOK, cached)
		return
	}

	list, err := s.deps.Expenses.List(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	view := v.dashboard(report.BuildDashboard(list, s.now()))
	// Re-read the key: a write that landed during the fetch must not be
	// cached under the newer version.
	if s.dashboardKey(u.ID, v.currency) == key {
		s.dashboards.Set(key, view)
	}
	writeJSON(w, r, http.StatusOK, view)
}

func (s *Server) handleReport(w http.ResponseWriter, r *http.Request, u core.User) {
	q, err := ParseReportQuery(r.URL.Query())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	list, err := s.deps.Expenses.List(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	rep := report.BuildReport(list, q, s.now())
	log.FromContext(r.Context()).DebugContext(r.Context(), "Report built",
		log.FieldOperation, log.OpReport,
		log.FieldRange, string(q.Range),
		log.FieldCategory, q.Category,
		"count", rep.Count)

	writeJSON(w, r, http.StatusOK, s.viewerFor(r, u.ID).report(rep, report.Categories(list)))
}

// handleExport exports the filtered expenses. The body may carry the same
// range and category selectors as the report query.
func (s *Server) handleExport(w http.ResponseWriter, r *http.Request, u core.User) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	values := r.URL.Query()
	for _, k := range []string{"range", "category"} {
		if p.Has(k) {
			values.Set(k, p.Get(k))
		}
	}
	q, err := ParseReportQuery(values)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	res, err := s.deps.Exports.Request(r.Context(), u.ID, q)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Export requested",
		log.FieldOperation, log.OpExport,
		log.FieldRange, string(q.Range),
		"queued", res.Queued,
		"rows", res.Rows)

	status := http.StatusOK
	msg := fmt.Sprintf("Exported %d expenses", res.Rows)
	if res.Queued {
		status = http.StatusAccepted
		msg = "Export queued"
	}
	NewResponse().
		Status(status).
		TriggerNotification(NotificationSuccess, msg).
		JSON(res).
		Write(w, r)
}
