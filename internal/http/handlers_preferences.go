package http

import (
	"net/http"

	"spendwise/internal/core"
	"spendwise/internal/preferences"
)

func (s *Server) handleGetPreferences(w http.ResponseWriter, r *http.Request, u core.User) {
	p, err := s.deps.Preferences.Get(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}

// handleSavePreferences merges the submitted fields into the current
// preferences, so a client may send only the field it changes.
func (s *Server) handleSavePreferences(w http.ResponseWriter, r *http.Request, u core.User) {
	body, err := ParseBody(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	p, err := s.deps.Preferences.Get(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	if body.Has("currency") {
		p.Currency = body.Get("currency")
	}
	if body.Has("theme") {
		p.Theme = preferences.Theme(body.Get("theme"))
	}

	saved, err := s.deps.Preferences.Save(r.Context(), u.ID, p)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	// Amounts render in the new currency, so dashboards must refresh.
	NewResponse().
		Status(http.StatusOK).
		TriggerExpensesChanged(s.deps.Expenses.Version(u.ID)).
		JSON(saved).
		Write(w, r)
}

func (s *Server) handleResetPreferences(w http.ResponseWriter, r *http.Request, u core.User) {
	p, err := s.deps.Preferences.Reset(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}
	writeJSON(w, r, http.StatusOK, p)
}
