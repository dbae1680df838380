package http

import (
	"net/http"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/log"
	"spendwise/internal/report"
)

// handleListExpenses returns the user's expenses, newest first. Range and
// category selectors, when present, filter the list.
func (s *Server) handleListExpenses(w http.ResponseWriter, r *http.Request, u core.User) {
	list, err := s.deps.Expenses.List(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	q := r.URL.Query()
	if q.Has("range") || q.Has("category") {
		rq, err := ParseReportQuery(q)
		if err != nil {
			writeServiceError(w, r, err)
			return
		}
		list = rq.Filter(list, s.now())
	}

	v := s.viewerFor(r, u.ID)
	writeJSON(w, r, http.StatusOK, map[string]any{
		"currency": v.currency,
		"count":    len(list),
		"expenses": v.expenses(list),
	})
}

func (s *Server) handleCreateExpense(w http.ResponseWriter, r *http.Request, u core.User) {
	p, err := ParseBody(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	e, err := s.deps.Expenses.Create(r.Context(), u.ID, p.ExpenseDraft())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense created",
		log.NewFields().
			WithOperation(log.OpCreate).
			WithExpense(e.ID, e.Amount.Cents, string(e.Category)).
			ToSlice()...)

	NewResponse().
		Status(http.StatusCreated).
		Header("Location", "/api/expenses/"+e.ID).
		TriggerExpensesChanged(s.deps.Expenses.Version(u.ID)).
		TriggerNotification(NotificationSuccess, "Expense saved").
		JSON(s.viewerFor(r, u.ID).expense(e)).
		Write(w, r)
}

func (s *Server) handleUpdateExpense(w http.ResponseWriter, r *http.Request, u core.User) {
	id := strings.TrimSpace(r.PathValue("id"))
	p, err := ParseBody(w, r)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	e, err := s.deps.Expenses.Update(r.Context(), u.ID, id, p.ExpenseDraft())
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	NewResponse().
		Status(http.StatusOK).
		TriggerExpensesChanged(s.deps.Expenses.Version(u.ID)).
		TriggerNotification(NotificationSuccess, "Expense updated").
		JSON(s.viewerFor(r, u.ID).expense(e)).
		Write(w, r)
}

func (s *Server) handleDeleteExpense(w http.ResponseWriter, r *http.Request, u core.User) {
	id := strings.TrimSpace(r.PathValue("id"))
	if err := s.deps.Expenses.Delete(r.Context(), u.ID, id); err != nil {
		writeServiceError(w, r, err)
		return
	}

	log.FromContext(r.Context()).InfoContext(r.Context(), "Expense deleted",
		log.FieldOperation, log.OpDelete,
		log.FieldExpenseID, id)

	NewResponse().
		Status(http.StatusNoContent).
		TriggerExpensesChanged(s.deps.Expenses.Version(u.ID)).
		Write(w, r)
}

// handleCategories lists the fixed categories and the report selector
// options built from the categories in use.
func (s *Server) handleCategories(w http.ResponseWriter, r *http.Request, u core.User) {
	list, err := s.deps.Expenses.List(r.Context(), u.ID)
	if err != nil {
		writeServiceError(w, r, err)
		return
	}

	all := make([]string, 0, len(core.Categories()))
	for _, c := range core.Categories() {
		all = append(all, string(c))
	}
	writeJSON(w, r, http.StatusOK, map[string][]string{
		"categories": all,
		"options":    report.Categories(list),
	})
}
