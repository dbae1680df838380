package http

import (
	"encoding/json"
	"errors"
	"net/http"
	"net/http/httptest"
	"strings"
	"testing"
	"time"

	"spendwise/internal/auth"
	"spendwise/internal/core"
	"spendwise/internal/preferences"
	"spendwise/internal/services"
	sheetsmem "spendwise/internal/sheets/memory"
	"spendwise/internal/storage/memory"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"
	"golang.org/x/crypto/bcrypt"
)

type testEnv struct {
	srv    *Server
	store  *memory.Store
	sheets *sheetsmem.Writer
}

func newTestEnv(t *testing.T) *testEnv {
	t.Helper()
	store := memory.New()
	expenses := services.NewExpenseService(store)
	sheets := sheetsmem.New()
	deps := Deps{
		Auth:        auth.NewService(store, expenses, time.Hour, auth.WithHashCost(bcrypt.MinCost)),
		Expenses:    expenses,
		Preferences: preferences.NewService(store, "USD"),
		Exports:     services.NewExportService(expenses, sheets, nil, "Expenses"),
		Store:       store,
	}
	srv := NewServer(":0", deps, Options{
		RateLimitPerMinute: 1000,
		DashboardCacheSize: 16,
		DashboardCacheTTL:  time.Minute,
	})
	return &testEnv{srv: srv, store: store, sheets: sheets}
}

func (e *testEnv) do(t *testing.T, method, path, token, body string) *httptest.ResponseRecorder {
	t.Helper()
	req := httptest.NewRequest(method, path, strings.NewReader(body))
	if body != "" {
		req.Header.Set("Content-Type", "application/json")
	}
	if token != "" {
		req.Header.Set("Authorization", "Bearer "+token)
	}
	rec := httptest.NewRecorder()
	e.srv.Handler.ServeHTTP(rec, req)
	return rec
}

func (e *testEnv) signUp(t *testing.T, email string) string {
	t.Helper()
	rec := e.do(t, http.MethodPost, "/api/auth/signup", "",
		`{"email":"`+email+`","password":"correct horse","displayName":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())

	var sess sessionView
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &sess))
	require.NotEmpty(t, sess.Token)
	return sess.Token
}

func decode[T any](t *testing.T, rec *httptest.ResponseRecorder) T {
	t.Helper()
	var v T
	require.NoError(t, json.Unmarshal(rec.Body.Bytes(), &v), rec.Body.String())
	return v
}

func today() string {
	return time.Now().Format(core.DateLayout)
}

func expenseJSON(title, amount, category string) string {
	return `{"title":"` + title + `","amount":"` + amount + `","category":"` + category + `","date":"` + today() + `"}`
}

func TestHealthAndReady(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodGet, "/healthz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.NotEmpty(t, rec.Header().Get("X-Request-ID"))

	rec = env.do(t, http.MethodGet, "/readyz", "", "")
	assert.Equal(t, http.StatusOK, rec.Code)
	assert.Contains(t, rec.Body.String(), "ready")
}

func TestAPIRequiresSession(t *testing.T) {
	env := newTestEnv(t)

	for _, path := range []string{"/api/expenses", "/api/dashboard", "/api/reports", "/api/preferences", "/api/account"} {
		rec := env.do(t, http.MethodGet, path, "", "")
		assert.Equal(t, http.StatusUnauthorized, rec.Code, path)
	}

	rec := env.do(t, http.MethodGet, "/api/expenses", "not-a-token", "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "no-store", rec.Header().Get("Cache-Control"))
}

func TestSignUpSetsCookieAndSignIn(t *testing.T) {
	env := newTestEnv(t)

	rec := env.do(t, http.MethodPost, "/api/auth/signup", "",
		`{"email":"ada@example.com","password":"correct horse","displayName":"Ada"}`)
	require.Equal(t, http.StatusCreated, rec.Code)
	cookies := rec.Result().Cookies()
	require.Len(t, cookies, 1)
	assert.Equal(t, sessionCookieName, cookies[0].Name)
	assert.True(t, cookies[0].HttpOnly)

	rec = env.do(t, http.MethodPost, "/api/auth/signup", "",
		`{"email":"ada@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "email already registered", decode[errorBody](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"ada@example.com","password":"wrong password"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
	assert.Equal(t, "invalid email or password", decode[errorBody](t, rec).Error)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"ADA@example.com","password":"correct horse"}`)
	require.Equal(t, http.StatusOK, rec.Code)
	sess := decode[sessionView](t, rec)
	assert.Equal(t, "ada@example.com", sess.User.Email)

	// Cookie authentication.
	req := httptest.NewRequest(http.MethodGet, "/api/account", nil)
	req.AddCookie(&http.Cookie{Name: sessionCookieName, Value: sess.Token})
	out := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(out, req)
	assert.Equal(t, http.StatusOK, out.Code)
	assert.Equal(t, "Ada", decode[userView](t, out).DisplayName)

	rec = env.do(t, http.MethodPost, "/api/auth/logout", sess.Token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)
	rec = env.do(t, http.MethodGet, "/api/account", sess.Token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestExpenseLifecycle(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/expenses", token, expenseJSON("Lunch", "1234.5", "food"))
	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	created := decode[expenseView](t, rec)
	assert.Equal(t, "Food", created.Category)
	assert.Equal(t, int64(123450), created.AmountCents)
	assert.Equal(t, "$1,234.50", created.FormattedAmount)
	assert.Equal(t, "/api/expenses/"+created.ID, rec.Header().Get("Location"))

	rec = env.do(t, http.MethodGet, "/api/expenses", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	list := decode[struct {
		Count    int           `json:"count"`
		Expenses []expenseView `json:"expenses"`
	}](t, rec)
	require.Equal(t, 1, list.Count)
	assert.Equal(t, created.ID, list.Expenses[0].ID)

	rec = env.do(t, http.MethodPut, "/api/expenses/"+created.ID, token, expenseJSON("Dinner", "20", "Food"))
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	updated := decode[expenseView](t, rec)
	assert.Equal(t, "Dinner", updated.Title)
	assert.Equal(t, "$20.00", updated.FormattedAmount)
	assert.NotNil(t, updated.UpdatedAt)
	assert.True(t, updated.CreatedAt.Equal(created.CreatedAt))

	rec = env.do(t, http.MethodDelete, "/api/expenses/"+created.ID, token, "")
	assert.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodPut, "/api/expenses/"+created.ID, token, expenseJSON("Dinner", "20", "Food"))
	assert.Equal(t, http.StatusNotFound, rec.Code)
	rec = env.do(t, http.MethodDelete, "/api/expenses/"+created.ID, token, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestExpensesAreScopedByUser(t *testing.T) {
	env := newTestEnv(t)
	ada := env.signUp(t, "ada@example.com")
	bob := env.signUp(t, "bob@example.com")

	rec := env.do(t, http.MethodPost, "/api/expenses", ada, expenseJSON("Lunch", "10", "Food"))
	require.Equal(t, http.StatusCreated, rec.Code)
	id := decode[expenseView](t, rec).ID

	rec = env.do(t, http.MethodGet, "/api/expenses", bob, "")
	assert.Contains(t, rec.Body.String(), `"count":0`)
	rec = env.do(t, http.MethodDelete, "/api/expenses/"+id, bob, "")
	assert.Equal(t, http.StatusNotFound, rec.Code)
}

func TestCreateExpenseValidation(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	tests := []struct {
		name  string
		body  string
		field string
	}{
		{"missing title", expenseJSON("", "10", "Food"), "title"},
		{"bad amount", expenseJSON("Lunch", "abc", "Food"), "amount"},
		{"negative amount", expenseJSON("Lunch", "-5", "Food"), "amount"},
		{"unknown category", expenseJSON("Lunch", "10", "Gadgets"), "category"},
		{"malformed body", `{"title":`, "body"},
	}

	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			rec := env.do(t, http.MethodPost, "/api/expenses", token, tt.body)
			require.Equal(t, http.StatusUnprocessableEntity, rec.Code, rec.Body.String())
			assert.Equal(t, tt.field, decode[errorBody](t, rec).Field)
		})
	}
}

func TestDashboardReflectsWrites(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	rec := env.do(t, http.MethodGet, "/api/dashboard", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, 0, decode[dashboardView](t, rec).Count)

	rec = env.do(t, http.MethodPost, "/api/expenses", token, expenseJSON("Lunch", "10", "Food"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/dashboard", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	dash := decode[dashboardView](t, rec)
	assert.Equal(t, 1, dash.Count)
	assert.Equal(t, "$10.00", dash.Total.FormattedAmount)
	assert.Equal(t, "Food", dash.TopCategory.Category)
	require.Len(t, dash.Recent, 1)
	// One entry per expense version.
	assert.Equal(t, 2, env.srv.dashboards.Size())
}

func TestReportQuery(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	for _, body := range []string{
		expenseJSON("Lunch", "10", "Food"),
		expenseJSON("Taxi", "25", "Transportation"),
	} {
		rec := env.do(t, http.MethodPost, "/api/expenses", token, body)
		require.Equal(t, http.StatusCreated, rec.Code)
	}

	rec := env.do(t, http.MethodGet, "/api/reports?range=1month&category=Food&predict=true", token, "")
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	rep := decode[reportView](t, rec)
	assert.Equal(t, "1month", rep.Range)
	assert.Equal(t, 1, rep.Count)
	assert.Equal(t, "$10.00", rep.Total.FormattedAmount)
	assert.Equal(t, []string{"all", "Food", "Transportation"}, rep.Categories)
	assert.NotEmpty(t, rep.Projection)

	rec = env.do(t, http.MethodGet, "/api/reports?range=fortnight", token, "")
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "range", decode[errorBody](t, rec).Field)
}

func TestPreferencesChangeCurrency(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	rec := env.do(t, http.MethodGet, "/api/preferences", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "USD", decode[preferences.Preferences](t, rec).Currency)

	rec = env.do(t, http.MethodPut, "/api/preferences", token, `{"currency":"eur"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	saved := decode[preferences.Preferences](t, rec)
	assert.Equal(t, "EUR", saved.Currency)
	assert.Equal(t, preferences.ThemeLight, saved.Theme)

	rec = env.do(t, http.MethodPost, "/api/expenses", token, expenseJSON("Lunch", "3", "Food"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Equal(t, "€3.00", decode[expenseView](t, rec).FormattedAmount)

	rec = env.do(t, http.MethodPut, "/api/preferences", token, `{"currency":"XYZ"}`)
	assert.Equal(t, http.StatusUnprocessableEntity, rec.Code)
	assert.Equal(t, "currency", decode[errorBody](t, rec).Field)

	rec = env.do(t, http.MethodDelete, "/api/preferences", token, "")
	require.Equal(t, http.StatusOK, rec.Code)
	assert.Equal(t, "USD", decode[preferences.Preferences](t, rec).Currency)
}

func TestExportWritesSheet(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/expenses", token, expenseJSON("Lunch", "10", "Food"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/export", token, `{"range":"all"}`)
	require.Equal(t, http.StatusOK, rec.Code, rec.Body.String())
	res := decode[services.ExportResult](t, rec)
	assert.False(t, res.Queued)
	assert.Equal(t, 1, res.Rows)

	table, ok := env.sheets.Table("Expenses")
	require.True(t, ok)
	assert.Equal(t, 1, table.Len())

	env.sheets.Err = errors.New("quota exceeded")
	rec = env.do(t, http.MethodPost, "/api/export", token, "")
	assert.Equal(t, http.StatusServiceUnavailable, rec.Code)
	assert.True(t, decode[errorBody](t, rec).Retryable)
}

func TestHTMXTriggerOnWrite(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	req := httptest.NewRequest(http.MethodPost, "/api/expenses",
		strings.NewReader("title=Lunch&amount=10&category=Food&date="+today()))
	req.Header.Set("Content-Type", "application/x-www-form-urlencoded")
	req.Header.Set("Authorization", "Bearer "+token)
	req.Header.Set("HX-Request", "true")
	rec := httptest.NewRecorder()
	env.srv.Handler.ServeHTTP(rec, req)

	require.Equal(t, http.StatusCreated, rec.Code, rec.Body.String())
	assert.Contains(t, rec.Header().Get("HX-Trigger"), EventExpensesChanged)

	rec = env.do(t, http.MethodPost, "/api/expenses", token, expenseJSON("Tea", "2", "Food"))
	require.Equal(t, http.StatusCreated, rec.Code)
	assert.Empty(t, rec.Header().Get("HX-Trigger"))
}

func TestDeleteAccountRemovesData(t *testing.T) {
	env := newTestEnv(t)
	token := env.signUp(t, "ada@example.com")

	rec := env.do(t, http.MethodPost, "/api/expenses", token, expenseJSON("Lunch", "10", "Food"))
	require.Equal(t, http.StatusCreated, rec.Code)

	rec = env.do(t, http.MethodDelete, "/api/account", token, "")
	require.Equal(t, http.StatusNoContent, rec.Code)

	rec = env.do(t, http.MethodGet, "/api/expenses", token, "")
	assert.Equal(t, http.StatusUnauthorized, rec.Code)

	rec = env.do(t, http.MethodPost, "/api/auth/login", "",
		`{"email":"ada@example.com","password":"correct horse"}`)
	assert.Equal(t, http.StatusUnauthorized, rec.Code)
}

func TestPathTraversalBlocked(t *testing.T) {
	env := newTestEnv(t)
	rec := env.do(t, http.MethodGet, "/api/expenses?file=../../etc/passwd", "", "")
	assert.Equal(t, http.StatusBadRequest, rec.Code)
}
