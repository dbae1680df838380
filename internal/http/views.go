package http

import (
	"time"

	"spendwise/internal/core"
	"spendwise/internal/format"
	"spendwise/internal/preferences"
	"spendwise/internal/report"
)

// Views are the JSON shapes of API responses. Money is sent both as a
// number for charts and as a string formatted in the user's currency.

type expenseView struct {
	ID              string     `json:"id"`
	Title           string     `json:"title"`
	Description     string     `json:"description,omitempty"`
	Notes           string     `json:"notes,omitempty"`
	Category        string     `json:"category"`
	Amount          float64    `json:"amount"`
	AmountCents     int64      `json:"amountCents"`
	FormattedAmount string     `json:"formattedAmount"`
	Date            string     `json:"date"`
	FormattedDate   string     `json:"formattedDate"`
	CreatedAt       time.Time  `json:"createdAt"`
	UpdatedAt       *time.Time `json:"updatedAt,omitempty"`
}

// seriesPoint is one chart datum.
type seriesPoint struct {
	Label     string  `json:"label"`
	Amount    float64 `json:"amount"`
	Predicted bool    `json:"predicted,omitempty"`
}

type amountView struct {
	Amount          float64 `json:"amount"`
	FormattedAmount string  `json:"formattedAmount"`
}

type categoryView struct {
	Category        string  `json:"category"`
	Amount          float64 `json:"amount"`
	FormattedAmount string  `json:"formattedAmount"`
}

type changeView struct {
	Current  amountView `json:"current"`
	Previous amountView `json:"previous"`
	Percent  float64    `json:"percent"`
	Increase bool       `json:"increase"`
}

type dashboardView struct {
	Currency       string        `json:"currency"`
	Total          amountView    `json:"total"`
	Count          int           `json:"count"`
	Change         changeView    `json:"monthOverMonth"`
	TopCategory    categoryView  `json:"topCategory"`
	AverageDaily   amountView    `json:"averageDaily"`
	CategoryTotals []seriesPoint `json:"categoryTotals"`
	Monthly        []seriesPoint `json:"monthly"`
	Recent         []expenseView `json:"recent"`
}

type reportView struct {
	Currency           string        `json:"currency"`
	Range              string        `json:"range"`
	Category           string        `json:"category"`
	Categories         []string      `json:"categories"`
	Total              amountView    `json:"total"`
	Count              int           `json:"count"`
	ThisMonth          amountView    `json:"thisMonth"`
	Change             changeView    `json:"monthOverMonth"`
	TopCategory        categoryView  `json:"topCategory"`
	AverageTransaction amountView    `json:"averageTransaction"`
	AverageMonthly     amountView    `json:"averageMonthly"`
	Monthly            []seriesPoint `json:"monthly"`
	Projection         []seriesPoint `json:"projection,omitempty"`
	CategoryTotals     []seriesPoint `json:"categoryTotals"`
	Weekdays           []seriesPoint `json:"weekdays"`
	Expenses           []expenseView `json:"expenses"`
}

type userView struct {
	ID          string    `json:"id"`
	Email       string    `json:"email"`
	DisplayName string    `json:"displayName"`
	CreatedAt   time.Time `json:"createdAt"`
}

type sessionView struct {
	User      userView  `json:"user"`
	Token     string    `json:"token"`
	ExpiresAt time.Time `json:"expiresAt"`
}

// viewer renders domain values in one user's currency.
type viewer struct {
	currency string
}

func newViewer(p preferences.Preferences) viewer {
	return viewer{currency: p.Currency}
}

func (v viewer) amount(m core.Money) amountView {
	return amountView{Amount: m.Units(), FormattedAmount: format.FormatCurrency(m, v.currency)}
}

func (v viewer) expense(e core.Expense) expenseView {
	out := expenseView{
		ID:              e.ID,
		Title:           e.Title,
		Description:     e.Description,
		Notes:           e.Notes,
		Category:        string(e.Category),
		Amount:          e.Amount.Units(),
		AmountCents:     e.Amount.Cents,
		FormattedAmount: format.FormatCurrency(e.Amount, v.currency),
		Date:            e.Date.String(),
		FormattedDate:   format.FormatDate(e.Date.Time, format.Medium),
		CreatedAt:       e.CreatedAt,
	}
	if !e.UpdatedAt.IsZero() {
		t := e.UpdatedAt
		out.UpdatedAt = &t
	}
	return out
}

func (v viewer) expenses(list []core.Expense) []expenseView {
	out := make([]expenseView, 0, len(list))
	for _, e := range list {
		out = append(out, v.expense(e))
	}
	return out
}

func (v viewer) change(c report.Change) changeView {
	return changeView{
		Current:  v.amount(c.Current),
		Previous: v.amount(c.Previous),
		Percent:  c.Percent,
		Increase: c.Increase(),
	}
}

func (v viewer) category(c report.CategoryTotal) categoryView {
	return categoryView{
		Category:        c.Category,
		Amount:          c.Total.Units(),
		FormattedAmount: format.FormatCurrency(c.Total, v.currency),
	}
}

func categorySeries(totals []report.CategoryTotal) []seriesPoint {
	out := make([]seriesPoint, 0, len(totals))
	for _, c := range totals {
		out = append(out, seriesPoint{Label: c.Category, Amount: c.Total.Units()})
	}
	return out
}

func monthSeries(buckets []report.MonthBucket) []seriesPoint {
	out := make([]seriesPoint, 0, len(buckets))
	for _, b := range buckets {
		out = append(out, seriesPoint{Label: b.Label, Amount: b.Total.Units()})
	}
	return out
}

func weekdaySeries(days []report.WeekdayTotal) []seriesPoint {
	out := make([]seriesPoint, 0, len(days))
	for _, d := range days {
		out = append(out, seriesPoint{Label: d.Label, Amount: d.Total.Units()})
	}
	return out
}

func projectionSeries(points []report.ProjectionPoint) []seriesPoint {
	out := make([]seriesPoint, 0, len(points))
	for _, p := range points {
		out = append(out, seriesPoint{Label: p.Label, Amount: p.Amount.Units(), Predicted: p.Predicted})
	}
	return out
}

func (v viewer) dashboard(d report.Dashboard) dashboardView {
	return dashboardView{
		Currency:       v.currency,
		Total:          v.amount(d.Total),
		Count:          d.Count,
		Change:         v.change(d.Change),
		TopCategory:    v.category(d.Top),
		AverageDaily:   v.amount(d.AverageDaily),
		CategoryTotals: categorySeries(d.CategoryTotals),
		Monthly:        monthSeries(d.Monthly),
		Recent:         v.expenses(d.Recent),
	}
}

func (v viewer) report(r report.Report, categories []string) reportView {
	out := reportView{
		Currency:           v.currency,
		Range:              string(r.Query.Range),
		Category:           r.Query.Category,
		Categories:         categories,
		Total:              v.amount(r.Total),
		Count:              r.Count,
		ThisMonth:          v.amount(r.ThisMonth),
		Change:             v.change(r.Change),
		TopCategory:        v.category(r.Top),
		AverageTransaction: v.amount(r.AverageTransaction),
		AverageMonthly:     v.amount(r.AverageMonthly),
		Monthly:            monthSeries(r.Monthly),
		CategoryTotals:     categorySeries(r.CategoryTotals),
		Weekdays:           weekdaySeries(r.Weekdays),
		Expenses:           v.expenses(r.Expenses),
	}
	if len(r.Projection) > 0 {
		out.Projection = projectionSeries(r.Projection)
	}
	return out
}

func toUserView(u core.User) userView {
	return userView{ID: u.ID, Email: u.Email, DisplayName: u.DisplayName, CreatedAt: u.CreatedAt}
}
