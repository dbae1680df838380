package report

import (
	"time"

	"spendwise/internal/core"
)

// RecentLimit is the number of expenses listed on the dashboard.
const RecentLimit = 10

// Dashboard is the landing-page summary.
type Dashboard struct {
	Total          core.Money
	Count          int
	Change         Change
	Top            CategoryTotal
	AverageDaily   core.Money
	CategoryTotals []CategoryTotal
	Monthly        []MonthBucket
	Recent         []core.Expense
}

// BuildDashboard summarizes all of a user's expenses. Expenses are
// expected newest first, as the store returns them.
func BuildDashboard(expenses []core.Expense, now time.Time) Dashboard {
	totals := CategoryTotals(expenses)
	recent := expenses
	if len(recent) > RecentLimit {
		recent = recent[:RecentLimit]
	}
	return Dashboard{
		Total:          Total(expenses),
		Count:          Count(expenses),
		Change:         MonthOverMonth(expenses, now),
		Top:            topOf(totals),
		AverageDaily:   AverageDaily(expenses, now),
		CategoryTotals: totals,
		Monthly:        MonthlyTotals(expenses, now, DefaultWindow),
		Recent:         recent,
	}
}

// Query selects the expenses a Report covers.
type Query struct {
	Range    Range
	Category string
	Predict  bool
}

// Report is the filtered analysis view.
type Report struct {
	Query          Query
	Expenses       []core.Expense
	Total          core.Money
	Count          int
	Monthly        []MonthBucket
	Projection     []ProjectionPoint
	CategoryTotals []CategoryTotal
	Weekdays       []WeekdayTotal
	AverageMonthly core.Money

	ThisMonth          core.Money
	Change             Change
	Top                CategoryTotal
	AverageTransaction core.Money
}

// Filter applies the query's range and category selectors.
func (q Query) Filter(expenses []core.Expense, now time.Time) []core.Expense {
	return FilterByCategory(FilterByRange(expenses, q.Range, now), q.Category)
}

// BuildReport filters expenses by q and computes every report metric
// over the filtered set.
func BuildReport(expenses []core.Expense, q Query, now time.Time) Report {
	filtered := q.Filter(expenses, now)
	history := MonthlyHistory(filtered)
	totals := CategoryTotals(filtered)
	change := MonthOverMonth(filtered, now)

	r := Report{
		Query:              q,
		Expenses:           filtered,
		Total:              Total(filtered),
		Count:              Count(filtered),
		Monthly:            history,
		CategoryTotals:     totals,
		Weekdays:           WeekdayTotals(filtered),
		AverageMonthly:     AverageMonthly(history),
		ThisMonth:          change.Current,
		Change:             change,
		Top:                topOf(totals),
		AverageTransaction: AveragePerTransaction(filtered),
	}
	if q.Predict && len(history) > 0 {
		r.Projection = Project(history[len(history)-1].Total)
	}
	return r
}

// Categories lists the category selector options: AllCategories followed
// by each distinct category label in first-seen order.
func Categories(expenses []core.Expense) []string {
	out := []string{AllCategories}
	seen := make(map[string]bool)
	for _, e := range expenses {
		label := e.Category.Label()
		if seen[label] {
			continue
		}
		seen[label] = true
		out = append(out, label)
	}
	return out
}
