package main

import (
	"fmt"
	"strings"

	"spendwise/internal/core"
	"spendwise/internal/format"
	"spendwise/internal/report"

	"github.com/charmbracelet/lipgloss"
	"github.com/charmbracelet/lipgloss/table"
)

var (
	colorBorder = lipgloss.Color("#575653")
	colorMuted  = lipgloss.Color("#6F6E69")
	colorText   = lipgloss.Color("#FFFCF0")
	colorAccent = lipgloss.Color("#3AA99F")
	colorGreen  = lipgloss.Color("#879A39")
	colorRed    = lipgloss.Color("#D14D41")
	colorBlue   = lipgloss.Color("#4385BE")
)

var (
	titleStyle = lipgloss.NewStyle().
			Bold(true).
			Foreground(colorText).
			Border(lipgloss.RoundedBorder()).
			BorderForeground(colorBorder).
			Padding(0, 2)

	headerStyle  = lipgloss.NewStyle().Bold(true).Foreground(colorAccent).Padding(0, 1)
	cellStyle    = lipgloss.NewStyle().Foreground(colorText).Padding(0, 1)
	numberStyle  = cellStyle.Align(lipgloss.Right)
	labelStyle   = lipgloss.NewStyle().Foreground(colorAccent)
	valueStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorText)
	mutedStyle   = lipgloss.NewStyle().Foreground(colorMuted)
	successStyle = lipgloss.NewStyle().Bold(true).Foreground(colorGreen)
	errorStyle   = lipgloss.NewStyle().Bold(true).Foreground(colorRed)
	upStyle      = lipgloss.NewStyle().Foreground(colorRed)
	downStyle    = lipgloss.NewStyle().Foreground(colorGreen)
	barStyle     = lipgloss.NewStyle().Foreground(colorBlue)
)

const barWidth = 24

func formatMoney(m core.Money, currency string) string {
	return format.FormatCurrency(m, currency)
}

// newTable builds a bordered table whose columns listed in numeric are
// right-aligned.
func newTable(headers []string, rows [][]string, numeric ...int) *table.Table {
	right := make(map[int]bool, len(numeric))
	for _, c := range numeric {
		right[c] = true
	}
	return table.New().
		Border(lipgloss.RoundedBorder()).
		BorderStyle(lipgloss.NewStyle().Foreground(colorBorder)).
		Headers(headers...).
		Rows(rows...).
		StyleFunc(func(row, col int) lipgloss.Style {
			switch {
			case row == table.HeaderRow:
				return headerStyle
			case right[col]:
				return numberStyle
			default:
				return cellStyle
			}
		})
}

func expenseRows(list []core.Expense, currency string) [][]string {
	rows := make([][]string, 0, len(list))
	for _, e := range list {
		date := "-"
		if !e.Date.IsZero() {
			date = format.FormatDate(e.Date.Time, format.Medium)
		}
		rows = append(rows, []string{date, e.Title, string(e.Category), formatMoney(e.Amount, currency)})
	}
	return rows
}

func renderExpenses(list []core.Expense, currency string) string {
	return newTable([]string{"Date", "Title", "Category", "Amount"}, expenseRows(list, currency), 3).String()
}

func renderChange(c report.Change) string {
	s := fmt.Sprintf("%+.1f%%", c.Percent)
	if c.Increase() {
		return upStyle.Render(s)
	}
	return downStyle.Render(s)
}

// bars renders each total as a bar scaled to the largest one.
func bars(labels []string, totals []core.Money, currency string) [][]string {
	var peak int64
	for _, t := range totals {
		if t.Cents > peak {
			peak = t.Cents
		}
	}
	rows := make([][]string, len(labels))
	for i, label := range labels {
		n := 0
		if peak > 0 {
			n = int(totals[i].Cents * barWidth / peak)
		}
		rows[i] = []string{label, formatMoney(totals[i], currency), barStyle.Render(strings.Repeat("█", n))}
	}
	return rows
}

func categoryBars(totals []report.CategoryTotal, currency string) string {
	labels := make([]string, len(totals))
	amounts := make([]core.Money, len(totals))
	for i, t := range totals {
		labels[i], amounts[i] = t.Category, t.Total
	}
	return newTable([]string{"Category", "Total", ""}, bars(labels, amounts, currency), 1).String()
}

func monthBars(buckets []report.MonthBucket, currency string) string {
	labels := make([]string, len(buckets))
	amounts := make([]core.Money, len(buckets))
	for i, b := range buckets {
		labels[i], amounts[i] = b.Label, b.Total
	}
	return newTable([]string{"Month", "Total", ""}, bars(labels, amounts, currency), 1).String()
}

func renderDashboard(title string, d report.Dashboard, currency string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(title) + "\n")

	top := "-"
	if d.Top.Category != "" {
		top = fmt.Sprintf("%s (%s)", d.Top.Category, formatMoney(d.Top.Total, currency))
	}
	stats := [][]string{
		{"Total spent", formatMoney(d.Total, currency)},
		{"Expenses", fmt.Sprint(d.Count)},
		{"This month", formatMoney(d.Change.Current, currency)},
		{"Last month", formatMoney(d.Change.Previous, currency)},
		{"Change", renderChange(d.Change)},
		{"Top category", top},
		{"Daily average", formatMoney(d.AverageDaily, currency)},
	}
	b.WriteString(newTable([]string{"Overview", ""}, stats, 1).String() + "\n")

	if len(d.CategoryTotals) > 0 {
		b.WriteString(categoryBars(d.CategoryTotals, currency) + "\n")
	}
	if len(d.Monthly) > 0 {
		b.WriteString(monthBars(d.Monthly, currency) + "\n")
	}
	if len(d.Recent) > 0 {
		b.WriteString(labelStyle.Render("Recent") + "\n")
		b.WriteString(renderExpenses(d.Recent, currency))
	}
	return strings.TrimRight(b.String(), "\n")
}

func renderReport(r report.Report, currency string) string {
	var b strings.Builder
	b.WriteString(titleStyle.Render(fmt.Sprintf("REPORT  %s  %s", r.Query.Range, r.Query.Category)) + "\n")

	if r.Count == 0 {
		b.WriteString(mutedStyle.Render("No expenses in this selection."))
		return b.String()
	}

	stats := [][]string{
		{"Total", formatMoney(r.Total, currency)},
		{"Expenses", fmt.Sprint(r.Count)},
		{"Average per expense", formatMoney(r.AverageTransaction, currency)},
		{"Average per month", formatMoney(r.AverageMonthly, currency)},
		{"This month", formatMoney(r.ThisMonth, currency)},
		{"Change", renderChange(r.Change)},
	}
	b.WriteString(newTable([]string{"Summary", ""}, stats, 1).String() + "\n")
	b.WriteString(categoryBars(r.CategoryTotals, currency) + "\n")
	b.WriteString(monthBars(r.Monthly, currency) + "\n")

	days := make([][]string, 0, len(r.Weekdays))
	for _, d := range r.Weekdays {
		days = append(days, []string{d.Label, formatMoney(d.Total, currency)})
	}
	b.WriteString(newTable([]string{"Weekday", "Total"}, days, 1).String() + "\n")

	if len(r.Projection) > 0 {
		points := make([][]string, 0, len(r.Projection))
		for _, p := range r.Projection {
			kind := "actual"
			if p.Predicted {
				kind = "projected"
			}
			points = append(points, []string{p.Label, formatMoney(p.Amount, currency), mutedStyle.Render(kind)})
		}
		b.WriteString(newTable([]string{"Projection", "Amount", ""}, points, 1).String() + "\n")
	}
	return strings.TrimRight(b.String(), "\n")
}
