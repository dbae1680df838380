// Package report computes dashboard and report views over a user's
// expenses. Every function is pure: results depend only on the input
// slice and the supplied reference time.
package report

import (
	"sort"
	"time"

	"spendwise/internal/core"
)

// DefaultWindow is the number of months in the trailing monthly view.
const DefaultWindow = 6

// CategoryTotal is the summed amount of one category.
type CategoryTotal struct {
	Category string
	Total    core.Money
}

// MonthBucket is the summed amount of one calendar month.
type MonthBucket struct {
	Start time.Time // first day of the month, UTC
	Label string    // "Jan 2006"
	Total core.Money
}

// WeekdayTotal is the summed amount for one day of the week.
type WeekdayTotal struct {
	Day   time.Weekday
	Label string
	Total core.Money
}

// Usable reports whether e can take part in aggregation. Records with a
// non-positive amount or a missing date are skipped by every function in
// this package.
func Usable(e core.Expense) bool {
	return e.Amount.Cents > 0 && !e.Date.IsZero()
}

// Total sums the amounts of all usable expenses.
func Total(expenses []core.Expense) core.Money {
	var total core.Money
	for _, e := range expenses {
		if Usable(e) {
			total = total.Add(e.Amount)
		}
	}
	return total
}

// Count returns the number of usable expenses.
func Count(expenses []core.Expense) int {
	n := 0
	for _, e := range expenses {
		if Usable(e) {
			n++
		}
	}
	return n
}

// CategoryTotals groups expenses by category label. Groups appear in the
// order their first expense was encountered; categories with no
// expenses are absent.
func CategoryTotals(expenses []core.Expense) []CategoryTotal {
	index := make(map[string]int)
	var out []CategoryTotal
	for _, e := range expenses {
		if !Usable(e) {
			continue
		}
		label := e.Category.Label()
		i, ok := index[label]
		if !ok {
			i = len(out)
			index[label] = i
			out = append(out, CategoryTotal{Category: label})
		}
		out[i].Total = out[i].Total.Add(e.Amount)
	}
	return out
}

// MonthlyTotals returns exactly n buckets for the n calendar months
// ending at now's month, oldest first. Expenses outside the window are
// ignored. n <= 0 selects DefaultWindow.
func MonthlyTotals(expenses []core.Expense, now time.Time, n int) []MonthBucket {
	if n <= 0 {
		n = DefaultWindow
	}
	current := monthStart(now.Year(), now.Month())
	buckets := make([]MonthBucket, n)
	for i := range buckets {
		start := current.AddDate(0, i-(n-1), 0)
		buckets[i] = MonthBucket{Start: start, Label: start.Format(monthLabel)}
	}

	first := buckets[0].Start
	for _, e := range expenses {
		if !Usable(e) {
			continue
		}
		idx := monthsBetween(first, e.Date.Time)
		if idx < 0 || idx >= n {
			continue
		}
		buckets[idx].Total = buckets[idx].Total.Add(e.Amount)
	}
	return buckets
}

// MonthlyHistory groups expenses by the months that actually occur in
// the input, oldest first.
func MonthlyHistory(expenses []core.Expense) []MonthBucket {
	byMonth := make(map[time.Time]*MonthBucket)
	for _, e := range expenses {
		if !Usable(e) {
			continue
		}
		start := monthStart(e.Date.Year(), e.Date.Month())
		b, ok := byMonth[start]
		if !ok {
			b = &MonthBucket{Start: start, Label: start.Format(monthLabel)}
			byMonth[start] = b
		}
		b.Total = b.Total.Add(e.Amount)
	}

	out := make([]MonthBucket, 0, len(byMonth))
	for _, b := range byMonth {
		out = append(out, *b)
	}
	sort.Slice(out, func(i, j int) bool {
		return out[i].Start.Before(out[j].Start)
	})
	return out
}

// WeekdayTotals returns seven entries, Sunday first, with zero totals for
// days that have no expenses.
func WeekdayTotals(expenses []core.Expense) []WeekdayTotal {
	out := make([]WeekdayTotal, 7)
	for d := time.Sunday; d <= time.Saturday; d++ {
		out[d] = WeekdayTotal{Day: d, Label: d.String()}
	}
	for _, e := range expenses {
		if !Usable(e) {
			continue
		}
		d := e.Date.Weekday()
		out[d].Total = out[d].Total.Add(e.Amount)
	}
	return out
}

// MonthTotal sums usable expenses dated in the given calendar month.
func MonthTotal(expenses []core.Expense, year int, month time.Month) core.Money {
	var total core.Money
	for _, e := range expenses {
		if Usable(e) && e.Date.Year() == year && e.Date.Month() == month {
			total = total.Add(e.Amount)
		}
	}
	return total
}

const monthLabel = "Jan 2006"

func monthStart(year int, month time.Month) time.Time {
	return time.Date(year, month, 1, 0, 0, 0, 0, time.UTC)
}

func monthsBetween(from, t time.Time) int {
	return (t.Year()-from.Year())*12 + int(t.Month()) - int(from.Month())
}
