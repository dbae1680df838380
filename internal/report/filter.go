package report

import (
	"fmt"
	"time"

	"spendwise/internal/core"
)

// Range is a symbolic trailing date range.
type Range string

const (
	RangeAll         Range = "all"
	RangeOneMonth    Range = "1month"
	RangeThreeMonths Range = "3months"
	RangeSixMonths   Range = "6months"
	RangeOneYear     Range = "1year"
)

// AllCategories is the category selector that matches every expense.
const AllCategories = "all"

var rangeMonths = map[Range]int{
	RangeOneMonth:    1,
	RangeThreeMonths: 3,
	RangeSixMonths:   6,
	RangeOneYear:     12,
}

// ParseRange validates a range selector. The empty string means RangeAll.
func ParseRange(s string) (Range, error) {
	r := Range(s)
	if s == "" || r == RangeAll {
		return RangeAll, nil
	}
	if _, ok := rangeMonths[r]; ok {
		return r, nil
	}
	return "", &core.ValidationError{Field: "range", Reason: fmt.Sprintf("unknown range %q", s)}
}

// Cutoff returns the earliest date retained by r relative to now. The
// second result is false for RangeAll.
//
// Months are subtracted on the calendar and the day is clamped to the
// length of the target month, so Mar 31 minus one month is the last day
// of February and Feb 29 minus one year is Feb 28.
func (r Range) Cutoff(now time.Time) (time.Time, bool) {
	months, ok := rangeMonths[r]
	if !ok {
		return time.Time{}, false
	}
	return SubtractMonths(now, months), true
}

// SubtractMonths moves the calendar date of t back n months, clamping the
// day of month. The result is midnight UTC.
func SubtractMonths(t time.Time, n int) time.Time {
	first := monthStart(t.Year(), t.Month()).AddDate(0, -n, 0)
	day := t.Day()
	if last := daysIn(first.Year(), first.Month()); day > last {
		day = last
	}
	return time.Date(first.Year(), first.Month(), day, 0, 0, 0, 0, time.UTC)
}

// FilterByRange keeps expenses dated on or after r's cutoff. RangeAll
// returns the input unchanged.
func FilterByRange(expenses []core.Expense, r Range, now time.Time) []core.Expense {
	cutoff, ok := r.Cutoff(now)
	if !ok {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if !e.Date.Before(cutoff) {
			out = append(out, e)
		}
	}
	return out
}

// FilterByCategory keeps expenses whose category label equals sel exactly.
// AllCategories and the empty selector pass everything through.
func FilterByCategory(expenses []core.Expense, sel string) []core.Expense {
	if sel == "" || sel == AllCategories {
		return expenses
	}
	out := make([]core.Expense, 0, len(expenses))
	for _, e := range expenses {
		if e.Category.Label() == sel {
			out = append(out, e)
		}
	}
	return out
}

func daysIn(year int, month time.Month) int {
	return time.Date(year, month+1, 0, 0, 0, 0, 0, time.UTC).Day()
}
