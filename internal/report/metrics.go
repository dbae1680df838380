package report

import (
	"math"
	"time"

	"spendwise/internal/core"
)

// NoCategory is the label TopCategory returns when there is nothing to
// rank.
const NoCategory = "None"

// Change compares the current calendar month with the previous one.
type Change struct {
	Current  core.Money
	Previous core.Money
	Percent  float64
}

// Increase reports whether spending went up.
func (c Change) Increase() bool {
	return c.Percent > 0
}

// MonthOverMonth compares now's month with the month before it. The
// percentage is 100 when only the current month has spending and 0 when
// neither has any.
func MonthOverMonth(expenses []core.Expense, now time.Time) Change {
	prev := monthStart(now.Year(), now.Month()).AddDate(0, -1, 0)
	c := Change{
		Current:  MonthTotal(expenses, now.Year(), now.Month()),
		Previous: MonthTotal(expenses, prev.Year(), prev.Month()),
	}
	c.Percent = PercentChange(c.Current, c.Previous)
	return c
}

// PercentChange returns (cur-prev)/prev*100 with the zero-denominator
// cases pinned to 100 and 0.
func PercentChange(cur, prev core.Money) float64 {
	switch {
	case prev.Cents > 0:
		return float64(cur.Cents-prev.Cents) / float64(prev.Cents) * 100
	case cur.Cents > 0:
		return 100
	default:
		return 0
	}
}

// TopCategory returns the category with the largest total. Ties go to the
// category encountered first.
func TopCategory(expenses []core.Expense) CategoryTotal {
	return topOf(CategoryTotals(expenses))
}

func topOf(totals []CategoryTotal) CategoryTotal {
	if len(totals) == 0 {
		return CategoryTotal{Category: NoCategory}
	}
	top := totals[0]
	for _, ct := range totals[1:] {
		if ct.Total.Cents > top.Total.Cents {
			top = ct
		}
	}
	return top
}

// AveragePerTransaction divides the total by the number of usable
// expenses. It is zero for an empty input.
func AveragePerTransaction(expenses []core.Expense) core.Money {
	return divide(Total(expenses), Count(expenses))
}

// AverageDaily divides the current month's total by now's day of month.
func AverageDaily(expenses []core.Expense, now time.Time) core.Money {
	return divide(MonthTotal(expenses, now.Year(), now.Month()), now.Day())
}

// AverageMonthly is the mean of the non-empty buckets in history.
func AverageMonthly(history []MonthBucket) core.Money {
	var total core.Money
	n := 0
	for _, b := range history {
		if b.Total.IsZero() {
			continue
		}
		total = total.Add(b.Total)
		n++
	}
	return divide(total, n)
}

func divide(total core.Money, n int) core.Money {
	if n <= 0 {
		return core.Money{}
	}
	return core.Money{Cents: int64(math.Round(float64(total.Cents) / float64(n)))}
}
