package report

import (
	"testing"
	"time"

	"github.com/stretchr/testify/assert"
	"github.com/stretchr/testify/require"

	"spendwise/internal/core"
)

func exp(amountCents int64, date core.Date, cat core.Category) core.Expense {
	return core.Expense{Title: "x", Amount: core.Money{Cents: amountCents}, Date: date, Category: cat}
}

func scenario() []core.Expense {
	return []core.Expense{
		exp(10000, core.NewDate(2024, 1, 15), core.Food),
		exp(5000, core.NewDate(2024, 2, 10), core.Food),
		exp(2000, core.NewDate(2024, 2, 12), core.Travel),
	}
}

func TestScenario(t *testing.T) {
	now := time.Date(2024, time.February, 20, 12, 0, 0, 0, time.UTC)
	expenses := scenario()

	totals := CategoryTotals(expenses)
	require.Len(t, totals, 2)
	assert.Equal(t, CategoryTotal{Category: "Food", Total: core.Money{Cents: 15000}}, totals[0])
	assert.Equal(t, CategoryTotal{Category: "Travel", Total: core.Money{Cents: 2000}}, totals[1])

	assert.Equal(t, int64(7000), MonthTotal(expenses, 2024, time.February).Cents)
	assert.Equal(t, int64(10000), MonthTotal(expenses, 2024, time.January).Cents)

	change := MonthOverMonth(expenses, now)
	assert.Equal(t, -30.0, change.Percent)
	assert.False(t, change.Increase())
}

func TestCategoryTotalsConserveSum(t *testing.T) {
	expenses := []core.Expense{
		exp(123, core.NewDate(2024, 1, 1), core.Food),
		exp(456, core.NewDate(2024, 1, 2), core.Housing),
		exp(789, core.NewDate(2023, 7, 3), core.Food),
		exp(1, core.NewDate(2022, 2, 4), "Gadgets"),
		exp(99, core.NewDate(2024, 5, 5), ""),
	}

	var sum int64
	for _, ct := range CategoryTotals(expenses) {
		sum += ct.Total.Cents
	}
	assert.Equal(t, Total(expenses).Cents, sum)
	assert.Equal(t, int64(123+456+789+1+99), sum)

	for split := 0; split <= len(expenses); split++ {
		a := Total(expenses[:split]).Cents
		b := Total(expenses[split:]).Cents
		assert.Equal(t, sum, a+b, "split at %d", split)
	}
}

func TestCategoryTotalsKeepsUnknownLabels(t *testing.T) {
	totals := CategoryTotals([]core.Expense{
		exp(100, core.NewDate(2024, 1, 1), "Gadgets"),
		exp(200, core.NewDate(2024, 1, 1), ""),
	})
	require.Len(t, totals, 2)
	assert.Equal(t, "Gadgets", totals[0].Category)
	assert.Equal(t, core.Unrecognized, totals[1].Category)
}

func TestMalformedRecordsAreSkipped(t *testing.T) {
	expenses := []core.Expense{
		exp(1000, core.NewDate(2024, 2, 1), core.Food),
		exp(0, core.NewDate(2024, 2, 1), core.Food),
		exp(-500, core.NewDate(2024, 2, 1), core.Food),
		exp(700, core.Date{}, core.Travel),
	}
	now := time.Date(2024, time.February, 10, 0, 0, 0, 0, time.UTC)

	assert.Equal(t, int64(1000), Total(expenses).Cents)
	assert.Equal(t, 1, Count(expenses))
	assert.Len(t, CategoryTotals(expenses), 1)
	assert.Equal(t, int64(1000), AveragePerTransaction(expenses).Cents)
	assert.Equal(t, int64(100), AverageDaily(expenses, now).Cents)
	assert.Len(t, MonthlyHistory(expenses), 1)
}

func TestMonthlyTotalsAlwaysHasWindowBuckets(t *testing.T) {
	now := time.Date(2024, time.March, 15, 0, 0, 0, 0, time.UTC)
	inputs := map[string][]core.Expense{
		"empty":        nil,
		"out of range": {exp(100, core.NewDate(2020, 1, 1), core.Food)},
		"multi year": {
			exp(100, core.NewDate(2023, 10, 1), core.Food),
			exp(200, core.NewDate(2023, 12, 31), core.Food),
			exp(300, core.NewDate(2024, 3, 1), core.Food),
			exp(400, core.NewDate(2024, 4, 1), core.Food),
		},
	}
	for name, in := range inputs {
		t.Run(name, func(t *testing.T) {
			buckets := MonthlyTotals(in, now, 0)
			require.Len(t, buckets, DefaultWindow)
			assert.Equal(t, "Oct 2023", buckets[0].Label)
			assert.Equal(t, "Mar 2024", buckets[5].Label)
			for i := 1; i < len(buckets); i++ {
				assert.True(t, buckets[i-1].Start.Before(buckets[i].Start))
			}
		})
	}

	buckets := MonthlyTotals(inputs["multi year"], now, DefaultWindow)
	assert.Equal(t, int64(100), buckets[0].Total.Cents)
	assert.Equal(t, int64(200), buckets[2].Total.Cents)
	assert.Equal(t, int64(300), buckets[5].Total.Cents)

	assert.Len(t, MonthlyTotals(nil, now, 12), 12)
}

func TestMonthlyHistorySorted(t *testing.T) {
	history := MonthlyHistory([]core.Expense{
		exp(300, core.NewDate(2024, 3, 9), core.Food),
		exp(100, core.NewDate(2023, 12, 1), core.Food),
		exp(200, core.NewDate(2024, 3, 1), core.Food),
	})
	require.Len(t, history, 2)
	assert.Equal(t, "Dec 2023", history[0].Label)
	assert.Equal(t, "Mar 2024", history[1].Label)
	assert.Equal(t, int64(500), history[1].Total.Cents)
}

func TestWeekdayTotals(t *testing.T) {
	// 2024-01-07 is a Sunday, 2024-01-10 a Wednesday.
	days := WeekdayTotals([]core.Expense{
		exp(100, core.NewDate(2024, 1, 7), core.Food),
		exp(50, core.NewDate(2024, 1, 14), core.Food),
		exp(25, core.NewDate(2024, 1, 10), core.Food),
	})
	require.Len(t, days, 7)
	assert.Equal(t, "Sunday", days[0].Label)
	assert.Equal(t, "Saturday", days[6].Label)
	assert.Equal(t, int64(150), days[time.Sunday].Total.Cents)
	assert.Equal(t, int64(25), days[time.Wednesday].Total.Cents)
	assert.True(t, days[time.Monday].Total.IsZero())

	assert.Len(t, WeekdayTotals(nil), 7)
}

func TestSubtractMonthsClampsToMonthEnd(t *testing.T) {
	tests := []struct {
		name   string
		now    time.Time
		months int
		want   core.Date
	}{
		{"leap february", time.Date(2024, 3, 31, 9, 0, 0, 0, time.UTC), 1, core.NewDate(2024, 2, 29)},
		{"common february", time.Date(2023, 3, 31, 9, 0, 0, 0, time.UTC), 1, core.NewDate(2023, 2, 28)},
		{"thirty day month", time.Date(2024, 5, 31, 0, 0, 0, 0, time.UTC), 1, core.NewDate(2024, 4, 30)},
		{"across year", time.Date(2024, 1, 15, 0, 0, 0, 0, time.UTC), 3, core.NewDate(2023, 10, 15)},
		{"six from august 31", time.Date(2024, 8, 31, 0, 0, 0, 0, time.UTC), 6, core.NewDate(2024, 2, 29)},
		{"leap day minus a year", time.Date(2024, 2, 29, 0, 0, 0, 0, time.UTC), 12, core.NewDate(2023, 2, 28)},
		{"no clamp needed", time.Date(2024, 6, 10, 0, 0, 0, 0, time.UTC), 1, core.NewDate(2024, 5, 10)},
	}
	for _, tt := range tests {
		t.Run(tt.name, func(t *testing.T) {
			assert.Equal(t, tt.want.Time, SubtractMonths(tt.now, tt.months))
		})
	}
}

func TestParseRange(t *testing.T) {
	for _, s := range []string{"1month", "3months", "6months", "1year", "all"} {
		r, err := ParseRange(s)
		require.NoError(t, err)
		assert.Equal(t, Range(s), r)
	}
	r, err := ParseRange("")
	require.NoError(t, err)
	assert.Equal(t, RangeAll, r)

	_, err = ParseRange("2weeks")
	assert.ErrorIs(t, err, core.ErrValidation)

	_, ok := RangeAll.Cutoff(time.Now())
	assert.False(t, ok)
}

func TestFilterByRange(t *testing.T) {
	now := time.Date(2024, time.March, 31, 18, 0, 0, 0, time.UTC)
	expenses := []core.Expense{
		exp(100, core.NewDate(2024, 3, 30), core.Food),
		exp(200, core.NewDate(2024, 2, 29), core.Food), // exactly the cutoff
		exp(300, core.NewDate(2024, 2, 28), core.Food),
		exp(400, core.NewDate(2023, 3, 31), core.Food),
	}

	assert.Equal(t, expenses, FilterByRange(expenses, RangeAll, now))

	month := FilterByRange(expenses, RangeOneMonth, now)
	require.Len(t, month, 2)
	assert.Equal(t, int64(200), month[1].Amount.Cents)

	year := FilterByRange(expenses, RangeOneYear, now)
	assert.Len(t, year, 4)
}

func TestFilterByCategory(t *testing.T) {
	expenses := scenario()
	assert.Equal(t, expenses, FilterByCategory(expenses, AllCategories))
	assert.Equal(t, expenses, FilterByCategory(expenses, ""))
	travel := FilterByCategory(expenses, "Travel")
	require.Len(t, travel, 1)
	assert.Equal(t, core.Travel, travel[0].Category)
	assert.Empty(t, FilterByCategory(expenses, "travel"))
}

func TestPercentChange(t *testing.T) {
	assert.Equal(t, 0.0, PercentChange(core.Money{}, core.Money{}))
	assert.Equal(t, 100.0, PercentChange(core.Money{Cents: 5}, core.Money{}))
	assert.Equal(t, 50.0, PercentChange(core.Money{Cents: 150}, core.Money{Cents: 100}))
	assert.Equal(t, -100.0, PercentChange(core.Money{}, core.Money{Cents: 100}))
}

func TestMonthOverMonthAcrossYearBoundary(t *testing.T) {
	now := time.Date(2024, time.January, 5, 0, 0, 0, 0, time.UTC)
	change := MonthOverMonth([]core.Expense{
		exp(200, core.NewDate(2023, 12, 20), core.Food),
		exp(300, core.NewDate(2024, 1, 2), core.Food),
	}, now)
	assert.Equal(t, int64(200), change.Previous.Cents)
	assert.Equal(t, int64(300), change.Current.Cents)
	assert.Equal(t, 50.0, change.Percent)
	assert.True(t, change.Increase())
}

func TestTopCategory(t *testing.T) {
	tie := []core.Expense{
		exp(3000, core.NewDate(2024, 1, 1), "A"),
		exp(3000, core.NewDate(2024, 1, 2), "B"),
	}
	for i := 0; i < 5; i++ {
		assert.Equal(t, "A", TopCategory(tie).Category)
	}

	none := TopCategory(nil)
	assert.Equal(t, NoCategory, none.Category)
	assert.True(t, none.Total.IsZero())

	assert.Equal(t, "Food", TopCategory(scenario()).Category)
}

func TestAverages(t *testing.T) {
	assert.True(t, AveragePerTransaction(nil).IsZero())
	assert.Equal(t, int64(5667), AveragePerTransaction(scenario()).Cents)

	now := time.Date(2024, time.February, 7, 0, 0, 0, 0, time.UTC)
	assert.Equal(t, int64(1000), AverageDaily(scenario(), now).Cents)

	history := []MonthBucket{
		{Total: core.Money{Cents: 100}},
		{Total: core.Money{}},
		{Total: core.Money{Cents: 301}},
	}
	assert.Equal(t, int64(201), AverageMonthly(history).Cents)
	assert.True(t, AverageMonthly(nil).IsZero())
}

func TestProject(t *testing.T) {
	points := Project(core.Money{Cents: 10000})
	require.Len(t, points, 3)
	assert.Equal(t, "Next Month", points[0].Label)
	assert.Equal(t, int64(10500), points[0].Amount.Cents)
	assert.Equal(t, "Month +2", points[1].Label)
	assert.Equal(t, int64(10815), points[1].Amount.Cents)
	assert.Equal(t, "Month +3", points[2].Label)
	assert.Equal(t, int64(11130), points[2].Amount.Cents)
	for _, p := range points {
		assert.True(t, p.Predicted)
	}
}

func TestBuildDashboard(t *testing.T) {
	now := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	var expenses []core.Expense
	for i := 0; i < 12; i++ {
		expenses = append(expenses, exp(100, core.NewDate(2024, 2, 12-i%10), core.Food))
	}

	d := BuildDashboard(expenses, now)
	assert.Equal(t, int64(1200), d.Total.Cents)
	assert.Equal(t, 12, d.Count)
	assert.Len(t, d.Recent, RecentLimit)
	assert.Len(t, d.Monthly, DefaultWindow)
	assert.Equal(t, "Food", d.Top.Category)
	assert.Equal(t, 100.0, d.Change.Percent)
	assert.Equal(t, int64(60), d.AverageDaily.Cents)
}

func TestBuildReport(t *testing.T) {
	now := time.Date(2024, time.February, 20, 0, 0, 0, 0, time.UTC)
	expenses := append(scenario(), exp(9900, core.NewDate(2023, 6, 1), core.Housing))

	r := BuildReport(expenses, Query{Range: RangeThreeMonths, Category: AllCategories, Predict: true}, now)
	assert.Equal(t, 3, r.Count)
	assert.Equal(t, int64(17000), r.Total.Cents)
	require.Len(t, r.Monthly, 2)
	assert.Equal(t, "Feb 2024", r.Monthly[1].Label)
	assert.Equal(t, int64(8500), r.AverageMonthly.Cents)
	assert.Equal(t, int64(7000), r.ThisMonth.Cents)
	assert.Equal(t, -30.0, r.Change.Percent)
	assert.Equal(t, "Food", r.Top.Category)
	require.Len(t, r.Projection, 3)
	assert.Equal(t, int64(7350), r.Projection[0].Amount.Cents)
	assert.Len(t, r.Weekdays, 7)

	food := BuildReport(expenses, Query{Range: RangeAll, Category: "Housing"}, now)
	assert.Equal(t, 1, food.Count)
	assert.Nil(t, food.Projection)

	empty := BuildReport(nil, Query{Range: RangeAll, Predict: true}, now)
	assert.Equal(t, NoCategory, empty.Top.Category)
	assert.Nil(t, empty.Projection)
}

func TestCategories(t *testing.T) {
	assert.Equal(t, []string{"all"}, Categories(nil))
	assert.Equal(t, []string{"all", "Food", "Travel"}, Categories(scenario()))
}

func TestUncategorizedSelectorMatchesReport(t *testing.T) {
	expenses := []core.Expense{
		exp(100, core.NewDate(2024, 3, 1), core.Food),
		exp(250, core.NewDate(2024, 3, 2), core.Category("")),
		exp(50, core.NewDate(2024, 3, 3), core.Category("  ")),
	}

	options := Categories(expenses)
	assert.Equal(t, []string{"all", "Food", core.Unrecognized}, options)

	totals := CategoryTotals(expenses)
	require.Len(t, totals, 2)
	assert.Equal(t, core.Unrecognized, totals[1].Category)

	picked := FilterByCategory(expenses, options[2])
	require.Len(t, picked, 2)
	assert.Equal(t, int64(300), Total(picked).Cents)
}
