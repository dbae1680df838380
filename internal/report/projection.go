package report

import (
	"math"

	"spendwise/internal/core"
)

// ProjectionPoint is a synthetic future month. It is an illustration, not
// a forecast.
type ProjectionPoint struct {
	Label     string
	Amount    core.Money
	Predicted bool
}

const baseGrowth = 1.05

var projectionSteps = []struct {
	label  string
	factor float64
}{
	{"Next Month", 1},
	{"Month +2", 1.03},
	{"Month +3", 1.06},
}

// Project extrapolates three months from the most recent monthly total:
// 5% growth for the next month, then 3% and 6% on top of that first
// projected value.
func Project(last core.Money) []ProjectionPoint {
	base := float64(last.Cents) * baseGrowth
	out := make([]ProjectionPoint, len(projectionSteps))
	for i, s := range projectionSteps {
		out[i] = ProjectionPoint{
			Label:     s.label,
			Amount:    core.Money{Cents: int64(math.Round(base * s.factor))},
			Predicted: true,
		}
	}
	return out
}
