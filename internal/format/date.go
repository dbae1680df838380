package format

import (
	"time"

	"spendwise/internal/core"
)

// Style selects a date layout.
type Style int

const (
	Medium    Style = iota // Jan 2, 2006
	Long                   // January 2, 2006
	Short                  // 1/2/2006
	MonthYear              // Jan 2006
	ISO                    // 2006-01-02
)

var layouts = map[Style]string{
	Medium:    "Jan 2, 2006",
	Long:      "January 2, 2006",
	Short:     "1/2/2006",
	MonthYear: "Jan 2006",
	ISO:       core.DateLayout,
}

// FormatDate renders t in the given style. A zero time yields "".
func FormatDate(t time.Time, style Style) string {
	if t.IsZero() {
		return ""
	}
	layout, ok := layouts[style]
	if !ok {
		layout = layouts[Medium]
	}
	return t.Format(layout)
}

// FormatDateForInput renders t as YYYY-MM-DD for HTML date inputs.
func FormatDateForInput(t time.Time) string {
	return FormatDate(t, ISO)
}

// ParseStyle maps a style name from a query string to a Style.
func ParseStyle(s string) Style {
	switch s {
	case "long":
		return Long
	case "short":
		return Short
	case "month":
		return MonthYear
	case "iso":
		return ISO
	default:
		return Medium
	}
}
