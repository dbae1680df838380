// Package format renders money and dates for display.
package format

import (
	"fmt"
	"math"
	"strings"

	"golang.org/x/text/currency"
	"golang.org/x/text/language"
	"golang.org/x/text/message"

	"spendwise/internal/core"
)

// DefaultCurrency is used when no valid currency code is configured.
const DefaultCurrency = "USD"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"JPY": "¥",
	"INR": "₹",
}

var printer = message.NewPrinter(language.AmericanEnglish)

// FormatCurrency renders amount in the given ISO 4217 currency with
// grouped digits, e.g. "$1,234.50" or "-€3.00". Unknown codes fall back
// to USD.
func FormatCurrency(amount core.Money, code string) string {
	return FormatAmount(amount.Units(), code)
}

// FormatAmount is FormatCurrency for amounts already in currency units.
func FormatAmount(amount float64, code string) string {
	unit, ok := parseUnit(code)
	if !ok {
		unit = currency.USD
	}
	scale, _ := currency.Standard.Rounding(unit)

	if math.IsNaN(amount) || math.IsInf(amount, 0) {
		amount = 0
	}
	pow := int64(math.Pow10(scale))
	minor := int64(math.Round(amount * float64(pow)))

	sign := ""
	if minor < 0 {
		sign = "-"
		minor = -minor
	}

	out := sign + symbolFor(unit) + printer.Sprintf("%d", minor/pow)
	if scale > 0 {
		out += fmt.Sprintf(".%0*d", scale, minor%pow)
	}
	return out
}

// Supported reports whether code is a valid ISO 4217 currency.
func Supported(code string) bool {
	_, ok := parseUnit(code)
	return ok
}

func parseUnit(code string) (currency.Unit, bool) {
	code = strings.ToUpper(strings.TrimSpace(code))
	if code == "" {
		return currency.Unit{}, false
	}
	unit, err := currency.ParseISO(code)
	if err != nil {
		return currency.Unit{}, false
	}
	return unit, true
}

func symbolFor(unit currency.Unit) string {
	if s, ok := symbols[unit.String()]; ok {
		return s
	}
	return unit.String() + " "
}
