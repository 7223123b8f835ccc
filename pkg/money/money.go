// Package money formats whole-shilling amounts for display.
package money

import (
	"golang.org/x/text/language"
	"golang.org/x/text/message"
)

// Currency is the only currency the marketplace trades in.
const Currency = "TZS"

var printer = message.NewPrinter(language.English)

// Format renders an amount as "TZS 39,000".
func Format(amount int64) string {
	return printer.Sprintf("%s %d", Currency, amount)
}

// Digits renders an amount with thousands separators and no currency code.
func Digits(amount int64) string {
	return printer.Sprintf("%d", amount)
}
