// Package currency is the pure currency code table: validation and display
// symbols, no I/O.
package currency

import "strings"

var symbols = map[string]string{
	"USD": "$",
	"EUR": "€",
	"GBP": "£",
	"NGN": "₦",
	"JPY": "¥",
	"CAD": "$",
	"AUD": "$",
}

// Normalize trims surrounding whitespace and uppercases a currency code.
func Normalize(code string) string {
	return strings.ToUpper(strings.TrimSpace(code))
}

// IsValid reports whether code normalizes to exactly three uppercase ASCII
// letters.
func IsValid(code string) bool {
	c := Normalize(code)
	if len(c) != 3 {
		return false
	}
	for i := 0; i < 3; i++ {
		if c[i] < 'A' || c[i] > 'Z' {
			return false
		}
	}
	return true
}

// SymbolFor returns the display symbol for a currency code, falling back to
// the code itself. Empty input yields an empty string.
func SymbolFor(code string) string {
	c := Normalize(code)
	if c == "" {
		return ""
	}
	if s, ok := symbols[c]; ok {
		return s
	}
	return c
}
