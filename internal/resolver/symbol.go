package resolver

import (
	"fmt"
	"regexp"
	"strings"
)

// validSymbol matches a bare ticker or a concatenated trading pair
var validSymbol = regexp.MustCompile(`^[A-Za-z0-9]{2,20}$`)

// ValidateSymbol checks if a ticker or pair has a safe format to place in an
// upstream URL. It says nothing about whether the asset is supported.
func ValidateSymbol(symbol string) error {
	if symbol == "" {
		return fmt.Errorf("symbol cannot be empty")
	}
	if len(symbol) > 30 {
		return fmt.Errorf("symbol too long: %s", symbol)
	}
	if !validSymbol.MatchString(symbol) {
		return fmt.Errorf("invalid symbol format: %s", symbol)
	}
	return nil
}

// Pair builds an exchange pair symbol, base first: ("SOL", "usdt") -> "SOLUSDT"
func Pair(base, quote string) string {
	return strings.ToUpper(base) + strings.ToUpper(quote)
}
