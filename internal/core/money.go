// Package core provides money parsing and handling utilities.
//
// Balances and amounts travel as decimal strings. They are parsed to
// float64 only for display and threshold comparison.
package core

import (
	"math"
	"strconv"
	"strings"

	"github.com/shopspring/decimal"
)

// ParseAmount parses a decimal string such as "24.99" or "100".
func ParseAmount(s string) (decimal.Decimal, error) {
	d, err := decimal.NewFromString(strings.TrimSpace(s))
	if err != nil {
		return decimal.Zero, ErrInvalidBalance
	}
	return d, nil
}

// ParseBalance converts a balance string to a float for display.
// Unparseable input yields NaN rather than an error.
//
// Examples:
//
//	ParseBalance("150.00") -> 150
//	ParseBalance("8.5")    -> 8.5
//	ParseBalance("abc")    -> NaN
func ParseBalance(s string) float64 {
	d, err := ParseAmount(s)
	if err != nil {
		return math.NaN()
	}
	return d.InexactFloat64()
}

// NormalizeBalance returns the shortest decimal rendering of s, the form
// sent on the wire ("100.00" -> "100", "8.50" -> "8.5").
func NormalizeBalance(s string) (string, error) {
	d, err := ParseAmount(s)
	if err != nil {
		return "", err
	}
	return d.String(), nil
}

// ValidateBalance accepts non-negative decimals with at most two places.
func ValidateBalance(s string) error {
	d, err := ParseAmount(s)
	if err != nil {
		return err
	}
	if d.IsNegative() {
		return ErrInvalidBalance
	}
	if !d.Equal(d.Round(2)) {
		return ErrInvalidBalance
	}
	return nil
}

// FormatDollars renders v as "$X.XX". NaN renders as "$NaN".
func FormatDollars(v float64) string {
	if math.IsNaN(v) {
		return "$NaN"
	}
	return "$" + strconv.FormatFloat(v, 'f', 2, 64)
}

// FormatAmount renders a decimal amount string as "$X.XX".
func FormatAmount(s string) string {
	return FormatDollars(ParseBalance(s))
}
