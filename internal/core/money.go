// Package core provides money parsing and handling utilities.
//
// This file contains functions for parsing monetary amounts from strings
// into integer minor units.
package core

import (
	"math"
	"strconv"
	"strings"
	"unicode"
)

// Money is an amount in the minor currency unit (yen, cents, ...).
type Money struct {
	Minor int64
}

func (m Money) Validate() error {
	if m.Minor <= 0 {
		return ErrInvalidAmount
	}
	return nil
}

// Add returns m + o.
func (m Money) Add(o Money) Money {
	return Money{Minor: m.Minor + o.Minor}
}

// ParseAmount converts a decimal string to minor units with half-up rounding.
//
// exponent is the number of minor digits of the currency (0 for JPY, 2 for EUR).
// Both dot and comma are accepted as decimal separator and thousands
// separators are not. The result is always positive.
//
// Examples:
//
//	ParseAmount("1200", 0)   -> 1200, nil
//	ParseAmount("1200.5", 0) -> 1201, nil (rounds up)
//	ParseAmount("12,34", 2)  -> 1234, nil
//	ParseAmount("12.345", 2) -> 1235, nil
func ParseAmount(s string, exponent int) (int64, error) {
	s = strings.TrimSpace(s)
	if s == "" || exponent < 0 || exponent > 4 {
		return 0, ErrInvalidAmount
	}
	s = strings.ReplaceAll(s, ",", ".")
	if strings.HasPrefix(s, "+") || strings.HasPrefix(s, "-") {
		return 0, ErrInvalidAmount
	}
	parts := strings.Split(s, ".")
	if len(parts) > 2 {
		return 0, ErrInvalidAmount
	}
	intPart := parts[0]
	fracPart := ""
	if len(parts) == 2 {
		fracPart = parts[1]
	}
	if intPart == "" {
		intPart = "0"
	}
	for _, r := range intPart + fracPart {
		if !unicode.IsDigit(r) || r > '9' {
			return 0, ErrInvalidAmount
		}
	}
	iv, err := strconv.ParseInt(intPart, 10, 64)
	if err != nil {
		return 0, ErrInvalidAmount
	}
	scale := int64(1)
	for i := 0; i < exponent; i++ {
		scale *= 10
	}
	if iv > (1<<63-1)/scale-1 {
		return 0, ErrInvalidAmount
	}
	// Keep `exponent` fractional digits, round half-up on the next one.
	var frac int64
	for i := 0; i < exponent; i++ {
		frac *= 10
		if i < len(fracPart) {
			frac += int64(fracPart[i] - '0')
		}
	}
	if len(fracPart) > exponent && fracPart[exponent] >= '5' {
		frac++
	}
	minor := iv*scale + frac
	if minor <= 0 {
		return 0, ErrInvalidAmount
	}
	return minor, nil
}

// Major returns the amount in major units for display purposes.
// Use Minor for calculations.
func (m Money) Major(exponent int) float64 {
	return float64(m.Minor) / math.Pow10(exponent)
}
