// Package ratio splits shared amounts between the two parties of a roster.
//
// A ratio is written "A:B". Party 0 of the roster takes A/(A+B) of a total,
// party 1 takes B/(A+B). The two shares are rounded independently, so they
// may differ from the total by one unit.
package ratio

import (
	"fmt"
	"math"
	"strconv"
	"strings"

	"kakeibo/internal/core"
)

// Ratio holds the two positive coefficients of an "A:B" string.
type Ratio struct {
	A float64
	B float64
}

// Shares is the result of splitting one total.
type Shares struct {
	A int64
	B int64
}

// Parse reads "A:B". It reports false for "none", for anything that is not
// exactly two numbers and for non-positive parts.
func Parse(s string) (Ratio, bool) {
	s = strings.TrimSpace(s)
	if s == "" || s == core.RatioNone {
		return Ratio{}, false
	}
	parts := strings.Split(s, ":")
	if len(parts) != 2 {
		return Ratio{}, false
	}
	a, okA := parsePart(parts[0])
	b, okB := parsePart(parts[1])
	if !okA || !okB {
		return Ratio{}, false
	}
	return Ratio{A: a, B: b}, true
}

func parsePart(s string) (float64, bool) {
	v, err := strconv.ParseFloat(strings.TrimSpace(s), 64)
	if err != nil || math.IsNaN(v) || math.IsInf(v, 0) || v <= 0 {
		return 0, false
	}
	return v, true
}

// Valid reports whether s parses as a usable ratio.
func Valid(s string) bool {
	_, ok := Parse(s)
	return ok
}

// Coefficient returns A for party 0 and B for anyone else.
func (r Ratio) Coefficient(party int) float64 {
	if party == 0 {
		return r.A
	}
	return r.B
}

// Share returns round(total * coefficient / (A+B)) for the given party.
func (r Ratio) Share(total int64, party int) int64 {
	return round(float64(total) * r.Coefficient(party) / (r.A + r.B))
}

// Split divides total into both parties' shares.
func (r Ratio) Split(total int64) Shares {
	return Shares{A: r.Share(total, 0), B: r.Share(total, 1)}
}

func (r Ratio) String() string {
	return strconv.FormatFloat(r.A, 'f', -1, 64) + ":" + strconv.FormatFloat(r.B, 'f', -1, 64)
}

// Split parses s and divides total. It reports false when s is not a usable ratio.
func Split(total int64, s string) (Shares, bool) {
	r, ok := Parse(s)
	if !ok {
		return Shares{}, false
	}
	return r.Split(total), true
}

// ShareOf returns the party's share of total under s, or the whole total
// when s is not a usable ratio.
func ShareOf(total int64, s string, party int) int64 {
	r, ok := Parse(s)
	if !ok {
		return total
	}
	return r.Share(total, party)
}

// Sum returns A+B, which may differ from the split total by rounding.
func (s Shares) Sum() int64 {
	return s.A + s.B
}

// Format renders both shares as "a / b" with amounts formatted by format.
func (s Shares) Format(format func(int64) string) string {
	return format(s.A) + " / " + format(s.B)
}

func (s Shares) String() string {
	return fmt.Sprintf("%d / %d", s.A, s.B)
}

func round(v float64) int64 {
	return int64(math.Round(v))
}
