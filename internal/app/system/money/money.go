// Package money provides fixed-point currency arithmetic in integer
// cents. All settlement math goes through this package so there is a
// single, explicit rounding rule instead of incidental float behavior.
package money

import (
	"errors"
	"fmt"
)

// Cents is a currency amount in integer cents.
type Cents = int64

var ErrBadSplit = errors.New("split percentages must be between 0 and 100")

// Sum totals a list of amounts.
func Sum(amounts []Cents) Cents {
	var total Cents
	for _, a := range amounts {
		total += a
	}
	return total
}

// SplitPercent divides total between two parties. The first party
// receives pct percent of total rounded half-up; the second party
// receives the exact remainder, so the two shares always sum to total.
// Negative totals split symmetrically (shares stay exact complements).
func SplitPercent(total Cents, pct int) (first, second Cents, err error) {
	if pct < 0 || pct > 100 {
		return 0, 0, ErrBadSplit
	}
	neg := total < 0
	abs := total
	if neg {
		abs = -abs
	}
	// round half-up on the numerator
	first = (abs*int64(pct) + 50) / 100
	if neg {
		first = -first
	}
	second = total - first
	return first, second, nil
}

// Format renders cents as a dollar string, e.g. 123456 -> "1234.56".
// Intended for logs and email bodies, not for parsing back.
func Format(c Cents) string {
	sign := ""
	if c < 0 {
		sign = "-"
		c = -c
	}
	return fmt.Sprintf("%s%d.%02d", sign, c/100, c%100)
}
