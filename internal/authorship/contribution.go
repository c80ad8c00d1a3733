// SPDX-License-Identifier: AGPL-3.0-or-later

package authorship

import (
	"math"
	"strconv"
	"strings"
)

// Fraction returns lines/total, or 0 when total is not positive.
func Fraction(lines, total int) float64 {
	if total <= 0 {
		return 0
	}
	return float64(lines) / float64(total)
}

// FormatPercent renders a fraction as a percentage rounded to two decimals,
// always with at least one decimal digit: 1 → "100.0%", 2/3 → "66.67%".
func FormatPercent(fraction float64) string {
	v := math.Round(fraction*100*100) / 100
	s := strconv.FormatFloat(v, 'f', -1, 64)
	if !strings.Contains(s, ".") {
		s += ".0"
	}
	return s + "%"
}
