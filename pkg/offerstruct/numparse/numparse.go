// Package numparse reads numbers that suppliers store as text: thousands
// separated by spaces, decimal commas, currency signs and trailing units.
package numparse

import (
	"math"
	"regexp"
	"strconv"
	"strings"

	"github.com/ukaji3/offerstruct-go/pkg/offerstruct/models"
)

var numberToken = regexp.MustCompile(`[-+]?\d[\d.,]*`)

// spaceReplacer removes the space variants used as thousands separators.
var spaceReplacer = strings.NewReplacer(
	" ", "",
	"\u00a0", "",
	"\u202f", "",
	"\u2009", "",
	"\u2007", "",
	"\t", "",
)

// Number reads the first number in s. Spaces of any kind are thousands
// separators. When both "," and "." occur the later one is the decimal
// mark; a lone comma is decimal when decimalComma is set, and otherwise
// only when it is not followed by exactly three digits.
func Number(s string, decimalComma bool) (float64, bool) {
	token := numberToken.FindString(spaceReplacer.Replace(s))
	token = strings.TrimRight(token, ".,")
	if token == "" {
		return 0, false
	}

	lastComma := strings.LastIndex(token, ",")
	lastDot := strings.LastIndex(token, ".")
	commas := strings.Count(token, ",")
	dots := strings.Count(token, ".")

	switch {
	case commas > 0 && dots > 0:
		if lastComma > lastDot {
			token = strings.ReplaceAll(token, ".", "")
			token = strings.Replace(token, ",", ".", 1)
		} else {
			token = strings.ReplaceAll(token, ",", "")
		}
	case commas > 1:
		token = strings.ReplaceAll(token, ",", "")
	case commas == 1:
		if decimalComma || len(token)-lastComma-1 != 3 {
			token = strings.Replace(token, ",", ".", 1)
		} else {
			token = strings.ReplaceAll(token, ",", "")
		}
	case dots > 1:
		token = strings.ReplaceAll(token, ".", "")
	}

	n, err := strconv.ParseFloat(token, 64)
	if err != nil || math.IsInf(n, 0) || math.IsNaN(n) {
		return 0, false
	}
	return n, true
}

// Cell reads a numeric cell, parsing text cells with Number.
func Cell(c models.Cell, decimalComma bool) (float64, bool) {
	if n, ok := c.Number(); ok {
		return n, true
	}
	s, ok := c.Value.(string)
	if !ok {
		return 0, false
	}
	return Number(s, decimalComma)
}
