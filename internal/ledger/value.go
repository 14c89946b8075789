package ledger

import (
	"strconv"
	"strings"
)

// amountReplacer strips quoting and thousands-separating whitespace,
// including the non-breaking space some ledger exports use.
var amountReplacer = strings.NewReplacer(`"`, "", " ", "", " ", "")

// parseAmount parses a ledger amount that may use comma as the decimal
// separator and dot or space as thousands separators. Unparseable input
// yields 0 rather than failing the row.
func parseAmount(s string) float64 {
	s = amountReplacer.Replace(strings.TrimSpace(s))
	if s == "" {
		return 0
	}
	if strings.Contains(s, ",") {
		// Comma is the decimal point; any dots left are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
	}
	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0
	}
	return v
}

// isDigits reports whether s is non-empty and composed entirely of
// ASCII digits.
func isDigits(s string) bool {
	if s == "" {
		return false
	}
	for _, r := range s {
		if r < '0' || r > '9' {
			return false
		}
	}
	return true
}

// parseAccountNumber parses an account number only when the raw value
// is all digits, defaulting to 0 otherwise.
func parseAccountNumber(s string) int {
	s = strings.TrimSpace(s)
	if !isDigits(s) {
		return 0
	}
	v, err := strconv.Atoi(s)
	if err != nil {
		return 0
	}
	return v
}
