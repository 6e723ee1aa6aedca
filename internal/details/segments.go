package details

import (
	"regexp"
	"strings"

	"github.com/shopspring/decimal"
	"golang.org/x/text/language"
)

var (
	ibanPattern   = regexp.MustCompile(`^[A-Z]{2}\d{2}[A-Z0-9]{11,30}$`)
	bicPattern    = regexp.MustCompile(`^[A-Z]{4}([A-Z]{2})[A-Z0-9]{2}(?:[A-Z0-9]{3})?$`)
	amountPattern = regexp.MustCompile(`^\d+(?:\.\d+)?$`)
)

// segments splits a line at commas and trims each part. Empty parts are
// kept so callers can tell "a, , b" from "a, b" when they need to.
func segments(line string) []string {
	parts := strings.Split(line, ",")
	for i, p := range parts {
		parts[i] = strings.TrimSpace(p)
	}
	return parts
}

func nonEmpty(parts []string) []string {
	out := make([]string, 0, len(parts))
	for _, p := range parts {
		if p != "" {
			out = append(out, p)
		}
	}
	return out
}

// iban returns the compact form of s when it is IBAN-shaped. Grouping
// spaces are allowed.
func iban(s string) (string, bool) {
	compact := strings.ReplaceAll(strings.TrimSpace(s), " ", "")
	if ibanPattern.MatchString(compact) {
		return compact, true
	}
	return "", false
}

// isBIC reports whether s is shaped like a SWIFT code whose country part
// names a real country. Shape alone also matches words such as TRANSFER.
func isBIC(s string) bool {
	m := bicPattern.FindStringSubmatch(strings.TrimSpace(s))
	if m == nil {
		return false
	}
	region, err := language.ParseRegion(m[1])
	return err == nil && region.IsCountry()
}

// isDecimal accepts plain amounts only: digits with an optional fraction.
// Signs and exponents are rejected.
func isDecimal(s string) bool {
	if !amountPattern.MatchString(s) {
		return false
	}
	_, err := decimal.NewFromString(s)
	return err == nil
}

func joinOr(parts []string, fallback string) string {
	if len(parts) == 0 {
		return fallback
	}
	return strings.Join(parts, ", ")
}
