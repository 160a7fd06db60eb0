// Package sanitizer normalizes free-text rental fields before validation so
// that equivalent inputs ("abc 123", " ABC  123 ") compare and store
// identically.
package sanitizer

import "strings"

// NormalizeRegistrationNumber trims, uppercases and collapses inner
// whitespace of a vehicle registration number.
func NormalizeRegistrationNumber(s string) string {
	return strings.ToUpper(collapseSpaces(strings.TrimSpace(s)))
}

// NormalizeCustomerID trims surrounding whitespace. Customer identifiers are
// otherwise opaque.
func NormalizeCustomerID(s string) string {
	return strings.TrimSpace(s)
}

// NormalizeEmail trims and lowercases an email address.
func NormalizeEmail(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

// NormalizeBookingNumber trims and lowercases a booking number token so
// lookups are case-insensitive over the canonical UUID form.
func NormalizeBookingNumber(s string) string {
	return strings.ToLower(strings.TrimSpace(s))
}

func collapseSpaces(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
