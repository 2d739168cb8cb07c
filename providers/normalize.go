package providers

import (
	"regexp"
	"strings"
)

// Some providers disambiguate artists that share a name by appending a
// number: "Genesis (2)". Stored as-is these would become distinct local
// artists, so the suffix is stripped before reconciliation.
var disambiguationSuffix = regexp.MustCompile(`\s*\(\d+\)$`)

func NormalizeArtistName(raw string) string {
	return strings.TrimSpace(disambiguationSuffix.ReplaceAllString(strings.TrimSpace(raw), ""))
}

// NormalizeYear collapses 0 and other implausibly small values to "unknown".
// Providers use 0 for missing years; anything <= 1000 is treated the same.
func NormalizeYear(year int) *int {
	if year <= 1000 {
		return nil
	}
	return &year
}
