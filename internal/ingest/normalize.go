package ingest

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// RemoveDiacritics removes diacritical marks from a string (e.g., "Peněženka" -> "Penezenka").
func RemoveDiacritics(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	result, _, _ := transform.String(t, s)
	return result
}

// NormalizeCategory folds a category label so "Klíče ", "klice" and "KLICE"
// are stored as the same category. Inner whitespace collapses to one space.
func NormalizeCategory(category string) string {
	category = RemoveDiacritics(category)
	category = strings.ToLower(category)
	return strings.Join(strings.Fields(category), " ")
}
