// Package slug builds URL-safe identifiers from display names.
package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Make lowercases the input, strips diacritics and joins the remaining
// alphanumeric runs with "-".
func Make(value string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	stripped, _, err := transform.String(t, strings.ToLower(value))
	if err != nil {
		stripped = strings.ToLower(value)
	}
	return strings.Trim(nonAlnum.ReplaceAllString(stripped, "-"), "-")
}

// Resolve returns explicit when it is non-empty after normalization, otherwise
// a slug generated from name.
func Resolve(explicit, name string) string {
	if s := Make(explicit); s != "" {
		return s
	}
	return Make(name)
}
