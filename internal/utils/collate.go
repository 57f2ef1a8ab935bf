package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// FoldKey produces an accent- and case-insensitive collation key.
// "São Luís" and "SAO LUIS" fold to the same key.
func FoldKey(s string) string {
	s = NormalizeSpace(s)
	if out, _, err := transform.String(stripAccents, s); err == nil {
		s = out
	}
	return strings.ToUpper(s)
}

// FoldEqual reports whether two strings are equal under FoldKey.
func FoldEqual(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}
