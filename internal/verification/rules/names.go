// Package rules holds the pure verification rules: name reconciliation,
// nationality equivalence, expiry policy and contact/credential formats.
// Nothing here performs I/O.
package rules

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// NormalizeName folds case, strips diacritics and collapses whitespace and punctuation.
func NormalizeName(s string) string {
	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	folded, _, err := transform.String(t, s)
	if err != nil {
		folded = s
	}
	folded = strings.ToLower(folded)
	folded = strings.Map(func(r rune) rune {
		switch {
		case unicode.IsLetter(r), unicode.IsDigit(r):
			return r
		case r == '\'' || r == '’':
			return -1
		default:
			return ' '
		}
	}, folded)
	return strings.Join(strings.Fields(folded), " ")
}

// FirstGivenName returns the first token of a normalised given-names string.
func FirstGivenName(givenNames string) string {
	fields := strings.Fields(NormalizeName(givenNames))
	if len(fields) == 0 {
		return ""
	}
	return fields[0]
}

// SurnamesMatch compares surnames ignoring case, accents and spacing.
// Hyphenated and spaced forms of the same surname match.
func SurnamesMatch(a, b string) bool {
	na, nb := NormalizeName(a), NormalizeName(b)
	if na == "" || nb == "" {
		return false
	}
	return strings.ReplaceAll(na, " ", "") == strings.ReplaceAll(nb, " ", "")
}

// GivenNamesMatch compares by first given name only, so middle names may differ.
func GivenNamesMatch(a, b string) bool {
	fa, fb := FirstGivenName(a), FirstGivenName(b)
	return fa != "" && fa == fb
}
