package usecase

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

var punctuationReplacer = strings.NewReplacer(
	"\u201c", `"`, "\u201d", `"`, "\u201e", `"`, "\u201f", `"`, "\u2033", `"`,
	"\u2018", "'", "\u2019", "'", "\u201a", "'", "\u201b", "'", "\u2032", "'",
	"\u2010", "-", "\u2011", "-", "\u2012", "-", "\u2013", "-", "\u2014", "-", "\u2015", "-", "\u2212", "-",
	"\u2026", "...",
	"\u00a0", " ",
	"\u00b0", " degrees ",
)

// SanitizeText reduces text to single-spaced printable ASCII. Typographic
// punctuation becomes its ASCII form, accents are folded ("café" -> "cafe"),
// vulgar fractions become "1/2", emoji and other symbols are removed.
// SanitizeText(SanitizeText(s)) == SanitizeText(s).
func SanitizeText(s string) string {
	s = punctuationReplacer.Replace(s)
	s = norm.NFKD.String(s)
	s = strings.Map(func(r rune) rune {
		switch {
		case r == '\u2044':
			return '/'
		case unicode.Is(unicode.Mn, r):
			return -1
		case r > unicode.MaxASCII:
			return ' '
		case r == 0x7f || (r < 0x20 && !unicode.IsSpace(r)):
			return -1
		}
		return r
	}, s)
	return strings.Join(strings.Fields(s), " ")
}
