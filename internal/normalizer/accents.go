package normalizer

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"github.com/mozillazg/go-unidecode"
	"golang.org/x/text/cases"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// StripDiacritics removes combining marks ("Québec" -> "Quebec").
func StripDiacritics(s string) string {
	t := transform.Chain(norm.NFD, transform.RemoveFunc(isMn), norm.NFC)
	out, _, _ := transform.String(t, s)
	return out
}

func isMn(r rune) bool {
	return unicode.Is(unicode.Mn, r)
}

// FoldKey returns the lookup key used for case-insensitive comparisons of
// country names, state aliases and exclusion words.
func FoldKey(s string) string {
	// cases.Caser is stateful, one per call
	folded := cases.Fold().String(strings.TrimSpace(s))
	folded = StripDiacritics(folded)
	if !isASCII(folded) {
		folded = unidecode.Unidecode(folded)
	}
	return strings.ToLower(folded)
}

// EqualFold reports whether a and b have the same lookup key.
func EqualFold(a, b string) bool {
	return FoldKey(a) == FoldKey(b)
}

func isASCII(s string) bool {
	for i := 0; i < len(s); i++ {
		if s[i] >= utf8.RuneSelf {
			return false
		}
	}
	return true
}
