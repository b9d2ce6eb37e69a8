package parser

import (
	"regexp"

	"github.com/postal-parser/internal/locale"
)

var (
	caLetterDigitLetter = regexp.MustCompile(`^[A-Za-z][0-9][A-Za-z]$`)
	caDigitLetterDigit  = regexp.MustCompile(`^[0-9][A-Za-z][0-9]$`)
	caPostalCode        = regexp.MustCompile(`^[A-Za-z][0-9][A-Za-z] [0-9][A-Za-z][0-9]$`)
	usZipCode           = regexp.MustCompile(`^[0-9]+(-[0-9]+)?$`)
)

// HasPostalFormat reports whether postal codes of c can be recognized at all.
func HasPostalFormat(c locale.Country) bool {
	return c == locale.Canada || c == locale.UnitedStates
}

// IsPostalToken reports whether a single token may be part of a postal code of c.
func IsPostalToken(c locale.Country, text string) bool {
	switch c {
	case locale.Canada:
		return caLetterDigitLetter.MatchString(text) || caDigitLetterDigit.MatchString(text)
	case locale.UnitedStates:
		return usZipCode.MatchString(text)
	}
	return false
}

// IsPostalPair reports whether two tokens form a complete two-block code of c.
func IsPostalPair(c locale.Country, first, second string) bool {
	return c == locale.Canada &&
		caLetterDigitLetter.MatchString(first) &&
		caDigitLetterDigit.MatchString(second)
}

// ValidPostalCode checks a complete, space-joined postal code. Countries
// without a known format never validate.
func ValidPostalCode(c locale.Country, code string) bool {
	switch c {
	case locale.Canada:
		return caPostalCode.MatchString(code)
	case locale.UnitedStates:
		return usZipCode.MatchString(code)
	}
	return false
}
