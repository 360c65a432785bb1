package i18n

import (
	"golang.org/x/text/feature/plural"
	"golang.org/x/text/language"
)

const (
	pluralZero  = "zero"
	pluralOne   = "one"
	pluralTwo   = "two"
	pluralFew   = "few"
	pluralMany  = "many"
	pluralOther = "other"
)

// pluralForm returns the CLDR cardinal category of n in lang.
func pluralForm(lang string, n int) string {
	tag, err := language.Parse(lang)
	if err != nil {
		return pluralOther
	}
	if n < 0 {
		n = -n
	}
	switch plural.Cardinal.MatchPlural(tag, n, 0, 0, 0, 0) {
	case plural.Zero:
		return pluralZero
	case plural.One:
		return pluralOne
	case plural.Two:
		return pluralTwo
	case plural.Few:
		return pluralFew
	case plural.Many:
		return pluralMany
	default:
		return pluralOther
	}
}
