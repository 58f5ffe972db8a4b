package interpretation

import (
	"golang.org/x/text/language"
)

// SupportedLocales lists the locales readings are written in. The first entry
// is the fallback.
var SupportedLocales = []language.Tag{
	language.English,
	language.Korean,
}

var localeMatcher = language.NewMatcher(SupportedLocales)

// NormalizeLocale maps an Accept-Language value or BCP 47 tag onto a
// supported locale, returned as its base language code ("en", "ko").
func NormalizeLocale(raw string) string {
	if raw == "" {
		return baseOf(SupportedLocales[0])
	}
	tags, _, err := language.ParseAcceptLanguage(raw)
	if err != nil || len(tags) == 0 {
		return baseOf(SupportedLocales[0])
	}
	_, index, confidence := localeMatcher.Match(tags...)
	if confidence == language.No {
		return baseOf(SupportedLocales[0])
	}
	return baseOf(SupportedLocales[index])
}

// LanguageName returns the English name of a normalized locale, used in prompts.
func LanguageName(locale string) string {
	switch locale {
	case "ko":
		return "Korean"
	default:
		return "English"
	}
}

func baseOf(tag language.Tag) string {
	base, _ := tag.Base()
	return base.String()
}
