package enums

import "fmt"

// Language is a supported interface language.
type Language string

const (
	LanguageSwahili Language = "sw"
	LanguageEnglish Language = "en"
	LanguageArabic  Language = "ar"
	LanguageHindi   Language = "hi"
)

var validLanguages = []Language{
	LanguageSwahili,
	LanguageEnglish,
	LanguageArabic,
	LanguageHindi,
}

// String implements fmt.Stringer.
func (v Language) String() string {
	return string(v)
}

// IsValid reports whether the value is a known Language.
func (v Language) IsValid() bool {
	for _, candidate := range validLanguages {
		if candidate == v {
			return true
		}
	}
	return false
}

// ParseLanguage converts raw input into a Language.
func ParseLanguage(value string) (Language, error) {
	for _, candidate := range validLanguages {
		if string(candidate) == value {
			return candidate, nil
		}
	}
	return "", fmt.Errorf("invalid language %q", value)
}
