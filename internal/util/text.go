package util

import (
	"strings"
	"unicode"
	"unicode/utf8"
)

// SanitizeText drops invalid UTF-8 and NUL bytes.
func SanitizeText(value string) string {
	if value == "" {
		return value
	}

	sanitized := strings.ToValidUTF8(value, "")
	return strings.ReplaceAll(sanitized, "\x00", "")
}

// CollapseSpaces trims value and replaces every run of whitespace with a
// single space.
func CollapseSpaces(value string) string {
	return strings.Join(strings.Fields(value), " ")
}

// TruncateRunes cuts value to at most max runes. A non-positive max leaves
// value unchanged.
func TruncateRunes(value string, max int) string {
	if max <= 0 || utf8.RuneCountInString(value) <= max {
		return value
	}
	n := 0
	for i := range value {
		if n == max {
			return value[:i]
		}
		n++
	}
	return value
}

// TrimPunct strips leading and trailing punctuation and symbols.
func TrimPunct(value string) string {
	return strings.TrimFunc(value, func(r rune) bool {
		return unicode.IsPunct(r) || unicode.IsSymbol(r) || unicode.IsSpace(r)
	})
}
