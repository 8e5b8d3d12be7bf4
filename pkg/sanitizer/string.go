package sanitizer

import (
	"strings"
	"unicode"
)

// TrimAndNormalize trims s and collapses every whitespace run to one space.
func TrimAndNormalize(s string) string {
	s = strings.TrimSpace(s)

	if s == "" {
		return ""
	}

	var result strings.Builder
	var lastWasSpace bool

	for _, r := range s {
		if unicode.IsSpace(r) {
			if !lastWasSpace {
				result.WriteRune(' ')
				lastWasSpace = true
			}
		} else {
			result.WriteRune(r)
			lastWasSpace = false
		}
	}

	return result.String()
}

func NormalizeName(name string) string {
	return TrimAndNormalize(name)
}

func NormalizeTitle(title string) string {
	return TrimAndNormalize(title)
}

// NormalizeEmail lowercases the whole address. Ownership checks compare
// addresses case-insensitively.
func NormalizeEmail(email string) string {
	return strings.ToLower(strings.TrimSpace(email))
}

func NormalizeAmenity(amenity string) string {
	return strings.ToLower(TrimAndNormalize(amenity))
}
