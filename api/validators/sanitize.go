package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims input, drops control characters, collapses runs of
// whitespace and caps the result at maxLen runes.
func SanitizeString(input string, maxLen int) string {
	fields := strings.FieldsFunc(input, func(r rune) bool {
		return unicode.IsSpace(r) || unicode.IsControl(r)
	})
	cleaned := []rune(strings.Join(fields, " "))
	if maxLen > 0 && len(cleaned) > maxLen {
		cleaned = []rune(strings.TrimSpace(string(cleaned[:maxLen])))
	}
	return string(cleaned)
}
