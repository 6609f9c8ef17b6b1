package validators

import (
	"strings"
	"unicode"
)

// SanitizeString trims surrounding space and drops invalid UTF-8 and control
// characters. Length limits are left to the service that owns the field.
func SanitizeString(input string) string {
	cleaned := strings.Map(func(r rune) rune {
		if r == unicode.ReplacementChar || unicode.IsControl(r) {
			return -1
		}
		return r
	}, strings.ToValidUTF8(input, ""))
	return strings.TrimSpace(cleaned)
}
