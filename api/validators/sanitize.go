package validators

import "strings"

// SanitizeString trims input, collapses runs of whitespace to one space and
// caps the result at maxLen runes. maxLen <= 0 means no cap.
func SanitizeString(input string, maxLen int) string {
	clean := strings.Join(strings.Fields(input), " ")
	if maxLen <= 0 {
		return clean
	}
	runes := []rune(clean)
	if len(runes) <= maxLen {
		return clean
	}
	return strings.TrimSpace(string(runes[:maxLen]))
}
