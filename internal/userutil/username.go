package userutil

import "strings"

// SanitizeUsername maps a username to a form that is safe to embed in pipe
// and mutex names. Runes outside [a-zA-Z0-9._-] become underscores; an empty
// or all-space value becomes "unknown".
func SanitizeUsername(value string) string {
	value = strings.TrimSpace(value)
	if value == "" {
		return "unknown"
	}
	return strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= 'A' && r <= 'Z', r >= '0' && r <= '9':
			return r
		case r == '.', r == '_', r == '-':
			return r
		default:
			return '_'
		}
	}, value)
}
