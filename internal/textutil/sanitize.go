package textutil

import (
	"path/filepath"
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// NormalizeName trims the name and converts it to Unicode NFC. macOS reports
// decomposed (NFD) names from the filesystem while most input is composed, so
// names are normalized before they are compared.
func NormalizeName(name string) string {
	return norm.NFC.String(strings.TrimSpace(name))
}

// Stem returns the base name of path without its extension.
func Stem(path string) string {
	base := filepath.Base(path)
	return strings.TrimSuffix(base, filepath.Ext(base))
}

// SanitizeToken lowercases value and replaces everything except ASCII
// letters, digits, '-' and '_' with '_'. Lock file names are built from it.
// Empty results become "unknown".
func SanitizeToken(value string) string {
	token := strings.Map(func(r rune) rune {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9', r == '-', r == '_':
			return r
		case r >= 'A' && r <= 'Z':
			return unicode.ToLower(r)
		default:
			return '_'
		}
	}, strings.TrimSpace(value))
	if token = strings.Trim(token, "_-"); token == "" {
		return "unknown"
	}
	return token
}
