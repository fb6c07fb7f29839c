package schema

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// foldHeader lowercases a header and strips diacritics so that "Cédula" and
// "IDENTIFICACIÓN" compare equal to their plain ASCII vocabulary entries.
func foldHeader(header string) string {
	return stripDiacritics(strings.ToLower(strings.TrimSpace(header)))
}

// stripDiacritics removes diacritical marks (accents) from a string.
// It decomposes the string into NFD form and removes combining marks (unicode.Mn).
func stripDiacritics(s string) string {
	decomposed := norm.NFD.String(s)
	var result strings.Builder
	result.Grow(len(decomposed))

	for _, r := range decomposed {
		if unicode.Is(unicode.Mn, r) {
			continue
		}
		result.WriteRune(r)
	}

	return result.String()
}

// trimCell trims surrounding whitespace, including the non-breaking spaces
// spreadsheet exports leave around values.
func trimCell(s string) string {
	return strings.TrimSpace(s)
}
