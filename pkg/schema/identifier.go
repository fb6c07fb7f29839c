package schema

import (
	"regexp"
	"strings"
)

// Identifier is a national identifier in canonical "<body>-<check>" form.
// Equality is plain string equality; the check character is never validated.
type Identifier string

// Body returns the part before the separator.
func (id Identifier) Body() string {
	body, _, _ := strings.Cut(string(id), "-")
	return body
}

// identifierPatterns are tried in order against free text; first match wins.
var identifierPatterns = []*regexp.Regexp{
	regexp.MustCompile(`(\d{1,3}(?:\.?\d{3}){2})-([\dkK])`), // 12.345.678-9
	regexp.MustCompile(`(\d{7,8})([\dkK])`),                 // 123456789
	regexp.MustCompile(`(\d+)[\s-]*([\dkK])`),               // 12345678 9
}

// NormalizeIdentifier canonicalizes a loosely formatted identifier:
//  1. TrimSpace, ToUpper
//  2. Drop every character that is not a digit or K
//  3. Fail when fewer than 2 characters remain
//  4. Join all-but-last and last with "-"
func NormalizeIdentifier(raw string) (Identifier, bool) {
	s := strings.ToUpper(strings.TrimSpace(raw))

	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if (r >= '0' && r <= '9') || r == 'K' {
			b.WriteRune(r)
		}
	}

	clean := b.String()
	if len(clean) < 2 {
		return "", false
	}
	return Identifier(clean[:len(clean)-1] + "-" + clean[len(clean)-1:]), true
}

// ExtractIdentifier finds an identifier embedded in free text such as
// "Juan Pérez 12.345.678-9 Depto X". Dots are removed from the number and the
// check character keeps the case it was written in.
func ExtractIdentifier(text string) (Identifier, bool) {
	if text == "" {
		return "", false
	}

	for _, re := range identifierPatterns {
		m := re.FindStringSubmatch(text)
		if m == nil {
			continue
		}
		number := strings.ReplaceAll(m[1], ".", "")
		return Identifier(number + "-" + m[2]), true
	}

	return "", false
}

// usernamePatterns recover an identifier body embedded in an account name,
// e.g. jperez.12345678, jperez_12345678, jperez12345678.
var usernamePatterns = []*regexp.Regexp{
	regexp.MustCompile(`\.(\d{7,8})[^\d]*$`),
	regexp.MustCompile(`_(\d{7,8})[^\d]*$`),
	regexp.MustCompile(`(\d{7,8})[^\d]*$`),
}

// SyntheticCheck is the check character assigned to identifiers recovered
// from account names, which never carry one.
const SyntheticCheck = "0"

// IdentifierFromUsername extracts a 7-8 digit body from an account name and
// returns it with SyntheticCheck. The result only matches roster identifiers
// whose real check character is 0.
func IdentifierFromUsername(username string) (Identifier, bool) {
	for _, re := range usernamePatterns {
		if m := re.FindStringSubmatch(username); m != nil {
			return Identifier(m[1] + "-" + SyntheticCheck), true
		}
	}
	return "", false
}
