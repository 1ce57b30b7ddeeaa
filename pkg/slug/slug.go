package slug

import (
	"regexp"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

	// Letters that do not decompose into base + combining mark.
	special = strings.NewReplacer(
		"ı", "i", "ß", "ss", "ø", "o", "æ", "ae", "œ", "oe", "ł", "l", "đ", "d",
		"&", " and ", "+", " plus ",
	)
)

// Generate creates a URL-friendly slug from name. Accented Latin letters are
// folded to ASCII.
//
// Examples:
//   - "Wireless Mouse (Black)" → "wireless-mouse-black"
//   - "Café Crème" → "cafe-creme"
//   - "Salt & Pepper" → "salt-and-pepper"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = special.Replace(s)

	t := transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	if folded, _, err := transform.String(t, s); err == nil {
		s = folded
	}

	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}

// WithSuffix appends the first eight characters of id so two products with the
// same name still get distinct slugs.
func WithSuffix(name, id string) string {
	base := Generate(name)
	suffix := strings.ReplaceAll(id, "-", "")
	if len(suffix) > 8 {
		suffix = suffix[:8]
	}
	switch {
	case suffix == "":
		return base
	case base == "":
		return suffix
	default:
		return base + "-" + suffix
	}
}
