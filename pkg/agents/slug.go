package agents

import (
	"strings"
	"unicode"

	"golang.org/x/text/cases"
	"golang.org/x/text/language"
	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var stripAccents = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

var titleCaser = cases.Title(language.BrazilianPortuguese)

// Slug converts a free-form name into a stable ASCII identifier:
// accents stripped, lowercased, runs of non-alphanumerics collapsed to
// single hyphens. "Poção de Cura" becomes "pocao-de-cura". Template
// cache keys and item IDs depend on this being deterministic.
func Slug(name string) string {
	flat, _, err := transform.String(stripAccents, name)
	if err != nil {
		flat = name
	}
	flat = strings.ToLower(flat)

	var sb strings.Builder
	lastHyphen := true // suppress leading hyphen
	for _, r := range flat {
		switch {
		case r >= 'a' && r <= 'z', r >= '0' && r <= '9':
			sb.WriteRune(r)
			lastHyphen = false
		default:
			if !lastHyphen {
				sb.WriteByte('-')
				lastHyphen = true
			}
		}
	}
	return strings.TrimSuffix(sb.String(), "-")
}

// DisplayName renders a slug or raw name as a title-cased label.
func DisplayName(name string) string {
	return titleCaser.String(strings.ReplaceAll(name, "-", " "))
}
