package geo

import (
	"strings"
	"unicode"
	"unicode/utf8"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// Name type constants as stored in geo_names.
const (
	NameTypePrimary   = "primary"
	NameTypeCommon    = "common"
	NameTypeOfficial  = "official"
	NameTypeAlternate = "alternate"
	NameTypeShort     = "short"
)

// LangUnspecified marks a primary name whose language the source does
// not identify.
const LangUnspecified = "xx"

var asciiFolder = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// NameASCII derives the searchable ASCII form of a display name by
// stripping diacritics and dropping any remaining non-ASCII runes. It
// falls back to the native-language name when the display name folds
// away entirely, and to the raw display name as a last resort, so names
// in non-Latin scripts survive as-is.
func NameASCII(name, localName string) string {
	if out := asciiFold(name); out != "" {
		return out
	}
	if out := asciiFold(localName); out != "" {
		return out
	}
	return name
}

func asciiFold(s string) string {
	folded, _, err := transform.String(asciiFolder, s)
	if err != nil {
		return ""
	}

	var b strings.Builder
	b.Grow(len(folded))
	for _, r := range folded {
		if r < utf8.RuneSelf {
			b.WriteRune(r)
		}
	}
	return strings.TrimSpace(b.String())
}
