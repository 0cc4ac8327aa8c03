// Package slug normalizes taxonomy names and user-supplied slugs to the
// lower-case, hyphen-separated form stored on brands, categories and models.
package slug

import (
	"regexp"
	"strings"
)

var nonAlnum = regexp.MustCompile(`[^a-z0-9]+`)

// Vehicle makes and categories on the marketplace come from across Europe.
var transliterate = strings.NewReplacer(
	"ä", "ae", "ö", "oe", "ü", "ue", "ß", "ss",
	"à", "a", "á", "a", "â", "a", "å", "a", "ã", "a",
	"ç", "c", "č", "c", "ć", "c",
	"è", "e", "é", "e", "ê", "e", "ë", "e", "ě", "e",
	"ì", "i", "í", "i", "î", "i", "ï", "i", "ı", "i",
	"ñ", "n", "ń", "n", "ň", "n",
	"ò", "o", "ó", "o", "ô", "o", "ø", "o", "õ", "o",
	"ř", "r", "š", "s", "ś", "s", "ş", "s",
	"ù", "u", "ú", "u", "û", "u", "ů", "u",
	"ý", "y", "ž", "z", "ź", "z", "ż", "z",
	"ł", "l", "ğ", "g", "æ", "ae", "œ", "oe",
	"&", " and ",
)

// Generate creates a URL-friendly slug from name.
//
// Examples:
//   - "Mercedes-Benz" → "mercedes-benz"
//   - "Sattelzugmaschinen & Anhänger" → "sattelzugmaschinen-and-anhaenger"
//   - "  Škoda   Trucks! " → "skoda-trucks"
func Generate(name string) string {
	s := strings.ToLower(strings.TrimSpace(name))
	s = transliterate.Replace(s)
	s = nonAlnum.ReplaceAllString(s, "-")
	return strings.Trim(s, "-")
}
