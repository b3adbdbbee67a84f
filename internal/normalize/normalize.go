// Package normalize holds the locale-aware text and number normalizers shared
// by the extractor, crawler and matcher.
package normalize

import (
	"regexp"
	"strconv"
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

var (
	priceCleanRe   = regexp.MustCompile(`[^0-9,.\-]`)
	slugInvalidRe  = regexp.MustCompile(`[^a-z0-9]+`)
	slugCollapseRe = regexp.MustCompile(`-{2,}`)
	whitespaceRe   = regexp.MustCompile(`\s+`)
	titleInvalidRe = regexp.MustCompile(`[^a-z0-9çğıöşü\s]`)

	// NFKD splits base letters from combining marks, which are then removed.
	// U+0131 (dotless i) has no decomposition, so it is folded explicitly.
	asciiFolder     = transform.Chain(norm.NFKD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)
	turkishFoldable = strings.NewReplacer("ı", "i", "İ", "i", "ø", "o", "æ", "ae", "ß", "ss", "đ", "d", "ł", "l")
)

// Price parses a localized price string into a number. Turkish price strings
// use either "1.234,56" or "1234,56"; a lone comma followed by one or two
// digits is treated as the decimal separator, otherwise commas are thousands
// separators. Returns (0, false) when no number can be recovered.
func Price(text string) (float64, bool) {
	t := strings.TrimSpace(text)
	if t == "" {
		return 0, false
	}
	t = priceCleanRe.ReplaceAllString(t, "")
	switch {
	case strings.Contains(t, ",") && strings.Contains(t, "."):
		t = strings.ReplaceAll(t, ".", "")
		t = strings.ReplaceAll(t, ",", ".")
	case strings.Count(t, ",") == 1 && decimalTail(t):
		t = strings.ReplaceAll(t, ",", ".")
	default:
		t = strings.ReplaceAll(t, ",", "")
	}
	v, err := strconv.ParseFloat(t, 64)
	if err != nil {
		return 0, false
	}
	return v, true
}

func decimalTail(t string) bool {
	parts := strings.Split(t, ",")
	n := len(parts[len(parts)-1])
	return n == 1 || n == 2
}

// Slug derives a URL-safe identifier from a title: diacritics folded to
// ASCII, lowercased, runs of non-alphanumerics collapsed to single hyphens.
func Slug(value string) string {
	if value == "" {
		return ""
	}
	value = turkishFoldable.Replace(value)
	folded, _, err := transform.String(asciiFolder, value)
	if err != nil {
		folded = value
	}
	folded = stripNonASCII(folded)
	folded = strings.ToLower(folded)
	folded = slugInvalidRe.ReplaceAllString(folded, "-")
	folded = strings.Trim(folded, "-")
	return slugCollapseRe.ReplaceAllString(folded, "-")
}

func stripNonASCII(s string) string {
	var b strings.Builder
	b.Grow(len(s))
	for _, r := range s {
		if r < 128 {
			b.WriteRune(r)
		}
	}
	return b.String()
}

// SKU normalizes a SKU or barcode for exact matching: all whitespace removed,
// uppercased.
func SKU(value string) string {
	v := strings.TrimSpace(value)
	if v == "" {
		return ""
	}
	v = whitespaceRe.ReplaceAllString(v, "")
	return strings.ToUpper(v)
}

// Title normalizes a product title for the fuzzy index: lowercased, Turkish
// letters kept, everything else squashed to spaces.
func Title(value string) string {
	if value == "" {
		return ""
	}
	v := strings.ToLower(value)
	v = titleInvalidRe.ReplaceAllString(v, " ")
	return strings.TrimSpace(whitespaceRe.ReplaceAllString(v, " "))
}
