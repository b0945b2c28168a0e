package utils

import (
	"strings"
	"unicode"

	"golang.org/x/text/runes"
	"golang.org/x/text/transform"
	"golang.org/x/text/unicode/norm"
)

// foldTransformer decomposes to NFD, drops combining marks (latin accents
// and arabic tashkeel alike) and recomposes. Built once, reused per call
// via transform.String which is safe for concurrent use.
var foldTransformer = transform.Chain(norm.NFD, runes.Remove(runes.In(unicode.Mn)), norm.NFC)

// arabicUnifier collapses arabic letter variants that exports spell
// inconsistently: alef forms, teh marbuta, final yeh, tatweel.
var arabicUnifier = strings.NewReplacer(
	"آ", "ا", // آ → ا
	"أ", "ا", // أ → ا
	"إ", "ا", // إ → ا
	"ة", "ه", // ة → ه
	"ى", "ي", // ى → ي
	"ـ", "", // tatweel
)

// NormalizeHeader prepares a spreadsheet header for synonym matching:
// lowercase, punctuation stripped, internal whitespace collapsed to
// single spaces.
func NormalizeHeader(h string) string {
	var b strings.Builder
	for _, r := range strings.ToLower(strings.TrimSpace(h)) {
		switch {
		case unicode.IsLetter(r) || unicode.IsDigit(r):
			b.WriteRune(r)
		case unicode.IsSpace(r) || r == '_' || r == '-' || r == '/':
			b.WriteRune(' ')
		}
		// everything else (punctuation, symbols) is dropped
	}
	return strings.Join(strings.Fields(b.String()), " ")
}

// FoldName normalizes a free-text name for case- and diacritic-insensitive
// comparison. Works for both latin ("Réd Séa" == "red sea") and arabic
// ("القاهرة" == "القاهره") name variants.
func FoldName(s string) string {
	folded, _, err := transform.String(foldTransformer, s)
	if err != nil {
		folded = s
	}
	folded = arabicUnifier.Replace(folded)
	folded = strings.ToLower(strings.TrimSpace(folded))
	return strings.Join(strings.Fields(folded), " ")
}

// NormalizeDigits rewrites arabic-indic and extended arabic-indic digits
// to their ASCII equivalents so numeric cells from arabic exports parse.
func NormalizeDigits(s string) string {
	return strings.Map(func(r rune) rune {
		switch {
		case r >= '٠' && r <= '٩': // ٠..٩
			return '0' + (r - '٠')
		case r >= '۰' && r <= '۹': // ۰..۹
			return '0' + (r - '۰')
		}
		return r
	}, s)
}

// NormalizeMobile strips everything but digits (after digit normalization)
// and rewrites the +20 / 0020 international prefix to the leading-zero
// national form.
func NormalizeMobile(s string) string {
	digits := strings.Map(func(r rune) rune {
		if r >= '0' && r <= '9' {
			return r
		}
		return -1
	}, NormalizeDigits(s))

	if strings.HasPrefix(digits, "0020") {
		digits = "0" + digits[4:]
	} else if strings.HasPrefix(digits, "20") && len(digits) == 12 {
		digits = "0" + digits[2:]
	}
	return digits
}
