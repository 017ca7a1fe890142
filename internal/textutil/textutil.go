// Package textutil holds the shared text heuristics used by the statement
// extractors: locale folding for header matching, locale-aware amount
// parsing, and repair of text that was exported with a mangled encoding.
package textutil

import (
	"fmt"
	"regexp"
	"strconv"
	"strings"
	"unicode/utf8"
)

// accentFolder maps the accented characters that show up in Portuguese,
// German and French statement headers onto their ASCII base letters.
var accentFolder = strings.NewReplacer(
	"á", "a", "à", "a", "ã", "a", "â", "a", "ä", "a",
	"é", "e", "è", "e", "ê", "e", "ë", "e",
	"í", "i", "ì", "i", "î", "i", "ï", "i",
	"ó", "o", "ò", "o", "õ", "o", "ô", "o", "ö", "o",
	"ú", "u", "ù", "u", "û", "u", "ü", "u",
	"ç", "c", "ñ", "n", "ß", "ss",
	"Á", "a", "À", "a", "Ã", "a", "Â", "a", "Ä", "a",
	"É", "e", "È", "e", "Ê", "e", "Ë", "e",
	"Í", "i", "Ì", "i", "Î", "i", "Ï", "i",
	"Ó", "o", "Ò", "o", "Õ", "o", "Ô", "o", "Ö", "o",
	"Ú", "u", "Ù", "u", "Û", "u", "Ü", "u",
	"Ç", "c", "Ñ", "n",
)

var spaceCollapser = regexp.MustCompile(`\s+`)

// punctStripper removes punctuation that varies between header spellings
// ("Started Date" vs "started_date" vs "Data-Início").
var punctStripper = regexp.MustCompile(`[._\-/()\[\]:;,]+`)

// Fold lower-cases a string, strips accents, replaces punctuation with
// spaces and collapses whitespace. Two header spellings that differ only in
// case, accents or separators fold to the same value.
func Fold(s string) string {
	s = strings.ToLower(accentFolder.Replace(s))
	s = punctStripper.ReplaceAllString(s, " ")
	return strings.TrimSpace(spaceCollapser.ReplaceAllString(s, " "))
}

// StripAccents replaces accented characters with their base letters without
// changing case.
func StripAccents(s string) string {
	return accentFolder.Replace(s)
}

// amountShape matches currency-formatted numbers such as "1,234.56",
// "1.234,56", "-4,50" or "23.10".
var amountShape = regexp.MustCompile(`^[-+]?\d{1,3}(?:[.,]?\d{3})*[.,]\d{2}$|^[-+]?\d+[.,]\d{1,2}$`)

// currencyStripper removes currency symbols and hard spaces before amount
// parsing.
var currencyStripper = strings.NewReplacer(
	"€", "", "£", "", "$", "", "EUR", "", "GBP", "", "USD", "",
	" ", "", " ", "",
)

// IsAmount reports whether s looks like a currency-formatted number once
// symbols are stripped.
func IsAmount(s string) bool {
	s = strings.TrimSpace(currencyStripper.Replace(s))
	return s != "" && amountShape.MatchString(s)
}

// ParseAmount converts a currency string to a float64. Both decimal-comma
// ("1.234,56") and decimal-dot ("1,234.56") conventions are accepted; the
// rightmost separator is taken as the decimal mark.
func ParseAmount(s string) (float64, error) {
	s = strings.TrimSpace(currencyStripper.Replace(s))
	if s == "" || s == "-" {
		return 0, fmt.Errorf("empty amount")
	}

	lastComma := strings.LastIndex(s, ",")
	lastDot := strings.LastIndex(s, ".")
	switch {
	case lastComma > lastDot:
		// Decimal comma: dots (if any) are thousands separators.
		s = strings.ReplaceAll(s, ".", "")
		s = strings.Replace(s, ",", ".", 1)
		s = strings.ReplaceAll(s, ",", "")
	case lastDot > lastComma:
		s = strings.ReplaceAll(s, ",", "")
	}

	v, err := strconv.ParseFloat(s, 64)
	if err != nil {
		return 0, fmt.Errorf("malformed amount %q", s)
	}
	return v, nil
}

// mojibakeHint matches the byte patterns produced when UTF-8 output is
// re-decoded as Latin-1: "Ã©" for "é", "Ã£" for "ã", "â€" sequences for
// punctuation, stray "Â" before symbols.
var mojibakeHint = regexp.MustCompile(`Ã[\x{0080}-\x{00BF}©£§±¢€‰]|Ã©|Ã£|Ã§|Ãº|Ã³|Ã¡|Ã¢|Ãª|Ã­|â€|Â[\x{00A0}-\x{00BF}]`)

// FixMojibake repairs strings whose UTF-8 bytes were mis-decoded as Latin-1.
// The repaired value is only accepted when it decodes cleanly; if the repair
// produces replacement characters the original string is returned untouched
// rather than corrupting the data further.
func FixMojibake(s string) string {
	if !mojibakeHint.MatchString(s) {
		return s
	}

	// Re-interpret the code points as raw bytes. Code points above 0xFF mean
	// the string was never Latin-1-decoded UTF-8 in the first place.
	buf := make([]byte, 0, len(s))
	for _, r := range s {
		if r > 0xFF {
			return s
		}
		buf = append(buf, byte(r))
	}

	if !utf8.Valid(buf) {
		return s
	}
	repaired := string(buf)
	if strings.ContainsRune(repaired, utf8.RuneError) {
		return s
	}
	return repaired
}

// Title converts a raw description to title case, keeping short
// all-uppercase tokens (acronyms, card scheme codes) intact.
func Title(s string) string {
	words := strings.Fields(strings.TrimSpace(s))
	for i, w := range words {
		if len(w) <= 3 && w == strings.ToUpper(w) && w != strings.ToLower(w) {
			continue // keep short acronyms as-is
		}
		lower := strings.ToLower(w)
		r, size := utf8.DecodeRuneInString(lower)
		if size > 0 {
			words[i] = strings.ToUpper(string(r)) + lower[size:]
		}
	}
	return strings.Join(words, " ")
}
