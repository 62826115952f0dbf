package text

import (
	"strings"
	"unicode"

	"golang.org/x/text/unicode/norm"
)

// Punctuation and formatting constants.
const (
	emDash     = "—"
	enDash     = "–"
	figureDash = "‒"
	hyphen     = "-"
)

// punctuationReplacer drops opening brackets and turns closing brackets and quotes
// into sentence stops, so a bracketed aside is spoken as its own sentence. No
// replacement value contains a key, which keeps NormalizePunctuation idempotent.
var punctuationReplacer = strings.NewReplacer(
	"<", "", "{", "", "[", "", "(", "", "«", "",
	">", ".", "}", ".", "]", ".", ")", ".", "»", ".",
	`"`, ".", "“", ".", "”", ".", "„", ".",
	"!", ".",
	hyphen, " ", enDash, " ", emDash, " ", figureDash, " ",
)

// NormalizePunctuation rewrites brackets, quotes and dashes, composes the text to NFC
// and collapses all whitespace runs to single spaces.
func NormalizePunctuation(text string) string {
	if text == "" {
		return text
	}

	replaced := punctuationReplacer.Replace(text)

	return collapseWhitespace(norm.NFC.String(replaced))
}

func collapseWhitespace(text string) string {
	return strings.Join(strings.Fields(text), " ")
}

func isTrimmable(r rune) bool {
	return unicode.IsPunct(r) || unicode.IsSymbol(r)
}
