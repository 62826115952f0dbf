package text

import (
	"errors"
	"strconv"
	"strings"
	"unicode"
)

// Expand spells out the digit runs of every token, applies the lexical substitutions
// and strips periods from the final token.
//
// The case of a token's numerals is decided once, from the raw (unexpanded) token
// before it. Tokens whose digits cannot be split cleanly are kept as they are and
// reported in warnings. A digit run outside the spellable range fails the call.
func (l *Language) Expand(tokens []string) ([]string, []error, error) {
	expanded := make([]string, len(tokens))

	var (
		warnings []error
		previous string
		hasPrev  bool
	)

	for i, token := range tokens {
		current := token

		if l.ExpandsNumerals() && containsDigit(token) {
			governed := hasPrev && l.Governs(previous)

			spelled, err := l.expandToken(token, governed)

			switch {
			case err == nil:
				current = spelled
			case isMalformed(err):
				warnings = append(warnings, err)
			default:
				return nil, warnings, err
			}
		}

		previous, hasPrev = token, true
		expanded[i] = l.Substitute(current)
	}

	if last := len(expanded) - 1; last >= 0 && strings.Contains(expanded[last], DelimiterPeriod) {
		expanded[last] = strings.ReplaceAll(expanded[last], DelimiterPeriod, "")
	}

	return expanded, warnings, nil
}

// ExpandSentence tokenizes sentence on whitespace, expands it and joins the result
// back with single spaces.
func (l *Language) ExpandSentence(sentence string) (string, []error, error) {
	tokens, warnings, err := l.Expand(strings.Fields(sentence))
	if err != nil {
		return "", warnings, err
	}

	return collapseWhitespace(strings.Join(tokens, " ")), warnings, nil
}

// expandToken replaces each digit run of token with its words, padded with a space
// on each side; every other rune stays where it was.
func (l *Language) expandToken(token string, governed bool) (string, error) {
	if hasDigitBeforeMark(token) {
		return "", &MalformedTokenError{Token: token}
	}

	var (
		result strings.Builder
		run    strings.Builder
	)

	flush := func() error {
		if run.Len() == 0 {
			return nil
		}

		words, err := l.spellRun(run.String(), governed)
		if err != nil {
			return err
		}

		run.Reset()
		result.WriteString(" " + words + " ")

		return nil
	}

	for _, char := range token {
		if isASCIIDigit(char) {
			run.WriteRune(char)

			continue
		}

		flushErr := flush()
		if flushErr != nil {
			return "", flushErr
		}

		result.WriteRune(char)
	}

	flushErr := flush()
	if flushErr != nil {
		return "", flushErr
	}

	return result.String(), nil
}

func (l *Language) spellRun(digits string, governed bool) (string, error) {
	number, err := strconv.Atoi(digits)
	if err != nil || number > MaxSpellable {
		return "", &RangeError{Digits: digits}
	}

	return l.Numerals.SpellString(number, governed)
}

func containsDigit(token string) bool {
	return strings.IndexFunc(token, isASCIIDigit) >= 0
}

func isASCIIDigit(r rune) bool {
	return r >= '0' && r <= '9'
}

// hasDigitBeforeMark reports a digit carrying a combining mark, where it is unclear
// whether the mark belongs to the number or to the text around it.
func hasDigitBeforeMark(token string) bool {
	prevDigit := false

	for _, char := range token {
		if prevDigit && unicode.Is(unicode.Mn, char) {
			return true
		}

		prevDigit = isASCIIDigit(char)
	}

	return false
}

func isMalformed(err error) bool {
	var malformed *MalformedTokenError

	return errors.As(err, &malformed)
}
