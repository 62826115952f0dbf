package text

import (
	"errors"
	"fmt"
)

// Sentinel errors for the normalization pipeline. Typed errors below wrap them so
// callers can use errors.Is for the class and errors.As for the details.
var (
	ErrUnsupportedLanguage = errors.New("unsupported language")
	ErrOutOfRange          = errors.New("numeral out of range")
	ErrMalformedToken      = errors.New("malformed token")
)

const (
	errFmtUnsupportedLanguage = "%s: %q"
	errFmtOutOfRange          = "%s: %s is outside [%d, %d]"
	errFmtMalformedToken      = "%s: %q"
	errFmtSentence            = "sentence %d (%q): %v"
)

// UnsupportedLanguageError is returned when no profile is registered for a code.
type UnsupportedLanguageError struct {
	Code string
}

func (e *UnsupportedLanguageError) Error() string {
	return fmt.Sprintf(errFmtUnsupportedLanguage, ErrUnsupportedLanguage, e.Code)
}

func (e *UnsupportedLanguageError) Unwrap() error {
	return ErrUnsupportedLanguage
}

// RangeError reports a digit run that cannot be spelled. Digits holds the run as it
// appeared in the text, since it may not fit in an int.
type RangeError struct {
	Digits string
}

func (e *RangeError) Error() string {
	return fmt.Sprintf(errFmtOutOfRange, ErrOutOfRange, e.Digits, MinSpellable, MaxSpellable)
}

func (e *RangeError) Unwrap() error {
	return ErrOutOfRange
}

// MalformedTokenError describes a token whose digit runs could not be split cleanly.
// It is never returned from Normalize; it is surfaced as a sentence warning.
type MalformedTokenError struct {
	Token string
}

func (e *MalformedTokenError) Error() string {
	return fmt.Sprintf(errFmtMalformedToken, ErrMalformedToken, e.Token)
}

func (e *MalformedTokenError) Unwrap() error {
	return ErrMalformedToken
}

// SentenceError ties a normalization failure to the sentence that caused it.
type SentenceError struct {
	Err    error
	Source string
	Index  int
}

func (e *SentenceError) Error() string {
	return fmt.Sprintf(errFmtSentence, e.Index, e.Source, e.Err)
}

func (e *SentenceError) Unwrap() error {
	return e.Err
}
