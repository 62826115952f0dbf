// Package text turns raw text into sentences a speech model can read aloud.
//
// The pipeline runs in a fixed order: abbreviation expansion, punctuation
// normalization, sentence segmentation and then, per sentence, numeral expansion and
// lexical substitution. All language data is immutable after package initialization,
// so a Normalizer is safe for concurrent use.
package text

import "errors"

// Sentence is one normalized sentence. When Err is set, Text is empty and the
// sentence must not be synthesized.
type Sentence struct {
	Err      error
	Source   string
	Text     string
	Warnings []error
	Index    int
}

// OK reports whether the sentence normalized without error.
func (s Sentence) OK() bool {
	return s.Err == nil
}

// Normalizer normalizes text against the language registry.
type Normalizer struct {
	languages map[string]*Language
}

// NewNormalizer creates a normalizer backed by the built-in language profiles.
func NewNormalizer() *Normalizer {
	return &Normalizer{languages: registry}
}

// Language returns the profile for code.
func (n *Normalizer) Language(code string) (*Language, error) {
	return lookupIn(n.languages, code)
}

// Normalize splits text into sentences and normalizes each one independently.
// An unsupported language fails before any text is processed; every other failure
// is recorded on the sentence it belongs to.
func (n *Normalizer) Normalize(text, code string) ([]Sentence, error) {
	lang, err := n.Language(code)
	if err != nil {
		return nil, err
	}

	expanded := lang.ExpandAbbreviations(text)
	fragments := Segment(NormalizePunctuation(expanded), lang.Delimiter)
	sentences := make([]Sentence, 0, len(fragments))

	for _, fragment := range fragments {
		sentence := Sentence{Source: fragment, Index: len(sentences)}

		normalized, warnings, expandErr := lang.ExpandSentence(fragment)

		sentence.Warnings = warnings
		if expandErr != nil {
			sentence.Err = &SentenceError{Err: expandErr, Source: fragment, Index: sentence.Index}
			sentences = append(sentences, sentence)

			continue
		}

		if normalized == "" {
			continue
		}

		sentence.Text = normalized
		sentences = append(sentences, sentence)
	}

	return sentences, nil
}

// Texts returns the text of every sentence that normalized successfully.
func Texts(sentences []Sentence) []string {
	texts := make([]string, 0, len(sentences))

	for _, sentence := range sentences {
		if sentence.OK() {
			texts = append(texts, sentence.Text)
		}
	}

	return texts
}

// Errors joins the errors of all failed sentences, or returns nil.
func Errors(sentences []Sentence) error {
	var errs []error

	for _, sentence := range sentences {
		if !sentence.OK() {
			errs = append(errs, sentence.Err)
		}
	}

	return errors.Join(errs...)
}
