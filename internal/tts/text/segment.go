package text

import "strings"

// Segment splits text on delimiter and returns the trimmed, non-empty fragments in
// order. A terminal delimiter does not produce an empty trailing sentence.
func Segment(text, delimiter string) []string {
	if delimiter == "" {
		delimiter = DelimiterPeriod
	}

	fragments := strings.Split(text, delimiter)
	sentences := make([]string, 0, len(fragments))

	for _, fragment := range fragments {
		trimmed := strings.TrimSpace(fragment)
		if trimmed == "" {
			continue
		}

		sentences = append(sentences, trimmed)
	}

	return sentences
}
