package text

import "strings"

// Abbreviations must be expanded before punctuation normalization, otherwise their
// periods end the sentence early.
var englishAbbreviations = []Substitution{
	{From: "Mr.", To: "Mister"},
	{From: "Mrs.", To: "Misses"},
	{From: "Ms.", To: "Miss"},
	{From: "Dr.", To: "Doctor"},
	{From: "St.", To: "Saint"},
	{From: "Co.", To: "Company"},
	{From: "Ltd.", To: "Limited"},
	{From: "Corp.", To: "Corporation"},
	{From: "Inc.", To: "Incorporated"},
}

var russianAbbreviations = []Substitution{
	{From: "т.е.", To: "то есть"},
	{From: "т.д.", To: "так далее"},
	{From: "т.п.", To: "тому подобное"},
}

// ExpandAbbreviations replaces whole whitespace-delimited tokens that match one of
// the language's abbreviations. Whitespace is collapsed as a side effect.
func (l *Language) ExpandAbbreviations(text string) string {
	if len(l.Abbreviations) == 0 {
		return text
	}

	tokens := strings.Fields(text)
	for i, token := range tokens {
		for _, abbreviation := range l.Abbreviations {
			if token == abbreviation.From {
				tokens[i] = abbreviation.To

				break
			}
		}
	}

	return strings.Join(tokens, " ")
}
