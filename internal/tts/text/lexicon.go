package text

import "strings"

// russianSubstitutions fixes loanwords the model reads with the wrong vowel and maps
// Latin capital designators (gates, terminals) to their spoken Russian names.
// Order matters: the whole-word rules run before the single-letter ones.
var russianSubstitutions = []Substitution{
	{From: "би*знес", To: "би*знэс"},
	{From: "бизнес", To: "бизнэс"},
	{From: "Sky", To: "Скай"},
	{From: "Priority", To: "Прайёрити"},
	{From: "стенд", To: "стэнд"},
	{From: "A", To: "А"},
	{From: "B", To: "Бэ"},
	{From: "C", To: "Цэ"},
	{From: "D", To: "Дэ"},
	{From: "E", To: "Йе"},
	{From: "F", To: "Ф"},
}

// Substitute applies the language's rewrite rules to token in declared order.
func (l *Language) Substitute(token string) string {
	for _, rule := range l.Substitutions {
		if strings.Contains(token, rule.From) {
			token = strings.ReplaceAll(token, rule.From, rule.To)
		}
	}

	return token
}
