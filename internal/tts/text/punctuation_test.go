package text_test

import (
	"testing"

	"github.com/stretchr/testify/assert"

	"github.com/book-expert/voicegen/internal/tts/text"
)

func TestNormalizePunctuation(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name     string
		input    string
		expected string
	}{
		{name: "empty", input: "", expected: ""},
		{name: "plain text", input: "Привет мир", expected: "Привет мир"},
		{name: "collapses whitespace", input: "  один\t\tдва \n три  ", expected: "один два три"},
		{name: "quotes become stops", input: `Он сказал "привет"`, expected: "Он сказал .привет."},
		{name: "brackets", input: "табло (временно) не работает", expected: "табло временно. не работает"},
		{name: "guillemets", input: "«Аэрофлот» - Российские авиалинии", expected: "Аэрофлот. Российские авиалинии"},
		{name: "angle and curly brackets", input: "<a> {b} [c]", expected: "a. b. c."},
		{name: "exclamation", input: "Уважаемые пассажиры! Внимание", expected: "Уважаемые пассажиры. Внимание"},
		{name: "hyphenated word", input: "бизнес-класса", expected: "бизнес класса"},
		{name: "typographic quotes and dashes", input: "“да” — нет", expected: ".да. нет"},
		{name: "composes to NFC", input: "e\u0301te\u0301", expected: "\u00e9t\u00e9"},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, text.NormalizePunctuation(testCase.input))
		})
	}
}

func TestNormalizePunctuation_Idempotent(t *testing.T) {
	t.Parallel()

	inputs := []string{
		"",
		"   ",
		`«Цитата» (пояснение) [1] {x} <y> "z"`,
		"рейс 10-16, выход 120!",
		"e(\u0301) accent split by a bracket",
		"tabs\tand\nnewlines\r\nmixed",
		"уже . нормализовано.",
		"今日は。明日は。",
	}

	for _, input := range inputs {
		once := text.NormalizePunctuation(input)
		twice := text.NormalizePunctuation(once)

		assert.Equal(t, once, twice, "input %q", input)
	}
}

func TestSegment(t *testing.T) {
	t.Parallel()

	tests := []struct {
		name      string
		input     string
		delimiter string
		expected  []string
	}{
		{name: "two sentences", input: "Привет. Мир.", delimiter: ".", expected: []string{"Привет", "Мир"}},
		{name: "no terminal delimiter", input: "Привет. Мир", delimiter: ".", expected: []string{"Привет", "Мир"}},
		{name: "empty fragments dropped", input: "Раз.. . Два.", delimiter: ".", expected: []string{"Раз", "Два"}},
		{name: "only delimiters", input: "...", delimiter: ".", expected: []string{}},
		{name: "ideographic stop", input: "こんにちは。世界。", delimiter: "。", expected: []string{"こんにちは", "世界"}},
		{name: "default delimiter", input: "a. b", delimiter: "", expected: []string{"a", "b"}},
	}

	for _, testCase := range tests {
		t.Run(testCase.name, func(t *testing.T) {
			t.Parallel()

			assert.Equal(t, testCase.expected, text.Segment(testCase.input, testCase.delimiter))
		})
	}
}

func TestSubstitute_RussianRules(t *testing.T) {
	t.Parallel()

	lang := mustLanguage(t, text.LangRussian)

	tests := []struct {
		input    string
		expected string
	}{
		{input: "бизнес", expected: "бизнэс"},
		{input: "би*знес", expected: "би*знэс"},
		{input: "Sky", expected: "Скай"},
		{input: "Priority", expected: "Прайёрити"},
		{input: "стенды", expected: "стэнды"},
		{input: "E", expected: "Йе"},
		{input: "ABCDEF", expected: "АБэЦэДэЙеФ"},
		{input: "пассажиры", expected: "пассажиры"},
	}

	for _, testCase := range tests {
		assert.Equal(t, testCase.expected, lang.Substitute(testCase.input))
	}
}

func TestSubstitute_RulesApplyInDeclaredOrder(t *testing.T) {
	t.Parallel()

	chained := &text.Language{
		Code: "test",
		Substitutions: []text.Substitution{
			{From: "a", To: "b"},
			{From: "b", To: "c"},
		},
	}
	assert.Equal(t, "cc", chained.Substitute("ab"))

	reversed := &text.Language{
		Code: "test",
		Substitutions: []text.Substitution{
			{From: "b", To: "c"},
			{From: "a", To: "b"},
		},
	}
	assert.Equal(t, "bc", reversed.Substitute("ab"))
}

func TestSubstitute_NoRules(t *testing.T) {
	t.Parallel()

	lang := mustLanguage(t, text.LangEnglish)
	assert.Equal(t, "Sky Priority", lang.Substitute("Sky Priority"))
}
