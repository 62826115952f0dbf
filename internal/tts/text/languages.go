package text

import (
	"sort"
	"strings"
)

// Sentence delimiters.
const (
	DelimiterPeriod          = "."
	DelimiterIdeographicStop = "。"
)

// Nominal backend sample rates.
const (
	DefaultSampleRate = 24000
	MMSSampleRate     = 16000
)

// Language codes with a registered profile.
const (
	LangRussian  = "ru"
	LangEnglish  = "en"
	LangItalian  = "it"
	LangFrench   = "fr"
	LangJapanese = "ja"
	LangChinese  = "zh-cn"
	LangKazakh   = "kaz"
	LangGreek    = "grc"
)

// Substitution is one literal rewrite of the lexical pass.
type Substitution struct {
	From string
	To   string
}

// Language is the read-only normalization profile of one language code.
type Language struct {
	governing     map[string]struct{}
	Numerals      *NumeralTables
	Code          string
	Delimiter     string
	Substitutions []Substitution
	Abbreviations []Substitution
	SampleRate    int
}

// Governs reports whether word puts the following numeral in the governed case.
// The word is compared case-insensitively with surrounding punctuation trimmed.
func (l *Language) Governs(word string) bool {
	if len(l.governing) == 0 {
		return false
	}

	_, found := l.governing[foldGoverningWord(word)]

	return found
}

// ExpandsNumerals reports whether digit runs are spelled out for this language.
func (l *Language) ExpandsNumerals() bool {
	return l.Numerals != nil
}

func foldGoverningWord(word string) string {
	return strings.ToLower(strings.TrimFunc(word, isTrimmable))
}

func newGoverningSet(words ...string) map[string]struct{} {
	set := make(map[string]struct{}, len(words))
	for _, word := range words {
		set[foldGoverningWord(word)] = struct{}{}
	}

	return set
}

// registry is built once and never mutated afterwards.
var registry = buildRegistry()

func buildRegistry() map[string]*Language {
	languages := []*Language{
		{
			Code:      LangRussian,
			Delimiter: DelimiterPeriod,
			Numerals: &NumeralTables{
				Direct:   russianDirect,
				Governed: russianGoverned,
			},
			governing:     newGoverningSet("после", "до", "течение", "продолжение"),
			Substitutions: russianSubstitutions,
			Abbreviations: russianAbbreviations,
			SampleRate:    DefaultSampleRate,
		},
		{
			Code:          LangEnglish,
			Delimiter:     DelimiterPeriod,
			Numerals:      &NumeralTables{Direct: englishDirect},
			Abbreviations: englishAbbreviations,
			SampleRate:    DefaultSampleRate,
		},
		{
			Code:       LangItalian,
			Delimiter:  DelimiterPeriod,
			Numerals:   &NumeralTables{Direct: italianDirect},
			SampleRate: DefaultSampleRate,
		},
		{
			Code:       LangFrench,
			Delimiter:  DelimiterPeriod,
			Numerals:   &NumeralTables{Direct: frenchDirect},
			SampleRate: DefaultSampleRate,
		},
		{Code: LangJapanese, Delimiter: DelimiterIdeographicStop, SampleRate: DefaultSampleRate},
		{Code: LangChinese, Delimiter: DelimiterIdeographicStop, SampleRate: DefaultSampleRate},
		{Code: LangKazakh, Delimiter: DelimiterPeriod, SampleRate: MMSSampleRate},
		{Code: LangGreek, Delimiter: DelimiterPeriod, SampleRate: MMSSampleRate},
	}

	byCode := make(map[string]*Language, len(languages))
	for _, lang := range languages {
		byCode[lang.Code] = lang
	}

	return byCode
}

// Lookup returns the profile registered for code.
func Lookup(code string) (*Language, error) {
	return lookupIn(registry, code)
}

func lookupIn(languages map[string]*Language, code string) (*Language, error) {
	lang, found := languages[strings.ToLower(strings.TrimSpace(code))]
	if !found {
		return nil, &UnsupportedLanguageError{Code: code}
	}

	return lang, nil
}

// Supported lists the registered language codes in sorted order.
func Supported() []string {
	codes := make([]string, 0, len(registry))
	for code := range registry {
		codes = append(codes, code)
	}

	sort.Strings(codes)

	return codes
}

// Spell spells n in the language identified by code. Languages without numeral
// tables are reported as unsupported.
func Spell(n int, code string, governed bool) ([]string, error) {
	lang, err := Lookup(code)
	if err != nil {
		return nil, err
	}

	if !lang.ExpandsNumerals() {
		return nil, &UnsupportedLanguageError{Code: code}
	}

	return lang.Numerals.Spell(n, governed)
}
