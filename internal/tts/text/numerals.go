package text

import (
	"strconv"
	"strings"
)

const (
	// NumberBaseTen represents the base for decimal number system.
	NumberBaseTen = 10
	// NumberBaseTwenty represents the boundary for teen numbers.
	NumberBaseTwenty = 20
	// NumberBaseHundred represents the base for hundreds.
	NumberBaseHundred = 100
	// NumberBaseThousand represents the base for thousands.
	NumberBaseThousand = 1000
	// MinSpellable is the smallest number Spell accepts.
	MinSpellable = 0
	// MaxSpellable is the largest number Spell accepts.
	MaxSpellable = 9999
)

// CaseTable holds the words for one grammatical case of one language. Every table is
// indexed by a single decimal digit; the zero entries of Tens, Hundreds and Thousands
// are empty so a zero digit is silent.
type CaseTable struct {
	Ones      [NumberBaseTen]string
	Teens     [NumberBaseTen]string
	Tens      [NumberBaseTen]string
	Hundreds  [NumberBaseTen]string
	Thousands [NumberBaseTen]string
}

// NumeralTables holds the direct (nominative) wording of a language and, where the
// language declines numerals, the governed wording used after governing words.
type NumeralTables struct {
	Direct   *CaseTable
	Governed *CaseTable
}

// table selects the case table, falling back to the direct one.
func (nt *NumeralTables) table(governed bool) *CaseTable {
	if governed && nt.Governed != nil {
		return nt.Governed
	}

	return nt.Direct
}

// Spell converts n into words, most significant part first.
func (nt *NumeralTables) Spell(n int, governed bool) ([]string, error) {
	if n < MinSpellable || n > MaxSpellable {
		return nil, &RangeError{Digits: strconv.Itoa(n)}
	}

	tbl := nt.table(governed)

	if n == 0 {
		return []string{tbl.Ones[0]}, nil
	}

	var parts []string

	remaining := tbl.processThousands(n, &parts)

	remaining = tbl.processHundreds(remaining, &parts)

	if remaining > 0 {
		tbl.convertUnderHundred(remaining, &parts)
	}

	return parts, nil
}

// SpellString is Spell joined with single spaces.
func (nt *NumeralTables) SpellString(n int, governed bool) (string, error) {
	words, err := nt.Spell(n, governed)
	if err != nil {
		return "", err
	}

	return strings.Join(words, " "), nil
}

func (ct *CaseTable) processThousands(number int, parts *[]string) int {
	appendWord(parts, ct.Thousands[number/NumberBaseThousand])

	return number % NumberBaseThousand
}

func (ct *CaseTable) processHundreds(number int, parts *[]string) int {
	appendWord(parts, ct.Hundreds[number/NumberBaseHundred])

	return number % NumberBaseHundred
}

func (ct *CaseTable) convertUnderHundred(number int, parts *[]string) {
	if number >= NumberBaseTen && number < NumberBaseTwenty {
		appendWord(parts, ct.Teens[number-NumberBaseTen])

		return
	}

	appendWord(parts, ct.Tens[number/NumberBaseTen])
	if number%NumberBaseTen > 0 {
		appendWord(parts, ct.Ones[number%NumberBaseTen])
	}
}

func appendWord(parts *[]string, word string) {
	if word != "" {
		*parts = append(*parts, word)
	}
}

var russianDirect = &CaseTable{
	Ones: [NumberBaseTen]string{
		"ноль", "один", "два", "три", "четыре",
		"пять", "шесть", "семь", "восемь", "девять",
	},
	Teens: [NumberBaseTen]string{
		"десять", "одиннадцать", "двенадцать", "тринадцать", "четырнадцать",
		"пятнадцать", "шестнадцать", "семнадцать", "восемнадцать", "девятнадцать",
	},
	Tens: [NumberBaseTen]string{
		"", "десять", "двадцать", "тридцать", "сорок",
		"пятьдесят", "шестьдесят", "семьдесят", "восемьдесят", "девяносто",
	},
	Hundreds: [NumberBaseTen]string{
		"", "сто", "двести", "триста", "четыреста",
		"пятьсот", "шестьсот", "семьсот", "восемьсот", "девятьсот",
	},
	Thousands: [NumberBaseTen]string{
		"", "одна тысяча", "две тысячи", "три тысячи", "четыре тысячи",
		"пять тысяч", "шесть тысяч", "семь тысяч", "восемь тысяч", "девять тысяч",
	},
}

// Genitive forms, the case Russian numerals take after до, после and similar.
var russianGoverned = &CaseTable{
	Ones: [NumberBaseTen]string{
		"нуля", "одного", "двух", "трёх", "четырёх",
		"пяти", "шести", "семи", "восьми", "девяти",
	},
	Teens: [NumberBaseTen]string{
		"десяти", "одиннадцати", "двенадцати", "тринадцати", "четырнадцати",
		"пятнадцати", "шестнадцати", "семнадцати", "восемнадцати", "девятнадцати",
	},
	Tens: [NumberBaseTen]string{
		"", "десяти", "двадцати", "тридцати", "сорока",
		"пятидесяти", "шестидесяти", "семидесяти", "восьмидесяти", "девяноста",
	},
	Hundreds: [NumberBaseTen]string{
		"", "ста", "двухсот", "трёхсот", "четырёхсот",
		"пятисот", "шестисот", "семисот", "восьмисот", "девятисот",
	},
	Thousands: [NumberBaseTen]string{
		"", "одной тысячи", "двух тысяч", "трёх тысяч", "четырёх тысяч",
		"пяти тысяч", "шести тысяч", "семи тысяч", "восьми тысяч", "девяти тысяч",
	},
}

var englishDirect = &CaseTable{
	Ones: [NumberBaseTen]string{
		"zero", "one", "two", "three", "four",
		"five", "six", "seven", "eight", "nine",
	},
	Teens: [NumberBaseTen]string{
		"ten", "eleven", "twelve", "thirteen", "fourteen",
		"fifteen", "sixteen", "seventeen", "eighteen", "nineteen",
	},
	Tens: [NumberBaseTen]string{
		"", "ten", "twenty", "thirty", "forty",
		"fifty", "sixty", "seventy", "eighty", "ninety",
	},
	Hundreds: [NumberBaseTen]string{
		"", "one hundred", "two hundred", "three hundred", "four hundred",
		"five hundred", "six hundred", "seven hundred", "eight hundred", "nine hundred",
	},
	Thousands: [NumberBaseTen]string{
		"", "one thousand", "two thousand", "three thousand", "four thousand",
		"five thousand", "six thousand", "seven thousand", "eight thousand", "nine thousand",
	},
}

var italianDirect = &CaseTable{
	Ones: [NumberBaseTen]string{
		"zero", "uno", "due", "tre", "quattro",
		"cinque", "sei", "sette", "otto", "nove",
	},
	Teens: [NumberBaseTen]string{
		"dieci", "undici", "dodici", "tredici", "quattordici",
		"quindici", "sedici", "diciassette", "diciotto", "diciannove",
	},
	Tens: [NumberBaseTen]string{
		"", "dieci", "venti", "trenta", "quaranta",
		"cinquanta", "sessanta", "settanta", "ottanta", "novanta",
	},
	Hundreds: [NumberBaseTen]string{
		"", "cento", "duecento", "trecento", "quattrocento",
		"cinquecento", "seicento", "settecento", "ottocento", "novecento",
	},
	Thousands: [NumberBaseTen]string{
		"", "mille", "duemila", "tremila", "quattromila",
		"cinquemila", "seimila", "settemila", "ottomila", "novemila",
	},
}

var frenchDirect = &CaseTable{
	Ones: [NumberBaseTen]string{
		"zéro", "un", "deux", "trois", "quatre",
		"cinq", "six", "sept", "huit", "neuf",
	},
	Teens: [NumberBaseTen]string{
		"dix", "onze", "douze", "treize", "quatorze",
		"quinze", "seize", "dix-sept", "dix-huit", "dix-neuf",
	},
	Tens: [NumberBaseTen]string{
		"", "dix", "vingt", "trente", "quarante",
		"cinquante", "soixante", "soixante-dix", "quatre-vingts", "quatre-vingt-dix",
	},
	Hundreds: [NumberBaseTen]string{
		"", "cent", "deux cents", "trois cents", "quatre cents",
		"cinq cents", "six cents", "sept cents", "huit cents", "neuf cents",
	},
	Thousands: [NumberBaseTen]string{
		"", "mille", "deux mille", "trois mille", "quatre mille",
		"cinq mille", "six mille", "sept mille", "huit mille", "neuf mille",
	},
}
