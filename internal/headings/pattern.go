package headings

import (
	"regexp"
	"strings"
	"unicode"
	"unicode/utf8"
)

// Kind is the shape family a heading text falls into.
type Kind int

const (
	Rejected Kind = iota
	Numbered
	SymbolDelimited
	Generic
)

func (k Kind) String() string {
	switch k {
	case Numbered:
		return "numbered"
	case SymbolDelimited:
		return "symbol"
	case Generic:
		return "generic"
	default:
		return "rejected"
	}
}

const (
	// Wildcard replaces the variable part of a heading shape.
	Wildcard = "*"
	// GenericPattern is shared by every uppercase-led heading without numbering.
	GenericPattern = "NONUM"
)

// Signature is the normalized shape of a heading text.
type Signature struct {
	Kind    Kind
	Pattern string
	Numeral string // Numbered: every digit of the text, in order
	Alpha   string // SymbolDelimited: the word characters stripped from the run
}

var (
	digitRun = regexp.MustCompile(`\p{Nd}+`)
	wordRun  = regexp.MustCompile(`[\p{L}\p{N}_]+`)

	// leadingRun matches an enumerator such as "(a)", "A.", "IV." or "• ":
	// a few non-word characters, at most two word characters, one non-word.
	leadingRun = regexp.MustCompile(`^[^\p{L}\p{N}_]{0,3}[\p{L}\p{N}_]{0,2}[^\p{L}\p{N}_]`)
)

// Classify derives the signature of text. Priority is numbered, then
// symbol-delimited, then generic; anything else is rejected.
func Classify(text string) Signature {
	if text == "" {
		return Signature{Kind: Rejected}
	}

	pattern := digitRun.ReplaceAllString(text, Wildcard)
	first, _ := utf8.DecodeRuneInString(text)

	if pattern != text && unicode.IsDigit(first) {
		return Signature{
			Kind:    Numbered,
			Pattern: pattern,
			Numeral: strings.Join(digitRun.FindAllString(text, -1), ""),
		}
	}

	if run := leadingRun.FindString(pattern); run != "" && hasSymbol(run) {
		return Signature{
			Kind:    SymbolDelimited,
			Pattern: strings.TrimRightFunc(wordRun.ReplaceAllString(run, Wildcard), unicode.IsSpace),
			Alpha:   strings.Join(wordRun.FindAllString(run, -1), ""),
		}
	}

	if unicode.IsUpper(first) {
		return Signature{Kind: Generic, Pattern: GenericPattern}
	}

	return Signature{Kind: Rejected}
}

// hasSymbol reports whether run holds a delimiter other than whitespace, so
// that ordinary words like "An " do not pass as enumerators.
func hasSymbol(run string) bool {
	for _, r := range run {
		if unicode.IsSpace(r) || unicode.IsLetter(r) || unicode.IsNumber(r) || r == '_' {
			continue
		}
		return true
	}
	return false
}
