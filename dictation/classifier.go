package dictation

import (
	"strconv"
	"strings"
)

type CommandKind int

const (
	CmdPlainText CommandKind = iota
	CmdFiltered
	CmdNewLine
	CmdPunctuation
	CmdDeleteWords
	CmdRewrite
)

func (k CommandKind) String() string {
	switch k {
	case CmdPlainText:
		return "plain-text"
	case CmdFiltered:
		return "filtered"
	case CmdNewLine:
		return "new-line"
	case CmdPunctuation:
		return "punctuation"
	case CmdDeleteWords:
		return "delete-words"
	case CmdRewrite:
		return "rewrite"
	}
	return "unknown"
}

// Command is the classified form of one transcript.
type Command struct {
	Kind  CommandKind
	Text  string // plain text with trailing space, or the raw transcript
	Punct rune
	Count int
}

type punctEntry struct {
	phrase string
	ch     rune
}

// Spoken punctuation names, matched against the start of the transcript in
// this order. Matching is a bare prefix test with no word-boundary check,
// so "comma" also claims "commander" when spoken alone at the start; the
// names are long enough that this rarely bites in practice.
var punctTable = []punctEntry{
	{"question mark", '?'},
	{"exclamation mark", '!'},
	{"comma", ','},
	{"period", '.'},
	{"full stop", '.'},
	{"colon", ':'},
	{"semicolon", ';'},
	{"open parenthesis", '('},
	{"close parenthesis", ')'},
	{"open bracket", '['},
	{"close bracket", ']'},
	{"open brace", '{'},
	{"close brace", '}'},
	{"hyphen", '-'},
	{"dash", '-'},
	{"underscore", '_'},
	{"plus", '+'},
	{"equals", '='},
	{"at", '@'},
	{"hash", '#'},
	{"dollar", '$'},
	{"percent", '%'},
	{"caret", '^'},
	{"ampersand", '&'},
	{"asterisk", '*'},
}

var numberWords = map[string]int{
	"one": 1, "two": 2, "three": 3, "four": 4, "five": 5,
	"six": 6, "seven": 7, "eight": 8, "nine": 9, "ten": 10,
}

// DefaultFilterWords are hallucination phrases the model produces on
// near-silent segments; they are discarded outright.
var DefaultFilterWords = []string{
	"thank you", "thanks for watching", "thank you for watching",
	"you", "bye",
}

var DefaultNewLinePhrases = []string{"new line", "next line"}

// Vocabulary holds the command grammar tables. Build one per session with
// NewVocabulary; the zero value classifies everything as plain text.
type Vocabulary struct {
	filters  map[string]struct{}
	newlines map[string]struct{}
}

func NewVocabulary(filterWords, newLinePhrases []string) *Vocabulary {
	if filterWords == nil {
		filterWords = DefaultFilterWords
	}
	if newLinePhrases == nil {
		newLinePhrases = DefaultNewLinePhrases
	}
	v := &Vocabulary{
		filters:  make(map[string]struct{}, len(filterWords)),
		newlines: make(map[string]struct{}, len(newLinePhrases)),
	}
	for _, w := range filterWords {
		v.filters[strings.ToLower(strings.TrimSpace(w))] = struct{}{}
	}
	for _, p := range newLinePhrases {
		v.newlines[strings.ToLower(strings.TrimSpace(p))] = struct{}{}
	}
	return v
}

// Classify maps a raw transcript to a Command. Matching order: filter
// words, newline phrases, punctuation names, delete, rewrite, plain text.
// First match wins. Lowercasing is for matching only; plain text keeps the
// original casing and gains a single trailing space as a word separator.
func (v *Vocabulary) Classify(raw string) Command {
	text := strings.TrimSpace(raw)
	if text == "" {
		return Command{Kind: CmdFiltered}
	}
	lower := strings.ToLower(text)

	if _, ok := v.filters[lower]; ok {
		return Command{Kind: CmdFiltered, Text: text}
	}
	if _, ok := v.newlines[lower]; ok {
		return Command{Kind: CmdNewLine}
	}
	for _, p := range punctTable {
		if strings.HasPrefix(lower, p.phrase) {
			return Command{Kind: CmdPunctuation, Punct: p.ch}
		}
	}

	fields := strings.Fields(trimTerminal(lower))
	if n, ok := parseCountCommand(fields, deleteVerbs, deleteUnits); ok {
		return Command{Kind: CmdDeleteWords, Count: n}
	}
	if n, ok := parseCountCommand(fields, rewriteVerbs, rewriteUnits); ok {
		return Command{Kind: CmdRewrite, Count: n}
	}

	return Command{Kind: CmdPlainText, Text: text + " "}
}

var (
	deleteVerbs  = []string{"delete", "remove"}
	deleteUnits  = []string{"word", "words"}
	rewriteVerbs = []string{"rewrite", "rephrase", "reword"}
	rewriteUnits = []string{"word", "words", "sentence", "sentences"}
)

// parseCountCommand recognizes "<verb> last <count> <unit>".
func parseCountCommand(fields, verbs, units []string) (int, bool) {
	if len(fields) != 4 || fields[1] != "last" {
		return 0, false
	}
	if !contains(verbs, fields[0]) || !contains(units, fields[3]) {
		return 0, false
	}
	n, ok := parseCount(fields[2])
	if !ok || n <= 0 {
		return 0, false
	}
	return n, true
}

func parseCount(s string) (int, bool) {
	if n, err := strconv.Atoi(s); err == nil {
		return n, true
	}
	n, ok := numberWords[s]
	return n, ok
}

func contains(list []string, s string) bool {
	for _, v := range list {
		if v == s {
			return true
		}
	}
	return false
}

// trimTerminal drops sentence-final punctuation the model likes to append
// to short command phrases.
func trimTerminal(s string) string {
	return strings.TrimRight(s, ".!?,")
}
