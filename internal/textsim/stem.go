package textsim

import (
	"strings"
	"unicode/utf8"
)

// irregularStems maps closed-class word forms straight to a root.
// Checked before any suffix rule.
var irregularStems = map[string]string{
	// be
	"were":  "be",
	"been":  "be",
	"being": "be",
	// have
	"have":   "have",
	"having": "have",
	// do
	"does":  "do",
	"doing": "do",
	"done":  "do",
	// go
	"goes":  "go",
	"going": "go",
	"gone":  "go",
	"went":  "go",
	// comparatives and superlatives
	"better": "good",
	"best":   "good",
	"worse":  "bad",
	"worst":  "bad",
	"more":   "many",
	"most":   "many",
	"less":   "little",
	"least":  "little",
	// plurals that suffix rules get wrong
	"children": "child",
	"people":   "person",
	"women":    "woman",
	"data":     "datum",
}

type suffixRule struct {
	suffix      string
	replacement string
}

// suffixRules is ordered most specific first. Identity rules (ss→ss)
// exist only to stop shorter rules from mangling the word.
var suffixRules = []suffixRule{
	{"ational", "ate"},
	{"tional", "tion"},
	{"ization", "ize"},
	{"iveness", "ive"},
	{"fulness", "ful"},
	{"ousness", "ous"},
	{"biliti", "ble"},
	{"ation", "ate"},
	{"alism", "al"},
	{"aliti", "al"},
	{"iviti", "ive"},
	{"ities", "ity"},
	{"ement", ""},
	{"ments", ""},
	{"ness", ""},
	{"ment", ""},
	{"ator", "ate"},
	{"izer", "ize"},
	{"enci", "ence"},
	{"anci", "ance"},
	{"ally", "al"},
	{"ably", "able"},
	{"ibly", "ible"},
	{"ing", ""},
	{"ies", "y"},
	{"ied", "y"},
	{"ful", ""},
	{"ous", ""},
	{"ive", ""},
	{"ize", ""},
	{"ise", ""},
	{"sses", "ss"},
	{"ly", ""},
	{"ed", ""},
	{"er", ""},
	{"es", ""},
	{"ss", "ss"},
	{"us", "us"},
	{"is", "is"},
	{"s", ""},
}

// Stem reduces a lowercase word to an approximate root. Words of three
// letters or fewer are returned unchanged. At most one suffix rule is
// applied: the first one that matches and leaves more than two characters.
func Stem(word string) string {
	if utf8.RuneCountInString(word) <= 3 {
		return word
	}
	if root, ok := irregularStems[word]; ok {
		return root
	}
	for _, r := range suffixRules {
		if !strings.HasSuffix(word, r.suffix) {
			continue
		}
		candidate := word[:len(word)-len(r.suffix)] + r.replacement
		if utf8.RuneCountInString(candidate) > 2 {
			return candidate
		}
	}
	return word
}

// stemAll stems every token in order.
func stemAll(tokens []string) []string {
	out := make([]string, len(tokens))
	for i, t := range tokens {
		out[i] = Stem(t)
	}
	return out
}
