package textsim

import (
	"regexp"
	"sort"
	"strings"
)

// Stopwords removed from a point before comparison.
var Stopwords = []string{
	"a", "an", "the",
	"and", "or", "but", "nor", "so", "yet",
	"of", "in", "on", "at", "to", "for", "with", "by", "from",
	"into", "onto", "upon", "about", "as", "than",
	"that", "which", "who", "whom", "whose", "where", "when", "while",
}

// FillerPhrases removed from a point before comparison.
var FillerPhrases = []string{
	"due to the fact that",
	"it is important to",
	"in addition to",
	"as a result of",
	"with respect to",
	"with regard to",
	"in order to",
	"in terms of",
	"as well as",
	"make sure to",
}

var (
	fillerPattern      = wordListPattern(FillerPhrases)
	stopwordPattern    = wordListPattern(Stopwords)
	parentheticPattern = regexp.MustCompile(`\([^)]*\)`)
	quotePattern       = regexp.MustCompile(`["“”‘’]`)
)

func wordListPattern(words []string) *regexp.Regexp {
	quoted := make([]string, len(words))
	for i, w := range words {
		quoted[i] = strings.ReplaceAll(regexp.QuoteMeta(w), ` `, `\s+`)
	}
	return regexp.MustCompile(`(?i)\b(?:` + strings.Join(quoted, "|") + `)\b`)
}

// ProcessedPoint is the comparison view of one candidate point.
type ProcessedPoint struct {
	// Original is the untouched input.
	Original string `json:"original"`
	// Simplified has filler phrases, parentheticals, stopwords and quote
	// characters removed.
	Simplified string `json:"simplified"`
	// Stems are the stems of the original text's tokens, in order. Not used
	// by Key or by the scorer.
	Stems []string `json:"stems"`
	// Key is the sorted, deduplicated stems of Simplified joined by spaces.
	Key string `json:"key"`
}

// ProcessSuggestion derives the ProcessedPoint for text.
func ProcessSuggestion(text string) ProcessedPoint {
	simplified := Simplify(text)
	return ProcessedPoint{
		Original:   text,
		Simplified: simplified,
		Stems:      stemAll(Tokenize(text)),
		Key:        stemKey(simplified),
	}
}

// Simplify strips the low-content parts of text.
func Simplify(text string) string {
	s := fillerPattern.ReplaceAllString(text, " ")
	s = parentheticPattern.ReplaceAllString(s, " ")
	s = stopwordPattern.ReplaceAllString(s, " ")
	s = quotePattern.ReplaceAllString(s, "")
	return strings.Join(strings.Fields(s), " ")
}

func stemKey(text string) string {
	stems := stemAll(Tokenize(text))
	if len(stems) == 0 {
		return ""
	}
	sort.Strings(stems)
	uniq := stems[:1]
	for _, s := range stems[1:] {
		if s != uniq[len(uniq)-1] {
			uniq = append(uniq, s)
		}
	}
	return strings.Join(uniq, " ")
}
