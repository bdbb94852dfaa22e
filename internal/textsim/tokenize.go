// Package textsim implements the text normalization and near-duplicate
// merging used to collapse LLM critique output into a short list of points.
//
// Everything here is a pure function over strings: no I/O, no shared state.
// Callers may invoke it from any goroutine.
package textsim

import (
	"regexp"
	"strings"
)

var (
	possessivePattern = regexp.MustCompile(`['’]s\b`)
	nonWordPattern    = regexp.MustCompile(`[^\p{L}\p{N}_\s']+`)
	whitespacePattern = regexp.MustCompile(`\s+`)
)

// Tokenize lowercases text, drops possessive markers and punctuation
// (apostrophes inside contractions survive) and splits on whitespace.
//
//	Tokenize("Don't over-design!") → ["don't", "over", "design"]
func Tokenize(text string) []string {
	if text == "" {
		return nil
	}
	s := strings.ToLower(text)
	s = whitespacePattern.ReplaceAllString(s, " ")
	s = possessivePattern.ReplaceAllString(s, "")
	s = strings.ReplaceAll(s, "’", "'")
	s = nonWordPattern.ReplaceAllString(s, " ")
	return strings.Fields(s)
}

// tokenSet returns the distinct tokens of text.
func tokenSet(text string) map[string]struct{} {
	tokens := Tokenize(text)
	set := make(map[string]struct{}, len(tokens))
	for _, t := range tokens {
		set[t] = struct{}{}
	}
	return set
}
