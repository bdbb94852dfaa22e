package critic

import (
	"fmt"
	"strings"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
	"github.com/HowardHan99/codesignbot-sub000/internal/decision"
	"github.com/HowardHan99/codesignbot-sub000/internal/textsim"
)

const critiqueSystemPrompt = "You are a sharp but fair design critic reviewing a team's design decisions. " +
	"Point out concrete weaknesses, risks, and overlooked user needs. " +
	"Answer in Markdown: one '## ' heading per point followed by one or two sentences, " +
	"with a '---' line between points. No introduction and no conclusion."

const themesSystemPrompt = "You group design critique points into a few recurring themes. " +
	"Answer in Markdown: one '## ' heading per theme followed by a one-sentence summary, " +
	"with a '---' line between themes. No introduction and no conclusion."

const maxKnowledgeTerms = 32

// buildCritiquePrompt renders the decision forest and any grounding
// principles into the user prompt.
func buildCritiquePrompt(forest []*decision.TreeNode, knowledge []board.Knowledge) string {
	var b strings.Builder
	b.WriteString("Critique these design decisions. Indentation shows which decision leads to which.\n\n")
	b.WriteString(decision.Render(forest))

	if len(knowledge) > 0 {
		b.WriteString("\nRelevant design principles:\n")
		for _, k := range knowledge {
			fmt.Fprintf(&b, "- %s: %s", k.Title, board.Truncate(oneLine(k.Content), 400))
			if k.Source != "" {
				fmt.Fprintf(&b, " (%s)", k.Source)
			}
			b.WriteString("\n")
		}
	}
	return b.String()
}

// buildThemesPrompt lists earlier critique points for grouping.
func buildThemesPrompt(points []string) string {
	var b strings.Builder
	b.WriteString("Group these critique points into themes:\n\n")
	for _, p := range points {
		fmt.Fprintf(&b, "- %s\n", oneLine(p))
	}
	return b.String()
}

// knowledgeQuery turns decision notes into a search query: the distinct
// content words of every note, in order, capped at maxKnowledgeTerms.
func knowledgeQuery(notes []decision.Note) string {
	seen := make(map[string]bool)
	var terms []string
	for _, n := range notes {
		for _, tok := range textsim.Tokenize(textsim.Simplify(decision.CleanContent(n.Content))) {
			if len(tok) < 3 || seen[tok] {
				continue
			}
			seen[tok] = true
			terms = append(terms, tok)
			if len(terms) == maxKnowledgeTerms {
				return strings.Join(terms, " ")
			}
		}
	}
	return strings.Join(terms, " ")
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
