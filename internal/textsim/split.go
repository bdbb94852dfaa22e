package textsim

import (
	"regexp"
	"strings"
)

var (
	headingPattern   = regexp.MustCompile(`(?m)^\s*#{2,}\s+`)
	rulePattern      = regexp.MustCompile(`(?m)^\s*-{3,}\s*$`)
	listItemPattern  = regexp.MustCompile(`^\s*(?:[-*•]|\d+[.)])\s+`)
	paragraphPattern = regexp.MustCompile(`\n\s*\n`)
)

// SplitResponse breaks a raw LLM response into candidate points.
//
// Recognised layouts, in order of preference:
//   - Markdown "## Heading" sections, optionally separated by "---" rules;
//     each section becomes "Heading: body".
//   - The legacy convention of points wrapped in or separated by "**".
//   - Bullet or numbered list lines.
//   - Blank-line separated paragraphs.
func SplitResponse(response string) []string {
	response = strings.TrimSpace(strings.ReplaceAll(response, "\r\n", "\n"))
	if response == "" {
		return []string{}
	}

	switch {
	case headingPattern.MatchString(response):
		return splitSections(response)
	case strings.Contains(response, "**"):
		return splitLegacy(response)
	}

	if items := splitList(response); len(items) > 0 {
		return items
	}
	return splitParagraphs(response)
}

func splitSections(response string) []string {
	var points []string
	var heading string
	var body []string
	flush := func() {
		text := strings.Join(body, " ")
		switch {
		case heading != "" && text != "":
			points = append(points, heading+": "+text)
		case heading != "":
			points = append(points, heading)
		case text != "":
			points = append(points, text)
		}
		heading, body = "", nil
	}

	// Every heading and every rule closes the point before it.
	for _, section := range rulePattern.Split(response, -1) {
		for _, line := range strings.Split(section, "\n") {
			if loc := headingPattern.FindStringIndex(line); loc != nil {
				flush()
				heading = cleanInline(line[loc[1]:])
				continue
			}
			if line = cleanInline(listItemPattern.ReplaceAllString(line, "")); line != "" {
				body = append(body, line)
			}
		}
		flush()
	}
	return points
}

func splitLegacy(response string) []string {
	var points []string
	for _, part := range strings.Split(response, "**") {
		part = cleanInline(part)
		part = strings.Trim(part, " :-–—")
		if !hasWordRune(part) {
			continue
		}
		points = append(points, part)
	}
	return points
}

func splitList(response string) []string {
	var points []string
	for _, line := range strings.Split(response, "\n") {
		if !listItemPattern.MatchString(line) {
			continue
		}
		if item := cleanInline(listItemPattern.ReplaceAllString(line, "")); item != "" {
			points = append(points, item)
		}
	}
	return points
}

func splitParagraphs(response string) []string {
	var points []string
	for _, p := range paragraphPattern.Split(response, -1) {
		if p = cleanInline(p); p != "" {
			points = append(points, p)
		}
	}
	return points
}

// cleanInline collapses whitespace and drops leftover emphasis markers.
func cleanInline(s string) string {
	s = strings.ReplaceAll(s, "**", "")
	s = strings.ReplaceAll(s, "__", "")
	return strings.Join(strings.Fields(s), " ")
}

func hasWordRune(s string) bool {
	return len(Tokenize(s)) > 0
}
