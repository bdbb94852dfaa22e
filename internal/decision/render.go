package decision

import (
	"fmt"
	"strings"
)

// Render writes a forest as an indented Markdown list, two spaces per level.
func Render(forest []*TreeNode) string {
	if len(forest) == 0 {
		return "_No decisions on the board._\n"
	}
	var b strings.Builder
	for _, root := range forest {
		renderNode(&b, root, 0)
	}
	return b.String()
}

func renderNode(b *strings.Builder, n *TreeNode, depth int) {
	fmt.Fprintf(b, "%s- %s\n", strings.Repeat("  ", depth), oneLine(n.Content))
	for _, c := range n.Children {
		renderNode(b, c, depth+1)
	}
}

func oneLine(s string) string {
	return strings.Join(strings.Fields(s), " ")
}
