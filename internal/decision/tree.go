// Package decision turns design-decision sticky notes and the connectors
// drawn between them into a forest of trees.
package decision

import (
	"strings"

	"github.com/charmbracelet/log"
)

// Note is one sticky note on the board.
type Note struct {
	ID      string `json:"id"`
	Content string `json:"content"`
}

// Connection is a directed "links to" edge. From and To reference notes by
// content under ContentKeyer, or by ID under IDKeyer.
type Connection struct {
	From string `json:"from"`
	To   string `json:"to"`
}

// TreeNode is one node of the decision forest.
type TreeNode struct {
	Content  string      `json:"content"`
	ID       string      `json:"id,omitempty"`
	Children []*TreeNode `json:"children,omitempty"`
}

// Keyer decides how notes and connection endpoints are matched.
type Keyer interface {
	// NoteKey returns the identity of a note.
	NoteKey(n Note) string
	// EndpointKey normalises a connection endpoint to the same key space.
	EndpointKey(ref string) string
}

// ContentKeyer matches connections to notes by cleaned note content. This is
// what canvas hosts produce when connectors only carry the text on each end.
type ContentKeyer struct{}

// NoteKey returns the note's cleaned content.
func (ContentKeyer) NoteKey(n Note) string { return CleanContent(n.Content) }

// EndpointKey cleans a connector endpoint the same way as note content.
func (ContentKeyer) EndpointKey(ref string) string { return CleanContent(ref) }

// IDKeyer matches connections to notes by note ID.
type IDKeyer struct{}

// NoteKey returns the note's trimmed ID.
func (IDKeyer) NoteKey(n Note) string { return strings.TrimSpace(n.ID) }

// EndpointKey returns the trimmed endpoint, which must name a note ID.
func (IDKeyer) EndpointKey(ref string) string { return strings.TrimSpace(ref) }

var paragraphTags = strings.NewReplacer("<p>", "", "</p>", "")

// CleanContent strips paragraph markup and surrounding whitespace.
func CleanContent(content string) string {
	return strings.TrimSpace(paragraphTags.Replace(content))
}

// Builder builds decision forests.
type Builder struct {
	keyer  Keyer
	logger *log.Logger
}

// NewBuilder creates a Builder. A nil keyer selects ContentKeyer, a nil
// logger selects log.Default().
func NewBuilder(keyer Keyer, logger *log.Logger) *Builder {
	if keyer == nil {
		keyer = ContentKeyer{}
	}
	if logger == nil {
		logger = log.Default()
	}
	return &Builder{keyer: keyer, logger: logger}
}

// BuildDecisionTree builds a forest with content keying and the default
// logger.
func BuildDecisionTree(notes []Note, connections []Connection) []*TreeNode {
	return NewBuilder(nil, nil).Build(notes, connections)
}

// graph is the deduplicated note set plus adjacency, in first-seen order.
type graph struct {
	order    []string
	notes    map[string]Note
	children map[string][]string
	parents  map[string]map[string]bool
}

// Build returns one tree per root, where a root is a note nothing points to.
// If every note has a parent, each note becomes its own single-node tree.
// Build never fails: unknown endpoints are dropped and cycles are cut.
func (b *Builder) Build(notes []Note, connections []Connection) []*TreeNode {
	g := b.index(notes)
	if len(g.order) == 0 {
		return []*TreeNode{}
	}
	b.link(g, connections)

	var roots []string
	for _, key := range g.order {
		if len(g.parents[key]) == 0 {
			roots = append(roots, key)
		}
	}

	if len(roots) == 0 {
		forest := make([]*TreeNode, 0, len(g.order))
		for _, key := range g.order {
			forest = append(forest, b.leaf(g.notes[key]))
		}
		return forest
	}

	forest := make([]*TreeNode, 0, len(roots))
	for _, key := range roots {
		if node := b.expand(g, key, map[string]bool{}); node != nil {
			forest = append(forest, node)
		}
	}
	return forest
}

func (b *Builder) index(notes []Note) *graph {
	g := &graph{
		notes:    make(map[string]Note, len(notes)),
		children: make(map[string][]string),
		parents:  make(map[string]map[string]bool),
	}
	for _, n := range notes {
		key := b.keyer.NoteKey(n)
		if key == "" {
			continue
		}
		existing, ok := g.notes[key]
		if !ok {
			g.order = append(g.order, key)
			g.notes[key] = n
			continue
		}
		// Duplicate content: the shorter ID wins, ties keep the first.
		if len(n.ID) < len(existing.ID) {
			g.notes[key] = n
		}
	}
	return g
}

func (b *Builder) link(g *graph, connections []Connection) {
	seen := make(map[[2]string]bool, len(connections))
	for _, c := range connections {
		from, to := b.keyer.EndpointKey(c.From), b.keyer.EndpointKey(c.To)
		_, fromOK := g.notes[from]
		_, toOK := g.notes[to]
		if !fromOK || !toOK {
			b.logger.Debug("dropping connection with unknown endpoint", "from", c.From, "to", c.To)
			continue
		}
		edge := [2]string{from, to}
		if seen[edge] {
			continue
		}
		seen[edge] = true

		g.children[from] = append(g.children[from], to)
		if g.parents[to] == nil {
			g.parents[to] = make(map[string]bool)
		}
		g.parents[to][from] = true
	}
}

// expand walks depth-first from key. visited holds the keys on the current
// path only; each branch gets its own copy, so a node reachable along two
// paths appears under both.
func (b *Builder) expand(g *graph, key string, visited map[string]bool) *TreeNode {
	if visited[key] {
		return nil
	}
	path := make(map[string]bool, len(visited)+1)
	for k := range visited {
		path[k] = true
	}
	path[key] = true

	node := b.leaf(g.notes[key])
	for _, child := range g.children[key] {
		if c := b.expand(g, child, path); c != nil {
			node.Children = append(node.Children, c)
		}
	}
	return node
}

func (b *Builder) leaf(n Note) *TreeNode {
	return &TreeNode{Content: CleanContent(n.Content), ID: n.ID}
}

// Size counts the nodes in a forest.
func Size(forest []*TreeNode) int {
	total := 0
	for _, n := range forest {
		total += 1 + Size(n.Children)
	}
	return total
}
