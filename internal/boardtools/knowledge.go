package boardtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
)

// ─── KnowledgeAddTool ───────────────────────────────────────────────────────

// KnowledgeAddTool handles the board_knowledge_add MCP tool.
type KnowledgeAddTool struct {
	store *board.Store
}

// NewKnowledgeAddTool creates a KnowledgeAddTool with the given board store.
func NewKnowledgeAddTool(store *board.Store) *KnowledgeAddTool {
	return &KnowledgeAddTool{store: store}
}

// Definition returns the MCP tool definition for board_knowledge_add.
func (t *KnowledgeAddTool) Definition() mcp.Tool {
	return mcp.NewTool("board_knowledge_add",
		mcp.WithDescription(
			"Add a design principle, guideline or research finding to the knowledge base. "+
				"Critiques quote the entries that match the board's decisions.",
		),
		mcp.WithString("title",
			mcp.Required(),
			mcp.Description("Short title, e.g. 'Cost transparency'"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The principle itself"),
		),
		mcp.WithString("source",
			mcp.Description("Where it comes from, e.g. 'WCAG 2.1' or a URL"),
		),
	)
}

// Handle processes the board_knowledge_add tool call.
func (t *KnowledgeAddTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	title := req.GetString("title", "")
	content := req.GetString("content", "")
	if strings.TrimSpace(title) == "" || strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'title' and 'content' are required"), nil
	}

	id, err := t.store.AddKnowledge(board.AddKnowledgeParams{
		Title:   title,
		Content: content,
		Source:  req.GetString("source", ""),
	})
	if err != nil {
		return failure("add knowledge", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Knowledge #%d saved: %s", id, strings.TrimSpace(title))), nil
}

// ─── KnowledgeSearchTool ────────────────────────────────────────────────────

// KnowledgeSearchTool handles the board_knowledge_search MCP tool.
type KnowledgeSearchTool struct {
	store *board.Store
}

// NewKnowledgeSearchTool creates a KnowledgeSearchTool with the given board store.
func NewKnowledgeSearchTool(store *board.Store) *KnowledgeSearchTool {
	return &KnowledgeSearchTool{store: store}
}

// Definition returns the MCP tool definition for board_knowledge_search.
func (t *KnowledgeSearchTool) Definition() mcp.Tool {
	return mcp.NewTool("board_knowledge_search",
		mcp.WithDescription(
			"Full-text search over the knowledge base. Words match as prefixes and any word may match. "+
				"An empty query lists the newest entries.",
		),
		mcp.WithString("query",
			mcp.Description("Search words"),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max results (default: 5)"),
		),
	)
}

// Handle processes the board_knowledge_search tool call.
func (t *KnowledgeSearchTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	query := req.GetString("query", "")
	limit := intArg(req, "limit", 5)

	hits, err := t.store.SearchKnowledge(query, limit)
	if err != nil {
		return failure("search knowledge", err), nil
	}
	if len(hits) == 0 {
		return mcp.NewToolResultText(fmt.Sprintf("No knowledge found for: %q", query)), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "Found %d entries:\n\n", len(hits))
	for _, k := range hits {
		fmt.Fprintf(&sb, "### #%d %s\n%s\n", k.ID, k.Title, board.Truncate(k.Content, 300))
		if k.Source != "" {
			fmt.Fprintf(&sb, "_Source: %s_\n", k.Source)
		}
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}
