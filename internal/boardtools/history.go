package boardtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
)

// ─── HistoryTool ────────────────────────────────────────────────────────────

// HistoryTool handles the board_history MCP tool.
type HistoryTool struct {
	store *board.Store
}

// NewHistoryTool creates a HistoryTool with the given board store.
func NewHistoryTool(store *board.Store) *HistoryTool {
	return &HistoryTool{store: store}
}

// Definition returns the MCP tool definition for board_history.
func (t *HistoryTool) Definition() mcp.Tool {
	return mcp.NewTool("board_history",
		mcp.WithDescription("Show a board's past critiques and themes, newest first."),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID"),
		),
		mcp.WithString("kind",
			mcp.Description("Only this kind: critique or theme (default: both)"),
			mcp.Enum(board.KindCritique, board.KindTheme),
		),
		mcp.WithNumber("limit",
			mcp.Description("Max runs to show (default: 10)"),
		),
	)
}

// Handle processes the board_history tool call.
func (t *HistoryTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("board_id", "")
	if boardID == "" {
		return mcp.NewToolResultError("'board_id' is required"), nil
	}
	kind := req.GetString("kind", "")
	if kind != "" && kind != board.KindCritique && kind != board.KindTheme {
		return mcp.NewToolResultError(fmt.Sprintf("unknown kind %q (want critique or theme)", kind)), nil
	}

	runs, err := t.store.ListCritiques(boardID, kind, intArg(req, "limit", 10))
	if err != nil {
		return failure("load history", err), nil
	}
	if len(runs) == 0 {
		return mcp.NewToolResultText("No critiques recorded for this board yet."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## History (%d runs)\n\n", len(runs))
	for _, c := range runs {
		fmt.Fprintf(&sb, "### %s #%d | %s | %s, %d → %d points",
			c.Kind, c.ID, c.CreatedAt, c.Strategy, c.InputCount, len(c.Points))
		if c.Frame != "" {
			fmt.Fprintf(&sb, " | frame %q", c.Frame)
		}
		sb.WriteString("\n")
		sb.WriteString(formatPoints(c.Points))
		sb.WriteString("\n")
	}
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── StatsTool ──────────────────────────────────────────────────────────────

// StatsTool handles the board_stats MCP tool.
type StatsTool struct {
	store *board.Store
}

// NewStatsTool creates a StatsTool with the given board store.
func NewStatsTool(store *board.Store) *StatsTool {
	return &StatsTool{store: store}
}

// Definition returns the MCP tool definition for board_stats.
func (t *StatsTool) Definition() mcp.Tool {
	return mcp.NewTool("board_stats",
		mcp.WithDescription("Show store statistics: boards, notes, connectors, critiques, themes and knowledge entries."),
	)
}

// Handle processes the board_stats tool call.
func (t *StatsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	stats, err := t.store.Stats()
	if err != nil {
		return failure("get stats", err), nil
	}

	var sb strings.Builder
	sb.WriteString("## Board Statistics\n\n")
	fmt.Fprintf(&sb, "- **Boards**: %d\n", stats.Boards)
	fmt.Fprintf(&sb, "- **Notes**: %d\n", stats.Notes)
	fmt.Fprintf(&sb, "- **Connectors**: %d\n", stats.Connections)
	fmt.Fprintf(&sb, "- **Critiques**: %d\n", stats.Critiques)
	fmt.Fprintf(&sb, "- **Themes**: %d\n", stats.Themes)
	fmt.Fprintf(&sb, "- **Knowledge entries**: %d\n", stats.Knowledge)
	return mcp.NewToolResultText(sb.String()), nil
}
