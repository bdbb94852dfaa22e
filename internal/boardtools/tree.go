package boardtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
	"github.com/HowardHan99/codesignbot-sub000/internal/decision"
)

// DecisionTreeTool handles the board_decision_tree MCP tool.
type DecisionTreeTool struct {
	store *board.Store
}

// NewDecisionTreeTool creates a DecisionTreeTool with the given board store.
func NewDecisionTreeTool(store *board.Store) *DecisionTreeTool {
	return &DecisionTreeTool{store: store}
}

// Definition returns the MCP tool definition for board_decision_tree.
func (t *DecisionTreeTool) Definition() mcp.Tool {
	return mcp.NewTool("board_decision_tree",
		mcp.WithDescription(
			"Build the decision forest of a board: one tree per note nothing points to, "+
				"children following connectors. Cycles are cut; if every note has a parent, "+
				"each note is returned on its own.",
		),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID"),
		),
		mcp.WithString("frame",
			mcp.Description("Only use notes in this frame, e.g. 'Design Decisions' (default: whole board)"),
		),
		mcp.WithString("format",
			mcp.Description("Output format: markdown (default) or json"),
			mcp.Enum("markdown", "json"),
		),
	)
}

// Handle processes the board_decision_tree tool call.
func (t *DecisionTreeTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("board_id", "")
	if boardID == "" {
		return mcp.NewToolResultError("'board_id' is required"), nil
	}
	frame := req.GetString("frame", "")
	format := req.GetString("format", "markdown")

	forest, err := t.store.DecisionForest(boardID, frame)
	if err != nil {
		return failure("build decision tree", err), nil
	}

	switch format {
	case "json":
		return jsonResult(forest)
	case "markdown":
		var sb strings.Builder
		title := "Decision Tree"
		if frame != "" {
			title += ": " + frame
		}
		fmt.Fprintf(&sb, "## %s\n\n", title)
		fmt.Fprintf(&sb, "%d trees, %d nodes\n\n", len(forest), decision.Size(forest))
		sb.WriteString(decision.Render(forest))
		return mcp.NewToolResultText(sb.String()), nil
	default:
		return mcp.NewToolResultError(fmt.Sprintf("unknown format %q (want markdown or json)", format)), nil
	}
}
