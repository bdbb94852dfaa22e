package boardtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
)

// ─── CreateBoardTool ────────────────────────────────────────────────────────

// CreateBoardTool handles the board_create MCP tool.
type CreateBoardTool struct {
	store *board.Store
}

// NewCreateBoardTool creates a CreateBoardTool with the given board store.
func NewCreateBoardTool(store *board.Store) *CreateBoardTool {
	return &CreateBoardTool{store: store}
}

// Definition returns the MCP tool definition for board_create.
func (t *CreateBoardTool) Definition() mcp.Tool {
	return mcp.NewTool("board_create",
		mcp.WithDescription(
			"Create a new design board. Returns the board ID that every other board_* tool takes.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Human-readable board name, e.g. 'Checkout redesign'"),
		),
	)
}

// Handle processes the board_create tool call.
func (t *CreateBoardTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := req.GetString("name", "")
	if strings.TrimSpace(name) == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}

	b, err := t.store.CreateBoard(name)
	if err != nil {
		return failure("create board", err), nil
	}

	return mcp.NewToolResultText(
		fmt.Sprintf("Board created: %q\nBoard ID: %s", b.Name, b.ID),
	), nil
}

// ─── ListBoardsTool ─────────────────────────────────────────────────────────

// ListBoardsTool handles the board_list MCP tool.
type ListBoardsTool struct {
	store *board.Store
}

// NewListBoardsTool creates a ListBoardsTool with the given board store.
func NewListBoardsTool(store *board.Store) *ListBoardsTool {
	return &ListBoardsTool{store: store}
}

// Definition returns the MCP tool definition for board_list.
func (t *ListBoardsTool) Definition() mcp.Tool {
	return mcp.NewTool("board_list",
		mcp.WithDescription("List all boards with their note and connector counts, newest first."),
	)
}

// Handle processes the board_list tool call.
func (t *ListBoardsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boards, err := t.store.ListBoards()
	if err != nil {
		return failure("list boards", err), nil
	}
	if len(boards) == 0 {
		return mcp.NewToolResultText("No boards yet. Create one with board_create."), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## Boards (%d)\n\n", len(boards))
	for _, b := range boards {
		fmt.Fprintf(&sb, "- **%s** | `%s` | %d notes | %d connectors | created: %s\n",
			b.Name, b.ID, b.NoteCount, b.ConnectionCount, b.CreatedAt)
	}
	return mcp.NewToolResultText(sb.String()), nil
}
