package boardtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
)

// ─── ConnectTool ────────────────────────────────────────────────────────────

// ConnectTool handles the board_connect MCP tool.
type ConnectTool struct {
	store *board.Store
}

// NewConnectTool creates a ConnectTool with the given board store.
func NewConnectTool(store *board.Store) *ConnectTool {
	return &ConnectTool{store: store}
}

// Definition returns the MCP tool definition for board_connect.
func (t *ConnectTool) Definition() mcp.Tool {
	return mcp.NewTool("board_connect",
		mcp.WithDescription(
			"Draw a directed connector from one note to another: 'from' leads to 'to'. "+
				"Endpoints are note texts (or note IDs when the server keys trees by ID). "+
				"Connectors shape the decision tree returned by board_decision_tree.",
		),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID"),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Text (or ID) of the note the connector starts at"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("Text (or ID) of the note the connector points to"),
		),
	)
}

// Handle processes the board_connect tool call.
func (t *ConnectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	p := board.ConnectParams{
		BoardID: req.GetString("board_id", ""),
		From:    req.GetString("from", ""),
		To:      req.GetString("to", ""),
	}
	if p.BoardID == "" || p.From == "" || p.To == "" {
		return mcp.NewToolResultError("'board_id', 'from' and 'to' are required"), nil
	}

	c, err := t.store.Connect(p)
	if err != nil {
		return failure("connect notes", err), nil
	}
	return mcp.NewToolResultText(
		fmt.Sprintf("Connector #%d: %s → %s", c.ID, board.Truncate(c.From, 60), board.Truncate(c.To, 60)),
	), nil
}

// ─── DisconnectTool ─────────────────────────────────────────────────────────

// DisconnectTool handles the board_disconnect MCP tool.
type DisconnectTool struct {
	store *board.Store
}

// NewDisconnectTool creates a DisconnectTool with the given board store.
func NewDisconnectTool(store *board.Store) *DisconnectTool {
	return &DisconnectTool{store: store}
}

// Definition returns the MCP tool definition for board_disconnect.
func (t *DisconnectTool) Definition() mcp.Tool {
	return mcp.NewTool("board_disconnect",
		mcp.WithDescription("Remove the connector between two notes."),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID"),
		),
		mcp.WithString("from",
			mcp.Required(),
			mcp.Description("Start of the connector, exactly as passed to board_connect"),
		),
		mcp.WithString("to",
			mcp.Required(),
			mcp.Description("End of the connector, exactly as passed to board_connect"),
		),
	)
}

// Handle processes the board_disconnect tool call.
func (t *DisconnectTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("board_id", "")
	from := req.GetString("from", "")
	to := req.GetString("to", "")
	if boardID == "" || from == "" || to == "" {
		return mcp.NewToolResultError("'board_id', 'from' and 'to' are required"), nil
	}

	if err := t.store.Disconnect(boardID, from, to); err != nil {
		return failure("disconnect notes", err), nil
	}
	return mcp.NewToolResultText("Connector removed"), nil
}
