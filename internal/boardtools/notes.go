package boardtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
)

// ─── AddNoteTool ────────────────────────────────────────────────────────────

// AddNoteTool handles the board_add_note MCP tool.
type AddNoteTool struct {
	store *board.Store
}

// NewAddNoteTool creates an AddNoteTool with the given board store.
func NewAddNoteTool(store *board.Store) *AddNoteTool {
	return &AddNoteTool{store: store}
}

// Definition returns the MCP tool definition for board_add_note.
func (t *AddNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("board_add_note",
		mcp.WithDescription(
			"Place a sticky note on a board, optionally inside a named frame such as 'Design Decisions'. "+
				"Passing an existing note_id updates that note (and restores it if it was deleted).",
		),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID from board_create or board_list"),
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("Note text. Simple <p> markup is accepted."),
		),
		mcp.WithString("frame",
			mcp.Description("Frame title the note sits in (default: no frame)"),
		),
		mcp.WithString("note_id",
			mcp.Description("Note ID from the canvas host. Generated if omitted."),
		),
	)
}

// Handle processes the board_add_note tool call.
func (t *AddNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("board_id", "")
	if boardID == "" {
		return mcp.NewToolResultError("'board_id' is required"), nil
	}
	content := req.GetString("content", "")
	if strings.TrimSpace(content) == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	n, err := t.store.AddNote(board.AddNoteParams{
		BoardID: boardID,
		ID:      req.GetString("note_id", ""),
		Frame:   req.GetString("frame", ""),
		Content: content,
	})
	if err != nil {
		return failure("add note", err), nil
	}

	where := "board"
	if n.Frame != "" {
		where = fmt.Sprintf("frame %q", n.Frame)
	}
	return mcp.NewToolResultText(
		fmt.Sprintf("Note %s placed in %s: %s", n.ID, where, board.Truncate(n.Content, 80)),
	), nil
}

// ─── DeleteNoteTool ─────────────────────────────────────────────────────────

// DeleteNoteTool handles the board_delete_note MCP tool.
type DeleteNoteTool struct {
	store *board.Store
}

// NewDeleteNoteTool creates a DeleteNoteTool with the given board store.
func NewDeleteNoteTool(store *board.Store) *DeleteNoteTool {
	return &DeleteNoteTool{store: store}
}

// Definition returns the MCP tool definition for board_delete_note.
func (t *DeleteNoteTool) Definition() mcp.Tool {
	return mcp.NewTool("board_delete_note",
		mcp.WithDescription(
			"Remove a sticky note from a board. Connectors to it stay stored but are ignored "+
				"while the note is gone.",
		),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID"),
		),
		mcp.WithString("note_id",
			mcp.Required(),
			mcp.Description("Note ID to remove"),
		),
	)
}

// Handle processes the board_delete_note tool call.
func (t *DeleteNoteTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("board_id", "")
	noteID := req.GetString("note_id", "")
	if boardID == "" || noteID == "" {
		return mcp.NewToolResultError("'board_id' and 'note_id' are required"), nil
	}

	if err := t.store.DeleteNote(boardID, noteID); err != nil {
		return failure("delete note", err), nil
	}
	return mcp.NewToolResultText(fmt.Sprintf("Note %s removed", noteID)), nil
}
