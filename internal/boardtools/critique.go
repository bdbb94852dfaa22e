package boardtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
	"github.com/HowardHan99/codesignbot-sub000/internal/critic"
)

// critiqueResult formats a stored critic run, or turns a known critic error
// into a tool error the host can act on.
func critiqueResult(action string, c *board.Critique, err error) (*mcp.CallToolResult, error) {
	switch {
	case err == nil:
	case isAny(err, critic.ErrBusy):
		return mcp.NewToolResultError("This board is already being processed. Wait for the running request to finish."), nil
	case isAny(err, critic.ErrNoDecisions, critic.ErrNoCritiques, critic.ErrEmptyResponse,
		critic.ErrUnavailable, board.ErrNotFound):
		return mcp.NewToolResultError(err.Error()), nil
	default:
		return failure(action, err), nil
	}

	var sb strings.Builder
	fmt.Fprintf(&sb, "## %s #%d\n\n", strings.ToUpper(c.Kind[:1])+c.Kind[1:], c.ID)
	fmt.Fprintf(&sb, "%d points merged into %d (%s).\n\n", c.InputCount, len(c.Points), c.Strategy)
	sb.WriteString(formatPoints(c.Points))
	return mcp.NewToolResultText(sb.String()), nil
}

// ─── CritiqueTool ───────────────────────────────────────────────────────────

// CritiqueTool handles the board_critique MCP tool.
type CritiqueTool struct {
	service      *critic.Service
	defaultFrame string
}

// NewCritiqueTool creates a CritiqueTool. defaultFrame is used when the
// caller names no frame.
func NewCritiqueTool(service *critic.Service, defaultFrame string) *CritiqueTool {
	return &CritiqueTool{service: service, defaultFrame: defaultFrame}
}

// Definition returns the MCP tool definition for board_critique.
func (t *CritiqueTool) Definition() mcp.Tool {
	return mcp.NewTool("board_critique",
		mcp.WithDescription(
			"Ask the configured language model to critique the design decisions on a board. "+
				"The decision tree and matching knowledge entries are sent; the reply is split "+
				"into points, near-duplicates are merged, and the result is stored in board_history. "+
				"Only one critique or theme run per board may be in flight.",
		),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID"),
		),
		mcp.WithString("frame",
			mcp.Description("Frame holding the decisions (default: the configured decision frame; '*' for the whole board)"),
		),
	)
}

// Handle processes the board_critique tool call.
func (t *CritiqueTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("board_id", "")
	if boardID == "" {
		return mcp.NewToolResultError("'board_id' is required"), nil
	}
	frame := req.GetString("frame", t.defaultFrame)
	if frame == "*" {
		frame = ""
	}

	c, err := t.service.Critique(ctx, boardID, frame)
	return critiqueResult("critique board", c, err)
}

// ─── ThemesTool ─────────────────────────────────────────────────────────────

// ThemesTool handles the board_themes MCP tool.
type ThemesTool struct {
	service *critic.Service
}

// NewThemesTool creates a ThemesTool.
func NewThemesTool(service *critic.Service) *ThemesTool {
	return &ThemesTool{service: service}
}

// Definition returns the MCP tool definition for board_themes.
func (t *ThemesTool) Definition() mcp.Tool {
	return mcp.NewTool("board_themes",
		mcp.WithDescription(
			"Group the points of a board's recent critiques into recurring themes "+
				"using the configured language model. Stored in board_history as a theme run.",
		),
		mcp.WithString("board_id",
			mcp.Required(),
			mcp.Description("Board ID"),
		),
	)
}

// Handle processes the board_themes tool call.
func (t *ThemesTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	boardID := req.GetString("board_id", "")
	if boardID == "" {
		return mcp.NewToolResultError("'board_id' is required"), nil
	}
	c, err := t.service.Themes(ctx, boardID)
	return critiqueResult("group themes", c, err)
}
