// Package prompts implements MCP prompt handlers for codesignbot boards.
//
// MCP prompts are user-triggered workflows (like slash commands) that
// instruct the AI to execute a specific sequence. Unlike tools (which
// the AI calls), prompts are initiated by the user.
package prompts

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"
)

// CritiquePrompt handles the board-critique MCP prompt.
// It walks the AI through reviewing a board's design decisions.
type CritiquePrompt struct {
	defaultFrame string
	criticOn     bool
}

// NewCritiquePrompt creates a CritiquePrompt. criticOn tells the prompt
// whether board_critique is registered; without it the host model writes
// the critique itself and merges its own points.
func NewCritiquePrompt(defaultFrame string, criticOn bool) *CritiquePrompt {
	return &CritiquePrompt{defaultFrame: defaultFrame, criticOn: criticOn}
}

// Definition returns the MCP prompt definition for registration.
func (p *CritiquePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("board-critique",
		mcp.WithPromptDescription(
			"Critique the design decisions on a board. "+
				"Inspects the decision tree, checks it against the knowledge base, "+
				"and produces a deduplicated list of concerns.",
		),
		mcp.WithArgument("board_id",
			mcp.ArgumentDescription("Board to review (run board_list to find it)"),
		),
		mcp.WithArgument("frame",
			mcp.ArgumentDescription(fmt.Sprintf("Frame holding the decisions. Default: %s", p.defaultFrame)),
		),
	)
}

// Handle processes the board-critique prompt request.
func (p *CritiquePrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	boardID := ""
	frame := p.defaultFrame
	if args := req.Params.Arguments; args != nil {
		if id, ok := args["board_id"]; ok && id != "" {
			boardID = id
		}
		if f, ok := args["frame"]; ok && f != "" {
			frame = f
		}
	}

	var sb strings.Builder
	if boardID == "" {
		sb.WriteString("I want a critique of the design decisions on one of my boards.\n\n")
		sb.WriteString("Please:\n")
		sb.WriteString("1. Run `board_list` and ask me which board to review\n")
	} else {
		fmt.Fprintf(&sb, "I want a critique of the design decisions on board `%s`.\n\n", boardID)
		sb.WriteString("Please:\n")
		sb.WriteString("1. Confirm the board exists with `board_list`\n")
	}
	fmt.Fprintf(&sb, "2. Run `board_decision_tree` with frame=%q and show me the tree\n", frame)

	if p.criticOn {
		fmt.Fprintf(&sb, "3. Run `board_critique` with frame=%q\n", frame)
		sb.WriteString("4. Walk me through each point and tie it to the decision it concerns\n")
		sb.WriteString("5. If `board_history` shows earlier critiques, offer to run `board_themes`")
	} else {
		sb.WriteString("3. Run `board_knowledge_search` with the key words of the decisions\n")
		sb.WriteString("4. Write your critique as short, self-contained points, one concern each, " +
			"grounded in the knowledge entries you found\n")
		sb.WriteString("5. Pass the points to `board_merge_points` and present the merged list")
	}

	return &mcp.GetPromptResult{
		Description: "Critique board decisions",
		Messages: []mcp.PromptMessage{
			{
				Role:    mcp.RoleUser,
				Content: mcp.NewTextContent(sb.String()),
			},
		},
	}, nil
}
