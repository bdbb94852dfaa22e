package prompts

import (
	"context"

	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the board-status MCP prompt.
// It instructs the AI to summarize the boards and what was last critiqued.
type StatusPrompt struct{}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt() *StatusPrompt {
	return &StatusPrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("board-status",
		mcp.WithPromptDescription(
			"Summarize your boards: notes, connectors, "+
				"recent critiques and what to look at next.",
		),
	)
}

// Handle processes the board-status prompt request.
func (p *StatusPrompt) Handle(ctx context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Board Status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Please run `board_stats` and `board_list` to check my boards.\n\n" +
						"Then:\n" +
						"1. Show me each board with its note and connector counts\n" +
						"2. For the newest board, run `board_history` and summarize the latest critique\n" +
						"3. Point out boards that have notes but no connectors, since their decision trees are flat\n" +
						"4. Tell me what I should do next",
				),
			},
		},
	}, nil
}
