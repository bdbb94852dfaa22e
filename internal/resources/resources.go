// Package resources implements MCP resource handlers for codesignbot boards.
//
// Resources provide read-only data that the host can consume for context.
// They use URI-based addressing (board://...) following MCP conventions.
package resources

import (
	"context"
	"encoding/json"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/board"
)

// Handler manages board resource endpoints.
type Handler struct {
	store *board.Store
}

// NewHandler creates a resource Handler with its dependencies.
func NewHandler(store *board.Store) *Handler {
	return &Handler{store: store}
}

// BoardsResource returns the MCP resource definition for the board list.
func (h *Handler) BoardsResource() mcp.Resource {
	return mcp.NewResource(
		"board://boards",
		"Boards",
		mcp.WithResourceDescription("All boards with their note and connector counts"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleBoards returns the board list as JSON.
func (h *Handler) HandleBoards(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	boards, err := h.store.ListBoards()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	if boards == nil {
		boards = []board.BoardSummary{}
	}
	return jsonResource(req.Params.URI, boards)
}

// StatsResource returns the MCP resource definition for store statistics.
func (h *Handler) StatsResource() mcp.Resource {
	return mcp.NewResource(
		"board://stats",
		"Board Statistics",
		mcp.WithResourceDescription("Counts of boards, notes, connectors, critiques, themes and knowledge entries"),
		mcp.WithMIMEType("application/json"),
	)
}

// HandleStats returns the store statistics as JSON.
func (h *Handler) HandleStats(ctx context.Context, req mcp.ReadResourceRequest) ([]mcp.ResourceContents, error) {
	stats, err := h.store.Stats()
	if err != nil {
		return errorResource(req.Params.URI, err.Error()), nil
	}
	return jsonResource(req.Params.URI, stats)
}

func jsonResource(uri string, v any) ([]mcp.ResourceContents, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling %s: %w", uri, err)
	}
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "application/json",
			Text:     string(data),
		},
	}, nil
}

// errorResource returns a resource with an error message.
func errorResource(uri, message string) []mcp.ResourceContents {
	return []mcp.ResourceContents{
		mcp.TextResourceContents{
			URI:      uri,
			MIMEType: "text/plain",
			Text:     fmt.Sprintf("Error: %s", message),
		},
	}
}
