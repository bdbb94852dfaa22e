package boardtools

import (
	"context"
	"fmt"
	"strings"

	"github.com/mark3labs/mcp-go/mcp"

	"github.com/HowardHan99/codesignbot-sub000/internal/metrics"
	"github.com/HowardHan99/codesignbot-sub000/internal/textsim"
)

// MergeSettings holds the configured merge thresholds.
type MergeSettings struct {
	Threshold        float64
	JaccardThreshold float64
}

// ─── MergePointsTool ────────────────────────────────────────────────────────

// MergePointsTool handles the board_merge_points MCP tool.
type MergePointsTool struct {
	settings MergeSettings
	metrics  *metrics.Metrics
}

// NewMergePointsTool creates a MergePointsTool. m may be nil.
func NewMergePointsTool(settings MergeSettings, m *metrics.Metrics) *MergePointsTool {
	return &MergePointsTool{settings: settings, metrics: m}
}

// Definition returns the MCP tool definition for board_merge_points.
func (t *MergePointsTool) Definition() mcp.Tool {
	return mcp.NewTool("board_merge_points",
		mcp.WithDescription(
			"Collapse near-duplicate critique or decision points into one representative each. "+
				"'weighted' (default) groups by stem key then by a blended sequence/word/stem score, "+
				"keeps the shortest wording of each group and sorts by length. "+
				"'jaccard' drops points whose word overlap with an earlier kept point is too high, "+
				"preserving input order.",
		),
		mcp.WithString("points",
			mcp.Required(),
			mcp.Description("JSON array of strings, e.g. \"[\\\"Low contrast\\\", \\\"Contrast is too low\\\"]\""),
		),
		mcp.WithString("strategy",
			mcp.Description("Merge strategy: weighted (default) or jaccard"),
			mcp.Enum(string(textsim.WeightedSimilarityMerge), string(textsim.JaccardMerge)),
		),
		mcp.WithNumber("threshold",
			mcp.Description("Merge when the score is strictly above this (default: 0.6 weighted, 0.7 jaccard)"),
		),
	)
}

// Handle processes the board_merge_points tool call.
func (t *MergePointsTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	points, err := pointsArg(req, "points")
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	strategy, err := textsim.ParseStrategy(req.GetString("strategy", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}

	threshold := floatArg(req, "threshold", 0)
	if threshold < 0 || threshold > 1 {
		return mcp.NewToolResultError("'threshold' must be between 0 and 1"), nil
	}
	if threshold == 0 {
		threshold = t.settings.Threshold
		if strategy == textsim.JaccardMerge {
			threshold = t.settings.JaccardThreshold
		}
	}

	m := textsim.NewMerger(strategy, threshold)
	merged := m.Merge(points)
	t.metrics.ObserveMerge(string(strategy), len(points), len(merged))

	return jsonResult(map[string]any{
		"strategy":  m.Strategy,
		"threshold": m.Threshold,
		"input":     len(points),
		"merged":    merged,
	})
}

// ─── SplitResponseTool ──────────────────────────────────────────────────────

// SplitResponseTool handles the board_split_response MCP tool.
type SplitResponseTool struct{}

// NewSplitResponseTool creates a SplitResponseTool.
func NewSplitResponseTool() *SplitResponseTool {
	return &SplitResponseTool{}
}

// Definition returns the MCP tool definition for board_split_response.
func (t *SplitResponseTool) Definition() mcp.Tool {
	return mcp.NewTool("board_split_response",
		mcp.WithDescription(
			"Split a raw model response into individual points. Understands '## heading' sections "+
				"separated by '---', points wrapped in '**', list items, and paragraphs. "+
				"Feed the result to board_merge_points.",
		),
		mcp.WithString("response",
			mcp.Required(),
			mcp.Description("The raw response text"),
		),
	)
}

// Handle processes the board_split_response tool call.
func (t *SplitResponseTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	response := req.GetString("response", "")
	if strings.TrimSpace(response) == "" {
		return mcp.NewToolResultError("'response' is required"), nil
	}
	return jsonResult(textsim.SplitResponse(response))
}

// ─── SimilarityTool ─────────────────────────────────────────────────────────

// SimilarityTool handles the board_similarity MCP tool.
type SimilarityTool struct{}

// NewSimilarityTool creates a SimilarityTool.
func NewSimilarityTool() *SimilarityTool {
	return &SimilarityTool{}
}

// Definition returns the MCP tool definition for board_similarity.
func (t *SimilarityTool) Definition() mcp.Tool {
	return mcp.NewTool("board_similarity",
		mcp.WithDescription(
			"Score how alike two points are. Returns the weighted total (0..1) with its "+
				"sequence, word and stem components, plus the word-level Jaccard score.",
		),
		mcp.WithString("a",
			mcp.Required(),
			mcp.Description("First text"),
		),
		mcp.WithString("b",
			mcp.Required(),
			mcp.Description("Second text"),
		),
	)
}

// Handle processes the board_similarity tool call.
func (t *SimilarityTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	args := req.GetArguments()
	a, aOK := args["a"].(string)
	b, bOK := args["b"].(string)
	if !aOK || !bOK {
		return mcp.NewToolResultError("'a' and 'b' are required strings"), nil
	}

	return jsonResult(struct {
		textsim.Scores
		Jaccard float64 `json:"jaccard"`
	}{
		Scores:  textsim.Breakdown(a, b),
		Jaccard: textsim.Jaccard(a, b),
	})
}

// ─── ProcessPointTool ───────────────────────────────────────────────────────

// ProcessPointTool handles the board_process_point MCP tool.
type ProcessPointTool struct{}

// NewProcessPointTool creates a ProcessPointTool.
func NewProcessPointTool() *ProcessPointTool {
	return &ProcessPointTool{}
}

// Definition returns the MCP tool definition for board_process_point.
func (t *ProcessPointTool) Definition() mcp.Tool {
	return mcp.NewTool("board_process_point",
		mcp.WithDescription(
			"Show how a point is normalized before comparison: the simplified text, "+
				"its stems, and the stem key used to bucket exact rewordings.",
		),
		mcp.WithString("text",
			mcp.Required(),
			mcp.Description("The point to normalize"),
		),
	)
}

// Handle processes the board_process_point tool call.
func (t *ProcessPointTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	text := req.GetString("text", "")
	if strings.TrimSpace(text) == "" {
		return mcp.NewToolResultError("'text' is required"), nil
	}
	return jsonResult(textsim.ProcessSuggestion(text))
}

// formatPoints renders points as a numbered Markdown list.
func formatPoints(points []string) string {
	var sb strings.Builder
	for i, p := range points {
		fmt.Fprintf(&sb, "%d. %s\n", i+1, p)
	}
	return sb.String()
}
