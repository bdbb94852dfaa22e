// Package boardtools provides MCP tool handlers for codesignbot boards.
//
// Each tool handler follows the same pattern:
//   - A struct with its dependencies injected via constructor
//   - Definition() returns the mcp.Tool schema
//   - Handle() processes the request and returns a result
//
// User mistakes come back as tool errors (mcp.NewToolResultError), never as
// Go errors, so the host model can read them and retry.
package boardtools

import (
	"context"
	"encoding/json"
	"errors"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"

	"github.com/HowardHan99/codesignbot-sub000/internal/metrics"
	"github.com/HowardHan99/codesignbot-sub000/internal/textsim"
)

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// floatArg extracts a float argument from a tool request.
func floatArg(req mcp.CallToolRequest, key string, defaultVal float64) float64 {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return v
}

// pointsArg decodes a JSON array of strings passed as a string argument,
// e.g. "[\"a\", \"b\"]". A native array argument is accepted too.
func pointsArg(req mcp.CallToolRequest, key string) ([]string, error) {
	var values []any
	switch raw := req.GetArguments()[key].(type) {
	case nil:
		return nil, fmt.Errorf("'%s' is required", key)
	case []any:
		values = raw
	case string:
		if err := json.Unmarshal([]byte(raw), &values); err != nil {
			return nil, fmt.Errorf("'%s' must be a JSON array of strings: %v", key, err)
		}
	default:
		return nil, fmt.Errorf("'%s' must be a JSON array of strings", key)
	}
	points, err := textsim.PointsFromAny(values)
	if err != nil {
		return nil, fmt.Errorf("'%s': %w", key, err)
	}
	return points, nil
}

// jsonResult returns v as indented JSON text.
func jsonResult(v any) (*mcp.CallToolResult, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return nil, fmt.Errorf("marshaling result: %w", err)
	}
	return mcp.NewToolResultText(string(data)), nil
}

// failure turns err into a tool error prefixed with what was being done.
func failure(action string, err error) *mcp.CallToolResult {
	return mcp.NewToolResultError(fmt.Sprintf("failed to %s: %v", action, err))
}

// Instrument wraps a handler so every call is counted by tool and result.
func Instrument(name string, m *metrics.Metrics, next server.ToolHandlerFunc) server.ToolHandlerFunc {
	return func(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
		res, err := next(ctx, req)
		m.ObserveTool(name, err != nil || (res != nil && res.IsError))
		return res, err
	}
}

// isAny reports whether err matches any of targets.
func isAny(err error, targets ...error) bool {
	for _, t := range targets {
		if errors.Is(err, t) {
			return true
		}
	}
	return false
}
