package mcpserver

import (
	"encoding/json"
	"fmt"

	"github.com/modelcontextprotocol/go-sdk/mcp"
)

const defaultLimit = 20

func toolError(format string, args ...any) *mcp.CallToolResult {
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: fmt.Sprintf(format, args...)}},
		IsError: true,
	}
}

func toolJSON(v any) (*mcp.CallToolResult, any, error) {
	data, err := json.MarshalIndent(v, "", "  ")
	if err != nil {
		return toolError("Failed to marshal result: %v", err), nil, nil
	}
	return &mcp.CallToolResult{
		Content: []mcp.Content{&mcp.TextContent{Text: string(data)}},
	}, nil, nil
}

func clampLimit(n int) int {
	if n <= 0 || n > 100 {
		return defaultLimit
	}
	return n
}

// page is the envelope returned by search tools.
type page[T any] struct {
	Total int `json:"total"`
	Items []T `json:"items"`
}

func firstN[T any](items []T, limit int) page[T] {
	limit = clampLimit(limit)
	out := page[T]{Total: len(items), Items: items}
	if len(items) > limit {
		out.Items = items[:limit]
	}
	if out.Items == nil {
		out.Items = []T{}
	}
	return out
}
