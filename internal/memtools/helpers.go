// Package memtools provides MCP tool handlers for agent memory.
//
// Each tool handler follows the same pattern as internal/tools:
// - A struct with its dependency (Memory) injected via constructor
// - Definition() returns the mcp.Tool schema
// - Handle() processes the request and returns a result
//
// Results are JSON objects so agents can consume them directly.
package memtools

import (
	"context"
	"strings"

	"github.com/HendryAvila/Hive/internal/memory"
	"github.com/mark3labs/mcp-go/mcp"
)

// Memory is the subset of *memory.Manager the tools use.
type Memory interface {
	SaveLearning(ctx context.Context, content string, tags []string) (string, error)
	Search(ctx context.Context, query string, limit int) ([]memory.Result, error)
	UpdateState(key string, value any) error
	GetState(key string) (any, bool, error)
	AllState() (map[string]any, error)
	ClearState() error
}

// intArg extracts an integer argument from a tool request, returning
// defaultVal if the key is missing or not a number (JSON numbers are float64).
func intArg(req mcp.CallToolRequest, key string, defaultVal int) int {
	v, ok := req.GetArguments()[key].(float64)
	if !ok {
		return defaultVal
	}
	return int(v)
}

// splitTags parses "a, b,,c" into trimmed, non-empty tags.
func splitTags(s string) []string {
	tags := []string{}
	for _, t := range strings.Split(s, ",") {
		if t = strings.TrimSpace(t); t != "" {
			tags = append(tags, t)
		}
	}
	return tags
}
