package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// SaveLearningTool handles the memory_save_learning MCP tool.
type SaveLearningTool struct {
	mem Memory
}

// NewSaveLearningTool creates a SaveLearningTool.
func NewSaveLearningTool(mem Memory) *SaveLearningTool {
	return &SaveLearningTool{mem: mem}
}

// Definition returns the MCP tool definition for memory_save_learning.
func (t *SaveLearningTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_save_learning",
		mcp.WithDescription(
			"Save an important learning or fix for future retrieval. Use this to record "+
				"error patterns and their fixes, business rules or gotchas, and user preferences and corrections.",
		),
		mcp.WithString("content",
			mcp.Required(),
			mcp.Description("The learning text to save"),
		),
		mcp.WithString("tags",
			mcp.Description("Comma-separated tags (e.g. 'hubspot,auth,error')"),
		),
	)
}

// Handle processes the memory_save_learning tool call.
func (t *SaveLearningTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	content := req.GetString("content", "")
	if content == "" {
		return mcp.NewToolResultError("'content' is required"), nil
	}

	id, err := t.mem.SaveLearning(ctx, content, splitTags(req.GetString("tags", "")))
	if err != nil {
		return nil, fmt.Errorf("saving learning: %w", err)
	}

	return mcp.NewToolResultJSON(map[string]any{
		"success":  true,
		"entry_id": id,
	})
}
