package tools

import (
	"context"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusTool handles the composer_status MCP tool.
type StatusTool struct {
	session *composer.Session
}

// NewStatusTool creates a StatusTool.
func NewStatusTool(session *composer.Session) *StatusTool {
	return &StatusTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *StatusTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_status",
		mcp.WithDescription(
			"Show the agent graph composed so far: nodes, edges, goal, settings "+
				"and what is still missing before it can be generated.",
		),
	)
}

// Handle processes the composer_status tool call.
func (t *StatusTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	return mcp.NewToolResultText(t.session.View().Summary()), nil
}
