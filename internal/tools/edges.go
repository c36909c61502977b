package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/mark3labs/mcp-go/mcp"
)

// AddEdgeTool handles the composer_add_edge MCP tool.
type AddEdgeTool struct {
	session *composer.Session
}

// NewAddEdgeTool creates an AddEdgeTool.
func NewAddEdgeTool(session *composer.Session) *AddEdgeTool {
	return &AddEdgeTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *AddEdgeTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_add_edge",
		mcp.WithDescription("Connect two existing nodes with a conditional edge."),
		mcp.WithString("source",
			mcp.Required(),
			mcp.Description("Source node id"),
		),
		mcp.WithString("target",
			mcp.Required(),
			mcp.Description("Target node id"),
		),
		mcp.WithString("condition",
			mcp.Description("When the edge is taken"),
			mcp.Enum(string(composer.ConditionOnSuccess), string(composer.ConditionOnFailure), string(composer.ConditionAlways)),
		),
	)
}

// Handle processes the composer_add_edge tool call.
func (t *AddEdgeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	source := strings.TrimSpace(req.GetString("source", ""))
	target := strings.TrimSpace(req.GetString("target", ""))
	if source == "" || target == "" {
		return mcp.NewToolResultError("'source' and 'target' are required"), nil
	}
	cond, err := composer.ValidateCondition(req.GetString("condition", ""))
	if err != nil {
		return mcp.NewToolResultError(err.Error()), nil
	}
	err = t.session.Update(func(s *composer.State) error {
		return s.AddEdge(composer.Edge{Source: source, Target: target, Condition: cond})
	})
	return mutationResult(t.session, err, fmt.Sprintf("Edge `%s` → `%s` (%s) added.", source, target, cond))
}

// DeleteEdgeTool handles the composer_delete_edge MCP tool.
type DeleteEdgeTool struct {
	session *composer.Session
}

// NewDeleteEdgeTool creates a DeleteEdgeTool.
func NewDeleteEdgeTool(session *composer.Session) *DeleteEdgeTool {
	return &DeleteEdgeTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteEdgeTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_delete_edge",
		mcp.WithDescription(
			"Delete an edge by its index as listed by composer_status. "+
				"Later edges shift down by one.",
		),
		mcp.WithNumber("index",
			mcp.Required(),
			mcp.Description("Zero-based edge index"),
		),
	)
}

// Handle processes the composer_delete_edge tool call.
func (t *DeleteEdgeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if !hasArg(req, "index") {
		return mcp.NewToolResultError("'index' is required"), nil
	}
	index := intArg(req, "index", -1)
	err := t.session.Update(func(s *composer.State) error {
		return s.DeleteEdge(index)
	})
	return mutationResult(t.session, err, fmt.Sprintf("Edge %d deleted.", index))
}

// SetEntryTool handles the composer_set_entry MCP tool.
type SetEntryTool struct {
	session *composer.Session
}

// NewSetEntryTool creates a SetEntryTool.
func NewSetEntryTool(session *composer.Session) *SetEntryTool {
	return &SetEntryTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *SetEntryTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_set_entry",
		mcp.WithDescription("Choose the node where graph execution starts."),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Entry node id"),
		),
	)
}

// Handle processes the composer_set_entry tool call.
func (t *SetEntryTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	err := t.session.Update(func(s *composer.State) error {
		return s.SetEntryNode(id)
	})
	return mutationResult(t.session, err, fmt.Sprintf("Entry node set to `%s`.", id))
}

// SetTerminalsTool handles the composer_set_terminals MCP tool.
type SetTerminalsTool struct {
	session *composer.Session
}

// NewSetTerminalsTool creates a SetTerminalsTool.
func NewSetTerminalsTool(session *composer.Session) *SetTerminalsTool {
	return &SetTerminalsTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *SetTerminalsTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_set_terminals",
		mcp.WithDescription("Replace the list of nodes where execution may end."),
		mcp.WithString("ids",
			mcp.Required(),
			mcp.Description("Comma-separated terminal node ids"),
		),
	)
}

// Handle processes the composer_set_terminals tool call.
func (t *SetTerminalsTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	ids := composer.ParseLabels(req.GetString("ids", ""))
	if len(ids) == 0 {
		return mcp.NewToolResultError("'ids' must name at least one node"), nil
	}
	err := t.session.Update(func(s *composer.State) error {
		return s.SetTerminalNodes(ids)
	})
	return mutationResult(t.session, err, fmt.Sprintf("Terminal nodes: %s.", strings.Join(ids, ", ")))
}
