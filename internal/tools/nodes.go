package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/mark3labs/mcp-go/mcp"
)

// nodeFieldOptions are the editable node fields shared by add and update.
func nodeFieldOptions() []mcp.ToolOption {
	return []mcp.ToolOption{
		mcp.WithString("name",
			mcp.Description("Display name (default: derived from the id)"),
		),
		mcp.WithString("description",
			mcp.Description("What this node does"),
		),
		mcp.WithString("system_prompt",
			mcp.Description("System prompt for the node's LLM"),
		),
		mcp.WithString("tools",
			mcp.Description("Comma-separated tool names the node may call"),
		),
		mcp.WithString("node_type",
			mcp.Description("Executor node kind (default: event_loop)"),
		),
		mcp.WithBoolean("client_facing",
			mcp.Description("Whether the node talks to the end user"),
		),
		mcp.WithString("input_keys",
			mcp.Description("Comma-separated memory keys the node reads"),
		),
		mcp.WithString("output_keys",
			mcp.Description("Comma-separated memory keys the node writes"),
		),
	}
}

// applyNodeFields overlays the fields present in req onto n.
func applyNodeFields(req mcp.CallToolRequest, n composer.Node) composer.Node {
	if hasArg(req, "name") {
		n.Name = strings.TrimSpace(req.GetString("name", ""))
	}
	if hasArg(req, "description") {
		n.Description = req.GetString("description", "")
	}
	if hasArg(req, "system_prompt") {
		n.SystemPrompt = req.GetString("system_prompt", "")
	}
	if hasArg(req, "tools") {
		n.Tools = composer.ParseLabels(req.GetString("tools", ""))
	}
	if hasArg(req, "node_type") {
		n.NodeType = strings.TrimSpace(req.GetString("node_type", ""))
	}
	if hasArg(req, "client_facing") {
		n.ClientFacing = req.GetBool("client_facing", false)
	}
	if hasArg(req, "input_keys") {
		n.InputKeys = composer.ParseLabels(req.GetString("input_keys", ""))
	}
	if hasArg(req, "output_keys") {
		n.OutputKeys = composer.ParseLabels(req.GetString("output_keys", ""))
	}
	return n
}

// AddNodeTool handles the composer_add_node MCP tool.
type AddNodeTool struct {
	session *composer.Session
}

// NewAddNodeTool creates an AddNodeTool.
func NewAddNodeTool(session *composer.Session) *AddNodeTool {
	return &AddNodeTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *AddNodeTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Add a node to the agent graph. The first node added becomes the entry " +
				"node and the only terminal node until you change them.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Unique node id, a Python identifier (e.g. intake)"),
		),
	}
	return mcp.NewTool("composer_add_node", append(opts, nodeFieldOptions()...)...)
}

// Handle processes the composer_add_node tool call.
func (t *AddNodeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	n := applyNodeFields(req, composer.NewNode(id))
	err := t.session.Update(func(s *composer.State) error {
		return s.AddNode(n)
	})
	return mutationResult(t.session, err, fmt.Sprintf("Node `%s` added.", id))
}

// UpdateNodeTool handles the composer_update_node MCP tool.
type UpdateNodeTool struct {
	session *composer.Session
}

// NewUpdateNodeTool creates an UpdateNodeTool.
func NewUpdateNodeTool(session *composer.Session) *UpdateNodeTool {
	return &UpdateNodeTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *UpdateNodeTool) Definition() mcp.Tool {
	opts := []mcp.ToolOption{
		mcp.WithDescription(
			"Update an existing node in place. Only the fields you pass change; " +
				"the id cannot be changed.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the node to update"),
		),
	}
	return mcp.NewTool("composer_update_node", append(opts, nodeFieldOptions()...)...)
}

// Handle processes the composer_update_node tool call.
func (t *UpdateNodeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	err := t.session.Update(func(s *composer.State) error {
		current, err := s.GetNode(id)
		if err != nil {
			return err
		}
		return s.UpdateNode(id, applyNodeFields(req, current))
	})
	return mutationResult(t.session, err, fmt.Sprintf("Node `%s` updated.", id))
}

// DeleteNodeTool handles the composer_delete_node MCP tool.
type DeleteNodeTool struct {
	session *composer.Session
}

// NewDeleteNodeTool creates a DeleteNodeTool.
func NewDeleteNodeTool(session *composer.Session) *DeleteNodeTool {
	return &DeleteNodeTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *DeleteNodeTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_delete_node",
		mcp.WithDescription(
			"Delete a node and every edge touching it. If it was the entry node, "+
				"set a new entry before generating.",
		),
		mcp.WithString("id",
			mcp.Required(),
			mcp.Description("Id of the node to delete"),
		),
	)
}

// Handle processes the composer_delete_node tool call.
func (t *DeleteNodeTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	id := strings.TrimSpace(req.GetString("id", ""))
	if id == "" {
		return mcp.NewToolResultError("'id' is required"), nil
	}
	err := t.session.Update(func(s *composer.State) error {
		return s.DeleteNode(id)
	})
	return mutationResult(t.session, err, fmt.Sprintf("Node `%s` deleted with its edges.", id))
}
