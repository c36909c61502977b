package memtools

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// --- memory_update_state ---

// UpdateStateTool handles the memory_update_state MCP tool.
type UpdateStateTool struct {
	mem Memory
}

// NewUpdateStateTool creates an UpdateStateTool.
func NewUpdateStateTool(mem Memory) *UpdateStateTool {
	return &UpdateStateTool{mem: mem}
}

// Definition returns the MCP tool definition for memory_update_state.
func (t *UpdateStateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_update_state",
		mcp.WithDescription(
			"Save workflow state for crash recovery. Checkpoint progress in multi-step workflows "+
				"so you can resume if interrupted.",
		),
		mcp.WithString("key",
			mcp.Required(),
			mcp.Description("State key (e.g. 'current_step', 'contact_id')"),
		),
		mcp.WithString("value",
			mcp.Required(),
			mcp.Description("Value to save (stored as a string)"),
		),
	)
}

// Handle processes the memory_update_state tool call.
func (t *UpdateStateTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		return mcp.NewToolResultError("'key' is required"), nil
	}
	if err := t.mem.UpdateState(key, req.GetString("value", "")); err != nil {
		return nil, fmt.Errorf("updating state: %w", err)
	}
	return mcp.NewToolResultJSON(map[string]any{"success": true, "key": key})
}

// --- memory_get_state ---

// GetStateTool handles the memory_get_state MCP tool.
type GetStateTool struct {
	mem Memory
}

// NewGetStateTool creates a GetStateTool.
func NewGetStateTool(mem Memory) *GetStateTool {
	return &GetStateTool{mem: mem}
}

// Definition returns the MCP tool definition for memory_get_state.
func (t *GetStateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_get_state",
		mcp.WithDescription(
			"Retrieve workflow state. Check this at startup to see if you are resuming a previous workflow.",
		),
		mcp.WithString("key",
			mcp.Description("State key to retrieve, or empty for all state"),
		),
	)
}

// Handle processes the memory_get_state tool call.
func (t *GetStateTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	key := req.GetString("key", "")
	if key == "" {
		state, err := t.mem.AllState()
		if err != nil {
			return nil, fmt.Errorf("reading state: %w", err)
		}
		return mcp.NewToolResultJSON(map[string]any{"state": state})
	}

	value, _, err := t.mem.GetState(key)
	if err != nil {
		return nil, fmt.Errorf("reading state: %w", err)
	}
	return mcp.NewToolResultJSON(map[string]any{"key": key, "value": value})
}

// --- memory_clear_state ---

// ClearStateTool handles the memory_clear_state MCP tool.
type ClearStateTool struct {
	mem Memory
}

// NewClearStateTool creates a ClearStateTool.
func NewClearStateTool(mem Memory) *ClearStateTool {
	return &ClearStateTool{mem: mem}
}

// Definition returns the MCP tool definition for memory_clear_state.
func (t *ClearStateTool) Definition() mcp.Tool {
	return mcp.NewTool("memory_clear_state",
		mcp.WithDescription("Clear all workflow state. Call this when a workflow completes successfully."),
	)
}

// Handle processes the memory_clear_state tool call.
func (t *ClearStateTool) Handle(_ context.Context, _ mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	if err := t.mem.ClearState(); err != nil {
		return nil, fmt.Errorf("clearing state: %w", err)
	}
	return mcp.NewToolResultJSON(map[string]any{"success": true, "message": "State cleared"})
}
