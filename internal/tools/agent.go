package tools

import (
	"context"
	"fmt"
	"strings"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/mark3labs/mcp-go/mcp"
)

// SetAgentTool handles the composer_set_agent MCP tool.
type SetAgentTool struct {
	session *composer.Session
}

// NewSetAgentTool creates a SetAgentTool.
func NewSetAgentTool(session *composer.Session) *SetAgentTool {
	return &SetAgentTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *SetAgentTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_set_agent",
		mcp.WithDescription(
			"Name and describe the agent being composed. "+
				"The name becomes the generated package directory, so use snake_case.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Agent name (e.g. support_agent)"),
		),
		mcp.WithString("description",
			mcp.Description("What the agent does"),
		),
		mcp.WithString("output_path",
			mcp.Description("Where to generate the agent (default: hive/examples/templates/<name>)"),
		),
	)
}

// Handle processes the composer_set_agent tool call.
func (t *SetAgentTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	name := strings.TrimSpace(req.GetString("name", ""))
	if name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	err := t.session.Update(func(s *composer.State) error {
		if err := s.SetAgent(name, req.GetString("description", "")); err != nil {
			return err
		}
		if hasArg(req, "output_path") {
			s.SetOutputPath(strings.TrimSpace(req.GetString("output_path", "")))
		}
		return nil
	})
	return mutationResult(t.session, err, fmt.Sprintf("Agent set to `%s`.", name))
}

// SetGoalTool handles the composer_set_goal MCP tool.
type SetGoalTool struct {
	session *composer.Session
}

// NewSetGoalTool creates a SetGoalTool.
func NewSetGoalTool(session *composer.Session) *SetGoalTool {
	return &SetGoalTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *SetGoalTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_set_goal",
		mcp.WithDescription(
			"Set the agent's goal. Replaces any previous goal. "+
				"The goal id is derived from the name.",
		),
		mcp.WithString("name",
			mcp.Required(),
			mcp.Description("Goal name (e.g. Resolve Support Tickets)"),
		),
		mcp.WithString("description",
			mcp.Description("What achieving the goal means"),
		),
		mcp.WithString("success_criteria",
			mcp.Description("Comma-separated success criteria"),
		),
		mcp.WithString("constraints",
			mcp.Description("Comma-separated constraints"),
		),
	)
}

// Handle processes the composer_set_goal tool call.
func (t *SetGoalTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	g := composer.Goal{
		Name:            strings.TrimSpace(req.GetString("name", "")),
		Description:     req.GetString("description", ""),
		SuccessCriteria: composer.ParseLabels(req.GetString("success_criteria", "")),
		Constraints:     composer.ParseLabels(req.GetString("constraints", "")),
	}
	if g.Name == "" {
		return mcp.NewToolResultError("'name' is required"), nil
	}
	err := t.session.Update(func(s *composer.State) error {
		return s.SetGoal(g)
	})
	return mutationResult(t.session, err, fmt.Sprintf("Goal set: `%s`.", composer.GoalID(g.Name)))
}

// ConfigureTool handles the composer_configure MCP tool.
type ConfigureTool struct {
	session *composer.Session
}

// NewConfigureTool creates a ConfigureTool.
func NewConfigureTool(session *composer.Session) *ConfigureTool {
	return &ConfigureTool{session: session}
}

// Definition returns the MCP tool definition for registration.
func (t *ConfigureTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_configure",
		mcp.WithDescription(
			"Configure generation settings: default model, token budget and "+
				"the tool names exposed to the agent. Omitted settings are kept.",
		),
		mcp.WithString("model",
			mcp.Description("Default LLM model (e.g. gpt-4o-mini)"),
		),
		mcp.WithNumber("max_tokens",
			mcp.Description("Max tokens per LLM call"),
		),
		mcp.WithString("tools",
			mcp.Description("Comma-separated tool names the agent may use (replaces the selection)"),
		),
	)
}

// Handle processes the composer_configure tool call.
func (t *ConfigureTool) Handle(_ context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	err := t.session.Update(func(s *composer.State) error {
		if err := s.SetGeneration(strings.TrimSpace(req.GetString("model", "")), intArg(req, "max_tokens", 0)); err != nil {
			return err
		}
		if hasArg(req, "tools") {
			s.SelectTools(composer.ParseLabels(req.GetString("tools", "")))
		}
		return nil
	})
	if err != nil {
		return mutationResult(t.session, err, "")
	}
	v := t.session.View()
	return mutationResult(t.session, nil, fmt.Sprintf(
		"Configured: model `%s`, max tokens %d, tools: %s.",
		v.DefaultModel, v.MaxTokens, joinOrNone(v.SelectedTools),
	))
}

func joinOrNone(items []string) string {
	if len(items) == 0 {
		return "none"
	}
	return strings.Join(items, ", ")
}
