// Package prompts implements the user-triggered MCP prompts.
//
// Prompts are initiated by the user (like slash commands) and instruct
// the model to drive the composer tools in a fixed sequence.
package prompts

import (
	"context"
	"fmt"

	"github.com/mark3labs/mcp-go/mcp"
)

// ComposePrompt handles the hive-compose prompt.
type ComposePrompt struct{}

// NewComposePrompt creates a ComposePrompt.
func NewComposePrompt() *ComposePrompt {
	return &ComposePrompt{}
}

// Definition returns the MCP prompt definition for registration.
func (p *ComposePrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("hive-compose",
		mcp.WithPromptDescription(
			"Design a new agent graph step by step: name and goal, nodes, "+
				"edges, entry and terminal nodes, then generate the package.",
		),
		mcp.WithArgument("agent_name",
			mcp.ArgumentDescription("Identifier for the agent (letters, digits, underscores)"),
		),
		mcp.WithArgument("idea",
			mcp.ArgumentDescription("What the agent should do, in a sentence or two"),
		),
	)
}

// Handle processes the hive-compose prompt request.
func (p *ComposePrompt) Handle(_ context.Context, req mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	name := "my_agent"
	idea := ""
	if args := req.Params.Arguments; args != nil {
		if v := args["agent_name"]; v != "" {
			name = v
		}
		idea = args["idea"]
	}

	ideaLine := "Ask me what the agent should do before adding nodes."
	if idea != "" {
		ideaLine = fmt.Sprintf("The agent should: %s", idea)
	}

	return &mcp.GetPromptResult{
		Description: fmt.Sprintf("Compose agent: %s", name),
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(fmt.Sprintf(
					"I want to build an agent called '%s'.\n\n%s\n\n"+
						"Please:\n"+
						"1. Run `composer_set_agent` with name='%s' and a one-line description\n"+
						"2. Propose a goal with success criteria and run `composer_set_goal`\n"+
						"3. Propose the nodes (id, prompt, tools, input/output keys) and add them with `composer_add_node`\n"+
						"4. Connect them with `composer_add_edge`, then confirm entry and terminal nodes\n"+
						"5. Check `composer_status` and fix anything listed as missing\n"+
						"6. Ask me before running `composer_generate`",
					name, ideaLine, name,
				)),
			},
		},
	}, nil
}
