package prompts

import (
	"context"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/mark3labs/mcp-go/mcp"
)

// StatusPrompt handles the hive-status prompt. It embeds the current
// graph summary so the model can answer without a tool round trip.
type StatusPrompt struct {
	session *composer.Session
}

// NewStatusPrompt creates a StatusPrompt.
func NewStatusPrompt(session *composer.Session) *StatusPrompt {
	return &StatusPrompt{session: session}
}

// Definition returns the MCP prompt definition for registration.
func (p *StatusPrompt) Definition() mcp.Prompt {
	return mcp.NewPrompt("hive-status",
		mcp.WithPromptDescription(
			"Review the agent being composed: what is defined, what is "+
				"still missing, and what to do next.",
		),
	)
}

// Handle processes the hive-status prompt request.
func (p *StatusPrompt) Handle(_ context.Context, _ mcp.GetPromptRequest) (*mcp.GetPromptResult, error) {
	return &mcp.GetPromptResult{
		Description: "Hive composer status",
		Messages: []mcp.PromptMessage{
			{
				Role: mcp.RoleUser,
				Content: mcp.NewTextContent(
					"Here is the agent I am composing:\n\n" +
						p.session.View().Summary() + "\n\n" +
						"Please:\n" +
						"1. Point out nodes that are unreachable from the entry node or have no outgoing edge\n" +
						"2. Tell me exactly what is missing before I can generate\n" +
						"3. Suggest the next composer tool call",
				),
			},
		},
	}, nil
}
