package tools

import (
	"context"
	"errors"
	"fmt"
	"strings"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/generator"
	"github.com/mark3labs/mcp-go/mcp"
)

// GenerateTool handles the composer_generate MCP tool.
type GenerateTool struct {
	session  *composer.Session
	gen      Generator
	observer GenerationObserver
	workDir  string
}

// NewGenerateTool creates a GenerateTool. workDir anchors default output
// paths; empty means the process working directory. observer may be nil.
func NewGenerateTool(session *composer.Session, gen Generator, observer GenerationObserver, workDir string) *GenerateTool {
	return &GenerateTool{session: session, gen: gen, observer: observer, workDir: workDir}
}

// Definition returns the MCP tool definition for registration.
func (t *GenerateTool) Definition() mcp.Tool {
	return mcp.NewTool("composer_generate",
		mcp.WithDescription(
			"Write the composed agent as a runnable Python package. Requires an agent "+
				"name, a goal, at least one node and an entry node. Re-running overwrites "+
				"the generated files.",
		),
		mcp.WithString("output_path",
			mcp.Description("Target directory (default: the agent's output path, or hive/examples/templates/<name>)"),
		),
	)
}

// Handle processes the composer_generate tool call.
func (t *GenerateTool) Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error) {
	state := t.session.View()
	if missing := state.Missing(); len(missing) > 0 {
		return mcp.NewToolResultError(
			"Cannot generate yet. Missing:\n- " + strings.Join(missing, "\n- "),
		), nil
	}

	outputDir := strings.TrimSpace(req.GetString("output_path", ""))
	if outputDir == "" {
		wd, err := workingDir(t.workDir)
		if err != nil {
			return nil, err
		}
		if outputDir, err = generator.OutputPathFor(state, wd); err != nil {
			return mcp.NewToolResultError(err.Error()), nil
		}
	}

	res, err := t.gen.Generate(state, outputDir)
	if err != nil {
		var genErr *composer.GenerationError
		if errors.As(err, &genErr) {
			return mcp.NewToolResultError(fmt.Sprintf(
				"Generation failed at %s (%s): %v", genErr.Step, genErr.Path, genErr.Err,
			)), nil
		}
		if userError(err) {
			return mcp.NewToolResultError(err.Error()), nil
		}
		return nil, fmt.Errorf("generating agent: %w", err)
	}

	notifyObserver(ctx, t.observer, state, res)

	var b strings.Builder
	fmt.Fprintf(&b, "✅ Agent `%s` generated at `%s`\n\n", state.AgentName, res.OutputDir)
	for _, a := range res.Artifacts {
		fmt.Fprintf(&b, "- `%s`\n", a)
	}
	fmt.Fprintf(&b, "\nRun it with: `python -m framework.runner.cli run %s`\n", res.OutputDir)
	return mcp.NewToolResultText(b.String()), nil
}
