// Package server wires all MCP components and creates the server instance.
//
// This is the composition root: it builds the concrete session, generator,
// memory manager and Jira client, and injects them into the tools, prompts
// and resources. No business logic lives here, only wiring.
package server

import (
	"context"
	"log"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/config"
	"github.com/HendryAvila/Hive/internal/generator"
	"github.com/HendryAvila/Hive/internal/jira"
	"github.com/HendryAvila/Hive/internal/memory"
	"github.com/HendryAvila/Hive/internal/memtools"
	"github.com/HendryAvila/Hive/internal/prompts"
	"github.com/HendryAvila/Hive/internal/resources"
	"github.com/HendryAvila/Hive/internal/tools"
	"github.com/mark3labs/mcp-go/mcp"
	"github.com/mark3labs/mcp-go/server"
)

// Version is set at build time via ldflags.
var Version = "dev"

// Deps are the shared dependencies every surface (MCP, HTTP, console)
// works against.
type Deps struct {
	Session   *composer.Session
	Generator *generator.Generator
	// Memory is nil when the memory store could not be opened.
	Memory   *memory.Manager
	Observer tools.GenerationObserver
	// Jira is nil when no credentials are configured.
	Jira    *jira.Client
	WorkDir string
}

// NewDeps resolves the shared dependencies from cfg. The cleanup function
// closes the memory store; it is always non-nil.
func NewDeps(ctx context.Context, cfg *config.Config) (*Deps, func(), error) {
	gen, err := generator.NewDefault()
	if err != nil {
		return nil, noop, err
	}

	d := &Deps{
		Session:   NewSession(cfg),
		Generator: gen,
		WorkDir:   cfg.OutputRoot,
	}

	// Memory is optional: composing and generating work without it.
	cleanup := noop
	mem, err := memory.New(ctx, memoryConfig(cfg))
	if err != nil {
		log.Printf("WARNING: memory subsystem disabled: %v", err)
	} else {
		d.Memory = mem
		d.Observer = tools.NewMemoryBridge(mem)
		cleanup = func() {
			if err := mem.Close(); err != nil {
				log.Printf("WARNING: memory store close: %v", err)
			}
		}
	}

	if cfg.Jira.BaseURL != "" && cfg.Jira.Token() != "" {
		client, err := jira.New(jira.Credentials{
			BaseURL: cfg.Jira.BaseURL,
			Email:   cfg.Jira.Email,
			Token:   cfg.Jira.Token(),
		})
		if err != nil {
			log.Printf("WARNING: jira tools disabled: %v", err)
		} else {
			d.Jira = client
		}
	}

	return d, cleanup, nil
}

// NewSession starts an empty composition seeded with the configured
// model and token budget.
func NewSession(cfg *config.Config) *composer.Session {
	sess := composer.NewSession()
	if err := sess.Update(func(s *composer.State) error {
		return s.SetGeneration(cfg.Composer.DefaultModel, cfg.Composer.MaxTokens)
	}); err != nil {
		log.Printf("WARNING: ignoring composer defaults: %v", err)
	}
	return sess
}

func memoryConfig(cfg *config.Config) memory.Config {
	mc := memory.DefaultConfig()
	mc.DataDir = cfg.DataDir
	mc.Backend = memory.BackendKind(cfg.Memory.Backend)
	mc.VectorURL = cfg.Memory.VectorURL
	mc.GeminiAPIKey = cfg.Memory.GeminiAPIKey
	if cfg.Memory.EmbedModel != "" {
		mc.EmbedModel = cfg.Memory.EmbedModel
	}
	return mc
}

// New creates the MCP server with all tools, prompts and resources
// registered over d.
func New(d *Deps) *server.MCPServer {
	s := server.NewMCPServer(
		"hive",
		Version,
		server.WithToolCapabilities(true),
		server.WithResourceCapabilities(false, true),
		server.WithPromptCapabilities(true),
		server.WithRecovery(),
		server.WithInstructions(serverInstructions()),
	)

	for _, t := range composerTools(d) {
		s.AddTool(t.Definition(), t.Handle)
	}
	if d.Memory != nil {
		registerMemoryTools(s, d.Memory)
	}
	if d.Jira != nil {
		for _, t := range jira.Tools(d.Jira) {
			s.AddTool(t.Definition(), t.Handle)
		}
	}

	compose := prompts.NewComposePrompt()
	s.AddPrompt(compose.Definition(), compose.Handle)
	status := prompts.NewStatusPrompt(d.Session)
	s.AddPrompt(status.Definition(), status.Handle)

	rh := resources.NewHandler(d.Session)
	s.AddResource(rh.StateResource(), rh.HandleState)
	s.AddResource(rh.SchemaResource(), rh.HandleSchema)

	return s
}

type tool interface {
	Definition() mcp.Tool
	Handle(ctx context.Context, req mcp.CallToolRequest) (*mcp.CallToolResult, error)
}

func composerTools(d *Deps) []tool {
	sess := d.Session
	return []tool{
		tools.NewSetAgentTool(sess),
		tools.NewSetGoalTool(sess),
		tools.NewAddNodeTool(sess),
		tools.NewUpdateNodeTool(sess),
		tools.NewDeleteNodeTool(sess),
		tools.NewAddEdgeTool(sess),
		tools.NewDeleteEdgeTool(sess),
		tools.NewSetEntryTool(sess),
		tools.NewSetTerminalsTool(sess),
		tools.NewConfigureTool(sess),
		tools.NewStatusTool(sess),
		tools.NewGenerateTool(sess, d.Generator, d.Observer, d.WorkDir),
	}
}

// registerMemoryTools registers the five memory tools.
func registerMemoryTools(s *server.MCPServer, mem memtools.Memory) {
	save := memtools.NewSaveLearningTool(mem)
	s.AddTool(save.Definition(), save.Handle)

	search := memtools.NewSearchTool(mem)
	s.AddTool(search.Definition(), search.Handle)

	update := memtools.NewUpdateStateTool(mem)
	s.AddTool(update.Definition(), update.Handle)

	get := memtools.NewGetStateTool(mem)
	s.AddTool(get.Definition(), get.Handle)

	clearState := memtools.NewClearStateTool(mem)
	s.AddTool(clearState.Definition(), clearState.Handle)
}

// noop is the default cleanup when memory is unavailable.
func noop() {}

// serverInstructions tells the model how to drive the composer.
func serverInstructions() string {
	return `You have access to Hive, an agent-graph composer.

## WHAT HIVE DOES

Hive builds an agent as a directed graph: nodes are processing steps
(an LLM call with a system prompt and tools), edges are transitions
between them. When the graph is complete, composer_generate writes a
runnable Python agent package.

## WORKFLOW

1. composer_set_agent: a snake_case identifier and a one-line description
2. composer_set_goal: the goal name, success criteria and constraints
3. composer_add_node for each step. The first node becomes the entry
   node and, until you say otherwise, the only terminal node.
4. composer_add_edge to connect steps. Conditions: always, on_success,
   on_failure.
5. composer_set_entry / composer_set_terminals to adjust the roles
6. composer_configure for the model, the token budget and the MCP tools
   the agent may call
7. composer_status shows the graph and what is still missing
8. composer_generate once nothing is missing. Ask the user first.

## RULES

- Node ids are unique identifiers; reuse them exactly in edges.
- Deleting a node also deletes its edges and clears its roles.
- Tool errors ("node with ID ... already exists", "unknown endpoint")
  leave the graph unchanged; fix the input and retry.
- Do not invent tool names for nodes: ask the user which tools exist.

## MEMORY

When memory tools are available, call memory_search before designing a
new agent to reuse what worked before. Each successful generation is
saved automatically as a learning tagged "composer".

## JIRA

When jira_* tools are available, agents can be designed around real
tickets: use jira_search_issues to ground node prompts in actual
workflows, and never transition or edit issues without the user's
explicit approval.`
}
