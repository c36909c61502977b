// Package generator turns a complete composer State into agent scaffolding
// on disk.
//
// Generation is a one-way export: directories are created idempotently,
// existing files are overwritten without a conflict check, and a failure
// part-way leaves the files already written in place.
package generator

import (
	"fmt"
	"os"
	"path/filepath"
	"slices"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/templates"
)

const (
	// NodesDir holds the node-definition package.
	NodesDir = "nodes"
	// ManifestFile is the tool-server manifest, written only when tools are selected.
	ManifestFile = "mcp_servers.json"
	// ToolPath is the shared tool directory relative to a generated agent.
	ToolPath = "../../tools"
)

// artifact pairs a template with the file it produces.
type artifact struct {
	template string
	path     string // relative to the output directory
}

// coreArtifacts are written for every agent, in this order.
var coreArtifacts = []artifact{
	{templates.InitModule, "__init__.py"},
	{templates.MainModule, "__main__.py"},
	{templates.AgentModule, "agent.py"},
	{templates.ConfigModule, "config.py"},
	{templates.NodesModule, filepath.Join(NodesDir, "__init__.py")},
}

// requiredFiles mark an agent directory as already generated.
var requiredFiles = []string{"agent.py", "config.py", filepath.Join(NodesDir, "__init__.py")}

// Result describes one generation run.
type Result struct {
	OutputDir string
	// Artifacts lists the nodes/ directory and every written file,
	// relative to OutputDir, in creation order.
	Artifacts []string
}

// Generator renders agents with a template Renderer.
type Generator struct {
	renderer templates.Renderer
}

// New creates a Generator.
func New(renderer templates.Renderer) *Generator {
	return &Generator{renderer: renderer}
}

// NewDefault creates a Generator over the embedded templates.
func NewDefault() (*Generator, error) {
	r, err := templates.NewRenderer()
	if err != nil {
		return nil, err
	}
	return New(r), nil
}

// Generate writes the agent described by state into outputDir.
func (g *Generator) Generate(state *composer.State, outputDir string) (*Result, error) {
	if !state.IsComplete() {
		return nil, &composer.IncompleteError{Missing: state.Missing()}
	}

	ctx := BuildContext(state)
	res := &Result{OutputDir: outputDir}

	nodesDir := filepath.Join(outputDir, NodesDir)
	if err := os.MkdirAll(nodesDir, 0o755); err != nil {
		return res, &composer.GenerationError{Step: "mkdir", Path: nodesDir, Err: err}
	}
	res.Artifacts = append(res.Artifacts, NodesDir+"/")

	plan := slices.Clone(coreArtifacts)
	if len(state.SelectedTools) > 0 {
		plan = append(plan, artifact{templates.MCPServers, ManifestFile})
	}

	for _, a := range plan {
		content, err := g.renderer.Render(a.template, ctx)
		if err != nil {
			return res, &composer.GenerationError{Step: a.template, Path: a.path, Err: err}
		}
		dst := filepath.Join(outputDir, a.path)
		if err := os.WriteFile(dst, []byte(content), 0o644); err != nil {
			return res, &composer.GenerationError{Step: "write", Path: dst, Err: err}
		}
		res.Artifacts = append(res.Artifacts, filepath.ToSlash(a.path))
	}
	return res, nil
}

// BuildContext flattens a state into the parameter mapping the templates
// consume. An unset goal becomes an empty mapping.
func BuildContext(s *composer.State) map[string]any {
	goal := map[string]any{}
	if s.Goal != nil {
		goal = map[string]any{
			"id":               s.Goal.ID,
			"name":             s.Goal.Name,
			"description":      s.Goal.Description,
			"success_criteria": nonNil(s.Goal.SuccessCriteria),
			"constraints":      nonNil(s.Goal.Constraints),
		}
	}

	nodes := make([]map[string]any, len(s.Nodes))
	for i, n := range s.Nodes {
		nodes[i] = map[string]any{
			"id":            n.ID,
			"name":          n.Name,
			"description":   n.Description,
			"system_prompt": n.SystemPrompt,
			"tools":         nonNil(n.Tools),
			"node_type":     n.NodeType,
			"client_facing": n.ClientFacing,
			"input_keys":    nonNil(n.InputKeys),
			"output_keys":   nonNil(n.OutputKeys),
		}
	}

	edges := make([]map[string]any, len(s.Edges))
	for i, e := range s.Edges {
		edges[i] = map[string]any{
			"source":    e.Source,
			"target":    e.Target,
			"condition": string(e.Condition),
		}
	}

	return map[string]any{
		"agent_name":        s.AgentName,
		"agent_description": s.AgentDescription,
		"goal":              goal,
		"nodes":             nodes,
		"edges":             edges,
		"entry_node":        s.EntryNode,
		"terminal_nodes":    nonNil(s.TerminalNodes),
		"default_model":     s.DefaultModel,
		"max_tokens":        s.MaxTokens,
		"selected_tools":    nonNil(s.SelectedTools),
		"tool_path":         ToolPath,
	}
}

func nonNil(s []string) []string {
	if s == nil {
		return []string{}
	}
	return s
}

// ShouldCompose reports whether agentPath still needs composing: it does
// not exist or lacks one of the generated core files.
func ShouldCompose(agentPath string) bool {
	if _, err := os.Stat(agentPath); err != nil {
		return true
	}
	for _, f := range requiredFiles {
		if _, err := os.Stat(filepath.Join(agentPath, f)); err != nil {
			return true
		}
	}
	return false
}

// DefaultOutputPath is where an agent is generated when no path was given.
func DefaultOutputPath(cwd, agentName string) string {
	return filepath.Join(cwd, "hive", "examples", "templates", agentName)
}

// OutputPathFor picks the state's output path, falling back to the default.
func OutputPathFor(s *composer.State, cwd string) (string, error) {
	if s.OutputPath != "" {
		return s.OutputPath, nil
	}
	if s.AgentName == "" {
		return "", fmt.Errorf("%w: agent name is required to derive an output path", composer.ErrInvalidField)
	}
	return DefaultOutputPath(cwd, s.AgentName), nil
}
