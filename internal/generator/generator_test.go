package generator

import (
	"errors"
	"io/fs"
	"os"
	"os/exec"
	"path/filepath"
	"slices"
	"strings"
	"testing"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/templates"
)

// supportAgent builds the two-node customer support graph.
func supportAgent(t *testing.T) *composer.State {
	t.Helper()
	s := composer.NewState()
	if err := s.SetAgent("simple_support_agent", "A basic customer support agent"); err != nil {
		t.Fatalf("SetAgent: %v", err)
	}
	if err := s.SetGoal(composer.Goal{
		ID:              "support_goal",
		Name:            "Customer Support Goal",
		Description:     "Provide helpful responses to customer inquiries",
		SuccessCriteria: []string{"response_quality", "resolution_speed"},
	}); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}
	intake := composer.NewNode("intake")
	intake.Name = "Customer Intake"
	intake.SystemPrompt = "You are a helpful customer support agent. Gather information about the customer's issue."
	response := composer.NewNode("response")
	response.Name = "Response Generator"
	for _, n := range []composer.Node{intake, response} {
		if err := s.AddNode(n); err != nil {
			t.Fatalf("AddNode: %v", err)
		}
	}
	if err := s.AddEdge(composer.Edge{Source: "intake", Target: "response", Condition: composer.ConditionOnSuccess}); err != nil {
		t.Fatalf("AddEdge: %v", err)
	}
	if err := s.SetTerminalNodes([]string{"response"}); err != nil {
		t.Fatalf("SetTerminalNodes: %v", err)
	}
	return s
}

// listEntries returns every file and directory under root, relative, sorted.
func listEntries(t *testing.T, root string) []string {
	t.Helper()
	var entries []string
	err := filepath.WalkDir(root, func(path string, d fs.DirEntry, err error) error {
		if err != nil {
			return err
		}
		if path == root {
			return nil
		}
		rel, _ := filepath.Rel(root, path)
		entries = append(entries, filepath.ToSlash(rel))
		return nil
	})
	if err != nil {
		t.Fatalf("walk %s: %v", root, err)
	}
	slices.Sort(entries)
	return entries
}

func newGenerator(t *testing.T) *Generator {
	t.Helper()
	g, err := NewDefault()
	if err != nil {
		t.Fatalf("NewDefault: %v", err)
	}
	return g
}

func TestGenerate_SixArtifactsWithoutTools(t *testing.T) {
	out := filepath.Join(t.TempDir(), "simple_support_agent")
	res, err := newGenerator(t).Generate(supportAgent(t), out)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}

	want := []string{"__init__.py", "__main__.py", "agent.py", "config.py", "nodes", "nodes/__init__.py"}
	if got := listEntries(t, out); !slices.Equal(got, want) {
		t.Errorf("entries = %v, want %v", got, want)
	}
	if len(res.Artifacts) != 6 {
		t.Errorf("Artifacts = %v, want 6", res.Artifacts)
	}
	if _, err := os.Stat(filepath.Join(out, ManifestFile)); !errors.Is(err, fs.ErrNotExist) {
		t.Errorf("manifest should not exist without tools, stat err = %v", err)
	}
}

func TestGenerate_SevenArtifactsWithTools(t *testing.T) {
	s := supportAgent(t)
	s.SelectTools([]string{"web_search"})
	out := t.TempDir()

	res, err := newGenerator(t).Generate(s, out)
	if err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if got := listEntries(t, out); len(got) != 7 || !slices.Contains(got, ManifestFile) {
		t.Errorf("entries = %v, want 7 including %s", got, ManifestFile)
	}
	if len(res.Artifacts) != 7 || res.Artifacts[len(res.Artifacts)-1] != ManifestFile {
		t.Errorf("Artifacts = %v", res.Artifacts)
	}
}

func TestGenerate_IdempotentOverwrite(t *testing.T) {
	g := newGenerator(t)
	s := supportAgent(t)
	out := t.TempDir()

	if _, err := g.Generate(s, out); err != nil {
		t.Fatalf("first Generate: %v", err)
	}
	first := listEntries(t, out)
	agentPy, _ := os.ReadFile(filepath.Join(out, "agent.py"))

	// Scribble over one file; the second run must overwrite it.
	if err := os.WriteFile(filepath.Join(out, "config.py"), []byte("junk"), 0o644); err != nil {
		t.Fatal(err)
	}
	if _, err := g.Generate(s, out); err != nil {
		t.Fatalf("second Generate: %v", err)
	}
	if second := listEntries(t, out); !slices.Equal(first, second) {
		t.Errorf("entries changed: %v -> %v", first, second)
	}
	cfg, _ := os.ReadFile(filepath.Join(out, "config.py"))
	if string(cfg) == "junk" {
		t.Error("config.py was not overwritten")
	}
	again, _ := os.ReadFile(filepath.Join(out, "agent.py"))
	if string(agentPy) != string(again) {
		t.Error("agent.py differs between identical runs")
	}
}

func TestGenerate_Content(t *testing.T) {
	out := t.TempDir()
	if _, err := newGenerator(t).Generate(supportAgent(t), out); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	nodes, err := os.ReadFile(filepath.Join(out, "nodes", "__init__.py"))
	if err != nil {
		t.Fatal(err)
	}
	for _, want := range []string{"intake_node = NodeSpec(", "response_node = NodeSpec(", `node_type="event_loop"`} {
		if !strings.Contains(string(nodes), want) {
			t.Errorf("nodes/__init__.py missing %q", want)
		}
	}
	agent, _ := os.ReadFile(filepath.Join(out, "agent.py"))
	if !strings.Contains(string(agent), "EdgeCondition.ON_SUCCESS") {
		t.Error("agent.py missing edge condition")
	}
}

// tripleQuoted decodes the """ literal that follows prefix in src. Only
// the escapes the templates emit (\\ and \") are accepted.
func tripleQuoted(t *testing.T, src, prefix string) string {
	t.Helper()
	i := strings.Index(src, prefix+`"""`)
	if i < 0 {
		t.Fatalf("no %s\"\"\" literal in:\n%s", prefix, src)
	}
	rest := src[i+len(prefix)+3:]
	var b strings.Builder
	for j := 0; j < len(rest); j++ {
		switch c := rest[j]; c {
		case '\\':
			if j+1 == len(rest) || (rest[j+1] != '\\' && rest[j+1] != '"') {
				t.Fatalf("unexpected escape at %q", rest[j:])
			}
			j++
			b.WriteByte(rest[j])
		case '"':
			if !strings.HasPrefix(rest[j:], `"""`) {
				t.Fatalf("bare quote inside literal: %q", rest[j:])
			}
			return b.String()
		default:
			b.WriteByte(c)
		}
	}
	t.Fatalf("unterminated literal after %s", prefix)
	return ""
}

func TestGenerate_QuotesAndBackslashesStayLiteral(t *testing.T) {
	const (
		prompt = `Reply with the word "done"`
		desc   = `Says "hi" and ends with a quote"`
		name   = `support "v2"`
	)
	s := supportAgent(t)
	s.AgentName = name
	s.AgentDescription = desc
	n, _ := s.GetNode("response")
	n.SystemPrompt = "Use C:\\tmp\\ paths.\n" + prompt
	if err := s.UpdateNode("response", n); err != nil {
		t.Fatal(err)
	}
	intake, _ := s.GetNode("intake")
	intake.SystemPrompt = prompt
	if err := s.UpdateNode("intake", intake); err != nil {
		t.Fatal(err)
	}

	out := t.TempDir()
	if _, err := newGenerator(t).Generate(s, out); err != nil {
		t.Fatalf("Generate: %v", err)
	}

	nodes, _ := os.ReadFile(filepath.Join(out, "nodes", "__init__.py"))
	if got := tripleQuoted(t, string(nodes), "system_prompt="); got != prompt {
		t.Errorf("intake prompt = %q, want %q", got, prompt)
	}
	second := string(nodes)[strings.Index(string(nodes), "response_node"):]
	if got := tripleQuoted(t, second, "system_prompt="); got != n.SystemPrompt {
		t.Errorf("response prompt = %q, want %q", got, n.SystemPrompt)
	}

	initPy, _ := os.ReadFile(filepath.Join(out, "__init__.py"))
	if got := tripleQuoted(t, string(initPy), ""); got != name+" - "+desc {
		t.Errorf("__init__ docstring = %q", got)
	}

	pyFiles := []string{"__init__.py", "__main__.py", "agent.py", "config.py", filepath.Join("nodes", "__init__.py")}
	for _, f := range pyFiles[1:] {
		src, _ := os.ReadFile(filepath.Join(out, f))
		if !strings.Contains(tripleQuoted(t, string(src), ""), name) {
			t.Errorf("%s docstring lost the agent name", f)
		}
	}

	python, err := exec.LookPath("python3")
	if err != nil {
		return
	}
	for _, f := range pyFiles {
		cmd := exec.Command(python, "-c", "import ast, sys; ast.parse(open(sys.argv[1]).read())", filepath.Join(out, f))
		if msg, err := cmd.CombinedOutput(); err != nil {
			t.Errorf("%s does not parse: %v\n%s", f, err, msg)
		}
	}
}

func TestGenerate_IncompleteGraph(t *testing.T) {
	s := supportAgent(t)
	s.Goal = nil
	out := filepath.Join(t.TempDir(), "agent")

	_, err := newGenerator(t).Generate(s, out)
	if !errors.Is(err, composer.ErrIncompleteGraph) {
		t.Fatalf("error = %v, want ErrIncompleteGraph", err)
	}
	var ie *composer.IncompleteError
	if !errors.As(err, &ie) || !slices.Equal(ie.Missing, []string{"agent goal"}) {
		t.Errorf("missing = %+v", ie)
	}
	if _, err := os.Stat(out); !errors.Is(err, fs.ErrNotExist) {
		t.Error("nothing should be written for an incomplete graph")
	}
}

func TestGenerate_FilesystemFailure(t *testing.T) {
	blocker := filepath.Join(t.TempDir(), "file")
	if err := os.WriteFile(blocker, []byte("x"), 0o644); err != nil {
		t.Fatal(err)
	}
	_, err := newGenerator(t).Generate(supportAgent(t), blocker)
	if !errors.Is(err, composer.ErrGenerationFailure) {
		t.Fatalf("error = %v, want ErrGenerationFailure", err)
	}
}

// failingRenderer fails on one template and renders the rest as their name.
type failingRenderer struct {
	failOn string
}

func (f failingRenderer) Render(name string, _ any) (string, error) {
	if name == f.failOn {
		return "", errors.New("boom")
	}
	return name, nil
}

func TestGenerate_TemplateFailureKeepsPartialOutput(t *testing.T) {
	out := t.TempDir()
	res, err := New(failingRenderer{failOn: templates.AgentModule}).Generate(supportAgent(t), out)
	if !errors.Is(err, composer.ErrGenerationFailure) {
		t.Fatalf("error = %v, want ErrGenerationFailure", err)
	}
	var ge *composer.GenerationError
	if !errors.As(err, &ge) || ge.Step != templates.AgentModule {
		t.Errorf("GenerationError = %+v", ge)
	}
	want := []string{"nodes/", "__init__.py", "__main__.py"}
	if !slices.Equal(res.Artifacts, want) {
		t.Errorf("Artifacts = %v, want %v", res.Artifacts, want)
	}
	if _, err := os.Stat(filepath.Join(out, "__main__.py")); err != nil {
		t.Error("files written before the failure should remain")
	}
	if _, err := os.Stat(filepath.Join(out, "config.py")); !errors.Is(err, fs.ErrNotExist) {
		t.Error("steps after the failure should not run")
	}
}

func TestBuildContext_EmptyGoal(t *testing.T) {
	ctx := BuildContext(composer.NewState())
	goal, ok := ctx["goal"].(map[string]any)
	if !ok || len(goal) != 0 {
		t.Errorf("goal = %#v, want empty map", ctx["goal"])
	}
	if ctx["tool_path"] != ToolPath {
		t.Errorf("tool_path = %v", ctx["tool_path"])
	}
	for _, key := range []string{"agent_name", "agent_description", "nodes", "edges", "entry_node",
		"terminal_nodes", "default_model", "max_tokens", "selected_tools"} {
		if _, ok := ctx[key]; !ok {
			t.Errorf("context missing %q", key)
		}
	}
}

func TestShouldCompose(t *testing.T) {
	dir := t.TempDir()
	if !ShouldCompose(filepath.Join(dir, "missing")) {
		t.Error("missing path should need composing")
	}
	if !ShouldCompose(dir) {
		t.Error("empty dir should need composing")
	}
	if _, err := newGenerator(t).Generate(supportAgent(t), dir); err != nil {
		t.Fatalf("Generate: %v", err)
	}
	if ShouldCompose(dir) {
		t.Error("generated agent should not need composing")
	}
	if err := os.Remove(filepath.Join(dir, "config.py")); err != nil {
		t.Fatal(err)
	}
	if !ShouldCompose(dir) {
		t.Error("agent without config.py should need composing")
	}
}

func TestOutputPathFor(t *testing.T) {
	s := composer.NewState()
	if _, err := OutputPathFor(s, "/work"); !errors.Is(err, composer.ErrInvalidField) {
		t.Errorf("error = %v, want ErrInvalidField", err)
	}
	s.AgentName = "bot"
	got, err := OutputPathFor(s, "/work")
	if err != nil || got != filepath.Join("/work", "hive", "examples", "templates", "bot") {
		t.Errorf("OutputPathFor = %q, %v", got, err)
	}
	s.SetOutputPath("/elsewhere")
	if got, _ := OutputPathFor(s, "/work"); got != "/elsewhere" {
		t.Errorf("OutputPathFor = %q, want /elsewhere", got)
	}
}
