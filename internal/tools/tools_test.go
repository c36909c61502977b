package tools

import (
	"context"
	"errors"
	"os"
	"path/filepath"
	"strings"
	"testing"

	"github.com/HendryAvila/Hive/internal/composer"
	"github.com/HendryAvila/Hive/internal/generator"
	"github.com/mark3labs/mcp-go/mcp"
)

// --- Test helpers ---

// makeReq builds a mcp.CallToolRequest with the given arguments.
func makeReq(args map[string]interface{}) mcp.CallToolRequest {
	req := mcp.CallToolRequest{}
	req.Params.Arguments = args
	return req
}

// isErrorResult checks if the result is a tool error.
func isErrorResult(result *mcp.CallToolResult) bool {
	return result != nil && result.IsError
}

// resultText extracts the text content from a tool result.
func resultText(r *mcp.CallToolResult) string {
	if r == nil || len(r.Content) == 0 {
		return ""
	}
	for _, c := range r.Content {
		if tc, ok := c.(mcp.TextContent); ok {
			return tc.Text
		}
	}
	return ""
}

type handler func(context.Context, mcp.CallToolRequest) (*mcp.CallToolResult, error)

// call invokes h and fails the test on a Go error.
func call(t *testing.T, h handler, args map[string]interface{}) *mcp.CallToolResult {
	t.Helper()
	r, err := h(context.Background(), makeReq(args))
	if err != nil {
		t.Fatalf("unexpected error: %v", err)
	}
	return r
}

func mustSucceed(t *testing.T, h handler, args map[string]interface{}) string {
	t.Helper()
	r := call(t, h, args)
	if isErrorResult(r) {
		t.Fatalf("unexpected tool error: %s", resultText(r))
	}
	return resultText(r)
}

func mustFail(t *testing.T, h handler, args map[string]interface{}, wantSubstr string) {
	t.Helper()
	r := call(t, h, args)
	if !isErrorResult(r) {
		t.Fatalf("expected tool error, got: %s", resultText(r))
	}
	if !strings.Contains(resultText(r), wantSubstr) {
		t.Errorf("error %q should contain %q", resultText(r), wantSubstr)
	}
}

// completeSession builds a session that can be generated.
func completeSession(t *testing.T) *composer.Session {
	t.Helper()
	sess := composer.NewSession()
	mustSucceed(t, NewSetAgentTool(sess).Handle, map[string]interface{}{"name": "support_agent"})
	mustSucceed(t, NewSetGoalTool(sess).Handle, map[string]interface{}{"name": "Resolve Tickets"})
	mustSucceed(t, NewAddNodeTool(sess).Handle, map[string]interface{}{"id": "intake"})
	return sess
}

// --- Agent, goal, configure ---

func TestSetAgentAndGoal(t *testing.T) {
	sess := composer.NewSession()

	out := mustSucceed(t, NewSetAgentTool(sess).Handle, map[string]interface{}{
		"name": "support_agent", "description": "Answers tickets", "output_path": "/tmp/out",
	})
	if !strings.Contains(out, "Still missing") {
		t.Errorf("incomplete state should list what is missing: %s", out)
	}
	mustSucceed(t, NewSetGoalTool(sess).Handle, map[string]interface{}{
		"name": "Resolve Tickets", "success_criteria": "ticket closed, customer happy",
	})

	v := sess.View()
	if v.AgentName != "support_agent" || v.AgentDescription != "Answers tickets" || v.OutputPath != "/tmp/out" {
		t.Errorf("agent = %q %q %q", v.AgentName, v.AgentDescription, v.OutputPath)
	}
	if v.Goal == nil || v.Goal.ID != "resolve_tickets" || len(v.Goal.SuccessCriteria) != 2 {
		t.Errorf("goal = %+v", v.Goal)
	}

	mustFail(t, NewSetAgentTool(sess).Handle, map[string]interface{}{}, "'name' is required")
	mustFail(t, NewSetGoalTool(sess).Handle, map[string]interface{}{"name": "  "}, "'name' is required")
}

func TestConfigure(t *testing.T) {
	sess := composer.NewSession()
	tool := NewConfigureTool(sess)

	mustSucceed(t, tool.Handle, map[string]interface{}{
		"model": "claude-sonnet", "max_tokens": float64(4096), "tools": "web_search, send_email, web_search",
	})
	v := sess.View()
	if v.DefaultModel != "claude-sonnet" || v.MaxTokens != 4096 {
		t.Errorf("settings = %s %d", v.DefaultModel, v.MaxTokens)
	}
	if len(v.SelectedTools) != 2 {
		t.Errorf("tools = %v, want deduped", v.SelectedTools)
	}

	// Omitted settings are kept.
	mustSucceed(t, tool.Handle, map[string]interface{}{"max_tokens": float64(100)})
	v = sess.View()
	if v.DefaultModel != "claude-sonnet" || len(v.SelectedTools) != 2 {
		t.Errorf("omitted settings changed: %s %v", v.DefaultModel, v.SelectedTools)
	}

	mustFail(t, tool.Handle, map[string]interface{}{"max_tokens": float64(-1)}, "max tokens")
}

// --- Nodes ---

func TestAddNode(t *testing.T) {
	sess := composer.NewSession()
	add := NewAddNodeTool(sess)

	mustSucceed(t, add.Handle, map[string]interface{}{
		"id": "intake", "tools": "crm_lookup", "client_facing": true, "output_keys": "ticket",
	})
	v := sess.View()
	n, err := v.GetNode("intake")
	if err != nil {
		t.Fatal(err)
	}
	if n.Name != "Intake" || n.SystemPrompt != composer.DefaultSystemPrompt || !n.ClientFacing {
		t.Errorf("node = %+v", n)
	}
	if v.EntryNode != "intake" || len(v.TerminalNodes) != 1 {
		t.Errorf("first node should be entry and terminal: %q %v", v.EntryNode, v.TerminalNodes)
	}

	mustFail(t, add.Handle, map[string]interface{}{"id": "intake"}, "intake")
	mustFail(t, add.Handle, map[string]interface{}{"id": "bad id"}, "")
	mustFail(t, add.Handle, map[string]interface{}{}, "'id' is required")
}

func TestUpdateNode_OnlyGivenFields(t *testing.T) {
	sess := composer.NewSession()
	mustSucceed(t, NewAddNodeTool(sess).Handle, map[string]interface{}{
		"id": "intake", "tools": "crm_lookup", "system_prompt": "Greet the user.",
	})
	update := NewUpdateNodeTool(sess)

	mustSucceed(t, update.Handle, map[string]interface{}{"id": "intake", "node_type": "router"})
	n, _ := sess.View().GetNode("intake")
	if n.NodeType != "router" || n.SystemPrompt != "Greet the user." || len(n.Tools) != 1 {
		t.Errorf("node after update = %+v", n)
	}

	mustFail(t, update.Handle, map[string]interface{}{"id": "ghost"}, "not found")
}

func TestDeleteNode_CascadesAndReportsMissing(t *testing.T) {
	sess := completeSession(t)
	mustSucceed(t, NewAddNodeTool(sess).Handle, map[string]interface{}{"id": "resolve"})
	mustSucceed(t, NewAddEdgeTool(sess).Handle, map[string]interface{}{"source": "intake", "target": "resolve"})

	out := mustSucceed(t, NewDeleteNodeTool(sess).Handle, map[string]interface{}{"id": "intake"})
	if !strings.Contains(out, "entry node not set") {
		t.Errorf("deleting the entry should report it missing: %s", out)
	}
	if v := sess.View(); len(v.Edges) != 0 || v.EntryNode != "" {
		t.Errorf("after delete: edges=%v entry=%q", v.Edges, v.EntryNode)
	}

	mustFail(t, NewDeleteNodeTool(sess).Handle, map[string]interface{}{"id": "intake"}, "not found")
}

// --- Edges, entry, terminals ---

func TestEdges(t *testing.T) {
	sess := composer.NewSession()
	add := NewAddNodeTool(sess)
	mustSucceed(t, add.Handle, map[string]interface{}{"id": "a"})
	mustSucceed(t, add.Handle, map[string]interface{}{"id": "b"})

	edge := NewAddEdgeTool(sess)
	mustSucceed(t, edge.Handle, map[string]interface{}{"source": "a", "target": "b"})
	mustSucceed(t, edge.Handle, map[string]interface{}{"source": "b", "target": "a", "condition": "on_failure"})

	v := sess.View()
	if len(v.Edges) != 2 || v.Edges[0].Condition != composer.ConditionOnSuccess {
		t.Fatalf("edges = %+v", v.Edges)
	}

	mustFail(t, edge.Handle, map[string]interface{}{"source": "a", "target": "zzz"}, "zzz")
	mustFail(t, edge.Handle, map[string]interface{}{"source": "a", "target": "b", "condition": "sometimes"}, "condition")

	del := NewDeleteEdgeTool(sess)
	mustSucceed(t, del.Handle, map[string]interface{}{"index": float64(0)})
	if v := sess.View(); len(v.Edges) != 1 || v.Edges[0].Source != "b" {
		t.Errorf("edges after delete = %+v", v.Edges)
	}
	mustFail(t, del.Handle, map[string]interface{}{"index": float64(5)}, "5")
	mustFail(t, del.Handle, map[string]interface{}{}, "'index' is required")
}

func TestEntryAndTerminals(t *testing.T) {
	sess := composer.NewSession()
	add := NewAddNodeTool(sess)
	mustSucceed(t, add.Handle, map[string]interface{}{"id": "a"})
	mustSucceed(t, add.Handle, map[string]interface{}{"id": "b"})

	mustSucceed(t, NewSetEntryTool(sess).Handle, map[string]interface{}{"id": "b"})
	mustSucceed(t, NewSetTerminalsTool(sess).Handle, map[string]interface{}{"ids": "a, b"})
	v := sess.View()
	if v.EntryNode != "b" || len(v.TerminalNodes) != 2 {
		t.Errorf("entry=%q terminals=%v", v.EntryNode, v.TerminalNodes)
	}

	mustFail(t, NewSetEntryTool(sess).Handle, map[string]interface{}{"id": "c"}, "c")
	mustFail(t, NewSetTerminalsTool(sess).Handle, map[string]interface{}{"ids": "a, c"}, "c")
	if v := sess.View(); len(v.TerminalNodes) != 2 {
		t.Errorf("failed update should keep terminals: %v", v.TerminalNodes)
	}
}

// --- Status ---

func TestStatus(t *testing.T) {
	sess := composer.NewSession()
	out := mustSucceed(t, NewStatusTool(sess).Handle, nil)
	for _, want := range []string{"(unnamed)", "agent name", "entry node not set"} {
		if !strings.Contains(out, want) {
			t.Errorf("empty status missing %q:\n%s", want, out)
		}
	}

	sess = completeSession(t)
	out = mustSucceed(t, NewStatusTool(sess).Handle, nil)
	if !strings.Contains(out, "Ready to generate") || !strings.Contains(out, "`intake`") {
		t.Errorf("complete status:\n%s", out)
	}
}

// --- Generate ---

type recordingObserver struct {
	calls int
	dir   string
}

func (o *recordingObserver) OnGenerated(_ context.Context, _ *composer.State, res *generator.Result) {
	o.calls++
	o.dir = res.OutputDir
}

func TestGenerate_WritesAgent(t *testing.T) {
	gen, err := generator.NewDefault()
	if err != nil {
		t.Fatal(err)
	}
	sess := completeSession(t)
	obs := &recordingObserver{}
	workDir := t.TempDir()
	tool := NewGenerateTool(sess, gen, obs, workDir)

	out := mustSucceed(t, tool.Handle, nil)
	want := generator.DefaultOutputPath(workDir, "support_agent")
	if !strings.Contains(out, want) {
		t.Errorf("output should name %s:\n%s", want, out)
	}
	if _, err := os.Stat(filepath.Join(want, "agent.py")); err != nil {
		t.Errorf("agent.py not written: %v", err)
	}
	if obs.calls != 1 || obs.dir != want {
		t.Errorf("observer calls=%d dir=%q", obs.calls, obs.dir)
	}

	explicit := filepath.Join(t.TempDir(), "custom")
	mustSucceed(t, tool.Handle, map[string]interface{}{"output_path": explicit})
	if _, err := os.Stat(filepath.Join(explicit, "config.py")); err != nil {
		t.Errorf("explicit output path not used: %v", err)
	}
}

func TestGenerate_Incomplete(t *testing.T) {
	gen, _ := generator.NewDefault()
	obs := &recordingObserver{}
	tool := NewGenerateTool(composer.NewSession(), gen, obs, t.TempDir())

	mustFail(t, tool.Handle, nil, "agent name")
	if obs.calls != 0 {
		t.Error("observer should not run for a failed generation")
	}
}

type failingGenerator struct{}

func (failingGenerator) Generate(_ *composer.State, dir string) (*generator.Result, error) {
	return nil, &composer.GenerationError{Step: "write", Path: dir, Err: errors.New("disk full")}
}

func TestGenerate_FailureIsToolError(t *testing.T) {
	tool := NewGenerateTool(completeSession(t), failingGenerator{}, nil, t.TempDir())
	mustFail(t, tool.Handle, nil, "disk full")
}

// --- Memory bridge ---

type fakeLearner struct {
	content string
	tags    []string
	err     error
}

func (f *fakeLearner) SaveLearning(_ context.Context, content string, tags []string) (string, error) {
	f.content, f.tags = content, tags
	return "mem_1", f.err
}

func TestMemoryBridge(t *testing.T) {
	if NewMemoryBridge(nil) != nil {
		t.Error("nil learner should give a nil bridge")
	}
	var nilBridge *MemoryBridge
	nilBridge.OnGenerated(context.Background(), composer.NewState(), &generator.Result{})

	l := &fakeLearner{}
	state := completeSession(t).View()
	NewMemoryBridge(l).OnGenerated(context.Background(), state, &generator.Result{OutputDir: "/out/support_agent"})
	if !strings.Contains(l.content, "support_agent") || !strings.Contains(l.content, "intake") {
		t.Errorf("learning = %q", l.content)
	}
	if len(l.tags) != 2 || l.tags[1] != "agent:support_agent" {
		t.Errorf("tags = %v", l.tags)
	}

	// Failures are logged, not propagated.
	l.err = errors.New("backend down")
	NewMemoryBridge(l).OnGenerated(context.Background(), state, &generator.Result{})
}
