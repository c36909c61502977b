package templates

import (
	"encoding/json"
	"slices"
	"strings"
	"testing"
)

// sampleContext mirrors the mapping the generator passes in.
func sampleContext() map[string]any {
	return map[string]any{
		"agent_name":        "simple_support_agent",
		"agent_description": "A basic customer support agent",
		"goal": map[string]any{
			"id":               "support_goal",
			"name":             "Customer Support Goal",
			"description":      "Provide helpful responses to customer inquiries",
			"success_criteria": []string{"response_quality", "resolution_speed"},
			"constraints":      []string{"No PII in logs"},
		},
		"nodes": []map[string]any{
			{
				"id": "intake", "name": "Customer Intake", "description": "Gather details",
				"system_prompt": `Ask "what" happened.`, "tools": []string{},
				"node_type": "event_loop", "client_facing": true,
				"input_keys": []string{}, "output_keys": []string{"issue"},
			},
			{
				"id": "response", "name": "Response Generator", "description": "",
				"system_prompt": "Answer.", "tools": []string{"web_search"},
				"node_type": "event_loop", "client_facing": false,
				"input_keys": []string{"issue"}, "output_keys": []string{},
			},
		},
		"edges": []map[string]any{
			{"source": "intake", "target": "response", "condition": "on_success"},
		},
		"entry_node":     "intake",
		"terminal_nodes": []string{"response"},
		"default_model":  "gpt-4o-mini",
		"max_tokens":     30000,
		"selected_tools": []string{"web_search"},
		"tool_path":      "../../tools",
	}
}

func render(t *testing.T, name string) string {
	t.Helper()
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	out, err := r.Render(name, sampleContext())
	if err != nil {
		t.Fatalf("Render(%s): %v", name, err)
	}
	return out
}

func assertContains(t *testing.T, out string, checks ...string) {
	t.Helper()
	for _, c := range checks {
		if !strings.Contains(out, c) {
			t.Errorf("output missing %q\n---\n%s", c, out)
		}
	}
}

func TestNewRenderer_LoadsAllTemplates(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer() failed: %v", err)
	}
	names := r.Names()
	for _, want := range []string{InitModule, MainModule, AgentModule, ConfigModule, NodesModule, MCPServers} {
		if !slices.Contains(names, want) {
			t.Errorf("template %s not embedded (have %v)", want, names)
		}
	}
}

func TestRender_UnknownTemplate(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if _, err := r.Render("nope.tmpl", sampleContext()); err == nil {
		t.Error("expected error for unknown template")
	}
}

func TestRender_MissingKeyFails(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatalf("NewRenderer: %v", err)
	}
	if _, err := r.Render(ConfigModule, map[string]any{"agent_name": "x"}); err == nil {
		t.Error("expected error for missing context key")
	}
}

func TestRender_Agent(t *testing.T) {
	out := render(t, AgentModule)
	assertContains(t, out,
		`"""simple_support_agent agent definition."""`,
		"from .nodes import (\n    intake_node,\n    response_node,\n)",
		`id="support_goal",`,
		`metric="response_quality",`,
		`metric="resolution_speed",`,
		`id="no_pii_in_logs",`,
		`source="intake",`,
		`condition=EdgeCondition.ON_SUCCESS,`,
		`entry_node = "intake"`,
		"terminal_nodes = [\n    \"response\",\n]",
		`id="support_goal-graph",`,
		`"""simple_support_agent - A basic customer support agent"""`,
	)
}

func TestRender_Nodes(t *testing.T) {
	out := render(t, NodesModule)
	assertContains(t, out,
		"# Customer Intake\nintake_node = NodeSpec(",
		`client_facing=True,`,
		`output_keys=["issue"],`,
		`tools=["web_search"],`,
		`system_prompt="""Ask \"what\" happened.""",`,
		`client_facing=False,`,
	)
}

func TestRender_Config(t *testing.T) {
	out := render(t, ConfigModule)
	assertContains(t, out,
		`os.getenv("HIVE_DEFAULT_MODEL", "gpt-4o-mini")`,
		"max_tokens: int = 30000",
		`"name": "simple_support_agent",`,
		`"author": "Hive Composer",`,
	)
}

func TestRender_InitAndMain(t *testing.T) {
	assertContains(t, render(t, InitModule), `from .agent import Agent`)
	assertContains(t, render(t, MainModule), `"""CLI entry point for simple_support_agent."""`, "def main(")
}

func TestRender_MCPServersIsValidJSON(t *testing.T) {
	out := render(t, MCPServers)
	var doc map[string]struct {
		Cwd   string   `json:"cwd"`
		Tools []string `json:"tools"`
	}
	if err := json.Unmarshal([]byte(out), &doc); err != nil {
		t.Fatalf("mcp_servers.json is not JSON: %v\n%s", err, out)
	}
	srv, ok := doc["hive-tools"]
	if !ok {
		t.Fatalf("missing hive-tools server: %s", out)
	}
	if srv.Cwd != "../../tools" {
		t.Errorf("cwd = %q", srv.Cwd)
	}
	if !slices.Equal(srv.Tools, []string{"web_search"}) {
		t.Errorf("tools = %v", srv.Tools)
	}
}

func TestPyBlock(t *testing.T) {
	tests := []struct {
		in, want string
	}{
		{`plain`, `plain`},
		{`ends with "done"`, `ends with \"done\"`},
		{`say """hi"""`, `say \"\"\"hi\"\"\"`},
		{`C:\tmp\n`, `C:\\tmp\\n`},
		{"two\nlines", "two\nlines"},
	}
	for _, tt := range tests {
		if got := pyBlock(tt.in); got != tt.want {
			t.Errorf("pyBlock(%q) = %q, want %q", tt.in, got, tt.want)
		}
	}
}

func TestPyDoc_SingleLine(t *testing.T) {
	if got := pyDoc("says \"hi\"\n  and\tleaves"); got != `says \"hi\" and leaves` {
		t.Errorf("pyDoc = %q", got)
	}
}

func TestRender_InitEscapesDescription(t *testing.T) {
	r, err := NewRenderer()
	if err != nil {
		t.Fatal(err)
	}
	ctx := sampleContext()
	ctx["agent_description"] = `Says "hi" and ends with a quote"`
	out, err := r.Render(InitModule, ctx)
	if err != nil {
		t.Fatal(err)
	}
	first := strings.SplitN(out, "\n", 2)[0]
	want := `"""simple_support_agent - Says \"hi\" and ends with a quote\""""`
	if first != want {
		t.Errorf("docstring = %s, want %s", first, want)
	}
}

func TestIdent(t *testing.T) {
	tests := map[string]string{
		"No PII in logs":  "no_pii_in_logs",
		"  spaced--out  ": "spaced_out",
		"already_ok":      "already_ok",
	}
	for in, want := range tests {
		if got := ident(in); got != want {
			t.Errorf("ident(%q) = %q, want %q", in, got, want)
		}
	}
}
