package composer

import (
	"strings"
	"testing"
)

func TestSummary_Empty(t *testing.T) {
	got := NewState().Summary()
	for _, want := range []string{"# Agent: (unnamed)", "## Nodes (0)", "## Missing", "- agent name", "- entry node not set"} {
		if !strings.Contains(got, want) {
			t.Errorf("summary lacks %q:\n%s", want, got)
		}
	}
	if strings.Contains(got, "Ready to generate") {
		t.Error("empty state must not be ready")
	}
}

func TestSummary_Complete(t *testing.T) {
	s := NewState()
	mustDo(t, s.SetAgent("support", "answers tickets"))
	mustDo(t, s.SetGoal(Goal{Name: "Resolve Tickets", SuccessCriteria: []string{"closed"}}))
	mustDo(t, s.AddNode(NewNode("intake")))
	mustDo(t, s.AddNode(NewNode("resolve")))
	mustDo(t, s.AddEdge(Edge{Source: "intake", Target: "resolve", Condition: ConditionOnSuccess}))
	mustDo(t, s.SetTerminalNodes([]string{"resolve"}))

	got := s.Summary()
	for _, want := range []string{
		"# Agent: support",
		"**Goal:** Resolve Tickets (`resolve_tickets`)",
		"- ✓ closed",
		"| `intake` |",
		"| entry |",
		"| terminal |",
		"0. `intake` → `resolve` (on_success)",
		"Ready to generate.",
	} {
		if !strings.Contains(got, want) {
			t.Errorf("summary lacks %q:\n%s", want, got)
		}
	}
}

func mustDo(t *testing.T, err error) {
	t.Helper()
	if err != nil {
		t.Fatal(err)
	}
}
