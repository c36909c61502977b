package composer

import (
	"errors"
	"fmt"
	"testing"
)

func TestIsComplete_AllCombinations(t *testing.T) {
	for mask := 0; mask < 16; mask++ {
		hasName := mask&1 != 0
		hasGoal := mask&2 != 0
		hasNode := mask&4 != 0
		hasEntry := mask&8 != 0

		t.Run(fmt.Sprintf("name=%v,goal=%v,node=%v,entry=%v", hasName, hasGoal, hasNode, hasEntry), func(t *testing.T) {
			s := NewState()
			if hasName {
				s.AgentName = "agent"
			}
			if hasGoal {
				s.Goal = &Goal{ID: "g", Name: "G"}
			}
			if hasNode {
				s.Nodes = []Node{NewNode("intake")}
			}
			if hasEntry {
				s.EntryNode = "intake"
			}

			want := hasName && hasGoal && hasNode && hasEntry
			if got := s.IsComplete(); got != want {
				t.Errorf("IsComplete() = %v, want %v", got, want)
			}
			if got := len(s.Missing()) == 0; got != want {
				t.Errorf("len(Missing()) == 0 is %v, want %v (missing=%v)", got, want, s.Missing())
			}
		})
	}
}

func TestMissing_Order(t *testing.T) {
	got := NewState().Missing()
	want := []string{"agent name", "at least one node required", "agent goal", "entry node not set"}
	if len(got) != len(want) {
		t.Fatalf("Missing() = %v, want %v", got, want)
	}
	for i := range want {
		if got[i] != want[i] {
			t.Errorf("Missing()[%d] = %q, want %q", i, got[i], want[i])
		}
	}
}

func TestGetNode(t *testing.T) {
	s := NewState()
	if err := s.AddNode(NewNode("intake")); err != nil {
		t.Fatalf("AddNode: %v", err)
	}

	n, err := s.GetNode("intake")
	if err != nil {
		t.Fatalf("GetNode(intake): %v", err)
	}
	if n.Name != "Intake" {
		t.Errorf("Name = %q, want %q", n.Name, "Intake")
	}

	_, err = s.GetNode("missing")
	if !errors.Is(err, ErrNodeNotFound) {
		t.Errorf("GetNode(missing) error = %v, want ErrNodeNotFound", err)
	}
}

func TestClone_IsDeep(t *testing.T) {
	s := NewState()
	n := NewNode("intake")
	n.Tools = []string{"web_search"}
	if err := s.AddNode(n); err != nil {
		t.Fatalf("AddNode: %v", err)
	}
	if err := s.SetGoal(Goal{Name: "Help", SuccessCriteria: []string{"quality"}}); err != nil {
		t.Fatalf("SetGoal: %v", err)
	}

	c := s.Clone()
	c.Nodes[0].Tools[0] = "changed"
	c.Goal.SuccessCriteria[0] = "changed"
	c.TerminalNodes[0] = "changed"

	if s.Nodes[0].Tools[0] != "web_search" {
		t.Error("clone shares node tools with original")
	}
	if s.Goal.SuccessCriteria[0] != "quality" {
		t.Error("clone shares goal criteria with original")
	}
	if s.TerminalNodes[0] != "intake" {
		t.Error("clone shares terminal nodes with original")
	}
}

func TestSession_UpdateKeepsStateOnError(t *testing.T) {
	sess := NewSession()
	err := sess.Update(func(s *State) error {
		if err := s.AddNode(NewNode("a")); err != nil {
			return err
		}
		return s.AddEdge(Edge{Source: "a", Target: "ghost"})
	})
	if !errors.Is(err, ErrUnknownEndpoint) {
		t.Fatalf("Update error = %v, want ErrUnknownEndpoint", err)
	}
	if got := len(sess.View().Nodes); got != 0 {
		t.Errorf("nodes after failed update = %d, want 0", got)
	}
}
