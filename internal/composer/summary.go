package composer

import (
	"fmt"
	"strings"
)

// Summary renders the state as a markdown overview for editing surfaces.
func (s *State) Summary() string {
	var b strings.Builder

	name := s.AgentName
	if name == "" {
		name = "(unnamed)"
	}
	fmt.Fprintf(&b, "# Agent: %s\n\n", name)
	if s.AgentDescription != "" {
		fmt.Fprintf(&b, "%s\n\n", s.AgentDescription)
	}

	if s.Goal != nil {
		fmt.Fprintf(&b, "**Goal:** %s (`%s`)\n", s.Goal.Name, s.Goal.ID)
		if s.Goal.Description != "" {
			fmt.Fprintf(&b, "%s\n", s.Goal.Description)
		}
		for _, c := range s.Goal.SuccessCriteria {
			fmt.Fprintf(&b, "- ✓ %s\n", c)
		}
		for _, c := range s.Goal.Constraints {
			fmt.Fprintf(&b, "- ⚠ %s\n", c)
		}
		b.WriteString("\n")
	}

	fmt.Fprintf(&b, "## Nodes (%d)\n\n", len(s.Nodes))
	if len(s.Nodes) == 0 {
		b.WriteString("_none_\n")
	} else {
		b.WriteString("| ID | Name | Type | Tools | Role |\n")
		b.WriteString("|----|------|------|-------|------|\n")
		for _, n := range s.Nodes {
			fmt.Fprintf(&b, "| `%s` | %s | %s | %s | %s |\n",
				n.ID, n.Name, n.NodeType, listOrDash(n.Tools), s.role(n.ID))
		}
	}

	fmt.Fprintf(&b, "\n## Edges (%d)\n\n", len(s.Edges))
	if len(s.Edges) == 0 {
		b.WriteString("_none_\n")
	}
	for i, e := range s.Edges {
		fmt.Fprintf(&b, "%d. `%s` → `%s` (%s)\n", i, e.Source, e.Target, e.Condition)
	}

	fmt.Fprintf(&b, "\n**Model:** %s · **Max tokens:** %d · **Tools:** %s\n",
		s.DefaultModel, s.MaxTokens, listOrDash(s.SelectedTools))

	if missing := s.Missing(); len(missing) > 0 {
		b.WriteString("\n## Missing\n\n")
		for _, m := range missing {
			fmt.Fprintf(&b, "- %s\n", m)
		}
	} else {
		b.WriteString("\nReady to generate.\n")
	}
	return b.String()
}

func (s *State) role(id string) string {
	var roles []string
	if s.EntryNode == id {
		roles = append(roles, "entry")
	}
	for _, t := range s.TerminalNodes {
		if t == id {
			roles = append(roles, "terminal")
			break
		}
	}
	return listOrDash(roles)
}

func listOrDash(items []string) string {
	if len(items) == 0 {
		return "—"
	}
	return strings.Join(items, ", ")
}
